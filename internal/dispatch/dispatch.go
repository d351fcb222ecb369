// Package dispatch routes raw input lines to builtin directives,
// context provider commands, or the model provider.
package dispatch

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mzielinska/rarog/internal/command"
	"github.com/mzielinska/rarog/internal/config"
	"github.com/mzielinska/rarog/internal/errors"
	"github.com/mzielinska/rarog/internal/project"
	"github.com/mzielinska/rarog/internal/provider"
	"github.com/mzielinska/rarog/internal/registry"
)

// OutcomeKind says how an input was handled.
type OutcomeKind int

const (
	// HandledLocally covers directives and context command output
	// shown directly to the user.
	HandledLocally OutcomeKind = iota
	// ContextForwarded means a command ran and its context plus the
	// remaining request went to the model.
	ContextForwarded
	// PlainForwarded means the input went to the model verbatim.
	PlainForwarded
	// SessionEnd means an exit directive ran.
	SessionEnd
)

// Outcome is the result of processing one input line.
type Outcome struct {
	Kind   OutcomeKind
	Output string
}

// Dispatcher owns the per-session routing state.
type Dispatcher struct {
	reg   *registry.Registry
	store *project.Store
	prov  provider.Provider
	cfg   *config.Config
	log   *zap.Logger
}

// New wires a dispatcher. prov may be nil when no model server is
// reachable; command and project functionality stays fully usable.
func New(reg *registry.Registry, store *project.Store, prov provider.Provider, cfg *config.Config, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{reg: reg, store: store, prov: prov, cfg: cfg, log: log}
}

// Store exposes the session's project store.
func (d *Dispatcher) Store() *project.Store { return d.store }

// Process classifies and handles one input line.
func (d *Dispatcher) Process(ctx context.Context, input string) *Outcome {
	if strings.TrimSpace(input) == "" {
		return &Outcome{Kind: HandledLocally, Output: ""}
	}

	c := Classify(input, d.resolvesProvider)
	switch c.Kind {
	case KindDirective:
		return d.handleDirective(ctx, c)
	case KindContext:
		return d.handleContext(ctx, c)
	default:
		return d.handleChat(ctx, input)
	}
}

// resolvesProvider reports whether token names a registered context
// provider unit.
func (d *Dispatcher) resolvesProvider(token string) bool {
	u, ok := d.reg.Resolve(token)
	return ok && u.Descriptor().ContextProvider
}

func (d *Dispatcher) handleContext(ctx context.Context, c Classification) *Outcome {
	unit, ok := d.reg.Resolve(c.Command)
	if !ok {
		// Classify only matches resolvable tokens; this is a race
		// guard, not an expected path.
		return &Outcome{Kind: HandledLocally, Output: "unknown command: " + c.Command}
	}
	desc := unit.Descriptor()

	res := d.invoke(ctx, unit, c.Arg)
	if res.Failed() {
		d.log.Debug("command failed",
			zap.String("command", desc.Name), zap.String("error", res.Err))
		return &Outcome{Kind: HandledLocally, Output: res.Err}
	}

	block := res.ContextBlock(desc.Name)

	title := c.Arg
	if title == "" {
		title = desc.Name
	}
	if _, _, err := d.store.Append(res.Type, desc.Name, title, res.Content, res.Data); err != nil {
		return &Outcome{Kind: HandledLocally, Output: errors.UserMessage(err)}
	}

	if c.Leading == "" {
		return &Outcome{Kind: HandledLocally, Output: block}
	}

	// Conversational text remains; hand the context plus the request
	// to the model.
	if d.prov == nil {
		return &Outcome{
			Kind:   HandledLocally,
			Output: block + "\n" + errors.UserMessage(errors.NewProviderUnavailable(d.cfg.ModelHost, nil)),
		}
	}

	reply, err := d.chat(ctx, block+"\n"+c.Leading)
	if err != nil {
		return &Outcome{Kind: HandledLocally, Output: block + "\n" + errors.UserMessage(err)}
	}
	return &Outcome{Kind: ContextForwarded, Output: reply}
}

func (d *Dispatcher) handleChat(ctx context.Context, input string) *Outcome {
	if d.prov == nil {
		return &Outcome{
			Kind:   HandledLocally,
			Output: errors.UserMessage(errors.NewProviderUnavailable(d.cfg.ModelHost, nil)),
		}
	}
	reply, err := d.chat(ctx, input)
	if err != nil {
		return &Outcome{Kind: HandledLocally, Output: errors.UserMessage(err)}
	}
	return &Outcome{Kind: PlainForwarded, Output: reply}
}

// chat sends the conversation history plus the new user message and
// records both turns.
func (d *Dispatcher) chat(ctx context.Context, userMessage string) (string, error) {
	session := d.store.Session()

	messages := make([]provider.Message, 0, len(session.Turns())+1)
	for _, t := range session.Turns() {
		messages = append(messages, provider.Message{Role: t.Role, Content: t.Content})
	}
	messages = append(messages, provider.Message{Role: "user", Content: userMessage})

	reply, err := d.prov.Chat(ctx, messages)
	if err != nil {
		if stderrors.Is(err, provider.ErrUnavailable) {
			return "", errors.NewProviderUnavailable(d.cfg.ModelHost, err)
		}
		return "", errors.NewInternal(err)
	}

	session.AddTurn("user", userMessage)
	session.AddTurn("assistant", reply)
	return reply, nil
}

// invoke runs one unit under the configured timeout, converting
// panics and overruns into error Results.
func (d *Dispatcher) invoke(ctx context.Context, unit command.Unit, arg string) *command.Result {
	timeout := time.Duration(d.cfg.CommandTimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = time.Duration(config.DefaultCommandTimeoutSecs) * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	env := &command.Env{
		Model:          d.cfg.Model,
		MaxScanEntries: d.cfg.MaxScanEntries,
	}

	ch := make(chan *command.Result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				d.log.Error("command panicked",
					zap.String("command", unit.Descriptor().Name), zap.Any("panic", r))
				ch <- command.Failuref("command %s crashed: %v", unit.Descriptor().Name, r)
			}
		}()
		ch <- unit.Execute(ctx, arg, env)
	}()

	select {
	case res := <-ch:
		return res
	case <-ctx.Done():
		return command.Failuref("command %s timed out after %s", unit.Descriptor().Name, timeout)
	}
}

