// Package registry maintains the set of available command units:
// builtins plus packages discovered under the commands directory.
package registry

import (
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/mzielinska/rarog/internal/command"
)

// Registry resolves invocation tokens to command units. The unit set
// is built once, on first use, and read-only afterwards.
type Registry struct {
	commandsDir string
	disabled    map[string]bool
	log         *zap.Logger

	once  sync.Once
	units map[string]command.Unit // lowercase name and alias -> unit
	order []string                // canonical names in registration order
}

// New creates a registry over the given commands directory. Disabled
// names are skipped at registration. A nil logger means no logging.
func New(commandsDir string, disabled []string, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	d := make(map[string]bool, len(disabled))
	for _, name := range disabled {
		d[strings.ToLower(strings.TrimSpace(name))] = true
	}
	return &Registry{
		commandsDir: commandsDir,
		disabled:    d,
		log:         log,
		units:       make(map[string]command.Unit),
	}
}

func (r *Registry) ensure() {
	r.once.Do(func() {
		for _, u := range []command.Unit{
			command.NewCalc(),
			command.NewFolder(),
			command.NewDoc(),
		} {
			r.register(u)
		}
		r.discover()
	})
}

// register indexes a unit under its name and aliases. A later
// registration for an already-taken token wins, with a warning.
func (r *Registry) register(u command.Unit) {
	desc := u.Descriptor()
	name := strings.ToLower(desc.Name)
	if name == "" {
		r.log.Warn("ignoring command with empty name")
		return
	}
	if r.disabled[name] {
		r.log.Debug("skipping disabled command", zap.String("command", name))
		return
	}

	tokens := append([]string{name}, desc.Aliases...)
	for _, tok := range tokens {
		tok = strings.ToLower(tok)
		if prev, taken := r.units[tok]; taken {
			r.log.Warn("command token overridden",
				zap.String("token", tok),
				zap.String("previous", prev.Descriptor().Name),
				zap.String("winner", name))
		}
		r.units[tok] = u
	}

	for i, existing := range r.order {
		if existing == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.order = append(r.order, name)
}

// Resolve finds the unit registered under token, case-insensitively.
func (r *Registry) Resolve(token string) (command.Unit, bool) {
	r.ensure()
	u, ok := r.units[strings.ToLower(token)]
	return u, ok
}

// Names returns the canonical command names, sorted.
func (r *Registry) Names() []string {
	r.ensure()
	names := make([]string, len(r.order))
	copy(names, r.order)
	sort.Strings(names)
	return names
}

// Descriptors returns the descriptors of all registered units, sorted
// by name.
func (r *Registry) Descriptors() []command.Descriptor {
	r.ensure()
	descs := make([]command.Descriptor, 0, len(r.order))
	for _, name := range r.Names() {
		if u, ok := r.units[name]; ok {
			descs = append(descs, u.Descriptor())
		}
	}
	return descs
}
