package dispatch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mzielinska/rarog/internal/config"
	"github.com/mzielinska/rarog/internal/project"
	"github.com/mzielinska/rarog/internal/provider"
	"github.com/mzielinska/rarog/internal/registry"
)

type fakeProvider struct {
	calls [][]provider.Message
	reply string
	err   error
}

func (f *fakeProvider) Chat(_ context.Context, messages []provider.Message) (string, error) {
	f.calls = append(f.calls, messages)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeProvider) Ping(context.Context) error { return nil }

func testDispatcher(t *testing.T, prov provider.Provider) *Dispatcher {
	t.Helper()
	cfg := config.DefaultConfig(t.TempDir())
	reg := registry.New(cfg.CommandsDir, nil, zap.NewNop())
	store := project.NewStore(nil, cfg.ProjectsDir, zap.NewNop())
	return New(reg, store, prov, cfg, zap.NewNop())
}

func TestProcessCalcInvocation(t *testing.T) {
	prov := &fakeProvider{reply: "ok"}
	d := testDispatcher(t, prov)

	out := d.Process(context.Background(), "calc: 2 + 3 * 4")
	if out.Kind != HandledLocally {
		t.Fatalf("Kind = %v, want handled locally", out.Kind)
	}
	if !strings.Contains(out.Output, "= 14") {
		t.Errorf("Output = %q, want the result 14", out.Output)
	}
	if !strings.Contains(out.Output, "=== Context from calc ===") {
		t.Errorf("Output = %q, want a context block", out.Output)
	}

	// The artifact landed on an auto-created default project.
	active := d.Store().Active()
	if active == nil {
		t.Fatal("no active project after a successful invocation")
	}
	if active.Name != project.DefaultProjectName {
		t.Errorf("project name = %q", active.Name)
	}
	if active.ArtifactCount() != 1 {
		t.Errorf("ArtifactCount = %d, want 1", active.ArtifactCount())
	}

	// No provider call for a bare command invocation.
	if len(prov.calls) != 0 {
		t.Errorf("provider was called %d times", len(prov.calls))
	}
}

func TestProcessUnitErrorSurfacedOnly(t *testing.T) {
	prov := &fakeProvider{reply: "ok"}
	d := testDispatcher(t, prov)

	out := d.Process(context.Background(), "doc:")
	if out.Kind != HandledLocally {
		t.Fatalf("Kind = %v", out.Kind)
	}
	if !strings.Contains(out.Output, "file path is required") {
		t.Errorf("Output = %q, want the unit's error verbatim", out.Output)
	}

	// No artifact, no project, no model call.
	if d.Store().Active() != nil {
		t.Error("failed invocation must not create a project")
	}
	if len(prov.calls) != 0 {
		t.Error("failed invocation must not reach the provider")
	}
}

func TestProcessPlainChat(t *testing.T) {
	prov := &fakeProvider{reply: "hello back"}
	d := testDispatcher(t, prov)

	out := d.Process(context.Background(), "hello there")
	if out.Kind != PlainForwarded {
		t.Fatalf("Kind = %v, want plain forward", out.Kind)
	}
	if out.Output != "hello back" {
		t.Errorf("Output = %q", out.Output)
	}
	if len(prov.calls) != 1 || prov.calls[0][0].Content != "hello there" {
		t.Errorf("provider calls = %+v", prov.calls)
	}

	turns := d.Store().Session().Turns()
	if len(turns) != 2 || turns[1].Role != "assistant" {
		t.Errorf("Turns = %+v", turns)
	}
}

func TestProcessChatCarriesHistory(t *testing.T) {
	prov := &fakeProvider{reply: "reply"}
	d := testDispatcher(t, prov)

	d.Process(context.Background(), "first message")
	d.Process(context.Background(), "second message")

	last := prov.calls[len(prov.calls)-1]
	if len(last) != 3 {
		t.Fatalf("second call got %d messages, want prior user+assistant+new", len(last))
	}
	if last[0].Content != "first message" || last[1].Content != "reply" {
		t.Errorf("history = %+v", last)
	}
}

func TestProcessLeadingTextForwardsContext(t *testing.T) {
	prov := &fakeProvider{reply: "the answer is four"}
	d := testDispatcher(t, prov)

	out := d.Process(context.Background(), "explain this result calc: 2+2")
	if out.Kind != ContextForwarded {
		t.Fatalf("Kind = %v, want context forward", out.Kind)
	}
	if out.Output != "the answer is four" {
		t.Errorf("Output = %q", out.Output)
	}

	require.Len(t, prov.calls, 1)
	sent := prov.calls[0][len(prov.calls[0])-1].Content
	require.Contains(t, sent, "=== Context from calc ===")
	require.Contains(t, sent, "explain this result")

	// The artifact was still captured.
	active := d.Store().Active()
	require.NotNil(t, active)
	require.Equal(t, 1, active.ArtifactCount())
}

func TestProcessFirstMatchOnly(t *testing.T) {
	d := testDispatcher(t, &fakeProvider{})

	// Everything after the first resolvable token is argument text,
	// so calc sees the trailing doc: token and rejects the expression.
	out := d.Process(context.Background(), "calc: 2+2 doc: readme.md")
	if !strings.Contains(out.Output, "cannot evaluate") {
		t.Errorf("Output = %q, want a calc error over the whole remainder", out.Output)
	}
	if d.Store().Active() != nil {
		t.Error("failed invocation must not create a project")
	}
}

func TestProcessWithoutProvider(t *testing.T) {
	d := testDispatcher(t, nil)

	out := d.Process(context.Background(), "hello")
	if out.Kind != HandledLocally || !strings.Contains(out.Output, "not reachable") {
		t.Errorf("chat without provider: %+v", out)
	}

	// Commands stay fully usable.
	out = d.Process(context.Background(), "calc: 1 + 1")
	if !strings.Contains(out.Output, "= 2") {
		t.Errorf("calc without provider: %q", out.Output)
	}
}

func TestProcessProviderUnavailable(t *testing.T) {
	prov := &fakeProvider{err: fmt.Errorf("%w: connection refused", provider.ErrUnavailable)}
	d := testDispatcher(t, prov)

	out := d.Process(context.Background(), "hello")
	if out.Kind != HandledLocally {
		t.Fatalf("Kind = %v", out.Kind)
	}
	if !strings.Contains(out.Output, "not reachable") || !strings.Contains(out.Output, "model server") {
		t.Errorf("Output = %q, want the remediation hint", out.Output)
	}
	if len(d.Store().Session().Turns()) != 0 {
		t.Error("failed chat must not record turns")
	}
}

func TestProcessEmptyInput(t *testing.T) {
	d := testDispatcher(t, &fakeProvider{})
	out := d.Process(context.Background(), "   ")
	if out.Kind != HandledLocally || out.Output != "" {
		t.Errorf("empty input: %+v", out)
	}
}

func TestDirectives(t *testing.T) {
	d := testDispatcher(t, &fakeProvider{reply: "r"})
	ctx := context.Background()

	out := d.Process(ctx, ":help")
	if !strings.Contains(out.Output, ":project create") {
		t.Errorf(":help output = %q", out.Output)
	}

	out = d.Process(ctx, ":settings")
	if !strings.Contains(out.Output, "model host") {
		t.Errorf(":settings output = %q", out.Output)
	}

	out = d.Process(ctx, ":commands")
	if !strings.Contains(out.Output, "calc:") || !strings.Contains(out.Output, "folder:") {
		t.Errorf(":commands output = %q", out.Output)
	}

	out = d.Process(ctx, ":model mistral")
	if !strings.Contains(out.Output, "mistral") {
		t.Errorf(":model output = %q", out.Output)
	}

	d.Process(ctx, "hi")
	out = d.Process(ctx, ":clear")
	if !strings.Contains(out.Output, "cleared") {
		t.Errorf(":clear output = %q", out.Output)
	}
	if len(d.Store().Session().Turns()) != 0 {
		t.Error(":clear left history behind")
	}

	out = d.Process(ctx, ":nonsense")
	if !strings.Contains(out.Output, "unknown command :nonsense") {
		t.Errorf("unknown directive output = %q", out.Output)
	}

	out = d.Process(ctx, ":exit")
	if out.Kind != SessionEnd {
		t.Errorf(":exit Kind = %v, want session end", out.Kind)
	}
}

func TestProjectDirectiveFlow(t *testing.T) {
	d := testDispatcher(t, &fakeProvider{})
	ctx := context.Background()

	out := d.Process(ctx, ":project create research api notes")
	require.Contains(t, out.Output, "created and active")

	out = d.Process(ctx, "calc: 2+2")
	require.Contains(t, out.Output, "= 4")

	out = d.Process(ctx, ":project list")
	require.Contains(t, out.Output, "research")
	require.Contains(t, out.Output, "* = active")

	out = d.Process(ctx, ":project info")
	require.Contains(t, out.Output, "artifacts:   1")

	out = d.Process(ctx, ":project open")
	require.Contains(t, out.Output, "bundle written to")
	path := strings.TrimPrefix(out.Output, "bundle written to ")
	if _, err := os.Stat(path); err != nil {
		t.Errorf("bundle missing: %v", err)
	}
	require.Equal(t, "index.html", filepath.Base(path))

	out = d.Process(ctx, ":project validate")
	require.Contains(t, out.Output, "valid")
	require.NotContains(t, out.Output, "INVALID")

	out = d.Process(ctx, ":project switch nope")
	require.Contains(t, out.Output, "not found")

	out = d.Process(ctx, ":project create second")
	require.Contains(t, out.Output, "created and active")
	out = d.Process(ctx, ":project switch research")
	require.Contains(t, out.Output, "switched to project research (1 artifacts)")
}

func TestCommandTimeout(t *testing.T) {
	cfg := config.DefaultConfig(t.TempDir())
	cfg.CommandTimeoutSecs = 1

	slow := `package main

import "time"

func Name() string { return "slow" }

func Describe() string { return "sleeps" }

func Run(arg string) (string, error) {
	time.Sleep(10 * time.Second)
	return "done", nil
}
`
	pkgDir := filepath.Join(cfg.CommandsDir, "slow")
	require.NoError(t, os.MkdirAll(pkgDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(pkgDir, "main.go"), []byte(slow), 0o644))

	reg := registry.New(cfg.CommandsDir, nil, zap.NewNop())
	store := project.NewStore(nil, cfg.ProjectsDir, zap.NewNop())
	d := New(reg, store, nil, cfg, zap.NewNop())

	start := time.Now()
	out := d.Process(context.Background(), "slow: anything")
	if !strings.Contains(out.Output, "timed out") {
		t.Errorf("Output = %q, want a timeout error", out.Output)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("timeout did not bound the invocation")
	}
	if store.Active() != nil {
		t.Error("timed-out invocation must not create an artifact")
	}
}
