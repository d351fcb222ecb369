package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/mzielinska/rarog/internal/command"
)

const echoPlugin = `package main

import "strings"

func Name() string { return "echo" }

func Describe() string { return "Echoes its argument back" }

func Run(arg string) (string, error) {
	return "echo: " + strings.TrimSpace(arg), nil
}
`

const shoutPlugin = `package main

import "strings"

func Name() string { return "shout" }

func Describe() string { return "Upper-cases its argument" }

func Run(arg string) (string, error) {
	return strings.ToUpper(arg), nil
}
`

func writePackage(t *testing.T, root, dir, source string, extras map[string]string) {
	t.Helper()
	pkgDir := filepath.Join(root, dir)
	if err := os.MkdirAll(pkgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if source != "" {
		if err := os.WriteFile(filepath.Join(pkgDir, "main.go"), []byte(source), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	for name, content := range extras {
		if err := os.WriteFile(filepath.Join(pkgDir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestRegistryBuiltins(t *testing.T) {
	r := New("", nil, zap.NewNop())

	for _, token := range []string{"calc", "math", "folder", "dir", "doc", "pdf", "read"} {
		if _, ok := r.Resolve(token); !ok {
			t.Errorf("builtin token %q did not resolve", token)
		}
	}
	if _, ok := r.Resolve("nope"); ok {
		t.Error("unknown token resolved")
	}
}

func TestRegistryResolveCaseInsensitive(t *testing.T) {
	r := New("", nil, zap.NewNop())

	for _, token := range []string{"CALC", "Calc", "MATH"} {
		if _, ok := r.Resolve(token); !ok {
			t.Errorf("Resolve(%q) failed, resolution must be case-insensitive", token)
		}
	}
}

func TestRegistryDisabledCommands(t *testing.T) {
	r := New("", []string{"doc"}, zap.NewNop())

	if _, ok := r.Resolve("doc"); ok {
		t.Error("disabled command still resolves")
	}
	if _, ok := r.Resolve("calc"); !ok {
		t.Error("unrelated command was disabled too")
	}
}

func TestDiscoveryRegistersPackages(t *testing.T) {
	root := t.TempDir()
	writePackage(t, root, "echo", echoPlugin, nil)
	writePackage(t, root, "shout", shoutPlugin, nil)

	r := New(root, nil, zap.NewNop())

	unit, ok := r.Resolve("echo")
	if !ok {
		t.Fatal("discovered package did not register")
	}
	res := unit.Execute(context.Background(), "hello", nil)
	if res.Failed() {
		t.Fatalf("plugin execution failed: %s", res.Err)
	}
	if res.Content != "echo: hello" {
		t.Errorf("Content = %q, want %q", res.Content, "echo: hello")
	}

	if _, ok := r.Resolve("shout"); !ok {
		t.Error("second package did not register")
	}
}

func TestDiscoveryIsolatesFailures(t *testing.T) {
	root := t.TempDir()
	writePackage(t, root, "echo", echoPlugin, nil)
	writePackage(t, root, "broken", "package main\n\nfunc Name() string {", nil)
	writePackage(t, root, "empty", "", nil) // no main.go at all
	writePackage(t, root, "shout", shoutPlugin, nil)

	r := New(root, nil, zap.NewNop())

	if _, ok := r.Resolve("echo"); !ok {
		t.Error("healthy package lost to a neighboring failure")
	}
	if _, ok := r.Resolve("shout"); !ok {
		t.Error("healthy package lost to a neighboring failure")
	}
	if _, ok := r.Resolve("broken"); ok {
		t.Error("malformed package registered")
	}

	// calc must still answer correctly after a partial discovery.
	unit, _ := r.Resolve("calc")
	res := unit.Execute(context.Background(), "2 + 3 * 4", nil)
	if res.Failed() || res.Data["result"].(float64) != 14 {
		t.Errorf("calc after partial discovery: Err=%q result=%v", res.Err, res.Data["result"])
	}
}

func TestDiscoverySkipsDottedDirs(t *testing.T) {
	root := t.TempDir()
	writePackage(t, root, ".hidden", echoPlugin, nil)

	r := New(root, nil, zap.NewNop())
	if _, ok := r.Resolve("echo"); ok {
		t.Error("dotted directory was discovered")
	}
}

func TestRegistryOverrideLastWriteWins(t *testing.T) {
	root := t.TempDir()
	// A discovered package reusing a builtin name overrides the builtin.
	override := `package main

func Name() string { return "calc" }

func Describe() string { return "replacement calculator" }

func Run(arg string) (string, error) { return "overridden", nil }
`
	writePackage(t, root, "calc", override, nil)

	r := New(root, nil, zap.NewNop())
	unit, ok := r.Resolve("calc")
	if !ok {
		t.Fatal("calc vanished after override")
	}
	res := unit.Execute(context.Background(), "anything", nil)
	if res.Content != "overridden" {
		t.Errorf("Content = %q, override must win registration", res.Content)
	}
}

func TestRegistryNamesAndDescriptors(t *testing.T) {
	r := New("", nil, zap.NewNop())

	names := r.Names()
	want := []string{"calc", "doc", "folder"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], want[i])
		}
	}

	descs := r.Descriptors()
	if len(descs) != 3 {
		t.Fatalf("Descriptors() returned %d entries", len(descs))
	}
	var _ command.Descriptor = descs[0]
}

func TestDiscoveryMissingRootIsBenign(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "never-created"), nil, zap.NewNop())
	if _, ok := r.Resolve("calc"); !ok {
		t.Error("builtins must survive a missing commands directory")
	}
}
