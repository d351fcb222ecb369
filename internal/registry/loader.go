package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/mzielinska/rarog/internal/command"
)

// allowedPluginImports is the stdlib allowlist for interpreted command
// packages. Anything touching the network, processes, or raw syscalls
// stays out.
var allowedPluginImports = map[string]bool{
	"fmt":             true,
	"strings":         true,
	"strconv":         true,
	"math":            true,
	"sort":            true,
	"bytes":           true,
	"regexp":          true,
	"time":            true,
	"errors":          true,
	"unicode":         true,
	"encoding/json":   true,
	"encoding/base64": true,
	"encoding/csv":    true,
	"path":            true,
	"path/filepath":   true,
}

// plugin adapts an interpreted command package to the Unit interface.
type plugin struct {
	desc command.Descriptor
	run  func(string) (string, error)
}

func (p *plugin) Descriptor() command.Descriptor { return p.desc }

// Execute runs the interpreted entry point on a goroutine so a stuck
// plugin cannot outlive the invocation context.
func (p *plugin) Execute(ctx context.Context, arg string, _ *command.Env) *command.Result {
	type outcome struct {
		out string
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome{err: fmt.Errorf("command panicked: %v", r)}
			}
		}()
		out, err := p.run(arg)
		ch <- outcome{out, err}
	}()

	select {
	case o := <-ch:
		if o.err != nil {
			return command.Failure(o.err.Error())
		}
		return command.Success("command_output", o.out, nil)
	case <-ctx.Done():
		return command.Failuref("command interrupted: %v", ctx.Err())
	}
}

// LoadPackage loads one command package directory: main.go interpreted
// under yaegi plus the optional manifest descriptor. The source must
// export Name() string, Describe() string and Run(string) (string, error).
func LoadPackage(dir string) (command.Unit, error) {
	entry := filepath.Join(dir, "main.go")
	src, err := os.ReadFile(entry)
	if err != nil {
		return nil, fmt.Errorf("missing entry point: %w", err)
	}

	if err := checkImports(string(src)); err != nil {
		return nil, err
	}

	manifest, err := LoadManifest(dir)
	if err != nil {
		return nil, err
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("interpreter setup: %w", err)
	}
	if _, err := i.Eval(string(src)); err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", entry, err)
	}

	nameFn, err := evalFunc[func() string](i, "main.Name")
	if err != nil {
		return nil, err
	}
	describeFn, err := evalFunc[func() string](i, "main.Describe")
	if err != nil {
		return nil, err
	}
	runFn, err := evalFunc[func(string) (string, error)](i, "main.Run")
	if err != nil {
		return nil, err
	}

	desc := command.Descriptor{
		Name:            strings.ToLower(strings.TrimSpace(nameFn())),
		Description:     strings.TrimSpace(describeFn()),
		Category:        command.CategoryGeneral,
		ContextProvider: true,
	}
	if manifest != nil {
		applyManifest(&desc, manifest)
	}
	if desc.Name == "" {
		return nil, fmt.Errorf("package declares an empty command name")
	}

	return &plugin{desc: desc, run: runFn}, nil
}

func applyManifest(desc *command.Descriptor, m *Manifest) {
	if m.Name != "" {
		desc.Name = strings.ToLower(strings.TrimSpace(m.Name))
	}
	if m.Description != "" {
		desc.Description = m.Description
	}
	for _, a := range m.Aliases {
		desc.Aliases = append(desc.Aliases, strings.ToLower(strings.TrimSpace(a)))
	}
	if m.Category != "" {
		desc.Category = command.Category(strings.ToLower(m.Category))
	}
	if m.ContextProvider != nil {
		desc.ContextProvider = *m.ContextProvider
	}
	desc.MachineCallable = m.MachineCallable
}

func evalFunc[T any](i *interp.Interpreter, symbol string) (T, error) {
	var zero T
	v, err := i.Eval(symbol)
	if err != nil {
		return zero, fmt.Errorf("%s not found: %w", symbol, err)
	}
	fn, ok := v.Interface().(T)
	if !ok {
		return zero, fmt.Errorf("%s has the wrong signature", symbol)
	}
	return fn, nil
}

// checkImports rejects source importing anything outside the allowlist
// before it ever reaches the interpreter.
func checkImports(src string) error {
	var forbidden []string
	inBlock := false
	for _, line := range strings.Split(src, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "import ("):
			inBlock = true
		case inBlock && trimmed == ")":
			inBlock = false
		case inBlock:
			if pkg := importPath(trimmed); pkg != "" && !allowedPluginImports[pkg] {
				forbidden = append(forbidden, pkg)
			}
		case strings.HasPrefix(trimmed, "import "):
			rest := strings.TrimPrefix(trimmed, "import ")
			if pkg := importPath(rest); pkg != "" && !allowedPluginImports[pkg] {
				forbidden = append(forbidden, pkg)
			}
		}
	}
	if len(forbidden) > 0 {
		return fmt.Errorf("forbidden imports: %s", strings.Join(forbidden, ", "))
	}
	return nil
}

// importPath extracts the quoted path from an import line, tolerating
// an alias prefix and trailing comments.
func importPath(line string) string {
	start := strings.IndexByte(line, '"')
	if start < 0 {
		return ""
	}
	end := strings.IndexByte(line[start+1:], '"')
	if end < 0 {
		return ""
	}
	return line[start+1 : start+1+end]
}
