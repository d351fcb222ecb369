package command

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// maxDocBytes caps how much of a document is read into context.
const maxDocBytes = 256 * 1024

// textExtensions lists the plain-text formats the doc unit extracts.
var textExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".log":  true,
	".csv":  true,
	".json": true,
	".yaml": true,
	".yml":  true,
	".toml": true,
	".env":  true,
}

// DocUnit extracts text from documents.
type DocUnit struct{}

// NewDoc creates the builtin document reader unit.
func NewDoc() *DocUnit { return &DocUnit{} }

func (d *DocUnit) Descriptor() Descriptor {
	return Descriptor{
		Name:            "doc",
		Aliases:         []string{"pdf", "read"},
		Description:     "Extract text from plain-text documents for analysis",
		Category:        CategoryDocuments,
		ContextProvider: true,
		MachineCallable: false,
	}
}

func (d *DocUnit) Execute(_ context.Context, arg string, env *Env) *Result {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return Failure("file path is required (usage: doc: <file> [--head=N])")
	}

	switch strings.ToLower(arg) {
	case "help", "?":
		return Usage(docUsage)
	case "formats":
		return Success("formats_list", listDocFormats(), nil)
	}

	fields := strings.Fields(arg)
	path := fields[0]
	headLines := 0

	for _, opt := range fields[1:] {
		if v, ok := strings.CutPrefix(opt, "--head="); ok {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				return Failuref("invalid --head value: %q", v)
			}
			headLines = n
			continue
		}
		return Failuref("unknown option: %s", opt)
	}

	resolved, err := resolvePath(path, env)
	if err != nil {
		return Failuref("cannot resolve path %q: %v", path, err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return Failuref("file not found: %s", resolved)
		}
		return Failuref("cannot access %s: %v", resolved, err)
	}
	if info.IsDir() {
		return Failuref("path is a directory, not a file: %s (use folder: for directories)", resolved)
	}

	ext := strings.ToLower(filepath.Ext(resolved))
	if !textExtensions[ext] {
		return Failuref("unsupported format %q; supported: %s", ext, strings.Join(sortedDocFormats(), ", "))
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return Failuref("cannot read %s: %v", resolved, err)
	}

	clipped := false
	if len(data) > maxDocBytes {
		data = data[:maxDocBytes]
		clipped = true
	}

	text := string(data)
	totalLines := strings.Count(text, "\n") + 1
	if headLines > 0 {
		lines := strings.SplitN(text, "\n", headLines+1)
		if len(lines) > headLines {
			lines = lines[:headLines]
			clipped = true
		}
		text = strings.Join(lines, "\n")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Document: %s\n\n", resolved)
	fmt.Fprintf(&b, "%s, %d lines\n\n", humanSize(info.Size()), totalLines)
	b.WriteString("```\n")
	b.WriteString(strings.TrimRight(text, "\n"))
	b.WriteString("\n```\n")
	if clipped {
		b.WriteString("\n(content truncated)\n")
	}

	return Success("document", b.String(), map[string]any{
		"path":      resolved,
		"extension": ext,
		"bytes":     info.Size(),
		"lines":     totalLines,
	})
}

const docUsage = `doc extracts text from plain-text documents.

Usage:
  doc: <file>              read a document into context
  doc: <file> --head=20    read only the first 20 lines
  doc: formats             list supported formats`

func sortedDocFormats() []string {
	formats := make([]string, 0, len(textExtensions))
	for ext := range textExtensions {
		formats = append(formats, ext)
	}
	sort.Strings(formats)
	return formats
}

func listDocFormats() string {
	var b strings.Builder
	b.WriteString("Supported document formats:\n")
	for _, ext := range sortedDocFormats() {
		fmt.Fprintf(&b, "  %s\n", ext)
	}
	return b.String()
}
