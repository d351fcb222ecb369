package command

import (
	"fmt"
	"sort"
	"strings"
)

// Result is the structured output of one unit invocation. Exactly one
// of the success payload (Content and/or Data) or Err is set, never
// both and never neither; use the constructors to keep that invariant.
type Result struct {
	// Type discriminates the payload (e.g. "calculation", "directory_analysis",
	// "document", "help", "error").
	Type string `json:"type"`

	// Content is the human-readable payload, markdown-formatted.
	Content string `json:"content,omitempty"`

	// Data carries machine-readable payload fields.
	Data map[string]any `json:"data,omitempty"`

	// Err is the unit's own failure message. A Result with Err set
	// carries no payload.
	Err string `json:"error,omitempty"`
}

// Success builds a successful Result with content and optional data.
func Success(typ, content string, data map[string]any) *Result {
	if content == "" && len(data) == 0 {
		content = "(empty result)"
	}
	return &Result{Type: typ, Content: content, Data: data}
}

// Failure builds an error Result. The message is surfaced to the user
// verbatim and the invocation produces no artifact.
func Failure(msg string) *Result {
	return &Result{Type: "error", Err: msg}
}

// Failuref builds an error Result from a format string.
func Failuref(format string, args ...any) *Result {
	return Failure(fmt.Sprintf(format, args...))
}

// Usage builds a help Result. Usage responses are successes: an empty
// argument is answered, not rejected, where the unit's contract says so.
func Usage(text string) *Result {
	return &Result{Type: "help", Content: text}
}

// Failed reports whether the result carries an error instead of a payload.
func (r *Result) Failed() bool {
	return r.Err != ""
}

// ContextBlock renders the result as the fenced context block spliced
// into the conversation and stored as an artifact body.
func (r *Result) ContextBlock(name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== Context from %s ===\n\n", name)
	if r.Content != "" {
		b.WriteString(strings.TrimRight(r.Content, "\n"))
		b.WriteString("\n")
	}
	if len(r.Data) > 0 {
		keys := make([]string, 0, len(r.Data))
		for k := range r.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "- **%s**: %v\n", k, r.Data[k])
		}
	}
	b.WriteString("\n=== End context ===\n")
	return b.String()
}
