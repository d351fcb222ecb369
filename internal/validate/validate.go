// Package validate checks the artifacts rarog writes and reads: HTML
// project bundles, env-style config files, and command package
// directories. Expected malformations land in the report, not in the
// error return; errors are reserved for I/O failures.
package validate

import "fmt"

// Report is the outcome of one validation run.
type Report struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func (r *Report) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Valid = false
}

func (r *Report) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func newReport() *Report { return &Report{Valid: true} }
