// Package project holds session-scoped project state: append-only
// artifact collections that materialize to self-contained HTML bundles
// on request.
package project

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Artifact is one captured command output. Artifacts are immutable
// once appended.
type Artifact struct {
	// ID is a ULID assigned at append time.
	ID string

	// Kind is the result type reported by the producing command
	// (e.g. "calculation", "directory_analysis", "document").
	Kind string

	// Command is the name of the command that produced the artifact.
	Command string

	// Title is a short human-readable label.
	Title string

	// Content is the markdown body.
	Content string

	// Data carries the command's machine-readable payload.
	Data map[string]any

	// CreatedAt is when the artifact was appended.
	CreatedAt time.Time
}

// Project is one named artifact collection within a session.
type Project struct {
	// ID is a ULID assigned at creation.
	ID string

	// SessionID is the owning session's UUID.
	SessionID string

	Name        string
	Description string
	Tags        []string

	CreatedAt time.Time
	UpdatedAt time.Time

	// BundlePath is where the project last materialized, empty until
	// the first write.
	BundlePath string

	artifacts []*Artifact
}

// Artifacts returns the project's artifacts in append order. The
// returned slice is a copy; the underlying collection is append-only.
func (p *Project) Artifacts() []*Artifact {
	out := make([]*Artifact, len(p.artifacts))
	copy(out, p.artifacts)
	return out
}

// ArtifactCount returns the number of artifacts appended so far.
func (p *Project) ArtifactCount() int { return len(p.artifacts) }

func (p *Project) append(a *Artifact) {
	p.artifacts = append(p.artifacts, a)
	p.UpdatedAt = a.CreatedAt
}

func newULID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
