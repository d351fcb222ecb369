// Package command defines the contract every command unit satisfies,
// plus the builtin units shipped with rarog (calc, folder, doc).
//
// A command unit is one self-contained analysis capability. Context
// provider units produce structured output that is spliced into the
// conversation as context; direct units produce terminal output only.
package command

import "context"

// Category groups units for listing purposes.
type Category string

const (
	CategoryMath       Category = "math"
	CategoryFilesystem Category = "filesystem"
	CategoryDocuments  Category = "documents"
	CategoryGeneral    Category = "general"
)

// Descriptor is the static metadata of one command unit.
// It is created at discovery time and immutable after load.
type Descriptor struct {
	// Name is the invocation token, a unique lowercase word.
	Name string

	// Aliases are additional invocation tokens.
	Aliases []string

	// Description is a one-line human-readable summary.
	Description string

	// Category groups the unit in :commands output.
	Category Category

	// ContextProvider marks units whose output is fed back to the
	// model as context. Non-providers produce terminal output only.
	ContextProvider bool

	// MachineCallable marks units exposed as MCP tools.
	MachineCallable bool
}

// Env is the ambient context handed to a unit on each invocation.
type Env struct {
	// WorkDir is the directory relative paths resolve against.
	WorkDir string

	// Model is the currently active model identifier.
	Model string

	// MaxScanEntries caps directory listings produced by units.
	MaxScanEntries int
}

// Unit is one pluggable analysis capability.
//
// Execute receives the raw argument text after the invocation token
// (already trimmed) and must return a Result; it never returns a Go
// error. Unit-internal failures are reported through Result.Err so
// they can be surfaced verbatim without crashing the session loop.
// Implementations must handle the empty-argument case themselves,
// typically by returning usage help or an explicit error Result.
type Unit interface {
	Descriptor() Descriptor
	Execute(ctx context.Context, arg string, env *Env) *Result
}
