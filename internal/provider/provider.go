// Package provider talks to the local model server. Command units
// never go through here; the provider only serves chat turns.
package provider

import (
	"context"
	"errors"
)

// ErrUnavailable reports that the model server cannot be reached.
// Callers wrap it into a user-facing error with a remediation hint.
var ErrUnavailable = errors.New("model provider unavailable")

// Message is one chat turn sent to or received from the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider generates chat completions.
type Provider interface {
	// Chat sends the conversation and returns the model's reply.
	Chat(ctx context.Context, messages []Message) (string, error)

	// Ping checks whether the provider is reachable.
	Ping(ctx context.Context) error
}
