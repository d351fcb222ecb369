package project

import (
	"time"

	"github.com/google/uuid"
)

// Turn is one conversation exchange entry.
type Turn struct {
	Role    string // "user" or "assistant"
	Content string
}

// Session is one interactive run of the assistant. It owns the
// conversation history; projects created during the run carry its ID.
type Session struct {
	ID        string
	StartedAt time.Time

	turns []Turn
}

// NewSession creates a session with a fresh UUID.
func NewSession() *Session {
	return &Session{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
	}
}

// AddTurn appends one conversation entry.
func (s *Session) AddTurn(role, content string) {
	s.turns = append(s.turns, Turn{Role: role, Content: content})
}

// Turns returns the conversation history in order.
func (s *Session) Turns() []Turn {
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Clear drops the conversation history. Projects and artifacts are
// untouched.
func (s *Session) Clear() {
	s.turns = nil
}
