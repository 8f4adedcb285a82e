package session

import (
	"sync"
	"time"

	"github.com/crystaldolphin/tomekeeper/internal/schema"
)

// Session holds one archived conversation and its metadata.
type Session struct {
	Key       string
	Messages  schema.Messages
	CreatedAt time.Time
	UpdatedAt time.Time
	Metadata  map[string]any

	mu sync.Mutex
}

func newSession(key string) *Session {
	now := time.Now()
	return &Session{
		Key:       key,
		Messages:  schema.NewMessages(),
		CreatedAt: now,
		UpdatedAt: now,
		Metadata:  map[string]any{},
	}
}

// Replace swaps in a copy of msgs as the archived transcript.
func (s *Session) Replace(msgs schema.Messages) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Messages = msgs.Clone()
	s.UpdatedAt = time.Now()
}

// History returns a copy of the archived transcript.
func (s *Session) History() schema.Messages {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Messages.Clone()
}

// Len returns the number of messages in the session.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Messages.Messages)
}

// Clear drops every message.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Messages = schema.NewMessages()
	s.UpdatedAt = time.Now()
}
