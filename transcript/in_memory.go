package transcript

import (
	"context"
	"sync"

	"github.com/hupe1980/roundtable/core"
)

// InMemory is a volatile Store implementation keeping transcripts in a
// process local map. It is safe for concurrent access and best suited for
// tests or ephemeral demo runs. Returned slices are copies to prevent
// external mutation of internal state.
type InMemory struct {
	mu       sync.RWMutex
	sessions map[string][]core.Message
}

// NewInMemory constructs an empty in-memory transcript store.
func NewInMemory() *InMemory {
	return &InMemory{sessions: make(map[string][]core.Message)}
}

// Append implements Store.
func (s *InMemory) Append(_ context.Context, sessionID string, msgs ...core.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = append(s.sessions[sessionID], msgs...)
	return nil
}

// Messages implements Store.
func (s *InMemory) Messages(_ context.Context, sessionID string) ([]core.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.sessions[sessionID]
	msgs := make([]core.Message, len(stored))
	copy(msgs, stored)
	return msgs, nil
}

// Delete implements Store.
func (s *InMemory) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}
