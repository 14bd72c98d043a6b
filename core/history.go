package core

import "sync"

// History is the append-only ordered record of a conversation. The team's
// scheduler is the single writer: participants receive snapshots and never
// append themselves.
//
// Contract:
//   - Append assigns the message's Seq (position in the history) and returns
//     the stored value
//   - Messages returns a defensive copy to avoid external mutation
//   - concurrent reads are safe; appends must come from one goroutine
type History struct {
	mu       sync.RWMutex
	messages []Message
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{messages: []Message{}}
}

// Append stores the message at the next sequence position and returns the
// stored value with Seq populated.
func (h *History) Append(msg Message) Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	msg.Seq = len(h.messages)
	h.messages = append(h.messages, msg)
	return msg
}

// Messages returns a copy of the full message slice to prevent callers from
// mutating internal state.
func (h *History) Messages() []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	messages := make([]Message, len(h.messages))
	copy(messages, h.messages)
	return messages
}

// Len returns the number of messages recorded so far.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}

// Last returns the most recently appended message, or false when the history
// is still empty.
func (h *History) Last() (Message, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.messages) == 0 {
		return Message{}, false
	}
	return h.messages[len(h.messages)-1], true
}
