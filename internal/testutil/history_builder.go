package testutil

import (
	"github.com/hupe1980/roundtable/core"
)

// HistoryBuilder helps construct conversation histories with fluent chaining
// for tests.
// Example:
//
//	h := NewHistoryBuilder().Task("triage the bug").Messages(m1, m2).Build()
type HistoryBuilder struct {
	messages []core.Message
}

// NewHistoryBuilder creates a new builder for an empty history.
// Use chainable methods (Task, Message, Messages) then call Build.
func NewHistoryBuilder() *HistoryBuilder {
	return &HistoryBuilder{}
}

// Task prepends a user-authored seed task message (chainable).
func (b *HistoryBuilder) Task(task string) *HistoryBuilder {
	b.messages = append([]core.Message{core.NewTaskMessage(task)}, b.messages...)
	return b
}

// Message appends a single message to the history (chainable).
func (b *HistoryBuilder) Message(msg core.Message) *HistoryBuilder {
	b.messages = append(b.messages, msg)
	return b
}

// Messages appends multiple messages to the history (chainable).
func (b *HistoryBuilder) Messages(msgs ...core.Message) *HistoryBuilder {
	b.messages = append(b.messages, msgs...)
	return b
}

// Build returns a *core.History with sequence numbers assigned in order.
func (b *HistoryBuilder) Build() *core.History {
	h := core.NewHistory()

	for _, msg := range b.messages {
		h.Append(msg)
	}

	return h
}

// BuildSlice returns the messages as a plain slice with sequence numbers
// assigned, matching what a participant receives from the scheduler.
func (b *HistoryBuilder) BuildSlice() []core.Message {
	return b.Build().Messages()
}
