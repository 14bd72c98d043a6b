package core

import (
	"time"

	"github.com/google/uuid"
)

// Message is the primary unit of communication between participants, the team
// and external consumers. Once appended to a History it should be treated as
// immutable. It captures:
//   - Correlation (ID, Seq, Author)
//   - Conversational content (role-based Parts)
//   - High precision UTC timestamp
//
// Seq is assigned by the History on append: the seed task message takes Seq 0
// and produced messages count up from there.
type Message struct {
	ID        string    `json:"id"`
	Seq       int       `json:"seq"`
	Author    string    `json:"author"`
	Timestamp time.Time `json:"timestamp"`
	Content   Content   `json:"content"`
}

// NewMessage creates a bare message authored by 'author'. Prefer the helper
// constructors for common semantic categories (task, assistant text, tool calls).
func NewMessage(author string) Message {
	return Message{
		ID:        NewID(),
		Author:    author,
		Timestamp: time.Now().UTC(),
	}
}

// NewTaskMessage creates the user-authored message that seeds a run.
func NewTaskMessage(task string) Message {
	m := NewMessage("user")
	m.Content = Content{Role: "user", Parts: []Part{TextPart{Text: task}}}
	return m
}

// NewAssistantMessage creates a participant-authored text message.
func NewAssistantMessage(author, text string) Message {
	m := NewMessage(author)
	m.Content = Content{Role: "assistant", Parts: []Part{TextPart{Text: text}}}
	return m
}

// NewToolCallMessage records a participant requesting execution of one or more
// named tools. Used by scripted models and tests; the round-robin conversation
// itself only ever carries finished turns.
func NewToolCallMessage(author string, calls ...FunctionCall) Message {
	m := NewMessage(author)
	parts := make([]Part, 0, len(calls))
	for _, c := range calls {
		parts = append(parts, FunctionCallPart{FunctionCall: c})
	}
	m.Content = Content{Role: "assistant", Parts: parts}
	return m
}

// NewToolResultMessage records the completion result (or error) of a
// previously requested tool call. If err is non-nil its message is copied into
// the response.Error field.
func NewToolResultMessage(author, id, name string, result interface{}, err error) Message {
	m := NewMessage(author)
	fr := FunctionResponse{ID: id, Name: name, Response: result}
	if err != nil {
		fr.Error = err.Error()
	}
	m.Content = Content{Role: "tool", Parts: []Part{FunctionResponsePart{FunctionResponse: fr}}}
	return m
}

// NewID generates a new unique identifier for messages and tool calls.
//
// This function creates a UUID-based unique identifier that can be used for
// correlation throughout the framework.
//
// Returns a string representation of a new UUID.
func NewID() string { return uuid.NewString() }

// Text returns the concatenation of the message's text parts in order.
func (m Message) Text() string { return m.Content.Text() }

// FunctionCalls returns any FunctionCall parts contained within the message
// content preserving their original order.
func (m Message) FunctionCalls() []FunctionCall { return m.Content.FunctionCalls() }

// FunctionResponses returns any FunctionResponse parts contained within the
// message content preserving their original order.
func (m Message) FunctionResponses() []FunctionResponse { return m.Content.FunctionResponses() }

// UnixSeconds returns the timestamp as fractional seconds since Unix epoch.
// Useful for metrics & numeric serialization paths.
func (m Message) UnixSeconds() float64 { return float64(m.Timestamp.UnixNano()) / 1e9 }
