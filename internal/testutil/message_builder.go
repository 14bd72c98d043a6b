package testutil

import (
	"github.com/hupe1980/roundtable/core"
)

// MessageBuilder assembles core.Message values for tests without the
// ceremony of building part slices by hand.
//
//	msg := testutil.NewMessageBuilder().
//		Author("triager").
//		Text("PAY-17 confirmed.").
//		Build()
type MessageBuilder struct {
	author   string
	role     string
	parts    []core.Part
	hasParts bool
}

// NewMessageBuilder starts a builder with author "participant" and role
// "assistant".
func NewMessageBuilder() *MessageBuilder {
	return &MessageBuilder{author: "participant", role: "assistant"}
}

// Author sets the message author.
func (b *MessageBuilder) Author(author string) *MessageBuilder {
	b.author = author
	return b
}

// Role overrides the content role.
func (b *MessageBuilder) Role(role string) *MessageBuilder {
	b.role = role
	return b
}

// Text appends a text part.
func (b *MessageBuilder) Text(text string) *MessageBuilder {
	b.parts = append(b.parts, core.TextPart{Text: text})
	b.hasParts = true
	return b
}

// FunctionCall appends a function call part.
func (b *MessageBuilder) FunctionCall(id, name, args string) *MessageBuilder {
	b.parts = append(b.parts, core.FunctionCallPart{FunctionCall: core.FunctionCall{
		ID:        id,
		Name:      name,
		Arguments: args,
	}})
	b.hasParts = true
	return b
}

// FunctionResponse appends a function response part; a non-nil err fills the
// response's Error field.
func (b *MessageBuilder) FunctionResponse(id, name string, result interface{}, err error) *MessageBuilder {
	fr := core.FunctionResponse{ID: id, Name: name, Response: result}
	if err != nil {
		fr.Error = err.Error()
	}
	b.parts = append(b.parts, core.FunctionResponsePart{FunctionResponse: fr})
	b.hasParts = true
	return b
}

// Build produces the message.
func (b *MessageBuilder) Build() core.Message {
	msg := core.NewMessage(b.author)
	if b.hasParts {
		msg.Content = core.Content{Role: b.role, Parts: b.parts}
	}
	return msg
}
