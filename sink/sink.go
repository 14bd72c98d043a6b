// Package sink delivers conversation messages to observers as they are
// appended: terminal rendering, websocket fan-out and in-memory capture.
//
// Delivery is synchronous and ordered. The scheduler hands each message to
// every sink exactly once, in append order, and does not take the next turn
// until the sinks return. A slow sink therefore slows the conversation
// rather than dropping or reordering messages.
package sink

import (
	"context"

	"github.com/hupe1980/roundtable/core"
)

// Sink receives each appended conversation message exactly once.
//
// OnMessage must not block indefinitely and must not mutate the message.
// Sinks are notification targets; a sink that fails internally should
// swallow the problem rather than disturb the conversation.
type Sink interface {
	OnMessage(ctx context.Context, msg core.Message)
}

// Multi fans a message out to several sinks in order.
type Multi []Sink

// OnMessage implements Sink.
func (m Multi) OnMessage(ctx context.Context, msg core.Message) {
	for _, s := range m {
		s.OnMessage(ctx, msg)
	}
}
