package sink

import (
	"context"
	"sync"

	"github.com/hupe1980/roundtable/core"
)

// Collector is a Sink that captures every message in memory. Useful in tests
// and for callers that want the stream without a transcript store.
type Collector struct {
	mu       sync.Mutex
	messages []core.Message
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// OnMessage implements Sink.
func (c *Collector) OnMessage(_ context.Context, msg core.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
}

// Messages returns a copy of the captured messages in delivery order.
func (c *Collector) Messages() []core.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	msgs := make([]core.Message, len(c.messages))
	copy(msgs, c.messages)
	return msgs
}

// Len returns the number of captured messages.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}
