package sink

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/roundtable/core"
)

func TestCollector_CapturesInOrder(t *testing.T) {
	c := NewCollector()

	first := core.NewAssistantMessage("a", "one")
	second := core.NewAssistantMessage("b", "two")

	c.OnMessage(context.Background(), first)
	c.OnMessage(context.Background(), second)

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "one", msgs[0].Text())
	assert.Equal(t, "two", msgs[1].Text())
	assert.Equal(t, 2, c.Len())
}

func TestCollector_MessagesReturnsCopy(t *testing.T) {
	c := NewCollector()
	c.OnMessage(context.Background(), core.NewAssistantMessage("a", "one"))

	msgs := c.Messages()
	msgs[0] = core.NewAssistantMessage("x", "tampered")

	assert.Equal(t, "one", c.Messages()[0].Text())
}

func TestMulti_FansOutInOrder(t *testing.T) {
	first := NewCollector()
	second := NewCollector()

	m := Multi{first, second}
	m.OnMessage(context.Background(), core.NewAssistantMessage("a", "hello"))

	assert.Equal(t, 1, first.Len())
	assert.Equal(t, 1, second.Len())
}
