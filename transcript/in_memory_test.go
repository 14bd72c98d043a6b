package transcript

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/roundtable/core"
)

func TestInMemory_AppendAndRead(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	seed := core.NewTaskMessage("triage the board")
	reply := core.NewAssistantMessage("triager", "on it")

	require.NoError(t, store.Append(ctx, "sess-1", seed, reply))

	msgs, err := store.Messages(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "triage the board", msgs[0].Text())
	assert.Equal(t, "triager", msgs[1].Author)
}

func TestInMemory_SessionsAreIsolated(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "sess-1", core.NewTaskMessage("one")))
	require.NoError(t, store.Append(ctx, "sess-2", core.NewTaskMessage("two")))

	msgs, err := store.Messages(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "one", msgs[0].Text())
}

func TestInMemory_UnknownSessionIsEmpty(t *testing.T) {
	store := NewInMemory()

	msgs, err := store.Messages(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestInMemory_Delete(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "sess-1", core.NewTaskMessage("one")))
	require.NoError(t, store.Delete(ctx, "sess-1"))

	msgs, err := store.Messages(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, msgs)

	// Deleting again is a no-op.
	assert.NoError(t, store.Delete(ctx, "sess-1"))
}

func TestInMemory_ReadReturnsCopy(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "sess-1", core.NewTaskMessage("one")))

	msgs, err := store.Messages(ctx, "sess-1")
	require.NoError(t, err)
	msgs[0] = core.NewTaskMessage("tampered")

	fresh, err := store.Messages(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "one", fresh[0].Text())
}
