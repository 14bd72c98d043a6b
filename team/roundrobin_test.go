package team

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/roundtable/core"
	"github.com/hupe1980/roundtable/participant"
	"github.com/hupe1980/roundtable/sink"
)

// echoParticipant always replies with the same text.
type echoParticipant struct {
	name  string
	reply string
	calls int

	// historyLens records the history length seen on each turn.
	historyLens []int
}

func (e *echoParticipant) Name() string { return e.name }

func (e *echoParticipant) ProduceNext(_ context.Context, history []core.Message) (core.Message, error) {
	e.calls++
	e.historyLens = append(e.historyLens, len(history))
	return core.NewAssistantMessage(e.name, e.reply), nil
}

// failingParticipant fails every turn.
type failingParticipant struct {
	name string
	err  error
}

func (f *failingParticipant) Name() string { return f.name }

func (f *failingParticipant) ProduceNext(context.Context, []core.Message) (core.Message, error) {
	return core.Message{}, f.err
}

func authors(msgs []core.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Author)
	}
	return out
}

func TestRoundRobin_TurnOrder(t *testing.T) {
	a := &echoParticipant{name: "a", reply: "aa"}
	b := &echoParticipant{name: "b", reply: "bb"}
	c := &echoParticipant{name: "c", reply: "cc"}

	rr, err := New([]participant.Participant{a, b, c}, func(o *Options) {
		o.Termination = MaxMessages(6)
	})
	require.NoError(t, err)

	result, err := rr.Run(context.Background(), "go twice around")
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, result.Status)
	assert.Equal(t, StatusCompleted, rr.Status())

	// Two full rounds: seed plus 3*2 messages in strict order.
	require.Len(t, result.Messages, 7)
	assert.Equal(t, []string{"user", "a", "b", "c", "a", "b", "c"}, authors(result.Messages))

	// Sequence indices follow append order.
	for i, msg := range result.Messages {
		assert.Equal(t, i, msg.Seq)
	}
}

func TestRoundRobin_ScenarioTextMention(t *testing.T) {
	a := &echoParticipant{name: "A", reply: "hi"}
	b := &echoParticipant{name: "B", reply: "TESTING COMPLETE"}
	collector := sink.NewCollector()

	rr, err := New([]participant.Participant{a, b}, func(o *Options) {
		o.Termination = TextMention("TESTING COMPLETE")
		o.Sinks = []sink.Sink{collector}
	})
	require.NoError(t, err)

	result, err := rr.Run(context.Background(), "say hi then stop")
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, result.Status)

	// Seed plus exactly two produced messages, A's then B's.
	require.Len(t, result.Messages, 3)
	assert.Equal(t, []string{"user", "A", "B"}, authors(result.Messages))
	assert.Equal(t, "say hi then stop", result.Messages[0].Text())

	// The sink saw both produced messages, in order, and not the seed.
	captured := collector.Messages()
	require.Len(t, captured, 2)
	assert.Equal(t, []string{"A", "B"}, authors(captured))
}

func TestRoundRobin_EarlyStopMidRound(t *testing.T) {
	a := &echoParticipant{name: "a", reply: "working"}
	b := &echoParticipant{name: "b", reply: "all done, STOP"}
	c := &echoParticipant{name: "c", reply: "never mind"}

	rr, err := New([]participant.Participant{a, b, c}, func(o *Options) {
		o.Termination = TextMention("STOP")
	})
	require.NoError(t, err)

	result, err := rr.Run(context.Background(), "task")
	require.NoError(t, err)

	// Match on position i=1 in round 1: two post-seed messages, c never ran.
	assert.Equal(t, StatusCompleted, result.Status)
	require.Len(t, result.Messages, 3)
	assert.Equal(t, 0, c.calls)
	assert.Contains(t, result.StopReason, `"b"`)
}

func TestRoundRobin_FailureOnFirstTurn(t *testing.T) {
	boom := &participant.BackendError{Participant: "A", Err: errors.New("quota exceeded")}
	a := &failingParticipant{name: "A", err: boom}
	b := &echoParticipant{name: "B", reply: "unreachable"}
	collector := sink.NewCollector()

	rr, err := New([]participant.Participant{a, b}, func(o *Options) {
		o.Termination = TextMention("TESTING COMPLETE")
		o.Sinks = []sink.Sink{collector}
	})
	require.NoError(t, err)

	result, err := rr.Run(context.Background(), "task")
	require.Error(t, err)

	var be *participant.BackendError
	assert.ErrorAs(t, err, &be)

	// Failed, history preserved with only the seed, nothing reached the sink.
	assert.Equal(t, StatusFailed, result.Status)
	require.Len(t, result.Messages, 1)
	assert.Equal(t, "user", result.Messages[0].Author)
	assert.Equal(t, 0, collector.Len())
	assert.Equal(t, 0, b.calls)
}

func TestRoundRobin_FailureMidConversation(t *testing.T) {
	a := &echoParticipant{name: "a", reply: "round one"}
	b := &failingParticipant{name: "b", err: errors.New("connection lost")}
	collector := sink.NewCollector()

	rr, err := New([]participant.Participant{a, b}, func(o *Options) {
		o.Sinks = []sink.Sink{collector}
	})
	require.NoError(t, err)

	result, err := rr.Run(context.Background(), "task")
	require.Error(t, err)

	assert.Equal(t, StatusFailed, result.Status)
	require.Len(t, result.Messages, 2)
	assert.Equal(t, "a", result.Messages[1].Author)

	// Every successfully produced message reached the sink before failure.
	assert.Equal(t, 1, collector.Len())
	assert.Contains(t, result.StopReason, "connection lost")
}

func TestRoundRobin_HistorySnapshotsGrow(t *testing.T) {
	a := &echoParticipant{name: "a", reply: "one"}
	b := &echoParticipant{name: "b", reply: "two"}

	rr, err := New([]participant.Participant{a, b}, func(o *Options) {
		o.Termination = MaxMessages(4)
	})
	require.NoError(t, err)

	_, err = rr.Run(context.Background(), "task")
	require.NoError(t, err)

	// a turn 1 sees the seed; b sees seed+1; a turn 2 sees seed+2; ...
	assert.Equal(t, []int{1, 3}, a.historyLens)
	assert.Equal(t, []int{2, 4}, b.historyLens)
}

func TestRoundRobin_RunIsOneShot(t *testing.T) {
	a := &echoParticipant{name: "a", reply: "done"}

	rr, err := New([]participant.Participant{a}, func(o *Options) {
		o.Termination = MaxMessages(1)
	})
	require.NoError(t, err)

	_, err = rr.Run(context.Background(), "task")
	require.NoError(t, err)

	_, err = rr.Run(context.Background(), "again")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already started")
}

func TestRoundRobin_ContextCanceled(t *testing.T) {
	a := &echoParticipant{name: "a", reply: "never"}

	rr, err := New([]participant.Participant{a})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := rr.Run(ctx, "task")
	require.Error(t, err)

	assert.Equal(t, StatusFailed, result.Status)
	require.Len(t, result.Messages, 1)
	assert.Equal(t, 0, a.calls)
}

func TestRoundRobin_ConstructionErrors(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)

	_, err = New([]participant.Participant{
		&echoParticipant{name: "same"},
		&echoParticipant{name: "same"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate participant name "same"`)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "idle", StatusIdle.String())
	assert.Equal(t, "running", StatusRunning.String())
	assert.Equal(t, "completed", StatusCompleted.String())
	assert.Equal(t, "failed", StatusFailed.String())
	assert.Equal(t, "unknown", Status(42).String())
}
