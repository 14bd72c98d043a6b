// Package participant defines conversation members and the model-backed
// implementation that turns shared history into the next message.
//
// A Participant is handed a read-only snapshot of the conversation and must
// come back with exactly one message. Everything that happens in between,
// including any number of model/tool round-trips, is private to the
// participant; the shared history is only ever extended by the team
// scheduler.
package participant

import (
	"context"

	"github.com/hupe1980/roundtable/core"
)

// Participant produces the next conversation message when its turn comes up.
//
// Implementations must not mutate the history slice or the messages within
// it. A returned error ends the participant's turn without a message; the
// scheduler decides what that means for the run.
type Participant interface {
	// Name returns the participant's unique display name.
	Name() string

	// ProduceNext derives the participant's next message from the
	// conversation so far.
	ProduceNext(ctx context.Context, history []core.Message) (core.Message, error)
}
