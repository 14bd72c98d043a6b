package session

import (
	"context"

	"github.com/hupe1980/roundtable/model"
	"github.com/hupe1980/roundtable/sink"
	"github.com/hupe1980/roundtable/team"
	"github.com/hupe1980/roundtable/tool"
	"github.com/hupe1980/roundtable/workbench"
)

// Resource is a workbench whose subprocess lifecycle is owned by the session
// manager: opened before any participant is built, closed exactly once on
// teardown. Close must be idempotent.
type Resource interface {
	workbench.Workbench
	Open(ctx context.Context) error
	Close() error
}

// ParticipantSpec declares one conversation member.
type ParticipantSpec struct {
	// Name is the participant's unique display name.
	Name string
	// Instructions is the immutable role prompt.
	Instructions string
	// Model is the completion backend.
	Model model.Model
	// Workbenches are the subprocess-backed tool providers bound to this
	// participant. The manager owns their lifecycles.
	Workbenches []Resource
	// Tools are in-process function tools.
	Tools []tool.Tool
	// MaxToolRounds caps tool round-trips per turn; zero means no cap.
	MaxToolRounds int
}

// Spec describes one conversation run end to end.
type Spec struct {
	// Task seeds the conversation.
	Task string
	// Participants take turns in the order given.
	Participants []ParticipantSpec
	// Termination decides when the conversation stops.
	Termination team.Predicate
	// Sinks observe every produced message.
	Sinks []sink.Sink
}
