// Package team drives a fixed set of participants through a shared
// conversation until a termination predicate matches or a turn fails.
//
// The scheduler is the only writer of the shared history. Each produced
// message is appended, delivered to the sinks and evaluated against the
// predicate before the next participant runs, so observers always see the
// conversation exactly as it unfolded.
package team

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/roundtable/core"
	"github.com/hupe1980/roundtable/logging"
	"github.com/hupe1980/roundtable/participant"
	"github.com/hupe1980/roundtable/sink"
)

// Status describes where a team run is in its lifecycle.
type Status int

const (
	// StatusIdle means Run has not been called yet.
	StatusIdle Status = iota
	// StatusRunning means the conversation is in progress.
	StatusRunning
	// StatusCompleted means the termination predicate matched.
	StatusCompleted
	// StatusFailed means a turn failed or the run was canceled.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Options configures a RoundRobin team.
type Options struct {
	// Termination decides when the conversation stops. Without one the run
	// continues until a turn fails or the context is canceled.
	Termination Predicate
	// Sinks receive every produced message, in order, before the next turn.
	Sinks []sink.Sink
	// Logger receives run lifecycle and turn events.
	Logger logging.Logger
}

// Result captures the outcome of a finished run.
type Result struct {
	// Status is Completed or Failed.
	Status Status
	// Messages is the full conversation, seed included, as produced up to
	// the stopping point.
	Messages []core.Message
	// StopReason says in prose why the run ended.
	StopReason string
}

// RoundRobin schedules participants in fixed order, one turn each per
// round, with no skipping and no reordering. A single instance runs one
// conversation; construct a new team for a new run.
type RoundRobin struct {
	participants []participant.Participant
	termination  Predicate
	sinks        sink.Multi
	logger       logging.Logger

	mu     sync.Mutex
	status Status
}

// New creates a team from an ordered participant list.
//
// Returns an error when the list is empty or two participants share a name.
func New(participants []participant.Participant, optFns ...func(o *Options)) (*RoundRobin, error) {
	if len(participants) == 0 {
		return nil, fmt.Errorf("team: at least one participant required")
	}

	seen := make(map[string]struct{}, len(participants))
	for _, p := range participants {
		if _, dup := seen[p.Name()]; dup {
			return nil, fmt.Errorf("team: duplicate participant name %q", p.Name())
		}
		seen[p.Name()] = struct{}{}
	}

	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &RoundRobin{
		participants: participants,
		termination:  opts.Termination,
		sinks:        sink.Multi(opts.Sinks),
		logger:       opts.Logger,
		status:       StatusIdle,
	}, nil
}

// Status returns the team's current lifecycle state.
func (rr *RoundRobin) Status() Status {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	return rr.status
}

// Run seeds the history with the task and cycles through the participants
// until the predicate matches, a turn fails or ctx is canceled. It may be
// called once per team.
//
// On failure the returned Result still carries the history produced so far
// alongside the non-nil error, so callers can inspect how far the
// conversation got.
func (rr *RoundRobin) Run(ctx context.Context, task string) (*Result, error) {
	rr.mu.Lock()
	if rr.status != StatusIdle {
		status := rr.status
		rr.mu.Unlock()
		return nil, fmt.Errorf("team: run already started (status %s)", status)
	}
	rr.status = StatusRunning
	rr.mu.Unlock()

	history := core.NewHistory()
	history.Append(core.NewTaskMessage(task))

	rr.logger.Info("team.run.start", "participants", len(rr.participants))

	round := 0

	for {
		round++

		for i, p := range rr.participants {
			if err := ctx.Err(); err != nil {
				return rr.fail(history, fmt.Errorf("run canceled: %w", err))
			}

			start := time.Now()
			msg, err := p.ProduceNext(ctx, history.Messages())
			rr.logger.Info(
				"team.turn",
				"participant", p.Name(),
				"round", round,
				"position", i,
				"duration_ms", time.Since(start).Milliseconds(),
				"error", err != nil,
			)

			if err != nil {
				return rr.fail(history, fmt.Errorf("turn of %q failed: %w", p.Name(), err))
			}

			stored := history.Append(msg)
			rr.sinks.OnMessage(ctx, stored)

			if rr.termination != nil && rr.termination(stored) {
				rr.setStatus(StatusCompleted)
				rr.logger.Info(
					"team.run.completed",
					"round", round,
					"messages", history.Len()-1,
					"stopped_by", p.Name(),
				)

				return &Result{
					Status:     StatusCompleted,
					Messages:   history.Messages(),
					StopReason: fmt.Sprintf("termination matched on message from %q", p.Name()),
				}, nil
			}
		}
	}
}

func (rr *RoundRobin) fail(history *core.History, err error) (*Result, error) {
	rr.setStatus(StatusFailed)
	rr.logger.Error("team.run.failed", "error", err.Error())

	return &Result{
		Status:     StatusFailed,
		Messages:   history.Messages(),
		StopReason: err.Error(),
	}, err
}

func (rr *RoundRobin) setStatus(s Status) {
	rr.mu.Lock()
	rr.status = s
	rr.mu.Unlock()
}
