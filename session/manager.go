package session

import (
	"context"
	"fmt"
	"io"

	"github.com/hupe1980/roundtable/core"
	"github.com/hupe1980/roundtable/logging"
	"github.com/hupe1980/roundtable/participant"
	"github.com/hupe1980/roundtable/team"
	"github.com/hupe1980/roundtable/transcript"
	"github.com/hupe1980/roundtable/workbench"
)

// Options configures a Manager.
type Options struct {
	// Logger receives session lifecycle events.
	Logger logging.Logger
	// Store persists the full history of every run, whatever the outcome.
	Store transcript.Store
}

// Manager runs conversations described by a Spec.
//
// Each run gets a fresh session id, a fresh team and a scoped set of
// resources: all workbenches are opened before the first participant is
// constructed, and every opened workbench plus every closable backend is
// released exactly once when the run ends, no matter how it ends.
type Manager struct {
	logger logging.Logger
	store  transcript.Store
}

// NewManager constructs a Manager with optional overrides.
func NewManager(optFns ...func(o *Options)) *Manager {
	opts := Options{
		Logger: logging.NoOpLogger{},
		Store:  transcript.NewInMemory(),
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Manager{
		logger: opts.Logger,
		store:  opts.Store,
	}
}

// Result pairs a finished run's outcome with its session id, under which the
// transcript was persisted.
type Result struct {
	SessionID string
	team.Result
}

// Run executes one conversation to completion or failure.
//
// On failure the returned Result still carries the partial history and the
// session id; the error explains what ended the run. Resources acquired
// before the failure are released either way.
func (m *Manager) Run(ctx context.Context, spec Spec) (*Result, error) {
	sessionID := core.NewID()

	m.logger.Info(
		"session.run.start",
		"session_id", sessionID,
		"participants", len(spec.Participants),
	)

	var opened []Resource
	defer func() {
		for i := len(opened) - 1; i >= 0; i-- {
			_ = opened[i].Close()
		}
		m.logger.Debug("session.resources.released", "session_id", sessionID, "count", len(opened))
	}()

	var backends []io.Closer
	defer func() {
		for i := len(backends) - 1; i >= 0; i-- {
			_ = backends[i].Close()
		}
	}()

	// Acquire every workbench before constructing any participant. A
	// resource bound to several participants is opened once.
	acquired := make(map[Resource]struct{})
	for _, ps := range spec.Participants {
		for _, res := range ps.Workbenches {
			if _, ok := acquired[res]; ok {
				continue
			}
			if err := res.Open(ctx); err != nil {
				m.logger.Error("session.workbench.open_error", "session_id", sessionID, "error", err.Error())
				return nil, fmt.Errorf("session %s: %w", sessionID, err)
			}
			acquired[res] = struct{}{}
			opened = append(opened, res)
		}
	}

	seenBackends := make(map[io.Closer]struct{})

	participants := make([]participant.Participant, 0, len(spec.Participants))
	for _, ps := range spec.Participants {
		if ps.Model == nil {
			return nil, fmt.Errorf("session %s: participant %q has no model", sessionID, ps.Name)
		}

		if closer, ok := ps.Model.(io.Closer); ok {
			if _, seen := seenBackends[closer]; !seen {
				seenBackends[closer] = struct{}{}
				backends = append(backends, closer)
			}
		}

		p, err := participant.New(ps.Name, ps.Instructions, ps.Model, func(o *participant.Options) {
			o.Workbenches = asWorkbenches(ps.Workbenches)
			o.Tools = ps.Tools
			o.Logger = m.logger
			o.MaxToolRounds = ps.MaxToolRounds
		})
		if err != nil {
			return nil, fmt.Errorf("session %s: %w", sessionID, err)
		}

		participants = append(participants, p)
	}

	rr, err := team.New(participants, func(o *team.Options) {
		o.Termination = spec.Termination
		o.Sinks = spec.Sinks
		o.Logger = m.logger
	})
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	teamResult, runErr := rr.Run(ctx, spec.Task)

	if teamResult != nil && m.store != nil {
		if err := m.store.Append(ctx, sessionID, teamResult.Messages...); err != nil {
			m.logger.Warn("session.transcript.error", "session_id", sessionID, "error", err.Error())
		}
	}

	if teamResult == nil {
		return nil, runErr
	}

	m.logger.Info(
		"session.run.end",
		"session_id", sessionID,
		"status", teamResult.Status.String(),
		"messages", len(teamResult.Messages),
	)

	return &Result{SessionID: sessionID, Result: *teamResult}, runErr
}

func asWorkbenches(resources []Resource) []workbench.Workbench {
	wbs := make([]workbench.Workbench, 0, len(resources))
	for _, res := range resources {
		wbs = append(wbs, res)
	}
	return wbs
}
