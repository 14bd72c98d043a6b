// Package roundtable provides a high-level façade for running multi-participant
// conversations with subprocess tool providers. Most applications interact with
// this package by:
//  1. Creating a Roundtable via New() (optionally overriding the transcript
//     store and logger)
//  2. Describing a conversation with a session.Spec: task, participants with
//     their models and workbenches, termination, sinks
//  3. Calling Run and reading the transcript off the Result
//
// The façade delegates orchestration to session.Manager while keeping setup
// concise. Defaults are safe for local development; production deployments
// typically supply a durable transcript store and a structured logger.
package roundtable

import (
	"context"
	"fmt"

	"github.com/hupe1980/roundtable/config"
	"github.com/hupe1980/roundtable/logging"
	"github.com/hupe1980/roundtable/session"
	"github.com/hupe1980/roundtable/transcript"
)

// Options configures the Roundtable instance.
type Options struct {
	// Store persists full transcripts, whatever the run outcome.
	// Defaults to an in-memory store.
	Store transcript.Store

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Roundtable is the high-level façade over the session manager.
type Roundtable struct {
	manager *session.Manager
}

// New creates a Roundtable with optional overrides. Any unset service is
// initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *Roundtable {
	opts := Options{
		Store:  transcript.NewInMemory(),
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	mgr := session.NewManager(func(o *session.Options) {
		o.Logger = opts.Logger
		o.Store = opts.Store
	})

	return &Roundtable{manager: mgr}
}

// Run executes one conversation to completion or failure. See
// session.Manager.Run for the full contract.
func (r *Roundtable) Run(ctx context.Context, spec session.Spec) (*session.Result, error) {
	return r.manager.Run(ctx, spec)
}

// RunConfig loads a YAML config file, materializes its runtime, runs a single
// conversation for the given task and releases runtime resources before
// returning. Use config.Build directly to keep the runtime alive across runs.
func RunConfig(ctx context.Context, path, task string) (*session.Result, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	rt, err := config.Build(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer rt.Close()

	spec, err := rt.Spec(task)
	if err != nil {
		return nil, err
	}

	mgr := session.NewManager(func(o *session.Options) {
		o.Logger = rt.Logger
		o.Store = rt.Store
	})

	result, runErr := mgr.Run(ctx, *spec)
	if runErr != nil {
		return result, fmt.Errorf("roundtable: %w", runErr)
	}

	return result, nil
}
