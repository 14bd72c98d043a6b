package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/roundtable/logging"
	"github.com/hupe1980/roundtable/model"
	"github.com/hupe1980/roundtable/model/anthropic"
	"github.com/hupe1980/roundtable/model/openai"
	"github.com/hupe1980/roundtable/session"
	"github.com/hupe1980/roundtable/sink"
	"github.com/hupe1980/roundtable/team"
	"github.com/hupe1980/roundtable/transcript"
	redistranscript "github.com/hupe1980/roundtable/transcript/redis"
	"github.com/hupe1980/roundtable/workbench"
)

// Runtime holds the long-lived pieces materialized from a Config: logger,
// model backends, transcript store and sinks. Workbench subprocesses are
// per-session, so Spec builds fresh ones on every call.
type Runtime struct {
	Logger      *logging.RoundtableLogger
	Store       transcript.Store
	Sinks       []sink.Sink
	WebSocket   *sink.WebSocket
	Termination team.Predicate

	cfg      *Config
	models   map[string]model.Model
	wsServer *http.Server
}

// Build materializes a validated Config into a Runtime. The context bounds
// connection checks such as the redis ping.
func Build(ctx context.Context, cfg *Config) (*Runtime, error) {
	logger := logging.NewSlogLogger(logLevel(cfg.Logging.Level), cfg.Logging.Format, false)

	models := make(map[string]model.Model, len(cfg.Models))
	for key, mc := range cfg.Models {
		backend, err := buildModel(mc)
		if err != nil {
			return nil, fmt.Errorf("config: models[%s]: %w", key, err)
		}
		models[key] = backend
	}

	store, err := buildStore(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("config: store: %w", err)
	}

	rt := &Runtime{
		Logger:      logger,
		Store:       store,
		Termination: buildTermination(cfg.Termination),
		cfg:         cfg,
		models:      models,
	}

	if cfg.Sinks.Console {
		rt.Sinks = append(rt.Sinks, sink.NewConsole())
	}

	if addr := cfg.Sinks.WebSocket; addr != "" {
		ws := sink.NewWebSocket(func(o *sink.WebSocketOptions) {
			o.Logger = rt.Logger
		})

		mux := http.NewServeMux()
		mux.Handle("/ws", ws)

		srv := &http.Server{Addr: addr, Handler: mux}
		wsLogger := logger.WithComponent("websocket")
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				wsLogger.Error("runtime.websocket.serve", "addr", addr, "error", err.Error())
			}
		}()

		rt.Sinks = append(rt.Sinks, ws)
		rt.WebSocket = ws
		rt.wsServer = srv
	}

	return rt, nil
}

// Spec assembles a session spec for the given task. Each call builds fresh
// workbench subprocess handles, so every run owns its own processes.
func (rt *Runtime) Spec(task string) (*session.Spec, error) {
	benches := make(map[string]*workbench.Stdio, len(rt.cfg.Workbenches))
	for key, wc := range rt.cfg.Workbenches {
		wb, err := buildWorkbench(wc, rt.Logger)
		if err != nil {
			return nil, fmt.Errorf("config: workbenches[%s]: %w", key, err)
		}
		benches[key] = wb
	}

	participants := make([]session.ParticipantSpec, 0, len(rt.cfg.Participants))
	for _, pc := range rt.cfg.Participants {
		ps := session.ParticipantSpec{
			Name:          pc.Name,
			Instructions:  pc.Instructions,
			Model:         rt.models[pc.Model],
			MaxToolRounds: pc.MaxToolRounds,
		}
		for _, key := range pc.Workbenches {
			ps.Workbenches = append(ps.Workbenches, benches[key])
		}
		participants = append(participants, ps)
	}

	return &session.Spec{
		Task:         task,
		Participants: participants,
		Termination:  rt.Termination,
		Sinks:        rt.Sinks,
	}, nil
}

// Close releases runtime resources: the websocket server and any closable
// store or model backends. Safe to call once after all runs finish.
func (rt *Runtime) Close() error {
	var errs []error

	if rt.wsServer != nil {
		if err := rt.wsServer.Shutdown(context.Background()); err != nil {
			errs = append(errs, fmt.Errorf("websocket server: %w", err))
		}
	}
	if rt.WebSocket != nil {
		if err := rt.WebSocket.Close(); err != nil {
			errs = append(errs, fmt.Errorf("websocket sink: %w", err))
		}
	}
	if c, ok := rt.Store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}

	keys := make([]string, 0, len(rt.models))
	for key := range rt.models {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if c, ok := rt.models[key].(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("model %s: %w", key, err))
			}
		}
	}

	return errors.Join(errs...)
}

func buildModel(mc ModelConfig) (model.Model, error) {
	apiKey := ""
	if mc.APIKeyEnv != "" {
		apiKey = os.Getenv(mc.APIKeyEnv)
		if apiKey == "" {
			return nil, fmt.Errorf("environment variable %s is not set", mc.APIKeyEnv)
		}
	}

	switch strings.ToLower(strings.TrimSpace(mc.Provider)) {
	case "openai":
		return openai.NewModel(func(o *openai.Options) {
			o.Model = mc.Name
			o.BaseURL = mc.BaseURL
			o.APIKey = apiKey
			if mc.Temperature != nil {
				o.Temperature = *mc.Temperature
			}
		}), nil
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			o.Model = anthropicsdk.Model(mc.Name)
			o.APIKey = apiKey
			if mc.Temperature != nil {
				o.Temperature = *mc.Temperature
			}
		}), nil
	case "mock":
		return model.NewMock(mc.Name), nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", mc.Provider)
	}
}

func buildWorkbench(wc WorkbenchConfig, logger logging.Logger) (*workbench.Stdio, error) {
	tools := make([]workbench.ToolDecl, 0, len(wc.Tools))
	for _, t := range wc.Tools {
		tools = append(tools, workbench.ToolDecl{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		})
	}

	env := make(map[string]string, len(wc.Env))
	for k, v := range wc.Env {
		env[k] = os.ExpandEnv(v)
	}

	return workbench.NewStdio(workbench.Config{
		Command: wc.Command,
		Args:    wc.Args,
		Env:     env,
		Timeout: wc.Timeout(),
		Tools:   tools,
	}, func(o *workbench.Options) {
		o.Logger = logger
	}), nil
}

func buildStore(ctx context.Context, sc StoreConfig) (transcript.Store, error) {
	switch sc.Type {
	case "memory":
		return transcript.NewInMemory(), nil
	case "redis":
		password := ""
		if sc.Redis.PasswordEnv != "" {
			password = os.Getenv(sc.Redis.PasswordEnv)
		}
		return redistranscript.New(ctx, func(o *redistranscript.Options) {
			o.Addr = sc.Redis.Addr
			o.Password = password
			o.DB = sc.Redis.DB
			o.KeyPrefix = sc.Redis.KeyPrefix
		})
	default:
		return nil, fmt.Errorf("unsupported store type %q", sc.Type)
	}
}

func buildTermination(tc TerminationConfig) team.Predicate {
	var preds []team.Predicate
	if tc.TextMention != "" {
		preds = append(preds, team.TextMention(tc.TextMention))
	}
	if tc.MaxMessages > 0 {
		preds = append(preds, team.MaxMessages(tc.MaxMessages))
	}

	switch len(preds) {
	case 0:
		return nil
	case 1:
		return preds[0]
	default:
		return team.Any(preds...)
	}
}

func logLevel(s string) logging.LogLevel {
	switch s {
	case "debug":
		return logging.LogLevelDebug
	case "warn":
		return logging.LogLevelWarn
	case "error":
		return logging.LogLevelError
	default:
		return logging.LogLevelInfo
	}
}
