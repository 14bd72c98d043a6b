package workbench

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/roundtable/logging"
	"github.com/hupe1980/roundtable/model"
)

// DefaultCallTimeout bounds a call round-trip when Config.Timeout is unset.
const DefaultCallTimeout = 60 * time.Second

// maxResponseBytes caps a single provider response line.
const maxResponseBytes = 10 << 20

// state tracks the workbench lifecycle: unopened -> open -> closed.
type state int

const (
	stateUnopened state = iota
	stateOpen
	stateClosed
)

func (s state) String() string {
	switch s {
	case stateUnopened:
		return "unopened"
	case stateOpen:
		return "open"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Config declares how to launch and talk to a provider subprocess.
type Config struct {
	Command string            // Executable to launch
	Args    []string          // Arguments passed verbatim
	Env     map[string]string // Merged over the parent environment
	Timeout time.Duration     // Per-call round-trip bound; DefaultCallTimeout when zero
	Tools   []ToolDecl        // Static declared tool set
}

// Options configure optional Stdio behavior.
type Options struct {
	// Logger receives workbench lifecycle and call events.
	Logger logging.Logger
	// ShutdownGrace bounds how long Close waits for the provider to exit
	// after stdin is closed before killing it.
	ShutdownGrace time.Duration
}

// Stdio runs one external capability provider as a subprocess and exchanges
// one JSON request line for one JSON response line per call over the
// provider's standard input/output.
//
// Wire format:
//
//	-> {"id":"<uuid>","method":"tools/call","params":{"name":"...","arguments":{...}}}
//	<- {"id":"<same>","result":<any>}
//	<- {"id":"<same>","error":{"code":-1,"message":"..."}}
//
// Calls are serialized internally; request/response pairing over a single
// channel is not reentrant. Stdio implements Workbench plus the Open/Close
// lifecycle consumed by the session manager. It owns one OS-level subprocess
// for its entire open lifetime and never leaks it past Close.
type Stdio struct {
	cfg  Config
	opts Options

	callMu sync.Mutex // serializes call round-trips

	mu    sync.Mutex // guards the lifecycle fields below
	state state
	cmd   *exec.Cmd
	stdin io.WriteCloser
	lines chan []byte
	quit  chan struct{}
}

type callRequest struct {
	ID     string     `json:"id"`
	Method string     `json:"method"`
	Params callParams `json:"params"`
}

type callParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type callResponse struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *providerError  `json:"error,omitempty"`
}

type providerError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewStdio builds a workbench from its launch descriptor. The provider is not
// started until Open.
func NewStdio(cfg Config, optFns ...func(o *Options)) *Stdio {
	opts := Options{
		Logger:        logging.NoOpLogger{},
		ShutdownGrace: 5 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultCallTimeout
	}
	return &Stdio{cfg: cfg, opts: opts, state: stateUnopened}
}

// Tools implements Workbench using the statically declared tool set.
func (s *Stdio) Tools() []model.ToolDefinition {
	defs := make([]model.ToolDefinition, 0, len(s.cfg.Tools))
	for _, t := range s.cfg.Tools {
		params := t.Parameters
		if params == nil {
			params = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		defs = append(defs, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  params,
			},
		})
	}
	return defs
}

// Open launches the provider subprocess, wires its pipes and starts the
// response reader. Transitions unopened -> open; opening from any other state
// is a caller error reported as *LaunchError.
func (s *Stdio) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateUnopened {
		return &LaunchError{Command: s.cfg.Command, Err: fmt.Errorf("workbench is %s, expected unopened", s.state)}
	}
	if err := ctx.Err(); err != nil {
		return &LaunchError{Command: s.cfg.Command, Err: err}
	}

	cmd := exec.Command(s.cfg.Command, s.cfg.Args...)
	cmd.Env = s.buildEnv()

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return &LaunchError{Command: s.cfg.Command, Err: err}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return &LaunchError{Command: s.cfg.Command, Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return &LaunchError{Command: s.cfg.Command, Err: err}
	}

	if err := cmd.Start(); err != nil {
		s.opts.Logger.Error("workbench.open.error", "command", s.cfg.Command, "error", err.Error())
		return &LaunchError{Command: s.cfg.Command, Err: err}
	}

	s.cmd = cmd
	s.stdin = stdin
	s.lines = make(chan []byte, 16)
	s.quit = make(chan struct{})
	s.state = stateOpen

	go s.readLoop(stdout)
	go s.drainStderr(stderr)

	s.opts.Logger.Info("workbench.open", "command", s.cfg.Command, "pid", cmd.Process.Pid, "tools", len(s.cfg.Tools))
	return nil
}

// readLoop forwards provider response lines until EOF or shutdown. Closing
// the lines channel tells a waiting call that the stream ended.
func (s *Stdio) readLoop(stdout io.Reader) {
	defer close(s.lines)
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), maxResponseBytes)
	for scanner.Scan() {
		line := append([]byte(nil), scanner.Bytes()...)
		select {
		case s.lines <- line:
		case <-s.quit:
			return
		}
	}
	if err := scanner.Err(); err != nil {
		s.opts.Logger.Warn("workbench.read.error", "command", s.cfg.Command, "error", err.Error())
	}
}

// drainStderr keeps the provider from blocking on a full stderr pipe and
// surfaces its diagnostics at debug level.
func (s *Stdio) drainStderr(stderr io.Reader) {
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 0, 4*1024), 1<<20)
	for scanner.Scan() {
		s.opts.Logger.Debug("workbench.stderr", "command", s.cfg.Command, "line", scanner.Text())
	}
	if scanner.Err() != nil {
		_, _ = io.Copy(io.Discard, stderr)
	}
}

// Call sends one request line and awaits the matching response line, bounded
// by the configured timeout. Implements Workbench.
func (s *Stdio) Call(ctx context.Context, name string, args map[string]any) (any, error) {
	s.callMu.Lock()
	defer s.callMu.Unlock()

	s.mu.Lock()
	if s.state != stateOpen {
		st := s.state
		s.mu.Unlock()
		return nil, fmt.Errorf("workbench %q is %s, not open", s.cfg.Command, st)
	}
	stdin := s.stdin
	lines := s.lines
	s.mu.Unlock()

	req := callRequest{
		ID:     uuid.NewString(),
		Method: "tools/call",
		Params: callParams{Name: name, Arguments: args},
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, &ProtocolError{Tool: name, Reason: "encode request", Err: err}
	}
	payload = append(payload, '\n')

	start := time.Now()
	s.opts.Logger.Debug("workbench.call", "command", s.cfg.Command, "tool", name)

	if _, err := stdin.Write(payload); err != nil {
		s.opts.Logger.Warn("workbench.call.write_error", "tool", name, "error", err.Error())
		return nil, &ProtocolError{Tool: name, Reason: "write request", Err: err}
	}

	timer := time.NewTimer(s.cfg.Timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		s.opts.Logger.Warn("workbench.call.timeout", "tool", name, "timeout", s.cfg.Timeout)
		return nil, &TimeoutError{Tool: name, Timeout: s.cfg.Timeout}
	case line, ok := <-lines:
		if !ok {
			return nil, &ProtocolError{Tool: name, Reason: "provider closed its output stream"}
		}
		var resp callResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			return nil, &ProtocolError{Tool: name, Reason: "decode response", Err: err}
		}
		if resp.ID != req.ID {
			return nil, &ProtocolError{Tool: name, Reason: fmt.Sprintf("response id %q does not match request id %q", resp.ID, req.ID)}
		}
		if resp.Error != nil {
			s.opts.Logger.Warn("workbench.call.provider_error", "tool", name, "code", resp.Error.Code, "message", resp.Error.Message)
			return nil, fmt.Errorf("tool %q failed: %s (code %d)", name, resp.Error.Message, resp.Error.Code)
		}
		var result any
		if len(resp.Result) > 0 {
			if err := json.Unmarshal(resp.Result, &result); err != nil {
				return nil, &ProtocolError{Tool: name, Reason: "decode result", Err: err}
			}
		}
		s.opts.Logger.Info("workbench.call.success", "tool", name, "duration_ms", time.Since(start).Milliseconds())
		return result, nil
	}
}

// Close terminates the provider and releases the channel. Transitions to
// closed from any state, is idempotent, and always succeeds; an unexpected
// prior subprocess exit is treated as already closed.
func (s *Stdio) Close() error {
	s.mu.Lock()
	if s.state == stateClosed {
		s.mu.Unlock()
		return nil
	}
	prev := s.state
	s.state = stateClosed
	cmd := s.cmd
	stdin := s.stdin
	quit := s.quit
	s.mu.Unlock()

	if prev == stateUnopened || cmd == nil {
		return nil
	}

	close(quit)
	_ = stdin.Close()

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	select {
	case <-waitCh:
	case <-time.After(s.opts.ShutdownGrace):
		s.opts.Logger.Warn("workbench.close.kill", "command", s.cfg.Command)
		_ = cmd.Process.Kill()
		<-waitCh
	}

	s.opts.Logger.Info("workbench.close", "command", s.cfg.Command)
	return nil
}

// buildEnv merges the configured bindings over the parent environment.
func (s *Stdio) buildEnv() []string {
	env := os.Environ()
	for k, v := range s.cfg.Env {
		env = append(env, k+"="+v)
	}
	return env
}
