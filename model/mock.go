package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/roundtable/core"
)

// Mock is a lightweight in-memory Model useful for tests & examples. Turns can
// be scripted in order (including tool call turns and errors); with an empty
// script it falls back to canned prompt lookups or a simple echo.
type Mock struct {
	mu        sync.Mutex
	info      Info
	script    []mockTurn
	responses map[string]string
	requests  []Request
}

type mockTurn struct {
	content core.Content
	err     error
}

// NewMock constructs a Mock with function calling enabled.
func NewMock(name string) *Mock {
	return &Mock{
		info: Info{
			Name:            name,
			Provider:        "mock",
			FunctionCalling: true,
		},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
// Canned responses are only consulted when the script is empty.
func (m *Mock) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// EnqueueText scripts an assistant text turn.
func (m *Mock) EnqueueText(text string) *Mock {
	return m.enqueue(mockTurn{content: core.Content{Role: "assistant", Parts: []core.Part{core.TextPart{Text: text}}}})
}

// EnqueueToolCall scripts an assistant turn requesting a single tool call.
func (m *Mock) EnqueueToolCall(id, name, args string) *Mock {
	return m.enqueue(mockTurn{content: core.Content{Role: "assistant", Parts: []core.Part{
		core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: id, Name: name, Arguments: args}},
	}}})
}

// EnqueueContent scripts an arbitrary assistant turn.
func (m *Mock) EnqueueContent(content core.Content) *Mock {
	return m.enqueue(mockTurn{content: content})
}

// EnqueueError scripts a failing turn.
func (m *Mock) EnqueueError(err error) *Mock {
	return m.enqueue(mockTurn{err: err})
}

func (m *Mock) enqueue(t mockTurn) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, t)
	return m
}

// Requests returns a copy of every Request received so far, in call order.
func (m *Mock) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	reqs := make([]Request, len(m.requests))
	copy(reqs, m.requests)
	return reqs
}

// Generate implements Model; consumes the next scripted turn or falls back to
// canned / echo responses. Streaming emits char chunks for the fallback path.
func (m *Mock) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	m.mu.Lock()
	m.requests = append(m.requests, req)
	var turn *mockTurn
	if len(m.script) > 0 {
		t := m.script[0]
		m.script = m.script[1:]
		turn = &t
	}
	m.mu.Unlock()

	go func() {
		defer close(respCh)
		defer close(errCh)

		if turn != nil {
			if turn.err != nil {
				errCh <- turn.err
				return
			}
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
			case respCh <- Response{Partial: false, Content: turn.content, FinishReason: finishReason(turn.content)}:
			}
			return
		}

		if len(req.Contents) == 0 {
			errCh <- fmt.Errorf("no contents provided")
			return
		}
		last := req.Contents[len(req.Contents)-1]
		inputText := last.Text()
		m.mu.Lock()
		full := m.responses[inputText]
		m.mu.Unlock()
		if full == "" {
			full = fmt.Sprintf("Mock response to: %s", inputText)
		}
		if req.Stream {
			for _, r := range full {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{
					Partial: true,
					Content: core.Content{
						Role:  "assistant",
						Parts: []core.Part{core.TextPart{Text: string(r)}},
					},
				}:
				}
			}
		}
		respCh <- Response{
			Partial: false,
			Content: core.Content{
				Role:  "assistant",
				Parts: []core.Part{core.TextPart{Text: full}},
			},
			FinishReason: "stop",
		}
	}()
	return respCh, errCh
}

func finishReason(c core.Content) string {
	if len(c.FunctionCalls()) > 0 {
		return "tool_calls"
	}
	return "stop"
}

// Info implements the Model interface.
func (m *Mock) Info() Info { return m.info }
