package participant

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hupe1980/roundtable/core"
	"github.com/hupe1980/roundtable/logging"
	"github.com/hupe1980/roundtable/model"
	"github.com/hupe1980/roundtable/tool"
	"github.com/hupe1980/roundtable/workbench"
)

// Options configures a ModelParticipant instance.
//
// Use functional options with New to override defaults.
type Options struct {
	// Workbenches contribute externally provided tools. Their declared tool
	// names join the participant's static tool set.
	Workbenches []workbench.Workbench
	// Tools are in-process function tools.
	Tools []tool.Tool
	// Logger receives turn and tool execution events.
	Logger logging.Logger
	// MaxToolRounds caps the model/tool round-trips within a single turn.
	// Zero means no cap.
	MaxToolRounds int
	// Stream requests incremental responses from the backend.
	Stream bool
}

// binding resolves a declared tool name to the source that executes it.
type binding struct {
	wb    workbench.Workbench
	local tool.Tool
}

// ModelParticipant drives a language model to produce conversation turns.
//
// Each turn replays the shared history to the backend and loops privately
// through tool rounds until the model answers with plain text: function
// calls are executed against the participant's workbenches or local tools
// and their results fed back as another model request. Failed tool calls are
// returned to the model as error results rather than ending the turn; only a
// backend failure or a request for an undeclared tool does that.
//
// The declared tool set is fixed at construction and duplicate names across
// sources are rejected, so every tool name the model can see resolves to
// exactly one executor for the participant's lifetime.
type ModelParticipant struct {
	name          string
	instructions  string
	backend       model.Model
	bindings      map[string]binding
	defs          []model.ToolDefinition
	logger        logging.Logger
	maxToolRounds int
	stream        bool
}

// New creates a model-backed participant.
//
// Parameters:
//   - name: unique display name, also the author of produced messages
//   - instructions: system prompt sent with every backend request
//   - backend: language model implementation
//
// Returns an error when two tool sources declare the same tool name.
func New(name, instructions string, backend model.Model, optFns ...func(o *Options)) (*ModelParticipant, error) {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	p := &ModelParticipant{
		name:          name,
		instructions:  instructions,
		backend:       backend,
		bindings:      make(map[string]binding),
		logger:        opts.Logger,
		maxToolRounds: opts.MaxToolRounds,
		stream:        opts.Stream,
	}

	for _, wb := range opts.Workbenches {
		for _, def := range wb.Tools() {
			if _, exists := p.bindings[def.Function.Name]; exists {
				return nil, fmt.Errorf("participant %q: duplicate tool name %q", name, def.Function.Name)
			}
			p.bindings[def.Function.Name] = binding{wb: wb}
			p.defs = append(p.defs, def)
		}
	}

	for _, t := range opts.Tools {
		if _, exists := p.bindings[t.Name()]; exists {
			return nil, fmt.Errorf("participant %q: duplicate tool name %q", name, t.Name())
		}
		p.bindings[t.Name()] = binding{local: t}
		p.defs = append(p.defs, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}

	return p, nil
}

// Name implements Participant.
func (p *ModelParticipant) Name() string { return p.name }

// ProduceNext implements Participant. It runs the model over the shared
// history plus any private tool rounds and returns the resulting text
// message authored by this participant.
func (p *ModelParticipant) ProduceNext(ctx context.Context, history []core.Message) (core.Message, error) {
	contents := p.buildContents(history)

	round := 0

	for {
		resp, err := p.generate(ctx, contents)
		if err != nil {
			p.logger.Error("participant.backend.error", "participant", p.name, "error", err.Error())
			return core.Message{}, &BackendError{Participant: p.name, Err: err}
		}

		calls := resp.Content.FunctionCalls()
		if len(calls) == 0 {
			return core.NewAssistantMessage(p.name, resp.Content.Text()), nil
		}

		contents = append(contents, resp.Content)

		results := core.Content{Role: "tool"}

		for _, call := range calls {
			b, exists := p.bindings[call.Name]
			if !exists {
				// An undeclared tool ends the turn like a backend failure.
				return core.Message{}, &BackendError{
					Participant: p.name,
					Err:         &UnknownToolError{Participant: p.name, Tool: call.Name},
				}
			}

			start := time.Now()
			result, callErr := p.invoke(ctx, b, call)
			p.logger.Info(
				"participant.tool.executed",
				"participant", p.name,
				"tool", call.Name,
				"duration_ms", time.Since(start).Milliseconds(),
				"error", callErr != nil,
			)

			fr := core.FunctionResponse{ID: call.ID, Name: call.Name, Response: result}
			if callErr != nil {
				fr.Error = callErr.Error()
			}

			results.Parts = append(results.Parts, core.FunctionResponsePart{FunctionResponse: fr})
		}

		contents = append(contents, results)

		round++
		if p.maxToolRounds > 0 && round >= p.maxToolRounds {
			return core.Message{}, fmt.Errorf("participant %q exceeded %d tool rounds", p.name, p.maxToolRounds)
		}
	}
}

// buildContents maps the shared history into backend contents. Messages
// authored by this participant keep the assistant role; everything else,
// the seeding task included, is presented as user input.
func (p *ModelParticipant) buildContents(history []core.Message) []core.Content {
	contents := make([]core.Content, 0, len(history))

	for _, msg := range history {
		role := "user"
		if msg.Author == p.name {
			role = "assistant"
		}

		contents = append(contents, core.Content{Role: role, Parts: msg.Content.Parts})
	}

	return contents
}

// generate performs one backend request and drains the response stream,
// returning the final (non-partial) response.
func (p *ModelParticipant) generate(ctx context.Context, contents []core.Content) (*model.Response, error) {
	req := model.Request{
		Instructions: p.instructions,
		Contents:     contents,
		Tools:        p.defs,
		Stream:       p.stream,
	}

	respCh, errCh := p.backend.Generate(ctx, req)

	var final *model.Response

	for respCh != nil || errCh != nil {
		select {
		case resp, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if !resp.Partial {
				r := resp
				final = &r
			}
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return nil, err
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if final == nil {
		return nil, fmt.Errorf("model stream ended without a final response")
	}

	return final, nil
}

// invoke executes one function call against its bound source. Workbench
// calls pass decoded arguments through unchanged; local tools validate them
// against their schema.
func (p *ModelParticipant) invoke(ctx context.Context, b binding, call core.FunctionCall) (interface{}, error) {
	args := make(map[string]interface{})
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return nil, fmt.Errorf("failed to unmarshal args: %w", err)
		}
	}

	if b.wb != nil {
		return b.wb.Call(ctx, call.Name, args)
	}

	return b.local.Call(ctx, args)
}
