// Package anthropic adapts the Anthropic Messages API to the model.Model
// interface: system blocks from instructions, tool_use and tool_result
// blocks for function calling.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/hupe1980/roundtable/core"
	"github.com/hupe1980/roundtable/model"
)

// Options configures the adapter. The API key falls back to the
// ANTHROPIC_API_KEY environment variable when unset.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

func defaultOptions() Options {
	return Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
}

// Model drives message generation against the Anthropic API.
type Model struct {
	client *anthropic.Client
	opts   Options
}

// NewModel constructs the adapter with its own SDK client.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := defaultOptions()

	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Model{client: &client, opts: opts}
}

// NewModelFromClient constructs the adapter around an existing SDK client.
func NewModelFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Model{client: client, opts: opts}
}

// Generate implements model.Model. Only non-streaming generation is
// supported; a request with Stream set fails.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		if req.Stream {
			// TODO: stream via Messages.NewStreaming; needs MessageStreamEvent accumulation.
			errCh <- fmt.Errorf("anthropic: streaming not supported")
			return
		}

		params := anthropic.MessageNewParams{
			Model:       m.opts.Model,
			Messages:    messageParams(req.Contents),
			MaxTokens:   m.opts.MaxTokens,
			Temperature: anthropic.Float(m.opts.Temperature),
		}

		if blocks := systemBlocks(req); len(blocks) > 0 {
			params.System = blocks
		}

		if len(req.Tools) > 0 {
			params.Tools = toolParams(req.Tools)
		}

		resp, err := m.client.Messages.New(ctx, params)
		if err != nil {
			errCh <- fmt.Errorf("anthropic message: %w", err)
			return
		}

		reason := "stop"
		if resp.StopReason != "" {
			reason = string(resp.StopReason)
		}

		out <- model.Response{
			Partial:      false,
			Content:      core.Content{Role: "assistant", Parts: decodeBlocks(resp)},
			FinishReason: reason,
		}
	}()

	return out, errCh
}

// Info implements model.Model.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:            string(m.opts.Model),
		Provider:        "anthropic",
		FunctionCalling: true,
		Vision:          true,
		JSONOutput:      false,
	}
}

// decodeBlocks turns the response content blocks back into parts.
func decodeBlocks(resp *anthropic.Message) []core.Part {
	var parts []core.Part

	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			if text := block.AsText().Text; text != "" {
				parts = append(parts, core.TextPart{Text: text})
			}
		case "tool_use":
			use := block.AsToolUse()
			args := ""
			if use.Input != nil {
				if raw, err := json.Marshal(use.Input); err == nil {
					args = string(raw)
				}
			}
			parts = append(parts, core.FunctionCallPart{FunctionCall: core.FunctionCall{
				ID:        use.ID,
				Name:      use.Name,
				Arguments: args,
			}})
		}
	}

	return parts
}

// messageParams converts contents into the API's message list. Tool results
// are folded in as tool_result blocks right after the assistant turn that
// issued the matching tool_use; a result with no matching call is dropped,
// since the API rejects orphaned tool_result blocks.
func messageParams(contents []core.Content) []anthropic.MessageParam {
	results := indexToolResults(contents)

	var messages []anthropic.MessageParam

	for _, c := range contents {
		switch c.Role {
		case "system", "tool":
			// System text travels in params.System; results travel inline.
			continue
		case "assistant":
			if blocks := assistantBlocks(c.Parts, results); len(blocks) > 0 {
				messages = append(messages, anthropic.NewAssistantMessage(blocks...))
			}
		default:
			if blocks := textBlocks(c.Parts); len(blocks) > 0 {
				messages = append(messages, anthropic.NewUserMessage(blocks...))
			}
		}
	}

	return messages
}

// indexToolResults maps call id to rendered result text, first value wins.
func indexToolResults(contents []core.Content) map[string]string {
	results := make(map[string]string)

	for _, c := range contents {
		if c.Role != "tool" {
			continue
		}
		for _, p := range c.Parts {
			fr, ok := p.(core.FunctionResponsePart)
			if !ok || fr.FunctionResponse.ID == "" {
				continue
			}
			if _, seen := results[fr.FunctionResponse.ID]; seen {
				continue
			}
			results[fr.FunctionResponse.ID] = toolResultText(fr.FunctionResponse)
		}
	}

	return results
}

func toolResultText(fr core.FunctionResponse) string {
	if fr.Error != "" {
		return fmt.Sprintf("error: %s", fr.Error)
	}
	if s, ok := fr.Response.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", fr.Response)
}

// systemBlocks gathers the instructions plus any system-role text.
func systemBlocks(req model.Request) []anthropic.TextBlockParam {
	var blocks []anthropic.TextBlockParam

	if req.Instructions != "" {
		blocks = append(blocks, anthropic.TextBlockParam{Text: req.Instructions})
	}

	for _, c := range req.Contents {
		if c.Role != "system" {
			continue
		}
		for _, p := range c.Parts {
			if tp, ok := p.(core.TextPart); ok && tp.Text != "" {
				blocks = append(blocks, anthropic.TextBlockParam{Text: tp.Text})
			}
		}
	}

	return blocks
}

func textBlocks(parts []core.Part) []anthropic.ContentBlockParamUnion {
	var blocks []anthropic.ContentBlockParamUnion

	for _, p := range parts {
		if tp, ok := p.(core.TextPart); ok && tp.Text != "" {
			blocks = append(blocks, anthropic.NewTextBlock(tp.Text))
		}
	}

	return blocks
}

// assistantBlocks renders an assistant turn: text, tool_use blocks, then the
// matching tool_result blocks. Consumed results are removed from the index.
func assistantBlocks(parts []core.Part, results map[string]string) []anthropic.ContentBlockParamUnion {
	var blocks []anthropic.ContentBlockParamUnion
	var ids []string

	for _, p := range parts {
		switch part := p.(type) {
		case core.TextPart:
			if part.Text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(part.Text))
			}
		case core.FunctionCallPart:
			var input interface{}
			if part.FunctionCall.Arguments != "" {
				if err := json.Unmarshal([]byte(part.FunctionCall.Arguments), &input); err != nil {
					input = part.FunctionCall.Arguments
				}
			}
			blocks = append(blocks, anthropic.NewToolUseBlock(
				part.FunctionCall.ID,
				input,
				part.FunctionCall.Name,
			))
			ids = append(ids, part.FunctionCall.ID)
		}
	}

	for _, id := range ids {
		if text, ok := results[id]; ok {
			blocks = append(blocks, anthropic.NewToolResultBlock(id, text, false))
			delete(results, id)
		}
	}

	return blocks
}

// toolParams converts tool definitions into the API's tool schema form.
func toolParams(tools []model.ToolDefinition) []anthropic.ToolUnionParam {
	params := make([]anthropic.ToolUnionParam, len(tools))

	for i, def := range tools {
		schema := anthropic.ToolInputSchemaParam{
			Type: constant.Object("object"),
		}

		if ps := def.Function.Parameters; ps != nil {
			if properties, ok := ps["properties"]; ok {
				schema.Properties = properties
			}
			if required, ok := ps["required"]; ok {
				schema.Required = stringList(required)
			}
		}

		params[i] = anthropic.ToolUnionParamOfTool(schema, def.Function.Name)
	}

	return params
}

// stringList accepts the two shapes a required list shows up in: typed, or
// []interface{} out of a decoded JSON document.
func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []interface{}:
		var out []string
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
