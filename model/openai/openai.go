// Package openai adapts the OpenAI Chat Completions API to the model.Model
// interface, covering streaming, non-streaming and function calling. With a
// custom BaseURL the same adapter drives any OpenAI-compatible endpoint, such
// as Gemini's compatibility surface.
package openai

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/hupe1980/roundtable/core"
	"github.com/hupe1980/roundtable/model"
)

// Options configures the adapter. Zero values fall back to defaults; the API
// key falls back to the OPENAI_API_KEY environment variable.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	// BaseURL overrides the endpoint for OpenAI-compatible providers.
	BaseURL string
	// APIKey overrides the key taken from the environment.
	APIKey string
}

func defaultOptions() Options {
	return Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
}

// Model drives chat completions against OpenAI or a compatible endpoint.
type Model struct {
	client *openai.Client
	opts   Options
}

// NewModel constructs the adapter with its own SDK client.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := defaultOptions()

	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := openai.NewClient(clientOpts...)

	return &Model{client: &client, opts: opts}
}

// NewModelFromClient constructs the adapter around an existing SDK client.
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Model{client: client, opts: opts}
}

// Generate implements model.Model. The response channel carries partial
// chunks while streaming and always ends with the final response; both
// channels are closed when the call is over.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		params := m.completionParams(req)

		if req.Stream {
			m.streamCompletion(ctx, params, out, errCh)
			return
		}
		m.completeOnce(ctx, params, out, errCh)
	}()

	return out, errCh
}

// Info implements model.Model.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:            m.opts.Model,
		Provider:        "openai",
		FunctionCalling: true,
		Vision:          true,
		JSONOutput:      true,
	}
}

// completionParams translates the normalized request into SDK parameters.
func (m *Model) completionParams(req model.Request) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages:            chatMessages(req),
		Model:               m.opts.Model,
		Temperature:         openai.Float(m.opts.Temperature),
		MaxCompletionTokens: openai.Int(m.opts.MaxCompletionTokens),
	}

	if len(req.Tools) == 0 {
		return params
	}

	tools := make([]openai.ChatCompletionToolParam, len(req.Tools))
	for i, def := range req.Tools {
		tools[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        def.Function.Name,
				Description: openai.String(def.Function.Description),
				Parameters:  def.Function.Parameters,
			},
		}
	}
	params.Tools = tools

	return params
}

// chatMessages flattens contents into the SDK's message list. Instructions
// lead as a system message. Tool-role contents are not sent as-is: each
// result is re-attached directly after the assistant message that requested
// it, which is the shape the API expects.
func chatMessages(req model.Request) []openai.ChatCompletionMessageParamUnion {
	results, order := indexToolResults(req.Contents)

	var messages []openai.ChatCompletionMessageParamUnion
	if req.Instructions != "" {
		messages = append(messages, openai.SystemMessage(req.Instructions))
	}

	for _, c := range req.Contents {
		if c.Role == "tool" {
			continue
		}

		text := joinText(c.Parts)

		switch c.Role {
		case "system":
			messages = append(messages, openai.SystemMessage(text))
		case "assistant":
			messages = appendAssistant(messages, c, text, results)
		default:
			// User content, and anything unrecognized, goes in as user text.
			if c.Role == "user" || text != "" {
				messages = append(messages, openai.UserMessage(text))
			}
		}
	}

	// Results whose requesting call never appeared still need to be sent.
	for _, id := range order {
		if resp, ok := results[id]; ok {
			messages = append(messages, openai.ToolMessage(resp, id))
		}
	}

	return messages
}

// appendAssistant appends one assistant turn, plus its tool results when the
// turn carried tool calls. Consumed results are removed from the index.
func appendAssistant(
	messages []openai.ChatCompletionMessageParamUnion,
	c core.Content,
	text string,
	results map[string]string,
) []openai.ChatCompletionMessageParamUnion {
	var calls []openai.ChatCompletionMessageToolCallParam
	var ids []string

	for _, p := range c.Parts {
		fc, ok := p.(core.FunctionCallPart)
		if !ok {
			continue
		}
		calls = append(calls, openai.ChatCompletionMessageToolCallParam{
			ID:   fc.FunctionCall.ID,
			Type: "function",
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      fc.FunctionCall.Name,
				Arguments: fc.FunctionCall.Arguments,
			},
		})
		ids = append(ids, fc.FunctionCall.ID)
	}

	if len(calls) == 0 {
		return append(messages, openai.AssistantMessage(text))
	}

	messages = append(messages, openai.ChatCompletionMessageParamUnion{
		OfAssistant: &openai.ChatCompletionAssistantMessageParam{
			Role:      "assistant",
			ToolCalls: calls,
		},
	})

	for _, id := range ids {
		if id == "" {
			continue
		}
		if resp, ok := results[id]; ok {
			messages = append(messages, openai.ToolMessage(resp, id))
			delete(results, id)
		}
	}

	return messages
}

// indexToolResults collects tool results by call id, keeping first-seen order
// and first-seen value per id.
func indexToolResults(contents []core.Content) (map[string]string, []string) {
	results := map[string]string{}
	var order []string

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
			order = append(order, fr.FunctionResponse.ID)
		}
	}

	return results, order
}

// toolResultText renders a tool outcome as the plain text the API wants.
func toolResultText(fr core.FunctionResponse) string {
	if fr.Error != "" {
		return fmt.Sprintf("error: %s", fr.Error)
	}
	if s, ok := fr.Response.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", fr.Response)
}

func joinText(parts []core.Part) string {
	var sb strings.Builder
	for _, p := range parts {
		if tp, ok := p.(core.TextPart); ok {
			sb.WriteString(tp.Text)
		}
	}
	return sb.String()
}

// completeOnce performs a blocking completion and emits the single final
// response with usage attached.
func (m *Model) completeOnce(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		errCh <- fmt.Errorf("openai completion: %w", err)
		return
	}
	if len(resp.Choices) == 0 {
		errCh <- fmt.Errorf("openai completion: no choices returned")
		return
	}

	choice := resp.Choices[0]

	parts := make([]core.Part, 0, len(choice.Message.ToolCalls)+1)
	if choice.Message.Content != "" {
		parts = append(parts, core.TextPart{Text: choice.Message.Content})
	}
	for _, tc := range choice.Message.ToolCalls {
		parts = append(parts, core.FunctionCallPart{FunctionCall: core.FunctionCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		}})
	}

	out <- model.Response{
		ID:           resp.ID,
		Partial:      false,
		Content:      core.Content{Role: "assistant", Parts: parts},
		FinishReason: choice.FinishReason,
		Usage: &model.TokenUsage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}
}

// callAccum rebuilds one tool call from its streamed fragments.
type callAccum struct {
	id   string
	name string
	args strings.Builder
}

func (a *callAccum) merge(id, name, args string) {
	if id != "" {
		a.id = id
	}
	if name != "" {
		a.name = name
	}
	if args != "" {
		a.args.WriteString(args)
	}
}

func (a *callAccum) call() core.FunctionCall {
	return core.FunctionCall{ID: a.id, Name: a.name, Arguments: a.args.String()}
}

// streamCompletion forwards text and tool call deltas as partial responses
// and closes the turn with one final response assembled from everything seen.
func (m *Model) streamCompletion(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	stream := m.client.Chat.Completions.NewStreaming(ctx, params)

	var text strings.Builder
	accums := map[int64]*callAccum{}

	for stream.Next() {
		chunk := stream.Current()
		for _, choice := range chunk.Choices {
			if choice.Delta.Content != "" {
				text.WriteString(choice.Delta.Content)
				out <- model.Response{
					Partial: true,
					Content: core.Content{
						Role:  "assistant",
						Parts: []core.Part{core.TextPart{Text: choice.Delta.Content}},
					},
				}
			}

			for _, tc := range choice.Delta.ToolCalls {
				acc, ok := accums[tc.Index]
				if !ok {
					acc = &callAccum{}
					accums[tc.Index] = acc
				}
				acc.merge(tc.ID, tc.Function.Name, tc.Function.Arguments)

				out <- model.Response{
					Partial: true,
					Content: core.Content{
						Role:  "assistant",
						Parts: []core.Part{core.FunctionCallPart{FunctionCall: acc.call()}},
					},
				}
			}

			if choice.FinishReason != "" {
				out <- finalStreamResponse(choice.FinishReason, &text, accums)
			}
		}
	}

	if err := stream.Err(); err != nil {
		errCh <- fmt.Errorf("openai stream: %w", err)
	}
}

// finalStreamResponse assembles the non-partial close of a streamed turn.
// Tool calls come out in index order.
func finalStreamResponse(reason string, text *strings.Builder, accums map[int64]*callAccum) model.Response {
	parts := make([]core.Part, 0, len(accums)+1)
	if text.Len() > 0 {
		parts = append(parts, core.TextPart{Text: text.String()})
	}

	indices := make([]int64, 0, len(accums))
	for idx := range accums {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	for _, idx := range indices {
		parts = append(parts, core.FunctionCallPart{FunctionCall: accums[idx].call()})
	}

	return model.Response{
		Partial:      false,
		Content:      core.Content{Role: "assistant", Parts: parts},
		FinishReason: reason,
	}
}
