package model

import (
	"context"

	"github.com/hupe1980/roundtable/core"
)

// ToolDefinition declares one callable tool to the model. Type is always
// "function".
type ToolDefinition struct {
	Type     string             `json:"type"`
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition names a function, describes when to use it and carries
// its argument schema as a minimal JSON Schema object.
type FunctionDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// Request is the normalized model input a participant produces: role
// instructions, the perspective-adjusted conversation, and the tools on
// offer.
type Request struct {
	Instructions string           `json:"instructions"`
	Contents     []core.Content   `json:"contents"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
	Stream       bool             `json:"stream,omitempty"`
}

// TokenUsage reports token counts for one completed call.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is one chunk from the backend. Partial chunks stream deltas; the
// final chunk carries the assembled content and a finish reason such as
// "stop" or "tool_calls".
type Response struct {
	ID           string       `json:"id"`
	Partial      bool         `json:"partial"`
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"`
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info describes a backend's identity and capabilities. Callers use the
// capability flags to refuse configurations the backend cannot honor, such
// as binding tools to a model without function calling.
type Info struct {
	Name            string `json:"name"`
	Provider        string `json:"provider"`
	FunctionCalling bool   `json:"function_calling"`
	Vision          bool   `json:"vision"`
	JSONOutput      bool   `json:"json_output"`
}

// Model is the completion backend boundary. Generate returns a response
// channel and an error channel; both are closed when the call finishes, and
// the last non-partial response is the turn's result.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info reports the backend's identity and capabilities.
	Info() Info
}
