// Package workbench manages external capability providers that expose
// callable tools to participants. A workbench owns one long-lived provider
// (typically a subprocess speaking line-delimited JSON over stdio), declares a
// static set of tool names it answers to, and serializes call round-trips
// against the provider channel.
//
// Participants bind the Workbench interface only; opening and closing the
// underlying provider is the session lifecycle manager's job.
package workbench

import (
	"context"

	"github.com/hupe1980/roundtable/model"
)

// Workbench exposes a set of callable tools backed by an external provider.
//
// Implementations must serialize concurrent Call invocations internally:
// request/response pairing over a single provider channel is not reentrant.
type Workbench interface {
	// Tools returns the declared tool definitions in model-consumable form.
	Tools() []model.ToolDefinition

	// Call invokes a declared tool by name with structured arguments and
	// returns the provider's response payload. The context bounds the caller's
	// willingness to wait; the workbench additionally enforces its own
	// configured per-call timeout.
	Call(ctx context.Context, name string, args map[string]any) (any, error)
}

// ToolDecl statically declares one tool a provider answers to. Dispatch is by
// declared name only; the provider is never inspected at runtime to discover
// capabilities.
type ToolDecl struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"` // JSON Schema; defaults to an empty object schema
}
