// Package tool defines in-process function tools: plain Go functions a
// participant can invoke during its tool rounds, with schema-validated
// arguments and uniform error codes. Subprocess-backed tools live in the
// workbench package.
package tool

import (
	"context"
	"fmt"

	"github.com/hupe1980/roundtable/internal/util"
)

// Tool is one callable capability exposed to a model.
//
// The name must be unique among everything bound to the same participant,
// since the model addresses tools by name. Parameters is a minimal JSON
// Schema object; the description tells the model when to reach for the tool.
// Implementations must be safe for concurrent use.
type Tool interface {
	// Name returns the unique tool identifier, snake_case by convention.
	Name() string

	// Description is handed to the model to guide tool selection.
	Description() string

	// Parameters returns the JSON schema for the argument object.
	Parameters() map[string]interface{}

	// Call executes the tool. The context carries the turn's cancellation
	// and deadline; args have already been decoded from the model's JSON.
	Call(ctx context.Context, args map[string]interface{}) (interface{}, error)
}

// ValidationError reports an argument that failed schema validation.
type ValidationError = util.ValidationError

// ToolError is the uniform failure type for tool execution. Code groups
// failures coarsely ("VALIDATION_ERROR", "EXECUTION_ERROR", or a custom code
// chosen by the tool).
type ToolError struct {
	Tool    string      `json:"tool"`
	Message string      `json:"message"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError constructs a ToolError.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}
