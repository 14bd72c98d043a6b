package tool

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/roundtable/internal/util"
)

// FunctionTool adapts a plain Go function into a Tool.
//
// Arguments are validated against the declared schema before the function
// runs, and every failure surfaces as a *ToolError: "VALIDATION_ERROR" for a
// schema mismatch, "EXECUTION_ERROR" for an ordinary error from the
// function, and the original code when the function itself returns a
// *ToolError. A FunctionTool carries no mutable state after construction and
// is safe for concurrent use.
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]any
	fn          func(ctx context.Context, args map[string]any) (any, error)
}

// NewFunctionTool builds a tool from an explicit schema and function. The
// schema only needs the subset that util.ValidateParameters checks: type,
// properties, required and enum.
//
//	lookup := NewFunctionTool(
//	  "lookup_issue",
//	  "Fetch one issue by its key",
//	  map[string]any{
//	    "type": "object",
//	    "properties": map[string]any{
//	      "key": map[string]any{"type": "string"},
//	    },
//	    "required": []string{"key"},
//	  },
//	  func(ctx context.Context, args map[string]any) (any, error) {
//	    return issues[args["key"].(string)], nil
//	  },
//	)
func NewFunctionTool(
	name, description string,
	parameters map[string]any,
	fn func(ctx context.Context, args map[string]any) (any, error),
) *FunctionTool {
	return &FunctionTool{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}
}

// NewFunctionToolFromStruct derives the schema from a struct's fields via
// util.CreateSchema: json tags name the properties, description tags fill
// the property descriptions, pointer and omitempty fields become optional.
func NewFunctionToolFromStruct(
	name, description string,
	structType any,
	fn func(ctx context.Context, args map[string]any) (any, error),
) *FunctionTool {
	return NewFunctionTool(name, description, util.CreateSchema(structType), fn)
}

// Name implements Tool.
func (t *FunctionTool) Name() string { return t.name }

// Description implements Tool.
func (t *FunctionTool) Description() string { return t.description }

// Parameters implements Tool.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// Call implements Tool: validate, then run the wrapped function.
func (t *FunctionTool) Call(ctx context.Context, args map[string]any) (any, error) {
	if err := util.ValidateParameters(args, t.parameters); err != nil {
		return nil, &ToolError{
			Tool:    t.name,
			Message: fmt.Sprintf("parameter validation failed: %v", err),
			Code:    "VALIDATION_ERROR",
			Details: err,
		}
	}

	result, err := t.fn(ctx, args)
	if err != nil {
		var toolErr *ToolError
		if errors.As(err, &toolErr) {
			return nil, toolErr
		}

		return nil, &ToolError{
			Tool:    t.name,
			Message: err.Error(),
			Code:    "EXECUTION_ERROR",
		}
	}

	return result, nil
}
