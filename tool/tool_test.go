package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/roundtable/internal/util"
)

type lookupArgs struct {
	Key     string `json:"key" description:"Issue key, e.g. PAY-17"`
	Fields  *int   `json:"fields" description:"Optional field limit"`
	Verbose bool   `json:"verbose,omitempty" description:"Include raw payload"`
}

func TestCreateSchema(t *testing.T) {
	schema := util.CreateSchema(lookupArgs{})

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "key")
	assert.Contains(t, props, "fields")
	assert.Contains(t, props, "verbose")

	// Pointer and omitempty fields stay optional.
	req, _ := schema["required"].([]string)
	assert.ElementsMatch(t, []string{"key"}, req)

	keyProp, ok := props["key"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "string", keyProp["type"])
	assert.Equal(t, "Issue key, e.g. PAY-17", keyProp["description"])
}

func TestValidateParameters(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"limit": map[string]any{"type": "integer"},
		},
		// []any mirrors the shape of a JSON-decoded schema.
		"required": []any{"limit"},
	}

	assert.NoError(t, util.ValidateParameters(map[string]any{"limit": 5}, schema))

	err := util.ValidateParameters(map[string]any{}, schema)
	require.Error(t, err)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "limit", vErr.Field)

	err = util.ValidateParameters(map[string]any{"limit": "ten"}, schema)
	require.Error(t, err)
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Message, "expected type integer")
}

func TestValidateParameters_Enum(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"severity": map[string]any{
				"type": "string",
				"enum": []any{"low", "medium", "high"},
			},
		},
	}

	assert.NoError(t, util.ValidateParameters(map[string]any{"severity": "high"}, schema))

	err := util.ValidateParameters(map[string]any{"severity": "catastrophic"}, schema)
	require.Error(t, err)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "severity", vErr.Field)
}

func TestFunctionTool_Success(t *testing.T) {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
			"b": map[string]any{"type": "number"},
		},
		"required": []string{"a", "b"},
	}

	sum := NewFunctionTool("sum", "Add two numbers", params, func(_ context.Context, args map[string]any) (any, error) {
		return args["a"].(float64) + args["b"].(float64), nil
	})

	result, err := sum.Call(context.Background(), map[string]any{"a": 2.0, "b": 3.0})
	require.NoError(t, err)
	assert.Equal(t, 5.0, result)
}

func TestFunctionTool_ValidationError(t *testing.T) {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"key": map[string]any{"type": "string"},
		},
		"required": []any{"key"},
	}

	lookup := NewFunctionTool("lookup_issue", "Fetch one issue", params, func(_ context.Context, _ map[string]any) (any, error) {
		t.Fatal("function must not run on invalid args")
		return nil, nil
	})

	_, err := lookup.Call(context.Background(), map[string]any{})
	require.Error(t, err)

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
	assert.Equal(t, "lookup_issue", toolErr.Tool)
}

func TestFunctionTool_ExecutionError(t *testing.T) {
	params := map[string]any{"type": "object", "properties": map[string]any{}}

	failing := NewFunctionTool("flaky", "Always fails", params, func(_ context.Context, _ map[string]any) (any, error) {
		return nil, errors.New("backend unreachable")
	})

	_, err := failing.Call(context.Background(), map[string]any{})
	require.Error(t, err)

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "EXECUTION_ERROR", toolErr.Code)
	assert.Contains(t, toolErr.Message, "backend unreachable")
}

func TestFunctionTool_CustomCodePreserved(t *testing.T) {
	params := map[string]any{"type": "object", "properties": map[string]any{}}

	limited := NewFunctionTool("search", "Search issues", params, func(_ context.Context, _ map[string]any) (any, error) {
		return nil, NewToolError("search", "too many requests", "RATE_LIMITED")
	})

	_, err := limited.Call(context.Background(), map[string]any{})
	require.Error(t, err)

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "RATE_LIMITED", toolErr.Code)
}

func TestFunctionTool_FromStruct(t *testing.T) {
	echo := NewFunctionToolFromStruct("echo_key", "Echo the issue key", lookupArgs{}, func(_ context.Context, args map[string]any) (any, error) {
		return args["key"], nil
	})

	assert.Equal(t, "echo_key", echo.Name())
	assert.Equal(t, "Echo the issue key", echo.Description())

	result, err := echo.Call(context.Background(), map[string]any{"key": "PAY-17"})
	require.NoError(t, err)
	assert.Equal(t, "PAY-17", result)
}

func TestToolError_Format(t *testing.T) {
	withCode := NewToolError("demo", "something failed", "E123")
	assert.Contains(t, withCode.Error(), "E123")
	assert.Contains(t, withCode.Error(), "demo")

	plain := &ToolError{Tool: "demo", Message: "something failed"}
	assert.NotContains(t, plain.Error(), "[")
}
