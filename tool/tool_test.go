//
// Copyright (C) 2026 Agent Studio Authors.  All rights reserved.
//
// agent-studio-go is licensed under the Apache License Version 2.0.
//
//

package tool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunctionToolCall(t *testing.T) {
	ft := NewFunctionTool("adder", "adds two numbers", nil,
		func(_ context.Context, args map[string]any) (any, error) {
			a, _ := args["a"].(float64)
			b, _ := args["b"].(float64)
			return a + b, nil
		})

	decl := ft.Declaration()
	assert.Equal(t, "adder", decl.Name)
	assert.Equal(t, "object", decl.InputSchema["type"])

	result, err := ft.Call(context.Background(), []byte(`{"a": 2, "b": 3}`))
	require.NoError(t, err)
	assert.Equal(t, float64(5), result)
}

func TestFunctionToolCallEmptyArgs(t *testing.T) {
	ft := NewFunctionTool("noop", "does nothing", nil,
		func(_ context.Context, args map[string]any) (any, error) {
			assert.NotNil(t, args)
			return "ok", nil
		})
	result, err := ft.Call(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
}

func TestFunctionToolCallInvalidJSON(t *testing.T) {
	ft := NewFunctionTool("noop", "does nothing", nil,
		func(_ context.Context, _ map[string]any) (any, error) {
			return nil, nil
		})
	_, err := ft.Call(context.Background(), []byte(`not json`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON input")
}

func TestEnsureObjectSchema(t *testing.T) {
	custom := Schema{"type": "object", "properties": map[string]any{"x": map[string]any{}}}
	assert.Equal(t, custom, EnsureObjectSchema(custom))

	fallback := EnsureObjectSchema(nil)
	assert.Equal(t, "object", fallback["type"])
	assert.Equal(t, false, fallback["additionalProperties"])
}
