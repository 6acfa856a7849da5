//
// Copyright (C) 2026 Agent Studio Authors.  All rights reserved.
//
// agent-studio-go is licensed under the Apache License Version 2.0.
//
//

package tool

import (
	"context"
	"encoding/json"
	"fmt"
)

// Func is the body of a function tool. args is the decoded JSON argument
// object.
type Func func(ctx context.Context, args map[string]any) (any, error)

// FunctionTool wraps a Go function as a CallableTool.
type FunctionTool struct {
	declaration *Declaration
	fn          Func
}

// NewFunctionTool creates a function tool from a declaration and body.
func NewFunctionTool(name, description string, schema Schema, fn Func) *FunctionTool {
	return &FunctionTool{
		declaration: &Declaration{
			Name:        name,
			Description: description,
			InputSchema: EnsureObjectSchema(schema),
		},
		fn: fn,
	}
}

// Declaration implements the Tool interface.
func (t *FunctionTool) Declaration() *Declaration {
	return t.declaration
}

// Call decodes the argument object and invokes the body.
func (t *FunctionTool) Call(ctx context.Context, jsonArgs []byte) (any, error) {
	args, err := decodeArgs(t.declaration.Name, jsonArgs)
	if err != nil {
		return nil, err
	}
	return t.fn(ctx, args)
}

func decodeArgs(name string, jsonArgs []byte) (map[string]any, error) {
	if len(jsonArgs) == 0 {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal(jsonArgs, &args); err != nil {
		return nil, fmt.Errorf("invalid JSON input for tool %s: %w", name, err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}
