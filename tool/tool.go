//
// Copyright (C) 2026 Agent Studio Authors.  All rights reserved.
//
// agent-studio-go is licensed under the Apache License Version 2.0.
//
//

// Package tool defines the tool abstraction exposed to agents: a JSON
// schema declaration plus a callable body. Implementations include plain
// Go functions, user-authored code executed through a code executor, and
// the built-in workspace file tools.
package tool

import "context"

// Schema is a JSON schema object describing tool parameters. It is kept
// as a raw map because schemas arrive verbatim from workflow documents.
type Schema map[string]any

// Declaration describes a tool to the model.
type Declaration struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema Schema `json:"input_schema,omitempty"`
}

// Tool is anything that can describe itself to the model.
type Tool interface {
	Declaration() *Declaration
}

// CallableTool is a tool that can be invoked with JSON-encoded arguments.
type CallableTool interface {
	Tool
	// Call invokes the tool. jsonArgs is the raw argument object from the
	// model; an empty slice means no arguments.
	Call(ctx context.Context, jsonArgs []byte) (any, error)
}

// EnsureObjectSchema returns the schema unchanged when it is a non-empty
// object, and an empty strict object schema otherwise.
func EnsureObjectSchema(schema Schema) Schema {
	if len(schema) > 0 {
		return schema
	}
	return Schema{
		"type":                 "object",
		"properties":           map[string]any{},
		"additionalProperties": false,
	}
}
