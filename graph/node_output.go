//
// Copyright (C) 2026 Agent Studio Authors.  All rights reserved.
//
// agent-studio-go is licensed under the Apache License Version 2.0.
//
//

package graph

import "context"

// outputHandler terminates a flow. The value reaching it becomes the run
// result.
type outputHandler struct{}

func (outputHandler) NodeType() string { return TypeOutput }

func (outputHandler) ValidateGraph(*Graph) []Issue { return nil }

func (outputHandler) CompileNode(*Node, []ToolSpec) map[string]any { return nil }

func (outputHandler) Run(_ context.Context, _ *Node, _ *RunContext, input any) (any, error) {
	return input, nil
}
