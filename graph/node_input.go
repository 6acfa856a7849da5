//
// Copyright (C) 2026 Agent Studio Authors.  All rights reserved.
//
// agent-studio-go is licensed under the Apache License Version 2.0.
//
//

package graph

import "context"

// inputHandler handles the graph's entry node. It contributes nothing to
// validation or compilation and passes the run input through unchanged.
type inputHandler struct{}

func (inputHandler) NodeType() string { return TypeInput }

func (inputHandler) ValidateGraph(*Graph) []Issue { return nil }

func (inputHandler) CompileNode(*Node, []ToolSpec) map[string]any { return nil }

func (inputHandler) Run(_ context.Context, _ *Node, _ *RunContext, input any) (any, error) {
	return input, nil
}
