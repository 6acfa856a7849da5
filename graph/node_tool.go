//
// Copyright (C) 2026 Agent Studio Authors.  All rights reserved.
//
// agent-studio-go is licensed under the Apache License Version 2.0.
//
//

package graph

import (
	"context"
	"strings"
)

// toolHandler owns validation for tool nodes. Tool nodes are attachment
// points rather than flow steps, so Run is a passthrough and they compile
// through CompiledSpec.Tools instead of CompileNode.
type toolHandler struct{}

func (toolHandler) NodeType() string { return TypeTool }

func (toolHandler) ValidateGraph(g *Graph) []Issue {
	var issues []Issue
	seenNames := make(map[string]bool)
	for _, node := range g.NodesOfType(TypeTool) {
		name := strings.TrimSpace(node.ToolName)
		if seenNames[name] {
			issues = append(issues, Issue{
				Code:    CodeToolDuplicateName,
				Message: "Tool name must be unique.",
				NodeID:  node.ID,
			})
		} else {
			seenNames[name] = true
		}
		if schemaType, ok := node.Schema["type"]; ok && schemaType != "object" {
			issues = append(issues, Issue{
				Code:    CodeToolInvalidSchema,
				Message: "Tool schema must be a JSON object schema.",
				NodeID:  node.ID,
			})
		}
	}

	// Missing code is only an error for tools an agent can actually reach.
	// An unused tool may legitimately be an empty draft.
	for _, agent := range g.NodesOfType(TypeAgent) {
		for _, toolID := range CollectToolIDs(g, agent) {
			node := g.NodeByID(toolID)
			if node == nil || node.Type != TypeTool {
				continue
			}
			if strings.TrimSpace(node.Code) == "" {
				issues = append(issues, Issue{
					Code:    CodeToolMissingCode,
					Message: "Tool must include executable code.",
					NodeID:  node.ID,
				})
			}
		}
	}
	return issues
}

func (toolHandler) CompileNode(*Node, []ToolSpec) map[string]any { return nil }

func (toolHandler) Run(_ context.Context, _ *Node, _ *RunContext, input any) (any, error) {
	return input, nil
}
