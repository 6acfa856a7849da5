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

	"github.com/agentstudio/studio-go/expr"
)

// Labels recognized on edges leaving a loop node, matched case
// insensitively.
var (
	loopContinueLabels = map[string]bool{"loop": true, "true": true, "continue": true}
	loopExitLabels     = map[string]bool{"exit": true, "false": true, "done": true}
)

// loopHandler owns validation for single-node loops. Iteration itself is
// driven by the runner, so Run is a passthrough.
type loopHandler struct{}

func (loopHandler) NodeType() string { return TypeLoop }

func (loopHandler) ValidateGraph(g *Graph) []Issue {
	var issues []Issue
	for _, node := range g.NodesOfType(TypeLoop) {
		if strings.TrimSpace(node.Condition) == "" {
			issues = append(issues, Issue{
				Code:    CodeLoopMissingCondition,
				Message: "Loop node must include a condition expression.",
				NodeID:  node.ID,
			})
		}
		if node.MaxIterations < 1 {
			issues = append(issues, Issue{
				Code:    CodeLoopInvalidLimit,
				Message: "Loop max iterations must be at least 1.",
				NodeID:  node.ID,
			})
		}
		if err := expr.Validate(node.Condition); err != nil {
			issues = append(issues, Issue{
				Code:    CodeLoopInvalidCondition,
				Message: "Loop condition is not a supported expression: " + err.Error(),
				NodeID:  node.ID,
			})
		}
		edges := loopBranchEdges(g, node.ID)
		continueEdge := findEdgeWithLabel(edges, loopContinueLabels)
		exitEdge := findEdgeWithLabel(edges, loopExitLabels)
		if len(edges) != 2 || continueEdge == nil || exitEdge == nil {
			issues = append(issues, Issue{
				Code:    CodeLoopEdgesMissing,
				Message: "Loop node must have exactly one 'loop' edge and one 'exit' edge.",
				NodeID:  node.ID,
			})
		}
	}
	return issues
}

func (loopHandler) CompileNode(*Node, []ToolSpec) map[string]any { return nil }

func (loopHandler) Run(_ context.Context, _ *Node, _ *RunContext, input any) (any, error) {
	return input, nil
}

// loopBranchEdges returns the loop node's outgoing edges excluding tool
// attachments, in declaration order.
func loopBranchEdges(g *Graph, loopID string) []Edge {
	var edges []Edge
	for _, edge := range g.Edges {
		if edge.Source != loopID {
			continue
		}
		target := g.NodeByID(edge.Target)
		if target == nil || target.Type == TypeTool {
			continue
		}
		edges = append(edges, edge)
	}
	return edges
}

// findEdgeWithLabel returns the single edge whose label is in the set.
// Zero matches or duplicates resolve to nil.
func findEdgeWithLabel(edges []Edge, labels map[string]bool) *Edge {
	var found *Edge
	for i := range edges {
		if !labels[strings.ToLower(strings.TrimSpace(edges[i].Label))] {
			continue
		}
		if found != nil {
			return nil
		}
		found = &edges[i]
	}
	return found
}
