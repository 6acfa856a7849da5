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

// loopGroupHandler owns validation for multi-node loop groups. A group is
// a container, never a flow endpoint; membership is expressed by the
// members' parent_id and the runner re-enters the member chain through the
// group's single entry edge.
type loopGroupHandler struct{}

func (loopGroupHandler) NodeType() string { return TypeLoopGroup }

func (loopGroupHandler) ValidateGraph(g *Graph) []Issue {
	var issues []Issue
	for _, node := range g.NodesOfType(TypeLoopGroup) {
		if strings.TrimSpace(node.Condition) == "" {
			issues = append(issues, Issue{
				Code:    CodeGroupMissingCondition,
				Message: "Loop group must include a condition expression.",
				NodeID:  node.ID,
			})
		}
		if node.MaxIterations < 1 {
			issues = append(issues, Issue{
				Code:    CodeGroupInvalidLimit,
				Message: "Loop group max iterations must be at least 1.",
				NodeID:  node.ID,
			})
		}
		if err := expr.Validate(node.Condition); err != nil {
			issues = append(issues, Issue{
				Code:    CodeGroupInvalidCondition,
				Message: "Loop condition is not a supported expression: " + err.Error(),
				NodeID:  node.ID,
			})
		}

		members := make(map[string]bool)
		for _, id := range g.GroupMembers(node.ID) {
			members[id] = true
		}
		if len(members) == 0 {
			issues = append(issues, Issue{
				Code:    CodeGroupEmpty,
				Message: "Loop group must contain at least one node.",
				NodeID:  node.ID,
			})
			continue
		}

		entryEdges := groupEntryEdges(g, members)
		exitEdges := groupExitEdges(g, members)
		if len(entryEdges) != 1 || len(exitEdges) != 1 {
			issues = append(issues, Issue{
				Code:    CodeGroupEdgesInvalid,
				Message: "Loop group must have exactly one entry edge and one exit edge.",
				NodeID:  node.ID,
			})
		}
		for _, edge := range g.Edges {
			if edge.Source == node.ID || edge.Target == node.ID {
				issues = append(issues, Issue{
					Code:    CodeGroupEdgeToGroup,
					Message: "Loop group node cannot be connected directly by edges.",
					NodeID:  node.ID,
					EdgeID:  edge.ID,
				})
			}
		}
	}
	return issues
}

func (loopGroupHandler) CompileNode(*Node, []ToolSpec) map[string]any { return nil }

func (loopGroupHandler) Run(_ context.Context, _ *Node, _ *RunContext, input any) (any, error) {
	return input, nil
}

// groupEntryEdges returns the edges crossing into the member set from a
// non-tool node outside it.
func groupEntryEdges(g *Graph, members map[string]bool) []Edge {
	var edges []Edge
	for _, edge := range g.Edges {
		if !members[edge.Target] || members[edge.Source] {
			continue
		}
		if g.IsNodeType(edge.Source, TypeTool) {
			continue
		}
		edges = append(edges, edge)
	}
	return edges
}

// groupExitEdges returns the edges crossing out of the member set to a
// non-tool node outside it.
func groupExitEdges(g *Graph, members map[string]bool) []Edge {
	var edges []Edge
	for _, edge := range g.Edges {
		if !members[edge.Source] || members[edge.Target] {
			continue
		}
		if g.IsNodeType(edge.Target, TypeTool) {
			continue
		}
		edges = append(edges, edge)
	}
	return edges
}
