//
// Copyright (C) 2026 Agent Studio Authors.  All rights reserved.
//
// agent-studio-go is licensed under the Apache License Version 2.0.
//
//

package graph

// Validate checks the graph with the default registry and returns every
// applicable issue. It never fails on malformed input; defects are
// reported as data.
func Validate(g *Graph) []Issue {
	return ValidateWith(g, DefaultRegistry())
}

// ValidateWith validates with the given handler registry. Structural and
// graph-level checks run first, then each registered handler contributes
// the rules its node type owns.
func ValidateWith(g *Graph, reg *Registry) []Issue {
	issues := []Issue{}

	nodeIDs := make(map[string]bool, len(g.Nodes))
	for _, node := range g.Nodes {
		if nodeIDs[node.ID] {
			issues = append(issues, Issue{
				Code:    CodeNodeDuplicateID,
				Message: "Duplicate node id.",
				NodeID:  node.ID,
			})
		}
		nodeIDs[node.ID] = true
	}

	for _, edge := range g.Edges {
		if !nodeIDs[edge.Source] {
			issues = append(issues, Issue{
				Code:    CodeEdgeMissingSource,
				Message: "Edge source not found.",
				EdgeID:  edge.ID,
			})
		}
		if !nodeIDs[edge.Target] {
			issues = append(issues, Issue{
				Code:    CodeEdgeMissingTarget,
				Message: "Edge target not found.",
				EdgeID:  edge.ID,
			})
		}
	}

	connected := make(map[string]bool, len(g.Edges)*2)
	for _, edge := range g.Edges {
		connected[edge.Source] = true
		connected[edge.Target] = true
	}
	for _, node := range g.Nodes {
		// A loop_group container is never an edge endpoint; its own rules
		// cover emptiness.
		if node.Type == TypeLoopGroup {
			continue
		}
		if !connected[node.ID] {
			issues = append(issues, Issue{
				Code:    CodeNodeDisconnected,
				Message: "Node is not connected to any edge.",
				NodeID:  node.ID,
			})
		}
	}

	if len(g.NodesOfType(TypeAgent)) == 0 {
		issues = append(issues, Issue{
			Code:    CodeGraphNoAgent,
			Message: "Graph must include at least one agent node.",
		})
	}

	for _, handler := range reg.Handlers() {
		issues = append(issues, handler.ValidateGraph(g)...)
	}
	return issues
}
