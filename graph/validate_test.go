//
// Copyright (C) 2026 Agent Studio Authors.  All rights reserved.
//
// agent-studio-go is licensed under the Apache License Version 2.0.
//
//

package graph

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issueCodes(issues []Issue) []string {
	codes := make([]string, 0, len(issues))
	for _, issue := range issues {
		codes = append(codes, issue.Code)
	}
	sort.Strings(codes)
	return codes
}

func hasIssue(issues []Issue, code string) bool {
	for _, issue := range issues {
		if issue.Code == code {
			return true
		}
	}
	return false
}

func validAgentGraph() *Graph {
	return &Graph{
		SchemaVersion: "v1",
		Nodes: []Node{
			{ID: "in", Type: TypeInput},
			{ID: "a1", Type: TypeAgent, Model: map[string]any{"name": "gpt-4o-mini"}},
			{ID: "out", Type: TypeOutput},
		},
		Edges: []Edge{
			{ID: "e1", Source: "in", Target: "a1"},
			{ID: "e2", Source: "a1", Target: "out"},
		},
	}
}

func TestValidateCleanGraph(t *testing.T) {
	assert.Empty(t, Validate(validAgentGraph()))
}

func TestValidateStructuralIssues(t *testing.T) {
	g := &Graph{
		Nodes: []Node{
			{ID: "a1", Type: TypeAgent, Model: map[string]any{"name": "m"}},
			{ID: "a1", Type: TypeAgent, Model: map[string]any{"name": "m"}},
			{ID: "lonely", Type: TypeOutput},
		},
		Edges: []Edge{
			{ID: "e1", Source: "a1", Target: "ghost"},
			{ID: "e2", Source: "phantom", Target: "a1"},
		},
	}
	issues := Validate(g)
	assert.True(t, hasIssue(issues, CodeNodeDuplicateID))
	assert.True(t, hasIssue(issues, CodeEdgeMissingTarget))
	assert.True(t, hasIssue(issues, CodeEdgeMissingSource))
	assert.True(t, hasIssue(issues, CodeNodeDisconnected))
}

func TestValidateNoAgent(t *testing.T) {
	g := &Graph{
		Nodes: []Node{
			{ID: "in", Type: TypeInput},
			{ID: "out", Type: TypeOutput},
		},
		Edges: []Edge{{ID: "e1", Source: "in", Target: "out"}},
	}
	issues := Validate(g)
	require.Len(t, issues, 1)
	assert.Equal(t, CodeGraphNoAgent, issues[0].Code)
}

func TestValidateAgentIssues(t *testing.T) {
	g := validAgentGraph()
	g.Nodes[1].Model = nil
	g.Nodes[1].Tools = []string{"no-such-tool"}
	issues := Validate(g)
	assert.True(t, hasIssue(issues, CodeAgentMissingModel))
	assert.True(t, hasIssue(issues, CodeAgentMissingTool))
}

func TestValidateToolIssues(t *testing.T) {
	g := validAgentGraph()
	g.Nodes = append(g.Nodes,
		Node{ID: "t1", Type: TypeTool, ToolName: "calc", Code: "def run(): pass"},
		Node{ID: "t2", Type: TypeTool, ToolName: "calc", Code: "def run(): pass",
			Schema: map[string]any{"type": "array"}},
	)
	g.Edges = append(g.Edges,
		Edge{ID: "e3", Source: "t1", Target: "a1"},
		Edge{ID: "e4", Source: "t2", Target: "a1"},
	)
	issues := Validate(g)
	assert.True(t, hasIssue(issues, CodeToolDuplicateName))
	assert.True(t, hasIssue(issues, CodeToolInvalidSchema))
	assert.False(t, hasIssue(issues, CodeToolMissingCode))
}

// An empty tool is only an error once an agent can reach it.
func TestValidateToolMissingCodeNeedsReference(t *testing.T) {
	g := validAgentGraph()
	g.Nodes = append(g.Nodes, Node{ID: "calc", Type: TypeTool, ToolName: "calc"})
	g.Edges = append(g.Edges, Edge{ID: "e3", Source: "out", Target: "calc"})
	assert.False(t, hasIssue(Validate(g), CodeToolMissingCode))

	g.Nodes[1].Tools = []string{"calc"}
	issues := Validate(g)
	assert.True(t, hasIssue(issues, CodeToolMissingCode))
}

func TestValidateLoopIssues(t *testing.T) {
	g := validAgentGraph()
	g.Nodes = append(g.Nodes, Node{ID: "lp", Type: TypeLoop})
	g.Edges = append(g.Edges, Edge{ID: "e3", Source: "out", Target: "lp"})
	issues := Validate(g)
	assert.True(t, hasIssue(issues, CodeLoopMissingCondition))
	assert.True(t, hasIssue(issues, CodeLoopInvalidLimit))
	assert.True(t, hasIssue(issues, CodeLoopInvalidCondition))
	assert.True(t, hasIssue(issues, CodeLoopEdgesMissing))
}

func TestValidateLoopUnsupportedCondition(t *testing.T) {
	g := validAgentGraph()
	g.Nodes = append(g.Nodes, Node{
		ID: "lp", Type: TypeLoop,
		Condition:     "os.system('x')()",
		MaxIterations: 3,
	})
	g.Edges = append(g.Edges,
		Edge{ID: "e3", Source: "out", Target: "lp"},
		Edge{ID: "e4", Source: "lp", Target: "a1", Label: "loop"},
		Edge{ID: "e5", Source: "lp", Target: "out", Label: "exit"},
	)
	assert.True(t, hasIssue(Validate(g), CodeLoopInvalidCondition))
}

func TestValidateLoopEdgeLabels(t *testing.T) {
	g := validAgentGraph()
	g.Nodes = append(g.Nodes, Node{
		ID: "lp", Type: TypeLoop, Condition: "iteration < max_iterations", MaxIterations: 2,
	})
	g.Edges = append(g.Edges,
		Edge{ID: "e3", Source: "out", Target: "lp"},
		Edge{ID: "e4", Source: "lp", Target: "a1", Label: "CONTINUE"},
		Edge{ID: "e5", Source: "lp", Target: "out", Label: "Done"},
	)
	assert.Empty(t, Validate(g), "labels are case-insensitive")

	// Two continue edges and no exit edge.
	g.Edges[4].Label = "true"
	assert.True(t, hasIssue(Validate(g), CodeLoopEdgesMissing))
}

func TestValidateLoopGroupIssues(t *testing.T) {
	g := validAgentGraph()
	g.Nodes = append(g.Nodes, Node{ID: "grp", Type: TypeLoopGroup})
	issues := Validate(g)
	assert.True(t, hasIssue(issues, CodeGroupMissingCondition))
	assert.True(t, hasIssue(issues, CodeGroupInvalidLimit))
	assert.True(t, hasIssue(issues, CodeGroupInvalidCondition))
	assert.True(t, hasIssue(issues, CodeGroupEmpty))
}

func TestValidateLoopGroupEdges(t *testing.T) {
	g := &Graph{
		Nodes: []Node{
			{ID: "in", Type: TypeInput},
			{ID: "grp", Type: TypeLoopGroup, Condition: "iteration < 2", MaxIterations: 5},
			{ID: "a1", Type: TypeAgent, Model: map[string]any{"name": "m"}, ParentID: "grp"},
			{ID: "out", Type: TypeOutput},
		},
		Edges: []Edge{
			{ID: "e1", Source: "in", Target: "a1"},
			{ID: "e2", Source: "a1", Target: "out"},
		},
	}
	assert.Empty(t, Validate(g))

	g.Edges = append(g.Edges, Edge{ID: "e3", Source: "in", Target: "grp"})
	issues := Validate(g)
	assert.True(t, hasIssue(issues, CodeGroupEdgeToGroup))

	// A second entry edge breaks the single-boundary rule.
	g.Edges = append(g.Edges[:2], Edge{ID: "e4", Source: "out", Target: "a1"})
	assert.True(t, hasIssue(Validate(g), CodeGroupEdgesInvalid))
}

// The issue set must not depend on node or edge declaration order.
func TestValidateOrderIndependent(t *testing.T) {
	g := validAgentGraph()
	g.Nodes[1].Model = nil
	g.Nodes = append(g.Nodes, Node{ID: "calc", Type: TypeTool, ToolName: "calc"})
	g.Edges = append(g.Edges, Edge{ID: "e3", Source: "calc", Target: "a1"})

	reversed := &Graph{SchemaVersion: g.SchemaVersion}
	for i := len(g.Nodes) - 1; i >= 0; i-- {
		reversed.Nodes = append(reversed.Nodes, g.Nodes[i])
	}
	for i := len(g.Edges) - 1; i >= 0; i-- {
		reversed.Edges = append(reversed.Edges, g.Edges[i])
	}
	assert.Equal(t, issueCodes(Validate(g)), issueCodes(Validate(reversed)))
}
