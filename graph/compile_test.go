//
// Copyright (C) 2026 Agent Studio Authors.  All rights reserved.
//
// agent-studio-go is licensed under the Apache License Version 2.0.
//
//

package graph

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileNoAgent(t *testing.T) {
	spec := Compile(&Graph{Nodes: []Node{{ID: "in", Type: TypeInput}}})
	assert.Empty(t, spec.Agent)
	assert.NotNil(t, spec.Agent)
	assert.Empty(t, spec.Tools)
	assert.NotNil(t, spec.Tools)
}

func TestCompileAgentWithTools(t *testing.T) {
	g := &Graph{
		Nodes: []Node{
			{ID: "in", Type: TypeInput},
			{
				ID: "a1", Type: TypeAgent, Name: "Researcher",
				Instructions: "find things",
				Model:        map[string]any{"name": "gpt-4o-mini"},
				Tools:        []string{"t2", "missing"},
			},
			{ID: "t1", Type: TypeTool, ToolName: "alpha", Language: "python",
				Code: "def run(): pass", Description: "first",
				Schema: map[string]any{"type": "object"}},
			{ID: "t2", Type: TypeTool, ToolName: "beta", Language: "python",
				Code: "def run(): pass"},
			{ID: "out", Type: TypeOutput},
		},
		Edges: []Edge{
			{ID: "e1", Source: "in", Target: "a1"},
			{ID: "e2", Source: "t1", Target: "a1"},
			{ID: "e3", Source: "t2", Target: "a1"},
			{ID: "e4", Source: "a1", Target: "out"},
		},
	}
	spec := Compile(g)

	// Inline declarations come first, edge attachments after, duplicates
	// and unresolved ids dropped.
	require.Len(t, spec.Tools, 2)
	assert.Equal(t, "beta", spec.Tools[0].Name)
	assert.Equal(t, "alpha", spec.Tools[1].Name)
	assert.Equal(t, "first", spec.Tools[1].Description)
	assert.Equal(t, map[string]any{"type": "object"}, spec.Tools[1].Schema)

	assert.Equal(t, "Researcher", spec.Agent["name"])
	assert.Equal(t, "find things", spec.Agent["instructions"])
	assert.Equal(t, []string{"beta", "alpha"}, spec.Agent["tools"])
	assert.Equal(t, []any{}, spec.Agent["handoffs"])
}

func TestCompileDefaultAgentName(t *testing.T) {
	g := &Graph{Nodes: []Node{{ID: "a1", Type: TypeAgent, Model: map[string]any{"name": "m"}}}}
	assert.Equal(t, "Agent", Compile(g).Agent["name"])
}

func TestCompileIdempotent(t *testing.T) {
	g := &Graph{
		Nodes: []Node{
			{ID: "a1", Type: TypeAgent, Model: map[string]any{"name": "m"},
				Tools:            []string{"t1"},
				InputGuardrails:  []Guardrail{{Name: "g", Rule: "r", Blocking: true}},
				OutputGuardrails: []Guardrail{{Name: "h", Rule: "r2", Description: "d"}}},
			{ID: "t1", Type: TypeTool, ToolName: "calc", Code: "def run(): pass"},
		},
	}
	first, err := json.Marshal(Compile(g))
	require.NoError(t, err)
	second, err := json.Marshal(Compile(g))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPrimaryAgentSelection(t *testing.T) {
	g := &Graph{
		Nodes: []Node{
			{ID: "a1", Type: TypeAgent, Name: "First", Model: map[string]any{"name": "m"}},
			{ID: "in", Type: TypeInput},
			{ID: "a2", Type: TypeAgent, Name: "Second", Model: map[string]any{"name": "m"}},
		},
		Edges: []Edge{{ID: "e1", Source: "in", Target: "a2"}},
	}
	assert.Equal(t, "a2", PrimaryAgent(g).ID, "input-reachable agent wins")

	g.Edges = nil
	assert.Equal(t, "a1", PrimaryAgent(g).ID, "declaration order breaks ties")

	assert.Nil(t, PrimaryAgent(&Graph{}))
}

func TestCollectToolIDs(t *testing.T) {
	g := &Graph{
		Nodes: []Node{
			{ID: "a1", Type: TypeAgent, Tools: []string{"t1", "t1", "t2"}},
			{ID: "t1", Type: TypeTool, ToolName: "one"},
			{ID: "t2", Type: TypeTool, ToolName: "two"},
			{ID: "t3", Type: TypeTool, ToolName: "three"},
			{ID: "other", Type: TypeOutput},
		},
		Edges: []Edge{
			{ID: "e1", Source: "t3", Target: "a1"},
			{ID: "e2", Source: "t1", Target: "a1"},
			{ID: "e3", Source: "other", Target: "a1"},
		},
	}
	node := g.NodeByID("a1")
	ids := CollectToolIDs(g, node)
	assert.Equal(t, []string{"t1", "t2", "t3"}, ids)
	assert.Equal(t, ids, CollectToolIDs(g, node), "resolution is idempotent")
}
