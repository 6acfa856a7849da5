//
// Copyright (C) 2026 Agent Studio Authors.  All rights reserved.
//
// agent-studio-go is licensed under the Apache License Version 2.0.
//
//

package graph

// ToolSpec is one resolved tool in the compiled spec.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Schema      map[string]any `json:"schema"`
	Language    string         `json:"language"`
	Code        string         `json:"code"`
}

// CompiledSpec is the canonical executable description derived from a
// graph: the primary agent's configuration plus its resolved tool list.
type CompiledSpec struct {
	Agent map[string]any `json:"agent"`
	Tools []ToolSpec     `json:"tools"`
}

// Compile produces the compiled spec using the default registry.
//
// Compilation is a total, pure function: it never fails, never mutates the
// graph, and returns an empty spec when the graph has no agent node.
func Compile(g *Graph) CompiledSpec {
	return CompileWith(g, DefaultRegistry())
}

// CompileWith compiles using the given handler registry.
func CompileWith(g *Graph, reg *Registry) CompiledSpec {
	primary := PrimaryAgent(g)
	if primary == nil {
		return CompiledSpec{Agent: map[string]any{}, Tools: []ToolSpec{}}
	}
	toolIDs := CollectToolIDs(g, primary)
	tools := make([]ToolSpec, 0, len(toolIDs))
	for _, id := range toolIDs {
		node := g.NodeByID(id)
		if node == nil || node.Type != TypeTool {
			// Unresolved references are the validator's concern.
			continue
		}
		tools = append(tools, toolSpecFromNode(node))
	}
	agent := map[string]any{}
	if h, err := reg.HandlerFor(primary.Type); err == nil {
		if cfg := h.CompileNode(primary, tools); cfg != nil {
			agent = cfg
		}
	}
	return CompiledSpec{Agent: agent, Tools: tools}
}

// PrimaryAgent selects the agent node whose configuration becomes the
// top-level compiled spec. With exactly one agent the choice is trivial.
// With several, the agent reachable from the unique input node wins;
// failing that, declaration order decides.
func PrimaryAgent(g *Graph) *Node {
	agents := g.NodesOfType(TypeAgent)
	switch len(agents) {
	case 0:
		return nil
	case 1:
		return agents[0]
	}
	if inputs := g.NodesOfType(TypeInput); len(inputs) == 1 {
		if agent := firstAgentReachableFrom(g, inputs[0].ID); agent != nil {
			return agent
		}
	}
	return agents[0]
}

func firstAgentReachableFrom(g *Graph, startID string) *Node {
	visited := map[string]bool{startID: true}
	queue := []string{startID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, edge := range g.Edges {
			if edge.Source != current || visited[edge.Target] {
				continue
			}
			visited[edge.Target] = true
			target := g.NodeByID(edge.Target)
			if target == nil {
				continue
			}
			if target.Type == TypeAgent {
				return target
			}
			queue = append(queue, edge.Target)
		}
	}
	return nil
}

// CollectToolIDs resolves the ordered, duplicate-free tool ids attached to
// a node: inline declarations first in author order, then tool-node ids
// connected by an incoming edge, in edge-declaration order, skipping ids
// already present.
func CollectToolIDs(g *Graph, node *Node) []string {
	seen := make(map[string]bool)
	ids := make([]string, 0, len(node.Tools))
	for _, id := range node.Tools {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	for _, edge := range g.Edges {
		if edge.Target != node.ID {
			continue
		}
		source := g.NodeByID(edge.Source)
		if source == nil || source.Type != TypeTool || seen[source.ID] {
			continue
		}
		seen[source.ID] = true
		ids = append(ids, source.ID)
	}
	return ids
}

func toolSpecFromNode(node *Node) ToolSpec {
	name := node.ToolName
	if name == "" {
		name = node.Name
	}
	if name == "" {
		name = node.ID
	}
	schema := node.Schema
	if schema == nil {
		schema = map[string]any{}
	}
	return ToolSpec{
		Name:        name,
		Description: node.Description,
		Schema:      schema,
		Language:    node.Language,
		Code:        node.Code,
	}
}
