//
// Copyright (C) 2026 Agent Studio Authors.  All rights reserved.
//
// agent-studio-go is licensed under the Apache License Version 2.0.
//
//

// Package graph implements the workflow graph engine: the document model,
// the validator, the compiler and the sequential graph runner.
//
// A graph is a directed arrangement of typed nodes (input, output, agent,
// tool, loop, loop_group) connected by edges. Tool edges and loop-group
// containment express attachment rather than sequencing; the runner walks
// only flow edges.
package graph

import "encoding/json"

// Node types understood by the engine.
const (
	TypeInput     = "input"
	TypeOutput    = "output"
	TypeAgent     = "agent"
	TypeTool      = "tool"
	TypeLoop      = "loop"
	TypeLoopGroup = "loop_group"
)

// Position is an editor canvas position.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Viewport is the editor viewport stored with a document.
type Viewport struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// Guardrail is a named rule attached to an agent's input or output.
type Guardrail struct {
	Name        string `json:"name"`
	Rule        string `json:"rule"`
	Blocking    bool   `json:"blocking"`
	Description string `json:"description,omitempty"`
}

// Node is the polymorphic graph node, discriminated by Type. Variant
// fields not belonging to a node's type are simply left at their zero
// value; unrecognized JSON fields round-trip through Extra.
type Node struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	Name     string    `json:"name,omitempty"`
	Position *Position `json:"position,omitempty"`
	// ParentID marks this node as a member of a loop_group.
	ParentID string `json:"parent_id,omitempty"`

	// input and tool nodes both carry a JSON-object schema.
	Schema map[string]any `json:"schema,omitempty"`

	// agent fields.
	Instructions     string         `json:"instructions,omitempty"`
	Model            map[string]any `json:"model,omitempty"`
	Tools            []string       `json:"tools,omitempty"`
	Temperature      *float64       `json:"temperature,omitempty"`
	InputGuardrails  []Guardrail    `json:"input_guardrails,omitempty"`
	OutputGuardrails []Guardrail    `json:"output_guardrails,omitempty"`
	OutputType       map[string]any `json:"output_type,omitempty"`
	WorkspaceRoot    string         `json:"workspace_root,omitempty"`
	// SandboxTools defaults to true when absent; use SandboxEnabled.
	SandboxTools *bool `json:"sandbox_tools,omitempty"`

	// tool fields.
	ToolName    string `json:"tool_name,omitempty"`
	Language    string `json:"language,omitempty"`
	Code        string `json:"code,omitempty"`
	Description string `json:"description,omitempty"`

	// loop and loop_group fields.
	Condition     string  `json:"condition,omitempty"`
	MaxIterations int     `json:"max_iterations,omitempty"`
	Width         float64 `json:"width,omitempty"`
	Height        float64 `json:"height,omitempty"`

	// Extra preserves unrecognized fields for forward compatibility.
	Extra map[string]any `json:"-"`
}

// SandboxEnabled reports whether the agent's generated tools should run in
// the sandboxed executor. Absent means enabled.
func (n *Node) SandboxEnabled() bool {
	return n.SandboxTools == nil || *n.SandboxTools
}

// nodeKnownKeys mirrors the JSON tags above so unknown fields can be
// separated out on decode.
var nodeKnownKeys = []string{
	"id", "type", "name", "position", "parent_id", "schema",
	"instructions", "model", "tools", "temperature",
	"input_guardrails", "output_guardrails", "output_type",
	"workspace_root", "sandbox_tools",
	"tool_name", "language", "code", "description",
	"condition", "max_iterations", "width", "height",
}

// UnmarshalJSON decodes known fields into the struct and keeps everything
// else in Extra.
func (n *Node) UnmarshalJSON(data []byte) error {
	type plain Node
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, key := range nodeKnownKeys {
		delete(raw, key)
	}
	if len(raw) > 0 {
		p.Extra = make(map[string]any, len(raw))
		for key, value := range raw {
			var v any
			if err := json.Unmarshal(value, &v); err != nil {
				return err
			}
			p.Extra[key] = v
		}
	}
	*n = Node(p)
	return nil
}

// MarshalJSON re-merges Extra into the encoded object. Known fields win on
// key collisions.
func (n Node) MarshalJSON() ([]byte, error) {
	type plain Node
	data, err := json.Marshal(plain(n))
	if err != nil {
		return nil, err
	}
	if len(n.Extra) == 0 {
		return data, nil
	}
	var merged map[string]any
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for key, value := range n.Extra {
		if _, ok := merged[key]; !ok {
			merged[key] = value
		}
	}
	return json.Marshal(merged)
}

// Edge connects two nodes. Labels matter only on edges leaving a loop
// node, where they select the continue/exit branch.
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	Label        string `json:"label,omitempty"`
	SourceHandle string `json:"source_handle,omitempty"`
	TargetHandle string `json:"target_handle,omitempty"`
}

// Graph is the document envelope handed to the validator, compiler and
// runner. All three treat it as an immutable value.
type Graph struct {
	SchemaVersion string         `json:"schema_version"`
	Nodes         []Node         `json:"nodes"`
	Edges         []Edge         `json:"edges"`
	Viewport      Viewport       `json:"viewport"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	WorkspaceRoot string         `json:"workspace_root,omitempty"`
}

// Envelope is the wire shape used by clients submitting a graph.
type Envelope struct {
	Graph Graph `json:"graph"`
}

// NodeByID returns the first node with the given id, or nil.
func (g *Graph) NodeByID(id string) *Node {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}

// NodesOfType returns pointers to all nodes of the given type, in
// declaration order.
func (g *Graph) NodesOfType(nodeType string) []*Node {
	var result []*Node
	for i := range g.Nodes {
		if g.Nodes[i].Type == nodeType {
			result = append(result, &g.Nodes[i])
		}
	}
	return result
}

// IsNodeType reports whether the id names a node of the given type.
func (g *Graph) IsNodeType(id, nodeType string) bool {
	node := g.NodeByID(id)
	return node != nil && node.Type == nodeType
}

// GroupMembers returns the ids of the nodes whose parent_id equals the
// given loop_group id, in declaration order.
func (g *Graph) GroupMembers(groupID string) []string {
	var members []string
	for i := range g.Nodes {
		if g.Nodes[i].ParentID == groupID {
			members = append(members, g.Nodes[i].ID)
		}
	}
	return members
}
