//
// Copyright (C) 2026 Agent Studio Authors.  All rights reserved.
//
// agent-studio-go is licensed under the Apache License Version 2.0.
//
//

package graph

// Issue codes produced by Validate. Grouped by the element they describe.
const (
	CodeNodeDuplicateID   = "node.duplicate_id"
	CodeEdgeMissingSource = "edge.missing_source"
	CodeEdgeMissingTarget = "edge.missing_target"
	CodeNodeDisconnected  = "node.disconnected"
	CodeGraphNoAgent      = "graph.no_agent"

	CodeAgentMissingModel = "agent.missing_model"
	CodeAgentMissingTool  = "agent.missing_tool"

	CodeToolDuplicateName = "tool.duplicate_name"
	CodeToolInvalidSchema = "tool.invalid_schema"
	CodeToolMissingCode   = "tool.missing_code"

	CodeLoopMissingCondition = "loop.missing_condition"
	CodeLoopInvalidLimit     = "loop.invalid_limit"
	CodeLoopInvalidCondition = "loop.invalid_condition"
	CodeLoopEdgesMissing     = "loop.edges_missing"

	CodeGroupMissingCondition = "loop_group.missing_condition"
	CodeGroupInvalidLimit     = "loop_group.invalid_limit"
	CodeGroupInvalidCondition = "loop_group.invalid_condition"
	CodeGroupEmpty            = "loop_group.empty"
	CodeGroupEdgesInvalid     = "loop_group.edges_invalid"
	CodeGroupEdgeToGroup      = "loop_group.edge_to_group"
)

// Issue is one structured validation diagnostic. Issues are data, never
// errors: Validate accumulates every applicable issue so callers can render
// a complete report.
type Issue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	NodeID  string `json:"node_id,omitempty"`
	EdgeID  string `json:"edge_id,omitempty"`
}
