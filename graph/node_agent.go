//
// Copyright (C) 2026 Agent Studio Authors.  All rights reserved.
//
// agent-studio-go is licensed under the Apache License Version 2.0.
//
//

package graph

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/agentstudio/studio-go/codeexecutor"
	"github.com/agentstudio/studio-go/codeexecutor/local"
	"github.com/agentstudio/studio-go/event"
	"github.com/agentstudio/studio-go/log"
	"github.com/agentstudio/studio-go/model"
	"github.com/agentstudio/studio-go/model/openai"
	"github.com/agentstudio/studio-go/process"
	"github.com/agentstudio/studio-go/tool"
)

const (
	defaultAgentName = "Agent"
	// maxToolTurns bounds the model/tool round trips of one agent step.
	maxToolTurns = 8
)

// agentHandler runs an LLM-backed agent node: it resolves the node's
// attached tools, streams a chat completion, executes requested tool calls
// and loops until the model produces a final answer.
type agentHandler struct{}

func (agentHandler) NodeType() string { return TypeAgent }

func (agentHandler) ValidateGraph(g *Graph) []Issue {
	var issues []Issue
	for _, node := range g.NodesOfType(TypeAgent) {
		if len(node.Model) == 0 {
			issues = append(issues, Issue{
				Code:    CodeAgentMissingModel,
				Message: "Agent node must include a model definition.",
				NodeID:  node.ID,
			})
		}
		for _, toolID := range CollectToolIDs(g, node) {
			target := g.NodeByID(toolID)
			if target == nil || target.Type != TypeTool {
				issues = append(issues, Issue{
					Code:    CodeAgentMissingTool,
					Message: "Agent references a tool that does not exist.",
					NodeID:  node.ID,
				})
			}
		}
	}
	return issues
}

func (agentHandler) CompileNode(node *Node, tools []ToolSpec) map[string]any {
	toolNames := make([]string, 0, len(tools))
	for _, t := range tools {
		toolNames = append(toolNames, t.Name)
	}
	name := node.Name
	if name == "" {
		name = defaultAgentName
	}
	return map[string]any{
		"type":              TypeAgent,
		"name":              name,
		"instructions":      node.Instructions,
		"model":             node.Model,
		"temperature":       node.Temperature,
		"tools":             toolNames,
		"handoffs":          []any{},
		"input_guardrails":  guardrailMaps(node.InputGuardrails),
		"output_guardrails": guardrailMaps(node.OutputGuardrails),
		"output_type":       node.OutputType,
	}
}

func guardrailMaps(guardrails []Guardrail) []map[string]any {
	result := make([]map[string]any, 0, len(guardrails))
	for _, g := range guardrails {
		entry := map[string]any{
			"name":     g.Name,
			"rule":     g.Rule,
			"blocking": g.Blocking,
		}
		if g.Description != "" {
			entry["description"] = g.Description
		}
		result = append(result, entry)
	}
	return result
}

func (agentHandler) Run(ctx context.Context, node *Node, rc *RunContext, input any) (any, error) {
	modelName := extractModelName(node.Model)
	if modelName == "" {
		return nil, fmt.Errorf("agent node %q: model definition has no name", node.ID)
	}
	client, err := rc.modelClient(modelName)
	if err != nil {
		return nil, err
	}

	tools, err := buildAgentTools(node, rc)
	if err != nil {
		return nil, err
	}
	toolsByName := make(map[string]tool.CallableTool, len(tools))
	declarations := make([]*tool.Declaration, 0, len(tools))
	for _, t := range tools {
		toolsByName[t.Declaration().Name] = t
		declarations = append(declarations, t.Declaration())
	}

	name := node.Name
	if name == "" {
		name = defaultAgentName
	}
	if _, err := rc.EmitEvent(ctx, event.TypeRunAgentInput, map[string]any{
		"node_type": TypeAgent,
		"name":      name,
		"model":     modelName,
		"input":     input,
	}); err != nil {
		return nil, err
	}

	messages := make([]model.Message, 0, 2)
	if node.Instructions != "" {
		messages = append(messages, model.NewSystemMessage(node.Instructions))
	}
	messages = append(messages, model.NewUserMessage(valueToText(input)))

	for turn := 0; turn < maxToolTurns; turn++ {
		final, err := generateTurn(ctx, rc, client, modelName, &model.Request{
			Messages: messages,
			Tools:    declarations,
			GenerationConfig: model.GenerationConfig{
				Stream:      true,
				Temperature: node.Temperature,
			},
		})
		if err != nil {
			return nil, err
		}
		if len(final.Message.ToolCalls) == 0 {
			return final.Message.Content, nil
		}

		messages = append(messages, final.Message)
		for _, call := range final.Message.ToolCalls {
			result, err := dispatchToolCall(ctx, rc, toolsByName, call)
			if err != nil {
				return nil, err
			}
			messages = append(messages, model.NewToolMessage(call.ID, call.Name, result))
		}
	}
	return nil, fmt.Errorf("agent node %q exceeded %d tool turns", node.ID, maxToolTurns)
}

// generateTurn streams one chat completion, forwarding deltas as
// run.stream_event, and returns the final accumulated response.
func generateTurn(ctx context.Context, rc *RunContext, client model.Model, modelName string, request *model.Request) (*model.Response, error) {
	if _, err := rc.EmitEvent(ctx, event.TypeSpanStarted, map[string]any{
		"span_type": "llm", "name": modelName,
	}); err != nil {
		return nil, err
	}
	responses, err := client.GenerateContent(ctx, request)
	if err != nil {
		return nil, err
	}
	var final *model.Response
	for response := range responses {
		if response.Error != nil {
			return nil, fmt.Errorf("model error (%s): %s", response.Error.Type, response.Error.Message)
		}
		if response.IsPartial {
			if _, err := rc.EmitEvent(ctx, event.TypeRunStreamEvent, map[string]any{
				"type":  "raw_response_event",
				"delta": response.Delta,
			}); err != nil {
				return nil, err
			}
			continue
		}
		if response.Done {
			final = response
		}
	}
	if final == nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("model %q closed the stream without a final response", modelName)
	}
	if _, err := rc.EmitEvent(ctx, event.TypeSpanCompleted, map[string]any{
		"span_type": "llm", "name": modelName,
	}); err != nil {
		return nil, err
	}
	return final, nil
}

func dispatchToolCall(ctx context.Context, rc *RunContext, toolsByName map[string]tool.CallableTool, call model.ToolCall) (string, error) {
	if _, err := rc.EmitEvent(ctx, event.TypeSpanStarted, map[string]any{
		"span_type": "tool", "name": call.Name,
	}); err != nil {
		return "", err
	}
	t, ok := toolsByName[call.Name]
	if !ok {
		return "", fmt.Errorf("model requested unknown tool %q", call.Name)
	}
	output, err := t.Call(ctx, call.Arguments)
	if err != nil {
		return "", fmt.Errorf("tool %s: %w", call.Name, err)
	}
	if _, err := rc.EmitEvent(ctx, event.TypeSpanCompleted, map[string]any{
		"span_type": "tool", "name": call.Name,
	}); err != nil {
		return "", err
	}
	return valueToText(output), nil
}

// buildAgentTools assembles the node's callable tools: code tools from
// attached tool nodes, plus workspace and process tools when the node
// declares a workspace root.
func buildAgentTools(node *Node, rc *RunContext) ([]tool.CallableTool, error) {
	var tools []tool.CallableTool
	executor := rc.codeExecutor()
	for _, toolID := range CollectToolIDs(rc.Graph, node) {
		toolNode := rc.Graph.NodeByID(toolID)
		if toolNode == nil || toolNode.Type != TypeTool {
			continue
		}
		spec := toolSpecFromNode(toolNode)
		codeTool, err := tool.NewCodeTool(
			spec.Name, spec.Description, spec.Language, spec.Code,
			tool.Schema(spec.Schema), executor,
		)
		if err != nil {
			return nil, fmt.Errorf("tool node %q: %w", toolNode.ID, err)
		}
		tools = append(tools, codeTool)
	}

	workspaceRoot := node.WorkspaceRoot
	if workspaceRoot == "" {
		workspaceRoot = rc.Graph.WorkspaceRoot
	}
	if workspaceRoot == "" {
		return tools, nil
	}
	workspaceTools, err := tool.NewWorkspaceTools(workspaceRoot)
	if err != nil {
		return nil, fmt.Errorf("agent node %q: %w", node.ID, err)
	}
	tools = append(tools, workspaceTools...)
	if node.SandboxEnabled() {
		manager, _ := rc.Service("process_manager", func() any {
			return process.NewManager()
		}).(*process.Manager)
		if manager != nil {
			tools = append(tools, tool.NewProcessTools(rc.RunID, workspaceRoot, manager)...)
		}
	}
	return tools, nil
}

func (rc *RunContext) modelClient(name string) (model.Model, error) {
	if rc.NewModel != nil {
		return rc.NewModel(rc.Connection, name)
	}
	return openai.NewFromConnection(rc.Connection, name)
}

func (rc *RunContext) codeExecutor() codeexecutor.CodeExecutor {
	if rc.CodeExecutor != nil {
		return rc.CodeExecutor
	}
	return local.New(local.WithWorkDir(rc.RunWorkspace))
}

// extractModelName pulls the model label out of the node's opaque model
// config.
func extractModelName(cfg map[string]any) string {
	for _, key := range []string{"name", "model"} {
		if value, ok := cfg[key].(string); ok && value != "" {
			return value
		}
	}
	return ""
}

// valueToText renders a node value for a chat message or tool result.
func valueToText(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			log.Warnf("failed to encode value for message: %v", err)
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}
