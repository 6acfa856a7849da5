//
// Copyright (C) 2026 Agent Studio Authors.  All rights reserved.
//
// agent-studio-go is licensed under the Apache License Version 2.0.
//
//

package graph

import (
	"context"
	"fmt"

	"github.com/agentstudio/studio-go/codeexecutor"
	"github.com/agentstudio/studio-go/event"
	"github.com/agentstudio/studio-go/expr"
	"github.com/agentstudio/studio-go/model"
)

// RunContext carries everything a node handler may need during one run.
// A run is single-threaded, so handlers may mutate State and Services
// without locking.
type RunContext struct {
	RunID    string
	Graph    *Graph
	Compiled CompiledSpec
	// Inputs is the raw input object the run was started with.
	Inputs map[string]any
	// Connection describes the model provider supplied with the run.
	Connection model.Connection
	// Emit is the injected event sink. Calls are serial within a run; an
	// error from Emit (typically cancellation) aborts the run.
	Emit event.EmitFunc
	// RunWorkspace is the run-scoped scratch directory.
	RunWorkspace string
	// State is the run-scoped mutable map exposed to loop conditions.
	State map[string]any
	// Services is a side channel for cross-node helpers (process manager,
	// code executor) that handlers populate lazily.
	Services map[string]any

	// NewModel overrides model client construction; nil selects the
	// OpenAI-backed default.
	NewModel func(conn model.Connection, name string) (model.Model, error)
	// CodeExecutor runs generated tool code; nil selects a local executor
	// rooted in the run workspace.
	CodeExecutor codeexecutor.CodeExecutor
}

// EmitEvent reports a run event through the injected sink, tolerating a
// nil sink.
func (rc *RunContext) EmitEvent(ctx context.Context, eventType string, payload map[string]any) (*event.Event, error) {
	if rc.Emit == nil {
		return event.NopEmit(ctx, eventType, payload)
	}
	return rc.Emit(ctx, eventType, payload)
}

// Service returns the named run-scoped service, creating it on first use.
func (rc *RunContext) Service(name string, create func() any) any {
	if rc.Services == nil {
		rc.Services = make(map[string]any)
	}
	if svc, ok := rc.Services[name]; ok {
		return svc
	}
	svc := create()
	rc.Services[name] = svc
	return svc
}

const defaultMaxSteps = 10000

// Runner walks a graph's flow edges from the start node to a terminal
// node, dispatching each step to its node handler and driving loop and
// loop-group iteration.
type Runner struct {
	registry *Registry
	maxSteps int
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRegistry sets the handler registry.
func WithRegistry(reg *Registry) RunnerOption {
	return func(r *Runner) { r.registry = reg }
}

// WithMaxSteps overrides the traversal circuit breaker.
func WithMaxSteps(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.maxSteps = n
		}
	}
}

// NewRunner creates a Runner with the default registry.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{registry: DefaultRegistry(), maxSteps: defaultMaxSteps}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// groupInfo is the per-run precomputed shape of one loop_group.
type groupInfo struct {
	node        *Node
	members     map[string]bool
	entryTarget string
	exitEdgeID  string
	exitTarget  string
}

// runPlan is the per-run traversal index: flow adjacency plus loop-group
// structure, built once at run start.
type runPlan struct {
	graph    *Graph
	outgoing map[string][]Edge
	groups   map[string]*groupInfo
	// memberOf maps a node id to its containing group id.
	memberOf map[string]string
}

// Run executes the graph and returns the value produced by the last node
// on the flow path. A graph without a resolvable start node returns the
// input unchanged.
func (r *Runner) Run(ctx context.Context, rc *RunContext, input any) (any, error) {
	g := rc.Graph
	if g == nil {
		return input, nil
	}
	plan, err := buildRunPlan(g)
	if err != nil {
		return nil, err
	}
	current := resolveStartNode(g, plan)
	if current == nil {
		return input, nil
	}
	if rc.State == nil {
		rc.State = make(map[string]any)
	}

	counters := make(map[string]int)
	last := input
	for step := 0; ; step++ {
		if step >= r.maxSteps {
			return nil, fmt.Errorf("%w after %d steps", ErrStepLimitExceeded, r.maxSteps)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var nextID string
		if current.Type == TypeLoop {
			nextID, err = r.stepLoop(ctx, rc, current, counters, last)
			if err != nil {
				return nil, err
			}
		} else {
			handler, herr := r.registry.HandlerFor(current.Type)
			if herr != nil {
				return nil, herr
			}
			last, err = handler.Run(ctx, current, rc, last)
			if err != nil {
				return nil, err
			}
			nextID, err = r.resolveNext(ctx, rc, plan, current, counters, last)
			if err != nil {
				return nil, err
			}
		}

		if nextID == "" {
			return last, nil
		}
		next := g.NodeByID(nextID)
		if next == nil {
			return nil, fmt.Errorf("%w: edge target %q not found", ErrLoopGroupUnresolved, nextID)
		}
		// Entering a loop-group's member set from outside counts as an
		// iteration of that group.
		if gid := plan.memberOf[next.ID]; gid != "" && plan.memberOf[current.ID] != gid {
			counters[gid]++
		}
		current = next
	}
}

// stepLoop evaluates a loop node's condition and picks the continue or
// exit branch. The loop body does not re-execute once the iteration cap is
// reached; the cap is a circuit breaker, not an error.
func (r *Runner) stepLoop(ctx context.Context, rc *RunContext, node *Node, counters map[string]int, last any) (string, error) {
	edges := loopBranchEdges(rc.Graph, node.ID)
	continueEdge := findEdgeWithLabel(edges, loopContinueLabels)
	exitEdge := findEdgeWithLabel(edges, loopExitLabels)
	if continueEdge == nil || exitEdge == nil {
		return "", fmt.Errorf("%w: loop node %q", ErrLoopEdgesUnresolved, node.ID)
	}

	ok, err := evalLoopCondition(rc, node, counters[node.ID], last)
	if err != nil {
		return "", err
	}
	if !ok {
		return exitEdge.Target, nil
	}
	if counters[node.ID] < node.MaxIterations {
		counters[node.ID]++
		return continueEdge.Target, nil
	}
	if _, err := rc.EmitEvent(ctx, event.TypeLoopLimit, map[string]any{
		"node_id":        node.ID,
		"iterations":     counters[node.ID],
		"max_iterations": node.MaxIterations,
	}); err != nil {
		return "", err
	}
	return exitEdge.Target, nil
}

// resolveNext picks the node that follows a non-loop step. Inside a
// loop-group, internal edges win over the group's exit edge, and taking
// the exit edge first consults the group's condition.
func (r *Runner) resolveNext(ctx context.Context, rc *RunContext, plan *runPlan, current *Node, counters map[string]int, last any) (string, error) {
	outs := plan.outgoing[current.ID]
	gid := plan.memberOf[current.ID]
	if gid == "" {
		if len(outs) == 0 {
			return "", nil
		}
		return outs[0].Target, nil
	}

	group := plan.groups[gid]
	for _, edge := range outs {
		if group.members[edge.Target] {
			return edge.Target, nil
		}
	}
	for _, edge := range outs {
		if edge.ID != group.exitEdgeID {
			continue
		}
		ok, err := evalLoopCondition(rc, group.node, counters[gid], last)
		if err != nil {
			return "", err
		}
		if !ok {
			return group.exitTarget, nil
		}
		if counters[gid] < group.node.MaxIterations {
			counters[gid]++
			return group.entryTarget, nil
		}
		if _, err := rc.EmitEvent(ctx, event.TypeLoopLimit, map[string]any{
			"node_id":        group.node.ID,
			"iterations":     counters[gid],
			"max_iterations": group.node.MaxIterations,
		}); err != nil {
			return "", err
		}
		return group.exitTarget, nil
	}
	if len(outs) == 0 {
		return "", nil
	}
	return outs[0].Target, nil
}

// evalLoopCondition evaluates a loop or loop-group condition against the
// standard loop context.
func evalLoopCondition(rc *RunContext, node *Node, iteration int, last any) (bool, error) {
	evalCtx := map[string]any{
		"last":           last,
		"inputs":         rc.Inputs,
		"state":          rc.State,
		"iteration":      int64(iteration),
		"max_iterations": int64(node.MaxIterations),
	}
	ok, err := expr.Evaluate(node.Condition, evalCtx)
	if err != nil {
		return false, fmt.Errorf("%w: node %q: %v", ErrInvalidLoopCondition, node.ID, err)
	}
	return ok, nil
}

// buildRunPlan indexes flow edges and resolves every loop-group's
// membership and entry/exit boundary once per run.
func buildRunPlan(g *Graph) (*runPlan, error) {
	plan := &runPlan{
		graph:    g,
		outgoing: make(map[string][]Edge),
		groups:   make(map[string]*groupInfo),
		memberOf: make(map[string]string),
	}
	for _, edge := range g.Edges {
		if isFlowEdge(g, edge) {
			plan.outgoing[edge.Source] = append(plan.outgoing[edge.Source], edge)
		}
	}
	for _, group := range g.NodesOfType(TypeLoopGroup) {
		members := make(map[string]bool)
		for _, id := range g.GroupMembers(group.ID) {
			members[id] = true
			plan.memberOf[id] = group.ID
		}
		if len(members) == 0 {
			return nil, fmt.Errorf("%w: group %q has no members", ErrLoopGroupUnresolved, group.ID)
		}
		entries := groupEntryEdges(g, members)
		exits := groupExitEdges(g, members)
		if len(entries) != 1 || len(exits) != 1 {
			return nil, fmt.Errorf("%w: group %q needs exactly one entry and one exit edge", ErrLoopGroupUnresolved, group.ID)
		}
		plan.groups[group.ID] = &groupInfo{
			node:        group,
			members:     members,
			entryTarget: entries[0].Target,
			exitEdgeID:  exits[0].ID,
			exitTarget:  exits[0].Target,
		}
	}
	return plan, nil
}

// isFlowEdge reports whether the runner may traverse the edge as control
// flow. Tool attachments, loop-group endpoints and agent-to-agent hand-off
// edges are data relationships, not sequencing.
func isFlowEdge(g *Graph, edge Edge) bool {
	source := g.NodeByID(edge.Source)
	target := g.NodeByID(edge.Target)
	if source == nil || target == nil {
		return false
	}
	if source.Type == TypeTool || target.Type == TypeTool {
		return false
	}
	if source.Type == TypeLoopGroup || target.Type == TypeLoopGroup {
		return false
	}
	if source.Type == TypeAgent && target.Type == TypeAgent {
		return false
	}
	return true
}

// resolveStartNode prefers the unique input node when it starts a flow,
// then falls back to the unique (or first-declared) agent node.
func resolveStartNode(g *Graph, plan *runPlan) *Node {
	if inputs := g.NodesOfType(TypeInput); len(inputs) == 1 {
		if len(plan.outgoing[inputs[0].ID]) > 0 {
			return inputs[0]
		}
	}
	if agents := g.NodesOfType(TypeAgent); len(agents) > 0 {
		return agents[0]
	}
	return nil
}
