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
)

// Handler is the per-node-type capability consumed by the validator, the
// compiler and the runner. Traversal logic depends only on this interface,
// so new node types can be registered without touching the engine.
type Handler interface {
	// NodeType returns the type tag this handler owns.
	NodeType() string
	// ValidateGraph reports the issues this node type contributes for the
	// whole graph. Called once per handler, not once per node.
	ValidateGraph(g *Graph) []Issue
	// CompileNode produces the node's compiled configuration, or nil when
	// the node type contributes nothing to the compiled spec.
	CompileNode(node *Node, tools []ToolSpec) map[string]any
	// Run executes the node against the current value and returns the next
	// value.
	Run(ctx context.Context, node *Node, rc *RunContext, input any) (any, error)
}

// Registry maps node type to handler. Registration order is preserved so
// validation output stays stable.
type Registry struct {
	order    []string
	handlers map[string]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds or replaces the handler for its node type.
func (r *Registry) Register(h Handler) {
	nodeType := h.NodeType()
	if _, ok := r.handlers[nodeType]; !ok {
		r.order = append(r.order, nodeType)
	}
	r.handlers[nodeType] = h
}

// HandlerFor returns the handler for a node type.
func (r *Registry) HandlerFor(nodeType string) (Handler, error) {
	h, ok := r.handlers[nodeType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNodeType, nodeType)
	}
	return h, nil
}

// Handlers returns the registered handlers in registration order.
func (r *Registry) Handlers() []Handler {
	result := make([]Handler, 0, len(r.order))
	for _, nodeType := range r.order {
		result = append(result, r.handlers[nodeType])
	}
	return result
}

// DefaultRegistry returns a registry with the built-in node handlers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(inputHandler{})
	r.Register(outputHandler{})
	r.Register(agentHandler{})
	r.Register(toolHandler{})
	r.Register(loopHandler{})
	r.Register(loopGroupHandler{})
	return r
}
