//
// Copyright (C) 2026 Agent Studio Authors.  All rights reserved.
//
// agent-studio-go is licensed under the Apache License Version 2.0.
//
//

package graph

import "errors"

// Runner-fatal errors. These indicate a graph that passed structural
// validation but still cannot be executed; they abort the run.
var (
	// ErrUnknownNodeType is returned when traversal reaches a node type
	// with no registered handler.
	ErrUnknownNodeType = errors.New("unknown node type")
	// ErrInvalidLoopCondition wraps an expression failure while deciding
	// loop continuation.
	ErrInvalidLoopCondition = errors.New("invalid loop condition")
	// ErrLoopEdgesUnresolved is returned when a loop node's continue/exit
	// edge pair cannot be resolved at run time.
	ErrLoopEdgesUnresolved = errors.New("loop edges unresolved")
	// ErrLoopGroupUnresolved is returned when a loop_group's membership or
	// entry/exit boundary cannot be resolved at run time.
	ErrLoopGroupUnresolved = errors.New("loop group unresolved")
	// ErrStepLimitExceeded is the traversal circuit breaker for graphs
	// that cycle without a loop construct.
	ErrStepLimitExceeded = errors.New("graph step limit exceeded")
)
