//
// Copyright (C) 2026 Agent Studio Authors.  All rights reserved.
//
// agent-studio-go is licensed under the Apache License Version 2.0.
//
//

// Package expr implements the restricted expression language used for loop
// conditions. The surface grammar is a small Python-like subset: literals,
// name lookup, boolean/arithmetic/comparison operators (with chained
// comparisons), subscript and dotted key access, slices inside subscripts,
// and list/tuple/dict construction. Anything else (calls, comprehensions,
// lambdas, assignment) is rejected at parse time, so the evaluator can
// never encounter a disallowed construct.
package expr

import "fmt"

// SyntaxError reports malformed expression source.
type SyntaxError struct {
	Pos int
	Msg string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: %s", e.Pos, e.Msg)
}

// UnsupportedError reports a construct outside the allowed subset.
type UnsupportedError struct {
	Pos       int
	Construct string
}

// Error implements the error interface.
func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("expression not allowed at offset %d: %s", e.Pos, e.Construct)
}

// EvalError reports a failure while evaluating a structurally valid
// expression, e.g. division by zero or mismatched operand types.
type EvalError struct {
	Msg string
}

// Error implements the error interface.
func (e *EvalError) Error() string {
	return "eval error: " + e.Msg
}

func evalErrorf(format string, args ...any) *EvalError {
	return &EvalError{Msg: fmt.Sprintf(format, args...)}
}

// Validate parses the expression and reports whether it stays inside the
// allowed subset. It returns nil, a *SyntaxError or an *UnsupportedError.
// Validation never evaluates anything.
func Validate(src string) error {
	_, err := parse(src)
	return err
}

// Evaluate parses and evaluates the expression against ctx, returning its
// truthiness. Missing names evaluate to nil, not an error. Evaluation is a
// pure function of src and ctx.
func Evaluate(src string, ctx map[string]any) (bool, error) {
	v, err := EvalValue(src, ctx)
	if err != nil {
		return false, err
	}
	return truthy(v), nil
}

// EvalValue is like Evaluate but returns the raw value instead of its
// truthiness.
func EvalValue(src string, ctx map[string]any) (any, error) {
	root, err := parse(src)
	if err != nil {
		return nil, err
	}
	return evalNode(root, ctx)
}

// Tuple is the evaluator's representation of a tuple literal. It behaves
// like a list for truthiness, equality and membership.
type Tuple []any
