//
// Copyright (C) 2026 Agent Studio Authors.  All rights reserved.
//
// agent-studio-go is licensed under the Apache License Version 2.0.
//
//

package expr

// node is the closed set of expression AST nodes. The parser can only
// produce these kinds, which is what keeps the language restricted by
// construction rather than by a runtime allow-list.
type node interface {
	exprNode()
}

type boolOp int

const (
	opAnd boolOp = iota
	opOr
)

type unaryOp int

const (
	opNot unaryOp = iota
	opNeg
	opPos
)

type binaryOp int

const (
	opAdd binaryOp = iota
	opSub
	opMul
	opDiv
	opMod
)

type compareOp int

const (
	cmpEq compareOp = iota
	cmpNe
	cmpLt
	cmpLe
	cmpGt
	cmpGe
	cmpIn
	cmpNotIn
	cmpIs
	cmpIsNot
)

// literalNode holds a constant: int64, float64, string, bool or nil.
type literalNode struct {
	value any
}

// nameNode is a bare name resolved against the evaluation context.
type nameNode struct {
	name string
}

// boolNode is a short-circuiting and/or chain.
type boolNode struct {
	op     boolOp
	values []node
}

type unaryNode struct {
	op      unaryOp
	operand node
}

type binaryNode struct {
	op    binaryOp
	left  node
	right node
}

// compareNode holds a (possibly chained) comparison, e.g. 0 <= i < max.
type compareNode struct {
	left        node
	ops         []compareOp
	comparators []node
}

type subscriptNode struct {
	value node
	index node
}

// attributeNode is dotted access, restricted to dict-like key lookup.
type attributeNode struct {
	value node
	attr  string
}

type listNode struct {
	elts []node
}

type tupleNode struct {
	elts []node
}

type dictNode struct {
	keys   []node
	values []node
}

// sliceNode appears only as the index of a subscriptNode.
type sliceNode struct {
	lower node
	upper node
	step  node
}

func (*literalNode) exprNode()   {}
func (*nameNode) exprNode()      {}
func (*boolNode) exprNode()      {}
func (*unaryNode) exprNode()     {}
func (*binaryNode) exprNode()    {}
func (*compareNode) exprNode()   {}
func (*subscriptNode) exprNode() {}
func (*attributeNode) exprNode() {}
func (*listNode) exprNode()      {}
func (*tupleNode) exprNode()     {}
func (*dictNode) exprNode()      {}
func (*sliceNode) exprNode()     {}
