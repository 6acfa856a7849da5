//
// Copyright (C) 2026 Agent Studio Authors.  All rights reserved.
//
// agent-studio-go is licensed under the Apache License Version 2.0.
//
//

package expr

import (
	"fmt"
	"math"
	"reflect"
	"strings"
)

// evalNode evaluates a parsed expression by structural recursion over the
// closed node set. ctx lookups that miss resolve to nil, matching the
// "absent value" semantics the workflow editor relies on.
func evalNode(n node, ctx map[string]any) (any, error) {
	switch n := n.(type) {
	case *literalNode:
		return n.value, nil
	case *nameNode:
		return ctx[n.name], nil
	case *boolNode:
		return evalBool(n, ctx)
	case *unaryNode:
		return evalUnary(n, ctx)
	case *binaryNode:
		return evalBinary(n, ctx)
	case *compareNode:
		return evalCompare(n, ctx)
	case *subscriptNode:
		return evalSubscript(n, ctx)
	case *attributeNode:
		return evalAttribute(n, ctx)
	case *listNode:
		out := make([]any, 0, len(n.elts))
		for _, elt := range n.elts {
			v, err := evalNode(elt, ctx)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case *tupleNode:
		out := make(Tuple, 0, len(n.elts))
		for _, elt := range n.elts {
			v, err := evalNode(elt, ctx)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case *dictNode:
		out := make(map[string]any, len(n.keys))
		for i, key := range n.keys {
			k, err := evalNode(key, ctx)
			if err != nil {
				return nil, err
			}
			v, err := evalNode(n.values[i], ctx)
			if err != nil {
				return nil, err
			}
			out[stringKey(k)] = v
		}
		return out, nil
	case *sliceNode:
		// Slices are consumed by evalSubscript; a bare slice node cannot be
		// produced by the parser.
		return nil, evalErrorf("slice outside subscript")
	}
	return nil, evalErrorf("unknown expression node %T", n)
}

func evalBool(n *boolNode, ctx map[string]any) (any, error) {
	var last any
	for _, value := range n.values {
		v, err := evalNode(value, ctx)
		if err != nil {
			return nil, err
		}
		last = v
		if n.op == opAnd && !truthy(v) {
			return v, nil
		}
		if n.op == opOr && truthy(v) {
			return v, nil
		}
	}
	return last, nil
}

func evalUnary(n *unaryNode, ctx map[string]any) (any, error) {
	v, err := evalNode(n.operand, ctx)
	if err != nil {
		return nil, err
	}
	switch n.op {
	case opNot:
		return !truthy(v), nil
	case opNeg:
		if i, ok := asInt(v); ok {
			return -i, nil
		}
		if f, ok := asFloat(v); ok {
			return -f, nil
		}
		return nil, evalErrorf("bad operand type for unary -: %s", typeName(v))
	case opPos:
		if _, ok := asInt(v); ok {
			return v, nil
		}
		if _, ok := asFloat(v); ok {
			return v, nil
		}
		return nil, evalErrorf("bad operand type for unary +: %s", typeName(v))
	}
	return nil, evalErrorf("unknown unary operator")
}

func evalBinary(n *binaryNode, ctx map[string]any) (any, error) {
	left, err := evalNode(n.left, ctx)
	if err != nil {
		return nil, err
	}
	right, err := evalNode(n.right, ctx)
	if err != nil {
		return nil, err
	}
	switch n.op {
	case opAdd:
		if ls, ok := left.(string); ok {
			if rs, ok := right.(string); ok {
				return ls + rs, nil
			}
		}
		if ll, ok := asList(left); ok {
			if rl, ok := asList(right); ok {
				out := make([]any, 0, len(ll)+len(rl))
				out = append(out, ll...)
				out = append(out, rl...)
				return out, nil
			}
		}
		return numericOp(n.op, left, right)
	case opSub, opMul:
		return numericOp(n.op, left, right)
	case opDiv:
		lf, lok := asFloat(left)
		rf, rok := asFloat(right)
		if !lok || !rok {
			return nil, operandTypeError("/", left, right)
		}
		if rf == 0 {
			return nil, evalErrorf("division by zero")
		}
		return lf / rf, nil
	case opMod:
		if li, lok := asInt(left); lok {
			if ri, rok := asInt(right); rok {
				if ri == 0 {
					return nil, evalErrorf("division by zero")
				}
				return ((li % ri) + ri) % ri, nil
			}
		}
		lf, lok := asFloat(left)
		rf, rok := asFloat(right)
		if !lok || !rok {
			return nil, operandTypeError("%", left, right)
		}
		if rf == 0 {
			return nil, evalErrorf("division by zero")
		}
		m := math.Mod(lf, rf)
		if m != 0 && (m < 0) != (rf < 0) {
			m += rf
		}
		return m, nil
	}
	return nil, evalErrorf("unknown binary operator")
}

// numericOp handles + - * on numbers, keeping integer results integral.
func numericOp(op binaryOp, left, right any) (any, error) {
	if li, lok := asInt(left); lok {
		if ri, rok := asInt(right); rok {
			switch op {
			case opAdd:
				return li + ri, nil
			case opSub:
				return li - ri, nil
			case opMul:
				return li * ri, nil
			}
		}
	}
	lf, lok := asFloat(left)
	rf, rok := asFloat(right)
	if !lok || !rok {
		return nil, operandTypeError(binaryOpSymbol(op), left, right)
	}
	switch op {
	case opAdd:
		return lf + rf, nil
	case opSub:
		return lf - rf, nil
	case opMul:
		return lf * rf, nil
	}
	return nil, evalErrorf("unknown numeric operator")
}

func binaryOpSymbol(op binaryOp) string {
	switch op {
	case opAdd:
		return "+"
	case opSub:
		return "-"
	case opMul:
		return "*"
	case opDiv:
		return "/"
	case opMod:
		return "%"
	}
	return "?"
}

func operandTypeError(symbol string, left, right any) *EvalError {
	return evalErrorf("unsupported operand types for %s: %s and %s",
		symbol, typeName(left), typeName(right))
}

// evalCompare walks a comparison chain left to right, short-circuiting on
// the first false link, so 0 <= i < max behaves like the mathematical
// chain.
func evalCompare(n *compareNode, ctx map[string]any) (any, error) {
	left, err := evalNode(n.left, ctx)
	if err != nil {
		return nil, err
	}
	for i, op := range n.ops {
		right, err := evalNode(n.comparators[i], ctx)
		if err != nil {
			return nil, err
		}
		ok, err := compareValues(op, left, right)
		if err != nil {
			return nil, err
		}
		if !ok {
			return false, nil
		}
		left = right
	}
	return true, nil
}

func compareValues(op compareOp, left, right any) (bool, error) {
	switch op {
	case cmpEq:
		return looseEqual(left, right), nil
	case cmpNe:
		return !looseEqual(left, right), nil
	case cmpLt, cmpLe, cmpGt, cmpGe:
		return orderedCompare(op, left, right)
	case cmpIn:
		return contains(right, left)
	case cmpNotIn:
		ok, err := contains(right, left)
		return !ok, err
	case cmpIs:
		return strictEqual(left, right), nil
	case cmpIsNot:
		return !strictEqual(left, right), nil
	}
	return false, evalErrorf("unknown comparison operator")
}

func orderedCompare(op compareOp, left, right any) (bool, error) {
	if lf, lok := asFloat(left); lok {
		if rf, rok := asFloat(right); rok {
			switch op {
			case cmpLt:
				return lf < rf, nil
			case cmpLe:
				return lf <= rf, nil
			case cmpGt:
				return lf > rf, nil
			case cmpGe:
				return lf >= rf, nil
			}
		}
	}
	if ls, lok := left.(string); lok {
		if rs, rok := right.(string); rok {
			switch op {
			case cmpLt:
				return ls < rs, nil
			case cmpLe:
				return ls <= rs, nil
			case cmpGt:
				return ls > rs, nil
			case cmpGe:
				return ls >= rs, nil
			}
		}
	}
	return false, evalErrorf("'%s' not supported between %s and %s",
		compareOpSymbol(op), typeName(left), typeName(right))
}

func compareOpSymbol(op compareOp) string {
	switch op {
	case cmpLt:
		return "<"
	case cmpLe:
		return "<="
	case cmpGt:
		return ">"
	case cmpGe:
		return ">="
	}
	return "?"
}

// contains implements the "in" operator for lists, tuples, strings and
// dicts (key membership).
func contains(container, item any) (bool, error) {
	if lst, ok := asList(container); ok {
		for _, elt := range lst {
			if looseEqual(elt, item) {
				return true, nil
			}
		}
		return false, nil
	}
	switch c := container.(type) {
	case string:
		s, ok := item.(string)
		if !ok {
			return false, evalErrorf("'in <string>' requires string as left operand, not %s", typeName(item))
		}
		return strings.Contains(c, s), nil
	case map[string]any:
		key, ok := item.(string)
		if !ok {
			return false, nil
		}
		_, found := c[key]
		return found, nil
	}
	return false, evalErrorf("argument of type %s is not iterable", typeName(container))
}

func evalSubscript(n *subscriptNode, ctx map[string]any) (any, error) {
	target, err := evalNode(n.value, ctx)
	if err != nil {
		return nil, err
	}
	if sl, ok := n.index.(*sliceNode); ok {
		return evalSlice(sl, target, ctx)
	}
	key, err := evalNode(n.index, ctx)
	if err != nil {
		return nil, err
	}
	// Lookup failures deliberately yield nil instead of an error so that
	// conditions can probe optional structure.
	switch t := target.(type) {
	case map[string]any:
		if k, ok := key.(string); ok {
			return t[k], nil
		}
		return nil, nil
	case []any:
		return listIndex(t, key), nil
	case Tuple:
		return listIndex(t, key), nil
	case string:
		if i, ok := asInt(key); ok {
			runes := []rune(t)
			idx := normalizeIndex(i, len(runes))
			if idx < 0 {
				return nil, nil
			}
			return string(runes[idx]), nil
		}
		return nil, nil
	}
	return nil, nil
}

func listIndex[S ~[]any](items S, key any) any {
	i, ok := asInt(key)
	if !ok {
		return nil
	}
	idx := normalizeIndex(i, len(items))
	if idx < 0 {
		return nil
	}
	return items[idx]
}

// normalizeIndex applies negative-index wrapping and returns -1 when the
// index is out of range.
func normalizeIndex(i int64, length int) int {
	idx := int(i)
	if idx < 0 {
		idx += length
	}
	if idx < 0 || idx >= length {
		return -1
	}
	return idx
}

func evalSlice(sl *sliceNode, target any, ctx map[string]any) (any, error) {
	lower, upper, step, err := sliceBounds(sl, ctx)
	if err != nil {
		return nil, err
	}
	if step == 0 {
		return nil, evalErrorf("slice step cannot be zero")
	}
	switch t := target.(type) {
	case []any:
		return sliceList(t, lower, upper, step), nil
	case Tuple:
		return Tuple(sliceList(t, lower, upper, step)), nil
	case string:
		runes := []rune(t)
		items := make([]any, len(runes))
		for i, r := range runes {
			items[i] = r
		}
		picked := sliceList(items, lower, upper, step)
		var sb strings.Builder
		for _, r := range picked {
			sb.WriteRune(r.(rune))
		}
		return sb.String(), nil
	}
	// Slicing an unsliceable value follows subscript semantics: nil.
	return nil, nil
}

func sliceBounds(sl *sliceNode, ctx map[string]any) (lower, upper *int64, step int64, err error) {
	step = 1
	if sl.step != nil {
		v, err := evalNode(sl.step, ctx)
		if err != nil {
			return nil, nil, 0, err
		}
		if i, ok := asInt(v); ok {
			step = i
		}
	}
	if sl.lower != nil {
		v, err := evalNode(sl.lower, ctx)
		if err != nil {
			return nil, nil, 0, err
		}
		if i, ok := asInt(v); ok {
			lower = &i
		}
	}
	if sl.upper != nil {
		v, err := evalNode(sl.upper, ctx)
		if err != nil {
			return nil, nil, 0, err
		}
		if i, ok := asInt(v); ok {
			upper = &i
		}
	}
	return lower, upper, step, nil
}

// sliceList applies Python slice semantics (clamping, negative indices,
// arbitrary step) to a list.
func sliceList[S ~[]any](items S, lower, upper *int64, step int64) []any {
	length := int64(len(items))
	clamp := func(v, lo, hi int64) int64 {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	}
	adjust := func(ptr *int64, defFwd, defBack int64) int64 {
		if ptr == nil {
			if step > 0 {
				return defFwd
			}
			return defBack
		}
		v := *ptr
		if v < 0 {
			v += length
		}
		if step > 0 {
			return clamp(v, 0, length)
		}
		return clamp(v, -1, length-1)
	}
	start := adjust(lower, 0, length-1)
	stop := adjust(upper, length, -1)
	var out []any
	if step > 0 {
		for i := start; i < stop; i += step {
			out = append(out, items[i])
		}
	} else {
		for i := start; i > stop; i += step {
			out = append(out, items[i])
		}
	}
	return out
}

// evalAttribute restricts dotted access to dict-like key lookup: no method
// calls and no reflection into host objects.
func evalAttribute(n *attributeNode, ctx map[string]any) (any, error) {
	target, err := evalNode(n.value, ctx)
	if err != nil {
		return nil, err
	}
	if m, ok := target.(map[string]any); ok {
		return m[n.attr], nil
	}
	return nil, nil
}

// truthy reports the truthiness of a value: nil, false, zero numbers and
// empty containers are false, everything else is true.
func truthy(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case []any:
		return len(v) > 0
	case Tuple:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	}
	if f, ok := asFloat(v); ok {
		return f != 0
	}
	return true
}

// asInt reports v as an int64 when it is an integral value. Bools are not
// numbers here.
func asInt(v any) (int64, bool) {
	switch v := v.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), true
	}
	return 0, false
}

// asFloat reports v as a float64 when it is any numeric value.
func asFloat(v any) (float64, bool) {
	if i, ok := asInt(v); ok {
		return float64(i), true
	}
	switch v := v.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

func asList(v any) ([]any, bool) {
	switch v := v.(type) {
	case []any:
		return v, true
	case Tuple:
		return v, true
	}
	return nil, false
}

// looseEqual is value equality with numeric coercion, used by == and "in".
func looseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			_, aBool := a.(bool)
			_, bBool := b.(bool)
			if aBool || bBool {
				return a == b
			}
			return af == bf
		}
	}
	if al, aok := asList(a); aok {
		if bl, bok := asList(b); bok {
			if len(al) != len(bl) {
				return false
			}
			for i := range al {
				if !looseEqual(al[i], bl[i]) {
					return false
				}
			}
			return true
		}
	}
	return reflect.DeepEqual(a, b)
}

// strictEqual approximates identity for "is": nil identity, plus equality
// restricted to operands of the same concrete type.
func strictEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	return looseEqual(a, b)
}

func typeName(v any) string {
	if v == nil {
		return "None"
	}
	return fmt.Sprintf("%T", v)
}

func stringKey(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
