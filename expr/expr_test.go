//
// Copyright (C) 2026 Agent Studio Authors.  All rights reserved.
//
// agent-studio-go is licensed under the Apache License Version 2.0.
//
//

package expr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateBasics(t *testing.T) {
	tests := []struct {
		name string
		src  string
		ctx  map[string]any
		want bool
	}{
		{name: "literal equality", src: "1 == 1", want: true},
		{name: "literal inequality", src: "1 != 1", want: false},
		{name: "loop condition", src: "iteration < max_iterations",
			ctx: map[string]any{"iteration": int64(2), "max_iterations": int64(3)}, want: true},
		{name: "loop condition exhausted", src: "iteration < max_iterations",
			ctx: map[string]any{"iteration": int64(3), "max_iterations": int64(3)}, want: false},
		{name: "missing name is falsy", src: "missing", want: false},
		{name: "and short circuit", src: "False and missing[0]", want: false},
		{name: "or short circuit", src: "True or missing[0]", want: true},
		{name: "not", src: "not 0", want: true},
		{name: "chained comparison holds", src: "0 <= i < max",
			ctx: map[string]any{"i": int64(1), "max": int64(5)}, want: true},
		{name: "chained comparison breaks", src: "0 <= i < max",
			ctx: map[string]any{"i": int64(7), "max": int64(5)}, want: false},
		{name: "membership list", src: "'b' in items",
			ctx: map[string]any{"items": []any{"a", "b"}}, want: true},
		{name: "membership negated", src: "'c' not in items",
			ctx: map[string]any{"items": []any{"a", "b"}}, want: true},
		{name: "membership string", src: "'ell' in 'hello'", want: true},
		{name: "membership dict key", src: "'k' in state",
			ctx: map[string]any{"state": map[string]any{"k": int64(1)}}, want: true},
		{name: "is none", src: "last is None",
			ctx: map[string]any{}, want: true},
		{name: "is not none", src: "last is not None",
			ctx: map[string]any{"last": "x"}, want: true},
		{name: "int float equality", src: "1 == 1.0", want: true},
		{name: "empty string falsy", src: "''", want: false},
		{name: "empty list falsy", src: "[]", want: false},
		{name: "nonempty dict truthy", src: "{'a': 1}", want: true},
		{name: "arithmetic", src: "2 + 3 * 4 == 14", want: true},
		{name: "unary minus", src: "-x < 0", ctx: map[string]any{"x": int64(5)}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.src, tt.ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateAttributeAccess(t *testing.T) {
	ctx := map[string]any{
		"a": map[string]any{"b": int64(5)},
	}
	got, err := Evaluate("a.b", ctx)
	require.NoError(t, err)
	assert.True(t, got)

	// Missing attributes and attributes of non-dicts resolve to nil.
	got, err = Evaluate("a.c", ctx)
	require.NoError(t, err)
	assert.False(t, got)

	got, err = Evaluate("a.b.c", ctx)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestEvaluateSubscript(t *testing.T) {
	ctx := map[string]any{
		"items": []any{"a", "b", "c"},
		"state": map[string]any{"count": int64(2)},
	}
	v, err := EvalValue("items[1]", ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", v)

	v, err = EvalValue("items[-1]", ctx)
	require.NoError(t, err)
	assert.Equal(t, "c", v)

	v, err = EvalValue("state['count']", ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	// Out-of-range and missing-key lookups resolve to nil, not an error.
	v, err = EvalValue("items[9]", ctx)
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = EvalValue("state['missing']", ctx)
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = EvalValue("missing[0]", nil)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestEvaluateSlices(t *testing.T) {
	ctx := map[string]any{"items": []any{int64(0), int64(1), int64(2), int64(3)}}

	v, err := EvalValue("items[1:3]", ctx)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2)}, v)

	v, err = EvalValue("items[:2]", ctx)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(0), int64(1)}, v)

	v, err = EvalValue("items[::2]", ctx)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(0), int64(2)}, v)

	v, err = EvalValue("items[::-1]", ctx)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(3), int64(2), int64(1), int64(0)}, v)

	// Bounds clamp instead of erroring.
	v, err = EvalValue("items[1:99]", ctx)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, v)

	v, err = EvalValue("'hello'[1:3]", nil)
	require.NoError(t, err)
	assert.Equal(t, "el", v)

	_, err = EvalValue("items[::0]", ctx)
	var evalErr *EvalError
	require.ErrorAs(t, err, &evalErr)
}

func TestEvaluateValueSemantics(t *testing.T) {
	// and/or return the deciding operand, not a coerced bool.
	v, err := EvalValue("'a' or 'b'", nil)
	require.NoError(t, err)
	assert.Equal(t, "a", v)

	v, err = EvalValue("'' or 'b'", nil)
	require.NoError(t, err)
	assert.Equal(t, "b", v)

	v, err = EvalValue("1 and 2", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	v, err = EvalValue("0 and 2", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)

	// True division always yields a float.
	v, err = EvalValue("7 / 2", nil)
	require.NoError(t, err)
	assert.Equal(t, 3.5, v)

	// Modulo takes the sign of the divisor.
	v, err = EvalValue("-7 % 3", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	v, err = EvalValue("'ab' + 'cd'", nil)
	require.NoError(t, err)
	assert.Equal(t, "abcd", v)

	v, err = EvalValue("[1] + [2]", nil)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2)}, v)
}

func TestEvaluateErrors(t *testing.T) {
	var evalErr *EvalError

	_, err := Evaluate("1 / 0", nil)
	require.ErrorAs(t, err, &evalErr)

	_, err = Evaluate("1 % 0", nil)
	require.ErrorAs(t, err, &evalErr)

	_, err = Evaluate("1 + 'a'", nil)
	require.ErrorAs(t, err, &evalErr)

	_, err = Evaluate("'a' < 1", nil)
	require.ErrorAs(t, err, &evalErr)

	_, err = Evaluate("1 in 2", nil)
	require.ErrorAs(t, err, &evalErr)
}

func TestEvaluateIsDeterministic(t *testing.T) {
	ctx := map[string]any{
		"state": map[string]any{"items": []any{int64(1), int64(2)}},
		"i":     int64(1),
	}
	first, err := Evaluate("state.items[i] == 2 and i < 10", ctx)
	require.NoError(t, err)
	for range 5 {
		got, err := Evaluate("state.items[i] == 2 and i < 10", ctx)
		require.NoError(t, err)
		assert.Equal(t, first, got)
	}
}

func TestValidate(t *testing.T) {
	valid := []string{
		"1 == 1",
		"iteration < max_iterations",
		"a.b.c[0] in [1, 2, 3]",
		"not (done or failed)",
		"state['retries'] % 3 == 0",
		"(a, b) == (1, 2)",
		"x is not None and 0 <= x < limit",
	}
	for _, src := range valid {
		assert.NoError(t, Validate(src), "expression: %s", src)
	}

	var unsupported *UnsupportedError
	rejected := []string{
		"os.system('x')",
		"__import__('os')",
		"[x for x in items]",
		"lambda: 1",
		"a ** b",
		"a // b",
		"a | b",
		"x = 1",
		"f()",
		"{1, 2}",
		"a if b else c",
	}
	for _, src := range rejected {
		err := Validate(src)
		require.Error(t, err, "expression: %s", src)
		assert.True(t, errors.As(err, &unsupported), "want unsupported construct for: %s", src)
	}

	var syntaxErr *SyntaxError
	malformed := []string{
		"",
		"   ",
		"1 +",
		"(1",
		"a b",
		"'unterminated",
		"!x",
	}
	for _, src := range malformed {
		err := Validate(src)
		require.Error(t, err, "expression: %s", src)
		assert.True(t, errors.As(err, &syntaxErr), "want syntax error for: %s", src)
	}
}

func TestValidateDoesNotEvaluate(t *testing.T) {
	// Division by zero is an evaluation failure, not a validation failure.
	assert.NoError(t, Validate("1 / 0"))
}
