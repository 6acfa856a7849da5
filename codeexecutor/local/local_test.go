//
// Copyright (C) 2026 Agent Studio Authors.  All rights reserved.
//
// agent-studio-go is licensed under the Apache License Version 2.0.
//
//

package local

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstudio/studio-go/codeexecutor"
)

func TestExecuteCodeBash(t *testing.T) {
	executor := New(WithTimeout(10 * time.Second))
	result, err := executor.ExecuteCode(context.Background(), codeexecutor.CodeExecutionInput{
		ExecutionID: "test-bash",
		CodeBlocks: []codeexecutor.CodeBlock{
			{Language: "bash", Code: "echo hello"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello\n", result.Stdout)
	assert.Equal(t, 0, result.ExitCode)
}

func TestExecuteCodeStdin(t *testing.T) {
	executor := New(WithTimeout(10 * time.Second))
	result, err := executor.ExecuteCode(context.Background(), codeexecutor.CodeExecutionInput{
		ExecutionID: "test-stdin",
		CodeBlocks: []codeexecutor.CodeBlock{
			{Language: "sh", Code: "cat"},
		},
		Stdin: `{"x": 1}`,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"x": 1}`, result.Stdout)
}

func TestExecuteCodeNonZeroExit(t *testing.T) {
	executor := New(WithTimeout(10 * time.Second))
	result, err := executor.ExecuteCode(context.Background(), codeexecutor.CodeExecutionInput{
		ExecutionID: "test-exit",
		CodeBlocks: []codeexecutor.CodeBlock{
			{Language: "bash", Code: "echo oops >&2; exit 3"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.ExitCode)
	assert.Contains(t, result.Stderr, "oops")
}

func TestExecuteCodeEnv(t *testing.T) {
	executor := New(WithTimeout(10 * time.Second))
	result, err := executor.ExecuteCode(context.Background(), codeexecutor.CodeExecutionInput{
		ExecutionID: "test-env",
		CodeBlocks: []codeexecutor.CodeBlock{
			{Language: "bash", Code: "echo $STUDIO_TEST_VALUE"},
		},
		Env: map[string]string{"STUDIO_TEST_VALUE": "wired"},
	})
	require.NoError(t, err)
	assert.Equal(t, "wired\n", result.Stdout)
}

func TestExecuteCodeUnsupportedLanguage(t *testing.T) {
	executor := New()
	_, err := executor.ExecuteCode(context.Background(), codeexecutor.CodeExecutionInput{
		ExecutionID: "test-lang",
		CodeBlocks: []codeexecutor.CodeBlock{
			{Language: "cobol", Code: "DISPLAY 'HI'."},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported language")
}

func TestExecuteCodeStopsAfterFailure(t *testing.T) {
	executor := New(WithTimeout(10 * time.Second))
	result, err := executor.ExecuteCode(context.Background(), codeexecutor.CodeExecutionInput{
		ExecutionID: "test-stop",
		CodeBlocks: []codeexecutor.CodeBlock{
			{Language: "bash", Code: "exit 1"},
			{Language: "bash", Code: "echo unreachable"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.ExitCode)
	assert.NotContains(t, result.Stdout, "unreachable")
}
