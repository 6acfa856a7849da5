//
// Copyright (C) 2026 Agent Studio Authors.  All rights reserved.
//
// agent-studio-go is licensed under the Apache License Version 2.0.
//
//

package codeexecutor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultString(t *testing.T) {
	result := CodeExecutionResult{Stdout: "ok"}
	assert.Equal(t, "Code execution result:\nok\n", result.String())

	result = CodeExecutionResult{Stderr: "boom", ExitCode: 1}
	assert.Contains(t, result.String(), "exit code 1")
	assert.Contains(t, result.String(), "boom")
}

func TestInterpreterArgs(t *testing.T) {
	assert.Equal(t, []string{"python3", "a.py"}, InterpreterArgs("Python", "a.py"))
	assert.Equal(t, []string{"bash", "a.sh"}, InterpreterArgs("sh", "a.sh"))
	assert.Nil(t, InterpreterArgs("ruby", "a.rb"))
}

func TestFileExtension(t *testing.T) {
	ext, err := FileExtension("python3")
	require.NoError(t, err)
	assert.Equal(t, ".py", ext)

	_, err = FileExtension("ruby")
	require.Error(t, err)
}
