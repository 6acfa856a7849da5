//
// Copyright (C) 2026 Agent Studio Authors.  All rights reserved.
//
// agent-studio-go is licensed under the Apache License Version 2.0.
//
//

// Package codeexecutor provides an interface for executing tool code in an
// isolated environment and returning its captured output.
package codeexecutor

import (
	"context"
	"fmt"
	"strings"
)

// CodeExecutor executes code blocks and returns the captured result.
type CodeExecutor interface {
	// ExecuteCode executes the code blocks provided in the input and
	// returns the result.
	ExecuteCode(context.Context, CodeExecutionInput) (CodeExecutionResult, error)
}

// CodeExecutionInput carries the code blocks of one execution along with
// the data fed to them.
type CodeExecutionInput struct {
	// ExecutionID scopes workspace directories and is safe to reuse as a
	// log correlation key.
	ExecutionID string
	CodeBlocks  []CodeBlock
	// Stdin is written to the process before any block runs. Tool
	// invocations pass their JSON argument payload here.
	Stdin string
	// Env adds environment variables visible to the executed code.
	Env map[string]string
}

// CodeBlock represents a single block of code to be executed.
type CodeBlock struct {
	Code     string
	Language string
}

// CodeExecutionResult represents the result of code execution.
type CodeExecutionResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// String formats the result into a human-readable string.
func (r CodeExecutionResult) String() string {
	var sb strings.Builder
	sb.WriteString("Code execution result")
	if r.ExitCode != 0 {
		sb.WriteString(fmt.Sprintf(" (exit code %d)", r.ExitCode))
	}
	sb.WriteString(":\n")
	if r.Stdout != "" {
		sb.WriteString(r.Stdout)
		if !strings.HasSuffix(r.Stdout, "\n") {
			sb.WriteString("\n")
		}
	}
	if r.Stderr != "" {
		sb.WriteString("stderr:\n")
		sb.WriteString(r.Stderr)
	}
	return sb.String()
}

// InterpreterArgs returns the interpreter command for a language, or nil
// when the language is not runnable.
func InterpreterArgs(language, filePath string) []string {
	switch strings.ToLower(language) {
	case "python", "py", "python3":
		return []string{"python3", filePath}
	case "bash", "sh":
		return []string{"bash", filePath}
	}
	return nil
}

// FileExtension returns the script extension for a language, or an error
// for languages outside the supported set.
func FileExtension(language string) (string, error) {
	switch strings.ToLower(language) {
	case "python", "py", "python3":
		return ".py", nil
	case "bash", "sh":
		return ".sh", nil
	}
	return "", fmt.Errorf("unsupported language: %s", language)
}
