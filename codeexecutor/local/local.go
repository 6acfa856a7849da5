//
// Copyright (C) 2026 Agent Studio Authors.  All rights reserved.
//
// agent-studio-go is licensed under the Apache License Version 2.0.
//
//

// Package local provides a CodeExecutor that executes code on the local
// host. It writes each block to a scratch directory and invokes the
// matching interpreter. The host process is not sandboxed, so this
// executor is meant for development and trusted tool code only.
package local

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/agentstudio/studio-go/codeexecutor"
)

const defaultTimeout = 30 * time.Second

// CodeExecutor executes code on the local host.
type CodeExecutor struct {
	workDir        string
	timeout        time.Duration
	cleanTempFiles bool
}

// Option configures a local CodeExecutor.
type Option func(*CodeExecutor)

// WithWorkDir sets a fixed working directory instead of a per-execution
// temp directory.
func WithWorkDir(workDir string) Option {
	return func(e *CodeExecutor) { e.workDir = workDir }
}

// WithTimeout sets the per-block timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(e *CodeExecutor) { e.timeout = timeout }
}

// WithCleanTempFiles toggles cleanup of per-execution temp directories.
func WithCleanTempFiles(clean bool) Option {
	return func(e *CodeExecutor) { e.cleanTempFiles = clean }
}

// New creates a local CodeExecutor.
func New(options ...Option) *CodeExecutor {
	executor := &CodeExecutor{
		timeout:        defaultTimeout,
		cleanTempFiles: true,
	}
	for _, option := range options {
		option(executor)
	}
	return executor
}

// ExecuteCode executes the code blocks sequentially in one scratch
// directory. A non-zero interpreter exit is reported through
// Result.ExitCode, not as a Go error; errors are reserved for failures to
// run at all.
func (e *CodeExecutor) ExecuteCode(
	ctx context.Context, input codeexecutor.CodeExecutionInput,
) (codeexecutor.CodeExecutionResult, error) {
	workDir, cleanup, err := e.prepareWorkDir(input.ExecutionID)
	if err != nil {
		return codeexecutor.CodeExecutionResult{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	var result codeexecutor.CodeExecutionResult
	for i, block := range input.CodeBlocks {
		blockResult, err := e.executeCodeBlock(ctx, workDir, input, block, i)
		if err != nil {
			return codeexecutor.CodeExecutionResult{}, err
		}
		result.Stdout += blockResult.Stdout
		result.Stderr += blockResult.Stderr
		if blockResult.ExitCode != 0 {
			result.ExitCode = blockResult.ExitCode
			break
		}
	}
	return result, nil
}

func (e *CodeExecutor) prepareWorkDir(execID string) (string, func(), error) {
	if e.workDir != "" {
		workDir := e.workDir
		if !filepath.IsAbs(workDir) {
			if abs, err := filepath.Abs(workDir); err == nil {
				workDir = abs
			}
		}
		if err := os.MkdirAll(workDir, 0o755); err != nil {
			return "", nil, fmt.Errorf("failed to create work directory: %w", err)
		}
		return workDir, nil, nil
	}
	tempDir, err := os.MkdirTemp("", "codeexec_"+sanitize(execID))
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	if !e.cleanTempFiles {
		return tempDir, nil, nil
	}
	return tempDir, func() { os.RemoveAll(tempDir) }, nil
}

func (e *CodeExecutor) executeCodeBlock(
	ctx context.Context, workDir string,
	input codeexecutor.CodeExecutionInput,
	block codeexecutor.CodeBlock, blockIndex int,
) (codeexecutor.CodeExecutionResult, error) {
	ext, err := codeexecutor.FileExtension(block.Language)
	if err != nil {
		return codeexecutor.CodeExecutionResult{}, err
	}
	filePath := filepath.Join(workDir, fmt.Sprintf("code_%d%s", blockIndex, ext))
	if err := os.WriteFile(filePath, []byte(block.Code), 0o644); err != nil {
		return codeexecutor.CodeExecutionResult{},
			fmt.Errorf("failed to write %s file: %w", block.Language, err)
	}

	cmdArgs := codeexecutor.InterpreterArgs(block.Language, filePath)
	timeoutCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	// #nosec G204 -- interpreter and path are controlled by us
	cmd := exec.CommandContext(timeoutCtx, cmdArgs[0], cmdArgs[1:]...)
	cmd.Dir = workDir
	if input.Stdin != "" {
		cmd.Stdin = strings.NewReader(input.Stdin)
	}
	cmd.Env = os.Environ()
	for k, v := range input.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	runErr := cmd.Run()
	result := codeexecutor.CodeExecutionResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		if timeoutCtx.Err() != nil {
			return result, fmt.Errorf("execution timed out after %s: %w",
				e.timeout, timeoutCtx.Err())
		}
		return result, fmt.Errorf("command failed (cwd=%s, cmd=%s): %w",
			workDir, strings.Join(cmdArgs, " "), runErr)
	}
	return result, nil
}

func sanitize(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}
