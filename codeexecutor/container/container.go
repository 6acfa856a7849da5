//
// Copyright (C) 2026 Agent Studio Authors.  All rights reserved.
//
// agent-studio-go is licensed under the Apache License Version 2.0.
//
//

// Package container provides a CodeExecutor that runs tool code inside a
// long-lived Docker container. The container has no network access and
// bounded memory, which is the isolation boundary for untrusted tool code.
package container

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	tcontainer "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/google/uuid"
	archive "github.com/moby/go-archive"

	"github.com/agentstudio/studio-go/codeexecutor"
	"github.com/agentstudio/studio-go/log"
)

const (
	defaultImage         = "python:3-slim"
	defaultTimeout       = 60 * time.Second
	defaultMemoryBytes   = 256 * 1024 * 1024
	containerNamePrefix  = "agentstudio-code-exec-"
	containerWorkBase    = "/workspace"
	defaultStageTimeout  = 10 * time.Second
	defaultRemoveTimeout = 10 * time.Second
)

// CodeExecutor executes code blocks inside a sandbox container.
type CodeExecutor struct {
	image         string
	timeout       time.Duration
	containerName string
	memoryBytes   int64
	pullImage     bool

	cli         *client.Client
	containerID string
}

// Option configures a container CodeExecutor.
type Option func(*CodeExecutor)

// WithImage sets the Docker image used for execution.
func WithImage(image string) Option {
	return func(c *CodeExecutor) { c.image = image }
}

// WithTimeout sets the per-execution timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *CodeExecutor) { c.timeout = timeout }
}

// WithContainerName sets the sandbox container name.
func WithContainerName(name string) Option {
	return func(c *CodeExecutor) { c.containerName = name }
}

// WithMemoryLimit sets the container memory limit in bytes.
func WithMemoryLimit(bytes int64) Option {
	return func(c *CodeExecutor) { c.memoryBytes = bytes }
}

// WithPullImage controls whether Start pulls the image before creating
// the container.
func WithPullImage(pull bool) Option {
	return func(c *CodeExecutor) { c.pullImage = pull }
}

// New creates a container CodeExecutor. The sandbox container is not
// created until Start is called.
func New(options ...Option) *CodeExecutor {
	executor := &CodeExecutor{
		image:       defaultImage,
		timeout:     defaultTimeout,
		memoryBytes: defaultMemoryBytes,
		pullImage:   true,
	}
	for _, option := range options {
		option(executor)
	}
	if executor.containerName == "" {
		executor.containerName = containerNamePrefix + uuid.New().String()[:8]
	}
	return executor
}

// Start connects to the Docker daemon and brings up the sandbox container.
func (c *CodeExecutor) Start(ctx context.Context) error {
	cli, err := client.NewClientWithOpts(
		client.FromEnv, client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return fmt.Errorf("failed to create docker client: %w", err)
	}
	c.cli = cli

	if c.pullImage {
		rd, err := cli.ImagePull(ctx, c.image, image.PullOptions{})
		if err != nil {
			return fmt.Errorf("failed to pull image %s: %w", c.image, err)
		}
		// The pull stream must be drained before the image is usable.
		_, _ = io.Copy(io.Discard, rd)
		rd.Close()
	}

	created, err := cli.ContainerCreate(ctx,
		&tcontainer.Config{
			Image:      c.image,
			Cmd:        []string{"sleep", "infinity"},
			WorkingDir: containerWorkBase,
		},
		&tcontainer.HostConfig{
			NetworkMode: "none",
			Resources: tcontainer.Resources{
				Memory: c.memoryBytes,
			},
		},
		nil, nil, c.containerName,
	)
	if err != nil {
		return fmt.Errorf("failed to create container: %w", err)
	}
	c.containerID = created.ID

	if err := cli.ContainerStart(ctx, c.containerID, tcontainer.StartOptions{}); err != nil {
		return fmt.Errorf("failed to start container: %w", err)
	}
	log.Infof("code execution container started: name=%s image=%s",
		c.containerName, c.image)
	return nil
}

// Close stops and removes the sandbox container.
func (c *CodeExecutor) Close() error {
	if c.cli == nil || c.containerID == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), defaultRemoveTimeout)
	defer cancel()
	err := c.cli.ContainerRemove(ctx, c.containerID, tcontainer.RemoveOptions{
		Force: true,
	})
	c.containerID = ""
	if err != nil {
		return fmt.Errorf("failed to remove container: %w", err)
	}
	return c.cli.Close()
}

// ExecuteCode stages the code blocks into a per-execution directory inside
// the container and runs them with the matching interpreter.
func (c *CodeExecutor) ExecuteCode(
	ctx context.Context, input codeexecutor.CodeExecutionInput,
) (codeexecutor.CodeExecutionResult, error) {
	if c.cli == nil || c.containerID == "" {
		return codeexecutor.CodeExecutionResult{},
			fmt.Errorf("container executor not started")
	}
	execDir := path.Join(containerWorkBase, "exec_"+sanitize(input.ExecutionID))
	if err := c.stageBlocks(ctx, execDir, input.CodeBlocks); err != nil {
		return codeexecutor.CodeExecutionResult{}, err
	}

	var result codeexecutor.CodeExecutionResult
	for i, block := range input.CodeBlocks {
		ext, err := codeexecutor.FileExtension(block.Language)
		if err != nil {
			return codeexecutor.CodeExecutionResult{}, err
		}
		scriptPath := path.Join(execDir, fmt.Sprintf("code_%d%s", i, ext))
		blockResult, err := c.execScript(ctx, execDir, block.Language, scriptPath, input)
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

// stageBlocks writes the blocks to a host scratch directory and copies it
// into the container as a tar stream.
func (c *CodeExecutor) stageBlocks(
	ctx context.Context, execDir string, blocks []codeexecutor.CodeBlock,
) error {
	hostDir, err := os.MkdirTemp("", "containerexec_")
	if err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(hostDir)

	for i, block := range blocks {
		ext, err := codeexecutor.FileExtension(block.Language)
		if err != nil {
			return err
		}
		name := fmt.Sprintf("code_%d%s", i, ext)
		if err := os.WriteFile(filepath.Join(hostDir, name), []byte(block.Code), 0o644); err != nil {
			return fmt.Errorf("failed to write %s file: %w", block.Language, err)
		}
	}

	stageCtx, cancel := context.WithTimeout(ctx, defaultStageTimeout)
	defer cancel()
	if _, err := c.execCommand(stageCtx,
		[]string{"mkdir", "-p", execDir}, "", ""); err != nil {
		return fmt.Errorf("failed to create exec directory: %w", err)
	}
	rd, err := archive.TarWithOptions(hostDir, &archive.TarOptions{})
	if err != nil {
		return fmt.Errorf("failed to tar staging directory: %w", err)
	}
	defer rd.Close()
	if err := c.cli.CopyToContainer(stageCtx, c.containerID, execDir, rd,
		tcontainer.CopyToContainerOptions{}); err != nil {
		return fmt.Errorf("failed to copy code into container: %w", err)
	}
	return nil
}

func (c *CodeExecutor) execScript(
	ctx context.Context, execDir, language, scriptPath string,
	input codeexecutor.CodeExecutionInput,
) (codeexecutor.CodeExecutionResult, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	cmd := codeexecutor.InterpreterArgs(language, scriptPath)
	var env []string
	for k, v := range input.Env {
		env = append(env, k+"="+v)
	}
	return c.execCommandFull(timeoutCtx, cmd, execDir, input.Stdin, env)
}

func (c *CodeExecutor) execCommand(
	ctx context.Context, cmd []string, workDir, stdin string,
) (codeexecutor.CodeExecutionResult, error) {
	return c.execCommandFull(ctx, cmd, workDir, stdin, nil)
}

// execCommandFull runs a command through the Docker exec API, splitting the
// multiplexed stream back into stdout and stderr.
func (c *CodeExecutor) execCommandFull(
	ctx context.Context, cmd []string, workDir, stdin string, env []string,
) (codeexecutor.CodeExecutionResult, error) {
	opts := tcontainer.ExecOptions{
		Cmd:          cmd,
		Env:          env,
		AttachStdout: true,
		AttachStderr: true,
		AttachStdin:  stdin != "",
	}
	if workDir != "" {
		opts.WorkingDir = workDir
	}
	created, err := c.cli.ContainerExecCreate(ctx, c.containerID, opts)
	if err != nil {
		return codeexecutor.CodeExecutionResult{},
			fmt.Errorf("failed to create exec: %w", err)
	}
	attach, err := c.cli.ContainerExecAttach(ctx, created.ID,
		tcontainer.ExecStartOptions{})
	if err != nil {
		return codeexecutor.CodeExecutionResult{},
			fmt.Errorf("failed to attach exec: %w", err)
	}
	defer attach.Close()

	if stdin != "" {
		if _, err := attach.Conn.Write([]byte(stdin)); err != nil {
			return codeexecutor.CodeExecutionResult{},
				fmt.Errorf("failed to write stdin: %w", err)
		}
		attach.CloseWrite()
	}

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, attach.Reader); err != nil {
		return codeexecutor.CodeExecutionResult{},
			fmt.Errorf("failed to read exec output: %w", err)
	}
	inspect, err := c.cli.ContainerExecInspect(ctx, created.ID)
	if err != nil {
		return codeexecutor.CodeExecutionResult{},
			fmt.Errorf("failed to inspect exec: %w", err)
	}
	return codeexecutor.CodeExecutionResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: inspect.ExitCode,
	}, nil
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
