//
// Copyright (C) 2026 Agent Studio Authors.  All rights reserved.
//
// agent-studio-go is licensed under the Apache License Version 2.0.
//
//

// Package process manages long-lived helper processes started by tool code
// during a run: background servers, watchers and similar. Output is
// captured into bounded line buffers and every process is scoped to its
// run so cleanup is a single call when the run ends.
package process

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/agentstudio/studio-go/log"
)

// Manager errors.
var (
	ErrProcessExists       = errors.New("process id already exists")
	ErrProcessLimitReached = errors.New("process limit reached for run")
	ErrProcessNotFound     = errors.New("process not found")
)

const (
	defaultMaxProcessesPerRun = 5
	defaultMaxOutputBytes     = 100 * 1024
	defaultStopTimeout        = 5 * time.Second
)

// LineBuffer keeps the most recent output lines within a byte budget.
// Oldest lines are evicted first.
type LineBuffer struct {
	mu       sync.Mutex
	maxBytes int
	lines    []string
	bytes    int
}

// NewLineBuffer creates a buffer holding at most maxBytes of line data.
func NewLineBuffer(maxBytes int) *LineBuffer {
	return &LineBuffer{maxBytes: maxBytes}
}

// Append adds a line, evicting from the front until the budget holds.
func (b *LineBuffer) Append(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = append(b.lines, line)
	b.bytes += len(line)
	for b.bytes > b.maxBytes && len(b.lines) > 0 {
		b.bytes -= len(b.lines[0])
		b.lines = b.lines[1:]
	}
}

// Tail returns the last n lines joined together.
func (b *LineBuffer) Tail(n int) string {
	if n <= 0 {
		return ""
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	start := len(b.lines) - n
	if start < 0 {
		start = 0
	}
	var out string
	for _, line := range b.lines[start:] {
		out += line
	}
	return out
}

// Handle tracks one managed process.
type Handle struct {
	ProcessID string
	Name      string
	Command   string
	StartedAt time.Time
	Stdout    *LineBuffer
	Stderr    *LineBuffer

	cmd  *exec.Cmd
	done chan struct{}
	mu   sync.Mutex
	exit *int
}

// IsRunning reports whether the process is still alive.
func (h *Handle) IsRunning() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// ExitCode returns the exit code once the process has finished.
func (h *Handle) ExitCode() (int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.exit == nil {
		return 0, false
	}
	return *h.exit, true
}

func (h *Handle) setExit(code int) {
	h.mu.Lock()
	h.exit = &code
	h.mu.Unlock()
	close(h.done)
}

// Output is a snapshot of a process's captured output.
type Output struct {
	Stdout  string `json:"stdout"`
	Stderr  string `json:"stderr"`
	Running bool   `json:"running"`
}

// Manager tracks processes per run.
type Manager struct {
	maxPerRun      int
	maxOutputBytes int
	stopTimeout    time.Duration

	mu        sync.Mutex
	processes map[string]map[string]*Handle
}

// Option configures a Manager.
type Option func(*Manager)

// WithMaxProcessesPerRun bounds the number of live processes per run.
func WithMaxProcessesPerRun(n int) Option {
	return func(m *Manager) { m.maxPerRun = n }
}

// WithMaxOutputBytes bounds each captured output stream.
func WithMaxOutputBytes(n int) Option {
	return func(m *Manager) { m.maxOutputBytes = n }
}

// WithStopTimeout sets how long Stop waits after terminate before killing.
func WithStopTimeout(d time.Duration) Option {
	return func(m *Manager) { m.stopTimeout = d }
}

// NewManager creates a process Manager.
func NewManager(options ...Option) *Manager {
	m := &Manager{
		maxPerRun:      defaultMaxProcessesPerRun,
		maxOutputBytes: defaultMaxOutputBytes,
		stopTimeout:    defaultStopTimeout,
		processes:      make(map[string]map[string]*Handle),
	}
	for _, option := range options {
		option(m)
	}
	return m
}

// Start launches name with args and begins capturing its output. The
// process keeps running after Start returns; it is stopped through Stop
// or CleanupRun.
func (m *Manager) Start(runID, processID, name string, command []string) (*Handle, error) {
	return m.StartInDir(runID, processID, name, "", command)
}

// StartInDir is Start with an explicit working directory. An empty dir
// inherits the manager's.
func (m *Manager) StartInDir(runID, processID, name, dir string, command []string) (*Handle, error) {
	if len(command) == 0 {
		return nil, errors.New("command is required")
	}
	m.mu.Lock()
	runProcesses, ok := m.processes[runID]
	if !ok {
		runProcesses = make(map[string]*Handle)
		m.processes[runID] = runProcesses
	}
	if _, exists := runProcesses[processID]; exists {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrProcessExists, processID)
	}
	if len(runProcesses) >= m.maxPerRun {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrProcessLimitReached, runID)
	}
	m.mu.Unlock()

	// #nosec G204 -- commands come from tool code already admitted to run
	cmd := exec.Command(command[0], command[1:]...)
	cmd.Dir = dir
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start process: %w", err)
	}

	handle := &Handle{
		ProcessID: processID,
		Name:      name,
		Command:   fmt.Sprintf("%v", command),
		StartedAt: time.Now(),
		Stdout:    NewLineBuffer(m.maxOutputBytes),
		Stderr:    NewLineBuffer(m.maxOutputBytes),
		cmd:       cmd,
		done:      make(chan struct{}),
	}

	m.mu.Lock()
	// Re-check under lock; a concurrent Start may have taken the id or
	// the last slot while the process was being launched.
	runProcesses = m.processes[runID]
	if runProcesses == nil {
		runProcesses = make(map[string]*Handle)
		m.processes[runID] = runProcesses
	}
	if _, exists := runProcesses[processID]; exists {
		m.mu.Unlock()
		reap(cmd)
		return nil, fmt.Errorf("%w: %s", ErrProcessExists, processID)
	}
	if len(runProcesses) >= m.maxPerRun {
		m.mu.Unlock()
		reap(cmd)
		return nil, fmt.Errorf("%w: %s", ErrProcessLimitReached, runID)
	}
	runProcesses[processID] = handle
	m.mu.Unlock()

	var readers sync.WaitGroup
	readers.Add(2)
	go readLines(&readers, stdout, handle.Stdout)
	go readLines(&readers, stderr, handle.Stderr)
	go func() {
		readers.Wait()
		err := cmd.Wait()
		code := 0
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		} else if err != nil {
			code = -1
		}
		handle.setExit(code)
		log.Debugf("process exited: run=%s id=%s code=%d", runID, processID, code)
	}()
	return handle, nil
}

// reap kills a process that lost the registration race and waits it out.
func reap(cmd *exec.Cmd) {
	_ = cmd.Process.Kill()
	_ = cmd.Wait()
}

func readLines(wg *sync.WaitGroup, r io.Reader, buffer *LineBuffer) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		buffer.Append(scanner.Text() + "\n")
	}
}

// Stop terminates a process, escalating to kill after the stop timeout.
// It reports whether the process was known and, when available, its exit
// code.
func (m *Manager) Stop(runID, processID string) (bool, *int) {
	handle := m.get(runID, processID)
	if handle == nil {
		return false, nil
	}
	return true, m.stopHandle(handle)
}

func (m *Manager) stopHandle(handle *Handle) *int {
	if handle.IsRunning() {
		_ = handle.cmd.Process.Signal(syscall.SIGTERM)
		select {
		case <-handle.done:
		case <-time.After(m.stopTimeout):
			_ = handle.cmd.Process.Kill()
			<-handle.done
		}
	}
	if code, ok := handle.ExitCode(); ok {
		return &code
	}
	return nil
}

// GetOutput returns the tail of both output streams.
func (m *Manager) GetOutput(runID, processID string, lines int) (Output, error) {
	handle := m.get(runID, processID)
	if handle == nil {
		return Output{}, fmt.Errorf("%w: %s", ErrProcessNotFound, processID)
	}
	return Output{
		Stdout:  handle.Stdout.Tail(lines),
		Stderr:  handle.Stderr.Tail(lines),
		Running: handle.IsRunning(),
	}, nil
}

// List returns the handles of a run.
func (m *Manager) List(runID string) []*Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	handles := make([]*Handle, 0, len(m.processes[runID]))
	for _, handle := range m.processes[runID] {
		handles = append(handles, handle)
	}
	return handles
}

// CleanupRun stops and forgets every process of a run.
func (m *Manager) CleanupRun(runID string) {
	m.mu.Lock()
	runProcesses := m.processes[runID]
	delete(m.processes, runID)
	m.mu.Unlock()
	for _, handle := range runProcesses {
		m.stopHandle(handle)
	}
}

func (m *Manager) get(runID, processID string) *Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.processes[runID][processID]
}
