//
// Copyright (C) 2026 Agent Studio Authors.  All rights reserved.
//
// agent-studio-go is licensed under the Apache License Version 2.0.
//
//

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/agentstudio/studio-go/event"
	"github.com/agentstudio/studio-go/graph"
	"github.com/agentstudio/studio-go/log"
	"github.com/agentstudio/studio-go/model"
	"github.com/agentstudio/studio-go/process"
	"github.com/agentstudio/studio-go/telemetry/trace"
)

// RunStatus is the lifecycle state of a run.
type RunStatus string

// Run lifecycle states.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

const previewLimit = 200

// Run is one graph execution tracked by the Manager.
type Run struct {
	ID        string
	CreatedAt time.Time

	mu         sync.Mutex
	status     RunStatus
	result     string
	err        string
	finishedAt time.Time
	seq        int64
	events     []*event.Event

	cancel context.CancelFunc
	done   chan struct{}
}

// Done is closed when the run reaches a terminal state.
func (r *Run) Done() <-chan struct{} { return r.done }

// Status returns the current lifecycle state.
func (r *Run) Status() RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Snapshot is the JSON view of a run.
type Snapshot struct {
	ID        string    `json:"run_id"`
	Status    RunStatus `json:"status"`
	Result    string    `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Snapshot returns a copy of the run's externally visible state.
func (r *Run) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{
		ID:        r.ID,
		Status:    r.status,
		Result:    r.result,
		Error:     r.err,
		CreatedAt: r.CreatedAt,
	}
}

// Events returns a copy of the run's event history in sequence order.
func (r *Run) Events() []*event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	history := make([]*event.Event, len(r.events))
	copy(history, r.events)
	return history
}

func (r *Run) nextSeq() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return r.seq
}

func (r *Run) appendEvent(evt *event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *Run) finish(status RunStatus, result, errText string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = status
	r.result = result
	r.err = errText
	r.finishedAt = time.Now()
}

// SpecInvalidError reports a graph rejected before execution.
type SpecInvalidError struct {
	Issues []graph.Issue
}

func (e *SpecInvalidError) Error() string {
	if len(e.Issues) == 0 {
		return "spec_invalid"
	}
	return fmt.Sprintf("spec_invalid: %s %s", e.Issues[0].Code, e.Issues[0].Message)
}

// ErrRunNotFound reports an unknown run id.
var ErrRunNotFound = errors.New("run not found")

const defaultPoolSize = 64

// Manager validates, compiles and executes runs on a bounded worker pool,
// fanning their events out through an in-process bus.
type Manager struct {
	bus           *event.Bus
	pool          *ants.Pool
	runner        *graph.Runner
	workspacesDir string
	newModel      func(conn model.Connection, name string) (model.Model, error)

	mu   sync.Mutex
	runs map[string]*Run
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithBus overrides the event bus.
func WithBus(bus *event.Bus) ManagerOption {
	return func(m *Manager) { m.bus = bus }
}

// WithWorkspacesDir sets the directory run workspaces are created under.
func WithWorkspacesDir(dir string) ManagerOption {
	return func(m *Manager) { m.workspacesDir = dir }
}

// WithRunner overrides the graph runner.
func WithRunner(runner *graph.Runner) ManagerOption {
	return func(m *Manager) { m.runner = runner }
}

// WithModelFactory overrides model client construction for runs.
func WithModelFactory(factory func(model.Connection, string) (model.Model, error)) ManagerOption {
	return func(m *Manager) { m.newModel = factory }
}

// poolSize is settable for tests.
var poolSize = defaultPoolSize

// NewManager creates a run manager.
func NewManager(opts ...ManagerOption) (*Manager, error) {
	pool, err := ants.NewPool(poolSize, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	m := &Manager{
		bus:           event.NewBus(),
		pool:          pool,
		runner:        graph.NewRunner(),
		workspacesDir: filepath.Join(os.TempDir(), "agentstudio-workspaces"),
		runs:          make(map[string]*Run),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Close stops the worker pool and the event bus. Running runs are
// cancelled.
func (m *Manager) Close() {
	m.mu.Lock()
	for _, run := range m.runs {
		run.cancel()
	}
	m.mu.Unlock()
	m.pool.Release()
	m.bus.Close()
}

// Bus exposes the event bus for subscribers.
func (m *Manager) Bus() *event.Bus { return m.bus }

// StartRunRequest is the input to StartRun.
type StartRunRequest struct {
	Graph      graph.Graph      `json:"graph"`
	Inputs     map[string]any   `json:"inputs"`
	Connection model.Connection `json:"llm_connection"`
}

// StartRun validates and compiles the graph, then executes it
// asynchronously. A graph with validation issues is rejected with a
// SpecInvalidError.
func (m *Manager) StartRun(req StartRunRequest) (*Run, error) {
	g := req.Graph
	if issues := graph.Validate(&g); len(issues) > 0 {
		return nil, &SpecInvalidError{Issues: issues}
	}
	compiled := graph.Compile(&g)

	run := &Run{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		status:    RunStatusRunning,
		done:      make(chan struct{}),
	}
	ctx, cancel := context.WithCancel(context.Background())
	run.cancel = cancel

	m.mu.Lock()
	m.runs[run.ID] = run
	m.mu.Unlock()

	submitErr := m.pool.Submit(func() {
		m.execute(ctx, run, &g, compiled, req)
	})
	if submitErr != nil {
		cancel()
		m.mu.Lock()
		delete(m.runs, run.ID)
		m.mu.Unlock()
		return nil, fmt.Errorf("failed to schedule run: %w", submitErr)
	}
	return run, nil
}

// Get returns a tracked run.
func (m *Manager) Get(runID string) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return nil, ErrRunNotFound
	}
	return run, nil
}

// Cancel requests cancellation of a running run.
func (m *Manager) Cancel(runID string) error {
	run, err := m.Get(runID)
	if err != nil {
		return err
	}
	run.cancel()
	return nil
}

func (m *Manager) execute(ctx context.Context, run *Run, g *graph.Graph, compiled graph.CompiledSpec, req StartRunRequest) {
	defer close(run.done)
	defer run.cancel()

	ctx, span := trace.Tracer.Start(ctx, "run_graph")
	defer span.End()

	emit := m.emitFunc(run)

	agentName, _ := compiled.Agent["name"].(string)
	if _, err := emit(ctx, event.TypeRunStarted, map[string]any{
		"inputs":       req.Inputs,
		"spec_summary": map[string]any{"name": agentName},
	}); err != nil {
		run.finish(RunStatusCancelled, "", err.Error())
		return
	}

	runWorkspace := filepath.Join(m.workspacesDir, run.ID)
	if err := os.MkdirAll(runWorkspace, 0o755); err != nil {
		log.Errorf("failed to create run workspace %s: %v", runWorkspace, err)
	}

	input := any(req.Inputs)
	if value, ok := req.Inputs["input"]; ok && value != nil {
		input = value
	}

	rc := &graph.RunContext{
		RunID:        run.ID,
		Graph:        g,
		Compiled:     compiled,
		Inputs:       req.Inputs,
		Connection:   req.Connection,
		Emit:         emit,
		RunWorkspace: runWorkspace,
		NewModel:     m.newModel,
	}

	output, err := m.runner.Run(ctx, rc, input)
	m.cleanupServices(run.ID, rc)

	// Terminal events are emitted on a fresh context so cancellation does
	// not swallow its own notification.
	terminalCtx := context.Background()
	switch {
	case err == nil:
		result := stringify(output)
		run.finish(RunStatusCompleted, result, "")
		if _, emitErr := emit(terminalCtx, event.TypeRunCompleted, map[string]any{
			"final_output_preview": truncate(result, previewLimit),
		}); emitErr != nil {
			log.Warnf("run %s: failed to emit completion: %v", run.ID, emitErr)
		}
	case errors.Is(err, context.Canceled):
		run.finish(RunStatusCancelled, "", err.Error())
		if _, emitErr := emit(terminalCtx, event.TypeRunCancelled, map[string]any{
			"reason": "cancelled",
		}); emitErr != nil {
			log.Warnf("run %s: failed to emit cancellation: %v", run.ID, emitErr)
		}
	default:
		run.finish(RunStatusFailed, "", err.Error())
		if _, emitErr := emit(terminalCtx, event.TypeRunFailed, map[string]any{
			"error": err.Error(),
		}); emitErr != nil {
			log.Warnf("run %s: failed to emit failure: %v", run.ID, emitErr)
		}
	}
}

// emitFunc builds the run's event sink: sequence numbers are assigned
// here, at the emission boundary, then the event is recorded and fanned
// out.
func (m *Manager) emitFunc(run *Run) event.EmitFunc {
	return func(ctx context.Context, eventType string, payload map[string]any) (*event.Event, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		evt := event.New(run.ID, eventType, payload, event.WithSeq(run.nextSeq()))
		run.appendEvent(evt)
		m.bus.Publish(evt)
		return evt, nil
	}
}

func (m *Manager) cleanupServices(runID string, rc *graph.RunContext) {
	if manager, ok := rc.Services["process_manager"].(*process.Manager); ok {
		manager.CleanupRun(runID)
	}
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
