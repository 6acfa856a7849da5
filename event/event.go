//
// Copyright (C) 2026 Agent Studio Authors.  All rights reserved.
//
// agent-studio-go is licensed under the Apache License Version 2.0.
//
//

// Package event provides the typed run-event system used to observe
// workflow execution.
package event

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types emitted during a run. Payloads are free-form JSON-compatible
// objects; the type tag is the contract.
const (
	TypeRunStarted      = "run.started"
	TypeRunAgentInput   = "run.agent_input"
	TypeSpanStarted     = "span.started"
	TypeSpanCompleted   = "span.completed"
	TypeRunStreamEvent  = "run.stream_event"
	TypeLoopLimit       = "run.loop.limit_reached"
	TypeRunCompleted    = "run.completed"
	TypeRunFailed       = "run.failed"
	TypeRunCancelled    = "run.cancelled"
)

// Event represents a single observable occurrence within a run.
type Event struct {
	// ID is a globally unique event identifier.
	ID string `json:"id"`
	// RunID identifies the run this event belongs to.
	RunID string `json:"run_id"`
	// Seq is the monotonic per-run sequence number. It is assigned by the
	// run host at the emission boundary, never by the engine itself.
	Seq int64 `json:"seq"`
	// Type is one of the Type* constants.
	Type string `json:"type"`
	// Payload carries event-specific data.
	Payload map[string]any `json:"payload"`
	// Timestamp records when the event was created.
	Timestamp time.Time `json:"timestamp"`
}

// Option configures an Event at construction time.
type Option func(*Event)

// WithSeq sets the per-run sequence number.
func WithSeq(seq int64) Option {
	return func(e *Event) {
		e.Seq = seq
	}
}

// New creates a new Event with a generated ID and the current timestamp.
func New(runID, eventType string, payload map[string]any, opts ...Option) *Event {
	e := &Event{
		ID:        uuid.New().String(),
		RunID:     runID,
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EmitFunc is the injected sink the engine reports through. Implementations
// must be called serially within one run; a returned error (typically a
// cancellation signal) aborts the run that emitted the event.
type EmitFunc func(ctx context.Context, eventType string, payload map[string]any) (*Event, error)

// NopEmit is an EmitFunc that drops every event. Useful for tests and for
// callers that do not observe runs.
func NopEmit(_ context.Context, eventType string, payload map[string]any) (*Event, error) {
	return New("", eventType, payload), nil
}
