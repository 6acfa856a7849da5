//
// Copyright (C) 2026 Agent Studio Authors.  All rights reserved.
//
// agent-studio-go is licensed under the Apache License Version 2.0.
//
//

package event

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	evt := New("run-1", TypeRunStarted, map[string]any{"inputs": map[string]any{}})
	assert.NotEmpty(t, evt.ID, "Expected generated event ID")
	assert.Equal(t, "run-1", evt.RunID, "Expected run ID to be set")
	assert.Equal(t, TypeRunStarted, evt.Type, "Expected event type to be set")
	assert.False(t, evt.Timestamp.IsZero(), "Expected timestamp to be set")
	assert.Zero(t, evt.Seq, "Expected sequence to default to zero")
}

func TestNewEventWithSeq(t *testing.T) {
	evt := New("run-1", TypeRunCompleted, nil, WithSeq(42))
	assert.Equal(t, int64(42), evt.Seq, "Expected sequence option to apply")
}

func TestNopEmit(t *testing.T) {
	evt, err := NopEmit(context.Background(), TypeRunStarted, nil)
	require.NoError(t, err)
	assert.Equal(t, TypeRunStarted, evt.Type, "Expected event type passthrough")
}

func TestBusPublishSubscribe(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ch := bus.Subscribe("run-1")
	other := bus.Subscribe("run-2")

	bus.Publish(New("run-1", TypeRunStarted, nil))
	bus.Publish(New("run-1", TypeRunCompleted, nil))

	first := <-ch
	second := <-ch
	assert.Equal(t, TypeRunStarted, first.Type, "Expected first event in order")
	assert.Equal(t, TypeRunCompleted, second.Type, "Expected second event in order")

	select {
	case evt := <-other:
		t.Fatalf("unexpected event on other run: %v", evt)
	default:
	}
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()
	ch := bus.Subscribe("run-1")
	bus.Unsubscribe("run-1", ch)
	_, open := <-ch
	assert.False(t, open, "Expected channel closed after unsubscribe")
	// Double unsubscribe must be a no-op.
	bus.Unsubscribe("run-1", ch)
}

func TestBusPublishDuringUnsubscribe(t *testing.T) {
	// Subscribers may drop out while the run goroutine is still
	// publishing; delivery and close must never race.
	bus := NewBus(WithSubscriberBuffer(1))
	defer bus.Close()

	const subscribers = 256
	channels := make([]chan *Event, subscribers)
	for i := range channels {
		channels[i] = bus.Subscribe("run-1")
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < subscribers; i++ {
			bus.Publish(New("run-1", TypeRunStreamEvent, nil))
		}
	}()
	go func() {
		defer wg.Done()
		for _, ch := range channels {
			bus.Unsubscribe("run-1", ch)
		}
	}()
	wg.Wait()
}

func TestBusSlowSubscriberDoesNotBlock(t *testing.T) {
	bus := NewBus(WithSubscriberBuffer(1))
	defer bus.Close()
	ch := bus.Subscribe("run-1")
	bus.Publish(New("run-1", TypeRunStarted, nil))
	// Buffer is full; this publish must not block.
	bus.Publish(New("run-1", TypeRunCompleted, nil))
	evt := <-ch
	assert.Equal(t, TypeRunStarted, evt.Type, "Expected only the buffered event")
}
