//
// Copyright (C) 2026 Agent Studio Authors.  All rights reserved.
//
// agent-studio-go is licensed under the Apache License Version 2.0.
//
//

package event

import (
	"sync"
)

const defaultSubscriberBuffer = 256

// Bus is an in-process pub/sub fan-out for live run events.
//
// It is intentionally simple: one buffered channel per subscriber, keyed by
// run ID. Publish is best-effort and never blocks; a slow subscriber drops
// events rather than stalling the run. Swap this for Redis/NATS when runs
// move out of process.
type Bus struct {
	mu     sync.Mutex
	subs   map[string]map[chan *Event]struct{}
	buffer int
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithSubscriberBuffer sets the per-subscriber channel buffer size.
func WithSubscriberBuffer(n int) BusOption {
	return func(b *Bus) {
		if n > 0 {
			b.buffer = n
		}
	}
}

// NewBus creates a new event bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		subs:   make(map[string]map[chan *Event]struct{}),
		buffer: defaultSubscriberBuffer,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a new subscriber for the given run and returns its
// channel. The channel is closed by Unsubscribe.
func (b *Bus) Subscribe(runID string) chan *Event {
	ch := make(chan *Event, b.buffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	set, ok := b.subs[runID]
	if !ok {
		set = make(map[chan *Event]struct{})
		b.subs[runID] = set
	}
	set[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Bus) Unsubscribe(runID string, ch chan *Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	set, ok := b.subs[runID]
	if !ok {
		return
	}
	if _, ok := set[ch]; !ok {
		return
	}
	delete(set, ch)
	close(ch)
	if len(set) == 0 {
		delete(b.subs, runID)
	}
}

// Publish delivers an event to every subscriber of its run. Best-effort:
// subscribers whose buffers are full miss the event.
func (b *Bus) Publish(evt *Event) {
	if evt == nil {
		return
	}
	// The sends happen under the lock so Unsubscribe/Close cannot close a
	// channel mid-delivery. They never block, so holding it is cheap.
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[evt.RunID] {
		select {
		case ch <- evt:
		default:
		}
	}
}

// Close closes every subscriber channel and clears the bus.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for runID, set := range b.subs {
		for ch := range set {
			close(ch)
		}
		delete(b.subs, runID)
	}
}
