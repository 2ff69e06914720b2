// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package audiounlock

import (
	"context"
	"sort"
	"sync"
)

// Dispatcher is an in-process EventTarget for user interaction events.
// Listeners run on the dispatching goroutine, capture listeners first.
type Dispatcher struct {
	mu        sync.Mutex
	nextID    uint64
	listeners map[string][]registration
}

type registration struct {
	id   uint64
	opts ListenerOptions
	fn   Listener
}

// NewDispatcher returns an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{listeners: make(map[string][]registration)}
}

func (d *Dispatcher) AddEventListener(event string, opts ListenerOptions, fn Listener) func() {
	d.mu.Lock()
	d.nextID++
	id := d.nextID
	d.listeners[event] = append(d.listeners[event], registration{id: id, opts: opts, fn: fn})
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { d.remove(event, id) })
	}
}

func (d *Dispatcher) remove(event string, id uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	regs := d.listeners[event]
	for i, r := range regs {
		if r.id == id {
			d.listeners[event] = append(regs[:i:i], regs[i+1:]...)
			break
		}
	}
	if len(d.listeners[event]) == 0 {
		delete(d.listeners, event)
	}
}

// Dispatch delivers event to a snapshot of its listeners and returns how many ran.
// Every dispatched event is a user interaction, so ctx is marked with WithUserGesture.
// Listeners removed by an earlier listener in the same dispatch are skipped.
func (d *Dispatcher) Dispatch(ctx context.Context, event string) int {
	d.mu.Lock()
	snapshot := make([]registration, len(d.listeners[event]))
	copy(snapshot, d.listeners[event])
	d.mu.Unlock()

	sort.SliceStable(snapshot, func(i, j int) bool {
		return snapshot[i].opts.Capture && !snapshot[j].opts.Capture
	})

	gctx := WithUserGesture(ctx)
	ran := 0
	for _, r := range snapshot {
		if !d.registered(event, r.id) {
			continue
		}
		r.fn(gctx)
		ran++
	}
	return ran
}

// ListenerCount returns the number of listeners registered for event.
func (d *Dispatcher) ListenerCount(event string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.listeners[event])
}

func (d *Dispatcher) registered(event string, id uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, r := range d.listeners[event] {
		if r.id == id {
			return true
		}
	}
	return false
}
