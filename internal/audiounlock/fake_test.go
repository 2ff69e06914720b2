// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package audiounlock

import (
	"context"
	"sync"
	"sync/atomic"
)

type fakeContext struct {
	mu        sync.Mutex
	state     ContextState
	resumeErr error
	playErr   error
	resumes   int
	plays     int
}

func (c *fakeContext) State() ContextState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *fakeContext) Resume(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resumes++
	if c.resumeErr != nil {
		return c.resumeErr
	}
	c.state = StateRunning
	return nil
}

func (c *fakeContext) PlaySilentBuffer(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plays++
	return c.playErr
}

func (c *fakeContext) counts() (resumes, plays int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resumes, c.plays
}

type countingFactory struct {
	calls atomic.Int32
	ac    AudioContext
	err   error
}

func (f *countingFactory) factory() ContextFactory {
	return func() (AudioContext, error) {
		f.calls.Add(1)
		if f.err != nil {
			return nil, f.err
		}
		return f.ac, nil
	}
}

type fakeElement struct {
	muted      bool
	paused     bool
	stickyMute bool
	playErr    error
	plays      int
}

func (e *fakeElement) Muted() bool { return e.muted }

func (e *fakeElement) SetMuted(m bool) {
	if e.stickyMute {
		return
	}
	e.muted = m
}

func (e *fakeElement) Paused() bool { return e.paused }

func (e *fakeElement) Play(context.Context) error {
	e.plays++
	if e.playErr != nil {
		return e.playErr
	}
	e.paused = false
	return nil
}

// gatedContext blocks Resume until release is closed or the caller's context
// is done, then behaves like a platform that requires a user gesture.
type gatedContext struct {
	mu      sync.Mutex
	state   ContextState
	entered chan struct{}
	release chan struct{}
}

func newGatedContext() *gatedContext {
	return &gatedContext{
		state:   StateSuspended,
		entered: make(chan struct{}, 8),
		release: make(chan struct{}),
	}
}

func (c *gatedContext) State() ContextState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *gatedContext) Resume(ctx context.Context) error {
	select {
	case c.entered <- struct{}{}:
	default:
	}
	select {
	case <-c.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	if !IsUserGesture(ctx) {
		return ErrNoGesture
	}
	c.mu.Lock()
	c.state = StateRunning
	c.mu.Unlock()
	return nil
}

func (c *gatedContext) PlaySilentBuffer(context.Context) error { return nil }
