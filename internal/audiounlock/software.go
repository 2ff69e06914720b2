// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package audiounlock

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
)

// SoftwareContext is an AudioContext that renders into an io.Writer as
// 16-bit little-endian mono PCM. Like a mobile playback graph it starts
// suspended and only resumes from a user gesture.
type SoftwareContext struct {
	mu         sync.Mutex
	state      ContextState
	sink       io.Writer
	sampleRate int
	frames     int
}

// NewSoftwareContext returns a suspended context rendering to sink.
// A nil sink discards output.
func NewSoftwareContext(sink io.Writer, sampleRate int) *SoftwareContext {
	if sink == nil {
		sink = io.Discard
	}
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	return &SoftwareContext{state: StateSuspended, sink: sink, sampleRate: sampleRate}
}

// SoftwareContextFactory returns a ContextFactory producing a SoftwareContext.
func SoftwareContextFactory(sink io.Writer, sampleRate int) ContextFactory {
	return func() (AudioContext, error) {
		return NewSoftwareContext(sink, sampleRate), nil
	}
}

func (c *SoftwareContext) State() ContextState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SampleRate returns the render sample rate.
func (c *SoftwareContext) SampleRate() int { return c.sampleRate }

// FramesRendered returns the number of sample frames written to the sink.
func (c *SoftwareContext) FramesRendered() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames
}

func (c *SoftwareContext) Resume(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateRunning:
		return nil
	case StateClosed:
		return ErrContextClosed
	}
	if !IsUserGesture(ctx) {
		return ErrNoGesture
	}
	c.state = StateRunning
	return nil
}

// PlaySilentBuffer renders a single zero sample.
func (c *SoftwareContext) PlaySilentBuffer(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateRunning {
		return fmt.Errorf("context is %s", c.state)
	}
	var sample [2]byte
	binary.LittleEndian.PutUint16(sample[:], 0)
	if _, err := c.sink.Write(sample[:]); err != nil {
		return fmt.Errorf("write silent sample: %w", err)
	}
	c.frames++
	return nil
}

// Close moves the context to its terminal state.
func (c *SoftwareContext) Close() {
	c.mu.Lock()
	c.state = StateClosed
	c.mu.Unlock()
}

// SoftwareElement is an in-process playback surface, such as the live monitor
// of a recording. It starts muted and paused. Like a mobile media element,
// unmuted playback only starts from a user gesture.
type SoftwareElement struct {
	mu     sync.Mutex
	muted  bool
	paused bool
}

// NewSoftwareElement returns a muted, paused element.
func NewSoftwareElement() *SoftwareElement {
	return &SoftwareElement{muted: true, paused: true}
}

var _ MediaElement = (*SoftwareElement)(nil)

func (e *SoftwareElement) Muted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.muted
}

func (e *SoftwareElement) SetMuted(muted bool) {
	e.mu.Lock()
	e.muted = muted
	e.mu.Unlock()
}

func (e *SoftwareElement) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// Play starts playback. Muted playback is always allowed.
func (e *SoftwareElement) Play(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.muted && !IsUserGesture(ctx) {
		return ErrNoGesture
	}
	e.paused = false
	return nil
}

// Pause stops playback without changing the mute state.
func (e *SoftwareElement) Pause() {
	e.mu.Lock()
	e.paused = true
	e.mu.Unlock()
}
