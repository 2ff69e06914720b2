// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package audiounlock

import "context"

// ContextState mirrors the lifecycle of a playback audio graph.
type ContextState string

const (
	StateNone      ContextState = "none"
	StateSuspended ContextState = "suspended"
	StateRunning   ContextState = "running"
	StateClosed    ContextState = "closed"
)

// AudioContext is the shared playback audio graph.
type AudioContext interface {
	State() ContextState
	// Resume leaves the suspended state. Platforms only allow it from a user gesture.
	Resume(ctx context.Context) error
	// PlaySilentBuffer synthesizes a one-sample, near-silent buffer and plays it
	// to force the platform audio pipeline open.
	PlaySilentBuffer(ctx context.Context) error
}

// ContextFactory constructs the audio context. It returns ErrUnsupported when
// the environment has no audio output.
type ContextFactory func() (AudioContext, error)

// MediaElement is a playback surface that can be muted.
type MediaElement interface {
	Muted() bool
	SetMuted(muted bool)
	Paused() bool
	Play(ctx context.Context) error
}

// Listener handles one interaction event.
type Listener func(ctx context.Context)

// ListenerOptions are the registration flags for a listener.
type ListenerOptions struct {
	Capture bool
	Passive bool
}

// EventTarget is where interaction listeners are registered. The returned
// function removes the registration and is safe to call more than once.
type EventTarget interface {
	AddEventListener(event string, opts ListenerOptions, fn Listener) (remove func())
}

type gestureKey struct{}

// WithUserGesture marks ctx as running inside a user-originated interaction.
func WithUserGesture(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, gestureKey{}, true)
}

// IsUserGesture reports whether ctx was marked by WithUserGesture.
func IsUserGesture(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	v, _ := ctx.Value(gestureKey{}).(bool)
	return v
}
