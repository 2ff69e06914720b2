// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package audiounlock centralizes the one-time unlock of playback audio that
// mobile platforms keep suspended until a user gesture.
package audiounlock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	xglog "github.com/ManuGH/capturekit/internal/log"
	"github.com/ManuGH/capturekit/internal/metrics"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// UnlockEvents are the interaction events SetupAutoUnlock listens for.
var UnlockEvents = []string{"touchstart", "touchend", "click", "keydown"}

// Manager owns the process-wide audio context and the unlocked flag.
// Construct it once at startup and share it with every playback surface.
// The context is created lazily, at most once, and never closed.
type Manager struct {
	factory ContextFactory
	logger  zerolog.Logger

	group singleflight.Group

	mu       sync.Mutex
	audioCtx AudioContext

	unlocked atomic.Bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger overrides the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager returns a manager that builds its audio context with factory.
// A nil factory means audio is unsupported.
func NewManager(factory ContextFactory, opts ...Option) *Manager {
	m := &Manager{
		factory: factory,
		logger:  xglog.WithComponent("audio"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// IsAudioUnlocked reports whether an unlock has ever succeeded.
func (m *Manager) IsAudioUnlocked() bool {
	return m.unlocked.Load()
}

// AudioContextState returns the state of the shared context, or StateNone before creation.
func (m *Manager) AudioContextState() ContextState {
	m.mu.Lock()
	ac := m.audioCtx
	m.mu.Unlock()
	if ac == nil {
		return StateNone
	}
	return ac.State()
}

// UnlockAudio opens the playback pipeline. It returns nil once unlocked; later
// calls are no-ops. Concurrent callers with the same gesture state share a
// single attempt. A caller whose shared attempt ended because another caller's
// context was done retries once with its own. Failures are returned, never
// raised: ErrUnsupported, ErrResumeDenied or ErrPlaybackFailed.
func (m *Manager) UnlockAudio(ctx context.Context) error {
	if m.unlocked.Load() {
		metrics.RecordAudioUnlock(metrics.UnlockNoop)
		return nil
	}
	key := "unlock"
	if IsUserGesture(ctx) {
		key = "unlock/gesture"
	}
	fn := func() (any, error) { return nil, m.unlock(ctx) }

	_, err, shared := m.group.Do(key, fn)
	if shared && err != nil && ctx.Err() == nil && isContextDone(err) {
		_, err, _ = m.group.Do(key, fn)
	}
	return err
}

func isContextDone(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (m *Manager) unlock(ctx context.Context) error {
	if m.unlocked.Load() {
		return nil
	}
	logger := xglog.WithContext(ctx, m.logger)

	ac, err := m.sharedContext()
	if err != nil {
		metrics.RecordAudioUnlock(metrics.UnlockUnsupported)
		logger.Debug().Err(err).Str(xglog.FieldEvent, "audio.unlock_unsupported").Msg("audio context unavailable")
		return err
	}

	if ac.State() == StateSuspended {
		if err := guard(func() error { return ac.Resume(ctx) }); err != nil {
			metrics.RecordAudioUnlock(metrics.UnlockDenied)
			logger.Debug().Err(err).Str(xglog.FieldEvent, "audio.resume_denied").Msg("audio context resume denied")
			return fmt.Errorf("%w: %w", ErrResumeDenied, err)
		}
	}

	if err := guard(func() error { return ac.PlaySilentBuffer(ctx) }); err != nil {
		metrics.RecordAudioUnlock(metrics.UnlockPlayback)
		logger.Debug().Err(err).Str(xglog.FieldEvent, "audio.silent_buffer_failed").Msg("silent buffer playback failed")
		return fmt.Errorf("%w: %w", ErrPlaybackFailed, err)
	}

	m.unlocked.Store(true)
	metrics.RecordAudioUnlock(metrics.UnlockSuccess)
	logger.Info().
		Str(xglog.FieldEvent, "audio.unlocked").
		Str(xglog.FieldContextState, string(ac.State())).
		Msg("audio playback unlocked")
	return nil
}

// sharedContext returns the audio context, constructing it on first use.
func (m *Manager) sharedContext() (AudioContext, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.audioCtx != nil {
		return m.audioCtx, nil
	}
	if m.factory == nil {
		return nil, ErrUnsupported
	}

	var ac AudioContext
	err := guard(func() error {
		var ferr error
		ac, ferr = m.factory()
		return ferr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	if ac == nil {
		return nil, ErrUnsupported
	}
	m.audioCtx = ac
	return ac, nil
}

// SafeUnmuteVideo unlocks audio, unmutes el and resumes it if paused.
// Unlock and resume failures are tolerated: a muted-but-paused element off
// screen is acceptable. It returns nil iff el ends up unmuted.
func (m *Manager) SafeUnmuteVideo(ctx context.Context, el MediaElement) error {
	if el == nil {
		return ErrNoElement
	}
	logger := xglog.WithContext(ctx, m.logger)

	if err := m.UnlockAudio(ctx); err != nil {
		logger.Debug().Err(err).Str(xglog.FieldEvent, "audio.unmute_unlock_failed").Msg("unlock failed while unmuting")
	}

	el.SetMuted(false)

	if el.Paused() {
		if err := guard(func() error { return el.Play(ctx) }); err != nil {
			logger.Debug().Err(err).Str(xglog.FieldEvent, "audio.unmute_play_blocked").Msg("resume playback blocked")
		}
	}

	if el.Muted() {
		return ErrStillMuted
	}
	return nil
}

// SetupAutoUnlock registers capture, passive listeners for UnlockEvents on
// target. The first event that unlocks audio removes all of them. The returned
// cleanup removes them unconditionally.
func (m *Manager) SetupAutoUnlock(target EventTarget) (cleanup func()) {
	if target == nil {
		return func() {}
	}

	var (
		mu       sync.Mutex
		removers []func()
		removed  bool
	)
	removeAll := func() {
		mu.Lock()
		defer mu.Unlock()
		if removed {
			return
		}
		removed = true
		for _, r := range removers {
			r()
		}
		removers = nil
	}

	handler := func(ctx context.Context) {
		if err := m.UnlockAudio(ctx); err == nil {
			removeAll()
		}
	}

	opts := ListenerOptions{Capture: true, Passive: true}
	mu.Lock()
	for _, ev := range UnlockEvents {
		removers = append(removers, target.AddEventListener(ev, opts, handler))
	}
	mu.Unlock()

	return removeAll
}

// guard converts a panic in collaborator code into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
