// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package recorder drives one recording session at a time from a validated
// capture stream to a finished blob.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	xglog "github.com/ManuGH/capturekit/internal/log"
	"github.com/ManuGH/capturekit/internal/metrics"
	"github.com/ManuGH/capturekit/internal/platform"
	"github.com/ManuGH/capturekit/internal/stream"
	"github.com/ManuGH/capturekit/internal/telemetry"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultTimeslice   = 100 * time.Millisecond
	DefaultStopTimeout = 10 * time.Second
)

// Controller owns the recording lifecycle. It is safe for concurrent use but
// runs at most one session at a time.
type Controller struct {
	logger      zerolog.Logger
	tracer      trace.Tracer
	clock       func() time.Time
	timeslice   time.Duration
	stopTimeout time.Duration
	profile     func() platform.Profile
	observer    func(Diagnostics)

	mu         sync.Mutex
	factory    BackendFactory
	starting   bool
	closed     bool
	sess       *session
	err        error
	blob       *Blob
	diag       *Diagnostics
	validation *stream.Validation
}

// Option configures a Controller.
type Option func(*Controller)

// WithTimeslice sets the chunk delivery interval.
func WithTimeslice(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.timeslice = d
		}
	}
}

// WithStopTimeout bounds how long a stopping session may wait for finalize.
func WithStopTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.stopTimeout = d
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.clock = now
		}
	}
}

// WithProfile supplies the platform profile consulted on every Start.
func WithProfile(fn func() platform.Profile) Option {
	return func(c *Controller) {
		if fn != nil {
			c.profile = fn
		}
	}
}

// WithBackendFactory marks the controller ready with f.
func WithBackendFactory(f BackendFactory) Option {
	return func(c *Controller) { c.factory = f }
}

// WithObserver registers a hook called with the diagnostics of every completed session.
func WithObserver(fn func(Diagnostics)) Option {
	return func(c *Controller) { c.observer = fn }
}

// New returns an idle controller.
func New(opts ...Option) *Controller {
	c := &Controller{
		logger:      xglog.WithComponent("recorder"),
		tracer:      telemetry.Tracer("capturekit/recorder"),
		clock:       time.Now,
		timeslice:   DefaultTimeslice,
		stopTimeout: DefaultStopTimeout,
		profile:     func() platform.Profile { return platform.Profile{} },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetBackendFactory installs the backend factory once it is available.
func (c *Controller) SetBackendFactory(f BackendFactory) {
	c.mu.Lock()
	c.factory = f
	c.mu.Unlock()
	if f != nil {
		c.logger.Info().
			Str(xglog.FieldEvent, "recorder.backend_loaded").
			Str(xglog.FieldBackend, f.Name()).
			Msg("recorder backend ready")
	}
}

// LoadBackend resolves the backend in the background. The returned channel
// receives the load result and is then closed.
func (c *Controller) LoadBackend(ctx context.Context, load BackendLoader) <-chan error {
	out := make(chan error, 1)
	go func() {
		defer close(out)
		f, err := load(ctx)
		if err == nil && f == nil {
			err = ErrBackendNotLoaded
		}
		if err != nil {
			c.logger.Warn().Err(err).Str(xglog.FieldEvent, "recorder.backend_load_failed").Msg("recorder backend unavailable")
			out <- err
			return
		}
		c.SetBackendFactory(f)
		out <- nil
	}()
	return out
}

// Ready reports whether Start can construct a backend.
func (c *Controller) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.factory != nil
}

// Start validates s and begins recording it. On failure the session is
// recorded as failed, Err reports the cause and a new Start may be attempted.
func (c *Controller) Start(ctx context.Context, s stream.Stream) (err error) {
	ctx, span := c.tracer.Start(ctx, "recorder.start")
	defer func() { telemetry.EndSpan(span, err, "start") }()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.starting || (c.sess != nil && !c.sess.settled) {
		c.mu.Unlock()
		return ErrSessionBusy
	}
	c.err = nil

	sess := &session{
		id:        uuid.NewString(),
		profile:   c.profile(),
		startedAt: c.clock(),
		done:      make(chan struct{}),
	}
	sess.machine = sessionTable.New(StateIdle, c.transitionObserver(sess.id))
	sess.targetMime = sess.profile.ContainerMimeType()
	span.SetAttributes(telemetry.RecordingAttributes(sess.id, sess.targetMime, "")...)
	span.SetAttributes(telemetry.PlatformAttributes(sess.profile.Family(), sess.profile.IsWebView)...)

	logger := xglog.WithContext(xglog.ContextWithSessionID(ctx, sess.id), c.logger)

	if isNilStream(s) {
		c.failStartLocked(sess, ErrNoStream, metrics.OutcomeValidation)
		c.mu.Unlock()
		logger.Warn().Str(xglog.FieldEvent, "recorder.start_rejected").Msg("no media stream")
		return ErrNoStream
	}

	factory := c.factory
	if factory == nil {
		c.failStartLocked(sess, ErrBackendNotLoaded, metrics.OutcomeNotLoaded)
		c.mu.Unlock()
		logger.Warn().Str(xglog.FieldEvent, "recorder.start_rejected").Msg("recorder backend not loaded yet")
		return ErrBackendNotLoaded
	}

	v := stream.Validate(s, stream.NoRequirements)
	sess.validation = v
	c.validation = &v
	for _, defect := range v.Errors {
		metrics.RecordValidationDefect(defect)
	}
	if v.HardFailure() {
		verr := fmt.Errorf("%w: %s", ErrValidationFailed, strings.Join(v.Errors, "; "))
		c.failStartLocked(sess, verr, metrics.OutcomeValidation)
		c.mu.Unlock()
		logger.Warn().Strs("defects", v.Errors).Str(xglog.FieldEvent, "recorder.start_rejected").Msg("stream failed validation")
		return verr
	}

	sess.backendName = factory.Name()
	c.starting = true
	c.mu.Unlock()

	backend, berr := c.startBackend(factory, s, sess)

	c.mu.Lock()
	c.starting = false
	if berr != nil {
		c.failStartLocked(sess, berr, metrics.OutcomeStartFailed)
		c.mu.Unlock()
		logger.Error().Err(berr).Str(xglog.FieldEvent, "recorder.start_failed").Msg("recorder backend failed to start")
		return berr
	}
	if c.closed {
		c.failStartLocked(sess, ErrClosed, metrics.OutcomeAbandoned)
		c.mu.Unlock()
		_ = guard(backend.Stop)
		return ErrClosed
	}
	sess.backend = backend
	if !sess.settled {
		sess.active = true
		metrics.IncActiveRecordings()
	}
	c.sess = sess
	c.mu.Unlock()

	logger.Info().
		Str(xglog.FieldEvent, "recorder.start").
		Str(xglog.FieldBackend, sess.backendName).
		Str(xglog.FieldMimeType, sess.targetMime).
		Dur(xglog.FieldTimeslice, c.timeslice).
		Str(xglog.FieldPlatform, sess.profile.Family()).
		Bool("has_audio", v.AudioTrackActive).
		Bool("has_video", v.VideoTrackActive).
		Msg("recording started")
	return nil
}

// startBackend constructs and starts the backend without holding the lock,
// since backends may deliver chunks synchronously.
func (c *Controller) startBackend(factory BackendFactory, s stream.Stream, sess *session) (Backend, error) {
	var backend Backend
	err := guard(func() error {
		var nerr error
		backend, nerr = factory.New(s)
		return nerr
	})
	if err == nil && backend == nil {
		err = errors.New("factory returned no backend")
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendStart, err)
	}

	backend.SetMimeType(sess.targetMime)
	backend.OnChunk(func(ch Chunk) { c.onChunk(sess, ch) })
	backend.OnFinalize(func() { c.finalize(sess, backend) })

	// The session is recording as soon as the backend may emit, so a
	// synchronous finalize from Start lands on a valid transition.
	c.mu.Lock()
	_, ferr := sess.machine.Fire(EventStart)
	c.mu.Unlock()
	if ferr != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendStart, ferr)
	}

	if err := guard(func() error { return backend.Start(c.timeslice) }); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendStart, err)
	}
	return backend, nil
}

// failStartLocked records a session that never started.
func (c *Controller) failStartLocked(sess *session, err error, outcome string) {
	if !sess.settled {
		if _, ferr := sess.machine.Fire(EventFail); ferr != nil {
			c.logger.Debug().Err(ferr).Msg("fail transition rejected")
		}
		sess.settled = true
		sess.err = err
		close(sess.done)
	}
	c.err = err
	c.sess = sess
	metrics.RecordRecordingOutcome(outcome, sess.targetMime)
}

// Stop ends the active session and waits for its result. Concurrent callers
// share the same pending result. Without an active session it returns the
// last completed blob, which is nil before the first success.
//
// If ctx ends first Stop returns ctx.Err() while the session keeps finalizing.
func (c *Controller) Stop(ctx context.Context) (blob *Blob, err error) {
	ctx, span := c.tracer.Start(ctx, "recorder.stop")
	defer func() { telemetry.EndSpan(span, err, "stop") }()

	c.mu.Lock()
	sess := c.sess
	if sess == nil || sess.settled {
		blob = c.blob
		c.mu.Unlock()
		return blob, nil
	}
	span.SetAttributes(telemetry.RecordingAttributes(sess.id, sess.targetMime, sess.backendName)...)

	if sess.machine.State() == StateRecording {
		if _, ferr := sess.machine.Fire(EventStop); ferr != nil {
			c.mu.Unlock()
			return nil, ferr
		}
		sess.stopTimer = time.AfterFunc(c.stopTimeout, func() {
			c.fail(sess, ErrStopTimeout, metrics.OutcomeTimeout)
		})
		backend := sess.backend
		c.mu.Unlock()

		stopLogger := xglog.WithContext(ctx, c.logger)
		stopLogger.Info().
			Str(xglog.FieldSessionID, sess.id).
			Str(xglog.FieldEvent, "recorder.stop").
			Msg("stopping recording")

		if serr := guard(backend.Stop); serr != nil {
			c.fail(sess, fmt.Errorf("%w: %v", ErrBackendStop, serr), metrics.OutcomeStopFailed)
		}
	} else {
		c.mu.Unlock()
	}

	select {
	case <-sess.done:
		c.mu.Lock()
		blob, err = sess.blob, sess.err
		diag := c.diag
		c.mu.Unlock()
		if blob != nil && diag != nil && diag.SessionID == sess.id {
			span.SetAttributes(telemetry.RecordingResultAttributes(metrics.OutcomeComplete, diag.SizeBytes, diag.ChunkCount, diag.DurationMs)...)
		}
		return blob, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Controller) onChunk(sess *session, ch Chunk) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sess.settled {
		return
	}
	sess.append(ch)
}

// finalize runs once per session when the backend has stopped.
func (c *Controller) finalize(sess *session, backend Backend) {
	reported := backend.MimeType()

	c.mu.Lock()
	if sess.settled {
		c.mu.Unlock()
		return
	}
	duration := c.clock().Sub(sess.startedAt)
	if duration < 0 {
		duration = 0
	}
	mimeType := sess.finalMimeType(reported)

	if sess.size == 0 {
		c.mu.Unlock()
		c.fail(sess, ErrNoData, metrics.OutcomeEmpty)
		return
	}

	blob := &Blob{Data: sess.assemble(), MimeType: mimeType}
	diag := Diagnostics{
		SessionID:  sess.id,
		MimeType:   mimeType,
		HasVideo:   sess.validation.VideoTrackActive,
		HasAudio:   sess.validation.AudioTrackActive,
		SizeBytes:  blob.Size(),
		DurationMs: duration.Milliseconds(),
		ChunkCount: len(sess.chunks),
		Platform:   sess.profile.Family(),
		Profile:    sess.profile,
		Backend:    sess.backendName,
		Warnings:   sess.validation.Warnings(stream.NoRequirements),
		StartedAt:  sess.startedAt,
	}

	if _, err := sess.machine.Fire(EventFinalize); err != nil {
		c.logger.Debug().Err(err).Msg("finalize transition rejected")
	}
	c.settleLocked(sess, blob, nil)
	c.blob = blob
	c.diag = &diag
	c.err = nil
	observer := c.observer
	c.mu.Unlock()

	metrics.RecordRecordingOutcome(metrics.OutcomeComplete, mimeType)
	metrics.ObserveRecording(blob.Size(), duration)

	c.logger.Info().
		Str(xglog.FieldSessionID, sess.id).
		Str(xglog.FieldEvent, "recorder.finalize").
		Str(xglog.FieldMimeType, mimeType).
		Int(xglog.FieldBytes, blob.Size()).
		Int(xglog.FieldChunks, diag.ChunkCount).
		Int64(xglog.FieldDurationMs, diag.DurationMs).
		Msg("recording complete")

	if observer != nil {
		observer(diag)
	}
}

// fail settles an active session with err. Later finalize or chunk callbacks
// for the session are dropped.
func (c *Controller) fail(sess *session, err error, outcome string) {
	c.mu.Lock()
	if sess.settled {
		c.mu.Unlock()
		return
	}
	if _, ferr := sess.machine.Fire(EventFail); ferr != nil {
		c.logger.Debug().Err(ferr).Msg("fail transition rejected")
	}
	c.settleLocked(sess, nil, err)
	c.err = err
	chunks := len(sess.chunks)
	c.mu.Unlock()

	metrics.RecordRecordingOutcome(outcome, sess.targetMime)

	event := "recorder.failed"
	if errors.Is(err, ErrNoData) {
		event = "recorder.finalize_empty"
	}
	c.logger.Warn().
		Err(err).
		Str(xglog.FieldSessionID, sess.id).
		Str(xglog.FieldEvent, event).
		Int(xglog.FieldChunks, chunks).
		Msg("recording failed")
}

func (c *Controller) settleLocked(sess *session, blob *Blob, err error) {
	sess.settled = true
	sess.blob = blob
	sess.err = err
	sess.chunks = nil
	if sess.stopTimer != nil {
		sess.stopTimer.Stop()
	}
	if sess.active {
		sess.active = false
		metrics.DecActiveRecordings()
	}
	close(sess.done)
}

// Close stops any live session best-effort. Further Start calls fail with ErrClosed.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	sess := c.sess
	live := sess != nil && !sess.settled && sess.backend != nil
	c.mu.Unlock()

	if !live {
		return
	}
	c.fail(sess, ErrClosed, metrics.OutcomeAbandoned)
	if err := guard(sess.backend.Stop); err != nil {
		c.logger.Debug().Err(err).Str(xglog.FieldEvent, "recorder.teardown_stop_failed").Msg("backend stop during teardown failed")
	}
}

// State returns the state of the current or most recent session.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return StateIdle
	}
	return c.sess.machine.State()
}

// IsRecording reports whether a session is capturing or finalizing.
func (c *Controller) IsRecording() bool {
	s := c.State()
	return s == StateRecording || s == StateStopping
}

// Err returns the error of the most recent session, nil after a success.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// RecordedBlob returns the last completed blob.
func (c *Controller) RecordedBlob() *Blob {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blob
}

// Diagnostics returns a copy of the last completed session's diagnostics.
func (c *Controller) Diagnostics() *Diagnostics {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.diag == nil {
		return nil
	}
	d := *c.diag
	d.Warnings = append([]string(nil), c.diag.Warnings...)
	return &d
}

// StreamValidation returns the validation recorded by the last Start.
func (c *Controller) StreamValidation() *stream.Validation {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.validation == nil {
		return nil
	}
	v := *c.validation
	v.Errors = append([]string(nil), c.validation.Errors...)
	return &v
}

// SessionID returns the id of the current or most recent session.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return ""
	}
	return c.sess.id
}

func (c *Controller) transitionObserver(id string) func(from, to State, event Event) {
	return func(from, to State, event Event) {
		c.logger.Debug().
			Str(xglog.FieldSessionID, id).
			Str(xglog.FieldEvent, "recorder.transition").
			Str(xglog.FieldOldState, string(from)).
			Str(xglog.FieldNewState, string(to)).
			Str("trigger", string(event)).
			Msg("session transition")
	}
}

func isNilStream(s stream.Stream) bool {
	if s == nil {
		return true
	}
	if ss, ok := s.(*stream.StaticStream); ok && ss == nil {
		return true
	}
	return false
}

// guard converts a panic in backend code into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
