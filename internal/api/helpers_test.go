// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ManuGH/capturekit/internal/audiounlock"
	"github.com/ManuGH/capturekit/internal/config"
	"github.com/ManuGH/capturekit/internal/diagnostics"
	"github.com/ManuGH/capturekit/internal/health"
	"github.com/ManuGH/capturekit/internal/platform"
	"github.com/ManuGH/capturekit/internal/recorder"
	"github.com/ManuGH/capturekit/internal/stream"
	"github.com/stretchr/testify/require"
)

// syncBackend emits one chunk when started and finalizes inside Stop.
type syncBackend struct {
	mu         sync.Mutex
	payload    []byte
	onChunk    func(recorder.Chunk)
	onFinalize func()
}

func (b *syncBackend) SetMimeType(string) {}

func (b *syncBackend) MimeType() string { return "video/webm;codecs=vp8,opus" }

func (b *syncBackend) OnChunk(fn func(recorder.Chunk)) {
	b.mu.Lock()
	b.onChunk = fn
	b.mu.Unlock()
}

func (b *syncBackend) OnFinalize(fn func()) {
	b.mu.Lock()
	b.onFinalize = fn
	b.mu.Unlock()
}

func (b *syncBackend) Start(time.Duration) error {
	b.mu.Lock()
	fn := b.onChunk
	b.mu.Unlock()
	if len(b.payload) > 0 {
		fn(recorder.Chunk{Data: b.payload})
	}
	return nil
}

func (b *syncBackend) Stop() error {
	b.mu.Lock()
	fn := b.onFinalize
	b.mu.Unlock()
	fn()
	return nil
}

type syncFactory struct{ payload []byte }

func (f syncFactory) Name() string { return "test" }
func (f syncFactory) New(stream.Stream) (recorder.Backend, error) {
	return &syncBackend{payload: f.payload}, nil
}

type testEnv struct {
	srv     *Server
	rec     *recorder.Controller
	audio   *audiounlock.Manager
	monitor *audiounlock.SoftwareElement
	profile *platform.Latest
	history *diagnostics.Store
}

type envOption func(*config.ServerConfig, *[]recorder.Option)

func withoutBackend() envOption {
	return func(_ *config.ServerConfig, opts *[]recorder.Option) {
		*opts = append(*opts, recorder.WithBackendFactory(nil))
	}
}

func withRateLimit(n int) envOption {
	return func(c *config.ServerConfig, _ *[]recorder.Option) {
		c.RateLimit.Requests = n
	}
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	cfg := config.Default()
	history, err := diagnostics.NewStore(8)
	require.NoError(t, err)

	latest := &platform.Latest{}
	recOpts := []recorder.Option{
		recorder.WithBackendFactory(syncFactory{payload: []byte("hello")}),
		recorder.WithProfile(latest.Load),
		recorder.WithObserver(diagnostics.Recorder(history, nil)),
	}
	for _, o := range opts {
		o(&cfg.Server, &recOpts)
	}
	rec := recorder.New(recOpts...)
	t.Cleanup(rec.Close)

	audio := audiounlock.NewManager(audiounlock.SoftwareContextFactory(io.Discard, 0))
	gestures := audiounlock.NewDispatcher()
	t.Cleanup(audio.SetupAutoUnlock(gestures))

	monitor := audiounlock.NewSoftwareElement()

	hm := health.NewManager("test")
	hm.RegisterChecker(health.NewRecorderChecker(rec))

	srv := New(Deps{
		Server:   cfg.Server,
		Profiler: platform.NewProfiler(cfg.Platform.Signatures()),
		Profile:  latest,
		Audio:    audio,
		Gestures: gestures,
		Monitor:  monitor,
		Recorder: rec,
		History:  history,
		Health:   hm,
		NewStream: func() stream.Stream {
			return stream.NewStaticStream("test",
				stream.NewTrack("v", stream.KindVideo, "testsrc"),
				stream.NewTrack("a", stream.KindAudio, "sine"),
			)
		},
	})
	return &testEnv{srv: srv, rec: rec, audio: audio, monitor: monitor, profile: latest, history: history}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.RemoteAddr = "10.0.0.1:4000"
	w := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

type problemBody struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`
	Detail    string `json:"detail"`
	RequestID string `json:"requestId"`
}

func requireProblem(t *testing.T, w *httptest.ResponseRecorder, status int, code string) problemBody {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	require.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	p := decode[problemBody](t, w)
	require.Equal(t, code, p.Code)
	require.Equal(t, status, p.Status)
	return p
}
