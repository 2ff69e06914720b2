// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ManuGH/capturekit/internal/api/middleware"
	"github.com/ManuGH/capturekit/internal/audiounlock"
	"github.com/ManuGH/capturekit/internal/config"
	"github.com/ManuGH/capturekit/internal/health"
	"github.com/ManuGH/capturekit/internal/recorder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const iPhoneUA = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t, withoutBackend())

	w := env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusOK, w.Code, "degraded recorder stays ready")
	ready := decode[health.ReadinessResponse](t, w)
	assert.Equal(t, health.StatusDegraded, ready.Status)
	assert.Equal(t, health.StatusDegraded, ready.Checks["recorder"].Status)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/api/v1/audio", nil)

	w := env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "capture_http_request_duration_seconds")
}

func TestUnknownRouteIsProblem(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/api/v1/nope", nil)
	p := requireProblem(t, w, http.StatusNotFound, "NOT_FOUND")
	assert.Equal(t, w.Header().Get(middleware.HeaderRequestID), p.RequestID)
}

func TestProfile(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/profile", map[string]any{
		"userAgent":       iPhoneUA,
		"maxTouchPoints":  5,
		"recordableTypes": []string{"video/mp4", "video/webm"},
		"playableTypes":   []string{"video/mp4"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got := decode[profileResponse](t, w)
	assert.True(t, got.IsIOS)
	assert.True(t, got.NeedsMP4)
	assert.Equal(t, "video/mp4", got.SupportedVideoMimeType)
	assert.Equal(t, "video/mp4", got.PlaybackVideoMimeType)
	assert.Equal(t, "ios", got.Family)

	assert.Equal(t, got.Profile, env.profile.Load(), "profile feeds later recordings")
}

func TestProfile_DefaultsToRequestUserAgent(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/profile", nil)
	req.Header.Set("User-Agent", iPhoneUA)
	w := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	got := decode[profileResponse](t, w)
	assert.True(t, got.IsIOS)
	assert.Empty(t, got.SupportedVideoMimeType, "no probe means no supported type")
}

func TestProfile_RejectsUnknownFields(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/v1/profile", map[string]any{"agent": "x"})
	requireProblem(t, w, http.StatusBadRequest, "INVALID_BODY")
}

func TestRecordingLifecycle(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/recordings", nil)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	started := decode[recordingStatus](t, w)
	assert.Equal(t, recorder.StateRecording, started.State)
	assert.True(t, started.Recording)
	require.NotNil(t, started.Validation)
	assert.True(t, started.Validation.Valid)
	require.NotEmpty(t, started.SessionID)

	w = env.do(t, http.MethodPost, "/api/v1/recordings", nil)
	requireProblem(t, w, http.StatusConflict, "SESSION_BUSY")

	w = env.do(t, http.MethodPost, "/api/v1/recordings/stop", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "hello", w.Body.String())
	assert.Equal(t, "video/webm;codecs=vp8,opus", w.Header().Get("Content-Type"))
	assert.Equal(t, started.SessionID, w.Header().Get(HeaderSessionID))

	w = env.do(t, http.MethodGet, "/api/v1/recordings/current", nil)
	require.Equal(t, http.StatusOK, w.Code)
	cur := decode[recordingStatus](t, w)
	assert.Equal(t, recorder.StateComplete, cur.State)
	assert.False(t, cur.Recording)
	require.NotNil(t, cur.Diagnostics)
	assert.Equal(t, 5, cur.Diagnostics.SizeBytes)

	w = env.do(t, http.MethodGet, "/api/v1/recordings/current/blob", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello", w.Body.String())

	w = env.do(t, http.MethodGet, "/api/v1/recordings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Recordings []recorder.Diagnostics `json:"recordings"`
	}](t, w)
	require.Len(t, list.Recordings, 1)
	assert.Equal(t, started.SessionID, list.Recordings[0].SessionID)

	w = env.do(t, http.MethodGet, "/api/v1/recordings/"+started.SessionID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, started.SessionID, decode[recorder.Diagnostics](t, w).SessionID)

	w = env.do(t, http.MethodGet, "/api/v1/recordings/unknown", nil)
	requireProblem(t, w, http.StatusNotFound, "NOT_FOUND")
}

func TestRecording_UsesLatestProfile(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/v1/profile", map[string]any{"userAgent": iPhoneUA})

	require.Equal(t, http.StatusAccepted, env.do(t, http.MethodPost, "/api/v1/recordings", nil).Code)
	w := env.do(t, http.MethodPost, "/api/v1/recordings/stop", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "video/mp4", w.Header().Get("Content-Type"))
}

func TestRecording_NotLoaded(t *testing.T) {
	env := newTestEnv(t, withoutBackend())

	w := env.do(t, http.MethodPost, "/api/v1/recordings", nil)
	requireProblem(t, w, http.StatusServiceUnavailable, "BACKEND_NOT_LOADED")

	w = env.do(t, http.MethodGet, "/api/v1/recordings/current", nil)
	cur := decode[recordingStatus](t, w)
	assert.False(t, cur.Ready)
	assert.Contains(t, cur.Error, "not loaded")
}

func TestRecording_StopWithoutSession(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/v1/recordings/stop", nil)
	requireProblem(t, w, http.StatusNotFound, "NO_RECORDING")

	w = env.do(t, http.MethodGet, "/api/v1/recordings/current/blob", nil)
	requireProblem(t, w, http.StatusNotFound, "NO_RECORDING")
}

func TestRecording_EmptyCaptureIsNoData(t *testing.T) {
	env := newTestEnv(t, func(_ *config.ServerConfig, opts *[]recorder.Option) {
		*opts = append(*opts, recorder.WithBackendFactory(syncFactory{}))
	})

	require.Equal(t, http.StatusAccepted, env.do(t, http.MethodPost, "/api/v1/recordings", nil).Code)
	w := env.do(t, http.MethodPost, "/api/v1/recordings/stop", nil)
	p := requireProblem(t, w, http.StatusUnprocessableEntity, "NO_DATA")
	assert.Contains(t, p.Detail, "no data captured")
}

func TestAudio_GestureUnlocks(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/audio", nil)
	require.Equal(t, http.StatusOK, w.Code)
	st := decode[audioStatus](t, w)
	assert.False(t, st.Unlocked)
	assert.Equal(t, audiounlock.StateNone, st.ContextState)

	w = env.do(t, http.MethodPost, "/api/v1/audio/gesture", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[gestureResponse](t, w)
	assert.Equal(t, "click", got.Event)
	assert.Equal(t, 1, got.Listeners)
	assert.True(t, got.Unlocked)
	assert.Equal(t, audiounlock.StateRunning, got.ContextState)

	// listeners are gone after the first successful unlock
	w = env.do(t, http.MethodPost, "/api/v1/audio/gesture", map[string]string{"event": "touchend"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[gestureResponse](t, w).Listeners)
	assert.True(t, env.audio.IsAudioUnlocked())
}

func TestAudio_UnmuteMonitor(t *testing.T) {
	env := newTestEnv(t)

	st := decode[audioStatus](t, env.do(t, http.MethodGet, "/api/v1/audio", nil))
	require.NotNil(t, st.Monitor)
	assert.True(t, st.Monitor.Muted)
	assert.True(t, st.Monitor.Paused)

	w := env.do(t, http.MethodPost, "/api/v1/audio/unmute", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	st = decode[audioStatus](t, w)
	assert.True(t, st.Unlocked)
	assert.Equal(t, audiounlock.StateRunning, st.ContextState)
	require.NotNil(t, st.Monitor)
	assert.False(t, st.Monitor.Muted)
	assert.False(t, st.Monitor.Paused)
	assert.False(t, env.monitor.Muted())
}

func TestAudio_UnknownGesture(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/v1/audio/gesture", map[string]string{"event": "scroll"})
	requireProblem(t, w, http.StatusBadRequest, "UNKNOWN_EVENT")
	assert.False(t, env.audio.IsAudioUnlocked())
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, withRateLimit(2))

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/v1/audio", nil).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, env.do(t, http.MethodGet, "/api/v1/audio", nil).Code)

	// probes are outside the limited group
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/healthz", nil).Code)
}

func TestRecorderErrorStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{recorder.ErrSessionBusy, http.StatusConflict, "SESSION_BUSY"},
		{recorder.ErrBackendNotLoaded, http.StatusServiceUnavailable, "BACKEND_NOT_LOADED"},
		{recorder.ErrClosed, http.StatusServiceUnavailable, "RECORDER_CLOSED"},
		{fmt.Errorf("%w: stream has no tracks", recorder.ErrValidationFailed), http.StatusUnprocessableEntity, "INVALID_STREAM"},
		{recorder.ErrNoStream, http.StatusUnprocessableEntity, "INVALID_STREAM"},
		{recorder.ErrNoData, http.StatusUnprocessableEntity, "NO_DATA"},
		{recorder.ErrStopTimeout, http.StatusGatewayTimeout, "STOP_TIMEOUT"},
		{context.DeadlineExceeded, http.StatusServiceUnavailable, "REQUEST_CANCELED"},
		{fmt.Errorf("%w: exec failed", recorder.ErrBackendStart), http.StatusBadGateway, "BACKEND_FAILED"},
		{errors.New("other"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tt := range tests {
		t.Run(tt.code+"/"+tt.err.Error(), func(t *testing.T) {
			status, code := recorderErrorStatus(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestShutdownWithoutListen(t *testing.T) {
	env := newTestEnv(t)
	assert.NoError(t, env.srv.Shutdown(context.Background()))
}
