// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/ManuGH/capturekit/internal/log"
	"github.com/ManuGH/capturekit/internal/recorder"
	"github.com/ManuGH/capturekit/internal/stream"
	"github.com/go-chi/chi/v5"
)

// HeaderSessionID names the recording session a blob belongs to.
const HeaderSessionID = "X-Recording-Session"

type recordingStatus struct {
	SessionID   string                `json:"sessionId,omitempty"`
	State       recorder.State        `json:"state"`
	Recording   bool                  `json:"recording"`
	Ready       bool                  `json:"ready"`
	Error       string                `json:"error,omitempty"`
	Validation  *stream.Validation    `json:"validation,omitempty"`
	Diagnostics *recorder.Diagnostics `json:"diagnostics,omitempty"`
}

func (s *Server) status() recordingStatus {
	rec := s.deps.Recorder
	st := recordingStatus{
		SessionID:   rec.SessionID(),
		State:       rec.State(),
		Recording:   rec.IsRecording(),
		Ready:       rec.Ready(),
		Validation:  rec.StreamValidation(),
		Diagnostics: rec.Diagnostics(),
	}
	if err := rec.Err(); err != nil {
		st.Error = err.Error()
	}
	return st
}

func (s *Server) handleStartRecording(w http.ResponseWriter, r *http.Request) {
	// The session outlives the request.
	ctx := context.WithoutCancel(r.Context())
	if err := s.deps.Recorder.Start(ctx, s.deps.NewStream()); err != nil {
		status, code := recorderErrorStatus(err)
		writeProblem(w, r, status, code, err.Error())
		return
	}
	logger := log.WithComponentFromContext(r.Context(), "api")
	logger.Info().
		Str(log.FieldEvent, "api.recording_started").
		Str(log.FieldSessionID, s.deps.Recorder.SessionID()).
		Msg("recording started")
	writeJSON(w, http.StatusAccepted, s.status())
}

func (s *Server) handleStopRecording(w http.ResponseWriter, r *http.Request) {
	blob, err := s.deps.Recorder.Stop(r.Context())
	if err != nil {
		status, code := recorderErrorStatus(err)
		writeProblem(w, r, status, code, err.Error())
		return
	}
	if blob == nil {
		writeProblem(w, r, http.StatusNotFound, "NO_RECORDING", "no recording available")
		return
	}
	writeBlob(w, s.deps.Recorder.SessionID(), blob)
}

func (s *Server) handleCurrentRecording(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handleCurrentBlob(w http.ResponseWriter, r *http.Request) {
	blob := s.deps.Recorder.RecordedBlob()
	if blob == nil {
		writeProblem(w, r, http.StatusNotFound, "NO_RECORDING", "no recording available")
		return
	}
	var id string
	if d := s.deps.Recorder.Diagnostics(); d != nil {
		id = d.SessionID
	}
	writeBlob(w, id, blob)
}

func (s *Server) handleListRecordings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"recordings": s.deps.History.List(),
	})
}

func (s *Server) handleGetRecording(w http.ResponseWriter, r *http.Request) {
	d, ok := s.deps.History.Get(chi.URLParam(r, "id"))
	if !ok {
		writeProblem(w, r, http.StatusNotFound, "NOT_FOUND", "unknown recording")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func writeBlob(w http.ResponseWriter, sessionID string, blob *recorder.Blob) {
	w.Header().Set("Content-Type", blob.MimeType)
	w.Header().Set("Content-Length", strconv.Itoa(blob.Size()))
	if sessionID != "" {
		w.Header().Set(HeaderSessionID, sessionID)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob.Data)
}

// recorderErrorStatus maps controller errors to an HTTP status and problem code.
func recorderErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, recorder.ErrSessionBusy):
		return http.StatusConflict, "SESSION_BUSY"
	case errors.Is(err, recorder.ErrBackendNotLoaded):
		return http.StatusServiceUnavailable, "BACKEND_NOT_LOADED"
	case errors.Is(err, recorder.ErrClosed):
		return http.StatusServiceUnavailable, "RECORDER_CLOSED"
	case errors.Is(err, recorder.ErrNoStream), errors.Is(err, recorder.ErrValidationFailed):
		return http.StatusUnprocessableEntity, "INVALID_STREAM"
	case errors.Is(err, recorder.ErrNoData):
		return http.StatusUnprocessableEntity, "NO_DATA"
	case errors.Is(err, recorder.ErrStopTimeout):
		return http.StatusGatewayTimeout, "STOP_TIMEOUT"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "REQUEST_CANCELED"
	case errors.Is(err, recorder.ErrBackendStart), errors.Is(err, recorder.ErrBackendStop):
		return http.StatusBadGateway, "BACKEND_FAILED"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}
