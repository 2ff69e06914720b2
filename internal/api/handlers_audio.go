// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"errors"
	"net/http"
	"slices"

	"github.com/ManuGH/capturekit/internal/audiounlock"
)

type audioStatus struct {
	Unlocked     bool                     `json:"unlocked"`
	ContextState audiounlock.ContextState `json:"contextState"`
	Monitor      *monitorStatus           `json:"monitor,omitempty"`
}

type monitorStatus struct {
	Muted  bool `json:"muted"`
	Paused bool `json:"paused"`
}

type gestureRequest struct {
	Event string `json:"event"`
}

type gestureResponse struct {
	Event     string `json:"event"`
	Listeners int    `json:"listeners"`
	audioStatus
}

func (s *Server) audioStatus() audioStatus {
	st := audioStatus{
		Unlocked:     s.deps.Audio.IsAudioUnlocked(),
		ContextState: s.deps.Audio.AudioContextState(),
	}
	if m := s.deps.Monitor; m != nil {
		st.Monitor = &monitorStatus{Muted: m.Muted(), Paused: m.Paused()}
	}
	return st
}

func (s *Server) handleAudioStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.audioStatus())
}

// handleGesture feeds a user interaction into the gesture dispatcher.
func (s *Server) handleGesture(w http.ResponseWriter, r *http.Request) {
	req := gestureRequest{Event: "click"}
	if err := decodeBody(r, &req); err != nil {
		writeProblem(w, r, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if !slices.Contains(audiounlock.UnlockEvents, req.Event) {
		writeProblem(w, r, http.StatusBadRequest, "UNKNOWN_EVENT", "unsupported gesture event "+req.Event)
		return
	}

	n := s.deps.Gestures.Dispatch(r.Context(), req.Event)
	writeJSON(w, http.StatusOK, gestureResponse{
		Event:       req.Event,
		Listeners:   n,
		audioStatus: s.audioStatus(),
	})
}

// handleUnmute unmutes the monitor surface. The request is the user's own
// action, so it runs as a gesture.
func (s *Server) handleUnmute(w http.ResponseWriter, r *http.Request) {
	if s.deps.Monitor == nil {
		writeProblem(w, r, http.StatusNotFound, "NO_MONITOR", "no monitor surface configured")
		return
	}
	err := s.deps.Audio.SafeUnmuteVideo(audiounlock.WithUserGesture(r.Context()), s.deps.Monitor)
	if errors.Is(err, audiounlock.ErrStillMuted) {
		writeProblem(w, r, http.StatusConflict, "STILL_MUTED", err.Error())
		return
	}
	if err != nil {
		writeProblem(w, r, http.StatusInternalServerError, "INTERNAL", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.audioStatus())
}
