// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ManuGH/capturekit/internal/metrics"
	"github.com/ManuGH/capturekit/internal/platform"
)

const maxBodyBytes = 64 << 10

// profileRequest carries the client-reported signals. A nil type list means
// the client has no probe for that capability.
type profileRequest struct {
	UserAgent       string   `json:"userAgent"`
	Platform        string   `json:"platform"`
	MaxTouchPoints  int      `json:"maxTouchPoints"`
	RecordableTypes []string `json:"recordableTypes"`
	PlayableTypes   []string `json:"playableTypes"`
}

type profileResponse struct {
	platform.Profile
	Family string `json:"family"`
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeBody(r, &req); err != nil {
		writeProblem(w, r, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if req.UserAgent == "" {
		req.UserAgent = r.UserAgent()
	}

	env := platform.Environment{
		UserAgent:      req.UserAgent,
		Platform:       req.Platform,
		MaxTouchPoints: req.MaxTouchPoints,
	}
	if req.RecordableTypes != nil {
		env.RecordProbe = platform.NewStaticProbe(req.RecordableTypes...)
	}
	if req.PlayableTypes != nil {
		env.PlayProbe = platform.NewStaticProbe(req.PlayableTypes...)
	}

	p := s.deps.Profiler.Profile(env)
	s.deps.Profile.Store(p)
	metrics.RecordPlatformProfile(p.Family(), p.NeedsMP4, p.IsWebView)

	writeJSON(w, http.StatusOK, profileResponse{Profile: p, Family: p.Family()})
}

// decodeBody decodes an optional JSON body. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
