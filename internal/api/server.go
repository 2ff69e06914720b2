// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api exposes the capture subsystem over HTTP.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/ManuGH/capturekit/internal/api/middleware"
	"github.com/ManuGH/capturekit/internal/audiounlock"
	"github.com/ManuGH/capturekit/internal/config"
	"github.com/ManuGH/capturekit/internal/diagnostics"
	"github.com/ManuGH/capturekit/internal/health"
	xglog "github.com/ManuGH/capturekit/internal/log"
	"github.com/ManuGH/capturekit/internal/platform"
	"github.com/ManuGH/capturekit/internal/recorder"
	"github.com/ManuGH/capturekit/internal/stream"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Deps are the collaborators the API serves. Monitor and TracingService are optional.
type Deps struct {
	Server   config.ServerConfig
	Profiler *platform.Profiler
	Profile  *platform.Latest
	Audio    *audiounlock.Manager
	Gestures *audiounlock.Dispatcher
	// Monitor is the playback surface unmuted by POST /api/v1/audio/unmute. Optional.
	Monitor  audiounlock.MediaElement
	Recorder *recorder.Controller
	History  *diagnostics.Store
	Health   *health.Manager

	// NewStream builds the capture stream for a new recording.
	NewStream func() stream.Stream

	// TracingService enables request tracing when non-empty.
	TracingService string
}

// Server is the HTTP control surface.
type Server struct {
	deps   Deps
	logger zerolog.Logger
	router chi.Router
	http   *http.Server
}

// New builds the router. Nothing listens until Serve.
func New(deps Deps) *Server {
	s := &Server{
		deps:   deps,
		logger: xglog.WithComponent("api"),
	}
	s.router = s.routes()
	s.http = &http.Server{
		Addr:              deps.Server.ListenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

func (s *Server) routes() chi.Router {
	r := middleware.NewRouter(middleware.StackConfig{
		EnableMetrics:  true,
		EnableLogging:  true,
		TracingService: s.deps.TracingService,
	})

	r.Get("/healthz", s.deps.Health.ServeHealth)
	r.Get("/readyz", s.deps.Health.ServeReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestLimit: s.deps.Server.RateLimit.Requests,
			WindowSize:   s.deps.Server.RateLimit.Window,
		}))

		r.Post("/profile", s.handleProfile)

		r.Route("/recordings", func(r chi.Router) {
			r.Get("/", s.handleListRecordings)
			r.Post("/", s.handleStartRecording)
			r.Post("/stop", s.handleStopRecording)
			r.Get("/current", s.handleCurrentRecording)
			r.Get("/current/blob", s.handleCurrentBlob)
			r.Get("/{id}", s.handleGetRecording)
		})

		r.Route("/audio", func(r chi.Router) {
			r.Get("/", s.handleAudioStatus)
			r.Post("/gesture", s.handleGesture)
			r.Post("/unmute", s.handleUnmute)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, r, http.StatusNotFound, "NOT_FOUND", "no such route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "")
	})
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve accepts connections on ln until Shutdown. It returns nil after a
// clean shutdown, including a shutdown that happened before Serve was called.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info().Str(xglog.FieldEvent, "api.listening").Str("addr", ln.Addr().String()).Msg("api server listening")
	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Str(xglog.FieldEvent, "api.shutdown").Msg("api server shutting down")
	return s.http.Shutdown(ctx)
}
