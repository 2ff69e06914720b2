// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package daemon wires the capture subsystem together and owns its runtime lifecycle.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/ManuGH/capturekit/internal/api"
	"github.com/ManuGH/capturekit/internal/audiounlock"
	"github.com/ManuGH/capturekit/internal/config"
	"github.com/ManuGH/capturekit/internal/diagnostics"
	"github.com/ManuGH/capturekit/internal/health"
	xglog "github.com/ManuGH/capturekit/internal/log"
	"github.com/ManuGH/capturekit/internal/platform"
	"github.com/ManuGH/capturekit/internal/recorder"
	"github.com/ManuGH/capturekit/internal/recorder/ffmpeg"
	"github.com/ManuGH/capturekit/internal/telemetry"
	"github.com/ManuGH/capturekit/internal/version"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// audioSampleRate is the rate of the software playback context.
const audioSampleRate = 48000

// ShutdownHook performs cleanup during graceful shutdown.
// Hooks are executed in reverse registration order (LIFO).
type ShutdownHook func(ctx context.Context) error

type namedHook struct {
	name string
	hook ShutdownHook
}

// App owns the long-lived runtime: the API server, the background backend
// load and the ordered shutdown of everything Build constructed.
type App struct {
	cfg    config.Config
	logger zerolog.Logger

	server   *api.Server
	recorder *recorder.Controller
	loader   recorder.BackendLoader

	hooks   []namedHook
	running atomic.Bool

	mu   sync.Mutex
	addr string
}

// Build constructs every component from cfg. Nothing runs until Run.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	a := &App{
		cfg:    cfg,
		logger: xglog.WithComponent("daemon"),
	}

	backend := ffmpeg.Factory{
		BinPath:     cfg.Recording.FFmpegPath,
		InputFormat: cfg.Recording.Input.Format,
		Logger:      xglog.WithComponent("ffmpeg"),
	}

	tcfg := cfg.Telemetry.Trace(cfg.Log.Service, cfg.Version)
	tcfg.Commit = version.Commit
	tcfg.Backend = backend.Name()
	tp, err := telemetry.NewProvider(ctx, tcfg)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	a.RegisterShutdownHook("telemetry", tp.Shutdown)

	profiler := platform.NewProfiler(cfg.Platform.Signatures())
	latest := &platform.Latest{}
	latest.Store(profiler.HostProfile(
		platform.NewStaticProbe(cfg.Platform.RecordableTypes...),
		platform.NewStaticProbe(cfg.Platform.PlayableTypes...),
	))

	audio := audiounlock.NewManager(audiounlock.SoftwareContextFactory(io.Discard, audioSampleRate))
	gestures := audiounlock.NewDispatcher()
	monitor := audiounlock.NewSoftwareElement()
	removeUnlock := audio.SetupAutoUnlock(gestures)
	a.RegisterShutdownHook("audio-unlock", func(context.Context) error {
		removeUnlock()
		return nil
	})

	history, err := diagnostics.NewStore(cfg.Recording.HistorySize)
	if err != nil {
		return nil, fmt.Errorf("diagnostics store: %w", err)
	}
	var exporter *diagnostics.Exporter
	if cfg.Recording.DiagnosticsDir != "" {
		if exporter, err = diagnostics.NewExporter(cfg.Recording.DiagnosticsDir); err != nil {
			return nil, fmt.Errorf("diagnostics exporter: %w", err)
		}
	}

	a.recorder = recorder.New(
		recorder.WithTimeslice(cfg.Recording.Timeslice),
		recorder.WithStopTimeout(cfg.Recording.StopTimeout),
		recorder.WithProfile(latest.Load),
		recorder.WithObserver(diagnostics.Recorder(history, exporter)),
	)
	a.RegisterShutdownHook("recorder", func(context.Context) error {
		a.recorder.Close()
		return nil
	})
	a.loader = ffmpeg.Loader(backend)

	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(health.NewRecorderChecker(a.recorder))
	hm.RegisterChecker(health.NewDirChecker("diagnostics_dir", cfg.Recording.DiagnosticsDir))

	var tracing string
	if cfg.Telemetry.Enabled {
		tracing = cfg.Log.Service
	}
	a.server = api.New(api.Deps{
		Server:         cfg.Server,
		Profiler:       profiler,
		Profile:        latest,
		Audio:          audio,
		Gestures:       gestures,
		Monitor:        monitor,
		Recorder:       a.recorder,
		History:        history,
		Health:         hm,
		NewStream:      deviceStreams(cfg.Recording.Input),
		TracingService: tracing,
	})
	a.RegisterShutdownHook("api", a.server.Shutdown)

	return a, nil
}

// RegisterShutdownHook registers a function to be called during shutdown.
func (a *App) RegisterShutdownHook(name string, hook ShutdownHook) {
	a.hooks = append(a.hooks, namedHook{name: name, hook: hook})
}

// Addr returns the bound listen address once Run has opened the listener.
func (a *App) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addr
}

// Recorder exposes the recording controller.
func (a *App) Recorder() *recorder.Controller {
	return a.recorder
}

// Run serves until ctx is cancelled or the server fails, then shuts down.
// A backend that fails to load leaves the recorder degraded but running.
func (a *App) Run(ctx context.Context) error {
	if !a.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	ln, err := net.Listen("tcp", a.cfg.Server.ListenAddr)
	if err != nil {
		a.shutdown()
		return fmt.Errorf("%w: %v", ErrServerStartFailed, err)
	}
	a.mu.Lock()
	a.addr = ln.Addr().String()
	a.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.server.Serve(ln)
	})

	g.Go(func() error {
		if err := <-a.recorder.LoadBackend(gctx, a.loader); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Warn().
				Err(err).
				Str(xglog.FieldEvent, "daemon.backend_unavailable").
				Msg("recording disabled until restart")
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.shutdown()
		return nil
	})

	a.logger.Info().
		Str(xglog.FieldEvent, "daemon.started").
		Str("addr", a.Addr()).
		Str("version", a.cfg.Version).
		Msg("capturekit running")

	return g.Wait()
}

// shutdown runs the hooks in reverse order within the configured timeout.
func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	for i := len(a.hooks) - 1; i >= 0; i-- {
		h := a.hooks[i]
		if err := h.hook(ctx); err != nil {
			a.logger.Warn().
				Err(err).
				Str(xglog.FieldEvent, "daemon.shutdown_hook_failed").
				Str("hook", h.name).
				Msg("shutdown hook failed")
			continue
		}
		a.logger.Debug().Str("hook", h.name).Msg("shutdown hook completed")
	}
	a.logger.Info().Str(xglog.FieldEvent, "daemon.stopped").Msg("capturekit stopped")
}
