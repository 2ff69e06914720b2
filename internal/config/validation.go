// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"fmt"
	"net"

	"github.com/ManuGH/capturekit/internal/telemetry"
	"github.com/rs/zerolog"
)

// Validate reports every invalid field, each wrapped with ErrInvalidConfig.
func Validate(cfg Config) error {
	var errs []error
	fail := func(field, format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s: %s", ErrInvalidConfig, field, fmt.Sprintf(format, args...)))
	}

	if _, err := zerolog.ParseLevel(cfg.Log.Level); err != nil {
		fail("log.level", "unknown level %q", cfg.Log.Level)
	}

	if cfg.Server.ListenAddr == "" {
		fail("server.listenAddr", "must not be empty")
	} else if _, _, err := net.SplitHostPort(cfg.Server.ListenAddr); err != nil {
		fail("server.listenAddr", "%v", err)
	}
	if cfg.Server.RateLimit.Requests <= 0 {
		fail("server.rateLimit.requests", "must be positive, got %d", cfg.Server.RateLimit.Requests)
	}
	if cfg.Server.RateLimit.Window <= 0 {
		fail("server.rateLimit.window", "must be positive, got %s", cfg.Server.RateLimit.Window)
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		fail("server.shutdownTimeout", "must be positive, got %s", cfg.Server.ShutdownTimeout)
	}

	r := cfg.Recording
	if r.Timeslice <= 0 {
		fail("recording.timeslice", "must be positive, got %s", r.Timeslice)
	}
	if r.StopTimeout <= 0 {
		fail("recording.stopTimeout", "must be positive, got %s", r.StopTimeout)
	}
	if r.HistorySize <= 0 {
		fail("recording.historySize", "must be positive, got %d", r.HistorySize)
	}
	if r.FFmpegPath == "" {
		fail("recording.ffmpegPath", "must not be empty")
	}
	if r.Input.Video == "" && r.Input.Audio == "" {
		fail("recording.input", "at least one of video or audio is required")
	}

	t := cfg.Telemetry
	if t.SamplingRate < 0 || t.SamplingRate > 1 {
		fail("telemetry.samplingRate", "must be within [0,1], got %g", t.SamplingRate)
	}
	if t.Enabled {
		if !telemetry.SupportedExporter(t.Exporter) {
			fail("telemetry.exporter", "must be %s or %s, got %q", telemetry.ExporterGRPC, telemetry.ExporterHTTP, t.Exporter)
		}
		if t.Endpoint == "" {
			fail("telemetry.endpoint", "required when telemetry is enabled")
		}
	}


	return errors.Join(errs...)
}
