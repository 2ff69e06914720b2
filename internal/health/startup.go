// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strconv"

	"github.com/ManuGH/capturekit/internal/config"
	"github.com/ManuGH/capturekit/internal/log"
	"github.com/rs/zerolog"
)

// PerformStartupChecks validates the environment before the server starts.
// A missing ffmpeg binary only warns; the recorder stays degraded instead.
func PerformStartupChecks(_ context.Context, cfg config.Config) error {
	logger := log.WithComponent("startup-check")
	logger.Info().Msg("running pre-flight startup checks")

	if err := checkListenAddr(logger, cfg.Server.ListenAddr); err != nil {
		return fmt.Errorf("listen address check failed: %w", err)
	}

	if dir := cfg.Recording.DiagnosticsDir; dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("diagnostics directory check failed: %w", err)
		}
		if err := checkWritableDir(dir); err != nil {
			return fmt.Errorf("diagnostics directory check failed: %w", err)
		}
		logger.Info().Str("path", dir).Msg("diagnostics directory is writable")
	}

	if _, err := exec.LookPath(cfg.Recording.FFmpegPath); err != nil {
		logger.Warn().
			Err(err).
			Str("ffmpeg", cfg.Recording.FFmpegPath).
			Msg("ffmpeg binary not found; recording stays unavailable")
	}

	logger.Info().Msg("all startup checks passed")
	return nil
}

func checkListenAddr(logger zerolog.Logger, addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	portNum, err := strconv.Atoi(port)
	if err != nil || portNum < 0 || portNum > 65535 {
		return fmt.Errorf("invalid listen port %q in %q", port, addr)
	}
	logger.Info().Str("addr", addr).Msg("listen address is valid")
	return nil
}
