// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package ffmpeg records device streams by running ffmpeg as a subprocess and
// slicing its stdout into timed chunks.
package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	xglog "github.com/ManuGH/capturekit/internal/log"
	"github.com/ManuGH/capturekit/internal/recorder"
	"github.com/ManuGH/capturekit/internal/stream"
	"github.com/rs/zerolog"
)

// DefaultStopGrace is how long ffmpeg may take to write its trailer after SIGINT.
const DefaultStopGrace = 5 * time.Second

// Factory builds ffmpeg backends for streams whose tracks carry device identifiers.
type Factory struct {
	BinPath     string
	InputFormat string
	StopGrace   time.Duration
	Logger      zerolog.Logger

	// Version is the first line of `ffmpeg -version`, set by Loader.
	Version string

	command func(name string, args ...string) *exec.Cmd
}

var _ recorder.BackendFactory = (*Factory)(nil)

func (f *Factory) Name() string { return "ffmpeg" }

// New binds a backend to the live, enabled tracks of s.
func (f *Factory) New(s stream.Stream) (recorder.Backend, error) {
	ss, ok := s.(*stream.StaticStream)
	if !ok || ss == nil {
		return nil, ErrUnsupportedStream
	}

	var inputs []Input
	for _, t := range ss.StaticTracks() {
		if !stream.IsActive(t) || t.Device() == "" {
			continue
		}
		inputs = append(inputs, Input{Kind: t.Kind(), Device: t.Device()})
	}
	if len(inputs) == 0 {
		return nil, ErrNoInputs
	}

	grace := f.StopGrace
	if grace <= 0 {
		grace = DefaultStopGrace
	}
	command := f.command
	if command == nil {
		command = exec.Command
	}
	return &Backend{
		bin:         f.BinPath,
		inputFormat: f.InputFormat,
		inputs:      inputs,
		grace:       grace,
		logger:      f.Logger.With().Str(xglog.FieldBackend, f.Name()).Logger(),
		command:     command,
		container:   ContainerWebM,
	}, nil
}

// Loader resolves the ffmpeg binary and checks that it runs. The returned
// loader is meant for recorder.Controller.LoadBackend.
func Loader(f Factory) recorder.BackendLoader {
	return func(ctx context.Context) (recorder.BackendFactory, error) {
		bin := strings.TrimSpace(f.BinPath)
		if bin == "" {
			bin = "ffmpeg"
		}
		path, err := exec.LookPath(bin)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBinaryNotFound, err)
		}

		out, err := exec.CommandContext(ctx, path, "-hide_banner", "-version").Output()
		if err != nil {
			return nil, fmt.Errorf("%w: %s -version: %v", ErrBinaryNotFound, path, err)
		}

		loaded := f
		loaded.BinPath = path
		loaded.Version = firstLine(out)
		loaded.Logger.Info().
			Str(xglog.FieldEvent, "ffmpeg.resolved").
			Str(xglog.FieldPath, path).
			Str("version", loaded.Version).
			Msg("ffmpeg available")
		return &loaded, nil
	}
}

func firstLine(b []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(b))
	if sc.Scan() {
		return strings.TrimSpace(sc.Text())
	}
	return ""
}
