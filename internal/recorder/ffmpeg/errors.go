// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ffmpeg

import "errors"

var (
	ErrBinaryNotFound    = errors.New("ffmpeg binary not found")
	ErrUnsupportedStream = errors.New("stream has no device bindings")
	ErrNoInputs          = errors.New("stream has no live, enabled tracks")
	ErrNotStarted        = errors.New("ffmpeg recorder not started")
	ErrAlreadyStarted    = errors.New("ffmpeg recorder already started")
)
