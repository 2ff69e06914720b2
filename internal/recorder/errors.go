// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package recorder

import "errors"

var (
	ErrNoStream         = errors.New("no media stream")
	ErrBackendNotLoaded = errors.New("recorder backend not loaded yet")
	ErrValidationFailed = errors.New("stream validation failed")
	ErrSessionBusy      = errors.New("recording session already active")
	ErrNoData           = errors.New("no data captured")
	ErrBackendStart     = errors.New("recorder backend failed to start")
	ErrBackendStop      = errors.New("recorder backend failed to stop")
	ErrStopTimeout      = errors.New("recorder backend did not finalize in time")
	ErrClosed           = errors.New("recorder closed")
)
