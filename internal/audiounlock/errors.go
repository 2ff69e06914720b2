// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package audiounlock

import "errors"

var (
	ErrUnsupported    = errors.New("audio context unsupported in this environment")
	ErrResumeDenied   = errors.New("audio context resume denied")
	ErrPlaybackFailed = errors.New("silent buffer playback failed")
	ErrNoElement      = errors.New("no media element")
	ErrStillMuted     = errors.New("media element is still muted")
	ErrNoGesture      = errors.New("not called from a user gesture")
	ErrContextClosed  = errors.New("audio context closed")
)
