// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package stream models live capture streams and validates them before recording.
package stream

// TrackKind is the media kind of a track.
type TrackKind string

const (
	KindAudio TrackKind = "audio"
	KindVideo TrackKind = "video"
)

// ReadyState is the lifecycle state of a track.
type ReadyState string

const (
	ReadyStateLive  ReadyState = "live"
	ReadyStateEnded ReadyState = "ended"
)

// Track is a single component of a capture stream.
type Track interface {
	ID() string
	Kind() TrackKind
	ReadyState() ReadyState
	// Enabled is false when the track is administratively disabled.
	Enabled() bool
}

// Stream is a live capture stream. It is owned by whoever requested device access;
// consumers only read track state.
type Stream interface {
	ID() string
	Tracks() []Track
}

// IsActive reports whether t is live and enabled.
func IsActive(t Track) bool {
	return t != nil && t.ReadyState() == ReadyStateLive && t.Enabled()
}
