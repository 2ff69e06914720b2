// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package stream

import (
	"sync"
)

// StaticTrack is an in-process Track whose state is driven by its owner.
type StaticTrack struct {
	id     string
	kind   TrackKind
	device string

	mu      sync.RWMutex
	state   ReadyState
	enabled bool
}

// NewTrack returns a live, enabled track bound to a capture device identifier.
func NewTrack(id string, kind TrackKind, device string) *StaticTrack {
	return &StaticTrack{
		id:      id,
		kind:    kind,
		device:  device,
		state:   ReadyStateLive,
		enabled: true,
	}
}

func (t *StaticTrack) ID() string      { return t.id }
func (t *StaticTrack) Kind() TrackKind { return t.kind }

// Device is the capture device identifier this track reads from.
func (t *StaticTrack) Device() string { return t.device }

func (t *StaticTrack) ReadyState() ReadyState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

func (t *StaticTrack) Enabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// SetEnabled toggles the administrative enabled flag.
func (t *StaticTrack) SetEnabled(enabled bool) {
	t.mu.Lock()
	t.enabled = enabled
	t.mu.Unlock()
}

// Stop ends the track permanently.
func (t *StaticTrack) Stop() {
	t.mu.Lock()
	t.state = ReadyStateEnded
	t.mu.Unlock()
}

// StaticStream is an in-process Stream over a fixed set of tracks.
type StaticStream struct {
	id     string
	mu     sync.RWMutex
	tracks []*StaticTrack
}

// NewStaticStream returns a stream over tracks.
func NewStaticStream(id string, tracks ...*StaticTrack) *StaticStream {
	return &StaticStream{id: id, tracks: tracks}
}

func (s *StaticStream) ID() string {
	if s == nil {
		return ""
	}
	return s.id
}

func (s *StaticStream) Tracks() []Track {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Track, 0, len(s.tracks))
	for _, t := range s.tracks {
		out = append(out, t)
	}
	return out
}

// StaticTracks returns the concrete tracks, for backends that need device identifiers.
func (s *StaticStream) StaticTracks() []*StaticTrack {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*StaticTrack, len(s.tracks))
	copy(out, s.tracks)
	return out
}

// AddTrack appends a track to the stream.
func (s *StaticStream) AddTrack(t *StaticTrack) {
	s.mu.Lock()
	s.tracks = append(s.tracks, t)
	s.mu.Unlock()
}

// Stop ends every track. Only the stream owner calls this.
func (s *StaticStream) Stop() {
	for _, t := range s.StaticTracks() {
		t.Stop()
	}
}
