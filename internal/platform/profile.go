// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package platform derives a capture capability profile from ambient client signals.
package platform

const (
	// ContainerMP4 is the recording container iOS and Safari can play back.
	ContainerMP4 = "video/mp4"
	// ContainerWebM is the recording container used everywhere else.
	ContainerWebM = "video/webm"
)

// Family labels used for metrics and diagnostics.
const (
	FamilyIOS     = "ios"
	FamilySafari  = "safari"
	FamilyAndroid = "android"
	FamilyOther   = "other"
)

// Profile is a read-only capability snapshot. It is recomputed per call and never mutated.
type Profile struct {
	IsIOS     bool `json:"isIOS"`
	IsSafari  bool `json:"isSafari"`
	IsAndroid bool `json:"isAndroid"`
	IsWebView bool `json:"isWebView"`

	// NeedsMP4 is IsIOS || IsSafari and governs container choice everywhere.
	NeedsMP4 bool `json:"needsMP4"`

	// SupportedVideoMimeType is the first recording candidate accepted by the
	// record probe. Empty means no candidate is supported.
	SupportedVideoMimeType string `json:"supportedVideoMimeType,omitempty"`

	// PlaybackVideoMimeType is the first candidate accepted by the playback probe.
	PlaybackVideoMimeType string `json:"playbackVideoMimeType,omitempty"`
}

// HasSupportedVideoMimeType reports whether any recording candidate was accepted.
func (p Profile) HasSupportedVideoMimeType() bool {
	return p.SupportedVideoMimeType != ""
}

// ContainerMimeType returns the bare target container for this profile.
func (p Profile) ContainerMimeType() string {
	if p.NeedsMP4 {
		return ContainerMP4
	}
	return ContainerWebM
}

// Family returns a coarse device family label.
func (p Profile) Family() string {
	switch {
	case p.IsIOS:
		return FamilyIOS
	case p.IsSafari:
		return FamilySafari
	case p.IsAndroid:
		return FamilyAndroid
	default:
		return FamilyOther
	}
}
