// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package platform

import (
	"strings"

	"github.com/ManuGH/capturekit/internal/core/useragent"
)

// Environment carries the ambient signals a profile is computed from.
// The zero value describes a host with no live client environment.
type Environment struct {
	UserAgent      string
	Platform       string
	MaxTouchPoints int

	// RecordProbe answers "can this string be recorded"; nil means no probe.
	RecordProbe Probe
	// PlayProbe answers "can this string be decoded/played"; nil means no probe.
	PlayProbe Probe
}

// Signatures is the WebView membership data. It is heuristic configuration,
// expected to be revisited per target platform.
type Signatures struct {
	// EmbeddingApps are tokens of known in-app browsers.
	EmbeddingApps []string
	// AppSignature is the token our own embedding host adds to its agent string.
	AppSignature string
	// IOSBrowserEngines are tokens of third-party iOS browsers, which are not WebViews.
	IOSBrowserEngines []string
}

// DefaultSignatures returns the built-in WebView membership lists.
func DefaultSignatures() Signatures {
	return Signatures{
		EmbeddingApps: []string{
			"FBAN", "FBAV", "Instagram", "Line/", "Twitter", "MicroMessenger", "Snapchat", "TikTok",
		},
		AppSignature:      "Warpcast",
		IOSBrowserEngines: []string{"CriOS", "FxiOS", "EdgiOS", "OPiOS"},
	}
}

var (
	mp4Candidates = []string{
		"video/mp4;codecs=avc1.42E01E,mp4a.40.2",
		"video/mp4;codecs=avc1,mp4a.40.2",
		"video/mp4;codecs=mp4a.40.2",
		"video/mp4",
	}
	webmCandidates = []string{
		"video/webm;codecs=vp9,opus",
		"video/webm;codecs=vp8,opus",
		"video/webm;codecs=vp8,vorbis",
		"video/webm",
		"video/mp4",
	}
)

// Profiler computes Profiles. It holds only configuration and is safe for concurrent use.
type Profiler struct {
	sig Signatures
}

// NewProfiler returns a profiler using sig as WebView membership data.
func NewProfiler(sig Signatures) *Profiler {
	return &Profiler{sig: sig}
}

// Candidates returns a copy of the ordered candidate list for the container policy.
// The MP4 list never contains a non-MP4 entry.
func (p *Profiler) Candidates(needsMP4 bool) []string {
	src := webmCandidates
	if needsMP4 {
		src = mp4Candidates
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// Profile derives the capability profile for env. It has no side effects and
// never panics. Without agent information the result is the zero Profile and
// no probe is consulted.
func (p *Profiler) Profile(env Environment) Profile {
	ua := env.UserAgent
	if strings.TrimSpace(ua) == "" {
		return Profile{}
	}

	var prof Profile
	// iPadOS in desktop mode reports a Mac platform but keeps multi-touch.
	prof.IsIOS = useragent.IsIOSDevice(ua) ||
		(useragent.IsDesktopMacPlatform(env.Platform) && env.MaxTouchPoints > 1)
	prof.IsSafari = useragent.IsSafariBrowser(ua)
	prof.IsAndroid = useragent.IsAndroid(ua)
	prof.IsWebView = p.isWebView(ua, prof)
	prof.NeedsMP4 = prof.IsIOS || prof.IsSafari

	candidates := p.Candidates(prof.NeedsMP4)
	prof.SupportedVideoMimeType = firstSupported(env.RecordProbe, candidates)
	prof.PlaybackVideoMimeType = firstSupported(env.PlayProbe, candidates)
	return prof
}

// HostProfile describes the recording host itself rather than a client: no
// platform flags are set and the MIME types come from the non-MP4 candidate
// list checked against the host's own probes.
func (p *Profiler) HostProfile(record, play Probe) Profile {
	candidates := p.Candidates(false)
	return Profile{
		SupportedVideoMimeType: firstSupported(record, candidates),
		PlaybackVideoMimeType:  firstSupported(play, candidates),
	}
}

// isWebView is a union of heuristics evaluated in a fixed order.
func (p *Profiler) isWebView(ua string, prof Profile) bool {
	if ua == "" {
		return false
	}
	if useragent.ContainsAnyToken(ua, p.sig.EmbeddingApps) {
		return true
	}
	if p.sig.AppSignature != "" && useragent.ContainsAnyToken(ua, []string{p.sig.AppSignature}) {
		return true
	}
	if prof.IsIOS && !prof.IsSafari && !useragent.ContainsAnyToken(ua, p.sig.IOSBrowserEngines) {
		return true
	}
	return prof.IsAndroid && useragent.HasAndroidWebViewToken(ua)
}

func firstSupported(probe Probe, candidates []string) string {
	if probe == nil {
		return ""
	}
	for _, c := range candidates {
		if safeSupports(probe, c) {
			return c
		}
	}
	return ""
}
