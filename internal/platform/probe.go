// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package platform

import (
	"strings"
)

// Probe answers whether a container/codec string is supported by the runtime.
type Probe interface {
	Supports(mimeType string) bool
}

// ProbeFunc adapts a function to Probe.
type ProbeFunc func(mimeType string) bool

func (f ProbeFunc) Supports(mimeType string) bool {
	return f(mimeType)
}

// StaticProbe accepts a fixed set of MIME strings declared by a client.
// Matching ignores case and whitespace around ';', ',' and '='.
type StaticProbe struct {
	accepted map[string]struct{}
}

// NewStaticProbe builds a probe that accepts exactly the given types.
func NewStaticProbe(types ...string) *StaticProbe {
	p := &StaticProbe{accepted: make(map[string]struct{}, len(types))}
	for _, t := range types {
		n := NormalizeMimeType(t)
		if n == "" {
			continue
		}
		p.accepted[n] = struct{}{}
	}
	return p
}

func (p *StaticProbe) Supports(mimeType string) bool {
	if p == nil {
		return false
	}
	_, ok := p.accepted[NormalizeMimeType(mimeType)]
	return ok
}

// NormalizeMimeType lower-cases a MIME string and strips insignificant whitespace
// and quotes, so `video/mp4; codecs="avc1, mp4a.40.2"` equals `video/mp4;codecs=avc1,mp4a.40.2`.
func NormalizeMimeType(mimeType string) string {
	s := strings.ToLower(strings.TrimSpace(mimeType))
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, `"`, "")
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == ' ' || r == '\t' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// safeSupports shields profiling from a misbehaving probe.
func safeSupports(p Probe, mimeType string) (ok bool) {
	if p == nil {
		return false
	}
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return p.Supports(mimeType)
}
