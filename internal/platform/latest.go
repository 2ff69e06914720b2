// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package platform

import "sync/atomic"

// Latest holds the most recently computed profile. The zero value holds the
// zero Profile.
type Latest struct {
	p atomic.Pointer[Profile]
}

// Store replaces the held profile.
func (l *Latest) Store(p Profile) {
	l.p.Store(&p)
}

// Load returns the held profile.
func (l *Latest) Load() Profile {
	if p := l.p.Load(); p != nil {
		return *p
	}
	return Profile{}
}
