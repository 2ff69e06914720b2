// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLatest(t *testing.T) {
	var l Latest
	assert.Equal(t, Profile{}, l.Load())

	p := Profile{IsSafari: true, NeedsMP4: true}
	l.Store(p)
	p.NeedsMP4 = false

	assert.True(t, l.Load().NeedsMP4, "stored profile is a copy")
}
