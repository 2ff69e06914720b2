// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package audiounlock

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSoftwareContext_Lifecycle(t *testing.T) {
	var sink bytes.Buffer
	c := NewSoftwareContext(&sink, 0)
	assert.Equal(t, 44100, c.SampleRate())
	assert.Equal(t, StateSuspended, c.State())

	assert.Error(t, c.PlaySilentBuffer(context.Background()), "suspended context cannot play")
	assert.ErrorIs(t, c.Resume(context.Background()), ErrNoGesture)

	gesture := WithUserGesture(context.Background())
	require.NoError(t, c.Resume(gesture))
	require.NoError(t, c.Resume(gesture), "resume is idempotent")
	require.NoError(t, c.PlaySilentBuffer(context.Background()))
	assert.Equal(t, []byte{0, 0}, sink.Bytes())
	assert.Equal(t, 1, c.FramesRendered())

	c.Close()
	assert.ErrorIs(t, c.Resume(gesture), ErrContextClosed)
}

func TestSoftwareContext_CanceledContext(t *testing.T) {
	c := NewSoftwareContext(nil, 8000)
	ctx, cancel := context.WithCancel(WithUserGesture(context.Background()))
	cancel()
	assert.ErrorIs(t, c.Resume(ctx), context.Canceled)
}

func TestUserGestureMarker(t *testing.T) {
	assert.False(t, IsUserGesture(context.Background()))
	assert.False(t, IsUserGesture(nil))
	assert.True(t, IsUserGesture(WithUserGesture(nil)))
}

func TestSoftwareElement_AutoplayPolicy(t *testing.T) {
	e := NewSoftwareElement()
	assert.True(t, e.Muted())
	assert.True(t, e.Paused())

	require.NoError(t, e.Play(context.Background()), "muted playback needs no gesture")
	assert.False(t, e.Paused())

	e.Pause()
	e.SetMuted(false)
	assert.ErrorIs(t, e.Play(context.Background()), ErrNoGesture)
	assert.True(t, e.Paused())

	require.NoError(t, e.Play(WithUserGesture(context.Background())))
	assert.False(t, e.Paused())
}

func TestSafeUnmuteVideo_SoftwareSurfaces(t *testing.T) {
	m := newTestManager(SoftwareContextFactory(nil, 0))

	plain := NewSoftwareElement()
	require.NoError(t, m.SafeUnmuteVideo(context.Background(), plain))
	assert.False(t, plain.Muted())
	assert.True(t, plain.Paused(), "unmuted playback stays paused outside a gesture")
	assert.False(t, m.IsAudioUnlocked())

	tapped := NewSoftwareElement()
	require.NoError(t, m.SafeUnmuteVideo(WithUserGesture(context.Background()), tapped))
	assert.False(t, tapped.Muted())
	assert.False(t, tapped.Paused())
	assert.True(t, m.IsAudioUnlocked())
}
