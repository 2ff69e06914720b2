// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getCounterVecValue(t *testing.T, counterVec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	metric := &dto.Metric{}
	require.NoError(t, counterVec.WithLabelValues(labels...).Write(metric))
	return metric.GetCounter().GetValue()
}

func TestRecordRecordingOutcome(t *testing.T) {
	initial := getCounterVecValue(t, recordingsTotal, "complete", "mp4")
	RecordRecordingOutcome("complete", "video/mp4;codecs=avc1")
	assert.Equal(t, initial+1, getCounterVecValue(t, recordingsTotal, "complete", "mp4"))
}

func TestRecordRecordingOutcome_NormalizesLabels(t *testing.T) {
	initial := getCounterVecValue(t, recordingsTotal, "unknown", "other")
	RecordRecordingOutcome("exploded", "audio/ogg")
	assert.Equal(t, initial+1, getCounterVecValue(t, recordingsTotal, "unknown", "other"))
}

func TestRecordAudioUnlock(t *testing.T) {
	initial := getCounterVecValue(t, audioUnlockTotal, UnlockDenied)
	RecordAudioUnlock(" RESUME_DENIED ")
	assert.Equal(t, initial+1, getCounterVecValue(t, audioUnlockTotal, UnlockDenied))
}

func TestRecordPlatformProfile(t *testing.T) {
	initial := getCounterVecValue(t, platformProfilesTotal, "ios", "mp4", "true")
	RecordPlatformProfile("ios", true, true)
	assert.Equal(t, initial+1, getCounterVecValue(t, platformProfilesTotal, "ios", "mp4", "true"))

	initial = getCounterVecValue(t, platformProfilesTotal, "other", "webm", "false")
	RecordPlatformProfile("blackberry", false, false)
	assert.Equal(t, initial+1, getCounterVecValue(t, platformProfilesTotal, "other", "webm", "false"))
}

func TestRecordValidationDefect(t *testing.T) {
	tests := []struct {
		defect string
		label  string
	}{
		{"no media stream provided", "no_stream"},
		{"stream has no tracks", "no_tracks"},
		{"no active audio track", "no_active_audio"},
		{"no active video track", "no_active_video"},
		{"???", "unknown"},
	}
	for _, tt := range tests {
		initial := getCounterVecValue(t, validationDefectsTotal, tt.label)
		RecordValidationDefect(tt.defect)
		assert.Equal(t, initial+1, getCounterVecValue(t, validationDefectsTotal, tt.label), tt.defect)
	}
}

func TestObserveRecordingAndActiveGauge(t *testing.T) {
	before := testutil.CollectAndCount(recordingBytes)
	ObserveRecording(4096, 3*time.Second)
	assert.Equal(t, before, testutil.CollectAndCount(recordingBytes))

	g := testutil.ToFloat64(recordingsActive)
	IncActiveRecordings()
	assert.Equal(t, g+1, testutil.ToFloat64(recordingsActive))
	DecActiveRecordings()
	assert.Equal(t, g, testutil.ToFloat64(recordingsActive))
}

func TestRecordProcessSignalAndExit(t *testing.T) {
	initial := getCounterVecValue(t, processSignalsTotal, "SIGINT", "sent")
	RecordProcessSignal("SIGINT", "sent")
	assert.Equal(t, initial+1, getCounterVecValue(t, processSignalsTotal, "SIGINT", "sent"))

	initial = getCounterVecValue(t, processExitsTotal, "forced_error")
	RecordProcessExit("forced_error")
	assert.Equal(t, initial+1, getCounterVecValue(t, processExitsTotal, "forced_error"))
}
