// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package metrics exposes Prometheus instruments for the capture subsystem.
package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recording outcomes.
const (
	OutcomeComplete    = "complete"
	OutcomeEmpty       = "empty"
	OutcomeStartFailed = "start_failed"
	OutcomeStopFailed  = "stop_failed"
	OutcomeValidation  = "validation_failed"
	OutcomeNotLoaded   = "backend_not_loaded"
	OutcomeTimeout     = "stop_timeout"
	OutcomeAbandoned   = "abandoned"
)

// Audio unlock results.
const (
	UnlockSuccess     = "success"
	UnlockUnsupported = "unsupported"
	UnlockDenied      = "resume_denied"
	UnlockPlayback    = "playback_failed"
	UnlockNoop        = "already_unlocked"
)

var (
	recordingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "capture_recordings_total",
		Help: "Recording sessions by terminal outcome",
	}, []string{"outcome", "container"})

	recordingBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "capture_recording_bytes",
		Help:    "Size of completed recordings in bytes",
		Buckets: prometheus.ExponentialBuckets(16*1024, 4, 10),
	})

	recordingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "capture_recording_duration_seconds",
		Help:    "Wall-clock duration of completed recordings",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
	})

	recordingsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "capture_recordings_active",
		Help: "Recording sessions currently recording or stopping",
	})

	audioUnlockTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "capture_audio_unlock_total",
		Help: "Audio unlock attempts by result",
	}, []string{"result"})

	platformProfilesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "capture_platform_profiles_total",
		Help: "Computed platform profiles by device family, container policy and webview flag",
	}, []string{"family", "container", "webview"})

	validationDefectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "capture_stream_validation_defects_total",
		Help: "Stream validation defects by kind",
	}, []string{"defect"})

	processSignalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "capture_encoder_signals_total",
		Help: "Signals sent to encoder process groups",
	}, []string{"signal", "result"})

	processExitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "capture_encoder_exits_total",
		Help: "Encoder process exits observed during termination",
	}, []string{"result"})
)

// RecordRecordingOutcome counts one terminal recording outcome.
func RecordRecordingOutcome(outcome, mimeType string) {
	recordingsTotal.WithLabelValues(normalizeOutcomeLabel(outcome), containerLabel(mimeType)).Inc()
}

// ObserveRecording records the size and duration of a completed recording.
func ObserveRecording(sizeBytes int, duration time.Duration) {
	recordingBytes.Observe(float64(sizeBytes))
	recordingDuration.Observe(duration.Seconds())
}

// IncActiveRecordings and DecActiveRecordings track live sessions.
func IncActiveRecordings() { recordingsActive.Inc() }

func DecActiveRecordings() { recordingsActive.Dec() }

// RecordAudioUnlock counts one unlock attempt.
func RecordAudioUnlock(result string) {
	audioUnlockTotal.WithLabelValues(normalizeUnlockLabel(result)).Inc()
}

// RecordPlatformProfile counts one computed profile.
func RecordPlatformProfile(family string, needsMP4, webView bool) {
	container := "webm"
	if needsMP4 {
		container = "mp4"
	}
	webview := "false"
	if webView {
		webview = "true"
	}
	platformProfilesTotal.WithLabelValues(normalizeFamilyLabel(family), container, webview).Inc()
}

// RecordValidationDefect counts one validation defect message.
func RecordValidationDefect(defect string) {
	validationDefectsTotal.WithLabelValues(normalizeDefectLabel(defect)).Inc()
}

// RecordProcessSignal counts one signal delivery attempt to an encoder process group.
func RecordProcessSignal(signal, result string) {
	processSignalsTotal.WithLabelValues(signal, result).Inc()
}

// RecordProcessExit counts how an encoder process ended after termination.
func RecordProcessExit(result string) {
	processExitsTotal.WithLabelValues(result).Inc()
}

func normalizeOutcomeLabel(outcome string) string {
	switch o := strings.ToLower(strings.TrimSpace(outcome)); o {
	case OutcomeComplete, OutcomeEmpty, OutcomeStartFailed, OutcomeStopFailed,
		OutcomeValidation, OutcomeNotLoaded, OutcomeTimeout, OutcomeAbandoned:
		return o
	default:
		return "unknown"
	}
}

func normalizeUnlockLabel(result string) string {
	switch r := strings.ToLower(strings.TrimSpace(result)); r {
	case UnlockSuccess, UnlockUnsupported, UnlockDenied, UnlockPlayback, UnlockNoop:
		return r
	default:
		return "unknown"
	}
}

func normalizeFamilyLabel(family string) string {
	switch f := strings.ToLower(strings.TrimSpace(family)); f {
	case "ios", "safari", "android", "other":
		return f
	default:
		return "other"
	}
}

func normalizeDefectLabel(defect string) string {
	d := strings.ToLower(defect)
	switch {
	case strings.Contains(d, "no media stream"):
		return "no_stream"
	case strings.Contains(d, "no tracks"):
		return "no_tracks"
	case strings.Contains(d, "audio"):
		return "no_active_audio"
	case strings.Contains(d, "video"):
		return "no_active_video"
	default:
		return "unknown"
	}
}

func containerLabel(mimeType string) string {
	m := strings.ToLower(strings.TrimSpace(mimeType))
	switch {
	case strings.HasPrefix(m, "video/mp4"):
		return "mp4"
	case strings.HasPrefix(m, "video/webm"):
		return "webm"
	case m == "":
		return "none"
	default:
		return "other"
	}
}
