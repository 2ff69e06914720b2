// SPDX-License-Identifier: MIT

// Package telemetry provides OpenTelemetry tracing utilities for capturekit.
package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	// Build attributes
	BuildCommitKey = "build.commit"

	// Recording attributes
	RecordingSessionIDKey = "recording.session_id"
	RecordingMimeTypeKey  = "recording.mime_type"
	RecordingBackendKey   = "recording.backend"
	RecordingBytesKey     = "recording.bytes"
	RecordingChunksKey    = "recording.chunks"
	RecordingDurationKey  = "recording.duration_ms"
	RecordingOutcomeKey   = "recording.outcome"

	// Platform attributes
	PlatformFamilyKey  = "platform.family"
	PlatformWebViewKey = "platform.webview"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// RecordingAttributes identifies a recording session. Empty values are omitted.
func RecordingAttributes(sessionID, mimeType, backend string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 3)
	if sessionID != "" {
		attrs = append(attrs, attribute.String(RecordingSessionIDKey, sessionID))
	}
	if mimeType != "" {
		attrs = append(attrs, attribute.String(RecordingMimeTypeKey, mimeType))
	}
	if backend != "" {
		attrs = append(attrs, attribute.String(RecordingBackendKey, backend))
	}
	return attrs
}

// RecordingResultAttributes describes a finished recording.
func RecordingResultAttributes(outcome string, sizeBytes, chunks int, durationMS int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(RecordingOutcomeKey, outcome),
		attribute.Int(RecordingBytesKey, sizeBytes),
		attribute.Int(RecordingChunksKey, chunks),
		attribute.Int64(RecordingDurationKey, durationMS),
	}
}

// PlatformAttributes describes the profiled client platform.
func PlatformAttributes(family string, webView bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(PlatformFamilyKey, family),
		attribute.Bool(PlatformWebViewKey, webView),
	}
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(_ error, errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
