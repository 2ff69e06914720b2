// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldSessionID = "session_id"
	FieldRequestID = "request_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldBackend   = "backend"

	// Media / capture fields
	FieldMimeType   = "mime_type"
	FieldTimeslice  = "timeslice"
	FieldChunks     = "chunks"
	FieldBytes      = "bytes"
	FieldDurationMs = "duration_ms"
	FieldPlatform   = "platform"
	FieldDevice     = "device"

	// State fields
	FieldOldState     = "old_state"
	FieldNewState     = "new_state"
	FieldContextState = "context_state"

	// Path fields
	FieldPath = "path"
)
