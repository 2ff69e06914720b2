// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package recorder

import (
	"context"
	"time"

	"github.com/ManuGH/capturekit/internal/platform"
	"github.com/ManuGH/capturekit/internal/stream"
)

// Chunk is one periodic slice of encoded output.
type Chunk struct {
	Data     []byte
	MimeType string
}

// Backend encodes a bound stream into chunks.
//
// Chunk callbacks fire in capture order. The finalize callback fires once,
// after the last chunk, when the backend has fully stopped. Callbacks may run
// on any goroutine but never concurrently with each other.
type Backend interface {
	SetMimeType(mimeType string)
	// MimeType is the type the backend actually produces, possibly empty.
	MimeType() string
	OnChunk(fn func(Chunk))
	OnFinalize(fn func())
	Start(timeslice time.Duration) error
	// Stop requests termination. Finalize follows asynchronously.
	Stop() error
}

// BackendFactory constructs a backend bound to a stream.
type BackendFactory interface {
	Name() string
	New(s stream.Stream) (Backend, error)
}

// BackendLoader resolves a BackendFactory, typically after probing the host.
type BackendLoader func(ctx context.Context) (BackendFactory, error)

// Blob is the assembled output of a completed session.
type Blob struct {
	Data     []byte
	MimeType string
}

// Size returns the blob length in bytes.
func (b *Blob) Size() int {
	if b == nil {
		return 0
	}
	return len(b.Data)
}

// Diagnostics is the snapshot taken when a session completes.
type Diagnostics struct {
	SessionID  string `json:"sessionId"`
	MimeType   string `json:"mimeType"`
	HasVideo   bool   `json:"hasVideo"`
	HasAudio   bool   `json:"hasAudio"`
	SizeBytes  int    `json:"sizeBytes"`
	DurationMs int64  `json:"durationMs"`
	ChunkCount int    `json:"chunkCount"`
	Platform   string `json:"platform"`
	// Profile is the platform profile active when the session started.
	Profile   platform.Profile `json:"profile"`
	Backend   string           `json:"backend"`
	Warnings  []string         `json:"warnings,omitempty"`
	StartedAt time.Time        `json:"startedAt"`
}
