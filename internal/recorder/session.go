// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package recorder

import (
	"time"

	"github.com/ManuGH/capturekit/internal/fsm"
	"github.com/ManuGH/capturekit/internal/platform"
	"github.com/ManuGH/capturekit/internal/stream"
)

// State is the lifecycle state of a recording session.
type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
	StateStopping  State = "stopping"
	StateComplete  State = "complete"
	StateFailed    State = "failed"
)

// Event drives session transitions.
type Event string

const (
	EventStart    Event = "start"
	EventStop     Event = "stop"
	EventFinalize Event = "finalize"
	EventFail     Event = "fail"
)

var sessionTable = fsm.MustTable([]fsm.Transition[State, Event]{
	{From: StateIdle, Event: EventStart, To: StateRecording},
	{From: StateIdle, Event: EventFail, To: StateFailed},
	{From: StateRecording, Event: EventStop, To: StateStopping},
	// the backend may finalize on its own when the stream ends
	{From: StateRecording, Event: EventFinalize, To: StateComplete},
	{From: StateRecording, Event: EventFail, To: StateFailed},
	{From: StateStopping, Event: EventFinalize, To: StateComplete},
	{From: StateStopping, Event: EventFail, To: StateFailed},
}, StateComplete, StateFailed)

// session is one recording attempt. All mutable fields are guarded by the
// owning Controller's mutex.
type session struct {
	id          string
	machine     *fsm.Machine[State, Event]
	backend     Backend
	backendName string
	profile     platform.Profile
	targetMime  string
	validation  stream.Validation
	startedAt   time.Time

	chunks    [][]byte
	size      int
	chunkMime string

	active    bool
	settled   bool
	stopTimer *time.Timer
	done      chan struct{}
	blob      *Blob
	err       error
}

func (s *session) append(c Chunk) {
	if len(c.Data) == 0 {
		return
	}
	data := make([]byte, len(c.Data))
	copy(data, c.Data)
	s.chunks = append(s.chunks, data)
	s.size += len(data)
	if s.chunkMime == "" && c.MimeType != "" {
		s.chunkMime = c.MimeType
	}
}

func (s *session) assemble() []byte {
	out := make([]byte, 0, s.size)
	for _, c := range s.chunks {
		out = append(out, c...)
	}
	return out
}

// finalMimeType re-derives the blob type. Platforms that need MP4 misreport or
// omit the produced type, so they are forced to video/mp4.
func (s *session) finalMimeType(reported string) string {
	switch {
	case s.profile.NeedsMP4:
		return platform.ContainerMP4
	case reported != "":
		return reported
	case s.chunkMime != "":
		return s.chunkMime
	default:
		return s.targetMime
	}
}
