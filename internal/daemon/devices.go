// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"github.com/ManuGH/capturekit/internal/config"
	"github.com/ManuGH/capturekit/internal/stream"
	"github.com/google/uuid"
)

// deviceStreams returns a constructor for fresh capture streams over the
// configured devices. Each recording gets its own stream and tracks.
func deviceStreams(in config.InputConfig) func() stream.Stream {
	return func() stream.Stream {
		var tracks []*stream.StaticTrack
		if in.Video != "" {
			tracks = append(tracks, stream.NewTrack("video0", stream.KindVideo, in.Video))
		}
		if in.Audio != "" {
			tracks = append(tracks, stream.NewTrack("audio0", stream.KindAudio, in.Audio))
		}
		return stream.NewStaticStream(uuid.NewString(), tracks...)
	}
}
