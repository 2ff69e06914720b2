// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ffmpeg

import (
	"strconv"
	"strings"

	"github.com/ManuGH/capturekit/internal/platform"
	"github.com/ManuGH/capturekit/internal/stream"
)

// Input is one capture device handed to ffmpeg.
type Input struct {
	Kind   stream.TrackKind
	Device string
}

// Container is the output muxer family.
type Container string

const (
	ContainerMP4  Container = "mp4"
	ContainerWebM Container = "webm"
)

// ContainerFor maps a target MIME type to the muxer ffmpeg writes.
func ContainerFor(mimeType string) Container {
	if strings.HasPrefix(platform.NormalizeMimeType(mimeType), platform.ContainerMP4) {
		return ContainerMP4
	}
	return ContainerWebM
}

// BuildArgs assembles the ffmpeg command line writing container to stdout.
func BuildArgs(inputFormat string, inputs []Input, container Container) []string {
	args := []string{"-hide_banner", "-loglevel", "error", "-nostdin"}

	var hasVideo, hasAudio bool
	for _, in := range inputs {
		if inputFormat == "lavfi" {
			// synthetic sources generate faster than real time otherwise
			args = append(args, "-re")
		}
		if inputFormat != "" {
			args = append(args, "-f", inputFormat)
		}
		args = append(args, "-i", in.Device)
		switch in.Kind {
		case stream.KindVideo:
			hasVideo = true
		case stream.KindAudio:
			hasAudio = true
		}
	}
	for i := range inputs {
		args = append(args, "-map", strconv.Itoa(i))
	}

	switch container {
	case ContainerMP4:
		if hasVideo {
			args = append(args, "-c:v", "libx264", "-preset", "veryfast", "-tune", "zerolatency", "-pix_fmt", "yuv420p")
		}
		if hasAudio {
			args = append(args, "-c:a", "aac")
		}
		args = append(args, "-movflags", "frag_keyframe+empty_moov+default_base_moof", "-f", "mp4")
	default:
		if hasVideo {
			args = append(args, "-c:v", "libvpx", "-deadline", "realtime", "-cpu-used", "8")
		}
		if hasAudio {
			args = append(args, "-c:a", "libopus")
		}
		args = append(args, "-f", "webm")
	}
	return append(args, "pipe:1")
}

// ProducedMimeType is the MIME type of what BuildArgs produces.
func ProducedMimeType(inputs []Input, container Container) string {
	if container == ContainerMP4 {
		return platform.ContainerMP4
	}
	var codecs []string
	for _, kind := range []stream.TrackKind{stream.KindVideo, stream.KindAudio} {
		for _, in := range inputs {
			if in.Kind != kind {
				continue
			}
			if kind == stream.KindVideo {
				codecs = append(codecs, "vp8")
			} else {
				codecs = append(codecs, "opus")
			}
			break
		}
	}
	if len(codecs) == 0 {
		return platform.ContainerWebM
	}
	return platform.ContainerWebM + ";codecs=" + strings.Join(codecs, ",")
}
