// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"time"

	"github.com/ManuGH/capturekit/internal/platform"
)

// Default returns the built-in configuration.
func Default() Config {
	sig := platform.DefaultSignatures()
	return Config{
		Log: LogConfig{
			Level:   "info",
			Service: "capturekit",
		},
		Server: ServerConfig{
			ListenAddr: ":8088",
			RateLimit: RateLimitConfig{
				Requests: 600,
				Window:   time.Minute,
			},
			ShutdownTimeout: 10 * time.Second,
		},
		Recording: RecordingConfig{
			Timeslice:   100 * time.Millisecond,
			StopTimeout: 10 * time.Second,
			FFmpegPath:  "ffmpeg",
			Input: InputConfig{
				Format: "lavfi",
				Video:  "testsrc=size=640x480:rate=30",
				Audio:  "sine=frequency=440:sample_rate=48000",
			},
			HistorySize: 64,
		},
		Platform: PlatformConfig{
			WebViewSignatures: sig.EmbeddingApps,
			AppSignature:      sig.AppSignature,
			IOSBrowserEngines: sig.IOSBrowserEngines,
			RecordableTypes: []string{
				"video/webm", "video/webm;codecs=vp8,opus", "video/mp4",
			},
			PlayableTypes: []string{
				"video/webm", "video/webm;codecs=vp8,opus", "video/webm;codecs=vp9,opus", "video/mp4",
				"video/mp4;codecs=avc1.42E01E,mp4a.40.2", "video/mp4;codecs=avc1,mp4a.40.2",
			},
		},
		Telemetry: TelemetryConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
		},
	}
}
