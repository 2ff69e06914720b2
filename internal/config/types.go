// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads capturekit settings with precedence ENV > YAML file > defaults.
package config

import (
	"time"

	"github.com/ManuGH/capturekit/internal/platform"
	"github.com/ManuGH/capturekit/internal/telemetry"
)

// Config is the complete daemon configuration.
type Config struct {
	Version string `yaml:"-"`

	Log       LogConfig       `yaml:"log"`
	Server    ServerConfig    `yaml:"server"`
	Recording RecordingConfig `yaml:"recording"`
	Platform  PlatformConfig  `yaml:"platform"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
}

type ServerConfig struct {
	ListenAddr      string          `yaml:"listenAddr"`
	RateLimit       RateLimitConfig `yaml:"rateLimit"`
	ShutdownTimeout time.Duration   `yaml:"shutdownTimeout"`
}

// RateLimitConfig limits /api/v1 requests per client IP.
type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

type RecordingConfig struct {
	Timeslice      time.Duration `yaml:"timeslice"`
	StopTimeout    time.Duration `yaml:"stopTimeout"`
	FFmpegPath     string        `yaml:"ffmpegPath"`
	Input          InputConfig   `yaml:"input"`
	HistorySize    int           `yaml:"historySize"`
	DiagnosticsDir string        `yaml:"diagnosticsDir"`
}

// InputConfig names the capture devices. With the lavfi format the
// devices are filter graphs, which gives a hardware-free test source.
type InputConfig struct {
	Format string `yaml:"format"`
	Video  string `yaml:"video"`
	Audio  string `yaml:"audio"`
}

// PlatformConfig is the WebView membership data and the capability lists of
// the recording host.
type PlatformConfig struct {
	WebViewSignatures []string `yaml:"webViewSignatures"`
	AppSignature      string   `yaml:"appSignature"`
	IOSBrowserEngines []string `yaml:"iosBrowserEngines"`
	RecordableTypes   []string `yaml:"recordableTypes"`
	PlayableTypes     []string `yaml:"playableTypes"`
}

// Signatures converts the membership lists for the profiler.
func (p PlatformConfig) Signatures() platform.Signatures {
	return platform.Signatures{
		EmbeddingApps:     append([]string(nil), p.WebViewSignatures...),
		AppSignature:      p.AppSignature,
		IOSBrowserEngines: append([]string(nil), p.IOSBrowserEngines...),
	}
}

type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"samplingRate"`
}

// Trace converts the settings into a trace pipeline config for service.
func (t TelemetryConfig) Trace(service, version string) telemetry.Config {
	return telemetry.Config{
		Enabled:        t.Enabled,
		ServiceName:    service,
		ServiceVersion: version,
		Exporter:       t.Exporter,
		Endpoint:       t.Endpoint,
		SamplingRate:   t.SamplingRate,
	}
}
