// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("", "v1.2.3")
	require.NoError(t, err)

	want := Default()
	want.Version = "v1.2.3"
	assert.Equal(t, want, cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, "capture.yaml", `
log:
  level: debug
server:
  listenAddr: 127.0.0.1:9000
recording:
  timeslice: 250ms
  historySize: 8
platform:
  webViewSignatures: [MyShell]
telemetry:
  enabled: true
  exporter: http
  endpoint: collector:4318
  samplingRate: 0.5
`)
	cfg, err := Load(path, "dev")
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.ListenAddr)
	assert.Equal(t, 250*time.Millisecond, cfg.Recording.Timeslice)
	assert.Equal(t, 8, cfg.Recording.HistorySize)
	assert.Equal(t, []string{"MyShell"}, cfg.Platform.WebViewSignatures)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "http", cfg.Telemetry.Exporter)

	// untouched keys keep their defaults
	assert.Equal(t, 10*time.Second, cfg.Recording.StopTimeout)
	assert.Equal(t, "ffmpeg", cfg.Recording.FFmpegPath)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "capture.yml", `
server:
  listenAddr: 127.0.0.1:9000
recording:
  timeslice: 250ms
`)
	t.Setenv(EnvListen, ":7000")
	t.Setenv(EnvTimeslice, "50ms")
	t.Setenv(EnvWebViewSignatures, "Foo,Bar")

	l := NewLoader(path, "dev")
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.ListenAddr)
	assert.Equal(t, 50*time.Millisecond, cfg.Recording.Timeslice)
	assert.Equal(t, []string{"Foo", "Bar"}, cfg.Platform.WebViewSignatures)
	assert.Contains(t, l.ConsumedEnvKeys, EnvListen)
	assert.Contains(t, l.ConsumedEnvKeys, EnvTelemetryEndpoint)
}

func TestLoad_DiagnosticsDirIsAbsolute(t *testing.T) {
	t.Setenv(EnvDiagnosticsDir, "relative/diag")
	cfg, err := Load("", "dev")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(cfg.Recording.DiagnosticsDir))
}

func TestLoad_UnknownFieldIsRejected(t *testing.T) {
	path := writeConfig(t, "capture.yaml", `
recording:
  timeslize: 1s
`)
	_, err := Load(path, "dev")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownConfigField)
}

func TestLoad_RejectsNonYAMLExtension(t *testing.T) {
	path := writeConfig(t, "capture.json", `{}`)
	_, err := Load(path, "dev")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only YAML supported")
}

func TestLoad_RejectsMultipleDocuments(t *testing.T) {
	path := writeConfig(t, "capture.yaml", "log:\n  level: info\n---\nlog:\n  level: debug\n")
	_, err := Load(path, "dev")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple documents")
}

func TestLoad_EmptyFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "capture.yaml", "")
	cfg, err := Load(path, "dev")
	require.NoError(t, err)
	assert.Equal(t, Default().Recording, cfg.Recording)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), "dev")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_InvalidEnvValueIsValidated(t *testing.T) {
	t.Setenv(EnvHistorySize, "0")
	_, err := Load("", "dev")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
