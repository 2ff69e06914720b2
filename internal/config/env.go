// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/capturekit/internal/log"
	"github.com/rs/zerolog"
)

// Environment variable names.
const (
	EnvConfigPath        = "CAPTURE_CONFIG"
	EnvLogLevel          = "CAPTURE_LOG_LEVEL"
	EnvLogService        = "CAPTURE_LOG_SERVICE"
	EnvListen            = "CAPTURE_LISTEN"
	EnvTimeslice         = "CAPTURE_TIMESLICE"
	EnvStopTimeout       = "CAPTURE_STOP_TIMEOUT"
	EnvFFmpegPath        = "CAPTURE_FFMPEG_PATH"
	EnvInputFormat       = "CAPTURE_INPUT_FORMAT"
	EnvInputVideo        = "CAPTURE_INPUT_VIDEO"
	EnvInputAudio        = "CAPTURE_INPUT_AUDIO"
	EnvDiagnosticsDir    = "CAPTURE_DIAGNOSTICS_DIR"
	EnvHistorySize       = "CAPTURE_HISTORY_SIZE"
	EnvWebViewSignatures = "CAPTURE_WEBVIEW_SIGNATURES"
	EnvAppSignature      = "CAPTURE_APP_SIGNATURE"
	EnvTelemetryEnabled  = "CAPTURE_TELEMETRY_ENABLED"
	EnvTelemetryExporter = "CAPTURE_TELEMETRY_EXPORTER"
	EnvTelemetryEndpoint = "CAPTURE_TELEMETRY_ENDPOINT"
)

// ParseString reads a string from environment variable or returns default value.
// It logs the source (environment or default) for observability.
func ParseString(key, defaultValue string) string {
	return parseStringWithLogger(log.WithComponent("config"), key, defaultValue)
}

func parseStringWithLogger(logger zerolog.Logger, key, defaultValue string) string {
	value, ok := lookupEnv(logger, key)
	if !ok {
		logDefault(logger, key, defaultValue)
		return defaultValue
	}
	lowerKey := strings.ToLower(key)
	if strings.Contains(lowerKey, "token") || strings.Contains(lowerKey, "password") {
		// For sensitive vars, just log that it was set
		logger.Debug().
			Str("key", key).
			Str("source", "environment").
			Bool("sensitive", true).
			Msg("using environment variable")
		return value
	}
	logger.Debug().
		Str("key", key).
		Str("value", value).
		Str("source", "environment").
		Msg("using environment variable")
	return value
}

// ParseInt reads an integer from environment variable or returns default value.
// It validates the input and falls back to default on parse errors.
func ParseInt(key string, defaultValue int) int {
	return parseEnv(key, defaultValue, "integer", strconv.Atoi)
}

// ParseDuration reads a duration from environment variable in Go duration format (e.g. "5s").
// It falls back to default on parse errors or empty variables and logs the choice.
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	return parseEnv(key, defaultValue, "duration", time.ParseDuration)
}

// ParseFloat reads a float64 from environment variable or returns default value.
func ParseFloat(key string, defaultValue float64) float64 {
	return parseEnv(key, defaultValue, "float", func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

// ParseBool reads a boolean from environment variable or returns default value.
// It accepts "true", "false", "1", "0", "yes", "no" (case-insensitive).
func ParseBool(key string, defaultValue bool) bool {
	return parseEnv(key, defaultValue, "boolean", func(s string) (bool, error) {
		switch strings.ToLower(s) {
		case "true", "1", "yes":
			return true, nil
		case "false", "0", "no":
			return false, nil
		}
		return false, fmt.Errorf("not a boolean: %q", s)
	})
}

// ParseStringList reads a comma separated list. Blank items are dropped; an
// empty result falls back to the default.
func ParseStringList(key string, defaultValue []string) []string {
	return parseEnv(key, defaultValue, "list", func(s string) ([]string, error) {
		var out []string
		for _, item := range strings.Split(s, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		if len(out) == 0 {
			return nil, errors.New("empty list")
		}
		return out, nil
	})
}

func parseEnv[T any](key string, defaultValue T, kind string, parse func(string) (T, error)) T {
	logger := log.WithComponent("config")
	raw, ok := lookupEnv(logger, key)
	if !ok {
		logDefault(logger, key, defaultValue)
		return defaultValue
	}
	v, err := parse(raw)
	if err != nil {
		logger.Warn().
			Str("key", key).
			Str("value", raw).
			Interface("default", defaultValue).
			Msgf("invalid %s in environment variable, using default", kind)
		return defaultValue
	}
	logger.Debug().
		Str("key", key).
		Interface("value", v).
		Str("source", "environment").
		Msg("using environment variable")
	return v
}

// lookupEnv treats an empty variable as unset.
func lookupEnv(logger zerolog.Logger, key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if ok && v == "" {
		logger.Debug().
			Str("key", key).
			Str("source", "default").
			Msg("environment variable is empty")
		return "", false
	}
	return v, ok
}

func logDefault(logger zerolog.Logger, key string, defaultValue any) {
	logger.Debug().
		Str("key", key).
		Interface("default", defaultValue).
		Str("source", "default").
		Msg("using default value")
}
