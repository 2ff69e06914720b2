// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package diagnostics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	xglog "github.com/ManuGH/capturekit/internal/log"
	"github.com/ManuGH/capturekit/internal/recorder"
	"github.com/google/renameio/v2"
)

var ErrInvalidSessionID = errors.New("invalid session id")

// Exporter writes one JSON document per completed session.
type Exporter struct {
	dir string
}

// NewExporter creates dir if needed.
func NewExporter(dir string) (*Exporter, error) {
	if dir == "" {
		return nil, errors.New("diagnostics directory is empty")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create diagnostics directory: %w", err)
	}
	return &Exporter{dir: dir}, nil
}

// Path returns the file a session is exported to.
func (e *Exporter) Path(sessionID string) string {
	return filepath.Join(e.dir, sessionID+".json")
}

// Export atomically writes <dir>/<session_id>.json.
func (e *Exporter) Export(ctx context.Context, d recorder.Diagnostics) error {
	if d.SessionID == "" || d.SessionID != filepath.Base(d.SessionID) || d.SessionID == "." || d.SessionID == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidSessionID, d.SessionID)
	}
	logger := xglog.FromContext(ctx)
	path := e.Path(d.SessionID)

	pendingFile, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o640))
	if err != nil {
		return fmt.Errorf("create pending diagnostics file: %w", err)
	}
	defer func() {
		if err := pendingFile.Cleanup(); err != nil {
			logger.Debug().Err(err).Str(xglog.FieldPath, path).Msg("cleanup pending diagnostics file")
		}
	}()

	enc := json.NewEncoder(pendingFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode diagnostics: %w", err)
	}

	// fsync + rename
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace diagnostics file: %w", err)
	}
	return nil
}

// Recorder returns an observer for recorder.WithObserver that stores every
// completed session and, when exp is non-nil, exports it. Export failures are logged.
func Recorder(store *Store, exp *Exporter) func(recorder.Diagnostics) {
	logger := xglog.WithComponent("diagnostics")
	return func(d recorder.Diagnostics) {
		if store != nil {
			store.Put(d)
		}
		if exp == nil {
			return
		}
		if err := exp.Export(context.Background(), d); err != nil {
			logger.Warn().Err(err).
				Str(xglog.FieldSessionID, d.SessionID).
				Str(xglog.FieldEvent, "diagnostics.export_failed").
				Msg("diagnostics export failed")
		}
	}
}
