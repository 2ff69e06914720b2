// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecorder struct {
	ready bool
	err   error
}

func (f fakeRecorder) Ready() bool { return f.ready }
func (f fakeRecorder) Err() error  { return f.err }

func TestRecorderChecker(t *testing.T) {
	tests := []struct {
		name    string
		rec     fakeRecorder
		status  Status
		message string
		err     string
	}{
		{"not loaded", fakeRecorder{}, StatusDegraded, "recorder backend not loaded", ""},
		{"loaded", fakeRecorder{ready: true}, StatusHealthy, "recorder backend loaded", ""},
		{"last session failed", fakeRecorder{ready: true, err: errors.New("no data captured")}, StatusHealthy, "recorder backend loaded", "no data captured"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewRecorderChecker(tt.rec)
			assert.Equal(t, "recorder", c.Name())

			got := c.Check(context.Background())
			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, tt.message, got.Message)
			assert.Equal(t, tt.err, got.Error)
		})
	}
}

func TestDirChecker(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	tests := []struct {
		name   string
		path   string
		status Status
		err    string
	}{
		{"writable", dir, StatusHealthy, ""},
		{"not configured", "", StatusHealthy, ""},
		{"missing", filepath.Join(dir, "missing"), StatusUnhealthy, "no such file"},
		{"regular file", file, StatusUnhealthy, "not a directory"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewDirChecker("diagnostics_dir", tt.path)
			assert.Equal(t, "diagnostics_dir", c.Name())

			got := c.Check(context.Background())
			assert.Equal(t, tt.status, got.Status)
			if tt.err != "" {
				assert.Contains(t, got.Error, tt.err)
			}
		})
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "write probe must not leave files behind")
}
