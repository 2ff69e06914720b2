// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"errors"
	"os"
	"path/filepath"
)

var errNotDir = errors.New("not a directory")

// RecorderStatus is the slice of the recording controller the checker reads.
type RecorderStatus interface {
	Ready() bool
	Err() error
}

// RecorderChecker reports degraded until a recorder backend is loaded.
// A failed last session is surfaced without affecting the status.
type RecorderChecker struct {
	rec RecorderStatus
}

// NewRecorderChecker creates a checker for the recording controller.
func NewRecorderChecker(rec RecorderStatus) *RecorderChecker {
	return &RecorderChecker{rec: rec}
}

func (c *RecorderChecker) Name() string {
	return "recorder"
}

func (c *RecorderChecker) Check(_ context.Context) CheckResult {
	if !c.rec.Ready() {
		return CheckResult{
			Status:  StatusDegraded,
			Message: "recorder backend not loaded",
		}
	}
	res := CheckResult{
		Status:  StatusHealthy,
		Message: "recorder backend loaded",
	}
	if err := c.rec.Err(); err != nil {
		res.Error = err.Error()
	}
	return res
}

// DirChecker verifies a directory exists and is writable.
type DirChecker struct {
	name string
	path string
}

// NewDirChecker creates a checker for directory writability.
func NewDirChecker(name, path string) *DirChecker {
	return &DirChecker{
		name: name,
		path: path,
	}
}

func (c *DirChecker) Name() string {
	return c.name
}

func (c *DirChecker) Check(_ context.Context) CheckResult {
	if c.path == "" {
		return CheckResult{
			Status:  StatusHealthy,
			Message: "not configured (optional)",
		}
	}
	if err := checkWritableDir(c.path); err != nil {
		return CheckResult{
			Status:  StatusUnhealthy,
			Error:   err.Error(),
			Message: c.path,
		}
	}
	return CheckResult{
		Status:  StatusHealthy,
		Message: "directory writable",
	}
}

func checkWritableDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return &os.PathError{Op: "stat", Path: path, Err: errNotDir}
	}
	f, err := os.CreateTemp(path, ".write_test")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(filepath.Clean(name))
}
