// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package procgroup

import (
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/ManuGH/capturekit/internal/metrics"
)

// Terminate asks a process group to exit with sig, waits up to grace for
// waitCh, then sends SIGKILL. It consumes and returns the error from waitCh.
// It is safe to call on nil commands (returns nil).
//
// Encoders that must write a trailer are stopped with SIGINT.
func Terminate(cmd *exec.Cmd, waitCh <-chan error, sig syscall.Signal, grace time.Duration) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}

	metrics.RecordProcessSignal(signalName(sig), signalResult(Kill(cmd, sig)))

	select {
	case err := <-waitCh:
		if err == nil {
			metrics.RecordProcessExit("exit0")
		} else {
			metrics.RecordProcessExit("exit_nonzero")
		}
		return err
	case <-time.After(grace):
		metrics.RecordProcessSignal("SIGKILL", signalResult(Kill(cmd, syscall.SIGKILL)))

		// SIGKILL frees a blocked process, so waitCh always drains.
		err := <-waitCh
		if err == nil {
			metrics.RecordProcessExit("forced_exit0")
		} else {
			metrics.RecordProcessExit("forced_error")
		}
		return err
	}
}

func signalResult(err error) string {
	switch {
	case err == nil:
		return "sent"
	case strings.Contains(err.Error(), "process already finished"), strings.Contains(err.Error(), "no such process"):
		return "esrch"
	default:
		return "error"
	}
}

func signalName(sig syscall.Signal) string {
	switch sig {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	case syscall.SIGKILL:
		return "SIGKILL"
	default:
		return "other"
	}
}
