// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build linux

package procgroup

import (
	"errors"
	"os/exec"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startGroup(t *testing.T, script string) (*exec.Cmd, <-chan error) {
	t.Helper()
	cmd := exec.Command("sh", "-c", script)
	Set(cmd)
	require.NoError(t, cmd.Start())

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	// let the shell fork its children
	time.Sleep(100 * time.Millisecond)
	return cmd, waitCh
}

func TestProcessGroupKill(t *testing.T) {
	cmd, waitCh := startGroup(t, "sleep 10 & sleep 10")
	pid := cmd.Process.Pid

	pgid, err := syscall.Getpgid(pid)
	require.NoError(t, err)
	assert.Equal(t, pid, pgid, "Process should be group leader")

	require.NoError(t, Kill(cmd, syscall.SIGKILL))

	err = <-waitCh
	require.Error(t, err)
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			assert.True(t, status.Signaled(), "Process should be signaled")
			assert.Equal(t, syscall.SIGKILL, status.Signal())
		}
	}

	time.Sleep(50 * time.Millisecond)
	err = syscall.Kill(-pgid, syscall.Signal(0))
	if err == nil {
		_ = syscall.Kill(-pgid, syscall.SIGKILL)
		t.Fatalf("Process group %d still exists after kill", pgid)
	}
	assert.ErrorIs(t, err, syscall.ESRCH)
}

func TestTerminate_GracefulInterrupt(t *testing.T) {
	// the trap mimics an encoder flushing its trailer on SIGINT
	cmd, waitCh := startGroup(t, "trap 'exit 0' INT; while true; do sleep 0.05; done")

	start := time.Now()
	err := Terminate(cmd, waitCh, syscall.SIGINT, 5*time.Second)
	assert.NoError(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestTerminate_EscalatesToKill(t *testing.T) {
	cmd, waitCh := startGroup(t, "trap '' INT; sleep 10")

	err := Terminate(cmd, waitCh, syscall.SIGINT, 100*time.Millisecond)
	require.Error(t, err)
}

func TestTerminate_NilCommand(t *testing.T) {
	assert.NoError(t, Terminate(nil, nil, syscall.SIGINT, time.Millisecond))
	assert.NoError(t, Kill(&exec.Cmd{}, syscall.SIGKILL))
}
