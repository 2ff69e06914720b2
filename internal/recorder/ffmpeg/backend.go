// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ffmpeg

import (
	"bytes"
	"fmt"
	"os/exec"
	"sync"
	"syscall"
	"time"

	xglog "github.com/ManuGH/capturekit/internal/log"
	"github.com/ManuGH/capturekit/internal/procgroup"
	"github.com/ManuGH/capturekit/internal/recorder"
	"github.com/rs/zerolog"
)

// Backend is one ffmpeg run. It is single-use.
type Backend struct {
	bin         string
	inputFormat string
	inputs      []Input
	grace       time.Duration
	logger      zerolog.Logger
	command     func(name string, args ...string) *exec.Cmd

	mu         sync.Mutex
	container  Container
	onChunk    func(recorder.Chunk)
	onFinalize func()
	started    bool
	stopping   bool
	stopReq    chan struct{}
	done       chan struct{}
	out        *chunkBuffer
	stderr     *tailBuffer
}

var _ recorder.Backend = (*Backend)(nil)

func (b *Backend) SetMimeType(mimeType string) {
	b.mu.Lock()
	b.container = ContainerFor(mimeType)
	b.mu.Unlock()
}

func (b *Backend) MimeType() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return ProducedMimeType(b.inputs, b.container)
}

func (b *Backend) OnChunk(fn func(recorder.Chunk)) {
	b.mu.Lock()
	b.onChunk = fn
	b.mu.Unlock()
}

func (b *Backend) OnFinalize(fn func()) {
	b.mu.Lock()
	b.onFinalize = fn
	b.mu.Unlock()
}

// Start launches ffmpeg and emits buffered output every timeslice.
func (b *Backend) Start(timeslice time.Duration) error {
	if timeslice <= 0 {
		return fmt.Errorf("invalid timeslice %s", timeslice)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return ErrAlreadyStarted
	}

	args := BuildArgs(b.inputFormat, b.inputs, b.container)
	cmd := b.command(b.bin, args...)
	procgroup.Set(cmd)
	b.out = &chunkBuffer{}
	b.stderr = &tailBuffer{limit: 4096}
	cmd.Stdout = b.out
	cmd.Stderr = b.stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start failed: %w", err)
	}

	b.started = true
	b.stopReq = make(chan struct{})
	b.done = make(chan struct{})

	exitCh := make(chan error, 1)
	go func() { exitCh <- cmd.Wait() }()
	go b.run(cmd, exitCh, timeslice)

	b.logger.Info().
		Str(xglog.FieldEvent, "ffmpeg.started").
		Int("pid", cmd.Process.Pid).
		Str(xglog.FieldMimeType, ProducedMimeType(b.inputs, b.container)).
		Dur(xglog.FieldTimeslice, timeslice).
		Msg("started ffmpeg recorder")
	return nil
}

// Stop asks ffmpeg to finish. Finalize fires once the process has exited and
// all output was delivered.
func (b *Backend) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started {
		return ErrNotStarted
	}
	if b.stopping {
		return nil
	}
	b.stopping = true
	close(b.stopReq)
	return nil
}

// closedDone is returned by Done for a backend that never started.
var closedDone = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Done is closed after finalize has fired. Before a successful Start there is
// nothing to wait for and the returned channel is already closed.
func (b *Backend) Done() <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started {
		return closedDone
	}
	return b.done
}

// run owns the process after Start. Chunks and finalize are only ever
// delivered from here, so they are ordered and never concurrent.
func (b *Backend) run(cmd *exec.Cmd, exitCh chan error, timeslice time.Duration) {
	defer close(b.done)

	ticker := time.NewTicker(timeslice)
	defer ticker.Stop()

	var exitErr error
loop:
	for {
		select {
		case <-ticker.C:
			b.emit(b.out.take())
		case exitErr = <-exitCh:
			break loop
		case <-b.stopReq:
			exitErr = procgroup.Terminate(cmd, exitCh, syscall.SIGINT, b.grace)
			break loop
		}
	}

	// Wait returns only after stdout has been copied, so this drains everything.
	b.emit(b.out.take())

	event := b.logger.Info()
	if exitErr != nil {
		event = b.logger.Warn().Err(exitErr).Str("stderr", b.stderr.String())
	}
	event.Str(xglog.FieldEvent, "ffmpeg.exited").Msg("ffmpeg recorder exited")

	b.mu.Lock()
	fn := b.onFinalize
	b.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (b *Backend) emit(data []byte) {
	if len(data) == 0 {
		return
	}
	b.mu.Lock()
	fn := b.onChunk
	mime := ProducedMimeType(b.inputs, b.container)
	b.mu.Unlock()
	if fn != nil {
		fn(recorder.Chunk{Data: data, MimeType: mime})
	}
}

// chunkBuffer accumulates stdout between ticks.
type chunkBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (c *chunkBuffer) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Write(p)
}

func (c *chunkBuffer) take() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.buf.Len() == 0 {
		return nil
	}
	out := make([]byte, c.buf.Len())
	copy(out, c.buf.Bytes())
	c.buf.Reset()
	return out
}

// tailBuffer keeps the last limit bytes written.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
