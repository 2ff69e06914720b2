// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package recorder

import (
	"sync"
	"time"

	"github.com/ManuGH/capturekit/internal/stream"
)

// fakeBackend delivers chunks only when the test calls Emit. Stop finalizes
// on a separate goroutine unless holdFinalize is set.
type fakeBackend struct {
	mu           sync.Mutex
	target       string
	reported     string
	onChunk      func(Chunk)
	onFinalize   func()
	startErr     error
	stopErr      error
	holdFinalize bool
	timeslice    time.Duration
	starts       int
	stops        int
	wg           sync.WaitGroup
}

func (b *fakeBackend) SetMimeType(m string) {
	b.mu.Lock()
	b.target = m
	b.mu.Unlock()
}

func (b *fakeBackend) MimeType() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reported
}

func (b *fakeBackend) OnChunk(fn func(Chunk)) {
	b.mu.Lock()
	b.onChunk = fn
	b.mu.Unlock()
}

func (b *fakeBackend) OnFinalize(fn func()) {
	b.mu.Lock()
	b.onFinalize = fn
	b.mu.Unlock()
}

func (b *fakeBackend) Start(timeslice time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.starts++
	b.timeslice = timeslice
	return b.startErr
}

func (b *fakeBackend) Stop() error {
	b.mu.Lock()
	b.stops++
	if b.stopErr != nil {
		err := b.stopErr
		b.mu.Unlock()
		return err
	}
	hold := b.holdFinalize
	fn := b.onFinalize
	b.mu.Unlock()

	if !hold && fn != nil {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			fn()
		}()
	}
	return nil
}

func (b *fakeBackend) Emit(data []byte, mimeType string) {
	b.mu.Lock()
	fn := b.onChunk
	b.mu.Unlock()
	fn(Chunk{Data: data, MimeType: mimeType})
}

func (b *fakeBackend) Finalize() {
	b.mu.Lock()
	fn := b.onFinalize
	b.mu.Unlock()
	fn()
}

func (b *fakeBackend) stopCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stops
}

type fakeFactory struct {
	mu        sync.Mutex
	newErr    error
	configure func(*fakeBackend)
	backends  []*fakeBackend
}

func (f *fakeFactory) Name() string { return "fake" }

func (f *fakeFactory) New(stream.Stream) (Backend, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.newErr != nil {
		return nil, f.newErr
	}
	b := &fakeBackend{}
	if f.configure != nil {
		f.configure(b)
	}
	f.backends = append(f.backends, b)
	return b, nil
}

func (f *fakeFactory) last() *fakeBackend {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.backends) == 0 {
		return nil
	}
	return f.backends[len(f.backends)-1]
}

func (f *fakeFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.backends)
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func avStream() *stream.StaticStream {
	return stream.NewStaticStream("cam",
		stream.NewTrack("a1", stream.KindAudio, "default"),
		stream.NewTrack("v1", stream.KindVideo, "/dev/video0"),
	)
}
