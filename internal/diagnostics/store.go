// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package diagnostics keeps the recent recording history.
package diagnostics

import (
	"fmt"

	"github.com/ManuGH/capturekit/internal/recorder"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSize is the number of sessions kept when no size is configured.
const DefaultSize = 64

// Store is a bounded, concurrency-safe history keyed by session id.
// The oldest session is evicted first.
type Store struct {
	cache *lru.Cache[string, recorder.Diagnostics]
}

// NewStore returns a store holding at most size sessions.
func NewStore(size int) (*Store, error) {
	if size <= 0 {
		size = DefaultSize
	}
	cache, err := lru.New[string, recorder.Diagnostics](size)
	if err != nil {
		return nil, fmt.Errorf("create diagnostics store: %w", err)
	}
	return &Store{cache: cache}, nil
}

// Put records d, replacing an entry with the same session id.
func (s *Store) Put(d recorder.Diagnostics) {
	if d.SessionID == "" {
		return
	}
	s.cache.Add(d.SessionID, d)
}

// Get returns the diagnostics for id without affecting eviction order.
func (s *Store) Get(id string) (recorder.Diagnostics, bool) {
	return s.cache.Peek(id)
}

// List returns all sessions, most recent first.
func (s *Store) List() []recorder.Diagnostics {
	values := s.cache.Values()
	out := make([]recorder.Diagnostics, 0, len(values))
	for i := len(values) - 1; i >= 0; i-- {
		out = append(out, values[i])
	}
	return out
}

// Len returns the number of stored sessions.
func (s *Store) Len() int {
	return s.cache.Len()
}
