// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package fsm is a small, strict finite state machine driven by a transition table.
package fsm

import (
	"errors"
	"fmt"
	"sync"
)

// ErrInvalidTransition is returned when no edge exists for (state, event).
var ErrInvalidTransition = errors.New("invalid transition")

// Transition describes a single edge in the FSM. Guard may reject the transition.
type Transition[S ~string, E ~string] struct {
	From  S
	Event E
	To    S
	Guard func(from S, event E) error
}

// Observer is notified after every applied transition.
type Observer[S ~string, E ~string] func(from, to S, event E)

// Machine is a strict FSM runner: unknown transitions are errors.
type Machine[S ~string, E ~string] struct {
	mu       sync.Mutex
	state    S
	index    map[key[S, E]]Transition[S, E]
	terminal map[S]struct{}
	observer Observer[S, E]
}

type key[S ~string, E ~string] struct {
	from  S
	event E
}

// Table is an immutable, validated transition set that can spawn machines.
type Table[S ~string, E ~string] struct {
	index    map[key[S, E]]Transition[S, E]
	terminal map[S]struct{}
}

// NewTable validates transitions. States listed in terminal must have no outgoing edges.
func NewTable[S ~string, E ~string](transitions []Transition[S, E], terminal ...S) (*Table[S, E], error) {
	t := &Table[S, E]{
		index:    make(map[key[S, E]]Transition[S, E], len(transitions)),
		terminal: make(map[S]struct{}, len(terminal)),
	}
	for _, s := range terminal {
		t.terminal[s] = struct{}{}
	}
	for _, tr := range transitions {
		k := key[S, E]{from: tr.From, event: tr.Event}
		if _, exists := t.index[k]; exists {
			return nil, fmt.Errorf("duplicate transition: %s -> %s", tr.From, tr.Event)
		}
		if _, term := t.terminal[tr.From]; term {
			return nil, fmt.Errorf("transition out of terminal state: %s -> %s", tr.From, tr.Event)
		}
		t.index[k] = tr
	}
	return t, nil
}

// MustTable is NewTable for package-level tables; it panics on an invalid table.
func MustTable[S ~string, E ~string](transitions []Transition[S, E], terminal ...S) *Table[S, E] {
	t, err := NewTable(transitions, terminal...)
	if err != nil {
		panic(err)
	}
	return t
}

// New returns a machine in the initial state.
func (t *Table[S, E]) New(initial S, observer Observer[S, E]) *Machine[S, E] {
	return &Machine[S, E]{
		state:    initial,
		index:    t.index,
		terminal: t.terminal,
		observer: observer,
	}
}

// State returns the current state.
func (m *Machine[S, E]) State() S {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Terminal reports whether the current state has no way out.
func (m *Machine[S, E]) Terminal() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.terminal[m.state]
	return ok
}

// Can reports whether event is accepted in the current state, ignoring guards.
func (m *Machine[S, E]) Can(event E) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.index[key[S, E]{from: m.state, event: event}]
	return ok
}

// Fire applies event atomically and returns the resulting state.
func (m *Machine[S, E]) Fire(event E) (S, error) {
	m.mu.Lock()
	from := m.state
	tr, ok := m.index[key[S, E]{from: from, event: event}]
	if !ok {
		m.mu.Unlock()
		return from, fmt.Errorf("%w: state=%s event=%s", ErrInvalidTransition, from, event)
	}
	if tr.Guard != nil {
		if err := tr.Guard(from, event); err != nil {
			m.mu.Unlock()
			return from, err
		}
	}
	m.state = tr.To
	obs := m.observer
	m.mu.Unlock()

	if obs != nil {
		obs(from, tr.To, event)
	}
	return tr.To, nil
}
