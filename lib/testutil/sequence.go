// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"slices"
	"sync"
)

// Sequence is a concurrency-safe, append-only event log.
//
//	var events testutil.Sequence
//	engine.Schedule(engine.Func("x", func() { events.Add("x") }), 100)
//	...
//	events.RequireEqual(t, "y", "x")
type Sequence struct {
	mu     sync.Mutex
	events []string
}

// Add appends an event.
func (s *Sequence) Add(event string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

// Events returns a copy of the recorded events.
func (s *Sequence) Events() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.events)
}

// Len returns the number of recorded events.
func (s *Sequence) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// RequireEqual fails the test unless the recorded events equal want,
// in order.
func (s *Sequence) RequireEqual(t Fataler, want ...string) {
	t.Helper()
	got := s.Events()
	if !slices.Equal(got, want) {
		t.Fatalf("events = %q, want %q", got, want)
	}
}
