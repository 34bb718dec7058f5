// ABOUTME: Single-slot mailbox holding the latest classification outcome
// ABOUTME: Written by attempt goroutines, read every tick by the polling loop
package core

import "sync"

// ResultStore holds either nothing or the most recently completed Outcome.
// Writes replace the slot unconditionally; reads copy it out under the lock,
// so a reader sees the old or the new value, never a mix.
type ResultStore struct {
	mu      sync.RWMutex
	outcome Outcome
	set     bool
	version uint64
}

// NewResultStore creates an empty store
func NewResultStore() *ResultStore {
	return &ResultStore{}
}

// Write replaces the stored outcome
func (s *ResultStore) Write(o Outcome) {
	s.mu.Lock()
	s.outcome = o
	s.set = true
	s.version++
	s.mu.Unlock()
}

// Read returns the latest outcome, or false if nothing has completed yet
func (s *ResultStore) Read() (Outcome, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.outcome, s.set
}

// Version increases by one on every Write; pollers compare it to spot new
// outcomes without inspecting them
func (s *ResultStore) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Snapshot returns the outcome and version read under one lock
func (s *ResultStore) Snapshot() (Outcome, uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.outcome, s.version, s.set
}
