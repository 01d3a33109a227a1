// Package snapstore holds the process-wide "latest snapshot JSON" shared
// between the replay pipeline (the sole writer) and the push server (many
// concurrent readers).
package snapstore

import (
	"sync"
	"sync/atomic"
)

const defaultGlobal = "{}"

// Store maps symbol to its most recently published snapshot JSON, plus a
// global fallback value returned when a symbol has never been published.
// Reads are lock-free: each symbol's current value lives behind its own
// atomic.Pointer, swapped wholesale by Publish/PublishSymbol. Publish never
// mutates an installed string in place, so pointer-equality between two
// successive Loads is a valid "nothing new since last read" check.
type Store struct {
	global atomic.Pointer[string]
	bySym  sync.Map // symbol string -> *atomic.Pointer[string]
}

// New creates a Store whose global fallback is "{}" until the first
// unscoped Publish.
func New() *Store {
	s := &Store{}
	g := defaultGlobal
	s.global.Store(&g)
	return s
}

// Publish replaces the global fallback value.
func (s *Store) Publish(snapshot string) {
	v := snapshot
	s.global.Store(&v)
}

// PublishSymbol replaces the value stored for symbol.
func (s *Store) PublishSymbol(symbol, snapshot string) {
	v := snapshot
	slot, _ := s.bySym.LoadOrStore(symbol, &atomic.Pointer[string]{})
	slot.(*atomic.Pointer[string]).Store(&v)
}

// Load returns the global fallback value. Never nil/empty.
func (s *Store) Load() *string {
	return s.global.Load()
}

// LoadSymbol returns the per-symbol value if one has been published,
// otherwise the global fallback. Never nil.
func (s *Store) LoadSymbol(symbol string) *string {
	if slot, ok := s.bySym.Load(symbol); ok {
		if v := slot.(*atomic.Pointer[string]).Load(); v != nil {
			return v
		}
	}
	return s.global.Load()
}
