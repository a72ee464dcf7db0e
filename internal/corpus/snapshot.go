// Playafinder - Festival Event Semantic Recommendation
// Copyright 2026 D. Rowe (duskrow)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/duskrow/playafinder

// Package corpus loads the event corpus and its precomputed embedding
// vectors, and holds the resulting immutable snapshot behind an atomically
// swappable reference.
//
// A Snapshot bundles everything a request needs — events, an ID lookup map,
// and the built vector index — so a reload can construct a complete
// replacement off to the side and swap it in with a single atomic store.
// In-flight requests keep working against the snapshot they loaded.
package corpus

import (
	"sync/atomic"
	"time"

	"github.com/duskrow/playafinder/internal/models"
	"github.com/duskrow/playafinder/internal/vectorindex"
)

// Snapshot is an immutable view of the corpus: events, their ID lookup map,
// and the vector index, all aligned by corpus position. Safe for unlimited
// concurrent readers.
type Snapshot struct {
	events   []models.Event
	byID     map[string]int
	index    *vectorindex.Index
	loadedAt time.Time
}

// NewSnapshot builds a snapshot from already-validated events and index.
// events[i] must correspond to the index's vector i.
func NewSnapshot(events []models.Event, index *vectorindex.Index) *Snapshot {
	byID := make(map[string]int, len(events))
	for i := range events {
		if _, exists := byID[events[i].ID]; !exists {
			byID[events[i].ID] = i
		}
	}
	return &Snapshot{
		events:   events,
		byID:     byID,
		index:    index,
		loadedAt: time.Now(),
	}
}

// Len returns the number of events in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.events)
}

// EventAt returns the event at the given corpus position.
func (s *Snapshot) EventAt(i int) models.Event {
	return s.events[i]
}

// EventByID looks up an event by its stable identifier.
func (s *Snapshot) EventByID(id string) (models.Event, bool) {
	if i, ok := s.byID[id]; ok {
		return s.events[i], true
	}
	return models.Event{}, false
}

// Index returns the snapshot's vector index.
func (s *Snapshot) Index() *vectorindex.Index {
	return s.index
}

// LoadedAt returns when the snapshot was constructed.
func (s *Snapshot) LoadedAt() time.Time {
	return s.loadedAt
}

// Store holds the active snapshot. Reads are lock-free; a reload publishes
// a fully built replacement with a single atomic swap.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore creates a store holding the given initial snapshot.
func NewStore(initial *Snapshot) *Store {
	s := &Store{}
	s.current.Store(initial)
	return s
}

// Snapshot returns the active snapshot. Callers hold the returned pointer
// for the duration of one request; later swaps do not affect it.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// Swap publishes a new snapshot and returns the previous one.
func (s *Store) Swap(next *Snapshot) *Snapshot {
	return s.current.Swap(next)
}
