// Package results holds the current ranked set of installations and notifies
// subscribers whenever a scan publishes a new snapshot.
package results

import (
	"sync"
	"time"

	"github.com/quantmind-br/jdkinfo/internal/core"
)

// Listener receives every published snapshot. It owns the copy it is given.
type Listener func(snap core.Snapshot)

// Set is a change-notifying container for the latest snapshot
type Set struct {
	notifyMu  sync.Mutex
	mu        sync.Mutex
	current   core.Snapshot
	listeners map[uint64]Listener
	order     []uint64
	nextID    uint64
	now       func() time.Time
}

// NewSet creates an empty result set
func NewSet() *Set {
	return &Set{
		current:   core.Snapshot{Installations: []core.Installation{}},
		listeners: make(map[uint64]Listener),
		now:       time.Now,
	}
}

// Snapshot returns a copy of the current snapshot
func (s *Set) Snapshot() core.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// Replace atomically swaps in a new ranked list and notifies listeners.
// The input slice is copied; callers may reuse it.
func (s *Set) Replace(installs []core.Installation, defaultPath string) core.Snapshot {
	// notifyMu keeps deliveries in publish order without holding mu during callbacks
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.current = core.Snapshot{
		Seq:           s.current.Seq + 1,
		TakenAt:       s.now(),
		DefaultPath:   defaultPath,
		Installations: core.CloneInstallations(installs),
	}
	published := s.current.Clone()
	listeners := make([]Listener, 0, len(s.order))
	for _, id := range s.order {
		listeners = append(listeners, s.listeners[id])
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(published.Clone())
	}

	return published
}

// Subscribe registers fn for future snapshots and returns a function that removes it
func (s *Set) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.listeners[id] = fn
	s.order = append(s.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.listeners, id)
			for i, existing := range s.order {
				if existing == id {
					s.order = append(s.order[:i], s.order[i+1:]...)
					break
				}
			}
		})
	}
}
