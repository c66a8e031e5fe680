package gamepad

import (
	"sync"
	"time"
)

// Store holds the most recently decoded batch. Publishing swaps a pointer
// under the write lock, so readers hold the read lock only for a pointer copy
// and then own an immutable view.
type Store struct {
	mu  sync.RWMutex
	cur *Batch
	seq uint64
	now func() time.Time
}

func NewStore() *Store {
	return &Store{cur: emptyBatch, now: time.Now}
}

// Load returns the current batch. It is never nil and must not be modified.
func (s *Store) Load() *Batch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Publish replaces the whole collection. The caller gives up ownership of
// controllers.
func (s *Store) Publish(controllers []Snapshot) *Batch {
	b := &Batch{Controllers: controllers, Received: s.now()}

	s.mu.Lock()
	s.seq++
	b.Seq = s.seq
	s.cur = b
	s.mu.Unlock()

	return b
}
