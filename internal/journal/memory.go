package journal

import (
	"context"
	"sync"
)

// MemoryStore keeps entries in memory. With a capacity it keeps only the
// newest entries.
type MemoryStore struct {
	mu       sync.RWMutex
	entries  []Entry
	capacity int
	closed   bool
}

// NewMemoryStore creates a store holding at most capacity entries; zero
// means no limit.
func NewMemoryStore(capacity int) *MemoryStore {
	return &MemoryStore{capacity: capacity}
}

// Init implements Store.
func (s *MemoryStore) Init(context.Context) error {
	return nil
}

// Append implements Store.
func (s *MemoryStore) Append(_ context.Context, entries ...Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.entries = append(s.entries, entries...)
	if s.capacity > 0 && len(s.entries) > s.capacity {
		s.entries = append([]Entry(nil), s.entries[len(s.entries)-s.capacity:]...)
	}
	return nil
}

// Recent implements Store.
func (s *MemoryStore) Recent(_ context.Context, n int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 || n > len(s.entries) {
		n = len(s.entries)
	}
	return append([]Entry(nil), s.entries[len(s.entries)-n:]...), nil
}

// Activation implements Store.
func (s *MemoryStore) Activation(_ context.Context, id string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Entry
	for _, e := range s.entries {
		if e.ActivationID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

// Close implements Store. Recorded entries stay readable.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
