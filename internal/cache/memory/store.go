// Package memory keeps cache records in-process for tests and development.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hydavinci/formula-1-schedule/internal/cache"
)

// Store is a map-backed cache.Store.
type Store struct {
	mu   sync.RWMutex
	data map[string]cache.Record
	now  func() time.Time
	puts int
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		data: make(map[string]cache.Record),
		now:  time.Now,
	}
}

// NewWithClock creates a store that stamps records using now.
func NewWithClock(now func() time.Time) *Store {
	s := New()
	if now != nil {
		s.now = now
	}
	return s
}

// Get returns a copy of the record for key.
func (s *Store) Get(_ context.Context, key cache.Key) (cache.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.data[key.String()]
	if !ok {
		return cache.Record{}, cache.ErrMiss
	}
	return cache.Record{
		Payload:  append([]byte(nil), rec.Payload...),
		StoredAt: rec.StoredAt,
	}, nil
}

// Put stores a copy of payload under key.
func (s *Store) Put(_ context.Context, key cache.Key, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key.String()] = cache.Record{
		Payload:  append([]byte(nil), payload...),
		StoredAt: s.now().UTC(),
	}
	s.puts++
	return nil
}

// Clear drops every record.
func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string]cache.Record)
	return nil
}

// Len reports how many records are stored.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Puts reports how many writes the store has accepted.
func (s *Store) Puts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.puts
}

// Raw returns the stored payload for a rendered key, for assertions.
func (s *Store) Raw(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.data[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), rec.Payload...), true
}

// Inject writes a raw record directly, bypassing the clock.
func (s *Store) Inject(key string, payload []byte, storedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = cache.Record{Payload: append([]byte(nil), payload...), StoredAt: storedAt}
}
