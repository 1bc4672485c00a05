// internal/session/store.go
// Package session keeps per-session trade overrides in an explicit,
// injectable store instead of ambient package state.
package session

import "sync"

// Overrides are the tunables a session may pin for its trades. Nil
// fields mean "use the configured default".
type Overrides struct {
	SlippagesBps    []int
	MaxImpactPct    *float64
	PriorityFeeBase *uint64
	FeePercentile   *int
}

// Store holds overrides keyed by session id.
type Store interface {
	Get(sessionID string) (Overrides, bool)
	Set(sessionID string, o Overrides)
	Clear(sessionID string)
}

type memoryStore struct {
	mu   sync.RWMutex
	data map[string]Overrides
}

// NewMemoryStore returns an in-process Store.
func NewMemoryStore() Store {
	return &memoryStore{data: make(map[string]Overrides)}
}

func (s *memoryStore) Get(sessionID string) (Overrides, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.data[sessionID]
	return o, ok
}

func (s *memoryStore) Set(sessionID string, o Overrides) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = o
}

func (s *memoryStore) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
}
