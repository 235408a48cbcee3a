// Package storage provides in-memory stores used by the kitchen board.
package storage

import (
	"context"
	"sync"

	"github.com/hammamikhairi/ottopos/internal/domain"
	"github.com/hammamikhairi/ottopos/internal/logger"
)

// Compile-time interface check.
var _ domain.SeenStore = (*MemorySeenStore)(nil)

// MemorySeenStore remembers kitchen order ids together with the last poll
// cycle each one was present in. Safe for concurrent access.
type MemorySeenStore struct {
	mu   sync.RWMutex
	seen map[string]uint64
	log  *logger.Logger
}

// NewMemorySeenStore creates an empty store.
func NewMemorySeenStore(log *logger.Logger) *MemorySeenStore {
	return &MemorySeenStore{
		seen: make(map[string]uint64),
		log:  log,
	}
}

// Observe marks ids as present in cycle and returns the subset never seen
// before (or seen before but since evicted).
func (s *MemorySeenStore) Observe(ctx context.Context, ids []string, cycle uint64) (map[string]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fresh := make(map[string]bool)
	for _, id := range ids {
		last, ok := s.seen[id]
		if !ok {
			fresh[id] = true
		}
		if !ok || cycle > last {
			s.seen[id] = cycle
		}
	}
	s.log.Debug("observed %d ids in cycle %d, %d new", len(ids), cycle, len(fresh))
	return fresh, nil
}

// Evict forgets every id last observed before the given cycle.
func (s *MemorySeenStore) Evict(ctx context.Context, before uint64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, last := range s.seen {
		if last < before {
			delete(s.seen, id)
			n++
		}
	}
	if n > 0 {
		s.log.Debug("evicted %d seen ids older than cycle %d", n, before)
	}
	return n, nil
}

// Len returns how many ids are remembered.
func (s *MemorySeenStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}
