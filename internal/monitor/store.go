package monitor

import (
	"strings"
	"sync"

	"poolWatch/internal/model"
)

// SnapshotStore keeps the last accepted snapshot per pool. The change
// detector always compares against the previous successful cycle, so a
// failed read or valuation leaves the baseline untouched.
type SnapshotStore struct {
	mu   sync.RWMutex
	prev map[string]model.PoolSnapshot
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{prev: make(map[string]model.PoolSnapshot)}
}

func snapshotKey(poolAddress string) string {
	return strings.ToLower(strings.TrimSpace(poolAddress))
}

// Previous returns the stored baseline for a pool address.
func (s *SnapshotStore) Previous(poolAddress string) (model.PoolSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.prev[snapshotKey(poolAddress)]
	return snap, ok
}

// Replace installs snap as the new baseline for its pool.
func (s *SnapshotStore) Replace(snap model.PoolSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prev[snapshotKey(snap.PoolAddress)] = snap
}

// Len reports how many pools currently have a baseline.
func (s *SnapshotStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.prev)
}
