package signallog

import (
	"context"
	"sort"
	"sync"

	"github.com/matthewbaird/signify/internal/types"
)

// MemoryStore implements Store with an in-memory map.
// Used for demos and tests; contents are lost on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	logs map[int]memoryLog
}

type memoryLog struct {
	version int64
	events  []types.SignalLogEvent
}

// NewMemoryStore creates a new empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{logs: make(map[int]memoryLog)}
}

func (s *MemoryStore) Load(_ context.Context, personID int) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := s.logs[personID]
	return Snapshot{
		PersonID: personID,
		Version:  log.version,
		Events:   cloneEvents(log.events),
	}, nil
}

func (s *MemoryStore) Replace(_ context.Context, personID int, expectedVersion int64, events []types.SignalLogEvent) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.logs[personID]
	if current.version != expectedVersion {
		return current.version, ErrVersionConflict
	}
	next := memoryLog{
		version: current.version + 1,
		events:  cloneEvents(events),
	}
	s.logs[personID] = next
	return next.version, nil
}

func (s *MemoryStore) PersonIDs(_ context.Context) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int, 0, len(s.logs))
	for id := range s.logs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}
