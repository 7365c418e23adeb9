package people

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/matthewbaird/signify/internal/signals"
	"github.com/matthewbaird/signify/internal/types"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore implements Store in memory. All mutations, including signal
// toggles, happen under one lock.
type MemoryStore struct {
	mu           sync.RWMutex
	people       map[int]types.Person
	retired      map[int]struct{} // deleted ids; never handed out again
	connections  []types.Connection
	nextPersonID int
	nextConnID   int
}

// NewMemoryStore creates a new empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		people:       make(map[int]types.Person),
		retired:      make(map[int]struct{}),
		nextPersonID: 1,
		nextConnID:   1,
	}
}

func (s *MemoryStore) List(_ context.Context) ([]types.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Person, 0, len(s.people))
	for _, p := range s.people {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, id int) (types.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.people[id]
	if !ok {
		return types.Person{}, fmt.Errorf("person %d: %w", id, ErrNotFound)
	}
	return p.Clone(), nil
}

func (s *MemoryStore) Create(_ context.Context, p types.Person) (types.Person, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return types.Person{}, fmt.Errorf("%w: name is required", ErrInvalidPerson)
	}
	if p.ID < 0 {
		return types.Person{}, fmt.Errorf("%w: negative id", ErrInvalidPerson)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == 0 {
		p.ID = s.nextPersonID
	} else if _, taken := s.people[p.ID]; taken {
		return types.Person{}, fmt.Errorf("person %d: %w", p.ID, ErrAlreadyExists)
	} else if _, gone := s.retired[p.ID]; gone {
		return types.Person{}, fmt.Errorf("person %d was deleted: %w", p.ID, ErrAlreadyExists)
	}
	if p.ID >= s.nextPersonID {
		s.nextPersonID = p.ID + 1
	}
	p.ConnectionIDs = []int{}
	s.people[p.ID] = p
	return p.Clone(), nil
}

func (s *MemoryStore) Update(_ context.Context, id int, patch Patch) (types.Person, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return types.Person{}, fmt.Errorf("%w: name cannot be empty", ErrInvalidPerson)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.people[id]
	if !ok {
		return types.Person{}, fmt.Errorf("person %d: %w", id, ErrNotFound)
	}
	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Email != nil {
		p.Email = *patch.Email
	}
	if patch.Department != nil {
		p.Department = *patch.Department
	}
	if patch.Role != nil {
		p.Role = *patch.Role
	}
	if patch.Age != nil {
		p.Age = *patch.Age
	}
	if patch.Ward != nil {
		p.Ward = *patch.Ward
	}
	s.people[id] = p
	return p.Clone(), nil
}

func (s *MemoryStore) Delete(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.people[id]; !ok {
		return fmt.Errorf("person %d: %w", id, ErrNotFound)
	}
	delete(s.people, id)
	s.retired[id] = struct{}{}

	kept := s.connections[:0]
	for _, c := range s.connections {
		if c.SourcePersonID != id && c.TargetPersonID != id {
			kept = append(kept, c)
		}
	}
	s.connections = kept

	for pid, p := range s.people {
		p.ConnectionIDs = removeID(p.ConnectionIDs, id)
		s.people[pid] = p
	}
	return nil
}

func (s *MemoryStore) ToggleSignal(_ context.Context, id int, key types.SignalKey) (types.Person, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.people[id]
	if !ok {
		return types.Person{}, false, fmt.Errorf("person %d: %w", id, ErrNotFound)
	}
	toggled := p.Signals.Toggle(key)
	s.people[id] = p
	return p.Clone(), toggled, nil
}

func (s *MemoryStore) ClearSignals(_ context.Context, id int) (types.Person, types.SignalSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.people[id]
	if !ok {
		return types.Person{}, types.SignalSet{}, fmt.Errorf("person %d: %w", id, ErrNotFound)
	}
	previous := p.Signals
	p.Signals.Clear()
	s.people[id] = p
	return p.Clone(), previous, nil
}

func (s *MemoryStore) Connections(_ context.Context) ([]types.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Connection, len(s.connections))
	copy(out, s.connections)
	return out, nil
}

func (s *MemoryStore) AddConnection(_ context.Context, c types.Connection) (types.Connection, error) {
	if c.SourcePersonID == c.TargetPersonID {
		return types.Connection{}, fmt.Errorf("%w: a person cannot be connected to themselves", ErrInvalidConnection)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	source, ok := s.people[c.SourcePersonID]
	if !ok {
		return types.Connection{}, fmt.Errorf("%w: source person %d does not exist", ErrInvalidConnection, c.SourcePersonID)
	}
	target, ok := s.people[c.TargetPersonID]
	if !ok {
		return types.Connection{}, fmt.Errorf("%w: target person %d does not exist", ErrInvalidConnection, c.TargetPersonID)
	}

	c.ID = s.nextConnID
	s.nextConnID++
	s.connections = append(s.connections, c)

	source.ConnectionIDs = addID(source.ConnectionIDs, target.ID)
	target.ConnectionIDs = addID(target.ConnectionIDs, source.ID)
	s.people[source.ID] = source
	s.people[target.ID] = target

	return c, nil
}

func (s *MemoryStore) Network(_ context.Context) (types.NetworkData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data := types.NetworkData{
		Nodes: make([]types.NetworkNode, 0, len(s.people)),
		Links: make([]types.NetworkLink, 0, len(s.connections)),
	}
	for _, p := range s.people {
		data.Nodes = append(data.Nodes, types.NetworkNode{
			ID:        p.ID,
			Label:     p.Name,
			Group:     p.Department,
			RiskScore: signals.ClassifyBySignals(p.Signals),
		})
	}
	sort.Slice(data.Nodes, func(i, j int) bool { return data.Nodes[i].ID < data.Nodes[j].ID })

	for _, c := range s.connections {
		data.Links = append(data.Links, types.NetworkLink{
			Source: c.SourcePersonID,
			Target: c.TargetPersonID,
			Label:  c.RelationType,
		})
	}
	return data, nil
}

// addID returns ids with id appended unless already present.
func addID(ids []int, id int) []int {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	out := make([]int, len(ids), len(ids)+1)
	copy(out, ids)
	return append(out, id)
}

func removeID(ids []int, id int) []int {
	out := make([]int, 0, len(ids))
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}
