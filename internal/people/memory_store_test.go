package people

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/signify/internal/types"
)

func seededStore(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore()
	require.NoError(t, SeedDemoData(context.Background(), s))
	return s
}

func TestMemoryStore_CreateAssignsIDs(t *testing.T) {
	ctx := context.Background()
	s := seededStore(t)

	p, err := s.Create(ctx, types.Person{Name: "  Ava Stone ", Role: "Student"})
	require.NoError(t, err)
	assert.Equal(t, 302, p.ID)
	assert.Equal(t, "Ava Stone", p.Name)
	assert.Equal(t, []int{}, p.ConnectionIDs)

	require.NoError(t, s.Delete(ctx, p.ID))
	again, err := s.Create(ctx, types.Person{Name: "Ben Stone"})
	require.NoError(t, err)
	assert.Equal(t, 303, again.ID, "ids are not reused after delete")
}

func TestMemoryStore_CreateValidation(t *testing.T) {
	ctx := context.Background()
	s := seededStore(t)

	_, err := s.Create(ctx, types.Person{Name: "   "})
	assert.ErrorIs(t, err, ErrInvalidPerson)

	_, err = s.Create(ctx, types.Person{ID: 101, Name: "Duplicate"})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestMemoryStore_GetNotFound(t *testing.T) {
	_, err := NewMemoryStore().Get(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_UpdatePatch(t *testing.T) {
	ctx := context.Background()
	s := seededStore(t)

	ward := "Harbourside"
	age := 12
	p, err := s.Update(ctx, 104, Patch{Ward: &ward, Age: &age})
	require.NoError(t, err)
	assert.Equal(t, "Sophia Martinez", p.Name)
	assert.Equal(t, "Harbourside", p.Ward)
	assert.Equal(t, 12, p.Age)

	empty := " "
	_, err = s.Update(ctx, 104, Patch{Name: &empty})
	assert.ErrorIs(t, err, ErrInvalidPerson)

	_, err = s.Update(ctx, 999, Patch{Ward: &ward})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ToggleSignal(t *testing.T) {
	ctx := context.Background()
	s := seededStore(t)

	p, toggled, err := s.ToggleSignal(ctx, 104, types.SignalCareStatus)
	require.NoError(t, err)
	assert.True(t, toggled)
	assert.True(t, p.Signals.CareStatus)

	p, toggled, err = s.ToggleSignal(ctx, 104, types.SignalCareStatus)
	require.NoError(t, err)
	assert.True(t, toggled)
	assert.False(t, p.Signals.CareStatus)

	p, toggled, err = s.ToggleSignal(ctx, 104, "not_a_signal")
	require.NoError(t, err)
	assert.False(t, toggled)
	assert.Equal(t, 0, p.Signals.Count())

	_, _, err = s.ToggleSignal(ctx, 999, types.SignalCareStatus)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ConcurrentTogglesAreAtomic(t *testing.T) {
	ctx := context.Background()
	s := seededStore(t)

	// An even number of flips of the same signal must end where it began.
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = s.ToggleSignal(ctx, 105, types.SignalYouthJustice)
		}()
	}
	wg.Wait()

	p, err := s.Get(ctx, 105)
	require.NoError(t, err)
	assert.False(t, p.Signals.YouthJustice)
}

func TestMemoryStore_ClearSignals(t *testing.T) {
	ctx := context.Background()
	s := seededStore(t)

	p, previous, err := s.ClearSignals(ctx, 301)
	require.NoError(t, err)
	assert.Equal(t, types.SignalSet{}, p.Signals)
	assert.Equal(t, 4, previous.Count())

	_, _, err = s.ClearSignals(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_AddConnection(t *testing.T) {
	ctx := context.Background()
	s := seededStore(t)

	c, err := s.AddConnection(ctx, types.Connection{SourcePersonID: 104, TargetPersonID: 105, RelationType: "Sibling"})
	require.NoError(t, err)
	assert.NotZero(t, c.ID)

	a, err := s.Get(ctx, 104)
	require.NoError(t, err)
	b, err := s.Get(ctx, 105)
	require.NoError(t, err)
	assert.Contains(t, a.ConnectionIDs, 105)
	assert.Contains(t, b.ConnectionIDs, 104)

	// A second link between the same pair does not duplicate adjacency.
	_, err = s.AddConnection(ctx, types.Connection{SourcePersonID: 105, TargetPersonID: 104, RelationType: "Friend"})
	require.NoError(t, err)
	a, err = s.Get(ctx, 104)
	require.NoError(t, err)
	count := 0
	for _, id := range a.ConnectionIDs {
		if id == 105 {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestMemoryStore_AddConnectionInvalid(t *testing.T) {
	ctx := context.Background()
	s := seededStore(t)

	_, err := s.AddConnection(ctx, types.Connection{SourcePersonID: 101, TargetPersonID: 999})
	assert.ErrorIs(t, err, ErrInvalidConnection)

	_, err = s.AddConnection(ctx, types.Connection{SourcePersonID: 101, TargetPersonID: 101})
	assert.ErrorIs(t, err, ErrInvalidConnection)
}

func TestMemoryStore_DeleteRemovesConnections(t *testing.T) {
	ctx := context.Background()
	s := seededStore(t)

	require.NoError(t, s.Delete(ctx, 101))

	conns, err := s.Connections(ctx)
	require.NoError(t, err)
	for _, c := range conns {
		assert.NotEqual(t, 101, c.SourcePersonID)
		assert.NotEqual(t, 101, c.TargetPersonID)
	}

	teacher, err := s.Get(ctx, 1)
	require.NoError(t, err)
	assert.NotContains(t, teacher.ConnectionIDs, 101)

	assert.ErrorIs(t, s.Delete(ctx, 101), ErrNotFound)

	_, err = s.Create(ctx, types.Person{ID: 101, Name: "Someone Else"})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestMemoryStore_Network(t *testing.T) {
	ctx := context.Background()
	s := seededStore(t)

	data, err := s.Network(ctx)
	require.NoError(t, err)
	assert.Len(t, data.Nodes, len(DemoPeople()))
	assert.Len(t, data.Links, len(DemoConnections()))

	risk := make(map[int]types.RiskCategory)
	for _, n := range data.Nodes {
		risk[n.ID] = n.RiskScore
	}
	assert.Equal(t, types.RiskRed, risk[101])
	assert.Equal(t, types.RiskAmber, risk[103])
	assert.Equal(t, types.RiskGreen, risk[104])
	assert.Equal(t, types.RiskRed, risk[301])
}

func TestSeedDemoData_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := seededStore(t)
	require.NoError(t, SeedDemoData(ctx, s))

	conns, err := s.Connections(ctx)
	require.NoError(t, err)
	assert.Len(t, conns, len(DemoConnections()))
}
