package signallog

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/signify/internal/types"
)

func testEvents(personID int) []types.SignalLogEvent {
	return []types.SignalLogEvent{
		{ID: 1, PersonID: personID, Date: types.MustDate("2023-03-22"), EventType: types.EventArrest, Description: "second", RiskScoreImpact: 2},
		{ID: 2, PersonID: personID, Date: types.MustDate("2023-01-15"), EventType: types.EventMovingHouse, Description: "first", RiskScoreImpact: 2,
			ActionTaken: &types.ActionTaken{ActionID: "housing_support_visit", DateTaken: types.MustDate("2023-01-20"), Notes: "visited"}},
		{ID: 3, PersonID: personID, Date: types.MustDate("2023-01-15"), EventType: types.EventJobLoss, RiskScoreImpact: -1,
			ActionTaken: &types.ActionTaken{ActionID: "benefits_advice"}},
	}
}

func openSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), "sqlite://:memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// storeContract runs the behaviour every Store must share.
func storeContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("unknown person is empty at version 0", func(t *testing.T) {
		s := newStore(t)
		snap, err := s.Load(context.Background(), 42)
		require.NoError(t, err)
		assert.Equal(t, 42, snap.PersonID)
		assert.Equal(t, int64(0), snap.Version)
		assert.NotNil(t, snap.Events)
		assert.Empty(t, snap.Events)
	})

	t.Run("replace then load round trips in insertion order", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		v, err := s.Replace(ctx, 7, 0, testEvents(7))
		require.NoError(t, err)
		assert.Equal(t, int64(1), v)

		snap, err := s.Load(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, int64(1), snap.Version)
		assert.Equal(t, testEvents(7), snap.Events)
	})

	t.Run("stale version is rejected and nothing is written", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		_, err := s.Replace(ctx, 7, 0, testEvents(7))
		require.NoError(t, err)

		_, err = s.Replace(ctx, 7, 0, nil)
		assert.ErrorIs(t, err, ErrVersionConflict)

		snap, err := s.Load(ctx, 7)
		require.NoError(t, err)
		assert.Len(t, snap.Events, 3)
		assert.Equal(t, int64(1), snap.Version)
	})

	t.Run("replace with empty log keeps the person", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		_, err := s.Replace(ctx, 7, 0, testEvents(7))
		require.NoError(t, err)
		v, err := s.Replace(ctx, 7, 1, []types.SignalLogEvent{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), v)

		snap, err := s.Load(ctx, 7)
		require.NoError(t, err)
		assert.Empty(t, snap.Events)

		ids, err := s.PersonIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int{7}, ids)
	})

	t.Run("loaded events are independent copies", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		_, err := s.Replace(ctx, 1, 0, testEvents(1))
		require.NoError(t, err)

		snap, err := s.Load(ctx, 1)
		require.NoError(t, err)
		snap.Events[1].ActionTaken.Notes = "mutated"
		snap.Events[0].RiskScoreImpact = 99

		again, err := s.Load(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, testEvents(1), again.Events)
	})

	t.Run("person ids ascending", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		for _, id := range []int{301, 101, 201} {
			_, err := s.Replace(ctx, id, 0, testEvents(id))
			require.NoError(t, err)
		}
		ids, err := s.PersonIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int{101, 201, 301}, ids)
	})

	t.Run("concurrent writers at the same version", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		var wg sync.WaitGroup
		results := make([]error, 8)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, results[i] = s.Replace(ctx, 5, 0, testEvents(5)[:1])
			}(i)
		}
		wg.Wait()

		won := 0
		for _, err := range results {
			if err == nil {
				won++
			} else {
				assert.ErrorIs(t, err, ErrVersionConflict)
			}
		}
		assert.Equal(t, 1, won)
	})
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, func(t *testing.T) Store { return NewMemoryStore() })
}

func TestSQLiteStore(t *testing.T) {
	storeContract(t, func(t *testing.T) Store { return openSQLite(t) })
}

func TestSQLiteStore_ConflictRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s := NewSQLiteStore(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT version FROM signal_logs`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(4)))
	mock.ExpectRollback()

	v, err := s.Replace(context.Background(), 1, 3, testEvents(1))
	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.Equal(t, int64(4), v)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_InsertFailureRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s := NewSQLiteStore(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT version FROM signal_logs`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"version"}))
	mock.ExpectExec(`INSERT INTO signal_logs`).
		WithArgs(int64(1), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM signal_log_events`).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO signal_log_events`).
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	_, err = s.Replace(context.Background(), 1, 0, testEvents(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inserting signal log event 1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_LoadQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s := NewSQLiteStore(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT version FROM signal_logs`).
		WillReturnError(errors.New("database is locked"))
	mock.ExpectRollback()

	_, err = s.Load(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading signal log version")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParseDSN(t *testing.T) {
	tests := []struct {
		dsn     string
		want    string
		wantErr bool
	}{
		{"sqlite://:memory:", ":memory:", false},
		{"sqlite:///var/lib/signify.db", "/var/lib/signify.db", false},
		{"sqlite://data/signify.db", "./data/signify.db", false},
		{"sqlite://./signify.db", "./signify.db", false},
		{"sqlite://my%20logs.db?_pragma=busy_timeout(5000)", "./my logs.db?_pragma=busy_timeout(5000)", false},
		{"postgres://localhost/db", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			got, err := parseDSN(tt.dsn)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSeedDemoData(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, SeedDemoData(ctx, s))
	require.NoError(t, SeedDemoData(ctx, s))

	ids, err := s.PersonIDs(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, len(DemoLogs()))

	snap, err := s.Load(ctx, 101)
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.Version, "second seed must not rewrite")
	assert.Len(t, snap.Events, 3)
}
