package signallog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/matthewbaird/signify/internal/types"

	_ "modernc.org/sqlite"
)

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store on SQLite. Each log is a header row in
// signal_logs carrying the version, plus one row per event in
// signal_log_events ordered by position.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens the database named by a sqlite:// DSN and creates the
// tables if they do not exist.
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	driverDSN, err := parseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing sqlite DSN: %w", err)
	}

	db, err := sql.Open("sqlite", driverDSN)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	if driverDSN == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA busy_timeout = 30000;",
		"PRAGMA foreign_keys = ON;",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", pragma, err)
		}
	}

	s := NewSQLiteStore(db)
	if err := s.CreateTables(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStore wraps an already opened database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateTables creates the signal log tables.
func (s *SQLiteStore) CreateTables(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS signal_logs (
			person_id INTEGER PRIMARY KEY,
			version   INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS signal_log_events (
			person_id         INTEGER NOT NULL REFERENCES signal_logs(person_id) ON DELETE CASCADE,
			position          INTEGER NOT NULL,
			event_id          INTEGER NOT NULL,
			event_date        TEXT NOT NULL,
			event_type        TEXT NOT NULL,
			description       TEXT NOT NULL DEFAULT '',
			risk_score_impact INTEGER NOT NULL,
			action_id         TEXT,
			action_date       TEXT,
			action_notes      TEXT,
			PRIMARY KEY (person_id, position)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating signal log tables: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, personID int) (Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("beginning read: %w", err)
	}
	defer tx.Rollback()

	snap := Snapshot{PersonID: personID, Events: []types.SignalLogEvent{}}

	version, err := currentVersion(ctx, tx, personID)
	if err != nil {
		return Snapshot{}, err
	}
	snap.Version = version
	if version == 0 {
		return snap, nil
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT event_id, event_date, event_type, description, risk_score_impact,
			action_id, action_date, action_notes
		FROM signal_log_events
		WHERE person_id = ?
		ORDER BY position`, personID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("querying signal log events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return Snapshot{}, err
		}
		ev.PersonID = personID
		snap.Events = append(snap.Events, ev)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("iterating signal log events: %w", err)
	}

	return snap, nil
}

func (s *SQLiteStore) Replace(ctx context.Context, personID int, expectedVersion int64, events []types.SignalLogEvent) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning replace: %w", err)
	}
	defer tx.Rollback()

	current, err := currentVersion(ctx, tx, personID)
	if err != nil {
		return 0, err
	}
	if current != expectedVersion {
		return current, ErrVersionConflict
	}
	next := current + 1

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO signal_logs (person_id, version) VALUES (?, ?)
		ON CONFLICT (person_id) DO UPDATE SET version = excluded.version`,
		personID, next,
	); err != nil {
		return 0, fmt.Errorf("writing signal log version: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM signal_log_events WHERE person_id = ?`, personID); err != nil {
		return 0, fmt.Errorf("clearing signal log events: %w", err)
	}

	for i, ev := range events {
		var actionID, actionDate, actionNotes sql.NullString
		if ev.ActionTaken != nil {
			actionID = sql.NullString{String: ev.ActionTaken.ActionID, Valid: true}
			actionDate = sql.NullString{String: ev.ActionTaken.DateTaken.String(), Valid: !ev.ActionTaken.DateTaken.IsZero()}
			actionNotes = sql.NullString{String: ev.ActionTaken.Notes, Valid: ev.ActionTaken.Notes != ""}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO signal_log_events (
				person_id, position, event_id, event_date, event_type, description,
				risk_score_impact, action_id, action_date, action_notes
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			personID, i, ev.ID, ev.Date.String(), string(ev.EventType), ev.Description,
			ev.RiskScoreImpact, actionID, actionDate, actionNotes,
		); err != nil {
			return 0, fmt.Errorf("inserting signal log event %d: %w", ev.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing signal log: %w", err)
	}
	return next, nil
}

func (s *SQLiteStore) PersonIDs(ctx context.Context) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT person_id FROM signal_logs ORDER BY person_id`)
	if err != nil {
		return nil, fmt.Errorf("querying signal log owners: %w", err)
	}
	defer rows.Close()

	ids := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning person id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating signal log owners: %w", err)
	}
	return ids, nil
}

func currentVersion(ctx context.Context, tx *sql.Tx, personID int) (int64, error) {
	var version int64
	err := tx.QueryRowContext(ctx, `SELECT version FROM signal_logs WHERE person_id = ?`, personID).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading signal log version: %w", err)
	}
	return version, nil
}

func scanEvent(rows *sql.Rows) (types.SignalLogEvent, error) {
	var (
		ev                                types.SignalLogEvent
		date, eventType                   string
		actionID, actionDate, actionNotes sql.NullString
	)
	if err := rows.Scan(
		&ev.ID, &date, &eventType, &ev.Description, &ev.RiskScoreImpact,
		&actionID, &actionDate, &actionNotes,
	); err != nil {
		return ev, fmt.Errorf("scanning signal log event: %w", err)
	}

	d, err := types.ParseDate(date)
	if err != nil {
		return ev, fmt.Errorf("event %d: %w", ev.ID, err)
	}
	ev.Date = d
	ev.EventType = types.EventType(eventType)

	if actionID.Valid {
		taken := &types.ActionTaken{ActionID: actionID.String, Notes: actionNotes.String}
		if actionDate.Valid {
			if taken.DateTaken, err = types.ParseDate(actionDate.String); err != nil {
				return ev, fmt.Errorf("event %d action: %w", ev.ID, err)
			}
		}
		ev.ActionTaken = taken
	}
	return ev, nil
}
