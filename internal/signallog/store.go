// Package signallog stores each person's raw signal log: the dated life
// events and their risk impacts. Derived state (cumulative impact, risk
// category after each event) is never persisted; it is recomputed by
// package signals every time a log is read.
package signallog

import (
	"context"
	"errors"

	"github.com/matthewbaird/signify/internal/types"
)

// ErrVersionConflict is returned by Replace when the stored log has moved
// past the version the caller read.
var ErrVersionConflict = errors.New("signal log version conflict")

// Snapshot is a person's log as read at one version. A person with no log
// reads as an empty snapshot at version 0.
type Snapshot struct {
	PersonID int
	Version  int64
	Events   []types.SignalLogEvent
}

// Store is the interface for reading and writing signal logs.
//
// Logs are written whole: Replace swaps the complete event list for a
// person in one step, so no reader ever observes a partially updated log.
// Event order is preserved as written; it is the tie-break order when two
// events share a date.
type Store interface {
	// Load returns the person's log and its current version.
	Load(ctx context.Context, personID int) (Snapshot, error)

	// Replace writes events as the person's complete log if the stored
	// version still equals expectedVersion, and returns the new version.
	// Otherwise it writes nothing and returns ErrVersionConflict.
	Replace(ctx context.Context, personID int, expectedVersion int64, events []types.SignalLogEvent) (int64, error)

	// PersonIDs lists every person that has a log, ascending.
	PersonIDs(ctx context.Context) ([]int, error)
}

func cloneEvents(events []types.SignalLogEvent) []types.SignalLogEvent {
	out := make([]types.SignalLogEvent, len(events))
	for i, ev := range events {
		out[i] = ev.Clone()
	}
	return out
}
