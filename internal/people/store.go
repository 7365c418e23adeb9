// Package people stores the tracked individuals, their signal flags and
// the connections between them.
package people

import (
	"context"
	"errors"

	"github.com/matthewbaird/signify/internal/types"
)

var (
	ErrNotFound          = errors.New("person not found")
	ErrAlreadyExists     = errors.New("person id already in use")
	ErrInvalidPerson     = errors.New("invalid person")
	ErrInvalidConnection = errors.New("invalid connection")
)

// Patch holds the fields of a partial person update. Nil fields are left
// unchanged. Signals change only through ToggleSignal and ClearSignals, and
// connections only through AddConnection.
type Patch struct {
	Name       *string `json:"name,omitempty"`
	Email      *string `json:"email,omitempty"`
	Department *string `json:"department,omitempty"`
	Role       *string `json:"role,omitempty"`
	Age        *int    `json:"age,omitempty"`
	Ward       *string `json:"ward,omitempty"`
}

// Store is the interface for reading and writing people.
type Store interface {
	List(ctx context.Context) ([]types.Person, error)
	Get(ctx context.Context, id int) (types.Person, error)

	// Create stores a new person. ID 0 assigns the next free id. An explicit
	// id that is in use, or belonged to a deleted person, is ErrAlreadyExists.
	Create(ctx context.Context, p types.Person) (types.Person, error)
	Update(ctx context.Context, id int, patch Patch) (types.Person, error)

	// Delete removes the person and every connection touching them.
	Delete(ctx context.Context, id int) error

	// ToggleSignal flips one signal. The bool is false when the key is
	// unknown, in which case the person is returned unchanged.
	ToggleSignal(ctx context.Context, id int, key types.SignalKey) (types.Person, bool, error)

	// ClearSignals resets every signal and also returns the set as it was
	// before clearing.
	ClearSignals(ctx context.Context, id int) (types.Person, types.SignalSet, error)

	Connections(ctx context.Context) ([]types.Connection, error)

	// AddConnection links two existing people and records each in the
	// other's adjacency list.
	AddConnection(ctx context.Context, c types.Connection) (types.Connection, error)

	// Network returns the relationship graph with each node's risk
	// category derived from its signals.
	Network(ctx context.Context) (types.NetworkData, error)
}
