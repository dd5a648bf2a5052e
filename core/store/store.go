// Package store declares the contract between the coordination core and the
// remote source of truth. Adapters under infra/store are the only components
// performing I/O.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/kilianp07/fleetrollout/core/model"
)

var (
	// ErrNotFound is returned by Get when no row has the requested identity.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned by Insert when the identity already exists.
	ErrDuplicate = errors.New("store: duplicate identity")
	// ErrInvalidRow marks a row that failed its structural check.
	ErrInvalidRow = errors.New("store: invalid row")
)

// Entity is a row with an identity and a structural check.
type Entity interface {
	Key() string
	Check() error
}

// Table is the row-level contract of a single collection. Update and Delete
// are idempotent by primary key: updating or deleting a missing row is not an
// error.
type Table[T Entity] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	Insert(ctx context.Context, row T) error
	Update(ctx context.Context, id string, row T) error
	Delete(ctx context.Context, id string) error
}

// CommentTable adds the per-task lookup used by the comment thread.
type CommentTable interface {
	Table[model.Comment]
	ListByTask(ctx context.Context, taskID string) ([]model.Comment, error)
}

// SettingsTable manages the project settings singleton.
type SettingsTable interface {
	Get(ctx context.Context) (model.ProjectSettings, error)
	Upsert(ctx context.Context, s model.ProjectSettings) error
}

// Store bundles the tables of one backend.
type Store interface {
	Vehicles() Table[model.Vehicle]
	Locations() Table[model.Location]
	TeamMembers() Table[model.TeamMember]
	Tasks() Table[model.Task]
	Comments() CommentTable
	Settings() SettingsTable
	Close(ctx context.Context) error
}

// CheckRow wraps a failed structural check in ErrInvalidRow.
func CheckRow[T Entity](row T) error {
	if err := row.Check(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRow, err)
	}
	return nil
}

// FilterValid drops rows failing their structural check and reports each
// rejection through reject when it is non-nil.
func FilterValid[T Entity](rows []T, reject func(error)) []T {
	out := rows[:0]
	for _, r := range rows {
		if err := CheckRow(r); err != nil {
			if reject != nil {
				reject(err)
			}
			continue
		}
		out = append(out, r)
	}
	return out
}
