// Package memory is an in-process store backend. It backs the CLI demo mode
// and tests; faults can be injected per table and operation.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/kilianp07/fleetrollout/core/model"
	"github.com/kilianp07/fleetrollout/core/store"
)

// Op names a table operation for fault injection and call counting.
type Op string

const (
	OpList   Op = "list"
	OpGet    Op = "get"
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// FaultFunc returns a non-nil error to make the operation fail.
type FaultFunc func(table string, op Op) error

type hooks struct {
	mu    sync.Mutex
	fault FaultFunc
	calls map[string]int
}

func (h *hooks) enter(table string, op Op) error {
	h.mu.Lock()
	h.calls[table+"."+string(op)]++
	f := h.fault
	h.mu.Unlock()
	if f != nil {
		return f(table, op)
	}
	return nil
}

type table[T store.Entity] struct {
	name string
	h    *hooks
	sort func([]T)

	mu   sync.RWMutex
	rows map[string]T
}

func newTable[T store.Entity](name string, h *hooks, sort func([]T)) *table[T] {
	return &table[T]{name: name, h: h, sort: sort, rows: map[string]T{}}
}

func (t *table[T]) List(ctx context.Context) ([]T, error) {
	if err := t.h.enter(t.name, OpList); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.RLock()
	res := make([]T, 0, len(t.rows))
	for _, r := range t.rows {
		res = append(res, r)
	}
	t.mu.RUnlock()
	t.sort(res)
	return res, nil
}

func (t *table[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	if err := t.h.enter(t.name, OpGet); err != nil {
		return zero, err
	}
	t.mu.RLock()
	r, ok := t.rows[id]
	t.mu.RUnlock()
	if !ok {
		return zero, fmt.Errorf("%s %s: %w", t.name, id, store.ErrNotFound)
	}
	return r, nil
}

func (t *table[T]) Insert(ctx context.Context, row T) error {
	if err := t.h.enter(t.name, OpInsert); err != nil {
		return err
	}
	if err := store.CheckRow(row); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[row.Key()]; ok {
		return fmt.Errorf("%s %s: %w", t.name, row.Key(), store.ErrDuplicate)
	}
	t.rows[row.Key()] = row
	return nil
}

// Update replaces the row stored under id. A missing id is a no-op, matching
// an UPDATE ... WHERE on a remote table.
func (t *table[T]) Update(ctx context.Context, id string, row T) error {
	if err := t.h.enter(t.name, OpUpdate); err != nil {
		return err
	}
	if err := store.CheckRow(row); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		return nil
	}
	if row.Key() != id {
		delete(t.rows, id)
	}
	t.rows[row.Key()] = row
	return nil
}

func (t *table[T]) Delete(ctx context.Context, id string) error {
	if err := t.h.enter(t.name, OpDelete); err != nil {
		return err
	}
	t.mu.Lock()
	delete(t.rows, id)
	t.mu.Unlock()
	return nil
}

type commentTable struct {
	*table[model.Comment]
}

func (c commentTable) ListByTask(ctx context.Context, taskID string) ([]model.Comment, error) {
	all, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, cm := range all {
		if cm.TaskID == taskID {
			out = append(out, cm)
		}
	}
	return out, nil
}

type settingsTable struct {
	h  *hooks
	mu sync.RWMutex
	s  *model.ProjectSettings
}

func (s *settingsTable) Get(ctx context.Context) (model.ProjectSettings, error) {
	if err := s.h.enter("project_settings", OpGet); err != nil {
		return model.ProjectSettings{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.s == nil {
		return model.ProjectSettings{}, fmt.Errorf("project_settings: %w", store.ErrNotFound)
	}
	return *s.s, nil
}

func (s *settingsTable) Upsert(ctx context.Context, ps model.ProjectSettings) error {
	if err := s.h.enter("project_settings", OpUpdate); err != nil {
		return err
	}
	if ps.ID == "" {
		ps.ID = model.SettingsID
	}
	s.mu.Lock()
	s.s = &ps
	s.mu.Unlock()
	return nil
}

// Store is the in-memory backend.
type Store struct {
	h         *hooks
	vehicles  *table[model.Vehicle]
	locations *table[model.Location]
	team      *table[model.TeamMember]
	tasks     *table[model.Task]
	comments  commentTable
	settings  *settingsTable
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	h := &hooks{calls: map[string]int{}}
	return &Store{
		h:         h,
		vehicles:  newTable("vehicles", h, store.SortVehicles),
		locations: newTable("locations", h, store.SortLocations),
		team:      newTable("team_members", h, store.SortTeamMembers),
		tasks:     newTable("tasks", h, store.SortTasks),
		comments:  commentTable{newTable("comments", h, store.SortComments)},
		settings:  &settingsTable{h: h},
	}
}

func (s *Store) Vehicles() store.Table[model.Vehicle]       { return s.vehicles }
func (s *Store) Locations() store.Table[model.Location]     { return s.locations }
func (s *Store) TeamMembers() store.Table[model.TeamMember] { return s.team }
func (s *Store) Tasks() store.Table[model.Task]             { return s.tasks }
func (s *Store) Comments() store.CommentTable               { return s.comments }
func (s *Store) Settings() store.SettingsTable              { return s.settings }
func (s *Store) Close(context.Context) error                { return nil }

// SetFault installs f for every subsequent operation. Pass nil to clear.
func (s *Store) SetFault(f FaultFunc) {
	s.h.mu.Lock()
	s.h.fault = f
	s.h.mu.Unlock()
}

// FailOn makes every op on table fail with err.
func (s *Store) FailOn(tbl string, op Op, err error) {
	s.SetFault(func(t string, o Op) error {
		if t == tbl && o == op {
			return err
		}
		return nil
	})
}

// Calls reports how many times op was invoked on table, faults included.
func (s *Store) Calls(tbl string, op Op) int {
	s.h.mu.Lock()
	defer s.h.mu.Unlock()
	return s.h.calls[tbl+"."+string(op)]
}
