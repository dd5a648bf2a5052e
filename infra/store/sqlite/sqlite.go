// Package sqlite is a store backend on an embedded SQLite database. Rows are
// kept as JSON documents keyed by their identity, with the comment task id
// extracted for per-task lookups.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/fleetrollout/core/logger"
	"github.com/kilianp07/fleetrollout/core/model"
	"github.com/kilianp07/fleetrollout/core/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS vehicles (id TEXT PRIMARY KEY, parent TEXT, doc TEXT NOT NULL);
CREATE TABLE IF NOT EXISTS locations (id TEXT PRIMARY KEY, parent TEXT, doc TEXT NOT NULL);
CREATE TABLE IF NOT EXISTS team_members (id TEXT PRIMARY KEY, parent TEXT, doc TEXT NOT NULL);
CREATE TABLE IF NOT EXISTS tasks (id TEXT PRIMARY KEY, parent TEXT, doc TEXT NOT NULL);
CREATE TABLE IF NOT EXISTS comments (id TEXT PRIMARY KEY, parent TEXT, doc TEXT NOT NULL);
CREATE INDEX IF NOT EXISTS comments_parent ON comments (parent);
CREATE TABLE IF NOT EXISTS project_settings (id TEXT PRIMARY KEY, parent TEXT, doc TEXT NOT NULL);`

// Store implements store.Store on SQLite.
type Store struct {
	db        *sql.DB
	vehicles  *table[model.Vehicle]
	locations *table[model.Location]
	team      *table[model.TeamMember]
	tasks     *table[model.Task]
	comments  commentTable
	settings  settingsTable
}

var _ store.Store = (*Store)(nil)

// Open opens or creates the database at path and ensures the schema.
func Open(ctx context.Context, path string, log logger.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection serialises writers and keeps :memory: databases
	// shared.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	log = logger.OrNop(log)
	return &Store{
		db:        db,
		vehicles:  newTable("vehicles", db, log, store.SortVehicles, nil),
		locations: newTable("locations", db, log, store.SortLocations, nil),
		team:      newTable("team_members", db, log, store.SortTeamMembers, nil),
		tasks:     newTable("tasks", db, log, store.SortTasks, nil),
		comments: commentTable{newTable("comments", db, log, store.SortComments,
			func(c model.Comment) string { return c.TaskID })},
		settings: settingsTable{db: db},
	}, nil
}

func (s *Store) Vehicles() store.Table[model.Vehicle]       { return s.vehicles }
func (s *Store) Locations() store.Table[model.Location]     { return s.locations }
func (s *Store) TeamMembers() store.Table[model.TeamMember] { return s.team }
func (s *Store) Tasks() store.Table[model.Task]             { return s.tasks }
func (s *Store) Comments() store.CommentTable               { return s.comments }
func (s *Store) Settings() store.SettingsTable              { return s.settings }
func (s *Store) Close(context.Context) error                { return s.db.Close() }

type table[T store.Entity] struct {
	name   string
	db     *sql.DB
	log    logger.Logger
	order  func([]T)
	parent func(T) string
}

func newTable[T store.Entity](name string, db *sql.DB, log logger.Logger, order func([]T), parent func(T) string) *table[T] {
	return &table[T]{name: name, db: db, log: log, order: order, parent: parent}
}

func (t *table[T]) parentOf(row T) sql.NullString {
	if t.parent == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.parent(row), Valid: true}
}

func (t *table[T]) scan(rows *sql.Rows) ([]T, error) {
	defer func() { _ = rows.Close() }()
	var res []T
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var r T
		if err := json.Unmarshal([]byte(doc), &r); err != nil {
			t.log.Warnf("%s: skipping undecodable row: %v", t.name, err)
			continue
		}
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	res = store.FilterValid(res, func(err error) { t.log.Warnf("%s: %v", t.name, err) })
	t.order(res)
	return res, nil
}

func (t *table[T]) List(ctx context.Context) ([]T, error) {
	rows, err := t.db.QueryContext(ctx, `SELECT doc FROM `+t.name)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", t.name, err)
	}
	return t.scan(rows)
}

func (t *table[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	var doc string
	err := t.db.QueryRowContext(ctx, `SELECT doc FROM `+t.name+` WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, fmt.Errorf("%s %s: %w", t.name, id, store.ErrNotFound)
	}
	if err != nil {
		return zero, fmt.Errorf("get %s %s: %w", t.name, id, err)
	}
	var r T
	if err := json.Unmarshal([]byte(doc), &r); err != nil {
		return zero, fmt.Errorf("%w: %s %s: %v", store.ErrInvalidRow, t.name, id, err)
	}
	return r, nil
}

func (t *table[T]) Insert(ctx context.Context, row T) error {
	if err := store.CheckRow(row); err != nil {
		return err
	}
	doc, err := json.Marshal(row)
	if err != nil {
		return err
	}
	res, err := t.db.ExecContext(ctx,
		`INSERT INTO `+t.name+` (id, parent, doc) VALUES (?, ?, ?) ON CONFLICT(id) DO NOTHING`,
		row.Key(), t.parentOf(row), string(doc))
	if err != nil {
		return fmt.Errorf("insert %s %s: %w", t.name, row.Key(), err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s %s: %w", t.name, row.Key(), store.ErrDuplicate)
	}
	return nil
}

func (t *table[T]) Update(ctx context.Context, id string, row T) error {
	if err := store.CheckRow(row); err != nil {
		return err
	}
	doc, err := json.Marshal(row)
	if err != nil {
		return err
	}
	_, err = t.db.ExecContext(ctx, `UPDATE `+t.name+` SET parent = ?, doc = ? WHERE id = ?`,
		t.parentOf(row), string(doc), id)
	if err != nil {
		return fmt.Errorf("update %s %s: %w", t.name, id, err)
	}
	return nil
}

func (t *table[T]) Delete(ctx context.Context, id string) error {
	if _, err := t.db.ExecContext(ctx, `DELETE FROM `+t.name+` WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete %s %s: %w", t.name, id, err)
	}
	return nil
}

type commentTable struct {
	*table[model.Comment]
}

func (c commentTable) ListByTask(ctx context.Context, taskID string) ([]model.Comment, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT doc FROM comments WHERE parent = ?`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list comments of %s: %w", taskID, err)
	}
	return c.scan(rows)
}

type settingsTable struct {
	db *sql.DB
}

func (s settingsTable) Get(ctx context.Context) (model.ProjectSettings, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM project_settings WHERE id = ?`, model.SettingsID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ProjectSettings{}, fmt.Errorf("project_settings: %w", store.ErrNotFound)
	}
	if err != nil {
		return model.ProjectSettings{}, fmt.Errorf("get project_settings: %w", err)
	}
	var ps model.ProjectSettings
	if err := json.Unmarshal([]byte(doc), &ps); err != nil {
		return model.ProjectSettings{}, fmt.Errorf("%w: project_settings: %v", store.ErrInvalidRow, err)
	}
	return ps, nil
}

func (s settingsTable) Upsert(ctx context.Context, ps model.ProjectSettings) error {
	ps.ID = model.SettingsID
	doc, err := json.Marshal(ps)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO project_settings (id, doc) VALUES (?, ?)
        ON CONFLICT(id) DO UPDATE SET doc = excluded.doc`, ps.ID, string(doc))
	if err != nil {
		return fmt.Errorf("upsert project_settings: %w", err)
	}
	return nil
}
