// Package mongo is a store backend on MongoDB. Documents use the same
// snake_case field names as the JSON API, with the entity identity as _id.
package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kilianp07/fleetrollout/core/logger"
	"github.com/kilianp07/fleetrollout/core/model"
	"github.com/kilianp07/fleetrollout/core/store"
)

// Store implements store.Store on a MongoDB database.
type Store struct {
	client    *mongo.Client
	vehicles  *table[model.Vehicle]
	locations *table[model.Location]
	team      *table[model.TeamMember]
	tasks     *table[model.Task]
	comments  commentTable
	settings  settingsTable
}

var _ store.Store = (*Store)(nil)

// Connect dials uri, pings the server and prepares the collections of
// database.
func Connect(ctx context.Context, uri, database string, log logger.Logger) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	db := client.Database(database)
	_, err = db.Collection("comments").Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "task_id", Value: 1}}})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo index: %w", err)
	}
	log = logger.OrNop(log)
	return &Store{
		client:    client,
		vehicles:  newTable(db.Collection("vehicles"), log, store.SortVehicles),
		locations: newTable(db.Collection("locations"), log, store.SortLocations),
		team:      newTable(db.Collection("team_members"), log, store.SortTeamMembers),
		tasks:     newTable(db.Collection("tasks"), log, store.SortTasks),
		comments:  commentTable{newTable(db.Collection("comments"), log, store.SortComments)},
		settings:  settingsTable{coll: db.Collection("project_settings")},
	}, nil
}

func (s *Store) Vehicles() store.Table[model.Vehicle]       { return s.vehicles }
func (s *Store) Locations() store.Table[model.Location]     { return s.locations }
func (s *Store) TeamMembers() store.Table[model.TeamMember] { return s.team }
func (s *Store) Tasks() store.Table[model.Task]             { return s.tasks }
func (s *Store) Comments() store.CommentTable               { return s.comments }
func (s *Store) Settings() store.SettingsTable              { return s.settings }
func (s *Store) Close(ctx context.Context) error            { return s.client.Disconnect(ctx) }

// toDoc converts v to a document through its JSON form, so field names and
// date formats match the API.
func toDoc(id string, v any) (bson.M, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m bson.M
	if err := bson.UnmarshalExtJSON(b, false, &m); err != nil {
		return nil, err
	}
	m["_id"] = id
	return m, nil
}

func fromDoc(m bson.M, v any) error {
	delete(m, "_id")
	b, err := bson.MarshalExtJSON(m, false, false)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

type table[T store.Entity] struct {
	coll  *mongo.Collection
	log   logger.Logger
	order func([]T)
}

func newTable[T store.Entity](coll *mongo.Collection, log logger.Logger, order func([]T)) *table[T] {
	return &table[T]{coll: coll, log: log, order: order}
}

func (t *table[T]) find(ctx context.Context, filter bson.M) ([]T, error) {
	cur, err := t.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", t.coll.Name(), err)
	}
	defer func() { _ = cur.Close(ctx) }()
	var res []T
	for cur.Next(ctx) {
		var m bson.M
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		var r T
		if err := fromDoc(m, &r); err != nil {
			t.log.Warnf("%s: skipping undecodable document: %v", t.coll.Name(), err)
			continue
		}
		res = append(res, r)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	res = store.FilterValid(res, func(err error) { t.log.Warnf("%s: %v", t.coll.Name(), err) })
	t.order(res)
	return res, nil
}

func (t *table[T]) List(ctx context.Context) ([]T, error) {
	return t.find(ctx, bson.M{})
}

func (t *table[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	var m bson.M
	err := t.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return zero, fmt.Errorf("%s %s: %w", t.coll.Name(), id, store.ErrNotFound)
	}
	if err != nil {
		return zero, fmt.Errorf("get %s %s: %w", t.coll.Name(), id, err)
	}
	var r T
	if err := fromDoc(m, &r); err != nil {
		return zero, fmt.Errorf("%w: %s %s: %v", store.ErrInvalidRow, t.coll.Name(), id, err)
	}
	return r, nil
}

func (t *table[T]) Insert(ctx context.Context, row T) error {
	if err := store.CheckRow(row); err != nil {
		return err
	}
	doc, err := toDoc(row.Key(), row)
	if err != nil {
		return err
	}
	if _, err := t.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%s %s: %w", t.coll.Name(), row.Key(), store.ErrDuplicate)
		}
		return fmt.Errorf("insert %s %s: %w", t.coll.Name(), row.Key(), err)
	}
	return nil
}

func (t *table[T]) Update(ctx context.Context, id string, row T) error {
	if err := store.CheckRow(row); err != nil {
		return err
	}
	doc, err := toDoc(id, row)
	if err != nil {
		return err
	}
	if _, err := t.coll.ReplaceOne(ctx, bson.M{"_id": id}, doc); err != nil {
		return fmt.Errorf("update %s %s: %w", t.coll.Name(), id, err)
	}
	return nil
}

func (t *table[T]) Delete(ctx context.Context, id string) error {
	if _, err := t.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete %s %s: %w", t.coll.Name(), id, err)
	}
	return nil
}

type commentTable struct {
	*table[model.Comment]
}

func (c commentTable) ListByTask(ctx context.Context, taskID string) ([]model.Comment, error) {
	return c.find(ctx, bson.M{"task_id": taskID})
}

type settingsTable struct {
	coll *mongo.Collection
}

func (s settingsTable) Get(ctx context.Context) (model.ProjectSettings, error) {
	var m bson.M
	err := s.coll.FindOne(ctx, bson.M{"_id": model.SettingsID}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.ProjectSettings{}, fmt.Errorf("project_settings: %w", store.ErrNotFound)
	}
	if err != nil {
		return model.ProjectSettings{}, fmt.Errorf("get project_settings: %w", err)
	}
	var ps model.ProjectSettings
	if err := fromDoc(m, &ps); err != nil {
		return model.ProjectSettings{}, fmt.Errorf("%w: project_settings: %v", store.ErrInvalidRow, err)
	}
	return ps, nil
}

func (s settingsTable) Upsert(ctx context.Context, ps model.ProjectSettings) error {
	ps.ID = model.SettingsID
	doc, err := toDoc(ps.ID, ps)
	if err != nil {
		return err
	}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": ps.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert project_settings: %w", err)
	}
	return nil
}
