package workspace

import (
	"context"

	"github.com/kilianp07/fleetrollout/core/aggregate"
	"github.com/kilianp07/fleetrollout/core/cache"
	"github.com/kilianp07/fleetrollout/core/model"
	"github.com/kilianp07/fleetrollout/core/optimistic"
	"github.com/kilianp07/fleetrollout/core/store"
	"github.com/kilianp07/fleetrollout/core/validation"
)

func (w *Workspace) Locations() cache.View[[]model.Location] { return w.locations.Get() }

func (w *Workspace) CreateLocation(ctx context.Context, l model.Location) (model.Location, error) {
	if err := validation.Check(w.val.ValidateLocation(l)); err != nil {
		return model.Location{}, err
	}
	if _, ok := find(w.locations.Peek().Data, l.Name); ok {
		return model.Location{}, duplicate("location", l.Name)
	}
	l.CreatedAt = w.now()
	m := optimistic.Mutation{Operation: "create", EntityID: l.Name, Payload: l}
	err := optimistic.Apply(ctx, w.ctl, w.locations, m,
		func(in []model.Location) []model.Location { return with(in, l, store.SortLocations) },
		func(ctx context.Context) error { return w.st.Locations().Insert(ctx, l) })
	return l, err
}

// UpdateLocation replaces the location called name. Locations cannot be
// renamed.
func (w *Workspace) UpdateLocation(ctx context.Context, name string, l model.Location) (model.Location, error) {
	cur, ok := find(w.locations.Peek().Data, name)
	if !ok {
		return model.Location{}, notFound("location", name)
	}
	l.Name, l.CreatedAt = name, cur.CreatedAt
	if err := validation.Check(w.val.ValidateLocation(l)); err != nil {
		return model.Location{}, err
	}
	return l, w.putLocation(ctx, "update", l)
}

func (w *Workspace) putLocation(ctx context.Context, op string, l model.Location) error {
	m := optimistic.Mutation{Operation: op, EntityID: l.Name, Payload: l}
	return optimistic.Apply(ctx, w.ctl, w.locations, m,
		func(in []model.Location) []model.Location { return replaced(in, l.Name, l, store.SortLocations) },
		func(ctx context.Context) error { return w.st.Locations().Update(ctx, l.Name, l) })
}

// DeleteLocation removes a location. Vehicles referencing it keep their
// location name and simply stop being counted anywhere.
func (w *Workspace) DeleteLocation(ctx context.Context, name string) error {
	m := optimistic.Mutation{Operation: "delete", EntityID: name}
	return optimistic.Apply(ctx, w.ctl, w.locations, m,
		func(in []model.Location) []model.Location { return without(in, name) },
		func(ctx context.Context) error { return w.st.Locations().Delete(ctx, name) })
}

// SyncLocationCounts rewrites the declared counters of a location from the
// vehicles that reference it. It reports false when nothing drifted.
func (w *Workspace) SyncLocationCounts(ctx context.Context, name string) (model.Location, bool, error) {
	cur, ok := find(w.locations.Peek().Data, name)
	if !ok {
		return model.Location{}, false, notFound("location", name)
	}
	synced := aggregate.SyncedLocation(cur, w.vehicles.Peek().Data)
	if synced == cur {
		return cur, false, nil
	}
	if err := w.putLocation(ctx, "sync_counts", synced); err != nil {
		return model.Location{}, false, err
	}
	return synced, true, nil
}
