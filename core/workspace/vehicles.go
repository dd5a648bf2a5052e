package workspace

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/kilianp07/fleetrollout/core/cache"
	"github.com/kilianp07/fleetrollout/core/model"
	"github.com/kilianp07/fleetrollout/core/optimistic"
	"github.com/kilianp07/fleetrollout/core/schedule"
	"github.com/kilianp07/fleetrollout/core/store"
	"github.com/kilianp07/fleetrollout/core/validation"
)

func (w *Workspace) Vehicles() cache.View[[]model.Vehicle] { return w.vehicles.Get() }

// CreateVehicle adds v to the fleet.
func (w *Workspace) CreateVehicle(ctx context.Context, v model.Vehicle) (model.Vehicle, error) {
	if err := validation.Check(w.val.ValidateVehicle(v)); err != nil {
		return model.Vehicle{}, err
	}
	if _, ok := find(w.vehicles.Peek().Data, v.ID); ok {
		return model.Vehicle{}, duplicate("vehicle", v.ID)
	}
	now := w.now()
	v.CreatedAt, v.UpdatedAt = now, now
	m := optimistic.Mutation{Operation: "create", EntityID: v.ID, Payload: v}
	err := optimistic.Apply(ctx, w.ctl, w.vehicles, m,
		func(in []model.Vehicle) []model.Vehicle { return with(in, v, store.SortVehicles) },
		func(ctx context.Context) error { return w.st.Vehicles().Insert(ctx, v) })
	return v, err
}

// UpdateVehicle replaces the vehicle id with v.
func (w *Workspace) UpdateVehicle(ctx context.Context, id string, v model.Vehicle) (model.Vehicle, error) {
	cur, ok := find(w.vehicles.Peek().Data, id)
	if !ok {
		return model.Vehicle{}, notFound("vehicle", id)
	}
	v.ID = id
	if err := validation.Check(w.val.ValidateVehicle(v)); err != nil {
		return model.Vehicle{}, err
	}
	v.CreatedAt, v.UpdatedAt = cur.CreatedAt, w.now()
	m := optimistic.Mutation{Operation: "update", EntityID: id, Payload: v}
	err := optimistic.Apply(ctx, w.ctl, w.vehicles, m,
		func(in []model.Vehicle) []model.Vehicle { return replaced(in, id, v, store.SortVehicles) },
		func(ctx context.Context) error { return w.st.Vehicles().Update(ctx, id, v) })
	return v, err
}

// UpdateVehicleStatus sets the installation status of a vehicle. Any
// transition between known statuses is accepted.
func (w *Workspace) UpdateVehicleStatus(ctx context.Context, id string, status model.VehicleStatus) error {
	if !status.Valid() {
		return validation.Check([]string{fmt.Sprintf("Status %q is not one of %v", status, model.VehicleStatuses)})
	}
	if _, ok := find(w.vehicles.Peek().Data, id); !ok {
		return notFound("vehicle", id)
	}
	now := w.now()
	set := func(v model.Vehicle) model.Vehicle {
		v.Status, v.UpdatedAt = status, now
		return v
	}
	m := optimistic.Mutation{Operation: "update_status", EntityID: id, Payload: map[string]any{"id": id, "status": status}}
	return optimistic.Apply(ctx, w.ctl, w.vehicles, m,
		func(in []model.Vehicle) []model.Vehicle { return patched(in, id, set) },
		patchRemote(w.st.Vehicles(), id, set))
}

// DeleteVehicle removes a vehicle. Its tasks are left in place.
func (w *Workspace) DeleteVehicle(ctx context.Context, id string) error {
	m := optimistic.Mutation{Operation: "delete", EntityID: id}
	return optimistic.Apply(ctx, w.ctl, w.vehicles, m,
		func(in []model.Vehicle) []model.Vehicle { return without(in, id) },
		func(ctx context.Context) error { return w.st.Vehicles().Delete(ctx, id) })
}

// Reschedule moves a vehicle to another day and slot. It reports whether
// anything changed.
func (w *Workspace) Reschedule(ctx context.Context, id string, day int, slot string) (bool, error) {
	var msgs []string
	if day < 1 {
		msgs = append(msgs, "Day must be at least 1")
	}
	switch {
	case slot == "":
		msgs = append(msgs, "Time slot is required")
	case !slices.Contains(w.slots, slot):
		msgs = append(msgs, fmt.Sprintf("Time slot must be one of %s", strings.Join(w.slots, ", ")))
	}
	if err := validation.Check(msgs); err != nil {
		return false, err
	}
	return w.planner.Reschedule(ctx, id, day, slot)
}

// PreviewReschedule returns the target date and current occupants of a move.
func (w *Workspace) PreviewReschedule(id string, day int, slot string) (schedule.Preview, error) {
	return w.planner.Preview(id, day, slot)
}
