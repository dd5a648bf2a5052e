package workspace

import (
	"context"
	"errors"

	"github.com/kilianp07/fleetrollout/core/cache"
	"github.com/kilianp07/fleetrollout/core/model"
	"github.com/kilianp07/fleetrollout/core/optimistic"
	"github.com/kilianp07/fleetrollout/core/store"
	"github.com/kilianp07/fleetrollout/core/validation"
)

func (w *Workspace) Settings() cache.View[model.ProjectSettings] { return w.settings.Get() }

// UpdateProjectStartDate moves the project start. Vehicles keep their day
// indices, so every derived date moves with it.
func (w *Workspace) UpdateProjectStartDate(ctx context.Context, d model.Date) error {
	if d.IsZero() {
		return validation.Check([]string{"Project start date is required"})
	}
	now := w.now()
	m := optimistic.Mutation{Operation: "update_start_date", EntityID: model.SettingsID, Payload: map[string]any{"project_start_date": d}}
	return optimistic.Apply(ctx, w.ctl, w.settings, m,
		func(s model.ProjectSettings) model.ProjectSettings {
			s.ID, s.ProjectStartDate, s.UpdatedAt = model.SettingsID, d, now
			return s
		},
		func(ctx context.Context) error {
			cur, err := w.st.Settings().Get(ctx)
			switch {
			case errors.Is(err, store.ErrNotFound):
				cur = model.ProjectSettings{ID: model.SettingsID, CreatedAt: now}
			case err != nil:
				return err
			}
			cur.ProjectStartDate, cur.UpdatedAt = d, now
			return w.st.Settings().Upsert(ctx, cur)
		})
}

// ResetProject puts every vehicle and task back to Pending. Both collections
// are attempted even when the first fails.
func (w *Workspace) ResetProject(ctx context.Context) error {
	now := w.now()
	resetVehicle := func(v model.Vehicle) model.Vehicle {
		v.Status, v.UpdatedAt = model.VehiclePending, now
		return v
	}
	resetTask := func(t model.Task) model.Task {
		t.Status, t.UpdatedAt = model.TaskPending, now
		return t
	}
	m := optimistic.Mutation{Operation: "reset"}
	verr := optimistic.Apply(ctx, w.ctl, w.vehicles, m,
		func(in []model.Vehicle) []model.Vehicle { return mapped(in, resetVehicle) },
		func(ctx context.Context) error {
			return resetRemote(ctx, w.st.Vehicles(), func(v model.Vehicle) bool { return v.Status != model.VehiclePending }, resetVehicle)
		})
	terr := optimistic.Apply(ctx, w.ctl, w.tasks, m,
		func(in []model.Task) []model.Task { return mapped(in, resetTask) },
		func(ctx context.Context) error {
			return resetRemote(ctx, w.st.Tasks(), func(t model.Task) bool { return t.Status != model.TaskPending }, resetTask)
		})
	return errors.Join(verr, terr)
}

func mapped[T any](in []T, f func(T) T) []T {
	out := make([]T, len(in))
	for i, r := range in {
		out[i] = f(r)
	}
	return out
}

func resetRemote[T store.Entity](ctx context.Context, t store.Table[T], dirty func(T) bool, reset func(T) T) error {
	rows, err := t.List(ctx)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if !dirty(r) {
			continue
		}
		if err := t.Update(ctx, r.Key(), reset(r)); err != nil {
			return err
		}
	}
	return nil
}
