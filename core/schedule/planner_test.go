package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleetrollout/core/cache"
	"github.com/kilianp07/fleetrollout/core/model"
	"github.com/kilianp07/fleetrollout/core/optimistic"
	"github.com/kilianp07/fleetrollout/infra/store/memory"
	"github.com/kilianp07/fleetrollout/internal/clock"
)

type plannerFixture struct {
	st       *memory.Store
	planner  *Planner
	vehicles *cache.Resource[[]model.Vehicle]
	settings *cache.Resource[model.ProjectSettings]
	ctl      *optimistic.Controller
}

func newPlanner(t *testing.T) plannerFixture {
	t.Helper()
	ctx := context.Background()
	st := memory.New()
	require.NoError(t, st.Vehicles().Insert(ctx, model.Vehicle{ID: "V001", Location: "Addis Ababa", Day: 1, TimeSlot: "08:00-10:00", Status: model.VehiclePending}))
	require.NoError(t, st.Vehicles().Insert(ctx, model.Vehicle{ID: "V002", Location: "Addis Ababa", Day: 3, TimeSlot: "14:00-16:00", Status: model.VehiclePending}))
	require.NoError(t, st.Settings().Upsert(ctx, model.ProjectSettings{ProjectStartDate: model.MustParseDate("2025-01-06")}))

	c := cache.New(cache.Options{})
	t.Cleanup(c.Close)
	vehicles, err := cache.NewResource(c, cache.KeyVehicles, st.Vehicles().List)
	require.NoError(t, err)
	settings, err := cache.NewResource(c, cache.KeyProjectSettings, st.Settings().Get)
	require.NoError(t, err)
	require.NoError(t, c.Init(ctx))

	ctl := optimistic.NewController(optimistic.Options{})
	clk := clock.NewFake(time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC))
	return plannerFixture{
		st:       st,
		planner:  NewPlanner(ctl, vehicles, settings, st.Vehicles(), clk),
		vehicles: vehicles,
		settings: settings,
		ctl:      ctl,
	}
}

func find(vs []model.Vehicle, id string) model.Vehicle {
	for _, v := range vs {
		if v.ID == id {
			return v
		}
	}
	return model.Vehicle{}
}

func TestRescheduleRoundTrip(t *testing.T) {
	f := newPlanner(t)
	ctx := context.Background()

	changed, err := f.planner.Reschedule(ctx, "V001", 4, "10:00-12:00")
	require.NoError(t, err)
	assert.True(t, changed)
	v := find(f.vehicles.Peek().Data, "V001")
	assert.Equal(t, 4, v.Day)
	assert.Equal(t, "10:00-12:00", v.TimeSlot)

	changed, err = f.planner.Reschedule(ctx, "V001", 1, "08:00-10:00")
	require.NoError(t, err)
	assert.True(t, changed)
	stored, err := f.st.Vehicles().Get(ctx, "V001")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Day)
	assert.Equal(t, "08:00-10:00", stored.TimeSlot)
	assert.Equal(t, model.VehiclePending, stored.Status)
}

func TestRescheduleUnchangedIsNoop(t *testing.T) {
	f := newPlanner(t)
	before := f.st.Calls("vehicles", memory.OpUpdate)
	changed, err := f.planner.Reschedule(context.Background(), "V001", 1, "08:00-10:00")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, before, f.st.Calls("vehicles", memory.OpUpdate))
	assert.Equal(t, optimistic.StateIdle, f.ctl.State(cache.KeyVehicles))
}

func TestRescheduleIntoOccupiedCell(t *testing.T) {
	f := newPlanner(t)
	pv, err := f.planner.Preview("V001", 3, "14:00-16:00")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-08", pv.Date.String())
	require.Len(t, pv.Occupants, 1)
	assert.Equal(t, "V002", pv.Occupants[0].ID)

	_, err = f.planner.Reschedule(context.Background(), "V001", 3, "14:00-16:00")
	require.NoError(t, err)
	g := BuildGrid(f.vehicles.Peek().Data, nil, DefaultSlots, Filter{})
	assert.Len(t, g.Cell(3, "14:00-16:00"), 2)
}

func TestRescheduleFailureRollsBack(t *testing.T) {
	f := newPlanner(t)
	f.st.FailOn("vehicles", memory.OpUpdate, errors.New("conflict"))
	_, err := f.planner.Reschedule(context.Background(), "V001", 5, "16:00-18:00")
	var werr *optimistic.WriteError
	require.ErrorAs(t, err, &werr)
	v := find(f.vehicles.Peek().Data, "V001")
	assert.Equal(t, 1, v.Day)
	assert.Equal(t, optimistic.StateRolledBack, f.ctl.State(cache.KeyVehicles))
}

func TestRescheduleUnknownVehicle(t *testing.T) {
	f := newPlanner(t)
	_, err := f.planner.Reschedule(context.Background(), "V404", 1, "08:00-10:00")
	assert.ErrorIs(t, err, ErrUnknownVehicle)
	_, err = f.planner.Preview("V404", 1, "08:00-10:00")
	assert.ErrorIs(t, err, ErrUnknownVehicle)
}

func TestPlannerDateForDayTracksSettings(t *testing.T) {
	f := newPlanner(t)
	assert.Equal(t, "2025-01-13", f.planner.DateForDay(8).String())
	require.NoError(t, f.settings.MutateLocal(model.ProjectSettings{ProjectStartDate: model.MustParseDate("2025-03-03")}, false))
	assert.Equal(t, "2025-03-10", f.planner.DateForDay(8).String())

	require.NoError(t, f.settings.MutateLocal(model.ProjectSettings{}, false))
	assert.Equal(t, "2025-01-02", f.planner.StartDate().String())
}
