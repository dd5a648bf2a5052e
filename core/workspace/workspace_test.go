package workspace

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleetrollout/core/cache"
	"github.com/kilianp07/fleetrollout/core/model"
	"github.com/kilianp07/fleetrollout/core/notify"
	"github.com/kilianp07/fleetrollout/core/optimistic"
	"github.com/kilianp07/fleetrollout/core/schedule"
	"github.com/kilianp07/fleetrollout/core/store"
	"github.com/kilianp07/fleetrollout/core/validation"
	"github.com/kilianp07/fleetrollout/infra/store/memory"
	"github.com/kilianp07/fleetrollout/internal/clock"
)

type fixture struct {
	w   *Workspace
	st  *memory.Store
	rec *notify.Recorder
	clk *clock.Fake
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	st := memory.New()
	require.NoError(t, st.Load(ctx, memory.DemoSeed()))
	clk := clock.NewFake(time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC))
	rec := &notify.Recorder{}
	c := cache.New(cache.Options{})
	t.Cleanup(c.Close)
	w, err := New(c, st, Options{Clock: clk, Notifier: rec})
	require.NoError(t, err)
	require.NoError(t, w.Init(ctx))
	t.Cleanup(w.Close)
	return fixture{w: w, st: st, rec: rec, clk: clk}
}

func vehicleByID(t *testing.T, rows []model.Vehicle, id string) model.Vehicle {
	t.Helper()
	v, ok := find(rows, id)
	require.True(t, ok, "vehicle %s missing", id)
	return v
}

func TestUpdateVehicleStatusRollsBackOnWriteFailure(t *testing.T) {
	f := newFixture(t)
	f.st.FailOn("vehicles", memory.OpUpdate, errors.New("permission denied"))

	err := f.w.UpdateVehicleStatus(context.Background(), "V003", model.VehicleInProgress)
	var werr *optimistic.WriteError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, "V003", werr.EntityID)

	assert.Equal(t, model.VehiclePending, vehicleByID(t, f.w.Vehicles().Data, "V003").Status)
	assert.Equal(t, optimistic.StateRolledBack, f.w.Controller().State(cache.KeyVehicles))
	f.w.Close()
	assert.Empty(t, f.rec.Events())
}

func TestUpdateVehicleStatusConfirmsAndNotifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.w.UpdateVehicleStatus(ctx, "V003", model.VehicleCompleted))
	remote, err := f.st.Vehicles().Get(ctx, "V003")
	require.NoError(t, err)
	assert.Equal(t, model.VehicleCompleted, remote.Status)
	assert.Equal(t, model.VehicleCompleted, vehicleByID(t, f.w.Vehicles().Data, "V003").Status)

	f.w.Close()
	events := f.rec.Events()
	require.Len(t, events, 1)
	assert.Equal(t, cache.KeyVehicles, events[0].Key)
	assert.Equal(t, "update_status", events[0].Operation)
	assert.Equal(t, "fleet/vehicles/V003", events[0].Topic("fleet"))
}

func TestValidationBlocksWrite(t *testing.T) {
	f := newFixture(t)
	before := f.w.Vehicles().Data
	inserts := f.st.Calls("vehicles", memory.OpInsert)

	_, err := f.w.CreateVehicle(context.Background(), model.Vehicle{
		ID: "V100", Type: "Truck", Location: "Hawassa", Day: 3, TimeSlot: "08:00-10:00",
		Status: model.VehiclePending, FuelSensors: 3, FuelTanks: 1,
	})
	msgs, ok := validation.Messages(err)
	require.True(t, ok)
	assert.Equal(t, []string{"Fuel sensors cannot exceed fuel tanks"}, msgs)
	assert.Equal(t, inserts, f.st.Calls("vehicles", memory.OpInsert))
	assert.Equal(t, before, f.w.Vehicles().Data)

	err = f.w.UpdateVehicleStatus(context.Background(), "V001", "Done")
	_, ok = validation.Messages(err)
	assert.True(t, ok)
}

func TestCreateVehicleRejectsDuplicate(t *testing.T) {
	f := newFixture(t)
	_, err := f.w.CreateVehicle(context.Background(), model.Vehicle{
		ID: "V001", Type: "Truck", Location: "Hawassa", Day: 3, TimeSlot: "08:00-10:00",
		Status: model.VehiclePending, FuelSensors: 1, FuelTanks: 1,
	})
	assert.ErrorIs(t, err, store.ErrDuplicate)
}

func TestCreateVehicleAppearsInOrder(t *testing.T) {
	f := newFixture(t)
	v, err := f.w.CreateVehicle(context.Background(), model.Vehicle{
		ID: "V000", Type: "Van", Location: "Hawassa", Day: 1, TimeSlot: "12:00-14:00",
		Status: model.VehiclePending, GPSRequired: 1, FuelSensors: 1, FuelTanks: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, f.clk.Now().UTC(), v.CreatedAt)
	rows := f.w.Vehicles().Data
	require.Len(t, rows, 7)
	assert.Equal(t, "V000", rows[0].ID)
}

func TestDriftIsSyncedExplicitly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	assert.Empty(t, f.w.Drifted())

	require.NoError(t, f.w.DeleteVehicle(ctx, "V003"))
	drifted := f.w.Drifted()
	require.Len(t, drifted, 1)
	assert.Equal(t, "Addis Ababa", drifted[0].Location)
	assert.Equal(t, 1, drifted[0].Drift.Vehicles)

	loc, changed, err := f.w.SyncLocationCounts(ctx, "Addis Ababa")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 2, loc.Vehicles)
	assert.Equal(t, 2, loc.GPSDevices)
	assert.Equal(t, 3, loc.FuelSensors)

	remote, err := f.st.Locations().Get(ctx, "Addis Ababa")
	require.NoError(t, err)
	assert.Equal(t, 2, remote.Vehicles)
	assert.Empty(t, f.w.Drifted())

	_, changed, err = f.w.SyncLocationCounts(ctx, "Addis Ababa")
	require.NoError(t, err)
	assert.False(t, changed)

	_, _, err = f.w.SyncLocationCounts(ctx, "Gondar")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteLocationDoesNotCascade(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.w.DeleteLocation(context.Background(), "Hawassa"))

	assert.Equal(t, "Hawassa", vehicleByID(t, f.w.Vehicles().Data, "V006").Location)
	for _, p := range f.w.LocationProgress() {
		assert.NotEqual(t, "Hawassa", p.Location)
	}
	assert.Equal(t, 6, f.w.FleetStats().Total)
}

func TestUpdateProjectStartDateMovesDerivedDates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	assert.Equal(t, "2025-01-06", f.w.DateForDay(1).String())

	require.NoError(t, f.w.UpdateProjectStartDate(ctx, model.MustParseDate("2025-02-01")))
	assert.Equal(t, "2025-02-03", f.w.DateForDay(3).String())

	remote, err := f.st.Vehicles().Get(ctx, "V001")
	require.NoError(t, err)
	assert.Equal(t, 1, remote.Day)
	s, err := f.st.Settings().Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2025-02-01", s.ProjectStartDate.String())

	_, ok := validation.Messages(f.w.UpdateProjectStartDate(ctx, model.Date{}))
	assert.True(t, ok)
}

func TestResetProject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.w.ResetProject(ctx))

	for _, v := range f.w.Vehicles().Data {
		assert.Equal(t, model.VehiclePending, v.Status, v.ID)
	}
	tasks, err := f.st.Tasks().List(ctx)
	require.NoError(t, err)
	for _, task := range tasks {
		assert.Equal(t, model.TaskPending, task.Status, task.ID)
	}
	assert.Equal(t, 0, f.w.FleetStats().Completed)
}

func TestCreateTaskDefaults(t *testing.T) {
	f := newFixture(t)
	task, err := f.w.CreateTask(context.Background(), model.Task{VehicleID: "V005", Name: "Install GPS", AssignedTo: "Sara"})
	require.NoError(t, err)
	_, perr := uuid.Parse(task.ID)
	assert.NoError(t, perr)
	assert.Equal(t, model.TaskPending, task.Status)
	assert.Equal(t, model.PriorityMedium, task.Priority)
	_, ok := find(f.w.Tasks().Data, task.ID)
	assert.True(t, ok)
	assert.Equal(t, 4, f.w.TaskStats().Total)
}

func TestCommentThread(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.w.AddComment(ctx, model.Comment{TaskID: "T1", Author: "Abebe", Text: "antenna mounted"})
	require.NoError(t, err)
	require.NotEmpty(t, c.ID)
	require.Len(t, f.w.TaskComments("T1"), 1)
	assert.Empty(t, f.w.TaskComments("T2"))

	require.NoError(t, f.w.EditComment(ctx, c.ID, "antenna mounted and tested"))
	assert.Equal(t, "antenna mounted and tested", f.w.TaskComments("T1")[0].Text)
	remote, err := f.st.Comments().ListByTask(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, "antenna mounted and tested", remote[0].Text)

	require.NoError(t, f.w.DeleteComment(ctx, c.ID))
	assert.Empty(t, f.w.TaskComments("T1"))
}

func TestRescheduleValidatesTarget(t *testing.T) {
	f := newFixture(t)
	_, err := f.w.Reschedule(context.Background(), "V001", 0, "")
	msgs, ok := validation.Messages(err)
	require.True(t, ok)
	assert.Len(t, msgs, 2)

	_, err = f.w.Reschedule(context.Background(), "V001", 2, "07:00-09:00")
	msgs, ok = validation.Messages(err)
	require.True(t, ok)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "Time slot must be one of")
	assert.Equal(t, 1, vehicleByID(t, f.w.Vehicles().Data, "V001").Day, "rejected move leaves the vehicle in place")

	changed, err := f.w.Reschedule(context.Background(), "V001", 4, "16:00-18:00")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Len(t, f.w.Grid(0, schedule.Filter{}).Cell(4, "16:00-18:00"), 1)
}

func TestGridWeeks(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, 5, f.w.Grid(0, schedule.Filter{}).Count())
	assert.Equal(t, 1, f.w.Grid(1, schedule.Filter{}).Count())
	assert.Equal(t, 6, f.w.Grid(-1, schedule.Filter{}).Count())
	assert.Equal(t, 2, f.w.Weeks())
	assert.Zero(t, f.w.Grid(2, schedule.Filter{}).Count())
	assert.Zero(t, f.w.Grid(5, schedule.Filter{}).Count())
	assert.Equal(t, 2, f.w.Grid(-1, schedule.Filter{Location: "Bahir Dar"}).Count())
}

func TestCollectionViews(t *testing.T) {
	f := newFixture(t)
	c := f.w.Collection(cache.KeyVehicles)
	assert.False(t, c.IsLoading)
	assert.Empty(t, c.Error)
	assert.Len(t, c.Data, 6)

	unknown := f.w.Collection("invoices")
	assert.Contains(t, unknown.Error, "unknown key")
}

func TestCountdown(t *testing.T) {
	f := newFixture(t)
	cd := f.w.Countdown()
	assert.False(t, cd.Started)
	assert.Equal(t, 3, cd.Days)
	assert.Equal(t, 12, cd.Hours)
}
