package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleetrollout/core/model"
	"github.com/kilianp07/fleetrollout/core/store"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "fleet.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestVehicleRoundTrip(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	v := model.Vehicle{ID: "V002", Type: "Van", Location: "Hawassa", Day: 2, TimeSlot: "08:00-10:00", Status: model.VehiclePending, FuelTanks: 1}
	require.NoError(t, s.Vehicles().Insert(ctx, v))
	require.NoError(t, s.Vehicles().Insert(ctx, model.Vehicle{ID: "V001", Day: 1, Status: model.VehicleCompleted}))

	assert.ErrorIs(t, s.Vehicles().Insert(ctx, v), store.ErrDuplicate)

	list, err := s.Vehicles().List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "V001", list[0].ID)

	v.Status = model.VehicleInProgress
	require.NoError(t, s.Vehicles().Update(ctx, v.ID, v))
	got, err := s.Vehicles().Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VehicleInProgress, got.Status)

	require.NoError(t, s.Vehicles().Delete(ctx, v.ID))
	require.NoError(t, s.Vehicles().Delete(ctx, v.ID))
	_, err = s.Vehicles().Get(ctx, v.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestInvalidRowsAreRejected(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	assert.ErrorIs(t, s.Vehicles().Insert(ctx, model.Vehicle{ID: "V9", Day: 1, Status: "Done"}), store.ErrInvalidRow)

	_, err := s.db.ExecContext(ctx, `INSERT INTO vehicles (id, doc) VALUES ('V8', '{"id":"V8","day":0,"status":"Pending"}')`)
	require.NoError(t, err)
	list, err := s.Vehicles().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCommentsByTask(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.Comments().Insert(ctx, model.Comment{ID: "c2", TaskID: "T1", Text: "second", CreatedAt: base.Add(time.Minute)}))
	require.NoError(t, s.Comments().Insert(ctx, model.Comment{ID: "c1", TaskID: "T1", Text: "first", CreatedAt: base}))
	require.NoError(t, s.Comments().Insert(ctx, model.Comment{ID: "c3", TaskID: "T2", Text: "other", CreatedAt: base}))

	thread, err := s.Comments().ListByTask(ctx, "T1")
	require.NoError(t, err)
	require.Len(t, thread, 2)
	assert.Equal(t, "first", thread[0].Text)
}

func TestSettingsUpsert(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	_, err := s.Settings().Get(ctx)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Settings().Upsert(ctx, model.ProjectSettings{ProjectStartDate: model.MustParseDate("2025-01-06")}))
	require.NoError(t, s.Settings().Upsert(ctx, model.ProjectSettings{ProjectStartDate: model.MustParseDate("2025-02-01")}))
	ps, err := s.Settings().Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.SettingsID, ps.ID)
	assert.Equal(t, "2025-02-01", ps.ProjectStartDate.String())
}
