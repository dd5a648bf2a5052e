package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleetrollout/pkg/export"
)

// executeCmd runs the CLI against the seeded demo fleet.
func executeCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("K_STORE__SEED", "true")
	t.Setenv("K_LOGGING__LEVEL", "error")
	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "missing.env")))
	err := root.Execute()
	return buf.String(), err
}

func TestFleetLs(t *testing.T) {
	out, err := executeCmd(t, "fleet", "ls", "--location", "Bahir Dar")
	require.NoError(t, err)
	assert.Contains(t, out, "V004")
	assert.Contains(t, out, "V005")
	assert.NotContains(t, out, "V001")
	assert.Contains(t, out, "2025-01-11")
}

func TestFleetStats(t *testing.T) {
	out, err := executeCmd(t, "fleet", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "1/6 completed")
	assert.Contains(t, out, "Addis Ababa")
	assert.Contains(t, out, "Hawassa")
}

func TestLocationsDriftInSync(t *testing.T) {
	out, err := executeCmd(t, "locations", "drift")
	require.NoError(t, err)
	assert.Contains(t, out, "All location counters match")
}

func TestLocationsSyncUnknown(t *testing.T) {
	_, err := executeCmd(t, "locations", "sync", "Gondar")
	require.Error(t, err)
}

func TestLocationsSyncNoChange(t *testing.T) {
	out, err := executeCmd(t, "locations", "sync", "Hawassa")
	require.NoError(t, err)
	assert.Contains(t, out, "Hawassa already in sync")
}

func TestScheduleGridWeek(t *testing.T) {
	out, err := executeCmd(t, "schedule", "grid", "--week", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "V004")
	assert.NotContains(t, out, "V006")

	out, err = executeCmd(t, "schedule", "grid", "--week", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "V006")
	assert.NotContains(t, out, "V001")
	assert.NotContains(t, out, "V004")
}

func TestScheduleGridWeekOutOfRange(t *testing.T) {
	_, err := executeCmd(t, "schedule", "grid", "--week", "6")
	require.ErrorContains(t, err, "out of range")
}

func TestRescheduleRejectsUnknownSlot(t *testing.T) {
	_, err := executeCmd(t, "schedule", "reschedule", "V003", "2", "07:00-09:00")
	require.ErrorContains(t, err, "Time slot must be one of")
}

func TestScheduleGridQuery(t *testing.T) {
	out, err := executeCmd(t, "schedule", "grid", "-q", "bus")
	require.NoError(t, err)
	assert.Contains(t, out, "V006")
	assert.NotContains(t, out, "V005")
}

func TestReschedule(t *testing.T) {
	out, err := executeCmd(t, "schedule", "reschedule", "V003", "1", "08:00-10:00")
	require.NoError(t, err)
	assert.Contains(t, out, "V003 moved to day 1 (2025-01-06)")
	assert.Contains(t, out, "shares the slot with V001")
}

func TestRescheduleUnchanged(t *testing.T) {
	out, err := executeCmd(t, "schedule", "reschedule", "V003", "2", "08:00-10:00")
	require.NoError(t, err)
	assert.Contains(t, out, "already on day 2")
}

func TestRescheduleRejectsBadDay(t *testing.T) {
	_, err := executeCmd(t, "schedule", "reschedule", "V003", "two", "08:00-10:00")
	require.Error(t, err)

	_, err = executeCmd(t, "schedule", "reschedule", "V003", "0", "08:00-10:00")
	require.Error(t, err)
}

func TestExportJSON(t *testing.T) {
	out, err := executeCmd(t, "schedule", "export")
	require.NoError(t, err)
	var rows []export.Row
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 6)
	assert.Equal(t, "V001", rows[0].VehicleID)
	assert.Equal(t, "2025-01-06", rows[0].Date)
	assert.Equal(t, "V006", rows[5].VehicleID)
}

func TestExportCSVToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.csv")
	_, err := executeCmd(t, "schedule", "export", "--format", "csv", "-o", path)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "V004,Pickup,Bahir Dar,6,2025-01-11,14:00-16:00,Pending")
}

func TestExportUnknownFormat(t *testing.T) {
	_, err := executeCmd(t, "schedule", "export", "--format", "xml")
	require.Error(t, err)
}

func TestBadConfigPath(t *testing.T) {
	_, err := executeCmd(t, "fleet", "ls", "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
