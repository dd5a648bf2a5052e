package store

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/fleetrollout/core/model"
)

func TestFilterValidDropsBadRows(t *testing.T) {
	rows := []model.Vehicle{
		{ID: "V001", Status: model.VehiclePending, Day: 1},
		{ID: "V002", Status: "Broken", Day: 1},
		{ID: "V003", Status: model.VehicleCompleted, Day: 2},
	}
	var rejected []error
	out := FilterValid(rows, func(err error) { rejected = append(rejected, err) })
	assert.Len(t, out, 2)
	assert.Len(t, rejected, 1)
	assert.True(t, errors.Is(rejected[0], ErrInvalidRow))
}

func TestOrderings(t *testing.T) {
	v := []model.Vehicle{{ID: "B", Day: 2}, {ID: "C", Day: 1}, {ID: "A", Day: 2}}
	SortVehicles(v)
	assert.Equal(t, []string{"C", "A", "B"}, []string{v[0].ID, v[1].ID, v[2].ID})

	now := time.Now()
	tasks := []model.Task{{ID: "old", CreatedAt: now.Add(-time.Hour)}, {ID: "new", CreatedAt: now}}
	SortTasks(tasks)
	assert.Equal(t, "new", tasks[0].ID)

	comments := []model.Comment{{ID: "2", CreatedAt: now}, {ID: "1", CreatedAt: now.Add(-time.Minute)}}
	SortComments(comments)
	assert.Equal(t, "1", comments[0].ID)
}
