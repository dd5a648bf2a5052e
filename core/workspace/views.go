package workspace

import (
	"time"

	"github.com/kilianp07/fleetrollout/core/aggregate"
	"github.com/kilianp07/fleetrollout/core/model"
	"github.com/kilianp07/fleetrollout/core/schedule"
)

// Collection is the read view of one cache key.
type Collection struct {
	Key           string    `json:"key"`
	Data          any       `json:"data"`
	IsLoading     bool      `json:"is_loading"`
	Validating    bool      `json:"is_validating"`
	Error         string    `json:"error,omitempty"`
	LastFetchedAt time.Time `json:"last_fetched_at,omitempty"`
}

// Collection returns the cached state of key, starting a refresh when it is
// stale.
func (w *Workspace) Collection(key string) Collection {
	s := w.cache.Get(key)
	c := Collection{
		Key:           key,
		Data:          s.Data,
		IsLoading:     s.IsLoading(),
		Validating:    s.Validating,
		LastFetchedAt: s.LastFetchedAt,
	}
	if s.Err != nil {
		c.Error = s.Err.Error()
	}
	return c
}

func (w *Workspace) FleetStats() aggregate.Fleet {
	return w.engine.FleetStats(w.vehicles.Get().Data, w.locations.Get().Data)
}

func (w *Workspace) LocationProgress() []aggregate.Progress {
	return w.engine.AllLocationProgress(w.locations.Get().Data, w.vehicles.Get().Data)
}

// Drifted returns the locations whose declared counters disagree with their
// vehicles.
func (w *Workspace) Drifted() []aggregate.Progress {
	var out []aggregate.Progress
	for _, p := range w.LocationProgress() {
		if p.NeedsSync {
			out = append(out, p)
		}
	}
	return out
}

func (w *Workspace) Workload() []aggregate.Workload {
	return w.engine.TeamWorkload(w.team.Get().Data, w.tasks.Get().Data)
}

func (w *Workspace) TeamSummary() aggregate.Team {
	return w.engine.TeamSummary(w.team.Get().Data)
}

func (w *Workspace) TaskStats() aggregate.Tasks {
	return w.engine.TaskStats(w.tasks.Get().Data)
}

func (w *Workspace) VehicleTaskProgress() []aggregate.VehicleTasks {
	return w.engine.VehicleTaskProgress(w.vehicles.Get().Data, w.tasks.Get().Data)
}

// ProjectDays is the configured project length.
func (w *Workspace) ProjectDays() int { return w.projectDays }

// Slots are the configured time slots.
func (w *Workspace) Slots() []string { return w.slots }

// Weeks is the number of calendar weeks the project spans.
func (w *Workspace) Weeks() int { return schedule.Weeks(w.projectDays, schedule.DaysPerWeek) }

// Grid groups vehicles by day and slot. A negative week covers the whole
// project, otherwise only the zero-based week. A week past the end is empty.
func (w *Workspace) Grid(week int, f schedule.Filter) schedule.Grid {
	days := schedule.ProjectDays(w.projectDays)
	if week >= 0 {
		days = schedule.WeekDays(week, schedule.DaysPerWeek, w.projectDays)
	}
	return schedule.BuildGrid(w.vehicles.Get().Data, days, w.slots, f)
}

func (w *Workspace) Timeline(location string) schedule.Timeline {
	return schedule.BuildTimeline(w.vehicles.Get().Data, location)
}

// DateForDay maps a project day to its date under the current settings.
func (w *Workspace) DateForDay(day int) model.Date { return w.planner.DateForDay(day) }

func (w *Workspace) StartDate() model.Date { return w.planner.StartDate() }

// Countdown returns the time left until the project starts.
func (w *Workspace) Countdown() schedule.Countdown {
	return schedule.CountdownTo(w.clk.Now(), w.planner.StartDate())
}
