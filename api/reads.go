package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/kilianp07/fleetrollout/core/aggregate"
	"github.com/kilianp07/fleetrollout/core/model"
	"github.com/kilianp07/fleetrollout/core/schedule"
	"github.com/kilianp07/fleetrollout/core/workspace"
)

// NewCollectionHandler returns the cached state of one key via
// GET /api/collections/{key}. A stale key is refreshed in the background.
func NewCollectionHandler(ws *workspace.Workspace) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.PathValue("key")
		if _, err := ws.Cache().Peek(key); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ws.Collection(key))
	})
}

func NewFleetStatsHandler(ws *workspace.Workspace) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, ws.FleetStats())
	})
}

func NewLocationStatsHandler(ws *workspace.Workspace) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, ws.LocationProgress())
	})
}

func NewTeamStatsHandler(ws *workspace.Workspace) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"summary":  ws.TeamSummary(),
			"workload": ws.Workload(),
		})
	})
}

func NewTaskStatsHandler(ws *workspace.Workspace) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"summary":  ws.TaskStats(),
			"vehicles": ws.VehicleTaskProgress(),
		})
	})
}

// NewGridHandler serves GET /api/schedule/grid?location=&status=&q=&week=.
// Without week the whole project is returned; week is zero based.
func NewGridHandler(ws *workspace.Workspace) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		week := -1
		if s := q.Get("week"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				badRequest(w, "week must be a non-negative integer")
				return
			}
			if n >= ws.Weeks() {
				badRequest(w, fmt.Sprintf("week %d out of range, the project has %d weeks", n, ws.Weeks()))
				return
			}
			week = n
		}
		f := schedule.Filter{
			Location: q.Get("location"),
			Status:   model.VehicleStatus(q.Get("status")),
			Query:    q.Get("q"),
		}
		g := ws.Grid(week, f)
		writeJSON(w, http.StatusOK, map[string]any{
			"slots": ws.Slots(),
			"count": g.Count(),
			"grid":  g,
		})
	})
}

// NewDateHandler serves GET /api/schedule/date?day=N.
func NewDateHandler(ws *workspace.Workspace) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		day, err := strconv.Atoi(r.URL.Query().Get("day"))
		if err != nil || day < 1 {
			badRequest(w, "day must be a positive integer")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"day":        day,
			"date":       ws.DateForDay(day),
			"start_date": ws.StartDate(),
		})
	})
}

func NewTimelineHandler(ws *workspace.Workspace) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, ws.Timeline(r.URL.Query().Get("location")))
	})
}

func NewCountdownHandler(ws *workspace.Workspace) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, ws.Countdown())
	})
}

func NewDriftHandler(ws *workspace.Workspace) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out := ws.Drifted()
		if out == nil {
			out = []aggregate.Progress{}
		}
		writeJSON(w, http.StatusOK, out)
	})
}
