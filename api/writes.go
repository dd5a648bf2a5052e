package api

import (
	"net/http"
	"strconv"

	"github.com/kilianp07/fleetrollout/core/model"
	"github.com/kilianp07/fleetrollout/core/workspace"
)

type statusRequest struct {
	Status string `json:"status"`
}

type rescheduleRequest struct {
	Day      int    `json:"day"`
	TimeSlot string `json:"time_slot"`
}

// NewVehicleStatusHandler serves PATCH /api/vehicles/{id}/status.
func NewVehicleStatusHandler(ws *workspace.Workspace) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req statusRequest
		if !decode(w, r, &req) {
			return
		}
		id := r.PathValue("id")
		if err := ws.UpdateVehicleStatus(r.Context(), id, model.VehicleStatus(req.Status)); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": req.Status})
	})
}

// NewReschedulePreviewHandler serves GET /api/vehicles/{id}/reschedule?day=&time_slot=
// with the target date and the vehicles already in the cell.
func NewReschedulePreviewHandler(ws *workspace.Workspace) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		day, err := strconv.Atoi(q.Get("day"))
		if err != nil {
			badRequest(w, "day must be an integer")
			return
		}
		pv, err := ws.PreviewReschedule(r.PathValue("id"), day, q.Get("time_slot"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, pv)
	})
}

// NewRescheduleHandler serves POST /api/vehicles/{id}/reschedule.
func NewRescheduleHandler(ws *workspace.Workspace) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rescheduleRequest
		if !decode(w, r, &req) {
			return
		}
		id := r.PathValue("id")
		moved, err := ws.Reschedule(r.Context(), id, req.Day, req.TimeSlot)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"id":        id,
			"moved":     moved,
			"day":       req.Day,
			"time_slot": req.TimeSlot,
			"date":      ws.DateForDay(req.Day),
		})
	})
}

// NewLocationSyncHandler serves POST /api/locations/{name}/sync, rewriting the
// declared counters of the location from its vehicles.
func NewLocationSyncHandler(ws *workspace.Workspace) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		loc, changed, err := ws.SyncLocationCounts(r.Context(), r.PathValue("name"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"location": loc, "changed": changed})
	})
}

// NewLocationDeleteHandler serves DELETE /api/locations/{name}. Vehicles at the
// location are kept.
func NewLocationDeleteHandler(ws *workspace.Workspace) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := ws.DeleteLocation(r.Context(), r.PathValue("name")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func NewTaskCreateHandler(ws *workspace.Workspace) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var t model.Task
		if !decode(w, r, &t) {
			return
		}
		created, err := ws.CreateTask(r.Context(), t)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	})
}

func NewTaskStatusHandler(ws *workspace.Workspace) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req statusRequest
		if !decode(w, r, &req) {
			return
		}
		id := r.PathValue("id")
		if err := ws.UpdateTaskStatus(r.Context(), id, model.TaskStatus(req.Status)); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": req.Status})
	})
}

func NewCommentListHandler(ws *workspace.Workspace) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out := ws.TaskComments(r.PathValue("id"))
		if out == nil {
			out = []model.Comment{}
		}
		writeJSON(w, http.StatusOK, out)
	})
}

// NewCommentCreateHandler serves POST /api/tasks/{id}/comments.
func NewCommentCreateHandler(ws *workspace.Workspace) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var c model.Comment
		if !decode(w, r, &c) {
			return
		}
		c.TaskID = r.PathValue("id")
		created, err := ws.AddComment(r.Context(), c)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	})
}

// NewStartDateHandler serves PUT /api/settings/start-date with
// {"start_date":"YYYY-MM-DD"}.
func NewStartDateHandler(ws *workspace.Workspace) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			StartDate model.Date `json:"start_date"`
		}
		if !decode(w, r, &req) {
			return
		}
		if err := ws.UpdateProjectStartDate(r.Context(), req.StartDate); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"start_date": ws.StartDate()})
	})
}

// NewResetHandler serves POST /api/settings/reset, returning every vehicle and
// task to Pending.
func NewResetHandler(ws *workspace.Workspace) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := ws.ResetProject(r.Context()); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}
