// Package api exposes the workspace over HTTP. Reads are served from the
// cache and never block on the remote store; writes go through the
// workspace's optimistic path.
package api

import (
	"net/http"

	"github.com/kilianp07/fleetrollout/core/journal"
	"github.com/kilianp07/fleetrollout/core/logger"
	"github.com/kilianp07/fleetrollout/core/workspace"
)

// Prefetcher accepts navigation hints.
type Prefetcher interface {
	PrefetchRoute(route string) error
}

// Deps are the collaborators of the handlers. Journal and Prefetcher are
// optional.
type Deps struct {
	Workspace  *workspace.Workspace
	Journal    journal.Store
	Prefetcher Prefetcher
	Logger     logger.Logger
	// Token protects the journal endpoint when non-empty.
	Token string
}

// NewRouter registers every endpoint on a new ServeMux.
func NewRouter(d Deps) *http.ServeMux {
	ws := d.Workspace
	mux := http.NewServeMux()
	mux.Handle("GET /api/collections/{key}", NewCollectionHandler(ws))

	mux.Handle("GET /api/stats/fleet", NewFleetStatsHandler(ws))
	mux.Handle("GET /api/stats/locations", NewLocationStatsHandler(ws))
	mux.Handle("GET /api/stats/team", NewTeamStatsHandler(ws))
	mux.Handle("GET /api/stats/tasks", NewTaskStatsHandler(ws))

	mux.Handle("GET /api/schedule/grid", NewGridHandler(ws))
	mux.Handle("GET /api/schedule/date", NewDateHandler(ws))
	mux.Handle("GET /api/schedule/timeline", NewTimelineHandler(ws))
	mux.Handle("GET /api/schedule/countdown", NewCountdownHandler(ws))

	mux.Handle("PATCH /api/vehicles/{id}/status", NewVehicleStatusHandler(ws))
	mux.Handle("GET /api/vehicles/{id}/reschedule", NewReschedulePreviewHandler(ws))
	mux.Handle("POST /api/vehicles/{id}/reschedule", NewRescheduleHandler(ws))

	mux.Handle("GET /api/locations/drift", NewDriftHandler(ws))
	mux.Handle("POST /api/locations/{name}/sync", NewLocationSyncHandler(ws))
	mux.Handle("DELETE /api/locations/{name}", NewLocationDeleteHandler(ws))

	mux.Handle("POST /api/tasks", NewTaskCreateHandler(ws))
	mux.Handle("PATCH /api/tasks/{id}/status", NewTaskStatusHandler(ws))
	mux.Handle("GET /api/tasks/{id}/comments", NewCommentListHandler(ws))
	mux.Handle("POST /api/tasks/{id}/comments", NewCommentCreateHandler(ws))

	mux.Handle("PUT /api/settings/start-date", NewStartDateHandler(ws))
	mux.Handle("POST /api/settings/reset", NewResetHandler(ws))

	if d.Journal != nil {
		mux.Handle("GET /api/journal", NewJournalHandler(d.Journal, d.Token))
	}
	if d.Prefetcher != nil {
		mux.Handle("POST /api/prefetch/{route}", NewPrefetchHandler(d.Prefetcher))
	}
	return mux
}
