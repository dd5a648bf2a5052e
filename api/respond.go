package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kilianp07/fleetrollout/core/cache"
	"github.com/kilianp07/fleetrollout/core/optimistic"
	"github.com/kilianp07/fleetrollout/core/prefetch"
	"github.com/kilianp07/fleetrollout/core/schedule"
	"github.com/kilianp07/fleetrollout/core/store"
	"github.com/kilianp07/fleetrollout/core/validation"
)

type errorBody struct {
	Error  string   `json:"error,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err onto a status code. Validation failures carry their
// messages; failed remote writes are reported as a bad gateway since the
// cache has already been rolled back.
func writeError(w http.ResponseWriter, err error) {
	if msgs, ok := validation.Messages(err); ok {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Errors: msgs})
		return
	}
	var we *optimistic.WriteError
	switch {
	case errors.As(err, &we):
		writeJSON(w, http.StatusBadGateway, errorBody{Error: err.Error()})
	case errors.Is(err, store.ErrNotFound), errors.Is(err, schedule.ErrUnknownVehicle),
		errors.Is(err, cache.ErrUnknownKey), errors.Is(err, prefetch.ErrUnknownRoute):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, store.ErrDuplicate):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		badRequest(w, "invalid body: "+err.Error())
		return false
	}
	return true
}
