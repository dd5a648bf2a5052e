package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/kilianp07/fleetrollout/core/journal"
)

// NewJournalHandler exposes mutation records via
// GET /api/journal?start=&end=&key=&entity_id=&outcome=&limit=.
// Requests must include an Authorization header with "Bearer <token>" when
// token is non-empty.
func NewJournalHandler(store journal.Store, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
			return
		}
		v := r.URL.Query()
		q := journal.Query{
			Key:      v.Get("key"),
			EntityID: v.Get("entity_id"),
			Outcome:  v.Get("outcome"),
		}
		if s := v.Get("start"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.Start = t
			}
		}
		if s := v.Get("end"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.End = t
			}
		}
		if s := v.Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				badRequest(w, "limit must be a non-negative integer")
				return
			}
			q.Limit = n
		}
		records, err := store.Query(r.Context(), q)
		if err != nil {
			writeError(w, err)
			return
		}
		if records == nil {
			records = []journal.Record{}
		}
		writeJSON(w, http.StatusOK, records)
	})
}

// NewPrefetchHandler accepts navigation hints via POST /api/prefetch/{route}.
// The response does not wait for the fetches.
func NewPrefetchHandler(p Prefetcher) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := p.PrefetchRoute(r.PathValue("route")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})
}
