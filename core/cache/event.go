package cache

import "time"

// Status is the fetch state of an entry.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusError   Status = "error"
	StatusReady   Status = "ready"
)

// EventKind names a cache state change.
type EventKind string

const (
	EventLoading     EventKind = "loading"
	EventStale       EventKind = "stale"
	EventFetched     EventKind = "fetched"
	EventFetchFailed EventKind = "fetch_failed"
	EventDeduped     EventKind = "deduped"
	EventMutated     EventKind = "mutated"
	EventRestored    EventKind = "restored"
	EventCleared     EventKind = "cleared"
)

// Event is published on the event bus for every state change of an entry.
type Event struct {
	Key      string
	Kind     EventKind
	Version  uint64
	Err      error
	Duration time.Duration
	Time     time.Time
}
