package metrics

import "time"

// CacheEventKind classifies cache activity.
type CacheEventKind string

const (
	CacheFetchOK    CacheEventKind = "fetch_ok"
	CacheFetchError CacheEventKind = "fetch_error"
	CacheDedup      CacheEventKind = "dedup"
	CacheMutate     CacheEventKind = "mutate"
	CacheStaleHit   CacheEventKind = "stale_hit"
)

// CacheEvent is one fetch, dedup or local mutation of a cache key.
type CacheEvent struct {
	Key      string
	Kind     CacheEventKind
	Duration time.Duration
	Time     time.Time
}

// Sink records cache activity.
type Sink interface {
	RecordCache(ev CacheEvent) error
}

// MutationEvent is the terminal outcome of an optimistic mutation.
type MutationEvent struct {
	Key       string
	Operation string
	EntityID  string
	Outcome   string
	Latency   time.Duration
	Time      time.Time
}

// MutationRecorder records optimistic mutation outcomes.
type MutationRecorder interface {
	RecordMutation(ev MutationEvent) error
}

// FleetProgress is a snapshot of installation progress over the fleet.
type FleetProgress struct {
	Total      int
	Completed  int
	InProgress int
	Pending    int
	Percent    int
	Time       time.Time
}

// LocationProgress is a snapshot of one location. Drift is the difference
// between the stored vehicle counter and the actual vehicles referencing it.
type LocationProgress struct {
	Location string
	Total    int
	Percent  int
	Drift    int
	Time     time.Time
}

// ProgressRecorder records progress snapshots.
type ProgressRecorder interface {
	RecordFleetProgress(p FleetProgress) error
	RecordLocationProgress(p []LocationProgress) error
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) RecordCache(CacheEvent) error                    { return nil }
func (NopSink) RecordMutation(MutationEvent) error              { return nil }
func (NopSink) RecordFleetProgress(FleetProgress) error         { return nil }
func (NopSink) RecordLocationProgress([]LocationProgress) error { return nil }
