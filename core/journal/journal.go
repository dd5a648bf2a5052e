// Package journal keeps an append-only history of optimistic mutations: what
// was written, to which key and entity, and whether the remote store confirmed
// or rejected it.
package journal

import (
	"context"
	"time"
)

// Outcomes of a mutation.
const (
	OutcomeConfirmed  = "confirmed"
	OutcomeRolledBack = "rolled_back"
)

// Record is one journal line.
type Record struct {
	Timestamp time.Time `json:"timestamp"`
	Key       string    `json:"key"`
	Operation string    `json:"operation"`
	EntityID  string    `json:"entity_id,omitempty"`
	Outcome   string    `json:"outcome"`
	Error     string    `json:"error,omitempty"`
	LatencyMS int64     `json:"latency_ms"`
}

// Query filters records. Zero fields match everything.
type Query struct {
	Start    time.Time
	End      time.Time
	Key      string
	EntityID string
	Outcome  string
	Limit    int
}

// Match reports whether r satisfies q, ignoring Limit.
func (q Query) Match(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Key != "" && r.Key != q.Key {
		return false
	}
	if q.EntityID != "" && r.EntityID != q.EntityID {
		return false
	}
	if q.Outcome != "" && r.Outcome != q.Outcome {
		return false
	}
	return true
}

// Writer appends records.
type Writer interface {
	Append(ctx context.Context, rec Record) error
}

// Store persists and queries records.
type Store interface {
	Writer
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// limit keeps the last n records when n is positive.
func limit(recs []Record, n int) []Record {
	if n > 0 && len(recs) > n {
		return recs[len(recs)-n:]
	}
	return recs
}
