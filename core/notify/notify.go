// Package notify announces confirmed mutations to listeners outside the
// process, such as technicians' field devices. Delivery is best effort.
package notify

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Event describes a confirmed mutation.
type Event struct {
	Key       string    `json:"key"`
	Operation string    `json:"operation"`
	EntityID  string    `json:"entity_id,omitempty"`
	Payload   any       `json:"payload,omitempty"`
	Time      time.Time `json:"time"`
}

// Topic returns prefix/key/entity, or prefix/key when the event has no entity.
func (e Event) Topic(prefix string) string {
	parts := []string{strings.TrimSuffix(prefix, "/"), e.Key}
	if e.EntityID != "" {
		parts = append(parts, e.EntityID)
	}
	return strings.Join(parts, "/")
}

// Notifier publishes events.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
	Close() error
}

type Nop struct{}

func (Nop) Notify(context.Context, Event) error { return nil }
func (Nop) Close() error                        { return nil }

// Recorder keeps notified events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Notify(_ context.Context, ev Event) error {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
