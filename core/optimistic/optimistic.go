// Package optimistic applies a mutation to the cache before the remote write
// completes and reconciles with the remote store afterwards.
//
// Each mutation moves its key through Idle -> OptimisticPending and then to
// Confirmed when the write succeeds or RolledBack when it fails. In both
// cases the key is refetched; the refetch is the rollback. Remote writes are
// not serialized and the last refresh wins.
package optimistic

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/kilianp07/fleetrollout/core/cache"
	"github.com/kilianp07/fleetrollout/core/journal"
	"github.com/kilianp07/fleetrollout/core/logger"
	"github.com/kilianp07/fleetrollout/core/metrics"
	"github.com/kilianp07/fleetrollout/core/monitoring"
	"github.com/kilianp07/fleetrollout/internal/clock"
)

// State of a key's most recent mutation.
type State string

const (
	StateIdle       State = "idle"
	StatePending    State = "optimistic_pending"
	StateConfirmed  State = "confirmed"
	StateRolledBack State = "rolled_back"
)

// Mutation describes a write for logs, journal and notifications.
type Mutation struct {
	Operation string
	EntityID  string
	// Payload is attached to the confirmation notification.
	Payload any
}

// Transition is one state change of a key.
type Transition struct {
	Key      string
	Mutation Mutation
	From     State
	To       State
	Err      error
	Latency  time.Duration
	Time     time.Time
}

// WriteError is returned when the remote write fails. The cache has been
// refetched by the time it is returned.
type WriteError struct {
	Key       string
	Operation string
	EntityID  string
	Err       error
}

func (e *WriteError) Error() string {
	if e.EntityID != "" {
		return fmt.Sprintf("%s %s %s: %v", e.Operation, e.Key, e.EntityID, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Operation, e.Key, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Options configures a Controller.
type Options struct {
	Clock   clock.Clock
	Logger  logger.Logger
	Monitor monitoring.Monitor
	Metrics metrics.MutationRecorder
	Journal journal.Writer
	// History bounds the transitions kept for inspection; <= 0 keeps 256.
	History int
}

// Controller tracks mutation states and reports terminal outcomes.
type Controller struct {
	clk     clock.Clock
	log     logger.Logger
	mon     monitoring.Monitor
	metrics metrics.MutationRecorder
	journal journal.Writer
	history int

	mu          sync.Mutex
	states      map[string]State
	transitions []Transition
	observers   []func(Transition)
}

func NewController(opts Options) *Controller {
	h := opts.History
	if h <= 0 {
		h = 256
	}
	var rec metrics.MutationRecorder = metrics.NopSink{}
	if opts.Metrics != nil {
		rec = opts.Metrics
	}
	return &Controller{
		clk:     clock.OrReal(opts.Clock),
		log:     logger.OrNop(opts.Logger),
		mon:     monitoring.OrNop(opts.Monitor),
		metrics: rec,
		journal: opts.Journal,
		history: h,
		states:  map[string]State{},
	}
}

// OnTransition registers fn for every transition. Observers run
// synchronously and must not block.
func (c *Controller) OnTransition(fn func(Transition)) {
	c.mu.Lock()
	c.observers = append(c.observers, fn)
	c.mu.Unlock()
}

// State returns the state of the latest mutation of key.
func (c *Controller) State(key string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.states[key]; ok {
		return s
	}
	return StateIdle
}

// Transitions returns the recorded history, oldest first.
func (c *Controller) Transitions() []Transition {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Transition(nil), c.transitions...)
}

func (c *Controller) move(key string, m Mutation, to State, err error, latency time.Duration) Transition {
	c.mu.Lock()
	from, ok := c.states[key]
	if !ok {
		from = StateIdle
	}
	tr := Transition{Key: key, Mutation: m, From: from, To: to, Err: err, Latency: latency, Time: c.clk.Now()}
	c.states[key] = to
	c.transitions = append(c.transitions, tr)
	if over := len(c.transitions) - c.history; over > 0 {
		c.transitions = append(c.transitions[:0:0], c.transitions[over:]...)
	}
	obs := slices.Clone(c.observers)
	c.mu.Unlock()

	for _, fn := range obs {
		fn(tr)
	}
	return tr
}

func (c *Controller) finish(ctx context.Context, tr Transition) {
	outcome := journal.OutcomeConfirmed
	errText := ""
	if tr.To == StateRolledBack {
		outcome = journal.OutcomeRolledBack
		errText = tr.Err.Error()
		c.mon.CaptureException(tr.Err, map[string]string{
			"component": "optimistic",
			"key":       tr.Key,
			"operation": tr.Mutation.Operation,
		})
	}
	if err := c.metrics.RecordMutation(metrics.MutationEvent{
		Key:       tr.Key,
		Operation: tr.Mutation.Operation,
		EntityID:  tr.Mutation.EntityID,
		Outcome:   outcome,
		Latency:   tr.Latency,
		Time:      tr.Time,
	}); err != nil {
		c.log.Warnf("record mutation metric: %v", err)
	}
	if c.journal == nil {
		return
	}
	if err := c.journal.Append(context.WithoutCancel(ctx), journal.Record{
		Timestamp: tr.Time,
		Key:       tr.Key,
		Operation: tr.Mutation.Operation,
		EntityID:  tr.Mutation.EntityID,
		Outcome:   outcome,
		Error:     errText,
		LatencyMS: tr.Latency.Milliseconds(),
	}); err != nil {
		c.log.Warnf("append journal: %v", err)
	}
}

// Apply writes transform(current) to res, runs write against the remote store
// and refetches res. On write failure the refetch restores the remote state
// and a *WriteError is returned.
//
// transform must return a new value and leave its argument untouched.
func Apply[T any](ctx context.Context, c *Controller, res *cache.Resource[T], m Mutation, transform func(T) T, write func(context.Context) error) error {
	key := res.Key()
	previous := res.Peek().Data
	next := transform(previous)

	c.move(key, m, StatePending, nil, 0)
	start := c.clk.Now()
	if err := res.MutateLocal(next, false); err != nil {
		return err
	}

	werr := write(ctx)
	latency := c.clk.Now().Sub(start)
	if werr != nil {
		wrapped := &WriteError{Key: key, Operation: m.Operation, EntityID: m.EntityID, Err: werr}
		if _, err := res.Revalidate(ctx); err != nil {
			c.log.Warnf("refetch %s after failed %s: %v; restoring previous value", key, m.Operation, err)
			if rerr := res.Restore(previous); rerr != nil {
				c.log.Warnf("restore %s: %v", key, rerr)
			}
		}
		tr := c.move(key, m, StateRolledBack, wrapped, latency)
		c.log.Errorw("optimistic write rolled back", wrapped, map[string]any{
			"key":       key,
			"operation": m.Operation,
			"entity_id": m.EntityID,
		})
		c.finish(ctx, tr)
		return wrapped
	}

	if _, err := res.Revalidate(ctx); err != nil {
		c.log.Warnf("refetch %s after %s: %v", key, m.Operation, err)
	}
	tr := c.move(key, m, StateConfirmed, nil, latency)
	c.log.Debugw("optimistic write confirmed", map[string]any{
		"key":       key,
		"operation": m.Operation,
		"entity_id": m.EntityID,
	})
	c.finish(ctx, tr)
	return nil
}
