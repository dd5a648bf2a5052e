// Package workspace is the intent surface of the rollout coordinator. Every
// write is validated, applied optimistically to the cache and reconciled with
// the remote store; every read is served from the cache.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kilianp07/fleetrollout/core/aggregate"
	"github.com/kilianp07/fleetrollout/core/cache"
	"github.com/kilianp07/fleetrollout/core/logger"
	"github.com/kilianp07/fleetrollout/core/model"
	"github.com/kilianp07/fleetrollout/core/notify"
	"github.com/kilianp07/fleetrollout/core/optimistic"
	"github.com/kilianp07/fleetrollout/core/schedule"
	"github.com/kilianp07/fleetrollout/core/store"
	"github.com/kilianp07/fleetrollout/core/validation"
	"github.com/kilianp07/fleetrollout/internal/clock"
)

// DefaultNotifyTimeout bounds the delivery of one notification.
const DefaultNotifyTimeout = 5 * time.Second

type Options struct {
	Clock      clock.Clock
	Logger     logger.Logger
	Validator  validation.Validator
	Notifier   notify.Notifier
	Controller *optimistic.Controller
	Engine     *aggregate.Engine
	// Slots are the time slots of the schedule grid.
	Slots []string
	// ProjectDays is the length of the project in days.
	ProjectDays   int
	NotifyTimeout time.Duration
}

// Workspace binds the cache, the remote store and the optimistic controller.
type Workspace struct {
	cache    *cache.Store
	st       store.Store
	ctl      *optimistic.Controller
	val      validation.Validator
	notifier notify.Notifier
	engine   *aggregate.Engine
	planner  *schedule.Planner
	clk      clock.Clock
	log      logger.Logger

	slots         []string
	projectDays   int
	notifyTimeout time.Duration

	vehicles  *cache.Resource[[]model.Vehicle]
	locations *cache.Resource[[]model.Location]
	team      *cache.Resource[[]model.TeamMember]
	tasks     *cache.Resource[[]model.Task]
	comments  *cache.Resource[[]model.Comment]
	settings  *cache.Resource[model.ProjectSettings]

	wg sync.WaitGroup
}

// New registers the collections of st on c.
func New(c *cache.Store, st store.Store, opts Options) (*Workspace, error) {
	w := &Workspace{
		cache:         c,
		st:            st,
		ctl:           opts.Controller,
		val:           opts.Validator,
		notifier:      opts.Notifier,
		engine:        opts.Engine,
		clk:           clock.OrReal(opts.Clock),
		log:           logger.OrNop(opts.Logger),
		slots:         opts.Slots,
		projectDays:   opts.ProjectDays,
		notifyTimeout: opts.NotifyTimeout,
	}
	if w.ctl == nil {
		w.ctl = optimistic.NewController(optimistic.Options{Clock: w.clk, Logger: w.log})
	}
	if w.val == nil {
		w.val = validation.Default{}
	}
	if w.notifier == nil {
		w.notifier = notify.Nop{}
	}
	if w.engine == nil {
		w.engine = aggregate.NewEngine()
	}
	if len(w.slots) == 0 {
		w.slots = schedule.DefaultSlots
	}
	if w.projectDays <= 0 {
		w.projectDays = schedule.DefaultProjectDays
	}
	if w.notifyTimeout <= 0 {
		w.notifyTimeout = DefaultNotifyTimeout
	}

	var err error
	if w.vehicles, err = cache.NewResource(c, cache.KeyVehicles, lister(st.Vehicles(), store.SortVehicles)); err != nil {
		return nil, err
	}
	if w.locations, err = cache.NewResource(c, cache.KeyLocations, lister(st.Locations(), store.SortLocations)); err != nil {
		return nil, err
	}
	if w.team, err = cache.NewResource(c, cache.KeyTeamMembers, lister(st.TeamMembers(), store.SortTeamMembers)); err != nil {
		return nil, err
	}
	if w.tasks, err = cache.NewResource(c, cache.KeyTasks, lister(st.Tasks(), store.SortTasks)); err != nil {
		return nil, err
	}
	if w.comments, err = cache.NewResource(c, cache.KeyComments, lister[model.Comment](st.Comments(), store.SortComments)); err != nil {
		return nil, err
	}
	if w.settings, err = cache.NewResource(c, cache.KeyProjectSettings, w.fetchSettings); err != nil {
		return nil, err
	}
	w.planner = schedule.NewPlanner(w.ctl, w.vehicles, w.settings, st.Vehicles(), w.clk)
	w.ctl.OnTransition(w.announce)
	return w, nil
}

func lister[T store.Entity](t store.Table[T], order func([]T)) func(context.Context) ([]T, error) {
	return func(ctx context.Context) ([]T, error) {
		rows, err := t.List(ctx)
		if err != nil {
			return nil, err
		}
		order(rows)
		return rows, nil
	}
}

func (w *Workspace) fetchSettings(ctx context.Context) (model.ProjectSettings, error) {
	s, err := w.st.Settings().Get(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return model.ProjectSettings{ID: model.SettingsID}, nil
	}
	return s, err
}

// announce publishes confirmed mutations without holding up the writer.
func (w *Workspace) announce(tr optimistic.Transition) {
	if tr.To != optimistic.StateConfirmed {
		return
	}
	ev := notify.Event{
		Key:       tr.Key,
		Operation: tr.Mutation.Operation,
		EntityID:  tr.Mutation.EntityID,
		Payload:   tr.Mutation.Payload,
		Time:      tr.Time,
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), w.notifyTimeout)
		defer cancel()
		if err := w.notifier.Notify(ctx, ev); err != nil {
			w.log.Warnf("notify %s %s: %v", ev.Key, ev.Operation, err)
		}
	}()
}

// Init loads every collection.
func (w *Workspace) Init(ctx context.Context) error {
	return w.cache.Init(ctx)
}

// Close waits for pending notifications.
func (w *Workspace) Close() {
	w.wg.Wait()
}

func (w *Workspace) Controller() *optimistic.Controller { return w.ctl }
func (w *Workspace) Planner() *schedule.Planner         { return w.planner }
func (w *Workspace) Cache() *cache.Store                { return w.cache }

func (w *Workspace) now() time.Time { return w.clk.Now().UTC() }

func notFound(kind, id string) error {
	return fmt.Errorf("%w: %s %s", store.ErrNotFound, kind, id)
}

func duplicate(kind, id string) error {
	return fmt.Errorf("%w: %s %s", store.ErrDuplicate, kind, id)
}
