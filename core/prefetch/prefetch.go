// Package prefetch warms cache keys ahead of navigation. Prefetches are fire
// and forget: they go through the cache's refresh path, so a prefetch of a key
// already being fetched joins that fetch, and failures are only logged.
package prefetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kilianp07/fleetrollout/core/cache"
	"github.com/kilianp07/fleetrollout/core/logger"
	"github.com/kilianp07/fleetrollout/internal/clock"
)

// ErrUnknownRoute is returned by PrefetchRoute for a route without keys.
var ErrUnknownRoute = errors.New("prefetch: unknown route")

// DefaultStep separates consecutive keys in PrefetchAll.
const DefaultStep = 50 * time.Millisecond

// DefaultOrder is the order PrefetchAll warms keys in.
var DefaultOrder = []string{cache.KeyVehicles, cache.KeyLocations, cache.KeyTeamMembers, cache.KeyTasks}

// Routes maps navigation targets to the keys their views read.
var Routes = map[string][]string{
	"dashboard":       {cache.KeyVehicles, cache.KeyLocations, cache.KeyProjectSettings},
	"schedule":        {cache.KeyVehicles, cache.KeyLocations, cache.KeyProjectSettings},
	"team":            {cache.KeyTeamMembers, cache.KeyTasks},
	"tasks":           {cache.KeyTasks, cache.KeyVehicles, cache.KeyTeamMembers},
	"data-management": {cache.KeyVehicles, cache.KeyLocations, cache.KeyTeamMembers},
}

// Refresher is the part of the cache prefetching needs.
type Refresher interface {
	Refresh(ctx context.Context, key string) (any, error)
}

type Options struct {
	Clock  clock.Clock
	Logger logger.Logger
	Step   time.Duration
	Order  []string
}

// Prefetcher schedules background refreshes.
type Prefetcher struct {
	r     Refresher
	clk   clock.Clock
	log   logger.Logger
	step  time.Duration
	order []string

	mu     sync.Mutex
	timers []clock.Timer
	ctx    context.Context
	cancel context.CancelFunc
}

func New(r Refresher, opts Options) *Prefetcher {
	step := opts.Step
	if step <= 0 {
		step = DefaultStep
	}
	order := opts.Order
	if len(order) == 0 {
		order = DefaultOrder
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Prefetcher{
		r:      r,
		clk:    clock.OrReal(opts.Clock),
		log:    logger.OrNop(opts.Logger),
		step:   step,
		order:  order,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Prefetch refreshes key in the background and returns immediately.
func (p *Prefetcher) Prefetch(key string) {
	p.mu.Lock()
	ctx := p.ctx
	p.mu.Unlock()
	go func() {
		if _, err := p.r.Refresh(ctx, key); err != nil {
			p.log.Debugw("prefetch failed", map[string]any{"key": key, "error": err.Error()})
		}
	}()
}

// PrefetchAll warms the configured keys one step apart, the first one
// immediately.
func (p *Prefetcher) PrefetchAll() {
	p.schedule(p.order)
}

// PrefetchRoute warms the keys of a navigation target.
func (p *Prefetcher) PrefetchRoute(route string) error {
	keys, ok := Routes[route]
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownRoute, route)
	}
	p.schedule(keys)
	return nil
}

func (p *Prefetcher) schedule(keys []string) {
	for i, key := range keys {
		if i == 0 {
			p.Prefetch(key)
			continue
		}
		t := p.clk.AfterFunc(time.Duration(i)*p.step, func() { p.Prefetch(key) })
		p.mu.Lock()
		p.timers = append(p.timers, t)
		p.mu.Unlock()
	}
}

// Stop cancels pending prefetches and stops waiting on running ones. Fetches
// already started still complete and are cached.
func (p *Prefetcher) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range p.timers {
		t.Stop()
	}
	p.timers = nil
	p.cancel()
	p.ctx, p.cancel = context.WithCancel(context.Background())
}
