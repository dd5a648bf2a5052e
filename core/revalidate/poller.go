// Package revalidate polls cache keys on per-key intervals. Each running key
// owns exactly one timer, so stopping a key or the whole poller leaves nothing
// scheduled behind.
package revalidate

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kilianp07/fleetrollout/core/cache"
	"github.com/kilianp07/fleetrollout/core/logger"
	"github.com/kilianp07/fleetrollout/internal/clock"
)

// DefaultIntervals mirrors the cache staleness windows.
var DefaultIntervals = map[string]time.Duration{
	cache.KeyVehicles:        30 * time.Second,
	cache.KeyLocations:       60 * time.Second,
	cache.KeyTeamMembers:     60 * time.Second,
	cache.KeyTasks:           15 * time.Second,
	cache.KeyProjectSettings: 60 * time.Second,
}

// Refresher is the part of the cache the poller drives.
type Refresher interface {
	Refresh(ctx context.Context, key string) (any, error)
}

type Options struct {
	Clock     clock.Clock
	Logger    logger.Logger
	Intervals map[string]time.Duration
	// Fallback applies to keys missing from Intervals.
	Fallback time.Duration
}

type job struct {
	timer clock.Timer
	gen   uint64
}

// Poller refreshes running keys each time their interval elapses.
type Poller struct {
	r         Refresher
	clk       clock.Clock
	log       logger.Logger
	intervals map[string]time.Duration
	fallback  time.Duration

	mu   sync.Mutex
	gen  uint64
	jobs map[string]job
	ctx  context.Context
	stop context.CancelFunc
}

func New(r Refresher, opts Options) *Poller {
	intervals := make(map[string]time.Duration, len(DefaultIntervals))
	for k, v := range DefaultIntervals {
		intervals[k] = v
	}
	for k, v := range opts.Intervals {
		if v > 0 {
			intervals[k] = v
		}
	}
	fallback := opts.Fallback
	if fallback <= 0 {
		fallback = cache.DefaultStale
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Poller{
		r:         r,
		clk:       clock.OrReal(opts.Clock),
		log:       logger.OrNop(opts.Logger),
		intervals: intervals,
		fallback:  fallback,
		jobs:      make(map[string]job),
		ctx:       ctx,
		stop:      cancel,
	}
}

// Interval returns the polling period of key.
func (p *Poller) Interval(key string) time.Duration {
	if d, ok := p.intervals[key]; ok {
		return d
	}
	return p.fallback
}

// Start begins polling key. Starting a running key restarts its timer.
func (p *Poller) Start(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if j, ok := p.jobs[key]; ok {
		j.timer.Stop()
	}
	p.armLocked(key)
}

func (p *Poller) armLocked(key string) {
	p.gen++
	gen := p.gen
	t := p.clk.AfterFunc(p.Interval(key), func() { p.tick(key, gen) })
	p.jobs[key] = job{timer: t, gen: gen}
}

func (p *Poller) tick(key string, gen uint64) {
	p.mu.Lock()
	j, ok := p.jobs[key]
	if !ok || j.gen != gen {
		p.mu.Unlock()
		return
	}
	ctx := p.ctx
	p.armLocked(key)
	p.mu.Unlock()

	go func() {
		if _, err := p.r.Refresh(ctx, key); err != nil {
			p.log.Debugw("poll refresh failed", map[string]any{"key": key, "error": err.Error()})
		}
	}()
}

// Stop ends polling of key.
func (p *Poller) Stop(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if j, ok := p.jobs[key]; ok {
		j.timer.Stop()
		delete(p.jobs, key)
	}
}

// StopAll ends polling of every key and abandons waits on running refreshes.
func (p *Poller) StopAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for key, j := range p.jobs {
		j.timer.Stop()
		delete(p.jobs, key)
	}
	p.stop()
	p.ctx, p.stop = context.WithCancel(context.Background())
}

// Running lists the polled keys in sorted order.
func (p *Poller) Running() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := make([]string, 0, len(p.jobs))
	for k := range p.jobs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
