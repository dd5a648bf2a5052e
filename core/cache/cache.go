package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/kilianp07/fleetrollout/core/logger"
	"github.com/kilianp07/fleetrollout/core/monitoring"
	"github.com/kilianp07/fleetrollout/internal/clock"
	"github.com/kilianp07/fleetrollout/internal/eventbus"
)

// ErrUnknownKey is returned for keys that were never registered.
var ErrUnknownKey = errors.New("cache: unknown key")

// DefaultFetchTimeout bounds a single fetch.
const DefaultFetchTimeout = 30 * time.Second

// Fetcher loads the full value of a key from the remote store.
type Fetcher func(ctx context.Context) (any, error)

// Listener receives the entry snapshot after every change. Listeners may call
// back into the store, including on their own key.
type Listener func(Snapshot)

// Snapshot is a point-in-time view of an entry.
type Snapshot struct {
	Key           string
	Data          any
	Status        Status
	Err           error
	LastFetchedAt time.Time
	Version       uint64
	Validating    bool
}

// IsLoading reports whether the entry has no data yet and a fetch is pending.
func (s Snapshot) IsLoading() bool { return s.Status == StatusLoading }

// Options configures a Store. Zero values fall back to defaults.
type Options struct {
	Clock        clock.Clock
	Logger       logger.Logger
	Monitor      monitoring.Monitor
	Events       *eventbus.Bus[Event]
	FetchTimeout time.Duration
	// Staleness overrides DefaultStaleness per key.
	Staleness map[string]time.Duration
}

type listener struct {
	id int
	fn Listener
}

type notice struct {
	snap Snapshot
	ev   Event
}

type entry struct {
	key   string
	fetch Fetcher
	stale time.Duration

	// Fields below are guarded by Store.mu.
	data       any
	hasData    bool
	status     Status
	err        error
	fetchedAt  time.Time
	checkedAt  time.Time
	version    uint64
	inflight   int
	pending    bool
	startSeq   uint64
	appliedSeq uint64
	listeners  []listener
	nextID     int
	// queue holds changes not yet delivered to listeners, in change order.
	queue    []notice
	draining bool
}

// Store is the keyed cache. It is safe for concurrent use.
type Store struct {
	clk          clock.Clock
	log          logger.Logger
	mon          monitoring.Monitor
	events       *eventbus.Bus[Event]
	fetchTimeout time.Duration
	staleness    map[string]time.Duration
	group        singleflight.Group

	mu      sync.Mutex
	entries map[string]*entry
	order   []string
	base    context.Context
	cancel  context.CancelFunc
	gen     uint64
}

func New(opts Options) *Store {
	base, cancel := context.WithCancel(context.Background())
	timeout := opts.FetchTimeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Store{
		clk:          clock.OrReal(opts.Clock),
		log:          logger.OrNop(opts.Logger),
		mon:          monitoring.OrNop(opts.Monitor),
		events:       opts.Events,
		fetchTimeout: timeout,
		staleness:    opts.Staleness,
		entries:      map[string]*entry{},
		base:         base,
		cancel:       cancel,
	}
}

// Register adds key with its fetcher. Keys are registered once.
func (s *Store) Register(key string, fetch Fetcher) error {
	if fetch == nil {
		return fmt.Errorf("cache: nil fetcher for %s", key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; ok {
		return fmt.Errorf("cache: key %s already registered", key)
	}
	s.entries[key] = &entry{key: key, fetch: fetch, stale: s.staleFor(key), status: StatusIdle}
	s.order = append(s.order, key)
	return nil
}

func (s *Store) staleFor(key string) time.Duration {
	if d, ok := s.staleness[key]; ok && d > 0 {
		return d
	}
	if d, ok := DefaultStaleness[key]; ok {
		return d
	}
	return DefaultStale
}

// StaleFor returns the staleness window of key.
func (s *Store) StaleFor(key string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok {
		return e.stale
	}
	return s.staleFor(key)
}

// Keys lists the registered keys in registration order.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

func (s *Store) lookup(key string) (*entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return e, nil
}

func (s *Store) snapshotLocked(e *entry) Snapshot {
	return Snapshot{
		Key:           e.key,
		Data:          e.data,
		Status:        e.status,
		Err:           e.err,
		LastFetchedAt: e.fetchedAt,
		Version:       e.version,
		Validating:    e.inflight > 0 || e.pending,
	}
}

func (s *Store) publish(e Event) {
	if s.events == nil {
		return
	}
	if e.Time.IsZero() {
		e.Time = s.clk.Now()
	}
	s.events.Publish(e)
}

// Init fetches every registered key concurrently and waits for all of them.
func (s *Store) Init(ctx context.Context) error {
	var g errgroup.Group
	for _, key := range s.Keys() {
		g.Go(func() error {
			_, err := s.Refresh(ctx, key)
			return err
		})
	}
	return g.Wait()
}

// Get returns the cached entry without blocking. A first read, or a read past
// the staleness window, starts a background refresh.
func (s *Store) Get(key string) Snapshot {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		return Snapshot{Key: key, Status: StatusError, Err: fmt.Errorf("%w: %s", ErrUnknownKey, key)}
	}
	now := s.clk.Now()
	due := e.inflight == 0 && !e.pending && (e.checkedAt.IsZero() || now.Sub(e.checkedAt) > e.stale)
	var ev *Event
	if due {
		e.pending = true
		if !e.hasData {
			e.status = StatusLoading
			e.version++
			ev = &Event{Key: key, Kind: EventLoading, Version: e.version, Time: now}
		} else {
			ev = &Event{Key: key, Kind: EventStale, Version: e.version, Time: now}
		}
	}
	snap := s.snapshotLocked(e)
	s.mu.Unlock()

	if ev != nil {
		s.publish(*ev)
		go s.background(e, false)
	}
	return snap
}

// Peek returns the cached entry without triggering any refresh.
func (s *Store) Peek(key string) (Snapshot, error) {
	e, err := s.lookup(key)
	if err != nil {
		return Snapshot{Key: key}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(e), nil
}

// Refresh fetches key, joining a fetch already in flight. ctx bounds only the
// wait: the fetch itself keeps running and its result is cached.
func (s *Store) Refresh(ctx context.Context, key string) (any, error) {
	e, err := s.lookup(key)
	if err != nil {
		return nil, err
	}
	return s.do(ctx, e, false)
}

// Revalidate starts a new fetch of key even when one is in flight, so the
// result reflects writes made after that fetch began.
func (s *Store) Revalidate(ctx context.Context, key string) (any, error) {
	e, err := s.lookup(key)
	if err != nil {
		return nil, err
	}
	return s.do(ctx, e, true)
}

func (s *Store) do(ctx context.Context, e *entry, force bool) (any, error) {
	if force {
		s.group.Forget(e.key)
	} else {
		s.mu.Lock()
		joined := e.inflight > 0
		v := e.version
		s.mu.Unlock()
		if joined {
			s.publish(Event{Key: e.key, Kind: EventDeduped, Version: v})
		}
	}
	ch := s.group.DoChan(e.key, func() (any, error) { return s.fetch(e) })
	select {
	case r := <-ch:
		s.drain(e)
		return r.Val, r.Err
	case <-ctx.Done():
		go func() {
			<-ch
			s.drain(e)
		}()
		return nil, ctx.Err()
	}
}

func (s *Store) background(e *entry, force bool) {
	s.mu.Lock()
	ctx := s.base
	s.mu.Unlock()
	if _, err := s.do(ctx, e, force); err != nil {
		s.log.Debugw("background refresh failed", map[string]any{"key": e.key, "error": err.Error()})
	}
	s.mu.Lock()
	e.pending = false
	s.mu.Unlock()
}

func (s *Store) fetch(e *entry) (any, error) {
	s.mu.Lock()
	base, gen := s.base, s.gen
	e.startSeq++
	seq := e.startSeq
	e.inflight++
	e.pending = false
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(base, s.fetchTimeout)
	defer cancel()
	start := s.clk.Now()
	val, err := e.fetch(ctx)
	now := s.clk.Now()
	dur := now.Sub(start)

	if err != nil {
		err = fmt.Errorf("fetch %s: %w", e.key, err)
		s.apply(e, EventFetchFailed, dur, err, func() bool {
			e.inflight--
			if gen != s.gen || seq < e.appliedSeq {
				return false
			}
			e.checkedAt = now
			e.status = StatusError
			e.err = err
			return true
		})
		s.log.Errorw("cache refresh failed", err, map[string]any{"key": e.key})
		s.mon.CaptureException(err, map[string]string{"component": "cache", "key": e.key})
		return nil, err
	}

	s.apply(e, EventFetched, dur, nil, func() bool {
		e.inflight--
		if gen != s.gen || seq < e.appliedSeq {
			return false
		}
		e.appliedSeq = seq
		e.data = val
		e.hasData = true
		e.status = StatusReady
		e.err = nil
		e.fetchedAt = now
		e.checkedAt = now
		return true
	})
	return val, nil
}

// apply runs change under the store lock and, when it reports a visible
// change, bumps the version and queues the snapshot for drain. Fetches only
// queue: their notices are drained once the shared flight has returned.
func (s *Store) apply(e *entry, kind EventKind, dur time.Duration, evErr error, change func() bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !change() {
		return
	}
	e.version++
	snap := s.snapshotLocked(e)
	e.queue = append(e.queue, notice{
		snap: snap,
		ev:   Event{Key: e.key, Kind: kind, Version: snap.Version, Err: evErr, Duration: dur},
	})
}

// drain delivers queued changes of e to its listeners in order, without
// holding any lock. A drain already running on another goroutine, or further
// up the stack of a re-entrant listener, delivers them instead.
func (s *Store) drain(e *entry) {
	s.mu.Lock()
	if e.draining {
		s.mu.Unlock()
		return
	}
	e.draining = true
	for len(e.queue) > 0 {
		n := e.queue[0]
		e.queue = e.queue[1:]
		ls := append([]listener(nil), e.listeners...)
		s.mu.Unlock()

		for _, l := range ls {
			l.fn(n.snap)
		}
		s.publish(n.ev)
		s.mu.Lock()
	}
	e.draining = false
	s.mu.Unlock()
}

// MutateLocal replaces the cached value of key and notifies subscribers
// before returning, unless the call comes from a listener of the same key:
// then the notice is delivered once that listener returns. With revalidate
// set, a fresh fetch follows in the background.
func (s *Store) MutateLocal(key string, data any, revalidate bool) error {
	e, err := s.lookup(key)
	if err != nil {
		return err
	}
	s.apply(e, EventMutated, 0, nil, func() bool {
		e.data = data
		e.hasData = true
		e.status = StatusReady
		e.err = nil
		return true
	})
	s.drain(e)
	if revalidate {
		s.mu.Lock()
		e.pending = true
		s.mu.Unlock()
		go s.background(e, true)
	}
	return nil
}

// Restore puts data back as the cached value of key and keeps its status and
// error, so a failed fetch stays visible.
func (s *Store) Restore(key string, data any) error {
	e, err := s.lookup(key)
	if err != nil {
		return err
	}
	s.apply(e, EventRestored, 0, nil, func() bool {
		e.data = data
		e.hasData = true
		return true
	})
	s.drain(e)
	return nil
}

// Subscribe registers fn for changes of key. The returned function removes
// it; removing a listener never aborts a fetch in flight.
func (s *Store) Subscribe(key string, fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok || fn == nil {
		s.mu.Unlock()
		s.log.Warnf("cache: subscribe to unknown key %s", key)
		return func() {}
	}
	e.nextID++
	id := e.nextID
	e.listeners = append(e.listeners, listener{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, l := range e.listeners {
				if l.id == id {
					e.listeners = append(e.listeners[:i:i], e.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// Clear drops every cached value and abandons fetches in flight. Listeners
// stay registered and observe the reset.
func (s *Store) Clear() {
	s.mu.Lock()
	s.cancel()
	s.base, s.cancel = context.WithCancel(context.Background())
	s.gen++
	entries := make([]*entry, 0, len(s.order))
	for _, k := range s.order {
		entries = append(entries, s.entries[k])
	}
	s.mu.Unlock()

	for _, e := range entries {
		s.group.Forget(e.key)
		s.apply(e, EventCleared, 0, nil, func() bool {
			e.data = nil
			e.hasData = false
			e.status = StatusIdle
			e.err = nil
			e.fetchedAt = time.Time{}
			e.checkedAt = time.Time{}
			e.pending = false
			return true
		})
		s.drain(e)
	}
}

// Close abandons fetches in flight. The store must not be used afterwards.
func (s *Store) Close() {
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()
}
