package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kilianp07/fleetrollout/core/aggregate"
	"github.com/kilianp07/fleetrollout/core/cache"
	coremetrics "github.com/kilianp07/fleetrollout/core/metrics"
	"github.com/kilianp07/fleetrollout/internal/eventbus"
)

type captureSink struct {
	mu       sync.Mutex
	events   []coremetrics.CacheEvent
	fleet    []coremetrics.FleetProgress
	location [][]coremetrics.LocationProgress
}

func (c *captureSink) RecordCache(ev coremetrics.CacheEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return nil
}

func (c *captureSink) RecordFleetProgress(p coremetrics.FleetProgress) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fleet = append(c.fleet, p)
	return nil
}

func (c *captureSink) RecordLocationProgress(p []coremetrics.LocationProgress) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.location = append(c.location, p)
	return nil
}

func (c *captureSink) cacheEvents() []coremetrics.CacheEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]coremetrics.CacheEvent(nil), c.events...)
}

func TestStartCacheCollector(t *testing.T) {
	bus := eventbus.New[cache.Event]()
	sink := &captureSink{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	StartCacheCollector(ctx, bus, sink)

	bus.Publish(cache.Event{Key: "vehicles", Kind: cache.EventLoading})
	bus.Publish(cache.Event{Key: "vehicles", Kind: cache.EventFetched, Duration: time.Millisecond})
	bus.Publish(cache.Event{Key: "tasks", Kind: cache.EventDeduped})

	deadline := time.Now().Add(time.Second)
	for len(sink.cacheEvents()) < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	got := sink.cacheEvents()
	if len(got) != 2 {
		t.Fatalf("expected 2 recorded events, got %d", len(got))
	}
	if got[0].Kind != coremetrics.CacheFetchOK || got[1].Kind != coremetrics.CacheDedup {
		t.Errorf("unexpected kinds: %+v", got)
	}
}

type staticProgress struct{}

func (staticProgress) FleetStats() aggregate.Fleet {
	return aggregate.Fleet{Total: 4, Completed: 2, Pending: 2, Percent: 50}
}

func (staticProgress) LocationProgress() []aggregate.Progress {
	return []aggregate.Progress{{Location: "Hawassa", Total: 2, Percent: 50, Drift: aggregate.Counters{Vehicles: -1}}}
}

func TestReportProgress(t *testing.T) {
	sink := &captureSink{}
	now := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	if err := ReportProgress(staticProgress{}, sink, now); err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(sink.fleet) != 1 || sink.fleet[0].Percent != 50 {
		t.Fatalf("fleet: %+v", sink.fleet)
	}
	if len(sink.location) != 1 || sink.location[0][0].Drift != -1 || !sink.location[0][0].Time.Equal(now) {
		t.Fatalf("location: %+v", sink.location)
	}
}
