package revalidate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleetrollout/core/cache"
	"github.com/kilianp07/fleetrollout/internal/clock"
)

type counter struct {
	mu sync.Mutex
	n  map[string]int
}

func (c *counter) Refresh(_ context.Context, key string) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.n == nil {
		c.n = map[string]int{}
	}
	c.n[key]++
	return nil, nil
}

func (c *counter) count(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n[key]
}

func TestPollerRefreshesOnInterval(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	c := &counter{}
	p := New(c, Options{Clock: clk})
	p.Start(cache.KeyTasks)

	clk.Advance(14 * time.Second)
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 0, c.count(cache.KeyTasks))

	clk.Advance(time.Second)
	require.Eventually(t, func() bool { return c.count(cache.KeyTasks) == 1 }, time.Second, time.Millisecond)

	clk.Advance(30 * time.Second)
	require.Eventually(t, func() bool { return c.count(cache.KeyTasks) == 3 }, time.Second, time.Millisecond)
	assert.Equal(t, 1, clk.Pending())
}

func TestPollerStop(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	c := &counter{}
	p := New(c, Options{Clock: clk})
	p.Start(cache.KeyVehicles)
	p.Start(cache.KeyLocations)
	assert.Equal(t, []string{cache.KeyLocations, cache.KeyVehicles}, p.Running())

	p.Stop(cache.KeyVehicles)
	clk.Advance(time.Minute)
	require.Eventually(t, func() bool { return c.count(cache.KeyLocations) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, 0, c.count(cache.KeyVehicles))

	p.StopAll()
	assert.Empty(t, p.Running())
	assert.Equal(t, 0, clk.Pending())
}

func TestPollerRestartKeepsSingleTimer(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	p := New(&counter{}, Options{Clock: clk})
	p.Start(cache.KeyTasks)
	p.Start(cache.KeyTasks)
	assert.Equal(t, 1, clk.Pending())
}

func TestPollerIntervalOverrides(t *testing.T) {
	p := New(&counter{}, Options{
		Intervals: map[string]time.Duration{cache.KeyTasks: 5 * time.Second},
		Fallback:  time.Minute,
	})
	assert.Equal(t, 5*time.Second, p.Interval(cache.KeyTasks))
	assert.Equal(t, 30*time.Second, p.Interval(cache.KeyVehicles))
	assert.Equal(t, time.Minute, p.Interval(cache.KeyComments))
}
