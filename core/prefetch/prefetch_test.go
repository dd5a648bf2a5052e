package prefetch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleetrollout/core/cache"
	"github.com/kilianp07/fleetrollout/internal/clock"
)

type recorder struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (r *recorder) Refresh(_ context.Context, key string) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
	return nil, r.err
}

func (r *recorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.keys...)
}

func TestPrefetchAllStaggersKeys(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	rec := &recorder{}
	p := New(rec, Options{Clock: clk})
	p.PrefetchAll()

	require.Eventually(t, func() bool { return len(rec.seen()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, cache.KeyVehicles, rec.seen()[0])
	assert.Equal(t, 3, clk.Pending())

	clk.Advance(50 * time.Millisecond)
	require.Eventually(t, func() bool { return len(rec.seen()) == 2 }, time.Second, time.Millisecond)
	clk.Advance(100 * time.Millisecond)
	require.Eventually(t, func() bool { return len(rec.seen()) == 4 }, time.Second, time.Millisecond)
	assert.ElementsMatch(t, DefaultOrder, rec.seen())
}

func TestStopCancelsPending(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	rec := &recorder{}
	p := New(rec, Options{Clock: clk})
	p.PrefetchAll()
	p.Stop()
	clk.Advance(time.Second)
	require.Eventually(t, func() bool { return len(rec.seen()) >= 1 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.Len(t, rec.seen(), 1)
	assert.Equal(t, 0, clk.Pending())
}

func TestPrefetchSwallowsErrors(t *testing.T) {
	rec := &recorder{err: errors.New("offline")}
	p := New(rec, Options{})
	p.Prefetch(cache.KeyTasks)
	require.Eventually(t, func() bool { return len(rec.seen()) == 1 }, time.Second, time.Millisecond)
}

func TestPrefetchRoute(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	rec := &recorder{}
	p := New(rec, Options{Clock: clk})
	require.NoError(t, p.PrefetchRoute("team"))
	clk.Advance(time.Second)
	require.Eventually(t, func() bool { return len(rec.seen()) == 2 }, time.Second, time.Millisecond)
	assert.ElementsMatch(t, []string{cache.KeyTeamMembers, cache.KeyTasks}, rec.seen())
	assert.Error(t, p.PrefetchRoute("settings-page"))
}
