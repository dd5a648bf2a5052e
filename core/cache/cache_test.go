package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleetrollout/core/monitoring"
	"github.com/kilianp07/fleetrollout/internal/clock"
	"github.com/kilianp07/fleetrollout/internal/eventbus"
)

var epoch = time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)

type counter struct {
	calls atomic.Int32
	fail  atomic.Bool
}

func (c *counter) fetch(context.Context) ([]string, error) {
	n := c.calls.Add(1)
	if c.fail.Load() {
		return nil, errors.New("network down")
	}
	return []string{string(rune('a' + n - 1))}, nil
}

func newStore(t *testing.T, clk clock.Clock) *Store {
	t.Helper()
	s := New(Options{Clock: clk})
	t.Cleanup(s.Close)
	return s
}

func TestRefreshDeduplicatesConcurrentCallers(t *testing.T) {
	bus := eventbus.New[Event]()
	events := bus.SubscribeBuffered(64)
	s := New(Options{Events: bus})
	defer s.Close()

	var calls atomic.Int32
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	_, err := NewResource(s, KeyVehicles, func(context.Context) ([]string, error) {
		calls.Add(1)
		started <- struct{}{}
		<-release
		return []string{"V001"}, nil
	})
	require.NoError(t, err)

	const n = 5
	var wg sync.WaitGroup
	results := make([]any, n)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = s.Refresh(context.Background(), KeyVehicles)
	}()
	<-started
	for i := 1; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = s.Refresh(context.Background(), KeyVehicles)
		}(i)
	}

	deduped := 0
	require.Eventually(t, func() bool {
		for {
			select {
			case ev := <-events:
				if ev.Kind == EventDeduped {
					deduped++
				}
			default:
				return deduped == n-1
			}
		}
	}, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Equal(t, []string{"V001"}, r)
	}
}

func TestGetReturnsLoadingThenReady(t *testing.T) {
	s := newStore(t, nil)
	c := &counter{}
	res, err := NewResource(s, KeyTasks, c.fetch)
	require.NoError(t, err)

	first := res.Get()
	assert.True(t, first.IsLoading())
	assert.Nil(t, first.Data)

	require.Eventually(t, func() bool { return res.Peek().Status == StatusReady }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"a"}, res.Peek().Data)
}

func TestStaleWhileRevalidate(t *testing.T) {
	clk := clock.NewFake(epoch)
	s := newStore(t, clk)
	c := &counter{}
	res, err := NewResource(s, KeyVehicles, c.fetch)
	require.NoError(t, err)

	_, err = res.Refresh(context.Background())
	require.NoError(t, err)

	clk.Advance(10 * time.Second)
	v := res.Get()
	assert.Equal(t, []string{"a"}, v.Data)
	assert.False(t, v.Validating)
	assert.Equal(t, int32(1), c.calls.Load())

	clk.Advance(25 * time.Second)
	v = res.Get()
	assert.Equal(t, []string{"a"}, v.Data, "stale value served immediately")
	require.Eventually(t, func() bool { return c.calls.Load() == 2 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		d := res.Peek().Data
		return len(d) == 1 && d[0] == "b"
	}, time.Second, 5*time.Millisecond)
}

func TestFailedRefreshKeepsLastGoodData(t *testing.T) {
	mon := &monitoring.Recorder{}
	s := New(Options{Monitor: mon})
	defer s.Close()
	c := &counter{}
	res, err := NewResource(s, KeyLocations, c.fetch)
	require.NoError(t, err)

	_, err = res.Refresh(context.Background())
	require.NoError(t, err)

	c.fail.Store(true)
	_, err = res.Refresh(context.Background())
	require.Error(t, err)

	v := res.Peek()
	assert.Equal(t, []string{"a"}, v.Data)
	assert.Equal(t, StatusError, v.Status)
	assert.ErrorContains(t, v.Err, "network down")
	require.Len(t, mon.Captures(), 1)
	assert.Equal(t, KeyLocations, mon.Captures()[0].Tags["key"])
}

func TestMutateLocalNotifiesBeforeReturning(t *testing.T) {
	s := newStore(t, nil)
	c := &counter{}
	res, err := NewResource(s, KeyTeamMembers, c.fetch)
	require.NoError(t, err)

	var seen [][]string
	unsubscribe := res.Subscribe(func(v View[[]string]) { seen = append(seen, v.Data) })
	require.NoError(t, res.MutateLocal([]string{"x"}, false))
	require.Len(t, seen, 1)
	assert.Equal(t, []string{"x"}, seen[0])

	unsubscribe()
	unsubscribe()
	require.NoError(t, res.MutateLocal([]string{"y"}, false))
	assert.Len(t, seen, 1)
	assert.Equal(t, int32(0), c.calls.Load())
}

func TestListenersRunInSubscriptionOrder(t *testing.T) {
	s := newStore(t, nil)
	require.NoError(t, s.Register(KeyTasks, func(context.Context) (any, error) { return 1, nil }))
	var order []int
	s.Subscribe(KeyTasks, func(Snapshot) { order = append(order, 1) })
	s.Subscribe(KeyTasks, func(Snapshot) { order = append(order, 2) })
	require.NoError(t, s.MutateLocal(KeyTasks, 2, false))
	assert.Equal(t, []int{1, 2}, order)
}

func TestOlderFetchDoesNotOverwriteNewer(t *testing.T) {
	s := newStore(t, nil)
	releaseFirst := make(chan struct{})
	var calls atomic.Int32
	res, err := NewResource(s, KeyVehicles, func(context.Context) (int, error) {
		if calls.Add(1) == 1 {
			<-releaseFirst
			return 1, nil
		}
		return 2, nil
	})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		_, _ = res.Refresh(context.Background())
		close(done)
	}()
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)

	v, err := res.Revalidate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	close(releaseFirst)
	<-done
	assert.Equal(t, 2, res.Peek().Data)
}

func TestUnsubscribeDoesNotAbortFetch(t *testing.T) {
	s := newStore(t, nil)
	release := make(chan struct{})
	res, err := NewResource(s, KeyComments, func(context.Context) (string, error) {
		<-release
		return "cached", nil
	})
	require.NoError(t, err)
	unsubscribe := res.Subscribe(func(View[string]) {})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := res.Refresh(ctx)
		errc <- err
	}()
	unsubscribe()
	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)

	close(release)
	require.Eventually(t, func() bool { return res.Peek().Data == "cached" }, time.Second, 5*time.Millisecond)
}

func TestUnknownKey(t *testing.T) {
	s := newStore(t, nil)
	snap := s.Get("nope")
	assert.ErrorIs(t, snap.Err, ErrUnknownKey)
	_, err := s.Refresh(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrUnknownKey)
	assert.ErrorIs(t, s.MutateLocal("nope", 1, false), ErrUnknownKey)
	s.Subscribe("nope", func(Snapshot) {})()
}

func TestRegisterTwiceFails(t *testing.T) {
	s := newStore(t, nil)
	c := &counter{}
	_, err := NewResource(s, KeyTasks, c.fetch)
	require.NoError(t, err)
	_, err = NewResource(s, KeyTasks, c.fetch)
	assert.Error(t, err)
}

func TestInitAndClear(t *testing.T) {
	s := newStore(t, nil)
	v := &counter{}
	l := &counter{}
	_, err := NewResource(s, KeyVehicles, v.fetch)
	require.NoError(t, err)
	_, err = NewResource(s, KeyLocations, l.fetch)
	require.NoError(t, err)

	require.NoError(t, s.Init(context.Background()))
	snap, err := s.Peek(KeyVehicles)
	require.NoError(t, err)
	assert.Equal(t, StatusReady, snap.Status)
	assert.Equal(t, []string{KeyVehicles, KeyLocations}, s.Keys())

	var cleared Snapshot
	s.Subscribe(KeyLocations, func(sn Snapshot) { cleared = sn })
	s.Clear()
	snap, _ = s.Peek(KeyVehicles)
	assert.Equal(t, StatusIdle, snap.Status)
	assert.Nil(t, snap.Data)
	assert.Equal(t, StatusIdle, cleared.Status)
}

func TestStalenessOverrides(t *testing.T) {
	s := New(Options{Staleness: map[string]time.Duration{KeyTasks: 5 * time.Second}})
	defer s.Close()
	assert.Equal(t, 5*time.Second, s.StaleFor(KeyTasks))
	assert.Equal(t, 60*time.Second, s.StaleFor(KeyLocations))
	assert.Equal(t, DefaultStale, s.StaleFor("custom"))
}

func TestRestoreKeepsErrorStatus(t *testing.T) {
	s := newStore(t, nil)
	c := &counter{}
	res, err := NewResource(s, KeyVehicles, c.fetch)
	require.NoError(t, err)
	_, err = res.Refresh(context.Background())
	require.NoError(t, err)

	require.NoError(t, res.MutateLocal([]string{"optimistic"}, false))
	c.fail.Store(true)
	_, err = res.Refresh(context.Background())
	require.Error(t, err)

	var seen []View[[]string]
	res.Subscribe(func(v View[[]string]) { seen = append(seen, v) })
	require.NoError(t, res.Restore([]string{"a"}))

	v := res.Peek()
	assert.Equal(t, []string{"a"}, v.Data)
	assert.Equal(t, StatusError, v.Status)
	assert.ErrorContains(t, v.Err, "network down")
	require.Len(t, seen, 1)
	assert.Equal(t, StatusError, seen[0].Status)
}

func TestListenerMayMutateItsOwnKey(t *testing.T) {
	s := newStore(t, nil)
	require.NoError(t, s.Register(KeyTasks, func(context.Context) (any, error) { return 1, nil }))

	var seen []any
	s.Subscribe(KeyTasks, func(sn Snapshot) {
		seen = append(seen, sn.Data)
		if sn.Data == 1 {
			assert.NoError(t, s.MutateLocal(KeyTasks, 2, false))
		}
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := s.Refresh(context.Background(), KeyTasks)
		assert.NoError(t, err)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("listener re-entering the store blocked")
	}
	assert.Equal(t, []any{1, 2}, seen)
	snap, err := s.Peek(KeyTasks)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Data)
}

func TestListenerMayRefreshItsOwnKey(t *testing.T) {
	s := newStore(t, nil)
	var calls atomic.Int32
	require.NoError(t, s.Register(KeyTasks, func(context.Context) (any, error) { return int(calls.Add(1)), nil }))

	var seen []any
	s.Subscribe(KeyTasks, func(sn Snapshot) {
		seen = append(seen, sn.Data)
		if sn.Data == 1 {
			_, err := s.Refresh(context.Background(), KeyTasks)
			assert.NoError(t, err)
		}
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.Refresh(context.Background(), KeyTasks)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("listener refreshing its own key blocked")
	}
	assert.Equal(t, []any{1, 2}, seen)
}
