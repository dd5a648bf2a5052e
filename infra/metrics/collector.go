package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/fleetrollout/core/aggregate"
	"github.com/kilianp07/fleetrollout/core/cache"
	coremetrics "github.com/kilianp07/fleetrollout/core/metrics"
	"github.com/kilianp07/fleetrollout/infra/logger"
	"github.com/kilianp07/fleetrollout/internal/eventbus"
)

var cacheKinds = map[cache.EventKind]coremetrics.CacheEventKind{
	cache.EventFetched:     coremetrics.CacheFetchOK,
	cache.EventFetchFailed: coremetrics.CacheFetchError,
	cache.EventDeduped:     coremetrics.CacheDedup,
	cache.EventMutated:     coremetrics.CacheMutate,
	cache.EventStale:       coremetrics.CacheStaleHit,
}

// StartCacheCollector records cache events from bus on sink until ctx is
// canceled or the bus is closed.
func StartCacheCollector(ctx context.Context, bus *eventbus.Bus[cache.Event], sink coremetrics.Sink) {
	if bus == nil || sink == nil {
		return
	}
	sub := bus.SubscribeBuffered(64)
	log := logger.New("cache-collector")
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				kind, known := cacheKinds[ev.Kind]
				if !known {
					continue
				}
				if err := sink.RecordCache(coremetrics.CacheEvent{
					Key:      ev.Key,
					Kind:     kind,
					Duration: ev.Duration,
					Time:     ev.Time,
				}); err != nil {
					log.Warnf("record cache event: %v", err)
				}
			}
		}
	}()
}

// ProgressSource provides the aggregations reported as progress.
type ProgressSource interface {
	FleetStats() aggregate.Fleet
	LocationProgress() []aggregate.Progress
}

// ReportProgress records one progress snapshot.
func ReportProgress(src ProgressSource, rec coremetrics.ProgressRecorder, now time.Time) error {
	f := src.FleetStats()
	if err := rec.RecordFleetProgress(coremetrics.FleetProgress{
		Total:      f.Total,
		Completed:  f.Completed,
		InProgress: f.InProgress,
		Pending:    f.Pending,
		Percent:    f.Percent,
		Time:       now,
	}); err != nil {
		return err
	}
	locs := src.LocationProgress()
	out := make([]coremetrics.LocationProgress, 0, len(locs))
	for _, p := range locs {
		out = append(out, coremetrics.LocationProgress{
			Location: p.Location,
			Total:    p.Total,
			Percent:  p.Percent,
			Drift:    p.Drift.Vehicles,
			Time:     now,
		})
	}
	return rec.RecordLocationProgress(out)
}

// StartProgressReporter calls ReportProgress every interval until ctx is
// canceled.
func StartProgressReporter(ctx context.Context, src ProgressSource, rec coremetrics.ProgressRecorder, interval time.Duration) {
	if src == nil || rec == nil || interval <= 0 {
		return
	}
	log := logger.New("progress-reporter")
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if err := ReportProgress(src, rec, now.UTC()); err != nil {
					log.Warnf("report progress: %v", err)
				}
			}
		}
	}()
}
