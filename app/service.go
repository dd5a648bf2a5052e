// Package app wires the configured backends into a running rollout service.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kilianp07/fleetrollout/api"
	"github.com/kilianp07/fleetrollout/app/plugins"
	"github.com/kilianp07/fleetrollout/config"
	"github.com/kilianp07/fleetrollout/core/aggregate"
	"github.com/kilianp07/fleetrollout/core/cache"
	"github.com/kilianp07/fleetrollout/core/journal"
	coremetrics "github.com/kilianp07/fleetrollout/core/metrics"
	coremon "github.com/kilianp07/fleetrollout/core/monitoring"
	"github.com/kilianp07/fleetrollout/core/notify"
	"github.com/kilianp07/fleetrollout/core/optimistic"
	"github.com/kilianp07/fleetrollout/core/prefetch"
	"github.com/kilianp07/fleetrollout/core/revalidate"
	"github.com/kilianp07/fleetrollout/core/store"
	"github.com/kilianp07/fleetrollout/core/workspace"
	"github.com/kilianp07/fleetrollout/infra/logger"
	"github.com/kilianp07/fleetrollout/infra/metrics"
	"github.com/kilianp07/fleetrollout/infra/monitoring"
	"github.com/kilianp07/fleetrollout/internal/eventbus"
)

// DefaultProgressInterval spaces progress snapshots when none is configured.
const DefaultProgressInterval = time.Minute

// Service owns the workspace and its background workers.
type Service struct {
	Workspace  *workspace.Workspace
	Prefetcher *prefetch.Prefetcher
	Poller     *revalidate.Poller
	Journal    journal.Store

	cfg      *config.Config
	st       store.Store
	cache    *cache.Store
	bus      *eventbus.Bus[cache.Event]
	sink     coremetrics.Sink
	notifier notify.Notifier
	mon      coremon.Monitor
	log      logger.Logger
}

// New opens the store and builds the workspace from cfg. Nothing runs until
// Start or Run is called.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	if err := logger.Configure(cfg.Logging.Logger()); err != nil {
		return nil, err
	}
	log := logger.New("service")

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	sink, err := coremetrics.NewSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	jr, err := journal.New(cfg.Journal.Module())
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	st, err := plugins.OpenStore(ctx, cfg.Store, logger.New("store"))
	if err != nil {
		_ = jr.Close()
		return nil, fmt.Errorf("store: %w", err)
	}
	notifier, err := plugins.NewNotifier(cfg, mon)
	if err != nil {
		_ = jr.Close()
		_ = st.Close(ctx)
		return nil, fmt.Errorf("notifier: %w", err)
	}

	bus := eventbus.New[cache.Event]()
	c := cache.New(cache.Options{
		Logger:       logger.New("cache"),
		Monitor:      mon,
		Events:       bus,
		FetchTimeout: cfg.Cache.FetchTimeout(),
		Staleness:    cfg.Cache.Staleness(),
	})
	ctlOpts := optimistic.Options{Logger: logger.New("optimistic"), Monitor: mon, Journal: jr}
	if mr, ok := sink.(coremetrics.MutationRecorder); ok {
		ctlOpts.Metrics = mr
	}
	ws, err := workspace.New(c, st, workspace.Options{
		Logger:      logger.New("workspace"),
		Notifier:    notifier,
		Controller:  optimistic.NewController(ctlOpts),
		Engine:      aggregate.NewEngine(),
		Slots:       cfg.Project.Slots,
		ProjectDays: cfg.Project.Days,
	})
	if err != nil {
		c.Close()
		_ = jr.Close()
		_ = notifier.Close()
		_ = st.Close(ctx)
		return nil, err
	}
	return &Service{
		Workspace: ws,
		Prefetcher: prefetch.New(c, prefetch.Options{
			Logger: logger.New("prefetch"),
			Step:   cfg.Prefetch.Step(),
		}),
		Poller: revalidate.New(c, revalidate.Options{
			Logger:    logger.New("poller"),
			Intervals: cfg.Cache.PollIntervals(),
		}),
		Journal:  jr,
		cfg:      cfg,
		st:       st,
		cache:    c,
		bus:      bus,
		sink:     sink,
		notifier: notifier,
		mon:      mon,
		log:      log,
	}, nil
}

// Start loads every collection and starts the background workers. Workers
// stop when ctx is canceled.
func (s *Service) Start(ctx context.Context) error {
	metrics.StartCacheCollector(ctx, s.bus, s.sink)
	if err := s.Workspace.Init(ctx); err != nil {
		return fmt.Errorf("initial load: %w", err)
	}
	if !s.cfg.Prefetch.Disabled {
		s.Prefetcher.PrefetchAll()
	}
	if s.cfg.Cache.Poll {
		for _, key := range s.cache.Keys() {
			s.Poller.Start(key)
		}
	}
	if rec, ok := s.sink.(coremetrics.ProgressRecorder); ok {
		interval := time.Duration(s.cfg.Metrics.ProgressIntervalSeconds) * time.Second
		if interval <= 0 {
			interval = DefaultProgressInterval
		}
		if err := metrics.ReportProgress(s.Workspace, rec, time.Now().UTC()); err != nil {
			s.log.Warnf("report progress: %v", err)
		}
		metrics.StartProgressReporter(ctx, s.Workspace, rec, interval)
	}
	return nil
}

// Handler returns the HTTP API of the service.
func (s *Service) Handler() http.Handler {
	return api.NewRouter(api.Deps{
		Workspace:  s.Workspace,
		Journal:    s.Journal,
		Prefetcher: s.Prefetcher,
		Logger:     logger.New("api"),
		Token:      s.cfg.HTTP.Token,
	})
}

// Run starts the service and serves the API until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	defer s.mon.Recover()
	if err := s.Start(ctx); err != nil {
		return err
	}
	if addr := s.cfg.HTTP.MetricsAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	srv := &http.Server{Addr: s.cfg.HTTP.Addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Warnf("api server shutdown: %v", err)
		}
	}()
	s.log.Infof("serving API on %s", s.cfg.HTTP.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close stops the workers and releases the backends.
func (s *Service) Close() error {
	s.Prefetcher.Stop()
	s.Poller.StopAll()
	s.Workspace.Close()
	s.cache.Close()
	s.bus.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	errs := []error{
		s.notifier.Close(),
		s.Journal.Close(),
		s.st.Close(ctx),
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	s.mon.Flush(s.cfg.Sentry.FlushTimeout())
	return errors.Join(errs...)
}
