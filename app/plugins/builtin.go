package plugins

import (
	"context"

	"github.com/kilianp07/fleetrollout/config"
	"github.com/kilianp07/fleetrollout/core/logger"
	"github.com/kilianp07/fleetrollout/core/monitoring"
	"github.com/kilianp07/fleetrollout/core/notify"
	"github.com/kilianp07/fleetrollout/core/store"
	infranotify "github.com/kilianp07/fleetrollout/infra/notify"
	"github.com/kilianp07/fleetrollout/infra/store/memory"
	"github.com/kilianp07/fleetrollout/infra/store/mongo"
	"github.com/kilianp07/fleetrollout/infra/store/sqlite"
)

func init() {
	RegisterStore("memory", func(ctx context.Context, cfg config.StoreConfig, _ logger.Logger) (store.Store, error) {
		st := memory.New()
		if cfg.Seed {
			if err := st.Load(ctx, memory.DemoSeed()); err != nil {
				return nil, err
			}
		}
		return st, nil
	})
	RegisterStore("sqlite", func(ctx context.Context, cfg config.StoreConfig, log logger.Logger) (store.Store, error) {
		return sqlite.Open(ctx, cfg.Path, log)
	})
	RegisterStore("mongo", func(ctx context.Context, cfg config.StoreConfig, log logger.Logger) (store.Store, error) {
		return mongo.Connect(ctx, cfg.URI, cfg.Database, log)
	})

	RegisterNotifier("nop", func(*config.Config, monitoring.Monitor) (notify.Notifier, error) {
		return notify.Nop{}, nil
	})
	RegisterNotifier("mqtt", func(cfg *config.Config, mon monitoring.Monitor) (notify.Notifier, error) {
		return infranotify.NewPublisher(cfg.Notify, mon)
	})
}
