package plugins

import (
	"context"
	"fmt"
	"sort"

	"github.com/kilianp07/fleetrollout/config"
	"github.com/kilianp07/fleetrollout/core/logger"
	"github.com/kilianp07/fleetrollout/core/monitoring"
	"github.com/kilianp07/fleetrollout/core/notify"
	"github.com/kilianp07/fleetrollout/core/store"
)

// StoreFactory opens an entity store backend.
type StoreFactory func(ctx context.Context, cfg config.StoreConfig, log logger.Logger) (store.Store, error)

// NotifierFactory builds the outbound notifier.
type NotifierFactory func(cfg *config.Config, mon monitoring.Monitor) (notify.Notifier, error)

var (
	Stores    = map[string]StoreFactory{}
	Notifiers = map[string]NotifierFactory{}
)

func RegisterStore(name string, f StoreFactory)       { Stores[name] = f }
func RegisterNotifier(name string, f NotifierFactory) { Notifiers[name] = f }

// OpenStore opens the backend named by cfg.Backend.
func OpenStore(ctx context.Context, cfg config.StoreConfig, log logger.Logger) (store.Store, error) {
	f, ok := Stores[cfg.Backend]
	if !ok {
		return nil, fmt.Errorf("unknown store backend %q (known: %v)", cfg.Backend, names(Stores))
	}
	return f(ctx, cfg, log)
}

// NewNotifier builds the MQTT notifier when a broker is configured, or a Nop.
func NewNotifier(cfg *config.Config, mon monitoring.Monitor) (notify.Notifier, error) {
	name := "nop"
	if cfg.Notify.Broker != "" {
		name = "mqtt"
	}
	f, ok := Notifiers[name]
	if !ok {
		return nil, fmt.Errorf("unknown notifier %q", name)
	}
	return f(cfg, mon)
}

func names[F any](m map[string]F) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
