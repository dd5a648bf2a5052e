package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/fleetrollout/core/schedule"
)

// StoreConfig selects the entity store backend.
type StoreConfig struct {
	// Backend is "memory", "sqlite" or "mongo".
	Backend  string `json:"backend"`
	Path     string `json:"path"`
	URI      string `json:"uri"`
	Database string `json:"database"`
	// Seed loads the demo fleet into an empty memory store.
	Seed bool `json:"seed"`
}

func (c *StoreConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "memory"
	}
	if c.Backend == "sqlite" && c.Path == "" {
		c.Path = "fleetrollout.db"
	}
	if c.Backend == "mongo" && c.Database == "" {
		c.Database = "fleetrollout"
	}
}

func (c StoreConfig) Validate() error {
	switch c.Backend {
	case "memory", "sqlite":
		return nil
	case "mongo":
		if c.URI == "" {
			return fmt.Errorf("uri is required for mongo")
		}
		return nil
	default:
		return fmt.Errorf("unknown backend %s", c.Backend)
	}
}

// CacheConfig tunes the cache layer and the revalidation poller.
type CacheConfig struct {
	FetchTimeoutSeconds int `json:"fetch_timeout_seconds"`
	// StaleSeconds overrides the staleness window per resource key.
	StaleSeconds map[string]int `json:"stale_seconds"`
	// PollSeconds overrides the background revalidation interval per key.
	PollSeconds map[string]int `json:"poll_seconds"`
	// Poll enables background revalidation of the cached collections.
	Poll bool `json:"poll"`
}

func (c *CacheConfig) SetDefaults() {
	if c.FetchTimeoutSeconds == 0 {
		c.FetchTimeoutSeconds = 30
	}
}

func (c CacheConfig) Validate() error {
	if c.FetchTimeoutSeconds < 0 {
		return fmt.Errorf("fetch_timeout_seconds must not be negative")
	}
	for k, v := range c.StaleSeconds {
		if v < 0 {
			return fmt.Errorf("stale_seconds.%s must not be negative", k)
		}
	}
	for k, v := range c.PollSeconds {
		if v <= 0 {
			return fmt.Errorf("poll_seconds.%s must be positive", k)
		}
	}
	return nil
}

func (c CacheConfig) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

func (c CacheConfig) Staleness() map[string]time.Duration { return seconds(c.StaleSeconds) }

func (c CacheConfig) PollIntervals() map[string]time.Duration { return seconds(c.PollSeconds) }

func seconds(m map[string]int) map[string]time.Duration {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]time.Duration, len(m))
	for k, v := range m {
		out[k] = time.Duration(v) * time.Second
	}
	return out
}

// PrefetchConfig controls the staggered warm-up of collections.
type PrefetchConfig struct {
	Disabled bool `json:"disabled"`
	StepMS   int  `json:"step_ms"`
}

func (c *PrefetchConfig) SetDefaults() {
	if c.StepMS == 0 {
		c.StepMS = 50
	}
}

func (c PrefetchConfig) Validate() error {
	if c.StepMS < 0 {
		return fmt.Errorf("step_ms must not be negative")
	}
	return nil
}

func (c PrefetchConfig) Step() time.Duration { return time.Duration(c.StepMS) * time.Millisecond }

// ProjectConfig shapes the rollout calendar.
type ProjectConfig struct {
	Days  int      `json:"days"`
	Slots []string `json:"slots"`
}

func (c *ProjectConfig) SetDefaults() {
	if c.Days == 0 {
		c.Days = schedule.DefaultProjectDays
	}
	if len(c.Slots) == 0 {
		c.Slots = append([]string(nil), schedule.DefaultSlots...)
	}
}

func (c ProjectConfig) Validate() error {
	if c.Days < 1 {
		return fmt.Errorf("days must be at least 1")
	}
	seen := make(map[string]bool, len(c.Slots))
	for _, s := range c.Slots {
		if s == "" {
			return fmt.Errorf("empty slot")
		}
		if seen[s] {
			return fmt.Errorf("duplicate slot %s", s)
		}
		seen[s] = true
	}
	return nil
}

// HTTPConfig sets the listen addresses of the API and the metrics endpoint.
type HTTPConfig struct {
	Addr        string `json:"addr"`
	MetricsAddr string `json:"metrics_addr"`
	// Token protects the journal endpoint when set.
	Token string `json:"token"`
}

func (c *HTTPConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}

func (c HTTPConfig) Validate() error {
	if c.Addr != "" && c.Addr == c.MetricsAddr {
		return fmt.Errorf("addr and metrics_addr must differ")
	}
	return nil
}
