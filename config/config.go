package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/fleetrollout/core/metrics"
	"github.com/kilianp07/fleetrollout/infra/notify"
)

// EnvPrefix marks environment overrides. Nested keys use a double underscore:
// K_CACHE__STALE_SECONDS__TASKS=5.
const EnvPrefix = "K_"

type Config struct {
	Store    StoreConfig    `json:"store"`
	Cache    CacheConfig    `json:"cache"`
	Prefetch PrefetchConfig `json:"prefetch"`
	Project  ProjectConfig  `json:"project"`
	Logging  LoggingConfig  `json:"logging"`
	Journal  JournalConfig  `json:"journal"`
	Metrics  metrics.Config `json:"metrics"`
	Notify   notify.Config  `json:"notify"`
	Sentry   SentryConfig   `json:"sentry"`
	HTTP     HTTPConfig     `json:"http"`
}

// Load reads path, applies K_ environment overrides, fills defaults and
// validates every section. An empty path loads defaults plus environment.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a validated configuration without reading any source.
func Default() *Config {
	var cfg Config
	cfg.SetDefaults()
	return &cfg
}

func (c *Config) SetDefaults() {
	c.Store.SetDefaults()
	c.Cache.SetDefaults()
	c.Prefetch.SetDefaults()
	c.Project.SetDefaults()
	c.Logging.SetDefaults()
	c.Journal.SetDefaults()
	c.HTTP.SetDefaults()
	if c.Notify.ClientID == "" {
		c.Notify.ClientID = "fleetrollout"
	}
	if c.Notify.TopicPrefix == "" {
		c.Notify.TopicPrefix = notify.DefaultTopicPrefix
	}
	if c.Notify.MaxRetries == 0 {
		c.Notify.MaxRetries = 3
	}
	if c.Notify.BackoffMS == 0 {
		c.Notify.BackoffMS = 100
	}
	c.Sentry.SetDefaults()
}

// Validate reports every invalid section at once.
func (c Config) Validate() error {
	var errs []error
	wrap := func(section string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", section, err))
		}
	}
	wrap("store", c.Store.Validate())
	wrap("cache", c.Cache.Validate())
	wrap("prefetch", c.Prefetch.Validate())
	wrap("project", c.Project.Validate())
	wrap("logging", c.Logging.Validate())
	wrap("journal", c.Journal.Validate())
	wrap("http", c.HTTP.Validate())
	if c.Notify.QoS > 2 {
		wrap("notify", fmt.Errorf("qos %d out of range", c.Notify.QoS))
	}
	wrap("sentry", c.Sentry.Validate())
	return errors.Join(errs...)
}
