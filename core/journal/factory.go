package journal

import "github.com/kilianp07/fleetrollout/core/factory"

var registry = factory.NewRegistry[Store]()

func init() {
	_ = registry.Register("memory", func(conf map[string]any) (Store, error) {
		var c struct {
			Max int `json:"max"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewMemoryStore(c.Max), nil
	})
	_ = registry.Register("jsonl", func(conf map[string]any) (Store, error) {
		var c struct {
			Path       string `json:"path"`
			MaxSizeMB  int    `json:"max_size_mb"`
			MaxBackups int    `json:"max_backups"`
			MaxAgeDays int    `json:"max_age_days"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			c.Path = "mutations.jsonl"
		}
		if c.MaxSizeMB > 0 {
			return NewRotatingJSONLStore(c.Path, c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
		}
		return NewJSONLStore(c.Path)
	})
	_ = registry.Register("sqlite", func(conf map[string]any) (Store, error) {
		var c struct {
			Path string `json:"path"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			c.Path = "journal.db"
		}
		return NewSQLiteStore(c.Path)
	})
}

// New builds the configured journal backend. An empty type yields a memory
// store.
func New(cfg factory.ModuleConfig) (Store, error) {
	if cfg.Type == "" {
		return NewMemoryStore(0), nil
	}
	return registry.Create(cfg)
}
