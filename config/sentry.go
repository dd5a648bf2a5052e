package config

import (
	"fmt"
	"time"
)

// SentryConfig enables error reporting for background failures. An empty DSN
// disables it.
type SentryConfig struct {
	DSN                 string  `json:"dsn"`
	Environment         string  `json:"environment"`
	Release             string  `json:"release"`
	ServerName          string  `json:"server_name"`
	TracesSampleRate    float64 `json:"traces_sample_rate"`
	FlushTimeoutSeconds int     `json:"flush_timeout_seconds"`
}

func (c *SentryConfig) SetDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.FlushTimeoutSeconds == 0 {
		c.FlushTimeoutSeconds = 2
	}
}

func (c SentryConfig) Validate() error {
	if c.TracesSampleRate < 0 || c.TracesSampleRate > 1 {
		return fmt.Errorf("traces_sample_rate must be between 0 and 1")
	}
	if c.FlushTimeoutSeconds < 0 {
		return fmt.Errorf("negative flush_timeout_seconds")
	}
	return nil
}

// FlushTimeout bounds how long a crash report may delay shutdown.
func (c SentryConfig) FlushTimeout() time.Duration {
	return time.Duration(c.FlushTimeoutSeconds) * time.Second
}
