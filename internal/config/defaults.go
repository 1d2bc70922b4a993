package config

import "time"

// Default values for optional configuration fields. Retry counts and backoff
// durations are configuration, not hard-coded behavior; these are the
// documented defaults.
const (
	DefaultBaseURL        = "https://api.coingecko.com/api/v3"
	DefaultAPITimeout     = 30 * time.Second
	DefaultMaxRetries     = 3
	DefaultRetryBackoff   = 1 * time.Second
	DefaultRateLimitWait  = 5 * time.Second
	DefaultDBPort         = 5432
	DefaultDBSSLMode      = "prefer"
	DefaultMaxConns       = 10
	DefaultMinConns       = 2
	DefaultPages          = 8
	DefaultPerPage        = 250
	DefaultInterPageDelay = 4 * time.Second
	DefaultInterval       = 2 * time.Hour
	DefaultRunTimeout     = 30 * time.Minute
	DefaultHealthPort     = 8080
)

func (c *IngestorConfig) applyDefaults() {
	// API defaults
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}
	if c.API.RetryBackoff == 0 {
		c.API.RetryBackoff = DefaultRetryBackoff
	}
	if c.API.RateLimitWait == 0 {
		c.API.RateLimitWait = DefaultRateLimitWait
	}

	// Warehouse defaults
	if c.Warehouse.Port == 0 {
		c.Warehouse.Port = DefaultDBPort
	}
	if c.Warehouse.SSLMode == "" {
		c.Warehouse.SSLMode = DefaultDBSSLMode
	}
	if c.Warehouse.MaxConns == 0 {
		c.Warehouse.MaxConns = DefaultMaxConns
	}
	if c.Warehouse.MinConns == 0 {
		c.Warehouse.MinConns = DefaultMinConns
	}

	// Collector defaults
	if c.Collector.Pages == 0 {
		c.Collector.Pages = DefaultPages
	}
	if c.Collector.PerPage == 0 {
		c.Collector.PerPage = DefaultPerPage
	}
	if c.Collector.InterPageDelay == 0 {
		c.Collector.InterPageDelay = DefaultInterPageDelay
	}

	// Scheduler defaults
	if c.Scheduler.Interval == 0 {
		c.Scheduler.Interval = DefaultInterval
	}
	if c.Scheduler.RunTimeout == 0 {
		c.Scheduler.RunTimeout = DefaultRunTimeout
	}

	// Health defaults
	if c.Health.Port == 0 {
		c.Health.Port = DefaultHealthPort
	}
}
