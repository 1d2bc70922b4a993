package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
// Missing warehouse credentials are a fatal startup error.
func (c *IngestorConfig) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	if c.API.MaxRetries < 0 {
		return errors.New("api.max_retries must be >= 0")
	}

	if err := c.Warehouse.validate("warehouse"); err != nil {
		return err
	}

	if c.Collector.Pages < 1 {
		return errors.New("collector.pages must be >= 1")
	}
	if c.Collector.PerPage < 1 || c.Collector.PerPage > 250 {
		return fmt.Errorf("collector.per_page must be between 1 and 250, got %d", c.Collector.PerPage)
	}
	if c.Collector.InterPageDelay < 0 {
		return errors.New("collector.inter_page_delay must be >= 0")
	}

	if c.Scheduler.Interval <= 0 {
		return errors.New("scheduler.interval must be > 0")
	}

	if c.Health.Port < 1 || c.Health.Port > 65535 {
		return fmt.Errorf("health.port must be between 1 and 65535, got %d", c.Health.Port)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
