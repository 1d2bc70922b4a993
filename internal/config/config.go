package config

import "time"

// IngestorConfig is the root configuration for an ingestor instance.
type IngestorConfig struct {
	API       APIConfig       `yaml:"api"`
	Warehouse DBConfig        `yaml:"warehouse"`
	Collector CollectorConfig `yaml:"collector"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Health    HealthConfig    `yaml:"health"`
}

// APIConfig holds CoinGecko API settings.
type APIConfig struct {
	BaseURL       string        `yaml:"base_url"`
	APIKey        string        `yaml:"api_key"` // optional, pro endpoint only
	Timeout       time.Duration `yaml:"timeout"`
	MaxRetries    int           `yaml:"max_retries"`
	RetryBackoff  time.Duration `yaml:"retry_backoff"`
	RateLimitWait time.Duration `yaml:"rate_limit_wait"`
}

// DBConfig holds the warehouse database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// CollectorConfig holds paginated collection settings.
type CollectorConfig struct {
	Pages          int           `yaml:"pages"`
	PerPage        int           `yaml:"per_page"`
	InterPageDelay time.Duration `yaml:"inter_page_delay"`
}

// SchedulerConfig holds the run cadence.
type SchedulerConfig struct {
	Interval   time.Duration `yaml:"interval"`
	RunTimeout time.Duration `yaml:"run_timeout"`
}

// HealthConfig holds the health endpoint settings.
type HealthConfig struct {
	Port int `yaml:"port"`
}
