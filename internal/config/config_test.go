package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ingestor.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	yaml := `
api:
  base_url: https://pro-api.coingecko.com/api/v3
  api_key: test-key
warehouse:
  host: localhost
  port: 5432
  name: warehouse
  user: ingestor
  password: testpass
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.API.BaseURL != "https://pro-api.coingecko.com/api/v3" {
		t.Errorf("API.BaseURL = %q, want pro endpoint", cfg.API.BaseURL)
	}
	if cfg.API.APIKey != "test-key" {
		t.Errorf("API.APIKey = %q, want %q", cfg.API.APIKey, "test-key")
	}
	if cfg.Warehouse.Host != "localhost" {
		t.Errorf("Warehouse.Host = %q, want %q", cfg.Warehouse.Host, "localhost")
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_WAREHOUSE_PASSWORD", "secret123")

	yaml := `
warehouse:
  host: localhost
  name: warehouse
  user: ingestor
  password: ${TEST_WAREHOUSE_PASSWORD}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Warehouse.Password != "secret123" {
		t.Errorf("Warehouse.Password = %q, want %q", cfg.Warehouse.Password, "secret123")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
warehouse:
  host: localhost
  name: warehouse
  user: ingestor
  password: testpass
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.API.BaseURL != DefaultBaseURL {
		t.Errorf("API.BaseURL = %q, want default %q", cfg.API.BaseURL, DefaultBaseURL)
	}
	if cfg.API.Timeout != 30*time.Second {
		t.Errorf("API.Timeout = %v, want 30s", cfg.API.Timeout)
	}
	if cfg.API.RateLimitWait != 5*time.Second {
		t.Errorf("API.RateLimitWait = %v, want 5s", cfg.API.RateLimitWait)
	}
	if cfg.Warehouse.Port != 5432 {
		t.Errorf("Warehouse.Port = %d, want 5432", cfg.Warehouse.Port)
	}
	if cfg.Warehouse.SSLMode != "prefer" {
		t.Errorf("Warehouse.SSLMode = %q, want prefer", cfg.Warehouse.SSLMode)
	}
	if cfg.Collector.Pages != 8 {
		t.Errorf("Collector.Pages = %d, want 8", cfg.Collector.Pages)
	}
	if cfg.Collector.PerPage != 250 {
		t.Errorf("Collector.PerPage = %d, want 250", cfg.Collector.PerPage)
	}
	if cfg.Collector.InterPageDelay != 4*time.Second {
		t.Errorf("Collector.InterPageDelay = %v, want 4s", cfg.Collector.InterPageDelay)
	}
	if cfg.Scheduler.Interval != 2*time.Hour {
		t.Errorf("Scheduler.Interval = %v, want 2h", cfg.Scheduler.Interval)
	}
	if cfg.Health.Port != 8080 {
		t.Errorf("Health.Port = %d, want 8080", cfg.Health.Port)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *IngestorConfig {
		cfg := &IngestorConfig{
			Warehouse: DBConfig{
				Host:     "localhost",
				Name:     "warehouse",
				User:     "ingestor",
				Password: "testpass",
			},
		}
		cfg.applyDefaults()
		return cfg
	}

	t.Run("valid config passes", func(t *testing.T) {
		if err := valid().Validate(); err != nil {
			t.Errorf("Validate() = %v, want nil", err)
		}
	})

	t.Run("missing credentials fail", func(t *testing.T) {
		cfg := valid()
		cfg.Warehouse.Password = ""
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() = nil, want error for missing password")
		}
	})

	t.Run("missing host fails", func(t *testing.T) {
		cfg := valid()
		cfg.Warehouse.Host = ""
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() = nil, want error for missing host")
		}
	})

	t.Run("zero pages fails", func(t *testing.T) {
		cfg := valid()
		cfg.Collector.Pages = 0
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() = nil, want error for zero pages")
		}
	})

	t.Run("per_page above source maximum fails", func(t *testing.T) {
		cfg := valid()
		cfg.Collector.PerPage = 500
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() = nil, want error for per_page > 250")
		}
	})

	t.Run("zero interval fails", func(t *testing.T) {
		cfg := valid()
		cfg.Scheduler.Interval = 0
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() = nil, want error for zero interval")
		}
	})

	t.Run("min conns above max fails", func(t *testing.T) {
		cfg := valid()
		cfg.Warehouse.MinConns = 20
		cfg.Warehouse.MaxConns = 10
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() = nil, want error for min_conns > max_conns")
		}
	})
}

func TestLoadAndValidate_MissingFile(t *testing.T) {
	if _, err := LoadAndValidate(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadAndValidate() = nil, want error for missing file")
	}
}
