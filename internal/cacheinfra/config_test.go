package cacheinfra

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Capacity != 10000 {
		t.Errorf("expected Capacity to be 10000, got %d", cfg.Capacity)
	}

	if cfg.NumShards != 256 {
		t.Errorf("expected NumShards to be 256, got %d", cfg.NumShards)
	}

	if cfg.TTL != 30*time.Minute {
		t.Errorf("expected TTL to be 30 minutes, got %v", cfg.TTL)
	}

	if cfg.EvictionPercentage != 10 {
		t.Errorf("expected EvictionPercentage to be 10, got %d", cfg.EvictionPercentage)
	}

	if cfg.DefaultStaleTime != 0 {
		t.Errorf("expected DefaultStaleTime to be 0, got %v", cfg.DefaultStaleTime)
	}

	if cfg.RefreshTimeout != 30*time.Second {
		t.Errorf("expected RefreshTimeout to be 30 seconds, got %v", cfg.RefreshTimeout)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Capacity:           100,
			NumShards:          4,
			TTL:                time.Minute,
			EvictionPercentage: 10,
			RefreshTimeout:     time.Second,
		}
	}

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{name: "valid config", mutate: func(c *Config) {}},
		{name: "zero capacity", mutate: func(c *Config) { c.Capacity = 0 }, wantField: "Capacity"},
		{name: "negative shards", mutate: func(c *Config) { c.NumShards = -1 }, wantField: "NumShards"},
		{name: "zero ttl", mutate: func(c *Config) { c.TTL = 0 }, wantField: "TTL"},
		{name: "eviction percentage too low", mutate: func(c *Config) { c.EvictionPercentage = 0 }, wantField: "EvictionPercentage"},
		{name: "eviction percentage too high", mutate: func(c *Config) { c.EvictionPercentage = 101 }, wantField: "EvictionPercentage"},
		{name: "negative eviction interval", mutate: func(c *Config) { c.EvictionInterval = -time.Second }, wantField: "EvictionInterval"},
		{name: "zero refresh timeout", mutate: func(c *Config) { c.RefreshTimeout = 0 }, wantField: "RefreshTimeout"},
		{name: "negative stale time is allowed", mutate: func(c *Config) { c.DefaultStaleTime = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("expected no error but got: %v", err)
				}
				return
			}

			configErr, ok := err.(*ConfigError)
			if !ok {
				t.Fatalf("expected *ConfigError, got %T (%v)", err, err)
			}
			if configErr.Field != tt.wantField {
				t.Errorf("expected field %q, got %q", tt.wantField, configErr.Field)
			}
			if !strings.Contains(err.Error(), tt.wantField) {
				t.Errorf("expected error message to mention %q, got %q", tt.wantField, err.Error())
			}
		})
	}
}

func TestConfig_ToSturdycOptions(t *testing.T) {
	cfg := DefaultConfig()
	if got := len(cfg.ToSturdycOptions()); got != 0 {
		t.Errorf("expected no sturdyc options for default config, got %d", got)
	}

	cfg.EvictionInterval = time.Minute
	if got := len(cfg.ToSturdycOptions()); got != 1 {
		t.Errorf("expected 1 sturdyc option with eviction interval, got %d", got)
	}
}

func TestConfigError_Error(t *testing.T) {
	err := &ConfigError{
		Field:   "TestField",
		Message: "test message",
	}

	expected := "config error in field TestField: test message"
	if err.Error() != expected {
		t.Errorf("expected error message %q, got %q", expected, err.Error())
	}
}
