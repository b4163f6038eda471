package cacheinfra

import (
	"time"

	"github.com/viccon/sturdyc"
)

// Config holds the configuration for the sturdyc backed store.
type Config struct {
	// Capacity defines the maximum number of entries the store retains.
	// Must be greater than 0.
	Capacity int

	// NumShards determines the number of sturdyc shards.
	// Must be greater than 0. Default: 256
	NumShards int

	// TTL is the retention period of an entry. An expired entry behaves like
	// a miss on the next read. Must be greater than 0.
	TTL time.Duration

	// EvictionPercentage specifies what percentage of entries to evict
	// when the store reaches its capacity. Must be between 1-100.
	EvictionPercentage int

	// EvictionInterval sets how often sturdyc scans for expired entries.
	// Zero value uses the sturdyc default.
	EvictionInterval time.Duration

	// DefaultStaleTime is the freshness window used by Get when reporting
	// the stale flag. A negative value means entries only go stale through
	// invalidation.
	DefaultStaleTime time.Duration

	// RefreshTimeout bounds background refreshes started for stale reads.
	// Must be greater than 0.
	RefreshTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults for most use cases.
func DefaultConfig() Config {
	return Config{
		Capacity:           10000,
		NumShards:          256,
		TTL:                30 * time.Minute,
		EvictionPercentage: 10,
		EvictionInterval:   0,
		DefaultStaleTime:   0,
		RefreshTimeout:     30 * time.Second,
	}
}

// ToSturdycOptions converts the Config to sturdyc options.
// Capacity, NumShards, TTL and EvictionPercentage go straight to sturdyc.New.
func (c Config) ToSturdycOptions() []sturdyc.Option {
	var options []sturdyc.Option

	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}

	return options
}

// Validate checks if the configuration values are valid.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}

	if c.NumShards <= 0 {
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}

	if c.TTL <= 0 {
		return &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}

	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}

	if c.EvictionInterval < 0 {
		return &ConfigError{Field: "EvictionInterval", Message: "must be non-negative"}
	}

	if c.RefreshTimeout <= 0 {
		return &ConfigError{Field: "RefreshTimeout", Message: "must be greater than 0"}
	}

	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}
