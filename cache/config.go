package cache

import (
	"time"

	"github.com/goliatone/go-pagecache/internal/cacheinfra"
)

// Config exposes store configuration options for consumers of the cache package.
type Config struct {
	Capacity           int           `mapstructure:"capacity"`
	NumShards          int           `mapstructure:"num_shards"`
	TTL                time.Duration `mapstructure:"ttl"`
	EvictionPercentage int           `mapstructure:"eviction_percentage"`
	EvictionInterval   time.Duration `mapstructure:"eviction_interval"`
	DefaultStaleTime   time.Duration `mapstructure:"default_stale_time"`
	RefreshTimeout     time.Duration `mapstructure:"refresh_timeout"`
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() Config {
	return convertFromInternal(cacheinfra.DefaultConfig())
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	return c.toInternal().Validate()
}

func (c Config) toInternal() cacheinfra.Config {
	return cacheinfra.Config{
		Capacity:           c.Capacity,
		NumShards:          c.NumShards,
		TTL:                c.TTL,
		EvictionPercentage: c.EvictionPercentage,
		EvictionInterval:   c.EvictionInterval,
		DefaultStaleTime:   c.DefaultStaleTime,
		RefreshTimeout:     c.RefreshTimeout,
	}
}

func convertFromInternal(cfg cacheinfra.Config) Config {
	return Config{
		Capacity:           cfg.Capacity,
		NumShards:          cfg.NumShards,
		TTL:                cfg.TTL,
		EvictionPercentage: cfg.EvictionPercentage,
		EvictionInterval:   cfg.EvictionInterval,
		DefaultStaleTime:   cfg.DefaultStaleTime,
		RefreshTimeout:     cfg.RefreshTimeout,
	}
}
