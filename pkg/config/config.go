// Package config loads pagecache settings from an optional YAML file and
// PAGECACHE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-pagecache/cache"
	"github.com/goliatone/go-pagecache/pkg/logging"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. PAGECACHE_PAGING_PAGE_SIZE.
const EnvPrefix = "PAGECACHE"

// Config holds all settings.
type Config struct {
	Cache   cache.Config   `mapstructure:"cache"`
	Paging  PagingConfig   `mapstructure:"paging"`
	Logging logging.Config `mapstructure:"logging"`
}

// PagingConfig holds the defaults new queries start from.
type PagingConfig struct {
	PageSize        int           `mapstructure:"page_size"`
	StaleTime       time.Duration `mapstructure:"stale_time"`
	FetchAll        bool          `mapstructure:"fetch_all"`
	CacheIndividual bool          `mapstructure:"cache_individual"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Cache: cache.DefaultConfig(),
		Paging: PagingConfig{
			PageSize:        50,
			StaleTime:       0,
			CacheIndividual: true,
			PollInterval:    time.Second,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	return validation.ValidateStruct(&c.Paging,
		validation.Field(&c.Paging.PageSize, validation.Required, validation.Min(1)),
		validation.Field(&c.Paging.PollInterval, validation.Required, validation.Min(time.Millisecond)),
	)
}

// LoadOption customizes Load.
type LoadOption func(*loader)

type loader struct {
	file        string
	searchPaths []string
}

// WithFile reads exactly path. A missing explicit file is an error.
func WithFile(path string) LoadOption {
	return func(l *loader) {
		l.file = path
	}
}

// WithSearchPaths looks for pagecache.yaml in dirs. Missing files are fine.
func WithSearchPaths(dirs ...string) LoadOption {
	return func(l *loader) {
		l.searchPaths = append(l.searchPaths, dirs...)
	}
}

// Load layers defaults, the config file and environment overrides, then
// validates the result.
func Load(opts ...LoadOption) (Config, error) {
	l := loader{searchPaths: []string{"."}}
	for _, opt := range opts {
		opt(&l)
	}

	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if l.file != "" {
		v.SetConfigFile(l.file)
	} else {
		v.SetConfigName("pagecache")
		v.SetConfigType("yaml")
		for _, dir := range l.searchPaths {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if l.file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every key so environment overrides apply even when
// no file mentions them.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("cache.capacity", d.Cache.Capacity)
	v.SetDefault("cache.num_shards", d.Cache.NumShards)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.eviction_percentage", d.Cache.EvictionPercentage)
	v.SetDefault("cache.eviction_interval", d.Cache.EvictionInterval)
	v.SetDefault("cache.default_stale_time", d.Cache.DefaultStaleTime)
	v.SetDefault("cache.refresh_timeout", d.Cache.RefreshTimeout)

	v.SetDefault("paging.page_size", d.Paging.PageSize)
	v.SetDefault("paging.stale_time", d.Paging.StaleTime)
	v.SetDefault("paging.fetch_all", d.Paging.FetchAll)
	v.SetDefault("paging.cache_individual", d.Paging.CacheIndividual)
	v.SetDefault("paging.poll_interval", d.Paging.PollInterval)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.pretty", d.Logging.Pretty)
}
