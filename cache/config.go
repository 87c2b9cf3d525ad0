package cache

import (
	"time"

	"github.com/goliatone/go-record-finder/internal/cacheinfra"
)

// Config configures the optional row cache sitting in front of cached finder
// lookups. The zero value is disabled; DefaultConfig is disabled too but
// carries usable sizing.
type Config struct {
	Enabled              bool                `yaml:"enabled"`
	Capacity             int                 `yaml:"capacity"`
	NumShards            int                 `yaml:"num_shards"`
	TTL                  time.Duration       `yaml:"ttl"`
	EvictionPercentage   int                 `yaml:"eviction_percentage"`
	EarlyRefresh         *EarlyRefreshConfig `yaml:"early_refresh"`
	MissingRecordStorage bool                `yaml:"missing_record_storage"`
	EvictionInterval     time.Duration       `yaml:"eviction_interval"`
}

// EarlyRefreshConfig mirrors the underlying sturdyc early refresh options.
type EarlyRefreshConfig struct {
	MinAsyncRefreshTime time.Duration `yaml:"min_async_refresh_time"`
	MaxAsyncRefreshTime time.Duration `yaml:"max_async_refresh_time"`
	SyncRefreshTime     time.Duration `yaml:"sync_refresh_time"`
	RetryBaseDelay      time.Duration `yaml:"retry_base_delay"`
}

// DefaultConfig returns the backend defaults with the row cache disabled.
func DefaultConfig() Config {
	return convertFromInternal(cacheinfra.DefaultConfig())
}

// Validate checks the sizing values. A disabled config is always valid.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	return c.toInternal().Validate()
}

// NewCacheService constructs the sturdyc backed row cache.
func NewCacheService(cfg Config) (CacheService, error) {
	return cacheinfra.NewSturdycService(cfg.toInternal())
}

func (c Config) toInternal() cacheinfra.Config {
	cfg := cacheinfra.Config{
		Capacity:             c.Capacity,
		NumShards:            c.NumShards,
		TTL:                  c.TTL,
		EvictionPercentage:   c.EvictionPercentage,
		MissingRecordStorage: c.MissingRecordStorage,
		EvictionInterval:     c.EvictionInterval,
	}
	if e := c.EarlyRefresh; e != nil {
		cfg.EarlyRefresh = &cacheinfra.EarlyRefreshConfig{
			MinAsyncRefreshTime: e.MinAsyncRefreshTime,
			MaxAsyncRefreshTime: e.MaxAsyncRefreshTime,
			SyncRefreshTime:     e.SyncRefreshTime,
			RetryBaseDelay:      e.RetryBaseDelay,
		}
	}
	return cfg
}

func convertFromInternal(in cacheinfra.Config) Config {
	cfg := Config{
		Capacity:             in.Capacity,
		NumShards:            in.NumShards,
		TTL:                  in.TTL,
		EvictionPercentage:   in.EvictionPercentage,
		MissingRecordStorage: in.MissingRecordStorage,
		EvictionInterval:     in.EvictionInterval,
	}
	if e := in.EarlyRefresh; e != nil {
		cfg.EarlyRefresh = &EarlyRefreshConfig{
			MinAsyncRefreshTime: e.MinAsyncRefreshTime,
			MaxAsyncRefreshTime: e.MaxAsyncRefreshTime,
			SyncRefreshTime:     e.SyncRefreshTime,
			RetryBaseDelay:      e.RetryBaseDelay,
		}
	}
	return cfg
}
