package cacheinfra

import (
	"context"
	"reflect"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/viccon/sturdyc"
)

// Config holds the configuration for the sturdyc row cache.
type Config struct {
	// Capacity defines the maximum number of entries that the cache can store.
	// Must be greater than 0.
	Capacity int

	// NumShards determines the number of cache shards for concurrent access.
	// Must be greater than 0. Default: 256
	NumShards int

	// TTL is the default time-to-live for cached rows.
	// Must be greater than 0.
	TTL time.Duration

	// EvictionPercentage specifies what percentage of entries to evict
	// when the cache reaches its capacity. Must be between 1-100.
	EvictionPercentage int

	// EarlyRefresh configures early refresh behavior for cached entries.
	// If nil, early refresh is disabled.
	EarlyRefresh *EarlyRefreshConfig

	// MissingRecordStorage lets sturdyc remember keys whose fetch reported
	// sturdyc.ErrNotFound.
	MissingRecordStorage bool

	// EvictionInterval sets how often the cache checks for expired entries.
	// Zero value uses the sturdyc default.
	EvictionInterval time.Duration
}

// EarlyRefreshConfig configures early refresh behavior.
type EarlyRefreshConfig struct {
	MinAsyncRefreshTime time.Duration
	MaxAsyncRefreshTime time.Duration
	SyncRefreshTime     time.Duration
	RetryBaseDelay      time.Duration
}

// DefaultConfig returns a Config sized for a single process row cache.
func DefaultConfig() Config {
	return Config{
		Capacity:           10000,
		NumShards:          256,
		TTL:                5 * time.Minute,
		EvictionPercentage: 10,
		EarlyRefresh: &EarlyRefreshConfig{
			MinAsyncRefreshTime: 10 * time.Second,
			MaxAsyncRefreshTime: 20 * time.Second,
			SyncRefreshTime:     30 * time.Second,
			RetryBaseDelay:      100 * time.Millisecond,
		},
		MissingRecordStorage: true,
	}
}

// ToSturdycOptions converts the optional settings to sturdyc options.
// Capacity, NumShards, TTL and EvictionPercentage go to sturdyc.New directly.
func (c Config) ToSturdycOptions() []sturdyc.Option {
	var options []sturdyc.Option

	if c.EarlyRefresh != nil {
		options = append(options, sturdyc.WithEarlyRefreshes(
			c.EarlyRefresh.MinAsyncRefreshTime,
			c.EarlyRefresh.MaxAsyncRefreshTime,
			c.EarlyRefresh.SyncRefreshTime,
			c.EarlyRefresh.RetryBaseDelay,
		))
	}

	if c.MissingRecordStorage {
		options = append(options, sturdyc.WithMissingRecordStorage())
	}

	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}

	return options
}

type fieldCheck struct {
	field string
	value any
	rules []validation.Rule
}

// Validate checks the configuration and reports the first invalid field as a
// *ConfigError.
func (c Config) Validate() error {
	positive := func(zero any) []validation.Rule {
		return []validation.Rule{
			validation.Required.Error("must be greater than 0"),
			validation.Min(zero).Exclusive().Error("must be greater than 0"),
		}
	}
	nonNegative := []validation.Rule{validation.Min(time.Duration(0)).Error("must be non-negative")}

	checks := []fieldCheck{
		{"Capacity", c.Capacity, positive(0)},
		{"NumShards", c.NumShards, positive(0)},
		{"TTL", c.TTL, positive(time.Duration(0))},
		{"EvictionPercentage", c.EvictionPercentage, []validation.Rule{
			validation.Required.Error("must be between 1 and 100"),
			validation.Min(1).Error("must be between 1 and 100"),
			validation.Max(100).Error("must be between 1 and 100"),
		}},
		{"EvictionInterval", c.EvictionInterval, nonNegative},
	}
	if e := c.EarlyRefresh; e != nil {
		checks = append(checks,
			fieldCheck{"EarlyRefresh.MinAsyncRefreshTime", e.MinAsyncRefreshTime, nonNegative},
			fieldCheck{"EarlyRefresh.MaxAsyncRefreshTime", e.MaxAsyncRefreshTime, nonNegative},
			fieldCheck{"EarlyRefresh.SyncRefreshTime", e.SyncRefreshTime, nonNegative},
			fieldCheck{"EarlyRefresh.RetryBaseDelay", e.RetryBaseDelay, nonNegative},
		)
	}

	for _, check := range checks {
		if err := validation.Validate(check.value, check.rules...); err != nil {
			return &ConfigError{Field: check.field, Message: err.Error()}
		}
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

// sturdycService wraps a sturdyc client.
type sturdycService struct {
	client *sturdyc.Client[any]
}

// NewSturdycService validates cfg and creates the sturdyc client.
func NewSturdycService(cfg Config) (*sturdycService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[any](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		cfg.ToSturdycOptions()...,
	)

	return &sturdycService{client: client}, nil
}

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// validateFetchFn checks fetchFn has the shape func(context.Context) (T, error).
func validateFetchFn(fetchFn any) error {
	if fetchFn == nil {
		return &ConfigError{Field: "fetchFn", Message: "cannot be nil"}
	}

	fnType := reflect.TypeOf(fetchFn)
	switch {
	case fnType.Kind() != reflect.Func:
		return &ConfigError{Field: "fetchFn", Message: "must be a function"}
	case fnType.NumIn() != 1 || fnType.NumOut() != 2:
		return &ConfigError{Field: "fetchFn", Message: "must have signature func(context.Context) (T, error)"}
	case !fnType.In(0).Implements(contextType):
		return &ConfigError{Field: "fetchFn", Message: "first parameter must be context.Context"}
	case !fnType.Out(1).Implements(errorType):
		return &ConfigError{Field: "fetchFn", Message: "second return value must be error"}
	}
	return nil
}

// GetOrFetch returns the cached value for key or runs fetchFn and stores its
// result. fetchFn is any func(context.Context) (T, error), typically a
// cache.FetchFn[T].
func (s *sturdycService) GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error) {
	if err := validateFetchFn(fetchFn); err != nil {
		return nil, err
	}

	return s.client.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) {
		return callFetchFn(ctx, fetchFn)
	})
}

// callFetchFn invokes a pre-validated fetch function.
func callFetchFn(ctx context.Context, fetchFn any) (any, error) {
	if fn, ok := fetchFn.(func(context.Context) (any, error)); ok {
		return fn(ctx)
	}

	results := reflect.ValueOf(fetchFn).Call([]reflect.Value{reflect.ValueOf(ctx)})

	var result any
	if out := results[0]; out.IsValid() && out.CanInterface() {
		result = out.Interface()
	}

	var err error
	if out := results[1]; out.IsValid() && !out.IsNil() {
		err = out.Interface().(error)
	}

	return result, err
}

// Delete removes a single entry.
func (s *sturdycService) Delete(_ context.Context, key string) error {
	s.client.Delete(key)
	return nil
}

// DeleteByPrefix removes every entry whose key starts with prefix. Finders
// use it to drop all cached rows of a class.
func (s *sturdycService) DeleteByPrefix(_ context.Context, prefix string) error {
	for _, key := range s.client.ScanKeys() {
		if strings.HasPrefix(key, prefix) {
			s.client.Delete(key)
		}
	}
	return nil
}

// Keys returns the cached keys, mostly for diagnostics.
func (s *sturdycService) Keys() []string {
	return s.client.ScanKeys()
}
