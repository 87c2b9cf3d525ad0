// Package config loads finder settings from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-record-finder/cache"
	"github.com/goliatone/go-record-finder/connection"
	"github.com/goliatone/go-record-finder/finder"
)

// Database selects the driver and data source.
type Database struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Config is the settings file.
type Config struct {
	Database                        Database     `yaml:"database"`
	PreparedStatements              bool         `yaml:"prepared_statements"`
	AllowUnsafeRawSQL               string       `yaml:"allow_unsafe_raw_sql"`
	VerboseQueryLogs                bool         `yaml:"verbose_query_logs"`
	WarnOnRecordsFetchedGreaterThan int          `yaml:"warn_on_records_fetched_greater_than"`
	LogLevel                        string       `yaml:"log_level"`
	RowCache                        cache.Config `yaml:"row_cache"`
}

// Default returns an in-memory sqlite setup with prepared statements on.
func Default() Config {
	return Config{
		Database: Database{
			Driver: connection.DriverSQLite,
			DSN:    "file::memory:?cache=shared",
		},
		PreparedStatements: true,
		AllowUnsafeRawSQL:  string(finder.RawSQLWarn),
		LogLevel:           "info",
		RowCache:           cache.DefaultConfig(),
	}
}

// Load reads and validates the file at path, layered over Default.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over Default and validates the result. Unknown keys are
// rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Database),
		validation.Field(&c.AllowUnsafeRawSQL, validation.By(func(v any) error {
			_, err := finder.ParseRawSQLPolicy(v.(string))
			return err
		})),
		validation.Field(&c.WarnOnRecordsFetchedGreaterThan, validation.Min(0)),
		validation.Field(&c.LogLevel, validation.By(func(v any) error {
			_, err := parseLevel(v.(string))
			return err
		})),
	)
	if err != nil {
		return err
	}
	return c.RowCache.Validate()
}

// Validate checks the driver name and that a DSN is present.
func (d Database) Validate() error {
	drivers := make([]any, 0, len(connection.Drivers()))
	for _, name := range connection.Drivers() {
		drivers = append(drivers, name)
	}
	return validation.ValidateStruct(&d,
		validation.Field(&d.Driver, validation.Required, validation.In(drivers...)),
		validation.Field(&d.DSN, validation.Required),
	)
}

// RawSQLPolicy returns the parsed allow_unsafe_raw_sql value.
func (c Config) RawSQLPolicy() finder.RawSQLPolicy {
	p, err := finder.ParseRawSQLPolicy(c.AllowUnsafeRawSQL)
	if err != nil {
		return finder.RawSQLWarn
	}
	return p
}

// Level returns the parsed log_level, info when unset.
func (c Config) Level() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}
