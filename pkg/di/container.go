package di

import (
	"errors"
	"log/slog"
	"os"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-record-finder/cache"
	"github.com/goliatone/go-record-finder/config"
	"github.com/goliatone/go-record-finder/connection"
	"github.com/goliatone/go-record-finder/finder"
	"github.com/goliatone/go-record-finder/record"
)

// Container wires the connection, class registry, optional row cache and
// finder described by a config.Config. All accessors return the same
// instances for the life of the container.
type Container struct {
	config        config.Config
	logger        *slog.Logger
	db            *connection.DB
	registry      *record.Registry
	cacheService  cache.CacheService
	keySerializer cache.KeySerializer
	finder        *finder.Finder
}

// Option configures a Container.
type Option func(*Container)

// WithLogger replaces the logger built from config.LogLevel.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Container) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewContainer validates cfg and opens the configured database.
func NewContainer(cfg config.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := newContainer(cfg, opts)

	db, err := connection.Open(cfg.Database.Driver, cfg.Database.DSN, c.connectionOptions())
	if err != nil {
		return nil, err
	}
	if err := c.wire(db); err != nil {
		return nil, errors.Join(err, db.Close())
	}
	return c, nil
}

// NewContainerWithDB wires a database the caller already opened. The
// Database section of cfg is ignored.
func NewContainerWithDB(cfg config.Config, bunDB *bun.DB, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := newContainer(cfg, opts)

	db, err := connection.New(bunDB, c.connectionOptions())
	if err != nil {
		return nil, err
	}
	if err := c.wire(db); err != nil {
		return nil, err
	}
	return c, nil
}

// NewContainerWithDefaults creates a container over an in-memory sqlite
// database using config.Default.
func NewContainerWithDefaults(opts ...Option) (*Container, error) {
	return NewContainer(config.Default(), opts...)
}

func newContainer(cfg config.Config, opts []Option) *Container {
	c := &Container{
		config:        cfg,
		registry:      record.NewRegistry(),
		keySerializer: cache.NewDefaultKeySerializer(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	}
	return c
}

func (c *Container) connectionOptions() connection.Options {
	return connection.Options{
		PreparedStatements: c.config.PreparedStatements,
		VerboseQueryLogs:   c.config.VerboseQueryLogs,
		Logger:             c.logger,
	}
}

func (c *Container) wire(db *connection.DB) error {
	c.db = db

	finderOpts := []finder.Option{
		finder.WithLogger(c.logger),
		finder.WithRawSQLPolicy(c.config.RawSQLPolicy()),
		finder.WithWarnOnRecordsFetched(c.config.WarnOnRecordsFetchedGreaterThan),
	}
	if c.config.RowCache.Enabled {
		svc, err := cache.NewCacheService(c.config.RowCache)
		if err != nil {
			return err
		}
		c.cacheService = svc
		finderOpts = append(finderOpts, finder.WithRowCache(svc, c.keySerializer))
	}

	c.finder = finder.New(db, db, finderOpts...)
	return nil
}

// Registry returns the class registry. Classes registered here are looked
// up through Finder.
func (c *Container) Registry() *record.Registry { return c.registry }

// Finder returns the finder bound to the connection.
func (c *Container) Finder() *finder.Finder { return c.finder }

// Connection returns the database adapter, which is also the template builder.
func (c *Container) Connection() *connection.DB { return c.db }

// CacheService returns the row cache, nil when row_cache is disabled.
func (c *Container) CacheService() cache.CacheService { return c.cacheService }

// KeySerializer returns the key serializer used for row cache keys.
func (c *Container) KeySerializer() cache.KeySerializer { return c.keySerializer }

// Config returns the configuration the container was built from.
func (c *Container) Config() config.Config { return c.config }

// Logger returns the shared logger.
func (c *Container) Logger() *slog.Logger { return c.logger }

// Close closes the database.
func (c *Container) Close() error {
	return c.db.Close()
}
