package finder

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/goliatone/go-record-finder/cache"
	"github.com/goliatone/go-record-finder/statement"
)

// RawSQLPolicy controls how the generic path treats literal SQL conditions.
type RawSQLPolicy string

const (
	RawSQLAllow RawSQLPolicy = "allow"
	RawSQLWarn  RawSQLPolicy = "warn"
	RawSQLDeny  RawSQLPolicy = "deny"
)

// ParseRawSQLPolicy resolves a policy name. The empty string is RawSQLWarn.
func ParseRawSQLPolicy(s string) (RawSQLPolicy, error) {
	switch p := RawSQLPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return RawSQLWarn, nil
	case RawSQLAllow, RawSQLWarn, RawSQLDeny:
		return p, nil
	}
	return "", fmt.Errorf("unknown raw sql policy %q", s)
}

// Finder dispatches lookups to cached templates or to the generic path.
type Finder struct {
	conn    statement.Connection
	builder statement.Builder
	logger  *slog.Logger

	rowCache      cache.CacheService
	keySerializer cache.KeySerializer

	rawPolicy     RawSQLPolicy
	warnThreshold int
}

// Option configures a Finder.
type Option func(*Finder)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(f *Finder) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithRowCache routes cached template executions through svc. Keys are
// built with ks, or with cache.NewDefaultKeySerializer when ks is nil.
func WithRowCache(svc cache.CacheService, ks cache.KeySerializer) Option {
	return func(f *Finder) {
		f.rowCache = svc
		if ks == nil {
			ks = cache.NewDefaultKeySerializer()
		}
		f.keySerializer = ks
	}
}

// WithRawSQLPolicy sets the policy for literal SQL conditions.
func WithRawSQLPolicy(p RawSQLPolicy) Option {
	return func(f *Finder) {
		f.rawPolicy = p
	}
}

// WithWarnOnRecordsFetched logs a warning when a multi id lookup loads
// more than n rows. Zero disables the warning.
func WithWarnOnRecordsFetched(n int) Option {
	return func(f *Finder) {
		f.warnThreshold = n
	}
}

// New creates a Finder executing against conn and compiling templates with builder.
func New(conn statement.Connection, builder statement.Builder, opts ...Option) *Finder {
	f := &Finder{
		conn:      conn,
		builder:   builder,
		logger:    slog.Default(),
		rawPolicy: RawSQLWarn,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Connection returns the connection lookups run against.
func (f *Finder) Connection() statement.Connection { return f.conn }

// RawSQLPolicy returns the active literal SQL policy.
func (f *Finder) RawSQLPolicy() RawSQLPolicy { return f.rawPolicy }
