package connection

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"github.com/goliatone/go-record-finder/statement"
)

// Options configures a DB.
type Options struct {
	// PreparedStatements is the initial prepared mode.
	PreparedStatements bool
	// VerboseQueryLogs logs every statement at debug level.
	VerboseQueryLogs bool
	Logger           *slog.Logger
}

// DB adapts a *bun.DB to statement.Builder and statement.Connection.
type DB struct {
	db       *bun.DB
	logger   *slog.Logger
	verbose  bool
	prepared atomic.Bool
	stmts    *xsync.MapOf[string, *sql.Stmt]
}

var (
	_ statement.Builder    = (*DB)(nil)
	_ statement.Connection = (*DB)(nil)
)

// New wraps db. Only the pg, sqlite and mysql dialects are supported.
func New(db *bun.DB, opts Options) (*DB, error) {
	switch name := db.Dialect().Name(); name {
	case dialect.PG, dialect.SQLite, dialect.MySQL:
	default:
		return nil, fmt.Errorf("connection: unsupported dialect %s", name)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := &DB{
		db:      db,
		logger:  logger,
		verbose: opts.VerboseQueryLogs,
		stmts:   xsync.NewMapOf[string, *sql.Stmt](),
	}
	c.prepared.Store(opts.PreparedStatements)
	if opts.VerboseQueryLogs {
		db.AddQueryHook(&queryLogger{logger: logger})
	}
	return c, nil
}

// Bun returns the wrapped database.
func (c *DB) Bun() *bun.DB { return c.db }

// SetPreparedStatements switches the prepared mode. Templates already built for
// the other mode stay cached and are used again when the mode flips back.
func (c *DB) SetPreparedStatements(enabled bool) {
	c.prepared.Store(enabled)
}

// SupportsPreparedStatements implements statement.Connection.
func (c *DB) SupportsPreparedStatements() bool {
	return c.prepared.Load()
}

// PreparedCount returns the number of live prepared statements.
func (c *DB) PreparedCount() int { return c.stmts.Size() }

// Close releases prepared statements and closes the database.
func (c *DB) Close() error {
	var errs []error
	c.stmts.Range(func(key string, stmt *sql.Stmt) bool {
		if err := stmt.Close(); err != nil {
			errs = append(errs, err)
		}
		c.stmts.Delete(key)
		return true
	})
	if err := c.db.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *DB) prepare(ctx context.Context, query string) (*sql.Stmt, error) {
	var prepErr error
	stmt, _ := c.stmts.LoadOrTryCompute(query, func() (*sql.Stmt, bool) {
		s, err := c.db.DB.PrepareContext(ctx, query)
		if err != nil {
			prepErr = err
			return nil, true
		}
		return s, false
	})
	if prepErr != nil {
		return nil, prepErr
	}
	return stmt, nil
}
