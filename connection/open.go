package connection

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
	_ "modernc.org/sqlite"
)

// Driver names accepted by Open.
const (
	DriverPostgres = "postgres"
	DriverSQLite3  = "sqlite3"
	DriverSQLite   = "sqlite"
)

// Drivers lists the driver names Open accepts.
func Drivers() []string {
	return []string{DriverPostgres, DriverSQLite3, DriverSQLite}
}

// Open connects with one of the registered drivers: postgres (lib/pq),
// sqlite3 (mattn/go-sqlite3, cgo) or sqlite (modernc.org/sqlite).
func Open(driver, dsn string, opts Options) (*DB, error) {
	var dia schema.Dialect
	switch driver {
	case DriverPostgres:
		dia = pgdialect.New()
	case DriverSQLite3, DriverSQLite:
		dia = sqlitedialect.New()
	default:
		return nil, fmt.Errorf("connection: unknown driver %q", driver)
	}

	sqldb, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connection: open %s: %w", driver, err)
	}
	if driver != DriverPostgres {
		// in-memory databases are per connection
		sqldb.SetMaxOpenConns(1)
	}

	c, err := New(bun.NewDB(sqldb, dia), opts)
	if err != nil {
		sqldb.Close()
		return nil, err
	}
	return c, nil
}
