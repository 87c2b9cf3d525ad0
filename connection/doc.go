// Package connection runs finder lookups against a SQL database through bun.
//
// A DB is both the statement.Builder that compiles finder templates and the
// statement.Connection that executes them:
//
//	db, err := connection.Open("sqlite", "file::memory:?cache=shared", connection.Options{
//		PreparedStatements: true,
//	})
//	f := finder.New(db, db)
//
// Templates built in prepared mode keep driver placeholders ($1 on
// PostgreSQL, ? elsewhere) and run through a statement prepared once per SQL
// text. Templates built with prepared mode off use ? placeholders that bun
// interpolates on every execution. Generic queries are always interpolated.
//
// PostgreSQL errors about invalid input syntax or numeric range are wrapped
// with attribute.ErrTypeMismatch and attribute.ErrOutOfRange.
package connection
