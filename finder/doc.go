// Package finder loads records by primary key or by attribute values.
//
// # Usage
//
//	f := finder.New(conn, builder, finder.WithLogger(logger))
//
//	user, err := f.FindByPrimaryKey(ctx, users, 42)
//	if finder.IsRecordNotFound(err) {
//		// Couldn't find User with 'id'=42
//	}
//
//	user, err = f.FindBy(ctx, users, finder.By(map[string]any{"email": "a@example.com"}))
//	// user is nil when nothing matches; FindByOrRaise returns *RecordNotFound instead.
//
// # Dispatch
//
// Every call is classified into a Shape before touching the template cache.
// ShapeSimple lookups fetch a compiled template from the class FinderCache,
// building it through the statement.Builder on first use, bind the values in
// signature order and execute the template. The connection prepared mode is
// read on every call and selects the cache half the template lives in.
//
// Other shapes are not errors. Scoped contexts (WithScope), inheritance
// tables, several ids, nil or collection values and literal SQL all take the
// generic path, which assembles a statement.Query and hands it to
// Connection.Select without caching anything.
//
// # Errors
//
// A primary key lookup that matches nothing returns *RecordNotFound. A key
// outside the column range returns *RecordNotFound with OutOfRange set, while
// an attribute value outside its range is a plain miss. Values whose type the
// column rejects return *StatementInvalid. Both unwrap to a go-errors value
// so goerrors.IsNotFound and goerrors.IsCategory work on them.
//
// # Row cache
//
// WithRowCache puts a cache.CacheService in front of template executions.
// Misses are cached as empty results, so callers that write to the table
// must call Invalidate for the class they changed.
package finder
