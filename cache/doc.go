// Package cache holds the two caches used by the finders.
//
// # Template cache
//
// FinderCache memoizes compiled lookup templates per class. Each class owns
// one FinderCache with two independent maps, one per prepared-statements mode,
// keyed by the lookup signature:
//
//	tmpl, err := class.FinderCache().GetOrBuild(conn.SupportsPreparedStatements(), sig, func() (*statement.Template, error) {
//		return builder.Build(ctx, class, sig, prepared)
//	})
//
// GetOrBuild is an atomic compute-if-absent backed by xsync.MapOf. When many
// goroutines miss the same key at once the build runs once and every caller
// receives the same *statement.Template. A build that fails stores nothing,
// so the next caller retries. Templates are never evicted; the set of
// signatures a program uses is small and fixed.
//
// # Row cache
//
// CacheService is an optional read-through cache for the rows returned by
// cached lookups. The default implementation is backed by sturdyc:
//
//	svc, err := cache.NewCacheService(cache.DefaultConfig())
//	rows, err := cache.GetOrFetch(ctx, svc, key, func(ctx context.Context) ([]statement.Row, error) {
//		return conn.Execute(ctx, tmpl, bound)
//	})
//
// Keys are built with a KeySerializer. The default serializer tags each
// segment with its kind (int 1 and string "1" produce different keys),
// encodes byte slices as hex and sorts map entries, so keys are stable across
// processes. Segments are joined with KeySeparator; a class prefix lets
// DeleteByPrefix drop every cached row of a class at once.
//
// GetOrFetch returns ErrInvalidResultType when a key holds a value of another type.
package cache
