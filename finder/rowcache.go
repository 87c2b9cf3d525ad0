package finder

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/goliatone/go-record-finder/cache"
	"github.com/goliatone/go-record-finder/record"
	"github.com/goliatone/go-record-finder/statement"
)

const rowCacheNamespace = "finder"

// execute runs tmpl, reading through the row cache when one is configured.
// Misses are cached as empty results.
func (f *Finder) execute(ctx context.Context, class *record.Class, tmpl *statement.Template, bound []any) ([]statement.Row, error) {
	if f.rowCache == nil {
		return f.conn.Execute(ctx, tmpl, bound)
	}

	key := f.rowKey(class, tmpl.Signature(), bound)
	return cache.GetOrFetch(ctx, f.rowCache, key, func(ctx context.Context) ([]statement.Row, error) {
		rows, err := f.conn.Execute(ctx, tmpl, bound)
		if err != nil {
			return nil, err
		}
		if rows == nil {
			rows = []statement.Row{}
		}
		return rows, nil
	})
}

func rowKeyPrefix(class *record.Class) string {
	return rowCacheNamespace + cache.KeySeparator + class.Name() + cache.KeySeparator
}

func (f *Finder) rowKey(class *record.Class, sig statement.Signature, bound []any) string {
	args := make([]any, 0, len(bound)+1)
	args = append(args, sig.Key())
	args = append(args, bound...)
	return f.keySerializer.SerializeKey(rowCacheNamespace+cache.KeySeparator+class.Name(), args...)
}

// Invalidate drops the cached rows of class, its ancestors and its
// descendants, since a single table hierarchy shares rows. It is a no-op
// without a row cache.
func (f *Finder) Invalidate(ctx context.Context, class *record.Class) error {
	if f.rowCache == nil {
		return nil
	}

	var errs []error
	for _, c := range hierarchy(class) {
		if err := f.rowCache.DeleteByPrefix(ctx, rowKeyPrefix(c)); err != nil {
			errs = append(errs, err)
		}
		f.logger.Debug("finder row cache invalidated", "model", c.Name())
	}
	return errors.Join(errs...)
}

// InvalidateID drops the cached primary key lookup of id across the class
// hierarchy. Cached attribute lookups are kept; use Invalidate to drop them.
func (f *Finder) InvalidateID(ctx context.Context, class *record.Class, id any) error {
	if f.rowCache == nil || class.PrimaryKey() == "" {
		return nil
	}

	pk := class.PrimaryKey()
	sig := statement.Signature{pk}
	var errs []error
	for _, c := range hierarchy(class) {
		typ, ok := c.ColumnType(pk)
		if !ok {
			continue
		}
		bound, err := typ.Cast(id)
		if err != nil {
			// uncastable ids never reach the row cache
			continue
		}
		if err := f.rowCache.Delete(ctx, f.rowKey(c, sig, []any{bound})); err != nil {
			errs = append(errs, err)
		}
	}
	f.logger.Debug("finder row cache entry invalidated", "model", class.Name(), "id", id)
	return errors.Join(errs...)
}

// RowCacheKeys returns the live row cache keys held by the backend, sorted.
// It is empty when there is no row cache or the backend cannot list keys.
func (f *Finder) RowCacheKeys() []string {
	lister, ok := f.rowCache.(cache.KeyLister)
	if !ok {
		return nil
	}
	prefix := rowCacheNamespace + cache.KeySeparator
	var keys []string
	for _, key := range lister.Keys() {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

func hierarchy(class *record.Class) []*record.Class {
	var out []*record.Class
	for c := class; c != nil; c = c.Parent() {
		out = append(out, c)
	}
	return append(out, class.Descendants()...)
}
