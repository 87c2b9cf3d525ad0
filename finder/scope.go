package finder

import (
	"context"

	"github.com/goliatone/go-record-finder/statement"
)

type scopeContextKey struct{}

// WithScope attaches ad-hoc conditions to the context. Lookups made with a
// scoped context never use the template cache. Conditions accumulate across
// nested calls.
func WithScope(ctx context.Context, conds ...statement.Condition) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(conds) == 0 {
		return ctx
	}

	combined := append(ScopeFrom(ctx), conds...)
	return context.WithValue(ctx, scopeContextKey{}, combined)
}

// ScopeFrom returns a copy of the conditions attached with WithScope.
func ScopeFrom(ctx context.Context) []statement.Condition {
	if ctx == nil {
		return nil
	}
	if conds, ok := ctx.Value(scopeContextKey{}).([]statement.Condition); ok {
		return append([]statement.Condition(nil), conds...)
	}
	return nil
}

func scoped(ctx context.Context) bool {
	return len(ScopeFrom(ctx)) > 0
}
