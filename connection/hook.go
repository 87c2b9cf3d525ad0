package connection

import (
	"context"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
)

// queryLogger logs statements bun runs. Prepared template executions bypass
// bun and are logged by Execute.
type queryLogger struct {
	logger *slog.Logger
}

var _ bun.QueryHook = (*queryLogger)(nil)

func (h *queryLogger) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *queryLogger) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	logStatement(ctx, h.logger, event.Query, event.QueryArgs, time.Since(event.StartTime), event.Err)
}

func logStatement(ctx context.Context, logger *slog.Logger, query string, args []any, took time.Duration, err error) {
	attrs := []any{
		slog.String("query", query),
		slog.Duration("took", took),
	}
	if len(args) > 0 {
		attrs = append(attrs, slog.Any("args", args))
	}
	if err != nil {
		attrs = append(attrs, slog.Any("error", err))
	}
	logger.DebugContext(ctx, "sql", attrs...)
}
