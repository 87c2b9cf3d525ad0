package testsupport

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goliatone/go-record-finder/attribute"
	"github.com/goliatone/go-record-finder/statement"
)

// CountingBuilder is a statement.Builder that records how many templates it
// compiled. Prepared templates use $n placeholders and the rest use ?.
type CountingBuilder struct {
	calls atomic.Int64

	// Delay is slept before each build, widening race windows in tests.
	Delay time.Duration

	mu       sync.Mutex
	failNext int
	failErr  error
}

var _ statement.Builder = (*CountingBuilder)(nil)

// NewCountingBuilder returns a builder with no delay.
func NewCountingBuilder() *CountingBuilder {
	return &CountingBuilder{}
}

// FailNext makes the next n builds fail with err.
func (b *CountingBuilder) FailNext(n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failNext = n
	b.failErr = err
}

// Calls returns the number of Build invocations, failed ones included.
func (b *CountingBuilder) Calls() int { return int(b.calls.Load()) }

// Build implements statement.Builder.
func (b *CountingBuilder) Build(ctx context.Context, src statement.Source, sig statement.Signature, prepared bool) (*statement.Template, error) {
	b.calls.Add(1)
	if b.Delay > 0 {
		time.Sleep(b.Delay)
	}

	b.mu.Lock()
	if b.failNext > 0 {
		b.failNext--
		err := b.failErr
		b.mu.Unlock()
		return nil, err
	}
	b.mu.Unlock()

	params := make([]statement.Param, len(sig))
	where := make([]string, len(sig))
	for i, col := range sig {
		typ, ok := src.ColumnType(col)
		if !ok {
			return nil, fmt.Errorf("%s: %w: %q", src.ModelName(), attribute.ErrUnknownAttribute, col)
		}
		params[i] = statement.Param{Column: col, Type: typ, Position: i + 1}

		placeholder := "?"
		if prepared {
			placeholder = fmt.Sprintf("$%d", i+1)
		}
		where[i] = fmt.Sprintf("%q = %s", col, placeholder)
	}

	sql := fmt.Sprintf("SELECT * FROM %q WHERE %s LIMIT 1", src.TableName(), strings.Join(where, " AND "))
	return statement.NewTemplate(src.ModelName(), src.TableName(), sig, sql, params, prepared), nil
}
