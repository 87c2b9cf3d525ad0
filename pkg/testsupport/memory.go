package testsupport

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goliatone/go-record-finder/attribute"
	"github.com/goliatone/go-record-finder/statement"
)

// MemoryConnection is an in-memory statement.Connection. Templates are
// evaluated by matching each param column against its bound value; generic
// queries support equality, IS NULL and IN conditions. Expressions are
// recorded but match every row.
type MemoryConnection struct {
	mu       sync.Mutex
	tables   map[string][]statement.Row
	queries  []statement.Query
	prepared atomic.Bool
	executes atomic.Int64
	selects  atomic.Int64

	// ExecuteErr and SelectErr are returned instead of running the lookup.
	ExecuteErr error
	SelectErr  error
	// Latency delays every lookup.
	Latency time.Duration
}

var _ statement.Connection = (*MemoryConnection)(nil)

// NewMemoryConnection returns an empty connection in prepared mode.
func NewMemoryConnection() *MemoryConnection {
	c := &MemoryConnection{tables: map[string][]statement.Row{}}
	c.prepared.Store(true)
	return c
}

// Insert appends rows to table.
func (c *MemoryConnection) Insert(table string, rows ...statement.Row) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, row := range rows {
		c.tables[table] = append(c.tables[table], copyRow(row))
	}
}

// SetPreparedStatements flips the reported prepared statement support.
func (c *MemoryConnection) SetPreparedStatements(enabled bool) {
	c.prepared.Store(enabled)
}

// SupportsPreparedStatements implements statement.Connection.
func (c *MemoryConnection) SupportsPreparedStatements() bool {
	return c.prepared.Load()
}

// Execute implements statement.Connection.
func (c *MemoryConnection) Execute(ctx context.Context, tmpl *statement.Template, bound []any) ([]statement.Row, error) {
	c.executes.Add(1)
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	if c.ExecuteErr != nil {
		return nil, c.ExecuteErr
	}

	params := tmpl.Params()
	if len(params) != len(bound) {
		return nil, fmt.Errorf("%s: expected %d bind values, got %d", tmpl.Model(), len(params), len(bound))
	}

	conds := make([]statement.Condition, len(params))
	for i, p := range params {
		conds[i] = statement.Condition{Column: p.Column, Value: bound[i]}
	}
	return c.match(tmpl.Table(), conds, 1), nil
}

// Select implements statement.Connection.
func (c *MemoryConnection) Select(ctx context.Context, q statement.Query) ([]statement.Row, error) {
	c.selects.Add(1)
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.queries = append(c.queries, q)
	c.mu.Unlock()

	if c.SelectErr != nil {
		return nil, c.SelectErr
	}
	return c.match(q.Table, q.Conditions, q.Limit), nil
}

// Executes returns the number of template executions.
func (c *MemoryConnection) Executes() int { return int(c.executes.Load()) }

// Selects returns the number of generic queries.
func (c *MemoryConnection) Selects() int { return int(c.selects.Load()) }

// Queries returns the generic queries received so far.
func (c *MemoryConnection) Queries() []statement.Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]statement.Query(nil), c.queries...)
}

func (c *MemoryConnection) wait(ctx context.Context) error {
	if c.Latency <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.Latency):
		return nil
	}
}

func (c *MemoryConnection) match(table string, conds []statement.Condition, limit int) []statement.Row {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []statement.Row
	for _, row := range c.tables[table] {
		if !matches(row, conds) {
			continue
		}
		out = append(out, copyRow(row))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func matches(row statement.Row, conds []statement.Condition) bool {
	for _, cond := range conds {
		if !matchCondition(row, cond) {
			return false
		}
	}
	return true
}

func matchCondition(row statement.Row, cond statement.Condition) bool {
	got := row[cond.Column]
	switch want := cond.Value.(type) {
	case statement.Expression:
		return true
	case nil:
		return got == nil
	case []byte:
		return attribute.ValuesEqual(got, want)
	}

	rv := reflect.ValueOf(cond.Value)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		for i := 0; i < rv.Len(); i++ {
			if attribute.ValuesEqual(got, rv.Index(i).Interface()) {
				return true
			}
		}
		return false
	}
	return attribute.ValuesEqual(got, cond.Value)
}

func copyRow(row statement.Row) statement.Row {
	out := make(statement.Row, len(row))
	for k, v := range row {
		out[k] = attribute.CopyValue(v)
	}
	return out
}

// LoadRows loads a JSON array of rows from a fixture file. Integral numbers
// decode as int64 and the rest as float64, so large ids keep their precision.
func LoadRows(t *testing.T, path string) []statement.Row {
	t.Helper()

	dec := json.NewDecoder(strings.NewReader(string(LoadFixture(t, path))))
	dec.UseNumber()

	var rows []statement.Row
	if err := dec.Decode(&rows); err != nil {
		t.Fatalf("failed to decode rows fixture from %s: %v", path, err)
	}
	for _, row := range rows {
		for k, v := range row {
			if n, ok := v.(json.Number); ok {
				row[k] = number(n)
			}
		}
	}
	return rows
}

func number(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}
