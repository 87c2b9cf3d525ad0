package connection

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/lib/pq"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-record-finder/attribute"
	"github.com/goliatone/go-record-finder/statement"
)

// Execute implements statement.Connection. Prepared templates run through a
// statement prepared once per SQL text; the rest are interpolated by bun.
func (c *DB) Execute(ctx context.Context, tmpl *statement.Template, bound []any) ([]statement.Row, error) {
	if len(bound) != len(tmpl.Params()) {
		return nil, fmt.Errorf("%s: expected %d bind values, got %d", tmpl.Model(), len(tmpl.Params()), len(bound))
	}

	if !tmpl.Prepared() {
		rows, err := c.db.QueryContext(ctx, tmpl.SQL(), bound...)
		if err != nil {
			return nil, translate(err)
		}
		return scanRows(rows)
	}

	stmt, err := c.prepare(ctx, tmpl.SQL())
	if err != nil {
		return nil, translate(err)
	}

	start := time.Now()
	rows, err := stmt.QueryContext(ctx, bound...)
	if c.verbose {
		logStatement(ctx, c.logger, tmpl.SQL(), bound, time.Since(start), err)
	}
	if err != nil {
		return nil, translate(err)
	}
	return scanRows(rows)
}

// Select implements statement.Connection. Conditions render as equality, IS
// NULL for nil values, IN for slices and verbatim SQL for expressions.
func (c *DB) Select(ctx context.Context, q statement.Query) ([]statement.Row, error) {
	query, err := c.renderSelect(q)
	if err != nil {
		return nil, err
	}

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, translate(err)
	}
	return scanRows(rows)
}

func (c *DB) renderSelect(q statement.Query) (string, error) {
	sel := c.db.NewSelect().
		TableExpr("?", bun.Ident(q.Table)).
		ColumnExpr("*")
	for _, cond := range q.Conditions {
		sel = where(sel, cond)
	}
	if q.Limit > 0 {
		sel = sel.Limit(q.Limit)
	}

	b, err := sel.AppendQuery(c.db.Formatter(), nil)
	if err != nil {
		return "", fmt.Errorf("%s: render query: %w", q.Model, err)
	}
	return string(b), nil
}

func where(sel *bun.SelectQuery, cond statement.Condition) *bun.SelectQuery {
	switch v := cond.Value.(type) {
	case statement.Expression:
		sql, args := v.Expression()
		return sel.Where(sql, args...)
	case nil:
		return sel.Where("? IS NULL", bun.Ident(cond.Column))
	case []byte:
		return sel.Where("? = ?", bun.Ident(cond.Column), v)
	}

	if values, hasNull, ok := sliceValues(cond.Value); ok {
		col := bun.Ident(cond.Column)
		switch {
		case len(values) == 0 && hasNull:
			return sel.Where("? IS NULL", col)
		case len(values) == 0:
			return sel.Where("1 = 0")
		case hasNull:
			return sel.Where("(? IN (?) OR ? IS NULL)", col, bun.In(values), col)
		}
		return sel.Where("? IN (?)", col, bun.In(values))
	}
	return sel.Where("? = ?", bun.Ident(cond.Column), cond.Value)
}

func scanRows(rows *sql.Rows) ([]statement.Row, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []statement.Row
	for rows.Next() {
		values := make([]any, len(cols))
		dest := make([]any, len(cols))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		row := make(statement.Row, len(cols))
		for i, col := range cols {
			row[col] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// translate maps driver errors about bound values onto the attribute
// sentinels so callers can classify them.
func translate(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case "22P02", "42804", "42883":
		return fmt.Errorf("%w: %w", attribute.ErrTypeMismatch, err)
	case "22003":
		return fmt.Errorf("%w: %w", attribute.ErrOutOfRange, err)
	}
	return err
}

// sliceValues flattens a slice condition value, separating out nil elements.
func sliceValues(v any) (values []any, hasNull bool, ok bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false, false
	}
	values = make([]any, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		elem := rv.Index(i).Interface()
		if elem == nil {
			hasNull = true
			continue
		}
		values = append(values, elem)
	}
	return values, hasNull, true
}
