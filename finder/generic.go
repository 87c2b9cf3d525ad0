package finder

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-record-finder/attribute"
	"github.com/goliatone/go-record-finder/record"
	"github.com/goliatone/go-record-finder/statement"
)

var errNestedCondition = errors.New("nested conditions are not supported")

// genericQuery assembles an uncached query for class: the scope conditions,
// the inheritance type condition, then conds.
func (f *Finder) genericQuery(ctx context.Context, class *record.Class, conds []statement.Condition, limit int) (statement.Query, error) {
	all := ScopeFrom(ctx)
	if col, names, ok := class.TypeCondition(); ok {
		all = append(all, statement.Condition{Column: col, Value: names})
	}
	all = append(all, conds...)

	for _, c := range all {
		if err := f.checkRaw(class, c); err != nil {
			return statement.Query{}, err
		}
	}

	return statement.Query{
		Model:      class.Name(),
		Table:      class.TableName(),
		Conditions: all,
		Limit:      limit,
	}, nil
}

func (f *Finder) checkRaw(class *record.Class, c statement.Condition) error {
	expr, ok := c.Value.(statement.Expression)
	if !ok {
		return nil
	}
	sql, _ := expr.Expression()

	switch f.rawPolicy {
	case RawSQLAllow:
		return nil
	case RawSQLDeny:
		return goerrors.New(fmt.Sprintf("%s: raw sql conditions are not allowed", class.Name()), goerrors.CategoryValidation).
			WithTextCode(TextCodeUnsafeRawSQL).
			WithMetadata(map[string]any{"model": class.Name(), "sql": sql})
	}
	f.logger.Warn("finder raw sql condition", "model", class.Name(), "sql", sql)
	return nil
}

// selectRows runs q and translates type mismatch signals.
func (f *Finder) selectRows(ctx context.Context, class *record.Class, q statement.Query) ([]statement.Row, error) {
	rows, err := f.conn.Select(ctx, q)
	if errors.Is(err, attribute.ErrTypeMismatch) {
		return nil, &StatementInvalid{Model: class.Name(), Err: err}
	}
	return rows, err
}

// castCondition casts a lookup value through the column type. Collections
// are cast element by element and out of range elements are dropped since
// they can match no row. Nil and expressions pass through unchanged.
func castCondition(class *record.Class, column string, value any) (any, error) {
	switch value.(type) {
	case nil, statement.Expression:
		return value, nil
	case Attributes, map[string]any:
		return nil, errNestedCondition
	}

	typ, ok := class.ColumnType(column)
	if !ok {
		return nil, fmt.Errorf("%w: %q", attribute.ErrUnknownAttribute, column)
	}

	if _, raw := value.([]byte); !raw {
		if rv := reflect.ValueOf(value); rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
			out := make([]any, 0, rv.Len())
			for i := 0; i < rv.Len(); i++ {
				v, err := castCondition(class, column, rv.Index(i).Interface())
				if errors.Is(err, attribute.ErrOutOfRange) {
					continue
				}
				if err != nil {
					return nil, err
				}
				out = append(out, v)
			}
			return out, nil
		}
	}

	return typ.Cast(value)
}

// findByGeneric is the uncached branch of FindBy.
func (f *Finder) findByGeneric(ctx context.Context, class *record.Class, attrs Attributes) (*record.Record, error) {
	conds := make([]statement.Condition, 0, len(attrs))
	for _, p := range attrs {
		v, err := castCondition(class, p.Column, p.Value)
		switch {
		case errors.Is(err, attribute.ErrOutOfRange):
			return nil, nil
		case err != nil:
			return nil, &StatementInvalid{Model: class.Name(), Err: fmt.Errorf("%s: %w", p.Column, err)}
		}
		conds = append(conds, statement.Condition{Column: p.Column, Value: v})
	}

	q, err := f.genericQuery(ctx, class, conds, 1)
	if err != nil {
		return nil, err
	}
	rows, err := f.selectRows(ctx, class, q)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return class.Instantiate(ctx, rows[0])
}
