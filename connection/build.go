package connection

import (
	"context"
	"fmt"
	"strconv"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"github.com/goliatone/go-record-finder/attribute"
	"github.com/goliatone/go-record-finder/statement"
)

// Build implements statement.Builder. The template selects every column of
// the source table filtered on the signature columns, limited to one row.
// Prepared templates use the driver placeholder syntax; the rest use ? and
// are interpolated by bun at execution.
func (c *DB) Build(ctx context.Context, src statement.Source, sig statement.Signature, prepared bool) (*statement.Template, error) {
	if len(sig) == 0 {
		return nil, fmt.Errorf("%s: empty signature", src.ModelName())
	}

	q := c.db.NewSelect().
		TableExpr("?", bun.Ident(src.TableName())).
		ColumnExpr("*").
		Limit(1)

	params := make([]statement.Param, len(sig))
	for i, col := range sig {
		typ, ok := src.ColumnType(col)
		if !ok {
			return nil, fmt.Errorf("%s: %w: %q", src.ModelName(), attribute.ErrUnknownAttribute, col)
		}
		params[i] = statement.Param{Column: col, Type: typ, Position: i + 1}
		q = q.Where("? = ?", bun.Ident(col), bun.Safe(c.placeholder(i+1, prepared)))
	}

	b, err := q.AppendQuery(c.db.Formatter(), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: render template: %w", src.ModelName(), err)
	}
	return statement.NewTemplate(src.ModelName(), src.TableName(), sig, string(b), params, prepared), nil
}

func (c *DB) placeholder(position int, prepared bool) string {
	if prepared && c.db.Dialect().Name() == dialect.PG {
		return "$" + strconv.Itoa(position)
	}
	return "?"
}
