package finder

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-record-finder/attribute"
	"github.com/goliatone/go-record-finder/record"
	"github.com/goliatone/go-record-finder/statement"
)

// cachedLookup runs a single row lookup through the class template cache.
// The returned template is set whenever one was obtained, so callers can
// report its SQL when translating errors.
func (f *Finder) cachedLookup(ctx context.Context, class *record.Class, sig statement.Signature, values []any) ([]statement.Row, []any, *statement.Template, error) {
	prepared := f.conn.SupportsPreparedStatements()

	tmpl, err := class.FinderCache().GetOrBuild(prepared, sig, func() (*statement.Template, error) {
		built, err := f.builder.Build(ctx, class, sig, prepared)
		if err != nil {
			return nil, err
		}
		f.logger.Debug("finder template built",
			"model", class.Name(),
			"signature", sig.Key(),
			"prepared", prepared,
		)
		return built, nil
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%s: build finder template: %w", class.Name(), err)
	}

	bound, err := tmpl.Bind(values)
	if err != nil {
		return nil, nil, tmpl, err
	}

	rows, err := f.execute(ctx, class, tmpl, bound)
	return rows, bound, tmpl, err
}

// findByPrimaryKeyCached is the ShapeSimple branch of FindByPrimaryKey.
func (f *Finder) findByPrimaryKeyCached(ctx context.Context, class *record.Class, id any) (*record.Record, error) {
	pk := class.PrimaryKey()
	rows, bound, tmpl, err := f.cachedLookup(ctx, class, statement.Signature{pk}, []any{id})
	switch {
	case errors.Is(err, attribute.ErrOutOfRange):
		return nil, &RecordNotFound{Model: class.Name(), PrimaryKey: pk, OutOfRange: true}
	case errors.Is(err, attribute.ErrTypeMismatch):
		return nil, &StatementInvalid{Model: class.Name(), SQL: templateSQL(tmpl), Err: err}
	case err != nil:
		return nil, err
	}

	notFound := &RecordNotFound{Model: class.Name(), PrimaryKey: pk, ID: id}
	if len(rows) == 0 {
		return nil, notFound
	}
	rec, err := class.Instantiate(ctx, rows[0])
	if err != nil {
		return nil, err
	}
	if !attribute.ValuesEqual(rec.ID(), bound[0]) {
		return nil, notFound
	}
	return rec, nil
}

// findByCached is the ShapeSimple branch of FindBy. Range failures mean no
// row can match and are reported as a miss.
func (f *Finder) findByCached(ctx context.Context, class *record.Class, attrs Attributes) (*record.Record, error) {
	rows, _, tmpl, err := f.cachedLookup(ctx, class, attrs.Signature(), attrs.Values())
	switch {
	case errors.Is(err, attribute.ErrOutOfRange):
		return nil, nil
	case errors.Is(err, attribute.ErrTypeMismatch):
		return nil, &StatementInvalid{Model: class.Name(), SQL: templateSQL(tmpl), Err: err}
	case err != nil:
		return nil, err
	}

	if len(rows) == 0 {
		return nil, nil
	}
	return class.Instantiate(ctx, rows[0])
}

func templateSQL(tmpl *statement.Template) string {
	if tmpl == nil {
		return ""
	}
	return tmpl.SQL()
}
