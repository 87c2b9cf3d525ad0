package finder

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/jinzhu/inflection"

	"github.com/goliatone/go-record-finder/attribute"
	"github.com/goliatone/go-record-finder/record"
	"github.com/goliatone/go-record-finder/statement"
)

// FindByPrimaryKey returns the record of class whose primary key is id. It
// fails with *RecordNotFound when no row matches or when id is out of the
// key column range. A collection id holding several ids fails with
// ErrExpectedSingleID.
func (f *Finder) FindByPrimaryKey(ctx context.Context, class *record.Class, id any) (*record.Record, error) {
	shape := PrimaryKeyShape(ctx, class, id)
	switch shape {
	case ShapeKeyless:
		return nil, noPrimaryKey(class.Name())
	case ShapeSimple:
		return f.findByPrimaryKeyCached(ctx, class, id)
	}

	f.logger.Debug("finder generic lookup", "model", class.Name(), "shape", shape.String())
	ids := flattenIDs([]any{id})
	switch len(ids) {
	case 0:
		return nil, withoutID(class)
	case 1:
		return f.findOneGeneric(ctx, class, ids[0])
	}
	return nil, fmt.Errorf("%s: %w, got %d", class.Name(), ErrExpectedSingleID, len(ids))
}

// Find loads the records of class for ids. Collections among ids are
// flattened, nils dropped and duplicates removed. Records are returned in
// request order; *RecordNotFound is returned unless every id matched.
func (f *Finder) Find(ctx context.Context, class *record.Class, ids ...any) ([]*record.Record, error) {
	if class.PrimaryKey() == "" {
		return nil, noPrimaryKey(class.Name())
	}

	if len(ids) == 1 && statement.Bindable(ids[0]) {
		rec, err := f.FindByPrimaryKey(ctx, class, ids[0])
		if err != nil {
			return nil, err
		}
		return []*record.Record{rec}, nil
	}

	flat := flattenIDs(ids)
	switch len(flat) {
	case 0:
		return nil, withoutID(class)
	case 1:
		rec, err := f.FindByPrimaryKey(ctx, class, flat[0])
		if err != nil {
			return nil, err
		}
		return []*record.Record{rec}, nil
	}
	return f.findSome(ctx, class, flat)
}

// FindBy returns the first record of class matching attrs, or nil when none
// does. Values out of their column range match nothing.
func (f *Finder) FindBy(ctx context.Context, class *record.Class, attrs Attributes) (*record.Record, error) {
	for _, p := range attrs {
		if _, isExpr := p.Value.(statement.Expression); !isExpr && !class.HasColumn(p.Column) {
			return nil, &StatementInvalid{
				Model: class.Name(),
				Err:   fmt.Errorf("%w: %q", attribute.ErrUnknownAttribute, p.Column),
			}
		}
	}

	shape := AttributesShape(ctx, class, attrs)
	if shape.Cacheable() {
		return f.findByCached(ctx, class, attrs)
	}
	f.logger.Debug("finder generic lookup", "model", class.Name(), "shape", shape.String())
	return f.findByGeneric(ctx, class, attrs)
}

// FindByOrRaise is FindBy failing with *RecordNotFound on a miss.
func (f *Finder) FindByOrRaise(ctx context.Context, class *record.Class, attrs Attributes) (*record.Record, error) {
	rec, err := f.FindBy(ctx, class, attrs)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, &RecordNotFound{Model: class.Name()}
	}
	return rec, nil
}

func (f *Finder) findOneGeneric(ctx context.Context, class *record.Class, id any) (*record.Record, error) {
	pk := class.PrimaryKey()
	cast, err := castCondition(class, pk, id)
	switch {
	case errors.Is(err, attribute.ErrOutOfRange):
		return nil, &RecordNotFound{Model: class.Name(), PrimaryKey: pk, OutOfRange: true}
	case err != nil:
		return nil, &StatementInvalid{Model: class.Name(), Err: err}
	}

	q, err := f.genericQuery(ctx, class, []statement.Condition{{Column: pk, Value: cast}}, 1)
	if err != nil {
		return nil, err
	}
	rows, err := f.selectRows(ctx, class, q)
	if err != nil {
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
	if !attribute.ValuesEqual(rec.ID(), cast) {
		return nil, notFound
	}
	return rec, nil
}

func (f *Finder) findSome(ctx context.Context, class *record.Class, ids []any) ([]*record.Record, error) {
	pk := class.PrimaryKey()
	typ, _ := class.ColumnType(pk)

	wanted := make([]any, 0, len(ids))
	expected := 0
	for _, id := range ids {
		v, err := typ.Cast(id)
		switch {
		case errors.Is(err, attribute.ErrOutOfRange):
			expected++
			continue
		case err != nil:
			return nil, &StatementInvalid{Model: class.Name(), Err: fmt.Errorf("%s: %w", pk, err)}
		}
		if !containsValue(wanted, v) {
			wanted = append(wanted, v)
			expected++
		}
	}

	var rows []statement.Row
	if len(wanted) > 0 {
		q, err := f.genericQuery(ctx, class, []statement.Condition{{Column: pk, Value: wanted}}, 0)
		if err != nil {
			return nil, err
		}
		if rows, err = f.selectRows(ctx, class, q); err != nil {
			return nil, err
		}
	}
	if f.warnThreshold > 0 && len(rows) > f.warnThreshold {
		f.logger.Warn("finder fetched more records than the warning threshold",
			"model", class.Name(),
			"records", len(rows),
			"threshold", f.warnThreshold,
		)
	}

	found := make([]*record.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := class.Instantiate(ctx, row)
		if err != nil {
			return nil, err
		}
		found = append(found, rec)
	}

	ordered := make([]*record.Record, 0, len(found))
	for _, id := range wanted {
		for _, rec := range found {
			if attribute.ValuesEqual(rec.ID(), id) {
				ordered = append(ordered, rec)
				break
			}
		}
	}

	if len(ordered) != expected {
		return nil, &RecordNotFound{
			Model:      class.Name(),
			PrimaryKey: pk,
			ID:         ids,
			Message: fmt.Sprintf("Couldn't find all %s with '%s': (%s) (found %d results, but was looking for %d)",
				inflection.Plural(class.Name()), pk, joinIDs(ids), len(ordered), expected),
		}
	}
	return ordered, nil
}

func withoutID(class *record.Class) error {
	return &RecordNotFound{
		Model:      class.Name(),
		PrimaryKey: class.PrimaryKey(),
		Message:    fmt.Sprintf("Couldn't find %s without an ID", class.Name()),
	}
}

// flattenIDs expands collections other than []byte and drops nils.
func flattenIDs(ids []any) []any {
	out := make([]any, 0, len(ids))
	for _, id := range ids {
		if id == nil {
			continue
		}
		if _, raw := id.([]byte); !raw {
			rv := reflect.ValueOf(id)
			if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
				items := make([]any, rv.Len())
				for i := range items {
					items[i] = rv.Index(i).Interface()
				}
				out = append(out, flattenIDs(items)...)
				continue
			}
		}
		out = append(out, id)
	}
	return out
}

func containsValue(values []any, v any) bool {
	for _, existing := range values {
		if attribute.ValuesEqual(existing, v) {
			return true
		}
	}
	return false
}

func joinIDs(ids []any) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ", ")
}
