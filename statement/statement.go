package statement

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-record-finder/attribute"
)

// Signature is the ordered list of columns a lookup filters on.
type Signature []string

// Key is the template cache key for the signature.
func (s Signature) Key() string {
	return strings.Join(s, ",")
}

// Param is a positional bind slot of a Template.
type Param struct {
	Column   string
	Type     attribute.Type
	Position int
}

// Template is a compiled single row lookup. It is immutable once built and safe
// for concurrent use.
type Template struct {
	model     string
	table     string
	signature Signature
	sql       string
	params    []Param
	prepared  bool
}

// NewTemplate assembles a Template. Params are bound in slice order.
func NewTemplate(model, table string, sig Signature, sql string, params []Param, prepared bool) *Template {
	return &Template{
		model:     model,
		table:     table,
		signature: append(Signature(nil), sig...),
		sql:       sql,
		params:    append([]Param(nil), params...),
		prepared:  prepared,
	}
}

// Model returns the name of the class the template was built for.
func (t *Template) Model() string { return t.model }

// Table returns the queried table.
func (t *Template) Table() string { return t.table }

// Signature returns a copy of the lookup columns in bind order.
func (t *Template) Signature() Signature { return append(Signature(nil), t.signature...) }

// SQL returns the statement text with placeholders in the dialect of the
// mode the template was built for.
func (t *Template) SQL() string { return t.sql }

// Params returns a copy of the bind slots.
func (t *Template) Params() []Param { return append([]Param(nil), t.params...) }

// Prepared reports whether the template was built for prepared statements.
func (t *Template) Prepared() bool { return t.prepared }

func (t *Template) String() string { return t.sql }

// Bind casts values through the param types, in param order. Cast failures
// keep wrapping attribute.ErrOutOfRange or attribute.ErrTypeMismatch.
func (t *Template) Bind(values []any) ([]any, error) {
	if len(values) != len(t.params) {
		return nil, fmt.Errorf("%s: expected %d bind values, got %d", t.model, len(t.params), len(values))
	}
	out := make([]any, len(values))
	for i, p := range t.params {
		typ := p.Type
		if typ == nil {
			typ = attribute.Value{}
		}
		v, err := typ.Cast(values[i])
		if err != nil {
			return nil, fmt.Errorf("bind %s.%s: %w", t.model, p.Column, err)
		}
		out[i] = v
	}
	return out, nil
}

// Row is a single result row keyed by column name.
type Row map[string]any

// Expression is a literal SQL fragment. Expressions are never bound into a
// cached template.
type Expression interface {
	Expression() (string, []any)
}

// Raw is an SQL fragment with its own arguments.
type Raw struct {
	SQL  string
	Args []any
}

// Expression implements Expression.
func (r Raw) Expression() (string, []any) { return r.SQL, r.Args }

// Condition filters Column on Value. A nil Value matches NULL, a slice matches
// any of its elements and an Expression is used verbatim with Column ignored.
type Condition struct {
	Column string
	Value  any
}

// Query is the generic uncached lookup handed to Connection.Select.
type Query struct {
	Model      string
	Table      string
	Conditions []Condition
	Limit      int
}

// Source is the schema view of a mapped class.
type Source interface {
	ModelName() string
	TableName() string
	ColumnType(column string) (attribute.Type, bool)
}

// Builder compiles templates.
type Builder interface {
	Build(ctx context.Context, src Source, sig Signature, prepared bool) (*Template, error)
}

// Connection executes templates and generic queries.
type Connection interface {
	SupportsPreparedStatements() bool
	Execute(ctx context.Context, tmpl *Template, bound []any) ([]Row, error)
	Select(ctx context.Context, q Query) ([]Row, error)
}
