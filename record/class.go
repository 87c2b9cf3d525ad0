package record

import (
	"context"
	"fmt"
	"strings"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/goliatone/go-record-finder/attribute"
	"github.com/goliatone/go-record-finder/cache"
	"github.com/goliatone/go-record-finder/statement"
)

var _ statement.Source = (*Class)(nil)

// Class is the runtime descriptor of a mapped class. It is created by
// Registry.Register and safe for concurrent use.
type Class struct {
	registry          *Registry
	name              string
	table             string
	primaryKey        string
	inheritanceColumn string
	parent            *Class
	columns           []attribute.Column
	aggregations      []string
	defaults          *attribute.Set
	finderCache       *cache.FinderCache
	hooks             *xsync.MapOf[HookPoint, []Callback]
}

// Name returns the class name.
func (c *Class) Name() string { return c.name }

// ModelName implements statement.Source.
func (c *Class) ModelName() string { return c.name }

// TableName implements statement.Source.
func (c *Class) TableName() string { return c.table }

// ColumnType implements statement.Source.
func (c *Class) ColumnType(column string) (attribute.Type, bool) {
	a, ok := c.defaults.Get(column)
	if !ok {
		return nil, false
	}
	return a.Type(), true
}

// ColumnNames returns the columns in declaration order.
func (c *Class) ColumnNames() []string { return c.defaults.Keys() }

// HasColumn reports whether column is declared.
func (c *Class) HasColumn(column string) bool { return c.defaults.Has(column) }

// PrimaryKey returns the primary key column, empty for keyless classes.
func (c *Class) PrimaryKey() string { return c.primaryKey }

// InheritanceColumn returns the column naming the class of a row.
func (c *Class) InheritanceColumn() string { return c.inheritanceColumn }

// UsesInheritance reports whether rows of the table are discriminated by the
// inheritance column.
func (c *Class) UsesInheritance() bool { return c.defaults.Has(c.inheritanceColumn) }

// Parent returns the superclass, nil for base classes.
func (c *Class) Parent() *Class { return c.parent }

// Aggregations returns the declared aggregation names.
func (c *Class) Aggregations() []string { return append([]string(nil), c.aggregations...) }

// FinderCache returns the template cache owned by this class.
func (c *Class) FinderCache() *cache.FinderCache { return c.finderCache }

// DefaultAttributes returns a fresh, mutable copy of the class defaults.
func (c *Class) DefaultAttributes() *attribute.Set { return c.defaults.DeepDup() }

// IsA reports whether c is other or one of its descendants.
func (c *Class) IsA(other *Class) bool {
	for k := c; k != nil; k = k.parent {
		if k == other {
			return true
		}
	}
	return false
}

// Descendants returns the registered subclasses of c at any depth, sorted by name.
func (c *Class) Descendants() []*Class {
	var out []*Class
	if c.registry == nil {
		return out
	}
	for _, k := range c.registry.Classes() {
		if k != c && k.IsA(c) {
			out = append(out, k)
		}
	}
	return out
}

// TypeCondition returns the inheritance filter a lookup on c needs: the class
// and all its descendants. ok is false for base classes, whose lookups match
// every row of the table.
func (c *Class) TypeCondition() (column string, names []string, ok bool) {
	if c.parent == nil || !c.UsesInheritance() {
		return "", nil, false
	}
	names = []string{c.name}
	for _, d := range c.Descendants() {
		names = append(names, d.name)
	}
	return c.inheritanceColumn, names, true
}

// New builds a transient record. Values are applied in column order, then the
// initialize hooks run, then each customize func.
func (c *Class) New(ctx context.Context, values map[string]any, customize ...func(*Record) error) (*Record, error) {
	r := c.allocate(c.DefaultAttributes(), true)

	if c.UsesInheritance() && c.parent != nil {
		if err := r.attributes.Write(c.inheritanceColumn, c.name); err != nil {
			return nil, err
		}
	}

	if err := r.assign(values); err != nil {
		return nil, err
	}

	if err := c.runHooks(ctx, HookInitialize, r); err != nil {
		return nil, err
	}

	for _, fn := range customize {
		if err := fn(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Load materializes a persisted record from a row. Values are cast through the
// column types and copied; columns missing from the row stay at their default.
// Only the load hooks run.
func (c *Class) Load(ctx context.Context, row map[string]any) (*Record, error) {
	attrs := c.DefaultAttributes()
	for _, name := range attrs.Keys() {
		v, ok := row[name]
		if !ok {
			continue
		}
		if err := attrs.Load(name, v); err != nil {
			return nil, fmt.Errorf("load %s: %w", c.name, err)
		}
	}

	r := c.allocate(attrs, false)
	if err := c.runHooks(ctx, HookLoad, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Instantiate loads row as the class named by its inheritance column when the
// class uses single-table inheritance, and as c otherwise.
func (c *Class) Instantiate(ctx context.Context, row map[string]any) (*Record, error) {
	target, err := c.discriminate(row)
	if err != nil {
		return nil, err
	}
	return target.Load(ctx, row)
}

func (c *Class) discriminate(row map[string]any) (*Class, error) {
	if !c.UsesInheritance() {
		return c, nil
	}
	name := typeName(row[c.inheritanceColumn])
	if name == "" || name == c.name {
		return c, nil
	}
	if c.registry != nil {
		if k, ok := c.registry.Lookup(name); ok && k.IsA(c) {
			return k, nil
		}
	}
	return nil, &SubclassNotFoundError{Class: c.name, Column: c.inheritanceColumn, Subclass: name}
}

func typeName(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	}
	return ""
}

func (c *Class) allocate(attrs *attribute.Set, newRecord bool) *Record {
	return &Record{
		class:      c,
		attributes: attrs,
		newRecord:  newRecord,
		txState:    map[string]any{},
		token:      newToken(),
	}
}

// String renders the class with its column types: User(id: integer, email: string).
func (c *Class) String() string {
	parts := make([]string, 0, c.defaults.Len())
	for _, name := range c.defaults.Keys() {
		a, _ := c.defaults.Get(name)
		parts = append(parts, name+": "+a.Type().Name())
	}
	return c.name + "(" + strings.Join(parts, ", ") + ")"
}
