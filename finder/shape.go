package finder

import (
	"context"

	"github.com/goliatone/go-record-finder/record"
	"github.com/goliatone/go-record-finder/statement"
)

// Shape classifies a lookup request. Only ShapeSimple lookups use the
// template cache; every other shape takes the generic path.
type Shape int

const (
	// ShapeSimple lookups bind every value into a cached template.
	ShapeSimple Shape = iota
	// ShapeScoped lookups carry conditions attached with WithScope.
	ShapeScoped
	// ShapePolymorphic lookups need a type condition or aggregation handling.
	ShapePolymorphic
	// ShapeComposite lookups have several ids, no columns, nested or repeated columns.
	ShapeComposite
	// ShapeUnbindable lookups have a value that cannot be bound positionally.
	ShapeUnbindable
	// ShapeKeyless lookups target a class without a primary key.
	ShapeKeyless
)

func (s Shape) String() string {
	switch s {
	case ShapeSimple:
		return "simple"
	case ShapeScoped:
		return "scoped"
	case ShapePolymorphic:
		return "polymorphic"
	case ShapeComposite:
		return "composite"
	case ShapeUnbindable:
		return "unbindable"
	case ShapeKeyless:
		return "keyless"
	}
	return "unknown"
}

// Cacheable reports whether the lookup may use a cached template.
func (s Shape) Cacheable() bool { return s == ShapeSimple }

// PrimaryKeyShape classifies a primary key lookup for ids.
func PrimaryKeyShape(ctx context.Context, class *record.Class, ids ...any) Shape {
	switch {
	case class.PrimaryKey() == "":
		return ShapeKeyless
	case len(ids) != 1:
		return ShapeComposite
	case class.UsesInheritance():
		return ShapePolymorphic
	case scoped(ctx):
		return ShapeScoped
	case !statement.Bindable(ids[0]):
		return ShapeUnbindable
	}
	return ShapeSimple
}

// AttributesShape classifies an attribute lookup. Base classes of a
// single table hierarchy stay cacheable since their lookups need no type
// condition; subclasses do not.
func AttributesShape(ctx context.Context, class *record.Class, attrs Attributes) Shape {
	switch {
	case scoped(ctx):
		return ShapeScoped
	case len(class.Aggregations()) > 0:
		return ShapePolymorphic
	case class.Parent() != nil && class.UsesInheritance():
		return ShapePolymorphic
	case len(attrs) == 0, attrs.nested(), attrs.duplicated():
		return ShapeComposite
	}
	for _, p := range attrs {
		if !statement.Bindable(p.Value) {
			return ShapeUnbindable
		}
	}
	return ShapeSimple
}
