package record

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-record-finder/attribute"
)

// DefaultInheritanceColumn is the column holding the class name of a row in
// single-table inheritance.
const DefaultInheritanceColumn = "type"

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Definition describes a mapped class. Subclasses name their Parent and
// inherit its table, primary key, columns and inheritance column unless they
// override them.
type Definition struct {
	Name string

	// Table defaults to the pluralized snake case of Name.
	Table string

	// PrimaryKey is empty for keyless classes.
	PrimaryKey string

	Columns []attribute.Column

	// InheritanceColumn defaults to "type". Single-table inheritance is in
	// effect when the class declares a column with this name.
	InheritanceColumn string

	Parent string

	// Aggregations are value objects composed from several columns.
	// Attribute lookups on classes that declare any take the generic path.
	Aggregations []string
}

// Validate checks the definition on its own; parent resolution happens at
// registration.
func (d Definition) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Name, validation.Required, validation.Match(identifier)),
		validation.Field(&d.Table, validation.Match(identifier)),
		validation.Field(&d.PrimaryKey, validation.Match(identifier)),
		validation.Field(&d.InheritanceColumn, validation.Match(identifier)),
		validation.Field(&d.Columns, validation.When(d.Parent == "", validation.Required), validation.By(validColumns)),
	)
}

func validColumns(value any) error {
	cols, _ := value.([]attribute.Column)
	seen := make(map[string]struct{}, len(cols))
	for _, col := range cols {
		if !identifier.MatchString(col.Name) {
			return validation.NewError("validation_column_name", "column names must be identifiers")
		}
		if _, dup := seen[col.Name]; dup {
			return validation.NewError("validation_column_duplicate", "column "+col.Name+" declared twice")
		}
		seen[col.Name] = struct{}{}
	}
	return nil
}
