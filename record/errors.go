package record

import (
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeSubclassNotFound = "SUBCLASS_NOT_FOUND"
	TextCodeInvalidCoder     = "INVALID_CODER"
)

var (
	// ErrDuplicateClass is returned when a class name is registered twice.
	ErrDuplicateClass = errors.New("class already registered")

	// ErrUnknownParent is returned when Definition.Parent names no registered class.
	ErrUnknownParent = errors.New("parent class not registered")
)

// SubclassNotFoundError reports a row whose inheritance column names a class
// that is not the loading class or one of its descendants.
type SubclassNotFoundError struct {
	Class    string
	Column   string
	Subclass string
}

func (e *SubclassNotFoundError) Error() string {
	return fmt.Sprintf("the single-table inheritance mechanism failed to locate the subclass %q for %s (column %q)",
		e.Subclass, e.Class, e.Column)
}

func (e *SubclassNotFoundError) Unwrap() error {
	return goerrors.New(e.Error(), goerrors.CategoryBadInput).
		WithTextCode(TextCodeSubclassNotFound).
		WithMetadata(map[string]any{"class": e.Class, "subclass": e.Subclass, "column": e.Column})
}

// CoderError reports a payload that InitWith or UnmarshalRecord cannot decode.
type CoderError struct {
	Class  string
	Reason string
}

func (e *CoderError) Error() string {
	return fmt.Sprintf("can't decode %s: %s", e.Class, e.Reason)
}

func (e *CoderError) Unwrap() error {
	return goerrors.New(e.Error(), goerrors.CategoryBadInput).
		WithTextCode(TextCodeInvalidCoder).
		WithMetadata(map[string]any{"class": e.Class})
}
