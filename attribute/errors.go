package attribute

import (
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes attached to the categorized errors of this package.
const (
	TextCodeFrozenState      = "FROZEN_STATE"
	TextCodeUnknownAttribute = "UNKNOWN_ATTRIBUTE"
)

var (
	// ErrOutOfRange reports a value that cannot be represented by its column type.
	ErrOutOfRange = errors.New("value out of range")

	// ErrTypeMismatch reports a value whose kind is incompatible with its column type.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrUnknownAttribute reports a write to a name the set does not declare.
	ErrUnknownAttribute = errors.New("unknown attribute")
)

// FrozenStateError is returned by every mutating operation on a frozen Set.
type FrozenStateError struct {
	Attribute string
}

// Error implements the error interface.
func (e *FrozenStateError) Error() string {
	if e.Attribute == "" {
		return "can't modify frozen attribute set"
	}
	return fmt.Sprintf("can't modify frozen attribute set: %s", e.Attribute)
}

// Unwrap exposes the categorized form so goerrors.IsCategory works on it.
func (e *FrozenStateError) Unwrap() error {
	return goerrors.New(e.Error(), goerrors.CategoryOperation).
		WithTextCode(TextCodeFrozenState).
		WithMetadata(map[string]any{"attribute": e.Attribute})
}

// IsFrozen reports whether err is, or wraps, a *FrozenStateError.
func IsFrozen(err error) bool {
	var fe *FrozenStateError
	return errors.As(err, &fe)
}

func unknownAttribute(name string) error {
	return fmt.Errorf("%w: %q", ErrUnknownAttribute, name)
}

func outOfRange(typ string, v any) error {
	return fmt.Errorf("%w: %v does not fit in %s", ErrOutOfRange, v, typ)
}

func mismatch(typ string, v any) error {
	return fmt.Errorf("%w: can't cast %T to %s", ErrTypeMismatch, v, typ)
}
