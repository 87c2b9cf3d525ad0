package finder

import (
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes carried by the categorized form of the finder errors.
const (
	TextCodeRecordNotFound   = "RECORD_NOT_FOUND"
	TextCodeOutOfRange       = "RECORD_NOT_FOUND_OUT_OF_RANGE"
	TextCodeStatementInvalid = "STATEMENT_INVALID"
	TextCodeUnsafeRawSQL     = "UNSAFE_RAW_SQL"
	TextCodeNoPrimaryKey     = "UNKNOWN_PRIMARY_KEY"
)

var (
	// ErrNoPrimaryKey is returned by key lookups on keyless classes.
	ErrNoPrimaryKey = errors.New("class has no primary key")

	// ErrExpectedSingleID is returned by FindByPrimaryKey when a collection
	// holding several ids is passed; use Find for those.
	ErrExpectedSingleID = errors.New("expected a single id")
)

// RecordNotFound reports a lookup that matched no row.
type RecordNotFound struct {
	Model      string
	PrimaryKey string
	ID         any
	OutOfRange bool

	// Message overrides the derived message.
	Message string
}

func (e *RecordNotFound) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.OutOfRange:
		return fmt.Sprintf("Couldn't find %s with an out of range value for '%s'", e.Model, e.PrimaryKey)
	case e.PrimaryKey != "" && e.ID != nil:
		return fmt.Sprintf("Couldn't find %s with '%s'=%v", e.Model, e.PrimaryKey, e.ID)
	}
	return fmt.Sprintf("Couldn't find %s", e.Model)
}

// Unwrap exposes the categorized form so goerrors.IsNotFound works on it.
func (e *RecordNotFound) Unwrap() error {
	code := TextCodeRecordNotFound
	if e.OutOfRange {
		code = TextCodeOutOfRange
	}
	meta := map[string]any{"model": e.Model}
	if e.PrimaryKey != "" {
		meta["primary_key"] = e.PrimaryKey
	}
	if e.ID != nil {
		meta["id"] = e.ID
	}
	return goerrors.New(e.Error(), goerrors.CategoryNotFound).
		WithTextCode(code).
		WithMetadata(meta)
}

// StatementInvalid reports a bind value whose type the statement rejects.
type StatementInvalid struct {
	Model string
	SQL   string
	Err   error
}

func (e *StatementInvalid) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("statement invalid for %s", e.Model)
	}
	return fmt.Sprintf("statement invalid for %s: %v", e.Model, e.Err)
}

// Unwrap returns the cause and the categorized form.
func (e *StatementInvalid) Unwrap() []error {
	categorized := goerrors.New(e.Error(), goerrors.CategoryBadInput).
		WithTextCode(TextCodeStatementInvalid).
		WithMetadata(map[string]any{"model": e.Model, "sql": e.SQL})
	if e.Err == nil {
		return []error{categorized}
	}
	return []error{e.Err, categorized}
}

// IsRecordNotFound reports whether err is, or wraps, a *RecordNotFound.
func IsRecordNotFound(err error) bool {
	var nf *RecordNotFound
	return errors.As(err, &nf)
}

// IsStatementInvalid reports whether err is, or wraps, a *StatementInvalid.
func IsStatementInvalid(err error) bool {
	var si *StatementInvalid
	return errors.As(err, &si)
}

func noPrimaryKey(model string) error {
	return goerrors.Wrap(ErrNoPrimaryKey, goerrors.CategoryBadInput, model+" has no primary key").
		WithTextCode(TextCodeNoPrimaryKey).
		WithMetadata(map[string]any{"model": model})
}
