package attribute

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// Type is the declared type of a column. Cast converts an incoming value into
// the canonical Go representation for the column.
type Type interface {
	Name() string
	Cast(value any) (any, error)
}

// Integer is a signed integer column. Limit is the storage width in bytes,
// 8 when zero. Cast values are int64.
type Integer struct {
	Limit int
}

// Name returns the type name.
func (t Integer) Name() string {
	if t.limit() == 8 {
		return "integer"
	}
	return fmt.Sprintf("integer(%d)", t.limit())
}

func (t Integer) limit() int {
	if t.Limit <= 0 || t.Limit > 8 {
		return 8
	}
	return t.Limit
}

func (t Integer) bounds() (int64, int64) {
	bits := uint(t.limit()*8 - 1)
	if bits == 63 {
		return math.MinInt64, math.MaxInt64
	}
	return -(int64(1) << bits), int64(1)<<bits - 1
}

func (t Integer) check(v int64, raw any) (any, error) {
	lo, hi := t.bounds()
	if v < lo || v > hi {
		return nil, outOfRange(t.Name(), raw)
	}
	return v, nil
}

// Cast converts numeric kinds, numeric strings and big integers to int64.
func (t Integer) Cast(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case int:
		return t.check(int64(v), value)
	case int8:
		return t.check(int64(v), value)
	case int16:
		return t.check(int64(v), value)
	case int32:
		return t.check(int64(v), value)
	case int64:
		return t.check(v, value)
	case uint:
		return t.castUint(uint64(v), value)
	case uint8:
		return t.castUint(uint64(v), value)
	case uint16:
		return t.castUint(uint64(v), value)
	case uint32:
		return t.castUint(uint64(v), value)
	case uint64:
		return t.castUint(v, value)
	case float32:
		return t.castFloat(float64(v), value)
	case float64:
		return t.castFloat(v, value)
	case *big.Int:
		if v == nil {
			return nil, nil
		}
		if !v.IsInt64() {
			return nil, outOfRange(t.Name(), v)
		}
		return t.check(v.Int64(), value)
	case json.Number:
		return t.castString(string(v), value)
	case string:
		return t.castString(v, value)
	case []byte:
		return t.castString(string(v), value)
	default:
		return nil, mismatch(t.Name(), value)
	}
}

func (t Integer) castUint(v uint64, raw any) (any, error) {
	if v > math.MaxInt64 {
		return nil, outOfRange(t.Name(), raw)
	}
	return t.check(int64(v), raw)
}

func (t Integer) castFloat(v float64, raw any) (any, error) {
	if math.IsNaN(v) {
		return nil, mismatch(t.Name(), raw)
	}
	if math.IsInf(v, 0) || v >= math.MaxInt64 || v < math.MinInt64 {
		return nil, outOfRange(t.Name(), raw)
	}
	return t.check(int64(v), raw)
}

func (t Integer) castString(s string, raw any) (any, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		return t.check(n, raw)
	}
	if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
		return nil, outOfRange(t.Name(), raw)
	}
	if f, ferr := strconv.ParseFloat(s, 64); ferr == nil {
		return t.castFloat(f, raw)
	}
	return nil, mismatch(t.Name(), raw)
}

// Float is a double precision column. Cast values are float64.
type Float struct{}

// Name returns the type name.
func (Float) Name() string { return "float" }

// Cast converts numeric kinds and numeric strings to float64.
func (t Float) Cast(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		f, _ := toFloat(v)
		return f, nil
	case json.Number:
		return t.parse(string(v), value)
	case string:
		return t.parse(v, value)
	case []byte:
		return t.parse(string(v), value)
	default:
		return nil, mismatch(t.Name(), value)
	}
}

func (t Float) parse(s string, raw any) (any, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return nil, outOfRange(t.Name(), raw)
		}
		return nil, mismatch(t.Name(), raw)
	}
	return f, nil
}

// String is a text column. Cast values are string.
type String struct{}

// Name returns the type name.
func (String) Name() string { return "string" }

// Cast converts strings, byte slices, numbers and booleans to string.
func (t String) Cast(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case bool:
		if v {
			return "t", nil
		}
		return "f", nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, json.Number:
		return fmt.Sprint(v), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return nil, mismatch(t.Name(), value)
	}
}

// Boolean is a boolean column. Cast values are bool.
type Boolean struct{}

// Name returns the type name.
func (Boolean) Name() string { return "boolean" }

// Cast accepts bool, 0/1 integers and the usual textual spellings.
func (t Boolean) Cast(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case bool:
		return v, nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		n, _ := toFloat(v)
		switch n {
		case 0:
			return false, nil
		case 1:
			return true, nil
		}
		return nil, mismatch(t.Name(), value)
	case string:
		return t.parse(v, value)
	case []byte:
		return t.parse(string(v), value)
	default:
		return nil, mismatch(t.Name(), value)
	}
}

func (t Boolean) parse(s string, raw any) (any, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return nil, nil
	case "t", "true", "1", "y", "yes", "on":
		return true, nil
	case "f", "false", "0", "n", "no", "off":
		return false, nil
	}
	return nil, mismatch(t.Name(), raw)
}

// Time is a timestamp column. Cast values are time.Time in Location, UTC when nil.
type Time struct {
	Location *time.Location
}

// Name returns the type name.
func (Time) Name() string { return "datetime" }

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Cast accepts time.Time and the common textual timestamp layouts.
func (t Time) Cast(value any) (any, error) {
	loc := t.Location
	if loc == nil {
		loc = time.UTC
	}
	switch v := value.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return v.In(loc), nil
	case string:
		return t.parse(v, loc, value)
	case []byte:
		return t.parse(string(v), loc, value)
	default:
		return nil, mismatch(t.Name(), value)
	}
}

func (t Time) parse(s string, loc *time.Location, raw any) (any, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range timeLayouts {
		if ts, err := time.ParseInLocation(layout, s, loc); err == nil {
			return ts.In(loc), nil
		}
	}
	return nil, mismatch(t.Name(), raw)
}

// Binary is a blob column. Cast values are []byte.
type Binary struct{}

// Name returns the type name.
func (Binary) Name() string { return "binary" }

// Cast accepts byte slices and strings.
func (t Binary) Cast(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return append([]byte(nil), v...), nil
	case string:
		return []byte(v), nil
	default:
		return nil, mismatch(t.Name(), value)
	}
}

// Value stores values as given.
type Value struct{}

// Name returns the type name.
func (Value) Name() string { return "value" }

// Cast returns value unchanged.
func (Value) Cast(value any) (any, error) { return value, nil }

// TypeByName resolves the names accepted in column declarations.
func TypeByName(name string) (Type, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "integer", "int", "bigint":
		return Integer{}, true
	case "smallint":
		return Integer{Limit: 2}, true
	case "int4":
		return Integer{Limit: 4}, true
	case "float", "double", "decimal":
		return Float{}, true
	case "string", "text":
		return String{}, true
	case "boolean", "bool":
		return Boolean{}, true
	case "datetime", "time", "timestamp":
		return Time{}, true
	case "binary", "blob":
		return Binary{}, true
	case "value", "any":
		return Value{}, true
	}
	return nil, false
}
