package attribute

import (
	"bytes"
	"encoding/json"
	"math"
	"math/big"
	"reflect"
	"strings"
	"time"
)

// CopyValue returns a deep copy of v. Slices, maps, byte slices and pointers
// are cloned; immutable values are returned as is.
func CopyValue(v any) any {
	switch t := v.(type) {
	case nil, bool, string, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64, time.Time, json.Number:
		return v
	case []byte:
		if t == nil {
			return t
		}
		return append([]byte(nil), t...)
	case *big.Int:
		if t == nil {
			return t
		}
		return new(big.Int).Set(t)
	}
	return copyReflect(reflect.ValueOf(v)).Interface()
}

func copyReflect(rv reflect.Value) reflect.Value {
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return rv
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out.Index(i).Set(copyElem(rv.Index(i)))
		}
		return out
	case reflect.Map:
		if rv.IsNil() {
			return rv
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), copyElem(iter.Value()))
		}
		return out
	case reflect.Pointer:
		if rv.IsNil() {
			return rv
		}
		out := reflect.New(rv.Elem().Type())
		out.Elem().Set(copyElem(rv.Elem()))
		return out
	}
	return rv
}

func copyElem(rv reflect.Value) reflect.Value {
	if rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return rv
		}
		inner := rv.Elem()
		out := reflect.New(rv.Type()).Elem()
		out.Set(reflect.ValueOf(CopyValue(inner.Interface())))
		return out
	}
	return copyReflect(rv)
}

// ValuesEqual compares two attribute values. Integer kinds are compared by
// numeric value, byte slices by content and times with time.Time.Equal.
func ValuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if ai, ok := toInt(a); ok {
		if bi, ok := toInt(b); ok {
			return ai == bi
		}
	}
	if equal, mixed := mixedEqual(a, b); mixed {
		return equal
	}
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			if isFloat(a) && isFloat(b) {
				return af == bf
			}
			au, aok := Unsigned(a)
			bu, bok := Unsigned(b)
			return aok && bok && au == bu
		}
		return false
	}
	switch av := a.(type) {
	case []byte:
		bv, ok := b.([]byte)
		return ok && bytes.Equal(av, bv)
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	}
	return reflect.DeepEqual(a, b)
}

// CompareValues orders two attribute values. ok is false when the values are
// nil or of incomparable kinds.
func CompareValues(a, b any) (int, bool) {
	if a == nil || b == nil {
		return 0, false
	}
	if ai, ok := toInt(a); ok {
		if bi, ok := toInt(b); ok {
			return cmp3(ai < bi, ai > bi), true
		}
		if bf, ok := toFloat(b); ok {
			if bi, exact := floatInt(bf); exact {
				return cmp3(ai < bi, ai > bi), true
			}
		}
	}
	if bi, ok := toInt(b); ok && isFloat(a) {
		af, _ := toFloat(a)
		if ai, exact := floatInt(af); exact {
			return cmp3(ai < bi, ai > bi), true
		}
	}
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			if math.IsNaN(af) || math.IsNaN(bf) {
				return 0, false
			}
			return cmp3(af < bf, af > bf), true
		}
		return 0, false
	}
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv), true
		}
	case []byte:
		if bv, ok := b.([]byte); ok {
			return bytes.Compare(av, bv), true
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv), true
		}
	case bool:
		if bv, ok := b.(bool); ok {
			return cmp3(!av && bv, av && !bv), true
		}
	}
	return 0, false
}

func cmp3(less, greater bool) int {
	switch {
	case less:
		return -1
	case greater:
		return 1
	}
	return 0
}

// toInt normalizes the integer kinds. Unsigned values above MaxInt64 are not
// representable and report false.
func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), uint64(n) <= math.MaxInt64
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), n <= math.MaxInt64
	}
	return 0, false
}

// floatInt converts an integral float inside the int64 range. exact is false
// for fractions, NaN, infinities and out of range values.
func floatInt(f float64) (int64, bool) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// mixedEqual compares an integer with a float exactly. mixed is false unless
// exactly one side is a float and the other an integer kind.
func mixedEqual(a, b any) (equal, mixed bool) {
	f, other := a, b
	if !isFloat(f) {
		f, other = b, a
	}
	if !isFloat(f) || isFloat(other) {
		return false, false
	}
	if _, num := toFloat(other); !num {
		return false, false
	}
	fv, _ := toFloat(f)
	fi, exact := floatInt(fv)
	oi, ok := toInt(other)
	return exact && ok && fi == oi, true
}

// Unsigned reports the value of an unsigned integer kind.
func Unsigned(v any) (uint64, bool) {
	switch n := v.(type) {
	case uint:
		return uint64(n), true
	case uint8:
		return uint64(n), true
	case uint16:
		return uint64(n), true
	case uint32:
		return uint64(n), true
	case uint64:
		return n, true
	}
	return 0, false
}

func isFloat(v any) bool {
	switch v.(type) {
	case float32, float64:
		return true
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case int, int8, int16, int32, int64:
		i, _ := toInt(n)
		return float64(i), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
