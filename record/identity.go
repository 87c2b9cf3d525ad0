package record

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/goliatone/go-record-finder/attribute"
)

// Equal reports whether r and other are the same instance, or instances of
// the identical class with equal non-nil primary keys. Unsaved records are
// only equal to themselves.
func (r *Record) Equal(other *Record) bool {
	if r == other {
		return true
	}
	if r == nil || other == nil || r.class != other.class {
		return false
	}
	id := r.ID()
	if id == nil {
		return false
	}
	return attribute.ValuesEqual(id, other.ID())
}

// Hash is consistent with Equal: the class name hash combined with the
// primary key hash, or the instance token hash when the key is nil.
func (r *Record) Hash() uint64 {
	id := r.ID()
	if id == nil {
		return xxhash.Sum64(r.token[:])
	}
	return xxhash.Sum64String(r.class.name) ^ hashValue(id)
}

func hashValue(v any) uint64 {
	d := xxhash.New()
	var buf [8]byte
	switch t := v.(type) {
	case string:
		_, _ = d.WriteString("s")
		_, _ = d.WriteString(t)
	case []byte:
		_, _ = d.WriteString("b")
		_, _ = d.Write(t)
	case time.Time:
		_, _ = d.WriteString("t")
		binary.BigEndian.PutUint64(buf[:], uint64(t.UnixNano()))
		_, _ = d.Write(buf[:])
	case float32, float64:
		f := toFloat64(t)
		if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
			return hashInt(int64(f))
		}
		_, _ = d.WriteString("f")
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(f))
		_, _ = d.Write(buf[:])
	default:
		if n, ok := intValue(v); ok {
			return hashInt(n)
		}
		if u, ok := attribute.Unsigned(v); ok {
			_, _ = d.WriteString("u")
			binary.BigEndian.PutUint64(buf[:], u)
			_, _ = d.Write(buf[:])
			break
		}
		_, _ = fmt.Fprintf(d, "%T:%v", v, v)
	}
	return d.Sum64()
}

func hashInt(n int64) uint64 {
	var buf [9]byte
	buf[0] = 'i'
	binary.BigEndian.PutUint64(buf[1:], uint64(n))
	return xxhash.Sum64(buf[:])
}

func toFloat64(v any) float64 {
	switch t := v.(type) {
	case float32:
		return float64(t)
	case float64:
		return t
	}
	return 0
}

func intValue(v any) (int64, bool) {
	n, err := attribute.Integer{}.Cast(v)
	if err != nil || n == nil {
		return 0, false
	}
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return n.(int64), true
	}
	return 0, false
}

// ToKey returns the key tuple, nil when the primary key is unset.
func (r *Record) ToKey() []any {
	id := r.ID()
	if id == nil {
		return nil
	}
	return []any{attribute.CopyValue(id)}
}

// Compare orders records of the same class by key tuple. ok is false across
// classes or when either key is nil.
func (r *Record) Compare(other *Record) (int, bool) {
	if r == nil || other == nil || r.class != other.class {
		return 0, false
	}
	a, b := r.ToKey(), other.ToKey()
	if a == nil || b == nil {
		return 0, false
	}
	for i := range a {
		if i >= len(b) {
			return 1, true
		}
		c, ok := attribute.CompareValues(a[i], b[i])
		if !ok {
			return 0, false
		}
		if c != 0 {
			return c, true
		}
	}
	if len(a) < len(b) {
		return -1, true
	}
	return 0, true
}
