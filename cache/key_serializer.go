package cache

import (
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"sort"
	"strings"
	"time"

	hex "github.com/tmthrgd/go-hex"
)

// KeySeparator defines the delimiter used between cache key segments.
const KeySeparator = "::"

// defaultKeySerializer implements KeySerializer for bound lookup values.
// Every segment is prefixed with its kind so values that print alike
// (int 1 and string "1") never collide.
type defaultKeySerializer struct{}

// NewDefaultKeySerializer creates a new instance of the default key serializer.
func NewDefaultKeySerializer() KeySerializer {
	return &defaultKeySerializer{}
}

// SerializeKey joins namespace and the serialized args with KeySeparator.
func (s *defaultKeySerializer) SerializeKey(namespace string, args ...any) string {
	if len(args) == 0 {
		return namespace
	}

	parts := make([]string, 0, len(args)+1)
	parts = append(parts, namespace)
	for _, arg := range args {
		parts = append(parts, s.serializeValue(arg))
	}

	return strings.Join(parts, KeySeparator)
}

func (s *defaultKeySerializer) serializeValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "nil"
	case string:
		return "s:" + t
	case []byte:
		if t == nil {
			return "b:nil"
		}
		return "b:" + hex.EncodeToString(t)
	case bool:
		return fmt.Sprintf("t:%t", t)
	case int, int8, int16, int32, int64:
		return fmt.Sprintf("i:%d", t)
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("u:%d", t)
	case float32, float64:
		return fmt.Sprintf("f:%v", t)
	case time.Time:
		return "ts:" + t.UTC().Format(time.RFC3339Nano)
	case json.Number:
		return "n:" + t.String()
	case *big.Int:
		if t == nil {
			return "nil"
		}
		return "i:" + t.String()
	case fmt.Stringer:
		return fmt.Sprintf("%T:%s", t, t.String())
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return "nil"
		}
		return s.serializeValue(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return "slice:nil"
		}
		return s.serializeList(rv)
	case reflect.Map:
		if rv.IsNil() {
			return "map:nil"
		}
		return s.serializeMap(rv)
	case reflect.Func, reflect.Chan:
		return fmt.Sprintf("%s:%p", rv.Kind(), v)
	}

	return s.jsonFallback(v)
}

func (s *defaultKeySerializer) serializeList(rv reflect.Value) string {
	parts := make([]string, rv.Len())
	for i := range parts {
		parts[i] = s.serializeValue(rv.Index(i).Interface())
	}
	return fmt.Sprintf("list[%d]:{%s}", len(parts), strings.Join(parts, ","))
}

// serializeMap sorts the pairs by serialized key for determinism.
func (s *defaultKeySerializer) serializeMap(rv reflect.Value) string {
	pairs := make([]string, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		pairs = append(pairs, s.serializeValue(iter.Key().Interface())+"="+s.serializeValue(iter.Value().Interface()))
	}
	sort.Strings(pairs)
	return fmt.Sprintf("map[%d]:{%s}", len(pairs), strings.Join(pairs, ","))
}

// jsonFallback handles structs and other composite values.
func (s *defaultKeySerializer) jsonFallback(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("fallback:%T", v)
	}
	return fmt.Sprintf("json:%T:%s", v, data)
}
