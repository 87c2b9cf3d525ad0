package statement

import (
	"reflect"

	"github.com/goliatone/go-record-finder/attribute"
)

type attributeHolder interface {
	Attributes() *attribute.Set
}

// Bindable reports whether v can be bound as a single positional value of a
// cached template. Nil, collections other than []byte, expressions and
// records are not bindable.
func Bindable(v any) bool {
	switch v.(type) {
	case nil:
		return false
	case []byte:
		return true
	case Expression, attributeHolder:
		return false
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
		if rv.CanInterface() {
			if _, ok := rv.Interface().(Expression); ok {
				return false
			}
		}
	}

	switch rv.Kind() {
	case reflect.Slice:
		return rv.Type().Elem().Kind() == reflect.Uint8
	case reflect.Array, reflect.Map, reflect.Func, reflect.Chan, reflect.Interface:
		return false
	}
	return true
}
