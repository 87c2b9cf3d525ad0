package finder

import (
	"sort"

	"github.com/goliatone/go-record-finder/statement"
)

// Pair is one column filter of an attribute lookup.
type Pair struct {
	Column string
	Value  any
}

// Attributes is an ordered attribute lookup. The column order is the order
// of the template signature, so callers that want one template per column
// set should build it with By.
type Attributes []Pair

// By converts values into Attributes sorted by column name.
func By(values map[string]any) Attributes {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make(Attributes, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, Pair{Column: k, Value: values[k]})
	}
	return attrs
}

// Signature returns the lookup columns in order.
func (a Attributes) Signature() statement.Signature {
	sig := make(statement.Signature, len(a))
	for i, p := range a {
		sig[i] = p.Column
	}
	return sig
}

// Values returns the lookup values in column order.
func (a Attributes) Values() []any {
	out := make([]any, len(a))
	for i, p := range a {
		out[i] = p.Value
	}
	return out
}

func (a Attributes) nested() bool {
	for _, p := range a {
		switch p.Value.(type) {
		case Attributes, map[string]any:
			return true
		}
	}
	return false
}

func (a Attributes) duplicated() bool {
	seen := make(map[string]struct{}, len(a))
	for _, p := range a {
		if _, ok := seen[p.Column]; ok {
			return true
		}
		seen[p.Column] = struct{}{}
	}
	return false
}
