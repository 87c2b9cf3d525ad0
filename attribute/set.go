package attribute

import "fmt"

// Attribute is a single column slot of a Set.
type Attribute struct {
	name        string
	typ         Type
	value       any
	original    any
	initialized bool
}

// Name returns the column name.
func (a *Attribute) Name() string { return a.name }

// Type returns the declared column type.
func (a *Attribute) Type() Type { return a.typ }

// Value returns the current value, nil when the slot was never initialized.
func (a *Attribute) Value() any { return a.value }

// Original returns the value the slot held when it was loaded or last reset.
func (a *Attribute) Original() any { return a.original }

// Initialized reports whether the slot has been assigned at all.
func (a *Attribute) Initialized() bool { return a.initialized }

// Changed reports whether the current value differs from the original one.
func (a *Attribute) Changed() bool {
	return a.initialized && !ValuesEqual(a.value, a.original)
}

func (a *Attribute) clone() *Attribute {
	return &Attribute{
		name:        a.name,
		typ:         a.typ,
		value:       CopyValue(a.value),
		original:    CopyValue(a.original),
		initialized: a.initialized,
	}
}

// Column declares a slot of a Set.
type Column struct {
	Name    string
	Type    Type
	Default any
}

// Set is the ordered attribute store of a record.
type Set struct {
	order  []string
	attrs  map[string]*Attribute
	frozen bool
}

// New builds a Set from column declarations. Columns with a non-nil Default are
// initialized with the cast default; a nil Type is treated as Value.
func New(columns ...Column) (*Set, error) {
	s := &Set{
		order: make([]string, 0, len(columns)),
		attrs: make(map[string]*Attribute, len(columns)),
	}
	for _, col := range columns {
		if _, dup := s.attrs[col.Name]; dup {
			return nil, fmt.Errorf("duplicate attribute %q", col.Name)
		}
		typ := col.Type
		if typ == nil {
			typ = Value{}
		}
		attr := &Attribute{name: col.Name, typ: typ}
		if col.Default != nil {
			v, err := typ.Cast(CopyValue(col.Default))
			if err != nil {
				return nil, fmt.Errorf("default for %q: %w", col.Name, err)
			}
			attr.value = v
			attr.original = CopyValue(v)
			attr.initialized = true
		}
		s.order = append(s.order, col.Name)
		s.attrs[col.Name] = attr
	}
	return s, nil
}

// Keys returns the column names in declaration order.
func (s *Set) Keys() []string {
	return append([]string(nil), s.order...)
}

// Len returns the number of declared columns.
func (s *Set) Len() int { return len(s.order) }

// Has reports whether name is a declared column.
func (s *Set) Has(name string) bool {
	_, ok := s.attrs[name]
	return ok
}

// Get returns the slot for name.
func (s *Set) Get(name string) (*Attribute, bool) {
	a, ok := s.attrs[name]
	return a, ok
}

// Value returns the current value for name, nil for unknown or unset columns.
func (s *Set) Value(name string) any {
	if a, ok := s.attrs[name]; ok {
		return a.value
	}
	return nil
}

// Values returns a copy of the current values keyed by column name.
func (s *Set) Values() map[string]any {
	out := make(map[string]any, len(s.order))
	for _, name := range s.order {
		out[name] = CopyValue(s.attrs[name].value)
	}
	return out
}

// Write casts value through the column type and stores it.
func (s *Set) Write(name string, value any) error {
	if s.frozen {
		return &FrozenStateError{Attribute: name}
	}
	a, ok := s.attrs[name]
	if !ok {
		return unknownAttribute(name)
	}
	v, err := a.typ.Cast(value)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	a.value = v
	a.initialized = true
	return nil
}

// Load stores value as both current and original value, as when read from a row.
func (s *Set) Load(name string, value any) error {
	if s.frozen {
		return &FrozenStateError{Attribute: name}
	}
	a, ok := s.attrs[name]
	if !ok {
		return unknownAttribute(name)
	}
	v, err := a.typ.Cast(CopyValue(value))
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	a.value = v
	a.original = CopyValue(v)
	a.initialized = true
	return nil
}

// Reset returns name to the uninitialized state.
func (s *Set) Reset(name string) error {
	if s.frozen {
		return &FrozenStateError{Attribute: name}
	}
	a, ok := s.attrs[name]
	if !ok {
		return unknownAttribute(name)
	}
	a.value = nil
	a.original = nil
	a.initialized = false
	return nil
}

// DeepDup returns an unfrozen deep copy of the set.
func (s *Set) DeepDup() *Set {
	out := &Set{
		order: append([]string(nil), s.order...),
		attrs: make(map[string]*Attribute, len(s.attrs)),
	}
	for name, a := range s.attrs {
		out.attrs[name] = a.clone()
	}
	return out
}

// Duplicate returns a deep copy with the primaryKey slot reset. An empty
// primaryKey only copies.
func (s *Set) Duplicate(primaryKey string) *Set {
	out := s.DeepDup()
	if a, ok := out.attrs[primaryKey]; ok {
		a.value = nil
		a.original = nil
		a.initialized = false
	}
	return out
}

// Freeze returns a locked clone. The receiver is left untouched; a set that is
// already frozen is returned as is.
func (s *Set) Freeze() *Set {
	if s.frozen {
		return s
	}
	out := s.DeepDup()
	out.frozen = true
	return out
}

// Thaw returns a mutable copy of a frozen set, or the receiver when it is not frozen.
func (s *Set) Thaw() *Set {
	if !s.frozen {
		return s
	}
	return s.DeepDup()
}

// IsFrozen reports whether mutating operations are rejected.
func (s *Set) IsFrozen() bool { return s.frozen }

// Changed returns the names of columns whose value differs from the original.
func (s *Set) Changed() []string {
	var out []string
	for _, name := range s.order {
		if s.attrs[name].Changed() {
			out = append(out, name)
		}
	}
	return out
}

// Equal compares column names and values of two sets.
func (s *Set) Equal(other *Set) bool {
	if s == other {
		return true
	}
	if s == nil || other == nil || len(s.order) != len(other.order) {
		return false
	}
	for i, name := range s.order {
		if other.order[i] != name {
			return false
		}
		if !ValuesEqual(s.attrs[name].value, other.attrs[name].value) {
			return false
		}
	}
	return true
}
