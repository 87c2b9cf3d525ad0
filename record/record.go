package record

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-record-finder/attribute"
)

// State is the persistence state of a record.
type State int

const (
	StateTransient State = iota
	StatePersisted
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateTransient:
		return "transient"
	case StatePersisted:
		return "persisted"
	case StateDestroyed:
		return "destroyed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Record is one mapped instance. A record belongs to the goroutine that
// created or loaded it and is not safe for concurrent mutation.
type Record struct {
	class                *Class
	attributes           *attribute.Set
	newRecord            bool
	destroyed            bool
	readonly             bool
	markedForDestruction bool
	txState              map[string]any
	token                uuid.UUID
}

func newToken() uuid.UUID {
	return uuid.New()
}

// Class returns the class the record was built or loaded as.
func (r *Record) Class() *Class { return r.class }

// Token identifies this in-memory instance. Duplicates get a new one.
func (r *Record) Token() uuid.UUID { return r.token }

// Attributes returns the attribute set owned by the record.
func (r *Record) Attributes() *attribute.Set { return r.attributes }

// ID returns the primary key value, nil when unset or keyless.
func (r *Record) ID() any {
	if r.class.primaryKey == "" {
		return nil
	}
	return r.attributes.Value(r.class.primaryKey)
}

// Get returns the value of an attribute.
func (r *Record) Get(name string) any { return r.attributes.Value(name) }

// Has reports whether name is an attribute of the record.
func (r *Record) Has(name string) bool { return r.attributes.Has(name) }

// Set writes an attribute. It fails with *attribute.FrozenStateError on a
// frozen record.
func (r *Record) Set(name string, value any) error {
	return r.attributes.Write(name, value)
}

// Slice returns the named attribute values.
func (r *Record) Slice(names ...string) map[string]any {
	out := make(map[string]any, len(names))
	for _, name := range names {
		out[name] = attribute.CopyValue(r.attributes.Value(name))
	}
	return out
}

func (r *Record) assign(values map[string]any) error {
	if len(values) == 0 {
		return nil
	}
	for name := range values {
		if !r.attributes.Has(name) {
			return fmt.Errorf("%s: %w: %q", r.class.name, attribute.ErrUnknownAttribute, name)
		}
	}
	for _, name := range r.attributes.Keys() {
		v, ok := values[name]
		if !ok {
			continue
		}
		if err := r.attributes.Write(name, attribute.CopyValue(v)); err != nil {
			return fmt.Errorf("%s: %w", r.class.name, err)
		}
	}
	return nil
}

// IsNewRecord reports whether the record has not been persisted yet.
func (r *Record) IsNewRecord() bool { return r.newRecord }

// IsDestroyed reports whether the record was destroyed.
func (r *Record) IsDestroyed() bool { return r.destroyed }

// IsPersisted reports whether the record is stored and not destroyed.
func (r *Record) IsPersisted() bool { return !r.newRecord && !r.destroyed }

// State combines the new and destroyed flags.
func (r *Record) State() State {
	switch {
	case r.destroyed:
		return StateDestroyed
	case r.newRecord:
		return StateTransient
	}
	return StatePersisted
}

// MarkPersisted is called by the persistence layer after an insert.
func (r *Record) MarkPersisted() {
	r.newRecord = false
}

// MarkDestroyed is called by the persistence layer after a delete.
func (r *Record) MarkDestroyed() {
	r.destroyed = true
}

// Readonly reports whether persistence operations are blocked.
func (r *Record) Readonly() bool { return r.readonly }

// MarkReadonly blocks persistence operations. It does not freeze attributes.
func (r *Record) MarkReadonly() { r.readonly = true }

// MarkForDestruction flags the record for removal by an autosaving parent.
func (r *Record) MarkForDestruction() { r.markedForDestruction = true }

// MarkedForDestruction reports whether MarkForDestruction was called.
func (r *Record) MarkedForDestruction() bool { return r.markedForDestruction }

// Freeze swaps the attribute set for a frozen clone and returns r. Sets
// handed out before the call stay mutable.
func (r *Record) Freeze() *Record {
	r.attributes = r.attributes.Freeze()
	return r
}

// IsFrozen reports whether attribute writes are rejected.
func (r *Record) IsFrozen() bool { return r.attributes.IsFrozen() }

// Thaw replaces a frozen attribute set with a mutable copy and returns r.
func (r *Record) Thaw() *Record {
	r.attributes = r.attributes.Thaw()
	return r
}

// TransactionState is scratch storage for a transaction layer. The core
// never reads it.
func (r *Record) TransactionState() map[string]any { return r.txState }

// SetTransactionState stores value under key in the transaction scratch.
func (r *Record) SetTransactionState(key string, value any) { r.txState[key] = value }

// ClearTransactionState empties the transaction scratch.
func (r *Record) ClearTransactionState() { r.txState = map[string]any{} }

// Duplicate returns a detached transient copy: attributes are deep-copied
// with the primary key cleared, the copy gets a new token and an empty
// transaction scratch. The duplicate hooks run before the initialize hooks.
func (r *Record) Duplicate(ctx context.Context) (*Record, error) {
	dup := &Record{
		class:      r.class,
		attributes: r.attributes.Duplicate(r.class.primaryKey),
		newRecord:  true,
		readonly:   r.readonly,
		txState:    map[string]any{},
		token:      newToken(),
	}
	if err := r.class.runHooks(ctx, HookDuplicate, dup); err != nil {
		return nil, err
	}
	if err := r.class.runHooks(ctx, HookInitialize, dup); err != nil {
		return nil, err
	}
	return dup, nil
}

// String renders the record as #<User id: 1, email: "a@example.com">.
func (r *Record) String() string {
	keys := r.attributes.Keys()
	parts := make([]string, 0, len(keys))
	for _, name := range keys {
		parts = append(parts, name+": "+inspectValue(r.attributes.Value(name)))
	}
	if len(parts) == 0 {
		return "#<" + r.class.name + ">"
	}
	return "#<" + r.class.name + " " + strings.Join(parts, ", ") + ">"
}

func inspectValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "nil"
	case string:
		if len(t) > 50 {
			return fmt.Sprintf("%q", t[:50]+"...")
		}
		return fmt.Sprintf("%q", t)
	case time.Time:
		return fmt.Sprintf("%q", t.Format("2006-01-02 15:04:05"))
	case []byte:
		return fmt.Sprintf("<%d bytes of binary data>", len(t))
	}
	return fmt.Sprintf("%v", v)
}
