// Package record provides mapped classes and their instances.
//
// # Registration
//
// A Registry turns Definitions into Class descriptors. Each registered class,
// including single-table inheritance subclasses, owns an independent
// cache.FinderCache used by the finders:
//
//	reg := record.NewRegistry()
//	user := reg.MustRegister(record.Definition{
//		Name:       "User",
//		PrimaryKey: "id",
//		Columns: []attribute.Column{
//			{Name: "id", Type: attribute.Integer{}},
//			{Name: "email", Type: attribute.String{}},
//		},
//	})
//
// # Lifecycle
//
// Class.New builds a transient record from the class defaults and runs the
// initialize hooks. Class.Load and Class.Instantiate materialize persisted
// rows and run the load hooks. Record.Duplicate produces a transient copy
// with the primary key cleared, running the duplicate hooks and then the
// initialize hooks. Hook errors abort the operation.
//
// # Identity
//
// Two records are equal when they are the same instance, or when they share
// the identical class and a non-nil primary key. Hash is consistent with
// Equal and falls back to a per-instance token for unsaved records, so two
// unsaved records never collapse into one map entry. Compare orders records
// of one class by key tuple and reports ok=false otherwise.
//
// Freeze swaps the attribute set for a frozen clone. Readonly is independent
// and only concerns persistence.
package record
