// Package attribute holds the column values of a mapped record.
//
// # Overview
//
// A Set is an ordered mapping from column name to Attribute. Each Attribute
// carries the current value, the value it was loaded with, the declared column
// Type and whether it has been initialized at all. A Set is owned by exactly one
// record; every operation that hands a Set to another owner produces a deep copy
// first.
//
// # Copy-on-write
//
// The class level default attributes are a template: records never write to it.
// Construction deep-copies the template, duplication deep-copies the source set
// and resets the primary key slot:
//
//	defaults := class.DefaultAttributes() // already a private copy
//	dup := set.Duplicate("id")            // set is untouched
//
// # Freezing
//
// Freeze returns a locked clone. Write and Reset on a frozen set fail with a
// *FrozenStateError and leave the set unchanged. Holders of the pre-freeze set
// keep a valid, mutable value. Thaw hands back a fresh mutable copy of a frozen
// set:
//
//	frozen := set.Freeze()
//	err := frozen.Write("email", "x") // *FrozenStateError
//	mutable := frozen.Thaw()
//
// # Types
//
// Column types cast values before they are stored or bound into a statement.
// Casting failures wrap ErrOutOfRange when the value cannot be represented by the
// column (for example an integer wider than the column limit) and ErrTypeMismatch
// when the value has an incompatible kind. Callers branch on them with errors.Is.
package attribute
