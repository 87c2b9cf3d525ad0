// Package statement defines the query model shared by the finders and the
// database adapter.
//
// A Template is a compiled single row lookup for one Signature, the ordered
// column list it filters on. Templates are built by a Builder, bound with
// Template.Bind and executed by a Connection. The generic path skips templates
// and hands a Query to Connection.Select instead.
//
//	tmpl, err := builder.Build(ctx, class, statement.Signature{"id"}, conn.SupportsPreparedStatements())
//	bound, err := tmpl.Bind([]any{42})
//	rows, err := conn.Execute(ctx, tmpl, bound)
//
// Bindable decides whether a value may be bound into a cached template at all.
package statement
