package record

import (
	"fmt"
	"sort"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/goliatone/go-record-finder/attribute"
	"github.com/goliatone/go-record-finder/cache"
)

// Registry holds the mapped classes of a program. Registering a class is the
// only place a FinderCache is allocated; every class, subclasses included,
// gets its own.
type Registry struct {
	classes *xsync.MapOf[string, *Class]
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{classes: xsync.NewMapOf[string, *Class]()}
}

// Register validates def and adds the class it describes.
func (r *Registry) Register(def Definition) (*Class, error) {
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("class %s: %w", def.Name, err)
	}

	var parent *Class
	if def.Parent != "" {
		p, ok := r.Lookup(def.Parent)
		if !ok {
			return nil, fmt.Errorf("class %s: %w: %s", def.Name, ErrUnknownParent, def.Parent)
		}
		parent = p
		def = inherit(def, p)
	}

	if def.Table == "" {
		def.Table = DefaultTableName(def.Name)
	}
	if def.InheritanceColumn == "" {
		def.InheritanceColumn = DefaultInheritanceColumn
	}

	defaults, err := attribute.New(def.Columns...)
	if err != nil {
		return nil, fmt.Errorf("class %s: %w", def.Name, err)
	}
	if def.PrimaryKey != "" && !defaults.Has(def.PrimaryKey) {
		return nil, fmt.Errorf("class %s: primary key %q is not a column", def.Name, def.PrimaryKey)
	}

	class := &Class{
		registry:          r,
		name:              def.Name,
		table:             def.Table,
		primaryKey:        def.PrimaryKey,
		inheritanceColumn: def.InheritanceColumn,
		parent:            parent,
		columns:           append([]attribute.Column(nil), def.Columns...),
		aggregations:      append([]string(nil), def.Aggregations...),
		defaults:          defaults.Freeze(),
		finderCache:       cache.NewFinderCache(),
		hooks:             xsync.NewMapOf[HookPoint, []Callback](),
	}

	if _, loaded := r.classes.LoadOrStore(def.Name, class); loaded {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateClass, def.Name)
	}
	return class, nil
}

// MustRegister is Register for package level declarations.
func (r *Registry) MustRegister(def Definition) *Class {
	class, err := r.Register(def)
	if err != nil {
		panic(err)
	}
	return class
}

// Lookup returns the class registered under name.
func (r *Registry) Lookup(name string) (*Class, bool) {
	return r.classes.Load(name)
}

// Classes returns the registered classes sorted by name.
func (r *Registry) Classes() []*Class {
	out := make([]*Class, 0, r.classes.Size())
	r.classes.Range(func(_ string, c *Class) bool {
		out = append(out, c)
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

func inherit(def Definition, parent *Class) Definition {
	if def.Table == "" {
		def.Table = parent.table
	}
	if def.PrimaryKey == "" {
		def.PrimaryKey = parent.primaryKey
	}
	if len(def.Columns) == 0 {
		def.Columns = append([]attribute.Column(nil), parent.columns...)
	}
	if def.InheritanceColumn == "" {
		def.InheritanceColumn = parent.inheritanceColumn
	}
	if len(def.Aggregations) == 0 {
		def.Aggregations = append([]string(nil), parent.aggregations...)
	}
	return def
}
