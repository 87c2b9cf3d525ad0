package cache

import (
	"errors"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/goliatone/go-record-finder/statement"
)

// ErrNilTemplate is returned when a build function reports success without a template.
var ErrNilTemplate = errors.New("template builder returned nil")

// FinderCache memoizes compiled lookup templates for one class. Templates built
// for prepared and unprepared connections live in separate maps so a mode switch
// never hands out a template compiled for the other mode. Entries are never evicted.
type FinderCache struct {
	templates [2]*xsync.MapOf[string, *statement.Template]
}

// NewFinderCache returns an empty cache.
func NewFinderCache() *FinderCache {
	return &FinderCache{
		templates: [2]*xsync.MapOf[string, *statement.Template]{
			xsync.NewMapOf[string, *statement.Template](),
			xsync.NewMapOf[string, *statement.Template](),
		},
	}
}

func (c *FinderCache) mode(prepared bool) *xsync.MapOf[string, *statement.Template] {
	if prepared {
		return c.templates[1]
	}
	return c.templates[0]
}

// GetOrBuild returns the template for sig, calling build at most once per
// (mode, signature) even when many goroutines miss at the same time. A failing
// build stores nothing and its error is returned to the caller that ran it;
// the next call builds again.
func (c *FinderCache) GetOrBuild(prepared bool, sig statement.Signature, build func() (*statement.Template, error)) (*statement.Template, error) {
	m := c.mode(prepared)
	key := sig.Key()

	if tmpl, ok := m.Load(key); ok {
		return tmpl, nil
	}

	var buildErr error
	tmpl, _ := m.LoadOrTryCompute(key, func() (*statement.Template, bool) {
		built, err := build()
		if err != nil {
			buildErr = err
			return nil, true
		}
		if built == nil {
			buildErr = ErrNilTemplate
			return nil, true
		}
		return built, false
	})
	if buildErr != nil {
		return nil, buildErr
	}
	return tmpl, nil
}

// Lookup returns the cached template without building.
func (c *FinderCache) Lookup(prepared bool, sig statement.Signature) (*statement.Template, bool) {
	return c.mode(prepared).Load(sig.Key())
}

// Len returns the number of templates cached for the mode.
func (c *FinderCache) Len(prepared bool) int {
	return c.mode(prepared).Size()
}
