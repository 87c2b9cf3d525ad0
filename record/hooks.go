package record

import (
	"context"
	"fmt"
)

// HookPoint names a lifecycle event.
type HookPoint string

const (
	HookInitialize HookPoint = "initialize"
	HookLoad       HookPoint = "load"
	HookDuplicate  HookPoint = "duplicate"
)

// Callback runs at a HookPoint. A non-nil error aborts the operation and is
// returned to its caller.
type Callback func(ctx context.Context, r *Record) error

// On appends cb to the chain for point. Subclasses run the chains of their
// ancestors first.
func (c *Class) On(point HookPoint, cb Callback) {
	if cb == nil {
		return
	}
	c.hooks.Compute(point, func(old []Callback, _ bool) ([]Callback, bool) {
		next := make([]Callback, 0, len(old)+1)
		next = append(next, old...)
		return append(next, cb), false
	})
}

func (c *Class) chain(point HookPoint) []Callback {
	var lineage []*Class
	for k := c; k != nil; k = k.parent {
		lineage = append(lineage, k)
	}

	var out []Callback
	for i := len(lineage) - 1; i >= 0; i-- {
		if cbs, ok := lineage[i].hooks.Load(point); ok {
			out = append(out, cbs...)
		}
	}
	return out
}

func (c *Class) runHooks(ctx context.Context, point HookPoint, r *Record) error {
	for _, cb := range c.chain(point) {
		if err := cb(ctx, r); err != nil {
			return fmt.Errorf("%s %s hook: %w", c.name, point, err)
		}
	}
	return nil
}
