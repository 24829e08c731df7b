package formstate

import (
	"fmt"

	"github.com/reoring/formstate/widget"
)

// SetError records fe at name and marks the form invalid. name must be a
// registered field, a parent of fields, a field array (or its ".root"), or a
// "root.*" path. An error set on a parent replaces the errors beneath it.
func (c *Controller) SetError(name string, fe FieldError, opts SetErrorOptions) error {
	name = normalize(name)
	c.mu.Lock()
	if !c.known(name) {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	f := c.fields[name]
	fe.Ref = nil
	if f != nil {
		fe.Ref = f.ref.First()
	}
	c.cancelDelayed(name)
	setPath(c.errors, name, fe)
	c.flags.isValid = false
	c.publishState(name, TrackErrors|TrackIsValid)
	if opts.ShouldFocus && f != nil {
		c.pending = append(c.pending, func() { f.focus(false) })
	}
	c.unlock()
	return nil
}

// ClearErrors removes the errors at names, or every error when names is
// empty.
func (c *Controller) ClearErrors(names ...string) {
	c.mu.Lock()
	if len(names) == 0 {
		for n := range c.delayed {
			c.cancelDelayed(n)
		}
		c.errors = map[string]any{}
	}
	for _, n := range names {
		n = normalize(n)
		c.cancelDelayed(n)
		unsetPath(c.errors, n)
	}
	c.publishState(single(normalizeAll(names)), TrackErrors)
	c.unlock()
}

// SetFocus focuses the first widget of name and reports whether a focusable
// widget was found.
func (c *Controller) SetFocus(name string, opts FocusOptions) bool {
	c.mu.Lock()
	f, ok := c.fields[normalize(name)]
	var ref widget.Ref
	if ok {
		ref = f.ref
	}
	c.mu.Unlock()
	if !ok {
		return false
	}
	return (&field{ref: ref}).focus(opts.ShouldSelect)
}
