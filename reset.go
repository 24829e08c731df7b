package formstate

import (
	"fmt"

	"github.com/reoring/formstate/internal/deep"
	"github.com/reoring/formstate/internal/dirty"
	"github.com/reoring/formstate/widget"
)

// Reset replaces the form values, and the defaults unless KeepDefaultValues
// is set, with values. A nil or empty values resets to the current defaults.
// Registered fields stay registered and their widgets receive the new
// values; watched names are forgotten.
func (c *Controller) Reset(values map[string]any, opts KeepStateOptions) {
	c.mu.Lock()
	empty := len(values) == 0
	next := deep.CloneMap(c.defaults)
	if !empty {
		next = deep.CloneMap(values)
		if !opts.KeepDefaultValues {
			c.defaults = deep.CloneMap(values)
		}
	}

	if !opts.KeepValues {
		if opts.KeepDirtyValues {
			for _, n := range c.order {
				if truthyAt(c.dirty, n) {
					cur, _ := getPath(c.values, n)
					setPath(next, n, deep.Clone(cur))
				}
			}
		}
		c.values = next
		for _, n := range c.order {
			if f := c.fields[n]; !f.ref.IsZero() {
				v, _ := getPath(c.values, n)
				widget.Apply(f.ref, v)
			}
		}
		for name, arr := range c.arrays {
			list, _ := getPath(c.values, name)
			l, _ := list.([]any)
			arr.resetIDs(len(l))
		}
		c.publishArray("")
		c.publishValues("", EventSet)
	}

	for n := range c.delayed {
		c.cancelDelayed(n)
	}
	for _, n := range c.order {
		c.bumpGen(n)
	}
	c.watch = map[string]bool{}
	c.watchAll = false
	c.unmount = map[string]bool{}

	switch {
	case empty:
		c.flags.isDirty = false
	case opts.KeepDirty:
	default:
		c.flags.isDirty = opts.KeepDefaultValues && !deep.Equal(values, c.defaults)
	}
	switch {
	case empty:
		c.dirty = map[string]any{}
	case opts.KeepDirtyValues:
		if opts.KeepDefaultValues {
			c.dirty = dirty.Fields(c.defaults, c.values)
		}
	case opts.KeepDefaultValues:
		c.dirty = dirty.Fields(c.defaults, values)
	case !opts.KeepDirty:
		c.dirty = map[string]any{}
	}
	if !opts.KeepTouched {
		c.touched = map[string]any{}
	}
	if !opts.KeepErrors {
		c.errors = map[string]any{}
	}
	if !opts.KeepSubmitCount {
		c.flags.submitCount = 0
	}
	if !opts.KeepIsSubmitted {
		c.flags.isSubmitted = false
	}
	if !opts.KeepIsSubmitSuccessful {
		c.flags.isSubmitSuccessful = false
	}
	c.flags.isSubmitting = false
	c.publishState("", TrackAll&^TrackValues)
	c.log.Debug("reset", "fields", len(c.order), "keepValues", opts.KeepValues, "keepDefaults", opts.KeepDefaultValues)
	c.unlock()

	if !opts.KeepIsValid {
		c.backgroundValid()
	}
}

// ResetField restores one field (or a subtree of fields) to its default
// value. A non-nil opts.DefaultValue becomes the new default first.
func (c *Controller) ResetField(name string, opts ResetFieldOptions) error {
	name = normalize(name)
	c.mu.Lock()
	_, isField := c.fields[name]
	_, isArray := c.arrays[name]
	if !isField && !isArray && !c.isParent(name) {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	if opts.DefaultValue != nil {
		setPath(c.defaults, name, deep.Clone(opts.DefaultValue))
	}
	def, _ := getPath(c.defaults, name)
	c.setValueLocked(name, def, SetValueOptions{})
	if !opts.KeepTouched {
		unsetPath(c.touched, name)
	}
	if !opts.KeepDirty {
		unsetPath(c.dirty, name)
		c.flags.isDirty = c.computeDirty()
	}
	if !opts.KeepError {
		unsetPath(c.errors, name)
	}
	c.publishState(name, TrackIsDirty|TrackDirtyFields|TrackTouchedFields|TrackErrors)
	c.unlock()

	if !opts.KeepError {
		c.backgroundValid()
	}
	return nil
}
