package formstate

import (
	"context"
	"fmt"

	"github.com/reoring/formstate/fieldpath"
	"github.com/reoring/formstate/internal/deep"
	"github.com/reoring/formstate/widget"
)

// Binding is what Register hands back for the host to wire to a widget.
type Binding struct {
	Name     string
	Disabled bool
	// OnChange reads the bound widget and runs change handling.
	OnChange func(ctx context.Context) error
	// OnBlur marks the field touched and runs blur handling.
	OnBlur func(ctx context.Context) error
	// Ref attaches a widget; nil detaches the field's widgets.
	Ref func(el widget.Element)
}

// Register adds a field, or updates the rules of an existing one, and returns
// its binding. The field's value is taken from the current values, then
// opts.Value, then the defaults.
func (c *Controller) Register(name string, opts RegisterOptions) (Binding, error) {
	name, err := checkName(name)
	if err != nil {
		return Binding{}, err
	}
	c.mu.Lock()
	c.registerLocked(name, opts)
	c.unlock()
	c.backgroundValid()
	return c.binding(name, opts), nil
}

func checkName(name string) (string, error) {
	n := normalize(name)
	if n == "" {
		return "", fmt.Errorf("register: %w", fieldpath.ErrEmptyPath)
	}
	if err := fieldpath.Set(map[string]any{}, n, nil); err != nil {
		return "", fmt.Errorf("register %q: %w", name, err)
	}
	return n, nil
}

// registerLocked must hold c.mu.
func (c *Controller) registerLocked(name string, opts RegisterOptions) *field {
	f, existed := c.fields[name]
	if existed {
		wasDisabled := f.opts.Disabled
		arrayRoot := f.arrayRoot
		f.opts = opts
		f.mounted = true
		f.arrayRoot = arrayRoot
		if wasDisabled != opts.Disabled {
			c.updateDisabledField(f)
		}
		return f
	}
	f = &field{name: name, opts: opts, mounted: true}
	c.addField(f)
	c.updateValidAndValue(f, true, opts.Value, nil)
	c.log.Debug("register", "field", name, "rules", opts.hasValidation())
	return f
}

func (c *Controller) binding(name string, opts RegisterOptions) Binding {
	return Binding{
		Name:     name,
		Disabled: opts.Disabled,
		OnChange: func(ctx context.Context) error {
			return c.dispatch(ctx, name, EventChange, nil, false)
		},
		OnBlur: func(ctx context.Context) error {
			return c.dispatch(ctx, name, EventBlur, nil, false)
		},
		Ref: func(el widget.Element) { c.attach(name, opts, el) },
	}
}

func (c *Controller) attach(name string, opts RegisterOptions, el widget.Element) {
	c.mu.Lock()
	if el == nil {
		if f, ok := c.fields[name]; ok {
			f.mounted = false
			if c.opts.ShouldUnregister || f.opts.ShouldUnregister {
				c.unmount[name] = true
			}
		}
		c.unlock()
		return
	}
	f, ok := c.fields[name]
	if !ok {
		f = c.registerLocked(name, opts)
	}
	if f.ref.Contains(el) {
		f.mounted = true
		c.unlock()
		return
	}
	f.ref = f.ref.Attach(el)
	f.mounted = true
	delete(c.unmount, name)
	c.updateValidAndValue(f, false, nil, el)
	c.unlock()
	c.backgroundValid()
}

// updateValidAndValue seeds the value of a freshly registered or attached
// field and writes it through to the widget. Must hold c.mu.
func (c *Controller) updateValidAndValue(f *field, skipSetValueAs bool, value any, el widget.Element) {
	current, ok := getPath(c.values, f.name)
	ok = ok && current != nil
	if !ok && value != nil {
		current, ok = value, true
	}
	if !ok {
		current, ok = getPath(c.defaults, f.name)
		ok = ok && current != nil
	}
	defaultChecked := false
	if ch, isCheckable := el.(widget.Checkable); isCheckable && ch.Checked() {
		defaultChecked = true
	}
	switch {
	case skipSetValueAs:
		if ok {
			setPath(c.values, f.name, deep.Clone(current))
		} else {
			setPath(c.values, f.name, nil)
		}
	case !ok || defaultChecked:
		v, _ := widget.Value(f.ref, f.coercion())
		setPath(c.values, f.name, v)
	default:
		c.setFieldValue(f, current)
	}
}

// setFieldValue writes v into the values tree (coerced) and into the widget.
// Must hold c.mu.
func (c *Controller) setFieldValue(f *field, v any) {
	if !f.opts.Disabled {
		setPath(c.values, f.name, f.coercion().Coerce(deep.Clone(v)))
	}
	widget.Apply(f.ref, v)
}

// updateDisabledField clears or restores the value of a field whose disabled
// option changed. Must hold c.mu.
func (c *Controller) updateDisabledField(f *field) {
	var v any
	if !f.opts.Disabled {
		cur, ok := getPath(c.values, f.name)
		if !ok || cur == nil {
			cur, _ = widget.Value(f.ref, f.coercion())
		}
		v = cur
	}
	setPath(c.values, f.name, v)
	c.updateTouchAndDirty(f.name, v, false, false, true)
}

// Unregister removes fields (every field when names is empty) together with
// their value, error, dirty, touched and default leaves unless opts keeps
// them.
func (c *Controller) Unregister(names []string, opts UnregisterOptions) {
	c.mu.Lock()
	c.unregisterLocked(names, opts)
	c.unlock()
	if !opts.KeepIsValid {
		c.backgroundValid()
	}
}

func (c *Controller) unregisterLocked(names []string, opts UnregisterOptions) {
	if len(names) == 0 {
		names = append([]string(nil), c.order...)
	}
	for _, raw := range names {
		name := normalize(raw)
		for _, f := range c.fieldsUnder(name) {
			c.removeField(f.name)
			c.cancelDelayed(f.name)
			delete(c.unmount, f.name)
		}
		delete(c.arrays, name)
		if !opts.KeepValue {
			unsetPath(c.values, name)
		}
		if !opts.KeepError {
			unsetPath(c.errors, name)
		}
		if !opts.KeepDirty {
			unsetPath(c.dirty, name)
		}
		if !opts.KeepTouched {
			unsetPath(c.touched, name)
		}
		if !c.opts.ShouldUnregister && !opts.KeepDefaultValue {
			unsetPath(c.defaults, name)
		}
		c.log.Debug("unregister", "field", name)
	}
	changed := TrackErrors | TrackDirtyFields | TrackTouchedFields
	if !opts.KeepDirty {
		dirty := c.computeDirty()
		if dirty != c.flags.isDirty {
			c.flags.isDirty = dirty
			changed |= TrackIsDirty
		}
	}
	c.publishValues("", EventSet)
	c.publishState("", changed)
}

// RemoveUnmounted unregisters fields whose widgets were detached while
// ShouldUnregister applied. HandleSubmit calls it first.
func (c *Controller) RemoveUnmounted() {
	c.mu.Lock()
	removed := c.removeUnmountedLocked()
	c.unlock()
	if removed {
		c.backgroundValid()
	}
}

func (c *Controller) removeUnmountedLocked() bool {
	var names []string
	for name := range c.unmount {
		if f, ok := c.fields[name]; ok && !f.mounted {
			names = append(names, name)
		}
	}
	c.unmount = map[string]bool{}
	if len(names) == 0 {
		return false
	}
	c.unregisterLocked(names, UnregisterOptions{})
	return true
}
