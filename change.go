package formstate

import (
	"context"
	"fmt"
	"time"

	"github.com/reoring/formstate/fieldpath"
	"github.com/reoring/formstate/internal/deep"
	"github.com/reoring/formstate/widget"
)

// Change records a new value for a registered field, as if its widget had
// fired a change event, and writes the value through to the widget.
func (c *Controller) Change(ctx context.Context, name string, value any) error {
	return c.dispatch(ctx, normalize(name), EventChange, value, true)
}

// Blur marks a registered field touched, as if its widget had lost focus.
func (c *Controller) Blur(ctx context.Context, name string) error {
	return c.dispatch(ctx, normalize(name), EventBlur, nil, false)
}

// dispatch handles a change or blur event for name. Without an explicit
// value, the value is read from the bound widget.
func (c *Controller) dispatch(ctx context.Context, name string, typ EventType, value any, hasValue bool) error {
	blur := typ == EventBlur
	c.mu.Lock()
	f, ok := c.fields[name]
	if !ok {
		c.unlock()
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	switch {
	case hasValue:
		value = f.coercion().Coerce(value)
		widget.Apply(f.ref, value)
	case f.ref.IsZero():
		value, _ = getPath(c.values, name)
	default:
		value, _ = widget.Value(f.ref, f.coercion())
	}

	hasError := FieldErrors(c.errors).Has(name)
	skip := (!f.opts.hasValidation() && c.opts.Resolver == nil && !hasError && len(f.opts.Deps) == 0) ||
		skipValidation(blur, truthyAt(c.touched, name), c.flags.isSubmitted, c.opts.ReValidateMode, c.opts.Mode)
	watched := c.isWatched(name, blur)

	setPath(c.values, name, deep.Clone(value))
	if blur {
		c.flushDelayed(name)
	}
	changed := c.updateTouchAndDirty(name, value, blur, false, false)
	if !blur {
		c.publishValues(name, typ)
	}
	gen := c.bumpGen(name)

	if skip {
		needValid := false
		if c.tracked().Has(TrackIsValid) {
			if c.opts.Mode == OnBlur {
				needValid = blur
			} else {
				needValid = !blur
			}
		}
		if watched {
			changed |= TrackValues
		}
		c.publishState(name, changed)
		c.unlock()
		if needValid {
			return c.updateValid(ctx)
		}
		return nil
	}
	if !blur && watched {
		c.publishState(name, TrackValues)
	}

	c.flags.isValidating++
	c.publishState(name, TrackIsValidating)
	var (
		fe        *FieldError
		valid     bool
		validKnow bool
		err       error
	)
	if c.opts.Resolver != nil {
		call := c.prepareResolver([]string{name})
		c.unlock()
		var res ResolverResult
		res, err = call.run(ctx)
		if err == nil {
			if e, ok := res.Errors.Get(name); ok {
				fe = &e
			}
			valid, validKnow = res.Errors.Len() == 0, true
		}
	} else {
		job := f.job()
		values := deep.CloneMap(c.values)
		collectAll, native := c.opts.collectAll(), c.opts.ShouldUseNativeValidation
		c.unlock()
		fe, err = validateField(ctx, job, values, collectAll, native)
		if fe != nil {
			valid, validKnow = false, true
		}
	}

	c.mu.Lock()
	c.flags.isValidating--
	if err != nil {
		c.publishState(name, TrackIsValidating)
		c.unlock()
		return err
	}
	if gen != c.gens[name] {
		// A newer event or write for this field superseded this run.
		c.publishState(name, TrackIsValidating)
		c.unlock()
		return nil
	}
	needValid := !validKnow && c.tracked().Has(TrackIsValid)
	deps := append([]string(nil), f.opts.Deps...)
	c.renderByError(name, fe, validKnow, valid, changed|TrackIsValidating)
	c.unlock()

	if len(deps) > 0 {
		if _, err := c.Trigger(ctx, deps, TriggerOptions{}); err != nil {
			return err
		}
	}
	if needValid {
		return c.updateValid(ctx)
	}
	return nil
}

// skipValidation applies the mode table: before the first submit Mode
// decides, afterwards ReValidateMode does.
func skipValidation(blur, touched, submitted bool, reValidate, mode Mode) bool {
	if mode == All {
		return false
	}
	if !submitted && mode == OnTouched {
		return !(touched || blur)
	}
	m := mode
	if submitted {
		m = reValidate
	}
	switch m {
	case OnBlur:
		return !blur
	case OnChange:
		return blur
	}
	return true
}

// isWatched must hold c.mu.
func (c *Controller) isWatched(name string, blur bool) bool {
	if blur {
		return false
	}
	if c.watchAll || c.watch[name] {
		return true
	}
	for w := range c.watch {
		if fieldpath.HasPrefix(name, w) {
			return true
		}
	}
	return false
}

// updateTouchAndDirty refreshes the dirty flag of name (unless this is a plain
// blur) and marks it touched on blur. It returns the properties that changed
// and publishes them when shouldRender is set. Must hold c.mu.
func (c *Controller) updateTouchAndDirty(name string, value any, blur, shouldDirty, shouldRender bool) Track {
	var changed Track
	if !blur || shouldDirty {
		wasDirty := c.flags.isDirty
		c.flags.isDirty = c.computeDirty()
		if wasDirty != c.flags.isDirty {
			changed |= TrackIsDirty
		}
		def, _ := getPath(c.defaults, name)
		pristine := deep.Equal(def, value)
		fieldWasDirty := truthyAt(c.dirty, name)
		if pristine {
			unsetPath(c.dirty, name)
		} else {
			setPath(c.dirty, name, true)
		}
		if fieldWasDirty == pristine {
			changed |= TrackDirtyFields
		}
	}
	if blur && !truthyAt(c.touched, name) {
		setPath(c.touched, name, true)
		changed |= TrackTouchedFields
	}
	if changed != 0 && shouldRender {
		c.publishState(name, changed)
	}
	return changed
}

// renderByError stores (or, with DelayError, schedules) the field's error
// and publishes when something observable changed. Must hold c.mu.
func (c *Controller) renderByError(name string, fe *FieldError, validKnown, valid bool, changed Track) {
	prev, hadPrev := FieldErrors(c.errors).Get(name)
	updateValid := c.tracked().Has(TrackIsValid) && validKnown && c.flags.isValid != valid

	if c.opts.DelayError > 0 && fe != nil {
		c.scheduleDelayed(name, *fe)
	} else {
		c.cancelDelayed(name)
		if fe != nil {
			setPath(c.errors, name, *fe)
		} else {
			unsetPath(c.errors, name)
		}
	}

	errChanged := (fe != nil && (!hadPrev || !prev.Equal(*fe))) || (fe == nil && hadPrev)
	if updateValid {
		c.flags.isValid = valid
		changed |= TrackIsValid
	}
	if errChanged {
		changed |= TrackErrors
	}
	c.publishState(name, changed)
}

type delayedError struct {
	timer *time.Timer
	err   FieldError
}

// scheduleDelayed writes fe after DelayError unless a newer event for the
// field arrives first. Must hold c.mu.
func (c *Controller) scheduleDelayed(name string, fe FieldError) {
	c.cancelDelayed(name)
	gen := c.gens[name]
	d := &delayedError{err: fe}
	d.timer = time.AfterFunc(c.opts.DelayError, func() {
		c.mu.Lock()
		if cur, ok := c.delayed[name]; !ok || cur != d || c.gens[name] != gen {
			c.mu.Unlock()
			return
		}
		delete(c.delayed, name)
		setPath(c.errors, name, d.err)
		c.publishState(name, TrackErrors)
		c.unlock()
	})
	c.delayed[name] = d
}

// cancelDelayed must hold c.mu.
func (c *Controller) cancelDelayed(name string) {
	if d, ok := c.delayed[name]; ok {
		d.timer.Stop()
		delete(c.delayed, name)
	}
}

// flushDelayed writes a pending delayed error immediately. Must hold c.mu.
func (c *Controller) flushDelayed(name string) {
	d, ok := c.delayed[name]
	if !ok {
		return
	}
	d.timer.Stop()
	delete(c.delayed, name)
	setPath(c.errors, name, d.err)
	c.publishState(name, TrackErrors)
}
