package formstate

import (
	"context"
	"strconv"

	"github.com/reoring/formstate/internal/deep"
	"github.com/reoring/formstate/internal/dirty"
	"github.com/reoring/formstate/widget"
)

// SetValue writes value at name and through to the bound widgets. Writing a
// container at the parent of registered fields distributes it over them.
// With ShouldValidate the written fields are validated before SetValue
// returns, and validator errors are returned.
func (c *Controller) SetValue(ctx context.Context, name string, value any, opts SetValueOptions) error {
	name, err := checkName(name)
	if err != nil {
		return err
	}
	c.mu.Lock()
	validate := c.setValueLocked(name, value, opts)
	c.unlock()
	if len(validate) > 0 {
		_, err := c.Trigger(ctx, validate, TriggerOptions{})
		return err
	}
	return c.updateValid(ctx)
}

// setValueLocked returns the names ShouldValidate asks to validate. Must
// hold c.mu.
func (c *Controller) setValueLocked(name string, value any, opts SetValueOptions) []string {
	v := deep.Clone(value)
	setPath(c.values, name, v)
	for _, f := range c.fieldsUnder(name) {
		c.bumpGen(f.name)
		c.cancelDelayed(f.name)
	}

	var validate []string
	_, isField := c.fields[name]
	switch arr, isArray := c.arrays[name]; {
	case isArray:
		list, _ := v.([]any)
		arr.resetIDs(len(list))
		c.applyUnder(name)
		c.publishArray(name)
		if opts.ShouldDirty {
			c.dirty = dirty.Fields(c.defaults, c.values)
			c.flags.isDirty = c.computeDirty()
			c.publishState(name, TrackIsDirty|TrackDirtyFields)
		}
		if opts.ShouldValidate {
			validate = append(validate, name)
		}
	case !isField && c.isParent(name) && !deep.IsPrimitive(v):
		c.setValues(name, v, opts, &validate)
	default:
		c.setFieldValueWithOptions(name, v, opts, &validate)
	}

	if c.isWatched(name, false) {
		c.publishState(name, TrackValues)
	}
	c.publishValues(name, EventSet)
	return validate
}

// setValues spreads a container over the fields registered beneath name.
// Must hold c.mu.
func (c *Controller) setValues(name string, value any, opts SetValueOptions, validate *[]string) {
	each := func(child string, x any) {
		_, isField := c.fields[child]
		_, isArray := c.arrays[child]
		_, isMap := x.(map[string]any)
		_, isList := x.([]any)
		if isMap || (isList && (isArray || (!isField && c.isParent(child)))) {
			c.setValues(child, x, opts, validate)
			return
		}
		c.setFieldValueWithOptions(child, x, opts, validate)
	}
	switch t := value.(type) {
	case map[string]any:
		for k, x := range t {
			each(name+"."+k, x)
		}
	case []any:
		for i, x := range t {
			each(name+"."+strconv.Itoa(i), x)
		}
	}
}

// setFieldValueWithOptions must hold c.mu.
func (c *Controller) setFieldValueWithOptions(name string, v any, opts SetValueOptions, validate *[]string) {
	if f, ok := c.fields[name]; ok {
		c.setFieldValue(f, v)
	}
	if opts.ShouldDirty || opts.ShouldTouch {
		cur, _ := getPath(c.values, name)
		c.updateTouchAndDirty(name, cur, opts.ShouldTouch, opts.ShouldDirty, true)
	}
	if opts.ShouldValidate {
		*validate = append(*validate, name)
	}
}

// applyUnder writes the current values into every widget at or below name.
// Must hold c.mu.
func (c *Controller) applyUnder(name string) {
	for _, f := range c.fieldsUnder(name) {
		if f.ref.IsZero() {
			continue
		}
		v, _ := getPath(c.values, f.name)
		widget.Apply(f.ref, v)
	}
}
