package formstate

import (
	"github.com/reoring/formstate/fieldpath"
	"github.com/reoring/formstate/widget"
)

// field is the registration record of one named input.
type field struct {
	name      string
	opts      RegisterOptions
	ref       widget.Ref
	mounted   bool
	arrayRoot bool
}

func (f *field) coercion() widget.Coercion {
	return widget.Coercion{AsNumber: f.opts.ValueAsNumber, AsDate: f.opts.ValueAsDate, SetValueAs: f.opts.SetValueAs}
}

func (f *field) disabled() bool {
	if f.opts.Disabled {
		return true
	}
	els := f.ref.Elements()
	if len(els) == 0 {
		return false
	}
	for _, el := range els {
		if !el.Disabled() {
			return false
		}
	}
	return true
}

func (f *field) focus(shouldSelect bool) bool {
	el := f.ref.First()
	if el == nil {
		return false
	}
	fo, ok := el.(widget.Focuser)
	if !ok {
		return false
	}
	fo.Focus()
	if s, ok := el.(widget.Selecter); ok && shouldSelect {
		s.Select()
	}
	return true
}

// addField registers f at the end of the mount order. Must hold c.mu.
func (c *Controller) addField(f *field) {
	c.fields[f.name] = f
	c.order = append(c.order, f.name)
}

// removeField drops name from the registry. Must hold c.mu.
func (c *Controller) removeField(name string) {
	if _, ok := c.fields[name]; !ok {
		return
	}
	delete(c.fields, name)
	for i, n := range c.order {
		if n == name {
			c.order = append(c.order[:i:i], c.order[i+1:]...)
			break
		}
	}
}

// fieldsUnder returns, in mount order, the field named prefix and every field
// below it. An empty prefix selects every field. Must hold c.mu.
func (c *Controller) fieldsUnder(prefix string) []*field {
	var out []*field
	for _, n := range c.order {
		if prefix == "" || fieldpath.HasPrefix(n, prefix) {
			out = append(out, c.fields[n])
		}
	}
	return out
}

// isParent reports whether some field lies strictly below name. Must hold
// c.mu.
func (c *Controller) isParent(name string) bool {
	for _, n := range c.order {
		if n != name && fieldpath.HasPrefix(n, name) {
			return true
		}
	}
	return false
}

// known reports whether name may carry an error: a field, a parent of
// fields, a field array, or a root error path. Must hold c.mu.
func (c *Controller) known(name string) bool {
	if _, ok := c.fields[name]; ok {
		return true
	}
	if fieldpath.HasPrefix(name, RootErrorKey) {
		return true
	}
	for arr := range c.arrays {
		if fieldpath.HasPrefix(name, arr) {
			return true
		}
	}
	return c.isParent(name)
}
