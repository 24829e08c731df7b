package formstate

import (
	"github.com/reoring/formstate/internal/deep"
)

// Watch returns the value at name and subscribes name to watch updates:
// later changes beneath it publish a state update carrying TrackValues.
// defaultValue is returned while name holds no value.
func (c *Controller) Watch(name string, defaultValue ...any) any {
	name = normalize(name)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.watch[name] = true
	return c.watchValue(name, defaultValue)
}

// WatchMany is Watch for several names; the result lines up with names.
func (c *Controller) WatchMany(names ...string) []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]any, len(names))
	for i, n := range names {
		n = normalize(n)
		c.watch[n] = true
		out[i] = c.watchValue(n, nil)
	}
	return out
}

// WatchAll returns every value and subscribes the whole form to watch
// updates.
func (c *Controller) WatchAll() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.watchAll = true
	return deep.CloneMap(c.values)
}

// WatchFunc calls fn after every value change without tracking any state.
func (c *Controller) WatchFunc(fn func(ValuesEvent)) (unsubscribe func()) {
	return c.valuesSubject.Subscribe(fn)
}

// watchValue must hold c.mu.
func (c *Controller) watchValue(name string, defaultValue []any) any {
	if v, ok := getPath(c.values, name); ok && v != nil {
		return deep.Clone(v)
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	v, _ := getPath(c.defaults, name)
	return deep.Clone(v)
}
