package formstate

import (
	"context"
	"log/slog"
	"sync"

	"github.com/reoring/formstate/fieldpath"
	"github.com/reoring/formstate/internal/deep"
	"github.com/reoring/formstate/internal/dirty"
	"github.com/reoring/formstate/internal/subject"
)

// Controller owns the state of one form. It is safe for concurrent use;
// validators and resolvers run without the controller's lock held and
// observers are notified after it is released.
type Controller struct {
	mu   sync.Mutex
	opts Options
	log  *slog.Logger

	fields map[string]*field
	order  []string // mount order

	values   map[string]any
	defaults map[string]any
	errors   map[string]any
	dirty    map[string]any
	touched  map[string]any
	flags    formFlags

	arrays   map[string]*FieldArray
	unmount  map[string]bool
	watch    map[string]bool
	watchAll bool

	trackCounts   trackCounts
	explicitTrack Track

	gens     map[string]uint64 // per-field change generation
	validGen uint64
	delayed  map[string]*delayedError

	stateSubject  subject.Subject[StateUpdate]
	valuesSubject subject.Subject[ValuesEvent]
	arraySubject  subject.Subject[ArrayEvent]

	pending []func()
}

// New returns a Controller for opts.
func New(opts Options) (*Controller, error) {
	opts, err := opts.normalize()
	if err != nil {
		return nil, err
	}
	defaults := deep.CloneMap(opts.DefaultValues)
	c := &Controller{
		opts:     opts,
		log:      opts.Logger,
		fields:   map[string]*field{},
		values:   deep.CloneMap(defaults),
		defaults: defaults,
		errors:   map[string]any{},
		dirty:    map[string]any{},
		touched:  map[string]any{},
		arrays:   map[string]*FieldArray{},
		unmount:  map[string]bool{},
		watch:    map[string]bool{},
		gens:     map[string]uint64{},
		delayed:  map[string]*delayedError{},
	}
	c.log.Debug("controller created", "mode", opts.Mode.String(), "revalidate", opts.ReValidateMode.String(), "resolver", opts.Resolver != nil)
	return c, nil
}

// MustNew is New that panics on invalid options.
func MustNew(opts Options) *Controller {
	c, err := New(opts)
	if err != nil {
		panic(err)
	}
	return c
}

// unlock releases c.mu and then delivers queued notifications.
func (c *Controller) unlock() {
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()
	for _, fn := range pending {
		fn()
	}
}

// tracked returns the properties some observer reads. Must hold c.mu.
func (c *Controller) tracked() Track { return c.trackCounts.mask() | c.explicitTrack }

// Track opts into maintaining the given properties even without a state
// subscriber. Tracking TrackIsValid computes validity immediately.
func (c *Controller) Track(ctx context.Context, t Track) error {
	c.mu.Lock()
	c.explicitTrack |= t
	c.mu.Unlock()
	if t.Has(TrackIsValid) {
		return c.updateValid(ctx)
	}
	return nil
}

func (c *Controller) publishState(name string, changed Track) {
	if changed == 0 || c.stateSubject.Len() == 0 {
		return
	}
	u := StateUpdate{Name: name, Changed: changed, State: c.snapshot()}
	c.pending = append(c.pending, func() { c.stateSubject.Next(u) })
}

func (c *Controller) publishValues(name string, typ EventType) {
	if c.valuesSubject.Len() == 0 {
		return
	}
	ev := ValuesEvent{Name: name, Type: typ, Values: deep.CloneMap(c.values)}
	c.pending = append(c.pending, func() { c.valuesSubject.Next(ev) })
}

func (c *Controller) publishArray(name string) {
	if c.arraySubject.Len() == 0 {
		return
	}
	ev := ArrayEvent{Name: name, Values: deep.CloneMap(c.values)}
	c.pending = append(c.pending, func() { c.arraySubject.Next(ev) })
}

// GetValues returns a copy of every form value.
func (c *Controller) GetValues() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return deep.CloneMap(c.values)
}

// GetValue returns a copy of the value at name, or nil.
func (c *Controller) GetValue(name string) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, _ := getPath(c.values, normalize(name))
	return deep.Clone(v)
}

// DefaultValues returns a copy of the current defaults.
func (c *Controller) DefaultValues() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return deep.CloneMap(c.defaults)
}

// computeDirty reports whether any value differs from its default, by the
// same rule as DirtyFields: a nil value counts as absent. Must hold c.mu.
func (c *Controller) computeDirty() bool {
	return !dirty.IsEmpty(dirty.Fields(c.defaults, c.values))
}

func normalize(name string) string { return fieldpath.Normalize(name) }

func getPath(tree map[string]any, name string) (any, bool) {
	if name == "" {
		return tree, true
	}
	return fieldpath.Get(tree, name)
}

// setPath ignores ErrUnsafeSegment: registration already refused such names.
func setPath(tree map[string]any, name string, v any) {
	_ = fieldpath.Set(tree, name, v)
}

func unsetPath(tree map[string]any, name string) bool {
	return fieldpath.Unset(tree, name)
}

func (c *Controller) bumpGen(name string) uint64 {
	c.gens[name]++
	return c.gens[name]
}
