package formstate

import (
	"github.com/reoring/formstate/internal/deep"
)

// Track is a set of derived form-state properties. Observers declare the
// properties they read, and the controller skips work (isValid in
// particular) nobody tracks.
type Track uint16

const (
	TrackIsDirty Track = 1 << iota
	TrackDirtyFields
	TrackTouchedFields
	TrackIsValidating
	TrackIsValid
	TrackErrors
	// TrackSubmit covers IsSubmitting, IsSubmitted, IsSubmitSuccessful and
	// SubmitCount.
	TrackSubmit
	// TrackValues receives updates caused by changes to watched names.
	TrackValues

	TrackAll = TrackIsDirty | TrackDirtyFields | TrackTouchedFields | TrackIsValidating |
		TrackIsValid | TrackErrors | TrackSubmit | TrackValues
)

// Has reports whether every bit of o is set in t.
func (t Track) Has(o Track) bool { return t&o == o }

// FormState is a snapshot of the form-level state. Trees are copies.
type FormState struct {
	IsDirty            bool
	IsValidating       bool
	IsSubmitting       bool
	IsSubmitted        bool
	IsSubmitSuccessful bool
	SubmitCount        int
	// IsValid is only maintained while TrackIsValid is tracked.
	IsValid       bool
	Errors        FieldErrors
	DirtyFields   map[string]any
	TouchedFields map[string]any
}

// FieldState is the state of one field.
type FieldState struct {
	Invalid   bool
	IsDirty   bool
	IsTouched bool
	Error     *FieldError
}

// StateUpdate is published on the state channel.
type StateUpdate struct {
	// Name is the field the update originated from; empty for form-wide
	// updates.
	Name    string
	Changed Track
	State   FormState
}

// EventType distinguishes widget events.
type EventType int

const (
	EventChange EventType = iota
	EventBlur
	// EventSet marks programmatic writes (SetValue, Reset, field arrays).
	EventSet
)

func (e EventType) String() string {
	switch e {
	case EventChange:
		return "change"
	case EventBlur:
		return "blur"
	}
	return "set"
}

// ValuesEvent is published on the values channel after values change.
type ValuesEvent struct {
	// Name is empty when the whole form changed (Reset, Unregister).
	Name   string
	Type   EventType
	Values map[string]any
}

// ArrayEvent is published when a field array changes structure or is
// replaced wholesale.
type ArrayEvent struct {
	// Name is empty on Reset.
	Name   string
	Values map[string]any
}

type formFlags struct {
	isDirty            bool
	isValidating       int
	isSubmitting       bool
	isSubmitted        bool
	isSubmitSuccessful bool
	submitCount        int
	isValid            bool
}

// snapshot copies the current state. Must hold c.mu.
func (c *Controller) snapshot() FormState {
	return FormState{
		IsDirty:            c.flags.isDirty,
		IsValidating:       c.flags.isValidating > 0,
		IsSubmitting:       c.flags.isSubmitting,
		IsSubmitted:        c.flags.isSubmitted,
		IsSubmitSuccessful: c.flags.isSubmitSuccessful,
		SubmitCount:        c.flags.submitCount,
		IsValid:            c.flags.isValid,
		Errors:             FieldErrors(deep.CloneMap(c.errors)),
		DirtyFields:        deep.CloneMap(c.dirty),
		TouchedFields:      deep.CloneMap(c.touched),
	}
}

// FormState returns a snapshot of the form state.
func (c *Controller) FormState() FormState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// GetFieldState returns the state of one field (or of a subtree).
func (c *Controller) GetFieldState(name string) FieldState {
	name = normalize(name)
	c.mu.Lock()
	defer c.mu.Unlock()
	fs := FieldState{
		Invalid:   FieldErrors(c.errors).Has(name),
		IsDirty:   truthyAt(c.dirty, name),
		IsTouched: truthyAt(c.touched, name),
	}
	if e, ok := FieldErrors(c.errors).Get(name); ok {
		fs.Error = &e
	}
	return fs
}

// SubscribeState registers fn for state updates touching any property in
// track (zero means every update). The properties are tracked until the
// returned function is called.
func (c *Controller) SubscribeState(track Track, fn func(StateUpdate)) (unsubscribe func()) {
	if track == 0 {
		track = TrackAll
	}
	c.mu.Lock()
	c.trackCounts.add(track)
	c.mu.Unlock()
	unsub := c.stateSubject.Subscribe(func(u StateUpdate) {
		if u.Changed&track != 0 {
			fn(u)
		}
	})
	var once bool
	return func() {
		c.mu.Lock()
		if once {
			c.mu.Unlock()
			return
		}
		once = true
		c.trackCounts.remove(track)
		c.mu.Unlock()
		unsub()
	}
}

// SubscribeArray registers fn for field-array events.
func (c *Controller) SubscribeArray(fn func(ArrayEvent)) (unsubscribe func()) {
	return c.arraySubject.Subscribe(fn)
}

// trackCounts reference-counts tracked properties per bit.
type trackCounts [16]int

func (t *trackCounts) add(track Track) {
	for i := range t {
		if track&(1<<i) != 0 {
			t[i]++
		}
	}
}

func (t *trackCounts) remove(track Track) {
	for i := range t {
		if track&(1<<i) != 0 && t[i] > 0 {
			t[i]--
		}
	}
}

func (t *trackCounts) mask() Track {
	var m Track
	for i, n := range t {
		if n > 0 {
			m |= 1 << i
		}
	}
	return m
}

func truthyAt(tree map[string]any, name string) bool {
	v, ok := getPath(tree, name)
	if !ok {
		return false
	}
	if b, isBool := v.(bool); isBool {
		return b
	}
	return v != nil
}
