package formstate

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Mode selects when change and blur events trigger validation.
type Mode int

// The zero Mode selects the default: OnSubmit before the first submit,
// OnChange afterwards.
const (
	OnSubmit Mode = iota + 1
	OnBlur
	OnChange
	OnTouched
	All
)

var modeNames = map[Mode]string{
	OnSubmit:  "onSubmit",
	OnBlur:    "onBlur",
	OnChange:  "onChange",
	OnTouched: "onTouched",
	All:       "all",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode maps the textual form used in form definitions.
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return 0, nil
	}
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown mode %q", ErrInvalidOptions, s)
}

// CriteriaMode selects whether validation stops at a field's first failing
// rule or collects every failing rule into FieldError.Types.
type CriteriaMode int

const (
	CriteriaFirstError CriteriaMode = iota
	CriteriaAll
)

// Options configures a Controller. The zero value is usable.
type Options struct {
	// Mode applies before the first submit (default OnSubmit).
	Mode Mode
	// ReValidateMode applies after the first submit (default OnChange).
	// All and OnTouched are not valid here.
	ReValidateMode Mode

	DefaultValues map[string]any

	// Resolver replaces inline rule validation for the whole form.
	Resolver Resolver
	// Context is passed through to the Resolver untouched.
	Context any

	CriteriaMode CriteriaMode

	// ShouldFocusError focuses the first erroring field (in mount order)
	// after an invalid submit.
	ShouldFocusError bool
	// ShouldUnregister drops the value of a field once its widget detaches
	// and RemoveUnmounted runs.
	ShouldUnregister bool
	// ShouldUseNativeValidation forwards messages to widgets implementing
	// widget.NativeValidator.
	ShouldUseNativeValidation bool

	// DelayError debounces the display of change-triggered errors per field.
	DelayError time.Duration

	Logger *slog.Logger
}

func (o Options) normalize() (Options, error) {
	if o.Mode == 0 {
		o.Mode = OnSubmit
	}
	if o.ReValidateMode == 0 {
		o.ReValidateMode = OnChange
	}
	if _, ok := modeNames[o.Mode]; !ok {
		return o, fmt.Errorf("%w: mode %v", ErrInvalidOptions, o.Mode)
	}
	switch o.ReValidateMode {
	case OnSubmit, OnBlur, OnChange:
	default:
		return o, fmt.Errorf("%w: revalidate mode %v", ErrInvalidOptions, o.ReValidateMode)
	}
	if o.DelayError < 0 {
		return o, fmt.Errorf("%w: negative delay %v", ErrInvalidOptions, o.DelayError)
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o, nil
}

func (o Options) collectAll() bool { return o.CriteriaMode == CriteriaAll }

// Constraint is a rule value with an optional message.
type Constraint[T any] struct {
	Value   T
	Message string
}

// Constrain builds a Constraint; the message is optional.
func Constrain[T any](v T, message ...string) *Constraint[T] {
	c := &Constraint[T]{Value: v}
	if len(message) > 0 {
		c.Message = message[0]
	}
	return c
}

// Require marks a field required.
func Require(message ...string) *Constraint[bool] { return Constrain(true, message...) }

// Limit builds a Min or Max bound: a number, a time.Time, or a date string.
func Limit(v any, message ...string) *Constraint[any] { return Constrain(v, message...) }

// Length builds a MinLength or MaxLength bound.
func Length(n int, message ...string) *Constraint[int] { return Constrain(n, message...) }

// Matcher is satisfied by *regexp.Regexp and by the ECMAScript matcher in
// package rules.
type Matcher interface {
	MatchString(s string) bool
}

// Match builds a Pattern rule.
func Match(m Matcher, message ...string) *Constraint[Matcher] { return Constrain(m, message...) }

// Result is the outcome of a Validator. The zero value passes.
type Result struct {
	Failed  bool
	Message string
}

// Fail returns a failing Result.
func Fail(message string) Result { return Result{Failed: true, Message: message} }

// Check passes when ok holds and fails with message otherwise.
func Check(ok bool, message string) Result {
	if ok {
		return Result{}
	}
	return Fail(message)
}

// Validator is a custom rule. It receives the field value and a snapshot of
// every form value. A returned error is not a validation failure: it aborts
// the validation pass and reaches the caller.
type Validator func(ctx context.Context, value any, values map[string]any) (Result, error)

// NamedValidator is one entry of an ordered validator map; Name becomes the
// error type.
type NamedValidator struct {
	Name string
	Fn   Validator
}

// RegisterOptions are the rules and coercions of a field.
type RegisterOptions struct {
	Required  *Constraint[bool]
	Min       *Constraint[any]
	Max       *Constraint[any]
	MinLength *Constraint[int]
	MaxLength *Constraint[int]
	Pattern   *Constraint[Matcher]

	Validate    Validator
	ValidateMap []NamedValidator

	ValueAsNumber bool
	ValueAsDate   bool
	SetValueAs    func(any) any

	Disabled bool
	// Value is the initial value, used when neither the current values nor the
	// defaults hold one.
	Value any
	// Deps are re-validated after this field validates on change.
	Deps []string

	ShouldUnregister bool
}

func (o RegisterOptions) hasValidation() bool {
	return o.Required != nil || o.Min != nil || o.Max != nil || o.MinLength != nil ||
		o.MaxLength != nil || o.Pattern != nil || o.Validate != nil || len(o.ValidateMap) > 0
}

// SetValueOptions control the side effects of SetValue.
type SetValueOptions struct {
	ShouldValidate bool
	ShouldDirty    bool
	ShouldTouch    bool
}

// TriggerOptions control Trigger.
type TriggerOptions struct {
	ShouldFocus bool
}

// UnregisterOptions keep parts of a field's state when it is unregistered.
type UnregisterOptions struct {
	KeepValue        bool
	KeepError        bool
	KeepDirty        bool
	KeepTouched      bool
	KeepIsValid      bool
	KeepDefaultValue bool
}

// KeepStateOptions keep parts of the form state across Reset.
type KeepStateOptions struct {
	KeepValues             bool
	KeepDirtyValues        bool
	KeepDefaultValues      bool
	KeepErrors             bool
	KeepDirty              bool
	KeepTouched            bool
	KeepIsValid            bool
	KeepIsSubmitted        bool
	KeepIsSubmitSuccessful bool
	KeepSubmitCount        bool
}

// ResetFieldOptions control ResetField. A non-nil DefaultValue becomes the
// field's new default.
type ResetFieldOptions struct {
	KeepDirty    bool
	KeepTouched  bool
	KeepError    bool
	DefaultValue any
}

// SetErrorOptions control SetError.
type SetErrorOptions struct {
	ShouldFocus bool
}

// FocusOptions control SetFocus.
type FocusOptions struct {
	ShouldSelect bool
}
