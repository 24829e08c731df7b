package formstate_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	formstate "github.com/reoring/formstate"
	"github.com/reoring/formstate/widget"
)

func TestRequired_OnSubmit(t *testing.T) {
	ctx := context.Background()
	c := formstate.MustNew(formstate.Options{})
	b, err := c.Register("firstName", formstate.RegisterOptions{Required: formstate.Require("first name is required")})
	require.NoError(t, err)
	el := widget.NewInput("firstName", "text")
	b.Ref(el)

	var invalid formstate.FieldErrors
	submit := c.HandleSubmit(
		func(context.Context, map[string]any) error { t.Fatal("onValid called for an empty required field"); return nil },
		func(_ context.Context, errs formstate.FieldErrors) error { invalid = errs; return nil },
	)
	require.NoError(t, submit(ctx))

	fe, ok := invalid.Get("firstName")
	require.True(t, ok)
	require.Equal(t, formstate.TypeRequired, fe.Type)
	require.Equal(t, "first name is required", fe.Message)
	require.Same(t, el, fe.Ref)

	st := c.FormState()
	require.True(t, st.IsSubmitted)
	require.False(t, st.IsSubmitSuccessful)
	require.Equal(t, 1, st.SubmitCount)

	// After the first submit the default ReValidateMode (OnChange) applies.
	el.SetValue("Bill")
	require.NoError(t, b.OnChange(ctx))
	require.False(t, c.GetFieldState("firstName").Invalid)
	require.Equal(t, "Bill", c.GetValue("firstName"))
}

func TestMax_OnChange(t *testing.T) {
	ctx := context.Background()
	c := formstate.MustNew(formstate.Options{Mode: formstate.OnChange})
	_, err := c.Register("age", formstate.RegisterOptions{Max: formstate.Limit(8, "too old"), ValueAsNumber: true})
	require.NoError(t, err)

	require.NoError(t, c.Change(ctx, "age", "12"))
	fs := c.GetFieldState("age")
	require.True(t, fs.Invalid)
	require.Equal(t, formstate.TypeMax, fs.Error.Type)
	require.Equal(t, "too old", fs.Error.Message)
	require.Equal(t, 12.0, c.GetValue("age"))

	require.NoError(t, c.Change(ctx, "age", "8"))
	require.False(t, c.GetFieldState("age").Invalid)
}

func TestOnSubmitMode_SkipsChangeValidation(t *testing.T) {
	ctx := context.Background()
	c := formstate.MustNew(formstate.Options{})
	_, err := c.Register("a", formstate.RegisterOptions{Required: formstate.Require()})
	require.NoError(t, err)
	require.NoError(t, c.Change(ctx, "a", ""))
	require.False(t, c.GetFieldState("a").Invalid)
}

func TestCriteriaAll_CollectsTypes(t *testing.T) {
	ctx := context.Background()
	c := formstate.MustNew(formstate.Options{CriteriaMode: formstate.CriteriaAll})
	_, err := c.Register("code", formstate.RegisterOptions{
		MinLength: formstate.Length(3, "too short"),
		Pattern:   formstate.Match(regexp.MustCompile(`^\d+$`), "digits only"),
	})
	require.NoError(t, err)
	require.NoError(t, c.SetValue(ctx, "code", "ab", formstate.SetValueOptions{}))

	ok, err := c.Trigger(ctx, []string{"code"}, formstate.TriggerOptions{})
	require.NoError(t, err)
	require.False(t, ok)

	fe := c.GetFieldState("code").Error
	require.NotNil(t, fe)
	require.Equal(t, formstate.TypePattern, fe.Type)
	require.Equal(t, map[string]string{
		formstate.TypeMinLength: "too short",
		formstate.TypePattern:   "digits only",
	}, fe.Types)
}

func TestHandleSubmit_Lifecycle(t *testing.T) {
	ctx := context.Background()
	c := formstate.MustNew(formstate.Options{DefaultValues: map[string]any{"name": "x"}})
	_, err := c.Register("name", formstate.RegisterOptions{Required: formstate.Require()})
	require.NoError(t, err)

	boom := errors.New("boom")
	var payload map[string]any
	err = c.HandleSubmit(func(_ context.Context, v map[string]any) error {
		payload = v
		require.True(t, c.FormState().IsSubmitting)
		return boom
	}, nil)(ctx)
	require.ErrorIs(t, err, boom)
	require.Equal(t, map[string]any{"name": "x"}, payload)

	st := c.FormState()
	require.True(t, st.IsSubmitted)
	require.False(t, st.IsSubmitting)
	require.False(t, st.IsSubmitSuccessful)
	require.Equal(t, 1, st.SubmitCount)

	require.NoError(t, c.HandleSubmit(nil, nil)(ctx))
	st = c.FormState()
	require.True(t, st.IsSubmitSuccessful)
	require.Equal(t, 2, st.SubmitCount)
}

func TestHandleSubmit_ValidatorErrorPropagates(t *testing.T) {
	ctx := context.Background()
	broken := errors.New("lookup failed")
	c := formstate.MustNew(formstate.Options{})
	_, err := c.Register("a", formstate.RegisterOptions{
		Validate: func(context.Context, any, map[string]any) (formstate.Result, error) {
			return formstate.Result{}, broken
		},
	})
	require.NoError(t, err)

	err = c.HandleSubmit(nil, nil)(ctx)
	require.ErrorIs(t, err, broken)
	st := c.FormState()
	require.True(t, st.IsSubmitted)
	require.False(t, st.IsSubmitSuccessful)
}

func TestHandleSubmit_FocusAndNativeValidation(t *testing.T) {
	ctx := context.Background()
	c := formstate.MustNew(formstate.Options{ShouldFocusError: true, ShouldUseNativeValidation: true})
	first := widget.NewInput("first", "text", widget.WithValue("ok"))
	second := widget.NewInput("second", "text")
	b1, _ := c.Register("first", formstate.RegisterOptions{Required: formstate.Require("needed")})
	b2, _ := c.Register("second", formstate.RegisterOptions{Required: formstate.Require("needed")})
	b1.Ref(first)
	b2.Ref(second)

	require.NoError(t, c.HandleSubmit(nil, nil)(ctx))
	require.Equal(t, 0, first.Focused())
	require.Equal(t, 1, second.Focused())
	require.Equal(t, "needed", second.ValidationMessage())
	require.Empty(t, first.ValidationMessage())
}

func TestSubscribeState_FanOutAndUnsubscribe(t *testing.T) {
	ctx := context.Background()
	c := formstate.MustNew(formstate.Options{Mode: formstate.OnChange})
	_, err := c.Register("a", formstate.RegisterOptions{Required: formstate.Require()})
	require.NoError(t, err)

	var first, second []formstate.StateUpdate
	unsub := c.SubscribeState(formstate.TrackErrors, func(u formstate.StateUpdate) { first = append(first, u) })
	defer c.SubscribeState(formstate.TrackErrors, func(u formstate.StateUpdate) { second = append(second, u) })()

	require.NoError(t, c.Change(ctx, "a", ""))
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	require.Equal(t, "a", first[0].Name)
	require.True(t, first[0].Changed.Has(formstate.TrackErrors))
	require.True(t, first[0].State.Errors.Has("a"))

	unsub()
	unsub()
	require.NoError(t, c.Change(ctx, "a", "x"))
	require.Len(t, first, 1)
	require.Len(t, second, 2)
	require.False(t, second[1].State.Errors.Has("a"))
}

func TestIsValid_OnlyWhenTracked(t *testing.T) {
	ctx := context.Background()
	c := formstate.MustNew(formstate.Options{
		Mode:          formstate.OnChange,
		DefaultValues: map[string]any{"a": "x"},
	})
	_, err := c.Register("a", formstate.RegisterOptions{Required: formstate.Require()})
	require.NoError(t, err)
	require.False(t, c.FormState().IsValid)

	require.NoError(t, c.Track(ctx, formstate.TrackIsValid))
	require.True(t, c.FormState().IsValid)

	require.NoError(t, c.Change(ctx, "a", ""))
	require.False(t, c.FormState().IsValid)
	require.NoError(t, c.Change(ctx, "a", "y"))
	require.True(t, c.FormState().IsValid)
}

func TestDirtyAndTouched(t *testing.T) {
	ctx := context.Background()
	c := formstate.MustNew(formstate.Options{DefaultValues: map[string]any{"name": "a"}})
	_, err := c.Register("name", formstate.RegisterOptions{})
	require.NoError(t, err)

	require.NoError(t, c.Blur(ctx, "name"))
	fs := c.GetFieldState("name")
	require.True(t, fs.IsTouched)
	require.False(t, fs.IsDirty)

	require.NoError(t, c.Change(ctx, "name", "b"))
	st := c.FormState()
	require.True(t, st.IsDirty)
	require.Equal(t, map[string]any{"name": true}, st.DirtyFields)

	require.NoError(t, c.Change(ctx, "name", "a"))
	st = c.FormState()
	require.False(t, st.IsDirty)
	require.Empty(t, st.DirtyFields)
	require.Equal(t, map[string]any{"name": true}, st.TouchedFields)
}

func TestResolver(t *testing.T) {
	ctx := context.Background()
	var seen formstate.ResolverOptions
	resolver := func(_ context.Context, values map[string]any, rctx any, opts formstate.ResolverOptions) (formstate.ResolverResult, error) {
		seen = opts
		require.Equal(t, "tenant", rctx)
		email, _ := values["email"].(string)
		if email == "" {
			return formstate.ResolverResult{Errors: formstate.FieldErrors{
				"email": formstate.FieldError{Type: formstate.TypeRequired, Message: "email required"},
			}}, nil
		}
		return formstate.ResolverResult{Values: map[string]any{"email": "normalized:" + email}}, nil
	}
	c := formstate.MustNew(formstate.Options{Resolver: resolver, Context: "tenant"})
	_, err := c.Register("email", formstate.RegisterOptions{})
	require.NoError(t, err)

	var invalid formstate.FieldErrors
	require.NoError(t, c.HandleSubmit(nil, func(_ context.Context, errs formstate.FieldErrors) error {
		invalid = errs
		return nil
	})(ctx))
	require.True(t, invalid.Has("email"))
	require.Equal(t, []string{"email"}, seen.Names)
	require.Contains(t, seen.Fields, "email")

	require.NoError(t, c.SetValue(ctx, "email", "a@b", formstate.SetValueOptions{}))
	var payload map[string]any
	require.NoError(t, c.HandleSubmit(func(_ context.Context, v map[string]any) error {
		payload = v
		return nil
	}, nil)(ctx))
	require.Equal(t, map[string]any{"email": "normalized:a@b"}, payload)
	require.Zero(t, c.FormState().Errors.Len())
}

func TestDeps_RevalidateDependents(t *testing.T) {
	ctx := context.Background()
	c := formstate.MustNew(formstate.Options{Mode: formstate.OnChange})
	_, err := c.Register("password", formstate.RegisterOptions{Deps: []string{"confirm"}})
	require.NoError(t, err)
	_, err = c.Register("confirm", formstate.RegisterOptions{
		Validate: func(_ context.Context, v any, values map[string]any) (formstate.Result, error) {
			return formstate.Check(v == values["password"], "passwords differ"), nil
		},
	})
	require.NoError(t, err)

	require.NoError(t, c.Change(ctx, "confirm", "secret"))
	require.True(t, c.GetFieldState("confirm").Invalid)

	require.NoError(t, c.Change(ctx, "password", "secret"))
	require.False(t, c.GetFieldState("confirm").Invalid)
}

func TestDelayError(t *testing.T) {
	ctx := context.Background()
	c := formstate.MustNew(formstate.Options{Mode: formstate.OnChange, DelayError: 20 * time.Millisecond})
	_, err := c.Register("a", formstate.RegisterOptions{Required: formstate.Require()})
	require.NoError(t, err)

	require.NoError(t, c.Change(ctx, "a", ""))
	require.False(t, c.GetFieldState("a").Invalid)
	require.Eventually(t, func() bool { return c.GetFieldState("a").Invalid }, time.Second, 5*time.Millisecond)

	c.ClearErrors()
	require.NoError(t, c.Change(ctx, "a", ""))
	require.NoError(t, c.Change(ctx, "a", "fixed"))
	time.Sleep(60 * time.Millisecond)
	require.False(t, c.GetFieldState("a").Invalid)
}

func TestDelayError_FlushedOnBlur(t *testing.T) {
	ctx := context.Background()
	c := formstate.MustNew(formstate.Options{Mode: formstate.OnChange, DelayError: time.Hour})
	_, err := c.Register("a", formstate.RegisterOptions{Required: formstate.Require()})
	require.NoError(t, err)

	require.NoError(t, c.Change(ctx, "a", ""))
	require.False(t, c.GetFieldState("a").Invalid)
	require.NoError(t, c.Blur(ctx, "a"))
	require.True(t, c.GetFieldState("a").Invalid)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	c := formstate.MustNew(formstate.Options{DefaultValues: map[string]any{"a": "1"}})
	b, err := c.Register("a", formstate.RegisterOptions{})
	require.NoError(t, err)
	el := widget.NewInput("a", "text")
	b.Ref(el)
	require.Equal(t, "1", el.Value())

	require.NoError(t, c.Change(ctx, "a", "2"))
	require.NoError(t, c.SetError("a", formstate.FieldError{Type: "server"}, formstate.SetErrorOptions{}))

	c.Reset(map[string]any{"a": "3"}, formstate.KeepStateOptions{})
	st := c.FormState()
	require.False(t, st.IsDirty)
	require.Zero(t, st.Errors.Len())
	require.Equal(t, map[string]any{"a": "3"}, c.GetValues())
	require.Equal(t, map[string]any{"a": "3"}, c.DefaultValues())
	require.Equal(t, "3", el.Value())

	c.Reset(map[string]any{"a": "4"}, formstate.KeepStateOptions{KeepDefaultValues: true})
	st = c.FormState()
	require.True(t, st.IsDirty)
	require.Equal(t, map[string]any{"a": true}, st.DirtyFields)
	require.Equal(t, map[string]any{"a": "3"}, c.DefaultValues())

	c.Reset(nil, formstate.KeepStateOptions{})
	require.Equal(t, map[string]any{"a": "3"}, c.GetValues())
	require.False(t, c.FormState().IsDirty)
}

func TestResetField(t *testing.T) {
	ctx := context.Background()
	c := formstate.MustNew(formstate.Options{DefaultValues: map[string]any{"a": "1"}})
	_, err := c.Register("a", formstate.RegisterOptions{})
	require.NoError(t, err)
	require.NoError(t, c.Change(ctx, "a", "2"))
	require.NoError(t, c.Blur(ctx, "a"))

	require.NoError(t, c.ResetField("a", formstate.ResetFieldOptions{KeepTouched: true}))
	fs := c.GetFieldState("a")
	require.False(t, fs.IsDirty)
	require.True(t, fs.IsTouched)
	require.Equal(t, "1", c.GetValue("a"))

	require.NoError(t, c.ResetField("a", formstate.ResetFieldOptions{DefaultValue: "9"}))
	require.Equal(t, "9", c.GetValue("a"))
	require.False(t, c.FormState().IsDirty)

	require.ErrorIs(t, c.ResetField("missing", formstate.ResetFieldOptions{}), formstate.ErrUnknownField)
}

func TestSetError_RootPaths(t *testing.T) {
	ctx := context.Background()
	c := formstate.MustNew(formstate.Options{})
	require.NoError(t, c.SetError("root.server", formstate.FieldError{Type: "server", Message: "down"}, formstate.SetErrorOptions{}))
	require.True(t, c.FormState().Errors.Has("root.server"))
	require.ErrorIs(t, c.SetError("nope", formstate.FieldError{}, formstate.SetErrorOptions{}), formstate.ErrUnknownField)

	called := false
	require.NoError(t, c.HandleSubmit(func(context.Context, map[string]any) error {
		called = true
		return nil
	}, nil)(ctx))
	require.True(t, called)
	require.False(t, c.FormState().Errors.Has("root.server"))
}

func TestSetError_FocusAndClear(t *testing.T) {
	c := formstate.MustNew(formstate.Options{})
	b, _ := c.Register("a", formstate.RegisterOptions{})
	el := widget.NewInput("a", "text")
	b.Ref(el)

	require.NoError(t, c.SetError("a", formstate.FieldError{Type: "custom"}, formstate.SetErrorOptions{ShouldFocus: true}))
	require.Equal(t, 1, el.Focused())
	require.Same(t, el, c.GetFieldState("a").Error.Ref)

	c.ClearErrors("a")
	require.False(t, c.GetFieldState("a").Invalid)

	require.True(t, c.SetFocus("a", formstate.FocusOptions{ShouldSelect: true}))
	require.Equal(t, 1, el.Selections())
	require.False(t, c.SetFocus("missing", formstate.FocusOptions{}))
}

func TestWatch(t *testing.T) {
	ctx := context.Background()
	c := formstate.MustNew(formstate.Options{})
	_, err := c.Register("a", formstate.RegisterOptions{})
	require.NoError(t, err)

	require.Equal(t, "fallback", c.Watch("a", "fallback"))
	var updates int
	defer c.SubscribeState(formstate.TrackValues, func(formstate.StateUpdate) { updates++ })()
	var events []formstate.ValuesEvent
	defer c.WatchFunc(func(ev formstate.ValuesEvent) { events = append(events, ev) })()

	require.NoError(t, c.Change(ctx, "a", "v"))
	require.Equal(t, 1, updates)
	require.Len(t, events, 1)
	require.Equal(t, "a", events[0].Name)
	require.Equal(t, formstate.EventChange, events[0].Type)
	require.Equal(t, []any{"v", nil}, c.WatchMany("a", "b"))
}

func TestSetValue_DistributesOverChildren(t *testing.T) {
	ctx := context.Background()
	c := formstate.MustNew(formstate.Options{DefaultValues: map[string]any{"user": map[string]any{"first": "", "last": ""}}})
	first := widget.NewInput("user.first", "text")
	b, _ := c.Register("user.first", formstate.RegisterOptions{})
	b.Ref(first)
	_, _ = c.Register("user.last", formstate.RegisterOptions{})

	require.NoError(t, c.SetValue(ctx, "user", map[string]any{"first": "Ada", "last": "Lovelace"}, formstate.SetValueOptions{ShouldDirty: true}))
	require.Equal(t, "Ada", first.Value())
	require.Equal(t, map[string]any{"user": map[string]any{"first": true, "last": true}}, c.FormState().DirtyFields)
}

func TestUnregister(t *testing.T) {
	c := formstate.MustNew(formstate.Options{DefaultValues: map[string]any{"a": "1", "b": "2"}})
	_, _ = c.Register("a", formstate.RegisterOptions{})
	_, _ = c.Register("b", formstate.RegisterOptions{})
	require.NoError(t, c.SetError("a", formstate.FieldError{Type: "x"}, formstate.SetErrorOptions{}))

	c.Unregister([]string{"a"}, formstate.UnregisterOptions{})
	require.Equal(t, map[string]any{"b": "2"}, c.GetValues())
	require.False(t, c.FormState().Errors.Has("a"))

	c.Unregister([]string{"b"}, formstate.UnregisterOptions{KeepValue: true})
	require.Equal(t, map[string]any{"b": "2"}, c.GetValues())
}

func TestShouldUnregister_DropsDetachedFieldOnSubmit(t *testing.T) {
	ctx := context.Background()
	c := formstate.MustNew(formstate.Options{ShouldUnregister: true, DefaultValues: map[string]any{"a": "1", "b": "2"}})
	ba, _ := c.Register("a", formstate.RegisterOptions{})
	_, _ = c.Register("b", formstate.RegisterOptions{})
	ba.Ref(widget.NewInput("a", "text"))
	ba.Ref(nil)

	var payload map[string]any
	require.NoError(t, c.HandleSubmit(func(_ context.Context, v map[string]any) error {
		payload = v
		return nil
	}, nil)(ctx))
	require.Equal(t, map[string]any{"b": "2"}, payload)
}

func TestRegister_RejectsUnsafeNames(t *testing.T) {
	c := formstate.MustNew(formstate.Options{})
	_, err := c.Register("a.__proto__.b", formstate.RegisterOptions{})
	require.Error(t, err)
	_, err = c.Register("", formstate.RegisterOptions{})
	require.Error(t, err)
}

func TestNew_InvalidOptions(t *testing.T) {
	_, err := formstate.New(formstate.Options{ReValidateMode: formstate.All})
	require.ErrorIs(t, err, formstate.ErrInvalidOptions)
}

func TestResolver_NestedFieldErrors(t *testing.T) {
	ctx := context.Background()
	resolver := func(context.Context, map[string]any, any, formstate.ResolverOptions) (formstate.ResolverResult, error) {
		return formstate.ResolverResult{Errors: formstate.FieldErrors{
			"user": formstate.FieldErrors{"name": formstate.FieldError{Type: formstate.TypeRequired, Message: "name required"}},
		}}, nil
	}
	c := formstate.MustNew(formstate.Options{Resolver: resolver})
	_, err := c.Register("user.name", formstate.RegisterOptions{})
	require.NoError(t, err)

	var invalid formstate.FieldErrors
	require.NoError(t, c.HandleSubmit(
		func(context.Context, map[string]any) error { t.Fatal("onValid called with resolver errors"); return nil },
		func(_ context.Context, errs formstate.FieldErrors) error { invalid = errs; return nil },
	)(ctx))

	fe, ok := invalid.Get("user.name")
	require.True(t, ok)
	require.Equal(t, "name required", fe.Message)
	require.Equal(t, 1, c.FormState().Errors.Len())
	require.True(t, c.GetFieldState("user.name").Invalid)
	require.False(t, c.FormState().IsSubmitSuccessful)
}

func TestFieldErrors_NestedTreeLookup(t *testing.T) {
	errs := formstate.FieldErrors{
		"user": formstate.FieldErrors{"name": formstate.FieldError{Type: formstate.TypeRequired}},
	}
	require.Equal(t, 1, errs.Len())
	require.True(t, errs.Has("user"))
	fe, ok := errs.Get("user.name")
	require.True(t, ok)
	require.Equal(t, formstate.TypeRequired, fe.Type)
	require.Equal(t, "user.name", errs.Issues()[0].Path)
}

func TestIsDirty_FieldWithoutDefault(t *testing.T) {
	ctx := context.Background()
	c := formstate.MustNew(formstate.Options{DefaultValues: map[string]any{"b": "x"}})
	_, err := c.Register("a", formstate.RegisterOptions{})
	require.NoError(t, err)
	_, err = c.Register("b", formstate.RegisterOptions{})
	require.NoError(t, err)
	require.False(t, c.FormState().IsDirty)

	require.NoError(t, c.Change(ctx, "b", "y"))
	require.True(t, c.FormState().IsDirty)

	require.NoError(t, c.Change(ctx, "b", "x"))
	st := c.FormState()
	require.False(t, st.IsDirty)
	require.Empty(t, st.DirtyFields)
}

func TestClearErrors_CancelsDelayedErrors(t *testing.T) {
	ctx := context.Background()
	c := formstate.MustNew(formstate.Options{Mode: formstate.OnChange, DelayError: 20 * time.Millisecond})
	_, err := c.Register("a", formstate.RegisterOptions{Required: formstate.Require()})
	require.NoError(t, err)

	require.NoError(t, c.Change(ctx, "a", ""))
	c.ClearErrors()
	require.Never(t, func() bool { return c.GetFieldState("a").Invalid }, 80*time.Millisecond, 5*time.Millisecond)
}

func TestSubscribeState_SetValueOnWatchedPath(t *testing.T) {
	ctx := context.Background()
	c := formstate.MustNew(formstate.Options{})
	_, err := c.Register("a", formstate.RegisterOptions{})
	require.NoError(t, err)
	c.Watch("a")

	var first, second []formstate.StateUpdate
	unsub := c.SubscribeState(formstate.TrackValues, func(u formstate.StateUpdate) { first = append(first, u) })
	defer c.SubscribeState(formstate.TrackValues, func(u formstate.StateUpdate) { second = append(second, u) })()

	require.NoError(t, c.SetValue(ctx, "a", "v", formstate.SetValueOptions{}))
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	require.Equal(t, "a", first[0].Name)
	require.True(t, second[0].Changed.Has(formstate.TrackValues))

	unsub()
	require.NoError(t, c.SetValue(ctx, "a", "w", formstate.SetValueOptions{}))
	require.Len(t, first, 1)
	require.Len(t, second, 2)
}
