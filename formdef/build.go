package formdef

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/reoring/formstate"
	"github.com/reoring/formstate/internal/deep"
	"github.com/reoring/formstate/rules"
	"github.com/reoring/formstate/widget"
)

// Form is a built definition: a controller whose fields are bound to
// in-memory widgets.
type Form struct {
	Def        *Definition
	Controller *formstate.Controller
	// Inputs holds the widgets of each field; radio and checkbox fields with
	// options get one widget per option.
	Inputs map[string][]*widget.Input
	Arrays map[string]*formstate.FieldArray
}

// Build creates the controller for d. logger may be nil.
func (d *Definition) Build(logger *slog.Logger) (*Form, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	opts, err := d.Options()
	if err != nil {
		return nil, err
	}
	opts.Logger = logger
	c, err := formstate.New(opts)
	if err != nil {
		return nil, fmt.Errorf("form %q: %w", d.Name, err)
	}
	form := &Form{
		Def:        d,
		Controller: c,
		Inputs:     map[string][]*widget.Input{},
		Arrays:     map[string]*formstate.FieldArray{},
	}
	for _, a := range d.Arrays {
		r, _ := a.rules()
		arr, err := c.FieldArray(a.Name, formstate.FieldArrayOptions{Rules: r})
		if err != nil {
			return nil, fmt.Errorf("form %q: %w", d.Name, err)
		}
		form.Arrays[a.Name] = arr
	}
	for _, f := range d.Fields {
		ro, _ := f.registerOptions()
		b, err := c.Register(f.Name, ro)
		if err != nil {
			return nil, fmt.Errorf("form %q: %w", d.Name, err)
		}
		for _, el := range f.inputs() {
			b.Ref(el)
			form.Inputs[f.Name] = append(form.Inputs[f.Name], el)
		}
	}
	return form, nil
}

// Fill loads values into the form as user input. They are laid over the
// defaults, which stay, so everything that differs from them is dirty.
func (f *Form) Fill(values map[string]any) {
	merged := deep.Merge(f.Controller.DefaultValues(), deep.Clone(values))
	m, _ := merged.(map[string]any)
	f.Controller.Reset(m, formstate.KeepStateOptions{KeepDefaultValues: true})
}

// Submit runs a submission and returns the payload (when valid) and the
// errors (when not).
func (f *Form) Submit(ctx context.Context) (map[string]any, formstate.FieldErrors, error) {
	var (
		payload map[string]any
		errs    formstate.FieldErrors
	)
	err := f.Controller.HandleSubmit(
		func(_ context.Context, v map[string]any) error { payload = v; return nil },
		func(_ context.Context, e formstate.FieldErrors) error { errs = e; return nil },
	)(ctx)
	return payload, errs, err
}

func (f Field) registerOptions() (formstate.RegisterOptions, error) {
	ro := formstate.RegisterOptions{
		ValueAsNumber: f.ValueAsNumber,
		ValueAsDate:   f.ValueAsDate,
		Disabled:      f.Disabled,
		Deps:          f.Deps,
	}
	if on, msg := f.Required.flag(); on {
		ro.Required = formstate.Require(msg)
	}
	if f.Min != nil {
		ro.Min = formstate.Limit(normalize(f.Min.Value), f.Min.Message)
	}
	if f.Max != nil {
		ro.Max = formstate.Limit(normalize(f.Max.Value), f.Max.Message)
	}
	if f.MinLength != nil {
		n, err := f.MinLength.intValue()
		if err != nil {
			return ro, fmt.Errorf("minLength: %w", err)
		}
		ro.MinLength = formstate.Length(n, f.MinLength.Message)
	}
	if f.MaxLength != nil {
		n, err := f.MaxLength.intValue()
		if err != nil {
			return ro, fmt.Errorf("maxLength: %w", err)
		}
		ro.MaxLength = formstate.Length(n, f.MaxLength.Message)
	}
	if f.Pattern != nil {
		src, err := f.Pattern.stringValue()
		if err != nil {
			return ro, fmt.Errorf("pattern: %w", err)
		}
		p, err := rules.ECMAScript(src)
		if err != nil {
			return ro, fmt.Errorf("pattern: %w", err)
		}
		ro.Pattern = formstate.Match(p, f.Pattern.Message)
	}

	var named []formstate.NamedValidator
	if f.EqualTo != nil {
		other, err := f.EqualTo.stringValue()
		if err != nil {
			return ro, fmt.Errorf("equalTo: %w", err)
		}
		named = append(named, formstate.NamedValidator{Name: "equalTo", Fn: rules.EqualTo(other, f.EqualTo.Message)})
	}
	if f.MaxFileSize != nil {
		limit, err := f.MaxFileSize.stringValue()
		if err != nil {
			return ro, fmt.Errorf("maxFileSize: %w", err)
		}
		v, err := rules.MaxFileSize(limit, f.MaxFileSize.Message)
		if err != nil {
			return ro, err
		}
		named = append(named, formstate.NamedValidator{Name: "maxFileSize", Fn: v})
	}
	ro.ValidateMap = named
	return ro, nil
}

func (a Array) rules() (formstate.FieldArrayRules, error) {
	var r formstate.FieldArrayRules
	if on, msg := a.Required.flag(); on {
		r.Required = formstate.Require(msg)
	}
	if a.MinLength != nil {
		n, err := a.MinLength.intValue()
		if err != nil {
			return r, fmt.Errorf("minLength: %w", err)
		}
		r.MinLength = formstate.Length(n, a.MinLength.Message)
	}
	if a.MaxLength != nil {
		n, err := a.MaxLength.intValue()
		if err != nil {
			return r, fmt.Errorf("maxLength: %w", err)
		}
		r.MaxLength = formstate.Length(n, a.MaxLength.Message)
	}
	return r, nil
}

func (f Field) inputs() []*widget.Input {
	typ := f.Type
	if typ == "" {
		typ = "text"
	}
	var extra []widget.InputOption
	if f.Disabled {
		extra = append(extra, widget.WithDisabled())
	}
	kind := widget.KindOf(typ)
	switch {
	case kind.IsGroupKind() && len(f.Options) > 0:
		out := make([]*widget.Input, len(f.Options))
		for i, o := range f.Options {
			out[i] = widget.NewInput(f.Name, typ, append([]widget.InputOption{widget.WithValue(o)}, extra...)...)
		}
		return out
	case (kind == widget.KindSelectOne || kind == widget.KindSelectMultiple) && len(f.Options) > 0:
		opts := make([]widget.Option, len(f.Options))
		for i, o := range f.Options {
			opts[i] = widget.Option{Value: o}
		}
		return []*widget.Input{widget.NewInput(f.Name, typ, append(extra, widget.WithOptions(opts...))...)}
	}
	return []*widget.Input{widget.NewInput(f.Name, typ, extra...)}
}
