package formstate

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/reoring/formstate/fieldpath"
	"github.com/reoring/formstate/internal/deep"
	"github.com/reoring/formstate/widget"
)

// Resolver validates the whole form in place of the registered rules. It
// returns the submission payload (Values) and the errors tree. A returned Go
// error aborts the validation pass and reaches the caller.
type Resolver func(ctx context.Context, values map[string]any, rctx any, opts ResolverOptions) (ResolverResult, error)

// ResolverOptions tell a Resolver what is being validated.
type ResolverOptions struct {
	// Names are the fields whose errors the controller will keep. Every
	// registered field when the whole form is validated.
	Names  []string
	Fields map[string]ResolverField

	CriteriaMode              CriteriaMode
	ShouldUseNativeValidation bool
}

// ResolverField describes one registered field to a Resolver.
type ResolverField struct {
	Name  string
	Ref   widget.Ref
	Rules RegisterOptions
}

// ResolverResult is what a Resolver returns. A nil Values keeps the current
// values as the payload.
type ResolverResult struct {
	Values map[string]any
	Errors FieldErrors
}

// resolverCall is a resolver invocation prepared under the lock.
type resolverCall struct {
	fn     Resolver
	values map[string]any
	rctx   any
	opts   ResolverOptions
}

func (r resolverCall) run(ctx context.Context) (ResolverResult, error) {
	res, err := r.fn(ctx, r.values, r.rctx, r.opts)
	if err != nil {
		return ResolverResult{}, err
	}
	if res.Values == nil {
		res.Values = r.values
	}
	res.Errors = FieldErrors(res.Errors.plain())
	return res, nil
}

// prepareResolver must hold c.mu. Empty names select every field.
func (c *Controller) prepareResolver(names []string) resolverCall {
	fields := map[string]ResolverField{}
	var all []string
	for _, n := range c.order {
		f := c.fields[n]
		fields[n] = ResolverField{Name: n, Ref: f.ref, Rules: f.opts}
		all = append(all, n)
	}
	if len(names) == 0 {
		names = all
	}
	return resolverCall{
		fn:     c.opts.Resolver,
		values: deep.CloneMap(c.values),
		rctx:   c.opts.Context,
		opts: ResolverOptions{
			Names:                     append([]string(nil), names...),
			Fields:                    fields,
			CriteriaMode:              c.opts.CriteriaMode,
			ShouldUseNativeValidation: c.opts.ShouldUseNativeValidation,
		},
	}
}

// applyResolverErrors merges resolver errors: scoped to names when given,
// replacing the whole tree otherwise. Must hold c.mu.
func (c *Controller) applyResolverErrors(names []string, errs FieldErrors) {
	if len(names) == 0 {
		c.errors = deep.CloneMap(errs)
		return
	}
	for _, n := range names {
		if e, ok := getPath(errs, n); ok {
			setPath(c.errors, n, deep.Clone(e))
		} else {
			unsetPath(c.errors, n)
		}
	}
}

// inlineCall is a rule-validation pass prepared under the lock.
type inlineCall struct {
	jobs       []fieldJob
	values     map[string]any
	collectAll bool
	native     bool
}

// prepareInline selects the fields under any of names (every field when
// names is empty). Must hold c.mu.
func (c *Controller) prepareInline(names []string) inlineCall {
	var jobs []fieldJob
	seen := map[string]bool{}
	add := func(fs []*field) {
		for _, f := range fs {
			if !seen[f.name] {
				seen[f.name] = true
				jobs = append(jobs, f.job())
			}
		}
	}
	if len(names) == 0 {
		add(c.fieldsUnder(""))
	}
	for _, n := range names {
		add(c.fieldsUnder(n))
	}
	return inlineCall{
		jobs:       jobs,
		values:     deep.CloneMap(c.values),
		collectAll: c.opts.collectAll(),
		native:     c.opts.ShouldUseNativeValidation,
	}
}

// run validates every job concurrently. Results line up with jobs.
func (ic inlineCall) run(ctx context.Context) ([]*FieldError, error) {
	out := make([]*FieldError, len(ic.jobs))
	g, gctx := errgroup.WithContext(ctx)
	for i, j := range ic.jobs {
		i, j := i, j
		g.Go(func() error {
			fe, err := validateField(gctx, j, ic.values, ic.collectAll, ic.native)
			out[i] = fe
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// valid walks the jobs in mount order and stops at the first invalid field.
// Native reporting is off: nothing is displayed.
func (ic inlineCall) valid(ctx context.Context) (bool, error) {
	for _, j := range ic.jobs {
		fe, err := validateField(ctx, j, ic.values, ic.collectAll, false)
		if err != nil {
			return false, err
		}
		if fe != nil {
			return false, nil
		}
	}
	return true, nil
}

// merge writes results into the errors tree. Each field owns its own path,
// so the order of results does not matter. Must hold c.mu.
func (c *Controller) merge(ic inlineCall, results []*FieldError) bool {
	ok := true
	for i, j := range ic.jobs {
		if fe := results[i]; fe != nil {
			setPath(c.errors, j.errorPath(), *fe)
			ok = false
		} else {
			unsetPath(c.errors, j.errorPath())
		}
	}
	return ok
}

// updateValid recomputes IsValid when it is tracked.
func (c *Controller) updateValid(ctx context.Context) error {
	c.mu.Lock()
	if !c.tracked().Has(TrackIsValid) {
		c.mu.Unlock()
		return nil
	}
	c.validGen++
	gen := c.validGen
	var check func(context.Context) (bool, error)
	if c.opts.Resolver != nil {
		call := c.prepareResolver(nil)
		check = func(ctx context.Context) (bool, error) {
			res, err := call.run(ctx)
			return err == nil && res.Errors.Len() == 0, err
		}
	} else {
		check = c.prepareInline(nil).valid
	}
	c.mu.Unlock()

	valid, err := check(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	if gen == c.validGen && valid != c.flags.isValid {
		c.flags.isValid = valid
		c.publishState("", TrackIsValid)
	}
	c.unlock()
	return nil
}

// backgroundValid runs updateValid for operations that take no context.
func (c *Controller) backgroundValid() {
	if err := c.updateValid(context.Background()); err != nil {
		c.log.Error("validity update failed", "error", err)
	}
}

// Trigger validates the named fields (and everything under them), or the
// whole form when names is empty, and reports whether they are valid.
func (c *Controller) Trigger(ctx context.Context, names []string, opts TriggerOptions) (bool, error) {
	names = normalizeAll(names)
	c.mu.Lock()
	c.flags.isValidating++
	c.publishState(single(names), TrackIsValidating)

	var (
		result     bool
		changed    = TrackErrors | TrackIsValidating
		refreshAll bool
	)
	if c.opts.Resolver != nil {
		call := c.prepareResolver(names)
		c.unlock()
		res, err := call.run(ctx)
		c.mu.Lock()
		c.flags.isValidating--
		if err != nil {
			c.publishState("", TrackIsValidating)
			c.unlock()
			return false, err
		}
		c.applyResolverErrors(names, res.Errors)
		valid := res.Errors.Len() == 0
		result = valid
		if len(names) > 0 {
			result = true
			for _, n := range names {
				if res.Errors.Has(n) {
					result = false
					break
				}
			}
		}
		c.flags.isValid = valid
		changed |= TrackIsValid
	} else {
		call := c.prepareInline(names)
		c.unlock()
		results, err := call.run(ctx)
		c.mu.Lock()
		c.flags.isValidating--
		if err != nil {
			c.publishState("", TrackIsValidating)
			c.unlock()
			return false, err
		}
		result = c.merge(call, results)
		if len(names) == 0 {
			c.flags.isValid = result
			changed |= TrackIsValid
		} else if result || c.flags.isValid {
			refreshAll = true
		}
	}
	c.publishState(single(names), changed)
	if opts.ShouldFocus && !result {
		c.focusFirstError(names)
	}
	c.log.Debug("trigger", "fields", names, "valid", result)
	c.unlock()
	if refreshAll {
		if err := c.updateValid(ctx); err != nil {
			return result, err
		}
	}
	return result, nil
}

// Validate runs whole-form validation, updates the errors tree, and returns
// the submission payload. Failures are returned as Issues.
func (c *Controller) Validate(ctx context.Context) (map[string]any, error) {
	payload, errs, err := c.validateAll(ctx)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.flags.isValid = errs.Len() == 0
	c.publishState("", TrackErrors|TrackIsValid)
	c.unlock()
	if err := errs.Err(); err != nil {
		return payload, err
	}
	return payload, nil
}

// validateAll validates every field and replaces the errors tree. Root errors
// are dropped and disabled fields are left out of the payload.
func (c *Controller) validateAll(ctx context.Context) (map[string]any, FieldErrors, error) {
	c.mu.Lock()
	var payload map[string]any
	if c.opts.Resolver != nil {
		call := c.prepareResolver(nil)
		c.unlock()
		res, err := call.run(ctx)
		if err != nil {
			return nil, nil, err
		}
		c.mu.Lock()
		c.errors = deep.CloneMap(res.Errors)
		payload = deep.CloneMap(res.Values)
	} else {
		call := c.prepareInline(nil)
		c.unlock()
		results, err := call.run(ctx)
		if err != nil {
			return nil, nil, err
		}
		c.mu.Lock()
		c.merge(call, results)
		payload = call.values
	}
	unsetPath(c.errors, RootErrorKey)
	for _, n := range c.order {
		if f := c.fields[n]; f.opts.Disabled {
			unsetPath(payload, n)
		}
	}
	errs := FieldErrors(deep.CloneMap(c.errors))
	c.unlock()
	return payload, errs, nil
}

// focusFirstError queues focus on the first erroring field, in mount order,
// among names (every field when empty). Must hold c.mu.
func (c *Controller) focusFirstError(names []string) {
	for _, n := range c.order {
		if len(names) > 0 && !underAny(n, names) {
			continue
		}
		f := c.fields[n]
		if f.ref.IsZero() || !FieldErrors(c.errors).Has(f.job().errorPath()) {
			continue
		}
		if _, ok := f.ref.First().(widget.Focuser); !ok {
			continue
		}
		c.pending = append(c.pending, func() { f.focus(false) })
		return
	}
}

func normalizeAll(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = normalize(n)
	}
	return out
}

func underAny(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if fieldpath.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

func single(names []string) string {
	if len(names) == 1 {
		return names[0]
	}
	return ""
}
