package formstate

import (
	"context"
)

// SubmitHandler receives the validated payload.
type SubmitHandler func(ctx context.Context, values map[string]any) error

// InvalidHandler receives the errors of a failed submit.
type InvalidHandler func(ctx context.Context, errs FieldErrors) error

// SubmitFunc runs one submission.
type SubmitFunc func(ctx context.Context) error

// HandleSubmit returns a function that validates the whole form and calls
// onValid with the payload or onInvalid with the errors. Either handler may be
// nil.
//
// Submit bookkeeping (IsSubmitted, SubmitCount, IsSubmitSuccessful) is
// recorded on every path. An error from validation or from a handler is
// returned after it, and IsSubmitSuccessful is then false.
func (c *Controller) HandleSubmit(onValid SubmitHandler, onInvalid InvalidHandler) SubmitFunc {
	return func(ctx context.Context) error {
		return c.submit(ctx, onValid, onInvalid)
	}
}

func (c *Controller) submit(ctx context.Context, onValid SubmitHandler, onInvalid InvalidHandler) error {
	c.mu.Lock()
	c.removeUnmountedLocked()
	c.flags.isSubmitting = true
	c.publishState("", TrackSubmit)
	c.unlock()

	payload, errs, err := c.validateAll(ctx)
	valid := err == nil && errs.Len() == 0
	switch {
	case err != nil:
		c.log.Error("submit validation failed", "error", err)
	case valid:
		c.mu.Lock()
		c.errors = map[string]any{}
		c.publishState("", TrackErrors)
		c.unlock()
		if onValid != nil {
			err = onValid(ctx, payload)
		}
	default:
		if onInvalid != nil {
			err = onInvalid(ctx, errs)
		}
		if c.opts.ShouldFocusError {
			c.mu.Lock()
			c.focusFirstError(nil)
			c.unlock()
		}
	}

	c.mu.Lock()
	c.flags.isSubmitting = false
	c.flags.isSubmitted = true
	c.flags.isSubmitSuccessful = valid && err == nil
	c.flags.submitCount++
	c.publishState("", TrackSubmit|TrackErrors)
	c.log.Debug("submit", "valid", valid, "errors", errs.Len(), "count", c.flags.submitCount)
	c.unlock()
	return err
}
