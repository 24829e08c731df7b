// Package formstate is a headless form state engine.
//
// A Controller owns the values, defaults, errors, dirty and touched trees of
// one form. Fields are registered by dot path ("items.0.name") and bound to
// widgets through the capability interfaces in package widget. The controller
// validates fields inline from their registered rules, or delegates whole-form
// validation to a Resolver, and notifies observers through three channels:
// form state, watched values and field-array structure.
//
// Design policy:
//   - Keep the public API in the root package; put tree algorithms under internal/.
//   - Validation failures are data (FieldErrors). Go errors returned from
//     validators and resolvers are programming errors and propagate.
//   - Notifications are delivered after the controller releases its lock, so
//     observers may call back into the controller.
//
// Typical usage:
//
//	c, err := formstate.New(formstate.Options{Mode: formstate.OnBlur})
//	if err != nil {
//		return err
//	}
//	b, err := c.Register("email", formstate.RegisterOptions{Required: formstate.Require("email is required")})
//	if err != nil {
//		return err
//	}
//	b.Ref(emailInput)
//
//	submit := c.HandleSubmit(func(ctx context.Context, values map[string]any) error {
//		return save(ctx, values)
//	}, nil)
//	err := submit(ctx)
package formstate
