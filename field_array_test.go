package formstate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	formstate "github.com/reoring/formstate"
)

func newItemsForm(t *testing.T) (*formstate.Controller, *formstate.FieldArray) {
	t.Helper()
	c := formstate.MustNew(formstate.Options{DefaultValues: map[string]any{
		"items": []any{map[string]any{"n": "a"}, map[string]any{"n": "b"}},
	}})
	arr, err := c.FieldArray("items", formstate.FieldArrayOptions{})
	require.NoError(t, err)
	_, err = c.Register("items.0.n", formstate.RegisterOptions{})
	require.NoError(t, err)
	_, err = c.Register("items.1.n", formstate.RegisterOptions{Required: formstate.Require()})
	require.NoError(t, err)
	return c, arr
}

func TestFieldArray_SwapAndRemove(t *testing.T) {
	ctx := context.Background()
	c, arr := newItemsForm(t)

	before := arr.Fields()
	require.Len(t, before, 2)
	require.NotEqual(t, before[0].ID, before[1].ID)

	var events []formstate.ArrayEvent
	defer c.SubscribeArray(func(ev formstate.ArrayEvent) { events = append(events, ev) })()

	require.NoError(t, arr.Swap(ctx, 0, 1))
	after := arr.Fields()
	require.Equal(t, before[1].ID, after[0].ID)
	require.Equal(t, before[0].ID, after[1].ID)
	require.Equal(t, map[string]any{"n": "b"}, after[0].Value)
	require.Len(t, events, 1)
	require.Equal(t, "items", events[0].Name)

	st := c.FormState()
	require.True(t, st.IsDirty)
	require.Equal(t, []any{map[string]any{"n": true}, map[string]any{"n": true}}, st.DirtyFields["items"])

	// The required rule moved with its entry to index 0.
	ok, err := c.Trigger(ctx, []string{"items"}, formstate.TriggerOptions{})
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, c.SetValue(ctx, "items.0.n", "", formstate.SetValueOptions{}))
	ok, err = c.Trigger(ctx, []string{"items.0.n"}, formstate.TriggerOptions{})
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, arr.Remove(ctx, 0))
	require.Equal(t, []any{map[string]any{"n": "a"}}, c.GetValue("items"))
	require.False(t, c.FormState().Errors.Has("items"))
	require.Equal(t, []any{nil, map[string]any{"n": true}}, c.FormState().DirtyFields["items"])
}

func TestFieldArray_ErrorsFollowEntries(t *testing.T) {
	ctx := context.Background()
	c, arr := newItemsForm(t)
	require.NoError(t, c.SetError("items.1.n", formstate.FieldError{Type: "server"}, formstate.SetErrorOptions{}))

	require.NoError(t, arr.Prepend(ctx, map[string]any{"n": "z"}))
	errs := c.FormState().Errors
	require.False(t, errs.Has("items.1.n"))
	fe, ok := errs.Get("items.2.n")
	require.True(t, ok)
	require.Equal(t, "server", fe.Type)

	require.NoError(t, arr.Move(ctx, 2, 0))
	_, ok = c.FormState().Errors.Get("items.0.n")
	require.True(t, ok)
	require.Equal(t, []any{
		map[string]any{"n": "b"},
		map[string]any{"n": "z"},
		map[string]any{"n": "a"},
	}, c.GetValue("items"))
}

func TestFieldArray_InsertUpdateReplace(t *testing.T) {
	ctx := context.Background()
	c, arr := newItemsForm(t)

	require.NoError(t, arr.Insert(ctx, 1, map[string]any{"n": "x"}, map[string]any{"n": "y"}))
	require.Len(t, arr.Fields(), 4)
	require.Equal(t, map[string]any{"n": "y"}, c.GetValue("items.2"))

	id := arr.Fields()[0].ID
	require.NoError(t, arr.Update(ctx, 0, map[string]any{"n": "q"}))
	require.NotEqual(t, id, arr.Fields()[0].ID)
	require.Equal(t, "q", c.GetValue("items.0.n"))

	require.NoError(t, arr.Replace(ctx, []any{map[string]any{"n": "a"}, map[string]any{"n": "b"}}))
	require.False(t, c.FormState().IsDirty)
	require.Nil(t, c.FormState().DirtyFields["items"])

	require.ErrorIs(t, arr.Insert(ctx, 5, "x"), formstate.ErrIndexOutOfRange)
	require.ErrorIs(t, arr.Swap(ctx, 0, 9), formstate.ErrIndexOutOfRange)
	require.ErrorIs(t, arr.Remove(ctx, -1), formstate.ErrIndexOutOfRange)

	require.NoError(t, arr.Remove(ctx))
	require.Empty(t, arr.Fields())
}

func TestFieldArray_RootRules(t *testing.T) {
	ctx := context.Background()
	c := formstate.MustNew(formstate.Options{
		Mode:          formstate.OnChange,
		DefaultValues: map[string]any{"tags": []any{"x"}},
	})
	arr, err := c.FieldArray("tags", formstate.FieldArrayOptions{Rules: formstate.FieldArrayRules{
		MinLength: formstate.Length(2, "add another tag"),
	}})
	require.NoError(t, err)

	ok, err := c.Trigger(ctx, []string{"tags"}, formstate.TriggerOptions{})
	require.NoError(t, err)
	require.False(t, ok)
	fe, found := c.FormState().Errors.Get("tags.root")
	require.True(t, found)
	require.Equal(t, formstate.TypeMinLength, fe.Type)

	require.NoError(t, arr.Append(ctx, "y"))
	require.False(t, c.FormState().Errors.Has("tags.root"))
	require.Equal(t, []any{"x", "y"}, c.GetValue("tags"))
}

func TestFieldArray_NotAList(t *testing.T) {
	c := formstate.MustNew(formstate.Options{DefaultValues: map[string]any{"a": "scalar"}})
	_, err := c.FieldArray("a", formstate.FieldArrayOptions{})
	require.ErrorIs(t, err, formstate.ErrNotArray)
}

func TestFieldArray_SetValueRegeneratesIDs(t *testing.T) {
	ctx := context.Background()
	c, arr := newItemsForm(t)
	before := arr.Fields()
	require.NoError(t, c.SetValue(ctx, "items", []any{map[string]any{"n": "k"}}, formstate.SetValueOptions{ShouldDirty: true}))
	after := arr.Fields()
	require.Len(t, after, 1)
	require.NotEqual(t, before[0].ID, after[0].ID)
	require.True(t, c.FormState().IsDirty)
}
