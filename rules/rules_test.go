package rules

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reoring/formstate"
	"github.com/reoring/formstate/widget"
)

func run(t *testing.T, v formstate.Validator, value any, values map[string]any) formstate.Result {
	t.Helper()
	res, err := v(context.Background(), value, values)
	require.NoError(t, err)
	return res
}

func TestIfThen(t *testing.T) {
	required := Predicate(func(v any) bool { return v != nil && v != "" }, "vat id required")
	v := If("/kind", Eq, "company").Then(required)

	require.True(t, run(t, v, "", map[string]any{"kind": "company"}).Failed)
	require.False(t, run(t, v, "", map[string]any{"kind": "person"}).Failed)
	require.False(t, run(t, v, "DE123", map[string]any{"kind": "company"}).Failed)
}

func TestConditional_Composite(t *testing.T) {
	values := map[string]any{"age": 20.0, "country": "JP", "items": []any{map[string]any{"qty": 3}}}
	require.True(t, If("age", Ge, 18).And(If("country", Eq, "JP")).Holds(values))
	require.False(t, If("age", Lt, 18).And(If("country", Eq, "JP")).Holds(values))
	require.True(t, If("age", Lt, 18).Or(If("country", Ne, "US")).Holds(values))
	require.True(t, If("items.0.qty", Gt, 2).Holds(values))
	require.True(t, If("country", Gt, "DE").Holds(values))
	require.False(t, If("missing", Eq, nil).Holds(values))
}

func TestAndOr(t *testing.T) {
	pass := Predicate(func(any) bool { return true }, "")
	fail1 := Predicate(func(any) bool { return false }, "one")
	fail2 := Predicate(func(any) bool { return false }, "two")

	require.Equal(t, "one", run(t, And(pass, fail1, fail2), nil, nil).Message)
	require.False(t, run(t, Or(fail1, pass), nil, nil).Failed)
	require.Equal(t, "two", run(t, Or(fail1, fail2), nil, nil).Message)
}

func TestEqualTo(t *testing.T) {
	v := EqualTo("password", "passwords differ")
	values := map[string]any{"password": "s3cret"}
	require.False(t, run(t, v, "s3cret", values).Failed)
	require.True(t, run(t, v, "other", values).Failed)
}

func TestAtLeastOne(t *testing.T) {
	require.True(t, run(t, AtLeastOne("", "add one"), []any{}, nil).Failed)
	require.False(t, run(t, AtLeastOne("/tags", "add one"), nil, map[string]any{"tags": []any{"x"}}).Failed)
	require.False(t, run(t, AtLeastOne("", "add one"), "not a list", nil).Failed)
}

func TestUniqueBy(t *testing.T) {
	v := UniqueBy("sku", "")
	items := []any{
		map[string]any{"sku": "A"},
		map[string]any{"sku": "B"},
		map[string]any{"sku": "A"},
	}
	res := run(t, v, items, nil)
	require.True(t, res.Failed)
	require.Contains(t, res.Message, `entries 0 and 2`)
	require.False(t, run(t, v, items[:2], nil).Failed)
	require.True(t, run(t, UniqueBy("", "dup"), []any{"x", "x"}, nil).Failed)
}

func TestECMAScript(t *testing.T) {
	// Lookahead is not supported by the standard regexp package.
	p := MustECMAScript(`^(?=.*\d)(?=.*[a-z]).{8,}$`)
	require.True(t, p.MatchString("abcdefg1"))
	require.False(t, p.MatchString("abcdefgh"))

	_, err := ECMAScript(`(`)
	require.Error(t, err)

	var _ formstate.Matcher = p
}

func TestMaxFileSize(t *testing.T) {
	v, err := MaxFileSize("1 MB", "")
	require.NoError(t, err)

	small := []widget.File{{Name: "a.png", Size: 500_000}}
	big := []widget.File{{Name: "b.png", Size: 3_000_000}}
	require.False(t, run(t, v, small, nil).Failed)
	res := run(t, v, big, nil)
	require.True(t, res.Failed)
	require.Contains(t, res.Message, "b.png")

	_, err = MaxFileSize("lots", "")
	require.Error(t, err)
}
