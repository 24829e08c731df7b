package deep

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type money struct {
	cents int
	cur   string
}

func (m money) Equal(other any) bool {
	switch o := other.(type) {
	case money:
		return o.cents == m.cents && o.cur == m.cur
	case string:
		return o == fmt.Sprintf("%d.%02d %s", m.cents/100, m.cents%100, m.cur)
	}
	return false
}

func TestEqual_Basics(t *testing.T) {
	d1 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		a, b any
		want bool
	}{
		{"nan", math.NaN(), math.NaN(), true},
		{"nil", nil, nil, true},
		{"nil vs value", nil, "", false},
		{"dates", map[string]any{"a": d1}, map[string]any{"a": d2}, true},
		{"different dates", d1, d1.Add(time.Second), false},
		{"invalid dates", time.Time{}, time.Time{}, true},
		{"length mismatch", []any{map[string]any{"x": 1}}, []any{map[string]any{"x": 1}, map[string]any{}}, false},
		{"order sensitive", []any{1, 2}, []any{2, 1}, false},
		{"numeric kinds", 1, 1.0, true},
		{"string vs number", "1", 1, false},
		{"nested", map[string]any{"a": []any{"x", map[string]any{"b": true}}}, map[string]any{"a": []any{"x", map[string]any{"b": true}}}, true},
		{"key sets", map[string]any{"a": 1}, map[string]any{"b": 1}, false},
		{"equaler", money{100, "EUR"}, money{100, "EUR"}, true},
		{"equaler mismatch", money{100, "EUR"}, money{100, "USD"}, false},
		{"equaler vs string", money{150, "EUR"}, "1.50 EUR", true},
		{"string vs equaler", "1.50 EUR", money{150, "EUR"}, true},
		{"number vs equaler", 150, money{150, "EUR"}, false},
		{"equaler inside maps reversed", map[string]any{"p": "1.50 EUR"}, map[string]any{"p": money{150, "EUR"}}, true},
		{"typed vs any slice", []string{"a", "b"}, []any{"a", "b"}, true},
		{"typed slices", []string{"a"}, []string{"b"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Equal(tc.a, tc.b))
		})
	}
}

func TestEqual_Cycles(t *testing.T) {
	a := map[string]any{"name": "a"}
	a["self"] = a
	b := map[string]any{"name": "a"}
	b["self"] = b
	require.True(t, Equal(a, b))

	c := map[string]any{"name": "c"}
	c["self"] = c
	require.False(t, Equal(a, c))

	la := []any{"x", nil}
	la[1] = la
	lb := []any{"x", nil}
	lb[1] = lb
	require.True(t, Equal(la, lb))
}

func TestEqual_SharedSubtree(t *testing.T) {
	shared := map[string]any{"v": 1}
	a := map[string]any{"left": shared, "right": shared}
	b := map[string]any{"left": map[string]any{"v": 1}, "right": map[string]any{"v": 2}}
	require.False(t, Equal(a, b))
	require.True(t, Equal(a, map[string]any{"left": map[string]any{"v": 1}, "right": map[string]any{"v": 1}}))
}

func TestMerge(t *testing.T) {
	t.Run("maps recurse", func(t *testing.T) {
		target := map[string]any{"a": map[string]any{"x": 1}, "b": 2}
		got := Merge(target, map[string]any{"a": map[string]any{"y": 2}, "c": 3})
		require.Equal(t, map[string]any{"a": map[string]any{"x": 1, "y": 2}, "b": 2, "c": 3}, got)
	})

	t.Run("slices merge element-wise", func(t *testing.T) {
		target := []any{map[string]any{"a": true}, nil}
		got := Merge(target, []any{map[string]any{"b": true}, map[string]any{"c": true}, true})
		require.Equal(t, []any{
			map[string]any{"a": true, "b": true},
			map[string]any{"c": true},
			true,
		}, got)
	})

	t.Run("primitive short-circuits", func(t *testing.T) {
		require.Equal(t, "src", Merge(map[string]any{"a": 1}, "src"))
		require.Equal(t, map[string]any{"a": 1}, Merge("dst", map[string]any{"a": 1}))
	})
}

func TestClone_IsDeep(t *testing.T) {
	orig := map[string]any{"a": []any{map[string]any{"b": 1}}}
	cp := Clone(orig).(map[string]any)
	cp["a"].([]any)[0].(map[string]any)["b"] = 2
	require.Equal(t, 1, orig["a"].([]any)[0].(map[string]any)["b"])
	require.Equal(t, map[string]any{}, CloneMap(nil))
}

func TestIsEmpty(t *testing.T) {
	require.True(t, IsEmpty(nil))
	require.True(t, IsEmpty(""))
	require.True(t, IsEmpty([]any{}))
	require.True(t, IsEmpty(map[string]any{}))
	require.False(t, IsEmpty(0))
	require.False(t, IsEmpty(false))
	require.False(t, IsEmpty(time.Time{}))
}
