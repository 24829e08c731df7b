package dirty

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFields(t *testing.T) {
	cases := []struct {
		name             string
		defaults, values map[string]any
		want             map[string]any
	}{
		{
			name:     "changed leaf",
			defaults: map[string]any{"a": "1"},
			values:   map[string]any{"a": "2"},
			want:     map[string]any{"a": true},
		},
		{
			name:     "identical trees",
			defaults: map[string]any{"a": "1", "b": map[string]any{"c": []any{1, 2}}},
			values:   map[string]any{"a": "1", "b": map[string]any{"c": []any{1, 2}}},
			want:     map[string]any{},
		},
		{
			name:     "added leaf",
			defaults: map[string]any{},
			values:   map[string]any{"a": "x", "b": nil},
			want:     map[string]any{"a": true},
		},
		{
			name:     "removed leaf",
			defaults: map[string]any{"a": "x"},
			values:   map[string]any{},
			want:     map[string]any{"a": true},
		},
		{
			name:     "nested list",
			defaults: map[string]any{"items": []any{map[string]any{"n": "a"}, map[string]any{"n": "b"}}},
			values:   map[string]any{"items": []any{map[string]any{"n": "a"}, map[string]any{"n": "c"}}},
			want:     map[string]any{"items": []any{nil, map[string]any{"n": true}}},
		},
		{
			name:     "container replaced by primitive",
			defaults: map[string]any{"a": map[string]any{"b": 1, "c": 2}},
			values:   map[string]any{"a": nil},
			want:     map[string]any{"a": map[string]any{"b": true, "c": true}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Fields(tc.defaults, tc.values))
		})
	}
}

func TestFields_SymmetricEmpty(t *testing.T) {
	d := map[string]any{"x": []any{"a", map[string]any{"y": nil}}, "z": 3.5}
	require.True(t, IsEmpty(Fields(d, d)))
}

func TestFieldArray(t *testing.T) {
	defaults := []any{
		map[string]any{"name": "a"},
		map[string]any{"name": "b"},
	}

	t.Run("append flags the new row", func(t *testing.T) {
		values := []any{
			map[string]any{"name": "a"},
			map[string]any{"name": "b"},
			map[string]any{"name": "c"},
		}
		got := FieldArray(values, defaults)
		require.Equal(t, []any{nil, nil, map[string]any{"name": true}}, got)
	})

	t.Run("remove flags the vacated default row", func(t *testing.T) {
		values := []any{map[string]any{"name": "a"}}
		got := FieldArray(values, defaults)
		require.Equal(t, []any{nil, map[string]any{"name": true}}, got)
	})

	t.Run("swap flags both rows", func(t *testing.T) {
		values := []any{map[string]any{"name": "b"}, map[string]any{"name": "a"}}
		got := FieldArray(values, defaults)
		require.Equal(t, []any{map[string]any{"name": true}, map[string]any{"name": true}}, got)
	})

	t.Run("rows matching their defaults are clean", func(t *testing.T) {
		values := []any{map[string]any{"name": "a"}, map[string]any{"name": "b"}}
		require.Nil(t, FieldArray(values, defaults))
	})

	t.Run("nested lists", func(t *testing.T) {
		d := []any{map[string]any{"tags": []any{"x"}}}
		v := []any{map[string]any{"tags": []any{"x", "y"}}}
		require.Equal(t, []any{map[string]any{"tags": []any{nil, true}}}, FieldArray(v, d))
	})

	t.Run("primitive rows", func(t *testing.T) {
		require.Equal(t, []any{nil, true}, FieldArray([]any{"a", "z"}, []any{"a", "b"}))
	})
}
