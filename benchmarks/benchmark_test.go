package benchmarks

import (
	"context"
	"strconv"
	"testing"

	"github.com/reoring/formstate"
	"github.com/reoring/formstate/formdef"
	"github.com/reoring/formstate/internal/dirty"
	"github.com/reoring/formstate/widget"
)

// --- Fixtures ---

func wideForm(tb testing.TB, n int) *formstate.Controller {
	tb.Helper()
	defaults := map[string]any{}
	for i := 0; i < n; i++ {
		defaults["f"+strconv.Itoa(i)] = "x"
	}
	c, err := formstate.New(formstate.Options{DefaultValues: defaults, Mode: formstate.OnChange})
	if err != nil {
		tb.Fatalf("new: %v", err)
	}
	for i := 0; i < n; i++ {
		name := "f" + strconv.Itoa(i)
		b, err := c.Register(name, formstate.RegisterOptions{
			Required:  formstate.Require("required"),
			MaxLength: formstate.Length(32),
		})
		if err != nil {
			tb.Fatalf("register: %v", err)
		}
		b.Ref(widget.NewInput(name, "text"))
	}
	return c
}

func itemList(n int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = map[string]any{"sku": "s" + strconv.Itoa(i), "qty": float64(i)}
	}
	return out
}

// --- Submit ---

func Benchmark_Submit_50Fields(b *testing.B) {
	ctx := context.Background()
	c := wideForm(b, 50)
	submit := c.HandleSubmit(nil, nil)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := submit(ctx); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_Change_50Fields(b *testing.B) {
	ctx := context.Background()
	c := wideForm(b, 50)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := c.Change(ctx, "f7", strconv.Itoa(i)); err != nil {
			b.Fatal(err)
		}
	}
}

// --- Dirty ---

func Benchmark_DirtyFields_200Items(b *testing.B) {
	defaults := map[string]any{"items": itemList(200)}
	values := map[string]any{"items": itemList(200)}
	values["items"].([]any)[100].(map[string]any)["qty"] = -1.0
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = dirty.Fields(defaults, values)
	}
}

func Benchmark_FieldArray_Swap(b *testing.B) {
	ctx := context.Background()
	c, err := formstate.New(formstate.Options{DefaultValues: map[string]any{"items": itemList(100)}})
	if err != nil {
		b.Fatal(err)
	}
	arr, err := c.FieldArray("items", formstate.FieldArrayOptions{})
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := arr.Swap(ctx, 0, 99); err != nil {
			b.Fatal(err)
		}
	}
}

// --- Definitions ---

var definitionYAML = []byte(`
name: order
defaultValues: {items: []}
fields:
  - name: email
    required: true
    pattern: "^\\S+@\\S+$"
  - name: note
    maxLength: 200
arrays:
  - name: items
    minLength: 1
`)

func Benchmark_Formdef_ParseAndBuild(b *testing.B) {
	b.ReportAllocs()
	b.SetBytes(int64(len(definitionYAML)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		def, err := formdef.Parse(definitionYAML, formdef.FormatYAML)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := def.Build(nil); err != nil {
			b.Fatal(err)
		}
	}
}
