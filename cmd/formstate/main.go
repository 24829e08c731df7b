package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	gojson "github.com/goccy/go-json"
	"github.com/spf13/pflag"

	"github.com/reoring/formstate"
	"github.com/reoring/formstate/formdef"
	"github.com/reoring/formstate/i18n"
	"github.com/reoring/formstate/internal/dirty"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var code int
	switch sub := os.Args[1]; sub {
	case "validate":
		code = validateCmd(ctx, os.Args[2:], os.Stdout)
	case "diff":
		code = diffCmd(os.Args[2:], os.Stdout)
	case "schema":
		code = schemaCmd(os.Args[2:], os.Stdout)
	case "-h", "--help", "help":
		usage()
	default:
		usage()
		code = 2
	}
	stop()
	os.Exit(code)
}

func usage() {
	fmt.Fprintln(os.Stderr, `formstate CLI

Usage:
  formstate validate --form signup.yaml --values input.json [--all] [--lang ja]
  formstate diff --form signup.yaml --values input.json [--defaults defaults.yaml]
  formstate schema --form signup.yaml

Definitions and values may be YAML, JSON, or JSONC.`)
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// validateCmd submits the values through the form and prints the payload or
// the errors. It exits 1 when the values are invalid.
func validateCmd(ctx context.Context, args []string, out io.Writer) int {
	fs := pflag.NewFlagSet("validate", pflag.ExitOnError)
	formPath := fs.StringP("form", "f", "", "form definition file")
	valuesPath := fs.String("values", "", "values file")
	all := fs.Bool("all", false, "report every failing rule per field")
	lang := fs.String("lang", "en", "message language for schema errors")
	verbose := fs.BoolP("verbose", "v", false, "enable debug logs")
	_ = fs.Parse(args)
	if *formPath == "" || *valuesPath == "" {
		fs.Usage()
		return 2
	}
	log := newLogger(*verbose)
	i18n.SetLanguage(*lang)

	def, err := formdef.ReadFile(*formPath)
	if err != nil {
		return fail(log, err)
	}
	if *all {
		def.CriteriaMode = "all"
	}
	values, err := formdef.ReadValues(*valuesPath)
	if err != nil {
		return fail(log, err)
	}
	form, err := def.Build(log.With("form", def.Name))
	if err != nil {
		return fail(log, err)
	}
	form.Fill(values)
	payload, errs, err := form.Submit(ctx)
	if err != nil {
		return fail(log, err)
	}

	valid := errs.Len() == 0
	log.Debug("validated", "form", def.Name, "valid", valid, "errors", errs.Len())
	report := struct {
		Valid  bool                  `json:"valid"`
		Values map[string]any        `json:"values,omitempty"`
		Errors formstate.FieldErrors `json:"errors,omitempty"`
	}{Valid: valid, Values: payload}
	if !valid {
		report.Errors = errs
	}
	if err := writeJSON(out, report); err != nil {
		return fail(log, err)
	}
	if !valid {
		return 1
	}
	return 0
}

// diffCmd prints the dirty-field tree of the values against the form
// defaults (or an explicit defaults file).
func diffCmd(args []string, out io.Writer) int {
	fs := pflag.NewFlagSet("diff", pflag.ExitOnError)
	formPath := fs.StringP("form", "f", "", "form definition file")
	valuesPath := fs.String("values", "", "values file")
	defaultsPath := fs.String("defaults", "", "defaults file overriding the form's defaultValues")
	verbose := fs.BoolP("verbose", "v", false, "enable debug logs")
	_ = fs.Parse(args)
	if (*formPath == "" && *defaultsPath == "") || *valuesPath == "" {
		fs.Usage()
		return 2
	}
	log := newLogger(*verbose)

	var defaults map[string]any
	if *defaultsPath != "" {
		d, err := formdef.ReadValues(*defaultsPath)
		if err != nil {
			return fail(log, err)
		}
		defaults = d
	} else {
		def, err := formdef.ReadFile(*formPath)
		if err != nil {
			return fail(log, err)
		}
		defaults = def.DefaultValues
	}
	values, err := formdef.ReadValues(*valuesPath)
	if err != nil {
		return fail(log, err)
	}
	if err := writeJSON(out, dirty.Fields(defaults, values)); err != nil {
		return fail(log, err)
	}
	return 0
}

func schemaCmd(args []string, out io.Writer) int {
	fs := pflag.NewFlagSet("schema", pflag.ExitOnError)
	formPath := fs.StringP("form", "f", "", "form definition file")
	_ = fs.Parse(args)
	if *formPath == "" {
		fs.Usage()
		return 2
	}
	log := newLogger(false)
	def, err := formdef.ReadFile(*formPath)
	if err != nil {
		return fail(log, err)
	}
	data, err := def.JSONSchema().MarshalIndent()
	if err != nil {
		return fail(log, err)
	}
	if _, err := fmt.Fprintln(out, string(data)); err != nil {
		return fail(log, err)
	}
	return 0
}

func writeJSON(w io.Writer, v any) error {
	data, err := gojson.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func fail(log *slog.Logger, err error) int {
	log.Error("formstate", "error", err)
	return 3
}
