package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"maps"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formflow/internal/app"
	"github.com/goliatone/go-formflow/internal/config"
	"github.com/goliatone/go-formflow/internal/logging"
	"github.com/goliatone/go-formflow/pkg/fieldtypes"
	"github.com/goliatone/go-formflow/pkg/orchestrator"
	"github.com/goliatone/go-formflow/pkg/render"
	"github.com/goliatone/go-formflow/pkg/renderers/tui"
	"github.com/goliatone/go-formflow/pkg/schema"
)

var errInvalid = errors.New("validation failed")

func readSchema(path string) (schema.Schema, error) {
	doc, err := schema.ReadDocument(nil, schema.SourceFromFile(path))
	if err != nil {
		return schema.Schema{}, err
	}
	return doc.Decode()
}

func readValues(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read values: %w", err)
	}
	var values map[string]any
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("parse values %s: %w", path, err)
	}
	return values, nil
}

func writeOutput(out io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := out.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	_, err := fmt.Fprintf(out, "Written to %s\n", path)
	return err
}

// transformFlags are shared by render and fill.
type transformFlags struct {
	preset  string
	script  string
	timeout time.Duration
}

func (t *transformFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&t.preset, "preset", "", "JSON preset applied to the schema before rendering")
	fs.StringVar(&t.script, "script", "", "JavaScript file defining transform(form)")
	fs.DurationVar(&t.timeout, "script-timeout", 2*time.Second, "maximum run time for --script")
}

func (t *transformFlags) option() (orchestrator.Option, error) {
	var chain []orchestrator.Transformer
	if t.preset != "" {
		raw, err := os.ReadFile(t.preset)
		if err != nil {
			return nil, fmt.Errorf("read preset: %w", err)
		}
		preset, err := orchestrator.NewJSONPresetTransformer(raw)
		if err != nil {
			return nil, err
		}
		chain = append(chain, preset)
	}
	if t.script != "" {
		raw, err := os.ReadFile(t.script)
		if err != nil {
			return nil, fmt.Errorf("read script: %w", err)
		}
		chain = append(chain, orchestrator.NewJavaScriptTransformer(orchestrator.NewGojaRunner(string(raw), t.timeout)))
	}
	if len(chain) == 0 {
		return nil, nil
	}
	return orchestrator.WithSchemaTransformer(orchestrator.Chain(chain...)), nil
}

type validateFlags struct {
	strict     bool
	noWarnings bool
}

func setupValidateFlags() (*flag.FlagSet, *validateFlags) {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	flags := &validateFlags{}

	fs.BoolVar(&flags.strict, "strict", false, "treat warnings as errors")
	fs.BoolVar(&flags.noWarnings, "no-warnings", false, "suppress warning output")

	fs.Usage = func() {
		output := fs.Output()
		_, _ = fmt.Fprintf(output, "Usage: formflow-cli validate [flags] <file>...\n\n")
		_, _ = fmt.Fprintf(output, "Validate schema documents (JSON or YAML).\n\n")
		_, _ = fmt.Fprintf(output, "Flags:\n")
		fs.PrintDefaults()
	}
	return fs, flags
}

func handleValidate(args []string, out io.Writer) error {
	fs, flags := setupValidateFlags()
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("validate command requires at least one file")
	}

	orch := orchestrator.New()
	failed := 0
	for _, path := range fs.Args() {
		form, err := readSchema(path)
		if err != nil {
			return err
		}
		result := orch.Validate(form)
		ok := result.Valid && (!flags.strict || len(result.Warnings) == 0)
		status := "ok"
		if !ok {
			status = "invalid"
			failed++
		}
		_, _ = fmt.Fprintf(out, "%s: %s (%d errors, %d warnings)\n", path, status, len(result.Errors), len(result.Warnings))
		for _, msg := range result.Errors {
			_, _ = fmt.Fprintf(out, "  error: %s\n", msg)
		}
		if !flags.noWarnings {
			for _, msg := range result.Warnings {
				_, _ = fmt.Fprintf(out, "  warning: %s\n", msg)
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d documents", errInvalid, failed, fs.NArg())
	}
	return nil
}

type renderFlags struct {
	renderer  string
	theme     string
	variant   string
	values    string
	step      string
	action    string
	async     bool
	output    string
	transform transformFlags
}

func setupRenderFlags() (*flag.FlagSet, *renderFlags) {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	flags := &renderFlags{}

	fs.StringVar(&flags.renderer, "renderer", "vanilla", "renderer to use")
	fs.StringVar(&flags.theme, "theme", "", "theme name")
	fs.StringVar(&flags.variant, "variant", "", "theme variant")
	fs.StringVar(&flags.values, "values", "", "JSON or YAML file with prefilled values")
	fs.StringVar(&flags.step, "step", "", "step id to show first")
	fs.StringVar(&flags.action, "action", "", "form action URL")
	fs.BoolVar(&flags.async, "async", false, "submit through XHR")
	fs.StringVar(&flags.output, "output", "", "output file (stdout if empty)")
	flags.transform.register(fs)

	fs.Usage = func() {
		output := fs.Output()
		_, _ = fmt.Fprintf(output, "Usage: formflow-cli render [flags] <file>\n\n")
		_, _ = fmt.Fprintf(output, "Render a schema document.\n\n")
		_, _ = fmt.Fprintf(output, "Flags:\n")
		fs.PrintDefaults()
	}
	return fs, flags
}

func handleRender(args []string, out io.Writer) error {
	fs, flags := setupRenderFlags()
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("render command requires exactly one file")
	}

	form, err := readSchema(fs.Arg(0))
	if err != nil {
		return err
	}
	values, err := readValues(flags.values)
	if err != nil {
		return err
	}
	transform, err := flags.transform.option()
	if err != nil {
		return err
	}

	orch := orchestrator.New(transform)
	html, err := orch.Render(context.Background(), orchestrator.Request{
		Schema:       form,
		Renderer:     flags.renderer,
		ThemeName:    flags.theme,
		ThemeVariant: flags.variant,
		RenderOptions: render.RenderOptions{
			Context:    render.InstanceContext{Action: flags.action, Async: flags.async},
			Values:     values,
			ActiveStep: flags.step,
		},
	})
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return writeOutput(out, flags.output, html)
}

type fillFlags struct {
	values    string
	format    string
	output    string
	transform transformFlags
}

func setupFillFlags() (*flag.FlagSet, *fillFlags) {
	fs := flag.NewFlagSet("fill", flag.ContinueOnError)
	flags := &fillFlags{}

	fs.StringVar(&flags.values, "values", "", "JSON or YAML file with prefilled values")
	fs.StringVar(&flags.format, "format", "json", "output format: json or yaml")
	fs.StringVar(&flags.output, "output", "", "output file (stdout if empty)")
	flags.transform.register(fs)

	fs.Usage = func() {
		output := fs.Output()
		_, _ = fmt.Fprintf(output, "Usage: formflow-cli fill [flags] <file>\n\n")
		_, _ = fmt.Fprintf(output, "Prompt for each visible field and print the validated submission.\n\n")
		_, _ = fmt.Fprintf(output, "Flags:\n")
		fs.PrintDefaults()
	}
	return fs, flags
}

func handleFill(args []string, out io.Writer) error {
	return runFill(args, out, nil)
}

func runFill(args []string, out io.Writer, driver tui.PromptDriver) error {
	fs, flags := setupFillFlags()
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("fill command requires exactly one file")
	}
	format := strings.ToLower(flags.format)
	if format != "json" && format != "yaml" {
		return fmt.Errorf("unsupported format %q, expected json or yaml", flags.format)
	}

	form, err := readSchema(fs.Arg(0))
	if err != nil {
		return err
	}
	values, err := readValues(flags.values)
	if err != nil {
		return err
	}
	transform, err := flags.transform.option()
	if err != nil {
		return err
	}

	types := fieldtypes.NewDefaultRegistry()
	prompts, err := tui.New(tui.WithPromptDriver(driver), tui.WithFieldTypes(types))
	if err != nil {
		return err
	}
	renderers := render.NewRegistry()
	renderers.MustRegister(prompts)
	orch := orchestrator.New(
		orchestrator.WithFieldTypes(types),
		orchestrator.WithRegistry(renderers),
		orchestrator.WithDefaultRenderer(prompts.Name()),
		transform,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	raw, err := orch.Render(ctx, orchestrator.Request{
		Schema:        form,
		RenderOptions: render.RenderOptions{Values: values},
	})
	if err != nil {
		return err
	}
	var collected map[string]any
	if err := json.Unmarshal(raw, &collected); err != nil {
		return fmt.Errorf("decode answers: %w", err)
	}

	result := orch.ValidateSubmission(form, collected)
	if !result.Valid {
		for _, name := range slices.Sorted(maps.Keys(result.Errors)) {
			for _, msg := range result.Errors[name] {
				_, _ = fmt.Fprintf(out, "%s: %s\n", name, msg)
			}
		}
		return errInvalid
	}

	var data []byte
	if format == "yaml" {
		data, err = yaml.Marshal(result.Values)
	} else {
		data, err = json.MarshalIndent(result.Values, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return err
	}
	return writeOutput(out, flags.output, data)
}

func handleNew(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("new", flag.ContinueOnError)
	format := fs.String("format", "yaml", "document format: json or yaml")
	output := fs.String("output", "", "output file (stdout if empty)")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}

	var f schema.Format
	switch strings.ToLower(*format) {
	case "json":
		f = schema.FormatJSON
	case "yaml", "yml":
		f = schema.FormatYAML
	default:
		return fmt.Errorf("unsupported format %q, expected json or yaml", *format)
	}
	data, err := schema.Encode(orchestrator.New().NewForm(), f)
	if err != nil {
		return err
	}
	return writeOutput(out, *output, data)
}

func handleTypes(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("types", flag.ContinueOnError)
	category := fs.String("category", "", "only list this category")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}

	grouped := orchestrator.New().FieldTypesByCategory()
	listed := 0
	for _, cat := range fieldtypes.Categories() {
		if *category != "" && !strings.EqualFold(*category, string(cat)) {
			continue
		}
		_, _ = fmt.Fprintf(out, "%s:\n", cat)
		for _, def := range grouped[cat] {
			_, _ = fmt.Fprintf(out, "  %-16s %s\n", def.ID, def.Label)
			listed++
		}
	}
	if listed == 0 {
		return fmt.Errorf("unknown category %q", *category)
	}
	return nil
}

func handleMCP(args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	configPath := fs.String("config", config.DefaultConfigPath, "Path to YAML config file")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	level, _ := config.ParseLevel(cfg.LogLevel)
	// stdout carries the protocol; logs stay on stderr.
	logger := logging.New(logging.Options{Development: cfg.IsDev(), Level: level, Output: os.Stderr})
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Shutdown(context.Background()); err != nil {
			logger.Warn("closing stores", zap.Error(err))
		}
	}()

	logger.Info("mcp server starting", zap.String("version", version))
	return application.MCP(version).Run(ctx, nil)
}
