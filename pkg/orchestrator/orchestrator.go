package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	theme "github.com/goliatone/go-theme"
	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/fieldtypes"
	"github.com/goliatone/go-formflow/pkg/render"
	"github.com/goliatone/go-formflow/pkg/renderers/vanilla"
	"github.com/goliatone/go-formflow/pkg/schema"
	"github.com/goliatone/go-formflow/pkg/store"
	"github.com/goliatone/go-formflow/pkg/validation"
	"github.com/goliatone/go-formflow/pkg/visibility"
)

const defaultRendererName = "vanilla"

var (
	// ErrInvalidSchema is returned by Save when the validator rejects the
	// schema. Use errors.As with *ValidationError to read the messages.
	ErrInvalidSchema = errors.New("orchestrator: schema is invalid")
	// ErrNoStore is returned by Load and Save when no store is configured.
	ErrNoStore = errors.New("orchestrator: no store configured")
	// ErrFormNotFound is returned by RenderStored when id has no schema.
	ErrFormNotFound = errors.New("orchestrator: form not found")
	// ErrUnknownRenderer is returned when a request names a renderer that is
	// not registered.
	ErrUnknownRenderer = errors.New("orchestrator: unknown renderer")
)

// ValidationError carries the validator result of a rejected save.
type ValidationError struct {
	Result validation.Result
}

func (e *ValidationError) Error() string {
	if len(e.Result.Errors) == 0 {
		return ErrInvalidSchema.Error()
	}
	return ErrInvalidSchema.Error() + ": " + strings.Join(e.Result.Errors, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidSchema }

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithFieldTypes injects the field type registry shared by the validator and
// the default renderer.
func WithFieldTypes(types *fieldtypes.Registry) Option {
	return func(o *Orchestrator) {
		o.types = types
	}
}

// WithValidator injects a configured schema validator.
func WithValidator(v *validation.Validator) Option {
	return func(o *Orchestrator) {
		o.validator = v
	}
}

// WithRegistry injects a renderer registry.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithDefaultRenderer overrides the renderer used when a request omits an
// explicit Renderer field.
func WithDefaultRenderer(name string) Option {
	return func(o *Orchestrator) {
		o.defaultRenderer = name
	}
}

// WithStore wires the persistence backend used by Load and Save.
func WithStore(s store.Store) Option {
	return func(o *Orchestrator) {
		o.store = s
	}
}

// WithSchemaTransformer registers a Transformer that can rewrite a schema
// before it is rendered.
func WithSchemaTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		o.transformer = t
	}
}

// WithLogger routes diagnostics to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Orchestrator coordinates validation, evaluation, rendering and persistence
// of form schemas. It applies sensible defaults (built-in field types,
// vanilla renderer) while remaining open to dependency injection.
type Orchestrator struct {
	types           *fieldtypes.Registry
	validator       *validation.Validator
	registry        *render.Registry
	defaultRenderer string
	store           store.Store
	transformer     Transformer
	themeSelector   theme.ThemeSelector
	themeFallbacks  map[string]string
	logger          *zap.Logger
	initialiseErr   error
}

// New constructs an Orchestrator applying any provided options. Missing
// dependencies are initialised with the built-in implementations.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		defaultRenderer: defaultRendererName,
		logger:          zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

func (o *Orchestrator) applyDefaults() {
	if o.types == nil {
		o.types = fieldtypes.NewDefaultRegistry()
	}
	if o.validator == nil {
		o.validator = validation.New(validation.WithRegistry(o.types), validation.WithLogger(o.logger))
	}
	if o.registry == nil {
		o.registry = render.NewRegistry()
		renderer, err := vanilla.New(vanilla.WithFieldTypes(o.types), vanilla.WithLogger(o.logger))
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: default renderer: %w", err)
		} else {
			o.registry.MustRegister(renderer)
		}
	}
	if o.defaultRenderer == "" {
		o.defaultRenderer = defaultRendererName
	}
	if o.themeFallbacks == nil {
		o.themeFallbacks = defaultThemeFallbacks()
	}
}

// FieldTypes returns the registry backing the orchestrator.
func (o *Orchestrator) FieldTypes() *fieldtypes.Registry {
	return o.types
}

// Renderers lists the registered renderer names.
func (o *Orchestrator) Renderers() []string {
	return o.registry.List()
}

// ContentType reports the media type produced by the named renderer, or by
// the default renderer when name is empty.
func (o *Orchestrator) ContentType(name string) (string, error) {
	renderer, err := o.rendererFor(name)
	if err != nil {
		return "", err
	}
	return renderer.ContentType(), nil
}

// FieldTypesByCategory lists the palette grouped by category. Every built-in
// category is present even when empty.
func (o *Orchestrator) FieldTypesByCategory() map[fieldtypes.Category][]fieldtypes.Definition {
	return o.types.ListByCategory()
}

// Validate checks the schema's structure. Errors are collected exhaustively.
func (o *Orchestrator) Validate(form schema.Schema) validation.Result {
	return o.validator.Validate(form)
}

// Evaluate runs the conditional rules of form against values.
func (o *Orchestrator) Evaluate(form schema.Schema, values map[string]any) visibility.Result {
	return visibility.Evaluate(form, values)
}

// EvaluateWithExtras is Evaluate with request extras exposed to rules under
// the `extras.` prefix.
func (o *Orchestrator) EvaluateWithExtras(form schema.Schema, values, extras map[string]any) visibility.Result {
	return visibility.Compile(form).Run(values, extras)
}

// ValidateSubmission checks submitted values against the visible,
// effectively required fields of form.
func (o *Orchestrator) ValidateSubmission(form schema.Schema, values map[string]any) validation.SubmissionResult {
	return o.validator.ValidateSubmission(form, values)
}

// NewForm returns the seed schema for a new form.
func (o *Orchestrator) NewForm() schema.Schema {
	return schema.Default()
}

// Request describes one render pass.
type Request struct {
	// Schema is rendered as-is; it is not re-validated so builder previews
	// of half-edited schemas still render.
	Schema schema.Schema

	// Renderer names the renderer to use. If empty, the orchestrator falls back
	// to the configured default renderer.
	Renderer string

	// ThemeName and ThemeVariant are resolved through the theme selector
	// when one is configured.
	ThemeName    string
	ThemeVariant string

	// RenderOptions carries instance context, prefilled values and server
	// errors.
	RenderOptions render.RenderOptions
}

// Render evaluates the rules for the request values and renders the schema.
func (o *Orchestrator) Render(ctx context.Context, req Request) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := o.initialiseErr; err != nil {
		return nil, err
	}

	form := req.Schema.Clone()
	if err := o.applyTransformer(ctx, &form); err != nil {
		return nil, err
	}

	renderer, err := o.rendererFor(req.Renderer)
	if err != nil {
		return nil, err
	}

	options := req.RenderOptions
	if options.Visibility == nil {
		result := o.EvaluateWithExtras(form, options.Values, options.Context.Extras)
		options.Visibility = &result
	}
	if options.Theme == nil {
		cfg, err := o.resolveTheme(req.ThemeName, req.ThemeVariant)
		if err != nil {
			return nil, err
		}
		options.Theme = cfg
	}

	output, err := renderer.Render(ctx, form, options)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: render output: %w", err)
	}
	return output, nil
}

// RenderStored loads the schema stored under id and renders it.
func (o *Orchestrator) RenderStored(ctx context.Context, id int64, req Request) ([]byte, error) {
	form, found, err := o.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %d", ErrFormNotFound, id)
	}
	req.Schema = form
	if req.RenderOptions.Context.InstanceID == 0 {
		req.RenderOptions.Context.InstanceID = id
	}
	return o.Render(ctx, req)
}

// Load returns the schema stored under id. The boolean is false when the
// form does not exist.
func (o *Orchestrator) Load(ctx context.Context, id int64) (schema.Schema, bool, error) {
	if o.store == nil {
		return schema.Schema{}, false, ErrNoStore
	}
	form, found, err := o.store.Load(ctx, id)
	if err != nil {
		return schema.Schema{}, false, fmt.Errorf("orchestrator: load form %d: %w", id, err)
	}
	return form, found, nil
}

// FormIDs lists the stored form ids when the store supports listing.
func (o *Orchestrator) FormIDs(ctx context.Context) ([]int64, error) {
	if o.store == nil {
		return nil, ErrNoStore
	}
	lister, ok := o.store.(store.Lister)
	if !ok {
		return nil, fmt.Errorf("orchestrator: store %T cannot list forms", o.store)
	}
	ids, err := lister.IDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: list forms: %w", err)
	}
	return ids, nil
}

// Save validates form and persists it when valid. Invalid schemas never
// reach the store; the returned error wraps ErrInvalidSchema. The validator
// result is returned in both cases so callers can surface warnings.
func (o *Orchestrator) Save(ctx context.Context, id int64, form schema.Schema) (validation.Result, error) {
	if o.store == nil {
		return validation.Result{}, ErrNoStore
	}
	result := o.validator.Validate(form)
	if !result.Valid {
		o.logger.Info("rejected invalid schema",
			zap.Int64("form_id", id),
			zap.Strings("errors", result.Errors),
		)
		return result, &ValidationError{Result: result}
	}
	if err := o.store.Save(ctx, id, schema.Normalize(form)); err != nil {
		return result, fmt.Errorf("orchestrator: save form %d: %w", id, err)
	}
	if len(result.Warnings) > 0 {
		o.logger.Info("saved schema with warnings",
			zap.Int64("form_id", id),
			zap.Strings("warnings", result.Warnings),
		)
	}
	return result, nil
}

func (o *Orchestrator) rendererFor(name string) (render.Renderer, error) {
	if o.registry == nil {
		return nil, errors.New("orchestrator: renderer registry is nil")
	}

	target := name
	if target == "" {
		target = o.defaultRenderer
	}

	if target != "" {
		renderer, err := o.registry.Get(target)
		if err == nil {
			return renderer, nil
		}
		if name != "" {
			return nil, fmt.Errorf("%w %q: %v", ErrUnknownRenderer, name, err)
		}
	}

	names := o.registry.List()
	if len(names) == 0 {
		return nil, errors.New("orchestrator: no renderers registered")
	}

	renderer, err := o.registry.Get(names[0])
	if err != nil {
		return nil, fmt.Errorf("orchestrator: renderer %q: %w", names[0], err)
	}
	return renderer, nil
}

func (o *Orchestrator) applyTransformer(ctx context.Context, form *schema.Schema) error {
	if o.transformer == nil || form == nil {
		return nil
	}
	if err := o.transformer.Transform(ctx, form); err != nil {
		return fmt.Errorf("orchestrator: transform schema: %w", err)
	}
	return nil
}
