package vanilla

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	theme "github.com/goliatone/go-theme"
	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/fieldtypes"
	"github.com/goliatone/go-formflow/pkg/render"
	rendertemplate "github.com/goliatone/go-formflow/pkg/render/template"
	gotemplate "github.com/goliatone/go-formflow/pkg/render/template/gotemplate"
	"github.com/goliatone/go-formflow/pkg/renderers/vanilla/components"
	"github.com/goliatone/go-formflow/pkg/runtime"
	"github.com/goliatone/go-formflow/pkg/schema"
	"github.com/goliatone/go-formflow/pkg/visibility"
)

const formTemplate = "templates/form.tmpl"

// InstanceFieldName is the hidden input carrying the form instance id.
const InstanceFieldName = "_formflow_instance"

// ThemeStylesheetAsset is the asset key resolved through the theme AssetURL
// hook to link a white-label stylesheet.
const ThemeStylesheetAsset = "formflow.stylesheet"

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	registry         *components.Registry
	types            *fieldtypes.Registry
	logger           *zap.Logger
	unknownHook      components.Renderer
	assetPrefix      string
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithComponentRegistry replaces the default component registry.
func WithComponentRegistry(registry *components.Registry) Option {
	return func(cfg *config) {
		if registry != nil {
			cfg.registry = registry
		}
	}
}

// WithFieldTypes supplies the registry used to resolve setting defaults.
func WithFieldTypes(types *fieldtypes.Registry) Option {
	return func(cfg *config) {
		if types != nil {
			cfg.types = types
		}
	}
}

// WithLogger routes degradation warnings to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithUnknownFieldHook overrides the render.unknown_field hook.
func WithUnknownFieldHook(hook components.Renderer) Option {
	return func(cfg *config) {
		cfg.unknownHook = hook
	}
}

// WithAssetPrefix links the runtime script and stylesheet from prefix (for
// example "/formflow/assets") instead of inlining them into every page.
func WithAssetPrefix(prefix string) Option {
	return func(cfg *config) {
		cfg.assetPrefix = strings.TrimSpace(prefix)
	}
}

// Renderer emits a self-contained multi-step HTML form.
type Renderer struct {
	templates   rendertemplate.TemplateRenderer
	registry    *components.Registry
	types       *fieldtypes.Registry
	logger      *zap.Logger
	assetPrefix string
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the vanilla renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := gotemplate.New(cfg.templateFS, ".tmpl")
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	registry := cfg.registry
	if registry == nil {
		registry = components.NewDefaultRegistry()
	}
	if cfg.unknownHook != nil {
		registry = registry.Clone()
		if err := registry.Register(components.NameUnknownField, components.Descriptor{Renderer: cfg.unknownHook}); err != nil {
			return nil, fmt.Errorf("vanilla renderer: register unknown field hook: %w", err)
		}
	}
	if cfg.types == nil {
		cfg.types = fieldtypes.NewDefaultRegistry()
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	return &Renderer{
		templates:   renderer,
		registry:    registry,
		types:       cfg.types,
		logger:      cfg.logger,
		assetPrefix: cfg.assetPrefix,
	}, nil
}

func (r *Renderer) Name() string {
	return "vanilla"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render evaluates the form rules against options.Values and writes one
// container per step. Steps hidden by rules are still emitted, carrying a
// data-step-hidden marker, so the runtime can reveal them without a reload.
func (r *Renderer) Render(ctx context.Context, form schema.Schema, options render.RenderOptions) ([]byte, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("vanilla renderer: template renderer is nil")
	}
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	program := visibility.Compile(form)
	for _, diagnostic := range program.Diagnostics {
		r.logger.Debug("formflow: rule dropped", zap.String("diagnostic", diagnostic))
	}

	var result visibility.Result
	if options.Visibility != nil {
		result = *options.Visibility
	} else {
		result = program.Run(options.Values, options.Context.Extras)
	}

	values := make(map[string]any, len(options.Values)+len(result.Values))
	for key, value := range options.Values {
		values[key] = value
	}
	for key, value := range result.Values {
		values[key] = value
	}

	keys := make([]string, len(form.Steps))
	for idx, step := range form.Steps {
		keys[idx] = visibility.StepKey(idx, step)
	}
	tracker := render.NewStepTrackerAt(keys, result.HiddenSteps, options.ActiveStep)

	formID := options.Context.ID()
	fields := newComponentRenderer(r, formID, options.Theme, result, values, options.Errors)

	steps := make([]map[string]any, 0, len(form.Steps))
	progress := make([]map[string]any, 0, len(form.Steps))
	for idx, step := range form.Steps {
		key := keys[idx]
		title := strings.TrimSpace(step.Title)
		if title == "" {
			if id := strings.TrimSpace(step.ID); id != "" {
				title = schema.Humanize(id)
			} else {
				title = "Step " + strconv.Itoa(idx+1)
			}
		}
		body := fields.renderFields(step.Fields, location{step: key})
		state := tracker.State(key)
		steps = append(steps, map[string]any{
			"key":         key,
			"dom_id":      formID + "-" + components.ControlID(key),
			"number":      strconv.Itoa(idx + 1),
			"title":       title,
			"description": step.Description,
			"state":       string(state),
			"active":      state == render.StepActive,
			"rule_hidden": result.StepHidden(key),
			"body":        body,
		})
		progress = append(progress, map[string]any{
			"key":    key,
			"number": strconv.Itoa(idx + 1),
			"title":  title,
			"state":  string(state),
			"hidden": result.StepHidden(key),
		})
	}

	programJSON, err := json.Marshal(program)
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: encode rule program: %w", err)
	}
	stateJSON, err := json.Marshal(map[string]any{
		"active": tracker.Active(),
		"steps":  tracker.States(),
		"result": result,
		"extras": options.Context.Extras,
	})
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: encode initial state: %w", err)
	}

	method := strings.ToUpper(strings.TrimSpace(options.Context.Method))
	formMethod := "post"
	if method == "GET" {
		formMethod = "get"
	}
	hiddenInputs := []render.HiddenField{render.InstanceField(InstanceFieldName, options.Context.InstanceID)}
	if override, ok := render.MethodField(method); ok {
		hiddenInputs = append(hiddenInputs, override)
	}
	hidden := make([]map[string]any, 0, len(options.HiddenFields)+len(hiddenInputs))
	for _, field := range render.SortedHiddenFields(render.MergeHiddenFields(options.HiddenFields, hiddenInputs...)) {
		hidden = append(hidden, map[string]any{"name": field.Name, "value": field.Value})
	}

	stylesheets, scripts := fields.assets()
	inlineCSS, inlineJS := "", ""
	if r.assetPrefix == "" {
		inlineCSS = runtime.Stylesheet()
		inlineJS = runtime.Script()
	} else {
		stylesheets = append([]string{expandAssetURL(r.assetPrefix, runtime.StylesheetName)}, stylesheets...)
		scripts = append(scripts, map[string]any{"src": expandAssetURL(r.assetPrefix, runtime.ScriptName)})
	}

	var themeVars map[string]string
	if cfg := options.Theme; cfg != nil {
		themeVars = cfg.CSSVars
		if cfg.AssetURL != nil {
			if href := strings.TrimSpace(cfg.AssetURL(ThemeStylesheetAsset)); href != "" {
				stylesheets = append(stylesheets, href)
			}
		}
	}

	payload := map[string]any{
		"form": map[string]any{
			"id":              formID,
			"action":          options.Context.Action,
			"method":          formMethod,
			"locale":          options.Context.Locale,
			"async":           options.Context.Async,
			"instance_id":     strconv.FormatInt(options.Context.InstanceID, 10),
			"css_class":       components.SanitizeClassList(form.Settings.CSSClass),
			"multipart":       fields.multipart,
			"show_progress":   form.Settings.Progress(len(form.Steps)),
			"submit_label":    form.Settings.SubmitLabel(),
			"next_label":      form.Settings.NextLabel(),
			"previous_label":  form.Settings.PreviousLabel(),
			"success_message": form.Settings.Success(),
			"theme":           themeName(options.Theme),
			"variant":         themeVariant(options.Theme),
		},
		"theme_vars":    themeVars,
		"hidden_fields": hidden,
		"form_errors":   options.FormErrors,
		"steps":         steps,
		"progress":      progress,
		"is_first":      tracker.IsFirst(),
		"is_last":       tracker.IsLast(),
		"program_json":  string(programJSON),
		"state_json":    string(stateJSON),
		"stylesheets":   stylesheets,
		"scripts":       scripts,
		"inline_css":    inlineCSS,
		"inline_js":     inlineJS,
	}

	rendered, err := r.templates.RenderTemplate(formTemplate, payload)
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render template: %w", err)
	}
	return []byte(rendered), nil
}

func themeName(cfg *theme.RendererConfig) string {
	if cfg == nil {
		return ""
	}
	return cfg.Theme
}

func themeVariant(cfg *theme.RendererConfig) string {
	if cfg == nil {
		return ""
	}
	return cfg.Variant
}

func expandAssetURL(prefix, name string) string {
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, "http://") ||
		strings.HasPrefix(name, "https://") ||
		strings.HasPrefix(name, "//") ||
		strings.HasPrefix(name, "/") {
		return name
	}
	p := strings.TrimRight(prefix, "/")
	n := strings.TrimLeft(name, "/")
	if p == "" {
		return n
	}
	return p + "/" + n
}
