package vanilla

import (
	"bytes"
	"html"
	"slices"
	"strings"

	theme "github.com/goliatone/go-theme"
	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/renderers/vanilla/components"
	"github.com/goliatone/go-formflow/pkg/schema"
	"github.com/goliatone/go-formflow/pkg/visibility"
)

// location addresses a field list inside the tree. prefix and idPrefix are
// set below repeater rows so nested names read parent[0][child].
type location struct {
	step     string
	position string
	prefix   string
	idPrefix string
	item     *components.Item
}

type componentRenderer struct {
	owner    *Renderer
	formID   string
	partials map[string]string
	result   visibility.Result
	values   map[string]any
	errors   map[string][]string

	usedComponents map[string]struct{}
	multipart      bool
}

func newComponentRenderer(owner *Renderer, formID string, cfg *theme.RendererConfig, result visibility.Result, values map[string]any, errs map[string][]string) *componentRenderer {
	var partials map[string]string
	if cfg != nil {
		partials = cloneStringMap(cfg.Partials)
	}
	return &componentRenderer{
		owner:          owner,
		formID:         formID,
		partials:       partials,
		result:         result,
		values:         values,
		errors:         errs,
		usedComponents: make(map[string]struct{}),
	}
}

func (r *componentRenderer) renderFields(fields []schema.Field, loc location) string {
	var builder strings.Builder
	for idx, node := range fields {
		position := visibility.ChildPosition(loc.position, idx)
		builder.WriteString(r.render(node, position, loc))
	}
	return builder.String()
}

func (r *componentRenderer) render(node schema.Field, position string, loc location) string {
	field := r.resolve(node, position, loc)

	componentName := field.Type
	descriptor, ok := r.owner.registry.Descriptor(componentName)
	if !ok {
		componentName = components.NameUnknownField
		descriptor, ok = r.owner.registry.Descriptor(componentName)
		if !ok {
			r.owner.logger.Warn("formflow: unknown field type and no hook registered",
				zap.String("type", field.Type),
				zap.String("field", field.Key),
			)
			return "<!-- formflow: unknown field type \"" + components.CommentSafe(field.Type) + "\" -->"
		}
	}

	data := components.ComponentData{
		Template:      r.owner.templates,
		ThemePartials: r.partials,
		Markdown:      renderMarkdown,
		Logger:        r.owner.logger,
		RenderChildren: func(children []schema.Field, item *components.Item) string {
			return r.renderFields(children, r.childLocation(field, position, loc, item))
		},
	}

	var control bytes.Buffer
	if err := descriptor.Renderer(&control, field, data); err != nil {
		r.owner.logger.Warn("formflow: component render failed",
			zap.String("component", componentName),
			zap.String("field", field.Key),
			zap.Error(err),
		)
		control.Reset()
		control.WriteString("<!-- formflow: could not render field \"" + components.CommentSafe(field.Key) + "\" -->")
	}

	r.usedComponents[componentName] = struct{}{}
	if field.Type == "file" {
		r.multipart = true
	}

	if componentName == components.NameUnknownField {
		return control.String()
	}
	return buildFieldMarkup(field, node, componentName, control.String())
}

// resolve merges the node with type defaults, the evaluation result and the
// request values.
func (r *componentRenderer) resolve(node schema.Field, position string, loc location) components.Field {
	key := visibility.FieldKey(loc.step, position, node)
	settings := r.owner.types.ResolveSettings(node.Type, node.Settings)
	name := strings.TrimSpace(node.Name)

	inputName := name
	if loc.prefix != "" && name != "" {
		inputName = loc.prefix + "[" + name + "]"
	}
	var id string
	switch {
	case loc.idPrefix != "" && name != "":
		id = loc.idPrefix + "-" + strings.TrimPrefix(components.ControlID(name), "ff-")
	case loc.idPrefix != "":
		id = loc.idPrefix + "-" + strings.ReplaceAll(position, ".", "-")
	case name != "":
		id = r.scopedID(name)
	default:
		id = r.scopedID(key)
	}

	field := components.Field{
		Type:      node.Type,
		Name:      name,
		Key:       key,
		ID:        id,
		InputName: inputName,
		Label:     strings.TrimSpace(settings.String("label")),
		HelpText:  strings.TrimSpace(settings.String("help_text")),
		Settings:  settings,
		Value:     r.value(node, key, name, settings, loc),
		Required:  r.result.EffectiveRequired(key, settings.Bool("required")),
		Disabled:  r.result.Disabled(key),
		Hidden:    r.result.FieldHidden(key),
		Children:  node.Children,
	}
	if loc.item == nil && name != "" {
		field.Errors = r.errors[name]
	}
	return field
}

func (r *componentRenderer) value(node schema.Field, key, name string, settings schema.Settings, loc location) any {
	if name != "" {
		if loc.item != nil {
			if value, ok := loc.item.Values[name]; ok && value != nil {
				return value
			}
		} else {
			if value, ok := r.result.Value(key); ok {
				return value
			}
			if value, ok := r.values[name]; ok && value != nil {
				return value
			}
		}
	}
	if settings.Has("default_checked") {
		return settings.Bool("default_checked")
	}
	if value, ok := settings["default_value"]; ok {
		return value
	}
	return nil
}

// scopedID prefixes top-level control ids with the form id so several forms
// can share a page. Rows below repeaters inherit it through the parent id.
func (r *componentRenderer) scopedID(part string) string {
	id := components.ControlID(part)
	if id == "" || r.formID == "" {
		return id
	}
	return r.formID + "-" + strings.TrimPrefix(id, "ff-")
}

func (r *componentRenderer) childLocation(parent components.Field, position string, loc location, item *components.Item) location {
	child := location{
		step:     loc.step,
		position: position,
		prefix:   loc.prefix,
		idPrefix: loc.idPrefix,
		item:     loc.item,
	}
	if item == nil {
		return child
	}
	child.prefix = parent.InputName + "[" + item.Index + "]"
	child.idPrefix = parent.ID + "-" + item.Index
	child.item = item
	return child
}

func (r *componentRenderer) assets() (stylesheets []string, scripts []map[string]any) {
	if len(r.usedComponents) == 0 {
		return nil, nil
	}
	names := make([]string, 0, len(r.usedComponents))
	for name := range r.usedComponents {
		names = append(names, name)
	}
	slices.Sort(names)
	styles, deps := r.owner.registry.Assets(names)
	for _, script := range deps {
		scripts = append(scripts, map[string]any{
			"src":    script.Src,
			"type":   script.Type,
			"inline": script.Inline,
			"async":  script.Async,
			"defer":  script.Defer,
			"module": script.Module,
		})
	}
	return styles, scripts
}

func buildFieldMarkup(field components.Field, node schema.Field, componentName, control string) string {
	var builder strings.Builder
	builder.Grow(len(control) + 256)

	builder.WriteString(`<div class="`)
	builder.WriteString(string(ClassField))
	builder.WriteString(` formflow-field--`)
	builder.WriteString(html.EscapeString(typeModifier(field.Type)))
	if cls := components.SanitizeClassList(field.Settings.String("css_class")); cls != "" {
		builder.WriteByte(' ')
		builder.WriteString(html.EscapeString(cls))
	}
	builder.WriteString(`" data-formflow-field="`)
	builder.WriteString(html.EscapeString(field.Key))
	builder.WriteString(`" data-formflow-type="`)
	builder.WriteString(html.EscapeString(field.Type))
	builder.WriteString(`"`)
	if field.Name != "" {
		builder.WriteString(` data-formflow-name="`)
		builder.WriteString(html.EscapeString(field.Name))
		builder.WriteString(`"`)
	}
	if field.Settings.Bool("required") {
		builder.WriteString(` data-required-static="true"`)
	}
	if len(node.Children) > 0 {
		builder.WriteString(` data-formflow-container`)
	}
	if field.Hidden {
		builder.WriteString(` hidden`)
	}
	builder.WriteString(">\n")

	chrome := !components.HandlesChrome(componentName)

	if chrome && field.Label != "" {
		if components.LabelSupportsFor(componentName) {
			builder.WriteString(`    <label class="`)
			builder.WriteString(string(ClassLabel))
			builder.WriteString(`" id="`)
			builder.WriteString(html.EscapeString(field.LabelID()))
			builder.WriteString(`" for="`)
			builder.WriteString(html.EscapeString(field.ID))
			builder.WriteString(`">`)
		} else {
			builder.WriteString(`    <span class="`)
			builder.WriteString(string(ClassLabel))
			builder.WriteString(`" id="`)
			builder.WriteString(html.EscapeString(field.LabelID()))
			builder.WriteString(`">`)
		}
		builder.WriteString(html.EscapeString(field.Label))
		builder.WriteString(` <span class="`)
		builder.WriteString(string(ClassRequired))
		builder.WriteString(`" aria-hidden="true"`)
		if !field.Required {
			builder.WriteString(` hidden`)
		}
		builder.WriteString(`>*</span>`)
		if components.LabelSupportsFor(componentName) {
			builder.WriteString("</label>\n")
		} else {
			builder.WriteString("</span>\n")
		}
	}

	if control != "" {
		for _, line := range strings.Split(control, "\n") {
			if strings.TrimSpace(line) == "" {
				continue
			}
			builder.WriteString("    ")
			builder.WriteString(line)
			builder.WriteByte('\n')
		}
	}

	if chrome {
		if field.HelpText != "" {
			builder.WriteString(`    <p class="`)
			builder.WriteString(string(ClassHelp))
			builder.WriteString(`" id="`)
			builder.WriteString(html.EscapeString(field.HelpID()))
			builder.WriteString(`">`)
			builder.WriteString(html.EscapeString(field.HelpText))
			builder.WriteString("</p>\n")
		}
		builder.WriteString(`    <div class="`)
		builder.WriteString(string(ClassError))
		builder.WriteString(`" id="`)
		builder.WriteString(html.EscapeString(field.ErrorID()))
		builder.WriteString(`" role="alert" aria-live="polite">`)
		builder.WriteString(html.EscapeString(strings.Join(field.Errors, " ")))
		builder.WriteString("</div>\n")
	}

	builder.WriteString("</div>\n")
	return builder.String()
}

func typeModifier(fieldType string) string {
	if modifier := strings.TrimPrefix(components.ControlID(fieldType), "ff-"); modifier != "" {
		return strings.ReplaceAll(modifier, "_", "-")
	}
	return "unknown"
}

func cloneStringMap(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for key, value := range src {
		out[key] = value
	}
	return out
}
