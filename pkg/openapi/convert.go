package openapi

import (
	"regexp"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/fieldtypes"
	"github.com/goliatone/go-formflow/pkg/schema"
)

// ExtensionKey is the vendor extension read from property schemas.
//
//	x-formflow:
//	  type: radio          # overrides the inferred field type
//	  step: billing        # places a top-level property on its own step
//	  order: 2             # sorts properties, ties break on name
//	  skip: true           # omits the property
//	  settings: {...}      # merged over the inferred settings
const ExtensionKey = "x-formflow"

// Strings longer than this become textareas.
const textareaThreshold = 255

var (
	invalidNameChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)
	leadingLetter    = regexp.MustCompile(`^[A-Za-z]`)
)

type extension struct {
	Type     string
	Step     string
	Order    float64
	HasOrder bool
	Skip     bool
	Settings map[string]any
}

func readExtension(s *openapi3.Schema) extension {
	var ext extension
	if s == nil {
		return ext
	}
	raw, ok := s.Extensions[ExtensionKey].(map[string]any)
	if !ok {
		return ext
	}
	ext.Type = strings.ToLower(strings.TrimSpace(schema.ToString(raw["type"])))
	ext.Step = strings.TrimSpace(schema.ToString(raw["step"]))
	if order, ok := schema.ToFloat(raw["order"]); ok {
		ext.Order, ext.HasOrder = order, true
	}
	ext.Skip, _ = schema.ToBool(raw["skip"])
	if settings, ok := raw["settings"].(map[string]any); ok {
		ext.Settings = settings
	}
	return ext
}

type property struct {
	name     string
	schema   *openapi3.Schema
	required bool
	ext      extension
}

type converter struct {
	logger   *zap.Logger
	visiting map[*openapi3.Schema]bool
}

func newConverter(logger *zap.Logger) *converter {
	return &converter{logger: logger, visiting: make(map[*openapi3.Schema]bool)}
}

func (c *converter) form(body *openapi3.Schema, title string) schema.Schema {
	out := schema.Default()
	if title == "" {
		title = schema.DefaultStepTitle
	}
	out.Steps[0].Title = title
	if desc := strings.TrimSpace(body.Description); desc != "" {
		out.Steps[0].Description = desc
	}

	index := map[string]int{schema.DefaultStepID: 0}
	for _, prop := range c.properties(body) {
		field, ok := c.field(prop, "")
		if !ok {
			continue
		}
		stepID := schema.DefaultStepID
		if prop.ext.Step != "" {
			stepID = sanitizeName(prop.ext.Step)
		}
		pos, ok := index[stepID]
		if !ok {
			out.Steps = append(out.Steps, schema.Step{ID: stepID, Title: schema.Humanize(stepID), Fields: []schema.Field{}})
			pos = len(out.Steps) - 1
			index[stepID] = pos
		}
		out.Steps[pos].Fields = append(out.Steps[pos].Fields, field)
	}

	if len(out.Steps) > 1 && len(out.Steps[0].Fields) == 0 {
		out.Steps = out.Steps[1:]
	}
	return schema.Normalize(out)
}

// properties flattens allOf members and sorts by x-formflow order then name.
func (c *converter) properties(s *openapi3.Schema) []property {
	props := make(map[string]*openapi3.Schema)
	required := make(map[string]bool)
	var gather func(*openapi3.Schema)
	gather = func(s *openapi3.Schema) {
		if s == nil {
			return
		}
		for _, ref := range s.AllOf {
			if ref != nil {
				gather(ref.Value)
			}
		}
		for name, ref := range s.Properties {
			if ref != nil && ref.Value != nil {
				props[name] = ref.Value
			}
		}
		for _, name := range s.Required {
			required[name] = true
		}
	}
	gather(s)

	out := make([]property, 0, len(props))
	for name, value := range props {
		out = append(out, property{name: name, schema: value, required: required[name], ext: readExtension(value)})
	}
	sort.SliceStable(out, func(a, b int) bool {
		left, right := out[a].ext, out[b].ext
		if left.HasOrder != right.HasOrder {
			return left.HasOrder
		}
		if left.HasOrder && left.Order != right.Order {
			return left.Order < right.Order
		}
		return out[a].name < out[b].name
	})
	return out
}

func (c *converter) field(prop property, prefix string) (schema.Field, bool) {
	s := prop.schema
	if prop.ext.Skip {
		c.logger.Debug("skipping property", zap.String("property", prop.name), zap.String("reason", "x-formflow skip"))
		return schema.Field{}, false
	}
	if s.ReadOnly {
		c.logger.Debug("skipping property", zap.String("property", prop.name), zap.String("reason", "read only"))
		return schema.Field{}, false
	}
	if c.visiting[s] {
		c.logger.Debug("skipping property", zap.String("property", prop.name), zap.String("reason", "recursive reference"))
		return schema.Field{}, false
	}
	c.visiting[s] = true
	defer delete(c.visiting, s)

	name := sanitizeName(prop.name)
	if prefix != "" {
		name = prefix + "_" + name
	}
	settings := schema.Settings{
		"label": labelFor(prop.name, s),
	}
	if desc := strings.TrimSpace(s.Description); desc != "" {
		settings["help_text"] = desc
	}
	if prop.required {
		settings["required"] = true
	}
	if s.Default != nil {
		settings["default_value"] = s.Default
	}

	field := schema.Field{Name: name, Settings: settings}
	switch {
	case isObject(s):
		field.Type = fieldtypes.TypeSection
		field.Name = ""
		settings["title"] = settings["label"]
		delete(settings, "label")
		delete(settings, "required")
		delete(settings, "default_value")
		if help, ok := settings["help_text"]; ok {
			settings["description"] = help
			delete(settings, "help_text")
		}
		for _, child := range c.properties(s) {
			if nested, ok := c.field(child, name); ok {
				field.Children = append(field.Children, nested)
			}
		}
		if len(field.Children) == 0 {
			return schema.Field{}, false
		}
	case hasType(s, openapi3.TypeArray):
		c.arrayField(&field, s)
	case hasType(s, openapi3.TypeBoolean):
		field.Type = fieldtypes.TypeCheckbox
	case hasType(s, openapi3.TypeInteger), hasType(s, openapi3.TypeNumber):
		field.Type = fieldtypes.TypeNumber
		numberSettings(settings, s)
		if len(s.Enum) > 0 {
			field.Type = fieldtypes.TypeSelect
			settings["options"] = enumOptions(s.Enum)
		}
	default:
		field.Type = stringType(s)
		stringSettings(settings, s)
		if len(s.Enum) > 0 {
			field.Type = fieldtypes.TypeSelect
			settings["options"] = enumOptions(s.Enum)
		}
	}

	if prop.ext.Type != "" {
		field.Type = prop.ext.Type
	}
	for key, value := range prop.ext.Settings {
		settings[key] = value
	}
	return field, true
}

func (c *converter) arrayField(field *schema.Field, s *openapi3.Schema) {
	var items *openapi3.Schema
	if s.Items != nil {
		items = s.Items.Value
	}

	if items != nil && len(items.Enum) > 0 {
		field.Type = fieldtypes.TypeCheckboxGroup
		field.Settings["options"] = enumOptions(items.Enum)
		if s.MinItems > 0 {
			field.Settings["min_selected"] = int(s.MinItems)
		}
		if s.MaxItems != nil {
			field.Settings["max_selected"] = int(*s.MaxItems)
		}
		return
	}

	field.Type = fieldtypes.TypeRepeater
	if s.MinItems > 0 {
		field.Settings["min_items"] = int(s.MinItems)
	}
	if s.MaxItems != nil {
		field.Settings["max_items"] = int(*s.MaxItems)
	}
	if items == nil {
		field.Children = []schema.Field{{Type: fieldtypes.TypeText, Name: "value", Settings: schema.Settings{"label": "Value"}}}
		return
	}
	if isObject(items) {
		for _, child := range c.properties(items) {
			if nested, ok := c.field(child, ""); ok {
				field.Children = append(field.Children, nested)
			}
		}
		return
	}
	if nested, ok := c.field(property{name: "value", schema: items}, ""); ok {
		nested.Settings["label"] = labelFor("value", items)
		field.Children = []schema.Field{nested}
	}
}

func stringType(s *openapi3.Schema) string {
	switch strings.ToLower(s.Format) {
	case "email", "idn-email":
		return fieldtypes.TypeEmail
	case "date", "date-time":
		return fieldtypes.TypeDate
	case "uri", "url", "iri":
		return fieldtypes.TypeURL
	case "password":
		return fieldtypes.TypePassword
	case "phone", "tel":
		return fieldtypes.TypePhone
	case "color":
		return fieldtypes.TypeColor
	case "binary", "byte":
		return fieldtypes.TypeFile
	}
	if s.WriteOnly {
		return fieldtypes.TypePassword
	}
	if s.MaxLength != nil && *s.MaxLength > textareaThreshold {
		return fieldtypes.TypeTextarea
	}
	return fieldtypes.TypeText
}

func stringSettings(settings schema.Settings, s *openapi3.Schema) {
	if s.MinLength > 0 {
		settings["min_length"] = int(s.MinLength)
	}
	if s.MaxLength != nil {
		settings["max_length"] = int(*s.MaxLength)
	}
	if s.Pattern != "" {
		settings["pattern"] = s.Pattern
	}
	if example, ok := s.Example.(string); ok && example != "" {
		settings["placeholder"] = example
	}
}

func numberSettings(settings schema.Settings, s *openapi3.Schema) {
	if s.Min != nil {
		settings["min"] = *s.Min
	}
	if s.Max != nil {
		settings["max"] = *s.Max
	}
	switch {
	case s.MultipleOf != nil && *s.MultipleOf > 0:
		settings["step"] = *s.MultipleOf
	case hasType(s, openapi3.TypeInteger):
		settings["step"] = 1.0
	}
}

func enumOptions(values []any) []any {
	out := make([]any, 0, len(values))
	for _, value := range values {
		text := schema.ToString(value)
		if text == "" {
			continue
		}
		out = append(out, map[string]any{"value": text, "label": text})
	}
	return out
}

func hasType(s *openapi3.Schema, typ string) bool {
	return s.Type != nil && s.Type.Is(typ)
}

func labelFor(name string, s *openapi3.Schema) string {
	if title := strings.TrimSpace(s.Title); title != "" {
		return title
	}
	return schema.Humanize(name)
}

// sanitizeName maps a property name onto the field name alphabet.
func sanitizeName(name string) string {
	cleaned := strings.Trim(invalidNameChars.ReplaceAllString(strings.TrimSpace(name), "_"), "_")
	if cleaned == "" {
		return "field"
	}
	if !leadingLetter.MatchString(cleaned) {
		cleaned = "f_" + cleaned
	}
	return cleaned
}
