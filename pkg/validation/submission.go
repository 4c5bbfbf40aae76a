package validation

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/fieldtypes"
	"github.com/goliatone/go-formflow/pkg/schema"
	"github.com/goliatone/go-formflow/pkg/visibility"
)

// Messages used for submission issues.
const (
	MessageRequired = "This field is required."
	MessageFormat   = "Please enter a valid value."
	MessageChoice   = "Please choose one of the available options."
)

const (
	emailPattern = `^[^@\s]+@[^@\s]+\.[^@\s]+$`
	datePattern  = `^\d{4}-\d{2}-\d{2}$`
	urlPattern   = `^https?://\S+$`
	colorPattern = `^#[0-9A-Fa-f]{6}$`
)

var defaultRegistry = sync.OnceValue(fieldtypes.NewDefaultRegistry)

// SchemaIssue is a single submission problem with its location.
type SchemaIssue struct {
	Path    string `json:"path,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// SubmissionResult reports submitted value problems keyed by field name, plus
// the cleaned values: visible fields only, coerced to their field kinds, with
// computed values applied.
type SubmissionResult struct {
	Valid  bool                `json:"valid"`
	Errors map[string][]string `json:"errors"`
	Issues []SchemaIssue       `json:"issues,omitempty"`
	Values map[string]any      `json:"values"`
}

// ValidateSubmission checks submitted values with a default Validator.
func ValidateSubmission(s schema.Schema, values map[string]any) SubmissionResult {
	return New().ValidateSubmission(s, values)
}

// ValidateSubmission evaluates the conditional rules for values, builds an
// object schema from the visible fields and validates the cleaned values
// against it. Hidden fields are neither validated nor returned; disabled
// fields are validated but never required.
func (v *Validator) ValidateSubmission(s schema.Schema, values map[string]any) SubmissionResult {
	result := visibility.Evaluate(s, values)
	doc, cleaned := v.SubmissionSchema(s, result, values)

	out := SubmissionResult{
		Valid:  true,
		Errors: map[string][]string{},
		Values: cleaned,
	}

	err := doc.VisitJSON(cleaned, openapi3.MultiErrors())
	if err == nil {
		return out
	}

	for _, issue := range issuesFromError(err) {
		key := issue.Field
		if key == "" {
			key = "_form"
		}
		out.Errors[key] = append(out.Errors[key], issue.Message)
		out.Issues = append(out.Issues, issue)
	}
	out.Valid = len(out.Issues) == 0
	v.logger.Debug("submission validated",
		zap.Bool("valid", out.Valid),
		zap.Int("issues", len(out.Issues)),
	)
	return out
}

// SubmissionSchema builds the object schema for the fields visible in result
// and returns it together with the values it should be checked against.
func (v *Validator) SubmissionSchema(s schema.Schema, result visibility.Result, values map[string]any) (*openapi3.Schema, map[string]any) {
	b := &submissionBuilder{registry: v.registry, result: result}
	if b.registry == nil {
		b.registry = defaultRegistry()
	}

	working := make(map[string]any, len(values)+len(result.Values))
	for key, value := range values {
		working[key] = value
	}
	for key, value := range result.Values {
		working[key] = value
	}

	doc := openapi3.NewObjectSchema()
	doc.Properties = openapi3.Schemas{}
	cleaned := map[string]any{}
	for idx, step := range s.Steps {
		stepKey := visibility.StepKey(idx, step)
		b.object(doc, cleaned, working, stepKey, step.Fields, "", true)
	}
	sort.Strings(doc.Required)
	return doc, cleaned
}

type submissionBuilder struct {
	registry *fieldtypes.Registry
	result   visibility.Result
}

// object adds properties for fields (flattening layout containers) into doc
// and copies their present values into cleaned.
func (b *submissionBuilder) object(doc *openapi3.Schema, cleaned, values map[string]any, stepKey string, fields []schema.Field, parent string, dynamic bool) {
	for idx, field := range fields {
		position := visibility.ChildPosition(parent, idx)
		key := visibility.FieldKey(stepKey, position, field)
		if dynamic && b.result.FieldHidden(key) {
			continue
		}

		fieldType := strings.TrimSpace(field.Type)
		name := strings.TrimSpace(field.Name)
		settings := b.registry.ResolveSettings(fieldType, field.Settings)

		if fieldType == fieldtypes.TypeRepeater && name != "" {
			item := openapi3.NewObjectSchema()
			item.Properties = openapi3.Schemas{}
			b.object(item, map[string]any{}, map[string]any{}, stepKey, field.Children, position, false)

			prop := openapi3.NewArraySchema().WithItems(item)
			if minItems := settings.Int("min_items", 0); minItems > 0 {
				prop = prop.WithMinItems(int64(minItems))
			}
			if maxItems := settings.Int("max_items", 0); maxItems > 0 {
				prop = prop.WithMaxItems(int64(maxItems))
			}
			doc.Properties[name] = openapi3.NewSchemaRef("", prop)
			if raw, ok := values[name]; ok {
				cleaned[name] = coerceItems(raw)
			}
			continue
		}

		if len(field.Children) > 0 {
			b.object(doc, cleaned, values, stepKey, field.Children, position, dynamic)
			continue
		}
		if name == "" || b.registry.IsLayout(fieldType) {
			continue
		}

		doc.Properties[name] = openapi3.NewSchemaRef("", propertySchema(fieldType, settings))

		static := settings.Bool("required")
		required := static
		if dynamic {
			required = b.result.EffectiveRequired(key, static) && !b.result.Disabled(key)
		}
		if required {
			doc.Required = append(doc.Required, name)
		}

		raw, ok := values[name]
		if !ok || isBlank(raw) {
			continue
		}
		cleaned[name] = coerceValue(fieldType, raw)
	}
}

func propertySchema(fieldType string, settings schema.Settings) *openapi3.Schema {
	switch fieldType {
	case fieldtypes.TypeNumber, fieldtypes.TypeSlider, fieldtypes.TypeStepper:
		prop := openapi3.NewFloat64Schema()
		if lower, ok := settings.Float("min"); ok {
			prop = prop.WithMin(lower)
		}
		if upper, ok := settings.Float("max"); ok {
			prop = prop.WithMax(upper)
		}
		return prop
	case fieldtypes.TypeRating:
		return openapi3.NewFloat64Schema().WithMin(1).WithMax(float64(settings.Int("max_rating", 5)))
	case fieldtypes.TypeCheckbox, fieldtypes.TypeToggle:
		return openapi3.NewBoolSchema()
	case fieldtypes.TypeConsent:
		prop := openapi3.NewBoolSchema()
		if settings.Bool("required") {
			prop = prop.WithEnum(true)
		}
		return prop
	case fieldtypes.TypeCheckboxGroup:
		item := openapi3.NewStringSchema()
		if options := optionValues(settings); len(options) > 0 {
			item = item.WithEnum(options...)
		}
		prop := openapi3.NewArraySchema().WithItems(item)
		if lower := settings.Int("min_selected", 0); lower > 0 {
			prop = prop.WithMinItems(int64(lower))
		}
		if upper := settings.Int("max_selected", 0); upper > 0 {
			prop = prop.WithMaxItems(int64(upper))
		}
		return prop
	case fieldtypes.TypeSelect, fieldtypes.TypeRadio, fieldtypes.TypeState,
		fieldtypes.TypeCountry, fieldtypes.TypeProvider, fieldtypes.TypeServiceType:
		prop := openapi3.NewStringSchema()
		if options := optionValues(settings); len(options) > 0 {
			prop = prop.WithEnum(options...)
		}
		if settings.Bool("multiple") {
			return openapi3.NewArraySchema().WithItems(prop)
		}
		return prop
	case fieldtypes.TypeDateRange, fieldtypes.TypeFile, fieldtypes.TypeSignature:
		return openapi3.NewSchema()
	}

	prop := openapi3.NewStringSchema()
	switch fieldType {
	case fieldtypes.TypeEmail:
		prop = prop.WithPattern(emailPattern)
	case fieldtypes.TypeDate:
		prop = prop.WithPattern(datePattern)
	case fieldtypes.TypeURL:
		prop = prop.WithPattern(urlPattern)
	case fieldtypes.TypeColor:
		prop = prop.WithPattern(colorPattern)
	}
	if pattern := settings.String("pattern"); pattern != "" {
		prop = prop.WithPattern(pattern)
	}
	if lower := settings.Int("min_length", 0); lower > 0 {
		prop = prop.WithMinLength(int64(lower))
	}
	if upper := settings.Int("max_length", 0); upper > 0 {
		prop = prop.WithMaxLength(int64(upper))
	}
	return prop
}

func optionValues(settings schema.Settings) []any {
	options := settings.Options("options")
	out := make([]any, 0, len(options))
	for _, opt := range options {
		out = append(out, opt.Value)
	}
	return out
}

func isBlank(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	default:
		return false
	}
}

// coerceValue converts form-post shaped values (strings, string slices) into
// the JSON kinds the property schema expects. Values that cannot be coerced
// are passed through so the schema reports them.
func coerceValue(fieldType string, value any) any {
	switch fieldType {
	case fieldtypes.TypeNumber, fieldtypes.TypeSlider, fieldtypes.TypeStepper, fieldtypes.TypeRating:
		if f, ok := schema.ToFloat(value); ok {
			return f
		}
		return value
	case fieldtypes.TypeCheckbox, fieldtypes.TypeToggle, fieldtypes.TypeConsent:
		if b, ok := schema.ToBool(value); ok {
			return b
		}
		return value
	case fieldtypes.TypeCheckboxGroup:
		return toList(value)
	}
	switch v := value.(type) {
	case []string:
		return toList(v)
	case string:
		return strings.TrimSpace(v)
	default:
		return value
	}
}

func coerceItems(value any) any {
	switch v := value.(type) {
	case []map[string]any:
		out := make([]any, len(v))
		for idx, item := range v {
			out[idx] = item
		}
		return out
	default:
		return value
	}
}

func toList(value any) any {
	switch v := value.(type) {
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for idx, item := range v {
			out[idx] = item
		}
		return out
	case string:
		if strings.TrimSpace(v) == "" {
			return []any{}
		}
		return []any{v}
	default:
		return value
	}
}

func issuesFromError(err error) []SchemaIssue {
	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		var out []SchemaIssue
		for _, item := range multi {
			out = append(out, issuesFromError(item)...)
		}
		return out
	}

	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) {
		pointer := schemaErr.JSONPointer()
		path := "/" + strings.Join(pointer, "/")
		return []SchemaIssue{{
			Path:    path,
			Field:   fieldPathFromPointer(path),
			Message: issueMessage(schemaErr),
		}}
	}

	msg := strings.TrimSpace(err.Error())
	path := extractJSONPointer(msg)
	return []SchemaIssue{{
		Path:    path,
		Field:   fieldPathFromPointer(path),
		Message: msg,
	}}
}

func issueMessage(err *openapi3.SchemaError) string {
	switch err.SchemaField {
	case "required":
		return MessageRequired
	case "pattern":
		return MessageFormat
	case "enum":
		return MessageChoice
	}
	reason := strings.TrimSpace(err.Reason)
	if reason == "" {
		return MessageFormat
	}
	return strings.ToUpper(reason[:1]) + reason[1:] + "."
}

func extractJSONPointer(message string) string {
	if idx := strings.LastIndex(message, "#/"); idx >= 0 {
		return strings.TrimRight(strings.TrimSpace(message[idx:]), ".)];,")
	}
	return ""
}

// fieldPathFromPointer converts a JSON pointer into a dotted field path,
// e.g. "/household/1/name" becomes "household.1.name".
func fieldPathFromPointer(pointer string) string {
	trimmed := strings.TrimSpace(pointer)
	trimmed = strings.TrimPrefix(trimmed, "#")
	trimmed = strings.Trim(trimmed, "/")
	if trimmed == "" {
		return ""
	}

	parts := strings.Split(trimmed, "/")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.ReplaceAll(part, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		if segment == "" || segment == "properties" {
			continue
		}
		out = append(out, segment)
	}
	return strings.Join(out, ".")
}
