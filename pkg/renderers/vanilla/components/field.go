package components

import (
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/goliatone/go-formflow/pkg/schema"
)

// Field is a schema node resolved for rendering: settings carry type
// defaults, and the required, disabled and hidden flags already reflect the
// visibility result.
type Field struct {
	Type      string          `json:"type"`
	Name      string          `json:"name"`
	Key       string          `json:"key"`
	ID        string          `json:"id"`
	InputName string          `json:"input_name"`
	Label     string          `json:"label"`
	HelpText  string          `json:"help_text"`
	Settings  schema.Settings `json:"settings"`
	Value     any             `json:"value"`
	Required  bool            `json:"required"`
	Disabled  bool            `json:"disabled"`
	Hidden    bool            `json:"hidden"`
	Errors    []string        `json:"errors"`
	Children  []schema.Field  `json:"-"`
}

// HelpID is the id of the help text element.
func (f Field) HelpID() string { return f.ID + "_help" }

// ErrorID is the id of the always-present error slot.
func (f Field) ErrorID() string { return f.ID + "_error" }

// LabelID is the id of the label element.
func (f Field) LabelID() string { return f.ID + "_label" }

// DescribedBy lists the ids referenced by aria-describedby.
func (f Field) DescribedBy() string {
	if strings.TrimSpace(f.HelpText) != "" {
		return f.HelpID() + " " + f.ErrorID()
	}
	return f.ErrorID()
}

// StringValue returns the value formatted for an input.
func (f Field) StringValue() string {
	return schema.ToString(f.Value)
}

// Values returns the value as a list, splitting comma separated strings.
func (f Field) Values() []string {
	switch typed := f.Value.(type) {
	case nil:
		return nil
	case []string:
		return typed
	case []any:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			out = append(out, schema.ToString(item))
		}
		return out
	case string:
		if strings.TrimSpace(typed) == "" {
			return nil
		}
		parts := strings.Split(typed, ",")
		for idx := range parts {
			parts[idx] = strings.TrimSpace(parts[idx])
		}
		return parts
	default:
		return []string{schema.ToString(typed)}
	}
}

// Checked reports whether the value is truthy.
func (f Field) Checked() bool {
	checked, _ := schema.ToBool(f.Value)
	return checked
}

// ControlAttrs returns the required, disabled and aria attributes shared by
// form controls, already escaped and with a leading space.
func (f Field) ControlAttrs() string {
	return f.attrs(f.Required)
}

// GroupAttrs mirrors ControlAttrs for controls inside a group where the
// required flag applies to the group rather than each input.
func (f Field) GroupAttrs() string {
	return f.attrs(false)
}

func (f Field) attrs(required bool) string {
	var builder strings.Builder
	if required {
		builder.WriteString(` required aria-required="true"`)
	}
	if f.Disabled {
		builder.WriteString(` disabled`)
	}
	writeAttr(&builder, "aria-describedby", f.DescribedBy())
	if len(f.Errors) > 0 {
		builder.WriteString(` aria-invalid="true"`)
	}
	return builder.String()
}

var unsafeIDChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// ControlID derives a DOM id from a field name or key.
func ControlID(parts ...string) string {
	clean := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.Trim(unsafeIDChars.ReplaceAllString(strings.TrimSpace(part), "-"), "-")
		if part != "" {
			clean = append(clean, part)
		}
	}
	if len(clean) == 0 {
		return ""
	}
	return "ff-" + strings.Join(clean, "-")
}

func writeAttr(builder *strings.Builder, name, value string) {
	builder.WriteByte(' ')
	builder.WriteString(name)
	builder.WriteString(`="`)
	builder.WriteString(html.EscapeString(value))
	builder.WriteByte('"')
}

func writeOptionalAttr(builder *strings.Builder, name, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	writeAttr(builder, name, value)
}

func formatNumber(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func numberSetting(settings schema.Settings, key string) (string, bool) {
	value, ok := settings.Float(key)
	if !ok {
		return "", false
	}
	return formatNumber(value), true
}

func sanitizeClassList(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	tokens := strings.Fields(value)
	keep := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if strings.HasPrefix(token, "formflow-") || strings.ContainsAny(token, `"'<>`) {
			continue
		}
		keep = append(keep, token)
	}
	return strings.Join(keep, " ")
}

// SanitizeClassList drops framework-reserved and unsafe tokens from an
// authored class list.
func SanitizeClassList(value string) string {
	return sanitizeClassList(value)
}
