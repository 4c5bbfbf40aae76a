package components

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

var inputTypes = map[string]string{
	"text":           "text",
	"email":          "email",
	"phone":          "tel",
	"number":         "number",
	"url":            "url",
	"password":       "password",
	"date":           "date",
	"city":           "text",
	"zip":            "text",
	"account_number": "text",
	"meter_number":   "text",
}

var autocompleteHints = map[string]string{
	"email":   "email",
	"phone":   "tel",
	"url":     "url",
	"city":    "address-level2",
	"zip":     "postal-code",
	"address": "address-line1",
	"state":   "address-level1",
	"country": "country",
}

func templateComponentRenderer(partialKey, templateName string, payload func(Field) map[string]any) Renderer {
	return func(buf *bytes.Buffer, field Field, data ComponentData) error {
		if data.Template == nil {
			return fmt.Errorf("components: template renderer not configured for %q", templateName)
		}

		resolvedTemplate := templateName
		if data.ThemePartials != nil {
			if candidate := strings.TrimSpace(data.ThemePartials[partialKey]); candidate != "" {
				resolvedTemplate = candidate
			}
		}

		rendered, err := data.Template.RenderTemplate(resolvedTemplate, payload(field))
		if err != nil {
			return fmt.Errorf("components: render template %q: %w", resolvedTemplate, err)
		}
		buf.WriteString(strings.TrimSpace(rendered))
		return nil
	}
}

func inputPayload(field Field) map[string]any {
	inputType := inputTypes[field.Type]
	if inputType == "" {
		inputType = "text"
	}
	return map[string]any{
		"field":       field,
		"input_type":  inputType,
		"value":       field.StringValue(),
		"placeholder": field.Settings.String("placeholder"),
		"attrs":       field.ControlAttrs() + validationAttrs(field),
	}
}

func textareaPayload(field Field) map[string]any {
	return map[string]any{
		"field":       field,
		"rows":        strconv.Itoa(field.Settings.Int("rows", 4)),
		"value":       field.StringValue(),
		"placeholder": field.Settings.String("placeholder"),
		"attrs":       field.ControlAttrs() + validationAttrs(field),
	}
}

func selectPayload(field Field) map[string]any {
	multiple := field.Settings.Bool("multiple")
	inputName := field.InputName
	if multiple {
		inputName += "[]"
	}
	return map[string]any{
		"field":       field,
		"input_name":  inputName,
		"multiple":    multiple,
		"placeholder": field.Settings.String("placeholder"),
		"options":     optionViews(field),
		"attrs":       field.ControlAttrs() + validationAttrs(field),
	}
}

func choicesPayload(field Field) map[string]any {
	control := "radio"
	inputName := field.InputName
	attrs := field.ControlAttrs()
	var group strings.Builder
	if field.Type == "checkbox_group" {
		control = "checkbox"
		inputName += "[]"
		attrs = field.GroupAttrs()
		if value, ok := numberSetting(field.Settings, "min_selected"); ok {
			writeAttr(&group, "data-min-selected", value)
		}
		if value, ok := numberSetting(field.Settings, "max_selected"); ok {
			writeAttr(&group, "data-max-selected", value)
		}
		if field.Required {
			group.WriteString(` data-required="true"`)
		}
	}
	layout := field.Settings.String("layout")
	if layout == "" {
		layout = "vertical"
	}
	return map[string]any{
		"field":       field,
		"control":     control,
		"input_name":  inputName,
		"layout":      layout,
		"options":     optionViews(field),
		"attrs":       attrs,
		"group_attrs": group.String(),
	}
}

func optionViews(field Field) []map[string]any {
	selected := make(map[string]struct{})
	for _, value := range field.Values() {
		selected[value] = struct{}{}
	}
	options := field.Settings.Options("options")
	out := make([]map[string]any, 0, len(options))
	for idx, option := range options {
		_, isSelected := selected[option.Value]
		out = append(out, map[string]any{
			"id":       field.ID + "-" + strconv.Itoa(idx+1),
			"value":    option.Value,
			"label":    option.Label,
			"selected": isSelected,
		})
	}
	return out
}

// validationAttrs mirrors the submission constraints as HTML attributes so
// the browser runtime can check them before a step advances.
func validationAttrs(field Field) string {
	var builder strings.Builder
	settings := field.Settings

	writeOptionalAttr(&builder, "pattern", settings.String("pattern"))
	if value, ok := numberSetting(settings, "min_length"); ok {
		writeAttr(&builder, "minlength", value)
	}
	if value, ok := numberSetting(settings, "max_length"); ok {
		writeAttr(&builder, "maxlength", value)
	}

	switch field.Type {
	case "number":
		for _, key := range []string{"min", "max", "step"} {
			if value, ok := numberSetting(settings, key); ok {
				writeAttr(&builder, key, value)
			}
		}
	case "date":
		writeOptionalAttr(&builder, "min", settings.String("min_date"))
		writeOptionalAttr(&builder, "max", settings.String("max_date"))
	case "zip", "account_number":
		builder.WriteString(` inputmode="numeric"`)
		writeOptionalAttr(&builder, "data-mask", settings.String("mask"))
	}
	if hint := autocompleteHints[field.Type]; hint != "" {
		writeAttr(&builder, "autocomplete", hint)
	}
	return builder.String()
}
