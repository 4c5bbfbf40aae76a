package components

import (
	"bytes"
	"html"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

func headingRenderer(buf *bytes.Buffer, field Field, _ ComponentData) error {
	level := field.Settings.String("level")
	switch level {
	case "h2", "h3", "h4":
	default:
		level = "h3"
	}
	text := field.Settings.String("text")
	if text == "" {
		text = field.Label
	}
	buf.WriteString(`<` + level + ` class="formflow-heading">`)
	buf.WriteString(html.EscapeString(text))
	buf.WriteString(`</` + level + `>`)
	return nil
}

func paragraphRenderer(buf *bytes.Buffer, field Field, data ComponentData) error {
	content := field.Settings.String("content")
	if content == "" {
		return nil
	}
	buf.WriteString(`<div class="formflow-paragraph">`)
	buf.WriteString(renderMarkdown(data, content))
	buf.WriteString(`</div>`)
	return nil
}

func dividerRenderer(buf *bytes.Buffer, field Field, _ ComponentData) error {
	style := field.Settings.String("style")
	switch style {
	case "solid", "dashed", "dotted":
	default:
		style = "solid"
	}
	buf.WriteString(`<hr class="formflow-divider formflow-divider--` + style + `">`)
	return nil
}

func spacerRenderer(buf *bytes.Buffer, field Field, _ ComponentData) error {
	height := field.Settings.Int("height", 24)
	if height < 0 {
		height = 0
	}
	buf.WriteString(`<div class="formflow-spacer" aria-hidden="true" style="height: ` + strconv.Itoa(height) + `px"></div>`)
	return nil
}

func columnsRenderer(buf *bytes.Buffer, field Field, data ComponentData) error {
	count := field.Settings.Int("columns", 2)
	if count < 1 || count > 4 {
		count = 2
	}
	buf.WriteString(`<div class="formflow-columns" data-columns="` + strconv.Itoa(count) + `" style="grid-template-columns: repeat(` + strconv.Itoa(count) + `, minmax(0, 1fr))">`)
	if data.RenderChildren != nil {
		buf.WriteString(data.RenderChildren(field.Children, nil))
	}
	buf.WriteString(`</div>`)
	return nil
}

// sectionRenderer uses <details> when collapsible so the toggle works without
// script; otherwise a plain fieldset.
func sectionRenderer(buf *bytes.Buffer, field Field, data ComponentData) error {
	title := field.Settings.String("title")
	description := field.Settings.String("description")
	collapsible := field.Settings.Bool("collapsible")

	var builder strings.Builder
	if collapsible {
		builder.WriteString(`<details class="formflow-section formflow-section--collapsible"`)
		writeAttr(&builder, "id", field.ID)
		if !field.Settings.Bool("collapsed") {
			builder.WriteString(` open`)
		}
		builder.WriteString(`><summary class="formflow-section__title">`)
		builder.WriteString(html.EscapeString(title))
		builder.WriteString(`</summary>`)
	} else {
		builder.WriteString(`<fieldset class="formflow-section"`)
		writeAttr(&builder, "id", field.ID)
		builder.WriteString(`>`)
		if title != "" {
			builder.WriteString(`<legend class="formflow-section__title">`)
			builder.WriteString(html.EscapeString(title))
			builder.WriteString(`</legend>`)
		}
	}
	if description != "" {
		builder.WriteString(`<p class="formflow-section__description">`)
		builder.WriteString(html.EscapeString(description))
		builder.WriteString(`</p>`)
	}
	builder.WriteString(`<div class="formflow-section__body">`)
	if data.RenderChildren != nil {
		builder.WriteString(data.RenderChildren(field.Children, nil))
	}
	builder.WriteString(`</div>`)
	if collapsible {
		builder.WriteString(`</details>`)
	} else {
		builder.WriteString(`</fieldset>`)
	}
	buf.WriteString(builder.String())
	return nil
}

// repeaterRenderer pre-renders max(len(values), min_items) rows plus one
// <template> whose names and ids carry the repeater's own placeholder,
// announced in data-placeholder. The runtime keeps its own counter in
// data-next-index so removed rows never free an index that a later clone
// would reuse.
func repeaterRenderer(buf *bytes.Buffer, field Field, data ComponentData) error {
	rows := repeaterRows(field.Value)
	minItems := field.Settings.Int("min_items", 0)
	maxItems := field.Settings.Int("max_items", 0)
	if minItems < 0 {
		minItems = 0
	}
	count := len(rows)
	if count < minItems {
		count = minItems
	}
	itemLabel := field.Settings.String("item_label")
	addLabel := field.Settings.String("add_label")
	placeholder := RepeaterPlaceholder(field.ID)

	var builder strings.Builder
	builder.WriteString(`<div class="formflow-repeater" data-formflow-widget="repeater" role="group"`)
	writeAttr(&builder, "id", field.ID)
	writeAttr(&builder, "data-name", field.InputName)
	writeAttr(&builder, "data-min", strconv.Itoa(minItems))
	if maxItems > 0 {
		writeAttr(&builder, "data-max", strconv.Itoa(maxItems))
	}
	writeAttr(&builder, "data-next-index", strconv.Itoa(count))
	writeAttr(&builder, "data-placeholder", placeholder)
	writeAttr(&builder, "aria-labelledby", field.LabelID())
	writeAttr(&builder, "aria-describedby", field.DescribedBy())
	builder.WriteString(`><div class="formflow-repeater__items" data-repeater-items>`)
	for idx := 0; idx < count; idx++ {
		var values map[string]any
		if idx < len(rows) {
			values = rows[idx]
		}
		writeRepeaterItem(&builder, field, data, itemLabel, &Item{Index: strconv.Itoa(idx), Values: values}, itemLabel+" "+strconv.Itoa(idx+1))
	}
	builder.WriteString(`</div><template data-repeater-template>`)
	writeRepeaterItem(&builder, field, data, itemLabel, &Item{Index: placeholder}, itemLabel)
	builder.WriteString(`</template><button type="button" class="formflow-button formflow-repeater__add" data-repeater-add`)
	if field.Disabled || (maxItems > 0 && count >= maxItems) {
		builder.WriteString(` disabled`)
	}
	builder.WriteString(`>`)
	builder.WriteString(html.EscapeString(addLabel))
	builder.WriteString(`</button></div>`)
	buf.WriteString(builder.String())
	return nil
}

func writeRepeaterItem(builder *strings.Builder, field Field, data ComponentData, base string, item *Item, label string) {
	builder.WriteString(`<div class="formflow-repeater__item" data-repeater-item`)
	writeAttr(builder, "data-index", item.Index)
	builder.WriteString(`><div class="formflow-repeater__header"><span class="formflow-repeater__label" data-repeater-item-label`)
	writeAttr(builder, "data-label-base", base)
	builder.WriteString(`>`)
	builder.WriteString(html.EscapeString(label))
	builder.WriteString(`</span><button type="button" class="formflow-button formflow-button--link" data-repeater-remove>Remove</button></div>`)
	if data.RenderChildren != nil {
		builder.WriteString(data.RenderChildren(field.Children, item))
	}
	builder.WriteString(`</div>`)
}

func repeaterRows(value any) []map[string]any {
	switch typed := value.(type) {
	case []map[string]any:
		return typed
	case []any:
		out := make([]map[string]any, 0, len(typed))
		for _, entry := range typed {
			row, _ := entry.(map[string]any)
			out = append(out, row)
		}
		return out
	default:
		return nil
	}
}

// unknownFieldRenderer is the default NameUnknownField hook: it leaves a
// marker comment and logs the degradation.
func unknownFieldRenderer(buf *bytes.Buffer, field Field, data ComponentData) error {
	data.Log().Warn("formflow: unknown field type",
		zap.String("type", field.Type),
		zap.String("field", field.Key),
	)
	buf.WriteString(`<!-- formflow: unknown field type "` + commentSafe(field.Type) + `" -->`)
	return nil
}

// commentSafe strips sequences that would terminate an HTML comment.
func commentSafe(value string) string {
	value = strings.ReplaceAll(value, "--", "")
	value = strings.ReplaceAll(value, ">", "")
	return strings.ReplaceAll(value, "<", "")
}

// CommentSafe exposes commentSafe for renderers writing marker comments.
func CommentSafe(value string) string {
	return commentSafe(value)
}
