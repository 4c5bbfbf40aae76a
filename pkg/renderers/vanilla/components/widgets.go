package components

import (
	"bytes"
	"html"
	"regexp"
	"strconv"
	"strings"
)

var hexColor = regexp.MustCompile(`^#[0-9a-f]{6}$`)

func hiddenRenderer(buf *bytes.Buffer, field Field, _ ComponentData) error {
	var builder strings.Builder
	builder.WriteString(`<input type="hidden"`)
	writeAttr(&builder, "id", field.ID)
	writeAttr(&builder, "name", field.InputName)
	writeAttr(&builder, "value", field.StringValue())
	builder.WriteString(`>`)
	buf.WriteString(builder.String())
	return nil
}

// checkboxRenderer posts "0" through a companion hidden input so unchecked
// boxes still reach the server.
func checkboxRenderer(buf *bytes.Buffer, field Field, _ ComponentData) error {
	var builder strings.Builder
	writeCheckbox(&builder, field, "formflow-check", field.Settings.String("checkbox_label"), "")
	buf.WriteString(builder.String())
	return nil
}

func toggleRenderer(buf *bytes.Buffer, field Field, _ ComponentData) error {
	var builder strings.Builder
	on := field.Settings.String("on_label")
	off := field.Settings.String("off_label")
	state := off
	if field.Checked() {
		state = on
	}
	var extra strings.Builder
	extra.WriteString(` role="switch"`)
	writeAttr(&extra, "data-on-label", on)
	writeAttr(&extra, "data-off-label", off)
	writeCheckbox(&builder, field, "formflow-toggle", state, extra.String())
	buf.WriteString(builder.String())
	return nil
}

func writeCheckbox(builder *strings.Builder, field Field, class, text, extra string) {
	builder.WriteString(`<input type="hidden" value="0"`)
	writeAttr(builder, "name", field.InputName)
	builder.WriteString(`><label`)
	writeAttr(builder, "class", class)
	writeAttr(builder, "for", field.ID)
	builder.WriteString(`><input type="checkbox" value="1"`)
	writeAttr(builder, "id", field.ID)
	writeAttr(builder, "name", field.InputName)
	if field.Checked() {
		builder.WriteString(` checked`)
	}
	builder.WriteString(extra)
	builder.WriteString(field.ControlAttrs())
	builder.WriteString(`> <span data-toggle-text>`)
	builder.WriteString(html.EscapeString(text))
	builder.WriteString(`</span></label>`)
}

func ratingRenderer(buf *bytes.Buffer, field Field, _ ComponentData) error {
	maxRating := field.Settings.Int("max_rating", 5)
	if maxRating < 1 {
		maxRating = 5
	}
	symbol := "★"
	if field.Settings.String("icon") == "heart" {
		symbol = "♥"
	}
	current := field.StringValue()

	var builder strings.Builder
	builder.WriteString(`<div class="formflow-rating" data-formflow-widget="rating" role="radiogroup"`)
	writeAttr(&builder, "id", field.ID)
	writeAttr(&builder, "aria-labelledby", field.LabelID())
	builder.WriteString(`>`)
	for value := 1; value <= maxRating; value++ {
		id := field.ID + "-" + strconv.Itoa(value)
		builder.WriteString(`<input type="radio" class="formflow-rating__input"`)
		writeAttr(&builder, "id", id)
		writeAttr(&builder, "name", field.InputName)
		writeAttr(&builder, "value", strconv.Itoa(value))
		if current == strconv.Itoa(value) {
			builder.WriteString(` checked`)
		}
		builder.WriteString(field.ControlAttrs())
		builder.WriteString(`><label class="formflow-rating__star"`)
		writeAttr(&builder, "for", id)
		writeAttr(&builder, "title", strconv.Itoa(value)+" of "+strconv.Itoa(maxRating))
		builder.WriteString(`>`)
		builder.WriteString(symbol)
		builder.WriteString(`</label>`)
	}
	builder.WriteString(`</div>`)
	buf.WriteString(builder.String())
	return nil
}

func dateRangeRenderer(buf *bytes.Buffer, field Field, _ ComponentData) error {
	start, end := "", ""
	if values, ok := field.Value.(map[string]any); ok {
		start = toString(values["start"])
		end = toString(values["end"])
	}

	var builder strings.Builder
	builder.WriteString(`<div class="formflow-date-range" data-formflow-widget="date_range" role="group"`)
	writeAttr(&builder, "id", field.ID)
	writeAttr(&builder, "aria-labelledby", field.LabelID())
	builder.WriteString(`>`)
	for _, part := range []struct{ key, label, value string }{
		{"start", field.Settings.String("start_label"), start},
		{"end", field.Settings.String("end_label"), end},
	} {
		id := field.ID + "_" + part.key
		builder.WriteString(`<label class="formflow-date-range__part"`)
		writeAttr(&builder, "for", id)
		builder.WriteString(`><span>`)
		builder.WriteString(html.EscapeString(part.label))
		builder.WriteString(`</span><input type="date" class="formflow-input"`)
		writeAttr(&builder, "id", id)
		writeAttr(&builder, "name", field.InputName+"["+part.key+"]")
		writeAttr(&builder, "value", part.value)
		writeAttr(&builder, "data-range-part", part.key)
		builder.WriteString(field.ControlAttrs())
		builder.WriteString(`></label>`)
	}
	builder.WriteString(`</div>`)
	buf.WriteString(builder.String())
	return nil
}

func sliderRenderer(buf *bytes.Buffer, field Field, _ ComponentData) error {
	value := field.StringValue()
	if value == "" {
		value, _ = numberSetting(field.Settings, "min")
	}
	unit := field.Settings.String("unit")

	var builder strings.Builder
	builder.WriteString(`<div class="formflow-slider" data-formflow-widget="slider"`)
	writeOptionalAttr(&builder, "data-unit", unit)
	builder.WriteString(`><input type="range" class="formflow-slider__input"`)
	writeAttr(&builder, "id", field.ID)
	writeAttr(&builder, "name", field.InputName)
	writeRangeAttrs(&builder, field)
	writeAttr(&builder, "value", value)
	builder.WriteString(field.ControlAttrs())
	builder.WriteString(`>`)
	if field.Settings.Bool("show_value") {
		builder.WriteString(`<output class="formflow-slider__value" data-slider-output`)
		writeAttr(&builder, "for", field.ID)
		builder.WriteString(`>`)
		builder.WriteString(html.EscapeString(strings.TrimSpace(value + " " + unit)))
		builder.WriteString(`</output>`)
	}
	builder.WriteString(`</div>`)
	buf.WriteString(builder.String())
	return nil
}

func stepperRenderer(buf *bytes.Buffer, field Field, _ ComponentData) error {
	value := field.StringValue()
	if value == "" {
		value, _ = numberSetting(field.Settings, "min")
	}

	var builder strings.Builder
	builder.WriteString(`<div class="formflow-stepper" data-formflow-widget="stepper">`)
	builder.WriteString(`<button type="button" class="formflow-stepper__button" data-stepper-decrement aria-label="Decrease"`)
	writeAttr(&builder, "aria-controls", field.ID)
	builder.WriteString(`>&minus;</button><input type="number" class="formflow-input formflow-stepper__input"`)
	writeAttr(&builder, "id", field.ID)
	writeAttr(&builder, "name", field.InputName)
	writeRangeAttrs(&builder, field)
	writeAttr(&builder, "value", value)
	builder.WriteString(field.ControlAttrs())
	builder.WriteString(`><button type="button" class="formflow-stepper__button" data-stepper-increment aria-label="Increase"`)
	writeAttr(&builder, "aria-controls", field.ID)
	builder.WriteString(`>+</button></div>`)
	buf.WriteString(builder.String())
	return nil
}

func writeRangeAttrs(builder *strings.Builder, field Field) {
	for _, key := range []string{"min", "max", "step"} {
		if value, ok := numberSetting(field.Settings, key); ok {
			writeAttr(builder, key, value)
		}
	}
}

func colorRenderer(buf *bytes.Buffer, field Field, _ ComponentData) error {
	value := strings.ToLower(field.StringValue())
	if !hexColor.MatchString(value) {
		value = "#000000"
	}

	var builder strings.Builder
	builder.WriteString(`<div class="formflow-color" data-formflow-widget="color"><input type="color" class="formflow-color__swatch"`)
	writeAttr(&builder, "id", field.ID)
	writeAttr(&builder, "name", field.InputName)
	writeAttr(&builder, "value", value)
	builder.WriteString(field.ControlAttrs())
	builder.WriteString(`><input type="text" class="formflow-input formflow-color__hex" data-color-hex maxlength="7" pattern="^#[0-9a-fA-F]{6}$" aria-label="Hex color"`)
	writeAttr(&builder, "value", value)
	if field.Disabled {
		builder.WriteString(` disabled`)
	}
	builder.WriteString(`></div>`)
	buf.WriteString(builder.String())
	return nil
}

func signatureRenderer(buf *bytes.Buffer, field Field, _ ComponentData) error {
	width := field.Settings.Int("width", 400)
	height := field.Settings.Int("height", 150)

	var builder strings.Builder
	builder.WriteString(`<div class="formflow-signature" data-formflow-widget="signature"><canvas class="formflow-signature__pad" data-signature-canvas role="img"`)
	writeAttr(&builder, "width", strconv.Itoa(width))
	writeAttr(&builder, "height", strconv.Itoa(height))
	writeAttr(&builder, "aria-labelledby", field.LabelID())
	builder.WriteString(`></canvas><input type="hidden" data-signature-value`)
	writeAttr(&builder, "id", field.ID)
	writeAttr(&builder, "name", field.InputName)
	writeAttr(&builder, "value", field.StringValue())
	builder.WriteString(field.ControlAttrs())
	builder.WriteString(`><button type="button" class="formflow-button formflow-button--link" data-signature-clear>Clear</button></div>`)
	buf.WriteString(builder.String())
	return nil
}

// fileRenderer emits the drop-zone. The runtime moves data-state through
// idle, uploading, complete and error; data-upload-url switches it from a
// plain multipart submit to an immediate upload.
func fileRenderer(buf *bytes.Buffer, field Field, _ ComponentData) error {
	var builder strings.Builder
	builder.WriteString(`<div class="formflow-dropzone" data-formflow-widget="file" data-state="idle"`)
	if size, ok := field.Settings.Float("max_size_mb"); ok && size > 0 {
		writeAttr(&builder, "data-max-size", strconv.FormatInt(int64(size*1024*1024), 10))
	}
	writeOptionalAttr(&builder, "data-upload-url", field.Settings.String("upload_url"))
	builder.WriteString(`><input type="file" class="formflow-dropzone__input"`)
	writeAttr(&builder, "id", field.ID)
	writeAttr(&builder, "name", field.InputName)
	writeOptionalAttr(&builder, "accept", field.Settings.String("accept"))
	if field.Settings.Bool("multiple") {
		builder.WriteString(` multiple`)
	}
	builder.WriteString(field.ControlAttrs())
	builder.WriteString(`><p class="formflow-dropzone__status" data-file-status aria-live="polite">Drop a file here or click to browse</p>`)
	builder.WriteString(`<progress class="formflow-dropzone__progress" max="100" value="0" data-file-progress hidden></progress>`)
	builder.WriteString(`<button type="button" class="formflow-button formflow-button--link" data-file-cancel hidden>Cancel</button>`)
	builder.WriteString(`<input type="hidden" data-file-token`)
	writeAttr(&builder, "name", field.InputName+"_token")
	builder.WriteString(`></div>`)
	buf.WriteString(builder.String())
	return nil
}

func addressRenderer(buf *bytes.Buffer, field Field, data ComponentData) error {
	line1 := field.Value
	line2 := ""
	if values, ok := field.Value.(map[string]any); ok {
		line1 = values["line1"]
		line2 = toString(values["line2"])
	}
	first := field
	first.Value = line1
	if err := templateComponentRenderer(PartialInput, templatePrefix+"input.tmpl", inputPayload)(buf, first, data); err != nil {
		return err
	}
	if !field.Settings.Bool("include_line2") {
		return nil
	}

	var builder strings.Builder
	builder.WriteString(`<input type="text" class="formflow-input formflow-address__line2" autocomplete="address-line2" placeholder="Apartment, suite, unit"`)
	writeAttr(&builder, "id", field.ID+"_line2")
	writeAttr(&builder, "name", field.InputName+"_line2")
	writeAttr(&builder, "value", line2)
	writeAttr(&builder, "aria-label", "Address line 2")
	if field.Disabled {
		builder.WriteString(` disabled`)
	}
	builder.WriteString(`>`)
	buf.WriteString(builder.String())
	return nil
}

func consentRenderer(buf *bytes.Buffer, field Field, data ComponentData) error {
	var builder strings.Builder
	if content := field.Settings.String("content"); content != "" {
		builder.WriteString(`<div class="formflow-consent__terms" tabindex="0">`)
		builder.WriteString(renderMarkdown(data, content))
		builder.WriteString(`</div>`)
	}
	writeCheckbox(&builder, field, "formflow-check formflow-consent__check", field.Settings.String("checkbox_label"), "")
	buf.WriteString(builder.String())
	return nil
}

func renderMarkdown(data ComponentData, source string) string {
	if data.Markdown != nil {
		return data.Markdown(source)
	}
	return "<p>" + html.EscapeString(source) + "</p>"
}

func toString(value any) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(Field{Value: value}.StringValue())
}
