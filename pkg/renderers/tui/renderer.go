package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/fieldtypes"
	"github.com/goliatone/go-formflow/pkg/render"
	"github.com/goliatone/go-formflow/pkg/schema"
	"github.com/goliatone/go-formflow/pkg/visibility"
)

// Renderer implements render.Renderer for terminal-driven sessions. It walks
// the steps with a render.StepTracker, prompting for every visible field and
// re-evaluating the rules after each answer.
type Renderer struct {
	driver            PromptDriver
	outputFormat      OutputFormat
	submitTransformer SubmitTransformer
	theme             Theme
	types             *fieldtypes.Registry
	logger            *zap.Logger
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs a TUI renderer with defaults (survey driver, JSON output).
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{
		outputFormat: OutputFormatJSON,
	}

	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}

	if r.driver == nil {
		r.driver = NewSurveyDriver(nil)
	}
	if r.types == nil {
		r.types = fieldtypes.NewDefaultRegistry()
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r, nil
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return "tui"
}

// ContentType reports the serialization format used by Render.
func (r *Renderer) ContentType() string {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain"
	default:
		return "application/json"
	}
}

// Render prompts step by step and returns the collected values. Hidden
// fields are skipped while prompting and dropped from the output.
func (r *Renderer) Render(ctx context.Context, form schema.Schema, opts render.RenderOptions) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.driver == nil {
		return nil, errors.New("tui: prompt driver is nil")
	}
	if len(form.Steps) == 0 {
		return nil, ErrNoSteps
	}

	program := visibility.Compile(form)
	state := NewState(program, opts.Values, opts.Errors, opts.Context.Extras)

	keys := make([]string, len(form.Steps))
	index := make(map[string]int, len(form.Steps))
	for idx, step := range form.Steps {
		keys[idx] = visibility.StepKey(idx, step)
		index[keys[idx]] = idx
	}
	tracker := render.NewStepTrackerAt(keys, state.Result().HiddenSteps, opts.ActiveStep)

	for {
		idx := index[tracker.Active()]
		step := form.Steps[idx]
		_, total := tracker.Progress()
		if err := r.info(ctx, r.theme.StepPrefix, fmt.Sprintf("%s (%d/%d)", stepTitle(idx, step), visibleOrdinal(tracker, keys, state.Result()), total)); err != nil {
			return nil, err
		}
		if desc := strings.TrimSpace(step.Description); desc != "" {
			if err := r.info(ctx, r.theme.InfoPrefix, desc); err != nil {
				return nil, err
			}
		}

		if err := r.promptFields(ctx, state, stateSink{state}, step.Fields, keys[idx], ""); err != nil {
			return nil, err
		}

		tracker.SetHidden(state.Result().HiddenSteps)
		if tracker.IsLast() {
			break
		}
		if _, err := tracker.Next(); err != nil {
			return nil, fmt.Errorf("tui: advance step: %w", err)
		}
	}

	values := state.Submission()
	if r.submitTransformer != nil {
		var err error
		values, err = r.submitTransformer(values)
		if err != nil {
			return nil, fmt.Errorf("tui: submit transformer: %w", err)
		}
	}

	return r.serialize(values)
}

// sink receives answers: the session state for top-level fields, a row map
// inside repeaters.
type sink interface {
	get(name string) (any, bool)
	set(name string, value any)
}

type stateSink struct{ state *State }

func (s stateSink) get(name string) (any, bool) { return s.state.Get(name) }
func (s stateSink) set(name string, value any)  { s.state.Set(name, value) }

type rowSink map[string]any

func (s rowSink) get(name string) (any, bool) {
	value, ok := s[name]
	return value, ok
}

func (s rowSink) set(name string, value any) { s[name] = value }

func (r *Renderer) promptFields(ctx context.Context, state *State, target sink, fields []schema.Field, stepKey, parent string) error {
	for idx, node := range fields {
		position := visibility.ChildPosition(parent, idx)
		if err := r.promptField(ctx, state, target, node, stepKey, position); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) promptField(ctx context.Context, state *State, target sink, node schema.Field, stepKey, position string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	result := state.Result()
	key := visibility.FieldKey(stepKey, position, node)
	if result.FieldHidden(key) {
		return nil
	}
	name := strings.TrimSpace(node.Name)
	if _, computed := result.Value(key); computed {
		return nil
	}

	settings := r.types.ResolveSettings(node.Type, node.Settings)
	p := prompt{
		name:     name,
		label:    displayLabel(node, settings),
		help:     settings.String("help_text"),
		settings: settings,
		required: result.EffectiveRequired(key, settings.Bool("required")),
		target:   target,
	}
	if result.Disabled(key) {
		return nil
	}
	if _, isRow := target.(rowSink); !isRow {
		for _, message := range state.ErrorsFor(name) {
			if err := r.info(ctx, r.theme.ErrorPrefix, p.label+": "+message); err != nil {
				return err
			}
		}
	}

	switch node.Type {
	case "heading":
		return r.info(ctx, r.theme.InfoPrefix, settings.String("text"))
	case "paragraph":
		return r.info(ctx, r.theme.InfoPrefix, settings.String("content"))
	case "divider":
		return r.info(ctx, "", "----")
	case "spacer":
		return nil
	case "columns":
		return r.promptFields(ctx, state, target, node.Children, stepKey, position)
	case "section":
		if title := settings.String("title"); title != "" {
			if err := r.info(ctx, r.theme.StepPrefix, title); err != nil {
				return err
			}
		}
		return r.promptFields(ctx, state, target, node.Children, stepKey, position)
	case "repeater":
		return r.promptRepeater(ctx, state, p, node, stepKey, position)
	case "hidden":
		if _, ok := target.get(name); !ok && settings.Has("default_value") {
			target.set(name, settings["default_value"])
		}
		return nil
	case "signature":
		return r.info(ctx, r.theme.InfoPrefix, p.label+": signature capture needs a browser, skipped")
	case "checkbox", "toggle", "consent":
		return r.promptBoolean(ctx, p)
	case "select", "state", "country", "utility_provider":
		if settings.Bool("multiple") {
			return r.promptMulti(ctx, p)
		}
		return r.promptChoice(ctx, p)
	case "radio", "service_type":
		return r.promptChoice(ctx, p)
	case "checkbox_group":
		return r.promptMulti(ctx, p)
	case "number", "slider", "stepper", "rating":
		return r.promptNumber(ctx, p, node.Type)
	case "date_range":
		return r.promptDateRange(ctx, p)
	case "address":
		if err := r.promptString(ctx, p, inputText); err != nil {
			return err
		}
		if settings.Bool("include_line2") {
			line2 := p
			line2.name = name + "_line2"
			line2.label = "Address line 2"
			line2.required = false
			return r.promptString(ctx, line2, inputText)
		}
		return nil
	case "password":
		return r.promptString(ctx, p, inputPassword)
	case "textarea":
		return r.promptString(ctx, p, inputTextArea)
	default:
		if _, known := r.types.Get(node.Type); !known {
			r.logger.Warn("formflow: unknown field type",
				zap.String("type", node.Type),
				zap.String("field", key),
			)
			return nil
		}
		return r.promptString(ctx, p, inputText)
	}
}

type inputKind int

const (
	inputText inputKind = iota
	inputPassword
	inputTextArea
)

type prompt struct {
	name     string
	label    string
	help     string
	settings schema.Settings
	required bool
	target   sink
}

func (p prompt) current() (any, bool) {
	if value, ok := p.target.get(p.name); ok && value != nil {
		return value, true
	}
	if p.settings.Has("default_checked") {
		return p.settings.Bool("default_checked"), true
	}
	if value, ok := p.settings["default_value"]; ok {
		return value, true
	}
	return nil, false
}

func (r *Renderer) promptString(ctx context.Context, p prompt, kind inputKind) error {
	rules := collectValidationRules(p)
	current, _ := p.current()
	defaultVal := schema.ToString(current)

	for {
		var response string
		var err error
		cfg := InputConfig{
			Message: p.label,
			Default: defaultVal,
			Help:    p.help,
		}
		switch kind {
		case inputPassword:
			response, err = r.driver.Password(ctx, cfg)
		case inputTextArea:
			response, err = r.driver.TextArea(ctx, TextAreaConfig{
				Message: p.label,
				Default: defaultVal,
				Help:    p.help,
			})
		default:
			response, err = r.driver.Input(ctx, cfg)
		}
		if err != nil {
			return err
		}

		if err := rules.validateString(response); err != nil {
			_ = r.info(ctx, r.theme.ErrorPrefix, fmt.Sprintf("Invalid %s: %v", p.label, err))
			continue
		}

		p.target.set(p.name, response)
		return nil
	}
}

func (r *Renderer) promptBoolean(ctx context.Context, p prompt) error {
	current, _ := p.current()
	defaultVal, _ := schema.ToBool(current)
	message := p.label
	if text := p.settings.String("checkbox_label"); text != "" {
		message = strings.TrimSpace(message + " " + text)
	}

	for {
		resp, err := r.driver.Confirm(ctx, ConfirmConfig{
			Message: message,
			Default: defaultVal,
			Help:    p.help,
		})
		if err != nil {
			return err
		}
		if p.required && !resp {
			_ = r.info(ctx, r.theme.ErrorPrefix, fmt.Sprintf("Invalid %s: required", p.label))
			continue
		}
		p.target.set(p.name, resp)
		return nil
	}
}

func (r *Renderer) promptNumber(ctx context.Context, p prompt, fieldType string) error {
	rules := collectValidationRules(p)
	if fieldType == "rating" {
		one := 1.0
		top := float64(p.settings.Int("max_rating", 5))
		rules.min, rules.max = &one, &top
	}
	current, _ := p.current()
	defaultStr := schema.ToString(current)

	for {
		input, err := r.driver.Input(ctx, InputConfig{
			Message: p.label,
			Default: defaultStr,
			Help:    p.help,
		})
		if err != nil {
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			if p.required {
				_ = r.info(ctx, r.theme.ErrorPrefix, fmt.Sprintf("Invalid %s: required", p.label))
				continue
			}
			p.target.set(p.name, nil)
			return nil
		}

		parsed, err := strconv.ParseFloat(input, 64)
		if err != nil {
			_ = r.info(ctx, r.theme.ErrorPrefix, fmt.Sprintf("Invalid %s: %v", p.label, err))
			continue
		}
		if err := rules.validateNumber(parsed); err != nil {
			_ = r.info(ctx, r.theme.ErrorPrefix, fmt.Sprintf("Invalid %s: %v", p.label, err))
			continue
		}

		p.target.set(p.name, parsed)
		return nil
	}
}

func (r *Renderer) promptChoice(ctx context.Context, p prompt) error {
	options := p.settings.Options("options")
	if len(options) == 0 {
		return r.promptString(ctx, p, inputText)
	}
	labels := optionLabels(options)
	defaultIdx := -1
	if current, ok := p.current(); ok {
		defaultIdx = optionIndex(options, schema.ToString(current))
	}

	for {
		idx, err := r.driver.Select(ctx, SelectConfig{
			Message:      p.label,
			Options:      labels,
			DefaultIndex: defaultIdx,
			Help:         p.help,
		})
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(options) {
			_ = r.info(ctx, r.theme.ErrorPrefix, fmt.Sprintf("Invalid %s selection", p.label))
			continue
		}
		p.target.set(p.name, options[idx].Value)
		return nil
	}
}

func (r *Renderer) promptMulti(ctx context.Context, p prompt) error {
	options := p.settings.Options("options")
	labels := optionLabels(options)
	var defaults []int
	if current, ok := p.current(); ok {
		for _, value := range toStrings(current) {
			if idx := optionIndex(options, value); idx >= 0 {
				defaults = append(defaults, idx)
			}
		}
	}
	minSelected := p.settings.Int("min_selected", 0)
	maxSelected := p.settings.Int("max_selected", 0)

	for {
		indices, err := r.driver.MultiSelect(ctx, SelectConfig{
			Message:  p.label,
			Options:  labels,
			Defaults: defaults,
			Help:     p.help,
		})
		if err != nil {
			return err
		}
		selected := make([]any, 0, len(indices))
		for _, idx := range indices {
			if idx >= 0 && idx < len(options) {
				selected = append(selected, options[idx].Value)
			}
		}
		switch {
		case p.required && len(selected) == 0:
			_ = r.info(ctx, r.theme.ErrorPrefix, fmt.Sprintf("Invalid %s: required", p.label))
			continue
		case minSelected > 0 && len(selected) < minSelected:
			_ = r.info(ctx, r.theme.ErrorPrefix, fmt.Sprintf("Invalid %s: select at least %d", p.label, minSelected))
			continue
		case maxSelected > 0 && len(selected) > maxSelected:
			_ = r.info(ctx, r.theme.ErrorPrefix, fmt.Sprintf("Invalid %s: select at most %d", p.label, maxSelected))
			continue
		}
		p.target.set(p.name, selected)
		return nil
	}
}

var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

func (r *Renderer) promptDateRange(ctx context.Context, p prompt) error {
	current, _ := p.current()
	existing, _ := current.(map[string]any)
	startLabel := p.settings.String("start_label")
	endLabel := p.settings.String("end_label")

	for {
		start, err := r.driver.Input(ctx, InputConfig{
			Message: p.label + " - " + startLabel,
			Default: schema.ToString(existing["start"]),
			Help:    p.help,
		})
		if err != nil {
			return err
		}
		end, err := r.driver.Input(ctx, InputConfig{
			Message: p.label + " - " + endLabel,
			Default: schema.ToString(existing["end"]),
			Help:    p.help,
		})
		if err != nil {
			return err
		}
		start, end = strings.TrimSpace(start), strings.TrimSpace(end)

		switch {
		case p.required && (start == "" || end == ""):
			_ = r.info(ctx, r.theme.ErrorPrefix, fmt.Sprintf("Invalid %s: required", p.label))
			continue
		case (start != "" && !isoDate.MatchString(start)) || (end != "" && !isoDate.MatchString(end)):
			_ = r.info(ctx, r.theme.ErrorPrefix, fmt.Sprintf("Invalid %s: use YYYY-MM-DD", p.label))
			continue
		case start != "" && end != "" && end < start:
			_ = r.info(ctx, r.theme.ErrorPrefix, fmt.Sprintf("Invalid %s: %s must not be before %s", p.label, endLabel, startLabel))
			continue
		}
		p.target.set(p.name, map[string]any{"start": start, "end": end})
		return nil
	}
}

// promptRepeater collects rows until the minimum is met and the user stops
// adding or the maximum is reached.
func (r *Renderer) promptRepeater(ctx context.Context, state *State, p prompt, node schema.Field, stepKey, position string) error {
	current, _ := p.current()
	existing, _ := current.([]any)
	minItems := p.settings.Int("min_items", 0)
	maxItems := p.settings.Int("max_items", 0)
	itemLabel := p.settings.String("item_label")
	if itemLabel == "" {
		itemLabel = "item"
	}

	rows := make([]any, 0, len(existing))
	for idx := 0; maxItems <= 0 || idx < maxItems; idx++ {
		if idx >= minItems {
			more, err := r.driver.Confirm(ctx, ConfirmConfig{
				Message: fmt.Sprintf("%s: add %s %d?", p.label, itemLabel, idx+1),
				Default: idx < len(existing),
			})
			if err != nil {
				return err
			}
			if !more {
				break
			}
		}
		row := rowSink{}
		if idx < len(existing) {
			if prefilled, ok := existing[idx].(map[string]any); ok {
				for key, value := range prefilled {
					row[key] = deepCopy(value)
				}
			}
		}
		if err := r.info(ctx, r.theme.StepPrefix, fmt.Sprintf("%s %d", itemLabel, idx+1)); err != nil {
			return err
		}
		if err := r.promptFields(ctx, state, row, node.Children, stepKey, position); err != nil {
			return err
		}
		rows = append(rows, map[string]any(row))
	}

	p.target.set(p.name, rows)
	return nil
}

func (r *Renderer) info(ctx context.Context, prefix, msg string) error {
	if strings.TrimSpace(msg) == "" {
		return nil
	}
	return r.driver.Info(ctx, prefix+msg)
}

func (r *Renderer) serialize(values map[string]any) ([]byte, error) {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return []byte(flattenForm(values)), nil
	case OutputFormatPrettyText:
		return []byte(prettyPrint(values)), nil
	default:
		return jsonBytes(values)
	}
}

func stepTitle(idx int, step schema.Step) string {
	if title := strings.TrimSpace(step.Title); title != "" {
		return title
	}
	if id := strings.TrimSpace(step.ID); id != "" {
		return schema.Humanize(id)
	}
	return "Step " + strconv.Itoa(idx+1)
}

func visibleOrdinal(tracker *render.StepTracker, keys []string, result visibility.Result) int {
	ordinal := 0
	for idx, key := range keys {
		if !result.StepHidden(key) {
			ordinal++
		}
		if idx == tracker.ActiveIndex() {
			break
		}
	}
	return ordinal
}

// displayLabel falls back to the humanized field name; prompts always need
// a message even where the HTML form would omit the label.
func displayLabel(node schema.Field, settings schema.Settings) string {
	if label := strings.TrimSpace(settings.String("label")); label != "" {
		return label
	}
	if node.Name != "" {
		return schema.Humanize(node.Name)
	}
	return schema.Humanize(node.Type)
}

func optionLabels(options []schema.Option) []string {
	out := make([]string, len(options))
	for idx, option := range options {
		out[idx] = option.Label
	}
	return out
}

func optionIndex(options []schema.Option, value string) int {
	for idx, option := range options {
		if option.Value == value {
			return idx
		}
	}
	return -1
}

func toStrings(value any) []string {
	switch typed := value.(type) {
	case []any:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			out = append(out, schema.ToString(item))
		}
		return out
	case []string:
		return typed
	case nil:
		return nil
	default:
		return []string{schema.ToString(typed)}
	}
}

type validationRules struct {
	required bool
	min      *float64
	max      *float64
	minLen   *int
	maxLen   *int
	pattern  *regexp.Regexp
}

func collectValidationRules(p prompt) validationRules {
	rules := validationRules{required: p.required}
	if val, ok := p.settings.Float("min"); ok {
		rules.min = &val
	}
	if val, ok := p.settings.Float("max"); ok {
		rules.max = &val
	}
	if val, ok := p.settings.Float("min_length"); ok {
		n := int(val)
		rules.minLen = &n
	}
	if val, ok := p.settings.Float("max_length"); ok {
		n := int(val)
		rules.maxLen = &n
	}
	if expr := p.settings.String("pattern"); expr != "" {
		if re, err := regexp.Compile("^(?:" + expr + ")$"); err == nil {
			rules.pattern = re
		}
	}
	return rules
}

func (r validationRules) validateString(value string) error {
	if strings.TrimSpace(value) == "" {
		if r.required {
			return errors.New("required")
		}
		return nil
	}
	if r.minLen != nil && len(value) < *r.minLen {
		return fmt.Errorf("min length %d", *r.minLen)
	}
	if r.maxLen != nil && len(value) > *r.maxLen {
		return fmt.Errorf("max length %d", *r.maxLen)
	}
	if r.pattern != nil && !r.pattern.MatchString(value) {
		return errors.New("does not match required pattern")
	}
	return nil
}

func (r validationRules) validateNumber(value float64) error {
	if r.min != nil && value < *r.min {
		return fmt.Errorf("min %v", *r.min)
	}
	if r.max != nil && value > *r.max {
		return fmt.Errorf("max %v", *r.max)
	}
	return nil
}

// flattenForm encodes values with the bracket names the HTML form posts
// (meters[0][serial], services[]).
func flattenForm(values map[string]any) string {
	flattened := url.Values{}
	flatten("", values, flattened)
	return flattened.Encode()
}

func flatten(prefix string, value any, out url.Values) {
	switch v := value.(type) {
	case map[string]any:
		for _, key := range sortedKeys(v) {
			next := key
			if prefix != "" {
				next = prefix + "[" + key + "]"
			}
			flatten(next, v[key], out)
		}
	case []any:
		for idx, val := range v {
			if _, nested := val.(map[string]any); nested {
				flatten(prefix+"["+strconv.Itoa(idx)+"]", val, out)
				continue
			}
			out.Add(prefix+"[]", schema.ToString(val))
		}
	case bool:
		if v {
			out.Set(prefix, "1")
		} else {
			out.Set(prefix, "0")
		}
	default:
		out.Set(prefix, schema.ToString(v))
	}
}

func prettyPrint(values map[string]any) string {
	var b strings.Builder
	writePretty(&b, "", values)
	return b.String()
}

func writePretty(b *strings.Builder, prefix string, value any) {
	switch v := value.(type) {
	case map[string]any:
		for _, key := range sortedKeys(v) {
			next := key
			if prefix != "" {
				next = prefix + "." + key
			}
			writePretty(b, next, v[key])
		}
	case []any:
		for idx, val := range v {
			next := fmt.Sprintf("%s[%d]", prefix, idx)
			writePretty(b, next, val)
		}
	default:
		if prefix != "" {
			fmt.Fprintf(b, "%s=%v\n", prefix, v)
		}
	}
}

func sortedKeys(values map[string]any) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func jsonBytes(values map[string]any) ([]byte, error) {
	return json.Marshal(values)
}
