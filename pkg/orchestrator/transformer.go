package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/dop251/goja"

	"github.com/goliatone/go-formflow/pkg/schema"
)

// Transformer rewrites a schema before it is rendered. Implementations can
// relabel fields, patch form copy, or perform arbitrary rewrites.
type Transformer interface {
	Transform(ctx context.Context, form *schema.Schema) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, form *schema.Schema) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, form *schema.Schema) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, form)
}

// Chain runs transformers in order and stops at the first error.
func Chain(transformers ...Transformer) Transformer {
	return TransformerFunc(func(ctx context.Context, form *schema.Schema) error {
		for _, t := range transformers {
			if t == nil {
				continue
			}
			if err := t.Transform(ctx, form); err != nil {
				return err
			}
		}
		return nil
	})
}

// JSONPresetTransformer applies declarative overrides loaded from a JSON file.
// Field paths are dot-separated names; unnamed layout containers are
// transparent:
//
//	{
//	  "settings": {"submit_text": "Enroll now"},
//	  "steps": {"contact": {"title": "About you"}},
//	  "fields": {
//	    "email": {"label": "Work email", "help_text": "We never share it"},
//	    "meters.serial": {"placeholder": "A-123", "settings": {"pattern": "^[A-Z]-[0-9]+$"}}
//	  }
//	}
type JSONPresetTransformer struct {
	document jsonTransformDocument
}

type jsonTransformDocument struct {
	Settings map[string]string         `json:"settings"`
	Steps    map[string]jsonStepPatch  `json:"steps"`
	Fields   map[string]jsonFieldPatch `json:"fields"`
}

type jsonStepPatch struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type jsonFieldPatch struct {
	Label       string         `json:"label"`
	HelpText    string         `json:"help_text"`
	Placeholder string         `json:"placeholder"`
	Rename      string         `json:"rename"`
	Settings    map[string]any `json:"settings"`
}

// NewJSONPresetTransformer constructs a transformer from raw JSON bytes.
func NewJSONPresetTransformer(data []byte) (*JSONPresetTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("json preset transformer: document is empty")
	}
	var document jsonTransformDocument
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("json preset transformer: parse document: %w", err)
	}
	return &JSONPresetTransformer{document: document}, nil
}

// NewJSONPresetTransformerFromFS loads a JSON transformer document from the
// provided filesystem path.
func NewJSONPresetTransformerFromFS(fsys fs.FS, path string) (*JSONPresetTransformer, error) {
	if fsys == nil {
		return nil, errors.New("json preset transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("json preset transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("json preset transformer: read %s: %w", path, err)
	}
	return NewJSONPresetTransformer(data)
}

// Transform applies the declarative patches onto the supplied schema.
func (t *JSONPresetTransformer) Transform(ctx context.Context, form *schema.Schema) error {
	if form == nil {
		return errors.New("json preset transformer: schema is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for key, value := range t.document.Settings {
		if err := applySettingPatch(&form.Settings, key, value); err != nil {
			return err
		}
	}

	for id, patch := range t.document.Steps {
		step := findStep(form.Steps, id)
		if step == nil {
			return fmt.Errorf("json preset transformer: step %q not found", id)
		}
		if patch.Title != "" {
			step.Title = patch.Title
		}
		if patch.Description != "" {
			step.Description = patch.Description
		}
	}

	for path, patch := range t.document.Fields {
		if err := ctx.Err(); err != nil {
			return err
		}
		field := findFieldByPath(form.Steps, path)
		if field == nil {
			return fmt.Errorf("json preset transformer: field %q not found", path)
		}
		applyFieldPatch(field, patch)
	}
	return nil
}

func applySettingPatch(settings *schema.FormSettings, key, value string) error {
	switch key {
	case "submit_text":
		settings.SubmitText = value
	case "success_message":
		settings.SuccessMessage = value
	case "next_text":
		settings.NextText = value
	case "previous_text":
		settings.PreviousText = value
	case "css_class":
		settings.CSSClass = value
	default:
		return fmt.Errorf("json preset transformer: unknown form setting %q", key)
	}
	return nil
}

func applyFieldPatch(field *schema.Field, patch jsonFieldPatch) {
	if field == nil {
		return
	}
	if len(patch.Settings) > 0 || patch.Label != "" || patch.HelpText != "" || patch.Placeholder != "" {
		field.Settings = field.Settings.Clone()
		if field.Settings == nil {
			field.Settings = schema.Settings{}
		}
	}
	for key, value := range patch.Settings {
		field.Settings[key] = value
	}
	if patch.Label != "" {
		field.Settings["label"] = patch.Label
	}
	if patch.HelpText != "" {
		field.Settings["help_text"] = patch.HelpText
	}
	if patch.Placeholder != "" {
		field.Settings["placeholder"] = patch.Placeholder
	}
	if strings.TrimSpace(patch.Rename) != "" {
		field.Name = strings.TrimSpace(patch.Rename)
	}
}

func findStep(steps []schema.Step, id string) *schema.Step {
	for idx := range steps {
		if steps[idx].ID == id {
			return &steps[idx]
		}
	}
	return nil
}

func findFieldByPath(steps []schema.Step, path string) *schema.Field {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	segments := strings.Split(path, ".")
	for idx := range steps {
		if field := walkFieldsByPath(steps[idx].Fields, segments); field != nil {
			return field
		}
	}
	return nil
}

func walkFieldsByPath(fields []schema.Field, segments []string) *schema.Field {
	if len(segments) == 0 {
		return nil
	}
	head := segments[0]
	for idx := range fields {
		field := &fields[idx]
		if field.Name == "" && len(field.Children) > 0 {
			if found := walkFieldsByPath(field.Children, segments); found != nil {
				return found
			}
			continue
		}
		if field.Name != head {
			continue
		}
		if len(segments) == 1 {
			return field
		}
		return walkFieldsByPath(field.Children, segments[1:])
	}
	return nil
}

// JavaScriptRunner executes user-supplied JavaScript against a schema.
type JavaScriptRunner interface {
	Run(ctx context.Context, form *schema.Schema) error
}

// JavaScriptTransformer bridges the Transformer interface with a JavaScript
// execution environment supplied by callers.
type JavaScriptTransformer struct {
	runner JavaScriptRunner
}

// NewJavaScriptTransformer wraps the provided runner. The runner is responsible
// for executing user scripts and mutating the schema.
func NewJavaScriptTransformer(runner JavaScriptRunner) *JavaScriptTransformer {
	return &JavaScriptTransformer{runner: runner}
}

// Transform delegates to the configured JavaScript runner.
func (t *JavaScriptTransformer) Transform(ctx context.Context, form *schema.Schema) error {
	if t == nil || t.runner == nil {
		return errors.New("javascript transformer: runner is nil")
	}
	if form == nil {
		return errors.New("javascript transformer: schema is nil")
	}
	return t.runner.Run(ctx, form)
}

const gojaEntrypoint = `
;(function () {
  var form = JSON.parse(__formflowInput);
  var out = transform(form);
  return JSON.stringify(out === undefined || out === null ? form : out);
})()`

// GojaRunner runs a script defining `function transform(form)` in an
// embedded goja VM. The function may mutate form in place or return a
// replacement. Each run gets a fresh VM.
type GojaRunner struct {
	script  string
	timeout time.Duration
}

// NewGojaRunner compiles nothing up front; script errors surface on Run.
// A zero timeout disables the watchdog; context cancellation still
// interrupts the VM.
func NewGojaRunner(script string, timeout time.Duration) *GojaRunner {
	return &GojaRunner{script: script, timeout: timeout}
}

// Run implements JavaScriptRunner.
func (r *GojaRunner) Run(ctx context.Context, form *schema.Schema) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	input, err := json.Marshal(form)
	if err != nil {
		return fmt.Errorf("goja runner: encode schema: %w", err)
	}

	vm := goja.New()
	if err := vm.Set("__formflowInput", string(input)); err != nil {
		return fmt.Errorf("goja runner: %w", err)
	}

	runCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-runCtx.Done():
			vm.Interrupt(runCtx.Err())
		case <-done:
		}
	}()

	if _, err := vm.RunString(r.script); err != nil {
		return fmt.Errorf("goja runner: load script: %w", err)
	}
	if _, ok := goja.AssertFunction(vm.Get("transform")); !ok {
		return errors.New("goja runner: script must define function transform(form)")
	}
	value, err := vm.RunString(gojaEntrypoint)
	if err != nil {
		return fmt.Errorf("goja runner: transform: %w", err)
	}

	out, err := schema.DecodeFormat([]byte(value.String()), schema.FormatJSON)
	if err != nil {
		return fmt.Errorf("goja runner: %w", err)
	}
	*form = out
	return nil
}
