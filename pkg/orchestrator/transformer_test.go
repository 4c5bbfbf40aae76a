package orchestrator_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/orchestrator"
	"github.com/goliatone/go-formflow/pkg/render"
	"github.com/goliatone/go-formflow/pkg/schema"
)

func transformSchema() schema.Schema {
	return schema.Schema{
		Steps: []schema.Step{{ID: "contact", Fields: []schema.Field{
			{Type: "email", Name: "email", Settings: schema.Settings{"label": "Email"}},
			{Type: "columns", Children: []schema.Field{
				{Type: "text", Name: "city"},
			}},
			{Type: "repeater", Name: "meters", Children: []schema.Field{
				{Type: "text", Name: "serial"},
			}},
		}}},
	}
}

func TestOrchestrator_AppliesTransformerWithoutMutatingRequest(t *testing.T) {
	renderer := &recordingRenderer{}
	registry := render.NewRegistry()
	registry.MustRegister(renderer)

	transformCalled := false
	transformer := orchestrator.TransformerFunc(func(_ context.Context, form *schema.Schema) error {
		transformCalled = true
		form.Settings.SubmitText = "Patched"
		return nil
	})

	orch := orchestrator.New(
		orchestrator.WithRegistry(registry),
		orchestrator.WithDefaultRenderer(renderer.Name()),
		orchestrator.WithSchemaTransformer(transformer),
	)

	original := transformSchema()
	if _, err := orch.Render(context.Background(), orchestrator.Request{Schema: original}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !transformCalled {
		t.Fatalf("expected transformer to be invoked")
	}
	if renderer.form.Settings.SubmitText != "Patched" {
		t.Fatalf("transformer mutation missing: %+v", renderer.form.Settings)
	}
	if original.Settings.SubmitText != "" {
		t.Fatalf("request schema must not be mutated")
	}
}

func TestJSONPresetTransformerFromFS(t *testing.T) {
	fsys := fstest.MapFS{
		"presets/contact.json": {Data: []byte(`{
  "settings": {"submit_text": "Enroll now"},
  "steps": {"contact": {"title": "About you"}},
  "fields": {
    "email": {"label": "Work email", "help_text": "We never share it"},
    "city": {"placeholder": "Springfield"},
    "meters.serial": {"rename": "serial_number", "settings": {"pattern": "^[A-Z]-[0-9]+$"}}
  }
}`)},
	}

	transformer, err := orchestrator.NewJSONPresetTransformerFromFS(fsys, "presets/contact.json")
	if err != nil {
		t.Fatalf("load preset: %v", err)
	}

	form := transformSchema()
	if err := transformer.Transform(context.Background(), &form); err != nil {
		t.Fatalf("transform: %v", err)
	}

	if form.Settings.SubmitText != "Enroll now" || form.Steps[0].Title != "About you" {
		t.Fatalf("form patches missing: %+v / %q", form.Settings, form.Steps[0].Title)
	}
	email := form.Steps[0].Fields[0]
	want := schema.Settings{"label": "Work email", "help_text": "We never share it"}
	if diff := cmp.Diff(want, email.Settings); diff != "" {
		t.Fatalf("email settings mismatch (-want +got):\n%s", diff)
	}
	if got := form.Steps[0].Fields[1].Children[0].Settings["placeholder"]; got != "Springfield" {
		t.Fatalf("expected placeholder through layout container, got %v", got)
	}
	serial := form.Steps[0].Fields[2].Children[0]
	if serial.Name != "serial_number" || serial.Settings["pattern"] != "^[A-Z]-[0-9]+$" {
		t.Fatalf("repeater child patch missing: %+v", serial)
	}
}

func TestJSONPresetTransformer_Errors(t *testing.T) {
	if _, err := orchestrator.NewJSONPresetTransformer([]byte("  ")); err == nil {
		t.Fatalf("expected empty document error")
	}

	transformer, err := orchestrator.NewJSONPresetTransformer([]byte(`{"fields": {"missing": {"label": "x"}}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	form := transformSchema()
	if err := transformer.Transform(context.Background(), &form); err == nil || !strings.Contains(err.Error(), "missing") {
		t.Fatalf("expected missing field error, got %v", err)
	}

	unknown, _ := orchestrator.NewJSONPresetTransformer([]byte(`{"settings": {"colour": "red"}}`))
	if err := unknown.Transform(context.Background(), &form); err == nil {
		t.Fatalf("expected unknown setting error")
	}
}

func TestGojaRunner_TransformsSchema(t *testing.T) {
	script := `
function transform(form) {
  form.settings.submit_text = "Go";
  form.steps.push({id: "review", title: "Review", fields: []});
  form.steps[0].fields.forEach(function (field) {
    if (field.type === "email") {
      field.settings.required = true;
    }
  });
}`
	transformer := orchestrator.NewJavaScriptTransformer(orchestrator.NewGojaRunner(script, time.Second))

	form := transformSchema()
	if err := transformer.Transform(context.Background(), &form); err != nil {
		t.Fatalf("transform: %v", err)
	}
	if form.Settings.SubmitText != "Go" {
		t.Fatalf("expected submit text patched, got %q", form.Settings.SubmitText)
	}
	if len(form.Steps) != 2 || form.Steps[1].ID != "review" {
		t.Fatalf("expected appended review step, got %+v", form.Steps)
	}
	if form.Steps[0].Fields[0].Settings["required"] != true {
		t.Fatalf("expected email required, got %+v", form.Steps[0].Fields[0].Settings)
	}
}

func TestGojaRunner_ReturnedSchemaWins(t *testing.T) {
	runner := orchestrator.NewGojaRunner(`function transform(form) { return {steps: [{id: "only", fields: []}]}; }`, 0)
	form := transformSchema()
	if err := runner.Run(context.Background(), &form); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(form.Steps) != 1 || form.Steps[0].ID != "only" {
		t.Fatalf("expected returned schema, got %+v", form.Steps)
	}
}

func TestGojaRunner_Errors(t *testing.T) {
	form := transformSchema()

	if err := orchestrator.NewGojaRunner(`var x = 1;`, 0).Run(context.Background(), &form); err == nil {
		t.Fatalf("expected missing transform error")
	}
	if err := orchestrator.NewGojaRunner(`function transform(form) { form.colour = "red"; }`, 0).Run(context.Background(), &form); err == nil {
		t.Fatalf("expected strict decode to reject unknown keys")
	}

	loop := orchestrator.NewGojaRunner(`function transform(form) { for (;;) {} }`, 50*time.Millisecond)
	err := loop.Run(context.Background(), &form)
	if err == nil {
		t.Fatalf("expected runaway script to be interrupted")
	}
	if !strings.Contains(err.Error(), "deadline") {
		t.Fatalf("expected deadline interruption, got %v", err)
	}

	var nilTransformer *orchestrator.JavaScriptTransformer
	if err := nilTransformer.Transform(context.Background(), &form); err == nil || errors.Is(err, context.Canceled) {
		t.Fatalf("expected nil runner error, got %v", err)
	}
}
