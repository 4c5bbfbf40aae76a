package orchestrator_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/fieldtypes"
	"github.com/goliatone/go-formflow/pkg/orchestrator"
	"github.com/goliatone/go-formflow/pkg/render"
	"github.com/goliatone/go-formflow/pkg/schema"
	"github.com/goliatone/go-formflow/pkg/store"
)

func emailSchema() schema.Schema {
	return schema.Schema{Steps: []schema.Step{{ID: "one", Fields: []schema.Field{{
		Type: "email", Name: "email", Settings: schema.Settings{"required": true},
	}}}}}
}

func TestOrchestrator_ScenarioEmailRendersAndValidates(t *testing.T) {
	orch := orchestrator.New()

	result := orch.Validate(emailSchema())
	if !result.Valid || len(result.Errors) != 0 {
		t.Fatalf("expected valid schema, got %+v", result)
	}

	html, err := orch.Render(context.Background(), orchestrator.Request{Schema: emailSchema()})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	out := string(html)
	for _, needle := range []string{`id="formflow-0-email"`, `id="formflow-0-email_error"`, `aria-describedby="formflow-0-email_error"`} {
		if !strings.Contains(out, needle) {
			t.Fatalf("expected %q in output\n%s", needle, out)
		}
	}
}

func TestOrchestrator_FieldTypesByCategory(t *testing.T) {
	orch := orchestrator.New()
	palette := orch.FieldTypesByCategory()

	for _, category := range fieldtypes.Categories() {
		if _, ok := palette[category]; !ok {
			t.Fatalf("expected category %q in palette", category)
		}
	}
	if len(palette) != len(fieldtypes.Categories()) {
		t.Fatalf("expected %d categories, got %d", len(fieldtypes.Categories()), len(palette))
	}
}

func TestOrchestrator_NewFormSeed(t *testing.T) {
	form := orchestrator.New().NewForm()
	if len(form.Steps) != 1 || len(form.Steps[0].Fields) != 0 {
		t.Fatalf("expected one empty step, got %+v", form.Steps)
	}
	if form.Steps[0].ID != "step-1" || form.Steps[0].Title != "Step 1" {
		t.Fatalf("unexpected seed step %+v", form.Steps[0])
	}
	if form.Settings.SubmitText != "Submit" || form.Settings.SuccessMessage != "Thank you! Your submission has been received." {
		t.Fatalf("unexpected seed settings %+v", form.Settings)
	}
}

func TestOrchestrator_SaveGatesInvalidSchemas(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	orch := orchestrator.New(orchestrator.WithStore(mem))

	invalid := schema.Schema{Steps: []schema.Step{{ID: "one", Fields: []schema.Field{
		{Type: "text", Name: "city"},
		{Type: "text", Name: "city"},
	}}}}
	result, err := orch.Save(ctx, 1, invalid)
	if !errors.Is(err, orchestrator.ErrInvalidSchema) {
		t.Fatalf("expected ErrInvalidSchema, got %v", err)
	}
	var validationErr *orchestrator.ValidationError
	if !errors.As(err, &validationErr) || len(validationErr.Result.Errors) != 2 {
		t.Fatalf("expected both duplicates reported, got %v", err)
	}
	if result.Valid {
		t.Fatalf("expected invalid result")
	}
	if _, found, _ := mem.Load(ctx, 1); found {
		t.Fatalf("invalid schema must never reach the store")
	}

	if _, err := orch.Save(ctx, 1, emailSchema()); err != nil {
		t.Fatalf("save valid schema: %v", err)
	}
	loaded, found, err := orch.Load(ctx, 1)
	if err != nil || !found {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	if diff := cmp.Diff(emailSchema(), loaded); diff != "" {
		t.Fatalf("loaded schema mismatch (-want +got):\n%s", diff)
	}
}

func TestOrchestrator_WithoutStore(t *testing.T) {
	orch := orchestrator.New()
	if _, _, err := orch.Load(context.Background(), 1); !errors.Is(err, orchestrator.ErrNoStore) {
		t.Fatalf("expected ErrNoStore, got %v", err)
	}
	if _, err := orch.Save(context.Background(), 1, emailSchema()); !errors.Is(err, orchestrator.ErrNoStore) {
		t.Fatalf("expected ErrNoStore, got %v", err)
	}
}

func TestOrchestrator_RenderStoredEvaluatesRules(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	form := schema.Schema{Steps: []schema.Step{{ID: "one", Fields: []schema.Field{
		{Type: "checkbox", Name: "moving"},
		{Type: "date", Name: "move_date", Conditions: []schema.Rule{{When: "moving", Action: schema.ActionShow}}},
	}}}}
	if err := mem.Save(ctx, 42, form); err != nil {
		t.Fatalf("seed: %v", err)
	}

	renderer := &recordingRenderer{}
	registry := render.NewRegistry()
	registry.MustRegister(renderer)
	orch := orchestrator.New(orchestrator.WithStore(mem), orchestrator.WithRegistry(registry))

	if _, err := orch.RenderStored(ctx, 42, orchestrator.Request{
		RenderOptions: render.RenderOptions{Values: map[string]any{"moving": true}},
	}); err != nil {
		t.Fatalf("render stored: %v", err)
	}
	if renderer.options.Context.InstanceID != 42 {
		t.Fatalf("expected instance id defaulted to 42, got %d", renderer.options.Context.InstanceID)
	}
	if renderer.options.Visibility == nil || renderer.options.Visibility.FieldHidden("move_date") {
		t.Fatalf("expected move_date visible for moving=true")
	}

	if _, err := orch.RenderStored(ctx, 7, orchestrator.Request{}); err == nil {
		t.Fatalf("expected missing form error")
	}
}

func TestOrchestrator_EvaluateAndSubmission(t *testing.T) {
	orch := orchestrator.New()
	form := schema.Schema{Steps: []schema.Step{{ID: "one", Fields: []schema.Field{
		{Type: "text", Name: "company", Settings: schema.Settings{"required": true},
			Conditions: []schema.Rule{{When: `account_type != "business"`, Action: schema.ActionHide}}},
		{Type: "select", Name: "account_type", Settings: schema.Settings{"options": "home|Home\nbusiness|Business"}},
	}}}}

	result := orch.Evaluate(form, map[string]any{"account_type": "home"})
	if !result.FieldHidden("company") {
		t.Fatalf("expected company hidden for home accounts")
	}
	if result.EffectiveRequired("company", true) {
		t.Fatalf("hidden fields must not be required")
	}

	locked := orch.EvaluateWithExtras(schema.Schema{Steps: []schema.Step{{Fields: []schema.Field{
		{Type: "text", Name: "plan", Conditions: []schema.Rule{{When: "extras.locked", Action: schema.ActionDisable}}},
	}}}}, nil, map[string]any{"locked": true})
	if !locked.Disabled("plan") {
		t.Fatalf("expected extras to drive the disable rule")
	}

	submission := orch.ValidateSubmission(form, map[string]any{"account_type": "business"})
	if submission.Valid {
		t.Fatalf("expected missing company to fail for business accounts")
	}
	if len(submission.Errors["company"]) == 0 {
		t.Fatalf("expected company error, got %+v", submission.Errors)
	}
}

func TestOrchestrator_RendererSelection(t *testing.T) {
	orch := orchestrator.New()
	if diff := cmp.Diff([]string{"vanilla"}, orch.Renderers()); diff != "" {
		t.Fatalf("renderers mismatch (-want +got):\n%s", diff)
	}
	if _, err := orch.Render(context.Background(), orchestrator.Request{Schema: emailSchema(), Renderer: "missing"}); err == nil {
		t.Fatalf("expected unknown renderer error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := orch.Render(ctx, orchestrator.Request{Schema: emailSchema()}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

type recordingRenderer struct {
	form    schema.Schema
	options render.RenderOptions
}

func (r *recordingRenderer) Name() string        { return "recording" }
func (r *recordingRenderer) ContentType() string { return "text/plain" }

func (r *recordingRenderer) Render(_ context.Context, form schema.Schema, options render.RenderOptions) ([]byte, error) {
	r.form = form
	r.options = options
	return []byte("ok"), nil
}
