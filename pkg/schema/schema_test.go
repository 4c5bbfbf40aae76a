package schema_test

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/schema"
)

func TestDecode_JSONStrict(t *testing.T) {
	t.Parallel()

	raw := []byte(`{
  "version": "1",
  "steps": [
    {"id": "contact", "title": "Contact", "fields": [
      {"type": " Email ", "name": "email", "settings": {"required": true, "label": "Email"}}
    ]}
  ],
  "settings": {"submit_text": "Enroll"}
}`)

	got, err := schema.Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := schema.Schema{
		Version: "1",
		Steps: []schema.Step{{
			ID:    "contact",
			Title: "Contact",
			Fields: []schema.Field{{
				Type:     "email",
				Name:     "email",
				Settings: schema.Settings{"required": true, "label": "Email"},
			}},
		}},
		Settings: schema.FormSettings{SubmitText: "Enroll"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("decoded schema mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_RejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	_, err := schema.Decode([]byte(`{"steps": [{"id": "a", "fields": [], "colour": "red"}]}`))
	if err == nil {
		t.Fatalf("expected unknown key error")
	}
	if !strings.Contains(err.Error(), "colour") {
		t.Fatalf("expected error to name the unknown key, got %v", err)
	}
}

func TestDecode_YAML(t *testing.T) {
	t.Parallel()

	raw := []byte(`
steps:
  - id: service
    title: Service
    fields:
      - type: select
        name: service_type
        settings:
          options: |
            electric|Electric
            gas|Gas
      - type: text
        name: meter
        conditions:
          - when: service_type == "gas"
            action: SHOW
`)
	got, err := schema.Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Steps) != 1 || len(got.Steps[0].Fields) != 2 {
		t.Fatalf("unexpected shape: %+v", got)
	}
	opts := got.Steps[0].Fields[0].Settings.Options("options")
	want := []schema.Option{{Value: "electric", Label: "Electric"}, {Value: "gas", Label: "Gas"}}
	if diff := cmp.Diff(want, opts); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	rule := got.Steps[0].Fields[1].Conditions[0]
	if rule.Action != schema.ActionShow {
		t.Fatalf("expected action to be normalised, got %q", rule.Action)
	}
}

func TestDecode_Empty(t *testing.T) {
	t.Parallel()

	if _, err := schema.Decode([]byte("  ")); err != schema.ErrEmptyDocument {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}
}

func TestDefaultSeed(t *testing.T) {
	t.Parallel()

	seed := schema.Default()
	if len(seed.Steps) != 1 {
		t.Fatalf("expected one step, got %d", len(seed.Steps))
	}
	if seed.Steps[0].Fields == nil || len(seed.Steps[0].Fields) != 0 {
		t.Fatalf("expected empty, non-nil field list")
	}
	if seed.Settings.SubmitLabel() != "Submit" {
		t.Fatalf("unexpected submit text %q", seed.Settings.SubmitLabel())
	}
	if seed.Settings.Success() != schema.DefaultSuccessMessage {
		t.Fatalf("unexpected success message %q", seed.Settings.Success())
	}
}

func TestSettingsOptionsShapes(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		raw  any
		want []schema.Option
	}{
		"lines": {
			raw:  "a\nb : Bee\n\n",
			want: []schema.Option{{Value: "a", Label: "a"}, {Value: "b", Label: "Bee"}},
		},
		"strings": {
			raw:  []any{"x", "y|Why"},
			want: []schema.Option{{Value: "x", Label: "x"}, {Value: "y", Label: "Why"}},
		},
		"objects": {
			raw:  []any{map[string]any{"value": "1", "label": "One"}, map[string]any{"label": "Two"}},
			want: []schema.Option{{Value: "1", Label: "One"}, {Value: "Two", Label: "Two"}},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got := schema.Settings{"options": tc.raw}.Options("options")
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("options mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSettingsCoercion(t *testing.T) {
	t.Parallel()

	settings := schema.Settings{"required": "1", "min": "2.5", "rows": 4.0, "label": "  Name "}
	if !settings.Bool("required") {
		t.Fatalf("expected required to coerce to true")
	}
	if v, ok := settings.Float("min"); !ok || v != 2.5 {
		t.Fatalf("expected min 2.5, got %v %v", v, ok)
	}
	if settings.Int("rows", 0) != 4 {
		t.Fatalf("expected rows 4")
	}
	if settings.Int("missing", 7) != 7 {
		t.Fatalf("expected fallback for missing key")
	}
	if settings.String("label") != "Name" {
		t.Fatalf("expected trimmed label, got %q", settings.String("label"))
	}
}

func TestWalkAndNames(t *testing.T) {
	t.Parallel()

	s := schema.Schema{Steps: []schema.Step{
		{ID: "a", Fields: []schema.Field{
			{Type: "section", Children: []schema.Field{
				{Type: "text", Name: "first"},
				{Type: "columns", Children: []schema.Field{{Type: "text", Name: "second"}}},
			}},
		}},
		{ID: "b", Fields: []schema.Field{{Type: "email", Name: "first"}}},
	}}

	if diff := cmp.Diff([]string{"first", "second", "first"}, s.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	if s.FieldCount() != 5 {
		t.Fatalf("expected 5 fields, got %d", s.FieldCount())
	}

	var depths []int
	schema.Walk(s.Steps[0].Fields, func(_ schema.Field, depth int) bool {
		depths = append(depths, depth)
		return true
	})
	if diff := cmp.Diff([]int{0, 1, 1, 2}, depths); diff != "" {
		t.Fatalf("depths mismatch (-want +got):\n%s", diff)
	}

	field, ok := s.FindField("second")
	if !ok || field.Type != "text" {
		t.Fatalf("expected to find nested field, got %+v %v", field, ok)
	}
}

func TestCloneIsDeep(t *testing.T) {
	t.Parallel()

	original := schema.Schema{Steps: []schema.Step{{ID: "a", Fields: []schema.Field{
		{Type: "text", Name: "x", Settings: schema.Settings{"nested": map[string]any{"k": "v"}}},
	}}}}
	clone := original.Clone()
	clone.Steps[0].Fields[0].Settings["nested"].(map[string]any)["k"] = "changed"
	clone.Steps[0].Fields[0].Name = "y"

	if original.Steps[0].Fields[0].Name != "x" {
		t.Fatalf("clone shares field storage")
	}
	if original.Steps[0].Fields[0].Settings["nested"].(map[string]any)["k"] != "v" {
		t.Fatalf("clone shares nested settings")
	}
}

func TestLoadFS(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"forms/12-enrollment.yaml": {Data: []byte("steps:\n  - id: a\n    fields: []\n")},
		"forms/contact.json":       {Data: []byte(`{"steps":[{"id":"b","fields":[]}]}`)},
		"forms/readme.txt":         {Data: []byte("ignored")},
	}

	lib, err := schema.LoadFS(fsys)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	entries := lib.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	enrollment, ok := lib.Get("12-enrollment")
	if !ok || enrollment.ID != 12 {
		t.Fatalf("expected numeric id 12, got %+v", enrollment)
	}
	contact, _ := lib.Get("contact")
	if contact.ID != 0 || contact.Schema.Steps[0].ID != "b" {
		t.Fatalf("unexpected contact entry %+v", contact)
	}
}

func TestHumanize(t *testing.T) {
	cases := map[string]string{
		"move_date":       "Move Date",
		"billing-address": "Billing Address",
		"":                "",
		"__":              "",
	}
	for in, want := range cases {
		if got := schema.Humanize(in); got != want {
			t.Fatalf("Humanize(%q) = %q, want %q", in, got, want)
		}
	}
}
