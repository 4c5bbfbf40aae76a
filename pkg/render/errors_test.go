package render_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-formflow/pkg/render"
	"github.com/goliatone/go-formflow/pkg/schema"
)

func errorSchema() schema.Schema {
	return schema.Schema{Steps: []schema.Step{
		{ID: "contact", Fields: []schema.Field{
			{Type: "text", Name: "name"},
			{Type: "section", Children: []schema.Field{
				{Type: "email", Name: "email"},
				{Type: "columns", Children: []schema.Field{{Type: "phone", Name: "phone"}}},
			}},
		}},
		{ID: "service", Fields: []schema.Field{
			{Type: "repeater", Name: "meters", Children: []schema.Field{
				{Type: "meter_number", Name: "serial"},
			}},
		}},
	}}
}

func TestMapErrorPayload_NormalisesPaths(t *testing.T) {
	payload := map[string][]string{
		"/body/name":                 {"Name is required"},
		"body.email":                 {"Email invalid"},
		"$.data.phone":               {"Phone malformed"},
		"/meters/0/serial":           {"Serial must have 8 digits"},
		"meters[1]":                  {"Meter entry incomplete"},
		"non_field_errors":           {"Form level error"},
		"request/body/unknown-field": {"Should fall back to form errors"},
		"":                           {"Unscoped form error", "  "},
	}

	mapped := render.MapErrorPayload(errorSchema(), payload)

	wantFields := map[string][]string{
		"name":          {"Name is required"},
		"email":         {"Email invalid"},
		"phone":         {"Phone malformed"},
		"meters.serial": {"Serial must have 8 digits"},
		"meters":        {"Meter entry incomplete"},
	}
	if diff := cmp.Diff(wantFields, mapped.Fields); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}

	wantForm := []string{"Form level error", "Should fall back to form errors", "Unscoped form error"}
	if diff := cmp.Diff(wantForm, mapped.Form, cmpopts.SortSlices(func(a, b string) bool { return a < b })); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
}

func TestMapErrorPayload_Empty(t *testing.T) {
	mapped := render.MapErrorPayload(errorSchema(), nil)
	if len(mapped.Fields) != 0 || len(mapped.Form) != 0 {
		t.Fatalf("expected empty mapping, got %+v", mapped)
	}
}

func TestMergeFormErrors(t *testing.T) {
	merged := render.MergeFormErrors([]string{" First ", "Second"}, "Second", "third", "  ")
	want := []string{"First", "Second", "third"}

	if diff := cmp.Diff(want, merged); diff != "" {
		t.Fatalf("merged form errors mismatch (-want +got):\n%s", diff)
	}
}
