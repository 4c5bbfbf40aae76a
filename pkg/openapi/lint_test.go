package openapi_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/fieldtypes"
	"github.com/goliatone/go-formflow/pkg/openapi"
)

const lintDocument = `openapi: 3.0.3
info:
  title: Lint
  version: "1.0"
paths:
  /pets:
    post:
      operationId: createPet
      requestBody:
        content:
          application/json:
            schema:
              type: object
              properties:
                name:
                  type: string
                  x-formflow:
                    type: sparkle
                    widget: big
                age:
                  type: integer
                  x-formflow:
                    order: first
                    skip: "yes"
                mood:
                  type: string
                  x-formflow:
                    type: radio
                    settings:
                      options: "calm\nwild"
                      colour: red
                tags:
                  type: array
                  items:
                    type: object
                    properties:
                      label:
                        type: string
                        x-formflow: text
      responses:
        "201":
          description: created
`

func TestImporter_LintReportsViolations(t *testing.T) {
	t.Parallel()

	got, err := openapi.NewImporter().Lint(context.Background(), writeDocument(t, lintDocument))
	if err != nil {
		t.Fatalf("lint: %v", err)
	}

	base := "operation createPet > requestBody > "
	want := []openapi.Violation{
		{Location: base + "properties.age", Message: "x-formflow.order must be a number"},
		{Location: base + "properties.age", Message: "x-formflow.skip must be a boolean"},
		{Location: base + "properties.mood", Message: `x-formflow.settings.colour is not a setting of "radio"`},
		{Location: base + "properties.name", Message: `x-formflow.type "sparkle" is not a registered field type`},
		{Location: base + "properties.name", Message: "x-formflow.widget is not supported"},
		{Location: base + "properties.tags > items > properties.label", Message: "x-formflow must be an object, found string"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("violations mismatch (-want +got):\n%s", diff)
	}
}

func TestImporter_LintCleanDocument(t *testing.T) {
	t.Parallel()

	got, err := openapi.NewImporter().LintData(context.Background(), []byte(enrollmentDocument))
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no violations, got %+v", got)
	}
}

func TestImporter_LintUsesCustomRegistry(t *testing.T) {
	t.Parallel()

	registry := fieldtypes.NewDefaultRegistry()
	registry.Register("sparkle", fieldtypes.Definition{Label: "Sparkle", Category: fieldtypes.CategoryAdvanced})

	got, err := openapi.NewImporter(openapi.WithFieldTypes(registry)).Lint(context.Background(), writeDocument(t, lintDocument))
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	for _, v := range got {
		if v.Message == `x-formflow.type "sparkle" is not a registered field type` {
			t.Fatalf("expected custom type to be accepted")
		}
	}
}
