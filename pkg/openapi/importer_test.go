package openapi_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/openapi"
	"github.com/goliatone/go-formflow/pkg/schema"
	"github.com/goliatone/go-formflow/pkg/validation"
)

const enrollmentDocument = `openapi: 3.0.3
info:
  title: Enrollment
  version: "1.0"
paths:
  /enrollments:
    get:
      operationId: listEnrollments
      responses:
        "200":
          description: ok
    post:
      operationId: createEnrollment
      summary: Start service
      requestBody:
        content:
          application/json:
            schema:
              $ref: '#/components/schemas/Enrollment'
      responses:
        "201":
          description: created
  /health:
    get:
      responses:
        "200":
          description: ok
components:
  schemas:
    Enrollment:
      type: object
      required: [email, service_type]
      properties:
        id:
          type: string
          readOnly: true
        email:
          type: string
          format: email
          title: Email address
        service_type:
          type: string
          enum: [electric, gas]
        units:
          type: integer
          minimum: 1
          maximum: 10
        notes:
          type: string
          maxLength: 1000
          description: Anything else
        paperless:
          type: boolean
          default: true
        services:
          type: array
          minItems: 1
          items:
            type: string
            enum: [internet, tv]
        address:
          type: object
          properties:
            city:
              type: string
            zip:
              type: string
              pattern: '^[0-9]{5}$'
        occupants:
          type: array
          maxItems: 4
          items:
            type: object
            properties:
              full name:
                type: string
        move_date:
          type: string
          format: date
          x-formflow:
            step: schedule
            order: 1
        start_time:
          type: string
          x-formflow:
            step: schedule
            order: 2
            type: radio
            settings:
              options: "morning\nafternoon"
`

func writeDocument(t *testing.T, content string) schema.Source {
	t.Helper()
	path := filepath.Join(t.TempDir(), "openapi.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write document: %v", err)
	}
	return openapi.SourceFromFile(path)
}

type fieldShape struct {
	Type string
	Name string
}

func shapes(fields []schema.Field) []fieldShape {
	out := make([]fieldShape, 0, len(fields))
	for _, field := range fields {
		out = append(out, fieldShape{Type: field.Type, Name: field.Name})
	}
	return out
}

func TestImporter_Operations(t *testing.T) {
	t.Parallel()

	ops, err := openapi.NewImporter().Operations(context.Background(), writeDocument(t, enrollmentDocument))
	if err != nil {
		t.Fatalf("operations: %v", err)
	}
	want := []openapi.Operation{
		{ID: "listEnrollments", Method: "GET", Path: "/enrollments"},
		{ID: "createEnrollment", Method: "POST", Path: "/enrollments", Summary: "Start service", HasBody: true},
		{ID: "get:/health", Method: "GET", Path: "/health"},
	}
	if diff := cmp.Diff(want, ops); diff != "" {
		t.Fatalf("operations mismatch (-want +got):\n%s", diff)
	}
}

func TestImporter_ImportMapsProperties(t *testing.T) {
	t.Parallel()

	form, err := openapi.NewImporter().Import(context.Background(), writeDocument(t, enrollmentDocument), "createEnrollment")
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	if len(form.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(form.Steps))
	}
	if form.Steps[0].Title != "Start service" {
		t.Fatalf("expected first step titled from summary, got %q", form.Steps[0].Title)
	}
	if form.Steps[1].ID != "schedule" || form.Steps[1].Title != "Schedule" {
		t.Fatalf("unexpected extension step %+v", form.Steps[1])
	}

	wantMain := []fieldShape{
		{Type: "section"},
		{Type: "email", Name: "email"},
		{Type: "textarea", Name: "notes"},
		{Type: "repeater", Name: "occupants"},
		{Type: "checkbox", Name: "paperless"},
		{Type: "select", Name: "service_type"},
		{Type: "checkbox_group", Name: "services"},
		{Type: "number", Name: "units"},
	}
	if diff := cmp.Diff(wantMain, shapes(form.Steps[0].Fields)); diff != "" {
		t.Fatalf("main step mismatch (-want +got):\n%s", diff)
	}
	wantSchedule := []fieldShape{
		{Type: "date", Name: "move_date"},
		{Type: "radio", Name: "start_time"},
	}
	if diff := cmp.Diff(wantSchedule, shapes(form.Steps[1].Fields)); diff != "" {
		t.Fatalf("schedule step mismatch (-want +got):\n%s", diff)
	}

	email, _ := form.FindField("email")
	if email.Settings.String("label") != "Email address" || !email.Settings.Bool("required") {
		t.Fatalf("unexpected email settings %#v", email.Settings)
	}
	notes, _ := form.FindField("notes")
	if notes.Settings.String("help_text") != "Anything else" || notes.Settings.Int("max_length", 0) != 1000 {
		t.Fatalf("unexpected notes settings %#v", notes.Settings)
	}
	units, _ := form.FindField("units")
	if lo, _ := units.Settings.Float("min"); lo != 1 {
		t.Fatalf("expected min 1, got %v", units.Settings["min"])
	}
	if step, _ := units.Settings.Float("step"); step != 1 {
		t.Fatalf("expected integer step, got %v", units.Settings["step"])
	}
	serviceType, _ := form.FindField("service_type")
	if got := serviceType.Settings.Options("options"); len(got) != 2 || got[0].Value != "electric" {
		t.Fatalf("unexpected enum options %#v", got)
	}
	services, _ := form.FindField("services")
	if services.Settings.Int("min_selected", 0) != 1 {
		t.Fatalf("expected min_selected from minItems, got %#v", services.Settings)
	}

	section := form.Steps[0].Fields[0]
	if section.Settings.String("title") != "Address" {
		t.Fatalf("expected section title, got %#v", section.Settings)
	}
	if diff := cmp.Diff([]fieldShape{{Type: "text", Name: "address_city"}, {Type: "text", Name: "address_zip"}}, shapes(section.Children)); diff != "" {
		t.Fatalf("section children mismatch (-want +got):\n%s", diff)
	}

	occupants, _ := form.FindField("occupants")
	if diff := cmp.Diff([]fieldShape{{Type: "text", Name: "full_name"}}, shapes(occupants.Children)); diff != "" {
		t.Fatalf("repeater children mismatch (-want +got):\n%s", diff)
	}
	if occupants.Settings.Int("max_items", 0) != 4 {
		t.Fatalf("expected max_items 4, got %#v", occupants.Settings)
	}

	if _, ok := form.FindField("id"); ok {
		t.Fatalf("read only properties must be skipped")
	}

	if result := validation.Validate(form); !result.Valid {
		t.Fatalf("imported schema should validate, got %v", result.Errors)
	}
}

func TestImporter_ImportErrors(t *testing.T) {
	t.Parallel()

	src := writeDocument(t, enrollmentDocument)
	importer := openapi.NewImporter()

	if _, err := importer.Import(context.Background(), src, "missing"); !errors.Is(err, openapi.ErrOperationNotFound) {
		t.Fatalf("expected ErrOperationNotFound, got %v", err)
	}
	if _, err := importer.Import(context.Background(), src, "listEnrollments"); !errors.Is(err, openapi.ErrNoRequestBody) {
		t.Fatalf("expected ErrNoRequestBody, got %v", err)
	}

	form, err := importer.Import(context.Background(), src, "")
	if err != nil {
		t.Fatalf("expected the single body operation to be picked, got %v", err)
	}
	if form.Steps[0].Title != "Start service" {
		t.Fatalf("unexpected step title %q", form.Steps[0].Title)
	}
}

func TestImporter_FSAndHTTPSources(t *testing.T) {
	t.Parallel()

	files := fstest.MapFS{"specs/openapi.yaml": {Data: []byte(enrollmentDocument)}}
	importer := openapi.NewImporter(openapi.WithLoader(openapi.NewLoader(openapi.WithFileSystem(files))))
	if _, err := importer.Import(context.Background(), openapi.SourceFromFS("specs/openapi.yaml"), "createEnrollment"); err != nil {
		t.Fatalf("import from fs: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/openapi.yaml" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(enrollmentDocument))
	}))
	defer server.Close()

	remote, err := openapi.SourceFromURL(server.URL + "/openapi.yaml")
	if err != nil {
		t.Fatalf("source from url: %v", err)
	}
	if _, err := openapi.NewImporter().Operations(context.Background(), remote); err == nil {
		t.Fatalf("expected http to be disabled by default")
	}

	httpImporter := openapi.NewImporter(openapi.WithLoader(openapi.NewLoader(openapi.WithHTTPClient(server.Client()))))
	ops, err := httpImporter.Operations(context.Background(), remote)
	if err != nil {
		t.Fatalf("operations over http: %v", err)
	}
	if len(ops) != 3 {
		t.Fatalf("expected 3 operations, got %d", len(ops))
	}

	missing, _ := openapi.SourceFromURL(server.URL + "/nope.yaml")
	if _, err := httpImporter.Operations(context.Background(), missing); err == nil {
		t.Fatalf("expected error for 404 document")
	}
}

func TestSourceFromURL_RejectsSchemes(t *testing.T) {
	t.Parallel()

	if _, err := openapi.SourceFromURL("ftp://example.com/spec.yaml"); err == nil {
		t.Fatalf("expected ftp scheme to be rejected")
	}
}

func TestImportSchema(t *testing.T) {
	t.Parallel()

	form, err := openapi.ImportSchema([]byte(`{
  "title": "Feedback",
  "type": "object",
  "required": ["rating"],
  "properties": {
    "rating": {"type": "integer", "enum": [1, 2, 3]},
    "website": {"type": "string", "format": "uri"},
    "tags": {"type": "array", "items": {"type": "string"}}
  }
}`))
	if err != nil {
		t.Fatalf("import schema: %v", err)
	}
	if form.Steps[0].Title != "Feedback" {
		t.Fatalf("expected title from schema, got %q", form.Steps[0].Title)
	}
	want := []fieldShape{
		{Type: "select", Name: "rating"},
		{Type: "repeater", Name: "tags"},
		{Type: "url", Name: "website"},
	}
	if diff := cmp.Diff(want, shapes(form.Steps[0].Fields)); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	rating, _ := form.FindField("rating")
	if got := rating.Settings.Options("options"); len(got) != 3 || got[2].Value != "3" {
		t.Fatalf("unexpected numeric enum options %#v", got)
	}
	tags := form.Steps[0].Fields[1]
	if diff := cmp.Diff([]fieldShape{{Type: "text", Name: "value"}}, shapes(tags.Children)); diff != "" {
		t.Fatalf("scalar repeater mismatch (-want +got):\n%s", diff)
	}

	if _, err := openapi.ImportSchema([]byte(`{"type": "string"}`)); err == nil {
		t.Fatalf("expected non-object schema to be rejected")
	}
	if _, err := openapi.ImportSchema([]byte("  ")); err == nil {
		t.Fatalf("expected empty document to be rejected")
	}
}
