package formflow

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-formflow/pkg/openapi"
	"github.com/goliatone/go-formflow/pkg/orchestrator"
)

func TestRuntimeAssetsFSContainsRuntimeBundle(t *testing.T) {
	data, err := fs.ReadFile(RuntimeAssetsFS(), "formflow-runtime.js")
	if err != nil {
		t.Fatalf("expected runtime script to be readable: %v", err)
	}
	if !strings.Contains(string(data), "FormflowLogic") {
		t.Fatalf("expected runtime script to define FormflowLogic")
	}
	if _, err := fs.ReadFile(RuntimeAssetsFS(), "formflow.css"); err != nil {
		t.Fatalf("expected stylesheet to be readable: %v", err)
	}
}

func TestEmbeddedTemplatesIncludeFormShell(t *testing.T) {
	if _, err := fs.Stat(EmbeddedTemplates(), "templates/form.tmpl"); err != nil {
		t.Fatalf("expected form shell template: %v", err)
	}
}

func TestRenderHTML(t *testing.T) {
	document := []byte(`steps:
  - id: contact
    fields:
      - type: email
        name: email
        settings:
          label: Email
`)
	html, err := RenderHTML(context.Background(), document, RenderOptions{Values: map[string]any{"email": "ada@example.com"}})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(string(html), `value="ada@example.com"`) {
		t.Fatalf("expected prefilled value in output")
	}

	if _, err := RenderHTML(context.Background(), []byte(" "), RenderOptions{}); err == nil {
		t.Fatalf("expected empty document error")
	}
}

func TestGenerateHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "openapi.json")
	document := `{
  "openapi": "3.0.3",
  "info": {"title": "Signup", "version": "1.0"},
  "paths": {"/signups": {"post": {
    "operationId": "createSignup",
    "summary": "Sign up",
    "requestBody": {"content": {"application/json": {"schema": {
      "type": "object",
      "properties": {"nickname": {"type": "string", "title": "Nickname"}}
    }}}},
    "responses": {"201": {"description": "created"}}
  }}}
}`
	if err := os.WriteFile(path, []byte(document), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	html, err := GenerateHTML(context.Background(), openapi.SourceFromFile(path), "createSignup", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(string(html), "Nickname") {
		t.Fatalf("expected imported label in output")
	}

	_, err = GenerateHTML(context.Background(), openapi.SourceFromFile(path), "missing", "")
	if !errors.Is(err, openapi.ErrOperationNotFound) {
		t.Fatalf("expected ErrOperationNotFound, got %v", err)
	}

	_, err = GenerateHTML(context.Background(), openapi.SourceFromFile(path), "createSignup", "nope")
	if err == nil {
		t.Fatalf("expected unknown renderer error")
	}
}

func TestNewOrchestratorSeed(t *testing.T) {
	form := NewOrchestrator(orchestrator.WithLogger(nil)).NewForm()
	if len(form.Steps) != 1 || form.Settings.SubmitText != "Submit" {
		t.Fatalf("unexpected seed %+v", form)
	}
}
