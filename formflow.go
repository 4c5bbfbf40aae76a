// Package formflow is the top-level entry point for the formflow engine. It
// re-exports the orchestrator constructor and a few one-call helpers; the
// packages under pkg/ carry the full API.
package formflow

import (
	"context"
	"fmt"

	"github.com/goliatone/go-formflow/pkg/openapi"
	"github.com/goliatone/go-formflow/pkg/orchestrator"
	"github.com/goliatone/go-formflow/pkg/render"
	"github.com/goliatone/go-formflow/pkg/schema"
)

// Schema is the authored form document.
type Schema = schema.Schema

// RenderOptions describes per-request overrides that renderers use to
// prefill values or surface server-side validation errors.
type RenderOptions = render.RenderOptions

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// NewImporter constructs an OpenAPI importer.
func NewImporter(options ...openapi.ImporterOption) *openapi.Importer {
	return openapi.NewImporter(options...)
}

// RenderHTML decodes a JSON or YAML schema document and renders it with the
// default renderer.
func RenderHTML(ctx context.Context, document []byte, renderOptions RenderOptions, options ...orchestrator.Option) ([]byte, error) {
	form, err := schema.Decode(document)
	if err != nil {
		return nil, err
	}
	return orchestrator.New(options...).Render(ctx, orchestrator.Request{
		Schema:        form,
		RenderOptions: renderOptions,
	})
}

// GenerateHTML imports the request body of operationID from an OpenAPI
// document and renders the resulting schema with the named renderer. The
// imported schema must pass validation.
func GenerateHTML(ctx context.Context, source schema.Source, operationID, rendererName string, options ...orchestrator.Option) ([]byte, error) {
	form, err := openapi.NewImporter().Import(ctx, source, operationID)
	if err != nil {
		return nil, err
	}
	orch := orchestrator.New(options...)
	if result := orch.Validate(form); !result.Valid {
		return nil, fmt.Errorf("%w: %v", orchestrator.ErrInvalidSchema, result.Errors)
	}
	return orch.Render(ctx, orchestrator.Request{
		Schema:   form,
		Renderer: rendererName,
	})
}
