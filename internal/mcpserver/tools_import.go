package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/goliatone/go-formflow/pkg/openapi"
)

type importOpenAPIInput struct {
	Content   string `json:"content,omitempty"   jsonschema:"Inline OpenAPI 3 document (JSON or YAML)"`
	File      string `json:"file,omitempty"      jsonschema:"Path to an OpenAPI document inside the server's schema directory"`
	Operation string `json:"operation,omitempty" jsonschema:"operationId to import; defaults to the only operation with a request body"`
	List      bool   `json:"list,omitempty"      jsonschema:"List operations instead of importing"`
	Format    string `json:"format,omitempty"    jsonschema:"Document format: json (default) or yaml"`
}

type importOpenAPIOutput struct {
	Operations []openapi.Operation `json:"operations,omitempty"`
	Format     string              `json:"format,omitempty"`
	Document   string              `json:"document,omitempty"`
	Errors     []string            `json:"errors,omitempty"`
	Warnings   []string            `json:"warnings,omitempty"`
}

func (s *Server) handleImportOpenAPI(ctx context.Context, _ *mcp.CallToolRequest, input importOpenAPIInput) (*mcp.CallToolResult, importOpenAPIOutput, error) {
	raw, err := s.openAPIDocument(ctx, input)
	if err != nil {
		return errResult(err), importOpenAPIOutput{}, nil
	}

	importer := openapi.NewImporter(openapi.WithLogger(s.logger))
	if input.List {
		ops, err := importer.OperationsData(ctx, raw)
		if err != nil {
			return errResult(err), importOpenAPIOutput{}, nil
		}
		return nil, importOpenAPIOutput{Operations: ops}, nil
	}

	form, err := importer.ImportData(ctx, raw, input.Operation)
	if err != nil {
		return errResult(err), importOpenAPIOutput{}, nil
	}
	doc, err := encodeDocument(form, input.Format)
	if err != nil {
		return errResult(err), importOpenAPIOutput{}, nil
	}
	result := s.orch.Validate(form)
	return nil, importOpenAPIOutput{
		Format:   doc.Format,
		Document: doc.Document,
		Errors:   result.Errors,
		Warnings: result.Warnings,
	}, nil
}

func (s *Server) openAPIDocument(ctx context.Context, input importOpenAPIInput) ([]byte, error) {
	switch {
	case input.Content != "" && input.File != "":
		return nil, errors.New("exactly one of content or file must be provided (got 2)")
	case input.Content != "":
		if len(input.Content) > s.maxContent {
			return nil, fmt.Errorf("inline content exceeds %d bytes", s.maxContent)
		}
		return []byte(input.Content), nil
	case input.File != "":
		if s.schemas == nil {
			return nil, errors.New("file sources are not enabled on this server")
		}
		name := path.Clean(strings.TrimPrefix(input.File, "/"))
		if name == "." || name == ".." || strings.HasPrefix(name, "../") {
			return nil, fmt.Errorf("file %q is outside the schema directory", input.File)
		}
		loader := openapi.NewLoader(openapi.WithFileSystem(s.schemas))
		return loader.Load(ctx, openapi.SourceFromFS(name))
	default:
		return nil, errors.New("exactly one of content or file must be provided (got 0)")
	}
}
