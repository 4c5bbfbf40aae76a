package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/goliatone/go-formflow/pkg/schema"
)

// schemaInput represents the three ways a schema can be provided to a tool.
// Exactly one of File, Content, or FormID must be set.
type schemaInput struct {
	File    string `json:"file,omitempty"    jsonschema:"Path to a schema file inside the server's schema directory"`
	Content string `json:"content,omitempty" jsonschema:"Inline schema document (JSON or YAML)"`
	FormID  int64  `json:"form_id,omitempty" jsonschema:"Id of a stored form"`
}

func (in schemaInput) resolve(ctx context.Context, s *Server) (schema.Schema, error) {
	count := 0
	if in.File != "" {
		count++
	}
	if in.Content != "" {
		count++
	}
	if in.FormID != 0 {
		count++
	}
	if count != 1 {
		return schema.Schema{}, fmt.Errorf("exactly one of file, content, or form_id must be provided (got %d)", count)
	}

	switch {
	case in.Content != "":
		if len(in.Content) > s.maxContent {
			return schema.Schema{}, fmt.Errorf("inline content exceeds %d bytes", s.maxContent)
		}
		return schema.Decode([]byte(in.Content))
	case in.File != "":
		if s.schemas == nil {
			return schema.Schema{}, errors.New("file sources are not enabled on this server")
		}
		name := path.Clean(strings.TrimPrefix(in.File, "/"))
		if name == "." || strings.HasPrefix(name, "../") || name == ".." {
			return schema.Schema{}, fmt.Errorf("file %q is outside the schema directory", in.File)
		}
		doc, err := schema.ReadDocument(s.schemas, schema.SourceFromFS(name))
		if err != nil {
			return schema.Schema{}, err
		}
		return doc.Decode()
	default:
		form, found, err := s.orch.Load(ctx, in.FormID)
		if err != nil {
			return schema.Schema{}, err
		}
		if !found {
			return schema.Schema{}, fmt.Errorf("form %d not found", in.FormID)
		}
		return form, nil
	}
}
