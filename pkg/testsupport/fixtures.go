package testsupport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/schema"
)

// LoadSchema reads a schema fixture (JSON or YAML by extension). Testing
// helpers fail the test on error to keep contract tests concise.
func LoadSchema(t *testing.T, path string) schema.Schema {
	t.Helper()

	s, err := LoadSchemaFromPath(path)
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}
	return s
}

// LoadSchemaFromPath returns a Schema without requiring testing.T, allowing
// callers to wire fixtures in setup functions.
func LoadSchemaFromPath(path string) (schema.Schema, error) {
	if path == "" {
		return schema.Schema{}, errors.New("testsupport: schema path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return schema.Schema{}, fmt.Errorf("testsupport: read schema: %w", err)
	}
	doc, err := schema.NewDocument(schema.SourceFromFile(path), data)
	if err != nil {
		return schema.Schema{}, fmt.Errorf("testsupport: new document: %w", err)
	}
	s, err := doc.Decode()
	if err != nil {
		return schema.Schema{}, fmt.Errorf("testsupport: decode schema: %w", err)
	}
	return s, nil
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// CaptureTemplateOutput executes a render function that writes to an io.Writer,
// returning both the string result and the writer contents. Tests can assert
// the renderer returns and writes the same payload without duplicating buffer
// setup.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}

	return out, buf.String()
}
