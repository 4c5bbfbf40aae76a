package openapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formflow/pkg/fieldtypes"
	"github.com/goliatone/go-formflow/pkg/schema"
)

var (
	// ErrOperationNotFound is returned when the requested operation id is not
	// present in the document.
	ErrOperationNotFound = errors.New("openapi: operation not found")
	// ErrNoRequestBody is returned for operations without an object request
	// body.
	ErrNoRequestBody = errors.New("openapi: operation has no object request body")
)

// Preferred request body media types, in lookup order.
var mediaTypes = []string{
	"application/json",
	"application/x-www-form-urlencoded",
	"multipart/form-data",
}

// Operation summarises an importable operation.
type Operation struct {
	ID      string `json:"id"`
	Method  string `json:"method"`
	Path    string `json:"path"`
	Summary string `json:"summary,omitempty"`
	HasBody bool   `json:"has_body"`
}

// Importer turns OpenAPI operations into formflow schemas.
type Importer struct {
	loader      *Loader
	logger      *zap.Logger
	types       *fieldtypes.Registry
	validateDoc bool
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithLoader overrides the loader used to fetch documents.
func WithLoader(loader *Loader) ImporterOption {
	return func(i *Importer) {
		if loader != nil {
			i.loader = loader
		}
	}
}

// WithLogger attaches a logger for skipped properties.
func WithLogger(logger *zap.Logger) ImporterOption {
	return func(i *Importer) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithFieldTypes sets the registry Lint checks x-formflow types against.
func WithFieldTypes(registry *fieldtypes.Registry) ImporterOption {
	return func(i *Importer) {
		if registry != nil {
			i.types = registry
		}
	}
}

// WithDocumentValidation validates the OpenAPI document before import.
func WithDocumentValidation() ImporterOption {
	return func(i *Importer) {
		i.validateDoc = true
	}
}

// NewImporter constructs an Importer. Without options it reads local files
// only.
func NewImporter(options ...ImporterOption) *Importer {
	i := &Importer{
		loader: NewLoader(),
		logger: zap.NewNop(),
		types:  fieldtypes.NewDefaultRegistry(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(i)
		}
	}
	return i
}

// Operations lists the operations in src ordered by path then method.
func (i *Importer) Operations(ctx context.Context, src schema.Source) ([]Operation, error) {
	raw, err := i.loader.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	return i.OperationsData(ctx, raw)
}

// OperationsData is Operations for an in-memory document.
func (i *Importer) OperationsData(ctx context.Context, raw []byte) ([]Operation, error) {
	doc, err := i.parse(ctx, raw)
	if err != nil {
		return nil, err
	}
	var out []Operation
	for _, entry := range collect(doc) {
		out = append(out, Operation{
			ID:      entry.id,
			Method:  entry.method,
			Path:    entry.path,
			Summary: entry.op.Summary,
			HasBody: requestSchema(entry.op) != nil,
		})
	}
	return out, nil
}

// Import converts the request body of operationID into a schema. An empty
// operationID selects the only operation with a request body.
func (i *Importer) Import(ctx context.Context, src schema.Source, operationID string) (schema.Schema, error) {
	raw, err := i.loader.Load(ctx, src)
	if err != nil {
		return schema.Schema{}, err
	}
	return i.ImportData(ctx, raw, operationID)
}

// ImportData is Import for an in-memory document.
func (i *Importer) ImportData(ctx context.Context, raw []byte, operationID string) (schema.Schema, error) {
	doc, err := i.parse(ctx, raw)
	if err != nil {
		return schema.Schema{}, err
	}

	entries := collect(doc)
	var match *operationEntry
	if operationID == "" {
		for idx := range entries {
			if requestSchema(entries[idx].op) == nil {
				continue
			}
			if match != nil {
				return schema.Schema{}, errors.New("openapi: document has several operations with a request body, pick one")
			}
			match = &entries[idx]
		}
		if match == nil {
			return schema.Schema{}, ErrNoRequestBody
		}
	} else {
		for idx := range entries {
			if entries[idx].id == operationID {
				match = &entries[idx]
				break
			}
		}
		if match == nil {
			return schema.Schema{}, fmt.Errorf("%w: %q", ErrOperationNotFound, operationID)
		}
	}

	body := requestSchema(match.op)
	if body == nil || !isObject(body) {
		return schema.Schema{}, fmt.Errorf("%w: %q", ErrNoRequestBody, match.id)
	}

	title := strings.TrimSpace(match.op.Summary)
	if title == "" {
		title = strings.TrimSpace(body.Title)
	}
	return newConverter(i.logger.With(zap.String("operation", match.id))).form(body, title), nil
}

// ImportSchema converts a standalone JSON Schema object, in JSON or YAML, into
// a form schema.
func ImportSchema(raw []byte) (schema.Schema, error) {
	var generic any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return schema.Schema{}, fmt.Errorf("openapi: decode json schema: %w", err)
	}
	if generic == nil {
		return schema.Schema{}, schema.ErrEmptyDocument
	}
	payload, err := json.Marshal(generic)
	if err != nil {
		return schema.Schema{}, fmt.Errorf("openapi: decode json schema: %w", err)
	}

	var doc openapi3.Schema
	if err := json.Unmarshal(payload, &doc); err != nil {
		return schema.Schema{}, fmt.Errorf("openapi: decode json schema: %w", err)
	}
	if !isObject(&doc) {
		return schema.Schema{}, errors.New("openapi: json schema must describe an object")
	}
	return newConverter(zap.NewNop()).form(&doc, strings.TrimSpace(doc.Title)), nil
}

func (i *Importer) parse(ctx context.Context, raw []byte) (*openapi3.T, error) {
	if len(raw) == 0 {
		return nil, schema.ErrEmptyDocument
	}
	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if i.validateDoc {
		if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("openapi: validate: %w", err)
		}
	}
	if doc.Paths == nil || doc.Paths.Len() == 0 {
		return nil, errors.New("openapi: document does not contain any paths")
	}
	return doc, nil
}

type operationEntry struct {
	id     string
	method string
	path   string
	op     *openapi3.Operation
}

var methodOrder = map[string]int{
	"GET": 0, "POST": 1, "PUT": 2, "PATCH": 3, "DELETE": 4, "HEAD": 5, "OPTIONS": 6, "TRACE": 7,
}

func collect(doc *openapi3.T) []operationEntry {
	var out []operationEntry
	for path, item := range doc.Paths.Map() {
		if item == nil {
			continue
		}
		for method, op := range item.Operations() {
			if op == nil {
				continue
			}
			method = strings.ToUpper(method)
			id := op.OperationID
			if id == "" {
				id = strings.ToLower(method) + ":" + path
			}
			out = append(out, operationEntry{id: id, method: method, path: path, op: op})
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].path != out[b].path {
			return out[a].path < out[b].path
		}
		return methodOrder[out[a].method] < methodOrder[out[b].method]
	})
	return out
}

func requestSchema(op *openapi3.Operation) *openapi3.Schema {
	if op == nil || op.RequestBody == nil || op.RequestBody.Value == nil {
		return nil
	}
	content := op.RequestBody.Value.Content
	if len(content) == 0 {
		return nil
	}
	for _, mediaType := range mediaTypes {
		if media := content.Get(mediaType); media != nil && media.Schema != nil && media.Schema.Value != nil {
			return media.Schema.Value
		}
	}
	keys := make([]string, 0, len(content))
	for key := range content {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if media := content[key]; media != nil && media.Schema != nil && media.Schema.Value != nil {
			return media.Schema.Value
		}
	}
	return nil
}

func isObject(s *openapi3.Schema) bool {
	if s == nil {
		return false
	}
	if s.Type != nil && s.Type.Is(openapi3.TypeObject) {
		return true
	}
	return len(s.Properties) > 0 || len(s.AllOf) > 0
}
