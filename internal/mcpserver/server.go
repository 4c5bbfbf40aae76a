// Package mcpserver implements an MCP (Model Context Protocol) server that
// exposes the form orchestrator as MCP tools.
package mcpserver

import (
	"context"
	"io/fs"
	"regexp"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/orchestrator"
)

const serverInstructions = `formflow MCP server: inspects the field type palette, validates, evaluates and renders multi-step form schemas, and loads or saves stored forms.

Schemas are passed through the "schema" argument. Set exactly one of:
- content: an inline JSON or YAML schema document
- file: a path inside the server's schema directory
- form_id: the id of a stored form

import_openapi takes an OpenAPI document through content or file and returns the generated schema document with its validation result.

Validation never fails the call: invalid schemas return valid=false with every structural error. save_form refuses invalid schemas. Rendering does not re-validate so partial schemas can be previewed.`

// DefaultMaxContentBytes caps inline schema content.
const DefaultMaxContentBytes = 1 << 20

// Option customises a Server.
type Option func(*Server)

// WithLogger routes tool diagnostics to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSchemaFS enables the "file" schema source, resolved inside fsys.
func WithSchemaFS(fsys fs.FS) Option {
	return func(s *Server) {
		s.schemas = fsys
	}
}

// WithMaxContentBytes overrides DefaultMaxContentBytes.
func WithMaxContentBytes(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxContent = n
		}
	}
}

// WithVersion sets the implementation version reported to clients.
func WithVersion(version string) Option {
	return func(s *Server) {
		if version != "" {
			s.version = version
		}
	}
}

// Server binds MCP tool handlers to an orchestrator.
type Server struct {
	orch       *orchestrator.Orchestrator
	logger     *zap.Logger
	schemas    fs.FS
	maxContent int
	version    string
}

// New returns a Server for orch. A nil orch gets the default orchestrator
// without storage.
func New(orch *orchestrator.Orchestrator, opts ...Option) *Server {
	s := &Server{
		orch:       orch,
		logger:     zap.NewNop(),
		maxContent: DefaultMaxContentBytes,
		version:    "dev",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.orch == nil {
		s.orch = orchestrator.New(orchestrator.WithLogger(s.logger))
	}
	return s
}

// MCP builds the protocol server with every tool registered.
func (s *Server) MCP() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{Name: "formflow", Version: s.version},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)
	s.registerAllTools(server)
	return server
}

// Run serves over transport until the client disconnects or ctx is
// cancelled. A nil transport means stdio.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	if transport == nil {
		transport = &mcp.StdioTransport{}
	}
	return s.MCP().Run(ctx, transport)
}

func (s *Server) registerAllTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "field_types",
		Description: "List the field type palette grouped by category (basic, selection, advanced, address, utility, layout). Each type reports its id, label, icon, whether it is a container, and the names of its configurable settings. Use category to return one group.",
	}, s.handleFieldTypes)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "validate_schema",
		Description: "Validate a form schema's structure. Returns every blocking error (unknown types, duplicate names, invalid names, nesting depth, size and count limits) plus advisory warnings. Never fails fast.",
	}, s.handleValidate)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "evaluate",
		Description: "Evaluate a schema's conditional rules against field values. Returns the hidden fields, hidden steps, required, optional and disabled fields, and computed values. Extras are exposed to rules under the extras. prefix.",
	}, s.handleEvaluate)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "render",
		Description: "Render a schema with a registered renderer (vanilla HTML by default). Values prefill controls and errors fill the per-field error slots. The schema is not re-validated.",
	}, s.handleRender)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "validate_submission",
		Description: "Validate submitted values against the visible, effectively required fields of a schema. Returns field-keyed errors and the cleaned values that would be accepted.",
	}, s.handleValidateSubmission)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "new_form",
		Description: "Return the seed schema for a new form: one empty step with the default submit and success copy.",
	}, s.handleNewForm)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_forms",
		Description: "List the ids of stored forms.",
	}, s.handleListForms)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_form",
		Description: "Load a stored form by id and return its schema document as JSON or YAML.",
	}, s.handleGetForm)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "save_form",
		Description: "Validate a schema and store it under id. Invalid schemas are rejected with their errors and never reach the store.",
	}, s.handleSaveForm)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "import_openapi",
		Description: "Build a form schema from an OpenAPI 3 operation's request body. Properties map to field types by type and format; x-formflow extensions override type, settings and step. Set list to see the available operations first.",
	}, s.handleImportOpenAPI)
}

// sanitizeError strips absolute filesystem paths from error messages
// to prevent leaking internal directory structure to MCP clients.
var pathPattern = regexp.MustCompile(`(?:/(?:home|tmp|var|Users|etc|opt|usr|private|root|mnt|srv|run|snap|nix)[a-zA-Z0-9._/-]*)`)

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return pathPattern.ReplaceAllString(err.Error(), "<path>")
}

// errResult creates an MCP error result from an error.
func errResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: sanitizeError(err)}},
	}
}

// makeSlice returns nil when n is 0 (preserving omitempty JSON semantics),
// otherwise returns make([]T, 0, n) for pre-allocated appending.
func makeSlice[T any](n int) []T {
	if n == 0 {
		return nil
	}
	return make([]T, 0, n)
}
