package mcpserver

import (
	"context"
	"encoding/json"
	"slices"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formflow/pkg/orchestrator"
	"github.com/goliatone/go-formflow/pkg/store"
)

// startTestSession creates an in-process MCP server/client pair and returns
// the connected client session. The server is shut down when the test ends.
func startTestSession(t *testing.T) *mcp.ClientSession {
	t.Helper()

	s := New(orchestrator.New(orchestrator.WithStore(store.NewMemory())), WithVersion("test"))
	server := s.MCP()

	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	done := make(chan error, 1)
	go func() {
		done <- server.Run(ctx, serverTransport)
	}()

	client := mcp.NewClient(
		&mcp.Implementation{Name: "test-client", Version: "test"},
		nil,
	)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = session.Close()
		cancel()
		<-done
	})

	return session
}

func TestIntegration_ListTools(t *testing.T) {
	session := startTestSession(t)

	result, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)
	require.NotNil(t, result)

	names := make([]string, 0, len(result.Tools))
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description, "tool %q has empty description", tool.Name)
	}

	expected := []string{
		"field_types",
		"validate_schema",
		"evaluate",
		"render",
		"validate_submission",
		"new_form",
		"list_forms",
		"get_form",
		"save_form",
		"import_openapi",
	}
	assert.Len(t, result.Tools, len(expected))
	for _, name := range expected {
		assert.True(t, slices.Contains(names, name), "missing tool: %s", name)
	}
}

func TestIntegration_CallTool_Validate(t *testing.T) {
	session := startTestSession(t)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: "validate_schema",
		Arguments: map[string]any{
			"schema": map[string]any{"content": emailSchema},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.IsError)

	structured := unmarshalStructured(t, result)
	assert.Equal(t, true, structured["valid"])
	assert.Equal(t, float64(0), structured["error_count"])
}

func TestIntegration_CallTool_SaveThenRender(t *testing.T) {
	session := startTestSession(t)
	ctx := context.Background()

	saved, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name: "save_form",
		Arguments: map[string]any{
			"id":     7,
			"schema": map[string]any{"content": emailSchema},
		},
	})
	require.NoError(t, err)
	assert.False(t, saved.IsError)
	assert.Equal(t, true, unmarshalStructured(t, saved)["saved"])

	rendered, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name: "render",
		Arguments: map[string]any{
			"schema": map[string]any{"form_id": 7},
			"values": map[string]any{"email": "ada@example.com"},
		},
	})
	require.NoError(t, err)
	assert.False(t, rendered.IsError)
	output, ok := unmarshalStructured(t, rendered)["output"].(string)
	require.True(t, ok)
	assert.Contains(t, output, `value="ada@example.com"`)
}

func TestIntegration_CallTool_Error_MissingSchema(t *testing.T) {
	session := startTestSession(t)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: "validate_schema",
		Arguments: map[string]any{
			"schema": map[string]any{},
		},
	})
	require.NoError(t, err, "MCP protocol call should succeed even on tool error")
	require.NotNil(t, result)
	assert.True(t, result.IsError)

	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "error content should be TextContent")
	assert.Contains(t, text.Text, "exactly one of")
}

func unmarshalStructured(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()

	if result.StructuredContent != nil {
		data, err := json.Marshal(result.StructuredContent)
		require.NoError(t, err)
		var m map[string]any
		require.NoError(t, json.Unmarshal(data, &m))
		return m
	}

	require.NotEmpty(t, result.Content, "expected at least one content item")
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])

	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(text.Text), &m), "failed to parse text content as JSON")
	return m
}

func TestIntegration_CallTool_ImportOpenAPI(t *testing.T) {
	session := startTestSession(t)
	ctx := context.Background()

	const document = `{
  "openapi": "3.0.3",
  "info": {"title": "Signup", "version": "1.0"},
  "paths": {
    "/signups": {
      "post": {
        "operationId": "createSignup",
        "summary": "Sign up",
        "requestBody": {"content": {"application/json": {"schema": {
          "type": "object",
          "required": ["email"],
          "properties": {"email": {"type": "string", "format": "email"}}
        }}}},
        "responses": {"201": {"description": "created"}}
      }
    }
  }
}`

	listed, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "import_openapi",
		Arguments: map[string]any{"content": document, "list": true},
	})
	require.NoError(t, err)
	assert.False(t, listed.IsError)
	ops, ok := unmarshalStructured(t, listed)["operations"].([]any)
	require.True(t, ok)
	require.Len(t, ops, 1)
	assert.Equal(t, "createSignup", ops[0].(map[string]any)["id"])

	imported, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "import_openapi",
		Arguments: map[string]any{"content": document, "operation": "createSignup", "format": "yaml"},
	})
	require.NoError(t, err)
	assert.False(t, imported.IsError)
	structured := unmarshalStructured(t, imported)
	assert.Equal(t, "yaml", structured["format"])
	assert.Contains(t, structured["document"], "type: email")
	assert.Nil(t, structured["errors"])

	missing, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "import_openapi",
		Arguments: map[string]any{"content": document, "operation": "nope"},
	})
	require.NoError(t, err)
	assert.True(t, missing.IsError)
}
