package mcpserver

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formflow/pkg/orchestrator"
	"github.com/goliatone/go-formflow/pkg/store"
)

func TestFormTools_Lifecycle(t *testing.T) {
	mem := store.NewMemory()
	s := New(orchestrator.New(orchestrator.WithStore(mem)))
	ctx := context.Background()

	dup := `{"steps":[{"id":"one","fields":[{"type":"text","name":"city"},{"type":"text","name":"city"}]}]}`
	result, rejected, err := s.handleSaveForm(ctx, &mcp.CallToolRequest{}, saveFormInput{ID: 3, Schema: schemaInput{Content: dup}})
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.False(t, rejected.Saved)
	assert.Len(t, rejected.Errors, 2)
	_, found, err := mem.Load(ctx, 3)
	require.NoError(t, err)
	assert.False(t, found)

	_, saved, err := s.handleSaveForm(ctx, &mcp.CallToolRequest{}, saveFormInput{ID: 3, Schema: schemaInput{Content: emailSchema}})
	require.NoError(t, err)
	assert.True(t, saved.Saved)

	_, list, err := s.handleListForms(ctx, &mcp.CallToolRequest{}, listFormsInput{})
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, list.IDs)
	assert.Equal(t, 1, list.Total)

	_, doc, err := s.handleGetForm(ctx, &mcp.CallToolRequest{}, getFormInput{ID: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(3), doc.ID)
	assert.Equal(t, "json", doc.Format)
	assert.Contains(t, doc.Document, `"name": "email"`)

	_, rendered, err := s.handleRender(ctx, &mcp.CallToolRequest{}, renderInput{Schema: schemaInput{FormID: 3}})
	require.NoError(t, err)
	assert.Contains(t, rendered.Output, `data-formflow-instance="3"`)

	missing, _, err := s.handleGetForm(ctx, &mcp.CallToolRequest{}, getFormInput{ID: 4})
	require.NoError(t, err)
	require.NotNil(t, missing)
	assert.True(t, missing.IsError)
}

func TestFormTools_WithoutStore(t *testing.T) {
	s := New(orchestrator.New())

	result, _, err := s.handleListForms(context.Background(), &mcp.CallToolRequest{}, listFormsInput{})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)

	result, _, err = s.handleSaveForm(context.Background(), &mcp.CallToolRequest{}, saveFormInput{ID: 1, Schema: schemaInput{Content: emailSchema}})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)
}
