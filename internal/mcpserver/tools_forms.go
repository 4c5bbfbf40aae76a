package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/orchestrator"
)

type listFormsInput struct{}

type listFormsOutput struct {
	Total int     `json:"total"`
	IDs   []int64 `json:"ids"`
}

func (s *Server) handleListForms(ctx context.Context, _ *mcp.CallToolRequest, _ listFormsInput) (*mcp.CallToolResult, listFormsOutput, error) {
	ids, err := s.orch.FormIDs(ctx)
	if err != nil {
		return errResult(err), listFormsOutput{}, nil
	}
	if ids == nil {
		ids = []int64{}
	}
	return nil, listFormsOutput{Total: len(ids), IDs: ids}, nil
}

type getFormInput struct {
	ID     int64  `json:"id"               jsonschema:"Stored form id"`
	Format string `json:"format,omitempty" jsonschema:"Document format: json (default) or yaml"`
}

func (s *Server) handleGetForm(ctx context.Context, _ *mcp.CallToolRequest, input getFormInput) (*mcp.CallToolResult, documentOutput, error) {
	form, found, err := s.orch.Load(ctx, input.ID)
	if err != nil {
		return errResult(err), documentOutput{}, nil
	}
	if !found {
		return errResult(fmt.Errorf("form %d not found", input.ID)), documentOutput{}, nil
	}
	output, err := encodeDocument(form, input.Format)
	if err != nil {
		return errResult(err), documentOutput{}, nil
	}
	output.ID = input.ID
	return nil, output, nil
}

type saveFormInput struct {
	ID     int64       `json:"id"     jsonschema:"Form id to store the schema under"`
	Schema schemaInput `json:"schema" jsonschema:"The schema to validate and store"`
}

type saveFormOutput struct {
	ID       int64    `json:"id"`
	Saved    bool     `json:"saved"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func (s *Server) handleSaveForm(ctx context.Context, _ *mcp.CallToolRequest, input saveFormInput) (*mcp.CallToolResult, saveFormOutput, error) {
	form, err := input.Schema.resolve(ctx, s)
	if err != nil {
		return errResult(err), saveFormOutput{}, nil
	}
	result, err := s.orch.Save(ctx, input.ID, form)
	output := saveFormOutput{ID: input.ID, Errors: result.Errors, Warnings: result.Warnings}
	if err != nil {
		if errors.Is(err, orchestrator.ErrInvalidSchema) {
			return nil, output, nil
		}
		return errResult(err), saveFormOutput{}, nil
	}
	s.logger.Info("form saved over mcp", zap.Int64("form_id", input.ID))
	output.Saved = true
	return nil, output, nil
}
