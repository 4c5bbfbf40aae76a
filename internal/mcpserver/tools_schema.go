package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/goliatone/go-formflow/pkg/fieldtypes"
	"github.com/goliatone/go-formflow/pkg/schema"
)

type fieldTypesInput struct {
	Category string `json:"category,omitempty" jsonschema:"Return only this category"`
}

type fieldTypeSummary struct {
	ID        string   `json:"id"`
	Label     string   `json:"label"`
	Icon      string   `json:"icon,omitempty"`
	Container bool     `json:"container,omitempty"`
	Settings  []string `json:"settings,omitempty"`
}

type fieldTypeGroup struct {
	Category string             `json:"category"`
	Types    []fieldTypeSummary `json:"types"`
}

type fieldTypesOutput struct {
	Total      int              `json:"total"`
	Categories []fieldTypeGroup `json:"categories"`
}

func (s *Server) handleFieldTypes(_ context.Context, _ *mcp.CallToolRequest, input fieldTypesInput) (*mcp.CallToolResult, fieldTypesOutput, error) {
	palette := s.orch.FieldTypesByCategory()
	want := fieldtypes.Category(strings.ToLower(strings.TrimSpace(input.Category)))
	if want != "" {
		if _, ok := palette[want]; !ok {
			return errResult(fmt.Errorf("unknown category %q", input.Category)), fieldTypesOutput{}, nil
		}
	}

	var output fieldTypesOutput
	for _, category := range fieldtypes.Categories() {
		if want != "" && category != want {
			continue
		}
		defs := palette[category]
		group := fieldTypeGroup{Category: string(category), Types: make([]fieldTypeSummary, 0, len(defs))}
		for _, def := range defs {
			summary := fieldTypeSummary{
				ID:        def.ID,
				Label:     def.Label,
				Icon:      def.Icon,
				Container: def.Container,
				Settings:  makeSlice[string](len(def.Settings)),
			}
			for _, setting := range def.Settings {
				summary.Settings = append(summary.Settings, setting.Name)
			}
			group.Types = append(group.Types, summary)
		}
		output.Total += len(group.Types)
		output.Categories = append(output.Categories, group)
	}
	return nil, output, nil
}

type validateInput struct {
	Schema schemaInput `json:"schema" jsonschema:"The form schema to validate"`
}

type validateOutput struct {
	Valid        bool     `json:"valid"`
	ErrorCount   int      `json:"error_count"`
	WarningCount int      `json:"warning_count"`
	Errors       []string `json:"errors,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
}

func (s *Server) handleValidate(ctx context.Context, _ *mcp.CallToolRequest, input validateInput) (*mcp.CallToolResult, validateOutput, error) {
	form, err := input.Schema.resolve(ctx, s)
	if err != nil {
		return errResult(err), validateOutput{}, nil
	}
	result := s.orch.Validate(form)
	return nil, validateOutput{
		Valid:        result.Valid,
		ErrorCount:   len(result.Errors),
		WarningCount: len(result.Warnings),
		Errors:       result.Errors,
		Warnings:     result.Warnings,
	}, nil
}

type evaluateInput struct {
	Schema schemaInput    `json:"schema"           jsonschema:"The form schema whose rules are evaluated"`
	Values map[string]any `json:"values,omitempty" jsonschema:"Field values keyed by field name"`
	Extras map[string]any `json:"extras,omitempty" jsonschema:"Request extras visible to rules as extras.<key>"`
}

type evaluateOutput struct {
	HiddenFields   []string       `json:"hidden_fields"`
	HiddenSteps    []string       `json:"hidden_steps"`
	RequiredFields []string       `json:"required_fields"`
	OptionalFields []string       `json:"optional_fields"`
	DisabledFields []string       `json:"disabled_fields"`
	Values         map[string]any `json:"values,omitempty"`
}

func (s *Server) handleEvaluate(ctx context.Context, _ *mcp.CallToolRequest, input evaluateInput) (*mcp.CallToolResult, evaluateOutput, error) {
	form, err := input.Schema.resolve(ctx, s)
	if err != nil {
		return errResult(err), evaluateOutput{}, nil
	}
	result := s.orch.EvaluateWithExtras(form, input.Values, input.Extras)
	return nil, evaluateOutput{
		HiddenFields:   result.HiddenFields.Sorted(),
		HiddenSteps:    result.HiddenSteps.Sorted(),
		RequiredFields: result.RequiredFields.Sorted(),
		OptionalFields: result.OptionalFields.Sorted(),
		DisabledFields: result.DisabledFields.Sorted(),
		Values:         result.Values,
	}, nil
}

type submissionInput struct {
	Schema schemaInput    `json:"schema" jsonschema:"The form schema the values were collected against"`
	Values map[string]any `json:"values" jsonschema:"Submitted values keyed by field name"`
}

type submissionOutput struct {
	Valid  bool                `json:"valid"`
	Errors map[string][]string `json:"errors,omitempty"`
	Values map[string]any      `json:"values,omitempty"`
}

func (s *Server) handleValidateSubmission(ctx context.Context, _ *mcp.CallToolRequest, input submissionInput) (*mcp.CallToolResult, submissionOutput, error) {
	form, err := input.Schema.resolve(ctx, s)
	if err != nil {
		return errResult(err), submissionOutput{}, nil
	}
	result := s.orch.ValidateSubmission(form, input.Values)
	output := submissionOutput{Valid: result.Valid, Values: result.Values}
	if len(result.Errors) > 0 {
		output.Errors = result.Errors
	}
	return nil, output, nil
}

type newFormInput struct {
	Format string `json:"format,omitempty" jsonschema:"Document format: json (default) or yaml"`
}

type documentOutput struct {
	ID       int64  `json:"id,omitempty"`
	Format   string `json:"format"`
	Document string `json:"document"`
}

func (s *Server) handleNewForm(_ context.Context, _ *mcp.CallToolRequest, input newFormInput) (*mcp.CallToolResult, documentOutput, error) {
	output, err := encodeDocument(s.orch.NewForm(), input.Format)
	if err != nil {
		return errResult(err), documentOutput{}, nil
	}
	return nil, output, nil
}

func encodeDocument(form schema.Schema, format string) (documentOutput, error) {
	f := schema.FormatJSON
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
	case "yaml", "yml":
		f = schema.FormatYAML
	default:
		return documentOutput{}, fmt.Errorf("unsupported format %q; valid values: json, yaml", format)
	}
	out, err := schema.Encode(form, f)
	if err != nil {
		return documentOutput{}, err
	}
	return documentOutput{Format: string(f), Document: string(out)}, nil
}
