package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/orchestrator"
	"github.com/goliatone/go-formflow/pkg/render"
)

type renderInput struct {
	Schema     schemaInput         `json:"schema"                jsonschema:"The form schema to render"`
	Renderer   string              `json:"renderer,omitempty"    jsonschema:"Renderer name (default vanilla)"`
	Theme      string              `json:"theme,omitempty"       jsonschema:"Theme name"`
	Variant    string              `json:"variant,omitempty"     jsonschema:"Theme variant"`
	Values     map[string]any      `json:"values,omitempty"      jsonschema:"Prefilled values keyed by field name"`
	Errors     map[string][]string `json:"errors,omitempty"      jsonschema:"Server errors keyed by field name or JSON pointer"`
	ActiveStep string              `json:"active_step,omitempty" jsonschema:"Step id to show first"`
	InstanceID int64               `json:"instance_id,omitempty" jsonschema:"Form instance id carried into the markup"`
	Action     string              `json:"action,omitempty"      jsonschema:"Form action URL"`
	Async      bool                `json:"async,omitempty"       jsonschema:"Submit through XHR and show the success message in place"`
}

type renderOutput struct {
	Renderer    string `json:"renderer"`
	ContentType string `json:"content_type"`
	Bytes       int    `json:"bytes"`
	Output      string `json:"output"`
}

func (s *Server) handleRender(ctx context.Context, _ *mcp.CallToolRequest, input renderInput) (*mcp.CallToolResult, renderOutput, error) {
	form, err := input.Schema.resolve(ctx, s)
	if err != nil {
		return errResult(err), renderOutput{}, nil
	}
	contentType, err := s.orch.ContentType(input.Renderer)
	if err != nil {
		return errResult(err), renderOutput{}, nil
	}

	instanceID := input.InstanceID
	if instanceID == 0 {
		instanceID = input.Schema.FormID
	}
	mapping := render.MapErrorPayload(form, input.Errors)
	out, err := s.orch.Render(ctx, orchestrator.Request{
		Schema:       form,
		Renderer:     input.Renderer,
		ThemeName:    input.Theme,
		ThemeVariant: input.Variant,
		RenderOptions: render.RenderOptions{
			Context: render.InstanceContext{
				InstanceID: instanceID,
				Action:     input.Action,
				Async:      input.Async,
			},
			Values:     input.Values,
			Errors:     mapping.Fields,
			FormErrors: mapping.Form,
			ActiveStep: input.ActiveStep,
		},
	})
	if err != nil {
		s.logger.Warn("render tool failed", zap.Error(err))
		return errResult(err), renderOutput{}, nil
	}

	name := input.Renderer
	if name == "" {
		name = "default"
	}
	return nil, renderOutput{
		Renderer:    name,
		ContentType: contentType,
		Bytes:       len(out),
		Output:      string(out),
	}, nil
}
