package httpapi

import (
	"encoding/json"
	"errors"
	"html"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/fieldtypes"
	"github.com/goliatone/go-formflow/pkg/orchestrator"
	"github.com/goliatone/go-formflow/pkg/render"
	"github.com/goliatone/go-formflow/pkg/schema"
	"github.com/goliatone/go-formflow/pkg/validation"
)

type categoryPayload struct {
	Category fieldtypes.Category     `json:"category"`
	Types    []fieldtypes.Definition `json:"types"`
}

type evaluateRequest struct {
	Schema json.RawMessage `json:"schema"`
	Values map[string]any  `json:"values"`
	Extras map[string]any  `json:"extras"`
}

type renderRequest struct {
	Schema     json.RawMessage     `json:"schema"`
	Renderer   string              `json:"renderer"`
	Theme      string              `json:"theme"`
	Variant    string              `json:"variant"`
	Values     map[string]any      `json:"values"`
	Errors     map[string][]string `json:"errors"`
	ActiveStep string              `json:"active_step"`
	InstanceID int64               `json:"instance_id"`
	Action     string              `json:"action"`
	Method     string              `json:"method"`
	Locale     string              `json:"locale"`
	Async      bool                `json:"async"`
	Extras     map[string]any      `json:"extras"`
	Hidden     map[string]string   `json:"hidden"`
}

type submissionRequest struct {
	Values map[string]any `json:"values"`
}

type submissionResponse struct {
	validation.SubmissionResult
	Message string `json:"message,omitempty"`
}

func (s *Server) fieldTypes(c *gin.Context) {
	palette := s.orch.FieldTypesByCategory()
	out := make([]categoryPayload, 0, len(palette))
	for _, category := range fieldtypes.Categories() {
		types := palette[category]
		if types == nil {
			types = []fieldtypes.Definition{}
		}
		out = append(out, categoryPayload{Category: category, Types: types})
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

func (s *Server) renderers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.orch.Renderers()})
}

func (s *Server) validateSchema(c *gin.Context) {
	form, ok := s.readSchema(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.orch.Validate(form))
}

func (s *Server) evaluate(c *gin.Context) {
	var req evaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	form, err := schema.DecodeFormat(req.Schema, schema.FormatJSON)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, s.orch.EvaluateWithExtras(form, req.Values, req.Extras))
}

func (s *Server) render(c *gin.Context) {
	var req renderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	form, err := schema.DecodeFormat(req.Schema, schema.FormatJSON)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	contentType, err := s.orch.ContentType(req.Renderer)
	if err != nil {
		s.fail(c, err)
		return
	}

	mapping := render.MapErrorPayload(form, req.Errors)
	out, err := s.orch.Render(c.Request.Context(), orchestrator.Request{
		Schema:       form,
		Renderer:     req.Renderer,
		ThemeName:    req.Theme,
		ThemeVariant: req.Variant,
		RenderOptions: render.RenderOptions{
			Context: render.InstanceContext{
				InstanceID: req.InstanceID,
				Action:     req.Action,
				Method:     req.Method,
				Locale:     req.Locale,
				Async:      req.Async,
				Extras:     req.Extras,
			},
			Values:       req.Values,
			Errors:       mapping.Fields,
			FormErrors:   mapping.Form,
			HiddenFields: req.Hidden,
			ActiveStep:   req.ActiveStep,
		},
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, contentType, out)
}

func (s *Server) listForms(c *gin.Context) {
	ids, err := s.orch.FormIDs(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	if ids == nil {
		ids = []int64{}
	}
	c.JSON(http.StatusOK, gin.H{"data": ids})
}

func (s *Server) newForm(c *gin.Context) {
	c.JSON(http.StatusOK, s.orch.NewForm())
}

func (s *Server) getForm(c *gin.Context) {
	_, form, ok := s.loadForm(c)
	if !ok {
		return
	}
	if strings.EqualFold(c.Query("format"), string(schema.FormatYAML)) {
		out, err := schema.Encode(form, schema.FormatYAML)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.Data(http.StatusOK, "application/yaml; charset=utf-8", out)
		return
	}
	c.JSON(http.StatusOK, form)
}

func (s *Server) saveForm(c *gin.Context) {
	id, ok := formID(c)
	if !ok {
		return
	}
	form, ok := s.readSchema(c)
	if !ok {
		return
	}
	result, err := s.orch.Save(c.Request.Context(), id, form)
	if err != nil {
		var invalid *orchestrator.ValidationError
		if errors.As(err, &invalid) {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, invalid.Result)
			return
		}
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) submitJSON(c *gin.Context) {
	_, form, ok := s.loadForm(c)
	if !ok {
		return
	}
	var req submissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	s.respondSubmission(c, form, s.orch.ValidateSubmission(form, req.Values))
}

func (s *Server) page(c *gin.Context) {
	id, ok := formID(c)
	if !ok {
		return
	}
	contentType, err := s.orch.ContentType(c.Query("renderer"))
	if err != nil {
		s.fail(c, err)
		return
	}
	out, err := s.orch.RenderStored(c.Request.Context(), id, orchestrator.Request{
		Renderer:     c.Query("renderer"),
		ThemeName:    c.Query("theme"),
		ThemeVariant: c.Query("variant"),
		RenderOptions: render.RenderOptions{
			Context: render.InstanceContext{
				Action: c.Request.URL.Path,
				Locale: c.Query("locale"),
				Async:  c.Query("async") == "1",
			},
			ActiveStep: c.Query("step"),
		},
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, contentType, out)
}

// submitPage accepts a browser post of the rendered form. Invalid posts
// re-render the form with the submitted values and field errors.
func (s *Server) submitPage(c *gin.Context) {
	id, form, ok := s.loadForm(c)
	if !ok {
		return
	}
	if err := c.Request.ParseForm(); err != nil {
		badRequest(c, "invalid form body: "+err.Error())
		return
	}
	values := render.DecodeFormValues(form, c.Request.PostForm)
	result := s.orch.ValidateSubmission(form, values)

	if wantsJSON(c) {
		s.respondSubmission(c, form, result)
		return
	}
	if result.Valid {
		s.logger.Info("form submitted", zap.Int64("form_id", id))
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(
			`<div class="formflow-success" role="status">`+html.EscapeString(form.Settings.Success())+`</div>`,
		))
		return
	}

	mapping := render.MapErrorPayload(form, result.Errors)
	out, err := s.orch.Render(c.Request.Context(), orchestrator.Request{
		Schema: form,
		RenderOptions: render.RenderOptions{
			Context:    render.InstanceContext{InstanceID: id, Action: c.Request.URL.Path},
			Values:     values,
			Errors:     mapping.Fields,
			FormErrors: mapping.Form,
		},
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	contentType, err := s.orch.ContentType("")
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusUnprocessableEntity, contentType, out)
}

func (s *Server) respondSubmission(c *gin.Context, form schema.Schema, result validation.SubmissionResult) {
	if !result.Valid {
		c.JSON(http.StatusUnprocessableEntity, submissionResponse{SubmissionResult: result})
		return
	}
	c.JSON(http.StatusOK, submissionResponse{
		SubmissionResult: result,
		Message:          form.Settings.Success(),
	})
}

func (s *Server) readSchema(c *gin.Context) (schema.Schema, bool) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abortJSON(c, http.StatusRequestEntityTooLarge, "request body too large")
			return schema.Schema{}, false
		}
		badRequest(c, "read body: "+err.Error())
		return schema.Schema{}, false
	}
	form, err := schema.Decode(raw)
	if err != nil {
		badRequest(c, err.Error())
		return schema.Schema{}, false
	}
	return form, true
}

func (s *Server) loadForm(c *gin.Context) (int64, schema.Schema, bool) {
	id, ok := formID(c)
	if !ok {
		return 0, schema.Schema{}, false
	}
	form, found, err := s.orch.Load(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return 0, schema.Schema{}, false
	}
	if !found {
		notFound(c, "form not found")
		return 0, schema.Schema{}, false
	}
	return id, form, true
}

func formID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "form id must be a positive integer")
		return 0, false
	}
	return id, true
}

func wantsJSON(c *gin.Context) bool {
	if c.GetHeader("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}
