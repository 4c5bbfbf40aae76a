package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formflow/pkg/renderers/tui"
)

const contactSchema = `steps:
  - id: contact
    title: Contact
    fields:
      - type: email
        name: email
        settings:
          label: Email
          required: true
`

const duplicateSchema = `{"steps":[{"id":"one","fields":[{"type":"text","name":"city"},{"type":"text","name":"city"}]}]}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSuggestCommand(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"valiate", "validate"},
		{"rendr", "render"},
		{"fil", "fill"},
		{"typs", "types"},
		{"improt", "import"},
		{"versio", "version"},
		{"hep", "help"},

		{"xyz", ""},
		{"foobar", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, suggestCommand(tt.input))
		})
	}
}

func TestHandleValidate(t *testing.T) {
	good := writeFile(t, "contact.yaml", contactSchema)
	bad := writeFile(t, "dup.json", duplicateSchema)

	var out bytes.Buffer
	require.NoError(t, handleValidate([]string{good}, &out))
	assert.Contains(t, out.String(), "contact.yaml: ok (0 errors")

	out.Reset()
	err := handleValidate([]string{good, bad}, &out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errInvalid))
	assert.Contains(t, out.String(), "dup.json: invalid (2 errors")

	require.Error(t, handleValidate(nil, &out))
}

func TestHandleRender_WithPreset(t *testing.T) {
	form := writeFile(t, "contact.yaml", contactSchema)
	preset := writeFile(t, "preset.json", `{"fields":{"email":{"label":"Work email"}}}`)
	values := writeFile(t, "values.json", `{"email":"ada@example.com"}`)

	var out bytes.Buffer
	require.NoError(t, handleRender([]string{"--preset", preset, "--values", values, "--action", "/submit", form}, &out))
	html := out.String()
	assert.Contains(t, html, "Work email")
	assert.Contains(t, html, `value="ada@example.com"`)
	assert.Contains(t, html, `action="/submit"`)
}

func TestHandleRender_WithScript(t *testing.T) {
	form := writeFile(t, "contact.yaml", contactSchema)
	script := writeFile(t, "transform.js", `function transform(form) { form.steps[0].title = "Reach us"; return form; }`)
	output := filepath.Join(t.TempDir(), "form.html")

	var out bytes.Buffer
	require.NoError(t, handleRender([]string{"--script", script, "--output", output, form}, &out))
	assert.Contains(t, out.String(), "Written to")

	html, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Reach us")
}

func TestHandleRender_UnknownRenderer(t *testing.T) {
	form := writeFile(t, "contact.yaml", contactSchema)
	var out bytes.Buffer
	require.Error(t, handleRender([]string{"--renderer", "missing", form}, &out))
}

func TestHandleNew(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, handleNew([]string{"--format", "json"}, &out))
	assert.Contains(t, out.String(), `"steps"`)

	require.Error(t, handleNew([]string{"--format", "toml"}, &out))
}

func TestHandleTypes(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, handleTypes([]string{"--category", "layout"}, &out))
	assert.Contains(t, out.String(), "layout:")
	assert.Contains(t, out.String(), "columns")
	assert.NotContains(t, out.String(), "basic:")

	require.Error(t, handleTypes([]string{"--category", "nope"}, &out))
}

type scriptedDriver struct {
	inputs []string
}

func (d *scriptedDriver) Input(context.Context, tui.InputConfig) (string, error) {
	if len(d.inputs) == 0 {
		return "", errors.New("no input scripted")
	}
	v := d.inputs[0]
	d.inputs = d.inputs[1:]
	return v, nil
}

func (d *scriptedDriver) Password(ctx context.Context, cfg tui.InputConfig) (string, error) {
	return d.Input(ctx, cfg)
}

func (d *scriptedDriver) Confirm(context.Context, tui.ConfirmConfig) (bool, error) {
	return false, errors.New("no confirm scripted")
}

func (d *scriptedDriver) Select(context.Context, tui.SelectConfig) (int, error) {
	return -1, errors.New("no select scripted")
}

func (d *scriptedDriver) MultiSelect(context.Context, tui.SelectConfig) ([]int, error) {
	return nil, errors.New("no multiselect scripted")
}

func (d *scriptedDriver) TextArea(ctx context.Context, _ tui.TextAreaConfig) (string, error) {
	return d.Input(ctx, tui.InputConfig{})
}

func (d *scriptedDriver) Info(context.Context, string) error { return nil }

func TestRunFill(t *testing.T) {
	form := writeFile(t, "contact.yaml", contactSchema)

	var out bytes.Buffer
	require.NoError(t, runFill([]string{form}, &out, &scriptedDriver{inputs: []string{" ada@example.com "}}))
	assert.Contains(t, out.String(), `"email": "ada@example.com"`)

	out.Reset()
	require.NoError(t, runFill([]string{"--format", "yaml", form}, &out, &scriptedDriver{inputs: []string{"ada@example.com"}}))
	assert.Contains(t, out.String(), "email: ada@example.com")

	require.Error(t, runFill([]string{"--format", "xml", form}, &out, &scriptedDriver{}))
}

const signupDocument = `openapi: 3.0.3
info:
  title: Signup
  version: "1.0"
paths:
  /signups:
    post:
      operationId: createSignup
      summary: Sign up
      requestBody:
        content:
          application/json:
            schema:
              type: object
              required: [email]
              properties:
                email:
                  type: string
                  format: email
      responses:
        "201":
          description: created
`

func TestHandleImport(t *testing.T) {
	doc := writeFile(t, "openapi.yaml", signupDocument)

	var out bytes.Buffer
	require.NoError(t, handleImport([]string{"--list", doc}, &out))
	assert.Contains(t, out.String(), "createSignup")
	assert.Contains(t, out.String(), "POST")

	out.Reset()
	require.NoError(t, handleImport([]string{"--format", "json", "--operation", "createSignup", doc}, &out))
	assert.Contains(t, out.String(), `"title": "Sign up"`)
	assert.Contains(t, out.String(), `"type": "email"`)

	out.Reset()
	require.Error(t, handleImport([]string{"--operation", "missing", doc}, &out))
	require.Error(t, handleImport(nil, &out))

	jsonSchema := writeFile(t, "feedback.json", `{"type":"object","properties":{"comment":{"type":"string"}}}`)
	out.Reset()
	require.NoError(t, handleImport([]string{"--json-schema", jsonSchema}, &out))
	assert.Contains(t, out.String(), "name: comment")

	out.Reset()
	require.NoError(t, handleImport([]string{"--lint", doc}, &out))
	assert.Contains(t, out.String(), "no x-formflow issues found")

	broken := writeFile(t, "broken.yaml", strings.Replace(signupDocument, "format: email", "format: email\n                  x-formflow: {type: sparkle}", 1))
	out.Reset()
	err := handleImport([]string{"--lint", broken}, &out)
	require.ErrorIs(t, err, errInvalid)
	assert.Contains(t, out.String(), "sparkle")
}
