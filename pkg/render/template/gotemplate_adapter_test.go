package template_test

import (
	"io"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-formflow/pkg/render/template/gotemplate"
	"github.com/goliatone/go-formflow/pkg/testsupport"
)

var templatesFS = fstest.MapFS{
	"hello.tpl":      {Data: []byte("Hello {{ name }}!")},
	"control.tpl":    {Data: []byte(`<input id="{{ field.id }}" name="{{ field.input_name }}">`)},
	"program.tpl":    {Data: []byte(`<script type="application/json">{{ program|tojson }}</script>`)},
	"root.tpl":       {Data: []byte(`<form style="{{ vars|cssvars }}">{{ body }}|{{ body|safe }}</form>`)},
}

func TestGoTemplateEngine_RenderTemplate(t *testing.T) {
	engine := newEngine(t)

	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("hello", map[string]any{"name": "Ada"}, w)
	})

	want := "Hello Ada!"
	if result != want || written != want {
		t.Fatalf("render template mismatch\nwant: %q\n got: %q / %q", want, result, written)
	}
}

func TestGoTemplateEngine_StructFieldsUseJSONNames(t *testing.T) {
	engine := newEngine(t)

	type control struct {
		ID        string `json:"id"`
		InputName string `json:"input_name"`
	}
	result, err := engine.RenderTemplate("control", map[string]any{
		"field": control{ID: "formflow-1-email", InputName: "email"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result != `<input id="formflow-1-email" name="email">` {
		t.Fatalf("unexpected output %q", result)
	}
}

func TestGoTemplateEngine_MissingTemplate(t *testing.T) {
	engine := newEngine(t)

	if _, err := engine.RenderTemplate("absent", nil); err == nil {
		t.Fatalf("expected an error for a missing template")
	}
}

func TestGoTemplateEngine_ToJSONEscapesScriptBreakout(t *testing.T) {
	engine := newEngine(t)

	result, err := engine.RenderTemplate("program", map[string]any{
		"program": map[string]any{"label": "</script><b>"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(result, "</script><b>") {
		t.Fatalf("payload must not close the script element: %s", result)
	}
	if !strings.Contains(result, `</script>`) {
		t.Fatalf("expected escaped payload, got %s", result)
	}
}

func TestGoTemplateEngine_CSSVarsAndAutoescape(t *testing.T) {
	engine := newEngine(t)

	result, err := engine.RenderTemplate("root", map[string]any{
		"vars": map[string]string{"--radius": "4px", "--brand": "#123456", "color": "red", "--bad": "x;}"},
		"body": "<b>hi</b>",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := `<form style="--brand: #123456; --radius: 4px">&lt;b&gt;hi&lt;/b&gt;|<b>hi</b></form>`
	if result != want {
		t.Fatalf("unexpected output\nwant: %s\n got: %s", want, result)
	}
}

func TestGoTemplateEngine_RenderString(t *testing.T) {
	engine := newEngine(t)

	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderString("{{ a }}-{{ b|trim }}", map[string]any{"a": "one", "b": " two "}, w)
	})
	if result != "one-two" || written != "one-two" {
		t.Fatalf("unexpected output %q / %q", result, written)
	}
}

func TestGoTemplateEngine_RequiresSource(t *testing.T) {
	if _, err := gotemplate.New(nil, ".tpl"); err == nil {
		t.Fatalf("expected an error without a template source")
	}
}

func newEngine(t *testing.T) *gotemplate.Engine {
	t.Helper()

	engine, err := gotemplate.New(templatesFS, "tpl")
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}
