package orchestrator

import (
	"context"
	"errors"
	"testing"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formflow/pkg/render"
	"github.com/goliatone/go-formflow/pkg/schema"
)

func TestOrchestrator_PassesThemeConfigToRenderer(t *testing.T) {
	manifest := &theme.Manifest{
		Name:    "acme",
		Version: "1.0.0",
		Tokens: map[string]string{
			"brand": "#123456",
		},
	}

	selection := &theme.Selection{
		Theme:    "acme",
		Variant:  "custom-variant",
		Manifest: manifest,
	}

	selector := &stubThemeSelector{selection: selection}

	renderer := &captureRenderer{}
	registry := render.NewRegistry()
	registry.MustRegister(renderer)

	orch := New(
		WithRegistry(registry),
		WithDefaultRenderer(renderer.Name()),
		WithThemeSelector(selector),
	)

	_, err := orch.Render(context.Background(), Request{
		Schema:       schema.Default(),
		ThemeName:    "custom-theme",
		ThemeVariant: "custom-variant",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if len(selector.calls) != 1 {
		t.Fatalf("expected selector called once, got %d", len(selector.calls))
	}
	if selector.calls[0].name != "custom-theme" || selector.calls[0].variant != "custom-variant" {
		t.Fatalf("unexpected selector args: %+v", selector.calls[0])
	}

	cfg := renderer.options.Theme
	if cfg == nil {
		t.Fatalf("expected theme config passed to renderer")
	}
	if cfg.Theme != selection.Theme {
		t.Fatalf("theme name mismatch: want %s, got %s", selection.Theme, cfg.Theme)
	}
	if cfg.Variant != selection.Variant {
		t.Fatalf("theme variant mismatch: want %s, got %s", selection.Variant, cfg.Variant)
	}
	if cfg.AssetURL == nil {
		t.Fatalf("expected AssetURL resolver present")
	}
	if got := cfg.Partials["forms.input"]; got != defaultThemeFallbacks()["forms.input"] {
		t.Fatalf("partials not merged with fallbacks: want %s, got %s", defaultThemeFallbacks()["forms.input"], got)
	}
	if cfg.Tokens["brand"] != manifest.Tokens["brand"] {
		t.Fatalf("tokens not propagated")
	}
	if cfg.CSSVars["--brand"] != manifest.Tokens["brand"] {
		t.Fatalf("css vars not derived from tokens")
	}
}

func TestOrchestrator_WithThemesUsesDefaults(t *testing.T) {
	manifest := &theme.Manifest{
		Name:    "acme",
		Version: "1.0.0",
		Tokens: map[string]string{
			"brand": "#123456",
		},
		Templates: map[string]string{
			"forms.input": "themes/acme/input.tmpl",
		},
		Assets: theme.Assets{
			Prefix: "/assets/themes/acme",
			Files: map[string]string{
				"vanilla.stylesheet": "theme.css",
			},
		},
		Variants: map[string]theme.Variant{
			"dark": {
				Tokens: map[string]string{
					"brand": "#654321",
				},
				Templates: map[string]string{
					"forms.select": "themes/acme/dark/select.tmpl",
				},
				Assets: theme.Assets{
					Files: map[string]string{
						"vanilla.logo": "logo.dark.svg",
					},
				},
			},
		},
	}

	renderer := &captureRenderer{}
	registry := render.NewRegistry()
	registry.MustRegister(renderer)

	orch := New(
		WithRegistry(registry),
		WithDefaultRenderer(renderer.Name()),
		WithThemes("acme", "dark", manifest),
	)

	if _, err := orch.Render(context.Background(), Request{Schema: schema.Default()}); err != nil {
		t.Fatalf("render: %v", err)
	}

	cfg := renderer.options.Theme
	if cfg == nil {
		t.Fatalf("expected theme config passed to renderer")
	}
	if cfg.Theme != "acme" || cfg.Variant != "dark" {
		t.Fatalf("unexpected selection %s/%s", cfg.Theme, cfg.Variant)
	}
	if cfg.Partials["forms.input"] != "themes/acme/input.tmpl" {
		t.Fatalf("expected base template override, got %s", cfg.Partials["forms.input"])
	}
	if cfg.Partials["forms.select"] != "themes/acme/dark/select.tmpl" {
		t.Fatalf("expected variant template override, got %s", cfg.Partials["forms.select"])
	}
	if cfg.Partials["forms.textarea"] != defaultThemeFallbacks()["forms.textarea"] {
		t.Fatalf("fallback partial not applied for textarea")
	}
	if cfg.Tokens["brand"] != "#654321" {
		t.Fatalf("tokens not merged with variant override, got %s", cfg.Tokens["brand"])
	}
	if cfg.CSSVars["--brand"] != "#654321" {
		t.Fatalf("css vars not derived from variant tokens, got %s", cfg.CSSVars["--brand"])
	}
	if got := cfg.AssetURL("vanilla.logo"); got != "/assets/themes/acme/logo.dark.svg" {
		t.Fatalf("unexpected logo asset url: %s", got)
	}
	if got := cfg.AssetURL("vanilla.stylesheet"); got != "/assets/themes/acme/theme.css" {
		t.Fatalf("unexpected stylesheet asset url: %s", got)
	}
	if got := cfg.AssetURL("missing"); got != "" {
		t.Fatalf("expected empty url for unknown asset, got %s", got)
	}
}

func TestManifestSelector_UnknownThemeAndVariant(t *testing.T) {
	selector := NewManifestSelector("", "", &theme.Manifest{Name: "acme"})

	if sel, err := selector.Select("", ""); err != nil || sel != nil {
		t.Fatalf("expected no selection without defaults, got %+v, %v", sel, err)
	}
	if _, err := selector.Select("other", ""); !errors.Is(err, ErrUnknownTheme) {
		t.Fatalf("expected ErrUnknownTheme, got %v", err)
	}
	if _, err := selector.Select("acme", "dark"); !errors.Is(err, ErrUnknownTheme) {
		t.Fatalf("expected ErrUnknownTheme for variant, got %v", err)
	}

	orch := New(
		WithRegistry(captureRegistry(&captureRenderer{})),
		WithThemeSelector(selector),
	)
	if _, err := orch.Render(context.Background(), Request{Schema: schema.Default(), ThemeName: "other"}); !errors.Is(err, ErrUnknownTheme) {
		t.Fatalf("expected render to surface ErrUnknownTheme, got %v", err)
	}
}

type selectorCall struct {
	name    string
	variant string
}

type stubThemeSelector struct {
	selection *theme.Selection
	err       error
	calls     []selectorCall
}

func (s *stubThemeSelector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	s.calls = append(s.calls, selectorCall{name: name, variant: variant})
	return s.selection, s.err
}

type captureRenderer struct {
	form    schema.Schema
	options render.RenderOptions
}

func (c *captureRenderer) Name() string        { return "capture" }
func (c *captureRenderer) ContentType() string { return "text/plain" }

func (c *captureRenderer) Render(_ context.Context, form schema.Schema, options render.RenderOptions) ([]byte, error) {
	c.form = form
	c.options = options
	return []byte("ok"), nil
}

func captureRegistry(r *captureRenderer) *render.Registry {
	registry := render.NewRegistry()
	registry.MustRegister(r)
	return registry
}
