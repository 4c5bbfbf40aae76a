package orchestrator

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formflow/pkg/renderers/vanilla/components"
)

// ErrUnknownTheme is returned when a requested theme or variant is not
// registered.
var ErrUnknownTheme = errors.New("orchestrator: unknown theme")

// WithThemeSelector resolves theme/variant choices ahead of rendering.
func WithThemeSelector(selector theme.ThemeSelector) Option {
	return func(o *Orchestrator) {
		o.themeSelector = selector
	}
}

// WithThemes registers manifests behind a ManifestSelector.
func WithThemes(defaultTheme, defaultVariant string, manifests ...*theme.Manifest) Option {
	return func(o *Orchestrator) {
		o.themeSelector = NewManifestSelector(defaultTheme, defaultVariant, manifests...)
	}
}

// WithThemeFallbacks sets the partials used when a theme does not override
// a template.
func WithThemeFallbacks(fallbacks map[string]string) Option {
	return func(o *Orchestrator) {
		o.themeFallbacks = cloneStrings(fallbacks)
	}
}

func defaultThemeFallbacks() map[string]string {
	return map[string]string{
		components.PartialInput:    "templates/components/input.tmpl",
		components.PartialTextarea: "templates/components/textarea.tmpl",
		components.PartialSelect:   "templates/components/select.tmpl",
		components.PartialChoices:  "templates/components/choices.tmpl",
	}
}

func (o *Orchestrator) resolveTheme(name, variant string) (*theme.RendererConfig, error) {
	if o.themeSelector == nil {
		return nil, nil
	}
	selection, err := o.themeSelector.Select(name, variant)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: select theme: %w", err)
	}
	if selection == nil {
		return nil, nil
	}
	return rendererConfig(selection, o.themeFallbacks), nil
}

// rendererConfig flattens a selection into what renderers consume: partials
// over fallbacks, variant tokens over base tokens, tokens as --css vars and
// an asset resolver honouring the variant prefix.
func rendererConfig(selection *theme.Selection, fallbacks map[string]string) *theme.RendererConfig {
	partials := cloneStrings(fallbacks)
	tokens := map[string]string{}
	files := map[string]string{}
	prefix := ""

	if manifest := selection.Manifest; manifest != nil {
		mergeStrings(partials, manifest.Templates)
		mergeStrings(tokens, manifest.Tokens)
		mergeStrings(files, manifest.Assets.Files)
		prefix = manifest.Assets.Prefix

		if v, ok := manifest.Variants[selection.Variant]; ok {
			mergeStrings(partials, v.Templates)
			mergeStrings(tokens, v.Tokens)
			mergeStrings(files, v.Assets.Files)
			if strings.TrimSpace(v.Assets.Prefix) != "" {
				prefix = v.Assets.Prefix
			}
		}
	}

	cssVars := make(map[string]string, len(tokens))
	for key, value := range tokens {
		cssVars["--"+strings.TrimPrefix(key, "--")] = value
	}

	prefix = strings.TrimRight(prefix, "/")
	return &theme.RendererConfig{
		Theme:    selection.Theme,
		Variant:  selection.Variant,
		Partials: partials,
		Tokens:   tokens,
		CSSVars:  cssVars,
		AssetURL: func(key string) string {
			file, ok := files[key]
			if !ok || strings.TrimSpace(file) == "" {
				return ""
			}
			if strings.HasPrefix(file, "/") || strings.Contains(file, "://") || prefix == "" {
				return file
			}
			return prefix + "/" + strings.TrimLeft(file, "/")
		},
	}
}

// ManifestSelector is an in-memory theme.ThemeSelector over a fixed set of
// manifests. Empty names fall back to the configured defaults.
type ManifestSelector struct {
	manifests      map[string]*theme.Manifest
	defaultTheme   string
	defaultVariant string
}

var _ theme.ThemeSelector = (*ManifestSelector)(nil)

// NewManifestSelector indexes manifests by name.
func NewManifestSelector(defaultTheme, defaultVariant string, manifests ...*theme.Manifest) *ManifestSelector {
	s := &ManifestSelector{
		manifests:      make(map[string]*theme.Manifest, len(manifests)),
		defaultTheme:   strings.TrimSpace(defaultTheme),
		defaultVariant: strings.TrimSpace(defaultVariant),
	}
	for _, manifest := range manifests {
		if manifest == nil || strings.TrimSpace(manifest.Name) == "" {
			continue
		}
		s.manifests[strings.TrimSpace(manifest.Name)] = manifest
	}
	return s
}

// Select implements theme.ThemeSelector.
func (s *ManifestSelector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	name = strings.TrimSpace(name)
	variant = strings.TrimSpace(variant)
	if name == "" {
		name = s.defaultTheme
		if variant == "" {
			variant = s.defaultVariant
		}
	}
	if name == "" {
		return nil, nil
	}

	manifest, ok := s.manifests[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (known: %s)", ErrUnknownTheme, name, strings.Join(s.Names(), ", "))
	}
	if variant != "" {
		if _, ok := manifest.Variants[variant]; !ok {
			return nil, fmt.Errorf("%w variant %q for theme %q", ErrUnknownTheme, variant, name)
		}
	}
	return &theme.Selection{Theme: name, Variant: variant, Manifest: manifest}, nil
}

// Names lists the registered theme names.
func (s *ManifestSelector) Names() []string {
	names := make([]string, 0, len(s.manifests))
	for name := range s.manifests {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func cloneStrings(src map[string]string) map[string]string {
	out := make(map[string]string, len(src))
	mergeStrings(out, src)
	return out
}

func mergeStrings(dst, src map[string]string) {
	for key, value := range src {
		dst[key] = value
	}
}
