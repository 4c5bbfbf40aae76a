package config

import (
	theme "github.com/goliatone/go-theme"
)

// ThemeConfig declares the themes available to renderers.
type ThemeConfig struct {
	Default   string          `yaml:"default"`
	Variant   string          `yaml:"variant"`
	Manifests []ThemeManifest `yaml:"manifests"`
}

// ThemeManifest is the YAML form of a go-theme manifest.
type ThemeManifest struct {
	Name        string                  `yaml:"name"`
	Version     string                  `yaml:"version"`
	Tokens      map[string]string       `yaml:"tokens"`
	Templates   map[string]string       `yaml:"templates"`
	AssetPrefix string                  `yaml:"asset_prefix"`
	Assets      map[string]string       `yaml:"assets"`
	Variants    map[string]ThemeVariant `yaml:"variants"`
}

// ThemeVariant overrides tokens, templates and assets of its manifest.
type ThemeVariant struct {
	Tokens      map[string]string `yaml:"tokens"`
	Templates   map[string]string `yaml:"templates"`
	AssetPrefix string            `yaml:"asset_prefix"`
	Assets      map[string]string `yaml:"assets"`
}

// ToManifests converts the configured themes.
func (c ThemeConfig) ToManifests() []*theme.Manifest {
	out := make([]*theme.Manifest, 0, len(c.Manifests))
	for _, m := range c.Manifests {
		manifest := &theme.Manifest{
			Name:      m.Name,
			Version:   m.Version,
			Tokens:    m.Tokens,
			Templates: m.Templates,
			Assets:    theme.Assets{Prefix: m.AssetPrefix, Files: m.Assets},
		}
		if len(m.Variants) > 0 {
			manifest.Variants = make(map[string]theme.Variant, len(m.Variants))
			for name, v := range m.Variants {
				manifest.Variants[name] = theme.Variant{
					Tokens:    v.Tokens,
					Templates: v.Templates,
					Assets:    theme.Assets{Prefix: v.AssetPrefix, Files: v.Assets},
				}
			}
		}
		out = append(out, manifest)
	}
	return out
}
