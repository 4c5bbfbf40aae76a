package openapi

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formflow/pkg/fieldtypes"
	"github.com/goliatone/go-formflow/pkg/schema"
)

var extensionKeys = map[string]struct{}{
	"type":     {},
	"step":     {},
	"order":    {},
	"skip":     {},
	"settings": {},
}

// Violation is an x-formflow extension the importer cannot honour.
type Violation struct {
	Location string `json:"location"`
	Message  string `json:"message"`
}

// Lint reports malformed x-formflow extensions in every request body of src.
func (i *Importer) Lint(ctx context.Context, src schema.Source) ([]Violation, error) {
	raw, err := i.loader.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	return i.LintData(ctx, raw)
}

// LintData is Lint for an in-memory document.
func (i *Importer) LintData(ctx context.Context, raw []byte) ([]Violation, error) {
	doc, err := i.parse(ctx, raw)
	if err != nil {
		return nil, err
	}
	l := linter{types: i.types, visiting: make(map[*openapi3.Schema]bool)}
	for _, entry := range collect(doc) {
		body := requestSchema(entry.op)
		if body == nil {
			continue
		}
		l.schema([]string{"operation " + entry.id, "requestBody"}, body)
	}
	sort.SliceStable(l.out, func(a, b int) bool {
		if l.out[a].Location != l.out[b].Location {
			return l.out[a].Location < l.out[b].Location
		}
		return l.out[a].Message < l.out[b].Message
	})
	return l.out, nil
}

type linter struct {
	types    *fieldtypes.Registry
	visiting map[*openapi3.Schema]bool
	out      []Violation
}

func (l *linter) report(path []string, format string, args ...any) {
	l.out = append(l.out, Violation{
		Location: strings.Join(path, " > "),
		Message:  fmt.Sprintf(format, args...),
	})
}

func (l *linter) schema(path []string, s *openapi3.Schema) {
	if s == nil || l.visiting[s] {
		return
	}
	l.visiting[s] = true
	defer delete(l.visiting, s)

	if raw, ok := s.Extensions[ExtensionKey]; ok {
		l.extension(path, raw)
	}
	for _, ref := range s.AllOf {
		if ref != nil {
			l.schema(path, ref.Value)
		}
	}
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if ref := s.Properties[name]; ref != nil {
			l.schema(append(append([]string{}, path...), "properties."+name), ref.Value)
		}
	}
	if s.Items != nil {
		l.schema(append(append([]string{}, path...), "items"), s.Items.Value)
	}
}

func (l *linter) extension(path []string, raw any) {
	ext, ok := raw.(map[string]any)
	if !ok {
		l.report(path, "%s must be an object, found %T", ExtensionKey, raw)
		return
	}
	keys := make([]string, 0, len(ext))
	for key := range ext {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if _, known := extensionKeys[key]; !known {
			l.report(path, "%s.%s is not supported", ExtensionKey, key)
		}
	}

	var def fieldtypes.Definition
	hasType := false
	if value, ok := ext["type"]; ok {
		id, isString := value.(string)
		switch {
		case !isString || strings.TrimSpace(id) == "":
			l.report(path, "%s.type must be a non-empty string", ExtensionKey)
		default:
			if def, hasType = l.types.Get(strings.ToLower(strings.TrimSpace(id))); !hasType {
				l.report(path, "%s.type %q is not a registered field type", ExtensionKey, id)
			}
		}
	}
	if value, ok := ext["step"]; ok {
		if id, isString := value.(string); !isString || strings.TrimSpace(id) == "" {
			l.report(path, "%s.step must be a non-empty string", ExtensionKey)
		}
	}
	if value, ok := ext["order"]; ok {
		if _, numeric := value.(float64); !numeric {
			l.report(path, "%s.order must be a number", ExtensionKey)
		}
	}
	if value, ok := ext["skip"]; ok {
		if _, isBool := value.(bool); !isBool {
			l.report(path, "%s.skip must be a boolean", ExtensionKey)
		}
	}
	if value, ok := ext["settings"]; ok {
		settings, isMap := value.(map[string]any)
		if !isMap {
			l.report(path, "%s.settings must be an object", ExtensionKey)
			return
		}
		if !hasType {
			return
		}
		names := make([]string, 0, len(settings))
		for name := range settings {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if _, known := def.Setting(name); !known {
				l.report(path, "%s.settings.%s is not a setting of %q", ExtensionKey, name, def.ID)
			}
		}
	}
}
