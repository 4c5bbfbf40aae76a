package fieldtypes

import (
	"strings"
	"sync"

	"github.com/goliatone/go-formflow/pkg/schema"
)

// Category groups field types in the builder palette.
type Category string

// Built-in categories, in palette order.
const (
	CategoryBasic     Category = "basic"
	CategorySelection Category = "selection"
	CategoryAdvanced  Category = "advanced"
	CategoryAddress   Category = "address"
	CategoryUtility   Category = "utility"
	CategoryLayout    Category = "layout"
)

// Categories lists the built-in categories in palette order.
func Categories() []Category {
	return []Category{
		CategoryBasic,
		CategorySelection,
		CategoryAdvanced,
		CategoryAddress,
		CategoryUtility,
		CategoryLayout,
	}
}

// SettingKind selects the editor control for a setting and how its value is
// coerced.
type SettingKind string

const (
	KindText     SettingKind = "text"
	KindTextarea SettingKind = "textarea"
	KindNumber   SettingKind = "number"
	KindCheckbox SettingKind = "checkbox"
	KindSelect   SettingKind = "select"
	KindOptions  SettingKind = "options"
	KindWysiwyg  SettingKind = "wysiwyg"
)

// SettingDefinition describes one configurable setting of a field type.
type SettingDefinition struct {
	Name    string      `json:"name"`
	Label   string      `json:"label"`
	Kind    SettingKind `json:"kind"`
	Default any         `json:"default,omitempty"`
	// Options enumerates allowed values for KindSelect settings.
	Options []string `json:"options,omitempty"`
}

// Definition describes a field type available in the builder.
type Definition struct {
	ID        string              `json:"id"`
	Label     string              `json:"label"`
	Icon      string              `json:"icon"`
	Category  Category            `json:"category"`
	Container bool                `json:"container"`
	Settings  []SettingDefinition `json:"settings"`
}

// Setting looks up a setting definition by name.
func (d Definition) Setting(name string) (SettingDefinition, bool) {
	for _, setting := range d.Settings {
		if setting.Name == name {
			return setting, true
		}
	}
	return SettingDefinition{}, false
}

// Defaults returns the default value of every setting that declares one.
func (d Definition) Defaults() schema.Settings {
	out := make(schema.Settings, len(d.Settings))
	for _, setting := range d.Settings {
		if setting.Default != nil {
			out[setting.Name] = setting.Default
		}
	}
	return out
}

// IsLayout reports whether the type is a non-input layout type.
func (d Definition) IsLayout() bool {
	return d.Category == CategoryLayout
}

// Registry maps field type ids to definitions. Registration order is kept so
// palette listings are stable. Safe for concurrent use; callers typically
// populate it once at startup and only read afterwards.
type Registry struct {
	mu    sync.RWMutex
	defs  map[string]Definition
	order []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]Definition)}
}

// NewDefaultRegistry returns a registry holding the built-in catalog.
func NewDefaultRegistry() *Registry {
	reg := NewRegistry()
	reg.registerBuiltins()
	return reg
}

// Register adds or replaces a definition. The last registration for an id
// wins and keeps the palette position of the first. Blank ids are ignored.
func (r *Registry) Register(id string, def Definition) {
	if r == nil {
		return
	}
	id = normalize(id)
	if id == "" {
		return
	}
	def.ID = id
	def.Settings = append([]SettingDefinition(nil), def.Settings...)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.defs[id]; !exists {
		r.order = append(r.order, id)
	}
	r.defs[id] = def
}

// Get returns the definition for id.
func (r *Registry) Get(id string) (Definition, bool) {
	if r == nil {
		return Definition{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[normalize(id)]
	if !ok {
		return Definition{}, false
	}
	def.Settings = append([]SettingDefinition(nil), def.Settings...)
	return def, true
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.Get(id)
	return ok
}

// IDs returns registered ids in registration order.
func (r *Registry) IDs() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// ListByCategory groups definitions by category. Every built-in category is
// present even when empty; categories introduced by extensions are added as
// extra keys. Entries keep registration order.
func (r *Registry) ListByCategory() map[Category][]Definition {
	out := make(map[Category][]Definition, len(Categories()))
	for _, category := range Categories() {
		out[category] = []Definition{}
	}
	if r == nil {
		return out
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		def := r.defs[id]
		def.Settings = append([]SettingDefinition(nil), def.Settings...)
		out[def.Category] = append(out[def.Category], def)
	}
	return out
}

// IsContainer reports whether the type accepts children.
func (r *Registry) IsContainer(id string) bool {
	if def, ok := r.Get(id); ok {
		return def.Container
	}
	return false
}

// IsLayout reports whether the type is exempt from the name requirement.
// Unregistered ids fall back to the built-in layout list.
func (r *Registry) IsLayout(id string) bool {
	if def, ok := r.Get(id); ok {
		return def.IsLayout()
	}
	return IsLayoutType(id)
}

// IsLayoutContainer reports whether the type is a layout container that
// counts towards nesting depth (columns, section).
func (r *Registry) IsLayoutContainer(id string) bool {
	if def, ok := r.Get(id); ok {
		return def.IsLayout() && def.Container
	}
	id = normalize(id)
	return id == TypeColumns || id == TypeSection
}

// ResolveSettings returns raw overlaid on the type defaults with each known
// setting coerced to its declared kind. Unknown settings pass through; an
// unknown type returns a copy of raw.
func (r *Registry) ResolveSettings(id string, raw schema.Settings) schema.Settings {
	def, ok := r.Get(id)
	if !ok {
		if raw == nil {
			return schema.Settings{}
		}
		return raw.Clone()
	}

	out := def.Defaults()
	for key, value := range raw {
		if value == nil {
			continue
		}
		setting, known := def.Setting(key)
		if !known {
			out[key] = value
			continue
		}
		out[key] = coerce(setting, value)
	}
	return out
}

func coerce(setting SettingDefinition, value any) any {
	switch setting.Kind {
	case KindNumber:
		if f, ok := schema.ToFloat(value); ok {
			return f
		}
		if s, isString := value.(string); isString && strings.TrimSpace(s) == "" {
			return setting.Default
		}
		return value
	case KindCheckbox:
		if b, ok := schema.ToBool(value); ok {
			return b
		}
		return value
	case KindSelect:
		str := schema.ToString(value)
		if len(setting.Options) == 0 {
			return str
		}
		for _, allowed := range setting.Options {
			if allowed == str {
				return str
			}
		}
		return setting.Default
	default:
		return value
	}
}

func normalize(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
