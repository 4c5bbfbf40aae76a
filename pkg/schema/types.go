package schema

import (
	"encoding/json"
	"strings"
)

// Defaults applied to a freshly seeded form.
const (
	DefaultStepID         = "step-1"
	DefaultStepTitle      = "Step 1"
	DefaultSubmitText     = "Submit"
	DefaultSuccessMessage = "Thank you! Your submission has been received."
	DefaultNextText       = "Next"
	DefaultPreviousText   = "Previous"
)

// Schema is the authored description of a multi-step form.
type Schema struct {
	Version  string       `json:"version,omitempty"`
	Steps    []Step       `json:"steps"`
	Settings FormSettings `json:"settings"`
}

// FormSettings carries form-level copy and presentation toggles.
type FormSettings struct {
	SubmitText     string `json:"submit_text,omitempty"`
	SuccessMessage string `json:"success_message,omitempty"`
	NextText       string `json:"next_text,omitempty"`
	PreviousText   string `json:"previous_text,omitempty"`
	ShowProgress   *bool  `json:"show_progress,omitempty"`
	CSSClass       string `json:"css_class,omitempty"`
}

// Step groups an ordered list of fields shown together.
type Step struct {
	ID          string  `json:"id"`
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	Fields      []Field `json:"fields"`
	Conditions  []Rule  `json:"conditions,omitempty"`
}

// Field is a node in the field tree. Children are only meaningful for
// container types (columns, section, repeater).
type Field struct {
	Type       string   `json:"type"`
	Name       string   `json:"name,omitempty"`
	Settings   Settings `json:"settings,omitempty"`
	Children   []Field  `json:"children,omitempty"`
	Conditions []Rule   `json:"conditions,omitempty"`
}

// Action names the effect a rule applies to its target when its condition
// holds.
type Action string

const (
	ActionShow     Action = "show"
	ActionHide     Action = "hide"
	ActionRequire  Action = "require"
	ActionOptional Action = "optional"
	ActionEnable   Action = "enable"
	ActionDisable  Action = "disable"
	ActionSet      Action = "set"
)

// Valid reports whether the action is one the evaluator understands.
func (a Action) Valid() bool {
	switch a {
	case ActionShow, ActionHide, ActionRequire, ActionOptional, ActionEnable, ActionDisable, ActionSet:
		return true
	default:
		return false
	}
}

// Rule attaches conditional behaviour to a field or step. When is a boolean
// expression over form values, e.g. `service_type == "electric" && moving`.
type Rule struct {
	When   string `json:"when"`
	Action Action `json:"action"`
	Value  any    `json:"value,omitempty"`
}

// Default returns the seed schema used for new forms: one empty step plus the
// default submit and success copy.
func Default() Schema {
	return Schema{
		Version: "1",
		Steps: []Step{
			{ID: DefaultStepID, Title: DefaultStepTitle, Fields: []Field{}},
		},
		Settings: FormSettings{
			SubmitText:     DefaultSubmitText,
			SuccessMessage: DefaultSuccessMessage,
		},
	}
}

// SubmitLabel returns the configured submit text or the default.
func (s FormSettings) SubmitLabel() string {
	return orDefault(s.SubmitText, DefaultSubmitText)
}

// NextLabel returns the configured next-step text or the default.
func (s FormSettings) NextLabel() string {
	return orDefault(s.NextText, DefaultNextText)
}

// PreviousLabel returns the configured previous-step text or the default.
func (s FormSettings) PreviousLabel() string {
	return orDefault(s.PreviousText, DefaultPreviousText)
}

// Success returns the configured success message or the default.
func (s FormSettings) Success() string {
	return orDefault(s.SuccessMessage, DefaultSuccessMessage)
}

// Progress reports whether a progress indicator should be shown. Multi-step
// forms show one unless explicitly disabled.
func (s FormSettings) Progress(steps int) bool {
	if s.ShowProgress != nil {
		return *s.ShowProgress
	}
	return steps > 1
}

// Size returns the length in bytes of the serialized schema.
func (s Schema) Size() (int, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return 0, err
	}
	return len(payload), nil
}

// FieldCount returns the number of fields in the schema including nested
// children.
func (s Schema) FieldCount() int {
	count := 0
	for _, step := range s.Steps {
		Walk(step.Fields, func(Field, int) bool {
			count++
			return true
		})
	}
	return count
}

// Names returns every non-empty field name in document order. Duplicates are
// preserved.
func (s Schema) Names() []string {
	var names []string
	for _, step := range s.Steps {
		Walk(step.Fields, func(f Field, _ int) bool {
			if name := strings.TrimSpace(f.Name); name != "" {
				names = append(names, name)
			}
			return true
		})
	}
	return names
}

// FindField returns the first field with the provided name.
func (s Schema) FindField(name string) (Field, bool) {
	var (
		found Field
		ok    bool
	)
	for _, step := range s.Steps {
		Walk(step.Fields, func(f Field, _ int) bool {
			if f.Name == name {
				found, ok = f, true
				return false
			}
			return true
		})
		if ok {
			break
		}
	}
	return found, ok
}

// Walk visits fields depth-first in document order. depth is zero for the
// provided slice and increases by one per level of children. Returning false
// from fn stops the walk.
func Walk(fields []Field, fn func(field Field, depth int) bool) {
	walk(fields, 0, fn)
}

func walk(fields []Field, depth int, fn func(Field, int) bool) bool {
	for _, field := range fields {
		if !fn(field, depth) {
			return false
		}
		if len(field.Children) > 0 {
			if !walk(field.Children, depth+1, fn) {
				return false
			}
		}
	}
	return true
}

// Clone returns a deep copy of the schema.
func (s Schema) Clone() Schema {
	out := s
	if s.Settings.ShowProgress != nil {
		value := *s.Settings.ShowProgress
		out.Settings.ShowProgress = &value
	}
	if s.Steps != nil {
		out.Steps = make([]Step, len(s.Steps))
		for idx, step := range s.Steps {
			out.Steps[idx] = step.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the step.
func (s Step) Clone() Step {
	out := s
	out.Fields = cloneFields(s.Fields)
	out.Conditions = cloneRules(s.Conditions)
	return out
}

// Clone returns a deep copy of the field and its children.
func (f Field) Clone() Field {
	out := f
	out.Settings = f.Settings.Clone()
	out.Children = cloneFields(f.Children)
	out.Conditions = cloneRules(f.Conditions)
	return out
}

func cloneFields(fields []Field) []Field {
	if fields == nil {
		return nil
	}
	out := make([]Field, len(fields))
	for idx, field := range fields {
		out[idx] = field.Clone()
	}
	return out
}

func cloneRules(rules []Rule) []Rule {
	if rules == nil {
		return nil
	}
	out := make([]Rule, len(rules))
	for idx, rule := range rules {
		rule.Value = deepCopy(rule.Value)
		out[idx] = rule
	}
	return out
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}
