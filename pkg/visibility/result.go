package visibility

import (
	"encoding/json"
	"sort"
)

// Set is an unordered collection of keys that serialises as a sorted array.
type Set map[string]struct{}

// NewSet returns a set holding keys.
func NewSet(keys ...string) Set {
	s := make(Set, len(keys))
	for _, key := range keys {
		s[key] = struct{}{}
	}
	return s
}

// Add inserts key.
func (s Set) Add(key string) {
	s[key] = struct{}{}
}

// Has reports whether key is present. A nil set holds nothing.
func (s Set) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Sorted returns the keys in ascending order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for key := range s {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON encodes the set as a sorted array.
func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes an array of keys.
func (s *Set) UnmarshalJSON(data []byte) error {
	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	*s = NewSet(keys...)
	return nil
}

// Result is the outcome of one evaluation pass.
type Result struct {
	HiddenFields   Set            `json:"hidden_fields"`
	HiddenSteps    Set            `json:"hidden_steps"`
	RequiredFields Set            `json:"required_fields"`
	OptionalFields Set            `json:"optional_fields"`
	DisabledFields Set            `json:"disabled_fields"`
	Values         map[string]any `json:"values"`
}

// NewResult returns an empty result with every collection initialised.
func NewResult() Result {
	return Result{
		HiddenFields:   Set{},
		HiddenSteps:    Set{},
		RequiredFields: Set{},
		OptionalFields: Set{},
		DisabledFields: Set{},
		Values:         map[string]any{},
	}
}

// FieldHidden reports whether the field key is hidden.
func (r Result) FieldHidden(key string) bool {
	return r.HiddenFields.Has(key)
}

// StepHidden reports whether the step key is hidden.
func (r Result) StepHidden(key string) bool {
	return r.HiddenSteps.Has(key)
}

// EffectiveRequired combines the static required flag of a field with the
// dynamic sets: optional wins over static, hidden wins over everything.
func (r Result) EffectiveRequired(key string, static bool) bool {
	if r.HiddenFields.Has(key) {
		return false
	}
	if r.OptionalFields.Has(key) {
		return false
	}
	return static || r.RequiredFields.Has(key)
}

// Disabled reports whether the field key is inert for this pass.
func (r Result) Disabled(key string) bool {
	return r.DisabledFields.Has(key)
}

// Value returns the computed value for key, if any rule set one.
func (r Result) Value(key string) (any, bool) {
	v, ok := r.Values[key]
	return v, ok
}
