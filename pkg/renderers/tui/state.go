package tui

import (
	"github.com/goliatone/go-formflow/pkg/visibility"
)

// State tracks collected values and server-provided errors keyed by field
// name, together with the rule program evaluated against them. Every answer
// goes through Set so the next prompt sees the refreshed result.
type State struct {
	program visibility.Program
	extras  map[string]any
	values  map[string]any
	errors  map[string][]string
	result  visibility.Result
}

// NewState seeds the state with prefilled values and errors and runs the
// program once.
func NewState(program visibility.Program, prefill map[string]any, errs map[string][]string, extras map[string]any) *State {
	s := &State{
		program: program,
		extras:  extras,
		values:  cloneValues(prefill),
		errors:  cloneErrors(errs),
	}
	s.Refresh()
	return s
}

// Values returns the current value map (mutable).
func (s *State) Values() map[string]any {
	if s == nil {
		return nil
	}
	return s.values
}

// Result returns the latest evaluation.
func (s *State) Result() visibility.Result {
	return s.result
}

// ErrorsFor returns the errors attached to a field name.
func (s *State) ErrorsFor(name string) []string {
	if s == nil || len(s.errors) == 0 {
		return nil
	}
	return s.errors[name]
}

// Get returns the value collected for name.
func (s *State) Get(name string) (any, bool) {
	value, ok := s.values[name]
	return value, ok
}

// Set stores value under name, drops stale errors for it and re-evaluates
// the rules.
func (s *State) Set(name string, value any) {
	if name == "" {
		return
	}
	s.values[name] = value
	delete(s.errors, name)
	s.Refresh()
}

// Refresh re-runs the program and applies computed values.
func (s *State) Refresh() {
	s.result = s.program.Run(s.values, s.extras)
	for key, value := range s.result.Values {
		s.values[key] = value
	}
}

// Submission returns a copy of the values with hidden fields removed.
func (s *State) Submission() map[string]any {
	out := make(map[string]any, len(s.values))
	for key, value := range s.values {
		if s.result.FieldHidden(key) {
			continue
		}
		out[key] = deepCopy(value)
	}
	return out
}

func cloneValues(src map[string]any) map[string]any {
	if len(src) == 0 {
		return make(map[string]any)
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = deepCopy(v)
	}
	return out
}

func cloneErrors(src map[string][]string) map[string][]string {
	if len(src) == 0 {
		return make(map[string][]string)
	}
	out := make(map[string][]string, len(src))
	for k, v := range src {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func deepCopy(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		clone := make(map[string]any, len(typed))
		for k, v := range typed {
			clone[k] = deepCopy(v)
		}
		return clone
	case []any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = deepCopy(v)
		}
		return clone
	default:
		return typed
	}
}
