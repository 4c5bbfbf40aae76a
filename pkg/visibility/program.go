package visibility

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-formflow/pkg/schema"
	"github.com/goliatone/go-formflow/pkg/visibility/expr"
)

// Rule target kinds.
const (
	TargetField = "field"
	TargetStep  = "step"
)

// ProgramVersion identifies the program wire format understood by the
// browser runtime.
const ProgramVersion = 1

// CompiledRule is a schema rule with its condition parsed into a node tree.
type CompiledRule struct {
	Target string        `json:"target"`
	Kind   string        `json:"kind"`
	Action schema.Action `json:"action"`
	When   expr.Node     `json:"when"`
	Value  any           `json:"value,omitempty"`
}

// Scope lists every field key nested under a step or container.
type Scope struct {
	Key    string   `json:"key"`
	Fields []string `json:"fields"`
}

// Program is the serialisable rule set evaluated on the server and, from the
// same JSON, in the browser.
type Program struct {
	Version     int            `json:"version"`
	Rules       []CompiledRule `json:"rules"`
	Steps       []Scope        `json:"steps"`
	Containers  []Scope        `json:"containers"`
	Diagnostics []string       `json:"diagnostics,omitempty"`
}

// StepKey returns the key a step is addressed by: its id, or `step-N` for
// steps without one (N is 1-based).
func StepKey(index int, step schema.Step) string {
	if id := strings.TrimSpace(step.ID); id != "" {
		return id
	}
	return "step-" + strconv.Itoa(index+1)
}

// FieldKey returns the key a field node is addressed by: its name, or
// `{stepKey}#{position}` for unnamed nodes such as sections. Position is the
// dotted 1-based path within the step ("2.1").
func FieldKey(stepKey, position string, field schema.Field) string {
	if name := strings.TrimSpace(field.Name); name != "" {
		return name
	}
	return stepKey + "#" + position
}

// ChildPosition extends a dotted position with a 0-based child index.
func ChildPosition(parent string, index int) string {
	if parent == "" {
		return strconv.Itoa(index + 1)
	}
	return parent + "." + strconv.Itoa(index+1)
}

// Compile turns schema rules into a Program. Rules are ordered per step:
// step rules first, then field rules depth-first in document order. Invalid
// rules are dropped and reported in Diagnostics; Compile never fails.
func Compile(s schema.Schema) Program {
	c := &compiler{program: Program{
		Version:    ProgramVersion,
		Rules:      []CompiledRule{},
		Steps:      []Scope{},
		Containers: []Scope{},
	}}

	for idx, step := range s.Steps {
		key := StepKey(idx, step)
		for ruleIdx, rule := range step.Conditions {
			where := fmt.Sprintf("step %q rule %d", key, ruleIdx+1)
			if rule.Action != schema.ActionShow && rule.Action != schema.ActionHide {
				c.diagnose("%s: action %q is not supported on steps", where, rule.Action)
				continue
			}
			c.add(where, TargetStep, key, rule)
		}
		fields := c.fields(key, step.Fields, "")
		c.program.Steps = append(c.program.Steps, Scope{Key: key, Fields: fields})
	}

	return c.program
}

type compiler struct {
	program Program
}

func (c *compiler) diagnose(format string, args ...any) {
	c.program.Diagnostics = append(c.program.Diagnostics, fmt.Sprintf(format, args...))
}

func (c *compiler) add(where, kind, target string, rule schema.Rule) {
	if !rule.Action.Valid() {
		c.diagnose("%s: unknown action %q", where, rule.Action)
		return
	}
	node, err := expr.Compile(rule.When)
	if err != nil {
		c.diagnose("%s: %v", where, err)
		return
	}
	c.program.Rules = append(c.program.Rules, CompiledRule{
		Target: target,
		Kind:   kind,
		Action: rule.Action,
		When:   node,
		Value:  rule.Value,
	})
}

// fields compiles the rules of a field list and returns every key below it.
func (c *compiler) fields(stepKey string, fields []schema.Field, parent string) []string {
	keys := []string{}
	for idx, field := range fields {
		position := ChildPosition(parent, idx)
		key := FieldKey(stepKey, position, field)
		keys = append(keys, key)

		for ruleIdx, rule := range field.Conditions {
			c.add(fmt.Sprintf("field %q rule %d", key, ruleIdx+1), TargetField, key, rule)
		}

		if len(field.Children) == 0 {
			continue
		}
		// Reserve the slot so outer containers precede inner ones.
		slot := len(c.program.Containers)
		c.program.Containers = append(c.program.Containers, Scope{Key: key})
		nested := c.fields(stepKey, field.Children, position)
		c.program.Containers[slot].Fields = nested
		keys = append(keys, nested...)
	}
	return keys
}

// Run interprets the program against values. It never mutates values.
//
//  1. Targets with a show rule start hidden.
//  2. Rules whose condition holds apply in order; later rules override
//     earlier ones for the same target. `set` updates the working values so
//     later conditions observe the computed value.
//  3. Hidden steps and containers hide every field below them.
//  4. Hidden fields are dropped from the required set.
func (p Program) Run(values, extras map[string]any) Result {
	working := make(map[string]any, len(values))
	for key, value := range values {
		working[key] = value
	}
	ctx := Context{Values: working, Extras: extras}

	result := NewResult()
	requirement := make(map[string]schema.Action)

	for _, rule := range p.Rules {
		if rule.Action != schema.ActionShow {
			continue
		}
		if rule.Kind == TargetStep {
			result.HiddenSteps.Add(rule.Target)
		} else {
			result.HiddenFields.Add(rule.Target)
		}
	}

	for _, rule := range p.Rules {
		if !expr.Evaluate(rule.When, ctx) {
			continue
		}
		hidden := result.HiddenFields
		if rule.Kind == TargetStep {
			hidden = result.HiddenSteps
		}
		switch rule.Action {
		case schema.ActionShow:
			delete(hidden, rule.Target)
		case schema.ActionHide:
			hidden.Add(rule.Target)
		case schema.ActionRequire, schema.ActionOptional:
			requirement[rule.Target] = rule.Action
		case schema.ActionEnable:
			delete(result.DisabledFields, rule.Target)
		case schema.ActionDisable:
			result.DisabledFields.Add(rule.Target)
		case schema.ActionSet:
			working[rule.Target] = rule.Value
			result.Values[rule.Target] = rule.Value
		}
	}

	for _, step := range p.Steps {
		if result.HiddenSteps.Has(step.Key) {
			for _, key := range step.Fields {
				result.HiddenFields.Add(key)
			}
		}
	}
	for _, container := range p.Containers {
		if result.HiddenFields.Has(container.Key) {
			for _, key := range container.Fields {
				result.HiddenFields.Add(key)
			}
		}
	}

	for key, action := range requirement {
		if action == schema.ActionOptional {
			result.OptionalFields.Add(key)
			continue
		}
		if !result.HiddenFields.Has(key) {
			result.RequiredFields.Add(key)
		}
	}

	return result
}

// Evaluate compiles s and runs it against values.
func Evaluate(s schema.Schema, values map[string]any) Result {
	return Compile(s).Run(values, nil)
}
