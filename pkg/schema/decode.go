package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format identifies a serialization of a schema document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrEmptyDocument is returned when decoding a blank payload.
var ErrEmptyDocument = errors.New("schema: document is empty")

// DetectFormat guesses the serialization from the first significant byte.
func DetectFormat(raw []byte) Format {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return FormatJSON
	}
	return FormatYAML
}

// Decode parses a JSON or YAML schema document. Unknown keys outside of
// settings maps are rejected so typos surface at the boundary instead of
// being silently dropped.
func Decode(raw []byte) (Schema, error) {
	return DecodeFormat(raw, DetectFormat(raw))
}

// DecodeFormat parses raw using the provided format.
func DecodeFormat(raw []byte, format Format) (Schema, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Schema{}, ErrEmptyDocument
	}

	payload := raw
	if format == FormatYAML {
		converted, err := yamlToJSON(raw)
		if err != nil {
			return Schema{}, err
		}
		payload = converted
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	var out Schema
	if err := dec.Decode(&out); err != nil {
		return Schema{}, fmt.Errorf("schema: decode %s: %w", format, err)
	}
	if dec.More() {
		return Schema{}, fmt.Errorf("schema: decode %s: trailing data after document", format)
	}
	return Normalize(out), nil
}

// Encode serializes the schema in the requested format.
func Encode(s Schema, format Format) ([]byte, error) {
	payload, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("schema: encode: %w", err)
	}
	if format != FormatYAML {
		return payload, nil
	}
	var generic any
	if err := json.Unmarshal(payload, &generic); err != nil {
		return nil, fmt.Errorf("schema: encode: %w", err)
	}
	out, err := yaml.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("schema: encode yaml: %w", err)
	}
	return out, nil
}

// Normalize trims identifiers, lower-cases type ids and replaces nil field
// slices with empty ones. It never drops authored content.
func Normalize(s Schema) Schema {
	out := s.Clone()
	for idx := range out.Steps {
		step := &out.Steps[idx]
		step.ID = strings.TrimSpace(step.ID)
		if step.Fields == nil {
			step.Fields = []Field{}
		}
		step.Fields = normalizeFields(step.Fields)
		step.Conditions = normalizeRules(step.Conditions)
	}
	return out
}

func normalizeFields(fields []Field) []Field {
	for idx := range fields {
		field := &fields[idx]
		field.Type = strings.ToLower(strings.TrimSpace(field.Type))
		field.Name = strings.TrimSpace(field.Name)
		field.Conditions = normalizeRules(field.Conditions)
		if len(field.Children) > 0 {
			field.Children = normalizeFields(field.Children)
		}
	}
	return fields
}

func normalizeRules(rules []Rule) []Rule {
	for idx := range rules {
		rules[idx].When = strings.TrimSpace(rules[idx].When)
		rules[idx].Action = Action(strings.ToLower(strings.TrimSpace(string(rules[idx].Action))))
	}
	return rules
}

func yamlToJSON(raw []byte) ([]byte, error) {
	var generic any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("schema: decode yaml: %w", err)
	}
	converted, err := stringKeys(generic)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(converted)
	if err != nil {
		return nil, fmt.Errorf("schema: convert yaml: %w", err)
	}
	return payload, nil
}

func stringKeys(value any) (any, error) {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			converted, err := stringKeys(item)
			if err != nil {
				return nil, err
			}
			out[key] = converted
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			name, ok := key.(string)
			if !ok {
				return nil, fmt.Errorf("schema: decode yaml: non-string key %v", key)
			}
			converted, err := stringKeys(item)
			if err != nil {
				return nil, err
			}
			out[name] = converted
		}
		return out, nil
	case []any:
		out := make([]any, len(typed))
		for idx, item := range typed {
			converted, err := stringKeys(item)
			if err != nil {
				return nil, err
			}
			out[idx] = converted
		}
		return out, nil
	default:
		return value, nil
	}
}
