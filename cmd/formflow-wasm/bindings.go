package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/goliatone/go-formflow/pkg/schema"
	"github.com/goliatone/go-formflow/pkg/validation"
	"github.com/goliatone/go-formflow/pkg/visibility"
)

// compileSchema decodes a schema document and returns its rule program.
func compileSchema(document string) (any, error) {
	form, err := schema.Decode([]byte(document))
	if err != nil {
		return nil, err
	}
	return toJSValue(visibility.Compile(form))
}

// runProgram interprets a compiled program against values and extras.
func runProgram(programJSON, valuesJSON, extrasJSON string) (any, error) {
	var program visibility.Program
	if err := json.Unmarshal([]byte(programJSON), &program); err != nil {
		return nil, fmt.Errorf("decode program: %w", err)
	}
	if program.Version != visibility.ProgramVersion {
		return nil, fmt.Errorf("unsupported program version %d", program.Version)
	}
	values, err := decodeObject(valuesJSON)
	if err != nil {
		return nil, fmt.Errorf("decode values: %w", err)
	}
	extras, err := decodeObject(extrasJSON)
	if err != nil {
		return nil, fmt.Errorf("decode extras: %w", err)
	}
	return toJSValue(program.Run(values, extras))
}

// evaluateSchema compiles and runs in one call.
func evaluateSchema(document, valuesJSON string) (any, error) {
	form, err := schema.Decode([]byte(document))
	if err != nil {
		return nil, err
	}
	values, err := decodeObject(valuesJSON)
	if err != nil {
		return nil, fmt.Errorf("decode values: %w", err)
	}
	return toJSValue(visibility.Evaluate(form, values))
}

// validateSchema runs the structural validator with default limits.
func validateSchema(document string) (any, error) {
	form, err := schema.Decode([]byte(document))
	if err != nil {
		return nil, err
	}
	return toJSValue(validation.Validate(form))
}

func decodeObject(raw string) (map[string]any, error) {
	if raw == "" || raw == "null" || raw == "undefined" {
		return map[string]any{}, nil
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, errors.New("expected a JSON object")
	}
	return out, nil
}

// toJSValue round-trips through JSON so the value only holds the types
// syscall/js can convert.
func toJSValue(value any) (any, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func makeError(msg string) map[string]any {
	return map[string]any{"error": msg}
}

func makeResult(value any, err error) map[string]any {
	if err != nil {
		return makeError(err.Error())
	}
	return map[string]any{"result": value}
}
