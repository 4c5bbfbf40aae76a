//go:build js && wasm

// Package main exposes the formflow rule evaluator to browsers as a
// WebAssembly module. Build with GOOS=js GOARCH=wasm.
package main

import (
	"syscall/js"
)

func main() {
	js.Global().Set("FormflowCompile", js.FuncOf(formflowCompile))
	js.Global().Set("FormflowRun", js.FuncOf(formflowRun))
	js.Global().Set("FormflowEvaluate", js.FuncOf(formflowEvaluate))
	js.Global().Set("FormflowValidate", js.FuncOf(formflowValidate))

	select {}
}

// FormflowCompile(schemaJSON) -> { result: program } | { error }
func formflowCompile(_ js.Value, args []js.Value) any {
	if len(args) < 1 {
		return makeError("FormflowCompile requires 1 argument: schema")
	}
	return makeResult(compileSchema(args[0].String()))
}

// FormflowRun(programJSON, valuesJSON, extrasJSON?) -> { result } | { error }
func formflowRun(_ js.Value, args []js.Value) any {
	if len(args) < 2 {
		return makeError("FormflowRun requires 2 arguments: program, values")
	}
	extras := ""
	if len(args) > 2 && args[2].Type() == js.TypeString {
		extras = args[2].String()
	}
	return makeResult(runProgram(args[0].String(), args[1].String(), extras))
}

// FormflowEvaluate(schemaJSON, valuesJSON) -> { result } | { error }
func formflowEvaluate(_ js.Value, args []js.Value) any {
	if len(args) < 2 {
		return makeError("FormflowEvaluate requires 2 arguments: schema, values")
	}
	return makeResult(evaluateSchema(args[0].String(), args[1].String()))
}

// FormflowValidate(schemaJSON) -> { result: {valid, errors, warnings} } | { error }
func formflowValidate(_ js.Value, args []js.Value) any {
	if len(args) < 1 {
		return makeError("FormflowValidate requires 1 argument: schema")
	}
	return makeResult(validateSchema(args[0].String()))
}
