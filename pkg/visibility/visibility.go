package visibility

import "github.com/goliatone/go-formflow/pkg/visibility/expr"

// Evaluator determines whether a single rule holds for a field given the
// current values and optional caller extras.
type Evaluator interface {
	Eval(fieldPath, rule string, ctx Context) (bool, error)
}

// Context provides inputs to an Evaluator. Values typically comes from the
// submitted or prefilled form values while Extras allows callers to inject
// arbitrary context such as user roles or feature flags.
type Context = expr.Context

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(fieldPath, rule string, ctx Context) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(fieldPath, rule string, ctx Context) (bool, error) {
	return fn(fieldPath, rule, ctx)
}

var _ Evaluator = (*expr.Evaluator)(nil)
