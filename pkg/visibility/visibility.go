// Package visibility decides whether a field is rendered given the current
// value mapping.
package visibility

// Evaluator determines whether a field should be visible based on a rule
// string and the current values.
type Evaluator interface {
	Eval(fieldID, rule string, ctx Context) (bool, error)
}

// Context provides inputs to an Evaluator. Values holds the form mapping as
// plain Go values (string or []string); Extras carries host supplied data
// such as feature flags.
type Context struct {
	Values map[string]any
	Extras map[string]any
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(fieldID, rule string, ctx Context) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(fieldID, rule string, ctx Context) (bool, error) {
	return fn(fieldID, rule, ctx)
}
