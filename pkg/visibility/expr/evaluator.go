// Package expr evaluates visibility expressions with expr-lang.
//
// Expressions see every field id as a variable holding its current value
// (string, or []string for checkbox fields) plus an `extras` map. The result
// must be boolean:
//
//	gender == "Female" && int(age) > 18
//	"Fire" in coverage
package expr

import (
	"fmt"
	"maps"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/goliatone/go-formengine/pkg/visibility"
)

// Evaluator compiles expressions once and caches the programs by source.
type Evaluator struct {
	mu       sync.RWMutex
	programs map[string]*vm.Program
}

var _ visibility.Evaluator = (*Evaluator)(nil)

func New() *Evaluator {
	return &Evaluator{programs: make(map[string]*vm.Program)}
}

// Eval runs rule against the values in ctx.
func (e *Evaluator) Eval(fieldID, rule string, ctx visibility.Context) (bool, error) {
	program, err := e.compile(rule)
	if err != nil {
		return false, fmt.Errorf("visibility/expr: field %q: %w", fieldID, err)
	}

	out, err := expr.Run(program, environment(ctx))
	if err != nil {
		return false, fmt.Errorf("visibility/expr: field %q: %w", fieldID, err)
	}
	ok, isBool := out.(bool)
	if !isBool {
		return false, fmt.Errorf("visibility/expr: field %q: expression returned %T", fieldID, out)
	}
	return ok, nil
}

func (e *Evaluator) compile(rule string) (*vm.Program, error) {
	e.mu.RLock()
	program, ok := e.programs[rule]
	e.mu.RUnlock()
	if ok {
		return program, nil
	}

	// Undefined identifiers resolve to nil so rules may reference fields
	// missing from older snapshots.
	program, err := expr.Compile(rule, expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.programs[rule] = program
	e.mu.Unlock()
	return program, nil
}

func environment(ctx visibility.Context) map[string]any {
	env := make(map[string]any, len(ctx.Values)+1)
	maps.Copy(env, ctx.Values)
	extras := ctx.Extras
	if extras == nil {
		extras = map[string]any{}
	}
	env["extras"] = extras
	return env
}
