package visibility

import (
	"log/slog"

	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/state"
)

// Resolver evaluates field clauses, delegating expression rules to an
// optional Evaluator.
type Resolver struct {
	expressions Evaluator
	extras      map[string]any
	logger      *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithExpressionEvaluator enables clause expressions. Without one, clauses
// that only carry an expression are visible.
func WithExpressionEvaluator(e Evaluator) Option {
	return func(r *Resolver) {
		r.expressions = e
	}
}

// WithExtras exposes host data to expressions under the extras namespace.
func WithExtras(extras map[string]any) Option {
	return func(r *Resolver) {
		r.extras = extras
	}
}

// WithLogger sets the logger used for expression failures.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver builds a Resolver.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// FieldVisible evaluates the field's own clause, ignoring ancestors. A failing
// expression is logged and treated as visible.
func (r *Resolver) FieldVisible(field schema.FieldSpec, values state.Values) bool {
	clause := field.Visibility
	if clause == nil {
		return true
	}
	if clause.Expression != "" {
		if r.expressions == nil {
			return true
		}
		ok, err := r.expressions.Eval(field.ID, clause.Expression, Context{Values: values.Map(), Extras: r.extras})
		if err != nil {
			r.logger.Warn("visibility expression failed",
				slog.String("field", field.ID),
				slog.String("expression", clause.Expression),
				slog.Any("error", err))
			return true
		}
		return ok
	}
	return ClauseVisible(clause, values)
}

// Visible returns the ids of every node (groups included) whose own clause
// and every ancestor clause pass.
func (r *Resolver) Visible(fields []schema.FieldSpec, values state.Values) map[string]bool {
	out := make(map[string]bool)
	_ = schema.Walk(fields, func(field schema.FieldSpec, _ []schema.FieldSpec) error {
		if !r.FieldVisible(field, values) {
			return schema.SkipChildren
		}
		out[field.ID] = true
		return nil
	})
	return out
}
