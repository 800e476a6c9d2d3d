package engine

import (
	"context"
	"log/slog"

	"github.com/goliatone/go-formengine/pkg/persistence"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/state"
	"github.com/goliatone/go-formengine/pkg/visibility"
)

// OptionsFetcher resolves a dynamic option list for the given dependency
// value. A nil error with a nil slice means "no options".
type OptionsFetcher interface {
	FetchOptions(ctx context.Context, dyn schema.DynamicOptions, value state.Value) ([]string, error)
}

// OptionsFetcherFunc adapts a function into an OptionsFetcher.
type OptionsFetcherFunc func(ctx context.Context, dyn schema.DynamicOptions, value state.Value) ([]string, error)

func (fn OptionsFetcherFunc) FetchOptions(ctx context.Context, dyn schema.DynamicOptions, value state.Value) ([]string, error) {
	return fn(ctx, dyn, value)
}

// SubmitHandler receives the full value mapping, hidden fields included.
type SubmitHandler func(ctx context.Context, values state.Values) error

// Option configures an Engine.
type Option func(*Engine)

// WithFetcher sets the dynamic option source. Without one, dynamic fields
// always have an empty option list.
func WithFetcher(fetcher OptionsFetcher) Option {
	return func(e *Engine) {
		e.fetcher = fetcher
	}
}

// WithPersistence restores from and saves to bridge.
func WithPersistence(bridge *persistence.Bridge) Option {
	return func(e *Engine) {
		e.bridge = bridge
	}
}

// WithResolver replaces the default visibility resolver, typically to add an
// expression evaluator.
func WithResolver(resolver *visibility.Resolver) Option {
	return func(e *Engine) {
		if resolver != nil {
			e.resolver = resolver
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithObserver registers fn to be notified after each state transition.
func WithObserver(fn Observer) Option {
	return func(e *Engine) {
		if fn != nil {
			e.observers = append(e.observers, fn)
		}
	}
}

// WithOptimisticReset resets the form after Submit even when the handler
// fails. By default the reset only happens on success.
func WithOptimisticReset() Option {
	return func(e *Engine) {
		e.optimistic = true
	}
}
