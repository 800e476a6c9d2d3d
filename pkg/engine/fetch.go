package engine

import (
	"context"
	"log/slog"

	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/state"
)

// startFetchLocked registers a fetch for field with the given dependency
// value: the field is marked loading, its cached options are dropped and a
// new token supersedes any fetch still in flight. The returned func starts
// the request; callers invoke it after releasing e.mu and notifying
// observers so events keep their causal order.
func (e *Engine) startFetchLocked(ctx context.Context, field schema.FieldSpec, dependency state.Value) func() {
	e.tokens[field.ID]++
	token := e.tokens[field.ID]
	e.loading[field.ID] = true
	delete(e.options, field.ID)

	dyn := *field.DynamicOptions
	fetchCtx := context.WithoutCancel(ctx)

	e.inflight++
	return func() {
		go func() {
			defer e.fetchDone()
			options := e.fetch(fetchCtx, field.ID, dyn, dependency)
			e.settle(field.ID, token, options)
		}()
	}
}

func (e *Engine) fetchDone() {
	e.mu.Lock()
	e.inflight--
	if e.inflight == 0 {
		e.idle.Broadcast()
	}
	e.mu.Unlock()
}

func launch(starts []func()) {
	for _, start := range starts {
		start()
	}
}

func (e *Engine) fetch(ctx context.Context, id string, dyn schema.DynamicOptions, dependency state.Value) []string {
	if e.fetcher == nil {
		e.logger.Warn("no options fetcher configured", slog.String("field", id))
		return []string{}
	}
	options, err := e.fetcher.FetchOptions(ctx, dyn, dependency)
	if err != nil {
		e.logger.Error("failed to fetch dynamic options",
			slog.String("field", id),
			slog.String("endpoint", dyn.Endpoint),
			slog.String("value", dependency.Text()),
			slog.Any("error", err))
		return []string{}
	}
	if options == nil {
		return []string{}
	}
	return options
}

// settle stores options unless a newer fetch for the field was started.
func (e *Engine) settle(id string, token uint64, options []string) {
	e.mu.Lock()
	if e.tokens[id] != token {
		e.mu.Unlock()
		e.logger.Debug("discarding stale options",
			slog.String("field", id),
			slog.Uint64("token", token))
		return
	}
	e.options[id] = options
	e.loading[id] = false
	e.mu.Unlock()

	e.notify(Event{Kind: EventOptionsLoaded, FieldID: id})
}
