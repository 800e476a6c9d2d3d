// Package engine interprets a form schema into live, validated state: it owns
// the value mapping, evaluates visibility, orchestrates dependent option
// fetches and gates submission.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/goliatone/go-formengine/pkg/persistence"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/state"
	"github.com/goliatone/go-formengine/pkg/visibility"
)

// Engine is safe for concurrent use. Every mutation is serialized behind a
// single mutex.
type Engine struct {
	form     schema.FormSchema
	index    map[string]schema.FieldSpec
	leafIDs  []string
	resolver *visibility.Resolver
	fetcher  OptionsFetcher
	bridge   *persistence.Bridge
	logger   *slog.Logger

	observers  []Observer
	optimistic bool

	mu        sync.Mutex
	values    state.Values
	options   map[string][]string
	loading   map[string]bool
	tokens    map[string]uint64
	attempted bool
	restored  bool
	// generation advances with every change to values.
	generation uint64

	// inflight counts started fetches that have not settled; idle is
	// signalled on e.mu when it drops to zero.
	inflight int
	idle     *sync.Cond
}

// New validates form and builds an engine. When persistence is configured a
// non-expired snapshot for the form id is adopted as-is; otherwise every leaf
// starts empty.
func New(ctx context.Context, form schema.FormSchema, opts ...Option) (*Engine, error) {
	if err := schema.Validate(form); err != nil {
		return nil, err
	}

	e := &Engine{
		form:    form.Clone(),
		logger:  slog.Default(),
		options: make(map[string][]string),
		loading: make(map[string]bool),
		tokens:  make(map[string]uint64),
	}
	e.idle = sync.NewCond(&e.mu)
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	if e.resolver == nil {
		e.resolver = visibility.NewResolver(visibility.WithLogger(e.logger))
	}
	e.logger = e.logger.With(slog.String("form", form.FormID))
	e.index = schema.Index(e.form.Fields)
	e.leafIDs = schema.LeafIDs(e.form.Fields)
	e.values = state.NewValues(e.leafIDs)

	if e.bridge != nil {
		snapshot, ok, err := e.bridge.Load(ctx, form.FormID)
		switch {
		case err != nil:
			e.logger.Warn("failed to load form snapshot", slog.Any("error", err))
		case ok:
			e.values = snapshot
			e.restored = true
		}
	}

	if e.restored {
		e.prefetch(ctx)
	}
	return e, nil
}

// prefetch loads options for dynamic fields whose dependency already holds a
// value, so restored selections have choices to render.
func (e *Engine) prefetch(ctx context.Context) {
	e.mu.Lock()
	var (
		events []Event
		starts []func()
	)
	_ = schema.Walk(e.form.Fields, func(field schema.FieldSpec, _ []schema.FieldSpec) error {
		if !field.IsDynamic() {
			return nil
		}
		dependency := e.values.Get(field.DynamicOptions.DependsOn)
		if dependency.IsEmpty() {
			return nil
		}
		starts = append(starts, e.startFetchLocked(ctx, field, dependency))
		events = append(events, Event{Kind: EventOptionsLoading, FieldID: field.ID})
		return nil
	})
	e.mu.Unlock()
	e.notify(events...)
	launch(starts)
}

// Form returns a copy of the schema the engine was built with.
func (e *Engine) Form() schema.FormSchema { return e.form.Clone() }

// Restored reports whether the initial values came from a snapshot.
func (e *Engine) Restored() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.restored
}

// Values returns a copy of the current value mapping.
func (e *Engine) Values() state.Values {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.values.Clone()
}

// Value returns the current value of id.
func (e *Engine) Value(id string) state.Value {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.values.Get(id)
}

// Options returns the choices for id: the fetched list for dynamic fields
// (empty until a fetch completes) or the static options.
func (e *Engine) Options(id string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.optionsLocked(id)
}

func (e *Engine) optionsLocked(id string) []string {
	field, ok := e.index[id]
	if !ok {
		return nil
	}
	if field.DynamicOptions != nil {
		return slices.Clone(e.options[id])
	}
	return slices.Clone(field.Options)
}

// Loading reports whether an option fetch for id is in flight.
func (e *Engine) Loading(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loading[id]
}

// Submitted reports whether a submit was attempted since the last reset.
func (e *Engine) Submitted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.attempted
}

// IsFieldVisible reports whether the node id is rendered: its own clause and
// every ancestor group clause must pass. Unknown ids are not visible.
func (e *Engine) IsFieldVisible(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.visibleLocked()[id]
}

func (e *Engine) visibleLocked() map[string]bool {
	return e.resolver.Visible(e.form.Fields, e.values)
}

// Wait blocks until every in-flight option fetch has settled.
func (e *Engine) Wait() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for e.inflight > 0 {
		e.idle.Wait()
	}
}

func (e *Engine) leaf(id string) (schema.FieldSpec, error) {
	field, ok := e.index[id]
	if !ok || field.IsGroup() {
		return schema.FieldSpec{}, fmt.Errorf("%w: %q", ErrUnknownField, id)
	}
	return field, nil
}

// persistLocked saves the current mapping. Store failures are logged only.
func (e *Engine) persistLocked(ctx context.Context) {
	if e.bridge == nil {
		return
	}
	if err := e.bridge.Save(ctx, e.form.FormID, e.values); err != nil {
		e.logger.Warn("failed to save form snapshot", slog.Any("error", err))
	}
}
