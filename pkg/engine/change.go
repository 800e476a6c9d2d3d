package engine

import (
	"context"
	"log/slog"

	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/state"
)

// HandleChange sets id to value. Every field whose dynamic options depend on
// id is reset to empty in the same update and gets one option fetch with the
// new value. Only direct dependents are affected.
func (e *Engine) HandleChange(ctx context.Context, id string, value state.Value) error {
	field, err := e.leaf(id)
	if err != nil {
		return err
	}
	value = coerce(field, value)

	e.mu.Lock()
	next := e.values.With(id, value)
	dependents := schema.Dependents(e.form.Fields, id)
	for _, dep := range dependents {
		next[dep.ID] = state.Empty()
	}
	e.values = next
	e.generation++
	e.persistLocked(ctx)

	events := []Event{{Kind: EventValuesChanged, FieldID: id}}
	var starts []func()
	for _, dep := range dependents {
		if !dep.IsDynamic() {
			continue
		}
		starts = append(starts, e.startFetchLocked(ctx, dep, value))
		events = append(events, Event{Kind: EventOptionsLoading, FieldID: dep.ID})
	}
	e.mu.Unlock()

	e.logger.Debug("field changed",
		slog.String("field", id),
		slog.Int("dependents", len(dependents)))
	e.notify(events...)
	launch(starts)
	return nil
}

// Toggle flips option in a checkbox field.
func (e *Engine) Toggle(ctx context.Context, id, option string) error {
	if _, err := e.leaf(id); err != nil {
		return err
	}
	return e.HandleChange(ctx, id, e.Value(id).Toggle(option))
}

// coerce keeps checkbox values as lists and every other kind as text.
func coerce(field schema.FieldSpec, value state.Value) state.Value {
	if field.Kind.IsMulti() {
		if value.IsList() {
			return value
		}
		return state.List(value.Items()...)
	}
	if value.IsList() {
		return state.Text(value.Text())
	}
	return value
}
