package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/state"
)

// FieldError returns the message for id, or "" when the field has no error.
// Errors only appear after a submit attempt, for visible required fields
// whose value is empty.
func (e *Engine) FieldError(id string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.attempted {
		return ""
	}
	return e.fieldErrorLocked(id, e.visibleLocked())
}

func (e *Engine) fieldErrorLocked(id string, visible map[string]bool) string {
	field, ok := e.index[id]
	if !ok || field.IsGroup() || !field.Required || !visible[id] {
		return ""
	}
	if e.values.Get(id).IsEmpty() {
		return RequiredMessage
	}
	return ""
}

// HasErrors reports whether any visible field, nested groups included, has
// an error. It is always false before the first submit attempt.
func (e *Engine) HasErrors() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.attempted && len(e.invalidLocked()) > 0
}

// Errors returns the current error messages keyed by field id.
func (e *Engine) Errors() map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]string)
	if !e.attempted {
		return out
	}
	visible := e.visibleLocked()
	for _, id := range e.invalidLocked() {
		out[id] = e.fieldErrorLocked(id, visible)
	}
	return out
}

// invalidLocked lists, in tree order, the visible required leaves that are
// empty. Hidden groups hide their whole subtree.
func (e *Engine) invalidLocked() []string {
	visible := e.visibleLocked()
	var ids []string
	_ = schema.Walk(e.form.Fields, func(field schema.FieldSpec, _ []schema.FieldSpec) error {
		if !visible[field.ID] {
			return schema.SkipChildren
		}
		if e.fieldErrorLocked(field.ID, visible) != "" {
			ids = append(ids, field.ID)
		}
		return nil
	})
	return ids
}

// Submit marks a submit attempt. When visible required fields are empty it
// returns a *ValidationError without calling handler. Otherwise handler gets
// the full mapping. On success the form resets to all-empty and its snapshot
// is cleared; on failure state is kept unless WithOptimisticReset was used.
// The handler error is returned wrapped. Changes made while the handler runs
// are kept: the reset is skipped when the mapping moved on since it was
// handed to the handler.
func (e *Engine) Submit(ctx context.Context, handler SubmitHandler) error {
	e.mu.Lock()
	e.attempted = true
	if invalid := e.invalidLocked(); len(invalid) > 0 {
		e.mu.Unlock()
		e.logger.Info("submit blocked by validation", slog.Any("fields", invalid))
		e.notify(Event{Kind: EventSubmitBlocked})
		return &ValidationError{Fields: invalid}
	}
	values := e.values.Clone()
	generation := e.generation
	e.mu.Unlock()

	var err error
	if handler != nil {
		err = handler(ctx, values)
	}

	if err != nil {
		e.logger.Warn("submit handler failed", slog.Any("error", err))
		e.notify(Event{Kind: EventSubmitFailed})
		if e.optimistic {
			e.reset(ctx, generation)
		}
		return fmt.Errorf("engine: submit: %w", err)
	}

	e.notify(Event{Kind: EventSubmitted})
	e.reset(ctx, generation)
	return nil
}

// reset restores the all-empty mapping, clears the attempt flag and deletes
// the snapshot, unless values changed after generation was captured.
func (e *Engine) reset(ctx context.Context, generation uint64) {
	e.mu.Lock()
	if e.generation != generation {
		e.mu.Unlock()
		e.logger.Warn("form changed during submit, keeping edits",
			slog.Uint64("captured", generation))
		return
	}
	e.values = state.NewValues(e.leafIDs)
	e.generation++
	e.attempted = false
	e.restored = false
	if e.bridge != nil {
		if err := e.bridge.Clear(ctx, e.form.FormID); err != nil {
			e.logger.Warn("failed to clear form snapshot", slog.Any("error", err))
		}
	}
	e.mu.Unlock()

	e.notify(Event{Kind: EventReset})
}
