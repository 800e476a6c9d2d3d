package engine

// EventKind classifies engine notifications.
type EventKind string

const (
	EventValuesChanged  EventKind = "values_changed"
	EventOptionsLoading EventKind = "options_loading"
	EventOptionsLoaded  EventKind = "options_loaded"
	EventSubmitBlocked  EventKind = "submit_blocked"
	EventSubmitted      EventKind = "submitted"
	EventSubmitFailed   EventKind = "submit_failed"
	EventReset          EventKind = "reset"
)

// Event describes a state transition. FieldID is set for per-field events.
type Event struct {
	Kind    EventKind
	FieldID string
}

// Observer is called synchronously, outside the engine lock, from the
// goroutine that caused the transition. Observers may call back into the
// engine.
type Observer func(Event)

func (e *Engine) notify(events ...Event) {
	for _, ev := range events {
		for _, fn := range e.observers {
			fn(ev)
		}
	}
}
