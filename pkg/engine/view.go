package engine

import (
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/state"
)

// FormView is a renderer-facing snapshot of the visible form.
type FormView struct {
	FormID      string
	Title       string
	Description string
	Submitted   bool
	HasErrors   bool
	Fields      []FieldView
}

// FieldView is one visible node. Groups carry Children; leaves carry the
// value, choices and status flags.
type FieldView struct {
	ID          string
	Label       string
	Kind        schema.Kind
	Required    bool
	HelperText  string
	Value       state.Value
	Options     []string
	Loading     bool
	Disabled    bool
	Placeholder string
	Error       string
	Min         *float64
	Max         *float64
	Pattern     string
	Depth       int
	Children    []FieldView
}

// IsGroup reports whether the view is a group heading.
func (v FieldView) IsGroup() bool { return v.Kind.IsGroup() }

// Selected reports whether option is part of the current value.
func (v FieldView) Selected(option string) bool { return v.Value.Contains(option) }

// View builds the tree of visible fields in declaration order.
func (e *Engine) View() FormView {
	e.mu.Lock()
	defer e.mu.Unlock()

	visible := e.visibleLocked()
	view := FormView{
		FormID:      e.form.FormID,
		Title:       e.form.Title,
		Description: e.form.Description,
		Submitted:   e.attempted,
		HasErrors:   e.attempted && len(e.invalidLocked()) > 0,
	}
	view.Fields = e.viewFieldsLocked(e.form.Fields, visible, 0)
	return view
}

func (e *Engine) viewFieldsLocked(fields []schema.FieldSpec, visible map[string]bool, depth int) []FieldView {
	out := make([]FieldView, 0, len(fields))
	for _, field := range fields {
		if !visible[field.ID] {
			continue
		}
		fv := FieldView{
			ID:         field.ID,
			Label:      field.Label,
			Kind:       field.Kind,
			Required:   field.Required,
			HelperText: field.HelperText,
			Depth:      depth,
		}
		if field.IsGroup() {
			fv.Children = e.viewFieldsLocked(field.Children, visible, depth+1)
			out = append(out, fv)
			continue
		}

		fv.Value = e.values.Get(field.ID)
		fv.Options = e.optionsLocked(field.ID)
		if e.loading[field.ID] {
			fv.Loading = true
			fv.Disabled = true
			fv.Placeholder = LoadingMessage
		}
		if e.attempted {
			fv.Error = e.fieldErrorLocked(field.ID, visible)
		}
		if field.Validation != nil {
			fv.Min = field.Validation.Min
			fv.Max = field.Validation.Max
			fv.Pattern = field.Validation.Pattern
		}
		out = append(out, fv)
	}
	return out
}

// Flatten lists the views depth-first, groups before their children.
func (v FormView) Flatten() []FieldView {
	var out []FieldView
	var walk func([]FieldView)
	walk = func(fields []FieldView) {
		for _, f := range fields {
			out = append(out, f)
			walk(f.Children)
		}
	}
	walk(v.Fields)
	return out
}

// Field finds a visible field by id.
func (v FormView) Field(id string) (FieldView, bool) {
	for _, f := range v.Flatten() {
		if f.ID == id {
			return f, true
		}
	}
	return FieldView{}, false
}
