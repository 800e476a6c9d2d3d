package schema

import (
	"fmt"
	"strings"
)

// Issue describes a single structural problem found in a form schema.
type Issue struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	if i.Field == "" {
		return i.Message
	}
	return i.Field + ": " + i.Message
}

// ValidationError aggregates the issues that make a schema unusable. It
// unwraps to ErrInvalidSchema.
type ValidationError struct {
	FormID string
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.String())
	}
	return fmt.Sprintf("schema: form %q is invalid: %s", e.FormID, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidSchema }

// Validate enforces the invariants the engine relies on: a form identity,
// non-empty and unique ids across the flattened tree, known kinds, children
// only on groups, and an endpoint on every dynamic option clause.
func Validate(form FormSchema) error {
	var issues []Issue
	if strings.TrimSpace(form.FormID) == "" {
		issues = append(issues, Issue{Message: "formId is required"})
	}

	seen := make(map[string]struct{})
	_ = Walk(form.Fields, func(field FieldSpec, _ []FieldSpec) error {
		id := strings.TrimSpace(field.ID)
		if id == "" {
			issues = append(issues, Issue{Field: field.Label, Message: "id is required"})
		} else if _, dup := seen[id]; dup {
			issues = append(issues, Issue{Field: id, Message: "duplicate id"})
		} else {
			seen[id] = struct{}{}
		}

		if !field.Kind.Valid() {
			issues = append(issues, Issue{Field: id, Message: fmt.Sprintf("unknown type %q", field.Kind)})
		}
		if !field.IsGroup() && len(field.Children) > 0 {
			issues = append(issues, Issue{Field: id, Message: "only groups may declare fields"})
		}
		if field.DynamicOptions != nil && strings.TrimSpace(field.DynamicOptions.Endpoint) == "" {
			issues = append(issues, Issue{Field: id, Message: "dynamicOptions.endpoint is required"})
		}
		return nil
	})

	if len(issues) == 0 {
		return nil
	}
	return &ValidationError{FormID: form.FormID, Issues: issues}
}

// Lint reports suspicious but tolerated constructs: references to unknown or
// group fields, self references, and empty groups. The engine accepts schemas
// with lint findings as-is.
func Lint(form FormSchema) []Issue {
	index := Index(form.Fields)
	var issues []Issue

	checkRef := func(owner, clause, ref string) {
		if ref == "" {
			return
		}
		target, ok := index[ref]
		switch {
		case !ok:
			issues = append(issues, Issue{Field: owner, Message: fmt.Sprintf("%s references unknown field %q", clause, ref)})
		case target.IsGroup():
			issues = append(issues, Issue{Field: owner, Message: fmt.Sprintf("%s references group %q", clause, ref)})
		case ref == owner:
			issues = append(issues, Issue{Field: owner, Message: clause + " references itself"})
		}
	}

	_ = Walk(form.Fields, func(field FieldSpec, _ []FieldSpec) error {
		if field.IsGroup() && len(field.Children) == 0 {
			issues = append(issues, Issue{Field: field.ID, Message: "group has no fields"})
		}
		if field.Visibility != nil && field.Visibility.Expression == "" {
			if field.Visibility.DependsOn == "" {
				issues = append(issues, Issue{Field: field.ID, Message: "visibility.dependsOn is empty"})
			}
			checkRef(field.ID, "visibility.dependsOn", field.Visibility.DependsOn)
		}
		if field.DynamicOptions != nil {
			checkRef(field.ID, "dynamicOptions.dependsOn", field.DynamicOptions.DependsOn)
			if !field.Kind.HasOptions() {
				issues = append(issues, Issue{Field: field.ID, Message: fmt.Sprintf("dynamicOptions on %s field has no effect", field.Kind)})
			}
		}
		return nil
	})
	return issues
}
