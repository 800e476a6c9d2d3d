package schema

import "errors"

// SkipChildren can be returned by a WalkFunc to skip the children of the
// current group without aborting the walk.
var SkipChildren = errors.New("schema: skip children")

// WalkFunc is invoked for every node in pre-order. Parents lists the ancestor
// groups of field, outermost first.
type WalkFunc func(field FieldSpec, parents []FieldSpec) error

// Walk visits fields depth-first in declaration order.
func Walk(fields []FieldSpec, fn WalkFunc) error {
	return walk(fields, nil, fn)
}

func walk(fields []FieldSpec, parents []FieldSpec, fn WalkFunc) error {
	for _, field := range fields {
		err := fn(field, parents)
		if errors.Is(err, SkipChildren) {
			continue
		}
		if err != nil {
			return err
		}
		if field.IsGroup() && len(field.Children) > 0 {
			nested := append(append([]FieldSpec(nil), parents...), field)
			if err := walk(field.Children, nested, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// LeafIDs returns the ids of every editable field reachable from fields, in
// declaration order. Groups contribute only their descendants.
func LeafIDs(fields []FieldSpec) []string {
	var ids []string
	_ = Walk(fields, func(field FieldSpec, _ []FieldSpec) error {
		if !field.IsGroup() {
			ids = append(ids, field.ID)
		}
		return nil
	})
	return ids
}

// Index maps every node id (groups included) to its spec.
func Index(fields []FieldSpec) map[string]FieldSpec {
	out := make(map[string]FieldSpec)
	_ = Walk(fields, func(field FieldSpec, _ []FieldSpec) error {
		if _, exists := out[field.ID]; !exists {
			out[field.ID] = field
		}
		return nil
	})
	return out
}

// Find returns the first node with the given id.
func Find(fields []FieldSpec, id string) (FieldSpec, bool) {
	var (
		found FieldSpec
		ok    bool
	)
	errStop := errors.New("stop")
	_ = Walk(fields, func(field FieldSpec, _ []FieldSpec) error {
		if field.ID == id {
			found, ok = field, true
			return errStop
		}
		return nil
	})
	return found, ok
}

// Dependents returns, in tree order, every field whose dynamic options depend
// on the field identified by id. Fields nested inside groups are included.
func Dependents(fields []FieldSpec, id string) []FieldSpec {
	var out []FieldSpec
	_ = Walk(fields, func(field FieldSpec, _ []FieldSpec) error {
		if field.DynamicOptions != nil && field.DynamicOptions.DependsOn == id {
			out = append(out, field)
		}
		return nil
	})
	return out
}

// Clone returns a deep copy of the form so normalizers can mutate it freely.
func (f FormSchema) Clone() FormSchema {
	out := f
	out.Fields = cloneFields(f.Fields)
	return out
}

func cloneFields(fields []FieldSpec) []FieldSpec {
	if fields == nil {
		return nil
	}
	out := make([]FieldSpec, len(fields))
	for i, field := range fields {
		out[i] = cloneField(field)
	}
	return out
}

func cloneField(field FieldSpec) FieldSpec {
	out := field
	if field.Options != nil {
		out.Options = append([]string(nil), field.Options...)
	}
	if field.Validation != nil {
		v := *field.Validation
		if v.Min != nil {
			minVal := *v.Min
			v.Min = &minVal
		}
		if v.Max != nil {
			maxVal := *v.Max
			v.Max = &maxVal
		}
		out.Validation = &v
	}
	if field.Visibility != nil {
		v := *field.Visibility
		out.Visibility = &v
	}
	if field.DynamicOptions != nil {
		d := *field.DynamicOptions
		out.DynamicOptions = &d
	}
	out.Children = cloneFields(field.Children)
	return out
}
