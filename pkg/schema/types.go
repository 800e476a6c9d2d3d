package schema

import "errors"

// ErrInvalidSchema is returned (wrapped) when a FormSchema violates the
// structural rules enforced by Validate.
var ErrInvalidSchema = errors.New("schema: invalid form schema")

// Kind enumerates the field kinds a FieldSpec can take. The set is closed:
// Validate rejects any other value, so switches over the kinds of a
// validated form may leave text to their default branch.
type Kind string

const (
	KindText     Kind = "text"
	KindNumber   Kind = "number"
	KindSelect   Kind = "select"
	KindRadio    Kind = "radio"
	KindCheckbox Kind = "checkbox"
	KindDate     Kind = "date"
	KindGroup    Kind = "group"
)

// Kinds lists every supported kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindText, KindNumber, KindSelect, KindRadio, KindCheckbox, KindDate, KindGroup}
}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindText, KindNumber, KindSelect, KindRadio, KindCheckbox, KindDate, KindGroup:
		return true
	default:
		return false
	}
}

// IsGroup reports whether the kind is a container.
func (k Kind) IsGroup() bool { return k == KindGroup }

// IsMulti reports whether values of this kind are lists.
func (k Kind) IsMulti() bool { return k == KindCheckbox }

// HasOptions reports whether the kind renders a choice list.
func (k Kind) HasOptions() bool {
	switch k {
	case KindSelect, KindRadio, KindCheckbox:
		return true
	default:
		return false
	}
}

// Condition is the comparison operator of a visibility clause.
type Condition string

const (
	ConditionEquals      Condition = "equals"
	ConditionNotEquals   Condition = "notEquals"
	ConditionGreaterThan Condition = "greaterThan"
	ConditionLessThan    Condition = "lessThan"
)

// Validation carries optional input constraints. Min and Max apply to number
// fields; Pattern is a regular expression for text inputs.
type Validation struct {
	Min     *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max     *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Pattern string   `json:"pattern,omitempty" yaml:"pattern,omitempty"`
}

// Visibility makes a field's rendering depend on another field's value. When
// Expression is set it takes precedence over DependsOn/Condition/Value.
type Visibility struct {
	DependsOn  string    `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`
	Condition  Condition `json:"condition,omitempty" yaml:"condition,omitempty" jsonschema:"enum=equals,enum=notEquals,enum=greaterThan,enum=lessThan"`
	Value      any       `json:"value,omitempty" yaml:"value,omitempty"`
	Expression string    `json:"expression,omitempty" yaml:"expression,omitempty"`
}

// DynamicOptions describes a server-backed option list parameterised by the
// current value of DependsOn.
type DynamicOptions struct {
	DependsOn string `json:"dependsOn" yaml:"dependsOn"`
	Endpoint  string `json:"endpoint" yaml:"endpoint"`
	Method    string `json:"method,omitempty" yaml:"method,omitempty" jsonschema:"enum=GET,enum=POST"`
}

// FieldSpec is one node of the form tree. Groups carry Children and never hold
// a value of their own.
type FieldSpec struct {
	ID             string          `json:"id" yaml:"id"`
	Label          string          `json:"label" yaml:"label"`
	Kind           Kind            `json:"type" yaml:"type" jsonschema:"enum=text,enum=number,enum=select,enum=radio,enum=checkbox,enum=date,enum=group"`
	Required       bool            `json:"required,omitempty" yaml:"required,omitempty"`
	HelperText     string          `json:"helperText,omitempty" yaml:"helperText,omitempty"`
	Options        []string        `json:"options,omitempty" yaml:"options,omitempty"`
	Validation     *Validation     `json:"validation,omitempty" yaml:"validation,omitempty"`
	Visibility     *Visibility     `json:"visibility,omitempty" yaml:"visibility,omitempty"`
	DynamicOptions *DynamicOptions `json:"dynamicOptions,omitempty" yaml:"dynamicOptions,omitempty"`
	Children       []FieldSpec     `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// IsGroup reports whether the field is a container.
func (f FieldSpec) IsGroup() bool { return f.Kind.IsGroup() }

// IsDynamic reports whether the field fetches its options from a server.
func (f FieldSpec) IsDynamic() bool {
	return f.DynamicOptions != nil && f.DynamicOptions.Endpoint != ""
}

// FormSchema is the top-level form description served by the schema
// provider. FormID is the stable identity used for persistence keying.
type FormSchema struct {
	FormID      string      `json:"formId" yaml:"formId"`
	FormType    string      `json:"type,omitempty" yaml:"type,omitempty"`
	Title       string      `json:"title" yaml:"title"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      []FieldSpec `json:"fields" yaml:"fields"`
}
