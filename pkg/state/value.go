// Package state holds the value model of a live form: one Value per leaf
// field, either free text or a list of selected options.
package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Value is the current input of a single leaf field. The zero value is empty
// text. Checkbox fields hold lists; every other kind holds text.
type Value struct {
	text   string
	list   []string
	isList bool
}

// Text builds a text value.
func Text(s string) Value { return Value{text: s} }

// List builds a list value. A nil or empty argument yields an empty list, which
// is still distinct from empty text.
func List(items ...string) Value {
	return Value{list: slices.Clone(items), isList: true}
}

// Empty returns the zero value.
func Empty() Value { return Value{} }

// IsList reports whether v holds a list.
func (v Value) IsList() bool { return v.isList }

// IsEmpty reports whether v counts as unset for required checks: empty text
// or an empty list.
func (v Value) IsEmpty() bool {
	if v.isList {
		return len(v.list) == 0
	}
	return v.text == ""
}

// Text returns the textual form. Lists are joined with a comma.
func (v Value) Text() string {
	if v.isList {
		return strings.Join(v.list, ",")
	}
	return v.text
}

// Items returns a copy of the list, or a one-element list for non-empty text.
func (v Value) Items() []string {
	if v.isList {
		return slices.Clone(v.list)
	}
	if v.text == "" {
		return nil
	}
	return []string{v.text}
}

// Contains reports whether the value holds option.
func (v Value) Contains(option string) bool {
	if v.isList {
		return slices.Contains(v.list, option)
	}
	return v.text == option
}

// Toggle adds option to a list value, or removes it when present.
func (v Value) Toggle(option string) Value {
	items := v.Items()
	if idx := slices.Index(items, option); idx >= 0 {
		return List(slices.Delete(items, idx, idx+1)...)
	}
	return List(append(items, option)...)
}

// Equal compares kind and content.
func (v Value) Equal(other Value) bool {
	if v.isList != other.isList {
		return false
	}
	if v.isList {
		return slices.Equal(v.list, other.list)
	}
	return v.text == other.text
}

// Interface returns the JSON-friendly representation: string or []string.
func (v Value) Interface() any {
	if v.isList {
		if v.list == nil {
			return []string{}
		}
		return slices.Clone(v.list)
	}
	return v.text
}

func (v Value) String() string {
	if v.isList {
		return "[" + strings.Join(v.list, ", ") + "]"
	}
	return strconv.Quote(v.text)
}

// MarshalJSON encodes text as a JSON string and lists as arrays.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON accepts strings, arrays of scalars, numbers, booleans and
// null. Numbers and booleans keep their literal text; null is empty text.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("state: empty value")
	}
	switch trimmed[0] {
	case 'n':
		*v = Empty()
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("state: decode text: %w", err)
		}
		*v = Text(s)
		return nil
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return fmt.Errorf("state: decode list: %w", err)
		}
		items := make([]string, 0, len(raw))
		for _, item := range raw {
			var inner Value
			if err := inner.UnmarshalJSON(item); err != nil {
				return err
			}
			if inner.isList {
				return fmt.Errorf("state: nested lists are not supported")
			}
			items = append(items, inner.text)
		}
		*v = List(items...)
		return nil
	case '{':
		return fmt.Errorf("state: objects are not valid field values")
	default:
		// numbers and booleans
		*v = Text(string(trimmed))
		return nil
	}
}

// FromAny converts decoded JSON or YAML data into a Value.
func FromAny(raw any) Value {
	switch typed := raw.(type) {
	case nil:
		return Empty()
	case Value:
		return typed
	case string:
		return Text(typed)
	case []string:
		return List(typed...)
	case []any:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, FromAny(item).Text())
		}
		return List(items...)
	case float64:
		return Text(strconv.FormatFloat(typed, 'f', -1, 64))
	case bool:
		return Text(strconv.FormatBool(typed))
	default:
		return Text(fmt.Sprint(typed))
	}
}
