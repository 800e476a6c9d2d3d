package state

import (
	"maps"
	"slices"
)

// Values maps leaf field ids to their current Value.
type Values map[string]Value

// NewValues returns a mapping with every id set to empty text.
func NewValues(ids []string) Values {
	out := make(Values, len(ids))
	for _, id := range ids {
		out[id] = Empty()
	}
	return out
}

// Get returns the value for id, or empty text when the id is absent.
func (v Values) Get(id string) Value {
	if v == nil {
		return Empty()
	}
	return v[id]
}

// With returns a copy of v with id set to value. The receiver is untouched.
func (v Values) With(id string, value Value) Values {
	out := v.Clone()
	out[id] = value
	return out
}

// Clone returns a shallow copy. Values are immutable so sharing them is safe.
func (v Values) Clone() Values {
	if v == nil {
		return Values{}
	}
	return maps.Clone(v)
}

// Keys returns the ids in sorted order.
func (v Values) Keys() []string {
	return slices.Sorted(maps.Keys(v))
}

// Equal reports whether both mappings hold the same ids and values.
func (v Values) Equal(other Values) bool {
	if len(v) != len(other) {
		return false
	}
	for id, value := range v {
		o, ok := other[id]
		if !ok || !value.Equal(o) {
			return false
		}
	}
	return true
}

// Map converts the mapping into plain Go values (string or []string), the
// shape handed to submit handlers and expression rules.
func (v Values) Map() map[string]any {
	out := make(map[string]any, len(v))
	for id, value := range v {
		out[id] = value.Interface()
	}
	return out
}

// FromMap converts decoded JSON data into Values.
func FromMap(raw map[string]any) Values {
	out := make(Values, len(raw))
	for id, value := range raw {
		out[id] = FromAny(value)
	}
	return out
}
