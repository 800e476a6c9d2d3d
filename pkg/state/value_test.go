package state

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestValue_IsEmpty(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value Value
		want  bool
	}{
		{name: "zero", value: Value{}, want: true},
		{name: "empty text", value: Text(""), want: true},
		{name: "text", value: Text("x"), want: false},
		{name: "empty list", value: List(), want: true},
		{name: "list", value: List("a"), want: false},
		{name: "whitespace is a value", value: Text(" "), want: false},
	}
	for _, tt := range tests {
		if got := tt.value.IsEmpty(); got != tt.want {
			t.Errorf("%s: IsEmpty() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestValue_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	var got map[string]Value
	payload := `{"a":"text","b":["x","y"],"c":42,"d":true,"e":null,"f":[],"g":[1,2.5]}`
	if err := json.Unmarshal([]byte(payload), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := map[string]Value{
		"a": Text("text"),
		"b": List("x", "y"),
		"c": Text("42"),
		"d": Text("true"),
		"e": Empty(),
		"f": List(),
		"g": List("1", "2.5"),
	}
	for id, value := range want {
		if !got[id].Equal(value) {
			t.Errorf("%s: got %v want %v", id, got[id], value)
		}
	}

	var bad Value
	if err := json.Unmarshal([]byte(`{"x":1}`), &bad); err == nil {
		t.Fatal("expected error for object value")
	}
}

func TestValue_MarshalJSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(Values{"a": Text("1"), "b": List(), "c": List("x")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got, want := string(data), `{"a":"1","b":[],"c":["x"]}`; got != want {
		t.Fatalf("got %s want %s", got, want)
	}
}

func TestValue_Toggle(t *testing.T) {
	t.Parallel()

	v := Empty().Toggle("a").Toggle("b").Toggle("a")
	if diff := cmp.Diff([]string{"b"}, v.Items()); diff != "" {
		t.Fatalf("toggle mismatch (-want +got):\n%s", diff)
	}
	if !v.IsList() || !v.Contains("b") || v.Contains("a") {
		t.Fatalf("unexpected value %v", v)
	}
}

func TestValues_WithDoesNotMutate(t *testing.T) {
	t.Parallel()

	base := NewValues([]string{"a", "b"})
	next := base.With("a", Text("1"))

	if !base.Get("a").IsEmpty() {
		t.Fatal("With mutated the receiver")
	}
	if next.Get("a").Text() != "1" || !next.Get("b").IsEmpty() {
		t.Fatalf("unexpected mapping %v", next)
	}
	if diff := cmp.Diff([]string{"a", "b"}, next.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestFromMap(t *testing.T) {
	t.Parallel()

	got := FromMap(map[string]any{"n": float64(3), "l": []any{"a", float64(1)}, "z": nil})
	want := Values{"n": Text("3"), "l": List("a", "1"), "z": Empty()}
	if !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	if diff := cmp.Diff(map[string]any{"n": "3", "l": []string{"a", "1"}, "z": ""}, got.Map()); diff != "" {
		t.Fatalf("Map mismatch (-want +got):\n%s", diff)
	}
}
