// Package testsupport shares fixtures across package tests.
package testsupport

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formengine/pkg/schema"
)

//go:embed testdata/insurance_forms.json
var insuranceForms []byte

// InsuranceCatalog returns the raw insurance catalog payload as served by
// the remote provider, before normalization.
func InsuranceCatalog() []byte {
	return append([]byte(nil), insuranceForms...)
}

// InsuranceForms decodes the insurance catalog.
func InsuranceForms(t testing.TB) []schema.FormSchema {
	t.Helper()

	forms, err := schema.DecodeForms(insuranceForms)
	if err != nil {
		t.Fatalf("decode insurance fixture: %v", err)
	}
	return forms
}

// InsuranceForm returns one form of the catalog by id.
func InsuranceForm(t testing.TB, formID string) schema.FormSchema {
	t.Helper()

	for _, form := range InsuranceForms(t) {
		if form.FormID == formID {
			return form
		}
	}
	t.Fatalf("form %q not in insurance fixture", formID)
	return schema.FormSchema{}
}

// LoadForms reads a JSON fixture holding one form or a list.
func LoadForms(path string) ([]schema.FormSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("testsupport: read forms: %w", err)
	}
	return schema.DecodeForms(data)
}

// JSONEqual compares two JSON documents structurally and returns a cmp diff,
// empty when equal.
func JSONEqual(t testing.TB, want, got []byte) string {
	t.Helper()

	var w, g any
	if err := json.Unmarshal(want, &w); err != nil {
		t.Fatalf("decode want: %v", err)
	}
	if err := json.Unmarshal(got, &g); err != nil {
		t.Fatalf("decode got: %v", err)
	}
	return cmp.Diff(w, g)
}
