package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/goliatone/go-formengine/pkg/provider"
	"github.com/goliatone/go-formengine/pkg/schema"
)

// Transformer mutates a form after it is loaded and before it is validated
// and handed to an engine.
type Transformer interface {
	Transform(ctx context.Context, form *schema.FormSchema) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, form *schema.FormSchema) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, form *schema.FormSchema) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, form)
}

// NormalizerTransformer runs a provider normalizer over forms that did not
// come from the provider client, e.g. a catalog read from disk.
func NormalizerTransformer(normalize provider.Normalizer) Transformer {
	return TransformerFunc(func(_ context.Context, form *schema.FormSchema) error {
		if normalize != nil {
			*form = normalize(*form)
		}
		return nil
	})
}

// JSONPresetTransformer applies declarative overrides loaded from a JSON
// document. Presets are keyed by form id; "*" applies to every form:
//
//	{
//	  "*": {"fields": {"full_name": {"helperText": "As printed on your ID"}}},
//	  "car_insurance_application": {
//	    "title": "Car cover",
//	    "fields": {"car_year": {"label": "Model year", "required": true}}
//	  }
//	}
type JSONPresetTransformer struct {
	document map[string]jsonFormPatch
}

type jsonFormPatch struct {
	Title       string                    `json:"title"`
	Description string                    `json:"description"`
	Fields      map[string]jsonFieldPatch `json:"fields"`
}

type jsonFieldPatch struct {
	Label      string   `json:"label"`
	HelperText string   `json:"helperText"`
	Required   *bool    `json:"required"`
	Options    []string `json:"options"`
}

// NewJSONPresetTransformer constructs a transformer from raw JSON bytes.
func NewJSONPresetTransformer(data []byte) (*JSONPresetTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("json preset transformer: document is empty")
	}
	var document map[string]jsonFormPatch
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("json preset transformer: parse document: %w", err)
	}
	return &JSONPresetTransformer{document: document}, nil
}

// NewJSONPresetTransformerFromFS loads a JSON transformer document from the
// provided filesystem path.
func NewJSONPresetTransformerFromFS(fsys fs.FS, path string) (*JSONPresetTransformer, error) {
	if fsys == nil {
		return nil, errors.New("json preset transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("json preset transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("json preset transformer: read %s: %w", path, err)
	}
	return NewJSONPresetTransformer(data)
}

// Transform applies the wildcard preset, then the preset for form.FormID.
// Patches naming a field the form lacks are an error for form-specific
// presets and ignored for the wildcard.
func (t *JSONPresetTransformer) Transform(ctx context.Context, form *schema.FormSchema) error {
	if form == nil {
		return errors.New("json preset transformer: form is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if patch, ok := t.document["*"]; ok {
		if err := applyFormPatch(form, patch, false); err != nil {
			return err
		}
	}
	if patch, ok := t.document[form.FormID]; ok {
		if err := applyFormPatch(form, patch, true); err != nil {
			return err
		}
	}
	return nil
}

func applyFormPatch(form *schema.FormSchema, patch jsonFormPatch, strict bool) error {
	if patch.Title != "" {
		form.Title = patch.Title
	}
	if patch.Description != "" {
		form.Description = patch.Description
	}
	for id, fieldPatch := range patch.Fields {
		field := findField(form.Fields, id)
		if field == nil {
			if strict {
				return fmt.Errorf("json preset transformer: field %q not found in %s", id, form.FormID)
			}
			continue
		}
		applyFieldPatch(field, fieldPatch)
	}
	return nil
}

func applyFieldPatch(field *schema.FieldSpec, patch jsonFieldPatch) {
	if patch.Label != "" {
		field.Label = patch.Label
	}
	if patch.HelperText != "" {
		field.HelperText = patch.HelperText
	}
	if patch.Required != nil {
		field.Required = *patch.Required
	}
	if len(patch.Options) > 0 {
		field.Options = append([]string(nil), patch.Options...)
	}
}

func findField(fields []schema.FieldSpec, id string) *schema.FieldSpec {
	for i := range fields {
		field := &fields[i]
		if field.ID == id {
			return field
		}
		if found := findField(field.Children, id); found != nil {
			return found
		}
	}
	return nil
}
