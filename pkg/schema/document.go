package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format identifies the encoding of a schema document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Document wraps a raw schema payload and its origin.
type Document struct {
	source Source
	raw    []byte
}

// NewDocument constructs a Document wrapper while validating the inputs.
func NewDocument(src Source, raw []byte) (Document, error) {
	if src == nil {
		return Document{}, errors.New("schema: source is required")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return Document{}, errors.New("schema: raw document is empty")
	}
	clone := append([]byte(nil), raw...)
	return Document{source: src, raw: clone}, nil
}

// MustNewDocument panics if the document cannot be created. Useful for tests.
func MustNewDocument(src Source, raw []byte) Document {
	doc, err := NewDocument(src, raw)
	if err != nil {
		panic(err)
	}
	return doc
}

// Source returns the origin metadata for the document.
func (d Document) Source() Source { return d.source }

// Raw returns a copy of the payload.
func (d Document) Raw() []byte { return append([]byte(nil), d.raw...) }

// Location returns the string identifier for the origin.
func (d Document) Location() string {
	if d.source == nil {
		return ""
	}
	return d.source.Location()
}

// Format guesses the encoding from the location extension, falling back to
// sniffing the first non-blank byte.
func (d Document) Format() Format {
	switch strings.ToLower(filepath.Ext(d.Location())) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	}
	trimmed := bytes.TrimSpace(d.raw)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return FormatJSON
	}
	return FormatYAML
}

// Forms decodes the document into form schemas. A document may hold a single
// form object or a list of forms.
func (d Document) Forms() ([]FormSchema, error) {
	payload := d.raw
	if d.Format() == FormatYAML {
		var generic any
		if err := yaml.Unmarshal(d.raw, &generic); err != nil {
			return nil, fmt.Errorf("schema: decode yaml %s: %w", d.Location(), err)
		}
		converted, err := json.Marshal(normalizeYAML(generic))
		if err != nil {
			return nil, fmt.Errorf("schema: convert yaml %s: %w", d.Location(), err)
		}
		payload = converted
	}
	return DecodeForms(payload)
}

// DecodeForms decodes a JSON payload holding one form or a list of forms.
func DecodeForms(payload []byte) ([]FormSchema, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil, errors.New("schema: empty payload")
	}
	if trimmed[0] == '[' {
		var forms []FormSchema
		if err := json.Unmarshal(trimmed, &forms); err != nil {
			return nil, fmt.Errorf("schema: decode forms: %w", err)
		}
		return forms, nil
	}
	var form FormSchema
	if err := json.Unmarshal(trimmed, &form); err != nil {
		return nil, fmt.Errorf("schema: decode form: %w", err)
	}
	return []FormSchema{form}, nil
}

// normalizeYAML converts map[any]any nodes into JSON-friendly maps.
func normalizeYAML(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, v := range typed {
			out[k] = normalizeYAML(v)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(typed))
		for k, v := range typed {
			out[fmt.Sprint(k)] = normalizeYAML(v)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, v := range typed {
			out[i] = normalizeYAML(v)
		}
		return out
	default:
		return typed
	}
}
