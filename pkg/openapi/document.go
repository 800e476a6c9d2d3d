package openapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formengine/pkg/provider"
	"github.com/goliatone/go-formengine/pkg/schema"
)

// Version is the OpenAPI version emitted by SubmissionDocument.
const Version = "3.0.3"

// Info carries the document metadata.
type Info struct {
	Title       string
	Version     string
	Description string
	ServerURL   string
	Paths       provider.Paths
}

// numericPattern accepts decimal numbers and the empty string.
const numericPattern = `^(-?[0-9]+(\.[0-9]+)?)?$`

var componentName = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// SubmissionDocument builds the API description for forms: the catalog and
// submissions listings, one GET operation per dynamic option endpoint, and
// the submit operation whose body is oneOf the per-form value mappings.
func SubmissionDocument(forms []schema.FormSchema, info Info) (*openapi3.T, error) {
	if len(forms) == 0 {
		return nil, errors.New("openapi: at least one form is required")
	}
	if info.Title == "" {
		info.Title = "Form submissions"
	}
	if info.Version == "" {
		info.Version = "1.0.0"
	}
	paths := info.Paths
	if paths.Forms == "" {
		paths.Forms = provider.DefaultFormsPath
	}
	if paths.Submit == "" {
		paths.Submit = provider.DefaultSubmitPath
	}
	if paths.Submissions == "" {
		paths.Submissions = provider.DefaultSubmissionsPath
	}

	doc := &openapi3.T{
		OpenAPI: Version,
		Info: &openapi3.Info{
			Title:       info.Title,
			Version:     info.Version,
			Description: info.Description,
		},
		Paths: openapi3.NewPaths(),
		Components: &openapi3.Components{
			Schemas: openapi3.Schemas{},
		},
	}
	if info.ServerURL != "" {
		doc.Servers = openapi3.Servers{{URL: info.ServerURL}}
	}

	bodies := make(openapi3.SchemaRefs, 0, len(forms))
	endpoints := make(map[string]string)
	for _, form := range forms {
		if err := schema.Validate(form); err != nil {
			return nil, fmt.Errorf("openapi: %w", err)
		}
		name := ComponentName(form.FormID)
		if _, dup := doc.Components.Schemas[name]; dup {
			return nil, fmt.Errorf("openapi: duplicate component %q", name)
		}
		body := FormSchema(form)
		doc.Components.Schemas[name] = openapi3.NewSchemaRef("", body)
		bodies = append(bodies, openapi3.NewSchemaRef("#/components/schemas/"+name, body))

		_ = schema.Walk(form.Fields, func(field schema.FieldSpec, _ []schema.FieldSpec) error {
			if field.IsDynamic() && strings.HasPrefix(field.DynamicOptions.Endpoint, "/") {
				if _, seen := endpoints[field.DynamicOptions.Endpoint]; !seen {
					endpoints[field.DynamicOptions.Endpoint] = field.DynamicOptions.Method
				}
			}
			return nil
		})
	}

	submitBody := &openapi3.Schema{OneOf: bodies}
	submit := &openapi3.Operation{
		OperationID: "submitForm",
		Summary:     "Submit a completed form",
		RequestBody: &openapi3.RequestBodyRef{
			Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchema(submitBody),
		},
		Responses: openapi3.NewResponses(
			openapi3.WithStatus(200, &openapi3.ResponseRef{Value: jsonResponse("Submission receipt", receiptSchema())}),
			openapi3.WithStatus(400, &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription("Malformed submission")}),
		),
	}
	doc.Paths.Set(paths.Submit, &openapi3.PathItem{Post: submit})

	doc.Paths.Set(paths.Forms, &openapi3.PathItem{Get: &openapi3.Operation{
		OperationID: "listForms",
		Summary:     "List form schemas",
		Responses: openapi3.NewResponses(
			openapi3.WithStatus(200, &openapi3.ResponseRef{Value: jsonResponse("Form catalog", openapi3.NewArraySchema().WithItems(openapi3.NewObjectSchema()))}),
		),
	}})
	doc.Paths.Set(paths.Submissions, &openapi3.PathItem{Get: &openapi3.Operation{
		OperationID: "listSubmissions",
		Summary:     "List stored submissions",
		Responses: openapi3.NewResponses(
			openapi3.WithStatus(200, &openapi3.ResponseRef{Value: jsonResponse("Submission list", submissionListSchema())}),
		),
	}})

	keys := make([]string, 0, len(endpoints))
	for endpoint := range endpoints {
		keys = append(keys, endpoint)
	}
	sort.Strings(keys)
	for i, endpoint := range keys {
		if doc.Paths.Value(endpoint) != nil {
			continue
		}
		doc.Paths.Set(endpoint, optionsPathItem(endpoint, endpoints[endpoint], i))
	}

	return doc, nil
}

// FormSchema describes the value mapping submitted for form: one property
// per leaf, required when the field is required and always visible, enums
// for static options and arrays for checkboxes.
func FormSchema(form schema.FormSchema) *openapi3.Schema {
	s := openapi3.NewObjectSchema()
	s.Title = form.Title
	s.Description = form.Description
	_ = schema.Walk(form.Fields, func(field schema.FieldSpec, parents []schema.FieldSpec) error {
		if field.IsGroup() {
			return nil
		}
		s.WithProperty(field.ID, fieldSchema(field))
		if field.Required && unconditional(field, parents) {
			s.Required = append(s.Required, field.ID)
		}
		return nil
	})
	return s
}

// ComponentName maps a form id to a valid component key.
func ComponentName(formID string) string {
	name := componentName.ReplaceAllString(formID, "_")
	if name == "" {
		return "form"
	}
	return name
}

func unconditional(field schema.FieldSpec, parents []schema.FieldSpec) bool {
	if field.Visibility != nil {
		return false
	}
	for _, parent := range parents {
		if parent.Visibility != nil {
			return false
		}
	}
	return true
}

func fieldSchema(field schema.FieldSpec) *openapi3.Schema {
	var s *openapi3.Schema
	switch field.Kind {
	case schema.KindCheckbox:
		item := openapi3.NewStringSchema()
		if len(field.Options) > 0 && !field.IsDynamic() {
			item.WithEnum(enumValues(field.Options)...)
		}
		s = openapi3.NewArraySchema().WithItems(item)
	case schema.KindSelect, schema.KindRadio:
		s = openapi3.NewStringSchema()
		if len(field.Options) > 0 && !field.IsDynamic() {
			values := enumValues(field.Options)
			if !field.Required {
				values = append(values, "")
			}
			s.WithEnum(values...)
		}
	case schema.KindNumber:
		s = openapi3.NewStringSchema().WithPattern(numericPattern)
		if v := field.Validation; v != nil {
			if v.Min != nil {
				s.Extensions = withExtension(s.Extensions, "x-minimum", *v.Min)
			}
			if v.Max != nil {
				s.Extensions = withExtension(s.Extensions, "x-maximum", *v.Max)
			}
		}
	case schema.KindDate:
		s = openapi3.NewStringSchema().WithFormat("date")
	case schema.KindText:
		s = openapi3.NewStringSchema()
		if v := field.Validation; v != nil && v.Pattern != "" {
			// optional fields are submitted as "" which the pattern may reject
			if field.Required {
				s.WithPattern(v.Pattern)
			} else {
				s.Extensions = withExtension(s.Extensions, "x-pattern", v.Pattern)
			}
		}
	default:
		s = openapi3.NewStringSchema()
	}
	s.Title = field.Label
	s.Description = field.HelperText
	if field.IsDynamic() {
		s.Extensions = withExtension(s.Extensions, "x-options-endpoint", field.DynamicOptions.Endpoint)
		s.Extensions = withExtension(s.Extensions, "x-options-depends-on", field.DynamicOptions.DependsOn)
	}
	return s
}

func optionsPathItem(endpoint, method string, index int) *openapi3.PathItem {
	param := openapi3.NewQueryParameter("value").WithSchema(openapi3.NewStringSchema())
	param.Description = "Current value of the field the options depend on"
	op := &openapi3.Operation{
		OperationID: "options" + strconv.Itoa(index+1),
		Summary:     "Dependent options for " + endpoint,
		Parameters:  openapi3.Parameters{{Value: param}},
		Responses: openapi3.NewResponses(
			openapi3.WithStatus(200, &openapi3.ResponseRef{Value: jsonResponse("Option list", openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema()))}),
		),
	}
	if method == "POST" {
		return &openapi3.PathItem{Post: op}
	}
	return &openapi3.PathItem{Get: op}
}

func jsonResponse(description string, s *openapi3.Schema) *openapi3.Response {
	return openapi3.NewResponse().WithDescription(description).WithJSONSchema(s)
}

func receiptSchema() *openapi3.Schema {
	return openapi3.NewObjectSchema().WithProperty("id", openapi3.NewStringSchema())
}

func submissionListSchema() *openapi3.Schema {
	return openapi3.NewObjectSchema().
		WithProperty("columns", openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema())).
		WithProperty("data", openapi3.NewArraySchema().WithItems(openapi3.NewObjectSchema()))
}

func enumValues(options []string) []any {
	out := make([]any, len(options))
	for i, option := range options {
		out[i] = option
	}
	return out
}

func withExtension(ext map[string]any, key string, value any) map[string]any {
	if ext == nil {
		ext = make(map[string]any)
	}
	ext[key] = value
	return ext
}

// Validate checks doc against the OpenAPI rules kin-openapi enforces.
func Validate(ctx context.Context, doc *openapi3.T) error {
	if err := doc.Validate(ctx); err != nil {
		return fmt.Errorf("openapi: validate: %w", err)
	}
	return nil
}

// Load parses a JSON or YAML OpenAPI document.
func Load(ctx context.Context, data []byte) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	return doc, nil
}

// Format selects the Encode output.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Encode serializes doc as indented JSON or YAML.
func Encode(doc *openapi3.T, format Format) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("openapi: marshal: %w", err)
	}
	switch format {
	case FormatJSON, "":
		return data, nil
	case FormatYAML:
		var tree any
		if err := json.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("openapi: convert to yaml: %w", err)
		}
		out, err := yaml.Marshal(tree)
		if err != nil {
			return nil, fmt.Errorf("openapi: marshal yaml: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("openapi: unknown format %q", format)
	}
}
