package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// ContractID is the $id of the generated wire contract.
const ContractID = "https://github.com/goliatone/go-formengine/schemas/form-schema.json"

var (
	contractOnce sync.Once
	contract     *sjsonschema.Schema
	contractErr  error
)

// GenerateJSONSchema produces the Draft 2020-12 JSON Schema describing the
// FormSchema wire format.
func GenerateJSONSchema() ([]byte, error) {
	r := new(jsonschema.Reflector)
	r.AllowAdditionalProperties = true

	s := r.Reflect(&FormSchema{})
	s.ID = ContractID
	s.Title = "Form schema"
	s.Description = "Declarative form description consumed by the form engine"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("schema: marshal json schema: %w", err)
	}
	return data, nil
}

func compiledContract() (*sjsonschema.Schema, error) {
	contractOnce.Do(func() {
		raw, err := GenerateJSONSchema()
		if err != nil {
			contractErr = err
			return
		}
		doc, err := sjsonschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			contractErr = fmt.Errorf("schema: unmarshal json schema: %w", err)
			return
		}
		c := sjsonschema.NewCompiler()
		if err := c.AddResource(ContractID, doc); err != nil {
			contractErr = fmt.Errorf("schema: add json schema resource: %w", err)
			return
		}
		contract, contractErr = c.Compile(ContractID)
		if contractErr != nil {
			contractErr = fmt.Errorf("schema: compile json schema: %w", contractErr)
		}
	})
	return contract, contractErr
}

// CheckPayload validates a raw JSON payload (one form or a list of forms)
// against the wire contract before decoding. It returns one Issue per leaf
// violation, prefixed with the list index when the payload is a list.
func CheckPayload(payload []byte) ([]Issue, error) {
	sch, err := compiledContract()
	if err != nil {
		return nil, err
	}

	inst, err := sjsonschema.UnmarshalJSON(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("schema: unmarshal payload: %w", err)
	}

	var (
		items  []any
		prefix = func(int) string { return "" }
	)
	if list, ok := inst.([]any); ok {
		items = list
		prefix = func(i int) string { return fmt.Sprintf("[%d]", i) }
	} else {
		items = []any{inst}
	}

	var issues []Issue
	for i, item := range items {
		err := sch.Validate(item)
		if err == nil {
			continue
		}
		ve, ok := err.(*sjsonschema.ValidationError)
		if !ok {
			issues = append(issues, Issue{Field: prefix(i), Message: err.Error()})
			continue
		}
		for _, cause := range flattenCauses(ve) {
			location := strings.Join(cause.InstanceLocation, "/")
			issues = append(issues, Issue{
				Field:   strings.TrimPrefix(prefix(i)+"/"+location, "/"),
				Message: fmt.Sprintf("%v", cause.ErrorKind),
			})
		}
	}
	return issues, nil
}

func flattenCauses(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flattenCauses(cause)...)
	}
	return flat
}
