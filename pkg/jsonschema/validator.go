// Package jsonschema validates JSON documents against JSON Schema.
package jsonschema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Validate checks doc against schema. It returns false with a nil error
// when the document is well-formed but fails validation, and a non-nil
// error when the schema or document cannot be parsed at all.
func Validate(doc, schema string) (bool, error) {
	compiled, err := compile(schema)
	if err != nil {
		return false, err
	}

	var data any
	if err := json.Unmarshal([]byte(doc), &data); err != nil {
		return false, fmt.Errorf("invalid JSON: %w", err)
	}

	return compiled.Validate(data) == nil, nil
}

// ValidateWithErrors is Validate with the individual validation failures
// reported as messages.
func ValidateWithErrors(doc, schema string) (bool, []string, error) {
	compiled, err := compile(schema)
	if err != nil {
		return false, nil, err
	}

	var data any
	if err := json.Unmarshal([]byte(doc), &data); err != nil {
		return false, nil, fmt.Errorf("invalid JSON: %w", err)
	}

	err = compiled.Validate(data)
	if err == nil {
		return true, nil, nil
	}

	var messages []string
	if ve, ok := err.(*jsonschema.ValidationError); ok {
		for _, cause := range flatten(ve) {
			messages = append(messages, cause)
		}
	} else {
		messages = append(messages, err.Error())
	}
	return false, messages, nil
}

func compile(schema string) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", strings.NewReader(schema)); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return compiled, nil
}

// flatten walks the validation error tree and collects leaf messages.
func flatten(ve *jsonschema.ValidationError) []string {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		return []string{fmt.Sprintf("%s: %s", loc, ve.Message)}
	}
	var out []string
	for _, cause := range ve.Causes {
		out = append(out, flatten(cause)...)
	}
	return out
}
