package openapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ErrInvalidExample is returned when a component example does not satisfy
// its own schema.
var ErrInvalidExample = errors.New("openapi: example does not match schema")

const componentsResource = "components.json"

// Load converts doc into the kin-openapi model and validates its structure.
// The result is independent of doc and may be modified by the caller.
func Load(ctx context.Context, doc *Document) (*openapi3.T, error) {
	data, err := MarshalJSON(doc)
	if err != nil {
		return nil, err
	}

	loader := openapi3.NewLoader()
	loader.Context = ctx

	t, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}

	if err := t.Validate(ctx); err != nil {
		return nil, fmt.Errorf("openapi: invalid document: %w", err)
	}

	return t, nil
}

// Validate checks doc the way a client would consume it: the document must
// serialize as JSON and YAML, be structurally valid OpenAPI, and every
// component schema example must satisfy its schema under JSON Schema
// Draft 2020-12.
func Validate(ctx context.Context, doc *Document) error {
	if _, err := Load(ctx, doc); err != nil {
		return err
	}
	if _, err := MarshalYAML(doc); err != nil {
		return fmt.Errorf("openapi: encode yaml: %w", err)
	}
	return ValidateExamples(doc)
}

// ValidateExamples compiles each component schema that declares an example
// and validates the example against it.
func ValidateExamples(doc *Document) error {
	if doc == nil {
		return ErrNilDocument
	}
	if doc.Components == nil || len(doc.Components.Schemas) == 0 {
		return nil
	}

	resource, err := toJSONValue(map[string]any{
		"components": map[string]any{"schemas": doc.Components.Schemas},
	})
	if err != nil {
		return err
	}

	compiler := jsonschema.NewCompiler()
	compiler.DefaultDraft(jsonschema.Draft2020)
	if err := compiler.AddResource(componentsResource, resource); err != nil {
		return fmt.Errorf("openapi: add schema resource: %w", err)
	}

	for _, name := range slices.Sorted(maps.Keys(doc.Components.Schemas)) {
		schema := doc.Components.Schemas[name]
		if schema == nil || schema.Example == nil {
			continue
		}

		compiled, err := compiler.Compile(componentsResource + "#/components/schemas/" + name)
		if err != nil {
			return fmt.Errorf("openapi: compile schema %s: %w", name, err)
		}

		example, err := toJSONValue(schema.Example)
		if err != nil {
			return fmt.Errorf("openapi: schema %s example: %w", name, err)
		}

		if err := compiled.Validate(example); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidExample, name, err)
		}
	}

	return nil
}

// toJSONValue round-trips v through encoding/json so that the validator sees
// the same values a client decoding the document would.
func toJSONValue(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
