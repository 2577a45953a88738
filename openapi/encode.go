package openapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrNilDocument is returned when a nil document is serialized.
var ErrNilDocument = errors.New("openapi: document is nil")

// MarshalJSON serializes the document as indented JSON.
func MarshalJSON(doc *Document) ([]byte, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}
	return json.MarshalIndent(doc, "", "  ")
}

// MarshalYAML serializes the document as YAML. The document is encoded to
// JSON first and the result is re-emitted as block-style YAML, so both
// encodings share field names and key order.
func MarshalYAML(doc *Document) ([]byte, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("openapi: reparse document as yaml: %w", err)
	}
	clearStyle(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// clearStyle drops the flow and quoting styles inherited from the JSON
// input. The encoder then quotes only scalars that would otherwise change
// type.
func clearStyle(node *yaml.Node) {
	node.Style = 0
	for _, child := range node.Content {
		clearStyle(child)
	}
}
