package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vitalvas/apiecho/openapi"
)

// ErrMissingField is returned when a required record field is absent or null.
var ErrMissingField = errors.New("missing required field")

// RecordSchemaName is the component schema name of both record variants.
const RecordSchemaName = "EchoRecord"

// EchoRecord is the payload accepted and returned by the echo route. Its
// schema is derived by reflection.
//
// A decoded record remembers how "b" was sent, so that an empty string and
// an explicit null are written back as received.
type EchoRecord struct {
	A uint8     `json:"a"`
	B string    `json:"b,omitempty"`
	C []float64 `json:"c"`

	bPresence presence
}

// presence records how an optional field appeared in decoded input.
type presence uint8

const (
	presenceUnset presence = iota // not decoded; omitted when empty
	presenceValue                 // sent as a string, possibly ""
	presenceNull                  // sent as null
)

// OpenAPIExample implements openapi.Exampler.
func (EchoRecord) OpenAPIExample() any {
	return EchoRecord{A: 1, B: "foo", C: []float64{0, 0.1, 0.2}}
}

// UnmarshalJSON decodes the record strictly: unknown fields are rejected and
// "a" and "c" must be present and non-null. "b" may be absent, null or a
// string.
func (r *EchoRecord) UnmarshalJSON(data []byte) error {
	var wire struct {
		A *uint8          `json:"a"`
		B json.RawMessage `json:"b"`
		C *[]float64      `json:"c"`
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&wire); err != nil {
		return err
	}

	switch {
	case wire.A == nil:
		return fmt.Errorf("%w %q", ErrMissingField, "a")
	case wire.C == nil:
		return fmt.Errorf("%w %q", ErrMissingField, "c")
	}

	*r = EchoRecord{A: *wire.A, C: *wire.C}
	if bytes.Equal(bytes.TrimSpace(wire.B), []byte("null")) {
		r.bPresence = presenceNull
	} else if wire.B != nil {
		if err := json.Unmarshal(wire.B, &r.B); err != nil {
			return fmt.Errorf("field %q: %w", "b", err)
		}
		r.bPresence = presenceValue
	}
	return nil
}

// MarshalJSON writes "b" the way it was decoded: absent, null or a string.
func (r EchoRecord) MarshalJSON() ([]byte, error) {
	wire := struct {
		A uint8           `json:"a"`
		B json.RawMessage `json:"b,omitempty"`
		C []float64       `json:"c"`
	}{A: r.A, C: r.C}

	switch {
	case r.bPresence == presenceNull:
		wire.B = json.RawMessage("null")
	case r.bPresence == presenceValue || r.B != "":
		b, err := json.Marshal(r.B)
		if err != nil {
			return nil, err
		}
		wire.B = b
	}

	return json.Marshal(wire)
}

// ExplicitEchoRecord has the wire format of EchoRecord but publishes a
// hand-written schema under the same component name.
type ExplicitEchoRecord EchoRecord

// UnmarshalJSON decodes like EchoRecord.
func (r *ExplicitEchoRecord) UnmarshalJSON(data []byte) error {
	return (*EchoRecord)(r).UnmarshalJSON(data)
}

// MarshalJSON encodes like EchoRecord.
func (r ExplicitEchoRecord) MarshalJSON() ([]byte, error) {
	return EchoRecord(r).MarshalJSON()
}

// OpenAPISchemaName implements openapi.SchemaNamer.
func (ExplicitEchoRecord) OpenAPISchemaName() string {
	return RecordSchemaName
}

// OpenAPISchema implements openapi.Schemer.
func (ExplicitEchoRecord) OpenAPISchema() *openapi.Schema {
	minA, maxA := 0.0, 255.0

	return &openapi.Schema{
		Type:        openapi.TypeString("object"),
		Description: "Record echoed back by the service.",
		Properties: map[string]*openapi.Schema{
			"a": {
				Type:        openapi.TypeString("integer"),
				Description: "Unsigned 8-bit value.",
				Minimum:     &minA,
				Maximum:     &maxA,
			},
			"b": {
				Type:        openapi.TypeString("string"),
				Description: "Optional text, echoed back exactly as sent.",
			},
			"c": {
				Type:        openapi.TypeString("array"),
				Description: "Sequence of numbers.",
				Items:       &openapi.Schema{Type: openapi.TypeString("number")},
			},
		},
		Required: []string{"a", "c"},
		Example:  EchoRecord{}.OpenAPIExample(),
	}
}
