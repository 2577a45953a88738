package openapi

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaType(t *testing.T) {
	t.Run("marshal", func(t *testing.T) {
		tests := []struct {
			name     string
			input    SchemaType
			expected string
		}{
			{"single type marshals as string", TypeString("string"), `"string"`},
			{"multiple types marshal as array", TypeArray("string", "null"), `["string","null"]`},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				data, err := json.Marshal(tt.input)
				require.NoError(t, err)
				assert.JSONEq(t, tt.expected, string(data))
			})
		}
	})

	t.Run("unmarshal", func(t *testing.T) {
		tests := []struct {
			name     string
			input    string
			expected []string
			wantErr  bool
		}{
			{"single string", `"integer"`, []string{"integer"}, false},
			{"array", `["string","null"]`, []string{"string", "null"}, false},
			{"invalid", `42`, nil, true},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				var st SchemaType
				err := json.Unmarshal([]byte(tt.input), &st)
				if tt.wantErr {
					assert.Error(t, err)
					return
				}
				require.NoError(t, err)
				assert.Equal(t, tt.expected, st.Values())
			})
		}
	})

	t.Run("zero type is omitted", func(t *testing.T) {
		data, err := json.Marshal(&Schema{Ref: "#/components/schemas/X"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"$ref":"#/components/schemas/X"}`, string(data))
	})
}

func TestDocumentJSONFieldNames(t *testing.T) {
	doc := &Document{
		OpenAPI: OpenAPIVersion,
		Info: Info{
			Title:   "T",
			Version: "1",
			License: &License{Name: "MIT"},
		},
		Paths: map[string]*PathItem{
			"/x": {Post: &Operation{
				OperationID: "x",
				RequestBody: &RequestBody{Required: true},
				Responses:   map[string]*Response{"200": {Description: "OK"}},
			}},
		},
		Components: &Components{
			SecuritySchemes: map[string]*SecurityScheme{
				"key": {Type: "apiKey", Name: "X-Key", In: "header"},
			},
		},
		ExternalDocs: &ExternalDocs{URL: "https://example.com"},
	}

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.Equal(t, "3.1.0", raw["openapi"])
	assert.Contains(t, raw, "externalDocs")
	assert.NotContains(t, raw, "servers")

	op := raw["paths"].(map[string]any)["/x"].(map[string]any)["post"].(map[string]any)
	assert.Equal(t, "x", op["operationId"])
	assert.Contains(t, op, "requestBody")

	components := raw["components"].(map[string]any)
	assert.Contains(t, components, "securitySchemes")
}

func TestPathItemOperations(t *testing.T) {
	p := &PathItem{Get: &Operation{}, Post: &Operation{}}
	assert.Len(t, p.operations(), 2)
	assert.Empty(t, (&PathItem{}).operations())
}
