package openapi

import (
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Exampler can be implemented by types to provide an example value
// for the generated component schema.
//
//	func (EchoRecord) OpenAPIExample() any {
//	    return EchoRecord{A: 1, B: "foo", C: []float64{0, 0.1, 0.2}}
//	}
//
// See: https://json-schema.org/draft/2020-12/json-schema-validation#section-9.5
type Exampler interface {
	OpenAPIExample() any
}

// Schemer is implemented by types that construct their schema explicitly
// instead of having it derived by reflection. The returned schema is stored
// as the type's component schema and referenced via $ref like a derived one.
// Exampler is still honoured when the returned schema has no example.
type Schemer interface {
	OpenAPISchema() *Schema
}

// SchemaNamer overrides the component schema name of a type. Two types that
// report the same name are expected to describe the same wire shape; the
// first one registered wins.
type SchemaNamer interface {
	OpenAPISchemaName() string
}

var (
	timeType        = reflect.TypeOf(time.Time{})
	schemerType     = reflect.TypeOf((*Schemer)(nil)).Elem()
	examplerType    = reflect.TypeOf((*Exampler)(nil)).Elem()
	schemaNamerType = reflect.TypeOf((*SchemaNamer)(nil)).Elem()
)

// SchemaGenerator converts Go types to JSON Schema objects and collects
// named types into a component schemas map for $ref deduplication.
//
// See: https://spec.openapis.org/oas/v3.1.0#schema-object
type SchemaGenerator struct {
	schemas   map[string]*Schema
	visited   map[reflect.Type]bool
	typeNames map[reflect.Type]string
	nameTypes map[string]reflect.Type
}

// NewSchemaGenerator creates a new schema generator.
func NewSchemaGenerator() *SchemaGenerator {
	return &SchemaGenerator{
		schemas:   make(map[string]*Schema),
		visited:   make(map[reflect.Type]bool),
		typeNames: make(map[reflect.Type]string),
		nameTypes: make(map[string]reflect.Type),
	}
}

// Schemas returns the collected component schemas.
func (g *SchemaGenerator) Schemas() map[string]*Schema {
	return g.schemas
}

// Generate produces a JSON Schema for the given Go value. A *Schema is
// returned as-is. Named struct types and Schemer implementations are stored
// in the component schemas and referenced via $ref.
func (g *SchemaGenerator) Generate(v any) *Schema {
	switch v := v.(type) {
	case nil:
		return nil
	case *Schema:
		return v
	}
	return g.generateType(reflect.TypeOf(v))
}

// generateType produces a Schema for the given Go type.
func (g *SchemaGenerator) generateType(t reflect.Type) *Schema {
	nullable := false
	if t.Kind() == reflect.Pointer {
		nullable = true
		t = t.Elem()
	}

	if g.isComponent(t) {
		name := g.schemaName(t)
		if !g.visited[t] {
			g.visited[t] = true
			if _, taken := g.schemas[name]; !taken {
				g.schemas[name] = g.componentSchema(t)
			}
		}

		ref := &Schema{Ref: "#/components/schemas/" + name}
		if nullable {
			return &Schema{AnyOf: []*Schema{ref, {Type: TypeString("null")}}}
		}
		return ref
	}

	schema := g.generateInlineType(t)
	if nullable && schema != nil {
		applyNullable(schema)
	}
	return schema
}

// isComponent reports whether t is stored under components/schemas.
func (g *SchemaGenerator) isComponent(t reflect.Type) bool {
	if t.Name() == "" || t.PkgPath() == "" {
		return false
	}
	if t.Implements(schemerType) {
		return true
	}
	return t.Kind() == reflect.Struct && t != timeType
}

// componentSchema builds the stored schema for a named type, either from its
// Schemer implementation or by reflecting over its fields.
func (g *SchemaGenerator) componentSchema(t reflect.Type) *Schema {
	zero := reflect.Zero(t).Interface()

	var schema *Schema
	if t.Implements(schemerType) {
		schema = zero.(Schemer).OpenAPISchema()
	}
	if schema == nil {
		schema = g.generateStructSchema(t)
	}

	if schema.Example == nil && t.Implements(examplerType) {
		schema.Example = zero.(Exampler).OpenAPIExample()
	}

	return schema
}

// generateInlineType maps Go primitive and composite types to JSON Schema types.
//
// See: https://spec.openapis.org/oas/v3.1.0#data-types
func (g *SchemaGenerator) generateInlineType(t reflect.Type) *Schema {
	if t == timeType {
		return &Schema{Type: TypeString("string"), Format: "date-time"}
	}

	switch t.Kind() {
	case reflect.Bool:
		return &Schema{Type: TypeString("boolean")}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &Schema{Type: TypeString("integer")}

	case reflect.Uint, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Schema{Type: TypeString("integer"), Minimum: float64Ptr(0)}

	case reflect.Uint8:
		return &Schema{Type: TypeString("integer"), Minimum: float64Ptr(0), Maximum: float64Ptr(255)}

	case reflect.Float32, reflect.Float64:
		return &Schema{Type: TypeString("number")}

	case reflect.String:
		return &Schema{Type: TypeString("string")}

	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return &Schema{Type: TypeString("string"), Format: "byte"}
		}
		return &Schema{
			Type:  TypeString("array"),
			Items: g.generateType(t.Elem()),
		}

	case reflect.Array:
		return &Schema{
			Type:     TypeString("array"),
			Items:    g.generateType(t.Elem()),
			MinItems: intPtr(t.Len()),
			MaxItems: intPtr(t.Len()),
		}

	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return &Schema{Type: TypeString("object")}
		}
		return &Schema{
			Type:                 TypeString("object"),
			AdditionalProperties: g.generateType(t.Elem()),
		}

	case reflect.Struct:
		return g.generateStructSchema(t)

	case reflect.Interface:
		return &Schema{}
	}

	return nil
}

// generateStructSchema builds an object schema from struct fields.
func (g *SchemaGenerator) generateStructSchema(t reflect.Type) *Schema {
	schema := &Schema{
		Type:       TypeString("object"),
		Properties: make(map[string]*Schema),
	}

	g.collectFields(t, schema)

	if len(schema.Properties) == 0 {
		schema.Properties = nil
	}

	return schema
}

// collectFields collects exported struct fields into the schema. Embedded
// structs without a json name are inlined the way encoding/json does it.
func (g *SchemaGenerator) collectFields(t reflect.Type, schema *Schema) {
	for i := range t.NumField() {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}
		name, omitempty := parseJSONTag(jsonTag)

		if field.Anonymous && name == "" && field.Type.Kind() == reflect.Struct {
			g.collectFields(field.Type, schema)
			continue
		}

		if name == "" {
			name = field.Name
		}

		fieldSchema := g.generateType(field.Type)
		if fieldSchema == nil {
			continue
		}

		applyOpenAPITag(fieldSchema, field.Tag.Get("openapi"))

		schema.Properties[name] = fieldSchema
		if !omitempty {
			schema.Required = append(schema.Required, name)
		}
	}
}

func parseJSONTag(tag string) (string, bool) {
	if tag == "" {
		return "", false
	}
	name, rest, _ := strings.Cut(tag, ",")
	return name, strings.Contains(rest, "omitempty") || strings.Contains(rest, "omitzero")
}

// applyOpenAPITag parses the `openapi` struct tag and applies constraints to
// the schema. Unknown keys and malformed numbers are ignored.
//
//	A uint8 `json:"a" openapi:"description=Counter,minimum=1"`
func applyOpenAPITag(schema *Schema, tag string) {
	if tag == "" || schema.Ref != "" {
		return
	}

	for part := range strings.SplitSeq(tag, ",") {
		key, value, _ := strings.Cut(part, "=")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "title":
			schema.Title = value
		case "description":
			schema.Description = value
		case "example":
			schema.Example = parseExampleValue(schema, value)
		case "format":
			schema.Format = value
		case "pattern":
			schema.Pattern = value
		case "deprecated":
			schema.Deprecated = true
		case "readOnly":
			schema.ReadOnly = true
		case "writeOnly":
			schema.WriteOnly = true
		case "minimum":
			if v, err := strconv.ParseFloat(value, 64); err == nil {
				schema.Minimum = &v
			}
		case "maximum":
			if v, err := strconv.ParseFloat(value, 64); err == nil {
				schema.Maximum = &v
			}
		case "minLength":
			if v, err := strconv.Atoi(value); err == nil {
				schema.MinLength = &v
			}
		case "maxLength":
			if v, err := strconv.Atoi(value); err == nil {
				schema.MaxLength = &v
			}
		case "minItems":
			if v, err := strconv.Atoi(value); err == nil {
				schema.MinItems = &v
			}
		case "maxItems":
			if v, err := strconv.Atoi(value); err == nil {
				schema.MaxItems = &v
			}
		case "enum":
			values := strings.Split(value, "|")
			schema.Enum = make([]any, len(values))
			for i, v := range values {
				schema.Enum[i] = parseExampleValue(schema, v)
			}
		}
	}
}

// parseExampleValue converts a tag value to the Go type matching the
// schema's first type.
func parseExampleValue(schema *Schema, value string) any {
	types := schema.Type.Values()
	if len(types) == 0 {
		return value
	}

	switch types[0] {
	case "integer":
		if v, err := strconv.ParseInt(value, 10, 64); err == nil {
			return v
		}
	case "number":
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			return v
		}
	case "boolean":
		if v, err := strconv.ParseBool(value); err == nil {
			return v
		}
	}
	return value
}

// schemaName returns the component name for t. SchemaNamer wins; otherwise
// the Go type name is used, prefixed with the package name when another
// type already claimed it.
func (g *SchemaGenerator) schemaName(t reflect.Type) string {
	if name, ok := g.typeNames[t]; ok {
		return name
	}

	var name string
	if t.Implements(schemaNamerType) {
		name = reflect.Zero(t).Interface().(SchemaNamer).OpenAPISchemaName()
	}

	if name == "" {
		name = t.Name()
		if existing, ok := g.nameTypes[name]; ok && existing != t {
			base := pkgPrefix(t.PkgPath()) + name
			name = base
			for i := 2; g.nameTypes[name] != nil; i++ {
				name = base + strconv.Itoa(i)
			}
		}
	}

	g.typeNames[t] = name
	if _, ok := g.nameTypes[name]; !ok {
		g.nameTypes[name] = t
	}
	return name
}

// pkgPrefix capitalizes the last segment of a Go package path
// (e.g., "net/http" -> "Http").
func pkgPrefix(pkgPath string) string {
	if idx := strings.LastIndexByte(pkgPath, '/'); idx >= 0 {
		pkgPath = pkgPath[idx+1:]
	}
	if pkgPath == "" {
		return ""
	}
	pkgPath = strings.NewReplacer("-", "_", ".", "_").Replace(pkgPath)
	return strings.ToUpper(pkgPath[:1]) + pkgPath[1:]
}

// applyNullable converts the type to an array including "null",
// the Draft 2020-12 replacement for the OpenAPI 3.0 nullable keyword.
func applyNullable(schema *Schema) {
	types := schema.Type.Values()
	if len(types) > 0 {
		schema.Type = TypeArray(append(types, "null")...)
	}
}

func float64Ptr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }
