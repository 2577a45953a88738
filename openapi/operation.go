package openapi

import (
	"maps"
	"net/http"
	"slices"
	"strconv"
)

const (
	contentTypeJSON = "application/json"
	defaultStatus   = "default"
)

// operationMeta stores metadata collected via the fluent builder
// before the document is built.
type operationMeta struct {
	operationID  string
	summary      string
	description  string
	tags         []string
	deprecated   bool
	parameters   []*Parameter
	security     []SecurityRequirement
	externalDocs *ExternalDocs

	requestContents      map[string]any            // contentType -> body
	requestDescription   string                    // request body description
	requestRequired      *bool                     // nil = default (true)
	responseContents     map[string]map[string]any // statusKey -> contentType -> body
	responseDescriptions map[string]string         // statusKey -> custom description
}

// OperationBuilder provides a fluent API for attaching OpenAPI metadata
// to a route. It assembles an Operation Object.
//
// See: https://spec.openapis.org/oas/v3.1.0#operation-object
type OperationBuilder struct {
	meta *operationMeta
}

func newOperationBuilder() *OperationBuilder {
	return &OperationBuilder{
		meta: &operationMeta{
			requestContents:      make(map[string]any),
			responseContents:     make(map[string]map[string]any),
			responseDescriptions: make(map[string]string),
		},
	}
}

// OperationID sets the operation ID.
func (b *OperationBuilder) OperationID(id string) *OperationBuilder {
	b.meta.operationID = id
	return b
}

// Summary sets the operation summary.
func (b *OperationBuilder) Summary(s string) *OperationBuilder {
	b.meta.summary = s
	return b
}

// Description sets the operation description. Markdown is allowed.
func (b *OperationBuilder) Description(d string) *OperationBuilder {
	b.meta.description = d
	return b
}

// Tags adds one or more tags to the operation.
func (b *OperationBuilder) Tags(tags ...string) *OperationBuilder {
	b.meta.tags = append(b.meta.tags, tags...)
	return b
}

// Deprecated marks the operation as deprecated.
func (b *OperationBuilder) Deprecated() *OperationBuilder {
	b.meta.deprecated = true
	return b
}

// Parameter adds a custom parameter. A parameter with the same name and
// location as a generated path parameter replaces it.
func (b *OperationBuilder) Parameter(param *Parameter) *OperationBuilder {
	b.meta.parameters = append(b.meta.parameters, param)
	return b
}

// Security sets operation-level security requirements.
func (b *OperationBuilder) Security(reqs ...SecurityRequirement) *OperationBuilder {
	b.meta.security = reqs
	return b
}

// ExternalDocs sets external documentation for the operation.
func (b *OperationBuilder) ExternalDocs(url, description string) *OperationBuilder {
	b.meta.externalDocs = &ExternalDocs{URL: url, Description: description}
	return b
}

// Request registers an application/json request body type.
func (b *OperationBuilder) Request(body any) *OperationBuilder {
	return b.RequestContent(contentTypeJSON, body)
}

// RequestContent registers a request body with the given content type.
// The body can be a Go value (schema derived via reflection or Schemer),
// a *Schema, or nil for a content type with no schema.
//
// See: https://spec.openapis.org/oas/v3.1.0#request-body-object
func (b *OperationBuilder) RequestContent(contentType string, body any) *OperationBuilder {
	b.meta.requestContents[contentType] = body
	return b
}

// RequestDescription sets the description for the request body.
func (b *OperationBuilder) RequestDescription(desc string) *OperationBuilder {
	b.meta.requestDescription = desc
	return b
}

// RequestRequired sets whether the request body is required (default true).
func (b *OperationBuilder) RequestRequired(required bool) *OperationBuilder {
	b.meta.requestRequired = &required
	return b
}

// Response registers an application/json response for the status code.
// Pass nil body for responses with no content.
//
// See: https://spec.openapis.org/oas/v3.1.0#responses-object
func (b *OperationBuilder) Response(statusCode int, body any) *OperationBuilder {
	key := strconv.Itoa(statusCode)
	if body == nil {
		b.meta.responseContents[key] = nil
		return b
	}
	return b.ResponseContent(statusCode, contentTypeJSON, body)
}

// ResponseContent registers a response with the given status code and
// content type.
func (b *OperationBuilder) ResponseContent(statusCode int, contentType string, body any) *OperationBuilder {
	b.addResponseContent(strconv.Itoa(statusCode), contentType, body)
	return b
}

// DefaultResponse registers an application/json response for the "default"
// status key.
func (b *OperationBuilder) DefaultResponse(body any) *OperationBuilder {
	if body == nil {
		b.meta.responseContents[defaultStatus] = nil
		return b
	}
	b.addResponseContent(defaultStatus, contentTypeJSON, body)
	return b
}

// ResponseDescription overrides the description derived from the HTTP
// status text.
func (b *OperationBuilder) ResponseDescription(statusCode int, desc string) *OperationBuilder {
	b.meta.responseDescriptions[strconv.Itoa(statusCode)] = desc
	return b
}

// DefaultResponseDescription overrides the description of the default response.
func (b *OperationBuilder) DefaultResponseDescription(desc string) *OperationBuilder {
	b.meta.responseDescriptions[defaultStatus] = desc
	return b
}

func (b *OperationBuilder) addResponseContent(key, contentType string, body any) {
	if b.meta.responseContents[key] == nil {
		b.meta.responseContents[key] = make(map[string]any)
	}
	b.meta.responseContents[key][contentType] = body
}

// mergeParameters combines generated path parameters with custom ones.
// Uniqueness is by name and location; custom parameters win.
func mergeParameters(auto, custom []*Parameter) []*Parameter {
	if len(auto) == 0 && len(custom) == 0 {
		return nil
	}

	overrides := make(map[[2]string]struct{}, len(custom))
	for _, p := range custom {
		overrides[[2]string{p.Name, p.In}] = struct{}{}
	}

	var merged []*Parameter
	for _, p := range auto {
		if _, ok := overrides[[2]string{p.Name, p.In}]; !ok {
			merged = append(merged, p)
		}
	}

	return append(merged, custom...)
}

// responseDescription returns a human-readable description for a response key.
func responseDescription(key string) string {
	if key == defaultStatus {
		return "Default response"
	}
	if code, err := strconv.Atoi(key); err == nil {
		if text := http.StatusText(code); text != "" {
			return text
		}
	}
	return key
}

// mediaTypes resolves bodies into media type objects. Keys are visited in
// sorted order so that component schema registration is deterministic.
func mediaTypes(gen *SchemaGenerator, contents map[string]any) map[string]*MediaType {
	out := make(map[string]*MediaType, len(contents))
	for _, ct := range slices.Sorted(maps.Keys(contents)) {
		out[ct] = &MediaType{Schema: gen.Generate(contents[ct])}
	}
	return out
}

// buildOperation converts the collected metadata into an Operation Object.
func (b *OperationBuilder) buildOperation(gen *SchemaGenerator, pathParams []*Parameter) *Operation {
	op := &Operation{
		OperationID:  b.meta.operationID,
		Summary:      b.meta.summary,
		Description:  b.meta.description,
		Tags:         b.meta.tags,
		Deprecated:   b.meta.deprecated,
		Security:     b.meta.security,
		ExternalDocs: b.meta.externalDocs,
		Parameters:   mergeParameters(pathParams, b.meta.parameters),
	}

	if len(b.meta.requestContents) > 0 {
		required := true
		if b.meta.requestRequired != nil {
			required = *b.meta.requestRequired
		}
		op.RequestBody = &RequestBody{
			Description: b.meta.requestDescription,
			Required:    required,
			Content:     mediaTypes(gen, b.meta.requestContents),
		}
	}

	if len(b.meta.responseContents) > 0 {
		op.Responses = make(map[string]*Response, len(b.meta.responseContents))
		for _, key := range slices.Sorted(maps.Keys(b.meta.responseContents)) {
			desc := responseDescription(key)
			if custom, ok := b.meta.responseDescriptions[key]; ok {
				desc = custom
			}
			resp := &Response{Description: desc}
			if contents := b.meta.responseContents[key]; len(contents) > 0 {
				resp.Content = mediaTypes(gen, contents)
			}
			op.Responses[key] = resp
		}
	}

	return op
}
