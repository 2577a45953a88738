package openapi

import (
	"cmp"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"
)

var (
	// ErrNilRouter is returned by Build when no router is given.
	ErrNilRouter = errors.New("openapi: router is nil")

	// ErrUnknownRoute is returned by Build when metadata was registered for
	// a method and pattern the router does not serve.
	ErrUnknownRoute = errors.New("openapi: metadata for unknown route")

	// ErrUnsupportedMethod is returned by Build for methods a Path Item
	// Object cannot hold (e.g. CONNECT).
	ErrUnsupportedMethod = errors.New("openapi: unsupported method")
)

// OpenAPIVersion is the version written to the "openapi" field.
const OpenAPIVersion = "3.1.0"

// integerPatterns are chi route regexps that only admit integers.
var integerPatterns = map[string]bool{
	`[0-9]+`:      true,
	`\d+`:         true,
	`[1-9][0-9]*`: true,
}

type routeKey struct {
	method  string
	pattern string
}

func (k routeKey) String() string {
	return k.method + " " + k.pattern
}

// Spec collects OpenAPI metadata for chi routes and builds a Document.
// A Spec is not safe for concurrent registration; build it during startup.
type Spec struct {
	info    Info
	servers []Server

	routes     map[routeKey]*OperationBuilder
	routeOrder []routeKey

	pathSummaries    map[string]string
	pathDescriptions map[string]string

	externalDocs    *ExternalDocs
	security        []SecurityRequirement
	tags            []Tag
	securitySchemes map[string]*SecurityScheme
	compResponses   map[string]*Response
}

// NewSpec creates a new spec builder with the given API info.
func NewSpec(info Info) *Spec {
	return &Spec{
		info:   info,
		routes: make(map[routeKey]*OperationBuilder),
	}
}

// Info returns the API info the spec was created with.
func (s *Spec) Info() Info {
	return s.info
}

// AddServer adds a server to the document.
func (s *Spec) AddServer(server Server) *Spec {
	s.servers = append(s.servers, server)
	return s
}

// SetPathSummary sets a summary for an OpenAPI path (e.g. "/users/{id}").
func (s *Spec) SetPathSummary(path, summary string) *Spec {
	if s.pathSummaries == nil {
		s.pathSummaries = make(map[string]string)
	}
	s.pathSummaries[path] = summary
	return s
}

// SetPathDescription sets a description for an OpenAPI path.
func (s *Spec) SetPathDescription(path, description string) *Spec {
	if s.pathDescriptions == nil {
		s.pathDescriptions = make(map[string]string)
	}
	s.pathDescriptions[path] = description
	return s
}

// SetExternalDocs sets the document-level external documentation link.
func (s *Spec) SetExternalDocs(url, description string) *Spec {
	s.externalDocs = &ExternalDocs{URL: url, Description: description}
	return s
}

// SetSecurity sets the document-level security requirements.
func (s *Spec) SetSecurity(reqs ...SecurityRequirement) *Spec {
	s.security = reqs
	return s
}

// AddTag adds a tag with a description or external docs. Tags used by
// operations are collected automatically.
func (s *Spec) AddTag(tag Tag) *Spec {
	s.tags = append(s.tags, tag)
	return s
}

// AddSecurityScheme registers a reusable security scheme in components.
func (s *Spec) AddSecurityScheme(name string, scheme *SecurityScheme) *Spec {
	if s.securitySchemes == nil {
		s.securitySchemes = make(map[string]*SecurityScheme)
	}
	s.securitySchemes[name] = scheme
	return s
}

// AddComponentResponse registers a reusable response in components.
func (s *Spec) AddComponentResponse(name string, resp *Response) *Spec {
	if s.compResponses == nil {
		s.compResponses = make(map[string]*Response)
	}
	s.compResponses[name] = resp
	return s
}

// Op returns the OperationBuilder for a route identified by HTTP method and
// the full chi pattern as reported by chi.Walk (e.g. "/v1/items/{id}").
// Repeated calls with the same route return the same builder.
func (s *Spec) Op(method, pattern string) *OperationBuilder {
	key := routeKey{method: strings.ToUpper(method), pattern: pattern}
	if b, ok := s.routes[key]; ok {
		return b
	}
	b := newOperationBuilder()
	s.routes[key] = b
	s.routeOrder = append(s.routeOrder, key)
	return b
}

// Build walks the router and assembles a complete Document. Routes without
// metadata are left out. Metadata registered for a route the router does
// not serve is reported as ErrUnknownRoute.
func (s *Spec) Build(r chi.Routes) (*Document, error) {
	if r == nil {
		return nil, ErrNilRouter
	}

	gen := NewSchemaGenerator()
	doc := &Document{
		OpenAPI:      OpenAPIVersion,
		Info:         s.info,
		Servers:      s.servers,
		Paths:        make(map[string]*PathItem),
		ExternalDocs: s.externalDocs,
		Security:     s.security,
	}

	mounted := make(map[routeKey]bool, len(s.routes))
	err := chi.Walk(r, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		key := routeKey{method: method, pattern: route}
		if _, ok := s.routes[key]; ok {
			mounted[key] = true
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("openapi: walk routes: %w", err)
	}

	// Registration order keeps schema naming deterministic.
	for _, key := range s.routeOrder {
		if !mounted[key] {
			return nil, fmt.Errorf("%w: %s", ErrUnknownRoute, key)
		}

		openAPIPath, pathParams := parsePath(key.pattern)
		pathItem, ok := doc.Paths[openAPIPath]
		if !ok {
			pathItem = &PathItem{}
			doc.Paths[openAPIPath] = pathItem
		}

		op := s.routes[key].buildOperation(gen, pathParams)
		if !assignOperation(pathItem, key.method, op) {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, key)
		}
	}

	for path, summary := range s.pathSummaries {
		if pathItem, ok := doc.Paths[path]; ok {
			pathItem.Summary = summary
		}
	}
	for path, description := range s.pathDescriptions {
		if pathItem, ok := doc.Paths[path]; ok {
			pathItem.Description = description
		}
	}

	doc.Components = s.buildComponents(gen)
	doc.Tags = s.mergeTags(doc.Paths)

	return doc, nil
}

// buildComponents assembles the Components object, or nil when empty.
func (s *Spec) buildComponents(gen *SchemaGenerator) *Components {
	schemas := gen.Schemas()
	if len(schemas) == 0 && len(s.securitySchemes) == 0 && len(s.compResponses) == 0 {
		return nil
	}

	comp := &Components{}
	if len(schemas) > 0 {
		comp.Schemas = schemas
	}
	if len(s.securitySchemes) > 0 {
		comp.SecuritySchemes = s.securitySchemes
	}
	if len(s.compResponses) > 0 {
		comp.Responses = s.compResponses
	}
	return comp
}

// mergeTags combines tags used by operations with user-defined tags. User
// definitions win; unused user tags are kept. The result is sorted by name.
func (s *Spec) mergeTags(paths map[string]*PathItem) []Tag {
	userTags := make(map[string]Tag, len(s.tags))
	for _, tag := range s.tags {
		userTags[tag.Name] = tag
	}

	seen := make(map[string]bool)
	var tags []Tag
	add := func(tag Tag) {
		if seen[tag.Name] {
			return
		}
		seen[tag.Name] = true
		tags = append(tags, tag)
	}

	for _, pathItem := range paths {
		for _, op := range pathItem.operations() {
			for _, name := range op.Tags {
				if userTag, ok := userTags[name]; ok {
					add(userTag)
				} else {
					add(Tag{Name: name})
				}
			}
		}
	}
	for _, tag := range s.tags {
		add(tag)
	}

	slices.SortFunc(tags, func(a, b Tag) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return tags
}

// assignOperation sets op on the path item field for method. It reports
// false for methods the path item cannot hold.
func assignOperation(pathItem *PathItem, method string, op *Operation) bool {
	switch method {
	case http.MethodGet:
		pathItem.Get = op
	case http.MethodPost:
		pathItem.Post = op
	case http.MethodPut:
		pathItem.Put = op
	case http.MethodDelete:
		pathItem.Delete = op
	case http.MethodPatch:
		pathItem.Patch = op
	case http.MethodHead:
		pathItem.Head = op
	case http.MethodOptions:
		pathItem.Options = op
	default:
		return false
	}
	return true
}

// parsePath converts a chi pattern into an OpenAPI path and its path
// parameters. "{id}" becomes a string parameter, "{id:regexp}" a string
// parameter constrained by the regexp (integer for digit-only regexps).
// Braces inside a regexp (e.g. "{code:[a-z]{3}}") are balanced.
func parsePath(pattern string) (string, []*Parameter) {
	var (
		out    strings.Builder
		params []*Parameter
	)

	for i := 0; i < len(pattern); i++ {
		if pattern[i] != '{' {
			out.WriteByte(pattern[i])
			continue
		}

		depth, end := 0, -1
		for j := i; j < len(pattern); j++ {
			switch pattern[j] {
			case '{':
				depth++
			case '}':
				depth--
			}
			if depth == 0 {
				end = j
				break
			}
		}
		if end < 0 {
			out.WriteString(pattern[i:])
			break
		}

		name, rexpat, _ := strings.Cut(pattern[i+1:end], ":")
		params = append(params, pathParameter(name, rexpat))
		out.WriteString("{" + name + "}")
		i = end
	}

	return out.String(), params
}

func pathParameter(name, rexpat string) *Parameter {
	schema := &Schema{Type: TypeString("string")}
	switch {
	case rexpat == "":
	case integerPatterns[rexpat]:
		schema.Type = TypeString("integer")
	default:
		if _, err := regexp.Compile(rexpat); err == nil {
			schema.Pattern = "^" + rexpat + "$"
		}
	}

	return &Parameter{
		Name:     name,
		In:       "path",
		Required: true,
		Schema:   schema,
	}
}
