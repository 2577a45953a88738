// Package openapi generates an OpenAPI v3.1.0 document from chi routes using
// Go reflection and struct tags, and serves it from a memoizing cache.
//
// Schemas follow JSON Schema Draft 2020-12.
//
// See: https://spec.openapis.org/oas/v3.1.0
// See: https://json-schema.org/draft/2020-12/json-schema-validation
//
// # Spec Builder
//
// Register routes on a chi router as usual, then attach metadata by HTTP
// method and the full route pattern:
//
//	r := chi.NewRouter()
//	r.Route("/v1", func(r chi.Router) {
//	    r.Post("/items", createItem)
//	    r.Get("/items/{id:[0-9]+}", getItem)
//	})
//
//	spec := openapi.NewSpec(openapi.Info{Title: "Items", Version: "1.0.0"})
//	spec.Op(http.MethodPost, "/v1/items").
//	    OperationID("createItem").
//	    Tags("items").
//	    Request(Item{}).
//	    Response(http.StatusCreated, Item{})
//	spec.Op(http.MethodGet, "/v1/items/{id:[0-9]+}").
//	    Response(http.StatusOK, Item{})
//
//	doc, err := spec.Build(r)
//
// Build walks the router with chi.Walk. Routes without metadata are left out
// of the document; metadata for a route the router does not serve fails with
// ErrUnknownRoute. Path variables become path parameters; a digit-only
// regexp such as {id:[0-9]+} is typed as integer, other regexps become a
// pattern.
//
// # Schemas
//
// Named struct types are stored under components/schemas and referenced via
// $ref. The json tag gives the property name; omitempty makes it optional.
// The openapi tag adds constraints:
//
//	type Item struct {
//	    ID   int64  `json:"id" openapi:"description=Item ID,readOnly"`
//	    Name string `json:"name" openapi:"minLength=1,maxLength=64"`
//	    Kind string `json:"kind,omitempty" openapi:"enum=a|b|c"`
//	}
//
// A type implementing Exampler supplies a whole-object example. A type
// implementing Schemer supplies its schema by hand instead of reflection,
// and SchemaNamer overrides the component name.
//
// # Document Cache
//
// A built Document is immutable. DocumentCache serializes it at most once
// per encoding, either up front with Warm or on the first Get:
//
//	cache := openapi.NewDocumentCache(doc)
//	if err := cache.Warm(); err != nil {
//	    return err
//	}
//
// Concurrent first callers share one computation and receive the same
// bytes. Errors and encoder panics are remembered, never retried.
//
// # Serving
//
// Mount registers the JSON and YAML endpoints plus Redoc, RapiDoc and
// Swagger UI pages on a chi router:
//
//	openapi.Mount(r, cache, nil)
//	// /openapi.json, /openapi.yaml, /redoc, /rapidoc, /swagger/*
//
// # Validation
//
// Validate loads the document with kin-openapi and checks component
// examples against their schemas. Load returns the kin-openapi model for
// request validation middleware.
package openapi
