package openapi

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func noop(http.ResponseWriter, *http.Request) {}

func newTestRouter() chi.Router {
	r := chi.NewRouter()
	r.Route("/v1", func(r chi.Router) {
		r.Post("/items", noop)
		r.Get("/items/{id:[0-9]+}", noop)
		r.Get("/items/{id:[0-9]+}/tags/{tag}", noop)
	})
	r.Get("/healthz", noop)
	return r
}

func newTestSpec() *Spec {
	spec := NewSpec(Info{Title: "Test API", Version: "1.0.0"})
	spec.Op(http.MethodPost, "/v1/items").
		OperationID("createItem").
		Tags("items").
		Request(item{}).
		Response(http.StatusCreated, item{})
	spec.Op(http.MethodGet, "/v1/items/{id:[0-9]+}").
		OperationID("getItem").
		Tags("items").
		Response(http.StatusOK, item{})
	spec.Op(http.MethodGet, "/v1/items/{id:[0-9]+}/tags/{tag}").
		OperationID("getItemTag").
		Tags("tags").
		Response(http.StatusNoContent, nil)
	return spec
}

func TestSpecBuild(t *testing.T) {
	doc, err := newTestSpec().Build(newTestRouter())
	require.NoError(t, err)

	assert.Equal(t, "3.1.0", doc.OpenAPI)
	assert.Equal(t, "Test API", doc.Info.Title)

	t.Run("paths", func(t *testing.T) {
		assert.Len(t, doc.Paths, 3)
		require.Contains(t, doc.Paths, "/v1/items")
		assert.NotNil(t, doc.Paths["/v1/items"].Post)
		assert.Contains(t, doc.Paths, "/v1/items/{id}")
		assert.Contains(t, doc.Paths, "/v1/items/{id}/tags/{tag}")
		assert.NotContains(t, doc.Paths, "/healthz")
	})

	t.Run("path parameters", func(t *testing.T) {
		params := doc.Paths["/v1/items/{id}/tags/{tag}"].Get.Parameters
		require.Len(t, params, 2)

		assert.Equal(t, "id", params[0].Name)
		assert.Equal(t, "path", params[0].In)
		assert.True(t, params[0].Required)
		assert.Equal(t, TypeString("integer"), params[0].Schema.Type)

		assert.Equal(t, "tag", params[1].Name)
		assert.Equal(t, TypeString("string"), params[1].Schema.Type)
	})

	t.Run("components", func(t *testing.T) {
		require.NotNil(t, doc.Components)
		assert.Len(t, doc.Components.Schemas, 1)
		assert.Contains(t, doc.Components.Schemas, "item")
	})

	t.Run("tags", func(t *testing.T) {
		assert.Equal(t, []Tag{{Name: "items"}, {Name: "tags"}}, doc.Tags)
	})
}

func TestSpecBuildErrors(t *testing.T) {
	t.Run("nil router", func(t *testing.T) {
		_, err := newTestSpec().Build(nil)
		assert.ErrorIs(t, err, ErrNilRouter)
	})

	t.Run("unknown route", func(t *testing.T) {
		spec := newTestSpec()
		spec.Op(http.MethodDelete, "/v1/items/{id:[0-9]+}")

		_, err := spec.Build(newTestRouter())
		assert.ErrorIs(t, err, ErrUnknownRoute)
		assert.ErrorContains(t, err, "DELETE /v1/items/{id:[0-9]+}")
	})

	t.Run("pattern must match the router", func(t *testing.T) {
		spec := NewSpec(Info{Title: "T", Version: "1"})
		spec.Op(http.MethodGet, "/v1/items/{id}")

		_, err := spec.Build(newTestRouter())
		assert.ErrorIs(t, err, ErrUnknownRoute)
	})
}

func TestSpecOp(t *testing.T) {
	spec := NewSpec(Info{Title: "T", Version: "1"})

	a := spec.Op("post", "/v1/items")
	b := spec.Op(http.MethodPost, "/v1/items")
	assert.Same(t, a, b)

	doc, err := spec.Build(newTestRouter())
	require.NoError(t, err)
	assert.NotNil(t, doc.Paths["/v1/items"].Post)
}

func TestSpecDocumentLevel(t *testing.T) {
	spec := newTestSpec().
		AddServer(Server{URL: "https://api.example.com"}).
		AddSecurityScheme("key", &SecurityScheme{Type: "apiKey", Name: "X-Key", In: "header"}).
		SetSecurity(SecurityRequirement{"key": {}}).
		AddTag(Tag{Name: "items", Description: "Item operations"}).
		AddTag(Tag{Name: "unused"}).
		SetExternalDocs("https://example.com", "More").
		SetPathSummary("/v1/items", "Items").
		SetPathDescription("/v1/items", "Item collection").
		AddComponentResponse("NotFound", &Response{Description: "Not found"})

	doc, err := spec.Build(newTestRouter())
	require.NoError(t, err)

	assert.Equal(t, []Server{{URL: "https://api.example.com"}}, doc.Servers)
	assert.Contains(t, doc.Components.SecuritySchemes, "key")
	assert.Contains(t, doc.Components.Responses, "NotFound")
	assert.Equal(t, []SecurityRequirement{{"key": {}}}, doc.Security)
	assert.Equal(t, "https://example.com", doc.ExternalDocs.URL)
	assert.Equal(t, "Items", doc.Paths["/v1/items"].Summary)
	assert.Equal(t, "Item collection", doc.Paths["/v1/items"].Description)

	assert.Equal(t, []Tag{
		{Name: "items", Description: "Item operations"},
		{Name: "tags"},
		{Name: "unused"},
	}, doc.Tags)
}

func TestSpecBuildDeterministic(t *testing.T) {
	first, err := newTestSpec().Build(newTestRouter())
	require.NoError(t, err)
	second, err := newTestSpec().Build(newTestRouter())
	require.NoError(t, err)

	a, err := MarshalJSON(first)
	require.NoError(t, err)
	b, err := MarshalJSON(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSpecBuildEmpty(t *testing.T) {
	doc, err := NewSpec(Info{Title: "T", Version: "1"}).Build(newTestRouter())
	require.NoError(t, err)
	assert.Empty(t, doc.Paths)
	assert.Nil(t, doc.Components)
	assert.Nil(t, doc.Tags)
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		path    string
		params  []*Parameter
	}{
		{
			name:    "static",
			pattern: "/v1/foo",
			path:    "/v1/foo",
		},
		{
			name:    "plain variable",
			pattern: "/users/{name}",
			path:    "/users/{name}",
			params: []*Parameter{
				{Name: "name", In: "path", Required: true, Schema: &Schema{Type: TypeString("string")}},
			},
		},
		{
			name:    "digit regexp",
			pattern: `/users/{id:\d+}`,
			path:    "/users/{id}",
			params: []*Parameter{
				{Name: "id", In: "path", Required: true, Schema: &Schema{Type: TypeString("integer")}},
			},
		},
		{
			name:    "regexp with quantifier braces",
			pattern: "/codes/{code:[a-z]{3}}/x",
			path:    "/codes/{code}/x",
			params: []*Parameter{
				{Name: "code", In: "path", Required: true, Schema: &Schema{Type: TypeString("string"), Pattern: "^[a-z]{3}$"}},
			},
		},
		{
			name:    "unbalanced brace is kept",
			pattern: "/x/{broken",
			path:    "/x/{broken",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, params := parsePath(tt.pattern)
			assert.Equal(t, tt.path, path)
			assert.Equal(t, tt.params, params)
		})
	}
}

func TestAssignOperation(t *testing.T) {
	methods := []string{
		http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete,
		http.MethodPatch, http.MethodHead, http.MethodOptions,
	}

	pathItem := &PathItem{}
	for _, m := range methods {
		assert.True(t, assignOperation(pathItem, m, &Operation{OperationID: m}))
	}
	assert.Len(t, pathItem.operations(), len(methods))
	assert.False(t, assignOperation(pathItem, http.MethodConnect, &Operation{}))
}
