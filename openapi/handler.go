package openapi

import (
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"
)

// DocsUI selects an HTML reference page rendered from the served document.
type DocsUI int

const (
	DocsRedoc DocsUI = iota
	DocsRapiDoc
)

// HandleConfig configures the endpoints registered by Mount. Every path
// can be set to "-" to disable the endpoint.
type HandleConfig struct {
	// Title is the HTML page title (default: "API Reference").
	Title string

	// JSONPath serves the JSON document (default: "/openapi.json").
	JSONPath string

	// YAMLPath serves the YAML document (default: "/openapi.yaml").
	YAMLPath string

	// RedocPath serves the Redoc page (default: "/redoc").
	RedocPath string

	// RapiDocPath serves the RapiDoc page (default: "/rapidoc").
	RapiDocPath string

	// SwaggerPath is the prefix of the Swagger UI (default: "/swagger").
	SwaggerPath string

	// Logger receives serialization failures (default: slog.Default()).
	Logger *slog.Logger
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func (cfg HandleConfig) withDefaults() HandleConfig {
	cfg.Title = orDefault(cfg.Title, "API Reference")
	cfg.JSONPath = orDefault(cfg.JSONPath, "/openapi.json")
	cfg.YAMLPath = orDefault(cfg.YAMLPath, "/openapi.yaml")
	cfg.RedocPath = orDefault(cfg.RedocPath, "/redoc")
	cfg.RapiDocPath = orDefault(cfg.RapiDocPath, "/rapidoc")
	cfg.SwaggerPath = strings.TrimRight(orDefault(cfg.SwaggerPath, "/swagger"), "/")
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return cfg
}

// Mount registers the document and reference page endpoints on r:
//
//	<JSONPath>       - document as JSON
//	<YAMLPath>       - document as YAML
//	<RedocPath>      - Redoc page
//	<RapiDocPath>    - RapiDoc page
//	<SwaggerPath>/*  - Swagger UI
//
// The reference pages load the JSON document, or the YAML one when JSON is
// disabled. With both disabled no page is registered. Pass nil for defaults.
func Mount(r chi.Router, cache *DocumentCache, cfg *HandleConfig) {
	if cfg == nil {
		cfg = &HandleConfig{}
	}
	c := cfg.withDefaults()

	var specURL string
	if c.YAMLPath != "-" {
		specURL = c.YAMLPath
		r.Get(c.YAMLPath, DocumentHandler(cache, EncodingYAML, c.Logger))
	}
	if c.JSONPath != "-" {
		specURL = c.JSONPath
		r.Get(c.JSONPath, DocumentHandler(cache, EncodingJSON, c.Logger))
	}

	if specURL == "" {
		return
	}

	if c.RedocPath != "-" {
		r.Get(c.RedocPath, DocsHandler(DocsRedoc, c.Title, specURL))
	}
	if c.RapiDocPath != "-" {
		r.Get(c.RapiDocPath, DocsHandler(DocsRapiDoc, c.Title, specURL))
	}
	if c.SwaggerPath != "-" {
		index := c.SwaggerPath + "/index.html"
		r.Get(c.SwaggerPath, http.RedirectHandler(index, http.StatusMovedPermanently).ServeHTTP)
		r.Get(c.SwaggerPath+"/", http.RedirectHandler(index, http.StatusMovedPermanently).ServeHTTP)
		r.Get(c.SwaggerPath+"/*", httpSwagger.Handler(httpSwagger.URL(specURL)))
	}
}

// DocumentHandler serves one encoding of the cached document. The bytes are
// computed on the first request unless the cache was warmed. Responses carry
// a strong ETag and conditional requests are answered with 304.
//
// See: https://spec.openapis.org/oas/v3.1.0#openapi-document
func DocumentHandler(cache *DocumentCache, enc Encoding, logger *slog.Logger) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(w http.ResponseWriter, r *http.Request) {
		data, err := cache.Get(enc)
		if err != nil {
			logger.Error("failed to serialize OpenAPI document",
				"encoding", string(enc),
				"error", err,
			)
			http.Error(w, fmt.Sprintf("failed to serialize OpenAPI document as %s", strings.ToUpper(string(enc))), http.StatusInternalServerError)
			return
		}

		etag, _ := cache.ETag(enc)
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "no-cache")

		if etagMatch(r.Header.Get("If-None-Match"), etag) {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		w.Header().Set("Content-Type", enc.ContentType())
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

// etagMatch reports whether an If-None-Match header value matches etag.
// Weak comparison is used as required for If-None-Match.
func etagMatch(header, etag string) bool {
	if header == "" {
		return false
	}
	for candidate := range strings.SplitSeq(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

// DocsHandler serves a static HTML reference page that loads specURL.
func DocsHandler(ui DocsUI, title, specURL string) http.HandlerFunc {
	var page []byte
	switch ui {
	case DocsRapiDoc:
		page = []byte(rapidocTemplate(title, specURL))
	default:
		page = []byte(redocTemplate(title, specURL))
	}

	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(page)
	}
}

func rapidocTemplate(title, specPath string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>%s</title>
<script type="module" src="https://unpkg.com/rapidoc/dist/rapidoc-min.js"></script>
</head>
<body>
<rapi-doc spec-url=%q render-style="read"></rapi-doc>
</body>
</html>`, html.EscapeString(title), specPath)
}

func redocTemplate(title, specPath string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>%s</title>
<style>body { margin: 0; padding: 0; }</style>
</head>
<body>
<redoc spec-url=%q></redoc>
<script src="https://cdn.redoc.ly/redoc/latest/bundles/redoc.standalone.js"></script>
</body>
</html>`, html.EscapeString(title), specPath)
}
