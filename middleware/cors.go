package middleware

import (
	"errors"
	"net/http"
	"slices"

	"github.com/go-chi/cors"
)

// ErrWildcardCredentials is returned when AllowedOrigins contains "*" and
// AllowCredentials is true.
var ErrWildcardCredentials = errors.New("cors: wildcard origin \"*\" cannot be used with AllowCredentials")

// CORSConfig configures the CORS middleware behaviour.
//
// See: https://fetch.spec.whatwg.org/#http-cors-protocol
type CORSConfig struct {
	// AllowedOrigins lists exact origins, "*", or patterns such as
	// "https://*.example.com".
	AllowedOrigins []string

	// AllowedMethods defaults to GET, POST and OPTIONS.
	AllowedMethods []string

	// AllowedHeaders defaults to Accept, Content-Type and the request ID
	// header.
	AllowedHeaders []string

	ExposedHeaders   []string
	AllowCredentials bool

	// MaxAge of a preflight result in seconds.
	MaxAge int
}

// CORSMiddleware returns a go-chi/cors handler for cfg. With no allowed
// origins the returned middleware is a no-op.
func CORSMiddleware(cfg CORSConfig) (func(http.Handler) http.Handler, error) {
	if len(cfg.AllowedOrigins) == 0 {
		return func(next http.Handler) http.Handler { return next }, nil
	}
	if cfg.AllowCredentials && slices.Contains(cfg.AllowedOrigins, "*") {
		return nil, ErrWildcardCredentials
	}

	methods := cfg.AllowedMethods
	if len(methods) == 0 {
		methods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	}

	headers := cfg.AllowedHeaders
	if len(headers) == 0 {
		headers = []string{"Accept", "Content-Type", DefaultRequestIDHeader}
	}

	exposed := cfg.ExposedHeaders
	if len(exposed) == 0 {
		exposed = []string{"ETag", DefaultRequestIDHeader}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   methods,
		AllowedHeaders:   headers,
		ExposedHeaders:   exposed,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}), nil
}
