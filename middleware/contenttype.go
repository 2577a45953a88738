package middleware

import (
	"errors"
	"mime"
	"net/http"
	"strings"
)

// ErrNoAllowedTypes is returned when ContentTypeCheckConfig.AllowedTypes is
// empty.
var ErrNoAllowedTypes = errors.New("content type check: at least one allowed content type is required")

// ContentTypeCheckConfig configures the Content-Type Check middleware behaviour.
type ContentTypeCheckConfig struct {
	// AllowedTypes are matched case-insensitively, ignoring parameters.
	AllowedTypes []string

	// Methods that carry a body to check. Defaults to POST, PUT and PATCH.
	Methods []string
}

var defaultCheckedMethods = []string{
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
}

// ContentTypeCheckMiddleware returns a middleware that answers 415 when a
// request with a checked method has a missing, malformed or disallowed
// Content-Type.
func ContentTypeCheckMiddleware(cfg ContentTypeCheckConfig) (func(http.Handler) http.Handler, error) {
	if len(cfg.AllowedTypes) == 0 {
		return nil, ErrNoAllowedTypes
	}

	methods := cfg.Methods
	if methods == nil {
		methods = defaultCheckedMethods
	}

	methodSet := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		methodSet[m] = struct{}{}
	}

	allowed := make(map[string]struct{}, len(cfg.AllowedTypes))
	for _, t := range cfg.AllowedTypes {
		allowed[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	expected := strings.Join(cfg.AllowedTypes, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, check := methodSet[r.Method]; !check {
				next.ServeHTTP(w, r)
				return
			}

			mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if err == nil {
				_, ok := allowed[strings.ToLower(mediaType)]
				if ok {
					next.ServeHTTP(w, r)
					return
				}
			}

			WriteError(w, http.StatusUnsupportedMediaType, CodeUnsupportedMediaType, "content type must be "+expected)
		})
	}, nil
}
