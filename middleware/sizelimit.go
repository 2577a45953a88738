package middleware

import (
	"errors"
	"net/http"
)

// ErrInvalidMaxSize is returned when RequestSizeLimitConfig.MaxBytes is not
// greater than zero.
var ErrInvalidMaxSize = errors.New("request size limit: max size must be greater than zero")

// RequestSizeLimitConfig configures the Request Size Limit middleware behaviour.
type RequestSizeLimitConfig struct {
	MaxBytes int64
}

// RequestSizeLimitMiddleware returns a middleware that caps request bodies.
// A declared Content-Length above the limit is rejected with 413 before the
// handler runs; otherwise the body is wrapped with http.MaxBytesReader and
// the handler sees an *http.MaxBytesError once it reads past the limit.
func RequestSizeLimitMiddleware(cfg RequestSizeLimitConfig) (func(http.Handler) http.Handler, error) {
	if cfg.MaxBytes <= 0 {
		return nil, ErrInvalidMaxSize
	}

	maxBytes := cfg.MaxBytes

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				WriteError(w, http.StatusRequestEntityTooLarge, CodeBodyTooLarge, "request body too large")
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}, nil
}
