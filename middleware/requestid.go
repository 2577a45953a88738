package middleware

import (
	"context"
	"net/http"
	"regexp"

	"github.com/google/uuid"
)

// DefaultRequestIDHeader carries the request ID in both directions.
const DefaultRequestIDHeader = "X-Request-ID"

// incomingRequestID is the accepted shape of a client supplied ID.
var incomingRequestID = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

type requestIDKey struct{}

// RequestIDFromContext returns the request ID stored by RequestIDMiddleware,
// or "" when there is none.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// RequestIDConfig configures the Request ID middleware behaviour.
type RequestIDConfig struct {
	// HeaderName defaults to DefaultRequestIDHeader.
	HeaderName string

	// Generate returns a new ID. Defaults to a time-ordered UUID v7.
	Generate func() string

	// TrustIncoming reuses a well-formed ID sent by the client.
	TrustIncoming bool
}

// RequestIDMiddleware returns a middleware that assigns every request an ID.
// The ID is stored in the request context and echoed in the response header.
func RequestIDMiddleware(cfg RequestIDConfig) func(http.Handler) http.Handler {
	header := cfg.HeaderName
	if header == "" {
		header = DefaultRequestIDHeader
	}

	generate := cfg.Generate
	if generate == nil {
		generate = newRequestID
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string
			if cfg.TrustIncoming {
				if incoming := r.Header.Get(header); incomingRequestID.MatchString(incoming) {
					id = incoming
				}
			}
			if id == "" {
				id = generate()
			}

			w.Header().Set(header, id)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
		})
	}
}

// newRequestID returns a UUID v7, falling back to v4 if the clock source fails.
//
// See: https://www.rfc-editor.org/rfc/rfc9562#section-5.7
func newRequestID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
