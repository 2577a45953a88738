// Package middleware provides the chi-compatible HTTP middleware of the
// service. Constructors that take a configuration validate it and return an
// error instead of panicking:
//
//	mw, err := middleware.ContentTypeCheckMiddleware(middleware.ContentTypeCheckConfig{
//	    AllowedTypes: []string{"application/json"},
//	})
//	if err != nil {
//	    return err
//	}
//	r.Use(mw)
//
// The usual order is request ID, access log, recovery, then request-specific
// checks, so that the access log carries the request ID and sees the 500
// written by recovery.
//
// Error responses written by this package share the JSON shape of ErrorBody.
package middleware
