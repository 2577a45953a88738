package middleware

import (
	"net/http"
	"runtime/debug"
)

// RecoveryConfig configures the Recovery middleware behaviour.
type RecoveryConfig struct {
	// LogFunc is invoked with the request and the recovered value. When nil
	// the panic and its stack are logged with the request logger.
	LogFunc func(r *http.Request, err any)
}

// RecoveryMiddleware returns a middleware that recovers from panics in
// downstream handlers and answers 500 with an ErrorBody.
// http.ErrAbortHandler is re-panicked so that net/http can abort the
// connection as intended.
func RecoveryMiddleware(cfg RecoveryConfig) func(http.Handler) http.Handler {
	logFunc := cfg.LogFunc
	if logFunc == nil {
		logFunc = func(r *http.Request, err any) {
			LoggerFromContext(r.Context()).Error("panic recovered",
				"panic", err,
				"stack", string(debug.Stack()),
			)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				err := recover()
				if err == nil {
					return
				}
				if err == http.ErrAbortHandler {
					panic(err)
				}

				logFunc(r, err)
				WriteError(w, http.StatusInternalServerError, CodeInternal, http.StatusText(http.StatusInternalServerError))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
