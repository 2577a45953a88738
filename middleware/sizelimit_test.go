package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestSizeLimitMiddleware(t *testing.T) {
	t.Run("invalid max size", func(t *testing.T) {
		for _, size := range []int64{0, -1} {
			_, err := RequestSizeLimitMiddleware(RequestSizeLimitConfig{MaxBytes: size})
			assert.ErrorIs(t, err, ErrInvalidMaxSize)
		}
	})

	mw, err := RequestSizeLimitMiddleware(RequestSizeLimitConfig{MaxBytes: 8})
	require.NoError(t, err)

	var readErr error
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("within limit", func(t *testing.T) {
		readErr = nil
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("12345678")))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NoError(t, readErr)
	})

	t.Run("declared length over limit", func(t *testing.T) {
		readErr = nil
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("123456789")))

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, w.Body.String(), CodeBodyTooLarge)
	})

	t.Run("streamed body over limit", func(t *testing.T) {
		readErr = nil
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("123456789"))
		req.ContentLength = -1

		h.ServeHTTP(httptest.NewRecorder(), req)

		var maxErr *http.MaxBytesError
		assert.True(t, errors.As(readErr, &maxErr))
	})
}
