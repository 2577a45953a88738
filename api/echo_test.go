package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalvas/apiecho/middleware"
)

func postJSON(h http.Handler, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestEcho(t *testing.T) {
	handlers := map[string]http.Handler{
		"derived":  Echo[EchoRecord](),
		"explicit": Echo[ExplicitEchoRecord](),
	}

	for name, h := range handlers {
		t.Run(name, func(t *testing.T) {
			t.Run("round trip", func(t *testing.T) {
				body := `{"a": 1, "b": "foo", "c": [0.0, 0.1, 0.2]}`
				w := postJSON(h, "/", body)

				assert.Equal(t, http.StatusOK, w.Code)
				assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
				assert.JSONEq(t, body, w.Body.String())
			})

			optional := []struct {
				name string
				body string
			}{
				{"b absent", `{"a":7,"c":[]}`},
				{"b empty", `{"a":7,"b":"","c":[]}`},
				{"b null", `{"a":7,"b":null,"c":[]}`},
				{"b escaped", `{"a":7,"b":"<tag> & \"quote\"","c":[1e3]}`},
			}

			for _, tt := range optional {
				t.Run(tt.name, func(t *testing.T) {
					w := postJSON(h, "/", tt.body)

					assert.Equal(t, http.StatusOK, w.Code)
					assert.JSONEq(t, tt.body, w.Body.String())
				})
			}
		})
	}
}

func TestEchoDecodeFailures(t *testing.T) {
	h := Echo[EchoRecord]()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty body", "", "request body is empty"},
		{"malformed", `{"a":1,`, "unexpected EOF"},
		{"wrong shape", `[1,2,3]`, "cannot unmarshal"},
		{"out of range", `{"a":1000,"c":[]}`, "cannot unmarshal"},
		{"missing field", `{"a":1}`, `missing required field "c"`},
		{"unknown field", `{"a":1,"c":[],"z":0}`, `unknown field "z"`},
		{"trailing data", `{"a":1,"c":[]} {"a":2,"c":[]}`, "data after the JSON value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(h, "/", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)

			var body middleware.ErrorBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, middleware.CodeInvalidJSON, body.Code)
			assert.Contains(t, body.Message, tt.want)
		})
	}

	t.Run("trailing whitespace is fine", func(t *testing.T) {
		w := postJSON(h, "/", "{\"a\":1,\"c\":[]}\n\n")
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestEchoBodyTooLarge(t *testing.T) {
	limit, err := middleware.RequestSizeLimitMiddleware(middleware.RequestSizeLimitConfig{MaxBytes: 16})
	require.NoError(t, err)
	h := limit(Echo[EchoRecord]())

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1,"c":[0,0,0,0,0,0,0,0]}`))
	req.ContentLength = -1
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), middleware.CodeBodyTooLarge)
}
