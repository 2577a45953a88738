package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/vitalvas/apiecho/middleware"
)

var (
	errEmptyBody    = errors.New("request body is empty")
	errTrailingData = errors.New("request body has data after the JSON value")
)

// Echo returns a handler that decodes the JSON request body into a T and
// writes the value back unchanged with status 200. Malformed bodies are
// answered with 400 and bodies over the size limit with 413.
func Echo[T any]() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var v T
		if err := decodeJSON(r.Body, &v); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				middleware.WriteError(w, http.StatusRequestEntityTooLarge, middleware.CodeBodyTooLarge,
					fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit))
				return
			}

			middleware.LoggerFromContext(r.Context()).Debug("rejected echo request", "error", err)
			middleware.WriteError(w, http.StatusBadRequest, middleware.CodeInvalidJSON, err.Error())
			return
		}

		writeJSON(w, r, http.StatusOK, v)
	}
}

// decodeJSON decodes exactly one JSON value from body into v.
func decodeJSON(body io.Reader, v any) error {
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		return errTrailingData
	}

	return nil
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		middleware.LoggerFromContext(r.Context()).Error("failed to encode response", "error", err)
		middleware.WriteError(w, http.StatusInternalServerError, middleware.CodeInternal, http.StatusText(http.StatusInternalServerError))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
