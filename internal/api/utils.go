package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"ner-pipeline/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/schema"
)

// statusError carries the http status a handler wants returned to the client.
type statusError struct {
	status int
	err    error
}

func (e *statusError) Error() string { return e.err.Error() }

func (e *statusError) Unwrap() error { return e.err }

func StatusErrorf(status int, format string, args ...any) error {
	return &statusError{status: status, err: fmt.Errorf(format, args...)}
}

var queryDecoder = schema.NewDecoder()

func init() {
	queryDecoder.IgnoreUnknownKeys(true)
}

func DecodeBody[T any](r *http.Request) (T, error) {
	var body T
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		slog.Warn("invalid request body", "path", r.URL.Path, "error", err)
		return body, StatusErrorf(http.StatusBadRequest, "request body is not valid json: %v", err)
	}
	return body, nil
}

func DecodeQuery[T any](r *http.Request) (T, error) {
	var params T
	if err := queryDecoder.Decode(&params, r.URL.Query()); err != nil {
		slog.Warn("invalid query params", "path", r.URL.Path, "error", err)
		return params, StatusErrorf(http.StatusBadRequest, "invalid query params: %v", err)
	}
	return params, nil
}

// JSONHandler adapts a handler returning a value or an error into an
// http.HandlerFunc. Errors without a status are reported as 500.
func JSONHandler(handler func(r *http.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := handler(r)
		if err == nil {
			if res == nil {
				res = struct{}{}
			}
			WriteJSON(w, http.StatusOK, res)
			return
		}

		status := http.StatusInternalServerError
		var serr *statusError
		if errors.As(err, &serr) {
			status = serr.status
		}
		if status >= http.StatusInternalServerError {
			slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		}
		WriteJSON(w, status, api.ErrorResponse{Error: err.Error()})
	}
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		slog.Error("error serializing response", "error", err)
		http.Error(w, "error serializing response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		slog.Warn("error writing response", "error", err)
	}
}

func URLParamUUID(r *http.Request, key string) (uuid.UUID, error) {
	param := chi.URLParam(r, key)
	if param == "" {
		return uuid.Nil, StatusErrorf(http.StatusBadRequest, "missing {%s} url parameter", key)
	}

	id, err := uuid.Parse(param)
	if err != nil {
		return uuid.Nil, StatusErrorf(http.StatusBadRequest, "{%s} is not a valid uuid: %v", key, err)
	}
	return id, nil
}
