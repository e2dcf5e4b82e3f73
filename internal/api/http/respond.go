package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"rentoo/internal/logger"
	"rentoo/internal/service"
)

// fieldDetail is one entry of a validation error body.
type fieldDetail struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

type detailBody struct {
	Detail any `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response", "error", err)
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, detailBody{Detail: detail})
}

func writeValidation(w http.ResponseWriter, in string, fields []service.FieldError) {
	details := make([]fieldDetail, len(fields))
	for i, f := range fields {
		details[i] = fieldDetail{Loc: []string{in, f.Field}, Msg: f.Msg, Type: "value_error"}
	}
	writeJSON(w, http.StatusUnprocessableEntity, detailBody{Detail: details})
}

// writeError maps a service error onto its status code. Validation failures
// point at body fields.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	writeErrorIn(w, r, err, "body")
}

func writeErrorIn(w http.ResponseWriter, r *http.Request, err error, in string) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		writeValidation(w, in, verr.Fields)
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrUnauthorized):
		status = http.StatusUnauthorized
		w.Header().Set("WWW-Authenticate", "Bearer")
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrConflict):
		status = http.StatusBadRequest
	}

	var serr *service.Error
	if status == http.StatusInternalServerError || !errors.As(err, &serr) {
		logger.ErrorContext(r.Context(), "Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeDetail(w, status, serr.Detail)
}

// decodeJSON reads the request body into v. A malformed body is reported the
// same way as a validation failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v)
	if err == nil {
		return true
	}
	msg := "JSON decode error"
	if errors.Is(err, io.EOF) {
		msg = "Field required"
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		writeValidation(w, "body", []service.FieldError{{Field: typeErr.Field, Msg: "Input has the wrong type"}})
		return false
	}
	writeJSON(w, http.StatusUnprocessableEntity, detailBody{Detail: []fieldDetail{{Loc: []string{"body"}, Msg: msg, Type: "json_invalid"}}})
	return false
}
