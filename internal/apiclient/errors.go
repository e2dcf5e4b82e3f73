package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ErrUnauthorized matches every 401 response. By the time a caller sees it the
// pipeline's unauthorized handler has already run.
var ErrUnauthorized = errors.New("unauthorized")

// GeneralField is the form key that receives errors not tied to a field.
const GeneralField = "_general"

// FieldError is one entry of a backend validation error list.
type FieldError struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// Field returns the form field the error refers to: loc[1] when present,
// otherwise the last loc element.
func (e FieldError) Field() string {
	switch len(e.Loc) {
	case 0:
		return GeneralField
	case 1:
		return fmt.Sprint(e.Loc[0])
	default:
		return fmt.Sprint(e.Loc[1])
	}
}

// FieldErrors is returned when the backend rejects a request with a list of
// per-field problems.
type FieldErrors struct {
	StatusCode int
	Errors     []FieldError
}

func (e *FieldErrors) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field()+": "+fe.Msg)
	}
	return fmt.Sprintf("validation failed (%d): %s", e.StatusCode, strings.Join(parts, "; "))
}

// Fields maps field name to message. The first message for a field wins.
func (e *FieldErrors) Fields() map[string]string {
	out := make(map[string]string, len(e.Errors))
	for _, fe := range e.Errors {
		name := fe.Field()
		if _, exists := out[name]; !exists {
			out[name] = fe.Msg
		}
	}
	return out
}

func (e *FieldErrors) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// APIError is a backend error carrying a single message, or an error response
// whose body could not be interpreted.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Detail)
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// NetworkError means no response was received.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// StatusCode extracts the HTTP status of an API failure, or 0.
func StatusCode(err error) int {
	var fe *FieldErrors
	if errors.As(err, &fe) {
		return fe.StatusCode
	}
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.StatusCode
	}
	return 0
}

// UserMessage renders err as text suitable for showing to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var fe *FieldErrors
	if errors.As(err, &fe) {
		fields := fe.Fields()
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)
		lines := make([]string, 0, len(names))
		for _, name := range names {
			if name == GeneralField {
				lines = append(lines, fields[name])
				continue
			}
			lines = append(lines, name+": "+fields[name])
		}
		return strings.Join(lines, "\n")
	}

	var ae *APIError
	if errors.As(err, &ae) {
		if ae.Detail != "" {
			return ae.Detail
		}
		return fmt.Sprintf("Request failed (status %d)", ae.StatusCode)
	}

	var ne *NetworkError
	if errors.As(err, &ne) {
		return "Unable to reach the server. Check your connection and try again."
	}

	return err.Error()
}

// parseError converts an error response into FieldErrors or APIError.
func parseError(status int, body []byte) error {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return &APIError{StatusCode: status, Detail: strings.TrimSpace(string(body))}
	}

	var detail string
	if err := json.Unmarshal(payload.Detail, &detail); err == nil {
		return &APIError{StatusCode: status, Detail: detail}
	}

	var list []FieldError
	if err := json.Unmarshal(payload.Detail, &list); err == nil {
		return &FieldErrors{StatusCode: status, Errors: list}
	}

	return &APIError{StatusCode: status, Detail: string(payload.Detail)}
}
