package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrNetwork means the server could not be reached or did not answer in time.
	ErrNetwork = errors.New("network error")
	// ErrAuth means the credential is missing, expired or rejected (401/403).
	ErrAuth = errors.New("unauthorized")
	// ErrValidation means the request was rejected as malformed (4xx).
	ErrValidation = errors.New("validation error")
	// ErrNotFound means the addressed resource does not exist (404).
	ErrNotFound = errors.New("not found")
	// ErrServer means the server failed (5xx) or answered with garbage.
	ErrServer = errors.New("server error")
)

// Error is the typed failure returned by every API call.
type Error struct {
	Kind    error             // one of the sentinels above
	Status  int               // HTTP status, 0 for transport failures
	Message string            // human-readable message
	Fields  map[string]string // per-field validation messages, if any
	Err     error             // underlying cause, if any
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewValidationError builds a client-side validation failure.
func NewValidationError(message string, fields map[string]string) *Error {
	return &Error{Kind: ErrValidation, Message: message, Fields: fields}
}

// FieldErrors returns per-field messages carried by err, or nil.
func FieldErrors(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}

func networkError(err error) *Error {
	msg := "server unreachable"
	var te interface{ Timeout() bool }
	if errors.As(err, &te) && te.Timeout() {
		msg = "request timed out"
	}
	return &Error{Kind: ErrNetwork, Message: msg, Err: err}
}

func malformedResponse(status int, err error) *Error {
	return &Error{Kind: ErrServer, Status: status, Message: "malformed response", Err: err}
}

func kindForStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return ErrAuth
	case status == http.StatusNotFound:
		return ErrNotFound
	case status >= 400 && status < 500:
		return ErrValidation
	default:
		return ErrServer
	}
}

type errorBody struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

const maxErrorText = 200

func errorFromResponse(status int, body []byte) *Error {
	e := &Error{Kind: kindForStatus(status), Status: status}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		e.Message = eb.Error
		if e.Message == "" {
			e.Message = eb.Message
		}
		if len(eb.Errors) > 0 {
			e.Fields = eb.Errors
		}
	} else if text := strings.TrimSpace(string(body)); text != "" {
		if len(text) > maxErrorText {
			text = text[:maxErrorText]
		}
		e.Message = text
	}

	if e.Message == "" {
		e.Message = strings.ToLower(http.StatusText(status))
	}
	return e
}
