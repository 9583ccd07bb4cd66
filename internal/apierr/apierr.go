// Package apierr is the error taxonomy shared by every handler: each error
// carries an HTTP status, a machine code and a message safe to show users.
package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/yourorg/listings-api/renet"
)

type Code string

const (
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeAPIConnection      Code = "API_CONNECTION_ERROR"
	CodeAuthentication     Code = "AUTHENTICATION_ERROR"
	CodeNotFound           Code = "NOT_FOUND"
	CodeRateLimit          Code = "RATE_LIMIT_ERROR"
	CodeInternal           Code = "INTERNAL_SERVER_ERROR"
	CodeTimeout            Code = "TIMEOUT_ERROR"
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"
)

var userMessages = map[Code]string{
	CodeValidation:         "Please check your form details and try again.",
	CodeAPIConnection:      "We're experiencing technical difficulties. Please try again in a few minutes.",
	CodeAuthentication:     "Authentication failed. Please contact support.",
	CodeNotFound:           "The requested information could not be found.",
	CodeRateLimit:          "Too many requests. Please wait a moment and try again.",
	CodeInternal:           "An unexpected error occurred. Please try again or contact support.",
	CodeTimeout:            "Request timed out. Please try again.",
	CodeServiceUnavailable: "This service is temporarily unavailable.",
}

// UserMessage is the default client-facing text for a code.
func UserMessage(c Code) string {
	return userMessages[c]
}

type Error struct {
	Code    Code
	Status  int
	Message string
	// Fields lists the offending inputs of a validation error.
	Fields []string
	// Err is the internal cause. It is logged, never rendered.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(code Code, status int, message string, cause error) *Error {
	if message == "" {
		message = UserMessage(code)
	}
	return &Error{Code: code, Status: status, Message: message, Err: cause}
}

func Validation(message string, fields ...string) *Error {
	e := New(CodeValidation, http.StatusBadRequest, message, nil)
	e.Fields = fields
	return e
}

func NotFound(message string) *Error {
	return New(CodeNotFound, http.StatusNotFound, message, nil)
}

func Internal(message string, cause error) *Error {
	return New(CodeInternal, http.StatusInternalServerError, message, cause)
}

func Unavailable(message string, cause error) *Error {
	return New(CodeServiceUnavailable, http.StatusServiceUnavailable, message, cause)
}

// FromUpstream classifies a failed upstream call into a user-safe error.
func FromUpstream(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	if errors.Is(err, renet.ErrNotFound) {
		return New(CodeNotFound, http.StatusNotFound, "", err)
	}
	ue, ok := renet.AsUpstream(err)
	if !ok {
		if errors.Is(err, context.DeadlineExceeded) {
			return New(CodeTimeout, http.StatusServiceUnavailable, "", err)
		}
		return Internal("", err)
	}
	switch {
	case ue.Status == http.StatusUnauthorized || ue.Status == http.StatusForbidden:
		return New(CodeAuthentication, http.StatusBadGateway, "", err)
	case ue.NotFound():
		return New(CodeNotFound, http.StatusNotFound, "", err)
	case ue.Status == http.StatusTooManyRequests:
		return New(CodeRateLimit, http.StatusServiceUnavailable, "", err)
	case ue.Timeout():
		return New(CodeTimeout, http.StatusServiceUnavailable, "", err)
	default:
		return New(CodeAPIConnection, http.StatusBadGateway, "", err)
	}
}
