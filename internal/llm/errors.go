// Package llm - errors.go classifies provider failures so callers can map
// them to the right record status without inspecting provider internals.
package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

// ErrorKind partitions API failures by how the caller should react.
type ErrorKind int

const (
	// KindTransient covers network faults, rate limits, and server errors.
	// The same record may be retried on a later run.
	KindTransient ErrorKind = iota
	// KindAuth covers invalid or revoked API credentials.
	KindAuth
	// KindContentRejected covers safety blocks and empty responses; the
	// same prompt will not succeed, so it is recorded and not retried.
	KindContentRejected
)

// APIError wraps a provider failure with its classification.
type APIError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *APIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("llm error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("llm error: %s", e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Cause
}

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindAuth
}

// IsContentRejected reports whether err is a content-policy rejection or an
// empty response.
func IsContentRejected(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindContentRejected
}

// IsTransient reports whether err is worth retrying on a later run.
func IsTransient(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindTransient
}

// wrapAPIError classifies a raw provider error. HTTP status codes are used
// when the transport exposes them; everything unrecognized counts as
// transient so it stays retryable.
func wrapAPIError(message string, err error) *APIError {
	return &APIError{Kind: classify(err), Message: message, Cause: err}
}

func classify(err error) ErrorKind {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return KindAuth
		case http.StatusBadRequest:
			// The API reports invalid keys as 400 with an explanatory body.
			if strings.Contains(strings.ToLower(gerr.Message), "api key") {
				return KindAuth
			}
			return KindContentRejected
		default:
			return KindTransient
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "api key"), strings.Contains(msg, "unauthenticated"),
		strings.Contains(msg, "permission denied"):
		return KindAuth
	case strings.Contains(msg, "safety"), strings.Contains(msg, "blocked"):
		return KindContentRejected
	default:
		return KindTransient
	}
}
