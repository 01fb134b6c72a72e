// Package analysis - errors.go defines typed errors for AI response handling.
package analysis

import (
	"fmt"
	"strings"
)

// rawExcerptLimit caps how much of a bad response ends up in record notes.
const rawExcerptLimit = 500

// ResponseError reports an AI response that failed validation or parsing.
// Raw carries the offending response body.
type ResponseError struct {
	Message string
	Raw     string
	Cause   error
}

func (e *ResponseError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if raw := truncate(e.Raw, rawExcerptLimit); raw != "" {
		msg = fmt.Sprintf("%s; raw: %s", msg, raw)
	}
	return msg
}

func (e *ResponseError) Unwrap() error {
	return e.Cause
}

// truncate shortens s to at most limit bytes for notes and logs.
func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
