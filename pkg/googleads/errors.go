package googleads

import (
	"fmt"
	"strings"
)

// APIError is a non-2xx response from the platform, carrying enough detail to
// classify it as retryable or terminal.
type APIError struct {
	StatusCode int
	Status     string // e.g. "RESOURCE_EXHAUSTED", "INVALID_ARGUMENT"
	Message    string
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("googleads: %s (%d): %s", e.Status, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("googleads: http %d: %s", e.StatusCode, e.Message)
}

// retryableStatuses are the platform conditions worth retrying: rate limits,
// concurrent list mutation, and deadline-style failures.
var retryableStatuses = []string{
	"RESOURCE_EXHAUSTED",
	"CONCURRENT_MODIFICATION",
	"DEADLINE_EXCEEDED",
	"UNAVAILABLE",
	"ABORTED",
}

// Retryable reports whether the error represents a transient platform
// condition.
func (e *APIError) Retryable() bool {
	switch e.StatusCode {
	case 408, 409, 429, 500, 502, 503, 504:
		return true
	}
	for _, s := range retryableStatuses {
		if e.Status == s || strings.Contains(e.Message, s) {
			return true
		}
	}
	return false
}
