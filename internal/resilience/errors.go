package resilience

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"
)

// RetryableError wraps an error that is safe to retry (rate limits,
// concurrent modification, deadline-style conditions, transient network
// failures).
type RetryableError struct {
	Err        error
	StatusCode int
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError wraps an error as retryable with an optional HTTP status.
func NewRetryableError(err error, statusCode int) *RetryableError {
	return &RetryableError{Err: err, StatusCode: statusCode}
}

// IsRetryable reports whether the error (or anything in its chain) is safe to
// retry: an explicit RetryableError, a network timeout, a connection-level
// failure, or a platform error matching the known transient conditions.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var re *RetryableError
	if errors.As(err, &re) {
		return true
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// Platform error conditions surfaced as strings by the ads API surface.
	msg := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"concurrent_modification",
		"concurrentmodification",
		"resource_exhausted",
		"rate exceeded",
		"too many requests",
		"deadline_exceeded",
		"deadline exceeded",
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
	}
	for _, p := range retryablePatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// IsRetryableHTTPStatus reports whether an HTTP status code indicates a
// transient server-side condition.
func IsRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, // Request Timeout
		409, // Conflict (concurrent modification)
		429, // Too Many Requests
		500, // Internal Server Error
		502, // Bad Gateway
		503, // Service Unavailable
		504: // Gateway Timeout
		return true
	default:
		return false
	}
}
