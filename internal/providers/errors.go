package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
)

// ErrEmptyResponse is returned when a provider answers without any text.
var ErrEmptyResponse = errors.New("provider returned an empty response")

type authError struct {
	provider string
	message  string
}

func (e *authError) Error() string {
	return fmt.Sprintf("%s: authentication error: %s", e.provider, e.message)
}

type rateLimitError struct {
	provider string
	message  string
}

func (e *rateLimitError) Error() string {
	return fmt.Sprintf("%s: rate limited: %s", e.provider, e.message)
}

type serverError struct {
	provider   string
	statusCode int
	message    string
}

func (e *serverError) Error() string {
	return fmt.Sprintf("%s: API error (status %d): %s", e.provider, e.statusCode, e.message)
}

// IsAuthError checks if an error is an authentication error.
func IsAuthError(err error) bool {
	var ae *authError
	return errors.As(err, &ae)
}

// IsRateLimitError checks if an error is a rate-limit rejection.
func IsRateLimitError(err error) bool {
	var re *rateLimitError
	return errors.As(err, &re)
}

// IsRetryable reports whether err is a transient failure worth retrying:
// rate limits, 5xx and 408 responses, and network timeouts.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if IsAuthError(err) {
		return false
	}
	if IsRateLimitError(err) {
		return true
	}

	var se *serverError
	if errors.As(err, &se) {
		return se.statusCode >= 500 || se.statusCode == http.StatusRequestTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT)
}

// classifyStatus maps an HTTP status from a provider SDK onto the error
// classes above. Statuses outside those classes keep the original error.
func classifyStatus(provider string, status int, err error) error {
	msg := err.Error()
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &authError{provider: provider, message: msg}
	case status == http.StatusTooManyRequests:
		return &rateLimitError{provider: provider, message: msg}
	case status >= 500 || status == http.StatusRequestTimeout:
		return &serverError{provider: provider, statusCode: status, message: msg}
	default:
		return fmt.Errorf("%s: %w", provider, err)
	}
}
