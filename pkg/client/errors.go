package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrQuotaExceeded marks a response rejected because the server-side
	// quota ran out. It is recoverable and never consumes an attempt.
	ErrQuotaExceeded = errors.New("api quota exceeded")

	// ErrNotReady marks an accepted-but-still-processing response.
	ErrNotReady = errors.New("result not ready yet")
)

// ErrorClass classifies a request outcome for retry handling and metrics.
type ErrorClass string

const (
	// ErrorClassTransient covers network failures, timeouts and 5xx
	// responses. Retried with exponential backoff.
	ErrorClassTransient ErrorClass = "transient"

	// ErrorClassQuota covers quota rejections. Retried after the quota
	// window resets, without consuming an attempt.
	ErrorClassQuota ErrorClass = "quota"

	// ErrorClassNotReady covers asynchronous "still processing" responses.
	// Retried after a short fixed poll, consuming an attempt.
	ErrorClassNotReady ErrorClass = "not_ready"

	// ErrorClassFatal covers every other non-2xx response. Never retried.
	ErrorClassFatal ErrorClass = "fatal"
)

// RequestError is a failed request with status and body context. It is the
// terminal error for non-retryable statuses and for exhausted retries.
type RequestError struct {
	Endpoint   string
	StatusCode int
	Body       string
	Err        error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("request %s failed (status %d): %v", e.Endpoint, e.StatusCode, e.Err)
	}
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("request %s failed (status %d): %s", e.Endpoint, e.StatusCode, body)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *RequestError) Unwrap() error {
	return e.Err
}

// classify maps a response (or transport error) to an ErrorClass.
// A nil response with a non-nil err is always a transport problem.
func classify(statusCode int, body string, err error) ErrorClass {
	if err != nil {
		return ErrorClassTransient
	}

	switch {
	case statusCode == http.StatusForbidden && isQuotaRejection(body):
		return ErrorClassQuota
	case statusCode == http.StatusAccepted:
		return ErrorClassNotReady
	case statusCode >= 500:
		return ErrorClassTransient
	default:
		return ErrorClassFatal
	}
}

// isQuotaRejection matches the server's rate-limit rejection message. GitHub
// reuses 403 for permission errors, so the body pattern disambiguates.
func isQuotaRejection(body string) bool {
	return strings.Contains(strings.ToLower(body), "rate limit exceeded")
}
