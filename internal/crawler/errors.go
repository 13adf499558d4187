package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// TransportError is a network-level failure: DNS, connect, TLS, timeout
// or a broken body read.
type TransportError struct {
	Err error
	URL string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error for %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPStatusError reports a non-2xx response.
type HTTPStatusError struct {
	URL    string
	Status int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s", e.Status, e.URL)
}

// Retryable reports whether the status is worth another attempt.
func (e *HTTPStatusError) Retryable() bool {
	return isRetryableStatus(e.Status)
}

// BodyTooLargeError reports a 2xx body longer than the configured cap.
type BodyTooLargeError struct {
	URL   string
	Limit int64
}

func (e *BodyTooLargeError) Error() string {
	return fmt.Sprintf("response body from %s exceeds %d bytes", e.URL, e.Limit)
}

// redactedError hides a secret in the message of the wrapped error.
type redactedError struct {
	err    error
	secret string
}

func (e *redactedError) Error() string { return redact(e.err.Error(), e.secret) }

func (e *redactedError) Unwrap() error { return e.err }

func redactErr(err error, secret string) error {
	if err == nil || secret == "" {
		return err
	}

	return &redactedError{err: err, secret: secret}
}

// IsRetryable classifies an error for the retry loop. Only transport
// failures and transient statuses qualify; everything else (decode
// errors in particular) must move on to the next candidate.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, ErrTooManyRedirects) {
		return false
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}

	var transportErr *TransportError

	return errors.As(err, &transportErr)
}

// isRetryableStatus determines if we should retry based on HTTP status code.
func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooEarly, http.StatusTooManyRequests:
		return true
	}

	return statusCode >= http.StatusInternalServerError
}
