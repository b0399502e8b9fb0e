package upstream

import (
	"fmt"
	"time"
)

// ModelNotFoundError reports a 404 for the requested model. It is never retried.
type ModelNotFoundError struct {
	Model string
}

func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("model %s not found", e.Model)
}

// RateLimitedError reports a 429. The call waited Wait before the next attempt.
type RateLimitedError struct {
	Model string
	Wait  time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("model %s rate limited (waiting %s)", e.Model, e.Wait)
}

// ModelLoadingError reports a 503 while the model warms up.
type ModelLoadingError struct {
	Model         string
	EstimatedWait time.Duration
}

func (e *ModelLoadingError) Error() string {
	return fmt.Sprintf("model %s loading (estimated %s)", e.Model, e.EstimatedWait)
}

// TransportKind classifies a failure below HTTP.
type TransportKind string

const (
	TransportConnect TransportKind = "connect"
	TransportTimeout TransportKind = "timeout"
	TransportOther   TransportKind = "other"
)

// TransportError wraps a network failure that produced no HTTP response.
type TransportError struct {
	Model string
	Kind  TransportKind
	Err   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("model %s %s error: %v", e.Model, e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPError is any non-2xx status without a dedicated retry rule.
type HTTPError struct {
	Model      string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("model %s returned HTTP %d: %s", e.Model, e.StatusCode, e.Body)
}

// ResponseTooLargeError reports a reply body over the accepted size. It is
// never retried.
type ResponseTooLargeError struct {
	Model string
	Limit int64
}

func (e *ResponseTooLargeError) Error() string {
	return fmt.Sprintf("model %s response exceeds %d bytes", e.Model, e.Limit)
}

// RetriesExhaustedError is returned once every attempt ended in a retryable state.
// Last holds the failure observed on the final attempt.
type RetriesExhaustedError struct {
	Model    string
	Attempts int
	Last     error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("model %s: retries exhausted after %d attempts: %v", e.Model, e.Attempts, e.Last)
}

func (e *RetriesExhaustedError) Unwrap() error { return e.Last }
