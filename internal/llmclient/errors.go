package llmclient

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyResponse is returned when a provider answers with no content segments.
	ErrEmptyResponse = errors.New("llm: empty response from model")
	// ErrMissingAPIKey is returned by constructors when no key is configured.
	ErrMissingAPIKey = errors.New("llm: missing API key")
)

// maxErrorBody caps how much of a failed response body is kept.
const maxErrorBody = 2048

// StatusError is a non-success HTTP answer from a provider. Body holds the raw
// response text, truncated to a couple of KB.
type StatusError struct {
	Provider   string
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %s: %s", e.Provider, e.Status, e.Body)
}

func newStatusError(provider string, code int, status string, body []byte) *StatusError {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return &StatusError{Provider: provider, StatusCode: code, Status: status, Body: string(body)}
}

// PermanentError indicates an error that will not resolve with retries.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err (or anything it wraps) is a PermanentError.
func IsPermanent(err error) bool {
	var p *PermanentError
	return errors.As(err, &p)
}
