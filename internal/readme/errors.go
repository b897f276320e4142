package readme

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a terminal pipeline failure.
type Kind string

const (
	KindInvalidInput Kind = "invalid_input"
	KindClone        Kind = "clone"
	KindNoFiles      Kind = "no_files"
	KindProvider     Kind = "provider"
	KindFormat       Kind = "format"
	KindBudget       Kind = "budget"
	KindSynthesis    Kind = "synthesis"
	KindCanceled     Kind = "canceled"
)

// NoSummarizableFiles is the message used when nothing readable survives filtering.
const NoSummarizableFiles = "No summarizable files found in repository."

// Error is a terminal pipeline result. It is never returned together with a README.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf builds a pipeline error of the given kind. A canceled or expired
// context always classifies as KindCanceled.
func Errorf(kind Kind, cause error, format string, args ...any) *Error {
	if cause != nil && (errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded)) {
		kind = KindCanceled
	}
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: cause}
}

// KindOf returns the Kind of err, or "" when err is not a pipeline error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
