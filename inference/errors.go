package inference

import (
	"errors"
	"fmt"
)

// Kind classifies inference failures.
type Kind string

const (
	// KindUnavailable means no model was loaded at startup. Callers may
	// retry once an operator has restarted the service with a model.
	KindUnavailable Kind = "unavailable"
	// KindUnsupportedModel means the loaded artifact lacks the label or
	// probability capability, or reports an unexpected class order.
	KindUnsupportedModel Kind = "unsupported_model"
	// KindInternal covers any other failure while building the vector or
	// calling the model.
	KindInternal Kind = "internal"
)

// Error is returned by Predict. Err holds the operator diagnostic and is
// never meant to be shown to clients.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "inference " + string(e.Kind)
	}
	return fmt.Sprintf("inference %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ierr *Error
	return errors.As(err, &ierr) && ierr.Kind == kind
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}
