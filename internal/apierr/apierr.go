// Package apierr classifies engine errors into four kinds so the HTTP
// surface can map them to status codes without every component
// hand-rolling its own sentinel.
package apierr

import (
	"errors"
	"fmt"
)

// Kind is one of the four error kinds the core raises.
type Kind int

const (
	// KindNotFound: project, section, screen, test, or report missing.
	KindNotFound Kind = iota
	// KindInvalid: invalid project name or section timestamp, unknown
	// report type, missing report sections.
	KindInvalid
	// KindConflict: concurrent merge attempt on the same project.
	KindConflict
	// KindTransient: filesystem EIO / browser launch failure; retryable.
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalid:
		return "invalid"
	case KindConflict:
		return "conflict"
	case KindTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// HTTPStatus maps a Kind to its HTTP status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return 404
	case KindInvalid:
		return 400
	case KindConflict:
		return 409
	case KindTransient:
		return 503
	default:
		return 500
	}
}

// Error wraps an underlying error with a Kind for HTTP classification.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err as the given Kind. Returns nil if err is nil.
func New(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// NotFound is a convenience constructor.
func NotFound(op string, err error) error { return New(KindNotFound, op, err) }

// Invalid is a convenience constructor.
func Invalid(op string, err error) error { return New(KindInvalid, op, err) }

// Conflict is a convenience constructor.
func Conflict(op string, err error) error { return New(KindConflict, op, err) }

// Transient is a convenience constructor.
func Transient(op string, err error) error { return New(KindTransient, op, err) }

// As extracts the classified Kind from err. ok is false, and the returned
// Kind is the zero value (KindNotFound), when err was not produced by
// this package.
func As(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
