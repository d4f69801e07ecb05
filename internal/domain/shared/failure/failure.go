// Package failure classifies errors into a small set of kinds that the
// transport layer maps onto responses.
package failure

import "errors"

type Kind string

const (
	KindUnknown         Kind = ""
	KindValidation      Kind = "validation"
	KindNotFound        Kind = "not_found"
	KindAuthorization   Kind = "authorization"
	KindStateConflict   Kind = "state_conflict"
	KindUnavailable     Kind = "unavailable"
	KindExternalService Kind = "external_service"
)

// Error carries a Kind next to the message and an optional cause.
type Error struct {
	Kind Kind
	msg  string
	err  error
}

// New builds a sentinel-style error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, msg: msg}
}

// Wrap attaches kind to err. A nil err stays nil.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, err: err}
}

func (e *Error) Error() string {
	switch {
	case e.err == nil:
		return e.msg
	case e.msg == "":
		return e.err.Error()
	default:
		return e.msg + ": " + e.err.Error()
	}
}

func (e *Error) Unwrap() error { return e.err }

// KindOf returns the kind of the outermost classified error in the chain.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
