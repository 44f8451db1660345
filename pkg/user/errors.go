package user

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure so callers can branch on cause.
type ErrorKind uint8

const (
	// KindTransport covers an unreachable node or a malformed response.
	KindTransport ErrorKind = iota + 1
	// KindSigning means the signer could not produce a signature.
	KindSigning
	// KindNotFound means the queried object does not exist.
	KindNotFound
	// KindRejected means the transaction was refused, e.g. a stale nonce or no actions.
	KindRejected
	// KindInternal means the client itself failed, e.g. a panic inside an operation.
	KindInternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindSigning:
		return "signing"
	case KindNotFound:
		return "not found"
	case KindRejected:
		return "rejected"
	case KindInternal:
		return "internal"
	default:
		return fmt.Sprintf("ErrorKind(%d)", uint8(k))
	}
}

var (
	ErrTransport = errors.New("transport error")
	ErrSigning   = errors.New("signing error")
	ErrNotFound  = errors.New("not found")
	ErrRejected  = errors.New("transaction rejected")
	ErrInternal  = errors.New("internal error")

	// ErrNoActions is returned when an empty action list is submitted. Nothing is sent; a
	// node would refuse the transaction the same way.
	ErrNoActions error = &Error{Kind: KindRejected, Op: "submit", Err: errors.New("no actions")}
)

// Error is returned by every User, AsyncUser and Client operation that fails.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrTransport:
		return e.Kind == KindTransport
	case ErrSigning:
		return e.Kind == KindSigning
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrRejected:
		return e.Kind == KindRejected
	case ErrInternal:
		return e.Kind == KindInternal
	}
	return false
}

// KindOf returns the kind of the first *Error in err's chain, or 0 if there is none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// NewError wraps err with kind and op. An err that already carries a kind is returned as is.
func NewError(kind ErrorKind, op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func transportError(op string, err error) error {
	return NewError(KindTransport, op, err)
}

// Rejection builds a KindRejected error from the node's reason.
func Rejection(op, reason string) error {
	return &Error{Kind: KindRejected, Op: op, Err: errors.New(reason)}
}

func NotFound(op, what string) error {
	return &Error{Kind: KindNotFound, Op: op, Err: errors.New(what)}
}
