package errors

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyStarted = errors.New("queue already started")
	ErrNotStarted     = errors.New("queue not started")
	ErrStopped        = errors.New("queue stopped")
	ErrWorkerDied     = errors.New("queue worker exited unexpectedly")
	ErrRegistryClosed = errors.New("registry closed")
)

// PreconditionError reports a call made in a state the queue lifecycle forbids.
// It is a caller bug and must not be retried.
type PreconditionError struct {
	Op    string
	State string
	Err   error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition violated: %s in state %s: %v", e.Op, e.State, e.Err)
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}

func NewPreconditionError(op, state string, err error) *PreconditionError {
	return &PreconditionError{Op: op, State: state, Err: err}
}

func IsPreconditionError(err error) bool {
	var e *PreconditionError
	return errors.As(err, &e)
}

// PanicError carries a panic recovered on the worker back to the submitting goroutine.
// It is the value the submitter's recover() sees; Value is what the work panicked with.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("delegated work panicked: %v", e.Value)
}

// Unwrap exposes the panic value when it was an error itself.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

func NewPanicError(value any, stack []byte) *PanicError {
	return &PanicError{Value: value, Stack: stack}
}

type ResourceNotFoundError struct {
	Kind string
	ID   string
}

func (e *ResourceNotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Kind)
	}
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func NewSomethingNotFoundError(id int64) *ResourceNotFoundError {
	return &ResourceNotFoundError{Kind: "something", ID: fmt.Sprint(id)}
}

func NewAliasNotFoundError(alias string) *ResourceNotFoundError {
	return &ResourceNotFoundError{Kind: "database alias", ID: alias}
}

func IsResourceNotFoundError(err error) bool {
	var e *ResourceNotFoundError
	return errors.As(err, &e)
}

// ImproperlyConfiguredError is returned when settings cannot be turned into a working setup.
type ImproperlyConfiguredError struct {
	msg string
}

func (e *ImproperlyConfiguredError) Error() string {
	return "improperly configured: " + e.msg
}

func NewImproperlyConfiguredError(format string, args ...any) *ImproperlyConfiguredError {
	return &ImproperlyConfiguredError{msg: fmt.Sprintf(format, args...)}
}

func IsImproperlyConfiguredError(err error) bool {
	var e *ImproperlyConfiguredError
	return errors.As(err, &e)
}
