package errs

import (
	"errors"
	"fmt"
)

// Kinds. Every domain error unwraps to exactly one of them.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")
	ErrTransient  = errors.New("store unavailable")
)

type Error struct {
	kind error
	msg  string
}

func New(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

func Validation(format string, args ...any) error {
	return New(ErrValidation, fmt.Sprintf(format, args...))
}

var (
	ErrUserNotFound = New(ErrNotFound, "user not found")
	ErrBookNotFound = New(ErrNotFound, "book not found")
	ErrLoanNotFound = New(ErrNotFound, "loan not found")
	ErrFineNotFound = New(ErrNotFound, "fine not found")

	ErrOutOfStock          = New(ErrConflict, "book is out of stock")
	ErrAlreadyReturned     = New(ErrConflict, "loan is already returned")
	ErrAlreadyPaid         = New(ErrConflict, "fine is already paid")
	ErrDuplicateAssessment = New(ErrConflict, "overdue fine already assessed for this date")

	ErrConstraint = New(ErrValidation, "request violates a data constraint")
)

type transient struct {
	cause error
}

// Transient marks err as a connectivity failure eligible for retry.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transient{cause: err}
}

func (t *transient) Error() string { return "transient: " + t.cause.Error() }

func (t *transient) Unwrap() error { return t.cause }

func (t *transient) Is(target error) bool { return target == ErrTransient }
