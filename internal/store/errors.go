package store

import (
	"context"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Error kinds. Match with errors.Is; the message of the returned error is
// safe to show to the caller.
var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrConflict          = errors.New("conflict")
	ErrUnavailable       = errors.New("storage unavailable")
)

// Error is a classified error carrying a caller-facing message.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func validationf(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Msg: fmt.Sprintf(format, args...)}
}

func notFoundf(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Msg: fmt.Sprintf(format, args...)}
}

func conflictf(format string, args ...any) error {
	return &Error{Kind: ErrConflict, Msg: fmt.Sprintf(format, args...)}
}

// InsufficientStockError reports an out transaction larger than the
// quantity on hand.
type InsufficientStockError struct {
	StockID int64
	Have    int
	Need    int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: have %d, need %d", e.Have, e.Need)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// unavailableError wraps transient storage failures.
type unavailableError struct {
	op  string
	err error
}

func (e *unavailableError) Error() string {
	return fmt.Sprintf("%s: storage unavailable: %v", e.op, e.err)
}

func (e *unavailableError) Is(target error) bool { return target == ErrUnavailable }

func (e *unavailableError) Unwrap() error { return e.err }

// wrap classifies a driver error: lock contention and timeouts become
// ErrUnavailable, uniqueness violations become ErrConflict, everything else
// is wrapped with op as context.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}

	var classified *Error
	if errors.As(err, &classified) {
		return err
	}
	if errors.Is(err, ErrInsufficientStock) || errors.Is(err, ErrUnavailable) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &unavailableError{op: op, err: err}
	}

	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return &unavailableError{op: op, err: err}
		}
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return conflictf("%s: record already exists", op)
		}
	}

	return fmt.Errorf("%s: %w", op, err)
}
