// Package repository defines the data access layer and the error type every
// database failure is reported with.  Handlers check for ErrDatabase with
// errors.Is to decide between the generic user-facing message and a
// validation message, and log the wrapped cause in full.
package repository

import (
	"errors"
	"fmt"
)

// ErrDatabase matches every *DBError via errors.Is.
var ErrDatabase = errors.New("database error")

// DBError wraps a driver or pool failure with the repository operation that
// hit it.  Its message carries internal detail and must not reach clients.
type DBError struct {
	Op  string
	Err error
}

func (e *DBError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *DBError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrDatabase) true for any DBError.
func (e *DBError) Is(target error) bool { return target == ErrDatabase }

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var dbErr *DBError
	if errors.As(err, &dbErr) {
		return err
	}
	return &DBError{Op: op, Err: err}
}
