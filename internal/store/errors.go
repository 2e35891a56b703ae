package store

import (
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound is returned when an id does not reference an existing row.
	ErrNotFound = errors.New("not found")

	// ErrConstraint is returned when a referenced row does not exist or a
	// database constraint rejects the change.
	ErrConstraint = errors.New("constraint violation")

	// ErrInvalidTransition is returned for status changes the lifecycle
	// does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrLocked is returned when lines of a closed order or utilization are
	// modified.
	ErrLocked = errors.New("record is locked")
)

// FieldError is a validation failure for one input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects field-level validation failures.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// add records a failure.
func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// err returns e if any failure was recorded, nil otherwise.
func (e *ValidationError) err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// constraintError translates SQLite constraint failures into ErrConstraint.
func constraintError(err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		return fmt.Errorf("%w: %v", ErrConstraint, err)
	}
	return err
}
