package document

import (
	"errors"
	"fmt"
)

var (
	// ErrFieldNotFound is returned when a field's pattern does not match.
	ErrFieldNotFound = errors.New("field not found")
	// ErrFieldAmbiguous is returned when a field's pattern matches more than once.
	ErrFieldAmbiguous = errors.New("field matched more than once")
	// ErrInvalidValue is returned when a value cannot be represented in the field.
	ErrInvalidValue = errors.New("invalid field value")
)

// FieldError reports a field that could not be located or read.
type FieldError struct {
	// Field is the schema name of the field, e.g. "release".
	Field string
	// Err is one of ErrFieldNotFound, ErrFieldAmbiguous or ErrInvalidValue.
	Err error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// PatchError reports which field stopped an installer patch.
type PatchError struct {
	// Field is the schema name of the field that could not be patched.
	Field string
	// Err is the underlying cause.
	Err error
}

func (e *PatchError) Error() string {
	return fmt.Sprintf("patch %s: %v", e.Field, e.Err)
}

func (e *PatchError) Unwrap() error {
	return e.Err
}
