// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package reflection

import "fmt"

// ErrorKind categorizes reflection errors.
type ErrorKind uint8

const (
	// ErrUnsupportedType indicates a type outside the scalar, vector,
	// matrix, and struct set the reflector models.
	ErrUnsupportedType ErrorKind = iota

	// ErrUnsupportedResourceType indicates a buffer or push-constant
	// variable whose pointee is not a struct.
	ErrUnsupportedResourceType

	// ErrEntryPointNotFound indicates no entry point with the configured
	// name exists for the requested stage.
	ErrEntryPointNotFound

	// ErrDuplicateBinding indicates two resources share a binding and set.
	ErrDuplicateBinding

	// ErrInvalidModule indicates a reference to an ID the module never
	// defines, or an instruction of the wrong kind at that ID.
	ErrInvalidModule
)

// String returns a human-readable error kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrUnsupportedType:
		return "UnsupportedType"
	case ErrUnsupportedResourceType:
		return "UnsupportedResourceType"
	case ErrEntryPointNotFound:
		return "EntryPointNotFound"
	case ErrDuplicateBinding:
		return "DuplicateBinding"
	case ErrInvalidModule:
		return "InvalidModule"
	default:
		return "Unknown"
	}
}

// Error represents a reflection error.
type Error struct {
	// Kind categorizes the error.
	Kind ErrorKind

	// ID is the SPIR-V result ID the error refers to, or 0.
	ID uint32

	// Message provides details about the error.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("reflection %s", e.Kind)
	if e.ID != 0 {
		msg += fmt.Sprintf(" (id %d)", e.ID)
	}
	msg += ": " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new reflection error about id.
func NewError(kind ErrorKind, id uint32, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		ID:      id,
		Message: fmt.Sprintf(format, args...),
	}
}

func wrapError(kind ErrorKind, id uint32, err error, format string, args ...any) *Error {
	e := NewError(kind, id, format, args...)
	e.Err = err
	return e
}
