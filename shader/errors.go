// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package shader

import "fmt"

// ErrorKind categorizes data model errors.
type ErrorKind uint8

const (
	// ErrInvalidKeyFormat indicates a resource key string not of the form "binding:set".
	ErrInvalidKeyFormat ErrorKind = iota

	// ErrUnsupportedType indicates a (kind, component count) pair with no descriptor.
	ErrUnsupportedType
)

// String returns a human-readable error kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrInvalidKeyFormat:
		return "InvalidKeyFormat"
	case ErrUnsupportedType:
		return "UnsupportedType"
	default:
		return "Unknown"
	}
}

// Error represents a data model error.
type Error struct {
	// Kind categorizes the error.
	Kind ErrorKind

	// Message provides details about the error.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("shader %s: %s", e.Kind, e.Message)
}

// NewError creates a new data model error.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}
