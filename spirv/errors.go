// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package spirv

import "fmt"

// ErrorKind categorizes decoding errors.
type ErrorKind uint8

const (
	// ErrMalformedBytecode indicates a missing or invalid header, a truncated
	// stream, or an instruction whose word count does not fit the buffer.
	ErrMalformedBytecode ErrorKind = iota

	// ErrUnsupportedVersion indicates a header version outside 1.0 through 1.6.
	ErrUnsupportedVersion
)

// String returns a human-readable error kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrMalformedBytecode:
		return "MalformedBytecode"
	case ErrUnsupportedVersion:
		return "UnsupportedVersion"
	default:
		return "Unknown"
	}
}

// Error represents a SPIR-V decoding error.
type Error struct {
	// Kind categorizes the error.
	Kind ErrorKind

	// Offset is the word offset in the module where decoding failed.
	Offset int

	// Message provides details about the error.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("spirv %s at word %d: %s", e.Kind, e.Offset, e.Message)
}

// NewError creates a new decoding error.
func NewError(kind ErrorKind, offset int, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Offset:  offset,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsMalformed returns true if the error is a structural decoding failure.
// An unsupported version counts as malformed input.
func (e *Error) IsMalformed() bool {
	return e.Kind == ErrMalformedBytecode || e.Kind == ErrUnsupportedVersion
}
