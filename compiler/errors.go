// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package compiler

import (
	"fmt"
	"strings"

	"github.com/gogpu/spvreflect/shader"
)

// Error reports a failed compilation. Diagnostic holds the compiler's own
// output; Err holds the underlying cause when there is one.
type Error struct {
	Stage      shader.Stage
	Diagnostic string
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("compile %s shader", e.Stage)
	if d := strings.TrimSpace(e.Diagnostic); d != "" {
		msg += ": " + d
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(stage shader.Stage, diagnostic string, err error) *Error {
	return &Error{Stage: stage, Diagnostic: diagnostic, Err: err}
}
