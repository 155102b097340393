// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package debug

import "fmt"

// Assert panics with the formatted message when cond is false and debug
// checks are enabled. It is a no-op in release builds.
func Assert(cond bool, format string, args ...any) {
	if Enabled && !cond {
		panic(fmt.Sprintf(format, args...))
	}
}

// Fail panics with err in debug builds.
func Fail(err error) {
	if Enabled {
		panic(err)
	}
}
