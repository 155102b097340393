// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build !spvreflect_debug

// Package debug holds checks that only run in debug builds. Build with
// -tags spvreflect_debug to enable them.
package debug

// Enabled reports whether debug checks are compiled in.
const Enabled = false
