// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build spvreflect_debug

package debug

// Enabled reports whether debug checks are compiled in.
const Enabled = true
