// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build !spvreflect_debug

package debug

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReleaseChecksAreNoOps(t *testing.T) {
	assert.False(t, Enabled)
	assert.NotPanics(t, func() { Assert(false, "unreachable %d", 1) })
	assert.NotPanics(t, func() { Fail(errors.New("boom")) })
}
