// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build spvreflect_debug

package debug

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDebugChecksPanic(t *testing.T) {
	assert.True(t, Enabled)
	assert.PanicsWithValue(t, "bad id 7", func() { Assert(false, "bad id %d", 7) })
	assert.NotPanics(t, func() { Assert(true, "fine") })

	err := errors.New("boom")
	assert.PanicsWithError(t, "boom", func() { Fail(err) })
}
