// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build !spvreflect_debug

package shader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTrustsCallerInRelease(t *testing.T) {
	assert.NotPanics(t, func() { Stage(9).Validate() })
	assert.NotPanics(t, func() { StageCompute.Validate() })
}
