// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build spvreflect_debug

package shader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePanicsOnUndefinedStage(t *testing.T) {
	assert.PanicsWithValue(t, "shader: invalid stage 9", func() { Stage(9).Validate() })
	assert.NotPanics(t, func() { StageGeometry.Validate() })
}
