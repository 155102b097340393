// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build spvreflect_debug

package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReflectionFailurePanicsInDebug(t *testing.T) {
	f := newFixture(t)
	f.sources.Put("camera.vert", []byte("garbage"))
	e := f.submit(1, tick)
	f.update(e)

	assert.Panics(t, func() { f.update(e) })
}
