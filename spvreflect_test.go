// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package spvreflect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gogpu/spvreflect/shader"
	"github.com/gogpu/spvreflect/spirv"
)

func TestReflect(t *testing.T) {
	b := spirv.NewBuilder(spirv.Version1_0)
	void := b.AddTypeVoid()
	f32 := b.AddTypeFloat(32)
	vec2 := b.AddTypeVector(f32, 2)
	ptr := b.AddTypePointer(spirv.StorageClassInput, vec2)
	uv := b.AddVariable(ptr, spirv.StorageClassInput)
	b.AddName(uv, "inUv")
	b.AddDecorate(uv, spirv.DecorationLocation, 1)
	fn := b.AddFunction(b.AddTypeFunction(void), void, spirv.FunctionControlNone)
	b.AddLabel()
	b.AddReturn()
	b.AddFunctionEnd()
	b.AddEntryPoint(spirv.ExecutionModelVertex, fn, "main", uv)

	md, err := Reflect(b.Build(), shader.StageVertex)
	require.NoError(t, err)
	require.Len(t, md.VertexInputs, 1)
	assert.Equal(t, uint32(1), md.VertexInputs[0].Location)
	assert.Equal(t, uint32(8), md.VertexInputs[0].Size)
}

func TestSetLogger(t *testing.T) {
	t.Cleanup(func() { SetLogger(nil) })

	core, logs := observer.New(zap.DebugLevel)
	SetLogger(zap.New(core))
	Logger().Info("hello", zap.String("k", "v"))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "hello", logs.All()[0].Message)

	SetLogger(nil)
	assert.NotNil(t, Logger())
	Logger().Info("dropped")
	assert.Equal(t, 1, logs.Len())
}
