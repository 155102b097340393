// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package layout

import (
	"testing"

	gioshader "gioui.org/shader"
	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/spvreflect/shader"
	"github.com/gogpu/spvreflect/spirv"
)

func vec(t *testing.T, kind shader.ScalarKind, n uint32) shader.TypeDescriptor {
	t.Helper()
	td, err := shader.NewTypeDescriptor(kind, n)
	require.NoError(t, err)
	return td
}

func sampleMetadata(t *testing.T) *shader.Metadata {
	t.Helper()
	return &shader.Metadata{
		Uniforms: []shader.UniformProperty{
			{Name: "cameraInfo", Key: shader.ResourceKey{Binding: 2, Set: 0}, Size: 128},
			{Name: "material", Key: shader.ResourceKey{Binding: 0, Set: 2}, Size: 16},
		},
		StorageBuffers: []shader.StorageBuffer{
			{Name: "particles", Key: shader.ResourceKey{Binding: 1, Set: 0}, Size: 32, Flags: shader.StorageReadOnly},
		},
		Samplers: []shader.SamplerProperty{
			{Name: "albedo", Key: shader.ResourceKey{Binding: 0, Set: 0}},
		},
		VertexInputs: []shader.VertexInputAttribute{
			{Name: "inPosition", Location: 0, Offset: 0, Type: vec(t, shader.KindFloat32, 3), Size: 12},
			{Name: "inUv", Location: 1, Offset: 12, Type: vec(t, shader.KindFloat32, 2), Size: 8},
		},
		PushConstants: []shader.PushConstant{
			{Block: "pc", Member: "color", Offset: 0, Size: 16},
			{Block: "pc", Member: "model", Offset: 16, Size: 64},
		},
	}
}

func TestVisibility(t *testing.T) {
	v, err := Visibility(shader.StageFragment)
	require.NoError(t, err)
	assert.Equal(t, gputypes.ShaderStageFragment, v)

	_, err = Visibility(shader.StageGeometry)
	assert.Error(t, err)
}

func TestBindGroupLayouts(t *testing.T) {
	groups := BindGroupLayouts(sampleMetadata(t), gputypes.ShaderStageVertex)
	require.Len(t, groups, 3)

	set0 := groups[0].Entries
	require.Len(t, set0, 3)
	assert.Equal(t, []uint32{0, 1, 2}, []uint32{set0[0].Binding, set0[1].Binding, set0[2].Binding})
	require.NotNil(t, set0[0].Texture)
	assert.Equal(t, gputypes.TextureViewDimension2D, set0[0].Texture.ViewDimension)
	require.NotNil(t, set0[1].Buffer)
	assert.Equal(t, gputypes.BufferBindingTypeReadOnlyStorage, set0[1].Buffer.Type)
	require.NotNil(t, set0[2].Buffer)
	assert.Equal(t, gputypes.BufferBindingTypeUniform, set0[2].Buffer.Type)
	assert.Equal(t, uint64(128), set0[2].Buffer.MinBindingSize)
	assert.Equal(t, gputypes.ShaderStageVertex, set0[2].Visibility)

	assert.Empty(t, groups[1].Entries)
	assert.Equal(t, "set 1", groups[1].Label)
	require.Len(t, groups[2].Entries, 1)
}

func TestBindGroupLayoutsEmpty(t *testing.T) {
	assert.Empty(t, BindGroupLayouts(&shader.Metadata{}, gputypes.ShaderStageCompute))
}

func TestMerge(t *testing.T) {
	md := sampleMetadata(t)
	vs := BindGroupLayouts(md, gputypes.ShaderStageVertex)

	fsMD := &shader.Metadata{
		Uniforms: []shader.UniformProperty{
			{Name: "cameraInfo", Key: shader.ResourceKey{Binding: 2, Set: 0}, Size: 192},
			{Name: "lights", Key: shader.ResourceKey{Binding: 5, Set: 0}, Size: 64},
		},
	}
	fs := BindGroupLayouts(fsMD, gputypes.ShaderStageFragment)

	merged, err := Merge(vs, fs)
	require.NoError(t, err)
	require.Len(t, merged, 3)
	set0 := merged[0].Entries
	require.Len(t, set0, 4)

	camera := set0[2]
	assert.Equal(t, uint32(2), camera.Binding)
	assert.Equal(t, gputypes.ShaderStageVertex|gputypes.ShaderStageFragment, camera.Visibility)
	assert.Equal(t, uint64(192), camera.Buffer.MinBindingSize)
	assert.Equal(t, uint64(128), vs[0].Entries[2].Buffer.MinBindingSize, "merge modified its input")

	assert.Equal(t, uint32(5), set0[3].Binding)
	assert.Equal(t, gputypes.ShaderStageFragment, set0[3].Visibility)
}

func TestMergeConflicts(t *testing.T) {
	a := BindGroupLayouts(&shader.Metadata{
		Uniforms: []shader.UniformProperty{{Key: shader.ResourceKey{Binding: 0}}, {Key: shader.ResourceKey{Binding: 1}}},
	}, gputypes.ShaderStageVertex)
	b := BindGroupLayouts(&shader.Metadata{
		Samplers:       []shader.SamplerProperty{{Key: shader.ResourceKey{Binding: 0}}},
		StorageBuffers: []shader.StorageBuffer{{Key: shader.ResourceKey{Binding: 1}}},
	}, gputypes.ShaderStageFragment)

	merged, err := Merge(a, b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "binding 0 is a uniform buffer in one stage and a texture in another")
	assert.Contains(t, err.Error(), "binding 1 is a uniform buffer in one stage and a storage buffer in another")
	require.Len(t, merged, 1)
	assert.NotNil(t, merged[0].Entries[0].Buffer)
}

func TestVertexBufferLayout(t *testing.T) {
	vbl, err := VertexBufferLayout(sampleMetadata(t))
	require.NoError(t, err)
	assert.Equal(t, uint64(20), vbl.ArrayStride)
	assert.Equal(t, gputypes.VertexStepModeVertex, vbl.StepMode)
	assert.Equal(t, []gputypes.VertexAttribute{
		{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
		{Format: gputypes.VertexFormatFloat32x2, Offset: 12, ShaderLocation: 1},
	}, vbl.Attributes)
}

func TestVertexBufferLayoutUnsupportedFormat(t *testing.T) {
	md := &shader.Metadata{VertexInputs: []shader.VertexInputAttribute{
		{Name: "weights", Type: vec(t, shader.KindFloat64, 3), Size: 24},
	}}
	_, err := VertexBufferLayout(md)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dvec3")
}

func TestVertexFormat(t *testing.T) {
	tests := []struct {
		kind shader.ScalarKind
		n    uint32
		want gputypes.VertexFormat
		ok   bool
	}{
		{shader.KindFloat32, 1, gputypes.VertexFormatFloat32, true},
		{shader.KindInt32, 4, gputypes.VertexFormatSint32x4, true},
		{shader.KindUint32, 2, gputypes.VertexFormatUint32x2, true},
		{shader.KindFloat16, 4, gputypes.VertexFormatFloat16x4, true},
		{shader.KindUint8, 4, gputypes.VertexFormatUint8x4, true},
		{shader.KindUint8, 3, gputypes.VertexFormatUndefined, false},
		{shader.KindBool, 1, gputypes.VertexFormatUndefined, false},
	}
	for _, tt := range tests {
		got, ok := VertexFormat(vec(t, tt.kind, tt.n))
		assert.Equal(t, tt.ok, ok, "%v x%d", tt.kind, tt.n)
		if ok {
			assert.Equal(t, tt.want, got)
		}
	}

	mat, err := shader.NewTypeTable().LookupMatrix(shader.KindFloat32, 4, 4)
	require.NoError(t, err)
	_, ok := VertexFormat(mat)
	assert.False(t, ok)
}

func TestPushConstantRanges(t *testing.T) {
	ranges := PushConstantRanges(sampleMetadata(t), gputypes.ShaderStagesVertexFragment)
	assert.Equal(t, []gputypes.PushConstantRange{
		{Stages: gputypes.ShaderStagesVertexFragment, Start: 0, End: 80},
	}, ranges)

	partial := &shader.Metadata{PushConstants: []shader.PushConstant{{Block: "pc", Member: "model", Offset: 16, Size: 64}}}
	assert.Equal(t, uint32(16), PushConstantRanges(partial, gputypes.ShaderStageVertex)[0].Start)

	assert.Nil(t, PushConstantRanges(&shader.Metadata{}, gputypes.ShaderStageVertex))
}

func TestGioSources(t *testing.T) {
	src, err := GioSources("sprite", shader.StageVertex, sampleMetadata(t), []byte{1, 2, 3, 4})
	require.NoError(t, err)

	assert.Equal(t, "sprite", src.Name)
	assert.Equal(t, "\x01\x02\x03\x04", src.SPIRV)
	assert.Equal(t, 80, src.Uniforms.Size)
	assert.Equal(t, []gioshader.UniformLocation{
		{Name: "pc.color", Type: gioshader.DataTypeFloat, Size: 4, Offset: 0},
		{Name: "pc.model", Type: gioshader.DataTypeFloat, Size: 16, Offset: 16},
	}, src.Uniforms.Locations)
	require.Len(t, src.Inputs, 2)
	assert.Equal(t, gioshader.InputLocation{
		Name: "inUv", Location: 1, Semantic: "TEXCOORD", SemanticIndex: 1,
		Type: gioshader.DataTypeFloat, Size: 2,
	}, src.Inputs[1])
	assert.Equal(t, []gioshader.TextureBinding{{Name: "albedo", Binding: 0}}, src.Textures)
	assert.Equal(t, []gioshader.BufferBinding{{Name: "particles", Binding: 1}}, src.StorageBuffers)
	assert.Equal(t, [3]int{}, src.WorkgroupSize)
}

func TestGioSourcesCompute(t *testing.T) {
	b := spirv.NewBuilder(spirv.Version1_3)
	void := b.AddTypeVoid()
	fnType := b.AddTypeFunction(void)
	function := func() uint32 {
		fn := b.AddFunction(fnType, void, spirv.FunctionControlNone)
		b.AddLabel()
		b.AddReturn()
		b.AddFunctionEnd()
		return fn
	}
	prepass := function()
	fn := function()
	b.AddEntryPoint(spirv.ExecutionModelGLCompute, prepass, "prepass")
	b.AddEntryPoint(spirv.ExecutionModelGLCompute, fn, "main")
	b.AddExecutionMode(prepass, spirv.ExecutionModeLocalSize, 64, 1, 1)
	b.AddExecutionMode(fn, spirv.ExecutionModeLocalSize, 8, 4, 1)

	src, err := GioSources("blur", shader.StageCompute, &shader.Metadata{}, b.Build())
	require.NoError(t, err)
	assert.Equal(t, [3]int{8, 4, 1}, src.WorkgroupSize)

	_, err = GioSources("blur", shader.StageCompute, &shader.Metadata{}, []byte{0})
	assert.Error(t, err)
}

func TestGioSourcesComputeNeedsMain(t *testing.T) {
	b := spirv.NewBuilder(spirv.Version1_3)
	void := b.AddTypeVoid()
	fn := b.AddFunction(b.AddTypeFunction(void), void, spirv.FunctionControlNone)
	b.AddLabel()
	b.AddReturn()
	b.AddFunctionEnd()
	b.AddEntryPoint(spirv.ExecutionModelGLCompute, fn, "prepass")
	b.AddExecutionMode(fn, spirv.ExecutionModeLocalSize, 64, 1, 1)

	_, err := GioSources("blur", shader.StageCompute, &shader.Metadata{}, b.Build())
	assert.ErrorContains(t, err, "main")
}

func TestGioSourcesRejects(t *testing.T) {
	_, err := GioSources("g", shader.StageGeometry, &shader.Metadata{}, nil)
	assert.Error(t, err)

	md := &shader.Metadata{VertexInputs: []shader.VertexInputAttribute{
		{Name: "flag", Type: vec(t, shader.KindBool, 1)},
	}}
	_, err = GioSources("v", shader.StageVertex, md, nil)
	assert.Error(t, err)

	md = &shader.Metadata{PushConstants: []shader.PushConstant{{Block: "pc", Member: "h", Size: 2}}}
	_, err = GioSources("v", shader.StageVertex, md, nil)
	assert.Error(t, err)
}
