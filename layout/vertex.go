// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package layout

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/spvreflect/shader"
)

type formatKey struct {
	kind       shader.ScalarKind
	components uint32
}

var vertexFormats = map[formatKey]gputypes.VertexFormat{
	{shader.KindFloat32, 1}: gputypes.VertexFormatFloat32,
	{shader.KindFloat32, 2}: gputypes.VertexFormatFloat32x2,
	{shader.KindFloat32, 3}: gputypes.VertexFormatFloat32x3,
	{shader.KindFloat32, 4}: gputypes.VertexFormatFloat32x4,
	{shader.KindFloat16, 2}: gputypes.VertexFormatFloat16x2,
	{shader.KindFloat16, 4}: gputypes.VertexFormatFloat16x4,
	{shader.KindInt32, 1}:   gputypes.VertexFormatSint32,
	{shader.KindInt32, 2}:   gputypes.VertexFormatSint32x2,
	{shader.KindInt32, 3}:   gputypes.VertexFormatSint32x3,
	{shader.KindInt32, 4}:   gputypes.VertexFormatSint32x4,
	{shader.KindUint32, 1}:  gputypes.VertexFormatUint32,
	{shader.KindUint32, 2}:  gputypes.VertexFormatUint32x2,
	{shader.KindUint32, 3}:  gputypes.VertexFormatUint32x3,
	{shader.KindUint32, 4}:  gputypes.VertexFormatUint32x4,
	{shader.KindInt16, 2}:   gputypes.VertexFormatSint16x2,
	{shader.KindInt16, 4}:   gputypes.VertexFormatSint16x4,
	{shader.KindUint16, 2}:  gputypes.VertexFormatUint16x2,
	{shader.KindUint16, 4}:  gputypes.VertexFormatUint16x4,
	{shader.KindInt8, 2}:    gputypes.VertexFormatSint8x2,
	{shader.KindInt8, 4}:    gputypes.VertexFormatSint8x4,
	{shader.KindUint8, 2}:   gputypes.VertexFormatUint8x2,
	{shader.KindUint8, 4}:   gputypes.VertexFormatUint8x4,
}

// VertexFormat returns the vertex format matching t.
func VertexFormat(t shader.TypeDescriptor) (gputypes.VertexFormat, bool) {
	if t.IsMatrix() {
		return gputypes.VertexFormatUndefined, false
	}
	f, ok := vertexFormats[formatKey{t.Kind, t.Components}]
	return f, ok
}

// VertexBufferLayout returns a single interleaved buffer layout holding
// every vertex input of md at its reflected offset.
func VertexBufferLayout(md *shader.Metadata) (gputypes.VertexBufferLayout, error) {
	vbl := gputypes.VertexBufferLayout{
		ArrayStride: uint64(md.VertexStride()),
		StepMode:    gputypes.VertexStepModeVertex,
	}
	for _, in := range md.VertexInputs {
		format, ok := VertexFormat(in.Type)
		if !ok {
			return gputypes.VertexBufferLayout{}, fmt.Errorf("layout: vertex input %q: no vertex format for %s", in.Name, in.Type.Name())
		}
		vbl.Attributes = append(vbl.Attributes, gputypes.VertexAttribute{
			Format:         format,
			Offset:         uint64(in.Offset),
			ShaderLocation: in.Location,
		})
	}
	return vbl, nil
}
