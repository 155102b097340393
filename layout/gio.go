// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package layout

import (
	"fmt"

	gioshader "gioui.org/shader"

	"github.com/gogpu/spvreflect/shader"
	"github.com/gogpu/spvreflect/spirv"
)

// GioSources describes a reflected SPIR-V module in the form gio's GPU
// backends load shaders from. Push constants become gio's uniform block,
// which gio's Vulkan backend uploads as push constants. For compute
// shaders the workgroup size is read from the module's LocalSize mode.
func GioSources(name string, stage shader.Stage, md *shader.Metadata, bytecode []byte) (gioshader.Sources, error) {
	if stage == shader.StageGeometry {
		return gioshader.Sources{}, fmt.Errorf("layout: gio has no geometry stage")
	}
	src := gioshader.Sources{
		Name:  name,
		SPIRV: string(bytecode),
	}

	for _, pc := range md.PushConstants {
		n, err := pushConstantFloats(pc.Member, pc.Size)
		if err != nil {
			return gioshader.Sources{}, err
		}
		src.Uniforms.Locations = append(src.Uniforms.Locations, gioshader.UniformLocation{
			Name:   pc.Block + "." + pc.Member,
			Type:   gioshader.DataTypeFloat,
			Size:   n,
			Offset: int(pc.Offset),
		})
	}
	src.Uniforms.Size = int(md.PushConstantSize())

	for _, in := range md.VertexInputs {
		dt, ok := gioScalar(in.Type.Kind)
		if !ok || in.Type.IsMatrix() {
			return gioshader.Sources{}, fmt.Errorf("layout: vertex input %q: gio cannot describe %s", in.Name, in.Type.Name())
		}
		src.Inputs = append(src.Inputs, gioshader.InputLocation{
			Name:          in.Name,
			Location:      int(in.Location),
			Semantic:      "TEXCOORD",
			SemanticIndex: int(in.Location),
			Type:          dt,
			Size:          int(in.Type.Components),
		})
	}

	for _, s := range md.Samplers {
		src.Textures = append(src.Textures, gioshader.TextureBinding{Name: s.Name, Binding: int(s.Key.Binding)})
	}
	for _, sb := range md.StorageBuffers {
		src.StorageBuffers = append(src.StorageBuffers, gioshader.BufferBinding{Name: sb.Name, Binding: int(sb.Key.Binding)})
	}

	if stage == shader.StageCompute {
		size, err := workgroupSize(bytecode)
		if err != nil {
			return gioshader.Sources{}, err
		}
		src.WorkgroupSize = size
	}
	return src, nil
}

// pushConstantFloats returns the number of 32-bit floats a push constant
// member spans. Push constant records carry no component type.
func pushConstantFloats(member string, size uint32) (int, error) {
	if size%4 != 0 {
		return 0, fmt.Errorf("layout: push constant %q: size %d is not a multiple of 4", member, size)
	}
	return int(size / 4), nil
}

func gioScalar(kind shader.ScalarKind) (gioshader.DataType, bool) {
	switch kind {
	case shader.KindFloat32:
		return gioshader.DataTypeFloat, true
	case shader.KindInt32, shader.KindUint32:
		return gioshader.DataTypeInt, true
	case shader.KindInt16, shader.KindUint16:
		return gioshader.DataTypeShort, true
	default:
		return 0, false
	}
}

// workgroupSize returns the LocalSize of the compute entry point "main".
func workgroupSize(bytecode []byte) ([3]int, error) {
	mod, err := spirv.Parse(bytecode)
	if err != nil {
		return [3]int{}, fmt.Errorf("layout: %w", err)
	}
	entry, ok := mod.FindEntryPoint("main", spirv.ExecutionModelGLCompute)
	if !ok {
		return [3]int{}, fmt.Errorf("layout: no compute entry point %q", "main")
	}
	for _, inst := range mod.Instructions {
		if inst.Opcode != spirv.OpExecutionMode || len(inst.Operands) < 5 || inst.Operands[0] != entry.Function {
			continue
		}
		if spirv.ExecutionMode(inst.Operands[1]) == spirv.ExecutionModeLocalSize {
			return [3]int{int(inst.Operands[2]), int(inst.Operands[3]), int(inst.Operands[4])}, nil
		}
	}
	return [3]int{1, 1, 1}, nil
}
