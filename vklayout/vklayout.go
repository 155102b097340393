// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package vklayout converts reflected shader metadata into Vulkan layout
// structures from github.com/goki/vulkan.
package vklayout

import (
	"fmt"
	"slices"

	vk "github.com/goki/vulkan"

	"github.com/gogpu/spvreflect/shader"
)

// StageFlags returns the Vulkan stage bit for stage.
func StageFlags(stage shader.Stage) vk.ShaderStageFlags {
	switch stage {
	case shader.StageVertex:
		return vk.ShaderStageFlags(vk.ShaderStageVertexBit)
	case shader.StageFragment:
		return vk.ShaderStageFlags(vk.ShaderStageFragmentBit)
	case shader.StageCompute:
		return vk.ShaderStageFlags(vk.ShaderStageComputeBit)
	case shader.StageGeometry:
		return vk.ShaderStageFlags(vk.ShaderStageGeometryBit)
	default:
		return 0
	}
}

// DescriptorSetLayoutBindings returns the descriptor bindings of md
// grouped by set number. Sets without bindings below the highest used set
// are empty. Bindings within a set are sorted by binding number.
func DescriptorSetLayoutBindings(md *shader.Metadata, stages vk.ShaderStageFlags) [][]vk.DescriptorSetLayoutBinding {
	var sets [][]vk.DescriptorSetLayoutBinding
	add := func(key shader.ResourceKey, typ vk.DescriptorType) {
		for uint32(len(sets)) <= key.Set {
			sets = append(sets, nil)
		}
		sets[key.Set] = append(sets[key.Set], vk.DescriptorSetLayoutBinding{
			Binding:         key.Binding,
			DescriptorType:  typ,
			DescriptorCount: 1,
			StageFlags:      stages,
		})
	}
	for _, u := range md.Uniforms {
		add(u.Key, vk.DescriptorTypeUniformBuffer)
	}
	for _, sb := range md.StorageBuffers {
		add(sb.Key, vk.DescriptorTypeStorageBuffer)
	}
	for _, s := range md.Samplers {
		add(s.Key, vk.DescriptorTypeCombinedImageSampler)
	}
	for _, set := range sets {
		slices.SortFunc(set, func(a, b vk.DescriptorSetLayoutBinding) int {
			return int(a.Binding) - int(b.Binding)
		})
	}
	return sets
}

// PushConstantRanges returns the push constant range of md for stages. A
// pipeline layout may hold only one range per stage, so the active members
// are covered by a single range from the lowest offset to the end of the
// last member. It returns nil when no push constant is active.
func PushConstantRanges(md *shader.Metadata, stages vk.ShaderStageFlags) []vk.PushConstantRange {
	if len(md.PushConstants) == 0 {
		return nil
	}
	start, end := md.PushConstants[0].Offset, uint32(0)
	for _, pc := range md.PushConstants {
		start = min(start, pc.Offset)
		end = max(end, pc.Offset+pc.Size)
	}
	return []vk.PushConstantRange{{StageFlags: stages, Offset: start, Size: end - start}}
}

type formatKey struct {
	kind       shader.ScalarKind
	components uint32
}

var formats = map[formatKey]vk.Format{
	{shader.KindFloat32, 1}: vk.FormatR32Sfloat,
	{shader.KindFloat32, 2}: vk.FormatR32g32Sfloat,
	{shader.KindFloat32, 3}: vk.FormatR32g32b32Sfloat,
	{shader.KindFloat32, 4}: vk.FormatR32g32b32a32Sfloat,
	{shader.KindFloat64, 1}: vk.FormatR64Sfloat,
	{shader.KindFloat64, 2}: vk.FormatR64g64Sfloat,
	{shader.KindFloat64, 3}: vk.FormatR64g64b64Sfloat,
	{shader.KindFloat64, 4}: vk.FormatR64g64b64a64Sfloat,
	{shader.KindFloat16, 1}: vk.FormatR16Sfloat,
	{shader.KindFloat16, 2}: vk.FormatR16g16Sfloat,
	{shader.KindFloat16, 3}: vk.FormatR16g16b16Sfloat,
	{shader.KindFloat16, 4}: vk.FormatR16g16b16a16Sfloat,
	{shader.KindInt32, 1}:   vk.FormatR32Sint,
	{shader.KindInt32, 2}:   vk.FormatR32g32Sint,
	{shader.KindInt32, 3}:   vk.FormatR32g32b32Sint,
	{shader.KindInt32, 4}:   vk.FormatR32g32b32a32Sint,
	{shader.KindUint32, 1}:  vk.FormatR32Uint,
	{shader.KindUint32, 2}:  vk.FormatR32g32Uint,
	{shader.KindUint32, 3}:  vk.FormatR32g32b32Uint,
	{shader.KindUint32, 4}:  vk.FormatR32g32b32a32Uint,
	{shader.KindInt16, 1}:   vk.FormatR16Sint,
	{shader.KindInt16, 2}:   vk.FormatR16g16Sint,
	{shader.KindInt16, 3}:   vk.FormatR16g16b16Sint,
	{shader.KindInt16, 4}:   vk.FormatR16g16b16a16Sint,
	{shader.KindUint16, 1}:  vk.FormatR16Uint,
	{shader.KindUint16, 2}:  vk.FormatR16g16Uint,
	{shader.KindUint16, 3}:  vk.FormatR16g16b16Uint,
	{shader.KindUint16, 4}:  vk.FormatR16g16b16a16Uint,
	{shader.KindInt8, 1}:    vk.FormatR8Sint,
	{shader.KindInt8, 2}:    vk.FormatR8g8Sint,
	{shader.KindInt8, 3}:    vk.FormatR8g8b8Sint,
	{shader.KindInt8, 4}:    vk.FormatR8g8b8a8Sint,
	{shader.KindUint8, 1}:   vk.FormatR8Uint,
	{shader.KindUint8, 2}:   vk.FormatR8g8Uint,
	{shader.KindUint8, 3}:   vk.FormatR8g8b8Uint,
	{shader.KindUint8, 4}:   vk.FormatR8g8b8a8Uint,
}

// Format returns the Vulkan format of a scalar or vector type.
func Format(t shader.TypeDescriptor) (vk.Format, bool) {
	if t.IsMatrix() {
		return vk.FormatUndefined, false
	}
	f, ok := formats[formatKey{t.Kind, t.Components}]
	return f, ok
}

// VertexInput returns the binding and attribute descriptions for reading
// every vertex input of md from one interleaved buffer at binding 0.
func VertexInput(md *shader.Metadata) (vk.VertexInputBindingDescription, []vk.VertexInputAttributeDescription, error) {
	binding := vk.VertexInputBindingDescription{
		Binding:   0,
		Stride:    md.VertexStride(),
		InputRate: vk.VertexInputRateVertex,
	}
	var attrs []vk.VertexInputAttributeDescription
	for _, in := range md.VertexInputs {
		format, ok := Format(in.Type)
		if !ok {
			return vk.VertexInputBindingDescription{}, nil,
				fmt.Errorf("vklayout: vertex input %q: no Vulkan format for %s", in.Name, in.Type.Name())
		}
		attrs = append(attrs, vk.VertexInputAttributeDescription{
			Location: in.Location,
			Binding:  in.Binding,
			Format:   format,
			Offset:   in.Offset,
		})
	}
	return binding, attrs, nil
}
