// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package shader

// UniformMember is one member of a uniform or storage block.
type UniformMember struct {
	Name string
	Type TypeDescriptor
	Size uint32

	// Offset is the running sum of the sizes of the preceding members.
	// No std140 or std430 padding is applied.
	Offset uint32
}

// UniformProperty describes a uniform buffer block.
type UniformProperty struct {
	Name    string
	Key     ResourceKey
	Size    uint32
	Members []UniformMember
}

// PushConstant is one active member range of a push-constant block.
type PushConstant struct {
	Block  string
	Member string
	Offset uint32
	Size   uint32
}

// VertexInputAttribute is a vertex stage input. Binding is always 0: all
// attributes are assumed to come from one interleaved buffer.
type VertexInputAttribute struct {
	Name     string
	Location uint32
	Binding  uint32
	Offset   uint32
	Type     TypeDescriptor
	Size     uint32
}

// SamplerProperty describes a combined image sampler binding.
type SamplerProperty struct {
	Name string
	Key  ResourceKey
}

// StorageFlags are access restrictions of a storage buffer.
type StorageFlags uint8

const (
	StorageReadOnly StorageFlags = 1 << iota
	StorageWriteOnly
)

// ReadOnly reports whether the buffer is decorated NonWritable.
func (f StorageFlags) ReadOnly() bool { return f&StorageReadOnly != 0 }

// WriteOnly reports whether the buffer is decorated NonReadable.
func (f StorageFlags) WriteOnly() bool { return f&StorageWriteOnly != 0 }

// StorageBuffer describes a shader storage buffer block.
type StorageBuffer struct {
	Name     string
	TypeName string
	Key      ResourceKey
	Size     uint32
	Flags    StorageFlags
	Members  []UniformMember
}

// Metadata is the reflected binding interface of one shader module.
// Each collection is in declaration order; an empty collection is nil.
type Metadata struct {
	Uniforms       []UniformProperty
	PushConstants  []PushConstant
	VertexInputs   []VertexInputAttribute
	Samplers       []SamplerProperty
	StorageBuffers []StorageBuffer
}

// VertexStride returns the byte stride of the interleaved vertex buffer
// described by VertexInputs.
func (m *Metadata) VertexStride() uint32 {
	var stride uint32
	for _, attr := range m.VertexInputs {
		stride += attr.Size
	}
	return stride
}

// PushConstantSize returns the end of the furthest push-constant range.
func (m *Metadata) PushConstantSize() uint32 {
	var end uint32
	for _, pc := range m.PushConstants {
		end = max(end, pc.Offset+pc.Size)
	}
	return end
}
