// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package reflection

import (
	"strconv"

	"github.com/gogpu/spvreflect/shader"
	"github.com/gogpu/spvreflect/spirv"
)

// MetadataBuilder turns a Classification into shader.Metadata.
//
// Block members and vertex attributes are laid out as an unpadded running
// sum of their sizes. Push-constant ranges use the compiler's Offset
// member decorations, falling back to the running sum.
type MetadataBuilder struct {
	mod         *spirv.Module
	decorations *DecorationTable
	resolver    *TypeResolver
}

// NewMetadataBuilder creates a builder for mod.
func NewMetadataBuilder(mod *spirv.Module, decorations *DecorationTable, resolver *TypeResolver) *MetadataBuilder {
	return &MetadataBuilder{mod: mod, decorations: decorations, resolver: resolver}
}

// Build assembles the five metadata collections. It either succeeds for
// every resource or returns the first error with no partial result.
func (b *MetadataBuilder) Build(c *Classification) (*shader.Metadata, error) {
	md := &shader.Metadata{}

	for _, res := range c.UniformBuffers {
		_, members, size, err := b.block(res.Type)
		if err != nil {
			return nil, err
		}
		md.Uniforms = append(md.Uniforms, shader.UniformProperty{
			Name:    res.Name,
			Key:     res.Key,
			Size:    size,
			Members: members,
		})
	}

	for _, res := range c.PushConstants {
		ranges, err := b.pushConstants(res, c.ActiveMembers[res.Variable])
		if err != nil {
			return nil, err
		}
		md.PushConstants = append(md.PushConstants, ranges...)
	}

	var offset uint32
	for _, res := range c.VertexInputs {
		desc, err := b.resolver.Resolve(res.Type)
		if err != nil {
			return nil, err
		}
		if desc.IsMatrix() {
			return nil, NewError(ErrUnsupportedType, res.Type, "matrix vertex input %q", res.Name)
		}
		md.VertexInputs = append(md.VertexInputs, shader.VertexInputAttribute{
			Name:     res.Name,
			Location: res.Location,
			Binding:  0,
			Offset:   offset,
			Type:     desc,
			Size:     desc.Size(),
		})
		offset += desc.Size()
	}

	for _, res := range c.SampledImages {
		md.Samplers = append(md.Samplers, shader.SamplerProperty{
			Name: res.Name,
			Key:  res.Key,
		})
	}

	for _, res := range c.StorageBuffers {
		st, members, size, err := b.block(res.Type)
		if err != nil {
			return nil, err
		}
		md.StorageBuffers = append(md.StorageBuffers, shader.StorageBuffer{
			Name:     res.Name,
			TypeName: st.Name,
			Key:      res.Key,
			Size:     size,
			Flags:    b.storageFlags(res.Variable, st),
			Members:  members,
		})
	}

	return md, nil
}

// block resolves every member of a struct in declaration order.
func (b *MetadataBuilder) block(id uint32) (StructType, []shader.UniformMember, uint32, error) {
	st, err := b.resolver.Struct(id)
	if err != nil {
		return StructType{}, nil, 0, err
	}
	members := make([]shader.UniformMember, 0, len(st.Members))
	var size uint32
	for i, memberType := range st.Members {
		desc, err := b.resolver.Resolve(memberType)
		if err != nil {
			return StructType{}, nil, 0, wrapError(ErrUnsupportedType, id, err, "member %d of %s", i, st.Name)
		}
		members = append(members, shader.UniformMember{
			Name:   b.memberName(id, uint32(i)),
			Type:   desc,
			Size:   desc.Size(),
			Offset: size,
		})
		size += desc.Size()
	}
	return st, members, size, nil
}

// pushConstants emits one range per active member of a push-constant block.
func (b *MetadataBuilder) pushConstants(res Resource, active map[uint32]bool) ([]shader.PushConstant, error) {
	st, members, _, err := b.block(res.Type)
	if err != nil {
		return nil, err
	}
	var out []shader.PushConstant
	for i, m := range members {
		if !active[uint32(i)] {
			continue
		}
		offset, ok := b.decorations.LookupMember(st.ID, uint32(i), spirv.DecorationOffset)
		if !ok {
			offset = m.Offset
		}
		out = append(out, shader.PushConstant{
			Block:  res.Name,
			Member: m.Name,
			Offset: offset,
			Size:   m.Size,
		})
	}
	return out, nil
}

// storageFlags derives access flags from NonWritable and NonReadable on
// the variable, or on every member of its block.
func (b *MetadataBuilder) storageFlags(variable uint32, st StructType) shader.StorageFlags {
	var flags shader.StorageFlags
	if b.decorations.Has(variable, spirv.DecorationNonWritable) || b.allMembers(st, spirv.DecorationNonWritable) {
		flags |= shader.StorageReadOnly
	}
	if b.decorations.Has(variable, spirv.DecorationNonReadable) || b.allMembers(st, spirv.DecorationNonReadable) {
		flags |= shader.StorageWriteOnly
	}
	return flags
}

func (b *MetadataBuilder) allMembers(st StructType, kind spirv.Decoration) bool {
	if len(st.Members) == 0 {
		return false
	}
	for i := range st.Members {
		if !b.decorations.HasMember(st.ID, uint32(i), kind) {
			return false
		}
	}
	return true
}

func (b *MetadataBuilder) memberName(structID, member uint32) string {
	if name := b.mod.MemberName(structID, member); name != "" {
		return name
	}
	return "member_" + strconv.FormatUint(uint64(member), 10)
}
