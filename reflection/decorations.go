// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package reflection

import "github.com/gogpu/spvreflect/spirv"

// retained lists the decorations the reflector reads. Everything else is
// dropped while indexing.
var retained = map[spirv.Decoration]bool{
	spirv.DecorationDescriptorSet: true,
	spirv.DecorationBinding:       true,
	spirv.DecorationLocation:      true,
	spirv.DecorationNonWritable:   true,
	spirv.DecorationNonReadable:   true,
	spirv.DecorationBlock:         true,
	spirv.DecorationBufferBlock:   true,
	spirv.DecorationBuiltIn:       true,
	spirv.DecorationOffset:        true,
}

type decorationKey struct {
	id   uint32
	kind spirv.Decoration
}

type memberDecorationKey struct {
	id     uint32
	member uint32
	kind   spirv.Decoration
}

// DecorationTable indexes OpDecorate and OpMemberDecorate by target and
// kind. Flag decorations without an operand are stored with value 0.
type DecorationTable struct {
	ids     map[decorationKey]uint32
	members map[memberDecorationKey]uint32
}

// NewDecorationTable scans mod for the decorations reflection needs.
func NewDecorationTable(mod *spirv.Module) *DecorationTable {
	t := &DecorationTable{
		ids:     make(map[decorationKey]uint32),
		members: make(map[memberDecorationKey]uint32),
	}
	for i := range mod.Instructions {
		inst := &mod.Instructions[i]
		switch inst.Opcode {
		case spirv.OpDecorate:
			kind := spirv.Decoration(inst.Word(1))
			if retained[kind] {
				t.ids[decorationKey{inst.Word(0), kind}] = inst.Word(2)
			}
		case spirv.OpMemberDecorate:
			kind := spirv.Decoration(inst.Word(2))
			if retained[kind] {
				t.members[memberDecorationKey{inst.Word(0), inst.Word(1), kind}] = inst.Word(3)
			}
		}
	}
	return t
}

// Lookup returns the value of decoration kind on id. A missing
// decoration is reported with ok == false, not as an error.
func (t *DecorationTable) Lookup(id uint32, kind spirv.Decoration) (uint32, bool) {
	v, ok := t.ids[decorationKey{id, kind}]
	return v, ok
}

// Has reports whether id carries decoration kind.
func (t *DecorationTable) Has(id uint32, kind spirv.Decoration) bool {
	_, ok := t.ids[decorationKey{id, kind}]
	return ok
}

// LookupMember returns the value of decoration kind on a struct member.
func (t *DecorationTable) LookupMember(structID, member uint32, kind spirv.Decoration) (uint32, bool) {
	v, ok := t.members[memberDecorationKey{structID, member, kind}]
	return v, ok
}

// HasMember reports whether a struct member carries decoration kind.
func (t *DecorationTable) HasMember(structID, member uint32, kind spirv.Decoration) bool {
	_, ok := t.members[memberDecorationKey{structID, member, kind}]
	return ok
}

// Binding returns the binding and descriptor set of id, each defaulting to 0.
func (t *DecorationTable) Binding(id uint32) (binding, set uint32) {
	binding, _ = t.Lookup(id, spirv.DecorationBinding)
	set, _ = t.Lookup(id, spirv.DecorationDescriptorSet)
	return binding, set
}
