// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package spirv

import (
	"encoding/binary"
	"strings"
)

// Header is the decoded five-word module header.
type Header struct {
	Version   Version
	Generator uint32
	Bound     uint32
	Schema    uint32

	// BigEndian reports whether the module was stored byte-swapped.
	BigEndian bool
}

// Instruction is a decoded instruction.
type Instruction struct {
	Opcode OpCode

	// Operands holds every word after the opcode word, including the
	// result type and result ID where the opcode has them.
	Operands []uint32

	// Offset is the word offset of the opcode word within the module.
	Offset int
}

// ResultType returns the result type ID, if the opcode produces one.
func (i *Instruction) ResultType() (uint32, bool) {
	info := opInfoFor(i.Opcode)
	if !info.hasType || len(i.Operands) == 0 {
		return 0, false
	}
	return i.Operands[0], true
}

// ResultID returns the result ID, if the opcode produces one.
func (i *Instruction) ResultID() (uint32, bool) {
	info := opInfoFor(i.Opcode)
	if !info.hasResult {
		return 0, false
	}
	idx := 0
	if info.hasType {
		idx = 1
	}
	if idx >= len(i.Operands) {
		return 0, false
	}
	return i.Operands[idx], true
}

// Word returns operand n, or 0 if the instruction is too short.
func (i *Instruction) Word(n int) uint32 {
	if n < 0 || n >= len(i.Operands) {
		return 0
	}
	return i.Operands[n]
}

// Literal decodes a literal string starting at operand n. It returns the
// string and the number of words it occupied.
func (i *Instruction) Literal(n int) (string, int) {
	if n < 0 || n >= len(i.Operands) {
		return "", 0
	}
	return decodeString(i.Operands[n:])
}

// EntryPoint is a decoded OpEntryPoint.
type EntryPoint struct {
	Model    ExecutionModel
	Function uint32
	Name     string

	// Interface lists the variable IDs in the entry point's interface.
	Interface []uint32
}

// Function is the instruction range of one OpFunction ... OpFunctionEnd.
type Function struct {
	ID   uint32
	Body []Instruction
}

// Module is a decoded SPIR-V module. It is read-only after Parse returns.
type Module struct {
	Header       Header
	Instructions []Instruction

	byID        []int32 // result ID -> index into Instructions, -1 when absent
	entryPoints []EntryPoint
	functions   map[uint32]Function
	names       map[uint32]string
	memberNames map[uint32]map[uint32]string
}

// Lookup returns the instruction that defines id.
func (m *Module) Lookup(id uint32) (*Instruction, bool) {
	if int(id) >= len(m.byID) {
		return nil, false
	}
	idx := m.byID[id]
	if idx < 0 {
		return nil, false
	}
	return &m.Instructions[idx], true
}

// EntryPoints returns the module's entry points in declaration order.
func (m *Module) EntryPoints() []EntryPoint {
	return m.entryPoints
}

// FindEntryPoint returns the entry point with the given name and model.
func (m *Module) FindEntryPoint(name string, model ExecutionModel) (EntryPoint, bool) {
	for _, ep := range m.entryPoints {
		if ep.Name == name && ep.Model == model {
			return ep, true
		}
	}
	return EntryPoint{}, false
}

// Function returns the body of the function with the given ID.
func (m *Module) Function(id uint32) (Function, bool) {
	fn, ok := m.functions[id]
	return fn, ok
}

// Name returns the OpName debug name of id, or "" when none was emitted.
func (m *Module) Name(id uint32) string {
	return m.names[id]
}

// MemberName returns the OpMemberName debug name of a struct member.
func (m *Module) MemberName(structID, member uint32) string {
	return m.memberNames[structID][member]
}

// Parse validates and decodes a SPIR-V module.
func Parse(data []byte) (*Module, error) {
	if len(data) < HeaderWords*4 {
		return nil, NewError(ErrMalformedBytecode, 0, "module is %d bytes, header needs %d", len(data), HeaderWords*4)
	}
	if len(data)%4 != 0 {
		return nil, NewError(ErrMalformedBytecode, len(data)/4, "module length %d is not a multiple of 4", len(data))
	}

	var order binary.ByteOrder = binary.LittleEndian
	bigEndian := false
	switch binary.LittleEndian.Uint32(data) {
	case MagicNumber:
	case swap32(MagicNumber):
		order = binary.BigEndian
		bigEndian = true
	default:
		return nil, NewError(ErrMalformedBytecode, 0, "invalid magic 0x%08X", binary.LittleEndian.Uint32(data))
	}

	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = order.Uint32(data[i*4:])
	}

	hdr := Header{
		Version:   wordToVersion(words[1]),
		Generator: words[2],
		Bound:     words[3],
		Schema:    words[4],
		BigEndian: bigEndian,
	}
	if hdr.Version.Major != 1 || hdr.Version.Minor > 6 || words[1]&0xFF0000FF != 0 {
		return nil, NewError(ErrUnsupportedVersion, 1, "version word 0x%08X", words[1])
	}
	if hdr.Bound == 0 || hdr.Bound > maxBound {
		return nil, NewError(ErrMalformedBytecode, 3, "bound %d outside 1..%d", hdr.Bound, maxBound)
	}

	d := decoder{
		mod: &Module{
			Header:      hdr,
			byID:        make([]int32, hdr.Bound),
			functions:   make(map[uint32]Function),
			names:       make(map[uint32]string),
			memberNames: make(map[uint32]map[uint32]string),
		},
		words: words,
	}
	for i := range d.mod.byID {
		d.mod.byID[i] = -1
	}
	if err := d.decode(); err != nil {
		return nil, err
	}
	return d.mod, nil
}

// maxBound is the universal limit on result IDs (0x3FFFFF) plus one.
const maxBound = 0x400000

type decoder struct {
	mod   *Module
	words []uint32
}

func (d *decoder) decode() error {
	offset := HeaderWords
	for offset < len(d.words) {
		word := d.words[offset]
		opcode := OpCode(word & 0xFFFF)
		count := int(word >> 16)
		if count == 0 {
			return NewError(ErrMalformedBytecode, offset, "%s has word count 0", opcode)
		}
		if offset+count > len(d.words) {
			return NewError(ErrMalformedBytecode, offset, "%s needs %d words, %d remain", opcode, count, len(d.words)-offset)
		}

		inst := Instruction{
			Opcode:   opcode,
			Operands: d.words[offset+1 : offset+count : offset+count],
			Offset:   offset,
		}
		if err := d.index(inst); err != nil {
			return err
		}
		offset += count
	}
	return d.collectFunctions()
}

// index records inst and its result ID.
func (d *decoder) index(inst Instruction) error {
	mod := d.mod
	info := opInfoFor(inst.Opcode)
	need := 0
	if info.hasType {
		need++
	}
	if info.hasResult {
		need++
	}
	need += info.minOperands
	if len(inst.Operands) < need {
		return NewError(ErrMalformedBytecode, inst.Offset, "%s has %d operands, needs %d", inst.Opcode, len(inst.Operands), need)
	}

	idx := len(mod.Instructions)
	mod.Instructions = append(mod.Instructions, inst)

	if id, ok := inst.ResultID(); ok {
		if id == 0 || id >= mod.Header.Bound {
			return NewError(ErrMalformedBytecode, inst.Offset, "result id %d outside bound %d", id, mod.Header.Bound)
		}
		if mod.byID[id] >= 0 {
			return NewError(ErrMalformedBytecode, inst.Offset, "result id %d defined twice", id)
		}
		mod.byID[id] = int32(idx)
	}

	switch inst.Opcode {
	case OpName:
		s, _ := inst.Literal(1)
		mod.names[inst.Operands[0]] = s
	case OpMemberName:
		s, _ := inst.Literal(2)
		members := mod.memberNames[inst.Operands[0]]
		if members == nil {
			members = make(map[uint32]string)
			mod.memberNames[inst.Operands[0]] = members
		}
		members[inst.Operands[1]] = s
	case OpEntryPoint:
		name, n := inst.Literal(2)
		ep := EntryPoint{
			Model:    ExecutionModel(inst.Operands[0]),
			Function: inst.Operands[1],
			Name:     name,
		}
		if 2+n < len(inst.Operands) {
			ep.Interface = inst.Operands[2+n:]
		}
		mod.entryPoints = append(mod.entryPoints, ep)
	}
	return nil
}

// collectFunctions slices function bodies out of the instruction list.
func (d *decoder) collectFunctions() error {
	mod := d.mod
	start := -1
	var current uint32
	for i := range mod.Instructions {
		inst := &mod.Instructions[i]
		switch inst.Opcode {
		case OpFunction:
			if start >= 0 {
				return NewError(ErrMalformedBytecode, inst.Offset, "nested OpFunction")
			}
			current, _ = inst.ResultID()
			start = i
		case OpFunctionEnd:
			if start < 0 {
				return NewError(ErrMalformedBytecode, inst.Offset, "OpFunctionEnd without OpFunction")
			}
			mod.functions[current] = Function{ID: current, Body: mod.Instructions[start : i+1 : i+1]}
			start = -1
		}
	}
	if start >= 0 {
		return NewError(ErrMalformedBytecode, mod.Instructions[start].Offset, "function %d has no OpFunctionEnd", current)
	}
	return nil
}

// decodeString decodes a nul-terminated, word-packed literal string.
func decodeString(words []uint32) (string, int) {
	var sb strings.Builder
	for i, w := range words {
		for shift := 0; shift < 32; shift += 8 {
			b := byte(w >> shift)
			if b == 0 {
				return sb.String(), i + 1
			}
			sb.WriteByte(b)
		}
	}
	return sb.String(), len(words)
}

func swap32(v uint32) uint32 {
	return v>>24 | (v>>8)&0xFF00 | (v<<8)&0xFF0000 | v<<24
}
