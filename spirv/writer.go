// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package spirv

import (
	"encoding/binary"
	"math"
)

// encoded is an instruction waiting to be written.
type encoded struct {
	opcode OpCode
	words  []uint32 // result type ID, result ID, operands
}

// encode returns the instruction with its leading opcode word.
func (e encoded) encode() []uint32 {
	wordCount := uint32(len(e.words) + 1) // +1 for opcode word
	result := make([]uint32, 0, wordCount)
	result = append(result, (wordCount<<16)|uint32(e.opcode))
	return append(result, e.words...)
}

// operands accumulates the words of one instruction.
type operands []uint32

// str appends a null-terminated UTF-8 string padded to a word boundary.
func (o operands) str(s string) operands {
	bytes := append([]byte(s), 0)
	for len(bytes)%4 != 0 {
		bytes = append(bytes, 0)
	}
	for i := 0; i < len(bytes); i += 4 {
		o = append(o, binary.LittleEndian.Uint32(bytes[i:]))
	}
	return o
}

// Builder assembles SPIR-V modules. Sections are kept apart so that
// instructions can be added in any order and still be written in the
// layout order the format requires.
type Builder struct {
	version   Version
	generator uint32
	schema    uint32

	capabilities   []encoded
	extInstImports []encoded
	memoryModel    *encoded
	entryPoints    []encoded
	executionModes []encoded
	debugNames     []encoded // OpName, OpMemberName
	annotations    []encoded // OpDecorate, OpMemberDecorate
	types          []encoded // OpType*, OpConstant*
	globalVars     []encoded // OpVariable (global)
	functions      []encoded // OpFunction...OpFunctionEnd

	nextID uint32
}

// NewBuilder creates a builder for a module of the given version. The
// Shader capability and the Logical GLSL450 memory model are preset.
func NewBuilder(version Version) *Builder {
	b := &Builder{
		version:   version,
		generator: GeneratorID,
		nextID:    1,
	}
	b.AddCapability(CapabilityShader)
	b.SetMemoryModel(AddressingModelLogical, MemoryModelGLSL450)
	return b
}

// AllocID allocates a new SPIR-V ID.
func (b *Builder) AllocID() uint32 {
	id := b.nextID
	b.nextID++
	return id
}

// AddCapability adds a capability.
func (b *Builder) AddCapability(capability Capability) {
	b.capabilities = append(b.capabilities, encoded{OpCapability, operands{uint32(capability)}})
}

// AddExtInstImport imports an extended instruction set.
func (b *Builder) AddExtInstImport(name string) uint32 {
	id := b.AllocID()
	b.extInstImports = append(b.extInstImports, encoded{OpExtInstImport, operands{id}.str(name)})
	return id
}

// SetMemoryModel sets the memory model.
func (b *Builder) SetMemoryModel(addressing AddressingModel, memory MemoryModel) {
	b.memoryModel = &encoded{OpMemoryModel, operands{uint32(addressing), uint32(memory)}}
}

// AddEntryPoint adds an entry point.
func (b *Builder) AddEntryPoint(execModel ExecutionModel, funcID uint32, name string, interfaces ...uint32) {
	ops := operands{uint32(execModel), funcID}.str(name)
	ops = append(ops, interfaces...)
	b.entryPoints = append(b.entryPoints, encoded{OpEntryPoint, ops})
}

// AddExecutionMode adds an execution mode.
func (b *Builder) AddExecutionMode(entryPoint uint32, mode ExecutionMode, params ...uint32) {
	ops := append(operands{entryPoint, uint32(mode)}, params...)
	b.executionModes = append(b.executionModes, encoded{OpExecutionMode, ops})
}

// AddName adds a debug name.
func (b *Builder) AddName(id uint32, name string) {
	b.debugNames = append(b.debugNames, encoded{OpName, operands{id}.str(name)})
}

// AddMemberName adds a debug member name.
func (b *Builder) AddMemberName(structID, member uint32, name string) {
	b.debugNames = append(b.debugNames, encoded{OpMemberName, operands{structID, member}.str(name)})
}

// AddDecorate adds a decoration.
func (b *Builder) AddDecorate(id uint32, decoration Decoration, params ...uint32) {
	ops := append(operands{id, uint32(decoration)}, params...)
	b.annotations = append(b.annotations, encoded{OpDecorate, ops})
}

// AddMemberDecorate adds a member decoration.
func (b *Builder) AddMemberDecorate(structID, member uint32, decoration Decoration, params ...uint32) {
	ops := append(operands{structID, member, uint32(decoration)}, params...)
	b.annotations = append(b.annotations, encoded{OpMemberDecorate, ops})
}

func (b *Builder) addType(op OpCode, params ...uint32) uint32 {
	id := b.AllocID()
	b.types = append(b.types, encoded{op, append(operands{id}, params...)})
	return id
}

// AddTypeVoid adds OpTypeVoid.
func (b *Builder) AddTypeVoid() uint32 { return b.addType(OpTypeVoid) }

// AddTypeBool adds OpTypeBool.
func (b *Builder) AddTypeBool() uint32 { return b.addType(OpTypeBool) }

// AddTypeFloat adds OpTypeFloat.
func (b *Builder) AddTypeFloat(width uint32) uint32 { return b.addType(OpTypeFloat, width) }

// AddTypeInt adds OpTypeInt.
func (b *Builder) AddTypeInt(width uint32, signed bool) uint32 {
	var signedness uint32
	if signed {
		signedness = 1
	}
	return b.addType(OpTypeInt, width, signedness)
}

// AddTypeVector adds OpTypeVector.
func (b *Builder) AddTypeVector(componentType, count uint32) uint32 {
	return b.addType(OpTypeVector, componentType, count)
}

// AddTypeMatrix adds OpTypeMatrix.
func (b *Builder) AddTypeMatrix(columnType, columnCount uint32) uint32 {
	return b.addType(OpTypeMatrix, columnType, columnCount)
}

// AddTypeArray adds OpTypeArray. length is the ID of a constant.
func (b *Builder) AddTypeArray(elementType, length uint32) uint32 {
	return b.addType(OpTypeArray, elementType, length)
}

// AddTypeRuntimeArray adds OpTypeRuntimeArray.
func (b *Builder) AddTypeRuntimeArray(elementType uint32) uint32 {
	return b.addType(OpTypeRuntimeArray, elementType)
}

// AddTypeImage adds a sampled, single-sampled, non-arrayed OpTypeImage.
func (b *Builder) AddTypeImage(sampledType uint32, dim Dim) uint32 {
	// depth=0 arrayed=0 ms=0 sampled=1 format=Unknown
	return b.addType(OpTypeImage, sampledType, uint32(dim), 0, 0, 0, 1, 0)
}

// AddTypeSampler adds OpTypeSampler.
func (b *Builder) AddTypeSampler() uint32 { return b.addType(OpTypeSampler) }

// AddTypeSampledImage adds OpTypeSampledImage.
func (b *Builder) AddTypeSampledImage(imageType uint32) uint32 {
	return b.addType(OpTypeSampledImage, imageType)
}

// AddTypePointer adds OpTypePointer.
func (b *Builder) AddTypePointer(storageClass StorageClass, baseType uint32) uint32 {
	return b.addType(OpTypePointer, uint32(storageClass), baseType)
}

// AddTypeFunction adds OpTypeFunction.
func (b *Builder) AddTypeFunction(returnType uint32, paramTypes ...uint32) uint32 {
	return b.addType(OpTypeFunction, append([]uint32{returnType}, paramTypes...)...)
}

// AddTypeStruct adds OpTypeStruct.
func (b *Builder) AddTypeStruct(memberTypes ...uint32) uint32 {
	return b.addType(OpTypeStruct, memberTypes...)
}

// AddConstant adds OpConstant.
func (b *Builder) AddConstant(typeID uint32, values ...uint32) uint32 {
	id := b.AllocID()
	b.types = append(b.types, encoded{OpConstant, append(operands{typeID, id}, values...)})
	return id
}

// AddConstantFloat32 adds a 32-bit float constant.
func (b *Builder) AddConstantFloat32(typeID uint32, value float32) uint32 {
	return b.AddConstant(typeID, math.Float32bits(value))
}

// AddVariable adds a module-scope OpVariable.
func (b *Builder) AddVariable(pointerType uint32, storageClass StorageClass) uint32 {
	id := b.AllocID()
	b.globalVars = append(b.globalVars, encoded{OpVariable, operands{pointerType, id, uint32(storageClass)}})
	return id
}

// AddFunction begins a function definition.
func (b *Builder) AddFunction(funcType, returnType uint32, control FunctionControl) uint32 {
	id := b.AllocID()
	b.functions = append(b.functions, encoded{OpFunction, operands{returnType, id, uint32(control), funcType}})
	return id
}

// AddFunctionParameter adds a function parameter.
func (b *Builder) AddFunctionParameter(typeID uint32) uint32 {
	id := b.AllocID()
	b.functions = append(b.functions, encoded{OpFunctionParameter, operands{typeID, id}})
	return id
}

// AddLabel adds a label.
func (b *Builder) AddLabel() uint32 {
	id := b.AllocID()
	b.functions = append(b.functions, encoded{OpLabel, operands{id}})
	return id
}

// AddReturn adds OpReturn.
func (b *Builder) AddReturn() {
	b.functions = append(b.functions, encoded{OpReturn, nil})
}

// AddFunctionEnd adds OpFunctionEnd.
func (b *Builder) AddFunctionEnd() {
	b.functions = append(b.functions, encoded{OpFunctionEnd, nil})
}

// AddFunctionCall adds OpFunctionCall.
func (b *Builder) AddFunctionCall(resultType, function uint32, args ...uint32) uint32 {
	id := b.AllocID()
	ops := append(operands{resultType, id, function}, args...)
	b.functions = append(b.functions, encoded{OpFunctionCall, ops})
	return id
}

// AddLoad adds OpLoad.
func (b *Builder) AddLoad(resultType, pointer uint32) uint32 {
	id := b.AllocID()
	b.functions = append(b.functions, encoded{OpLoad, operands{resultType, id, pointer}})
	return id
}

// AddStore adds OpStore.
func (b *Builder) AddStore(pointer, value uint32) {
	b.functions = append(b.functions, encoded{OpStore, operands{pointer, value}})
}

// AddCopyMemory adds OpCopyMemory.
func (b *Builder) AddCopyMemory(target, source uint32) {
	b.functions = append(b.functions, encoded{OpCopyMemory, operands{target, source}})
}

// AddAccessChain adds OpAccessChain. indices are constant or value IDs.
func (b *Builder) AddAccessChain(resultType, base uint32, indices ...uint32) uint32 {
	id := b.AllocID()
	ops := append(operands{resultType, id, base}, indices...)
	b.functions = append(b.functions, encoded{OpAccessChain, ops})
	return id
}

// AddBinaryOp adds a two-operand arithmetic instruction.
func (b *Builder) AddBinaryOp(opcode OpCode, resultType, left, right uint32) uint32 {
	id := b.AllocID()
	b.functions = append(b.functions, encoded{opcode, operands{resultType, id, left, right}})
	return id
}

// AddImageSample adds OpImageSampleImplicitLod.
func (b *Builder) AddImageSample(resultType, sampledImage, coordinate uint32) uint32 {
	id := b.AllocID()
	b.functions = append(b.functions, encoded{OpImageSampleImplicitLod, operands{resultType, id, sampledImage, coordinate}})
	return id
}

// Build generates the final little-endian SPIR-V binary.
func (b *Builder) Build() []byte {
	return b.build(binary.LittleEndian)
}

// BuildBigEndian generates the module with every word byte-swapped.
func (b *Builder) BuildBigEndian() []byte {
	return b.build(binary.BigEndian)
}

func (b *Builder) build(order binary.ByteOrder) []byte {
	words := []uint32{MagicNumber, versionToWord(b.version), b.generator, b.nextID, b.schema}

	sections := [][]encoded{b.capabilities, b.extInstImports}
	if b.memoryModel != nil {
		sections = append(sections, []encoded{*b.memoryModel})
	}
	sections = append(sections,
		b.entryPoints, b.executionModes, b.debugNames, b.annotations,
		b.types, b.globalVars, b.functions)
	for _, section := range sections {
		for _, inst := range section {
			words = append(words, inst.encode()...)
		}
	}

	buffer := make([]byte, len(words)*4)
	for i, word := range words {
		order.PutUint32(buffer[i*4:], word)
	}
	return buffer
}
