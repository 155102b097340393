// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package spirv

// opInfo describes the fixed operand prefix of an opcode.
type opInfo struct {
	hasType   bool
	hasResult bool

	// minOperands counts required words after the result type and ID.
	minOperands int
}

var (
	resultOnly  = opInfo{hasResult: true}
	typedResult = opInfo{hasType: true, hasResult: true}
	noResult    = opInfo{}
)

var explicitInfos = map[OpCode]opInfo{
	OpName:                {minOperands: 2},
	OpMemberName:          {minOperands: 3},
	OpString:              {hasResult: true, minOperands: 1},
	OpExtInstImport:       {hasResult: true, minOperands: 1},
	OpEntryPoint:          {minOperands: 3},
	OpExecutionMode:       {minOperands: 2},
	OpCapability:          {minOperands: 1},
	OpDecorate:            {minOperands: 2},
	OpMemberDecorate:      {minOperands: 3},
	OpTypeInt:             {hasResult: true, minOperands: 2},
	OpTypeFloat:           {hasResult: true, minOperands: 1},
	OpTypeVector:          {hasResult: true, minOperands: 2},
	OpTypeMatrix:          {hasResult: true, minOperands: 2},
	OpTypeImage:           {hasResult: true, minOperands: 7},
	OpTypeSampledImage:    {hasResult: true, minOperands: 1},
	OpTypeArray:           {hasResult: true, minOperands: 2},
	OpTypeRuntimeArray:    {hasResult: true, minOperands: 1},
	OpTypePointer:         {hasResult: true, minOperands: 2},
	OpTypeFunction:        {hasResult: true, minOperands: 1},
	OpTypeForwardPointer:  {minOperands: 2},
	OpConstant:            {hasType: true, hasResult: true, minOperands: 1},
	OpFunction:            {hasType: true, hasResult: true, minOperands: 2},
	OpFunctionCall:        {hasType: true, hasResult: true, minOperands: 1},
	OpVariable:            {hasType: true, hasResult: true, minOperands: 1},
	OpLoad:                {hasType: true, hasResult: true, minOperands: 1},
	OpStore:               {minOperands: 2},
	OpCopyMemory:          {minOperands: 2},
	OpCopyMemorySized:     {minOperands: 3},
	OpAccessChain:         {hasType: true, hasResult: true, minOperands: 1},
	OpInBoundsAccessChain: {hasType: true, hasResult: true, minOperands: 1},
	OpPtrAccessChain:      {hasType: true, hasResult: true, minOperands: 2},
	OpCopyObject:          {hasType: true, hasResult: true, minOperands: 1},
	OpDecorationGroup:     resultOnly,
	OpLabel:               resultOnly,
	OpExtInst:             {hasType: true, hasResult: true, minOperands: 2},
	OpUndef:               typedResult,
}

// opInfoFor classifies an opcode by its result type and result ID operands.
// Opcodes without an entry are treated as producing no result.
func opInfoFor(op OpCode) opInfo {
	if info, ok := explicitInfos[op]; ok {
		return info
	}
	switch {
	case op >= OpTypeVoid && op <= 38: // remaining OpType* declarations
		return resultOnly
	case op >= OpConstantTrue && op <= 52: // constants and spec constants
		return typedResult
	case op == OpFunctionParameter, op == 60: // OpImageTexelPointer
		return typedResult
	case op >= 65 && op <= 70: // access chains, OpArrayLength
		return typedResult
	case op >= 77 && op <= 84: // vector and composite ops, OpTranspose
		return typedResult
	case op >= OpSampledImage && op <= 107 && op != 99: // image ops except OpImageWrite
		return typedResult
	case op >= 109 && op <= 124: // conversions
		return typedResult
	case op >= 126 && op <= 152: // arithmetic
		return typedResult
	case op >= 154 && op <= 205: // relational, logical, bit ops
		return typedResult
	case op >= 207 && op <= 215: // derivatives
		return typedResult
	case op >= 227 && op <= 242 && op != 228: // atomics except OpAtomicStore
		return typedResult
	case op == 245: // OpPhi
		return typedResult
	case op >= 333 && op <= 366: // OpGroupNonUniform*
		return typedResult
	case op == 400: // OpCopyLogical
		return typedResult
	}
	return noResult
}
