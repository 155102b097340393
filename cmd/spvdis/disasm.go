// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/gogpu/spvreflect/spirv"
)

var addressingModels = map[uint32]string{0: "Logical", 1: "Physical32", 2: "Physical64", 5348: "PhysicalStorageBuffer64"}

var memoryModels = map[uint32]string{0: "Simple", 1: "GLSL450", 2: "OpenCL", 3: "Vulkan"}

func id(n uint32) string {
	return fmt.Sprintf("%%_%d", n)
}

func lookup(m map[uint32]string, v uint32) string {
	if s, ok := m[v]; ok {
		return s
	}
	return fmt.Sprint(v)
}

func disassemble(w io.Writer, mod *spirv.Module) {
	h := mod.Header
	fmt.Fprintf(w, "; SPIR-V\n")
	fmt.Fprintf(w, "; Version: %s\n", h.Version)
	fmt.Fprintf(w, "; Generator: 0x%08X\n", h.Generator)
	fmt.Fprintf(w, "; Bound: %d\n", h.Bound)
	fmt.Fprintf(w, "; Schema: %d\n", h.Schema)
	if h.BigEndian {
		fmt.Fprintf(w, "; Endianness: big\n")
	}
	fmt.Fprintln(w)

	for i := range mod.Instructions {
		fmt.Fprintln(w, formatInstruction(&mod.Instructions[i]))
	}
}

// formatInstruction renders one instruction with its result ID right
// aligned, as spirv-dis does.
func formatInstruction(inst *spirv.Instruction) string {
	ops := inst.Operands
	var args []string

	start := 0
	if _, ok := inst.ResultType(); ok {
		start++
	}
	result, hasResult := inst.ResultID()
	if hasResult {
		start++
	}
	if typ, ok := inst.ResultType(); ok {
		args = append(args, id(typ))
	}
	rest := ops[min(start, len(ops)):]

	switch inst.Opcode {
	case spirv.OpCapability:
		args = append(args, spirv.Capability(inst.Word(0)).String())
	case spirv.OpExtInstImport, spirv.OpExtension, spirv.OpSourceExtension:
		s, _ := inst.Literal(start)
		args = append(args, quote(s))
	case spirv.OpMemoryModel:
		args = append(args, lookup(addressingModels, inst.Word(0)), lookup(memoryModels, inst.Word(1)))
	case spirv.OpEntryPoint:
		name, n := inst.Literal(2)
		args = append(args, spirv.ExecutionModel(inst.Word(0)).String(), id(inst.Word(1)), quote(name))
		args = append(args, ids(ops[min(2+n, len(ops)):])...)
	case spirv.OpExecutionMode:
		args = append(args, id(inst.Word(0)), spirv.ExecutionMode(inst.Word(1)).String())
		args = append(args, literals(ops[min(2, len(ops)):])...)
	case spirv.OpName:
		s, _ := inst.Literal(1)
		args = append(args, id(inst.Word(0)), quote(s))
	case spirv.OpMemberName:
		s, _ := inst.Literal(2)
		args = append(args, id(inst.Word(0)), fmt.Sprint(inst.Word(1)), quote(s))
	case spirv.OpDecorate:
		dec := spirv.Decoration(inst.Word(1))
		args = append(args, id(inst.Word(0)), dec.String())
		args = append(args, decorationArgs(dec, ops[min(2, len(ops)):])...)
	case spirv.OpMemberDecorate:
		dec := spirv.Decoration(inst.Word(2))
		args = append(args, id(inst.Word(0)), fmt.Sprint(inst.Word(1)), dec.String())
		args = append(args, decorationArgs(dec, ops[min(3, len(ops)):])...)
	case spirv.OpTypeInt, spirv.OpTypeFloat, spirv.OpConstant, spirv.OpSource:
		args = append(args, literals(rest)...)
	case spirv.OpTypeVector, spirv.OpTypeMatrix:
		args = append(args, id(inst.Word(1)), fmt.Sprint(inst.Word(2)))
	case spirv.OpTypeImage:
		args = append(args, id(inst.Word(1)), spirv.Dim(inst.Word(2)).String())
		args = append(args, literals(ops[min(3, len(ops)):])...)
	case spirv.OpTypePointer:
		args = append(args, spirv.StorageClass(inst.Word(1)).String(), id(inst.Word(2)))
	case spirv.OpTypeForwardPointer:
		args = append(args, id(inst.Word(0)), spirv.StorageClass(inst.Word(1)).String())
	case spirv.OpVariable:
		args = append(args, spirv.StorageClass(inst.Word(2)).String())
		args = append(args, ids(ops[min(3, len(ops)):])...)
	case spirv.OpFunction:
		args = append(args, functionControl(inst.Word(2)), id(inst.Word(3)))
	case spirv.OpCompositeExtract:
		args = append(args, id(inst.Word(2)))
		args = append(args, literals(ops[min(3, len(ops)):])...)
	case spirv.OpVectorShuffle:
		args = append(args, id(inst.Word(2)), id(inst.Word(3)))
		args = append(args, literals(ops[min(4, len(ops)):])...)
	default:
		args = append(args, ids(rest)...)
	}

	line := inst.Opcode.String()
	if len(args) > 0 {
		line += " " + strings.Join(args, " ")
	}
	if hasResult {
		return fmt.Sprintf("%14s = %s", id(result), line)
	}
	return strings.Repeat(" ", 17) + line
}

func decorationArgs(dec spirv.Decoration, params []uint32) []string {
	if dec == spirv.DecorationBuiltIn && len(params) > 0 {
		return []string{spirv.BuiltIn(params[0]).String()}
	}
	return literals(params)
}

func functionControl(mask uint32) string {
	if mask == 0 {
		return "None"
	}
	var parts []string
	for bit, name := range []string{"Inline", "DontInline", "Pure", "Const"} {
		if mask&(1<<bit) != 0 {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, "|")
}

func ids(words []uint32) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = id(w)
	}
	return out
}

func literals(words []uint32) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = fmt.Sprint(w)
	}
	return out
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
