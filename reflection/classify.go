// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package reflection

import (
	"github.com/gogpu/spvreflect/shader"
	"github.com/gogpu/spvreflect/spirv"
)

// ResourceKind is the role a module-scope variable plays in the binding
// interface.
type ResourceKind uint8

const (
	ResourceUniformBuffer ResourceKind = iota
	ResourcePushConstant
	ResourceVertexInput
	ResourceSampledImage
	ResourceStorageBuffer
)

// String returns a human-readable kind name.
func (k ResourceKind) String() string {
	switch k {
	case ResourceUniformBuffer:
		return "UniformBuffer"
	case ResourcePushConstant:
		return "PushConstant"
	case ResourceVertexInput:
		return "VertexInput"
	case ResourceSampledImage:
		return "SampledImage"
	case ResourceStorageBuffer:
		return "StorageBuffer"
	default:
		return "Unknown"
	}
}

// Resource is a classified module-scope variable.
type Resource struct {
	Kind     ResourceKind
	Variable uint32

	// Type is the pointee type of the variable.
	Type uint32

	// Name is the variable's debug name, or the type name when the
	// variable is anonymous.
	Name string

	Key      shader.ResourceKey
	Location uint32
}

// Classification groups the resources of one entry point by kind, each
// in module declaration order.
type Classification struct {
	Entry spirv.EntryPoint

	UniformBuffers []Resource
	PushConstants  []Resource
	VertexInputs   []Resource
	SampledImages  []Resource
	StorageBuffers []Resource

	// ActiveMembers maps a push-constant variable to the member indices the
	// entry point's call graph accesses.
	ActiveMembers map[uint32]map[uint32]bool
}

// ExecutionModel returns the SPIR-V execution model of stage.
func ExecutionModel(stage shader.Stage) spirv.ExecutionModel {
	switch stage {
	case shader.StageFragment:
		return spirv.ExecutionModelFragment
	case shader.StageCompute:
		return spirv.ExecutionModelGLCompute
	case shader.StageGeometry:
		return spirv.ExecutionModelGeometry
	default:
		return spirv.ExecutionModelVertex
	}
}

// Classifier sorts module-scope variables into resource kinds.
type Classifier struct {
	mod         *spirv.Module
	decorations *DecorationTable
	resolver    *TypeResolver
}

// NewClassifier creates a classifier for mod.
func NewClassifier(mod *spirv.Module, decorations *DecorationTable, resolver *TypeResolver) *Classifier {
	return &Classifier{mod: mod, decorations: decorations, resolver: resolver}
}

// Classify collects the resources visible to the named entry point of
// the given stage.
func (c *Classifier) Classify(entryPoint string, stage shader.Stage) (*Classification, error) {
	model := ExecutionModel(stage)
	entry, ok := c.mod.FindEntryPoint(entryPoint, model)
	if !ok {
		return nil, NewError(ErrEntryPointNotFound, 0, "no %s entry point %q", model, entryPoint)
	}

	out := &Classification{Entry: entry}
	iface := make(map[uint32]bool, len(entry.Interface))
	for _, id := range entry.Interface {
		iface[id] = true
	}
	keys := make(map[shader.ResourceKey]uint32)
	foreign := c.foreignVariables(entry.Function)

	for i := range c.mod.Instructions {
		inst := &c.mod.Instructions[i]
		if inst.Opcode != spirv.OpVariable {
			continue
		}
		class := spirv.StorageClass(inst.Word(2))
		if class == spirv.StorageClassFunction {
			continue
		}
		variable, _ := inst.ResultID()
		if foreign[variable] {
			continue
		}
		_, pointee, err := c.resolver.Pointee(inst.Word(0))
		if err != nil {
			return nil, err
		}

		res, keep, err := c.classify(variable, pointee, class, stage, iface)
		if err != nil {
			return nil, err
		}
		if !keep {
			continue
		}

		switch res.Kind {
		case ResourceUniformBuffer, ResourceSampledImage, ResourceStorageBuffer:
			if prev, dup := keys[res.Key]; dup {
				return nil, NewError(ErrDuplicateBinding, variable,
					"%q and %q both bind %s", c.variableName(prev), res.Name, res.Key)
			}
			keys[res.Key] = variable
		}

		switch res.Kind {
		case ResourceUniformBuffer:
			out.UniformBuffers = append(out.UniformBuffers, res)
		case ResourcePushConstant:
			out.PushConstants = append(out.PushConstants, res)
		case ResourceVertexInput:
			out.VertexInputs = append(out.VertexInputs, res)
		case ResourceSampledImage:
			out.SampledImages = append(out.SampledImages, res)
		case ResourceStorageBuffer:
			out.StorageBuffers = append(out.StorageBuffers, res)
		}
	}

	if len(out.PushConstants) > 0 {
		vars := make(map[uint32]bool, len(out.PushConstants))
		for _, pc := range out.PushConstants {
			vars[pc.Variable] = true
		}
		out.ActiveMembers = c.activeMembers(entry, vars)
	}
	return out, nil
}

// classify decides the role of one variable. keep is false for variables
// outside the binding interface.
func (c *Classifier) classify(variable, pointee uint32, class spirv.StorageClass, stage shader.Stage, iface map[uint32]bool) (Resource, bool, error) {
	res := Resource{Variable: variable, Type: pointee}
	binding, set := c.decorations.Binding(variable)
	res.Key = shader.ResourceKey{Binding: binding, Set: set}

	switch class {
	case spirv.StorageClassUniform:
		if !c.resolver.IsStruct(pointee) {
			return res, false, NewError(ErrUnsupportedResourceType, variable, "uniform variable does not point to a struct")
		}
		res.Kind = ResourceUniformBuffer
		if c.decorations.Has(pointee, spirv.DecorationBufferBlock) {
			res.Kind = ResourceStorageBuffer
		}

	case spirv.StorageClassStorageBuffer:
		if !c.resolver.IsStruct(pointee) {
			return res, false, NewError(ErrUnsupportedResourceType, variable, "storage buffer variable does not point to a struct")
		}
		res.Kind = ResourceStorageBuffer

	case spirv.StorageClassPushConstant:
		if !c.resolver.IsStruct(pointee) {
			return res, false, NewError(ErrUnsupportedResourceType, variable, "push constant variable does not point to a struct")
		}
		res.Kind = ResourcePushConstant
		res.Key = shader.ResourceKey{}

	case spirv.StorageClassUniformConstant:
		if !c.resolver.IsSampledImage(pointee) {
			return res, false, nil
		}
		res.Kind = ResourceSampledImage

	case spirv.StorageClassInput:
		if stage != shader.StageVertex || !iface[variable] || c.decorations.Has(variable, spirv.DecorationBuiltIn) {
			return res, false, nil
		}
		if c.resolver.IsStruct(pointee) {
			// gl_PerVertex style blocks carry builtins on their members.
			return res, false, nil
		}
		res.Kind = ResourceVertexInput
		res.Key = shader.ResourceKey{}
		res.Location, _ = c.decorations.Lookup(variable, spirv.DecorationLocation)

	default:
		return res, false, nil
	}

	res.Name = c.variableName(variable)
	return res, true, nil
}

// variableName returns the debug name of a variable, falling back to the
// name of its pointee type.
func (c *Classifier) variableName(variable uint32) string {
	if name := c.mod.Name(variable); name != "" {
		return name
	}
	inst, ok := c.mod.Lookup(variable)
	if !ok {
		return ""
	}
	if _, pointee, err := c.resolver.Pointee(inst.Word(0)); err == nil {
		if st, err := c.resolver.Struct(pointee); err == nil {
			return st.Name
		}
		return c.mod.Name(pointee)
	}
	return ""
}

// activeMembers finds the push-constant members accessed by functions
// reachable from entry. A use of the whole block marks every member.
func (c *Classifier) activeMembers(entry spirv.EntryPoint, vars map[uint32]bool) map[uint32]map[uint32]bool {
	active := make(map[uint32]map[uint32]bool, len(vars))
	mark := func(variable, member uint32) {
		set := active[variable]
		if set == nil {
			set = make(map[uint32]bool)
			active[variable] = set
		}
		set[member] = true
	}
	markAll := func(variable uint32) {
		inst, _ := c.mod.Lookup(variable)
		_, pointee, _ := c.resolver.Pointee(inst.Word(0))
		st, err := c.resolver.Struct(pointee)
		if err != nil {
			return
		}
		for m := range st.Members {
			mark(variable, uint32(m))
		}
	}

	for _, fn := range c.reachableFunctions(entry.Function) {
		for i := range fn.Body {
			inst := &fn.Body[i]
			switch inst.Opcode {
			case spirv.OpAccessChain, spirv.OpInBoundsAccessChain:
				c.markChain(inst, 3, vars, mark, markAll)
			case spirv.OpPtrAccessChain:
				c.markChain(inst, 4, vars, mark, markAll)
			case spirv.OpLoad, spirv.OpCopyObject:
				if vars[inst.Word(2)] {
					markAll(inst.Word(2))
				}
			case spirv.OpCopyMemory, spirv.OpCopyMemorySized:
				if vars[inst.Word(1)] {
					markAll(inst.Word(1))
				}
			case spirv.OpFunctionCall:
				for _, arg := range inst.Operands[3:] {
					if vars[arg] {
						markAll(arg)
					}
				}
			}
		}
	}
	return active
}

// markChain marks the member selected by the access chain index at
// operand position idx, when the chain is rooted at a push-constant block.
func (c *Classifier) markChain(inst *spirv.Instruction, idx int, vars map[uint32]bool,
	mark func(variable, member uint32), markAll func(variable uint32)) {
	base := inst.Word(2)
	if !vars[base] {
		return
	}
	if idx >= len(inst.Operands) {
		markAll(base)
		return
	}
	member, ok := c.constantValue(inst.Operands[idx])
	if !ok {
		markAll(base)
		return
	}
	mark(base, member)
}

// constantValue returns the literal of an integer OpConstant.
func (c *Classifier) constantValue(id uint32) (uint32, bool) {
	inst, ok := c.mod.Lookup(id)
	if !ok || inst.Opcode != spirv.OpConstant {
		return 0, false
	}
	return inst.Word(2), true
}

// foreignVariables returns the variables that functions outside the entry
// point's call graph use and functions inside it do not. Variables no
// function uses are not foreign.
func (c *Classifier) foreignVariables(entry uint32) map[uint32]bool {
	reached := make(map[uint32]bool)
	for _, fn := range c.reachableFunctions(entry) {
		reached[fn.ID] = true
	}

	inside := make(map[uint32]bool)
	outside := make(map[uint32]bool)
	var current uint32
	for i := range c.mod.Instructions {
		inst := &c.mod.Instructions[i]
		switch inst.Opcode {
		case spirv.OpFunction:
			current, _ = inst.ResultID()
			continue
		case spirv.OpFunctionEnd:
			current = 0
			continue
		}
		if current == 0 {
			continue
		}
		used := outside
		if reached[current] {
			used = inside
		}
		for _, ptr := range pointerOperands(inst) {
			used[ptr] = true
		}
	}

	foreign := make(map[uint32]bool)
	for id := range outside {
		if !inside[id] {
			foreign[id] = true
		}
	}
	return foreign
}

// Opcodes without a named constant in package spirv.
const (
	opImageTexelPointer spirv.OpCode = 60
	opAtomicLoad        spirv.OpCode = 227
	opAtomicStore       spirv.OpCode = 228
	opAtomicXor         spirv.OpCode = 242
)

// pointerOperands returns the operands of inst that name a pointer it
// reads, writes or passes on.
func pointerOperands(inst *spirv.Instruction) []uint32 {
	ops := inst.Operands
	span := func(lo, hi int) []uint32 {
		if hi > len(ops) {
			return nil
		}
		return ops[lo:hi]
	}
	switch op := inst.Opcode; {
	case op == spirv.OpStore, op == opAtomicStore:
		return span(0, 1)
	case op == spirv.OpCopyMemory, op == spirv.OpCopyMemorySized:
		return span(0, 2)
	case op == spirv.OpFunctionCall:
		return span(3, len(ops))
	case op == spirv.OpLoad, op == spirv.OpCopyObject, op == opImageTexelPointer,
		op >= spirv.OpAccessChain && op <= spirv.OpArrayLength,
		op >= opAtomicLoad && op <= opAtomicXor:
		return span(2, 3)
	}
	return nil
}

// reachableFunctions returns the entry function followed by every
// function it transitively calls, each once.
func (c *Classifier) reachableFunctions(entry uint32) []spirv.Function {
	seen := map[uint32]bool{entry: true}
	queue := []uint32{entry}
	var out []spirv.Function
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		fn, ok := c.mod.Function(id)
		if !ok {
			continue
		}
		out = append(out, fn)
		for i := range fn.Body {
			if fn.Body[i].Opcode != spirv.OpFunctionCall {
				continue
			}
			callee := fn.Body[i].Word(2)
			if !seen[callee] {
				seen[callee] = true
				queue = append(queue, callee)
			}
		}
	}
	return out
}
