// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package reflection

import (
	"github.com/gogpu/spvreflect/spirv"
)

// module wraps a builder with the common scalar and vector types.
type module struct {
	*spirv.Builder

	void, f32, i32, u32 uint32
	vec2, vec3, vec4    uint32
	mat4                uint32
}

func newModule() *module {
	b := spirv.NewBuilder(spirv.Version1_3)
	m := &module{Builder: b}
	m.void = b.AddTypeVoid()
	m.f32 = b.AddTypeFloat(32)
	m.i32 = b.AddTypeInt(32, true)
	m.u32 = b.AddTypeInt(32, false)
	m.vec2 = b.AddTypeVector(m.f32, 2)
	m.vec3 = b.AddTypeVector(m.f32, 3)
	m.vec4 = b.AddTypeVector(m.f32, 4)
	m.mat4 = b.AddTypeMatrix(m.vec4, 4)
	return m
}

// block declares a named struct with member names, decorated Block.
func (m *module) block(name string, members []uint32, names ...string) uint32 {
	st := m.AddTypeStruct(members...)
	m.AddName(st, name)
	for i, n := range names {
		m.AddMemberName(st, uint32(i), n)
	}
	m.AddDecorate(st, spirv.DecorationBlock)
	return st
}

// variable declares a named module-scope variable of type pointee.
func (m *module) variable(name string, class spirv.StorageClass, pointee uint32) uint32 {
	ptr := m.AddTypePointer(class, pointee)
	v := m.AddVariable(ptr, class)
	if name != "" {
		m.AddName(v, name)
	}
	return v
}

// bind decorates v with a descriptor set and binding.
func (m *module) bind(v, set, binding uint32) {
	m.AddDecorate(v, spirv.DecorationDescriptorSet, set)
	m.AddDecorate(v, spirv.DecorationBinding, binding)
}

// function emits a void function whose body is produced by body.
func (m *module) function(body func()) uint32 {
	fnType := m.AddTypeFunction(m.void)
	fn := m.AddFunction(fnType, m.void, spirv.FunctionControlNone)
	m.AddLabel()
	if body != nil {
		body()
	}
	m.AddReturn()
	m.AddFunctionEnd()
	return fn
}

// entry emits "main" for model with the given interface variables.
func (m *module) entry(model spirv.ExecutionModel, body func(), iface ...uint32) uint32 {
	fn := m.function(body)
	m.AddName(fn, "main")
	m.AddEntryPoint(model, fn, "main", iface...)
	return fn
}
