// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package reflection derives a shader's binding interface from a compiled
// SPIR-V module.
//
// Reflection runs in four steps over a decoded module: decorations are
// indexed, types are resolved on demand, module-scope variables are
// classified by storage class for one entry point, and the classified
// resources are assembled into shader.Metadata. Any failure aborts the
// whole pass; no partial metadata is returned.
//
//	r := reflection.New(reflection.DefaultOptions())
//	md, err := r.Reflect(bytecode, shader.StageVertex)
package reflection

import (
	"github.com/gogpu/spvreflect/shader"
	"github.com/gogpu/spvreflect/spirv"
)

// Options configures reflection.
type Options struct {
	// EntryPoint is the entry point name to reflect.
	EntryPoint string

	// Types is the descriptor table shared by reflectors. A nil table is
	// replaced by a fresh one.
	Types *shader.TypeTable
}

// DefaultOptions returns options reflecting the "main" entry point.
func DefaultOptions() Options {
	return Options{
		EntryPoint: "main",
	}
}

// Reflector reflects SPIR-V modules. It holds no per-module state and may
// be reused.
type Reflector struct {
	entryPoint string
	types      *shader.TypeTable
}

// New creates a reflector.
func New(opts Options) *Reflector {
	if opts.EntryPoint == "" {
		opts.EntryPoint = DefaultOptions().EntryPoint
	}
	if opts.Types == nil {
		opts.Types = shader.NewTypeTable()
	}
	return &Reflector{entryPoint: opts.EntryPoint, types: opts.Types}
}

// Reflect decodes bytecode and reflects its entry point for stage.
func (r *Reflector) Reflect(bytecode []byte, stage shader.Stage) (*shader.Metadata, error) {
	mod, err := spirv.Parse(bytecode)
	if err != nil {
		return nil, err
	}
	return r.ReflectModule(mod, stage)
}

// ReflectModule reflects an already decoded module.
func (r *Reflector) ReflectModule(mod *spirv.Module, stage shader.Stage) (*shader.Metadata, error) {
	stage.Validate()

	decorations := NewDecorationTable(mod)
	resolver := NewTypeResolver(mod, r.types)

	classified, err := NewClassifier(mod, decorations, resolver).Classify(r.entryPoint, stage)
	if err != nil {
		return nil, err
	}
	return NewMetadataBuilder(mod, decorations, resolver).Build(classified)
}
