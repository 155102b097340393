// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package spirv decodes SPIR-V binary modules.
//
// SPIR-V is the standard intermediate language for GPU shaders,
// used by Vulkan, OpenCL, and other APIs.
//
// # Decoder
//
// Parse validates the module header and walks the instruction stream,
// producing a read-only Module with an ID-indexed instruction table:
//
//	mod, err := spirv.Parse(data)
//	if err != nil {
//		log.Fatal(err)
//	}
//	inst, ok := mod.Lookup(id)
//
// Both little-endian and byte-swapped (big-endian) modules are accepted.
// Malformed input is reported as *Error with Kind ErrMalformedBytecode.
//
// # Binary Writer
//
// Builder assembles modules section by section, allocating result IDs as
// instructions are added:
//
//	b := spirv.NewBuilder(spirv.Version1_3)
//	f32 := b.AddTypeFloat(32)
//	vec4 := b.AddTypeVector(f32, 4)
//	data := b.Build()
//
// Instructions are written in the logical layout order regardless of the
// order the Add* methods are called in.
package spirv
