// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package compiler provides shader compilers for the import pipeline.
//
// Three compilers are available:
//
//   - Naga compiles WGSL in process using github.com/gogpu/naga.
//   - Glslang runs the glslangValidator executable on GLSL sources.
//   - WASI runs a WebAssembly build of a command-line compiler inside
//     wazero, with the source on stdin and the output in a mounted
//     directory.
//
// Every compiler reports failures as *Error, carrying the compiler's
// diagnostic text.
package compiler
