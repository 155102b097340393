// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package spvreflect reflects the binding interface of SPIR-V shader
// modules and imports shaders into an entity store.
//
// The simplest entry point reflects compiled bytecode directly:
//
//	md, err := spvreflect.Reflect(bytecode, shader.StageVertex)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, u := range md.Uniforms {
//	    fmt.Println(u.Name, u.Key, u.Size)
//	}
//
// The work is split across sub-packages:
//   - spirv: bytecode decoding and module assembly
//   - shader: the reflected data model
//   - reflection: decorations, types, classification, metadata assembly
//   - pipeline: the tick-driven import state machine
//   - store: entity storage and the deferred mutation batch
//   - compiler, source: collaborators that feed the pipeline
//   - layout, vklayout: conversion to renderer layout descriptors
package spvreflect

import (
	"github.com/gogpu/spvreflect/reflection"
	"github.com/gogpu/spvreflect/shader"
)

// Reflect reflects the "main" entry point of a SPIR-V module for stage.
func Reflect(bytecode []byte, stage shader.Stage) (*shader.Metadata, error) {
	return reflection.New(reflection.DefaultOptions()).Reflect(bytecode, stage)
}
