// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package pipeline

import (
	"time"

	"github.com/gogpu/spvreflect/shader"
	"github.com/gogpu/spvreflect/store"
)

// Status is the lifecycle state of a Request.
type Status uint8

const (
	// StatusSubmitted is the initial state of a new request.
	StatusSubmitted Status = iota
	// StatusLoading means the pipeline is fetching or compiling the source.
	StatusLoading
	// StatusLoaded is terminal: the module holds the request's source version
	// or a newer one. A request no newer than the committed version finishes
	// Loaded without touching the module.
	StatusLoaded
	// StatusNotFound is terminal: no usable source arrived before the timeout.
	StatusNotFound
)

var statusNames = [...]string{
	StatusSubmitted: "submitted",
	StatusLoading:   "loading",
	StatusLoaded:    "loaded",
	StatusNotFound:  "not-found",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

// Terminal reports whether s is Loaded or NotFound.
func (s Status) Terminal() bool {
	return s == StatusLoaded || s == StatusNotFound
}

// Request asks the pipeline to import one shader source into the Module
// component of Target. Requests are created by the host and removed by the
// host once terminal; a re-import is a new request with a higher
// SourceVersion.
type Request struct {
	Address string
	Stage   shader.Stage
	Status  Status

	// Waited accumulates tick durations spent in Loading without a commit.
	Waited time.Duration

	// Timeout bounds Waited. Zero selects Options.DefaultTimeout.
	Timeout time.Duration

	// SourceVersion identifies the source revision being requested.
	SourceVersion uint64

	// Target is the entity that receives the Module component and the
	// metadata arrays.
	Target store.Entity

	// Diagnostic holds the last compile or reflection failure.
	Diagnostic string
}

// Module is the committed result of an import.
type Module struct {
	Bytecode []byte

	// Version increases by one on every commit.
	Version uint64

	// SourceVersion is the source revision the bytecode was built from.
	SourceVersion uint64
}

// Metadata reads the reflected arrays committed on e.
func Metadata(s store.Storage, e store.Entity) *shader.Metadata {
	md := &shader.Metadata{}
	md.Uniforms, _ = store.Array[shader.UniformProperty](s, e)
	md.PushConstants, _ = store.Array[shader.PushConstant](s, e)
	md.VertexInputs, _ = store.Array[shader.VertexInputAttribute](s, e)
	md.Samplers, _ = store.Array[shader.SamplerProperty](s, e)
	md.StorageBuffers, _ = store.Array[shader.StorageBuffer](s, e)
	return md
}
