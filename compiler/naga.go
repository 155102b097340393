// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package compiler

import (
	"context"
	"errors"

	"github.com/gogpu/naga"
	nagaspirv "github.com/gogpu/naga/spirv"
	"go.uber.org/zap"

	"github.com/gogpu/spvreflect"
	"github.com/gogpu/spvreflect/shader"
)

// errNoGeometry is returned for geometry shaders, which WGSL lacks.
var errNoGeometry = errors.New("WGSL has no geometry stage")

// Naga compiles WGSL sources with naga.
type Naga struct {
	opts naga.CompileOptions
}

// NewNaga creates a WGSL compiler targeting SPIR-V 1.3. Debug names are
// always emitted because reflection reports resource and member names.
func NewNaga() *Naga {
	return NewNagaWithOptions(naga.DefaultOptions())
}

// NewNagaWithOptions creates a WGSL compiler with custom naga options.
func NewNagaWithOptions(opts naga.CompileOptions) *Naga {
	opts.Debug = true
	if opts.SPIRVVersion == (nagaspirv.Version{}) {
		opts.SPIRVVersion = nagaspirv.Version1_3
	}
	return &Naga{opts: opts}
}

// Compile implements pipeline.Compiler. The stage only selects the
// diagnostic label; WGSL sources declare their own entry point stages.
func (n *Naga) Compile(ctx context.Context, src []byte, stage shader.Stage) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if stage == shader.StageGeometry {
		return nil, newError(stage, "", errNoGeometry)
	}
	out, err := naga.CompileWithOptions(string(src), n.opts)
	if err != nil {
		return nil, newError(stage, err.Error(), err)
	}
	spvreflect.Logger().Debug("compiled WGSL",
		zap.Stringer("stage", stage),
		zap.Int("source_bytes", len(src)),
		zap.Int("spirv_bytes", len(out)))
	return out, nil
}
