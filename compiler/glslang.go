// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/gogpu/spvreflect"
	"github.com/gogpu/spvreflect/shader"
)

// GlslangOptions configures the glslangValidator compiler.
type GlslangOptions struct {
	// Path is the executable to run.
	Path string

	// TargetEnv is passed as --target-env when set, e.g. "vulkan1.1".
	TargetEnv string

	// Args are appended to the command line.
	Args []string
}

// DefaultGlslangOptions returns options running glslangValidator from PATH.
func DefaultGlslangOptions() GlslangOptions {
	return GlslangOptions{
		Path: "glslangValidator",
	}
}

// Glslang compiles GLSL sources by running glslangValidator.
type Glslang struct {
	opts GlslangOptions
}

// NewGlslang creates a GLSL compiler.
func NewGlslang(opts GlslangOptions) *Glslang {
	if opts.Path == "" {
		opts.Path = DefaultGlslangOptions().Path
	}
	return &Glslang{opts: opts}
}

// Args returns the arguments glslangValidator receives for stage, writing
// its output to out.
func (g *Glslang) Args(stage shader.Stage, out string) []string {
	return glslangArgs(stage, out, g.opts.TargetEnv, g.opts.Args)
}

func glslangArgs(stage shader.Stage, out, targetEnv string, extra []string) []string {
	args := []string{"--stdin", "-V", "-S", stage.Extension(), "-e", "main", "-o", out}
	if targetEnv != "" {
		args = append(args, "--target-env", targetEnv)
	}
	return append(args, extra...)
}

// Compile implements pipeline.Compiler.
func (g *Glslang) Compile(ctx context.Context, src []byte, stage shader.Stage) ([]byte, error) {
	dir, err := os.MkdirTemp("", "spvreflect-glslang-")
	if err != nil {
		return nil, fmt.Errorf("compiler: %w", err)
	}
	defer os.RemoveAll(dir)
	out := filepath.Join(dir, "shader.spv")

	cmd := exec.CommandContext(ctx, g.opts.Path, g.Args(stage, out)...)
	cmd.Stdin = bytes.NewReader(src)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, newError(stage, output.String(), err)
		}
		return nil, fmt.Errorf("compiler: run %s: %w", g.opts.Path, err)
	}

	spv, err := os.ReadFile(out)
	if err != nil {
		return nil, newError(stage, output.String(), err)
	}
	spvreflect.Logger().Debug("compiled GLSL",
		zap.Stringer("stage", stage),
		zap.String("compiler", g.opts.Path),
		zap.Int("spirv_bytes", len(spv)))
	return spv, nil
}
