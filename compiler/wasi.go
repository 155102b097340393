// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"
	"go.uber.org/zap"

	"github.com/gogpu/spvreflect"
	"github.com/gogpu/spvreflect/shader"
)

// outMount is where the host output directory appears inside the guest.
const outMount = "/out"

// WASIOptions configures a WebAssembly-hosted compiler.
type WASIOptions struct {
	// Name is argv[0] inside the guest.
	Name string

	// Args builds the guest arguments after argv[0] for one compilation.
	// The compiler must read the source from stdin and write SPIR-V to
	// output, a path inside the guest. Nil uses glslangValidator's flags.
	Args func(stage shader.Stage, output string) []string

	// MemoryLimitPages caps guest memory in 64 KiB pages. Zero keeps the
	// wazero default.
	MemoryLimitPages uint32
}

// DefaultWASIOptions returns options for a WASI build of glslangValidator.
func DefaultWASIOptions() WASIOptions {
	return WASIOptions{
		Name: "glslangValidator",
	}
}

// WASI runs a compiler built for WASI preview 1 in a wazero sandbox. The
// module is compiled once; each Compile instantiates it afresh.
type WASI struct {
	opts     WASIOptions
	runtime  wazero.Runtime
	compiled wazero.CompiledModule
}

// NewWASI compiles the WebAssembly module wasm and prepares a runtime for
// it. Close releases the runtime.
func NewWASI(ctx context.Context, wasm []byte, opts WASIOptions) (*WASI, error) {
	if opts.Name == "" {
		opts.Name = DefaultWASIOptions().Name
	}
	if opts.Args == nil {
		opts.Args = func(stage shader.Stage, output string) []string {
			return glslangArgs(stage, output, "", nil)
		}
	}

	cfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if opts.MemoryLimitPages > 0 {
		cfg = cfg.WithMemoryLimitPages(opts.MemoryLimitPages)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, cfg)

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("compiler: instantiate WASI: %w", err)
	}
	compiled, err := rt.CompileModule(ctx, wasm)
	if err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("compiler: compile wasm module: %w", err)
	}
	return &WASI{opts: opts, runtime: rt, compiled: compiled}, nil
}

// Close releases the runtime and the compiled module.
func (w *WASI) Close(ctx context.Context) error {
	return w.runtime.Close(ctx)
}

// Compile implements pipeline.Compiler.
func (w *WASI) Compile(ctx context.Context, src []byte, stage shader.Stage) ([]byte, error) {
	dir, err := os.MkdirTemp("", "spvreflect-wasi-")
	if err != nil {
		return nil, fmt.Errorf("compiler: %w", err)
	}
	defer os.RemoveAll(dir)

	guestOut := path.Join(outMount, "shader.spv")
	args := append([]string{w.opts.Name}, w.opts.Args(stage, guestOut)...)

	var output bytes.Buffer
	cfg := wazero.NewModuleConfig().
		WithName("").
		WithArgs(args...).
		WithStdin(bytes.NewReader(src)).
		WithStdout(&output).
		WithStderr(&output).
		WithFSConfig(wazero.NewFSConfig().WithDirMount(dir, outMount))

	mod, err := w.runtime.InstantiateModule(ctx, w.compiled, cfg)
	if mod != nil {
		defer mod.Close(ctx)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var exitErr *sys.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("compiler: run %s: %w", w.opts.Name, err)
		}
		if exitErr.ExitCode() != 0 {
			return nil, newError(stage, output.String(), err)
		}
	}

	spv, err := os.ReadFile(filepath.Join(dir, "shader.spv"))
	if err != nil {
		return nil, newError(stage, output.String(), err)
	}
	spvreflect.Logger().Debug("compiled in WASI sandbox",
		zap.Stringer("stage", stage),
		zap.String("compiler", w.opts.Name),
		zap.Int("spirv_bytes", len(spv)))
	return spv, nil
}
