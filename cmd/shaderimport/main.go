// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Command shaderimport compiles shader sources, reflects their binding
// interface and writes the results.
//
// Sources are resolved relative to -root. The stage is taken from the file
// extension (blur.comp.wgsl, quad.vert) unless -stage is given.
//
// Usage:
//
//	shaderimport -root shaders blur.comp.wgsl
//	shaderimport -compiler glslang -o out quad.vert quad.frag
//	shaderimport -compiler wasm -wasm glslang.wasm -json quad.vert
//	shaderimport -i -root shaders
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/coreos/go-semver/semver"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/gogpu/naga"
	nagaspirv "github.com/gogpu/naga/spirv"

	"github.com/gogpu/spvreflect"
	"github.com/gogpu/spvreflect/compiler"
	"github.com/gogpu/spvreflect/pipeline"
	"github.com/gogpu/spvreflect/source"
)

type config struct {
	root         string
	stage        string
	compilerName string
	wasmPath     string
	glslangPath  string
	targetEnv    string
	spirvVersion string
	outDir       string
	logFile      string
	timeout      time.Duration
	tick         time.Duration
	jsonOut      bool
	interactive  bool
	verbose      bool
}

var (
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	pathStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	summaryStyle = lipgloss.NewStyle().Bold(true).MarginTop(1)
)

func main() {
	var cfg config
	flag.StringVar(&cfg.root, "root", ".", "directory shader addresses are resolved against")
	flag.StringVar(&cfg.stage, "stage", "", "stage for every file (default: from extension)")
	flag.StringVar(&cfg.compilerName, "compiler", "naga", "compiler: naga, glslang or wasm")
	flag.StringVar(&cfg.wasmPath, "wasm", "", "WASI compiler module for -compiler wasm")
	flag.StringVar(&cfg.glslangPath, "glslang", "glslangValidator", "glslangValidator executable")
	flag.StringVar(&cfg.targetEnv, "target-env", "", "glslang --target-env value")
	flag.StringVar(&cfg.spirvVersion, "spirv", "1.3", "SPIR-V version emitted by naga")
	flag.StringVar(&cfg.outDir, "o", "", "write <name>.spv and <name>.json into this directory")
	flag.StringVar(&cfg.logFile, "log", "", "write logs to this file")
	flag.DurationVar(&cfg.timeout, "timeout", 5*time.Second, "per-shader import timeout")
	flag.DurationVar(&cfg.tick, "tick", 50*time.Millisecond, "pipeline tick interval")
	flag.BoolVar(&cfg.jsonOut, "json", false, "print results as JSON")
	flag.BoolVar(&cfg.interactive, "i", false, "watch mode with TUI")
	flag.BoolVar(&cfg.verbose, "v", false, "verbose logging")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: shaderimport [flags] <shader>...")
		fmt.Fprintln(os.Stderr, "       shaderimport -i [flags] [shader...]  (watch mode)")
		flag.PrintDefaults()
	}
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code, err := run(ctx, cfg, flag.Args())
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(code)
}

func run(ctx context.Context, cfg config, files []string) (int, error) {
	logger, err := newLogger(cfg)
	if err != nil {
		return 1, err
	}
	defer logger.Sync() //nolint:errcheck
	spvreflect.SetLogger(logger)

	if len(files) == 0 {
		if files, err = findShaders(cfg.root); err != nil {
			return 1, err
		}
	}
	if len(files) == 0 {
		flag.Usage()
		return 2, nil
	}

	c, closeCompiler, err := newCompiler(ctx, cfg)
	if err != nil {
		return 1, err
	}
	defer closeCompiler()

	opts := pipeline.DefaultOptions()
	opts.DefaultTimeout = cfg.timeout
	im := newImporter(source.OpenDir(cfg.root), c, opts)
	for _, f := range files {
		f = filepath.ToSlash(f)
		st, err := stageOf(f, cfg.stage)
		if err != nil {
			return 2, err
		}
		im.submit(f, st)
	}

	if cfg.interactive {
		return 0, runInteractive(ctx, im, cfg.tick)
	}

	if err := im.run(ctx, cfg.tick); err != nil {
		return 1, err
	}
	results := im.results()

	if cfg.outDir != "" {
		if err := writeOutputs(ctx, cfg.outDir, results); err != nil {
			return 1, err
		}
	}
	if cfg.jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return 1, err
		}
	} else {
		printResults(os.Stdout, results, term.IsTerminal(int(os.Stdout.Fd())))
	}

	for _, r := range results {
		if r.failed {
			return 1, nil
		}
	}
	return 0, nil
}

// newLogger builds a development logger for -v, a file logger for -log and
// a no-op logger otherwise. The TUI owns the terminal, so watch mode only
// logs to a file.
func newLogger(cfg config) (*zap.Logger, error) {
	switch {
	case cfg.logFile != "":
		zc := zap.NewDevelopmentConfig()
		zc.OutputPaths = []string{cfg.logFile}
		zc.ErrorOutputPaths = []string{cfg.logFile}
		if !cfg.verbose {
			zc.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		}
		return zc.Build()
	case cfg.verbose && !cfg.interactive:
		return zap.NewDevelopment()
	default:
		return zap.NewNop(), nil
	}
}

func newCompiler(ctx context.Context, cfg config) (pipeline.Compiler, func(), error) {
	noop := func() {}
	switch cfg.compilerName {
	case "naga":
		v, err := parseSPIRVVersion(cfg.spirvVersion)
		if err != nil {
			return nil, noop, err
		}
		opts := naga.DefaultOptions()
		opts.SPIRVVersion = v
		return compiler.NewNagaWithOptions(opts), noop, nil
	case "glslang":
		opts := compiler.DefaultGlslangOptions()
		opts.Path = cfg.glslangPath
		opts.TargetEnv = cfg.targetEnv
		return compiler.NewGlslang(opts), noop, nil
	case "wasm":
		if cfg.wasmPath == "" {
			return nil, noop, errors.New("-compiler wasm needs -wasm")
		}
		wasm, err := os.ReadFile(cfg.wasmPath)
		if err != nil {
			return nil, noop, fmt.Errorf("read wasm: %w", err)
		}
		opts := compiler.DefaultWASIOptions()
		if cfg.targetEnv != "" {
			opts.Args = compiler.NewGlslang(compiler.GlslangOptions{TargetEnv: cfg.targetEnv}).Args
		}
		w, err := compiler.NewWASI(ctx, wasm, opts)
		if err != nil {
			return nil, noop, err
		}
		return w, func() { _ = w.Close(context.Background()) }, nil
	default:
		return nil, noop, fmt.Errorf("unknown compiler %q", cfg.compilerName)
	}
}

// parseSPIRVVersion accepts "1.3" or "1.3.0".
func parseSPIRVVersion(s string) (nagaspirv.Version, error) {
	if strings.Count(s, ".") == 1 {
		s += ".0"
	}
	v, err := semver.NewVersion(s)
	if err != nil {
		return nagaspirv.Version{}, fmt.Errorf("spirv version: %w", err)
	}
	if v.Major != 1 || v.Minor > 6 || v.Patch != 0 {
		return nagaspirv.Version{}, fmt.Errorf("spirv version %s not supported", v)
	}
	return nagaspirv.Version{Major: uint8(v.Major), Minor: uint8(v.Minor)}, nil
}

// findShaders lists the files under root whose stage can be inferred.
func findShaders(root string) ([]string, error) {
	var files []string
	err := fs.WalkDir(os.DirFS(root), ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, err := stageOf(p, ""); err == nil {
			files = append(files, p)
		}
		return nil
	})
	return files, err
}

// writeOutputs writes the bytecode and reflected metadata of every loaded
// result into dir.
func writeOutputs(ctx context.Context, dir string, results []result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, r := range results {
		if r.bytecode == nil {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			base := filepath.Join(dir, outputName(r.Path))
			if err := os.WriteFile(base+".spv", r.bytecode, 0o644); err != nil {
				return err
			}
			data, err := json.MarshalIndent(r.Metadata, "", "  ")
			if err != nil {
				return err
			}
			return os.WriteFile(base+".json", data, 0o644)
		})
	}
	return g.Wait()
}

// outputName flattens a shader address into a file name.
func outputName(address string) string {
	for _, ext := range sourceExtensions {
		address = strings.TrimSuffix(address, ext)
	}
	return strings.ReplaceAll(address, "/", "_")
}

func printResults(w io.Writer, results []result, styled bool) {
	render := func(s lipgloss.Style, text string) string {
		if !styled {
			return text
		}
		return s.Render(text)
	}

	var loaded, failed int
	for _, r := range results {
		status := render(okStyle, r.Status)
		if r.failed {
			status = render(failStyle, r.Status)
			failed++
		} else {
			loaded++
		}
		fmt.Fprintf(w, "%-9s %s (%s)\n", status, render(pathStyle, r.Path), r.Stage)
		if md := r.Metadata; md != nil {
			fmt.Fprintln(w, render(detailStyle, fmt.Sprintf(
				"          v%d: %d uniforms, %d push constants, %d vertex inputs, %d samplers, %d storage buffers",
				r.Version, len(md.Uniforms), len(md.PushConstants), len(md.VertexInputs),
				len(md.Samplers), len(md.StorageBuffers))))
		}
		if r.Diagnostic != "" {
			for _, line := range strings.Split(strings.TrimSpace(r.Diagnostic), "\n") {
				fmt.Fprintln(w, render(failStyle, "          "+line))
			}
		}
	}
	fmt.Fprintln(w, render(summaryStyle, fmt.Sprintf("%d loaded, %d failed", loaded, failed)))
}
