// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Command spvdis disassembles SPIR-V modules into .spvasm-style text and
// can print the reflected binding interface of an entry point.
//
// Usage:
//
//	spvdis shader.spv
//	spvdis -reflect vertex shader.spv
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/gogpu/spvreflect/reflection"
	"github.com/gogpu/spvreflect/shader"
	"github.com/gogpu/spvreflect/spirv"
)

func main() {
	reflectStage := flag.String("reflect", "", "print reflected metadata for this stage (vertex, fragment, compute, geometry)")
	entry := flag.String("entry", "main", "entry point to reflect")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: spvdis [-reflect stage] [-entry name] <file.spv>")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	mod, err := spirv.Parse(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *reflectStage == "" {
		disassemble(os.Stdout, mod)
		return
	}

	stage, ok := shader.ParseStage(*reflectStage)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown stage %q\n", *reflectStage)
		os.Exit(2)
	}
	r := reflection.New(reflection.Options{EntryPoint: *entry})
	md, err := r.ReflectModule(mod, stage)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(md); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
