// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/spvreflect/compiler"
	"github.com/gogpu/spvreflect/pipeline"
	"github.com/gogpu/spvreflect/shader"
	"github.com/gogpu/spvreflect/source"
)

const blurWGSL = `
struct Params {
    proj: mat4x4<f32>,
    view: mat4x4<f32>,
}

@group(0) @binding(1) var<uniform> params: Params;

@compute @workgroup_size(1)
fn main() {
    let p = params.proj;
}
`

func TestStageOf(t *testing.T) {
	tests := []struct {
		name     string
		override string
		want     shader.Stage
	}{
		{"quad.vert", "", shader.StageVertex},
		{"fx/blur.comp.wgsl", "", shader.StageCompute},
		{"shade.frag.glsl", "", shader.StageFragment},
		{"anything.wgsl", "compute", shader.StageCompute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := stageOf(tt.name, tt.override)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := stageOf("blur.wgsl", "")
	assert.Error(t, err)
	_, err = stageOf("quad.vert", "tessellation")
	assert.Error(t, err)
}

func TestParseSPIRVVersion(t *testing.T) {
	v, err := parseSPIRVVersion("1.3")
	require.NoError(t, err)
	assert.Equal(t, uint8(1), v.Major)
	assert.Equal(t, uint8(3), v.Minor)

	v, err = parseSPIRVVersion("1.5.0")
	require.NoError(t, err)
	assert.Equal(t, uint8(5), v.Minor)

	for _, bad := range []string{"2.0", "1.7", "1.3.1", "one"} {
		_, err := parseSPIRVVersion(bad)
		assert.Error(t, err, bad)
	}
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "fx_blur.comp", outputName("fx/blur.comp.wgsl"))
	assert.Equal(t, "quad.vert", outputName("quad.vert"))
}

func newTestImporter(fsys fstest.MapFS) *importer {
	opts := pipeline.DefaultOptions()
	opts.DefaultTimeout = 200 * time.Millisecond
	return newImporter(source.NewDir(fsys), compiler.NewNaga(), opts)
}

func runTicks(t *testing.T, im *importer) {
	t.Helper()
	for i := 0; i < 10 && !im.done(); i++ {
		im.tick(context.Background(), 50*time.Millisecond)
	}
	require.True(t, im.done())
}

func TestImporterLoadsAndTimesOut(t *testing.T) {
	fsys := fstest.MapFS{
		"blur.comp.wgsl": {Data: []byte(blurWGSL), ModTime: time.Unix(100, 0)},
	}
	im := newTestImporter(fsys)
	im.submit("blur.comp.wgsl", shader.StageCompute)
	im.submit("missing.comp.wgsl", shader.StageCompute)
	runTicks(t, im)

	results := im.results()
	require.Len(t, results, 2)

	loaded := results[0]
	assert.Equal(t, "loaded", loaded.Status)
	assert.Equal(t, uint64(1), loaded.Version)
	assert.Equal(t, uint64(time.Unix(100, 0).UnixNano()), loaded.SourceVersion)
	require.NotNil(t, loaded.Metadata)
	require.Len(t, loaded.Metadata.Uniforms, 1)
	assert.Equal(t, uint32(128), loaded.Metadata.Uniforms[0].Size)
	assert.NotEmpty(t, loaded.bytecode)
	assert.False(t, loaded.failed)

	missing := results[1]
	assert.Equal(t, "not-found", missing.Status)
	assert.True(t, missing.failed)
	assert.Nil(t, missing.Metadata)
}

func TestImporterResubmitsChangedFile(t *testing.T) {
	fsys := fstest.MapFS{
		"blur.comp.wgsl": {Data: []byte(blurWGSL), ModTime: time.Unix(100, 0)},
	}
	im := newTestImporter(fsys)
	im.submit("blur.comp.wgsl", shader.StageCompute)
	runTicks(t, im)

	j := im.jobs[0]
	assert.False(t, im.resubmit(j), "unchanged file resubmitted")

	fsys["blur.comp.wgsl"].ModTime = time.Unix(200, 0)
	require.True(t, im.resubmit(j))
	assert.False(t, im.done())
	runTicks(t, im)

	r := im.results()[0]
	assert.Equal(t, "loaded", r.Status)
	assert.Equal(t, uint64(2), r.Version)
}

func TestWriteOutputs(t *testing.T) {
	fsys := fstest.MapFS{
		"fx/blur.comp.wgsl": {Data: []byte(blurWGSL), ModTime: time.Unix(100, 0)},
	}
	im := newTestImporter(fsys)
	im.submit("fx/blur.comp.wgsl", shader.StageCompute)
	runTicks(t, im)

	dir := t.TempDir()
	require.NoError(t, writeOutputs(context.Background(), dir, im.results()))

	spv, err := os.ReadFile(filepath.Join(dir, "fx_blur.comp.spv"))
	require.NoError(t, err)
	assert.Equal(t, im.results()[0].bytecode, spv)

	data, err := os.ReadFile(filepath.Join(dir, "fx_blur.comp.json"))
	require.NoError(t, err)
	var md shader.Metadata
	require.NoError(t, json.Unmarshal(data, &md))
	assert.Len(t, md.Uniforms, 1)
}

func TestPrintResultsPlain(t *testing.T) {
	results := []result{
		{Path: "a.vert", Stage: "vertex", Status: "loaded", Version: 1, Metadata: &shader.Metadata{}},
		{Path: "b.frag", Stage: "fragment", Status: "not-found", Diagnostic: "syntax error\n", failed: true},
	}
	var buf bytes.Buffer
	printResults(&buf, results, false)

	out := buf.String()
	assert.Contains(t, out, "loaded    a.vert (vertex)")
	assert.Contains(t, out, "v1: 0 uniforms")
	assert.Contains(t, out, "          syntax error")
	assert.Contains(t, out, "1 loaded, 1 failed")
}
