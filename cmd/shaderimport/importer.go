// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/gogpu/spvreflect/pipeline"
	"github.com/gogpu/spvreflect/shader"
	"github.com/gogpu/spvreflect/source"
	"github.com/gogpu/spvreflect/store"
)

// sourceExtensions are stripped before the stage extension is read, so
// "blur.comp.wgsl" and "blur.comp" both name a compute shader.
var sourceExtensions = []string{".wgsl", ".glsl", ".hlsl"}

// stageOf derives the stage of a shader from its file name. A non-empty
// override wins.
func stageOf(name, override string) (shader.Stage, error) {
	if override != "" {
		st, ok := shader.ParseStage(override)
		if !ok {
			return 0, fmt.Errorf("unknown stage %q", override)
		}
		return st, nil
	}
	base := path.Base(name)
	for _, ext := range sourceExtensions {
		base = strings.TrimSuffix(base, ext)
	}
	ext := strings.TrimPrefix(path.Ext(base), ".")
	st, ok := shader.ParseStage(ext)
	if !ok {
		return 0, fmt.Errorf("%s: cannot infer stage from extension, use -stage", name)
	}
	return st, nil
}

// job tracks one shader file: the request entity the pipeline walks and
// the target entity that receives the module.
type job struct {
	path    string
	request store.Entity
	target  store.Entity
}

// result is the outcome of a job as reported to the user.
type result struct {
	Path          string           `json:"path"`
	Stage         string           `json:"stage"`
	Status        string           `json:"status"`
	Version       uint64           `json:"version"`
	SourceVersion uint64           `json:"source_version"`
	Waited        time.Duration    `json:"waited"`
	Diagnostic    string           `json:"diagnostic,omitempty"`
	Metadata      *shader.Metadata `json:"metadata,omitempty"`

	bytecode []byte
	loading  bool
	failed   bool
}

// importer owns the world the pipeline writes into.
type importer struct {
	world   *store.Memory
	dir     *source.Dir
	p       *pipeline.Pipeline
	timeout time.Duration
	jobs    []*job
	pending []store.Entity
}

func newImporter(dir *source.Dir, c pipeline.Compiler, opts pipeline.Options) *importer {
	return &importer{
		world:   store.NewMemory(),
		dir:     dir,
		p:       pipeline.New(c, dir, opts),
		timeout: opts.DefaultTimeout,
	}
}

// submit queues a request for the file at name.
func (im *importer) submit(name string, stage shader.Stage) {
	j := &job{
		path:    name,
		request: im.world.NewEntity(),
		target:  im.world.NewEntity(),
	}
	version, _ := im.dir.Version(name)
	store.Set(im.world, j.request, pipeline.Request{
		Address:       name,
		Stage:         stage,
		Status:        pipeline.StatusSubmitted,
		Timeout:       im.timeout,
		SourceVersion: version,
		Target:        j.target,
	})
	im.jobs = append(im.jobs, j)
}

// resubmit replaces the terminal request of j with a new one when the
// file on disk is newer than the last request. It reports whether a new
// request was made.
func (im *importer) resubmit(j *job) bool {
	req, ok := store.Get[pipeline.Request](im.world, j.request)
	if !ok || !req.Status.Terminal() {
		return false
	}
	version, ok := im.dir.Version(j.path)
	if !ok || version <= req.SourceVersion {
		return false
	}
	store.Set(im.world, j.request, pipeline.Request{
		Address:       req.Address,
		Stage:         req.Stage,
		Status:        pipeline.StatusSubmitted,
		Timeout:       req.Timeout,
		SourceVersion: version,
		Target:        j.target,
	})
	return true
}

// tick runs one pipeline update over the non-terminal requests.
func (im *importer) tick(ctx context.Context, dt time.Duration) pipeline.Stats {
	im.pending = im.pending[:0]
	for _, j := range im.jobs {
		if req, ok := store.Get[pipeline.Request](im.world, j.request); ok && !req.Status.Terminal() {
			im.pending = append(im.pending, j.request)
		}
	}
	return im.p.Update(ctx, im.world, im.pending, dt)
}

// done reports whether every request is terminal.
func (im *importer) done() bool {
	for _, j := range im.jobs {
		if req, ok := store.Get[pipeline.Request](im.world, j.request); ok && !req.Status.Terminal() {
			return false
		}
	}
	return true
}

// run ticks until every request is terminal or ctx ends.
func (im *importer) run(ctx context.Context, tick time.Duration) error {
	t := time.NewTicker(tick)
	defer t.Stop()

	last := time.Now()
	for !im.done() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-t.C:
			im.tick(ctx, now.Sub(last))
			last = now
		}
	}
	return nil
}

func (im *importer) results() []result {
	out := make([]result, 0, len(im.jobs))
	for _, j := range im.jobs {
		req, _ := store.Get[pipeline.Request](im.world, j.request)
		r := result{
			Path:          j.path,
			Stage:         req.Stage.String(),
			Status:        req.Status.String(),
			SourceVersion: req.SourceVersion,
			Waited:        req.Waited,
			Diagnostic:    req.Diagnostic,
			loading:       !req.Status.Terminal(),
			failed:        req.Status == pipeline.StatusNotFound,
		}
		if mod, ok := store.Get[pipeline.Module](im.world, j.target); ok {
			r.Version = mod.Version
			r.Metadata = pipeline.Metadata(im.world, j.target)
			r.bytecode = mod.Bytecode
		}
		out = append(out, r)
	}
	return out
}
