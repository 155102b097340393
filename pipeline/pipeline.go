// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package pipeline imports shader sources into reflected modules.
//
// A Pipeline is driven by the host once per tick. Each tick it walks the
// pending Request entities, fetches sources that have become available,
// compiles and reflects them, and stages the results into a store.Batch.
// Nothing in storage changes until the batch is applied, so the walk can
// read storage freely.
//
//	p := pipeline.New(compiler.NewNaga(), source.NewMemory(), pipeline.DefaultOptions())
//	for range ticker.C {
//		p.Update(ctx, world, requests, tick)
//	}
//
// The pipeline never blocks waiting for a source: an unavailable source is
// retried on the next tick until the request times out.
package pipeline

import (
	"context"
	"hash/fnv"
	"time"

	"go.uber.org/zap"

	"github.com/gogpu/spvreflect"
	"github.com/gogpu/spvreflect/internal/debug"
	"github.com/gogpu/spvreflect/reflection"
	"github.com/gogpu/spvreflect/shader"
	"github.com/gogpu/spvreflect/store"
)

// Compiler turns shader source into SPIR-V bytecode for one stage. The
// entry point of the produced module is named "main".
type Compiler interface {
	Compile(ctx context.Context, source []byte, stage shader.Stage) ([]byte, error)
}

// Source supplies shader source bytes. TryFetch must not block; it
// returns false while the source is not available yet.
type Source interface {
	TryFetch(address string) ([]byte, bool)
}

// Options configures a Pipeline.
type Options struct {
	// DefaultTimeout applies to requests with a zero Timeout.
	DefaultTimeout time.Duration

	// EntryPoint is the entry point reflected in compiled modules.
	EntryPoint string

	// Types is the descriptor table used for reflection. Nil builds one.
	Types *shader.TypeTable
}

// DefaultOptions returns the default pipeline configuration.
func DefaultOptions() Options {
	return Options{
		DefaultTimeout: 5 * time.Second,
		EntryPoint:     "main",
	}
}

// Stats counts what one tick did.
type Stats struct {
	Started   int // Submitted requests moved to Loading
	Committed int // modules staged for commit
	Unchanged int // requests whose source version was already committed
	Waiting   int // requests still Loading after this tick
	Deferred  int // requests whose target was already committed this tick
	Failed    int // compile or reflection failures
	TimedOut  int // requests moved to NotFound
}

// progress is the pipeline's memory of a Loading request.
type progress struct {
	waited     time.Duration
	failed     bool
	digest     uint64
	diagnostic string
}

// Pipeline drives shader requests through fetch, compile, reflect and
// commit. It is not safe for concurrent use.
type Pipeline struct {
	compiler  Compiler
	source    Source
	reflector *reflection.Reflector
	timeout   time.Duration

	committed map[store.Entity]uint64
	progress  map[store.Entity]*progress
	staged    map[store.Entity]bool
	seen      map[store.Entity]bool

	batch *store.Batch
	stats Stats
}

// New creates a pipeline that compiles with c and fetches from src.
func New(c Compiler, src Source, opts Options) *Pipeline {
	if opts.EntryPoint == "" {
		opts.EntryPoint = DefaultOptions().EntryPoint
	}
	return &Pipeline{
		compiler: c,
		source:   src,
		reflector: reflection.New(reflection.Options{
			EntryPoint: opts.EntryPoint,
			Types:      opts.Types,
		}),
		timeout:   opts.DefaultTimeout,
		committed: make(map[store.Entity]uint64),
		progress:  make(map[store.Entity]*progress),
		staged:    make(map[store.Entity]bool),
		seen:      make(map[store.Entity]bool),
		batch:     store.NewBatch(),
	}
}

// Update runs one tick and applies its writes to s.
func (p *Pipeline) Update(ctx context.Context, s store.Storage, pending []store.Entity, dt time.Duration) Stats {
	p.Step(ctx, s, pending, dt).Apply(s)
	return p.stats
}

// Step runs one tick without writing to s and returns the staged writes.
// The batch is owned by the pipeline and reused by the next Step; it must
// be applied before then for the pipeline's committed versions to match
// storage. Entities in pending without a Request component are skipped.
func (p *Pipeline) Step(ctx context.Context, s store.Storage, pending []store.Entity, dt time.Duration) *store.Batch {
	p.batch.Clear()
	clear(p.staged)
	clear(p.seen)
	p.stats = Stats{}

	for _, e := range pending {
		if ctx.Err() != nil {
			break
		}
		req, ok := store.Get[Request](s, e)
		if !ok {
			continue
		}
		p.seen[e] = true
		p.step(ctx, s, e, req, dt)
	}

	if ctx.Err() == nil {
		for e := range p.progress {
			if !p.seen[e] {
				delete(p.progress, e)
			}
		}
	}
	return p.batch
}

// Stats returns the counters of the last tick.
func (p *Pipeline) Stats() Stats {
	return p.stats
}

// Committed returns the last source version committed to target.
func (p *Pipeline) Committed(target store.Entity) (uint64, bool) {
	v, ok := p.committed[target]
	return v, ok
}

// Forget drops the committed version of target, so the next request for it
// is imported whatever its source version.
func (p *Pipeline) Forget(target store.Entity) {
	delete(p.committed, target)
}

func (p *Pipeline) step(ctx context.Context, s store.Storage, e store.Entity, req Request, dt time.Duration) {
	switch req.Status {
	case StatusSubmitted:
		req.Status = StatusLoading
		p.stats.Started++
		spvreflect.Logger().Debug("shader request started",
			zap.String("address", req.Address),
			zap.Stringer("stage", req.Stage),
			zap.Uint64("source_version", req.SourceVersion))
		store.SetComponent(p.batch, e, req)
	case StatusLoading:
		p.load(ctx, s, e, req, dt)
	default:
		delete(p.progress, e)
	}
}

func (p *Pipeline) load(ctx context.Context, s store.Storage, e store.Entity, req Request, dt time.Duration) {
	log := spvreflect.Logger().With(
		zap.String("address", req.Address),
		zap.Stringer("stage", req.Stage),
		zap.Uint64("target", uint64(req.Target)))

	if p.staged[req.Target] {
		p.stats.Deferred++
		return
	}

	pr := p.progress[e]
	if pr == nil {
		pr = &progress{waited: req.Waited}
		p.progress[e] = pr
	}

	if v, ok := p.committed[req.Target]; ok && req.SourceVersion <= v {
		log.Debug("shader source unchanged", zap.Uint64("source_version", req.SourceVersion))
		p.stats.Unchanged++
		p.finish(e, req, pr, StatusLoaded)
		return
	}

	src, ok := p.source.TryFetch(req.Address)
	if !ok {
		p.wait(e, req, pr, dt, log)
		return
	}

	digest := checksum(src)
	if pr.failed && pr.digest == digest {
		p.wait(e, req, pr, dt, log)
		return
	}

	bytecode, err := p.compiler.Compile(ctx, src, req.Stage)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Warn("shader compile failed", zap.Error(err))
		p.fail(pr, digest, err)
		p.wait(e, req, pr, dt, log)
		return
	}

	md, err := p.reflector.Reflect(bytecode, req.Stage)
	if err != nil {
		log.Error("shader reflection failed", zap.Error(err))
		debug.Fail(err)
		p.fail(pr, digest, err)
		p.wait(e, req, pr, dt, log)
		return
	}

	p.commit(s, e, req, pr, bytecode, md)
	log.Info("shader committed",
		zap.Uint64("source_version", req.SourceVersion),
		zap.Int("uniforms", len(md.Uniforms)),
		zap.Int("push_constants", len(md.PushConstants)),
		zap.Int("vertex_inputs", len(md.VertexInputs)),
		zap.Int("samplers", len(md.Samplers)),
		zap.Int("storage_buffers", len(md.StorageBuffers)))
}

func (p *Pipeline) fail(pr *progress, digest uint64, err error) {
	pr.failed = true
	pr.digest = digest
	pr.diagnostic = err.Error()
	p.stats.Failed++
}

func (p *Pipeline) wait(e store.Entity, req Request, pr *progress, dt time.Duration, log *zap.Logger) {
	pr.waited += dt
	timeout := req.Timeout
	if timeout == 0 {
		timeout = p.timeout
	}
	if pr.waited < timeout {
		p.stats.Waiting++
		return
	}
	log.Warn("shader request timed out",
		zap.Duration("waited", pr.waited),
		zap.Duration("timeout", timeout),
		zap.String("diagnostic", pr.diagnostic))
	p.stats.TimedOut++
	p.finish(e, req, pr, StatusNotFound)
}

func (p *Pipeline) commit(s store.Storage, e store.Entity, req Request, pr *progress, bytecode []byte, md *shader.Metadata) {
	prev, _ := store.Get[Module](s, req.Target)
	store.SetComponent(p.batch, req.Target, Module{
		Bytecode:      bytecode,
		Version:       prev.Version + 1,
		SourceVersion: req.SourceVersion,
	})
	store.ReplaceArray(p.batch, req.Target, md.Uniforms)
	store.ReplaceArray(p.batch, req.Target, md.PushConstants)
	store.ReplaceArray(p.batch, req.Target, md.VertexInputs)
	store.ReplaceArray(p.batch, req.Target, md.Samplers)
	store.ReplaceArray(p.batch, req.Target, md.StorageBuffers)

	p.committed[req.Target] = req.SourceVersion
	p.staged[req.Target] = true
	p.stats.Committed++

	pr.diagnostic = ""
	p.finish(e, req, pr, StatusLoaded)
}

func (p *Pipeline) finish(e store.Entity, req Request, pr *progress, status Status) {
	req.Status = status
	req.Waited = pr.waited
	req.Diagnostic = pr.diagnostic
	store.SetComponent(p.batch, e, req)
	delete(p.progress, e)
}

func checksum(b []byte) uint64 {
	h := fnv.New64a()
	h.Write(b)
	return h.Sum64()
}
