// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gogpu/spvreflect"
	"github.com/gogpu/spvreflect/internal/debug"
	"github.com/gogpu/spvreflect/shader"
	"github.com/gogpu/spvreflect/source"
	"github.com/gogpu/spvreflect/spirv"
	"github.com/gogpu/spvreflect/store"
)

const tick = 100 * time.Millisecond

// fakeCompiler maps source text to prebuilt bytecode.
type fakeCompiler struct {
	outputs map[string][]byte
	calls   int
}

func (c *fakeCompiler) Compile(_ context.Context, src []byte, _ shader.Stage) ([]byte, error) {
	c.calls++
	out, ok := c.outputs[string(src)]
	if !ok {
		return nil, errors.New("syntax error at line 1")
	}
	return out, nil
}

// cameraShader is a vertex module with an inPosition input and a
// cameraInfo uniform at binding 2. extra adds a vec2 inUv input.
func cameraShader(extra bool) []byte {
	b := spirv.NewBuilder(spirv.Version1_3)
	void := b.AddTypeVoid()
	f32 := b.AddTypeFloat(32)
	vec2 := b.AddTypeVector(f32, 2)
	vec3 := b.AddTypeVector(f32, 3)
	vec4 := b.AddTypeVector(f32, 4)
	mat4 := b.AddTypeMatrix(vec4, 4)

	camera := b.AddTypeStruct(mat4, mat4)
	b.AddName(camera, "CameraInfo")
	b.AddMemberName(camera, 0, "proj")
	b.AddMemberName(camera, 1, "view")
	b.AddDecorate(camera, spirv.DecorationBlock)
	cam := b.AddVariable(b.AddTypePointer(spirv.StorageClassUniform, camera), spirv.StorageClassUniform)
	b.AddName(cam, "cameraInfo")
	b.AddDecorate(cam, spirv.DecorationDescriptorSet, 0)
	b.AddDecorate(cam, spirv.DecorationBinding, 2)

	iface := []uint32{}
	pos := b.AddVariable(b.AddTypePointer(spirv.StorageClassInput, vec3), spirv.StorageClassInput)
	b.AddName(pos, "inPosition")
	b.AddDecorate(pos, spirv.DecorationLocation, 0)
	iface = append(iface, pos)
	if extra {
		uv := b.AddVariable(b.AddTypePointer(spirv.StorageClassInput, vec2), spirv.StorageClassInput)
		b.AddName(uv, "inUv")
		b.AddDecorate(uv, spirv.DecorationLocation, 1)
		iface = append(iface, uv)
	}

	fn := b.AddFunction(b.AddTypeFunction(void), void, spirv.FunctionControlNone)
	b.AddLabel()
	b.AddReturn()
	b.AddFunctionEnd()
	b.AddEntryPoint(spirv.ExecutionModelVertex, fn, "main", iface...)
	return b.Build()
}

type fixture struct {
	world    *store.Memory
	sources  *source.Memory
	compiler *fakeCompiler
	p        *Pipeline
	target   store.Entity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	c := &fakeCompiler{outputs: map[string][]byte{
		"camera v1": cameraShader(false),
		"camera v2": cameraShader(true),
		"garbage":   {1, 2, 3, 4},
	}}
	f := &fixture{
		world:    store.NewMemory(),
		sources:  source.NewMemory(),
		compiler: c,
	}
	opts := DefaultOptions()
	opts.DefaultTimeout = time.Second
	f.p = New(c, f.sources, opts)
	f.target = f.world.NewEntity()
	return f
}

func (f *fixture) submit(version uint64, timeout time.Duration) store.Entity {
	e := f.world.NewEntity()
	store.Set(f.world, e, Request{
		Address:       "camera.vert",
		Stage:         shader.StageVertex,
		Timeout:       timeout,
		SourceVersion: version,
		Target:        f.target,
	})
	return e
}

func (f *fixture) update(pending ...store.Entity) Stats {
	return f.p.Update(context.Background(), f.world, pending, tick)
}

func (f *fixture) request(t *testing.T, e store.Entity) Request {
	t.Helper()
	req, ok := store.Get[Request](f.world, e)
	require.True(t, ok)
	return req
}

func (f *fixture) module(t *testing.T) Module {
	t.Helper()
	mod, ok := store.Get[Module](f.world, f.target)
	require.True(t, ok)
	return mod
}

func TestSubmittedMovesToLoading(t *testing.T) {
	f := newFixture(t)
	f.sources.Put("camera.vert", []byte("camera v1"))
	e := f.submit(1, 0)

	stats := f.update(e)
	assert.Equal(t, 1, stats.Started)
	assert.Equal(t, StatusLoading, f.request(t, e).Status)
	assert.Zero(t, f.compiler.calls, "no work on the first observation")
	_, ok := store.Get[Module](f.world, f.target)
	assert.False(t, ok)
}

func TestImportCommitsMetadata(t *testing.T) {
	f := newFixture(t)
	f.sources.Put("camera.vert", []byte("camera v1"))
	e := f.submit(1, 0)

	f.update(e)
	stats := f.update(e)
	assert.Equal(t, 1, stats.Committed)

	req := f.request(t, e)
	assert.Equal(t, StatusLoaded, req.Status)
	assert.Empty(t, req.Diagnostic)

	mod := f.module(t)
	assert.Equal(t, uint64(1), mod.Version)
	assert.Equal(t, uint64(1), mod.SourceVersion)
	assert.NotEmpty(t, mod.Bytecode)

	md := Metadata(f.world, f.target)
	require.Len(t, md.Uniforms, 1)
	assert.Equal(t, "cameraInfo", md.Uniforms[0].Name)
	assert.Equal(t, shader.ResourceKey{Binding: 2, Set: 0}, md.Uniforms[0].Key)
	assert.Equal(t, uint32(128), md.Uniforms[0].Size)
	require.Len(t, md.VertexInputs, 1)
	assert.Empty(t, md.Samplers)
	assert.True(t, store.ContainsArray[shader.SamplerProperty](f.world, f.target))

	v, ok := f.p.Committed(f.target)
	require.True(t, ok)
	assert.Equal(t, uint64(1), v)
}

func TestUnchangedVersionIsNoOp(t *testing.T) {
	f := newFixture(t)
	f.sources.Put("camera.vert", []byte("camera v1"))
	first := f.submit(1, 0)
	f.update(first)
	f.update(first)
	before := f.module(t)
	calls := f.compiler.calls

	f.sources.Put("camera.vert", []byte("camera v2"))
	again := f.submit(1, 0)
	f.update(again)
	stats := f.update(again)

	assert.Equal(t, 1, stats.Unchanged)
	assert.Zero(t, stats.Committed)
	assert.Equal(t, calls, f.compiler.calls, "compiler ran for an unchanged version")
	assert.Equal(t, StatusLoaded, f.request(t, again).Status)
	assert.Equal(t, before, f.module(t))
	assert.Len(t, Metadata(f.world, f.target).VertexInputs, 1)
}

func TestStaleVersionIsNoOp(t *testing.T) {
	f := newFixture(t)
	f.sources.Put("camera.vert", []byte("camera v1"))
	e := f.submit(5, 0)
	f.update(e)
	f.update(e)

	stale := f.submit(3, 0)
	f.update(stale)
	stats := f.update(stale)
	assert.Equal(t, 1, stats.Unchanged)
	assert.Equal(t, StatusLoaded, f.request(t, stale).Status)
	mod := f.module(t)
	assert.Equal(t, uint64(1), mod.Version)
	assert.Equal(t, uint64(5), mod.SourceVersion, "stale request replaced a newer module")
}

func TestReimportReplacesMetadata(t *testing.T) {
	f := newFixture(t)
	f.sources.Put("camera.vert", []byte("camera v1"))
	first := f.submit(1, 0)
	f.update(first)
	f.update(first)

	f.sources.Put("camera.vert", []byte("camera v2"))
	second := f.submit(2, 0)
	f.update(second)
	f.update(second)

	mod := f.module(t)
	assert.Equal(t, uint64(2), mod.Version)
	assert.Equal(t, uint64(2), mod.SourceVersion)

	inputs := Metadata(f.world, f.target).VertexInputs
	require.Len(t, inputs, 2)
	assert.Equal(t, uint32(12), inputs[1].Offset)
	assert.Equal(t, uint32(8), inputs[1].Size)
}

func TestTimeoutWithoutSource(t *testing.T) {
	f := newFixture(t)
	e := f.submit(1, 3*tick)
	f.update(e)

	for i := 0; i < 2; i++ {
		batch := f.p.Step(context.Background(), f.world, []store.Entity{e}, tick)
		assert.Zero(t, batch.Len(), "waiting produced writes")
		batch.Apply(f.world)
		assert.Equal(t, StatusLoading, f.request(t, e).Status)
	}

	batch := f.p.Step(context.Background(), f.world, []store.Entity{e}, tick)
	assert.Equal(t, []store.Entity{e}, batch.Entities())
	batch.Apply(f.world)
	assert.Equal(t, 1, f.p.Stats().TimedOut)

	req := f.request(t, e)
	assert.Equal(t, StatusNotFound, req.Status)
	assert.Equal(t, 3*tick, req.Waited)
	_, ok := store.Get[Module](f.world, f.target)
	assert.False(t, ok)
	assert.False(t, store.ContainsArray[shader.UniformProperty](f.world, f.target))
}

func TestZeroTimeoutUsesDefault(t *testing.T) {
	f := newFixture(t)
	e := f.submit(1, 0)
	f.update(e)
	for i := 0; i < 9; i++ {
		f.update(e)
	}
	assert.Equal(t, StatusLoading, f.request(t, e).Status)
	f.update(e)
	assert.Equal(t, StatusNotFound, f.request(t, e).Status)
}

func TestSourceArrivesLate(t *testing.T) {
	f := newFixture(t)
	e := f.submit(1, 0)
	f.update(e)
	f.update(e)
	f.update(e)
	assert.Equal(t, StatusLoading, f.request(t, e).Status)

	f.sources.Put("camera.vert", []byte("camera v1"))
	f.update(e)
	req := f.request(t, e)
	assert.Equal(t, StatusLoaded, req.Status)
	assert.Equal(t, 2*tick, req.Waited)
}

func TestCompileFailureNotRetriedUntilSourceChanges(t *testing.T) {
	f := newFixture(t)
	f.sources.Put("camera.vert", []byte("broken"))
	e := f.submit(1, 0)
	f.update(e)

	stats := f.update(e)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, f.compiler.calls)

	f.update(e)
	f.update(e)
	assert.Equal(t, 1, f.compiler.calls, "same failing source was recompiled")

	f.sources.Put("camera.vert", []byte("camera v1"))
	f.update(e)
	assert.Equal(t, 2, f.compiler.calls)
	assert.Equal(t, StatusLoaded, f.request(t, e).Status)
}

func TestCompileFailureTimesOutWithDiagnostic(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	spvreflect.SetLogger(zap.New(core))
	t.Cleanup(func() { spvreflect.SetLogger(nil) })

	f := newFixture(t)
	f.sources.Put("camera.vert", []byte("broken"))
	e := f.submit(1, 2*tick)
	f.update(e)
	f.update(e)
	f.update(e)

	req := f.request(t, e)
	assert.Equal(t, StatusNotFound, req.Status)
	assert.Contains(t, req.Diagnostic, "syntax error")
	assert.Equal(t, 1, logs.FilterMessage("shader compile failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("shader request timed out").Len())
}

func TestReflectionFailureIsRecorded(t *testing.T) {
	if debug.Enabled {
		t.Skip("reflection failures panic in debug builds")
	}
	f := newFixture(t)
	f.sources.Put("camera.vert", []byte("garbage"))
	e := f.submit(1, tick)
	f.update(e)
	stats := f.update(e)

	assert.Equal(t, 1, stats.Failed)
	req := f.request(t, e)
	assert.Equal(t, StatusNotFound, req.Status)
	assert.Contains(t, req.Diagnostic, "spirv")
	_, ok := store.Get[Module](f.world, f.target)
	assert.False(t, ok, "failed reflection committed a module")
}

func TestOneCommitPerTargetPerTick(t *testing.T) {
	f := newFixture(t)
	f.sources.Put("camera.vert", []byte("camera v1"))
	a := f.submit(1, 0)
	b := f.submit(2, 0)
	f.update(a, b)

	stats := f.update(a, b)
	assert.Equal(t, 1, stats.Committed)
	assert.Equal(t, 1, stats.Deferred)
	assert.Equal(t, StatusLoaded, f.request(t, a).Status)
	assert.Equal(t, StatusLoading, f.request(t, b).Status)
	assert.Equal(t, uint64(1), f.module(t).Version)

	stats = f.update(a, b)
	assert.Equal(t, 1, stats.Committed)
	assert.Equal(t, StatusLoaded, f.request(t, b).Status)
	assert.Equal(t, uint64(2), f.module(t).Version)
	assert.Equal(t, uint64(2), f.module(t).SourceVersion)
}

func TestStepDoesNotWrite(t *testing.T) {
	f := newFixture(t)
	f.sources.Put("camera.vert", []byte("camera v1"))
	e := f.submit(1, 0)
	f.update(e)

	batch := f.p.Step(context.Background(), f.world, []store.Entity{e}, tick)
	assert.Equal(t, StatusLoading, f.request(t, e).Status)
	_, ok := store.Get[Module](f.world, f.target)
	assert.False(t, ok)
	assert.Equal(t, []store.Entity{f.target, e}, batch.Entities())

	batch.Apply(f.world)
	assert.Equal(t, StatusLoaded, f.request(t, e).Status)
}

func TestTerminalRequestsIgnored(t *testing.T) {
	f := newFixture(t)
	e := f.world.NewEntity()
	store.Set(f.world, e, Request{Address: "camera.vert", Status: StatusNotFound, Target: f.target})
	stats := f.update(e)
	assert.Equal(t, Stats{}, stats)
	assert.Zero(t, f.compiler.calls)
}

func TestEntitiesWithoutRequestSkipped(t *testing.T) {
	f := newFixture(t)
	stats := f.update(f.world.NewEntity())
	assert.Equal(t, Stats{}, stats)
}

func TestCancelledContextStopsTick(t *testing.T) {
	f := newFixture(t)
	f.sources.Put("camera.vert", []byte("camera v1"))
	e := f.submit(1, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	batch := f.p.Step(ctx, f.world, []store.Entity{e}, tick)
	assert.Zero(t, batch.Len())
}

func TestForget(t *testing.T) {
	f := newFixture(t)
	f.sources.Put("camera.vert", []byte("camera v1"))
	e := f.submit(1, 0)
	f.update(e)
	f.update(e)

	f.p.Forget(f.target)
	_, ok := f.p.Committed(f.target)
	assert.False(t, ok)

	again := f.submit(1, 0)
	f.update(again)
	stats := f.update(again)
	assert.Equal(t, 1, stats.Committed)
	assert.Equal(t, uint64(2), f.module(t).Version)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "loading", StatusLoading.String())
	assert.Equal(t, "not-found", StatusNotFound.String())
	assert.Equal(t, "unknown", Status(9).String())
	assert.True(t, StatusLoaded.Terminal())
	assert.False(t, StatusLoading.Terminal())
}
