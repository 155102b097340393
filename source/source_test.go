// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package source

import (
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDir(t *testing.T) {
	mod := time.Unix(1700000000, 0)
	fsys := fstest.MapFS{
		"shaders/sprite.wgsl": {Data: []byte("fn main() {}"), ModTime: mod},
	}
	d := NewDir(fsys)

	data, ok := d.TryFetch("shaders/sprite.wgsl")
	require.True(t, ok)
	assert.Equal(t, "fn main() {}", string(data))

	_, ok = d.TryFetch("shaders/missing.wgsl")
	assert.False(t, ok)

	_, ok = d.TryFetch("../escape.wgsl")
	assert.False(t, ok)

	v, ok := d.Version("shaders/sprite.wgsl")
	require.True(t, ok)
	assert.Equal(t, uint64(mod.UnixNano()), v)

	_, ok = d.Version("shaders/missing.wgsl")
	assert.False(t, ok)
}

func TestOpenDir(t *testing.T) {
	dir := t.TempDir()
	d := OpenDir(dir)
	_, ok := d.TryFetch("a.glsl")
	assert.False(t, ok)
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	_, ok := m.TryFetch("a")
	assert.False(t, ok)

	src := []byte("void main() {}")
	m.Put("a", src)
	src[0] = 'X'

	data, ok := m.TryFetch("a")
	require.True(t, ok)
	assert.Equal(t, "void main() {}", string(data))
	assert.Equal(t, 1, m.Len())

	m.Delete("a")
	_, ok = m.TryFetch("a")
	assert.False(t, ok)
	assert.Zero(t, m.Len())
}
