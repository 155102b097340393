// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package source provides shader source suppliers for the import pipeline.
// Suppliers report a missing source as unavailable rather than as an error,
// so the pipeline retries it on a later tick.
package source

import (
	"errors"
	"io/fs"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/gogpu/spvreflect"
)

// Dir reads sources from a file system. Addresses are slash-separated
// paths relative to the root of the file system.
type Dir struct {
	fsys fs.FS
}

// NewDir creates a source over fsys.
func NewDir(fsys fs.FS) *Dir {
	return &Dir{fsys: fsys}
}

// OpenDir creates a source rooted at the directory path.
func OpenDir(path string) *Dir {
	return NewDir(os.DirFS(path))
}

// TryFetch returns the contents of the file at address. Missing files and
// invalid addresses are unavailable; other read errors are logged and also
// reported as unavailable.
func (d *Dir) TryFetch(address string) ([]byte, bool) {
	if !fs.ValidPath(address) {
		spvreflect.Logger().Debug("invalid source address", zap.String("address", address))
		return nil, false
	}
	data, err := fs.ReadFile(d.fsys, address)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			spvreflect.Logger().Warn("source read failed",
				zap.String("address", address), zap.Error(err))
		}
		return nil, false
	}
	return data, true
}

// Version returns a revision number for the file at address derived from
// its modification time. It changes whenever the file is rewritten.
func (d *Dir) Version(address string) (uint64, bool) {
	if !fs.ValidPath(address) {
		return 0, false
	}
	info, err := fs.Stat(d.fsys, address)
	if err != nil {
		return 0, false
	}
	return uint64(info.ModTime().UnixNano()), true
}

// Memory holds sources in memory. It is safe for concurrent use, so a
// loader goroutine may Put sources while the pipeline fetches them.
type Memory struct {
	mu      sync.RWMutex
	sources map[string][]byte
}

// NewMemory creates an empty in-memory source.
func NewMemory() *Memory {
	return &Memory{sources: make(map[string][]byte)}
}

// Put makes data available at address, replacing any previous contents.
func (m *Memory) Put(address string, data []byte) {
	m.mu.Lock()
	m.sources[address] = append([]byte(nil), data...)
	m.mu.Unlock()
}

// Delete makes address unavailable.
func (m *Memory) Delete(address string) {
	m.mu.Lock()
	delete(m.sources, address)
	m.mu.Unlock()
}

// TryFetch returns the data stored at address.
func (m *Memory) TryFetch(address string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.sources[address]
	return data, ok
}

// Len returns the number of stored sources.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sources)
}
