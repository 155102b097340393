// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package store

import (
	"fmt"
	"reflect"
	"sort"
)

// Memory is a map-backed Storage. It is not safe for concurrent use.
type Memory struct {
	next       Entity
	components map[Entity]map[reflect.Type]any
	arrays     map[Entity]map[reflect.Type]reflect.Value
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{
		next:       1,
		components: make(map[Entity]map[reflect.Type]any),
		arrays:     make(map[Entity]map[reflect.Type]reflect.Value),
	}
}

// NewEntity allocates an entity with no components.
func (m *Memory) NewEntity() Entity {
	e := m.next
	m.next++
	m.components[e] = make(map[reflect.Type]any)
	return e
}

// Remove deletes e and everything attached to it.
func (m *Memory) Remove(e Entity) {
	delete(m.components, e)
	delete(m.arrays, e)
}

// Entities returns every live entity in ascending order.
func (m *Memory) Entities() []Entity {
	out := make([]Entity, 0, len(m.components))
	for e := range m.components {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Component implements Storage.
func (m *Memory) Component(e Entity, t reflect.Type) (any, bool) {
	v, ok := m.components[e][t]
	return v, ok
}

// SetComponent implements Storage.
func (m *Memory) SetComponent(e Entity, value any) {
	comps := m.components[e]
	if comps == nil {
		comps = make(map[reflect.Type]any)
		m.components[e] = comps
		if e >= m.next {
			m.next = e + 1
		}
	}
	comps[reflect.TypeOf(value)] = value
}

// ContainsArray implements Storage.
func (m *Memory) ContainsArray(e Entity, elem reflect.Type) bool {
	_, ok := m.arrays[e][elem]
	return ok
}

// Array implements Storage. The returned slice aliases the stored array.
func (m *Memory) Array(e Entity, elem reflect.Type) (any, bool) {
	v, ok := m.arrays[e][elem]
	if !ok {
		return nil, false
	}
	return v.Interface(), true
}

// CreateArray implements Storage. An existing array is replaced.
func (m *Memory) CreateArray(e Entity, elem reflect.Type, n int) {
	arrays := m.arrays[e]
	if arrays == nil {
		arrays = make(map[reflect.Type]reflect.Value)
		m.arrays[e] = arrays
	}
	if _, ok := m.components[e]; !ok {
		m.components[e] = make(map[reflect.Type]any)
	}
	arrays[elem] = reflect.MakeSlice(reflect.SliceOf(elem), n, n)
}

// ResizeArray implements Storage. It panics if the array does not exist.
func (m *Memory) ResizeArray(e Entity, elem reflect.Type, n int) {
	old, ok := m.arrays[e][elem]
	if !ok {
		panic(fmt.Sprintf("store: resize of missing %s array on entity %d", elem, e))
	}
	resized := reflect.MakeSlice(old.Type(), n, n)
	reflect.Copy(resized, old)
	m.arrays[e][elem] = resized
}

// SetArrayElements implements Storage. It panics on a missing array or a
// length mismatch.
func (m *Memory) SetArrayElements(e Entity, elem reflect.Type, elems any) {
	dst, ok := m.arrays[e][elem]
	if !ok {
		panic(fmt.Sprintf("store: set elements of missing %s array on entity %d", elem, e))
	}
	src := reflect.ValueOf(elems)
	if src.Len() != dst.Len() {
		panic(fmt.Sprintf("store: %d elements into %s array of length %d", src.Len(), elem, dst.Len()))
	}
	reflect.Copy(dst, src)
}
