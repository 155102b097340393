// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package store

type pending struct {
	entity Entity
	apply  func(Storage)
}

// Batch is an ordered list of writes to apply to a Storage later. It lets
// a pass read storage freely and commit all of its writes in one step,
// in the order they were recorded.
type Batch struct {
	ops     []pending
	touched []Entity
	seen    map[Entity]bool
}

// NewBatch creates an empty batch.
func NewBatch() *Batch {
	return &Batch{seen: make(map[Entity]bool)}
}

func (b *Batch) push(e Entity, apply func(Storage)) {
	b.ops = append(b.ops, pending{entity: e, apply: apply})
	if !b.seen[e] {
		b.seen[e] = true
		b.touched = append(b.touched, e)
	}
}

// SetComponent records setting the T component of e to v.
func SetComponent[T any](b *Batch, e Entity, v T) {
	b.push(e, func(s Storage) {
		s.SetComponent(e, v)
	})
}

// ReplaceArray records replacing the []T array of e with a copy of elems.
// The array is created when absent and resized when present.
func ReplaceArray[T any](b *Batch, e Entity, elems []T) {
	snapshot := append([]T(nil), elems...)
	elem := typeOf[T]()
	b.push(e, func(s Storage) {
		if s.ContainsArray(e, elem) {
			s.ResizeArray(e, elem, len(snapshot))
		} else {
			s.CreateArray(e, elem, len(snapshot))
		}
		if snapshot == nil {
			snapshot = []T{}
		}
		s.SetArrayElements(e, elem, snapshot)
	})
}

// Len returns the number of recorded writes.
func (b *Batch) Len() int {
	return len(b.ops)
}

// Entities returns the entities written to, in order of first write.
func (b *Batch) Entities() []Entity {
	return b.touched
}

// Touches reports whether any recorded write targets e.
func (b *Batch) Touches(e Entity) bool {
	return b.seen[e]
}

// Apply performs every recorded write on s in order, then clears the batch.
func (b *Batch) Apply(s Storage) {
	for _, op := range b.ops {
		op.apply(s)
	}
	b.Clear()
}

// Clear discards the recorded writes without applying them.
func (b *Batch) Clear() {
	clear(b.ops)
	b.ops = b.ops[:0]
	b.touched = b.touched[:0]
	clear(b.seen)
}
