// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package store defines the entity storage capabilities the import
// pipeline needs, an in-memory implementation, and Batch, which defers
// writes until a processing pass has finished reading.
package store

import "reflect"

// Entity identifies a row in entity storage.
type Entity uint64

// Storage is the capability set the pipeline uses on shared entity
// storage. Components are keyed by their dynamic type, arrays by their
// element type; an entity holds at most one of each.
type Storage interface {
	// Component returns the component of type t on e.
	Component(e Entity, t reflect.Type) (any, bool)

	// SetComponent sets or creates the component of value's type on e.
	SetComponent(e Entity, value any)

	// ContainsArray reports whether e has an array of elem.
	ContainsArray(e Entity, elem reflect.Type) bool

	// Array returns the array of elem on e as a slice value ([]elem).
	Array(e Entity, elem reflect.Type) (any, bool)

	// CreateArray creates a zeroed array of n elements on e.
	CreateArray(e Entity, elem reflect.Type, n int)

	// ResizeArray resizes the existing array of elem on e to n elements.
	ResizeArray(e Entity, elem reflect.Type, n int)

	// SetArrayElements copies elems, a []elem, into the array of elem on
	// e. The array must already hold len(elems) elements.
	SetArrayElements(e Entity, elem reflect.Type, elems any)
}

// Get returns the T component of e.
func Get[T any](s Storage, e Entity) (T, bool) {
	v, ok := s.Component(e, typeOf[T]())
	if !ok {
		var zero T
		return zero, false
	}
	return v.(T), true
}

// Set sets or creates the T component of e immediately.
func Set[T any](s Storage, e Entity, v T) {
	s.SetComponent(e, v)
}

// Array returns the []T array of e.
func Array[T any](s Storage, e Entity) ([]T, bool) {
	v, ok := s.Array(e, typeOf[T]())
	if !ok {
		return nil, false
	}
	return v.([]T), true
}

// ContainsArray reports whether e has a []T array.
func ContainsArray[T any](s Storage, e Entity) bool {
	return s.ContainsArray(e, typeOf[T]())
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}
