// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package shader

import "strconv"

// ScalarKind is the numeric kind of a scalar, vector, or matrix component.
type ScalarKind uint8

const (
	KindFloat16 ScalarKind = iota
	KindFloat32
	KindFloat64
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindBool

	kindCount
)

// Size returns the byte size of one component. Booleans occupy 4 bytes,
// as in interface blocks.
func (k ScalarKind) Size() uint32 {
	switch k {
	case KindInt8, KindUint8:
		return 1
	case KindFloat16, KindInt16, KindUint16:
		return 2
	case KindFloat32, KindInt32, KindUint32, KindBool:
		return 4
	case KindFloat64, KindInt64, KindUint64:
		return 8
	}
	return 0
}

// IsFloat reports whether k is a floating-point kind.
func (k ScalarKind) IsFloat() bool {
	return k == KindFloat16 || k == KindFloat32 || k == KindFloat64
}

// IsSigned reports whether k is a signed integer kind.
func (k ScalarKind) IsSigned() bool {
	return k >= KindInt8 && k <= KindInt64
}

// IsUnsigned reports whether k is an unsigned integer kind.
func (k ScalarKind) IsUnsigned() bool {
	return k >= KindUint8 && k <= KindUint64
}

var kindNames = [kindCount]struct{ scalar, vector, matrix string }{
	KindFloat16: {"float16_t", "f16vec", "f16mat"},
	KindFloat32: {"float", "vec", "mat"},
	KindFloat64: {"double", "dvec", "dmat"},
	KindInt8:    {"int8_t", "i8vec", ""},
	KindInt16:   {"int16_t", "i16vec", ""},
	KindInt32:   {"int", "ivec", ""},
	KindInt64:   {"int64_t", "i64vec", ""},
	KindUint8:   {"uint8_t", "u8vec", ""},
	KindUint16:  {"uint16_t", "u16vec", ""},
	KindUint32:  {"uint", "uvec", ""},
	KindUint64:  {"uint64_t", "u64vec", ""},
	KindBool:    {"bool", "bvec", ""},
}

// String returns the GLSL scalar spelling of k.
func (k ScalarKind) String() string {
	if k >= kindCount {
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k].scalar
}

// TypeDescriptor is the semantic identity of a scalar, vector, or matrix
// type. Components is the vector width (rows for a matrix), Columns is 1
// for scalars and vectors.
type TypeDescriptor struct {
	Kind       ScalarKind
	Components uint32
	Columns    uint32
}

// NewTypeDescriptor returns the scalar or vector descriptor for kind with
// the given component count.
func NewTypeDescriptor(kind ScalarKind, components uint32) (TypeDescriptor, error) {
	if kind >= kindCount {
		return TypeDescriptor{}, NewError(ErrUnsupportedType, "unknown scalar kind %d", uint8(kind))
	}
	if components < 1 || components > 4 {
		return TypeDescriptor{}, NewError(ErrUnsupportedType, "%s with %d components", kind, components)
	}
	return TypeDescriptor{Kind: kind, Components: components, Columns: 1}, nil
}

// IsMatrix reports whether t has more than one column.
func (t TypeDescriptor) IsMatrix() bool {
	return t.Columns > 1
}

// Size returns the unpadded byte size of t.
func (t TypeDescriptor) Size() uint32 {
	return t.Kind.Size() * t.Components * t.Columns
}

// Name returns the GLSL spelling of t, e.g. "vec3", "ivec2", "mat4", "mat2x3".
func (t TypeDescriptor) Name() string {
	if t.Kind >= kindCount {
		return t.Kind.String()
	}
	names := kindNames[t.Kind]
	switch {
	case t.Columns > 1:
		cols := strconv.Itoa(int(t.Columns))
		if t.Columns == t.Components {
			return names.matrix + cols
		}
		return names.matrix + cols + "x" + strconv.Itoa(int(t.Components))
	case t.Components > 1:
		return names.vector + strconv.Itoa(int(t.Components))
	}
	return names.scalar
}

// String implements fmt.Stringer.
func (t TypeDescriptor) String() string {
	return t.Name()
}

type typeKey struct {
	kind          ScalarKind
	rows, columns uint32
}

// TypeTable holds every type descriptor the reflector can produce. Build
// it once with NewTypeTable and share it between reflectors; it is never
// modified after construction.
type TypeTable struct {
	types  []TypeDescriptor
	byKey  map[typeKey]int
	byName map[string]int
}

// NewTypeTable builds the table of scalar, vector (1 to 4 components), and
// floating-point matrix (2 to 4 columns and rows) descriptors.
func NewTypeTable() *TypeTable {
	t := &TypeTable{
		byKey:  make(map[typeKey]int, 64),
		byName: make(map[string]int, 64),
	}
	for kind := ScalarKind(0); kind < kindCount; kind++ {
		for n := uint32(1); n <= 4; n++ {
			t.add(TypeDescriptor{Kind: kind, Components: n, Columns: 1})
		}
		if !kind.IsFloat() {
			continue
		}
		for cols := uint32(2); cols <= 4; cols++ {
			for rows := uint32(2); rows <= 4; rows++ {
				t.add(TypeDescriptor{Kind: kind, Components: rows, Columns: cols})
			}
		}
	}
	return t
}

func (t *TypeTable) add(desc TypeDescriptor) {
	idx := len(t.types)
	t.types = append(t.types, desc)
	t.byKey[typeKey{desc.Kind, desc.Components, desc.Columns}] = idx
	t.byName[desc.Name()] = idx
}

// Lookup returns the scalar or vector descriptor for (kind, components).
func (t *TypeTable) Lookup(kind ScalarKind, components uint32) (TypeDescriptor, error) {
	if idx, ok := t.byKey[typeKey{kind, components, 1}]; ok {
		return t.types[idx], nil
	}
	return TypeDescriptor{}, NewError(ErrUnsupportedType, "%s with %d components", kind, components)
}

// LookupMatrix returns the matrix descriptor with the given column height
// and column count.
func (t *TypeTable) LookupMatrix(kind ScalarKind, rows, columns uint32) (TypeDescriptor, error) {
	if columns >= 2 {
		if idx, ok := t.byKey[typeKey{kind, rows, columns}]; ok {
			return t.types[idx], nil
		}
	}
	return TypeDescriptor{}, NewError(ErrUnsupportedType, "%s matrix %dx%d", kind, columns, rows)
}

// ByName returns the descriptor spelled name ("vec3", "mat4", "uint").
func (t *TypeTable) ByName(name string) (TypeDescriptor, bool) {
	idx, ok := t.byName[name]
	if !ok {
		return TypeDescriptor{}, false
	}
	return t.types[idx], true
}

// Count returns the number of descriptors in the table.
func (t *TypeTable) Count() int {
	return len(t.types)
}
