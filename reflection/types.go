// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package reflection

import (
	"strconv"

	"github.com/gogpu/spvreflect/shader"
	"github.com/gogpu/spvreflect/spirv"
)

// StructType is a resolved OpTypeStruct.
type StructType struct {
	ID uint32

	// Name is the OpName of the struct, or "struct_<id>" without one.
	Name string

	// Members holds the member type IDs in declaration order.
	Members []uint32
}

// TypeResolver maps SPIR-V type IDs to type descriptors.
type TypeResolver struct {
	mod   *spirv.Module
	types *shader.TypeTable
}

// NewTypeResolver creates a resolver over mod using the given table.
func NewTypeResolver(mod *spirv.Module, types *shader.TypeTable) *TypeResolver {
	return &TypeResolver{mod: mod, types: types}
}

// Resolve returns the descriptor of a scalar, vector, or matrix type.
func (r *TypeResolver) Resolve(id uint32) (shader.TypeDescriptor, error) {
	inst, err := r.typeInst(id)
	if err != nil {
		return shader.TypeDescriptor{}, err
	}

	switch inst.Opcode {
	case spirv.OpTypeBool, spirv.OpTypeInt, spirv.OpTypeFloat:
		kind, err := r.scalarKind(inst)
		if err != nil {
			return shader.TypeDescriptor{}, err
		}
		return r.lookup(id, kind, 1)

	case spirv.OpTypeVector:
		component, err := r.typeInst(inst.Word(1))
		if err != nil {
			return shader.TypeDescriptor{}, err
		}
		kind, err := r.scalarKind(component)
		if err != nil {
			return shader.TypeDescriptor{}, err
		}
		return r.lookup(id, kind, inst.Word(2))

	case spirv.OpTypeMatrix:
		column, err := r.Resolve(inst.Word(1))
		if err != nil {
			return shader.TypeDescriptor{}, err
		}
		if column.IsMatrix() {
			return shader.TypeDescriptor{}, NewError(ErrUnsupportedType, id, "matrix column is itself a matrix")
		}
		desc, err := r.types.LookupMatrix(column.Kind, column.Components, inst.Word(2))
		if err != nil {
			return shader.TypeDescriptor{}, wrapError(ErrUnsupportedType, id, err, "matrix")
		}
		return desc, nil
	}

	return shader.TypeDescriptor{}, NewError(ErrUnsupportedType, id, "%s is not a scalar, vector, or matrix", inst.Opcode)
}

// Struct returns the member list of a struct type.
func (r *TypeResolver) Struct(id uint32) (StructType, error) {
	inst, err := r.typeInst(id)
	if err != nil {
		return StructType{}, err
	}
	if inst.Opcode != spirv.OpTypeStruct {
		return StructType{}, NewError(ErrUnsupportedType, id, "%s is not a struct", inst.Opcode)
	}
	name := r.mod.Name(id)
	if name == "" {
		name = "struct_" + strconv.FormatUint(uint64(id), 10)
	}
	return StructType{
		ID:      id,
		Name:    name,
		Members: inst.Operands[1:],
	}, nil
}

// IsStruct reports whether id is an OpTypeStruct.
func (r *TypeResolver) IsStruct(id uint32) bool {
	return r.is(id, spirv.OpTypeStruct)
}

// IsSampledImage reports whether id is an OpTypeSampledImage.
func (r *TypeResolver) IsSampledImage(id uint32) bool {
	return r.is(id, spirv.OpTypeSampledImage)
}

// Pointee returns the storage class and pointee type of a pointer type.
func (r *TypeResolver) Pointee(id uint32) (spirv.StorageClass, uint32, error) {
	inst, err := r.typeInst(id)
	if err != nil {
		return 0, 0, err
	}
	if inst.Opcode != spirv.OpTypePointer {
		return 0, 0, NewError(ErrInvalidModule, id, "%s is not a pointer type", inst.Opcode)
	}
	return spirv.StorageClass(inst.Word(1)), inst.Word(2), nil
}

func (r *TypeResolver) is(id uint32, op spirv.OpCode) bool {
	inst, ok := r.mod.Lookup(id)
	return ok && inst.Opcode == op
}

func (r *TypeResolver) typeInst(id uint32) (*spirv.Instruction, error) {
	inst, ok := r.mod.Lookup(id)
	if !ok {
		return nil, NewError(ErrInvalidModule, id, "undefined type")
	}
	return inst, nil
}

func (r *TypeResolver) lookup(id uint32, kind shader.ScalarKind, components uint32) (shader.TypeDescriptor, error) {
	desc, err := r.types.Lookup(kind, components)
	if err != nil {
		return shader.TypeDescriptor{}, wrapError(ErrUnsupportedType, id, err, "vector")
	}
	return desc, nil
}

func (r *TypeResolver) scalarKind(inst *spirv.Instruction) (shader.ScalarKind, error) {
	id, _ := inst.ResultID()
	switch inst.Opcode {
	case spirv.OpTypeBool:
		return shader.KindBool, nil

	case spirv.OpTypeFloat:
		switch inst.Word(1) {
		case 16:
			return shader.KindFloat16, nil
		case 32:
			return shader.KindFloat32, nil
		case 64:
			return shader.KindFloat64, nil
		}
		return 0, NewError(ErrUnsupportedType, id, "float width %d", inst.Word(1))

	case spirv.OpTypeInt:
		signed := inst.Word(2) != 0
		var kinds [2]shader.ScalarKind
		switch inst.Word(1) {
		case 8:
			kinds = [2]shader.ScalarKind{shader.KindUint8, shader.KindInt8}
		case 16:
			kinds = [2]shader.ScalarKind{shader.KindUint16, shader.KindInt16}
		case 32:
			kinds = [2]shader.ScalarKind{shader.KindUint32, shader.KindInt32}
		case 64:
			kinds = [2]shader.ScalarKind{shader.KindUint64, shader.KindInt64}
		default:
			return 0, NewError(ErrUnsupportedType, id, "int width %d", inst.Word(1))
		}
		if signed {
			return kinds[1], nil
		}
		return kinds[0], nil
	}
	return 0, NewError(ErrUnsupportedType, id, "%s is not a scalar", inst.Opcode)
}
