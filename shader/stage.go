// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package shader

import (
	"github.com/gogpu/spvreflect/internal/debug"
)

// Stage identifies a programmable pipeline stage.
type Stage uint8

const (
	StageVertex Stage = iota
	StageFragment
	StageCompute
	StageGeometry

	stageCount
)

// String returns the lower-case stage name.
func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	case StageCompute:
		return "compute"
	case StageGeometry:
		return "geometry"
	default:
		return "unknown"
	}
}

// Extension returns the conventional GLSL file extension for s, which is
// also the stage name glslangValidator expects.
func (s Stage) Extension() string {
	switch s {
	case StageVertex:
		return "vert"
	case StageFragment:
		return "frag"
	case StageCompute:
		return "comp"
	case StageGeometry:
		return "geom"
	default:
		return ""
	}
}

// Valid reports whether s is one of the defined stages.
func (s Stage) Valid() bool {
	return s < stageCount
}

// Validate panics on an undefined stage. The check only exists in debug
// builds; release builds trust the caller.
func (s Stage) Validate() {
	debug.Assert(s.Valid(), "shader: invalid stage %d", uint8(s))
}

// ParseStage converts a stage name, or a common shader file extension
// (vert, frag, comp, geom), to a Stage.
func ParseStage(name string) (Stage, bool) {
	switch name {
	case "vertex", "vert", "vs":
		return StageVertex, true
	case "fragment", "frag", "fs":
		return StageFragment, true
	case "compute", "comp", "cs":
		return StageCompute, true
	case "geometry", "geom", "gs":
		return StageGeometry, true
	}
	return 0, false
}
