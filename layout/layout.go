// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package layout converts reflected shader metadata into the layout
// descriptors renderers build pipelines from: WebGPU-style bind group,
// vertex buffer and push constant layouts (github.com/gogpu/gputypes) and
// gio shader sources (gioui.org/shader).
package layout

import (
	"fmt"
	"slices"

	"github.com/gogpu/gputypes"
	"go.uber.org/multierr"

	"github.com/gogpu/spvreflect/shader"
)

// Visibility returns the gputypes stage flag for stage. WebGPU has no
// geometry stage.
func Visibility(stage shader.Stage) (gputypes.ShaderStages, error) {
	switch stage {
	case shader.StageVertex:
		return gputypes.ShaderStageVertex, nil
	case shader.StageFragment:
		return gputypes.ShaderStageFragment, nil
	case shader.StageCompute:
		return gputypes.ShaderStageCompute, nil
	default:
		return gputypes.ShaderStageNone, fmt.Errorf("layout: no WebGPU stage for %s shaders", stage)
	}
}

// BindGroupLayouts returns one bind group layout per descriptor set used
// by md, indexed by set number. Sets below the highest used set that hold
// no resources get an empty layout. Entries are sorted by binding.
//
// Sampled images become texture entries (float, 2D); WebGPU has no
// combined image samplers, so the matching sampler is left to the caller.
func BindGroupLayouts(md *shader.Metadata, visibility gputypes.ShaderStages) []gputypes.BindGroupLayoutDescriptor {
	var groups []gputypes.BindGroupLayoutDescriptor
	add := func(key shader.ResourceKey, entry gputypes.BindGroupLayoutEntry) {
		for uint32(len(groups)) <= key.Set {
			groups = append(groups, gputypes.BindGroupLayoutDescriptor{
				Label: fmt.Sprintf("set %d", len(groups)),
			})
		}
		entry.Binding = key.Binding
		entry.Visibility = visibility
		groups[key.Set].Entries = append(groups[key.Set].Entries, entry)
	}

	for _, u := range md.Uniforms {
		add(u.Key, gputypes.BindGroupLayoutEntry{
			Buffer: &gputypes.BufferBindingLayout{
				Type:           gputypes.BufferBindingTypeUniform,
				MinBindingSize: uint64(u.Size),
			},
		})
	}
	for _, sb := range md.StorageBuffers {
		typ := gputypes.BufferBindingTypeStorage
		if sb.Flags.ReadOnly() {
			typ = gputypes.BufferBindingTypeReadOnlyStorage
		}
		add(sb.Key, gputypes.BindGroupLayoutEntry{
			Buffer: &gputypes.BufferBindingLayout{
				Type:           typ,
				MinBindingSize: uint64(sb.Size),
			},
		})
	}
	for _, s := range md.Samplers {
		add(s.Key, gputypes.BindGroupLayoutEntry{
			Texture: &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeFloat,
				ViewDimension: gputypes.TextureViewDimension2D,
			},
		})
	}

	for i := range groups {
		sortEntries(groups[i].Entries)
	}
	return groups
}

func sortEntries(entries []gputypes.BindGroupLayoutEntry) {
	slices.SortFunc(entries, func(a, b gputypes.BindGroupLayoutEntry) int {
		return int(a.Binding) - int(b.Binding)
	})
}

// Merge combines the bind group layouts of several stages of one pipeline.
// Entries sharing a set and binding must describe the same resource; their
// visibilities are combined and the larger minimum binding size is kept.
// Every conflict is reported; the returned layouts keep the first stage's
// entry for conflicting bindings.
func Merge(stages ...[]gputypes.BindGroupLayoutDescriptor) ([]gputypes.BindGroupLayoutDescriptor, error) {
	var out []gputypes.BindGroupLayoutDescriptor
	var errs error
	for _, groups := range stages {
		for set, g := range groups {
			for len(out) <= set {
				out = append(out, gputypes.BindGroupLayoutDescriptor{Label: fmt.Sprintf("set %d", len(out))})
			}
			for _, e := range g.Entries {
				if err := mergeEntry(&out[set], e); err != nil {
					errs = multierr.Append(errs, fmt.Errorf("layout: set %d: %w", set, err))
				}
			}
		}
	}
	for i := range out {
		sortEntries(out[i].Entries)
	}
	return out, errs
}

func mergeEntry(g *gputypes.BindGroupLayoutDescriptor, e gputypes.BindGroupLayoutEntry) error {
	for i := range g.Entries {
		cur := &g.Entries[i]
		if cur.Binding != e.Binding {
			continue
		}
		if entryKind(*cur) != entryKind(e) {
			return fmt.Errorf("binding %d is a %s in one stage and a %s in another",
				e.Binding, entryKind(*cur), entryKind(e))
		}
		cur.Visibility |= e.Visibility
		if cur.Buffer != nil && e.Buffer.MinBindingSize > cur.Buffer.MinBindingSize {
			buf := *cur.Buffer
			buf.MinBindingSize = e.Buffer.MinBindingSize
			cur.Buffer = &buf
		}
		return nil
	}
	g.Entries = append(g.Entries, e)
	return nil
}

func entryKind(e gputypes.BindGroupLayoutEntry) string {
	switch {
	case e.Buffer != nil:
		switch e.Buffer.Type {
		case gputypes.BufferBindingTypeUniform:
			return "uniform buffer"
		case gputypes.BufferBindingTypeReadOnlyStorage:
			return "read-only storage buffer"
		default:
			return "storage buffer"
		}
	case e.Texture != nil:
		return "texture"
	case e.Sampler != nil:
		return "sampler"
	case e.StorageTexture != nil:
		return "storage texture"
	default:
		return "empty entry"
	}
}

// PushConstantRanges returns the push constant range of md for the given
// stages: one range from the lowest active offset to the end of the last
// active member. It returns nil when no push constant is active.
func PushConstantRanges(md *shader.Metadata, stages gputypes.ShaderStages) []gputypes.PushConstantRange {
	if len(md.PushConstants) == 0 {
		return nil
	}
	start, end := md.PushConstants[0].Offset, uint32(0)
	for _, pc := range md.PushConstants {
		start = min(start, pc.Offset)
		end = max(end, pc.Offset+pc.Size)
	}
	return []gputypes.PushConstantRange{{Stages: stages, Start: start, End: end}}
}
