// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package elf2a2l

import (
	"fmt"
	"strings"
)

// ExpandStats counts the places where the expander deliberately drops
// data. Both caps are catalogue-bloat policy, not safety guards, so
// their triggers are surfaced to callers instead of raised as errors.
type ExpandStats struct {

	// DepthTruncated counts branches cut by MaxNestingDepth.
	DepthTruncated int `json:"depth_truncated"`

	// ArraysSuppressed counts arrays left unexpanded because their
	// total element count exceeds MaxArrayExpand.
	ArraysSuppressed int `json:"arrays_suppressed"`
}

// Expand flattens every variable into catalogue entries by recursive
// descent through its resolved type. Entry order is the emission order
// of the walk and is deterministic for a given image.
//
// Union members all sit at the aggregate's base address, so a union
// produces deliberately overlapping entries; that is the documented
// behavior, not an error.
func (f *File) Expand() {
	f.Catalogue = NewCatalogue()
	f.ExpandStats = ExpandStats{}

	for i := range f.Variables {
		f.expandVariable(&f.Variables[i])
	}

	if f.ExpandStats.DepthTruncated > 0 || f.ExpandStats.ArraysSuppressed > 0 {
		f.logger.Infof("expansion guards triggered: %d deep branches, %d wide arrays",
			f.ExpandStats.DepthTruncated, f.ExpandStats.ArraysSuppressed)
	}
}

func (f *File) expandVariable(v *Variable) {
	if v.Type == nil {
		f.Catalogue.Add(CatalogueEntry{
			FullName: v.Name,
			Address:  v.Address,
			Size:     v.Size,
			A2lType:  ScalarTag(v.Size, EncodingUnsigned),
			TypeName: v.TypeName,
		})
		return
	}

	visited := make(map[uint64]bool)
	f.expandRecursive(v.Name, v.Address, v.Type, 0, visited, nil)
}

// expandRecursive emits the entry for the current node and descends
// into aggregate members and array elements. The visited set holds the
// repository offsets of the ancestors on the current path; synthetic
// descriptors carry offset 0 and bypass the cycle guard because each
// one is unique to its site.
func (f *File) expandRecursive(prefix string, addr uint64, td *TypeDescriptor,
	depth int, visited map[uint64]bool, indices []uint64) {

	if depth > f.opts.MaxNestingDepth {
		f.ExpandStats.DepthTruncated++
		return
	}

	if td.Offset > 0 && visited[td.Offset] {
		return
	}
	visited[td.Offset] = true
	defer delete(visited, td.Offset)

	f.Catalogue.Add(CatalogueEntry{
		FullName:   prefix,
		Address:    addr,
		Size:       td.Size,
		A2lType:    ScalarTag(td.Size, td.Encoding),
		TypeName:   td.Name,
		ArrayIndex: indices,
	})

	switch td.Kind {

	case KindStruct, KindUnion:
		for i := range td.Members {
			m := &td.Members[i]
			childName := prefix + "." + m.Name
			childAddr := addr + m.Offset

			if m.IsBitfield() {
				containerBits := m.TypeSize * 8
				bitOffset := m.EffectiveBitOffset(f.opts.BitOrder, containerBits)
				bitSize := *m.BitSize
				f.Catalogue.Add(CatalogueEntry{
					FullName:  childName,
					Address:   childAddr,
					Size:      m.TypeSize,
					A2lType:   ScalarTag(m.TypeSize, td.Encoding),
					TypeName:  m.TypeName,
					BitOffset: &bitOffset,
					BitSize:   &bitSize,
				})
				continue
			}

			if m.TypeOffset == 0 {
				continue
			}
			child := f.Types.Get(m.TypeOffset)
			if child == nil {
				continue
			}
			f.expandRecursive(childName, childAddr, child, depth+1, visited, nil)
		}

	case KindArray:
		dims, elem, elemSize := flattenArrayChain(td)

		total := uint64(1)
		for _, d := range dims {
			total *= d
		}
		if total == 0 || total > f.opts.MaxArrayExpand {
			if total > f.opts.MaxArrayExpand {
				f.ExpandStats.ArraysSuppressed++
				f.logger.Debugf("array %s left unexpanded: %d elements", prefix, total)
			}
			return
		}

		if elem != nil {
			f.walkArray(prefix, addr, elem, dims, elemSize, depth, visited, indices)
			return
		}

		// No element descriptor survived resolution; emit flat scalar
		// cells with the flattened geometry.
		for i := uint64(0); i < total; i++ {
			idx := flatToMultiIndex(i, dims)
			full := append(append([]uint64{}, indices...), idx...)
			f.Catalogue.Add(CatalogueEntry{
				FullName:   arrayElementName(prefix, idx),
				Address:    addr + i*elemSize,
				Size:       elemSize,
				A2lType:    ScalarTag(elemSize, td.Encoding),
				TypeName:   td.Name,
				ArrayIndex: full,
			})
		}
	}
}

// walkArray descends one dimension per call, outermost first, with
// stride = product(remaining dims) * element size. When every
// dimension is consumed, the element itself is expanded with the
// accumulated index vector.
func (f *File) walkArray(prefix string, addr uint64, elem *TypeDescriptor,
	dims []uint64, elemSize uint64, depth int, visited map[uint64]bool,
	indices []uint64) {

	if len(dims) == 0 {
		e := elem
		if e.Size == 0 {
			fixed := *e
			fixed.Size = elemSize
			e = &fixed
		}
		f.expandRecursive(prefix, addr, e, depth, visited, indices)
		return
	}

	stride := elemSize
	for _, d := range dims[1:] {
		stride *= d
	}

	for i := uint64(0); i < dims[0]; i++ {
		name := fmt.Sprintf("%s._%d_", prefix, i)
		full := append(append([]uint64{}, indices...), i)
		f.walkArray(name, addr+i*stride, elem, dims[1:], elemSize, depth,
			visited, full)
	}
}

// flattenArrayChain collapses an array-of-array descriptor chain into
// one dimension vector (outermost first, length-1 dimensions dropped)
// plus the final element descriptor and its byte size. The element
// size is recovered from the deepest descriptor with a positive size,
// divided by the product of its own dimensions.
func flattenArrayChain(td *TypeDescriptor) ([]uint64, *TypeDescriptor, uint64) {
	var dims []uint64
	var elemSize uint64

	// Length-1 dimensions add nothing to the walk and are dropped;
	// zero dimensions are kept so the caller sees an empty array.
	appendDims := func(t *TypeDescriptor) {
		for _, d := range t.Dims {
			if d != 1 {
				dims = append(dims, d)
			}
		}
	}

	sizeOf := func(t *TypeDescriptor) uint64 {
		if t.Size == 0 {
			return 0
		}
		total := uint64(1)
		for _, d := range t.Dims {
			total *= d
		}
		if total == 0 {
			return 0
		}
		return t.Size / total
	}

	appendDims(td)
	if s := sizeOf(td); s > 0 {
		elemSize = s
	}

	elem := td.Elem
	for elem != nil && elem.Kind == KindArray {
		appendDims(elem)
		if s := sizeOf(elem); s > 0 {
			elemSize = s
		}
		elem = elem.Elem
	}

	if elem != nil && elem.Size > 0 {
		elemSize = elem.Size
	}

	return dims, elem, elemSize
}

// flatToMultiIndex converts a flat element index into per-dimension
// indices, outermost first.
func flatToMultiIndex(flat uint64, dims []uint64) []uint64 {
	if len(dims) == 0 {
		return nil
	}
	idx := make([]uint64, len(dims))
	remaining := flat
	for i := len(dims) - 1; i >= 0; i-- {
		if dims[i] == 0 {
			continue
		}
		idx[i] = remaining % dims[i]
		remaining /= dims[i]
	}
	return idx
}

// arrayElementName renders the literal `._<i>_` index tokens in
// dimension order.
func arrayElementName(prefix string, indices []uint64) string {
	if len(indices) == 0 {
		return prefix
	}
	var b strings.Builder
	b.WriteString(prefix)
	for _, i := range indices {
		fmt.Fprintf(&b, "._%d_", i)
	}
	return b.String()
}
