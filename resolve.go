// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package elf2a2l

// maxTypedefChain bounds the typedef/qualifier collapse. Real chains
// are short (typedef of const of volatile of base); the bound only
// guards against degenerate self-referential debug info.
const maxTypedefChain = 8

// Resolve runs the multi-pass reference fix-up over the repository
// built by ParseDebugInfo. The stages are ordered: member backfill
// first, then typedef/qualifier collapse, then array element inlining,
// so that arrays of typedef'd primitives end up carrying the
// primitive's encoding.
func (f *File) Resolve() {
	f.resolveMemberTypes()
	f.resolveTypeRefs()
	f.resolveArrayElems()
}

// resolveMemberTypes backfills each member's cached type name, and its
// size when the member DIE carried none.
func (f *File) resolveMemberTypes() {
	for _, td := range f.Types {
		if td.Kind != KindStruct && td.Kind != KindUnion {
			continue
		}
		for i := range td.Members {
			m := &td.Members[i]
			if m.TypeOffset == 0 {
				continue
			}
			resolved := f.Types.Get(m.TypeOffset)
			if resolved == nil {
				continue
			}
			m.TypeName = resolved.Name
			if m.TypeSize == 0 {
				m.TypeSize = resolved.Size
			}
		}
	}
}

// resolveTypeRefs collapses typedef and qualifier descriptors onto
// their targets, copying everything except the name and offset. The
// chain walk is bounded; debug info that loops through itself is left
// as an empty typedef.
func (f *File) resolveTypeRefs() {
	for from, to := range f.typeRefs {
		target := f.chaseTypeRef(to)
		if target == nil {
			continue
		}
		td := f.Types.Get(from)
		if td == nil {
			continue
		}
		td.Size = target.Size
		td.Encoding = target.Encoding
		td.Kind = target.Kind
		td.Members = target.Members
		td.Variants = target.Variants
		td.Dims = target.Dims
		td.Elem = target.Elem
	}
}

// chaseTypeRef follows a typedef chain to its first concrete
// descriptor.
func (f *File) chaseTypeRef(offset uint64) *TypeDescriptor {
	for i := 0; i < maxTypedefChain; i++ {
		if offset == 0 {
			return nil
		}
		td := f.Types.Get(offset)
		if td == nil {
			return nil
		}
		if td.Kind != KindTypedef {
			return td
		}
		next, ok := f.typeRefs[offset]
		if !ok {
			return td
		}
		offset = next
	}
	return nil
}

// resolveArrayElems attaches each array's element descriptor and
// inherits the element's scalar encoding onto the array.
func (f *File) resolveArrayElems() {
	for arrayOffset, elemOffset := range f.arrayElems {
		td := f.Types.Get(arrayOffset)
		if td == nil || td.Kind != KindArray {
			continue
		}
		elem := f.Types.Get(elemOffset)
		if elem == nil {
			continue
		}
		td.Elem = elem
		td.Encoding = elem.Encoding
	}
}
