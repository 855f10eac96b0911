// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package elf2a2l

import (
	"testing"
)

// expandFixture builds a File around a hand-made repository and
// variable list, then runs the expander.
func expandFixture(t *testing.T, types TypeRepository, variables []Variable,
	opts *Options) *File {
	t.Helper()
	f, err := NewBytes(nil, opts)
	if err != nil {
		t.Fatalf("NewBytes failed: %v", err)
	}
	f.Types = types
	f.Variables = variables
	f.Expand()
	return f
}

func u64p(v uint64) *uint64 { return &v }

func primitive(offset uint64, name string, size uint64, enc TypeEncoding) *TypeDescriptor {
	return &TypeDescriptor{
		Name: name, Size: size, Encoding: enc,
		Kind: KindPrimitive, Offset: offset,
	}
}

func TestExpandFlatStruct(t *testing.T) {
	types := TypeRepository{
		1: primitive(1, "uint8_t", 1, EncodingUnsigned),
		2: primitive(2, "uint16_t", 2, EncodingUnsigned),
		3: primitive(3, "uint32_t", 4, EncodingUnsigned),
		10: {
			Name: "config", Size: 8, Kind: KindStruct, Offset: 10,
			Members: []StructMember{
				{Name: "a", Offset: 0, TypeOffset: 1, TypeName: "uint8_t", TypeSize: 1},
				{Name: "b", Offset: 2, TypeOffset: 2, TypeName: "uint16_t", TypeSize: 2},
				{Name: "c", Offset: 4, TypeOffset: 3, TypeName: "uint32_t", TypeSize: 4},
			},
		},
	}
	variables := []Variable{
		{Name: "cfg", Address: 0x20000100, Size: 8, Type: types[10]},
	}

	f := expandFixture(t, types, variables, nil)

	want := []struct {
		name    string
		address uint64
		size    uint64
		a2lType string
	}{
		{"cfg", 0x20000100, 8, TagUInt64},
		{"cfg.a", 0x20000100, 1, TagUByte},
		{"cfg.b", 0x20000102, 2, TagUWord},
		{"cfg.c", 0x20000104, 4, TagULong},
	}

	if f.Catalogue.Len() != len(want) {
		t.Fatalf("catalogue has %d entries, want %d", f.Catalogue.Len(),
			len(want))
	}
	for i, w := range want {
		e := f.Catalogue.Entries[i]
		if e.FullName != w.name || e.Address != w.address ||
			e.Size != w.size || e.A2lType != w.a2lType {
			t.Errorf("entry %d = (%s, 0x%X, %d, %s), want (%s, 0x%X, %d, %s)",
				i, e.FullName, e.Address, e.Size, e.A2lType,
				w.name, w.address, w.size, w.a2lType)
		}
	}

	// Containment: every entry stays inside the root object.
	root := variables[0]
	for _, e := range f.Catalogue.Entries {
		if e.Address < root.Address ||
			e.Address+e.Size > root.Address+root.Size {
			t.Errorf("entry %s at 0x%X+%d escapes the root object",
				e.FullName, e.Address, e.Size)
		}
	}
}

func TestExpandBitfields(t *testing.T) {
	types := TypeRepository{
		3: primitive(3, "uint32_t", 4, EncodingUnsigned),
		20: {
			Name: "flags_t", Size: 8, Kind: KindStruct, Offset: 20,
			Members: []StructMember{
				{Name: "x", Offset: 0, TypeOffset: 3, TypeName: "uint32_t", TypeSize: 4},
				{Name: "r", Offset: 4, TypeOffset: 3, TypeName: "uint32_t",
					TypeSize: 4, BitOffset: u64p(0), BitSize: u64p(3)},
				{Name: "g", Offset: 4, TypeOffset: 3, TypeName: "uint32_t",
					TypeSize: 4, BitOffset: u64p(3), BitSize: u64p(5)},
			},
		},
	}
	variables := []Variable{
		{Name: "flags", Address: 0x20000200, Size: 8, Type: types[20]},
	}

	f := expandFixture(t, types, variables, nil)

	r, ok := f.Catalogue.Get("flags.r")
	if !ok {
		t.Fatal("flags.r missing")
	}
	if r.Size != 4 || *r.BitOffset != 0 || *r.BitSize != 3 {
		t.Errorf("flags.r = %+v", r)
	}
	if r.BitMask() != 0x7 {
		t.Errorf("flags.r mask = 0x%X, want 0x7", r.BitMask())
	}

	g, ok := f.Catalogue.Get("flags.g")
	if !ok {
		t.Fatal("flags.g missing")
	}
	if g.BitMask() != 0xF8 {
		t.Errorf("flags.g mask = 0x%X, want 0xF8", g.BitMask())
	}

	// Property: the bitfield fits its container.
	for _, e := range []*CatalogueEntry{r, g} {
		if *e.BitOffset+*e.BitSize > 8*e.Size {
			t.Errorf("%s: bit range exceeds container", e.FullName)
		}
	}
}

func TestExpandBitfieldLittleBitOrder(t *testing.T) {
	types := TypeRepository{
		3: primitive(3, "uint32_t", 4, EncodingUnsigned),
		20: {
			Name: "s", Size: 4, Kind: KindStruct, Offset: 20,
			Members: []StructMember{
				{Name: "hi", Offset: 0, TypeOffset: 3, TypeName: "uint32_t",
					TypeSize: 4, BitOffset: u64p(0), BitSize: u64p(3)},
			},
		},
	}
	variables := []Variable{
		{Name: "s", Address: 0x1000, Size: 4, Type: types[20]},
	}

	f := expandFixture(t, types, variables, &Options{BitOrder: LittleBitOrder})

	e, ok := f.Catalogue.Get("s.hi")
	if !ok {
		t.Fatal("s.hi missing")
	}
	// 32 - 0 - 3 = 29.
	if *e.BitOffset != 29 {
		t.Errorf("little-bit-order offset = %d, want 29", *e.BitOffset)
	}
}

func TestExpandArray2x3(t *testing.T) {
	elem := primitive(2, "uint16_t", 2, EncodingUnsigned)
	types := TypeRepository{
		2: elem,
		30: {
			Name: "array[2][3]", Size: 12, Kind: KindArray, Offset: 30,
			Encoding: EncodingUnsigned, Dims: []uint64{2, 3}, Elem: elem,
		},
	}
	variables := []Variable{
		{Name: "M", Address: 0x20000300, Size: 12, Type: types[30]},
	}

	f := expandFixture(t, types, variables, nil)

	// One root plus six leaves.
	if f.Catalogue.Len() != 7 {
		t.Fatalf("catalogue has %d entries, want 7", f.Catalogue.Len())
	}

	want := []struct {
		name    string
		address uint64
		index   []uint64
	}{
		{"M._0_._0_", 0x20000300, []uint64{0, 0}},
		{"M._0_._1_", 0x20000302, []uint64{0, 1}},
		{"M._0_._2_", 0x20000304, []uint64{0, 2}},
		{"M._1_._0_", 0x20000306, []uint64{1, 0}},
		{"M._1_._1_", 0x20000308, []uint64{1, 1}},
		{"M._1_._2_", 0x2000030A, []uint64{1, 2}},
	}
	for _, w := range want {
		e, ok := f.Catalogue.Get(w.name)
		if !ok {
			t.Errorf("entry %s missing", w.name)
			continue
		}
		if e.Address != w.address || e.Size != 2 || e.A2lType != TagUWord {
			t.Errorf("%s = (0x%X, %d, %s)", w.name, e.Address, e.Size, e.A2lType)
		}
		if len(e.ArrayIndex) != len(w.index) {
			t.Errorf("%s index = %v, want %v", w.name, e.ArrayIndex, w.index)
			continue
		}
		// Property: address = root + ((i1*D2)+i2)*s for dims [2 3].
		flat := e.ArrayIndex[0]*3 + e.ArrayIndex[1]
		if e.Address != 0x20000300+flat*2 {
			t.Errorf("%s address does not match its indices", w.name)
		}
	}
}

func TestExpandArrayChain(t *testing.T) {
	// array[2] of array[3] of uint16_t as two chained descriptors.
	elem := primitive(2, "uint16_t", 2, EncodingUnsigned)
	inner := &TypeDescriptor{
		Name: "array[3]", Size: 6, Kind: KindArray, Offset: 31,
		Encoding: EncodingUnsigned, Dims: []uint64{3}, Elem: elem,
	}
	outer := &TypeDescriptor{
		Name: "array[2]", Size: 12, Kind: KindArray, Offset: 30,
		Encoding: EncodingUnsigned, Dims: []uint64{2}, Elem: inner,
	}
	types := TypeRepository{2: elem, 30: outer, 31: inner}
	variables := []Variable{
		{Name: "M", Address: 0x1000, Size: 12, Type: outer},
	}

	f := expandFixture(t, types, variables, nil)

	// The chain flattens to the same 2x3 walk.
	e, ok := f.Catalogue.Get("M._1_._2_")
	if !ok {
		t.Fatal("M._1_._2_ missing")
	}
	if e.Address != 0x1000+10 {
		t.Errorf("address = 0x%X, want 0x%X", e.Address, 0x1000+10)
	}
	if len(e.ArrayIndex) != 2 || e.ArrayIndex[0] != 1 || e.ArrayIndex[1] != 2 {
		t.Errorf("index = %v, want [1 2]", e.ArrayIndex)
	}
}

func TestExpandArrayCap(t *testing.T) {
	elem := primitive(1, "uint8_t", 1, EncodingUnsigned)
	types := TypeRepository{
		1: elem,
		40: {
			Name: "array[2000]", Size: 2000, Kind: KindArray, Offset: 40,
			Encoding: EncodingUnsigned, Dims: []uint64{2000}, Elem: elem,
		},
	}
	variables := []Variable{
		{Name: "buf", Address: 0x20000400, Size: 2000, Type: types[40]},
	}

	f := expandFixture(t, types, variables, nil)

	if f.Catalogue.Len() != 1 {
		t.Fatalf("catalogue has %d entries, want only the root",
			f.Catalogue.Len())
	}
	if f.ExpandStats.ArraysSuppressed != 1 {
		t.Errorf("ArraysSuppressed = %d, want 1", f.ExpandStats.ArraysSuppressed)
	}
}

func TestExpandCycle(t *testing.T) {
	// struct node whose member self has the type struct node itself, so
	// the struct is reachable from itself through a struct-typed member
	// and forces the guard (pointers alone never descend).
	u32 := primitive(3, "uint32_t", 4, EncodingUnsigned)
	node := &TypeDescriptor{
		Name: "node", Size: 8, Kind: KindStruct, Offset: 50,
	}
	node.Members = []StructMember{
		{Name: "self", Offset: 0, TypeOffset: 50, TypeName: "node", TypeSize: 8},
		{Name: "x", Offset: 4, TypeOffset: 3, TypeName: "uint32_t", TypeSize: 4},
	}
	types := TypeRepository{3: u32, 50: node}
	variables := []Variable{
		{Name: "n", Address: 0x1000, Size: 8, Type: node},
	}

	f := expandFixture(t, types, variables, nil)

	if _, ok := f.Catalogue.Get("n.x"); !ok {
		t.Error("n.x missing")
	}
	if _, ok := f.Catalogue.Get("n.self.x"); ok {
		t.Error("expansion re-entered a visited type")
	}
}

func TestExpandPointerLeaf(t *testing.T) {
	u32 := primitive(3, "uint32_t", 4, EncodingUnsigned)
	ptr := &TypeDescriptor{
		Name: "pointer", Size: 4, Kind: KindPointer, Offset: 60,
		Elem: &TypeDescriptor{Name: "void"},
	}
	node := &TypeDescriptor{
		Name: "node", Size: 8, Kind: KindStruct, Offset: 50,
		Members: []StructMember{
			{Name: "next", Offset: 0, TypeOffset: 60, TypeName: "pointer", TypeSize: 4},
			{Name: "x", Offset: 4, TypeOffset: 3, TypeName: "uint32_t", TypeSize: 4},
		},
	}
	types := TypeRepository{3: u32, 50: node, 60: ptr}
	variables := []Variable{
		{Name: "n", Address: 0x2000, Size: 8, Type: node},
	}

	f := expandFixture(t, types, variables, nil)

	want := []string{"n", "n.next", "n.x"}
	if f.Catalogue.Len() != len(want) {
		t.Fatalf("catalogue has %d entries, want %d", f.Catalogue.Len(),
			len(want))
	}
	for i, name := range want {
		if f.Catalogue.Entries[i].FullName != name {
			t.Errorf("entry %d = %s, want %s", i,
				f.Catalogue.Entries[i].FullName, name)
		}
	}
}

func TestExpandUnionOverlap(t *testing.T) {
	types := TypeRepository{
		2: primitive(2, "uint16_t", 2, EncodingUnsigned),
		3: primitive(3, "uint32_t", 4, EncodingUnsigned),
		70: {
			Name: "raw", Size: 4, Kind: KindUnion, Offset: 70,
			Members: []StructMember{
				{Name: "w", Offset: 0, TypeOffset: 3, TypeName: "uint32_t", TypeSize: 4},
				{Name: "h", Offset: 0, TypeOffset: 2, TypeName: "uint16_t", TypeSize: 2},
			},
		},
	}
	variables := []Variable{
		{Name: "u", Address: 0x3000, Size: 4, Type: types[70]},
	}

	f := expandFixture(t, types, variables, nil)

	// Both members sit at the base address; the overlap is expected.
	w, _ := f.Catalogue.Get("u.w")
	h, _ := f.Catalogue.Get("u.h")
	if w == nil || h == nil {
		t.Fatal("union members missing")
	}
	if w.Address != 0x3000 || h.Address != 0x3000 {
		t.Errorf("union members at 0x%X/0x%X, want both at 0x3000",
			w.Address, h.Address)
	}
}

func TestExpandDepthGuard(t *testing.T) {
	// A chain of distinct one-member structs deeper than the cap.
	types := TypeRepository{}
	leaf := primitive(1, "uint8_t", 1, EncodingUnsigned)
	types[1] = leaf

	const chain = 60
	prev := uint64(1)
	for i := 0; i < chain; i++ {
		offset := uint64(100 + i)
		types[offset] = &TypeDescriptor{
			Name: "wrap", Size: 1, Kind: KindStruct, Offset: offset,
			Members: []StructMember{
				{Name: "inner", Offset: 0, TypeOffset: prev, TypeSize: 1},
			},
		}
		prev = offset
	}
	variables := []Variable{
		{Name: "deep", Address: 0x4000, Size: 1, Type: types[prev]},
	}

	f := expandFixture(t, types, variables, nil)

	if f.ExpandStats.DepthTruncated == 0 {
		t.Error("depth guard did not trigger")
	}
	// Already emitted entries stay in the catalogue.
	if f.Catalogue.Len() == 0 {
		t.Error("catalogue should keep the entries above the cut")
	}
}

func TestFlatToMultiIndex(t *testing.T) {
	tests := []struct {
		flat uint64
		dims []uint64
		want []uint64
	}{
		{0, []uint64{2, 3}, []uint64{0, 0}},
		{4, []uint64{2, 3}, []uint64{1, 1}},
		{5, []uint64{2, 3}, []uint64{1, 2}},
		{23, []uint64{2, 3, 4}, []uint64{1, 2, 3}},
	}
	for _, tt := range tests {
		got := flatToMultiIndex(tt.flat, tt.dims)
		if len(got) != len(tt.want) {
			t.Fatalf("flatToMultiIndex(%d, %v) = %v", tt.flat, tt.dims, got)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("flatToMultiIndex(%d, %v) = %v, want %v",
					tt.flat, tt.dims, got, tt.want)
				break
			}
		}
	}
}

func TestFlattenArrayChainDropsUnitDims(t *testing.T) {
	elem := primitive(2, "uint16_t", 2, EncodingUnsigned)
	td := &TypeDescriptor{
		Name: "array[1][4]", Size: 8, Kind: KindArray, Offset: 80,
		Dims: []uint64{1, 4}, Elem: elem,
	}

	dims, got, size := flattenArrayChain(td)
	if len(dims) != 1 || dims[0] != 4 {
		t.Errorf("dims = %v, want [4]", dims)
	}
	if got != elem || size != 2 {
		t.Errorf("elem/size = %v/%d", got, size)
	}
}
