// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package elf2a2l

import (
	"testing"
)

func TestEffectiveBitOffset(t *testing.T) {
	m := StructMember{
		Name: "r", TypeSize: 4,
		BitOffset: u64p(5), BitSize: u64p(3),
	}

	if got := m.EffectiveBitOffset(BigBitOrder, 32); got != 5 {
		t.Errorf("big bit order = %d, want raw 5", got)
	}
	// 32 - 5 - 3 = 24.
	if got := m.EffectiveBitOffset(LittleBitOrder, 32); got != 24 {
		t.Errorf("little bit order = %d, want 24", got)
	}

	// A raw offset that does not fit the container stays raw.
	wide := StructMember{BitOffset: u64p(40), BitSize: u64p(3)}
	if got := wide.EffectiveBitOffset(LittleBitOrder, 32); got != 40 {
		t.Errorf("out-of-range offset = %d, want passthrough", got)
	}
}

func TestCatalogueKeepsFirstName(t *testing.T) {
	c := NewCatalogue()
	c.Add(CatalogueEntry{FullName: "x", Address: 1})
	c.Add(CatalogueEntry{FullName: "x", Address: 2})
	c.Add(CatalogueEntry{FullName: "y", Address: 3})

	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
	e, ok := c.Get("x")
	if !ok || e.Address != 1 {
		t.Error("first occurrence must win")
	}
}

func TestBitMask(t *testing.T) {
	tests := []struct {
		offset uint64
		size   uint64
		want   uint64
	}{
		{0, 3, 0x7},
		{3, 5, 0xF8},
		{0, 1, 0x1},
		{31, 1, 0x80000000},
	}
	for _, tt := range tests {
		e := CatalogueEntry{BitOffset: &tt.offset, BitSize: &tt.size}
		if got := e.BitMask(); got != tt.want {
			t.Errorf("mask(%d, %d) = 0x%X, want 0x%X",
				tt.offset, tt.size, got, tt.want)
		}
	}

	plain := CatalogueEntry{}
	if plain.BitMask() != 0 {
		t.Error("non-bitfield mask must be 0")
	}
}

func TestTypeKindString(t *testing.T) {
	tests := []struct {
		kind TypeKind
		want string
	}{
		{KindPrimitive, "primitive"},
		{KindStruct, "struct"},
		{KindUnion, "union"},
		{KindEnum, "enum"},
		{KindArray, "array"},
		{KindPointer, "pointer"},
		{KindTypedef, "typedef"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("%d.String() = %s, want %s", tt.kind, got, tt.want)
		}
	}
}
