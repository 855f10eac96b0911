// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package elf2a2l

import (
	"fmt"
	"strings"
)

const (
	// MaxArrayExpand is the largest total element count for which an
	// array is expanded into per-element catalogue entries. Bigger
	// arrays keep only their root entry.
	MaxArrayExpand = 1000

	// MaxNestingDepth caps the recursion depth of the leaf expander.
	MaxNestingDepth = 50
)

// TypeKind discriminates the shape of a type descriptor.
type TypeKind int

// Type descriptor kinds.
const (
	KindPrimitive TypeKind = iota
	KindStruct
	KindUnion
	KindEnum
	KindArray
	KindPointer
	KindTypedef
)

func (k TypeKind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindStruct:
		return "struct"
	case KindUnion:
		return "union"
	case KindEnum:
		return "enum"
	case KindArray:
		return "array"
	case KindPointer:
		return "pointer"
	case KindTypedef:
		return "typedef"
	default:
		return "unknown"
	}
}

// TypeEncoding is the scalar interpretation of a type's bytes.
type TypeEncoding int

// Scalar encodings.
const (
	EncodingUnsigned TypeEncoding = iota
	EncodingSigned
	EncodingFloat
)

func (e TypeEncoding) String() string {
	switch e {
	case EncodingUnsigned:
		return "unsigned"
	case EncodingSigned:
		return "signed"
	case EncodingFloat:
		return "float"
	default:
		return "unknown"
	}
}

// BitOrder selects how a raw debug-info bit offset is interpreted when
// the target container is little-endian. Toolchains disagree here; the
// caller picks the layout its compiler produced.
type BitOrder int

const (
	// BigBitOrder keeps the raw offset untouched.
	BigBitOrder BitOrder = iota

	// LittleBitOrder maps a big-bit-order raw offset onto a
	// little-endian container: containerBits - raw - bitSize.
	LittleBitOrder
)

// StructMember is one member of a struct or union descriptor.
type StructMember struct {
	Name string `json:"name"`

	// Offset is the member's byte offset within the parent aggregate.
	// Union members sit at offset 0.
	Offset uint64 `json:"offset"`

	// TypeOffset keys the member's declared type in the repository.
	TypeOffset uint64 `json:"type_offset"`

	// TypeName and TypeSize are backfilled by the reference resolver.
	TypeName string `json:"type_name"`
	TypeSize uint64 `json:"type_size"`

	// BitOffset and BitSize are set together for bitfield members.
	BitOffset *uint64 `json:"bit_offset,omitempty"`
	BitSize   *uint64 `json:"bit_size,omitempty"`
}

// IsBitfield reports whether the member is a bitfield.
func (m *StructMember) IsBitfield() bool {
	return m.BitSize != nil
}

// EffectiveBitOffset returns the bit offset to publish for the given
// bit order and container width in bits.
func (m *StructMember) EffectiveBitOffset(order BitOrder, containerBits uint64) uint64 {
	if m.BitOffset == nil {
		return 0
	}
	raw := *m.BitOffset
	if order == LittleBitOrder {
		size := uint64(0)
		if m.BitSize != nil {
			size = *m.BitSize
		}
		if raw+size <= containerBits {
			return containerBits - raw - size
		}
	}
	return raw
}

// EnumVariant is one named value of an enumeration type.
type EnumVariant struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// TypeDescriptor is the unit stored in the type repository. Every
// descriptor is keyed by the unit-global byte offset at which its
// debug-info entry was defined; members refer to other descriptors by
// that key rather than by owning references, which keeps the cyclic
// debug-info graph representable in a flat table.
type TypeDescriptor struct {
	Name     string          `json:"name"`
	Size     uint64          `json:"size"`
	Encoding TypeEncoding    `json:"encoding"`
	Kind     TypeKind        `json:"kind"`
	Members  []StructMember  `json:"members,omitempty"`
	Variants []EnumVariant   `json:"variants,omitempty"`
	Dims     []uint64        `json:"dims,omitempty"`
	Elem     *TypeDescriptor `json:"elem,omitempty"`
	Offset   uint64          `json:"offset"`
}

// TypeRepository maps unit-global debug-info offsets to resolved type
// descriptors for one parse of one image.
type TypeRepository map[uint64]*TypeDescriptor

// Get returns the descriptor at offset, or nil.
func (r TypeRepository) Get(offset uint64) *TypeDescriptor {
	return r[offset]
}

// Variable is an addressable global data object found in the image
// symbol table.
type Variable struct {
	Name     string          `json:"name"`
	Address  uint64          `json:"address"`
	Size     uint64          `json:"size"`
	TypeName string          `json:"type_name"`
	Section  string          `json:"section"`
	Type     *TypeDescriptor `json:"type,omitempty"`
}

// CatalogueEntry is one row of the flat output table: a primitive cell
// with a unique dotted name and an absolute target-memory address.
type CatalogueEntry struct {
	FullName   string   `json:"full_name"`
	Address    uint64   `json:"address"`
	Size       uint64   `json:"size"`
	A2lType    string   `json:"a2l_type"`
	TypeName   string   `json:"type_name"`
	BitOffset  *uint64  `json:"bit_offset,omitempty"`
	BitSize    *uint64  `json:"bit_size,omitempty"`
	ArrayIndex []uint64 `json:"array_index,omitempty"`
}

// IsBitfield reports whether the entry describes a bitfield cell.
func (e *CatalogueEntry) IsBitfield() bool {
	return e.BitSize != nil
}

// BitMask returns the A2L BIT_MASK value for a bitfield entry, zero
// otherwise.
func (e *CatalogueEntry) BitMask() uint64 {
	if e.BitOffset == nil || e.BitSize == nil {
		return 0
	}
	return ((uint64(1) << *e.BitSize) - 1) << *e.BitOffset
}

// Catalogue is the ordered list of leaf entries produced by one
// expansion, plus a name index. Append-only.
type Catalogue struct {
	Entries []CatalogueEntry
	byName  map[string]int
}

// NewCatalogue returns an empty catalogue.
func NewCatalogue() *Catalogue {
	return &Catalogue{byName: make(map[string]int)}
}

// Add appends an entry, keeping the first occurrence when a name
// repeats.
func (c *Catalogue) Add(e CatalogueEntry) {
	if _, ok := c.byName[e.FullName]; ok {
		return
	}
	c.byName[e.FullName] = len(c.Entries)
	c.Entries = append(c.Entries, e)
}

// Get returns the entry with the given full name.
func (c *Catalogue) Get(name string) (*CatalogueEntry, bool) {
	i, ok := c.byName[name]
	if !ok {
		return nil, false
	}
	return &c.Entries[i], true
}

// Len returns the number of entries.
func (c *Catalogue) Len() int {
	return len(c.Entries)
}

// A2L scalar tags.
const (
	TagUByte   = "UBYTE"
	TagSByte   = "SBYTE"
	TagUWord   = "UWORD"
	TagSWord   = "SWORD"
	TagULong   = "ULONG"
	TagSLong   = "SLONG"
	TagFloat32 = "FLOAT32_IEEE"
	TagFloat64 = "FLOAT64_IEEE"
	TagUInt64  = "A_UINT64"
	TagInt64   = "A_INT64"
)

// ScalarTag maps a byte size and encoding to an A2L scalar tag. Sizes
// outside the table degrade to UBYTE.
func ScalarTag(size uint64, encoding TypeEncoding) string {
	switch {
	case size == 1 && encoding == EncodingUnsigned:
		return TagUByte
	case size == 1 && encoding == EncodingSigned:
		return TagSByte
	case size == 2 && encoding == EncodingUnsigned:
		return TagUWord
	case size == 2 && encoding == EncodingSigned:
		return TagSWord
	case size == 4 && encoding == EncodingUnsigned:
		return TagULong
	case size == 4 && encoding == EncodingSigned:
		return TagSLong
	case size == 4 && encoding == EncodingFloat:
		return TagFloat32
	case size == 8 && encoding == EncodingUnsigned:
		return TagUInt64
	case size == 8 && encoding == EncodingSigned:
		return TagInt64
	case size == 8 && encoding == EncodingFloat:
		return TagFloat64
	default:
		return TagUByte
	}
}

// ScalarTagFromName maps a type name and byte size to an A2L scalar
// tag, used when only symbol-table information is available.
func ScalarTagFromName(size uint64, typeName string) string {
	lower := strings.ToLower(typeName)

	if strings.Contains(lower, "float") || strings.Contains(lower, "double") {
		if size == 4 {
			return TagFloat32
		}
		return TagFloat64
	}

	switch {
	case strings.Contains(lower, "u8"), strings.Contains(lower, "uint8"),
		strings.Contains(lower, "char"):
		return TagUByte
	case strings.Contains(lower, "u16"), strings.Contains(lower, "uint16"),
		strings.Contains(lower, "wchar"):
		return TagUWord
	case strings.Contains(lower, "u32"), strings.Contains(lower, "uint32"):
		return TagULong
	case strings.Contains(lower, "u64"), strings.Contains(lower, "uint64"):
		return TagUInt64
	case strings.Contains(lower, "i8"), strings.Contains(lower, "int8"),
		strings.Contains(lower, "sbyte"):
		return TagSByte
	case strings.Contains(lower, "i16"), strings.Contains(lower, "int16"),
		strings.Contains(lower, "short"):
		return TagSWord
	case strings.Contains(lower, "i32"), strings.Contains(lower, "int32"),
		strings.Contains(lower, "int"):
		return TagSLong
	case strings.Contains(lower, "i64"), strings.Contains(lower, "int64"):
		return TagInt64
	}

	switch size {
	case 1:
		return TagUByte
	case 2:
		return TagUWord
	case 4:
		return TagULong
	case 8:
		return TagUInt64
	default:
		return TagUByte
	}
}

// recordLayout returns the CHARACTERISTIC record layout for a tag.
func recordLayout(a2lType string) string {
	switch a2lType {
	case TagUByte:
		return "__UByte_Value"
	case TagSByte:
		return "__SByte_Value"
	case TagUWord:
		return "__UWord_Value"
	case TagSWord:
		return "__SWord_Value"
	case TagULong:
		return "__ULong_Value"
	case TagSLong:
		return "__SLong_Value"
	case TagUInt64:
		return "__UInt64_Value"
	case TagInt64:
		return "__Int64_Value"
	case TagFloat32:
		return "__Float32_Value"
	case TagFloat64:
		return "__Float64_Value"
	default:
		return "__ULong_Value"
	}
}

// formatString returns the display FORMAT for a tag.
func formatString(a2lType string) string {
	switch a2lType {
	case TagUByte, TagSByte:
		return "%3.0"
	case TagUWord, TagSWord:
		return "%5.0"
	case TagULong, TagSLong:
		return "%10.0"
	case TagUInt64, TagInt64:
		return "%20.0"
	case TagFloat32:
		return "%10.4"
	case TagFloat64:
		return "%16.8"
	default:
		return "%10.0"
	}
}

// minMax returns the display limits for a tag.
func minMax(a2lType string) (string, string) {
	switch a2lType {
	case TagUByte:
		return "0", "255"
	case TagSByte:
		return "-128", "127"
	case TagUWord:
		return "0", "65535"
	case TagSWord:
		return "-32768", "32767"
	case TagULong:
		return "0", "4294967295"
	case TagSLong:
		return "-2147483648", "2147483647"
	case TagUInt64:
		return "0", "18446744073709551615"
	case TagInt64:
		return "-9223372036854775808", "9223372036854775807"
	case TagFloat32:
		return "-3.4E38", "3.4E38"
	case TagFloat64:
		return "-1.7E308", "1.7E308"
	default:
		return "0", "0"
	}
}

// knownScalarTags lists the tags a block scanner must not mistake for
// subject names. Includes fixed-point variants seen in tool output.
var knownScalarTags = map[string]bool{
	TagUByte: true, TagSByte: true, TagUWord: true, TagSWord: true,
	TagULong: true, TagSLong: true, TagUInt64: true, TagInt64: true,
	TagFloat32: true, TagFloat64: true,
	"FLOAT16": true, "FLOAT64": true,
	"UFIX16": true, "UFIX32": true, "SFIX16": true, "SFIX32": true,
}

func anonName(offset uint64) string {
	return fmt.Sprintf("<anon@0x%x>", offset)
}

func anonUnionName(offset uint64) string {
	return fmt.Sprintf("<anon_union@0x%x>", offset)
}
