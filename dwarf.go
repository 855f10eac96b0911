// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package elf2a2l

import (
	"encoding/binary"
	"strconv"
)

// DWARF tags consumed by the walker.
const (
	dwTagArrayType       = 0x01
	dwTagEnumerationType = 0x04
	dwTagMember          = 0x0d
	dwTagPointerType     = 0x0f
	dwTagCompileUnit     = 0x11
	dwTagStructureType   = 0x13
	dwTagSubrangeType    = 0x21
	dwTagTypedef         = 0x16
	dwTagUnionType       = 0x17
	dwTagBaseType        = 0x24
	dwTagConstType       = 0x26
	dwTagEnumerator      = 0x28
	dwTagVariable        = 0x34
	dwTagVolatileType    = 0x35
)

// DWARF attributes consumed by the walker.
const (
	dwAtName               = 0x03
	dwAtByteSize           = 0x0b
	dwAtBitOffset          = 0x0c
	dwAtBitSize            = 0x0d
	dwAtUpperBound         = 0x2f
	dwAtCount              = 0x37
	dwAtConstValue         = 0x1c
	dwAtDataMemberLocation = 0x38
	dwAtDataBitOffset      = 0x6b
	dwAtEncoding           = 0x3e
	dwAtType               = 0x49
)

// DWARF attribute forms.
const (
	dwFormAddr        = 0x01
	dwFormBlock2      = 0x03
	dwFormBlock4      = 0x04
	dwFormData2       = 0x05
	dwFormData4       = 0x06
	dwFormData8       = 0x07
	dwFormString      = 0x08
	dwFormBlock       = 0x09
	dwFormBlock1      = 0x0a
	dwFormData1       = 0x0b
	dwFormFlag        = 0x0c
	dwFormSdata       = 0x0d
	dwFormStrp        = 0x0e
	dwFormUdata       = 0x0f
	dwFormRefAddr     = 0x10
	dwFormRef1          = 0x11
	dwFormRef2          = 0x12
	dwFormRef4          = 0x13
	dwFormRef8          = 0x14
	dwFormRefUdata      = 0x15
	dwFormIndirect      = 0x16
	dwFormSecOffset     = 0x17
	dwFormExprloc       = 0x18
	dwFormFlagPresent   = 0x19
	dwFormStrx          = 0x1a
	dwFormAddrx         = 0x1b
	dwFormRefSup4       = 0x1c
	dwFormStrpSup       = 0x1d
	dwFormData16        = 0x1e
	dwFormLineStrp      = 0x1f
	dwFormRefSig8       = 0x20
	dwFormImplicitConst = 0x21
	dwFormLoclistx      = 0x22
	dwFormRnglistx      = 0x23
	dwFormRefSup8       = 0x24
	dwFormStrx1         = 0x25
	dwFormStrx2         = 0x26
	dwFormStrx3         = 0x27
	dwFormStrx4         = 0x28
	dwFormAddrx1        = 0x29
	dwFormAddrx2        = 0x2a
	dwFormAddrx3        = 0x2b
	dwFormAddrx4        = 0x2c
)

// DWARF base type encodings.
const (
	dwAteFloat        = 0x04
	dwAteSigned       = 0x05
	dwAteSignedChar   = 0x06
	dwAteUnsigned     = 0x07
	dwAteUnsignedChar = 0x08
)

// dwOpPlusUconst prefixes a constant member offset inside a location
// block or exprloc.
const dwOpPlusUconst = 0x23

// DWARF v5 unit types the walker descends into.
const (
	dwUtCompile = 0x01
	dwUtPartial = 0x03
)

// DebugInfoStats counts the debug-info entries seen per tag kind
// during one parse.
type DebugInfoStats struct {
	BaseTypes     int `json:"base_types"`
	Structs       int `json:"structs"`
	Unions        int `json:"unions"`
	Enums         int `json:"enums"`
	Arrays        int `json:"arrays"`
	Pointers      int `json:"pointers"`
	Typedefs      int `json:"typedefs"`
	Variables     int `json:"variables"`
	StructMembers int `json:"struct_members"`
	EnumValues    int `json:"enum_values"`
}

// byteReader is a bounds-checked little-endian cursor over one debug
// section. Reads past the end set eof and return zero values.
type byteReader struct {
	data []byte
	pos  uint64
	eof  bool
}

func (r *byteReader) remaining() uint64 {
	if r.eof || r.pos >= uint64(len(r.data)) {
		return 0
	}
	return uint64(len(r.data)) - r.pos
}

func (r *byteReader) u8() uint8 {
	if r.remaining() < 1 {
		r.eof = true
		return 0
	}
	v := r.data[r.pos]
	r.pos++
	return v
}

func (r *byteReader) u16() uint16 {
	if r.remaining() < 2 {
		r.eof = true
		return 0
	}
	v := binary.LittleEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v
}

func (r *byteReader) u32() uint32 {
	if r.remaining() < 4 {
		r.eof = true
		return 0
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v
}

func (r *byteReader) u64() uint64 {
	if r.remaining() < 8 {
		r.eof = true
		return 0
	}
	v := binary.LittleEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return v
}

func (r *byteReader) bytes(n uint64) []byte {
	if r.remaining() < n {
		r.eof = true
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *byteReader) skip(n uint64) {
	if r.remaining() < n {
		r.eof = true
		return
	}
	r.pos += n
}

// uleb reads an unsigned LEB128 value.
func (r *byteReader) uleb() uint64 {
	var result uint64
	var shift uint
	for {
		b := r.u8()
		if r.eof {
			return 0
		}
		if shift < 64 {
			result |= uint64(b&0x7f) << shift
		}
		if b&0x80 == 0 {
			return result
		}
		shift += 7
	}
}

// sleb reads a signed LEB128 value.
func (r *byteReader) sleb() int64 {
	var result int64
	var shift uint
	for {
		b := r.u8()
		if r.eof {
			return 0
		}
		if shift < 64 {
			result |= int64(b&0x7f) << shift
		}
		shift += 7
		if b&0x80 == 0 {
			if shift < 64 && b&0x40 != 0 {
				result |= -1 << shift
			}
			return result
		}
	}
}

// cstring reads a NUL-terminated string.
func (r *byteReader) cstring() string {
	start := r.pos
	for r.pos < uint64(len(r.data)) && r.data[r.pos] != 0 {
		r.pos++
	}
	if r.pos >= uint64(len(r.data)) {
		r.eof = true
		return ""
	}
	s := string(r.data[start:r.pos])
	r.pos++ // NUL
	return s
}

// abbrevAttr is one attribute/form pair of an abbreviation.
type abbrevAttr struct {
	attr          uint64
	form          uint64
	implicitConst int64
}

// abbrevDecl is one abbreviation declaration.
type abbrevDecl struct {
	tag         uint64
	hasChildren bool
	attrs       []abbrevAttr
}

// parseAbbrevTable reads the abbreviation table starting at offset in
// .debug_abbrev.
func parseAbbrevTable(data []byte, offset uint64) map[uint64]*abbrevDecl {
	table := make(map[uint64]*abbrevDecl)
	if offset >= uint64(len(data)) {
		return table
	}
	r := &byteReader{data: data, pos: offset}

	for {
		code := r.uleb()
		if r.eof || code == 0 {
			return table
		}
		decl := &abbrevDecl{
			tag:         r.uleb(),
			hasChildren: r.u8() != 0,
		}
		for {
			attr := r.uleb()
			form := r.uleb()
			if r.eof {
				return table
			}
			if attr == 0 && form == 0 {
				break
			}
			a := abbrevAttr{attr: attr, form: form}
			if form == dwFormImplicitConst {
				a.implicitConst = r.sleb()
			}
			decl.attrs = append(decl.attrs, a)
		}
		table[code] = decl
	}
}

// attrValue is one decoded attribute value. Only the field matching
// the form's class is meaningful.
type attrValue struct {
	attr      uint64
	u         uint64
	s         int64
	signed    bool
	str       string
	hasStr    bool
	block     []byte
	ref       uint64
	refIsUnit bool
	isRef     bool
}

// dieEntry is one decoded debugging information entry.
type dieEntry struct {
	offset uint64 // global .debug_info byte offset
	tag    uint64
	attrs  []attrValue
}

func (d *dieEntry) find(attr uint64) *attrValue {
	for i := range d.attrs {
		if d.attrs[i].attr == attr {
			return &d.attrs[i]
		}
	}
	return nil
}

// name returns the DW_AT_name string, if any.
func (d *dieEntry) name() (string, bool) {
	av := d.find(dwAtName)
	if av == nil || !av.hasStr {
		return "", false
	}
	return av.str, true
}

// size returns the DW_AT_byte_size constant, or 0.
func (d *dieEntry) size() uint64 {
	av := d.find(dwAtByteSize)
	if av == nil {
		return 0
	}
	return av.u
}

// encoding maps DW_AT_encoding onto the scalar encodings; default
// unsigned.
func (d *dieEntry) encoding() TypeEncoding {
	av := d.find(dwAtEncoding)
	if av == nil {
		return EncodingUnsigned
	}
	switch av.u {
	case dwAteSigned, dwAteSignedChar:
		return EncodingSigned
	case dwAteFloat:
		return EncodingFloat
	case dwAteUnsigned, dwAteUnsignedChar:
		return EncodingUnsigned
	default:
		return EncodingUnsigned
	}
}

// typeOffset resolves DW_AT_type into a unit-global repository key.
// Unit-relative reference forms add the unit start; DW_FORM_ref_addr
// is already section-global.
func (d *dieEntry) typeOffset(unitStart uint64) uint64 {
	av := d.find(dwAtType)
	if av == nil || !av.isRef {
		return 0
	}
	if av.refIsUnit {
		return unitStart + av.ref
	}
	return av.ref
}

// memberLocation decodes DW_AT_data_member_location: either a
// constant, or a DW_OP_plus_uconst expression in a block/exprloc.
func (d *dieEntry) memberLocation() uint64 {
	av := d.find(dwAtDataMemberLocation)
	if av == nil {
		return 0
	}
	if av.block != nil {
		if len(av.block) >= 2 && av.block[0] == dwOpPlusUconst {
			r := &byteReader{data: av.block, pos: 1}
			return r.uleb()
		}
		return 0
	}
	return av.u
}

// bitfield returns the raw (bitOffset, bitSize) pair when the member
// carries DW_AT_bit_size.
func (d *dieEntry) bitfield() (uint64, uint64, bool) {
	sz := d.find(dwAtBitSize)
	if sz == nil {
		return 0, 0, false
	}
	off := d.find(dwAtBitOffset)
	if off == nil {
		off = d.find(dwAtDataBitOffset)
	}
	var bitOffset uint64
	if off != nil {
		bitOffset = off.u
	}
	return bitOffset, sz.u, true
}

// constValue returns DW_AT_const_value respecting the signedness of
// the form it was encoded with.
func (d *dieEntry) constValue() (int64, bool) {
	av := d.find(dwAtConstValue)
	if av == nil {
		return 0, false
	}
	if av.signed {
		return av.s, true
	}
	return int64(av.u), true
}

// arrayDimension decodes a subrange DIE into one dimension:
// upper_bound+1 when present, else count.
func (d *dieEntry) arrayDimension() (uint64, bool) {
	if av := d.find(dwAtUpperBound); av != nil {
		if av.signed {
			return uint64(av.s + 1), true
		}
		return av.u + 1, true
	}
	if av := d.find(dwAtCount); av != nil {
		if av.signed {
			return uint64(av.s), true
		}
		return av.u, true
	}
	return 0, false
}

// ParseDebugInfo walks .debug_info against .debug_abbrev and fills the
// type repository, the variable→type map and the side tables consumed
// by Resolve. Missing or empty debug sections leave the repository
// empty and report ErrMissingDebugInfo, which callers recover from.
func (f *File) ParseDebugInfo() error {

	infoSec := f.SectionByName(".debug_info")
	abbrevSec := f.SectionByName(".debug_abbrev")
	if infoSec == nil || abbrevSec == nil {
		return ErrMissingDebugInfo
	}

	info := infoSec.Data(f)
	abbrev := abbrevSec.Data(f)
	if len(info) == 0 || len(abbrev) == 0 {
		return ErrMissingDebugInfo
	}

	var str []byte
	if strSec := f.SectionByName(".debug_str"); strSec != nil {
		str = strSec.Data(f)
	}

	abbrevCache := make(map[uint64]map[uint64]*abbrevDecl)
	r := &byteReader{data: info}

	for !r.eof && r.remaining() > 0 {
		unit, ok := f.parseUnitHeader(r)
		if !ok {
			break
		}

		abbrevs, cached := abbrevCache[unit.abbrevOffset]
		if !cached {
			abbrevs = parseAbbrevTable(abbrev, unit.abbrevOffset)
			abbrevCache[unit.abbrevOffset] = abbrevs
		}
		unit.abbrevs = abbrevs

		f.walkUnit(r, unit, str)

		// Realign to the unit boundary whether or not the walk
		// consumed the unit exactly.
		if r.pos < unit.end {
			r.pos = unit.end
		}
		r.eof = r.pos > uint64(len(info))
	}

	f.HasDebugInfo = len(f.Types) > 0
	if !f.HasDebugInfo {
		return ErrMissingDebugInfo
	}
	return nil
}

// unitHeader is the decoded header of one compilation unit.
type unitHeader struct {
	start        uint64
	end          uint64
	version      uint16
	addressSize  uint8
	abbrevOffset uint64
	abbrevs      map[uint64]*abbrevDecl
}

// parseUnitHeader decodes one unit header (DWARF32, versions 2-5).
// Returns ok=false when no further unit can be decoded.
func (f *File) parseUnitHeader(r *byteReader) (*unitHeader, bool) {
	start := r.pos
	length := uint64(r.u32())
	if r.eof {
		return nil, false
	}
	if length == 0xffffffff {
		// 64-bit DWARF is not produced by the embedded toolchains
		// this engine targets.
		f.logger.Warnf("skipping DWARF64 unit at 0x%x", start)
		return nil, false
	}
	end := r.pos + length
	if end > uint64(len(r.data)) {
		return nil, false
	}

	u := &unitHeader{start: start, end: end}
	u.version = r.u16()

	switch {
	case u.version >= 5:
		unitType := r.u8()
		u.addressSize = r.u8()
		u.abbrevOffset = uint64(r.u32())
		if unitType != dwUtCompile && unitType != dwUtPartial {
			// Type and split units carry no globals of interest;
			// skip to the next unit.
			r.pos = end
			return u, !r.eof
		}
	case u.version >= 2:
		u.abbrevOffset = uint64(r.u32())
		u.addressSize = r.u8()
	default:
		r.pos = end
		return u, !r.eof
	}

	if r.eof {
		return nil, false
	}
	return u, true
}

// parentFrame tracks one open ancestor DIE during the depth-first
// walk.
type parentFrame struct {
	tag  uint64
	desc *TypeDescriptor
}

// walkUnit decodes the unit's DIE tree in one depth-first pass,
// emitting type descriptors keyed by unit-global offsets. Children are
// attached to their immediate parent through an explicit frame stack.
func (f *File) walkUnit(r *byteReader, unit *unitHeader, str []byte) {

	var stack []parentFrame

	for r.pos < unit.end && !r.eof {
		dieOffset := r.pos
		code := r.uleb()
		if r.eof {
			return
		}
		if code == 0 {
			// End-of-children marker.
			if len(stack) > 0 {
				frame := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				f.finalizeDIE(frame)
			}
			continue
		}

		decl, ok := unit.abbrevs[code]
		if !ok {
			// Unknown abbreviation: the rest of the unit cannot be
			// decoded reliably.
			f.logger.Warnf("unknown abbrev code %d at 0x%x", code, dieOffset)
			r.pos = unit.end
			return
		}

		die := dieEntry{offset: dieOffset, tag: decl.tag}
		for _, a := range decl.attrs {
			av, ok := f.readAttr(r, unit, a, str)
			if !ok {
				r.pos = unit.end
				return
			}
			die.attrs = append(die.attrs, av)
		}

		var parent *parentFrame
		if len(stack) > 0 {
			parent = &stack[len(stack)-1]
		}

		desc := f.handleDIE(&die, unit, parent)

		if decl.hasChildren {
			stack = append(stack, parentFrame{tag: decl.tag, desc: desc})
		} else if desc != nil {
			f.finalizeDIE(parentFrame{tag: decl.tag, desc: desc})
		}
	}

	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		f.finalizeDIE(frame)
	}
}

// finalizeDIE runs once all of a DIE's children have been seen.
// Arrays receive their display name here because the dimensions come
// from subrange children.
func (f *File) finalizeDIE(frame parentFrame) {
	if frame.desc == nil {
		return
	}
	if frame.tag == dwTagArrayType {
		frame.desc.Name = formatArrayName(frame.desc.Dims)
	}
}

// handleDIE dispatches one decoded DIE. The returned descriptor is
// pushed as the parent frame for the DIE's children, when it has any.
func (f *File) handleDIE(die *dieEntry, unit *unitHeader, parent *parentFrame) *TypeDescriptor {

	switch die.tag {

	case dwTagBaseType:
		f.Stats.BaseTypes++
		name, ok := die.name()
		if !ok {
			return nil
		}
		td := &TypeDescriptor{
			Name:     name,
			Size:     die.size(),
			Encoding: die.encoding(),
			Kind:     KindPrimitive,
			Offset:   die.offset,
		}
		f.Types[die.offset] = td
		return td

	case dwTagStructureType, dwTagUnionType:
		kind := KindStruct
		if die.tag == dwTagUnionType {
			kind = KindUnion
			f.Stats.Unions++
		} else {
			f.Stats.Structs++
		}
		name, ok := die.name()
		if !ok {
			if kind == KindUnion {
				name = anonUnionName(die.offset)
			} else {
				name = anonName(die.offset)
			}
		}
		td := &TypeDescriptor{
			Name:   name,
			Size:   die.size(),
			Kind:   kind,
			Offset: die.offset,
		}
		f.Types[die.offset] = td
		return td

	case dwTagMember:
		f.Stats.StructMembers++
		if parent == nil || parent.desc == nil {
			return nil
		}
		if parent.desc.Kind != KindStruct && parent.desc.Kind != KindUnion {
			return nil
		}
		name, ok := die.name()
		if !ok {
			return nil
		}
		m := StructMember{
			Name:       name,
			TypeName:   "unknown",
			TypeSize:   die.size(),
			TypeOffset: die.typeOffset(unit.start),
		}
		if parent.desc.Kind == KindStruct {
			m.Offset = die.memberLocation()
		}
		if bitOffset, bitSize, ok := die.bitfield(); ok {
			off, size := bitOffset, bitSize
			m.BitOffset = &off
			m.BitSize = &size
		}
		parent.desc.Members = append(parent.desc.Members, m)
		return nil

	case dwTagEnumerationType:
		f.Stats.Enums++
		name, ok := die.name()
		if !ok {
			return nil
		}
		td := &TypeDescriptor{
			Name:     name,
			Size:     die.size(),
			Encoding: die.encoding(),
			Kind:     KindEnum,
			Offset:   die.offset,
		}
		f.Types[die.offset] = td
		return td

	case dwTagEnumerator:
		f.Stats.EnumValues++
		if parent == nil || parent.desc == nil || parent.desc.Kind != KindEnum {
			return nil
		}
		name, ok := die.name()
		if !ok {
			return nil
		}
		value, ok := die.constValue()
		if !ok {
			return nil
		}
		parent.desc.Variants = append(parent.desc.Variants,
			EnumVariant{Name: name, Value: value})
		return nil

	case dwTagArrayType:
		f.Stats.Arrays++
		td := &TypeDescriptor{
			Name:   "array",
			Size:   die.size(),
			Kind:   KindArray,
			Offset: die.offset,
		}
		if elem := die.typeOffset(unit.start); elem > 0 {
			f.arrayElems[die.offset] = elem
		}
		f.Types[die.offset] = td
		return td

	case dwTagSubrangeType:
		if parent == nil || parent.desc == nil || parent.desc.Kind != KindArray {
			return nil
		}
		if dim, ok := die.arrayDimension(); ok {
			parent.desc.Dims = append(parent.desc.Dims, dim)
		}
		return nil

	case dwTagPointerType:
		f.Stats.Pointers++
		td := &TypeDescriptor{
			Name:   "pointer",
			Size:   die.size(),
			Kind:   KindPointer,
			Offset: die.offset,
			Elem:   &TypeDescriptor{Name: "void"},
		}
		f.Types[die.offset] = td
		return td

	case dwTagTypedef:
		f.Stats.Typedefs++
		name, ok := die.name()
		if !ok {
			return nil
		}
		td := &TypeDescriptor{
			Name:   name,
			Kind:   KindTypedef,
			Offset: die.offset,
		}
		if target := die.typeOffset(unit.start); target > 0 {
			f.typeRefs[die.offset] = target
		}
		f.Types[die.offset] = td
		return td

	case dwTagConstType, dwTagVolatileType:
		name, ok := die.name()
		if !ok {
			if die.tag == dwTagConstType {
				name = "const"
			} else {
				name = "volatile"
			}
		}
		td := &TypeDescriptor{
			Name:   name,
			Kind:   KindTypedef,
			Offset: die.offset,
		}
		if target := die.typeOffset(unit.start); target > 0 {
			f.typeRefs[die.offset] = target
		}
		f.Types[die.offset] = td
		return td

	case dwTagVariable:
		f.Stats.Variables++
		name, ok := die.name()
		if !ok {
			return nil
		}
		if target := die.typeOffset(unit.start); target > 0 {
			f.VariableTypes[name] = target
		}
		return nil
	}

	return nil
}

// readAttr decodes one attribute value according to its form. Forms
// whose payload the engine does not interpret are skipped with the
// right width so the cursor stays in sync.
func (f *File) readAttr(r *byteReader, unit *unitHeader, a abbrevAttr, str []byte) (attrValue, bool) {
	av := attrValue{attr: a.attr}
	form := a.form

	for form == dwFormIndirect {
		form = r.uleb()
		if r.eof {
			return av, false
		}
	}

	switch form {
	case dwFormAddr:
		if unit.addressSize == 8 {
			av.u = r.u64()
		} else {
			av.u = uint64(r.u32())
		}
	case dwFormData1:
		av.u = uint64(r.u8())
	case dwFormData2:
		av.u = uint64(r.u16())
	case dwFormData4:
		av.u = uint64(r.u32())
	case dwFormData8:
		av.u = r.u64()
	case dwFormData16:
		av.block = r.bytes(16)
	case dwFormSdata:
		av.s = r.sleb()
		av.u = uint64(av.s)
		av.signed = true
	case dwFormUdata:
		av.u = r.uleb()
	case dwFormImplicitConst:
		av.s = a.implicitConst
		av.u = uint64(av.s)
		av.signed = true
	case dwFormString:
		av.str = r.cstring()
		av.hasStr = true
	case dwFormStrp:
		off := uint64(r.u32())
		if off < uint64(len(str)) {
			av.str = readCString(str, off)
			av.hasStr = true
		}
	case dwFormLineStrp, dwFormStrpSup:
		r.skip(4)
	case dwFormStrx:
		r.uleb()
	case dwFormStrx1:
		r.skip(1)
	case dwFormStrx2:
		r.skip(2)
	case dwFormStrx3:
		r.skip(3)
	case dwFormStrx4:
		r.skip(4)
	case dwFormAddrx, dwFormLoclistx, dwFormRnglistx:
		r.uleb()
	case dwFormAddrx1:
		r.skip(1)
	case dwFormAddrx2:
		r.skip(2)
	case dwFormAddrx3:
		r.skip(3)
	case dwFormAddrx4:
		r.skip(4)
	case dwFormRef1:
		av.ref = uint64(r.u8())
		av.refIsUnit = true
		av.isRef = true
	case dwFormRef2:
		av.ref = uint64(r.u16())
		av.refIsUnit = true
		av.isRef = true
	case dwFormRef4:
		av.ref = uint64(r.u32())
		av.refIsUnit = true
		av.isRef = true
	case dwFormRef8:
		av.ref = r.u64()
		av.refIsUnit = true
		av.isRef = true
	case dwFormRefUdata:
		av.ref = r.uleb()
		av.refIsUnit = true
		av.isRef = true
	case dwFormRefAddr:
		av.ref = uint64(r.u32())
		av.isRef = true
	case dwFormRefSig8, dwFormRefSup8:
		r.skip(8)
	case dwFormRefSup4:
		r.skip(4)
	case dwFormSecOffset:
		av.u = uint64(r.u32())
	case dwFormFlag:
		av.u = uint64(r.u8())
	case dwFormFlagPresent:
		av.u = 1
	case dwFormBlock1:
		av.block = r.bytes(uint64(r.u8()))
	case dwFormBlock2:
		av.block = r.bytes(uint64(r.u16()))
	case dwFormBlock4:
		av.block = r.bytes(uint64(r.u32()))
	case dwFormBlock, dwFormExprloc:
		av.block = r.bytes(r.uleb())
	default:
		f.logger.Warnf("unknown DWARF form 0x%x", form)
		return av, false
	}

	if r.eof {
		return av, false
	}
	return av, true
}

// formatArrayName renders an array descriptor's display name from its
// dimensions.
func formatArrayName(dims []uint64) string {
	if len(dims) == 0 {
		return "array"
	}
	name := "array"
	for _, d := range dims {
		name += "[" + strconv.FormatUint(d, 10) + "]"
	}
	return name
}
