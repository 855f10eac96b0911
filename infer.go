// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package elf2a2l

import (
	"fmt"
	"strings"
)

// namePattern maps name fragments to a synthetic primitive type.
type namePattern struct {
	fragments []string
	typeName  string
	encoding  TypeEncoding
}

// namePatterns are tried in order; the first match wins. Fragments
// follow common embedded naming conventions (suffix or infix type
// hints).
var namePatterns = []namePattern{
	{[]string{"_u8", "_uint8", "uint8_t"}, "uint8_t", EncodingUnsigned},
	{[]string{"_u16", "_uint16", "uint16_t"}, "uint16_t", EncodingUnsigned},
	{[]string{"_u32", "_uint32", "uint32_t"}, "uint32_t", EncodingUnsigned},
	{[]string{"_u64", "_uint64", "uint64_t"}, "uint64_t", EncodingUnsigned},
	{[]string{"_s8", "_i8", "_int8", "int8_t"}, "int8_t", EncodingSigned},
	{[]string{"_s16", "_i16", "_int16", "int16_t"}, "int16_t", EncodingSigned},
	{[]string{"_s32", "_i32", "_int32", "int32_t"}, "int32_t", EncodingSigned},
	{[]string{"_s64", "_i64", "_int64", "int64_t"}, "int64_t", EncodingSigned},
	{[]string{"_f32", "_float", "float32"}, "float", EncodingFloat},
	{[]string{"_f64", "_double", "float64"}, "double", EncodingFloat},
	{[]string{"_bool", "boolean"}, "bool", EncodingUnsigned},
}

// InferTypeFromName assigns a synthetic primitive descriptor to a
// variable that has no debug info, first from naming conventions, then
// from its byte size. Synthetic descriptors carry offset 0 so the
// expander's cycle guard ignores them.
func InferTypeFromName(name string, size uint64) *TypeDescriptor {
	lower := strings.ToLower(name)

	for _, p := range namePatterns {
		for _, frag := range p.fragments {
			if strings.Contains(lower, frag) {
				return &TypeDescriptor{
					Name:     p.typeName,
					Size:     size,
					Encoding: p.encoding,
					Kind:     KindPrimitive,
				}
			}
		}
	}

	return &TypeDescriptor{
		Name:     inferTypeNameFromSize(size),
		Size:     size,
		Encoding: EncodingUnsigned,
		Kind:     KindPrimitive,
	}
}

// inferTypeNameFromSize maps a byte size to a default type name.
func inferTypeNameFromSize(size uint64) string {
	switch size {
	case 1:
		return "uint8_t"
	case 2:
		return "uint16_t"
	case 4:
		return "uint32_t"
	case 8:
		return "uint64_t"
	default:
		return fmt.Sprintf("uint8_t[%d]", size)
	}
}
