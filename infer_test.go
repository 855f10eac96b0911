// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package elf2a2l

import (
	"testing"
)

func TestInferTypeFromName(t *testing.T) {

	tests := []struct {
		name     string
		size     uint64
		typeName string
		encoding TypeEncoding
	}{
		{"motor_speed_u16", 2, "uint16_t", EncodingUnsigned},
		{"counter_u32", 4, "uint32_t", EncodingUnsigned},
		{"offset_s16", 2, "int16_t", EncodingSigned},
		{"bias_i32", 4, "int32_t", EncodingSigned},
		{"ratio_f32", 4, "float", EncodingFloat},
		{"precise_f64", 8, "double", EncodingFloat},
		{"enable_bool", 1, "bool", EncodingUnsigned},
		{"gTempUint8_t", 1, "uint8_t", EncodingUnsigned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			td := InferTypeFromName(tt.name, tt.size)
			if td.Name != tt.typeName {
				t.Errorf("type = %s, want %s", td.Name, tt.typeName)
			}
			if td.Encoding != tt.encoding {
				t.Errorf("encoding = %v, want %v", td.Encoding, tt.encoding)
			}
			if td.Size != tt.size {
				t.Errorf("size = %d, want %d", td.Size, tt.size)
			}
			if td.Offset != 0 {
				t.Error("synthetic descriptors must carry offset 0")
			}
		})
	}
}

func TestInferTypeFromSizeFallback(t *testing.T) {
	tests := []struct {
		size uint64
		want string
	}{
		{1, "uint8_t"},
		{2, "uint16_t"},
		{4, "uint32_t"},
		{8, "uint64_t"},
		{24, "uint8_t[24]"},
	}
	for _, tt := range tests {
		td := InferTypeFromName("opaque", tt.size)
		if td.Name != tt.want {
			t.Errorf("size %d -> %s, want %s", tt.size, td.Name, tt.want)
		}
		if td.Encoding != EncodingUnsigned {
			t.Errorf("size %d encoding = %v", tt.size, td.Encoding)
		}
	}
}
