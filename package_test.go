// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package elf2a2l

import (
	"path/filepath"
	"testing"
)

func TestDataPackageRoundTrip(t *testing.T) {
	dir := t.TempDir()
	imagePath := filepath.Join(dir, "fw.elf")

	entries := []CatalogueEntry{
		{FullName: "cfg", Address: 0x20000100, Size: 8, A2lType: TagUInt64,
			TypeName: "config"},
		{FullName: "cfg.a", Address: 0x20000100, Size: 1, A2lType: TagUByte,
			TypeName: "uint8_t"},
		{FullName: "flags.r", Address: 0x20000200, Size: 4, A2lType: TagULong,
			BitOffset: u64p(0), BitSize: u64p(3)},
		{FullName: "M._1_._2_", Address: 0x2000030A, Size: 2, A2lType: TagUWord,
			ArrayIndex: []uint64{1, 2}},
	}

	pkg, err := OpenPackage(imagePath)
	if err != nil {
		t.Fatalf("OpenPackage failed: %v", err)
	}
	if err := pkg.WriteCatalogue(entries, imagePath, "cafe"); err != nil {
		t.Fatalf("WriteCatalogue failed: %v", err)
	}
	if err := pkg.Close(); err != nil {
		t.Fatal(err)
	}

	if !PackageExists(imagePath) {
		t.Error("package file not created")
	}

	pkg, err = OpenPackage(imagePath)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer pkg.Close()

	got, err := pkg.ReadCatalogue()
	if err != nil {
		t.Fatalf("ReadCatalogue failed: %v", err)
	}
	if len(got) != len(entries) {
		t.Fatalf("read %d entries, want %d", len(got), len(entries))
	}
	for i, want := range entries {
		e := got[i]
		if e.FullName != want.FullName || e.Address != want.Address ||
			e.Size != want.Size || e.A2lType != want.A2lType {
			t.Errorf("entry %d = %+v, want %+v", i, e, want)
		}
	}
	// Optional fields survive the store.
	if got[2].BitOffset == nil || *got[2].BitSize != 3 {
		t.Error("bitfield fields lost")
	}
	if len(got[3].ArrayIndex) != 2 || got[3].ArrayIndex[1] != 2 {
		t.Error("array index lost")
	}

	meta, err := pkg.Meta()
	if err != nil {
		t.Fatalf("Meta failed: %v", err)
	}
	if meta.FileName != "fw.elf" || meta.Fingerprint != "cafe" ||
		meta.EntryCount != len(entries) {
		t.Errorf("meta = %+v", meta)
	}
	if meta.CreatedAt == 0 {
		t.Error("created_at not stamped")
	}
}

func TestDataPackageRewrite(t *testing.T) {
	imagePath := filepath.Join(t.TempDir(), "fw.elf")

	pkg, err := OpenPackage(imagePath)
	if err != nil {
		t.Fatal(err)
	}
	defer pkg.Close()

	first := []CatalogueEntry{{FullName: "a", Address: 1, Size: 1}}
	if err := pkg.WriteCatalogue(first, imagePath, "v1"); err != nil {
		t.Fatal(err)
	}
	second := []CatalogueEntry{{FullName: "b", Address: 2, Size: 2}}
	if err := pkg.WriteCatalogue(second, imagePath, "v2"); err != nil {
		t.Fatal(err)
	}

	got, err := pkg.ReadCatalogue()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].FullName != "b" {
		t.Errorf("rewrite must replace the stream, got %+v", got)
	}
}
