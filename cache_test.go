// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package elf2a2l

import (
	"path/filepath"
	"testing"
)

func testCache(t *testing.T) *Cache {
	t.Helper()
	c, err := OpenCachePath(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("OpenCachePath failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCacheRoundTrip(t *testing.T) {
	c := testCache(t)

	variables := []Variable{
		{Name: "cfg", Address: 0x20000100, Size: 8, TypeName: "config",
			Section: ".data"},
	}
	entries := []CatalogueEntry{
		{FullName: "cfg", Address: 0x20000100, Size: 8, A2lType: TagUInt64},
		{FullName: "cfg.a", Address: 0x20000100, Size: 1, A2lType: TagUByte},
	}

	err := c.Put(CacheRecord{
		Fingerprint:  "abc123",
		FilePath:     "/fw/app.elf",
		FileSize:     4096,
		HasDebugInfo: true,
	}, variables, entries)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	record, gotVars, gotEntries, err := c.Get("abc123")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if record == nil {
		t.Fatal("record missing")
	}
	if record.FilePath != "/fw/app.elf" || !record.HasDebugInfo {
		t.Errorf("record = %+v", record)
	}
	if record.VariableCount != 1 || record.EntryCount != 2 {
		t.Errorf("counts = %d/%d", record.VariableCount, record.EntryCount)
	}
	if len(gotVars) != 1 || gotVars[0].Name != "cfg" {
		t.Errorf("variables = %+v", gotVars)
	}
	if len(gotEntries) != 2 || gotEntries[1].FullName != "cfg.a" {
		t.Errorf("entries = %+v", gotEntries)
	}
}

func TestCacheMiss(t *testing.T) {
	c := testCache(t)

	record, _, _, err := c.Get("unknown")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if record != nil {
		t.Error("miss must return a nil record")
	}
}

func TestCacheDeleteAndList(t *testing.T) {
	c := testCache(t)

	for _, fp := range []string{"one", "two"} {
		if err := c.Put(CacheRecord{Fingerprint: fp}, nil, nil); err != nil {
			t.Fatal(err)
		}
	}

	records, err := c.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("List = %d records, want 2", len(records))
	}

	if err := c.Delete("one"); err != nil {
		t.Fatal(err)
	}
	record, _, _, err := c.Get("one")
	if err != nil {
		t.Fatal(err)
	}
	if record != nil {
		t.Error("deleted record still present")
	}
}
