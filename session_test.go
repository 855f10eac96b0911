// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package elf2a2l

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSessionEditFlow(t *testing.T) {
	dir := t.TempDir()
	a2lPath := filepath.Join(dir, "cal.a2l")
	if err := os.WriteFile(a2lPath, []byte(testA2lDocument), 0644); err != nil {
		t.Fatal(err)
	}

	s := NewSession()

	// Edits before selecting a document must fail.
	if _, err := s.ApplyEdits(nil); err != ErrNoA2lSelected {
		t.Errorf("want ErrNoA2lSelected, got %v", err)
	}

	s.SelectA2l(a2lPath)
	if s.A2lPath() != a2lPath {
		t.Error("selected path lost")
	}

	result, err := s.AppendEntries([]CatalogueEntry{
		{FullName: "bar", Address: 0x20003000, Size: 2, A2lType: TagUWord},
	}, ExportMeasurement)
	if err != nil {
		t.Fatalf("AppendEntries failed: %v", err)
	}
	if result.Added != 1 {
		t.Errorf("result = %+v", result)
	}

	blob, err := os.ReadFile(a2lPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(blob), "/begin MEASUREMENT bar") {
		t.Error("append not written through")
	}

	saveResult, err := s.ApplyEdits([]VariableEdit{
		{Action: "delete", OriginalName: "bar"},
	})
	if err != nil {
		t.Fatalf("ApplyEdits failed: %v", err)
	}
	if saveResult.Deleted != 1 {
		t.Errorf("saveResult = %+v", saveResult)
	}
}

func TestSessionLoadImage(t *testing.T) {
	dir := t.TempDir()
	imagePath := filepath.Join(dir, "fw.elf")

	image := testImage(t, []testSymbol{
		{"speed_u16", 0x20000000, 2, SymTypeObject, ".data"},
	}, nil, nil)
	if err := os.WriteFile(imagePath, image, 0644); err != nil {
		t.Fatal(err)
	}

	s := NewSession()
	if err := s.LoadImage(imagePath, nil); err != nil {
		t.Fatalf("LoadImage failed: %v", err)
	}
	defer s.Close()

	variables := s.Variables()
	if len(variables) != 1 || variables[0].Name != "speed_u16" {
		t.Errorf("variables = %+v", variables)
	}
	entries := s.Entries()
	if len(entries) != 1 || entries[0].A2lType != TagUWord {
		t.Errorf("entries = %+v", entries)
	}
}
