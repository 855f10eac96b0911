// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package elf2a2l

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFingerprint(t *testing.T) {
	dir := t.TempDir()

	pathA := filepath.Join(dir, "a.elf")
	if err := os.WriteFile(pathA, []byte("firmware image A"), 0644); err != nil {
		t.Fatal(err)
	}

	first, err := Fingerprint(pathA)
	if err != nil {
		t.Fatalf("Fingerprint failed: %v", err)
	}
	if len(first) != 64 {
		t.Errorf("fingerprint length = %d, want 64 hex chars", len(first))
	}

	again, err := Fingerprint(pathA)
	if err != nil {
		t.Fatal(err)
	}
	if first != again {
		t.Error("fingerprint not stable for an unchanged file")
	}

	pathB := filepath.Join(dir, "b.elf")
	if err := os.WriteFile(pathB, []byte("firmware image B"), 0644); err != nil {
		t.Fatal(err)
	}
	other, err := Fingerprint(pathB)
	if err != nil {
		t.Fatal(err)
	}
	if first == other {
		t.Error("different contents must fingerprint differently")
	}
}

func TestFingerprintMissingFile(t *testing.T) {
	if _, err := Fingerprint(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("missing file must fail")
	}
}
