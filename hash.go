// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package elf2a2l

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// fingerprintSampleSize is how much of the file participates in the
// fingerprint. Sampling the head plus the size and mtime is enough to
// detect a relink without hashing multi-megabyte images in full.
const fingerprintSampleSize = 1024 * 1024

// Fingerprint computes the cache key of a file: SHA-256 over the first
// megabyte, the file size and the modification time.
func Fingerprint(path string) (string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return "", ioError("stat", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", ioError("open", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.CopyN(h, f, fingerprintSampleSize); err != nil && err != io.EOF {
		return "", ioError("read", err)
	}

	var tail [16]byte
	binary.LittleEndian.PutUint64(tail[0:8], uint64(fi.Size()))
	binary.LittleEndian.PutUint64(tail[8:16], uint64(fi.ModTime().Unix()))
	h.Write(tail[:])

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
