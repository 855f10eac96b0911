// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package elf2a2l

import (
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// A data package is the on-disk form of one parsed catalogue: a small
// key-value file living next to the image, holding the flat record
// stream plus a meta record. External tools treat the blobs as opaque
// and key them by the image fingerprint.

const packageExtension = ".a2ldata"

var (
	bucketMeta    = []byte("meta")
	bucketEntries = []byte("entries")

	metaKeyFileName    = []byte("file_name")
	metaKeySourcePath  = []byte("source_path")
	metaKeyFingerprint = []byte("fingerprint")
	metaKeyEntryCount  = []byte("entry_count")
	metaKeyCreatedAt   = []byte("created_at")
)

// PackageMeta describes a data package.
type PackageMeta struct {
	FileName    string `json:"file_name"`
	SourcePath  string `json:"source_path"`
	Fingerprint string `json:"fingerprint"`
	EntryCount  int    `json:"entry_count"`
	CreatedAt   int64  `json:"created_at"`
}

// DataPackage is an open catalogue package.
type DataPackage struct {
	db   *bolt.DB
	path string
}

// PackagePath returns the package path for an image path.
func PackagePath(imagePath string) string {
	return imagePath + packageExtension
}

// PackageExists reports whether a package exists for the image.
func PackageExists(imagePath string) bool {
	_, err := os.Stat(PackagePath(imagePath))
	return err == nil
}

// OpenPackage opens or creates the package next to the image.
func OpenPackage(imagePath string) (*DataPackage, error) {
	return OpenPackagePath(PackagePath(imagePath))
}

// OpenPackagePath opens or creates a package at an explicit path.
func OpenPackagePath(path string) (*DataPackage, error) {
	db, err := bolt.Open(path, 0644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, ioError("open data package", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketMeta); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketEntries)
		return err
	})
	if err != nil {
		db.Close()
		return nil, ioError("initialize data package", err)
	}

	return &DataPackage{db: db, path: path}, nil
}

// Close closes the package file.
func (p *DataPackage) Close() error {
	return p.db.Close()
}

// Path returns the package file path.
func (p *DataPackage) Path() string {
	return p.path
}

// WriteCatalogue replaces the stored record stream with the given
// entries and refreshes the meta record.
func (p *DataPackage) WriteCatalogue(entries []CatalogueEntry, sourcePath, fingerprint string) error {
	err := p.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketEntries); err != nil {
			return err
		}
		b, err := tx.CreateBucket(bucketEntries)
		if err != nil {
			return err
		}

		for i := range entries {
			blob, err := encodeEntry(&entries[i])
			if err != nil {
				return err
			}
			if err := b.Put(entryKey(uint64(i)), blob); err != nil {
				return err
			}
		}

		meta := tx.Bucket(bucketMeta)
		if err := meta.Put(metaKeyFileName, []byte(filepath.Base(sourcePath))); err != nil {
			return err
		}
		if err := meta.Put(metaKeySourcePath, []byte(sourcePath)); err != nil {
			return err
		}
		if err := meta.Put(metaKeyFingerprint, []byte(fingerprint)); err != nil {
			return err
		}
		if err := meta.Put(metaKeyEntryCount, entryKey(uint64(len(entries)))); err != nil {
			return err
		}
		return meta.Put(metaKeyCreatedAt, entryKey(uint64(time.Now().Unix())))
	})
	if err != nil {
		return ioError("write data package", err)
	}
	return nil
}

// ReadCatalogue returns the stored record stream in insertion order.
func (p *DataPackage) ReadCatalogue() ([]CatalogueEntry, error) {
	var entries []CatalogueEntry
	err := p.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketEntries)
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			e, err := decodeEntry(v)
			if err != nil {
				return err
			}
			entries = append(entries, e)
			return nil
		})
	})
	if err != nil {
		return nil, ioError("read data package", err)
	}
	return entries, nil
}

// Meta returns the package meta record.
func (p *DataPackage) Meta() (PackageMeta, error) {
	var meta PackageMeta
	err := p.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketMeta)
		if b == nil {
			return nil
		}
		meta.FileName = string(b.Get(metaKeyFileName))
		meta.SourcePath = string(b.Get(metaKeySourcePath))
		meta.Fingerprint = string(b.Get(metaKeyFingerprint))
		if v := b.Get(metaKeyEntryCount); len(v) == 8 {
			meta.EntryCount = int(binary.BigEndian.Uint64(v))
		}
		if v := b.Get(metaKeyCreatedAt); len(v) == 8 {
			meta.CreatedAt = int64(binary.BigEndian.Uint64(v))
		}
		return nil
	})
	if err != nil {
		return meta, ioError("read data package", err)
	}
	return meta, nil
}

// entryKey renders a big-endian index key so bucket iteration keeps
// insertion order.
func entryKey(i uint64) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], i)
	return k[:]
}

func encodeEntry(e *CatalogueEntry) ([]byte, error) {
	return json.Marshal(e)
}

func decodeEntry(blob []byte) (CatalogueEntry, error) {
	var e CatalogueEntry
	err := json.Unmarshal(blob, &e)
	return e, err
}
