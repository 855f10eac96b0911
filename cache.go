// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package elf2a2l

import (
	"bytes"
	"encoding/gob"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// The parse cache stores past parse results keyed by the image
// fingerprint so reopening an unchanged image skips the symbol and
// debug-info passes.

var (
	bucketCacheMeta      = []byte("cache_meta")
	bucketCacheVariables = []byte("cache_variables")
	bucketCacheEntries   = []byte("cache_entries")
)

// CacheRecord is the meta record of one cached parse.
type CacheRecord struct {
	Fingerprint   string `json:"fingerprint"`
	FilePath      string `json:"file_path"`
	FileSize      uint64 `json:"file_size"`
	VariableCount int    `json:"variable_count"`
	EntryCount    int    `json:"entry_count"`
	ParseTimeMs   int64  `json:"parse_time_ms"`
	CreatedAt     int64  `json:"created_at"`
	HasDebugInfo  bool   `json:"has_debug_info"`
}

// Cache is an open parse cache.
type Cache struct {
	db  *bolt.DB
	dir string
}

// cacheDir returns the per-user cache directory, creating it when
// absent.
func cacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		base = "."
	}
	dir := filepath.Join(base, "elf2a2l")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", ioError("create cache directory", err)
	}
	return dir, nil
}

// OpenCache opens the per-user parse cache.
func OpenCache() (*Cache, error) {
	dir, err := cacheDir()
	if err != nil {
		return nil, err
	}
	return OpenCachePath(filepath.Join(dir, "cache.db"))
}

// OpenCachePath opens a parse cache at an explicit path.
func OpenCachePath(path string) (*Cache, error) {
	db, err := bolt.Open(path, 0644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, ioError("open cache", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketCacheMeta, bucketCacheVariables,
			bucketCacheEntries} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, ioError("initialize cache", err)
	}

	return &Cache{db: db, dir: filepath.Dir(path)}, nil
}

// Close closes the cache file.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Put stores one parse result under its fingerprint, replacing any
// previous record.
func (c *Cache) Put(record CacheRecord, variables []Variable, entries []CatalogueEntry) error {
	record.CreatedAt = time.Now().Unix()
	record.VariableCount = len(variables)
	record.EntryCount = len(entries)

	key := []byte(record.Fingerprint)
	err := c.db.Update(func(tx *bolt.Tx) error {
		blob, err := gobEncode(&record)
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketCacheMeta).Put(key, blob); err != nil {
			return err
		}

		blob, err = gobEncode(&variables)
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketCacheVariables).Put(key, blob); err != nil {
			return err
		}

		blob, err = gobEncode(&entries)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketCacheEntries).Put(key, blob)
	})
	if err != nil {
		return ioError("write cache", err)
	}
	return nil
}

// Get returns the cached parse for a fingerprint, if present.
func (c *Cache) Get(fingerprint string) (*CacheRecord, []Variable, []CatalogueEntry, error) {
	var (
		record    *CacheRecord
		variables []Variable
		entries   []CatalogueEntry
	)

	key := []byte(fingerprint)
	err := c.db.View(func(tx *bolt.Tx) error {
		blob := tx.Bucket(bucketCacheMeta).Get(key)
		if blob == nil {
			return nil
		}
		var r CacheRecord
		if err := gobDecode(blob, &r); err != nil {
			return err
		}
		record = &r

		if blob := tx.Bucket(bucketCacheVariables).Get(key); blob != nil {
			if err := gobDecode(blob, &variables); err != nil {
				return err
			}
		}
		if blob := tx.Bucket(bucketCacheEntries).Get(key); blob != nil {
			if err := gobDecode(blob, &entries); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, nil, ioError("read cache", err)
	}
	return record, variables, entries, nil
}

// Delete drops one cached parse.
func (c *Cache) Delete(fingerprint string) error {
	key := []byte(fingerprint)
	err := c.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketCacheMeta, bucketCacheVariables,
			bucketCacheEntries} {
			if err := tx.Bucket(name).Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return ioError("delete cache record", err)
	}
	return nil
}

// List returns every cached meta record.
func (c *Cache) List() ([]CacheRecord, error) {
	var records []CacheRecord
	err := c.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCacheMeta).ForEach(func(_, v []byte) error {
			var r CacheRecord
			if err := gobDecode(v, &r); err != nil {
				return err
			}
			records = append(records, r)
			return nil
		})
	})
	if err != nil {
		return nil, ioError("list cache", err)
	}
	return records, nil
}

func gobEncode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gobDecode(blob []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(blob)).Decode(v)
}
