// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package elf2a2l

import (
	"sync"
)

// Session serializes access to one parsed image and its selected A2L
// document for embedding contexts (GUIs, command handlers) that may
// invoke the library from several goroutines. The library itself is
// synchronous; the mutex only prevents interleaving of whole
// operations on the shared state.
type Session struct {
	mu      sync.Mutex
	file    *File
	a2lPath string
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{}
}

// LoadImage parses the image at path and installs it as the session's
// current file, closing any previous one.
func (s *Session) LoadImage(path string, opts *Options) error {
	file, err := New(path, opts)
	if err != nil {
		return err
	}
	if err := file.Parse(); err != nil {
		file.Close()
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file != nil {
		s.file.Close()
	}
	s.file = file
	return nil
}

// Close releases the current image.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// SelectA2l records the A2L document the session edits.
func (s *Session) SelectA2l(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.a2lPath = path
}

// A2lPath returns the selected A2L document path.
func (s *Session) A2lPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a2lPath
}

// Variables returns a snapshot of the current variables.
func (s *Session) Variables() []Variable {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	out := make([]Variable, len(s.file.Variables))
	copy(out, s.file.Variables)
	return out
}

// Entries returns a snapshot of the current catalogue.
func (s *Session) Entries() []CatalogueEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil || s.file.Catalogue == nil {
		return nil
	}
	out := make([]CatalogueEntry, len(s.file.Catalogue.Entries))
	copy(out, s.file.Catalogue.Entries)
	return out
}

// ApplyEdits runs the edit list against the selected A2L document.
func (s *Session) ApplyEdits(edits []VariableEdit) (SaveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.a2lPath == "" {
		return SaveResult{}, ErrNoA2lSelected
	}
	return ApplyChangesToFile(s.a2lPath, edits)
}

// AppendEntries appends the given entries to the selected A2L
// document.
func (s *Session) AppendEntries(entries []CatalogueEntry, kind ExportKind) (AppendResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.a2lPath == "" {
		return AppendResult{}, ErrNoA2lSelected
	}
	return AppendToFile(entries, s.a2lPath, kind)
}
