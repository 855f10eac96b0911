// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package elf2a2l

import (
	"os"
	"strings"

	mmap "github.com/edsrzf/mmap-go"
	"github.com/saferwall/elf2a2l/log"
)

// A File represents an open ELF image.
type File struct {
	FileHeader ImageFileHeader `json:"file_header"`
	Sections   []Section       `json:"sections,omitempty"`
	Symbols    []ImageSymbol   `json:"symbols,omitempty"`

	// Variables are the addressable data globals retained from the
	// symbol table, sorted by name.
	Variables []Variable `json:"variables,omitempty"`

	// Types is the offset-keyed repository built from the debug-info
	// sections. Empty when the image carries no debug info.
	Types TypeRepository `json:"-"`

	// VariableTypes maps variable names to repository offsets.
	VariableTypes map[string]uint64 `json:"-"`

	// Catalogue is the flat leaf catalogue produced by the expander.
	Catalogue *Catalogue `json:"-"`

	// Stats counts the debug-info entries seen per tag kind.
	Stats DebugInfoStats `json:"stats"`

	// ExpandStats counts the expansion guard triggers.
	ExpandStats ExpandStats `json:"expand_stats"`

	// HasDebugInfo reports whether usable debug-info sections were
	// found and parsed.
	HasDebugInfo bool `json:"has_debug_info"`

	Is64 bool `json:"is_64"`

	// Side tables filled by the debug-info walk and consumed by the
	// reference resolver.
	typeRefs   map[uint64]uint64
	arrayElems map[uint64]uint64

	data   mmap.MMap
	size   uint64
	f      *os.File
	opts   *Options
	logger *log.Helper
}

// Options for parsing.
type Options struct {

	// Parse only the symbol table and skip debug info and expansion,
	// by default (false).
	Fast bool

	// Bit-order interpretation for bitfield offsets, by default
	// (BigBitOrder: raw pass-through).
	BitOrder BitOrder

	// Maximum total element count for which arrays are expanded, by
	// default (MaxArrayExpand).
	MaxArrayExpand uint64

	// Maximum recursion depth of the leaf expander, by default
	// (MaxNestingDepth).
	MaxNestingDepth int

	// A custom logger.
	Logger log.Logger
}

// New instantiates a file instance with options given a file name.
func New(name string, opts *Options) (*File, error) {

	f, err := os.Open(name)
	if err != nil {
		return nil, ioError("open", err)
	}

	// Memory map the file instead of using read/write.
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, ioError("mmap", err)
	}

	file := newFile(data, opts)
	file.f = f
	return file, nil
}

// NewBytes instantiates a file instance with options given a memory
// buffer.
func NewBytes(data []byte, opts *Options) (*File, error) {
	return newFile(data, opts), nil
}

func newFile(data []byte, opts *Options) *File {
	file := File{}
	if opts != nil {
		file.opts = opts
	} else {
		file.opts = &Options{}
	}

	if file.opts.MaxArrayExpand == 0 {
		file.opts.MaxArrayExpand = MaxArrayExpand
	}
	if file.opts.MaxNestingDepth == 0 {
		file.opts.MaxNestingDepth = MaxNestingDepth
	}

	if file.opts.Logger == nil {
		file.logger = log.NewHelper(log.NewFilter(log.DefaultLogger,
			log.FilterLevel(log.LevelError)))
	} else {
		file.logger = log.NewHelper(file.opts.Logger)
	}

	file.data = data
	file.size = uint64(len(data))
	file.Types = make(TypeRepository)
	file.VariableTypes = make(map[string]uint64)
	file.typeRefs = make(map[uint64]uint64)
	file.arrayElems = make(map[uint64]uint64)
	return &file
}

// Close closes the File.
func (f *File) Close() error {
	if f.f != nil {
		_ = f.data.Unmap()
		f.data = nil
		return f.f.Close()
	}
	f.data = nil
	return nil
}

// Size returns the image size in bytes.
func (f *File) Size() uint64 {
	return f.size
}

// Parse performs the full parse of an ELF image: headers, sections,
// symbols, debug info, reference resolution and leaf expansion.
func (f *File) Parse() error {

	err := f.ParseFileHeader()
	if err != nil {
		return err
	}

	err = f.ParseSectionHeaders()
	if err != nil {
		return err
	}

	err = f.ParseSymbolTable()
	if err != nil {
		f.logger.Warnf("symbol table parsing failed: %v", err)
	}

	f.ExtractVariables()

	// In fast mode, stop after the symbol pass.
	if f.opts.Fast {
		return nil
	}

	err = f.ParseDebugInfo()
	if err != nil {
		// Missing debug info is recovered locally: the name-based
		// inferrer supplies types below.
		f.logger.Debugf("debug info parsing skipped: %v", err)
	}

	f.Resolve()
	f.attachVariableTypes()
	f.Expand()

	return nil
}

// attachVariableTypes binds each variable to its resolved descriptor,
// falling back to name-based inference.
func (f *File) attachVariableTypes() {
	for i := range f.Variables {
		v := &f.Variables[i]
		if offset, ok := f.VariableTypes[v.Name]; ok {
			if td := f.Types.Get(offset); td != nil {
				v.Type = td
				if td.Name != "" {
					v.TypeName = td.Name
				}
				continue
			}
		}
		td := InferTypeFromName(v.Name, v.Size)
		v.Type = td
		v.TypeName = td.Name
	}
}

// Search returns the variables whose name contains pattern,
// case-insensitively.
func (f *File) Search(pattern string) []*Variable {
	lower := strings.ToLower(pattern)
	var out []*Variable
	for i := range f.Variables {
		if strings.Contains(strings.ToLower(f.Variables[i].Name), lower) {
			out = append(out, &f.Variables[i])
		}
	}
	return out
}

// VariableByName returns the variable with the given name.
func (f *File) VariableByName(name string) *Variable {
	for i := range f.Variables {
		if f.Variables[i].Name == name {
			return &f.Variables[i]
		}
	}
	return nil
}
