// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package elf2a2l

import (
	"errors"
	"fmt"
)

// Errors
var (

	// ErrInvalidImage is returned when the file is too small for an ELF
	// header or its section-header or symbol entry sizes are too small.
	// Identification failures use ErrInvalidMagic, ErrUnsupportedClass
	// and ErrBigEndianImage.
	ErrInvalidImage = errors.New("not a valid ELF image")

	// ErrInvalidMagic is returned when the first four bytes are not
	// the ELF magic.
	ErrInvalidMagic = errors.New("ELF magic not found")

	// ErrUnsupportedClass is returned for an unknown EI_CLASS value.
	ErrUnsupportedClass = errors.New("unsupported ELF class")

	// ErrBigEndianImage is returned for big-endian images; the engine
	// consumes little-endian images only.
	ErrBigEndianImage = errors.New("big-endian images are not supported")

	// ErrOutsideBoundary is reported when attempting to read beyond
	// the image limits.
	ErrOutsideBoundary = errors.New("reading data outside boundary")

	// ErrMissingDebugInfo indicates the image carries no usable
	// .debug_info/.debug_abbrev sections. Non-fatal: the parser
	// returns an empty repository and name-based inference takes over.
	ErrMissingDebugInfo = errors.New("no debug information present")

	// ErrInvalidA2lFile is returned when an A2L document cannot be
	// edited safely, e.g. a begin line with no matching end.
	ErrInvalidA2lFile = errors.New("malformed A2L document")

	// ErrNoInsertAnchor names an A2L document with no insertion point
	// for new blocks. The editor does not return it: an append with no
	// anchor goes to the end of the text.
	ErrNoInsertAnchor = errors.New("no insertion anchor found in A2L document")

	// ErrNotParsed names a catalogue request made before Parse ran. No
	// function of the package returns it; Session.Entries returns nil
	// in that case.
	ErrNotParsed = errors.New("image has not been parsed yet")

	// ErrIoFailure is wrapped into every file system failure.
	ErrIoFailure = errors.New("I/O failure")

	// ErrNoA2lSelected is returned when a session edit runs before an
	// A2L document was selected.
	ErrNoA2lSelected = errors.New("no A2L document selected")
)

// ioError wraps a file system failure with a short domain message.
func ioError(op string, err error) error {
	return fmt.Errorf("%s failed: %w: %w", op, ErrIoFailure, err)
}

// FormatFileSize renders a byte count in human units.
func FormatFileSize(size uint64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)

	switch {
	case size >= gb:
		return fmt.Sprintf("%.2f GB", float64(size)/float64(gb))
	case size >= mb:
		return fmt.Sprintf("%.2f MB", float64(size)/float64(mb))
	case size >= kb:
		return fmt.Sprintf("%.2f KB", float64(size)/float64(kb))
	default:
		return fmt.Sprintf("%d B", size)
	}
}
