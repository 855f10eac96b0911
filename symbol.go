// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package elf2a2l

import (
	"sort"
	"strings"
)

// dataSectionFragments are the section-name fragments that mark a
// symbol as an addressable data global.
var dataSectionFragments = []string{"data", "bss", "rodata"}

// isDataSection reports whether a section name denotes target data
// memory. Unnamed sections fail the test; any dotted section name
// passes as a fallback for exotic linker scripts.
func isDataSection(name string) bool {
	for _, frag := range dataSectionFragments {
		if strings.Contains(name, frag) {
			return true
		}
	}
	return strings.HasPrefix(name, ".")
}

// ExtractVariables walks the parsed symbol table and retains the
// addressable data globals: named, non-dotted, sized, and living in a
// data-like section. The result is deduplicated by name and sorted
// lexicographically.
func (f *File) ExtractVariables() {

	seen := make(map[string]bool)
	variables := make([]Variable, 0, len(f.Symbols))

	for i := range f.Symbols {
		sym := &f.Symbols[i]

		name := sym.Name
		if name == "" || strings.HasPrefix(name, ".") {
			continue
		}
		if seen[name] {
			continue
		}
		if sym.Value == 0 && sym.Size == 0 {
			continue
		}
		if sym.Size == 0 {
			continue
		}

		// A reserved or out-of-range section index yields an empty
		// tag; the lookup failure is not fatal, but an empty tag
		// never matches the data filter.
		section := f.sectionName(sym.SectionIndex)
		if !isDataSection(section) {
			continue
		}

		variables = append(variables, Variable{
			Name:     name,
			Address:  sym.Value,
			Size:     sym.Size,
			TypeName: inferTypeNameFromSize(sym.Size),
			Section:  section,
		})
		seen[name] = true
	}

	sort.Slice(variables, func(i, j int) bool {
		return variables[i].Name < variables[j].Name
	})

	f.Variables = variables
}
