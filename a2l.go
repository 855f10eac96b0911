// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package elf2a2l

import (
	"fmt"
	"os"
	"strings"
)

// ExportKind selects the block template used when rendering entries.
type ExportKind int

const (
	// ExportMeasurement renders MEASUREMENT blocks.
	ExportMeasurement ExportKind = iota

	// ExportCharacteristic renders CHARACTERISTIC blocks.
	ExportCharacteristic
)

// ParseExportKind maps the wire spelling of an export mode onto an
// ExportKind; anything other than "characteristic" is a measurement.
func ParseExportKind(s string) ExportKind {
	if strings.EqualFold(s, "characteristic") {
		return ExportCharacteristic
	}
	return ExportMeasurement
}

// bitfieldMax is the display upper limit of a bitfield entry.
func bitfieldMax(bitSize uint64) uint64 {
	return (uint64(1) << bitSize) - 1
}

// MeasurementBlock renders one catalogue entry as an A2L MEASUREMENT
// block.
func MeasurementBlock(e *CatalogueEntry) string {
	tag := e.A2lType
	minVal, maxVal := minMax(tag)
	if e.IsBitfield() {
		minVal = "0"
		maxVal = fmt.Sprintf("%d", bitfieldMax(*e.BitSize))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "    /begin MEASUREMENT %s \"\"\n", e.FullName)
	fmt.Fprintf(&b, "      %s NO_COMPU_METHOD 0 0 %s %s\n", tag, minVal, maxVal)
	if e.IsBitfield() {
		fmt.Fprintf(&b, "      BIT_MASK 0x%X\n", e.BitMask())
	}
	fmt.Fprintf(&b, "      ECU_ADDRESS 0x%08X\n", e.Address)
	b.WriteString("      ECU_ADDRESS_EXTENSION 0x0\n")
	fmt.Fprintf(&b, "      FORMAT \"%s\"\n", formatString(tag))
	fmt.Fprintf(&b, "      SYMBOL_LINK \"%s\" 0\n", e.FullName)
	b.WriteString("    /end MEASUREMENT\n\n")
	return b.String()
}

// CharacteristicBlock renders one catalogue entry as an A2L
// CHARACTERISTIC block.
func CharacteristicBlock(e *CatalogueEntry) string {
	tag := e.A2lType
	_, maxVal := minMax(tag)
	if e.IsBitfield() {
		maxVal = fmt.Sprintf("%d", bitfieldMax(*e.BitSize))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "    /begin CHARACTERISTIC %s \"\"\n", e.FullName)
	fmt.Fprintf(&b, "      VALUE 0x%08X %s 0 NO_COMPU_METHOD 0 %s\n",
		e.Address, recordLayout(tag), maxVal)
	if e.IsBitfield() {
		fmt.Fprintf(&b, "      BIT_MASK 0x%X\n", e.BitMask())
	}
	fmt.Fprintf(&b, "      EXTENDED_LIMITS 0 %s\n", maxVal)
	fmt.Fprintf(&b, "      SYMBOL_LINK \"%s\" 0\n", e.FullName)
	b.WriteString("    /end CHARACTERISTIC\n\n")
	return b.String()
}

// renderBlock renders an entry with the template selected by kind.
func renderBlock(e *CatalogueEntry, kind ExportKind) string {
	if kind == ExportCharacteristic {
		return CharacteristicBlock(e)
	}
	return MeasurementBlock(e)
}

// Generator accumulates variables and catalogue entries and renders a
// complete standalone A2L document around them.
type Generator struct {
	projectName string
	moduleName  string
	variables   []Variable
	entries     []CatalogueEntry
}

// NewGenerator returns a Generator for the given project and module
// names.
func NewGenerator(projectName, moduleName string) *Generator {
	return &Generator{projectName: projectName, moduleName: moduleName}
}

// AddVariable queues a raw variable for emission.
func (g *Generator) AddVariable(v Variable) {
	g.variables = append(g.variables, v)
}

// AddVariables queues raw variables for emission.
func (g *Generator) AddVariables(vars []Variable) {
	g.variables = append(g.variables, vars...)
}

// AddEntry queues a catalogue entry for emission.
func (g *Generator) AddEntry(e CatalogueEntry) {
	g.entries = append(g.entries, e)
}

// AddEntries queues catalogue entries for emission.
func (g *Generator) AddEntries(entries []CatalogueEntry) {
	g.entries = append(g.entries, entries...)
}

// Count returns the number of queued items.
func (g *Generator) Count() int {
	return len(g.variables) + len(g.entries)
}

// Clear drops all queued items.
func (g *Generator) Clear() {
	g.variables = nil
	g.entries = nil
}

// Generate renders the full document: ASAP2 version, project/module
// scaffold, a placeholder characteristic, the NO_COMPU_METHOD stub,
// then one MEASUREMENT per queued item.
func (g *Generator) Generate() string {
	var b strings.Builder

	b.WriteString("/begin ASAP2_VERSION\n")
	b.WriteString("  1 71\n")
	b.WriteString("/end ASAP2_VERSION\n\n")

	fmt.Fprintf(&b, "/begin PROJECT %s \"\"\n", g.projectName)
	fmt.Fprintf(&b, "  /begin MODULE %s \"\"\n", g.moduleName)

	b.WriteString("    /begin CHARACTERISTIC __PLACEHOLDER__ \"\"\n")
	b.WriteString("      VALUE 0x0 NO_COMPU_METHOD 0 0 0 0\n")
	b.WriteString("    /end CHARACTERISTIC\n\n")

	b.WriteString("    /begin COMPU_METHOD\n")
	b.WriteString("      NO_COMPU_METHOD \"\" NO_COMPU_VTAB \"\" \"\" \"\"\n")
	b.WriteString("    /end COMPU_METHOD\n\n")

	for i := range g.variables {
		v := &g.variables[i]
		e := CatalogueEntry{
			FullName: v.Name,
			Address:  v.Address,
			Size:     v.Size,
			A2lType:  ScalarTagFromName(v.Size, v.TypeName),
			TypeName: v.TypeName,
		}
		b.WriteString(MeasurementBlock(&e))
	}

	for i := range g.entries {
		b.WriteString(MeasurementBlock(&g.entries[i]))
	}

	b.WriteString("  /end MODULE\n")
	b.WriteString("/end PROJECT\n")

	return b.String()
}

// Save writes the generated document to path.
func (g *Generator) Save(path string) error {
	if err := os.WriteFile(path, []byte(g.Generate()), 0644); err != nil {
		return ioError("write A2L", err)
	}
	return nil
}
