// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package elf2a2l

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// The editor operates line-oriented on block boundaries and preserves
// everything it does not understand byte for byte. Re-emitting the
// document from a parsed tree would destroy the idiosyncratic layout
// downstream tools rely on.

// VariableChanges is the field-wise change record of one modify edit.
// Nil fields keep the original value.
type VariableChanges struct {
	Name     *string `json:"name,omitempty"`
	Address  *string `json:"address,omitempty"`
	DataType *string `json:"data_type,omitempty"`
	VarType  *string `json:"var_type,omitempty"`
	BitMask  *uint64 `json:"bit_mask,omitempty"`
}

// VariableEdit is one element of the ordered edit list consumed by
// ApplyChanges.
type VariableEdit struct {
	Action       string           `json:"action"` // "modify", "delete" or "add"
	OriginalName string           `json:"original_name"`
	Changes      *VariableChanges `json:"changes,omitempty"`
	Entry        *CatalogueEntry  `json:"entry,omitempty"`
	ExportMode   string           `json:"export_mode,omitempty"`
}

// SaveResult counts the outcomes of one ApplyChanges call.
type SaveResult struct {
	Modified int `json:"modified"`
	Deleted  int `json:"deleted"`
	Added    int `json:"added"`
	Skipped  int `json:"skipped"`
}

// AppendResult counts the outcome of one append pass.
type AppendResult struct {
	Added    int `json:"added"`
	Skipped  int `json:"skipped"`
	Existing int `json:"existing"`
}

// A2lVariable is the read-back projection of one block.
type A2lVariable struct {
	Name     string `json:"name"`
	Address  string `json:"address,omitempty"`
	VarType  string `json:"var_type"`  // "MEASUREMENT" or "CHARACTERISTIC"
	DataType string `json:"data_type"` // scalar tag, e.g. "UWORD"
}

// a2lBlock is one located MEASUREMENT/CHARACTERISTIC block.
type a2lBlock struct {
	beginLine     int
	endLine       int
	name          string
	isMeasurement bool
}

// splitLines splits content into lines, normalizing CRLF to LF.
func splitLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	return strings.Split(content, "\n")
}

// subjectName extracts the block's subject from a begin line: the
// third whitespace-separated token, unless it reads as a number or as
// one of the known scalar tags.
func subjectName(trimmed string) string {
	parts := strings.Fields(trimmed)
	if len(parts) < 3 {
		return ""
	}
	candidate := parts[2]
	if _, err := strconv.ParseFloat(candidate, 64); err == nil {
		return ""
	}
	if knownScalarTags[candidate] {
		return ""
	}
	if strings.HasPrefix(candidate, "\"") {
		return ""
	}
	return candidate
}

// scanBlocks walks the document once and locates every top-level
// MEASUREMENT/CHARACTERISTIC block. A begin line with no matching end
// makes the document unsafe to edit.
func scanBlocks(lines []string) ([]a2lBlock, error) {
	var blocks []a2lBlock

	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])

		var isMeasurement bool
		switch {
		case strings.HasPrefix(trimmed, "/begin MEASUREMENT "):
			isMeasurement = true
		case strings.HasPrefix(trimmed, "/begin CHARACTERISTIC "):
			isMeasurement = false
		default:
			continue
		}

		endMarker := "/end CHARACTERISTIC"
		if isMeasurement {
			endMarker = "/end MEASUREMENT"
		}

		end := -1
		for j := i + 1; j < len(lines); j++ {
			if strings.HasPrefix(strings.TrimSpace(lines[j]), endMarker) {
				end = j
				break
			}
		}
		if end < 0 {
			return nil, fmt.Errorf("%w: unterminated block at line %d",
				ErrInvalidA2lFile, i+1)
		}

		blocks = append(blocks, a2lBlock{
			beginLine:     i,
			endLine:       end,
			name:          subjectName(trimmed),
			isMeasurement: isMeasurement,
		})
		i = end
	}

	return blocks, nil
}

// ExistingNames returns the set of subject names present in the
// document.
func ExistingNames(content string) map[string]bool {
	names := make(map[string]bool)
	blocks, err := scanBlocks(splitLines(content))
	if err != nil {
		return names
	}
	for _, b := range blocks {
		if b.name != "" {
			names[b.name] = true
		}
	}
	return names
}

// RemoveBlocks deletes every block whose subject is in names and
// returns the new text along with the number of blocks removed. All
// unrelated lines pass through verbatim.
func RemoveBlocks(content string, names []string) (string, int, error) {
	nameSet := make(map[string]bool, len(names))
	for _, n := range names {
		nameSet[n] = true
	}

	lines := splitLines(content)
	blocks, err := scanBlocks(lines)
	if err != nil {
		return "", 0, err
	}

	drop := make(map[int]int) // begin line -> end line
	removed := 0
	for _, b := range blocks {
		if b.name != "" && nameSet[b.name] {
			drop[b.beginLine] = b.endLine
			removed++
		}
	}

	var out strings.Builder
	for i := 0; i < len(lines); i++ {
		if end, ok := drop[i]; ok {
			i = end
			continue
		}
		out.WriteString(lines[i])
		if i < len(lines)-1 {
			out.WriteByte('\n')
		}
	}

	return out.String(), removed, nil
}

// ModifyBlock rewrites the block whose subject is originalName
// according to changes and returns the new text. The second result is
// false when no block carries that subject.
func ModifyBlock(content, originalName string, changes *VariableChanges) (string, bool, error) {
	lines := splitLines(content)
	blocks, err := scanBlocks(lines)
	if err != nil {
		return "", false, err
	}

	for _, b := range blocks {
		if b.name != originalName || b.name == "" {
			continue
		}

		rewritten := rewriteBlock(lines[b.beginLine:b.endLine+1], changes,
			b.isMeasurement)

		var out strings.Builder
		for i := 0; i < b.beginLine; i++ {
			out.WriteString(lines[i])
			out.WriteByte('\n')
		}
		out.WriteString(rewritten)
		for i := b.endLine + 1; i < len(lines); i++ {
			out.WriteString(lines[i])
			if i < len(lines)-1 {
				out.WriteByte('\n')
			}
		}
		return out.String(), true, nil
	}

	return content, false, nil
}

// indentOf returns the leading whitespace of a line.
func indentOf(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

// rewriteBlock applies a change record to one block's lines. A kind
// change regenerates the whole block from the changed fields; any
// other change walks the lines, replacing the subject, address, type
// tag and the lines derived from them, preserving indentation.
func rewriteBlock(blockLines []string, changes *VariableChanges, isMeasurement bool) string {

	var originalName, originalAddress, originalDataType string
	for _, line := range blockLines {
		trimmed := strings.TrimSpace(line)
		parts := strings.Fields(trimmed)
		if len(parts) == 0 {
			continue
		}
		if strings.HasPrefix(trimmed, "/begin MEASUREMENT ") ||
			strings.HasPrefix(trimmed, "/begin CHARACTERISTIC ") {
			if len(parts) >= 3 {
				originalName = parts[2]
			}
			continue
		}
		if idx := indexOf(parts, "ECU_ADDRESS"); idx >= 0 && idx+1 < len(parts) {
			originalAddress = parts[idx+1]
		}
		if knownScalarTags[parts[0]] {
			originalDataType = parts[0]
		}
	}

	finalName := stringOr(changes.Name, originalName)
	finalAddress := stringOr(changes.Address, originalAddress)
	finalDataType := stringOr(changes.DataType, originalDataType)

	toCharacteristic := changes.VarType != nil &&
		*changes.VarType == "CHARACTERISTIC" && isMeasurement
	toMeasurement := changes.VarType != nil &&
		*changes.VarType == "MEASUREMENT" && !isMeasurement

	if toCharacteristic || toMeasurement {
		// Kind conversion regenerates the block. The byte size is
		// not recoverable from the text, so 4 is assumed; the
		// rendered block derives its fields from the tag, which
		// keeps the assumption latent.
		entry := CatalogueEntry{
			FullName: finalName,
			Address:  parseHex(finalAddress),
			Size:     4,
			A2lType:  finalDataType,
		}
		if changes.BitMask != nil {
			// A caller-supplied mask survives the conversion.
			bits, offset := maskToBits(*changes.BitMask)
			entry.BitOffset = &offset
			entry.BitSize = &bits
		}
		if toCharacteristic {
			return CharacteristicBlock(&entry)
		}
		return MeasurementBlock(&entry)
	}

	var out strings.Builder
	for _, line := range blockLines {
		trimmed := strings.TrimSpace(line)
		indent := indentOf(line)

		switch {
		case strings.HasPrefix(trimmed, "/begin MEASUREMENT ") ||
			strings.HasPrefix(trimmed, "/begin CHARACTERISTIC "):
			blockType := "CHARACTERISTIC"
			if isMeasurement {
				blockType = "MEASUREMENT"
			}
			fmt.Fprintf(&out, "%s/begin %s %s \"\"\n", indent, blockType, finalName)

		case strings.HasPrefix(trimmed, "ECU_ADDRESS ") &&
			!strings.HasPrefix(trimmed, "ECU_ADDRESS_EXTENSION"):
			fmt.Fprintf(&out, "%sECU_ADDRESS %s\n", indent, finalAddress)

		case strings.HasPrefix(trimmed, "SYMBOL_LINK"):
			fmt.Fprintf(&out, "%sSYMBOL_LINK \"%s\" 0\n", indent, finalName)

		case strings.Contains(trimmed, "LINK_MAP"):
			fmt.Fprintf(&out, "%sLINK_MAP \"%s\" 0x%X 0 0 0 0\n", indent,
				finalName, parseHex(finalAddress))

		case strings.HasPrefix(trimmed, "BIT_MASK ") && changes.BitMask != nil:
			fmt.Fprintf(&out, "%sBIT_MASK 0x%X\n", indent, *changes.BitMask)

		case originalDataType != "" && strings.HasPrefix(trimmed, originalDataType):
			parts := strings.Fields(trimmed)
			if len(parts) >= 6 {
				minVal, maxVal := minMax(finalDataType)
				fmt.Fprintf(&out, "%s%s NO_COMPU_METHOD 0 0 %s %s\n", indent,
					finalDataType, minVal, maxVal)
			} else {
				out.WriteString(line)
				out.WriteByte('\n')
			}

		case isMeasurement && strings.HasPrefix(trimmed, "FORMAT"):
			fmt.Fprintf(&out, "%sFORMAT \"%s\"\n", indent,
				formatString(finalDataType))

		case isMeasurement && strings.HasPrefix(trimmed, "DISPLAY"):
			parts := strings.Fields(trimmed)
			if len(parts) >= 2 {
				minVal, maxVal := minMax(finalDataType)
				fmt.Fprintf(&out, "%sDISPLAY %s %s %s\n", indent, parts[1],
					minVal, maxVal)
			} else {
				out.WriteString(line)
				out.WriteByte('\n')
			}

		default:
			out.WriteString(line)
			out.WriteByte('\n')
		}
	}
	return out.String()
}

// findInsertPos locates where new blocks are spliced in: before the
// first GROUP, else before the last `/end MEASUREMENT` line, else
// before the last `/end CHARACTERISTIC` line, else before the module
// end, else at end of text. The position is then shifted to
// the start of its line when only whitespace precedes it there, so the
// new block keeps the enclosing indentation.
func findInsertPos(content string) int {
	pos := strings.Index(content, "/begin GROUP")
	if pos < 0 {
		if p := strings.LastIndex(content, "/end MEASUREMENT"); p >= 0 {
			pos = p
		} else if p := strings.LastIndex(content, "/end CHARACTERISTIC"); p >= 0 {
			pos = p
		} else if p := strings.LastIndex(content, "/end MODULE"); p >= 0 {
			pos = p
		} else {
			return len(content)
		}
	}

	lineStart := strings.LastIndexByte(content[:pos], '\n') + 1
	if strings.TrimSpace(content[lineStart:pos]) == "" {
		return lineStart
	}
	return pos
}

// AppendBlocks renders the given entries with the selected template
// and splices the new blocks into the document, skipping entries whose
// subject already exists.
func AppendBlocks(content string, entries []CatalogueEntry, kind ExportKind) (string, AppendResult, error) {
	lines := splitLines(content)
	normalized := strings.Join(lines, "\n")

	scanned, err := scanBlocks(lines)
	if err != nil {
		return "", AppendResult{}, err
	}
	existing := make(map[string]bool, len(scanned))
	for _, b := range scanned {
		if b.name != "" {
			existing[b.name] = true
		}
	}
	result := AppendResult{Existing: len(existing)}

	var blocks strings.Builder
	for i := range entries {
		if existing[entries[i].FullName] {
			result.Skipped++
			continue
		}
		blocks.WriteString(renderBlock(&entries[i], kind))
		result.Added++
	}

	if result.Added == 0 {
		return normalized, result, nil
	}

	pos := findInsertPos(normalized)
	return normalized[:pos] + blocks.String() + normalized[pos:], result, nil
}

// ParseVariables reads back the name, address and scalar tag of every
// MEASUREMENT/CHARACTERISTIC block in the document.
func ParseVariables(content string) ([]A2lVariable, error) {
	lines := splitLines(content)
	blocks, err := scanBlocks(lines)
	if err != nil {
		return nil, err
	}

	vars := make([]A2lVariable, 0, len(blocks))
	for _, b := range blocks {
		v := A2lVariable{Name: b.name, VarType: "CHARACTERISTIC"}
		if b.isMeasurement {
			v.VarType = "MEASUREMENT"
		}

		for i := b.beginLine + 1; i < b.endLine; i++ {
			trimmed := strings.TrimSpace(lines[i])
			if trimmed == "" || strings.HasPrefix(trimmed, "/") {
				continue
			}
			parts := strings.Fields(trimmed)
			if len(parts) == 0 {
				continue
			}
			if knownScalarTags[parts[0]] {
				v.DataType = parts[0]
			}
			if idx := indexOf(parts, "ECU_ADDRESS"); idx >= 0 && idx+1 < len(parts) {
				v.Address = parts[idx+1]
			}
			if !b.isMeasurement {
				if idx := indexOf(parts, "VALUE"); idx >= 0 && idx+1 < len(parts) {
					v.Address = parts[idx+1]
				}
				if len(parts) >= 3 && parts[0] == "VALUE" {
					// VALUE <addr> <layout> …: recover the tag from
					// the record layout when no tag line is present.
					if tag := tagFromRecordLayout(parts[2]); tag != "" && v.DataType == "" {
						v.DataType = tag
					}
				}
			}
		}
		vars = append(vars, v)
	}
	return vars, nil
}

// ApplyChanges applies the ordered edit list on the evolving text and
// returns the full new document with the outcome counters. The call is
// all-or-nothing: any structural failure returns the error and no
// text.
func ApplyChanges(content string, edits []VariableEdit) (string, SaveResult, error) {
	result := SaveResult{}
	text := strings.Join(splitLines(content), "\n")

	for i := range edits {
		edit := &edits[i]
		switch edit.Action {

		case "modify":
			if edit.Changes == nil {
				continue
			}
			newText, ok, err := ModifyBlock(text, edit.OriginalName, edit.Changes)
			if err != nil {
				return "", result, err
			}
			if !ok {
				result.Skipped++
				continue
			}
			text = newText
			result.Modified++

		case "delete":
			newText, removed, err := RemoveBlocks(text, []string{edit.OriginalName})
			if err != nil {
				return "", result, err
			}
			// Deleting a name that is not present is a no-op.
			text = newText
			result.Deleted += removed

		case "add":
			if edit.Entry == nil {
				continue
			}
			newText, appendResult, err := AppendBlocks(text,
				[]CatalogueEntry{*edit.Entry}, ParseExportKind(edit.ExportMode))
			if err != nil {
				return "", result, err
			}
			text = newText
			result.Added += appendResult.Added
			result.Skipped += appendResult.Skipped
		}
	}

	return text, result, nil
}

// AppendToFile runs AppendBlocks against the document at path and
// writes the result back in one step.
func AppendToFile(entries []CatalogueEntry, path string, kind ExportKind) (AppendResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return AppendResult{}, ioError("read A2L", err)
	}
	text, result, err := AppendBlocks(string(content), entries, kind)
	if err != nil {
		return result, err
	}
	if result.Added == 0 {
		return result, nil
	}
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return result, ioError("write A2L", err)
	}
	return result, nil
}

// PreviewAppend reports what AppendToFile would do without touching
// the document.
func PreviewAppend(entries []CatalogueEntry, path string) (AppendResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return AppendResult{}, ioError("read A2L", err)
	}
	existing := ExistingNames(string(content))
	result := AppendResult{Existing: len(existing)}
	for i := range entries {
		if existing[entries[i].FullName] {
			result.Skipped++
		} else {
			result.Added++
		}
	}
	return result, nil
}

// ApplyChangesToFile runs ApplyChanges against the document at path
// and writes the result back. The write happens only when no edit
// fails; skipped edits do not prevent it.
func ApplyChangesToFile(path string, edits []VariableEdit) (SaveResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return SaveResult{}, ioError("read A2L", err)
	}
	text, result, err := ApplyChanges(string(content), edits)
	if err != nil {
		return result, err
	}
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return result, ioError("write A2L", err)
	}
	return result, nil
}

// indexOf returns the position of needle in parts, or -1.
func indexOf(parts []string, needle string) int {
	for i, p := range parts {
		if p == needle {
			return i
		}
	}
	return -1
}

func stringOr(p *string, fallback string) string {
	if p != nil && *p != "" {
		return *p
	}
	return fallback
}

// parseHex parses a 0x-prefixed or bare hex literal, returning 0 on
// failure.
func parseHex(s string) uint64 {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0
	}
	return v
}

// maskToBits decomposes a contiguous bit mask into (size, offset).
func maskToBits(mask uint64) (uint64, uint64) {
	if mask == 0 {
		return 0, 0
	}
	offset := uint64(0)
	for mask&1 == 0 {
		mask >>= 1
		offset++
	}
	size := uint64(0)
	for mask&1 == 1 {
		mask >>= 1
		size++
	}
	return size, offset
}

// tagFromRecordLayout inverts the record-layout table.
func tagFromRecordLayout(layout string) string {
	switch layout {
	case "__UByte_Value":
		return TagUByte
	case "__SByte_Value":
		return TagSByte
	case "__UWord_Value":
		return TagUWord
	case "__SWord_Value":
		return TagSWord
	case "__ULong_Value":
		return TagULong
	case "__SLong_Value":
		return TagSLong
	case "__UInt64_Value":
		return TagUInt64
	case "__Int64_Value":
		return TagInt64
	case "__Float32_Value":
		return TagFloat32
	case "__Float64_Value":
		return TagFloat64
	default:
		return ""
	}
}
