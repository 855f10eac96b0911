// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	elf2a2l "github.com/saferwall/elf2a2l"
)

func newEditCommand() *cobra.Command {

	var editsPath string

	editCmd := &cobra.Command{
		Use:   "edit <a2l>",
		Short: "Apply a JSON edit list to an A2L document in place",
		Long: `Reads an ordered list of edits ({"action": "modify"|"delete"|"add",
...}) from a JSON file and applies it to the document. The document is
rewritten only when no edit fails; skipped edits do not prevent it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			blob, err := os.ReadFile(editsPath)
			if err != nil {
				return fmt.Errorf("read edits: %w", err)
			}

			var edits []elf2a2l.VariableEdit
			if err := json.Unmarshal(blob, &edits); err != nil {
				return fmt.Errorf("decode edits: %w", err)
			}

			result, err := elf2a2l.ApplyChangesToFile(args[0], edits)
			if err != nil {
				return err
			}
			fmt.Printf("modified %d, deleted %d, added %d, skipped %d\n",
				result.Modified, result.Deleted, result.Added, result.Skipped)
			return nil
		},
	}

	editCmd.Flags().StringVarP(&editsPath, "edits", "e", "edits.json",
		"path to the JSON edit list")

	return editCmd
}
