// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	elf2a2l "github.com/saferwall/elf2a2l"
)

func newExportCommand() *cobra.Command {

	var (
		out       string
		appendA2l string
		mode      string
		project   string
		module    string
	)

	exportCmd := &cobra.Command{
		Use:   "export <image>",
		Short: "Render the catalogue as A2L, standalone or appended",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseImage(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			if f.Catalogue == nil || f.Catalogue.Len() == 0 {
				return fmt.Errorf("no catalogue entries to export")
			}

			if appendA2l != "" {
				result, err := elf2a2l.AppendToFile(f.Catalogue.Entries,
					appendA2l, elf2a2l.ParseExportKind(mode))
				if err != nil {
					return err
				}
				fmt.Printf("added %d, skipped %d (of %d existing) in %s\n",
					result.Added, result.Skipped, result.Existing, appendA2l)
				return nil
			}

			gen := elf2a2l.NewGenerator(project, module)
			gen.AddEntries(f.Catalogue.Entries)
			if err := gen.Save(out); err != nil {
				return err
			}
			fmt.Printf("wrote %d entries to %s\n", f.Catalogue.Len(), out)
			return nil
		},
	}

	exportCmd.Flags().StringVarP(&out, "out", "o", "out.a2l",
		"output path for a standalone document")
	exportCmd.Flags().StringVar(&appendA2l, "append", "",
		"append blocks to this existing A2L document instead")
	exportCmd.Flags().StringVar(&mode, "mode", defaultMode,
		"block kind: measurement or characteristic")
	exportCmd.Flags().StringVar(&project, "project", defaultProject,
		"PROJECT name for standalone documents")
	exportCmd.Flags().StringVar(&module, "module", defaultModule,
		"MODULE name for standalone documents")

	return exportCmd
}
