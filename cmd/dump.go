// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	elf2a2l "github.com/saferwall/elf2a2l"
)

func prettyPrint(iface interface{}) string {
	var prettyJSON bytes.Buffer
	buff, _ := json.Marshal(iface)
	err := json.Indent(&prettyJSON, buff, "", "\t")
	if err != nil {
		return string(buff)
	}
	return prettyJSON.String()
}

func newDumpCommand() *cobra.Command {

	var (
		wantVariables bool
		wantEntries   bool
		wantStats     bool
		wantPackage   bool
		asJSON        bool
		search        string
	)

	dumpCmd := &cobra.Command{
		Use:   "dump <image>",
		Short: "Parse an image and dump variables, entries or statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			f, err := parseImage(path)
			if err != nil {
				return err
			}
			defer f.Close()

			if wantStats {
				if asJSON {
					fmt.Println(prettyPrint(f.Stats))
				} else {
					fmt.Printf("debug info: %v\n", f.HasDebugInfo)
					fmt.Printf("base types: %d, structs: %d, unions: %d, enums: %d\n",
						f.Stats.BaseTypes, f.Stats.Structs, f.Stats.Unions,
						f.Stats.Enums)
					fmt.Printf("arrays: %d, pointers: %d, typedefs: %d\n",
						f.Stats.Arrays, f.Stats.Pointers, f.Stats.Typedefs)
					fmt.Printf("variables: %d, members: %d, enum values: %d\n",
						f.Stats.Variables, f.Stats.StructMembers,
						f.Stats.EnumValues)
					fmt.Printf("guards: %d deep branches, %d wide arrays\n",
						f.ExpandStats.DepthTruncated,
						f.ExpandStats.ArraysSuppressed)
				}
			}

			if wantVariables {
				variables := f.Variables
				if search != "" {
					found := f.Search(search)
					variables = make([]elf2a2l.Variable, 0, len(found))
					for _, v := range found {
						variables = append(variables, *v)
					}
				}
				if asJSON {
					fmt.Println(prettyPrint(variables))
				} else {
					w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
					fmt.Fprintln(w, "NAME\tADDRESS\tSIZE\tTYPE\tSECTION")
					for i := range variables {
						v := &variables[i]
						fmt.Fprintf(w, "%s\t0x%08X\t%d\t%s\t%s\n",
							v.Name, v.Address, v.Size, v.TypeName, v.Section)
					}
					w.Flush()
				}
			}

			if wantEntries && f.Catalogue != nil {
				if asJSON {
					fmt.Println(prettyPrint(f.Catalogue.Entries))
				} else {
					w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
					fmt.Fprintln(w, "NAME\tADDRESS\tSIZE\tA2L TYPE")
					for i := range f.Catalogue.Entries {
						e := &f.Catalogue.Entries[i]
						fmt.Fprintf(w, "%s\t0x%08X\t%d\t%s\n",
							e.FullName, e.Address, e.Size, e.A2lType)
					}
					w.Flush()
				}
			}

			if wantPackage {
				fingerprint, err := elf2a2l.Fingerprint(path)
				if err != nil {
					return err
				}
				pkg, err := elf2a2l.OpenPackage(path)
				if err != nil {
					return err
				}
				defer pkg.Close()
				if err := pkg.WriteCatalogue(f.Catalogue.Entries, path,
					fingerprint); err != nil {
					return err
				}
				fmt.Printf("wrote %d entries to %s\n", f.Catalogue.Len(),
					pkg.Path())
			}

			return nil
		},
	}

	dumpCmd.Flags().BoolVar(&wantVariables, "variables", false,
		"dump the extracted variables")
	dumpCmd.Flags().BoolVar(&wantEntries, "entries", false,
		"dump the expanded catalogue entries")
	dumpCmd.Flags().BoolVar(&wantStats, "stats", false,
		"dump the debug-info statistics")
	dumpCmd.Flags().BoolVar(&wantPackage, "package", false,
		"persist the catalogue next to the image")
	dumpCmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON")
	dumpCmd.Flags().StringVar(&search, "search", "",
		"only variables whose name contains this pattern")

	return dumpCmd
}
