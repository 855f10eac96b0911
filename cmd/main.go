// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/xyproto/env/v2"

	elf2a2l "github.com/saferwall/elf2a2l"
	"github.com/saferwall/elf2a2l/log"
)

var (
	verbose bool

	// Defaults are environment-overridable so CI pipelines can set
	// them once instead of repeating flags.
	defaultMode    = env.Str("ELF2A2L_MODE", "measurement")
	defaultProject = env.Str("ELF2A2L_PROJECT", "Project")
	defaultModule  = env.Str("ELF2A2L_MODULE", "Module")
	defaultLogLvl  = env.Str("ELF2A2L_LOG_LEVEL", "error")
)

func newLogger() log.Logger {
	level := log.ParseLevel(defaultLogLvl)
	if verbose {
		level = log.LevelDebug
	}
	return log.NewFilter(log.NewStdLogger(os.Stderr), log.FilterLevel(level))
}

func main() {

	rootCmd := &cobra.Command{
		Use:   "elf2a2l",
		Short: "Convert ECU firmware images into A2L calibration descriptions",
		Long: `elf2a2l discovers the addressable data globals of an ELF firmware
image, recovers their full type structure from the DWARF debug info,
flattens every variable into per-leaf A2L entries and edits existing
A2L documents in place.`,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug logging")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("elf2a2l version", elf2a2l.Version)
		},
	}

	rootCmd.AddCommand(newDumpCommand(), newExportCommand(), newEditCommand(),
		versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// parseImage opens and fully parses an image.
func parseImage(path string) (*elf2a2l.File, error) {
	f, err := elf2a2l.New(path, &elf2a2l.Options{Logger: newLogger()})
	if err != nil {
		return nil, err
	}
	if err := f.Parse(); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}
