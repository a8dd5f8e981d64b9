// Copyright (c) 2025 Neomantra Corp
//
// alpha-tui is an interactive partition/integrity browser, adapted from
// cmd/dbn-go-tui's entry point (pflag parsing into a tui.Config, then
// tui.Run).

package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	alpha_tui "github.com/quantlayer/alphastore/internal/tui"
)

func main() {
	var config alpha_tui.Config
	var showHelp bool

	pflag.BoolVarP(&showHelp, "help", "h", false, "Show help")
	pflag.StringVarP(&config.StorageRoot, "root", "r", "", "Storage root directory (required)")
	pflag.Parse()

	if showHelp {
		fmt.Fprintf(os.Stdout, "usage: %s -r <storage_root>\n\n", os.Args[0])
		pflag.PrintDefaults()
		os.Exit(0)
	}
	if config.StorageRoot == "" {
		fmt.Fprintln(os.Stderr, "missing storage root, use --root")
		os.Exit(1)
	}

	if err := alpha_tui.Run(config); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err.Error())
		os.Exit(1)
	}
}
