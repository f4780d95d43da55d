// Package main is the entry point for the papermill CLI, a thin
// wrapper over the papermill conversion engine and page operations.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the papermill CLI.
var rootCmd = &cobra.Command{
	Use:   "papermill",
	Short: "Document conversion and PDF page manipulation",
	Long: `papermill converts documents between formats and manipulates PDF pages.

Conversions out of PDF (Word, Excel, PowerPoint, images, text, HTML, XML)
and into PDF (images, Office documents, HTML, plain text) run through the
convert command. Page-level operations (extract, rotate, remove, merge,
split) run through the pages command. Some conversions depend on external
tools; probe reports which are available.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
