package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tsawler/papermill/capability"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Report which external backends are available",
	Long: `Probe checks the environment for the external tools some
conversions depend on: a headless office renderer (LibreOffice), a
PDF rasterizer (pdftoppm) and a headless browser (Chrome/Chromium).
Conversions needing an absent tool are refused up front.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		set := capability.Probe()
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CAPABILITY\tAVAILABLE\tPATH")
		for _, e := range set.All() {
			path := e.Path
			if path == "" {
				path = "-"
			}
			fmt.Fprintf(w, "%s\t%t\t%s\n", e.Name, e.Available, path)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)
}
