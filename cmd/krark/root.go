package main

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "krark",
	Short: "Bulk validation harness",
	Long: "Krark runs a set of checks against every item of a dataset, isolates items whose checks panic, " +
		"and prints a recap table of passed, failed and panicked items.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log per-item progress and panic stacks")
	registerOptionFlags(rootCmd)
}
