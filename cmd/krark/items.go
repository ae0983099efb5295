package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sznuper/krark/internal/dataset"
	"github.com/sznuper/krark/internal/harness"
)

var itemsCmd = &cobra.Command{
	Use:   "items <dataset>",
	Short: "List the items a run would check",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := setupLogger()

		cfg, p, err := prepare(cmd, args[0], logger)
		if err != nil {
			return err
		}

		h := harness.New[dataset.Item](p.title, p.set, cfg.Options, logger)
		var indices []int
		switch {
		case p.engine.HasFilter():
			indices = h.SelectFiltered(p.engine.Keep)
		case p.sampled:
			indices = h.SelectSampled(p.sample)
		default:
			indices = h.Select()
		}

		for _, i := range indices {
			fmt.Fprintln(cmd.OutOrStdout(), p.set.At(i).Name())
		}
		return nil
	},
}

func init() {
	addSelectionFlags(itemsCmd)
	rootCmd.AddCommand(itemsCmd)
}
