package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var citiesLimit int

var citiesCmd = &cobra.Command{
	Use:   "cities [prefix]",
	Short: "Print location labels accepted by diff and export",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := loadIndex(cmd.Context())
		if err != nil {
			return err
		}

		var labels []string
		if len(args) == 1 {
			labels = idx.Suggest(args[0], citiesLimit)
		} else {
			labels = idx.Labels()
			if citiesLimit > 0 && len(labels) > citiesLimit {
				labels = labels[:citiesLimit]
			}
		}

		out := cmd.OutOrStdout()
		for _, l := range labels {
			fmt.Fprintln(out, l)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(citiesCmd)
	citiesCmd.Flags().IntVarP(&citiesLimit, "limit", "n", 0, "Maximum labels to print, 0 for all")
}
