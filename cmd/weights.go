package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Show source credibility weights",
	Long:  "Lists effective credibility weights: persisted adjustments first, configured seeds for sources never adjusted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		weights, err := env.Credibility.All(ctx)
		if err != nil {
			return err
		}
		if len(weights) == 0 {
			fmt.Fprintln(os.Stderr, "No source weights recorded.")
			return nil
		}

		sources := make([]string, 0, len(weights))
		for s := range weights {
			sources = append(sources, s)
		}
		sort.Strings(sources)

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SOURCE\tWEIGHT")
		for _, s := range sources {
			fmt.Fprintf(w, "%s\t%.4f\n", s, weights[s])
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(weightsCmd)
}
