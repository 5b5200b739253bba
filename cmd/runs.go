package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	runsProvider string
	runsLimit    int
	runsJSON     bool
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List persisted verification runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		runs, err := env.Service.Runs(ctx, runsProvider, runsLimit)
		if err != nil {
			return err
		}
		if runsJSON {
			return printJSON(runs)
		}
		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tPROVIDER\tCONFIDENCE\tFLAGGED\tCREATED")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%.2f\t%t\t%s\n",
				r.ID, r.Listed.Name, r.Confidence, r.Flagged,
				r.CreatedAt.UTC().Format(time.RFC3339),
			)
		}
		return w.Flush()
	},
}

func init() {
	runsCmd.Flags().StringVar(&runsProvider, "provider", "", "filter by provider name")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 50, "max runs to list")
	runsCmd.Flags().BoolVar(&runsJSON, "json", false, "print raw JSON")
	rootCmd.AddCommand(runsCmd)
}
