package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/provider-verify/internal/model"
)

var historyJSON bool

var historyCmd = &cobra.Command{
	Use:   "history [provider-name]",
	Short: "Show recorded snapshot history",
	Long:  "Without an argument, lists every tracked entity. With a provider name, shows that entity's full snapshot history.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if len(args) == 1 {
			h, err := env.Service.History(ctx, args[0])
			if err != nil {
				return err
			}
			if historyJSON {
				return printJSON(h)
			}
			formatHistory(h)
			return nil
		}

		histories, err := env.Service.Histories(ctx)
		if err != nil {
			return err
		}
		if historyJSON {
			return printJSON(histories)
		}
		if len(histories) == 0 {
			fmt.Fprintln(os.Stderr, "No histories recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SLUG\tNAME\tSNAPSHOTS\tLAST SEEN")
		for _, h := range histories {
			last := "-"
			if s := h.Last(); s != nil {
				last = time.Unix(s.TS, 0).UTC().Format(time.RFC3339)
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", h.Slug, h.Name, len(h.Snapshots), last)
		}
		return w.Flush()
	},
}

func formatHistory(h *model.EntityHistory) {
	fmt.Printf("%s (%s): %d snapshot(s)\n\n", h.Name, h.Slug, len(h.Snapshots))
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TS\tSOURCE\tNAME\tADDRESS\tPHONE")
	for _, s := range h.Snapshots {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			time.Unix(s.TS, 0).UTC().Format(time.RFC3339),
			s.Candidate.Source, s.Candidate.Name, s.Candidate.Address, s.Candidate.Phone,
		)
	}
	w.Flush()
}

func init() {
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "print raw JSON")
	rootCmd.AddCommand(historyCmd)
}
