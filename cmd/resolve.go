package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/provider-verify/internal/model"
)

var (
	resolveAddress    string
	resolvePhone      string
	resolveCandidates string
	resolveUseML      bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <provider-name>",
	Short: "Resolve the best-matching candidate with the learned scorer",
	Long:  "Scores each candidate independently with the rule-based feature model, optionally blending in the trained classifier's match probability. Unlike verify, this path records no snapshots.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if resolveUseML {
			cfg.Resolver.UseML = true
		}

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		candidates, err := readCandidates(resolveCandidates)
		if err != nil {
			return err
		}

		listed := model.Listed{
			Name:          args[0],
			ListedAddress: resolveAddress,
			ListedPhone:   resolvePhone,
		}
		match, err := env.Learned.Resolve(ctx, listed, candidates)
		if err != nil {
			return err
		}

		return printJSON(match)
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveAddress, "address", "", "listed address")
	resolveCmd.Flags().StringVar(&resolvePhone, "phone", "", "listed phone")
	resolveCmd.Flags().StringVarP(&resolveCandidates, "candidates", "c", "", "JSON file with candidate records (- for stdin)")
	resolveCmd.Flags().BoolVar(&resolveUseML, "ml", false, "blend in the trained model's probability")
	rootCmd.AddCommand(resolveCmd)
}
