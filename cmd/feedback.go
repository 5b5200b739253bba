package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/provider-verify/internal/verify"
)

var feedbackReq verify.Feedback

var feedbackCmd = &cobra.Command{
	Use:   "feedback <provider-name>",
	Short: "Apply a reviewer verdict to source credibility",
	Long:  "Approves or rejects a candidate source, adjusting its credibility weight, and records the corrected values as a history snapshot.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		feedbackReq.ProviderName = args[0]
		out, err := env.Service.ApplyFeedback(ctx, feedbackReq)
		if err != nil {
			return err
		}

		return printJSON(out)
	},
}

func init() {
	feedbackCmd.Flags().StringVar(&feedbackReq.Decision, "decision", "", `"approve" or "reject" (required)`)
	feedbackCmd.Flags().StringVar(&feedbackReq.AcceptedCandidateSource, "source", "", "source the verdict applies to")
	feedbackCmd.Flags().StringVar(&feedbackReq.CorrectedName, "name", "", "corrected provider name")
	feedbackCmd.Flags().StringVar(&feedbackReq.CorrectedAddress, "address", "", "corrected address")
	feedbackCmd.Flags().StringVar(&feedbackReq.CorrectedPhone, "phone", "", "corrected phone")
	feedbackCmd.Flags().StringVar(&feedbackReq.AdminUser, "admin", "admin", "reviewer identity for the audit log")
	_ = feedbackCmd.MarkFlagRequired("decision")
	rootCmd.AddCommand(feedbackCmd)
}
