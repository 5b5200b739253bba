package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/provider-verify/internal/resolver"
)

var (
	trainOut    string
	trainEpochs int
	trainRate   float64
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Fit the entity-match model from snapshot history",
	Long:  "Offline batch job: builds heuristically labeled examples from consecutive snapshot pairs and fits a logistic regression. Labels reflect record stability, not human-verified matches.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		opts := resolver.DefaultTrainOptions()
		if trainEpochs > 0 {
			opts.Epochs = trainEpochs
		}
		if trainRate > 0 {
			opts.LearningRate = trainRate
		}

		trainer := resolver.NewTrainer(env.Store, env.Credibility, opts)
		scorer, err := trainer.Train(ctx)
		if err != nil {
			return err
		}

		out := trainOut
		if out == "" {
			out = cfg.Resolver.ModelPath
		}
		if err := resolver.SaveScorer(out, scorer); err != nil {
			return err
		}

		zap.L().Info("model saved",
			zap.String("path", out),
			zap.Int("samples", scorer.Samples),
		)
		return nil
	},
}

func init() {
	trainCmd.Flags().StringVarP(&trainOut, "out", "o", "", "model output path (default from config)")
	trainCmd.Flags().IntVar(&trainEpochs, "epochs", 0, "gradient-descent epochs (default 500)")
	trainCmd.Flags().Float64Var(&trainRate, "learning-rate", 0, "gradient-descent step size (default 0.1)")
	rootCmd.AddCommand(trainCmd)
}
