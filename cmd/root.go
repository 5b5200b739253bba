package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/provider-verify/internal/config"
)

var (
	cfg        *config.Config
	tuningPath string
)

var rootCmd = &cobra.Command{
	Use:   "provider-verify",
	Short: "Healthcare provider verification engine",
	Long:  "Reconciles multi-source provider records by weighted consensus, scores verification confidence, and tracks attribute drift across observations.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if tuningPath != "" {
			tuning, err := config.LoadTuning(tuningPath)
			if err != nil {
				return fmt.Errorf("load tuning: %w", err)
			}
			tuning.Apply(cfg)
		}

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&tuningPath, "tuning", "", "path to engine tuning YAML (overrides config)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
