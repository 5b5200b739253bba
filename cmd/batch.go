package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/provider-verify/internal/model"
)

var (
	batchLimit       int
	batchConcurrency int
)

// batchRequest is one entry of the batch input file.
type batchRequest struct {
	Name          string            `json:"name"`
	ListedAddress string            `json:"listed_address,omitempty"`
	ListedPhone   string            `json:"listed_phone,omitempty"`
	Candidates    []model.Candidate `json:"candidates"`
}

var batchCmd = &cobra.Command{
	Use:   "batch <requests.json>",
	Short: "Verify a batch of providers concurrently",
	Long:  "Reads a JSON array of verification requests and processes them with bounded concurrency. Each request carries its own listed record and candidate set.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		raw, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrapf(err, "read batch file %s", args[0])
		}
		var requests []batchRequest
		if err := json.Unmarshal(raw, &requests); err != nil {
			return eris.Wrapf(err, "parse batch file %s", args[0])
		}
		if len(requests) == 0 {
			zap.L().Info("no requests in batch file")
			return nil
		}
		if batchLimit > 0 && len(requests) > batchLimit {
			requests = requests[:batchLimit]
		}

		concurrency := batchConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Batch.MaxConcurrent
		}
		zap.L().Info("processing batch",
			zap.Int("requests", len(requests)),
			zap.Int("concurrency", concurrency),
		)

		var verified, flagged, failed atomic.Int64
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(concurrency)

		for _, req := range requests {
			req := req
			g.Go(func() error {
				listed := model.Listed{
					Name:          req.Name,
					ListedAddress: req.ListedAddress,
					ListedPhone:   req.ListedPhone,
				}
				result, err := env.Service.Verify(gctx, listed, req.Candidates)
				if err != nil {
					failed.Add(1)
					zap.L().Error("batch verification failed",
						zap.String("provider", req.Name),
						zap.Error(err),
					)
					// One bad request should not sink the batch.
					return nil
				}
				verified.Add(1)
				if result.FlagForManualReview {
					flagged.Add(1)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		zap.L().Info("batch complete",
			zap.Int64("verified", verified.Load()),
			zap.Int64("flagged", flagged.Load()),
			zap.Int64("failed", failed.Load()),
		)
		return nil
	},
}

func init() {
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max requests to process (0 = all)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "concurrent verifications (default from config)")
	rootCmd.AddCommand(batchCmd)
}
