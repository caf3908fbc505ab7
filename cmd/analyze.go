package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/assortment-cli/internal/analysis"
	"github.com/sells-group/assortment-cli/internal/scorer"
	"github.com/sells-group/assortment-cli/internal/store"
)

var analyzeID string

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Ask Claude for an A/C/Z recommendation on one product",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		lot, err := loadLot()
		if err != nil {
			return err
		}

		env, err := initAnalysis(ctx, "analyze")
		if err != nil {
			return err
		}
		defer env.Close()

		products := scorer.FillMissingScores(lot.Products, cfg.Score)
		target, err := findProduct(products, analyzeID)
		if err != nil {
			return err
		}

		runner := analysis.NewRunner(env.Client, cfg,
			analysis.WithCache(env.Store, store.CacheTTL(cfg.Store)),
		)
		outcome, err := runner.Recommend(ctx, target, products)
		if err != nil {
			return err
		}

		zap.L().Info("analyze: complete",
			zap.String("product_id", target.ID),
			zap.String("status", string(outcome.Status)),
			zap.String("category", string(outcome.Category)),
			zap.Bool("cached", outcome.Cached),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(outcome); err != nil {
			return eris.Wrap(err, "analyze: encode json")
		}

		if outcome.Status == analysis.StatusError {
			return eris.Errorf("analyze: product %s failed: %s", target.ID, outcome.Error)
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeID, "id", "", "product id")
	_ = analyzeCmd.MarkFlagRequired("id")
	rootCmd.AddCommand(analyzeCmd)
}
