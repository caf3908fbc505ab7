package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/assortment-cli/internal/analysis"
	"github.com/sells-group/assortment-cli/internal/loader"
	"github.com/sells-group/assortment-cli/internal/model"
	"github.com/sells-group/assortment-cli/internal/scorer"
	"github.com/sells-group/assortment-cli/internal/store"
)

var (
	batchFormat string
	batchOutput string
	batchNoLLM  bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Categorize a whole lot with the rule ladder and Claude",
	Long: `Classifies every product of the lot with the rule ladder. Products the
ladder cannot settle are sent to Claude in batches, then the lot is made
consistent so that no dominating product ranks below one it dominates.

Interrupting the command (Ctrl-C) stops dispatching new requests; products
not yet analyzed are reported as skipped.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := scorer.ValidateSettings(cfg.Score); err != nil {
			return err
		}

		lot, err := loadLot()
		if err != nil {
			return err
		}
		if len(lot.Products) == 0 {
			return eris.Wrap(model.ErrEmptyCohort, "batch")
		}

		var runner *analysis.Runner
		var st store.Store
		if batchNoLLM {
			st, err = store.Open(ctx, cfg.Store)
			if err != nil {
				return eris.Wrap(err, "batch: init store")
			}
			defer st.Close() //nolint:errcheck
		} else {
			env, err := initAnalysis(ctx, "batch")
			if err != nil {
				return err
			}
			defer env.Close()
			st = env.Store
			runner = analysis.NewRunner(env.Client, cfg,
				analysis.WithCache(env.Store, store.CacheTTL(cfg.Store)),
			)
		}

		run, err := st.CreateBatchRun(ctx, lot.Supplier, len(lot.Products))
		if err != nil {
			return eris.Wrap(err, "batch: create run")
		}
		log := zap.L().With(zap.String("run_id", run.ID), zap.String("supplier", lot.Supplier))
		log.Info("batch: started", zap.Int("products", len(lot.Products)), zap.Bool("llm", runner != nil))

		result, catErr := analysis.Categorize(ctx, runner, lot.Products, cfg.Score, cfg.Analysis.BatchSize)

		status := model.RunStatusComplete
		var summary model.RunSummary
		if catErr != nil || ctx.Err() != nil {
			status = model.RunStatusFailed
		}
		if result != nil {
			summary = runSummary(result)
		}
		// Interrupted runs are still recorded.
		if err := st.CompleteBatchRun(context.WithoutCancel(ctx), run.ID, status, summary); err != nil {
			log.Warn("batch: complete run", zap.Error(err))
		}
		if catErr != nil {
			return catErr
		}

		log.Info("batch: complete",
			zap.Int("products", len(result.Items)),
			zap.Int("corrections", len(result.Corrections)),
		)

		out := io.Writer(os.Stdout)
		if batchOutput != "" && batchFormat != "xlsx" {
			f, err := os.Create(batchOutput)
			if err != nil {
				return eris.Wrap(err, "batch: create output")
			}
			defer f.Close() //nolint:errcheck
			out = f
		}
		return writeCategorization(out, batchFormat, batchOutput, result)
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchFormat, "format", "table", "output format: table, json or xlsx")
	batchCmd.Flags().StringVar(&batchOutput, "output", "", "output file (stdout when empty; required for xlsx)")
	batchCmd.Flags().BoolVar(&batchNoLLM, "no-llm", false, "apply the rule ladder only; ambiguous products stay ambiguous")
	rootCmd.AddCommand(batchCmd)
}

func runSummary(c *analysis.Categorization) model.RunSummary {
	counts := c.Counts()
	return model.RunSummary{
		Done:        counts[analysis.StatusDone],
		Errors:      counts[analysis.StatusError],
		Ambiguous:   counts[analysis.StatusAmbiguous],
		Skipped:     counts[analysis.StatusSkipped],
		Corrections: len(c.Corrections),
	}
}

var batchHeader = []string{"id", "label", "rayon", "weight_pct", "months", "percentile", "category", "source", "status", "reason"}

func categorizationRows(c *analysis.Categorization) [][]string {
	rows := make([][]string, 0, len(c.Items))
	for _, it := range c.Items {
		reason := it.Verdict.Reason
		if it.Justification != "" {
			reason = it.Justification
		}
		if it.Error != "" {
			reason = it.Error
		}
		rows = append(rows, []string{
			it.Input.ID,
			it.Input.Label,
			it.Input.Rayon,
			strconv.FormatFloat(it.Input.WeightInRayon, 'f', 2, 64),
			strconv.Itoa(it.Input.MonthsActive),
			strconv.FormatFloat(it.Input.GlobalPercentile, 'f', 1, 64),
			string(it.Category),
			string(it.Source),
			string(it.Status),
			reason,
		})
	}
	return rows
}

func writeCategorization(out io.Writer, format, output string, c *analysis.Categorization) error {
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(c), "batch: encode json")
	case "xlsx":
		if output == "" {
			return eris.New("batch: --output is required for xlsx")
		}
		return loader.WriteXLSX(output, "gamme", batchHeader, categorizationRows(c))
	case "table":
		formatTable(out, batchHeader, categorizationRows(c))
		return nil
	default:
		return eris.Errorf("batch: unknown format %q", format)
	}
}
