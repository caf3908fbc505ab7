package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/assortment-cli/internal/loader"
	"github.com/sells-group/assortment-cli/internal/model"
	"github.com/sells-group/assortment-cli/internal/scorer"
)

var (
	scoreFormat string
	scoreOutput string
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Compute the 0-100 global score of every product in a lot",
	Long: `Scores each product against the supplier's best product on quantity,
revenue and margin, adding a bonus per strong axis.

Examples:
  gamme score --lot lot.yaml
  gamme score --sales ventes.xlsx --supplier ACME --format xlsx --output scores.xlsx`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("score"); err != nil {
			return err
		}
		if err := scorer.ValidateSettings(cfg.Score); err != nil {
			return err
		}

		lot, err := loadLot()
		if err != nil {
			return err
		}
		products := scorer.ComputeScores(lot.Products, cfg.Score)
		zap.L().Info("scored lot", zap.String("supplier", lot.Supplier), zap.Int("products", len(products)))

		return writeScores(scoreFormat, scoreOutput, products)
	},
}

func init() {
	scoreCmd.Flags().StringVar(&scoreFormat, "format", "table", "output format: table, csv or xlsx")
	scoreCmd.Flags().StringVar(&scoreOutput, "output", "", "output file (stdout when empty; required for xlsx)")
	rootCmd.AddCommand(scoreCmd)
}

var scoreHeader = []string{"id", "label", "rayon", "quantity", "revenue", "margin", "stores", "months_active", "score"}

func scoreRows(products []model.ProductMetrics) [][]string {
	rows := make([][]string, 0, len(products))
	for _, p := range products {
		score := ""
		if p.HasScore() {
			score = strconv.FormatFloat(p.GlobalScore(), 'f', 1, 64)
		}
		rows = append(rows, []string{
			p.ID,
			p.Label,
			p.Rayon(),
			strconv.FormatFloat(p.TotalQuantity, 'f', -1, 64),
			strconv.FormatFloat(p.TotalRevenue, 'f', 2, 64),
			strconv.FormatFloat(p.TotalMargin, 'f', 2, 64),
			strconv.Itoa(p.Stores()),
			strconv.Itoa(p.MonthsActive()),
			score,
		})
	}
	return rows
}

func writeScores(format, output string, products []model.ProductMetrics) error {
	rows := scoreRows(products)

	if format == "xlsx" {
		if output == "" {
			return eris.New("score: --output is required for xlsx")
		}
		return loader.WriteXLSX(output, "scores", scoreHeader, rows)
	}

	out := io.Writer(os.Stdout)
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return eris.Wrap(err, "score: create output")
		}
		defer f.Close() //nolint:errcheck
		out = f
	}

	switch format {
	case "table":
		formatTable(out, scoreHeader, rows)
		return nil
	case "csv":
		w := csv.NewWriter(out)
		if err := w.Write(scoreHeader); err != nil {
			return eris.Wrap(err, "score: write csv header")
		}
		if err := w.WriteAll(rows); err != nil {
			return eris.Wrap(err, "score: write csv")
		}
		return nil
	default:
		return eris.Errorf("score: unknown format %q", format)
	}
}

// formatTable prints rows under an upper-cased header.
func formatTable(out io.Writer, header []string, rows [][]string) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	upper := make([]string, len(header))
	rule := make([]string, len(header))
	for i, h := range header {
		upper[i] = strings.ToUpper(h)
		rule[i] = strings.Repeat("-", len(h))
	}
	_, _ = fmt.Fprintln(w, strings.Join(upper, "\t"))
	_, _ = fmt.Fprintln(w, strings.Join(rule, "\t"))
	for _, r := range rows {
		_, _ = fmt.Fprintln(w, strings.Join(r, "\t"))
	}
	_ = w.Flush()
}
