package main

import (
	"encoding/json"
	"io"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/assortment-cli/internal/model"
	"github.com/sells-group/assortment-cli/internal/scorer"
)

var (
	rayonKey    string
	rayonFormat string
)

var rayonCmd = &cobra.Command{
	Use:   "rayon",
	Short: "Score every product against its rayon and print keep/drop decisions",
	RunE: func(cmd *cobra.Command, _ []string) error {
		lot, err := loadLot()
		if err != nil {
			return err
		}

		results, err := scorer.AnalyzeCohort(lot.Products)
		if err != nil {
			return err
		}

		var kept []model.ScoringResult
		for i, res := range results {
			if rayonKey == "" || lot.Products[i].Rayon() == rayonKey {
				kept = append(kept, res)
			}
		}
		if len(kept) == 0 {
			return eris.Errorf("rayon: no product in rayon %q", rayonKey)
		}

		return writeRayon(os.Stdout, rayonFormat, kept, lot.Products)
	},
}

func init() {
	rayonCmd.Flags().StringVar(&rayonKey, "rayon", "", "only print products of this rayon key")
	rayonCmd.Flags().StringVar(&rayonFormat, "format", "table", "output format: table or json")
	rootCmd.AddCommand(rayonCmd)
}

var rayonHeader = []string{"id", "rayon", "composite", "ca_pct", "volume_pct", "margin_pct", "threshold", "decision", "label"}

func writeRayon(out io.Writer, format string, results []model.ScoringResult, products []model.ProductMetrics) error {
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(results), "rayon: encode json")
	case "table":
		rows := make([][]string, 0, len(results))
		for _, r := range results {
			rayon := model.DefaultRayonKey
			if p, ok := model.FindProduct(products, r.ProductID); ok {
				rayon = p.Rayon()
			}
			rows = append(rows, []string{
				r.ProductID,
				rayon,
				strconv.Itoa(r.CompositeScore),
				strconv.FormatFloat(r.Percentiles.CA, 'f', 0, 64),
				strconv.FormatFloat(r.Percentiles.Volume, 'f', 0, 64),
				strconv.FormatFloat(r.Percentiles.Margin, 'f', 0, 64),
				strconv.FormatFloat(r.Decision.Threshold, 'f', 0, 64),
				string(r.Decision.Recommendation),
				r.Decision.Label,
			})
		}
		formatTable(out, rayonHeader, rows)
		return nil
	default:
		return eris.Errorf("rayon: unknown format %q", format)
	}
}
