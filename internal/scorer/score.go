package scorer

import (
	"github.com/sells-group/assortment-cli/internal/config"
	"github.com/sells-group/assortment-cli/internal/model"
	"github.com/sells-group/assortment-cli/internal/stats"
)

// ComputeScores sets Score on every product using the MAX+bonus formula: the
// best axis ratio against the list maximum (quantity, revenue, margin) plus a
// bonus per axis above the strong threshold, capped at 100. The cohort is the
// whole list. Products are updated in place and the same slice is returned.
func ComputeScores(products []model.ProductMetrics, cfg config.ScoreConfig) []model.ProductMetrics {
	if len(products) == 0 {
		return products
	}

	var maxQty, maxCA, maxMargin float64
	for _, p := range products {
		maxQty = max(maxQty, p.TotalQuantity)
		maxCA = max(maxCA, p.TotalRevenue)
		maxMargin = max(maxMargin, p.TotalMargin)
	}

	for i := range products {
		p := &products[i]
		axes := [3]float64{
			axisScore(p.TotalQuantity, maxQty),
			axisScore(p.TotalRevenue, maxCA),
			axisScore(p.TotalMargin, maxMargin),
		}

		base := max(axes[0], axes[1], axes[2])
		var strong int
		for _, a := range axes {
			if a > cfg.StrongAxisThreshold {
				strong++
			}
		}

		score := min(base+float64(strong)*cfg.BonusPerAxis, 100)
		p.Score = model.Float64(stats.Round(score, 1))
	}

	return products
}

func axisScore(value, axisMax float64) float64 {
	if axisMax <= 0 {
		return 0
	}
	return value / axisMax * 100
}

// FillMissingScores returns a copy of products in which every product without
// a score gets the one ComputeScores gives it over the whole list. Supplied
// scores are kept. The input is not modified.
func FillMissingScores(products []model.ProductMetrics, cfg config.ScoreConfig) []model.ProductMetrics {
	out := make([]model.ProductMetrics, len(products))
	copy(out, products)

	missing := false
	for _, p := range out {
		if !p.HasScore() {
			missing = true
			break
		}
	}
	if !missing {
		return out
	}

	computed := make([]model.ProductMetrics, len(products))
	copy(computed, products)
	ComputeScores(computed, cfg)
	for i := range out {
		if !out[i].HasScore() {
			out[i].Score = computed[i].Score
		}
	}
	return out
}
