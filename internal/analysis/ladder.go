package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sells-group/assortment-cli/internal/config"
	"github.com/sells-group/assortment-cli/internal/model"
	"github.com/sells-group/assortment-cli/internal/scorer"
	"github.com/sells-group/assortment-cli/internal/stats"
)

// Ladder thresholds. Weights and percentiles are on the 0-100 scale.
const (
	PillarWeight        = 5.0
	SteadyMonths        = 8
	PerformerPercentile = 50.0
	PerformerMinMonths  = 4
	SeasonalMinMonths   = 2
	SeasonalMaxMonths   = 4
	SeasonalPeakMonths  = 3
	SeasonalPeakShare   = 0.80
	LowRayonWeight      = 1.0
	ExitMaxMonths       = 5
	ExitMaxPercentile   = 30.0
)

// Rule identifies the ladder step that produced a verdict.
type Rule int

const (
	RuleNone Rule = iota
	RulePillar
	RuleSteady
	RulePerformer
	RuleSeasonal
	RuleExit
)

func (r Rule) String() string {
	switch r {
	case RulePillar:
		return "pillar"
	case RuleSteady:
		return "steady"
	case RulePerformer:
		return "performer"
	case RuleSeasonal:
		return "seasonal"
	case RuleExit:
		return "exit"
	default:
		return "none"
	}
}

// LadderInput is one product as seen by the rule ladder.
type LadderInput struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Rayon string `json:"rayon"`
	// WeightInRayon is the product's share of its rayon revenue, in percent.
	WeightInRayon float64 `json:"weight_in_rayon"`
	MonthsActive  int     `json:"months_active"`
	// GlobalPercentile ranks the global score within the batch, 0-100.
	GlobalPercentile float64   `json:"global_percentile"`
	MonthlyQuantity  []float64 `json:"monthly_quantity,omitempty"`
}

// Verdict is the ladder outcome. Ambiguous verdicts carry no category.
type Verdict struct {
	Category  model.Category `json:"category,omitempty"`
	Rule      Rule           `json:"rule"`
	Reason    string         `json:"reason"`
	Ambiguous bool           `json:"ambiguous"`
}

// Classify evaluates the rule ladder in order; the first matching rule wins.
func Classify(in LadderInput) Verdict {
	switch {
	case in.WeightInRayon >= PillarWeight:
		return Verdict{Category: model.CategoryA, Rule: RulePillar, Reason: "category pillar"}
	case in.MonthsActive >= SteadyMonths:
		return Verdict{Category: model.CategoryA, Rule: RuleSteady, Reason: "steady shelf rotation"}
	case in.GlobalPercentile >= PerformerPercentile && in.MonthsActive >= PerformerMinMonths:
		return Verdict{Category: model.CategoryA, Rule: RulePerformer, Reason: "above-average performer"}
	case in.MonthsActive >= SeasonalMinMonths && in.MonthsActive <= SeasonalMaxMonths && Concentrated(in.MonthlyQuantity):
		return Verdict{Category: model.CategoryC, Rule: RuleSeasonal, Reason: "seasonal"}
	}

	var missed []string
	if in.WeightInRayon >= LowRayonWeight {
		missed = append(missed, fmt.Sprintf("rayon weight %.1f%% >= %.0f%%", in.WeightInRayon, LowRayonWeight))
	}
	if in.MonthsActive >= ExitMaxMonths {
		missed = append(missed, fmt.Sprintf("%d months active >= %d", in.MonthsActive, ExitMaxMonths))
	}
	if in.GlobalPercentile >= ExitMaxPercentile {
		missed = append(missed, fmt.Sprintf("global percentile %.0f >= %.0f", in.GlobalPercentile, ExitMaxPercentile))
	}
	if len(missed) == 0 {
		return Verdict{Category: model.CategoryZ, Rule: RuleExit, Reason: "exit confirmed"}
	}
	return Verdict{Rule: RuleNone, Reason: "ambiguous: " + strings.Join(missed, ", "), Ambiguous: true}
}

// Concentrated reports whether the SeasonalPeakMonths strongest months hold
// at least SeasonalPeakShare of the quantity. Without a monthly series the
// active-month range alone qualifies.
func Concentrated(monthly []float64) bool {
	if len(monthly) == 0 {
		return true
	}
	total := stats.Sum(monthly)
	if total <= 0 {
		return false
	}
	sorted := append([]float64(nil), monthly...)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	n := min(SeasonalPeakMonths, len(sorted))
	return stats.Sum(sorted[:n])/total >= SeasonalPeakShare
}

// BuildLadderInputs derives ladder inputs for every product of a batch.
// Products without a global score are scored with cfg over the whole batch;
// supplied scores are kept.
func BuildLadderInputs(products []model.ProductMetrics, cfg config.ScoreConfig) []LadderInput {
	if len(products) == 0 {
		return nil
	}

	scored := scorer.FillMissingScores(products, cfg)

	scores := make([]float64, len(scored))
	rayonRevenue := make(map[string]float64)
	for i, p := range scored {
		scores[i] = p.GlobalScore()
		rayonRevenue[p.Rayon()] += p.TotalRevenue
	}

	out := make([]LadderInput, len(scored))
	for i, p := range scored {
		var weight float64
		if total := rayonRevenue[p.Rayon()]; total > 0 {
			weight = p.TotalRevenue / total * 100
		}
		out[i] = LadderInput{
			ID:               p.ID,
			Label:            p.Label,
			Rayon:            p.Rayon(),
			WeightInRayon:    stats.Round(weight, 2),
			MonthsActive:     p.MonthsActive(),
			GlobalPercentile: stats.Round(stats.PercentileRank(p.GlobalScore(), scores, stats.Percent), 1),
			MonthlyQuantity:  p.MonthlyQuantity,
		}
	}
	return out
}
