package analysis

import (
	"github.com/sells-group/assortment-cli/internal/model"
)

// Ranked is a categorized product with the two dominance axes.
type Ranked struct {
	ID               string
	GlobalPercentile float64
	WeightInRayon    float64
	Category         model.Category
}

// Correction records a relabel applied by EnforceConsistency.
type Correction struct {
	ID          string         `json:"id"`
	From        model.Category `json:"from"`
	To          model.Category `json:"to"`
	DominatesID string         `json:"dominates_id"`
}

// Dominates reports whether x is strictly better than y on both global
// percentile and rayon weight.
func Dominates(x, y Ranked) bool {
	return x.GlobalPercentile > y.GlobalPercentile && x.WeightInRayon > y.WeightInRayon
}

// EnforceConsistency relabels items until no product that dominates another
// ranks below it. The dominating product is lifted to the dominated one's
// category; items without a valid category are ignored. items is updated in
// place and the applied corrections are returned in order.
func EnforceConsistency(items []Ranked) []Correction {
	var corrections []Correction

	// Every lift strictly raises one rank, so the loop ends after at most
	// len(items) * ranks passes.
	for changed := true; changed; {
		changed = false
		for i := range items {
			x := &items[i]
			if !x.Category.Valid() {
				continue
			}
			for j := range items {
				y := items[j]
				if i == j || !y.Category.Valid() {
					continue
				}
				if Dominates(*x, y) && x.Category.Rank() < y.Category.Rank() {
					corrections = append(corrections, Correction{
						ID:          x.ID,
						From:        x.Category,
						To:          y.Category,
						DominatesID: y.ID,
					})
					x.Category = y.Category
					changed = true
				}
			}
		}
	}

	return corrections
}

// Consistent reports whether no dominating item ranks below one it dominates.
func Consistent(items []Ranked) bool {
	for _, x := range items {
		for _, y := range items {
			if !x.Category.Valid() || !y.Category.Valid() {
				continue
			}
			if Dominates(x, y) && x.Category.Rank() < y.Category.Rank() {
				return false
			}
		}
	}
	return true
}
