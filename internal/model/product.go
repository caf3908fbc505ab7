package model

import "github.com/rotisserie/eris"

// DefaultRayonKey groups products whose rayon could not be derived.
const DefaultRayonKey = "default"

// ErrEmptyCohort is returned when a cohort-relative computation receives no
// comparators.
var ErrEmptyCohort = eris.New("empty cohort")

// ProductMetrics holds a product's sales aggregated over the trailing 12 months,
// network-wide across all stores.
type ProductMetrics struct {
	ID         string `json:"id" yaml:"id"`
	Label      string `json:"label" yaml:"label"`
	RayonLabel string `json:"rayon_label" yaml:"rayon_label"`
	RayonKey   string `json:"rayon_key" yaml:"rayon_key"`

	TotalQuantity float64 `json:"total_quantity" yaml:"total_quantity"`
	TotalRevenue  float64 `json:"total_revenue" yaml:"total_revenue"`
	TotalMargin   float64 `json:"total_margin" yaml:"total_margin"`
	StoreCount    int     `json:"store_count" yaml:"store_count"`

	// Per-store doubled projections for single-store products. Nil when not
	// pre-computed; see NormalizedQuantity / NormalizedRevenue.
	WeightedTotalQuantity *float64 `json:"weighted_total_quantity,omitempty" yaml:"weighted_total_quantity,omitempty"`
	WeightedTotalRevenue  *float64 `json:"weighted_total_revenue,omitempty" yaml:"weighted_total_revenue,omitempty"`

	// RegularityScore is the number of months (0-12) with any sale.
	RegularityScore  int `json:"regularity_score" yaml:"regularity_score"`
	InactivityMonths int `json:"inactivity_months" yaml:"inactivity_months"`

	CurrentCategory         *Category `json:"current_category,omitempty" yaml:"current_category,omitempty"`
	IsLastProductOfSupplier bool      `json:"is_last_product_of_supplier" yaml:"is_last_product_of_supplier"`

	// Score is the 0-100 global score, set by the score engine or supplied
	// externally.
	Score *float64 `json:"score,omitempty" yaml:"score,omitempty"`

	// MonthlyQuantity holds the trailing window oldest first. Optional; used by
	// prompts and seasonality checks.
	MonthlyQuantity []float64 `json:"monthly_quantity,omitempty" yaml:"monthly_quantity,omitempty"`
}

// MarginRate returns totalMargin / totalRevenue * 100, or 0 without revenue.
func (p ProductMetrics) MarginRate() float64 {
	if p.TotalRevenue <= 0 {
		return 0
	}
	return p.TotalMargin / p.TotalRevenue * 100
}

// MonthsActive is an alias of RegularityScore.
func (p ProductMetrics) MonthsActive() int {
	return p.RegularityScore
}

// NormalizedQuantity resolves the quantity in weighted → raw order.
func (p ProductMetrics) NormalizedQuantity() float64 {
	if p.WeightedTotalQuantity != nil {
		return *p.WeightedTotalQuantity
	}
	return p.TotalQuantity
}

// NormalizedRevenue resolves the revenue in weighted → raw order.
func (p ProductMetrics) NormalizedRevenue() float64 {
	if p.WeightedTotalRevenue != nil {
		return *p.WeightedTotalRevenue
	}
	return p.TotalRevenue
}

// Stores returns max(1, StoreCount).
func (p ProductMetrics) Stores() int {
	if p.StoreCount < 1 {
		return 1
	}
	return p.StoreCount
}

// Rayon returns the cohort key, falling back to DefaultRayonKey.
func (p ProductMetrics) Rayon() string {
	if p.RayonKey == "" {
		return DefaultRayonKey
	}
	return p.RayonKey
}

// HasScore reports whether a global score is available.
func (p ProductMetrics) HasScore() bool {
	return p.Score != nil
}

// GlobalScore returns the global score or 0 when unset.
func (p ProductMetrics) GlobalScore() float64 {
	if p.Score == nil {
		return 0
	}
	return *p.Score
}

// FilterRayon returns the products sharing rayonKey.
func FilterRayon(products []ProductMetrics, rayonKey string) []ProductMetrics {
	var out []ProductMetrics
	for _, p := range products {
		if p.Rayon() == rayonKey {
			out = append(out, p)
		}
	}
	return out
}

// GroupByRayon buckets products by rayon key.
func GroupByRayon(products []ProductMetrics) map[string][]ProductMetrics {
	out := make(map[string][]ProductMetrics)
	for _, p := range products {
		out[p.Rayon()] = append(out[p.Rayon()], p)
	}
	return out
}

// FindProduct returns the product with the given id.
func FindProduct(products []ProductMetrics, id string) (ProductMetrics, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return ProductMetrics{}, false
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 { return &v }
