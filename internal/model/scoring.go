package model

// Percentiles holds percentile ranks on the 0.0-1.0 scale.
type Percentiles struct {
	CA     float64 `json:"ca"`
	Volume float64 `json:"volume"`
	Margin float64 `json:"margin"`
}

// Decision is the binary keep/drop outcome of rayon scoring.
type Decision struct {
	Recommendation Category `json:"recommendation"`
	// Threshold is the cleared (or missed) composite threshold on the 0-100 scale.
	Threshold       float64 `json:"threshold"`
	IsRecent        bool    `json:"is_recent"`
	IsTop30         bool    `json:"is_top_30"`
	IsLastProduct   bool    `json:"is_last_product"`
	IsCriticalScore bool    `json:"is_critical_score"`
	Label           string  `json:"label"`
}

// ScoringResult is the rayon scoring output for one product.
type ScoringResult struct {
	ProductID      string      `json:"product_id"`
	CompositeScore int         `json:"composite_score"`
	Percentiles    Percentiles `json:"percentiles"`
	ProfileScore   float64     `json:"profile_score"`
	ActivityScore  float64     `json:"activity_score"`
	Decision       Decision    `json:"decision"`
}
