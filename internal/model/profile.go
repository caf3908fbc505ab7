package model

// Quadrant is the volume × margin classification of a product.
type Quadrant string

const (
	QuadrantStar   Quadrant = "STAR"
	QuadrantTrafic Quadrant = "TRAFIC"
	QuadrantMarge  Quadrant = "MARGE"
	QuadrantWatch  Quadrant = "WATCH"
)

// ProfilePercentiles holds percentile ranks on the 0-100 scale.
type ProfilePercentiles struct {
	CA        float64 `json:"ca"`
	Quantity  float64 `json:"quantity"`
	Margin    float64 `json:"margin"`
	Composite float64 `json:"composite"`
}

// Weights holds one-decimal shares (percent) of raw network totals.
type Weights struct {
	CAInSupplier       float64 `json:"ca_in_supplier"`
	QuantityInSupplier float64 `json:"quantity_in_supplier"`
	CAInRayon          float64 `json:"ca_in_rayon"`
	QuantityInRayon    float64 `json:"quantity_in_rayon"`
}

// Signals are boolean flags derived from cohort comparisons.
type Signals struct {
	IsTop20CA                 bool `json:"is_top_20_ca"`
	IsTop20Quantity           bool `json:"is_top_20_quantity"`
	IsLowContribution         bool `json:"is_low_contribution"`
	IsHighVolumeWithLowMargin bool `json:"is_high_volume_with_low_margin"`
	IsMargePure               bool `json:"is_marge_pure"`
}

// ContextProfile is the comparative profile of one product within its
// supplier cohort.
type ContextProfile struct {
	ProductID string   `json:"product_id"`
	RayonKey  string   `json:"rayon_key"`
	RayonSize int      `json:"rayon_size"`
	Quadrant  Quadrant `json:"quadrant"`

	CAPerStore       float64 `json:"ca_per_store"`
	QuantityPerStore float64 `json:"quantity_per_store"`
	NetworkCA        float64 `json:"network_ca"`
	NetworkQuantity  float64 `json:"network_quantity"`
	MarginRate       float64 `json:"margin_rate"`

	Percentiles ProfilePercentiles `json:"percentiles"`
	Weights     Weights            `json:"weights"`
	Signals     Signals            `json:"signals"`

	IsProtected      bool   `json:"is_protected"`
	ProtectionReason string `json:"protection_reason,omitempty"`
	ScoreCritique    bool   `json:"score_critique"`
}
