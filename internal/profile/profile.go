// Package profile builds per-store normalized comparison profiles of a product
// against its supplier cohort.
package profile

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/sells-group/assortment-cli/internal/model"
	"github.com/sells-group/assortment-cli/internal/scorer"
	"github.com/sells-group/assortment-cli/internal/stats"
)

// MinRayonSize is the smallest rayon for which trafic/margin signals are
// considered significant.
const MinRayonSize = 6

const (
	top20Percentile       = 80
	highVolumePercentile  = 60
	lowMarginPercentile   = 40
	pureMarginPercentile  = 70
	lowContributionWeight = 0.5
)

// Protection reasons, in guard-rail priority order.
const (
	ReasonRecent = "new product"
	ReasonTop30  = "supplier top 30%"
	ReasonLast   = "last supplier reference"
)

// ErrEmptyCohort is returned when BuildProfile receives no comparators.
var ErrEmptyCohort = model.ErrEmptyCohort

type perStore struct {
	ca, qty, margin float64
}

func normalize(p model.ProductMetrics) perStore {
	stores := float64(p.Stores())
	return perStore{
		ca:     p.TotalRevenue / stores,
		qty:    p.TotalQuantity / stores,
		margin: p.MarginRate(),
	}
}

type distribution struct {
	ca, qty, margin []float64
	rawCA, rawQty   float64
}

func newDistribution(products []model.ProductMetrics) distribution {
	d := distribution{
		ca:     make([]float64, len(products)),
		qty:    make([]float64, len(products)),
		margin: make([]float64, len(products)),
	}
	for i, p := range products {
		n := normalize(p)
		d.ca[i], d.qty[i], d.margin[i] = n.ca, n.qty, n.margin
		d.rawCA += p.TotalRevenue
		d.rawQty += p.TotalQuantity
	}
	return d
}

// BuildProfile compares target with allProducts (its supplier cohort). CA and
// quantity are divided by the store count before any percentile, median or
// quadrant comparison; weights use raw network totals. The composite
// percentile and protection status are taken from scoring.
func BuildProfile(target model.ProductMetrics, allProducts []model.ProductMetrics, scoring *model.ScoringResult) (*model.ContextProfile, error) {
	if len(allProducts) == 0 {
		return nil, eris.Wrapf(ErrEmptyCohort, "profile: build profile for product %s", target.ID)
	}
	if scoring == nil {
		return nil, eris.Errorf("profile: scoring result is required for product %s", target.ID)
	}

	rayonProducts := model.FilterRayon(allProducts, target.Rayon())
	supplier := newDistribution(allProducts)
	rayon := newDistribution(rayonProducts)
	n := normalize(target)

	prof := &model.ContextProfile{
		ProductID:        target.ID,
		RayonKey:         target.Rayon(),
		RayonSize:        len(rayonProducts),
		CAPerStore:       n.ca,
		QuantityPerStore: n.qty,
		NetworkCA:        target.TotalRevenue,
		NetworkQuantity:  target.TotalQuantity,
		MarginRate:       n.margin,
		Percentiles: model.ProfilePercentiles{
			CA:        stats.PercentileRank(n.ca, supplier.ca, stats.Percent),
			Quantity:  stats.PercentileRank(n.qty, supplier.qty, stats.Percent),
			Margin:    stats.PercentileRank(n.margin, supplier.margin, stats.Percent),
			Composite: float64(scoring.CompositeScore),
		},
		Weights: model.Weights{
			CAInSupplier:       weight(target.TotalRevenue, supplier.rawCA),
			QuantityInSupplier: weight(target.TotalQuantity, supplier.rawQty),
			CAInRayon:          weight(target.TotalRevenue, rayon.rawCA),
			QuantityInRayon:    weight(target.TotalQuantity, rayon.rawQty),
		},
	}

	prof.Signals = model.Signals{
		IsTop20CA:       n.ca >= stats.ValueAtPercentile(supplier.ca, top20Percentile),
		IsTop20Quantity: n.qty >= stats.ValueAtPercentile(supplier.qty, top20Percentile),
		IsLowContribution: prof.Weights.CAInSupplier < lowContributionWeight &&
			prof.Weights.QuantityInSupplier < lowContributionWeight,
	}
	if len(rayonProducts) >= MinRayonSize {
		prof.Signals.IsHighVolumeWithLowMargin = n.qty >= stats.ValueAtPercentile(rayon.qty, highVolumePercentile) &&
			n.margin < stats.ValueAtPercentile(rayon.margin, lowMarginPercentile)
		prof.Signals.IsMargePure = n.margin >= stats.ValueAtPercentile(rayon.margin, pureMarginPercentile) &&
			n.qty < stats.Median(rayon.qty)
	}

	prof.Quadrant = quadrant(n, stats.Median(supplier.qty), stats.Median(supplier.margin))

	d := scoring.Decision
	switch {
	case d.IsRecent:
		prof.IsProtected, prof.ProtectionReason = true, ReasonRecent
	case d.IsTop30:
		prof.IsProtected, prof.ProtectionReason = true, ReasonTop30
	case d.IsLastProduct:
		prof.IsProtected, prof.ProtectionReason = true, ReasonLast
	}

	prof.ScoreCritique = target.HasScore() && target.GlobalScore() < scorer.CriticalGlobalScore

	return prof, nil
}

func quadrant(n perStore, medianQty, medianMargin float64) model.Quadrant {
	highVolume := n.qty > medianQty
	highMargin := n.margin > medianMargin
	switch {
	case highVolume && highMargin:
		return model.QuadrantStar
	case highVolume:
		return model.QuadrantTrafic
	case highMargin:
		return model.QuadrantMarge
	default:
		return model.QuadrantWatch
	}
}

// weight returns value's share of total as a one-decimal percentage.
func weight(value, total float64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(value/total*1000) / 10
}
