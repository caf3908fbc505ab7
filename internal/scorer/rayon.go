package scorer

import (
	"fmt"
	"math"

	"github.com/rotisserie/eris"

	"github.com/sells-group/assortment-cli/internal/model"
	"github.com/sells-group/assortment-cli/internal/stats"
)

// ErrEmptyCohort is returned when AnalyzeRayon receives no comparators.
var ErrEmptyCohort = model.ErrEmptyCohort

// Composite weights (sum = 1).
const (
	weightCA       = 0.35
	weightVolume   = 0.25
	weightMargin   = 0.20
	weightProfile  = 0.10
	weightActivity = 0.10
)

const (
	// Run-rate projection applies to products active in [minProjectionMonths, fullYearMonths).
	minProjectionMonths = 3
	fullYearMonths      = 12

	// A rayon where more than this share of products had inactive months is seasonal.
	seasonalInactiveShare = 0.40

	thresholdStdDevs = 1.0
	thresholdFloor   = 0.10

	top30Percentile   = 0.70
	top30MinComposite = 30

	// CriticalGlobalScore is the global score below which a product is forced to Z.
	CriticalGlobalScore = 20
)

// Guard-rail labels.
const (
	LabelRecent   = "new product, protected"
	LabelLeader   = "supplier leader"
	LabelLast     = "last supplier reference, protected"
	LabelCritical = "critical global score"
)

// normalized holds the preprocessed comparison figures of one product.
type normalized struct {
	ca     float64
	qty    float64
	margin float64
}

// preprocess resolves CA and quantity (weighted, else raw) and annualizes
// partial-year products by run-rate.
func preprocess(p model.ProductMetrics) normalized {
	n := normalized{
		ca:     p.NormalizedRevenue(),
		qty:    p.NormalizedQuantity(),
		margin: p.MarginRate(),
	}
	if m := p.RegularityScore; m >= minProjectionMonths && m < fullYearMonths {
		n.ca = n.ca / float64(m) * fullYearMonths
		n.qty = n.qty / float64(m) * fullYearMonths
	}
	return n
}

// rayonContext holds the cohort distributions a target is compared against.
type rayonContext struct {
	ca, qty, margin []float64
	medianQty       float64
	medianMargin    float64
	seasonal        bool
	supplierCA      []float64
	threshold       float64
}

func newRayonContext(rayon, supplier []model.ProductMetrics) *rayonContext {
	rc := &rayonContext{
		ca:         make([]float64, len(rayon)),
		qty:        make([]float64, len(rayon)),
		margin:     make([]float64, len(rayon)),
		supplierCA: make([]float64, len(supplier)),
	}

	var inactive int
	for i, p := range rayon {
		n := preprocess(p)
		rc.ca[i], rc.qty[i], rc.margin[i] = n.ca, n.qty, n.margin
		if p.InactivityMonths > 0 {
			inactive++
		}
	}
	for i, p := range supplier {
		rc.supplierCA[i] = preprocess(p).ca
	}

	rc.medianQty = stats.Median(rc.qty)
	rc.medianMargin = stats.Median(rc.margin)
	rc.seasonal = float64(inactive)/float64(len(rayon)) > seasonalInactiveShare

	composites := make([]float64, len(rayon))
	for i, p := range rayon {
		composites[i] = rc.composite(preprocess(p), p.InactivityMonths)
	}
	mean, std := stats.MeanStdDev(composites)
	rc.threshold = math.Max(mean-thresholdStdDevs*std, thresholdFloor)

	return rc
}

// profile returns the quadrant sub-score and its label.
func (rc *rayonContext) profile(n normalized) (float64, string) {
	highVolume := n.qty > rc.medianQty
	highMargin := n.margin > rc.medianMargin
	switch {
	case highVolume && highMargin:
		return 1.0, "Star"
	case highVolume:
		return 0.7, "Trafic"
	case highMargin:
		return 0.7, "Marge"
	default:
		return 0.2, "Watch"
	}
}

func (rc *rayonContext) activity(inactivityMonths int) float64 {
	if inactivityMonths <= 0 {
		return 1.0
	}
	if rc.seasonal {
		return 0.8
	}
	switch inactivityMonths {
	case 1:
		return 0.6
	case 2:
		return 0.3
	default:
		return 0.0
	}
}

func (rc *rayonContext) percentiles(n normalized) model.Percentiles {
	return model.Percentiles{
		CA:     stats.PercentileRank(n.ca, rc.ca, stats.Unit),
		Volume: stats.PercentileRank(n.qty, rc.qty, stats.Unit),
		Margin: stats.PercentileRank(n.margin, rc.margin, stats.Unit),
	}
}

// composite returns the raw composite on the 0.0-1.0 scale.
func (rc *rayonContext) composite(n normalized, inactivityMonths int) float64 {
	pct := rc.percentiles(n)
	profileScore, _ := rc.profile(n)
	return weightCA*pct.CA +
		weightVolume*pct.Volume +
		weightMargin*pct.Margin +
		weightProfile*profileScore +
		weightActivity*rc.activity(inactivityMonths)
}

func (rc *rayonContext) analyze(target model.ProductMetrics) *model.ScoringResult {
	n := preprocess(target)
	pct := rc.percentiles(n)
	profileScore, profileLabel := rc.profile(n)
	activityScore := rc.activity(target.InactivityMonths)
	raw := rc.composite(n, target.InactivityMonths)
	composite := int(math.Round(raw * 100))

	d := model.Decision{
		Threshold: stats.Round(rc.threshold*100, 1),
	}
	if raw >= rc.threshold {
		d.Recommendation = model.CategoryA
		d.Label = fmt.Sprintf("%s, above threshold", profileLabel)
	} else {
		d.Recommendation = model.CategoryZ
		d.Label = fmt.Sprintf("%s, below threshold", profileLabel)
	}

	d.IsRecent = target.RegularityScore < minProjectionMonths
	d.IsTop30 = stats.PercentileRank(n.ca, rc.supplierCA, stats.Unit) >= top30Percentile &&
		composite >= top30MinComposite
	d.IsLastProduct = target.IsLastProductOfSupplier
	d.IsCriticalScore = target.HasScore() && target.GlobalScore() < CriticalGlobalScore

	// Guard-rails in priority order; the first match sets the label.
	switch {
	case d.IsRecent:
		d.Recommendation, d.Label = model.CategoryA, LabelRecent
	case d.IsTop30:
		d.Recommendation, d.Label = model.CategoryA, fmt.Sprintf("%s, %s", profileLabel, LabelLeader)
	case d.IsLastProduct:
		d.Recommendation, d.Label = model.CategoryA, LabelLast
	}

	// Absolute exclusion overrides every guard-rail.
	if d.IsCriticalScore {
		d.Recommendation, d.Label = model.CategoryZ, LabelCritical
	}

	return &model.ScoringResult{
		ProductID:      target.ID,
		CompositeScore: composite,
		Percentiles:    pct,
		ProfileScore:   profileScore,
		ActivityScore:  activityScore,
		Decision:       d,
	}
}

// AnalyzeRayon scores target against its rayon within the supplier cohort.
// Products of cohort sharing the target's rayon key form the comparison set;
// the whole cohort is used for the supplier top-30% guard-rail. When no cohort
// product shares the target's rayon key the whole cohort is used as the rayon.
func AnalyzeRayon(target model.ProductMetrics, cohort []model.ProductMetrics) (*model.ScoringResult, error) {
	if len(cohort) == 0 {
		return nil, eris.Wrapf(ErrEmptyCohort, "scorer: analyze rayon for product %s", target.ID)
	}

	rayon := model.FilterRayon(cohort, target.Rayon())
	if len(rayon) == 0 {
		rayon = cohort
	}

	return newRayonContext(rayon, cohort).analyze(target), nil
}

// AnalyzeCohort scores every product of the supplier cohort, building each
// rayon's distributions once. Results follow cohort order.
func AnalyzeCohort(cohort []model.ProductMetrics) ([]model.ScoringResult, error) {
	if len(cohort) == 0 {
		return nil, eris.Wrap(ErrEmptyCohort, "scorer: analyze cohort")
	}

	contexts := make(map[string]*rayonContext)
	for key, rayon := range model.GroupByRayon(cohort) {
		contexts[key] = newRayonContext(rayon, cohort)
	}

	results := make([]model.ScoringResult, len(cohort))
	for i, p := range cohort {
		results[i] = *contexts[p.Rayon()].analyze(p)
	}
	return results, nil
}
