package scorer

import (
	"fmt"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/assortment-cli/internal/model"
)

// product builds a full-year product in rayon "10" with the given margin rate (%).
func product(id string, qty, ca, marginRate float64) model.ProductMetrics {
	return model.ProductMetrics{
		ID:              id,
		RayonKey:        "10",
		TotalQuantity:   qty,
		TotalRevenue:    ca,
		TotalMargin:     ca * marginRate / 100,
		StoreCount:      2,
		RegularityScore: 12,
	}
}

// ladderRayon returns five healthy products p1..p5 and one dormant laggard p6.
// Raw composites: p1=.28 p2=.44 p3=.68 p4=.84 p5=1.0 p6=.02, threshold ~.209.
func ladderRayon() []model.ProductMetrics {
	var out []model.ProductMetrics
	for i := 1; i <= 5; i++ {
		out = append(out, product(fmt.Sprintf("p%d", i), float64(100*i), float64(1000*i), float64(10*i)))
	}
	laggard := product("p6", 1, 10, 0)
	laggard.InactivityMonths = 4
	return append(out, laggard)
}

func mustAnalyze(t *testing.T, id string, cohort []model.ProductMetrics) *model.ScoringResult {
	t.Helper()
	target, ok := model.FindProduct(cohort, id)
	require.True(t, ok)
	res, err := AnalyzeRayon(target, cohort)
	require.NoError(t, err)
	return res
}

func TestPreprocess_RunRateProjection(t *testing.T) {
	p := model.ProductMetrics{TotalQuantity: 600, TotalRevenue: 3000, RegularityScore: 6}
	n := preprocess(p)
	assert.InDelta(t, 1200, n.qty, 1e-9)
	assert.InDelta(t, 6000, n.ca, 1e-9)
}

func TestPreprocess_NoProjectionOutsideRange(t *testing.T) {
	full := preprocess(model.ProductMetrics{TotalQuantity: 600, RegularityScore: 12})
	sparse := preprocess(model.ProductMetrics{TotalQuantity: 600, RegularityScore: 2})
	assert.InDelta(t, 600, full.qty, 1e-9)
	assert.InDelta(t, 600, sparse.qty, 1e-9)
}

func TestPreprocess_PrefersWeightedFigures(t *testing.T) {
	p := model.ProductMetrics{
		TotalQuantity:         100,
		TotalRevenue:          400,
		WeightedTotalQuantity: model.Float64(200),
		WeightedTotalRevenue:  model.Float64(800),
		RegularityScore:       12,
	}
	n := preprocess(p)
	assert.InDelta(t, 200, n.qty, 1e-9)
	assert.InDelta(t, 800, n.ca, 1e-9)
}

func TestAnalyzeRayon_CompositeAndThreshold(t *testing.T) {
	cohort := ladderRayon()

	p3 := mustAnalyze(t, "p3", cohort)
	assert.Equal(t, 68, p3.CompositeScore)
	assert.InDelta(t, 0.6, p3.Percentiles.CA, 1e-9)
	assert.InDelta(t, 0.6, p3.Percentiles.Volume, 1e-9)
	assert.InDelta(t, 0.6, p3.Percentiles.Margin, 1e-9)
	assert.InDelta(t, 1.0, p3.ProfileScore, 1e-9)
	assert.InDelta(t, 1.0, p3.ActivityScore, 1e-9)
	assert.Equal(t, model.CategoryA, p3.Decision.Recommendation)
	assert.Equal(t, "Star, above threshold", p3.Decision.Label)
	assert.InDelta(t, 20.9, p3.Decision.Threshold, 1e-9)

	p1 := mustAnalyze(t, "p1", cohort)
	assert.Equal(t, 28, p1.CompositeScore)
	assert.Equal(t, model.CategoryA, p1.Decision.Recommendation)

	p6 := mustAnalyze(t, "p6", cohort)
	assert.Equal(t, 2, p6.CompositeScore)
	assert.InDelta(t, 0.2, p6.ProfileScore, 1e-9)
	assert.InDelta(t, 0.0, p6.ActivityScore, 1e-9)
	assert.Equal(t, model.CategoryZ, p6.Decision.Recommendation)
	assert.Equal(t, "Watch, below threshold", p6.Decision.Label)
}

func TestAnalyzeRayon_SupplierLeaderGuardRail(t *testing.T) {
	p4 := mustAnalyze(t, "p4", ladderRayon())
	assert.True(t, p4.Decision.IsTop30)
	assert.Equal(t, model.CategoryA, p4.Decision.Recommendation)
	assert.Equal(t, "Star, supplier leader", p4.Decision.Label)
}

func TestAnalyzeRayon_WeakLeaderNotProtected(t *testing.T) {
	cohort := ladderRayon()
	// Twelve tiny products in another rayon push p6 into the supplier top 30%.
	for i := 0; i < 12; i++ {
		tiny := product(fmt.Sprintf("tiny%d", i), 1, 0.1*float64(i+1), 5)
		tiny.RayonKey = "20"
		cohort = append(cohort, tiny)
	}

	p6 := mustAnalyze(t, "p6", cohort)
	assert.False(t, p6.Decision.IsTop30)
	assert.Equal(t, model.CategoryZ, p6.Decision.Recommendation)
	// Rayon-relative figures are unchanged by the other rayon.
	assert.Equal(t, 2, p6.CompositeScore)
}

func TestAnalyzeRayon_LastProductGuardRail(t *testing.T) {
	cohort := ladderRayon()
	cohort[5].IsLastProductOfSupplier = true

	p6 := mustAnalyze(t, "p6", cohort)
	assert.True(t, p6.Decision.IsLastProduct)
	assert.Equal(t, model.CategoryA, p6.Decision.Recommendation)
	assert.Equal(t, LabelLast, p6.Decision.Label)
}

func TestAnalyzeRayon_RecentProductProtected(t *testing.T) {
	cohort := ladderRayon()
	cohort[5].RegularityScore = 2

	p6 := mustAnalyze(t, "p6", cohort)
	assert.True(t, p6.Decision.IsRecent)
	assert.Equal(t, model.CategoryA, p6.Decision.Recommendation)
	assert.Equal(t, LabelRecent, p6.Decision.Label)
}

func TestAnalyzeRayon_CriticalScoreOverridesGuardRails(t *testing.T) {
	cohort := ladderRayon()
	cohort[5].RegularityScore = 1
	cohort[5].IsLastProductOfSupplier = true
	cohort[5].Score = model.Float64(10)

	p6 := mustAnalyze(t, "p6", cohort)
	assert.True(t, p6.Decision.IsRecent)
	assert.True(t, p6.Decision.IsCriticalScore)
	assert.Equal(t, model.CategoryZ, p6.Decision.Recommendation)
	assert.Equal(t, LabelCritical, p6.Decision.Label)
}

func TestAnalyzeRayon_CriticalScoreOverridesLeader(t *testing.T) {
	cohort := ladderRayon()
	cohort[4].Score = model.Float64(19.9)

	p5 := mustAnalyze(t, "p5", cohort)
	assert.True(t, p5.Decision.IsTop30)
	assert.Equal(t, model.CategoryZ, p5.Decision.Recommendation)
	assert.Equal(t, LabelCritical, p5.Decision.Label)
}

func TestAnalyzeRayon_SeasonalRayonSoftensInactivity(t *testing.T) {
	build := func(inactive int) []model.ProductMetrics {
		var cohort []model.ProductMetrics
		for i := 0; i < 8; i++ {
			p := product(fmt.Sprintf("s%d", i), float64(10*(i+1)), float64(100*(i+1)), 20)
			if i < inactive {
				p.InactivityMonths = 1
			}
			cohort = append(cohort, p)
		}
		return cohort
	}

	seasonal := mustAnalyze(t, "s0", build(4))
	assert.InDelta(t, 0.8, seasonal.ActivityScore, 1e-9)

	regular := mustAnalyze(t, "s0", build(2))
	assert.InDelta(t, 0.6, regular.ActivityScore, 1e-9)
}

func TestAnalyzeRayon_ActivityLadder(t *testing.T) {
	rc := &rayonContext{}
	assert.Equal(t, 1.0, rc.activity(0))
	assert.Equal(t, 0.6, rc.activity(1))
	assert.Equal(t, 0.3, rc.activity(2))
	assert.Equal(t, 0.0, rc.activity(3))
	assert.Equal(t, 0.0, rc.activity(9))
}

func TestAnalyzeRayon_ThresholdFloor(t *testing.T) {
	// Identical products: zero spread, mean composite well above the floor.
	cohort := []model.ProductMetrics{product("a", 10, 100, 20), product("b", 10, 100, 20)}
	res := mustAnalyze(t, "a", cohort)
	assert.GreaterOrEqual(t, res.Decision.Threshold, 10.0)
	assert.Equal(t, model.CategoryA, res.Decision.Recommendation)
}

func TestAnalyzeRayon_EmptyCohort(t *testing.T) {
	_, err := AnalyzeRayon(product("x", 1, 1, 1), nil)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrEmptyCohort))
}

func TestAnalyzeRayon_Idempotent(t *testing.T) {
	cohort := ladderRayon()
	first := mustAnalyze(t, "p2", cohort)
	second := mustAnalyze(t, "p2", cohort)
	assert.Equal(t, first, second)
}

func TestAnalyzeCohort_MatchesPerProduct(t *testing.T) {
	cohort := ladderRayon()
	results, err := AnalyzeCohort(cohort)
	require.NoError(t, err)
	require.Len(t, results, len(cohort))

	for i, p := range cohort {
		single := mustAnalyze(t, p.ID, cohort)
		assert.Equal(t, *single, results[i], p.ID)
	}
}

func TestAnalyzeCohort_Empty(t *testing.T) {
	_, err := AnalyzeCohort(nil)
	assert.True(t, eris.Is(err, ErrEmptyCohort))
}
