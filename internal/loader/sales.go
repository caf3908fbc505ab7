package loader

import (
	"sort"
	"time"

	"github.com/sells-group/assortment-cli/internal/model"
)

// WindowMonths is the length of the trailing analysis window.
const WindowMonths = 12

// MonthlySale is one product's sales in one store for one month.
type MonthlySale struct {
	Supplier        string
	ProductID       string
	Label           string
	Nomenclature    string
	RayonLabel      string
	Store           string
	Month           time.Time
	Quantity        float64
	Revenue         float64
	Margin          float64
	CurrentCategory string
}

func (s MonthlySale) sold() bool {
	return s.Quantity > 0 || s.Revenue > 0
}

// Window is the trailing period ending with the End month, inclusive.
type Window struct {
	End    time.Time
	Months int
}

// TrailingWindow returns the WindowMonths window ending with end's month.
func TrailingWindow(end time.Time) Window {
	return Window{End: end, Months: WindowMonths}
}

func monthIndex(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}

// LatestMonth returns the most recent month in rows, or the zero time.
func LatestMonth(rows []MonthlySale) time.Time {
	var latest time.Time
	for _, r := range rows {
		if r.Month.After(latest) {
			latest = r.Month
		}
	}
	return latest
}

type accumulator struct {
	m                model.ProductMetrics
	supplier         string
	nomenclatureCode string
	stores           map[string]bool
	months           map[int]bool
	lastSale         int
	hasSale          bool
	monthly          []float64
	firstSeen        int
}

// Aggregate turns monthly rows into one ProductMetrics per product over w.
// A zero w.End uses the latest month in rows. Rows outside the window are
// ignored. Products are returned ordered by supplier then first appearance.
func Aggregate(rows []MonthlySale, w Window) []model.ProductMetrics {
	if len(rows) == 0 {
		return nil
	}
	if w.End.IsZero() {
		w.End = LatestMonth(rows)
	}
	if w.Months <= 0 {
		w.Months = WindowMonths
	}
	end := monthIndex(w.End)
	start := end - w.Months + 1

	byProduct := make(map[string]*accumulator)
	for i, r := range rows {
		idx := monthIndex(r.Month)
		if idx < start || idx > end {
			continue
		}

		acc, ok := byProduct[r.ProductID]
		if !ok {
			acc = &accumulator{
				m:         model.ProductMetrics{ID: r.ProductID},
				supplier:  r.Supplier,
				stores:    make(map[string]bool),
				months:    make(map[int]bool),
				monthly:   make([]float64, w.Months),
				firstSeen: i,
			}
			byProduct[r.ProductID] = acc
		}
		mergeIdentity(acc, r)

		acc.m.TotalQuantity += r.Quantity
		acc.m.TotalRevenue += r.Revenue
		acc.m.TotalMargin += r.Margin
		acc.monthly[idx-start] += r.Quantity

		if r.sold() {
			acc.stores[r.Store] = true
			acc.months[idx] = true
			if !acc.hasSale || idx > acc.lastSale {
				acc.lastSale = idx
				acc.hasSale = true
			}
		}
	}

	perSupplier := make(map[string]int)
	accs := make([]*accumulator, 0, len(byProduct))
	for _, acc := range byProduct {
		accs = append(accs, acc)
		perSupplier[acc.supplier]++
	}
	sort.Slice(accs, func(i, j int) bool {
		if accs[i].supplier != accs[j].supplier {
			return accs[i].supplier < accs[j].supplier
		}
		return accs[i].firstSeen < accs[j].firstSeen
	})

	out := make([]model.ProductMetrics, len(accs))
	for i, acc := range accs {
		m := acc.m
		m.StoreCount = len(acc.stores)
		m.RegularityScore = len(acc.months)
		m.InactivityMonths = w.Months
		if acc.hasSale {
			m.InactivityMonths = end - acc.lastSale
		}
		m.MonthlyQuantity = acc.monthly
		m.IsLastProductOfSupplier = perSupplier[acc.supplier] == 1
		m.RayonKey = RayonKey(acc.nomenclatureCode, m.RayonLabel)

		factor := 1.0
		if m.StoreCount == 1 {
			factor = 2
		}
		m.WeightedTotalQuantity = model.Float64(m.TotalQuantity * factor)
		m.WeightedTotalRevenue = model.Float64(m.TotalRevenue * factor)

		out[i] = m
	}
	return out
}

func mergeIdentity(acc *accumulator, r MonthlySale) {
	if acc.m.Label == "" {
		acc.m.Label = r.Label
	}
	if acc.m.RayonLabel == "" {
		acc.m.RayonLabel = r.RayonLabel
	}
	if acc.nomenclatureCode == "" {
		acc.nomenclatureCode = r.Nomenclature
	}
	if cat, ok := model.ParseCategory(r.CurrentCategory); ok {
		acc.m.CurrentCategory = &cat
	}
}

// FilterSupplier keeps the rows of one supplier.
func FilterSupplier(rows []MonthlySale, supplier string) []MonthlySale {
	var out []MonthlySale
	for _, r := range rows {
		if r.Supplier == supplier {
			out = append(out, r)
		}
	}
	return out
}

// Suppliers lists the distinct suppliers in rows, sorted.
func Suppliers(rows []MonthlySale) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range rows {
		if !seen[r.Supplier] {
			seen[r.Supplier] = true
			out = append(out, r.Supplier)
		}
	}
	sort.Strings(out)
	return out
}
