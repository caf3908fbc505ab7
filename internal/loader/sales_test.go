package loader

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/assortment-cli/internal/model"
)

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func sale(supplier, id, store string, m time.Time, qty, rev, margin float64) MonthlySale {
	return MonthlySale{
		Supplier: supplier, ProductID: id, Label: "Produit " + id,
		Nomenclature: "12030001", RayonLabel: "BOISSONS",
		Store: store, Month: m, Quantity: qty, Revenue: rev, Margin: margin,
	}
}

func TestAggregate(t *testing.T) {
	rows := []MonthlySale{
		sale("S1", "P1", "M1", month(2025, 1), 10, 100, 30),
		sale("S1", "P1", "M2", month(2025, 1), 5, 50, 15),
		sale("S1", "P1", "M1", month(2025, 3), 10, 100, 30),
		sale("S1", "P2", "M1", month(2025, 2), 4, 40, 8),
		// Outside the trailing window ending 2025-06.
		sale("S1", "P2", "M1", month(2024, 6), 100, 1000, 100),
		sale("S2", "P3", "M3", month(2025, 6), 1, 10, 1),
	}
	rows[0].CurrentCategory = "a"

	products := Aggregate(rows, TrailingWindow(month(2025, 6)))
	require.Len(t, products, 3)

	p1 := products[0]
	assert.Equal(t, "P1", p1.ID)
	assert.Equal(t, "Produit P1", p1.Label)
	assert.Equal(t, "1203", p1.RayonKey)
	assert.InDelta(t, 25, p1.TotalQuantity, 1e-9)
	assert.InDelta(t, 250, p1.TotalRevenue, 1e-9)
	assert.InDelta(t, 75, p1.TotalMargin, 1e-9)
	assert.Equal(t, 2, p1.StoreCount)
	assert.Equal(t, 2, p1.RegularityScore)
	assert.Equal(t, 3, p1.InactivityMonths)
	assert.InDelta(t, 25, *p1.WeightedTotalQuantity, 1e-9)
	require.NotNil(t, p1.CurrentCategory)
	assert.Equal(t, model.CategoryA, *p1.CurrentCategory)
	assert.False(t, p1.IsLastProductOfSupplier)
	require.Len(t, p1.MonthlyQuantity, 12)
	// Window runs 2024-07 .. 2025-06; January is index 6.
	assert.InDelta(t, 15, p1.MonthlyQuantity[6], 1e-9)
	assert.InDelta(t, 10, p1.MonthlyQuantity[8], 1e-9)

	p2 := products[1]
	assert.Equal(t, "P2", p2.ID)
	assert.InDelta(t, 4, p2.TotalQuantity, 1e-9)
	assert.Equal(t, 1, p2.StoreCount)
	assert.InDelta(t, 8, *p2.WeightedTotalQuantity, 1e-9)
	assert.InDelta(t, 80, *p2.WeightedTotalRevenue, 1e-9)
	assert.InDelta(t, 20, p2.MarginRate(), 1e-9)

	p3 := products[2]
	assert.Equal(t, "P3", p3.ID)
	assert.True(t, p3.IsLastProductOfSupplier)
	assert.Equal(t, 0, p3.InactivityMonths)
}

func TestAggregate_DefaultWindowAndNoSales(t *testing.T) {
	rows := []MonthlySale{
		sale("S1", "P1", "M1", month(2025, 4), 0, 0, 0),
		sale("S1", "P2", "M1", month(2025, 5), 3, 30, 3),
	}

	products := Aggregate(rows, Window{})
	require.Len(t, products, 2)

	assert.Equal(t, 0, products[0].StoreCount)
	assert.Equal(t, 0, products[0].RegularityScore)
	assert.Equal(t, WindowMonths, products[0].InactivityMonths)
	assert.Equal(t, 1, products[0].Stores())

	assert.Equal(t, 0, products[1].InactivityMonths)
}

func TestAggregate_Empty(t *testing.T) {
	assert.Nil(t, Aggregate(nil, Window{}))
}

func TestSuppliersAndFilter(t *testing.T) {
	rows := []MonthlySale{
		sale("S2", "P3", "M1", month(2025, 1), 1, 1, 1),
		sale("S1", "P1", "M1", month(2025, 1), 1, 1, 1),
		sale("S2", "P4", "M1", month(2025, 1), 1, 1, 1),
	}
	assert.Equal(t, []string{"S1", "S2"}, Suppliers(rows))
	assert.Len(t, FilterSupplier(rows, "S2"), 2)
	assert.Empty(t, FilterSupplier(rows, "S9"))
}
