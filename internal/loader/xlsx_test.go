package loader

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func createSalesXLSX(t *testing.T, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Ventes")
	require.NoError(t, err)
	for _, rowData := range rows {
		row := sheet.AddRow()
		for _, cellData := range rowData {
			row.AddCell().SetString(cellData)
		}
	}
	path := filepath.Join(t.TempDir(), "sales.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadSalesXLSX(t *testing.T) {
	path := createSalesXLSX(t, [][]string{
		{"Fournisseur", "Référence", "Libellé", "Nomenclature", "Rayon", "Magasin", "Mois", "Quantité", "CA", "Marge", "Gamme"},
		{"S1", "P1", "Jus de pomme", "12030001", "BOISSONS", "M1", "2025-01", "10", "1 234,50", "300", "A"},
		{"S1", "P1", "Jus de pomme", "12030001", "BOISSONS", "M2", "02/2025", "5", "50.5", "", ""},
		{"S1", "", "ligne vide", "", "", "", "", "", "", "", ""},
	})

	rows, err := ReadSalesXLSX(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	r := rows[0]
	assert.Equal(t, "S1", r.Supplier)
	assert.Equal(t, "P1", r.ProductID)
	assert.Equal(t, "Jus de pomme", r.Label)
	assert.Equal(t, "12030001", r.Nomenclature)
	assert.Equal(t, "M1", r.Store)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), r.Month)
	assert.InDelta(t, 1234.5, r.Revenue, 1e-9)
	assert.Equal(t, "A", r.CurrentCategory)

	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), rows[1].Month)
	assert.InDelta(t, 0, rows[1].Margin, 1e-9)

	products := Aggregate(rows, Window{})
	require.Len(t, products, 1)
	assert.Equal(t, "1203", products[0].RayonKey)
	assert.Equal(t, 2, products[0].StoreCount)
}

func TestReadSalesXLSX_MissingColumns(t *testing.T) {
	path := createSalesXLSX(t, [][]string{{"Fournisseur", "Référence"}, {"S1", "P1"}})

	_, err := ReadSalesXLSX(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing columns: store, month, quantity, revenue")
}

func TestReadSalesXLSX_BadMonth(t *testing.T) {
	path := createSalesXLSX(t, [][]string{
		{"id", "store", "month", "quantity", "revenue"},
		{"P1", "M1", "janvier", "1", "1"},
	})

	_, err := ReadSalesXLSX(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestReadSalesXLSX_FileNotFound(t *testing.T) {
	_, err := ReadSalesXLSX(filepath.Join(t.TempDir(), "missing.xlsx"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loader: open xlsx")
}

func TestFoldHeader(t *testing.T) {
	assert.Equal(t, "quantite", FoldHeader("Quantité"))
	assert.Equal(t, "product_id", FoldHeader("  Product ID "))
	assert.Equal(t, "libelle", FoldHeader("LIBELLÉ"))
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"", 0},
		{"12", 12},
		{"12,5", 12.5},
		{"1 234,50 €", 1234.5},
		{"1,234.50", 1234.5},
		{"-3", -3},
	}
	for _, tt := range tests {
		got, err := ParseNumber(tt.in)
		require.NoError(t, err, tt.in)
		assert.InDelta(t, tt.want, got, 1e-9, tt.in)
	}

	_, err := ParseNumber("abc")
	assert.Error(t, err)
}

func TestParseMonth(t *testing.T) {
	want := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2025-03", "2025-03-17", "03/2025", "17/03/2025", "202503"} {
		got, err := ParseMonth(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseMonth("mars")
	assert.Error(t, err)
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, WriteXLSX(path, "Scores", []string{"id", "score"}, [][]string{{"P1", "100.0"}, {"P2", "42.5"}}))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	sheet, ok := f.Sheet["Scores"]
	require.True(t, ok)
	rows := sheetRows(sheet)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"id", "score"}, rows[0])
	assert.Equal(t, []string{"P2", "42.5"}, rows[2])
}
