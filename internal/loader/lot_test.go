package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/assortment-cli/internal/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadLot_YAML(t *testing.T) {
	path := writeFile(t, "lot.yaml", `
supplier: S1
products:
  - id: P1
    label: Jus de pomme
    rayon_label: "1203 BOISSONS"
    total_quantity: 120
    total_revenue: 300
    total_margin: 90
    store_count: 1
    regularity_score: 10
    current_category: A
    score: 85
  - id: P2
    rayon_key: "0801"
    total_quantity: 10
    weighted_total_quantity: 20
`)

	lot, err := ReadLot(path)
	require.NoError(t, err)
	assert.Equal(t, "S1", lot.Supplier)
	require.Len(t, lot.Products, 2)

	p1 := lot.Products[0]
	assert.Equal(t, "1203", p1.RayonKey)
	assert.InDelta(t, 30, p1.MarginRate(), 1e-9)
	require.NotNil(t, p1.CurrentCategory)
	assert.Equal(t, model.CategoryA, *p1.CurrentCategory)
	require.NotNil(t, p1.Score)
	assert.InDelta(t, 85, *p1.Score, 1e-9)

	p2 := lot.Products[1]
	assert.Equal(t, "0801", p2.RayonKey)
	assert.InDelta(t, 20, p2.NormalizedQuantity(), 1e-9)
	assert.Nil(t, p2.Score)
}

func TestReadLot_YAMLList(t *testing.T) {
	path := writeFile(t, "lot.yml", "- id: P1\n- id: P2\n  rayon_label: Frais\n")

	lot, err := ReadLot(path)
	require.NoError(t, err)
	require.Len(t, lot.Products, 2)
	assert.Equal(t, model.DefaultRayonKey, lot.Products[0].RayonKey)
	assert.Equal(t, "Frais", lot.Products[1].RayonKey)
}

func TestReadLot_JSON(t *testing.T) {
	path := writeFile(t, "lot.json", `{"supplier": "S1", "products": [{"id": "P1", "total_revenue": 10, "store_count": 2}]}`)
	lot, err := ReadLot(path)
	require.NoError(t, err)
	require.Len(t, lot.Products, 1)
	assert.Equal(t, 2, lot.Products[0].StoreCount)

	path = writeFile(t, "list.json", ` [{"id": "P1"}, {"id": "P2"}]`)
	lot, err = ReadLot(path)
	require.NoError(t, err)
	assert.Len(t, lot.Products, 2)
}

func TestReadLot_Errors(t *testing.T) {
	_, err := ReadLot(writeFile(t, "lot.txt", "id: P1"))
	assert.Contains(t, err.Error(), "unsupported lot format")

	_, err = ReadLot(writeFile(t, "lot.yaml", "supplier: S1\nproducts: []\n"))
	assert.True(t, eris.Is(err, model.ErrEmptyCohort))

	_, err = ReadLot(writeFile(t, "lot.json", "{not json"))
	assert.Contains(t, err.Error(), "loader: decode lot")

	_, err = ReadLot(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Contains(t, err.Error(), "loader: read lot")
}
