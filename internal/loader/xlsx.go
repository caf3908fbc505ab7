package loader

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Sales sheet columns, keyed by folded header name.
const (
	colSupplier     = "supplier"
	colProductID    = "product_id"
	colLabel        = "label"
	colNomenclature = "nomenclature"
	colRayon        = "rayon"
	colStore        = "store"
	colMonth        = "month"
	colQuantity     = "quantity"
	colRevenue      = "revenue"
	colMargin       = "margin"
	colCategory     = "category"
)

var headerAliases = map[string]string{
	"supplier":     colSupplier,
	"fournisseur":  colSupplier,
	"product_id":   colProductID,
	"id":           colProductID,
	"reference":    colProductID,
	"code":         colProductID,
	"label":        colLabel,
	"libelle":      colLabel,
	"designation":  colLabel,
	"nomenclature": colNomenclature,
	"rayon":        colRayon,
	"store":        colStore,
	"magasin":      colStore,
	"month":        colMonth,
	"mois":         colMonth,
	"quantity":     colQuantity,
	"quantite":     colQuantity,
	"qte":          colQuantity,
	"revenue":      colRevenue,
	"ca":           colRevenue,
	"margin":       colMargin,
	"marge":        colMargin,
	"category":     colCategory,
	"gamme":        colCategory,
}

var requiredColumns = []string{colProductID, colStore, colMonth, colQuantity, colRevenue}

// FoldHeader lowercases s, strips diacritics and joins words with '_'.
func FoldHeader(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), "_")
}

// ReadSalesXLSX reads monthly per-store sales from the first sheet of an xlsx
// workbook. The first row is a header; columns are matched by name in English
// or French.
func ReadSalesXLSX(path string) ([]MonthlySale, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "loader: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("loader: workbook has no sheet")
	}
	return parseSalesRows(sheetRows(f.Sheets[0]))
}

func sheetRows(sheet *xlsx.Sheet) [][]string {
	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		if row == nil {
			continue
		}
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = strings.TrimSpace(cell.String())
		}
		rows = append(rows, cells)
	}
	return rows
}

func parseSalesRows(rows [][]string) ([]MonthlySale, error) {
	if len(rows) == 0 {
		return nil, eris.New("loader: sales sheet is empty")
	}

	cols := make(map[string]int)
	for i, h := range rows[0] {
		if name, ok := headerAliases[FoldHeader(h)]; ok {
			if _, dup := cols[name]; !dup {
				cols[name] = i
			}
		}
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, eris.Errorf("loader: missing columns: %s", strings.Join(missing, ", "))
	}

	get := func(row []string, col string) string {
		i, ok := cols[col]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	out := make([]MonthlySale, 0, len(rows)-1)
	for n, row := range rows[1:] {
		line := n + 2
		id := get(row, colProductID)
		if id == "" {
			continue
		}

		month, err := ParseMonth(get(row, colMonth))
		if err != nil {
			return nil, eris.Wrapf(err, "loader: row %d", line)
		}
		qty, err := ParseNumber(get(row, colQuantity))
		if err != nil {
			return nil, eris.Wrapf(err, "loader: row %d quantity", line)
		}
		rev, err := ParseNumber(get(row, colRevenue))
		if err != nil {
			return nil, eris.Wrapf(err, "loader: row %d revenue", line)
		}
		margin, err := ParseNumber(get(row, colMargin))
		if err != nil {
			return nil, eris.Wrapf(err, "loader: row %d margin", line)
		}

		out = append(out, MonthlySale{
			Supplier:        get(row, colSupplier),
			ProductID:       id,
			Label:           get(row, colLabel),
			Nomenclature:    get(row, colNomenclature),
			RayonLabel:      get(row, colRayon),
			Store:           get(row, colStore),
			Month:           month,
			Quantity:        max(qty, 0),
			Revenue:         max(rev, 0),
			Margin:          max(margin, 0),
			CurrentCategory: get(row, colCategory),
		})
	}
	return out, nil
}

var monthLayouts = []string{"2006-01", "2006-01-02", "01/2006", "02/01/2006", "200601"}

// ParseMonth parses a month cell into the first day of that month (UTC).
func ParseMonth(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range monthLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, eris.Errorf("loader: unrecognized month %q", s)
}

// ParseNumber parses a numeric cell, accepting French formatting ("1 234,5").
// An empty cell is 0.
func ParseNumber(s string) (float64, error) {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '€' {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return 0, nil
	}
	if !strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", ".")
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, eris.Errorf("loader: invalid number %q", s)
	}
	return v, nil
}

// WriteXLSX saves header and rows as a single-sheet workbook.
func WriteXLSX(path, sheetName string, header []string, rows [][]string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return eris.Wrap(err, "loader: add sheet")
	}
	for _, values := range append([][]string{header}, rows...) {
		row := sheet.AddRow()
		for _, v := range values {
			row.AddCell().SetString(v)
		}
	}
	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "loader: save xlsx")
	}
	return nil
}
