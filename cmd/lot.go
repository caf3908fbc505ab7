package main

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/assortment-cli/internal/loader"
	"github.com/sells-group/assortment-cli/internal/model"
	"github.com/sells-group/assortment-cli/internal/store"
	"github.com/sells-group/assortment-cli/pkg/anthropic"
)

var (
	lotPath   string
	salesPath string
	supplier  string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&lotPath, "lot", "", "pre-aggregated lot file (.yaml, .yml or .json)")
	rootCmd.PersistentFlags().StringVar(&salesPath, "sales", "", "monthly per-store sales workbook (.xlsx)")
	rootCmd.PersistentFlags().StringVar(&supplier, "supplier", "", "supplier to keep when the sales workbook holds several")
}

// loadLot resolves the supplier lot from --lot or --sales. Exactly one of
// the two must be given.
func loadLot() (*loader.Lot, error) {
	switch {
	case lotPath != "" && salesPath != "":
		return nil, eris.New("lot: --lot and --sales are mutually exclusive")
	case lotPath != "":
		lot, err := loader.ReadLot(lotPath)
		if err != nil {
			return nil, err
		}
		if supplier != "" && lot.Supplier == "" {
			lot.Supplier = supplier
		}
		zap.L().Info("loaded lot", zap.String("path", lotPath), zap.Int("products", len(lot.Products)))
		return lot, nil
	case salesPath != "":
		return aggregateSales(salesPath, supplier)
	default:
		return nil, eris.New("lot: one of --lot or --sales is required")
	}
}

func aggregateSales(path, name string) (*loader.Lot, error) {
	rows, err := loader.ReadSalesXLSX(path)
	if err != nil {
		return nil, err
	}

	suppliers := loader.Suppliers(rows)
	if name == "" {
		if len(suppliers) > 1 {
			return nil, eris.Errorf("lot: workbook holds %d suppliers, pick one with --supplier (%s)",
				len(suppliers), strings.Join(suppliers, ", "))
		}
		if len(suppliers) == 1 {
			name = suppliers[0]
		}
	} else {
		rows = loader.FilterSupplier(rows, name)
	}
	if len(rows) == 0 {
		return nil, eris.Wrapf(model.ErrEmptyCohort, "lot: no sales for supplier %q", name)
	}

	window := loader.TrailingWindow(loader.LatestMonth(rows))
	products := loader.Aggregate(rows, window)
	zap.L().Info("aggregated sales",
		zap.String("path", path),
		zap.String("supplier", name),
		zap.Time("window_end", window.End),
		zap.Int("rows", len(rows)),
		zap.Int("products", len(products)),
	)
	return &loader.Lot{Supplier: name, Products: products}, nil
}

// findProduct returns the product with the given id.
func findProduct(products []model.ProductMetrics, id string) (model.ProductMetrics, error) {
	if p, ok := model.FindProduct(products, id); ok {
		return p, nil
	}
	return model.ProductMetrics{}, eris.Errorf("lot: product %q not found", id)
}

// analysisEnv bundles what the LLM-backed commands need.
type analysisEnv struct {
	Client anthropic.Client
	Store  store.Store
}

func (e *analysisEnv) Close() {
	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			zap.L().Warn("close store", zap.Error(err))
		}
	}
}

func initAnalysis(ctx context.Context, mode string) (*analysisEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	var opts []anthropic.ClientOption
	if cfg.Anthropic.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.Anthropic.BaseURL))
	}

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}

	return &analysisEnv{
		Client: anthropic.NewClient(cfg.Anthropic.Key, opts...),
		Store:  st,
	}, nil
}
