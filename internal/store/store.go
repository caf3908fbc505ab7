// Package store persists LLM recommendation replies and batch run history.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/assortment-cli/internal/config"
	"github.com/sells-group/assortment-cli/internal/model"
)

// Store defines the persistence interface for the analysis engine.
type Store interface {
	// Recommendation cache
	GetCachedRecommendation(ctx context.Context, key string) (string, bool, error)
	SetCachedRecommendation(ctx context.Context, key, reply string, ttl time.Duration) error
	DeleteExpiredRecommendations(ctx context.Context) (int, error)

	// Batch runs
	CreateBatchRun(ctx context.Context, supplier string, total int) (*model.BatchRun, error)
	CompleteBatchRun(ctx context.Context, runID string, status model.RunStatus, summary model.RunSummary) error
	GetBatchRun(ctx context.Context, runID string) (*model.BatchRun, error)
	ListBatchRuns(ctx context.Context, supplier string, limit int) ([]model.BatchRun, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open constructs and migrates the store named by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		st, err := NewSQLite(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close() //nolint:errcheck
			return nil, err
		}
		return st, nil
	default:
		return nil, eris.Errorf("store: unsupported driver %q", cfg.Driver)
	}
}

// CacheTTL converts the configured hours into a duration. Non-positive
// values disable expiry for one year.
func CacheTTL(cfg config.StoreConfig) time.Duration {
	if cfg.CacheTTLHours <= 0 {
		return 365 * 24 * time.Hour
	}
	return time.Duration(cfg.CacheTTLHours) * time.Hour
}
