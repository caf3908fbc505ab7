package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/assortment-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Timestamps are stored as unix seconds so expiry comparisons stay numeric.
const sqliteMigration = `
CREATE TABLE IF NOT EXISTS recommendation_cache (
	key        TEXT PRIMARY KEY,
	reply      TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS batch_runs (
	id           TEXT PRIMARY KEY,
	supplier     TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'running',
	total        INTEGER NOT NULL DEFAULT 0,
	summary      TEXT,
	created_at   INTEGER NOT NULL,
	completed_at INTEGER
);

CREATE INDEX IF NOT EXISTS idx_recommendation_cache_expires_at ON recommendation_cache(expires_at);
CREATE INDEX IF NOT EXISTS idx_batch_runs_supplier ON batch_runs(supplier);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetCachedRecommendation returns the raw reply stored under key. A miss or
// an expired entry reports false with a nil error.
func (s *SQLiteStore) GetCachedRecommendation(ctx context.Context, key string) (string, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT reply FROM recommendation_cache WHERE key = ? AND expires_at > ?`,
		key, s.now().Unix(),
	)

	var reply string
	err := row.Scan(&reply)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, eris.Wrap(err, "sqlite: get cached recommendation")
	}
	return reply, true, nil
}

func (s *SQLiteStore) SetCachedRecommendation(ctx context.Context, key, reply string, ttl time.Duration) error {
	now := s.now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO recommendation_cache (key, reply, created_at, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET reply = excluded.reply,
		   created_at = excluded.created_at, expires_at = excluded.expires_at`,
		key, reply, now.Unix(), now.Add(ttl).Unix(),
	)
	return eris.Wrap(err, "sqlite: set cached recommendation")
}

func (s *SQLiteStore) DeleteExpiredRecommendations(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM recommendation_cache WHERE expires_at <= ?`, s.now().Unix(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired recommendations")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

func (s *SQLiteStore) CreateBatchRun(ctx context.Context, supplier string, total int) (*model.BatchRun, error) {
	id := uuid.New().String()
	now := s.now()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO batch_runs (id, supplier, status, total, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, supplier, string(model.RunStatusRunning), total, now.Unix(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert batch run")
	}

	return &model.BatchRun{
		ID:        id,
		Supplier:  supplier,
		Status:    model.RunStatusRunning,
		Total:     total,
		CreatedAt: time.Unix(now.Unix(), 0).UTC(),
	}, nil
}

func (s *SQLiteStore) CompleteBatchRun(ctx context.Context, runID string, status model.RunStatus, summary model.RunSummary) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal summary")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE batch_runs SET status = ?, summary = ?, completed_at = ? WHERE id = ?`,
		string(status), string(summaryJSON), s.now().Unix(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete batch run %s", runID)
	}
	return checkRowsAffected(res, "batch run", runID)
}

func (s *SQLiteStore) GetBatchRun(ctx context.Context, runID string) (*model.BatchRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, supplier, status, total, summary, created_at, completed_at FROM batch_runs WHERE id = ?`,
		runID,
	)
	run, err := scanBatchRun(row)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("batch run not found: %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get batch run %s", runID)
	}
	return run, nil
}

// ListBatchRuns returns the most recent runs first. An empty supplier lists
// all suppliers; a non-positive limit defaults to 20.
func (s *SQLiteStore) ListBatchRuns(ctx context.Context, supplier string, limit int) ([]model.BatchRun, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, supplier, status, total, summary, created_at, completed_at FROM batch_runs`
	var args []any
	if supplier != "" {
		query += ` WHERE supplier = ?`
		args = append(args, supplier)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list batch runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.BatchRun
	for rows.Next() {
		run, err := scanBatchRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan batch run")
		}
		runs = append(runs, *run)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate batch runs")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanBatchRun(row scannable) (*model.BatchRun, error) {
	var (
		run         model.BatchRun
		status      string
		summaryJSON sql.NullString
		createdAt   int64
		completedAt sql.NullInt64
	)
	if err := row.Scan(&run.ID, &run.Supplier, &status, &run.Total, &summaryJSON, &createdAt, &completedAt); err != nil {
		return nil, err
	}
	run.Status = model.RunStatus(status)
	run.CreatedAt = time.Unix(createdAt, 0).UTC()
	if completedAt.Valid {
		t := time.Unix(completedAt.Int64, 0).UTC()
		run.CompletedAt = &t
	}
	if summaryJSON.Valid && summaryJSON.String != "" {
		var summary model.RunSummary
		if err := json.Unmarshal([]byte(summaryJSON.String), &summary); err != nil {
			return nil, eris.Wrap(err, "unmarshal summary")
		}
		run.Summary = &summary
	}
	return &run, nil
}
