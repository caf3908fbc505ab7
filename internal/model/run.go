package model

import "time"

// RunStatus is the state of a batch categorization run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// RunSummary tallies a finished batch run.
type RunSummary struct {
	Done        int `json:"done"`
	Errors      int `json:"errors"`
	Ambiguous   int `json:"ambiguous"`
	Skipped     int `json:"skipped"`
	Corrections int `json:"corrections"`
}

// BatchRun records one batch categorization of a supplier lot.
type BatchRun struct {
	ID          string      `json:"id"`
	Supplier    string      `json:"supplier"`
	Status      RunStatus   `json:"status"`
	Total       int         `json:"total"`
	Summary     *RunSummary `json:"summary,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}
