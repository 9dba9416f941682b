package ingest

import (
	"context"
	"errors"
	"time"
)

// Run statuses, in lifecycle order.
const (
	StatusScheduled = "scheduled"
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

var ErrRunNotFound = errors.New("ingest run not found")

// Report summarises one ingestion pass.
type Report struct {
	Files    int `json:"files"`
	Chunks   int `json:"chunks"`
	Upserted int `json:"upserted"`
	Skipped  int `json:"skipped"`
}

// Run is the ledger entry for one ingestion.
type Run struct {
	ID         string     `json:"id" gorm:"primaryKey;size:36"`
	Status     string     `json:"status" gorm:"size:16;index"`
	Files      int        `json:"files"`
	Chunks     int        `json:"chunks"`
	Upserted   int        `json:"upserted"`
	Skipped    int        `json:"skipped"`
	Error      string     `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at" gorm:"index"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

func (Run) TableName() string {
	return "ingest_runs"
}

// Report returns the counters recorded for the run.
func (r Run) Report() Report {
	return Report{Files: r.Files, Chunks: r.Chunks, Upserted: r.Upserted, Skipped: r.Skipped}
}

// Tracker records the lifecycle of ingest runs.
type Tracker interface {
	Create(ctx context.Context, id string) (Run, error)
	Start(ctx context.Context, id string) error
	Finish(ctx context.Context, id string, report Report, runErr error) error
	Get(ctx context.Context, id string) (Run, error)
	List(ctx context.Context, limit int) ([]Run, error)
}

func finishedStatus(runErr error) string {
	if runErr != nil {
		return StatusFailed
	}
	return StatusSucceeded
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
