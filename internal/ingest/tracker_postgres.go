package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Aleph-Alpha/bookrag/pkg/postgres"
)

// PostgresTracker persists runs in the ingest_runs table.
type PostgresTracker struct {
	db *postgres.Postgres
}

// NewPostgresTracker migrates the ledger table and returns the tracker.
func NewPostgresTracker(ctx context.Context, db *postgres.Postgres) (*PostgresTracker, error) {
	if err := db.Migrate(ctx, &Run{}); err != nil {
		return nil, fmt.Errorf("migrate ingest ledger: %w", err)
	}
	return &PostgresTracker{db: db}, nil
}

func (p *PostgresTracker) Create(ctx context.Context, id string) (Run, error) {
	run := Run{ID: id, Status: StatusScheduled, CreatedAt: time.Now().UTC()}
	if err := p.db.Create(ctx, &run); err != nil {
		return Run{}, fmt.Errorf("create ingest run %s: %w", id, err)
	}
	return run, nil
}

func (p *PostgresTracker) Start(ctx context.Context, id string) error {
	return p.update(ctx, id, map[string]interface{}{
		"status":     StatusRunning,
		"started_at": time.Now().UTC(),
	})
}

func (p *PostgresTracker) Finish(ctx context.Context, id string, report Report, runErr error) error {
	return p.update(ctx, id, map[string]interface{}{
		"status":      finishedStatus(runErr),
		"error":       errorText(runErr),
		"files":       report.Files,
		"chunks":      report.Chunks,
		"upserted":    report.Upserted,
		"skipped":     report.Skipped,
		"finished_at": time.Now().UTC(),
	})
}

func (p *PostgresTracker) Get(ctx context.Context, id string) (Run, error) {
	var run Run
	err := p.db.First(ctx, &run, "id = ?", id)
	if errors.Is(err, postgres.ErrRecordNotFound) {
		return Run{}, ErrRunNotFound
	}
	if err != nil {
		return Run{}, fmt.Errorf("load ingest run %s: %w", id, err)
	}
	return run, nil
}

func (p *PostgresTracker) List(ctx context.Context, limit int) ([]Run, error) {
	q := p.db.Query(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var runs []Run
	if err := q.Find(&runs); err != nil {
		return nil, fmt.Errorf("list ingest runs: %w", err)
	}
	return runs, nil
}

func (p *PostgresTracker) update(ctx context.Context, id string, columns map[string]interface{}) error {
	err := p.db.UpdateColumns(ctx, &Run{}, columns, "id = ?", id)
	if errors.Is(err, postgres.ErrRecordNotFound) {
		return ErrRunNotFound
	}
	return err
}
