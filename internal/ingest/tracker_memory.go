package ingest

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
)

// MemoryTracker keeps runs in process memory. History is lost on restart.
type MemoryTracker struct {
	mu   sync.RWMutex
	runs map[string]Run
	now  func() time.Time
}

func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{runs: make(map[string]Run), now: time.Now}
}

func (m *MemoryTracker) Create(_ context.Context, id string) (Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[id]; ok {
		return Run{}, fmt.Errorf("ingest run %s already exists", id)
	}
	run := Run{ID: id, Status: StatusScheduled, CreatedAt: m.now().UTC()}
	m.runs[id] = run
	return run, nil
}

func (m *MemoryTracker) Start(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return ErrRunNotFound
	}
	now := m.now().UTC()
	run.Status = StatusRunning
	run.StartedAt = &now
	m.runs[id] = run
	return nil
}

func (m *MemoryTracker) Finish(_ context.Context, id string, report Report, runErr error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return ErrRunNotFound
	}
	now := m.now().UTC()
	run.Status = finishedStatus(runErr)
	run.Error = errorText(runErr)
	run.Files, run.Chunks, run.Upserted, run.Skipped = report.Files, report.Chunks, report.Upserted, report.Skipped
	run.FinishedAt = &now
	m.runs[id] = run
	return nil
}

func (m *MemoryTracker) Get(_ context.Context, id string) (Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return Run{}, ErrRunNotFound
	}
	return run, nil
}

// List returns up to limit runs, newest first.
func (m *MemoryTracker) List(_ context.Context, limit int) ([]Run, error) {
	m.mu.RLock()
	runs := make([]Run, 0, len(m.runs))
	for _, r := range m.runs {
		runs = append(runs, r)
	}
	m.mu.RUnlock()

	slices.SortFunc(runs, func(a, b Run) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}
