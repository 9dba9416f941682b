package jobs

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// PoolDispatcher runs ingest runs on an ants pool inside the API process.
// Dispatch only enqueues; a feeder goroutine submits queued runs to the
// pool and blocks while every worker is busy.
type PoolDispatcher struct {
	pool   *ants.Pool
	runner Runner
	logger Logger

	queue   chan string
	runCtx  context.Context
	cancel  context.CancelFunc
	stop    chan struct{}
	feeder  sync.WaitGroup
	running sync.WaitGroup

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

func NewPoolDispatcher(cfg Config, runner Runner, logger Logger) (*PoolDispatcher, error) {
	size := cfg.PoolSize
	if size <= 0 {
		size = DefaultPoolSize
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	pool, err := ants.NewPool(size, ants.WithPanicHandler(func(p interface{}) {
		logger.Error("ingest run panicked", fmt.Errorf("%v", p), nil)
	}))
	if err != nil {
		return nil, fmt.Errorf("create ingest pool: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &PoolDispatcher{
		pool:   pool,
		runner: runner,
		logger: logger,
		queue:  make(chan string, queueSize),
		runCtx: ctx,
		cancel: cancel,
		stop:   make(chan struct{}),
	}
	d.feeder.Add(1)
	go d.feed()
	return d, nil
}

func (d *PoolDispatcher) Dispatch(ctx context.Context, runID string) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}
	select {
	case d.queue <- runID:
		d.logger.Debug("ingest run queued", nil, map[string]interface{}{"run_id": runID})
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

func (d *PoolDispatcher) feed() {
	defer d.feeder.Done()
	for runID := range d.queue {
		select {
		case <-d.stop:
			d.logger.Warn("dropping queued ingest run on shutdown", nil, map[string]interface{}{"run_id": runID})
			continue
		default:
		}

		d.running.Add(1)
		err := d.pool.Submit(func() {
			defer d.running.Done()
			if _, err := d.runner.Run(d.runCtx, runID); err != nil {
				d.logger.Debug("background ingest run returned error", err, map[string]interface{}{"run_id": runID})
			}
		})
		if err != nil {
			d.running.Done()
			d.logger.Error("failed to submit ingest run", err, map[string]interface{}{"run_id": runID})
		}
	}
}

// Close stops accepting runs, drops queued ones and waits for running ones
// until ctx expires, after which their context is cancelled.
func (d *PoolDispatcher) Close(ctx context.Context) error {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.stop)
		close(d.queue)
		d.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		d.feeder.Wait()
		d.running.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	d.cancel()
	d.pool.Release()
	return err
}
