// Package jobs hands ingest runs to something that executes them in the
// background: an in-process worker pool or a RabbitMQ queue consumed by
// "bookrag worker".
package jobs

import (
	"context"
	"errors"

	"github.com/Aleph-Alpha/bookrag/internal/ingest"
)

const (
	DispatcherPool   = "pool"
	DispatcherRabbit = "rabbit"

	DefaultPoolSize  = 1
	DefaultQueueSize = 16
)

var (
	ErrQueueFull = errors.New("ingest queue is full")
	ErrClosed    = errors.New("dispatcher is closed")
)

type Config struct {
	// Dispatcher is "pool" or "rabbit".
	Dispatcher string `yaml:"dispatcher" envconfig:"JOB_DISPATCHER"`

	// PoolSize is the number of runs executed at once by the pool
	// dispatcher. One serializes runs.
	PoolSize int `yaml:"pool_size" envconfig:"JOB_POOL_SIZE"`

	// QueueSize bounds the runs waiting for a free pool worker.
	QueueSize int `yaml:"queue_size" envconfig:"JOB_QUEUE_SIZE"`
}

func DefaultConfig() Config {
	return Config{Dispatcher: DispatcherPool, PoolSize: DefaultPoolSize, QueueSize: DefaultQueueSize}
}

// Dispatcher schedules a run for background execution. It returns once the
// run is queued, not when it finishes.
type Dispatcher interface {
	Dispatch(ctx context.Context, runID string) error
}

// Runner executes one ingest run.
type Runner interface {
	Run(ctx context.Context, runID string) (ingest.Report, error)
}

type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// message is the body published for each run.
type message struct {
	RunID string `json:"run_id"`
}
