package minio

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Logger defines the logging operations used by the minio package.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
	Fatal(msg string, err error, fields ...map[string]interface{})
}

// Minio wraps a minio-go client bound to a single bucket. A background
// monitor checks the connection and replaces the client when it fails.
type Minio struct {
	client *minio.Client
	cfg    Config
	logger Logger
	mu     sync.RWMutex

	shutdownSignal  chan struct{}
	reconnectSignal chan error
	shutdownOnce    sync.Once

	bufferPool *BufferPool
}

// BufferPool recycles download buffers.
type BufferPool struct {
	pool sync.Pool
}

func NewBufferPool() *BufferPool {
	return &BufferPool{
		pool: sync.Pool{
			New: func() interface{} {
				return new(bytes.Buffer)
			},
		},
	}
}

func (bp *BufferPool) Get() *bytes.Buffer {
	return bp.pool.Get().(*bytes.Buffer)
}

func (bp *BufferPool) Put(b *bytes.Buffer) {
	b.Reset()
	bp.pool.Put(b)
}

// NewClient connects to the configured endpoint and verifies that the
// bucket is reachable, creating it when Connection.CreateBucket is set.
func NewClient(cfg Config, logger Logger) (*Minio, error) {
	if cfg.DownloadConfig.SmallFileThreshold <= 0 {
		cfg.DownloadConfig.SmallFileThreshold = defaultSmallFileThreshold
	}
	if cfg.DownloadConfig.MaxObjectSize <= 0 {
		cfg.DownloadConfig.MaxObjectSize = defaultMaxObjectSize
	}

	fields := map[string]interface{}{
		"endpoint": cfg.Connection.Endpoint,
		"region":   cfg.Connection.Region,
		"secure":   cfg.Connection.UseSSL,
		"bucket":   cfg.Connection.BucketName,
	}

	client, err := connectToMinio(cfg, logger)
	if err != nil {
		logger.Error("failed to connect to minio", err, fields)
		return nil, err
	}

	m := &Minio{
		client:          client,
		cfg:             cfg,
		logger:          logger,
		shutdownSignal:  make(chan struct{}),
		reconnectSignal: make(chan error, 1),
		bufferPool:      NewBufferPool(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := m.ensureBucketExists(ctx); err != nil {
		logger.Error("failed to verify bucket", err, fields)
		return nil, err
	}

	return m, nil
}

// Bucket returns the configured bucket name.
func (m *Minio) Bucket() string {
	return m.cfg.Connection.BucketName
}

func (m *Minio) api() *minio.Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client
}

// Close stops the monitor goroutines. It is safe to call more than once.
func (m *Minio) Close() {
	m.shutdownOnce.Do(func() {
		close(m.shutdownSignal)
	})
}

func connectToMinio(cfg Config, logger Logger) (*minio.Client, error) {
	if cfg.Connection.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint cannot be empty")
	}

	logger.Info("Connecting to MinIO", nil, map[string]interface{}{
		"endpoint": cfg.Connection.Endpoint,
		"secure":   cfg.Connection.UseSSL,
	})

	return minio.New(cfg.Connection.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Connection.AccessKeyID, cfg.Connection.SecretAccessKey, ""),
		Secure: cfg.Connection.UseSSL,
		Region: cfg.Connection.Region,
	})
}

// validateConnection checks bucket access rather than listing buckets, so
// keys scoped to a single bucket pass.
func (m *Minio) validateConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := m.api().BucketExists(ctx, m.cfg.Connection.BucketName)
	return err
}

func (m *Minio) ensureBucketExists(ctx context.Context) error {
	bucketName := m.cfg.Connection.BucketName
	if bucketName == "" {
		return fmt.Errorf("bucket name is empty")
	}

	exists, err := m.api().BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("failed to check if bucket exists, bucket: %v, err: %w", bucketName, err)
	}
	if exists {
		return nil
	}
	if !m.cfg.Connection.CreateBucket {
		return fmt.Errorf("bucket %q does not exist", bucketName)
	}

	m.logger.Info("Bucket does not exist, creating it", nil, map[string]interface{}{
		"bucket": bucketName,
		"region": m.cfg.Connection.Region,
	})
	return m.api().MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: m.cfg.Connection.Region})
}

// monitorConnection probes the bucket periodically and signals
// retryConnection on failure.
func (m *Minio) monitorConnection(ctx context.Context) {
	ticker := time.NewTicker(connectionHealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := m.validateConnection(ctx); err != nil {
				m.logger.Error("MinIO connection health check failed", err, map[string]interface{}{
					"endpoint": m.cfg.Connection.Endpoint,
				})
				select {
				case m.reconnectSignal <- err:
				default:
				}
			}
		case <-m.shutdownSignal:
			return
		case <-ctx.Done():
			return
		}
	}
}

// retryConnection rebuilds the client after a failed health check and keeps
// trying once per second until the bucket is reachable again.
func (m *Minio) retryConnection(ctx context.Context) {
	for {
		select {
		case <-m.shutdownSignal:
			return
		case <-ctx.Done():
			return
		case err := <-m.reconnectSignal:
			m.logger.Warn("MinIO connection issue detected, attempting reconnection", err, nil)
			if !m.reconnect(ctx) {
				return
			}
		}
	}
}

func (m *Minio) reconnect(ctx context.Context) bool {
	for {
		select {
		case <-m.shutdownSignal:
			return false
		case <-ctx.Done():
			return false
		default:
		}

		client, err := connectToMinio(m.cfg, m.logger)
		if err == nil {
			m.mu.Lock()
			m.client = client
			m.mu.Unlock()
			err = m.validateConnection(ctx)
		}
		if err != nil {
			m.logger.Error("MinIO reconnection failed", err, map[string]interface{}{"will_retry_in": "1 second"})
			time.Sleep(time.Second)
			continue
		}

		m.logger.Info("Successfully reconnected to MinIO", nil, map[string]interface{}{
			"endpoint": m.cfg.Connection.Endpoint,
		})
		return true
	}
}
