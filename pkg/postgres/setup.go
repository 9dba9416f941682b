package postgres

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

//go:generate mockgen -source=setup.go -destination=mock_logger.go -package=postgres

// Logger defines the interface for logging operations within the postgres package.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
	Fatal(msg string, err error, fields ...map[string]interface{})
}

// Postgres wraps gorm.DB with health monitoring and reconnection. Every
// operation takes the read lock; only a reconnect swaps the client.
type Postgres struct {
	client          *gorm.DB
	cfg             Config
	logger          Logger
	mu              sync.RWMutex
	shutdownSignal  chan struct{}
	retryChanSignal chan error

	closeShutdownOnce sync.Once
}

// NewPostgres opens the database and verifies it answers a ping.
func NewPostgres(cfg Config, logger Logger) (*Postgres, error) {
	conn, err := connectToPostgres(logger, cfg)
	if err != nil {
		logger.Error("error in connecting to postgres", err, map[string]interface{}{
			"host": cfg.Connection.Host,
			"db":   cfg.Connection.DbName,
		})
		return nil, err
	}

	return &Postgres{
		client:          conn,
		cfg:             cfg,
		logger:          logger,
		shutdownSignal:  make(chan struct{}),
		retryChanSignal: make(chan error, 1),
	}, nil
}

func connectToPostgres(logger Logger, cfg Config) (*gorm.DB, error) {
	database, err := gorm.Open(
		postgres.Open(cfg.Connection.DSN()),
		&gorm.Config{
			TranslateError: true,
			Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgresSQL database: %w", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get PostgresSQL database instance: %w", err)
	}

	details := cfg.ConnectionDetails
	if details.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(details.MaxOpenConns)
	}
	if details.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(details.MaxIdleConns)
	}
	if details.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(details.ConnMaxLifetime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping PostgresSQL database: %w", err)
	}

	logger.Info("Successfully connected to PostgresSQL database", nil, nil)
	return database, nil
}

// DB returns the underlying GORM client.
func (p *Postgres) DB() *gorm.DB {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.client
}

// retryConnection waits for failure signals from monitorConnection and
// re-dials until a new client is in place.
func (p *Postgres) retryConnection(ctx context.Context) {
outerLoop:
	for {
		select {
		case <-p.shutdownSignal:
			p.logger.Info("Stopping RetryConnection loop due to shutdown signal", nil, nil)
			return
		case <-ctx.Done():
			return
		case err := <-p.retryChanSignal:
			p.logger.Warn("postgres health check failed, reconnecting", err, nil)
			for {
				select {
				case <-p.shutdownSignal:
					return
				case <-ctx.Done():
					return
				default:
				}

				newConn, err := connectToPostgres(p.logger, p.cfg)
				if err != nil {
					p.logger.Error("Reconnection failed", err, nil)
					time.Sleep(time.Second)
					continue
				}

				p.mu.Lock()
				old := p.client
				p.client = newConn
				p.mu.Unlock()

				if sqlDB, err := old.DB(); err == nil {
					_ = sqlDB.Close()
				}
				p.logger.Info("Reconnected to PostgresSQL database", nil, nil)
				continue outerLoop
			}
		}
	}
}

// monitorConnection pings the database every interval and signals
// retryConnection on failure.
func (p *Postgres) monitorConnection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.shutdownSignal:
			p.logger.Info("Stopping MonitorConnection loop due to shutdown signal", nil, nil)
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.healthCheck(); err != nil {
				select {
				case p.retryChanSignal <- err:
				default:
				}
			}
		}
	}
}

func (p *Postgres) healthCheck() error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.client == nil {
		return fmt.Errorf("database client is not initialized")
	}

	db, err := p.client.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance during health check: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed during health check: %w", err)
	}
	return nil
}

// Close stops the background loops and closes the pool.
func (p *Postgres) Close() error {
	p.closeShutdownOnce.Do(func() {
		close(p.shutdownSignal)
	})

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client == nil {
		return nil
	}
	sqlDB, err := p.client.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
