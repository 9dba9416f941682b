package qdrant

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

// Logger defines the logging operations used by the qdrant package.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
	Fatal(msg string, err error, fields ...map[string]interface{})
}

// Client wraps the official Qdrant gRPC client with the handful of
// collection and point operations the book index needs.
type Client struct {
	api    *qdrant.Client
	cfg    Config
	logger Logger
}

// NewClient connects to Qdrant and verifies the connection with a health
// check. Zero values in cfg fall back to DefaultConfig.
//
// Example:
//
//	client, err := qdrant.NewClient(qdrant.Config{
//	    Endpoint: "https://xyz.cloud.qdrant.io",
//	    ApiKey:   os.Getenv("QDRANT_API_KEY"),
//	}, log)
func NewClient(cfg Config, logger Logger) (*Client, error) {
	cfg = withDefaults(cfg)

	host, useTLS, err := parseEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("[Qdrant] invalid endpoint %q: %w", cfg.Endpoint, err)
	}

	logger.Info("[Qdrant] connecting", nil, map[string]interface{}{
		"host": host,
		"port": cfg.Port,
		"tls":  useTLS || cfg.UseTLS,
	})

	api, err := qdrant.NewClient(&qdrant.Config{
		Host:                   host,
		Port:                   cfg.Port,
		APIKey:                 cfg.ApiKey,
		UseTLS:                 useTLS || cfg.UseTLS,
		SkipCompatibilityCheck: !cfg.CheckCompatibility,
	})
	if err != nil {
		return nil, fmt.Errorf("[Qdrant] failed to initialize client: %w", err)
	}

	c := &Client{api: api, cfg: cfg, logger: logger}
	if err := c.healthCheck(); err != nil {
		_ = api.Close()
		return nil, err
	}

	return c, nil
}

func (c *Client) healthCheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Timeout)
	defer cancel()

	resp, err := c.api.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("[Qdrant] health check failed: %w", err)
	}

	c.logger.Info("[Qdrant] health check passed", nil, map[string]interface{}{
		"title":   resp.GetTitle(),
		"version": resp.GetVersion(),
	})
	return nil
}

// Config returns the effective configuration, defaults applied.
func (c *Client) Config() Config {
	return c.cfg
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c.api == nil {
		return nil
	}
	return c.api.Close()
}

func withDefaults(cfg Config) Config {
	def := DefaultConfig()
	if cfg.Endpoint == "" {
		cfg.Endpoint = def.Endpoint
	}
	if cfg.Port == 0 {
		cfg.Port = def.Port
	}
	if cfg.Collection == "" {
		cfg.Collection = def.Collection
	}
	if cfg.VectorSize == 0 {
		cfg.VectorSize = def.VectorSize
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return cfg
}
