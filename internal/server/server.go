// Package server exposes the chat and ingest HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Aleph-Alpha/bookrag/pkg/metrics"
	"github.com/Aleph-Alpha/bookrag/pkg/tracer"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

const (
	DefaultAddress         = ":8000"
	DefaultShutdownTimeout = 10 * time.Second
)

type Config struct {
	Address string `yaml:"address" envconfig:"SERVER_ADDRESS"`

	// Mode is the gin mode: "release", "debug" or "test".
	Mode string `yaml:"mode" envconfig:"GIN_MODE"`

	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" envconfig:"SERVER_READ_HEADER_TIMEOUT"`
}

func DefaultConfig() Config {
	return Config{Address: DefaultAddress, Mode: gin.ReleaseMode, ReadHeaderTimeout: 10 * time.Second}
}

type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
	InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}

// NewRouter wires middleware and routes. CORS is open to every origin
// because the book frontend is served from a different host.
func NewRouter(h *Handler, m *metrics.Metrics, tr *tracer.Tracer, logger Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:    []string{"*"},
		MaxAge:          12 * time.Hour,
	}))
	r.Use(Tracing(tr), AccessLog(logger, m))

	r.GET("/", h.root)
	r.GET("/healthz", h.healthz)
	r.POST("/chat", h.chat)
	r.POST("/ingest", h.scheduleIngest)
	r.GET("/ingest", h.listIngestRuns)
	r.GET("/ingest/:id", h.getIngestRun)
	return r
}

// Server owns the HTTP listener for the API.
type Server struct {
	http   *http.Server
	logger Logger
}

func NewServer(cfg Config, router *gin.Engine, logger Logger) *Server {
	addr := cfg.Address
	if addr == "" {
		addr = DefaultAddress
	}
	return &Server{
		http: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		},
		logger: logger,
	}
}

// RegisterServerLifecycle serves in the background while the application
// runs and drains in-flight requests on stop.
func RegisterServerLifecycle(lc fx.Lifecycle, s *Server, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				s.logger.Info("starting HTTP server", nil, map[string]interface{}{"address": s.http.Addr})
				if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					s.logger.Error("HTTP server stopped unexpectedly", err, map[string]interface{}{"address": s.http.Addr})
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, DefaultShutdownTimeout)
			defer cancel()
			return s.http.Shutdown(ctx)
		},
	})
}

// FXModule provides the API router and server. The Answerer, Tracker,
// Dispatcher and Logger come from the caller.
var FXModule = fx.Module("server",
	fx.Provide(
		NewHandler,
		NewRouter,
		NewServer,
	),
	fx.Invoke(RegisterServerLifecycle),
)
