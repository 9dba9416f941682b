package main

import (
	"context"

	"github.com/Aleph-Alpha/bookrag/internal/book"
	"github.com/Aleph-Alpha/bookrag/internal/config"
	"github.com/Aleph-Alpha/bookrag/internal/embedcache"
	"github.com/Aleph-Alpha/bookrag/internal/ingest"
	"github.com/Aleph-Alpha/bookrag/internal/jobs"
	"github.com/Aleph-Alpha/bookrag/internal/llm"
	"github.com/Aleph-Alpha/bookrag/internal/rag"
	"github.com/Aleph-Alpha/bookrag/internal/server"
	"github.com/Aleph-Alpha/bookrag/internal/source"
	"github.com/Aleph-Alpha/bookrag/internal/vectorstore"
	"github.com/Aleph-Alpha/bookrag/pkg/embedding"
	"github.com/Aleph-Alpha/bookrag/pkg/logger"
	"github.com/Aleph-Alpha/bookrag/pkg/metrics"
	"github.com/Aleph-Alpha/bookrag/pkg/minio"
	"github.com/Aleph-Alpha/bookrag/pkg/postgres"
	"github.com/Aleph-Alpha/bookrag/pkg/qdrant"
	"github.com/Aleph-Alpha/bookrag/pkg/rabbit"
	"github.com/Aleph-Alpha/bookrag/pkg/tracer"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

// embedder is what both the ingest pipeline and the chat path need from
// the embedding client or its cache.
type embedder interface {
	ingest.Embedder
	rag.Embedder
}

// loggerPorts hands the zap wrapper to every package under its own
// Logger interface.
func loggerPorts(l *logger.Logger) (
	metrics.Logger, tracer.Logger, qdrant.Logger, embedding.Logger, minio.Logger,
	rabbit.Logger, postgres.Logger, embedcache.Logger, ingest.Logger, jobs.Logger,
	rag.Logger, server.Logger,
) {
	return l, l, l, l, l, l, l, l, l, l, l, l
}

func observability(cfg config.Config) fx.Option {
	return fx.Options(
		fx.Supply(cfg.Logger, cfg.Metrics, cfg.Tracer),
		logger.FXModule,
		metrics.FXModule,
		tracer.FXModule,
		fx.Provide(loggerPorts),
		fx.WithLogger(func(l *logger.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Zap.Named("fx")}
		}),
	)
}

func vectorStore(cfg config.Config) fx.Option {
	if cfg.VectorStore.Backend == vectorstore.BackendChromem {
		return fx.Provide(func() (vectorstore.Store, error) {
			return vectorstore.NewChromemStore(cfg.VectorStore, cfg.Qdrant.Collection)
		})
	}
	return fx.Options(
		fx.Supply(cfg.Qdrant),
		qdrant.FXModule,
		fx.Provide(func(c *qdrant.Client) vectorstore.Store {
			return vectorstore.NewQdrantStore(c)
		}),
	)
}

func embeddings(cfg config.Config) fx.Option {
	opts := []fx.Option{
		fx.Supply(cfg.Embedding),
		embedding.FXModule,
		fx.Provide(
			func(e embedder) ingest.Embedder { return e },
			func(e embedder) rag.Embedder { return e },
		),
	}
	if !cfg.Cache.Enabled() {
		return fx.Options(append(opts, fx.Provide(func(c *embedding.Client) embedder { return c }))...)
	}
	return fx.Options(append(opts, fx.Provide(
		func(lc fx.Lifecycle, c *embedding.Client, l embedcache.Logger) (embedder, error) {
			cache, err := embedcache.New(cfg.Cache, c, c.Model(), l)
			if err != nil {
				return nil, err
			}
			lc.Append(fx.StopHook(cache.Close))
			return cache, nil
		},
	))...)
}

func documents(cfg config.Config) fx.Option {
	if cfg.Source.Kind == source.KindMinio {
		return fx.Options(
			fx.Supply(cfg.Minio),
			minio.FXModule,
			fx.Provide(func(m *minio.Minio) (source.Source, error) {
				return source.New(cfg.Source, m)
			}),
		)
	}
	return fx.Provide(func() (source.Source, error) {
		return source.New(cfg.Source, nil)
	})
}

func ledger(cfg config.Config) fx.Option {
	if cfg.Ingest.Ledger != ingest.LedgerPostgres {
		return fx.Provide(func() ingest.Tracker { return ingest.NewMemoryTracker() })
	}
	return fx.Options(
		fx.Supply(cfg.Postgres),
		postgres.FXModule,
		fx.Provide(func(pg *postgres.Postgres) (ingest.Tracker, error) {
			return ingest.NewPostgresTracker(context.Background(), pg)
		}),
	)
}

// pipeline wires everything an ingestion run needs.
func pipeline(cfg config.Config) fx.Option {
	return fx.Options(
		vectorStore(cfg),
		embeddings(cfg),
		documents(cfg),
		ledger(cfg),
		fx.Supply(cfg.Ingest),
		fx.Provide(
			func(c ingest.Config, src source.Source, emb ingest.Embedder, store vectorstore.Store,
				tracker ingest.Tracker, m *metrics.Metrics, tr *tracer.Tracer, l ingest.Logger,
			) (*ingest.Service, error) {
				return ingest.NewService(c, ingest.Params{
					Source: src, Embedder: emb, Store: store, Tracker: tracker,
					Metrics: m, Tracer: tr, Logger: l,
				})
			},
			func(s *ingest.Service) jobs.Runner { return s },
		),
	)
}

func dispatcher(cfg config.Config) fx.Option {
	if cfg.Jobs.Dispatcher == jobs.DispatcherRabbit {
		return fx.Options(
			fx.Supply(cfg.Rabbit),
			rabbit.FXModule,
			fx.Provide(func(rb *rabbit.Rabbit, tr *tracer.Tracer, l jobs.Logger) jobs.Dispatcher {
				return jobs.NewRabbitDispatcher(rb, tr, l)
			}),
		)
	}
	return fx.Provide(func(lc fx.Lifecycle, r jobs.Runner, l jobs.Logger) (jobs.Dispatcher, error) {
		d, err := jobs.NewPoolDispatcher(cfg.Jobs, r, l)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.StopHook(d.Close))
		return d, nil
	})
}

func chat(cfg config.Config) fx.Option {
	return fx.Options(
		fx.Supply(cfg.RAG, cfg.LLM),
		fx.Provide(
			llm.NewClient,
			func(c *llm.Client) rag.Generator { return c },
			func(s vectorstore.Store) rag.Searcher { return s },
			rag.NewService,
			func(s *rag.Service) server.Answerer { return s },
		),
	)
}

// workerLoop consumes the job queue for the lifetime of the application.
func workerLoop(lc fx.Lifecycle, rb *rabbit.Rabbit, runner jobs.Runner, tr *tracer.Tracer, l jobs.Logger, sh fx.Shutdowner) {
	w := jobs.NewWorker(rb, runner, tr, l)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				if err := w.Run(ctx); err != nil && ctx.Err() == nil {
					l.Error("ingest worker stopped", err, nil)
					_ = sh.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}

func serveOptions(cfg config.Config) fx.Option {
	return fx.Options(
		observability(cfg),
		pipeline(cfg),
		dispatcher(cfg),
		chat(cfg),
		fx.Supply(cfg.Server),
		server.FXModule,
	)
}

func ingestOptions(cfg config.Config) fx.Option {
	return fx.Options(
		observability(cfg),
		pipeline(cfg),
	)
}

func workerOptions(cfg config.Config) fx.Option {
	return fx.Options(
		observability(cfg),
		pipeline(cfg),
		fx.Supply(cfg.Rabbit),
		rabbit.FXModule,
		fx.Invoke(workerLoop),
	)
}

func bookOptions(cfg config.Config) fx.Option {
	return fx.Options(
		observability(cfg),
		fx.Supply(cfg.Book),
		book.FXModule,
	)
}

func uploadOptions(cfg config.Config) fx.Option {
	return fx.Options(
		observability(cfg),
		fx.Supply(cfg.Minio),
		minio.FXModule,
	)
}
