package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Aleph-Alpha/bookrag/internal/config"
	"github.com/Aleph-Alpha/bookrag/internal/ingest"
	"github.com/Aleph-Alpha/bookrag/internal/source"
	"github.com/Aleph-Alpha/bookrag/pkg/logger"
	"github.com/Aleph-Alpha/bookrag/pkg/minio"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"
)

const stopTimeout = 30 * time.Second

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "bookrag",
		Usage: "Question answering over the robotics book",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a yaml configuration file",
				EnvVars: []string{"BOOKRAG_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to a dotenv file, ignored when missing",
				Value: config.DefaultEnvFile,
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the chat and ingest HTTP API",
				Action: serveCommand,
			},
			{
				Name:   "ingest",
				Usage:  "Chunk, embed and index the book once and exit",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "run-id",
						Usage: "Identifier recorded in the ingest ledger (generated when empty)",
					},
				},
			},
			{
				Name:   "worker",
				Usage:  "Consume ingest runs from the job queue",
				Action: workerCommand,
			},
			{
				Name:   "book",
				Usage:  "Serve the markdown book as HTML",
				Action: bookCommand,
			},
			{
				Name:   "upload",
				Usage:  "Copy the local docs directory into the sources bucket",
				Action: uploadCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Docs directory to upload (defaults to DOCS_DIR)",
					},
					&cli.StringFlag{
						Name:  "prefix",
						Usage: "Key prefix inside the bucket (defaults to INGEST_MINIO_PREFIX)",
					},
				},
			},
		},
	}
}

func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("config"), c.String("env-file"))
	if err != nil {
		return config.Config{}, cli.Exit(err.Error(), 2)
	}
	return cfg, nil
}

func invalid(err error) error {
	return cli.Exit(fmt.Sprintf("invalid configuration:\n%v", err), 2)
}

func serveCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := cfg.ValidateServe(); err != nil {
		return invalid(err)
	}
	gin.SetMode(cfg.Server.Mode)

	return runUntilSignal(c.Context, fx.New(serveOptions(cfg)))
}

func ingestCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := cfg.ValidateIngest(); err != nil {
		return invalid(err)
	}
	cfg.Metrics.Disabled = true

	runID := c.String("run-id")
	if runID == "" {
		runID = uuid.NewString()
	}

	var (
		svc *ingest.Service
		log *logger.Logger
	)
	return runOnce(c.Context, fx.New(
		ingestOptions(cfg),
		fx.Populate(&svc, &log),
	), func(ctx context.Context) error {
		report, err := svc.Run(ctx, runID)
		if err != nil {
			return err
		}
		log.Info("ingestion finished", nil, map[string]interface{}{
			"run_id":   runID,
			"files":    report.Files,
			"chunks":   report.Chunks,
			"upserted": report.Upserted,
			"skipped":  report.Skipped,
		})
		return nil
	})
}

func workerCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := cfg.ValidateWorker(); err != nil {
		return invalid(err)
	}

	return runUntilSignal(c.Context, fx.New(workerOptions(cfg)))
}

func bookCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	gin.SetMode(cfg.Server.Mode)

	return runUntilSignal(c.Context, fx.New(bookOptions(cfg)))
}

func uploadCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := cfg.ValidateUpload(); err != nil {
		return invalid(err)
	}
	cfg.Metrics.Disabled = true

	dir := c.String("dir")
	if dir == "" {
		dir = cfg.Source.Dir
	}
	prefix := c.String("prefix")
	if prefix == "" {
		prefix = cfg.Source.Prefix
	}

	var (
		client *minio.Minio
		log    *logger.Logger
	)
	return runOnce(c.Context, fx.New(
		uploadOptions(cfg),
		fx.Populate(&client, &log),
	), func(ctx context.Context) error {
		n, err := source.Upload(ctx, source.NewDirSource(dir), client, prefix)
		if err != nil {
			return err
		}
		log.Info("docs uploaded", nil, map[string]interface{}{
			"dir":     dir,
			"bucket":  client.Bucket(),
			"prefix":  prefix,
			"objects": n,
		})
		return nil
	})
}

// runUntilSignal starts app and blocks until SIGINT, SIGTERM or an
// fx.Shutdowner request, then stops it.
func runUntilSignal(parent context.Context, app *fx.App) error {
	if err := app.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(parent, app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}

	sig := <-app.Wait()

	stopCtx, cancelStop := context.WithTimeout(context.Background(), stopTimeout)
	defer cancelStop()
	stopErr := app.Stop(stopCtx)

	if sig.ExitCode != 0 {
		return errors.Join(cli.Exit(fmt.Sprintf("stopped with exit code %d", sig.ExitCode), sig.ExitCode), stopErr)
	}
	return stopErr
}

// runOnce starts app, runs fn under a context cancelled by SIGINT or
// SIGTERM and stops app afterwards.
func runOnce(parent context.Context, app *fx.App, fn func(ctx context.Context) error) error {
	if err := app.Err(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}

	runErr := fn(ctx)

	stopCtx, cancelStop := context.WithTimeout(context.Background(), stopTimeout)
	defer cancelStop()
	return errors.Join(runErr, app.Stop(stopCtx))
}
