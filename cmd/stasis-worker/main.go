// Package main provides the Stasis worker, the service that executes
// workflows in response to trigger and delay-resume events.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/stasis-flow/stasis/pkg/cmd"
	"github.com/stasis-flow/stasis/pkg/log"
	"github.com/stasis-flow/stasis/pkg/otelhelper"
	"github.com/stasis-flow/stasis/pkg/workflow"
)

func main() {
	logger := log.WithModule("worker")

	command := &cli.Command{
		Name:                  "stasis-worker",
		Usage:                 "Execute workflows from trigger and delay events",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (kafka, gochannel)",
				Value:   "kafka",
				Sources: cli.EnvVars("EVENT_BUS"),
			},
			&cli.StringFlag{
				Name:    "worker-id",
				Usage:   "Stable worker identifier, generated when empty",
				Sources: cli.EnvVars("WORKER_ID"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Stasis worker")

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "worker-" + uuid.New().String()[:8]
			}

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), "stasis-worker", logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			tracer, err := otelhelper.NewTracer(ctx, "stasis-worker")
			if err != nil {
				return err
			}

			registry := cmd.NewRegistry(logger)
			executor := workflow.NewExecutor(logger, persistence, registry, eventBus)
			worker := NewWorker(workerID, logger, persistence, executor, eventBus, tracer)

			runCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if err := worker.Start(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		logger.Error("Worker exited with error", "error", err)
		os.Exit(1)
	}
}
