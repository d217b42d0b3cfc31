package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mtlprog/taskescrow/internal/config"
	"github.com/mtlprog/taskescrow/internal/database"
	"github.com/mtlprog/taskescrow/internal/handler"
	"github.com/mtlprog/taskescrow/internal/logger"
	"github.com/mtlprog/taskescrow/internal/repository"
	"github.com/mtlprog/taskescrow/internal/service"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "taskescrow",
		Usage: "Trust-minimized escrow ledger for two-party task contracts",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:     "database-url",
				Aliases:  []string{"d"},
				Value:    config.DefaultDatabaseURL,
				Usage:    "PostgreSQL database URL",
				EnvVars:  []string{"DATABASE_URL"},
				Required: true,
			},
		},
		Before: func(c *cli.Context) error {
			logger.Setup(logger.ParseLevel(c.String("log-level")))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Start the ledger API server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Value:   config.DefaultPort,
						Usage:   "HTTP server port",
						EnvVars: []string{"PORT"},
					},
				},
				Action: runServe,
			},
			{
				Name:   "audit",
				Usage:  "Verify escrow conservation against the task ledger",
				Action: runAudit,
			},
		},
		Action: runServe,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func connect(ctx context.Context, databaseURL string) (*database.DB, error) {
	db, err := database.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := database.RunMigrations(ctx, db.Pool()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

func runServe(c *cli.Context) error {
	ctx := c.Context

	port := c.String("port")
	if port == "" {
		port = config.DefaultPort
	}

	db, err := connect(ctx, c.String("database-url"))
	if err != nil {
		return err
	}
	defer db.Close()

	h := handler.New(db.Pool())

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "server_addr", "http://localhost:"+port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-done:
		slog.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

func runAudit(c *cli.Context) error {
	ctx := c.Context

	db, err := connect(ctx, c.String("database-url"))
	if err != nil {
		return err
	}
	defer db.Close()

	pool := db.Pool()
	svc := service.NewEscrowService(pool,
		repository.NewTaskRepository(pool),
		repository.NewCounterRepository(pool),
		repository.NewEscrowRepository(pool),
		repository.NewAccountRepository(pool),
		repository.NewReputationRepository(pool),
		repository.NewTaskEventRepository(pool),
		repository.NewLedgerStatsRepository(pool),
		nil)

	result, err := svc.Audit(ctx)
	if err != nil {
		return fmt.Errorf("audit failed: %w", err)
	}

	if !result.Balanced {
		slog.Error("ledger invariants violated",
			"held_total", result.HeldTotal,
			"unpaid_reward_sum", result.UnpaidRewardSum,
			"task_count", result.TaskCount,
			"counter_value", result.CounterValue,
		)
		return fmt.Errorf("ledger out of balance: held %s, unpaid rewards %s, %d tasks against counter %d",
			result.HeldTotal, result.UnpaidRewardSum, result.TaskCount, result.CounterValue)
	}

	slog.Info("ledger balanced",
		"held_total", result.HeldTotal,
		"unpaid_reward_sum", result.UnpaidRewardSum,
		"task_count", result.TaskCount,
	)
	return nil
}
