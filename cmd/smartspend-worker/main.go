package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"smartspend/internal/amqp"
	"smartspend/internal/cli"
	"smartspend/internal/log"
	"smartspend/internal/services"
	"smartspend/internal/sheets"
	gsheet "smartspend/internal/sheets/google"
	"smartspend/internal/worker"
)

const jobTimeout = 5 * time.Minute

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentWorker)
	logger.Info("Starting smartspend-worker", "backend", cfg.DataBackend)

	backendRes := cli.OpenStore(context.Background(), logger, cfg)
	st := backendRes.Store
	defer func() {
		if err := backendRes.Cleanup(); err != nil {
			logger.Error("Failed to close data backend", log.FieldError, err)
		}
	}()

	// Initialize Google Sheets export (optional)
	var exporter sheets.Exporter
	if cfg.SheetsEnabled() {
		client, err := gsheet.New(context.Background(), gsheet.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsFile: cfg.GoogleServiceAccountFile,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			Logger:          logger.WithComponent(log.ComponentSheets).Slog(),
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		exporter = client
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	} else {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	client := cli.ConnectAMQP(logger, cfg, cfg.AMQPQueue)
	opts := services.Options{Logger: logger.WithComponent(log.ComponentScheduler).Slog()}
	if client != nil {
		defer client.Close()
		opts.Publisher = client
	}

	alerts := services.NewAlertService(st, cfg.BudgetAlertThreshold, opts)
	reports := services.NewReportService(st, cfg.BudgetAlertThreshold, opts)

	scheduler := services.NewScheduler(logger.WithComponent(log.ComponentScheduler).Slog(),
		services.Job{
			Name:     "budget-alerts",
			Schedule: cfg.AlertSchedule,
			Timeout:  jobTimeout,
			Run: func(ctx context.Context) error {
				n, err := alerts.Sweep(ctx)
				logger.InfoContext(ctx, "Budget alert sweep done", "alerts", n)
				return err
			},
		},
		services.Job{
			Name:     "weekly-report",
			Schedule: cfg.ReportSchedule,
			Timeout:  jobTimeout,
			Run: func(ctx context.Context) error {
				n, err := reports.SendWeekly(ctx)
				logger.InfoContext(ctx, "Weekly reports sent", "reports", n)
				return err
			},
		},
	)

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := scheduler.Stop(ctx); err != nil {
			logger.Error("Scheduler shutdown error", log.FieldError, err)
		}
	})

	if err := scheduler.Start(ctx); err != nil {
		logger.Error("Failed to start scheduler", log.FieldError, err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	if client != nil {
		handler := worker.NewEventWorker(exporter, alerts, logger.WithComponent(log.ComponentWorker).Slog())
		g.Go(func() error {
			logger.Info("Consuming events", "queue", cfg.AMQPQueue)
			return client.Consume(gctx, amqp.Handler(handler.Handle))
		})
	} else {
		logger.Warn("No AMQP connection - running scheduled jobs only")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker failed", log.FieldError, err)
		_ = scheduler.Stop(context.Background())
		os.Exit(1)
	}

	<-ctx.Done()
	<-done
	logger.Info("Worker stopped gracefully")
}
