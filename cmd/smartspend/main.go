package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"smartspend/internal/cache"
	"smartspend/internal/cli"
	"smartspend/internal/core"
	apphttp "smartspend/internal/http"
	"smartspend/internal/log"
	"smartspend/internal/seed"
	"smartspend/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentApp)
	logger.Info("Starting smartspend server", "port", cfg.Port, "backend", cfg.DataBackend)

	backendRes := cli.OpenStore(context.Background(), logger, cfg)
	st := backendRes.Store
	defer func() {
		if err := backendRes.Cleanup(); err != nil {
			logger.Error("Failed to close data backend", log.FieldError, err)
		}
	}()

	// Read-model caches, swept by the manager in the background
	dashboards := cache.NewLRUCache[services.Dashboard](cfg.CacheSize, cfg.CacheTTL)
	analytics := cache.NewLRUCache[core.Analytics](cfg.CacheSize, cfg.CacheTTL)
	cacheManager := cache.NewManager(logger.WithComponent(log.ComponentCache).Slog())
	cacheManager.Register("dashboard", dashboards)
	cacheManager.Register("analytics", analytics)
	cacheManager.StartCleanup(cfg.CacheTTL)
	defer cacheManager.Stop()

	dash := services.NewDashboardService(st, dashboards, analytics, logger.WithComponent(log.ComponentDashboard).Slog())

	opts := services.Options{Invalidator: dash, Logger: logger.Slog()}
	if client := cli.ConnectAMQP(logger, cfg, cfg.AMQPQueue); client != nil {
		defer client.Close()
		opts.Publisher = client
	}

	svc := apphttp.Services{
		Expenses:  services.NewExpenseService(st, withComponent(opts, logger, log.ComponentExpense)),
		Budgets:   services.NewBudgetService(st, withComponent(opts, logger, log.ComponentBudget)),
		Goals:     services.NewGoalService(st, withComponent(opts, logger, log.ComponentGoal)),
		Settings:  services.NewSettingsService(st, withComponent(opts, logger, log.ComponentSettings)),
		Dashboard: dash,
	}

	if cfg.DemoSeed {
		ds, err := seed.Demo()
		if err != nil {
			logger.Error("Failed to parse demo dataset", log.FieldError, err)
			os.Exit(1)
		}
		res, err := seed.Load(context.Background(), st, cfg.DemoUserID, ds, time.Now())
		if err != nil {
			logger.Error("Failed to seed demo data", log.FieldError, err)
			os.Exit(1)
		}
		logger.Info("Demo data loaded",
			log.FieldUserID, cfg.DemoUserID,
			"expenses", res.Expenses,
			"budgets", res.Budgets,
			"goals", res.Goals,
			"skipped", res.Skipped)
	}

	srv := apphttp.NewServer(":"+cfg.Port, svc, st, apphttp.Options{
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Caches: map[string]apphttp.StatsReporter{
			"dashboard": dashboards,
			"analytics": analytics,
		},
	})

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	<-done
	logger.Info("Server stopped gracefully")
}

func withComponent(opts services.Options, logger *log.Logger, component string) services.Options {
	opts.Logger = logger.WithComponent(component).Slog()
	return opts
}
