package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/shopfloor-issues/internal/analytics"
	httptransport "github.com/spec-kit/shopfloor-issues/internal/api/http"
	"github.com/spec-kit/shopfloor-issues/internal/api/http/handlers"
	"github.com/spec-kit/shopfloor-issues/internal/auth"
	"github.com/spec-kit/shopfloor-issues/internal/events"
	"github.com/spec-kit/shopfloor-issues/internal/observability"
	"github.com/spec-kit/shopfloor-issues/internal/persistence"
	"github.com/spec-kit/shopfloor-issues/internal/service"
	"github.com/spec-kit/shopfloor-issues/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	stopwords := analytics.DefaultStopwords()
	if path := cfg.Analytics.StopwordsFile; path != "" {
		if stopwords, err = analytics.LoadStopwords(path); err != nil {
			logger.Fatal("failed to load stopwords", zap.Error(err))
		}
		logger.Info("loaded stopwords", zap.String("file", path), zap.Int("count", stopwords.Len()))
	}

	store := pg.Store(logger)
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)

	authService := service.NewAuthService(cfg.Auth, store.Users())
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), store.Users())

	issueService := service.NewIssueService(service.IssueDependencies{
		Store:      store,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})

	analyticsDeps := service.AnalyticsDependencies{
		Store:        store,
		Stopwords:    stopwords,
		ResultLimit:  cfg.Analytics.SearchResultLimit,
		QueryTimeout: cfg.Analytics.ReportQueryTimeout(),
		Metrics:      metrics,
		Logger:       logger,
	}
	if cache := persistence.NewReportCache(redis, cfg.Analytics.ReportCacheTTL()); cache != nil {
		analyticsDeps.Cache = cache
	}
	analyticsService := service.NewAnalyticsService(analyticsDeps)

	notificationService := service.NewNotificationService(dispatcher, logger)
	worker.StartNotificationWorker(dispatcher, notificationService, analyticsService)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, store, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Issues:         handlers.NewIssuesHandler(issueService),
		Analytics:      handlers.NewAnalyticsHandler(analyticsService),
		Categories:     handlers.NewCategoriesHandler(service.NewCategoryService(store.Categories())),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
	})

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	return app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
