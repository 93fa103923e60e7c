package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docmgmt/docs"
	"docmgmt/internal/config"
	"docmgmt/internal/database"
	"docmgmt/internal/database/migration"
	handlers "docmgmt/internal/http/handler"
	"docmgmt/internal/http/middleware"
	"docmgmt/internal/logging"
	"docmgmt/internal/metrics"
	"docmgmt/internal/otel"
	"docmgmt/internal/repository/postgres"
	"docmgmt/internal/service"
	"docmgmt/internal/storage"
)

// @title Document Management API
// @version 1.0
// @BasePath /
func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	loc := cfg.Location()
	logger := logging.New(cfg.ServiceName, cfg.LogLevel, loc)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, cfg.ServiceName, logger)
	if err != nil {
		logger.Error("tracing_init_failed", "error", err)
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("tracing_shutdown_failed", "error", err)
		}
	}()

	db, err := database.NewPostgres(ctx, cfg.Database, cfg.ServiceName, logger)
	if err != nil {
		logger.Error("db_connect_failed", "error", err)
		return err
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := migration.EnsureMigrated(ctx, db, logger, cfg.Database.Host); err != nil {
			return err
		}
	}

	// Reusable S3-compatible object storage client (MinIO-supported)
	minioStore, err := storage.NewMinIO(ctx, cfg.MinIO)
	if err != nil {
		logger.Error("storage_init_failed", "error", err)
		return err
	}
	var objStore storage.Storage = minioStore
	if cfg.MinIO.Breaker.Enabled {
		objStore = storage.NewBreaker(minioStore, cfg.MinIO.Breaker, logger.With("component", "storage"))
	}

	domainMetrics, err := metrics.NewDomain(prometheus.DefaultRegisterer)
	if err != nil {
		logger.Error("metrics_init_failed", "error", err)
		return err
	}
	httpMetrics, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		logger.Error("metrics_init_failed", "error", err)
		return err
	}

	categories := postgres.NewCategoryPostgres(db)
	types := postgres.NewTypePostgres(db)
	validator := service.NewValidator(cfg.Documents.TitleMaxLength)

	docSvc := service.NewDocumentService(objStore, postgres.NewDocumentPostgres(db), validator,
		service.WithLogger(logger.With("component", "documents")),
		service.WithMetrics(domainMetrics),
		service.WithPresignExpiry(cfg.MinIO.PresignExpiry),
	)
	services := handlers.Services{
		Documents: docSvc,
		Registry:  service.NewRegistryService(postgres.NewDepartmentPostgres(db), categories, types, validator),
		Resolver:  service.NewResolver(categories, types, docSvc, validator, cfg.Documents.ResolveAttempts, domainMetrics),
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	app.Use(middleware.RequestID())
	app.Use(otelfiber.Middleware(otelfiber.WithNext(func(c *fiber.Ctx) bool {
		return c.Path() == "/metrics" || c.Path() == "/healthz"
	})))
	app.Use(httpMetrics.Handler())
	app.Use(middleware.Logger(logger.With("component", "http")))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	handlers.RegisterRoutes(app, db, services)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Port
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server_starting", "addr", addr)
		serveErr <- app.Listen(addr)
	}()

	select {
	case err := <-serveErr:
		logger.Error("server_failed", "error", err)
		return err
	case <-ctx.Done():
	}

	logger.Info("server_stopping")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(sctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		logger.Error("server_shutdown_failed", "error", err)
		return err
	}
	return nil
}
