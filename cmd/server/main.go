package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"timber-platform/internal/catalog"
	"timber-platform/internal/config"
	"timber-platform/internal/engine"
	"timber-platform/internal/handlers"
	"timber-platform/internal/repository"
	"timber-platform/internal/services"
	"timber-platform/pkg/database"
	"timber-platform/pkg/logging"
	"timber-platform/pkg/metrics"
)

const serviceVersion = "1.0.0"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("timber-api", serviceVersion, logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	logger.Info(ctx, "[STARTUP] Starting timber volume API server", logging.Fields{
		"version":        serviceVersion,
		"engine_version": engine.Version(),
		"server_host":    cfg.Server.Host,
		"server_port":    cfg.Server.Port,
		"catalog_source": cfg.Catalog.Source,
	})

	metricsCollector := metrics.NewCollector("timber_platform")

	// The catalog load is the one-time initialization barrier: after this
	// point it is read-only and estimation calls share it freely.
	cat, db, err := loadCatalog(ctx, cfg, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to load equation catalog", logging.Fields{}, err)
	}
	if db != nil {
		defer db.Close()
	}

	estimationService := services.NewEstimationService(cat, logger, metricsCollector)
	catalogService := services.NewCatalogService(cat, logger, metricsCollector)

	estimateHandler := handlers.NewEstimateHandler(estimationService, catalogService, logger, metricsCollector)

	router := mux.NewRouter()
	estimateHandler.RegisterRoutes(router)

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info(ctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address": server.Addr,
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "[SERVER_ERROR] Server failed", logging.Fields{}, err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "[SHUTDOWN] Shutting down server...", logging.Fields{})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "[SHUTDOWN_ERROR] Server forced to shutdown", logging.Fields{}, err)
	}

	logger.Info(ctx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}

// loadCatalog builds the immutable equation catalog from the configured
// source. The database handle is returned only when one was opened, so the
// caller can close it at shutdown.
func loadCatalog(ctx context.Context, cfg *config.Config, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) (*catalog.Catalog, *database.PostgresDB, error) {
	if cfg.Catalog.Source == "embedded" {
		logger.Info(ctx, "[CATALOG_EMBEDDED] Using the built-in equation tables", logging.Fields{
			"version": catalog.EmbeddedVersion,
		})
		return catalog.Default(), nil, nil
	}

	dbConfig := &database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}

	db, err := database.NewPostgresDB(dbConfig, logger, metricsCollector)
	if err != nil {
		return nil, nil, err
	}

	repo := repository.NewCatalogRepository(db, logger, metricsCollector)

	entries, err := repo.LoadEntries(ctx)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	traits, err := repo.LoadSpeciesTraits(ctx)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	version, err := repo.TableVersion(ctx)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	return catalog.Load(version, entries, traits), db, nil
}
