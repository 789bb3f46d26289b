package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/citizen-api/internal/config"
	"github.com/jwalitptl/citizen-api/internal/handler/health"
	"github.com/jwalitptl/citizen-api/internal/repository/memory"
	"github.com/jwalitptl/citizen-api/internal/repository/postgres"
	"github.com/jwalitptl/citizen-api/internal/seed"
	"github.com/jwalitptl/citizen-api/internal/server"
	"github.com/jwalitptl/citizen-api/pkg/logger"
	"github.com/jwalitptl/citizen-api/pkg/metrics"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		Console:    cfg.Log.Console,
	})
	log.Logger = *appLogger.Zerolog()
	gin.SetMode(cfg.Server.Mode)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New("citizen_portal", reg)

	var (
		stores server.Stores
		checks = map[string]health.Checker{}
	)
	switch cfg.Storage.Driver {
	case "memory":
		appLogger.Warn("Using in-memory storage; data is lost on restart")
		store := memory.NewStore()
		if cfg.Storage.SeedFile != "" {
			f, err := seed.LoadFile(cfg.Storage.SeedFile)
			if err != nil {
				appLogger.Fatal(err, "failed to load seed file")
			}
			sum, err := seed.Apply(context.Background(), seed.Target{
				Locations:    store.Locations(),
				Officers:     store.Officers(),
				ServiceTypes: store.ServiceTypes(),
			}, f)
			if err != nil {
				appLogger.Fatal(err, "failed to seed memory store")
			}
			appLogger.Info("Seeded memory store", "summary", sum.String())
		}
		stores = server.MemoryStores(store)
	default:
		db, err := postgres.NewDB(cfg.Database)
		if err != nil {
			appLogger.Fatal(err, "failed to connect to database")
		}
		defer db.Close()

		applied, err := postgres.Migrate(db)
		if err != nil {
			appLogger.Fatal(err, "failed to migrate database")
		}
		if applied {
			appLogger.Info("Database schema migrated")
		}

		stores = server.PostgresStores(postgres.NewBaseRepository(db))
		checks["database"] = db
	}

	srv, err := server.New(cfg, stores, checks, appLogger, m, reg)
	if err != nil {
		appLogger.Fatal(err, "failed to build server")
	}

	go func() {
		if err := srv.Run(); err != nil {
			appLogger.Fatal(err, "server stopped")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error(err, "server forced to shutdown")
		return
	}

	appLogger.Info("server exited properly")
}
