package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/jwalitptl/citizen-api/internal/config"
	"github.com/jwalitptl/citizen-api/internal/handler/health"
	promhandler "github.com/jwalitptl/citizen-api/internal/handler/prometheus"
	"github.com/jwalitptl/citizen-api/internal/repository/postgres"
	"github.com/jwalitptl/citizen-api/pkg/email"
	"github.com/jwalitptl/citizen-api/pkg/logger"
	"github.com/jwalitptl/citizen-api/pkg/messaging/redis"
	"github.com/jwalitptl/citizen-api/pkg/metrics"
	"github.com/jwalitptl/citizen-api/pkg/worker"
)

const healthAddr = ":8081"

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	appLogger := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		Console:    cfg.Log.Console,
	}).WithFields(map[string]interface{}{"worker_id": workerID()})
	log.Logger = *appLogger.Zerolog()
	gin.SetMode(gin.ReleaseMode)

	if cfg.Storage.Driver != "postgres" {
		appLogger.Fatal(fmt.Errorf("storage driver %q has no outbox", cfg.Storage.Driver), "Worker needs postgres")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		appLogger.Fatal(err, "Failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(ctx, redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   3,
		RetryBackoff: 100 * time.Millisecond,
	}, appLogger.Zerolog())
	if err != nil {
		appLogger.Fatal(err, "Failed to create Redis broker")
	}
	defer broker.Close()

	var mailer email.Sender = email.NoopSender{}
	if cfg.Email.Enabled() {
		mailer = email.NewSMTPSender(email.SMTPConfig{
			Host:     cfg.Email.SMTPHost,
			Port:     cfg.Email.SMTPPort,
			Username: cfg.Email.SMTPUsername,
			Password: cfg.Email.SMTPPassword,
			From:     cfg.Email.FromAddress,
		})
	} else {
		appLogger.Warn("SMTP not configured; notification e-mails are disabled")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New("citizen_portal_worker", reg)

	processor, err := worker.NewOutboxProcessor(
		postgres.NewOutboxRepository(postgres.NewBaseRepository(db)),
		broker,
		mailer,
		worker.OutboxProcessorConfig{
			BatchSize:     cfg.Outbox.BatchSize,
			PollInterval:  cfg.Outbox.PollInterval,
			RetryAttempts: cfg.Outbox.RetryAttempts,
			RetryDelay:    cfg.Outbox.RetryDelay,
			Retention:     cfg.Outbox.Retention,
			Channel:       cfg.Redis.Channel,
		},
		appLogger,
		m,
	)
	if err != nil {
		appLogger.Fatal(err, "Invalid outbox configuration")
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	health.NewHandler(map[string]health.Checker{"database": db}).RegisterRoutes(engine.Group(""))
	engine.GET("/metrics", promhandler.Handler(reg))
	healthServer := &http.Server{
		Addr:              healthAddr,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return processor.Start(gctx)
	})
	g.Go(func() error {
		return processor.RunCleanup(gctx, time.Hour)
	})
	g.Go(func() error {
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("health server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return healthServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		appLogger.Error(err, "Worker stopped with error")
		os.Exit(1)
	}
	appLogger.Info("Worker exited properly")
}

func workerID() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return fmt.Sprintf("%s-%d", hostname, os.Getpid())
}
