package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	decisionhandler "privacy-consent/internal/decision/handler"
	decisionmetrics "privacy-consent/internal/decision/metrics"
	decisionservice "privacy-consent/internal/decision/service"
	decisionstore "privacy-consent/internal/decision/store"
	"privacy-consent/internal/events"
	identitystore "privacy-consent/internal/identity/store"
	"privacy-consent/internal/platform/config"
	"privacy-consent/internal/platform/database"
	"privacy-consent/internal/platform/health"
	"privacy-consent/internal/platform/httpserver"
	"privacy-consent/internal/platform/kafka/producer"
	"privacy-consent/internal/platform/logger"
	"privacy-consent/internal/platform/middleware"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	cfg := config.ServerFromEnv()
	log := logger.New()

	log.Info("initializing consent decision api",
		"addr", cfg.Addr,
		"raw_topic", cfg.Kafka.RawTopic,
	)

	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.DatabaseURL
	pool, err := database.New(dbCfg)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close() //nolint:errcheck

	if cfg.MigrateOnStart {
		if err := database.Migrate(cfg.DatabaseURL); err != nil {
			log.Error("migrations failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrations applied")
	}

	prod, err := producer.New(cfg.Kafka.ProducerConfig(), log)
	if err != nil {
		log.Error("kafka producer init failed", "error", err)
		os.Exit(1)
	}
	defer prod.Close() //nolint:errcheck

	rawPublisher := events.NewDecisionPublisher(prod, cfg.Kafka.RawTopic)

	identities := identitystore.NewPostgres(pool.DB())
	decisions := decisionstore.NewPostgres(pool.DB())

	decisionSvc := decisionservice.NewService(
		decisions,
		newDecisionPostgresTx(pool.DB()),
		identities,
		rawPublisher,
		log,
		decisionservice.WithMetrics(decisionmetrics.New()),
	)

	healthHandler := health.New()
	healthHandler.RegisterCheck("database", pool.Health)
	healthHandler.RegisterCheck("kafka", func(ctx context.Context) error {
		if !prod.Healthy(ctx) {
			return fmt.Errorf("kafka brokers unreachable")
		}
		return nil
	})

	router := chi.NewRouter()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(log))
	router.Use(middleware.ContentTypeJSON)

	healthHandler.Register(router)
	router.Handle("/metrics", promhttp.Handler())
	decisionhandler.New(decisionSvc, log).Register(router)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting http server", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown on SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	log.Info("shutting down server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
