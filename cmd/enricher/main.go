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

	enricherhandler "privacy-consent/internal/enricher/handler"
	enrichermetrics "privacy-consent/internal/enricher/metrics"
	"privacy-consent/internal/enricher/policy"
	enricherservice "privacy-consent/internal/enricher/service"
	enricherstore "privacy-consent/internal/enricher/store"
	"privacy-consent/internal/events"
	"privacy-consent/internal/platform/config"
	"privacy-consent/internal/platform/database"
	"privacy-consent/internal/platform/health"
	"privacy-consent/internal/platform/httpserver"
	"privacy-consent/internal/platform/kafka/consumer"
	"privacy-consent/internal/platform/kafka/producer"
	"privacy-consent/internal/platform/logger"
	"privacy-consent/internal/platform/middleware"
)

// main wires the enrichment worker: push endpoint, optional Kafka consumer,
// and the enriched-channel publisher.
func main() {
	cfg := config.EnricherFromEnv()
	log := logger.New()

	log.Info("initializing consent enricher",
		"addr", cfg.Addr,
		"enriched_topic", cfg.Kafka.EnrichedTopic,
		"consume_raw", cfg.ConsumeRaw,
	)

	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.DatabaseURL
	pool, err := database.New(dbCfg)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close() //nolint:errcheck

	pol := policy.Default()
	if cfg.PolicyJSON != "" {
		pol, err = policy.ParseJSON([]byte(cfg.PolicyJSON))
		if err != nil {
			log.Error("invalid enrichment policy", "error", err)
			os.Exit(1)
		}
		log.Info("loaded enrichment policy from environment")
	}

	prod, err := producer.New(cfg.Kafka.ProducerConfig(), log)
	if err != nil {
		log.Error("kafka producer init failed", "error", err)
		os.Exit(1)
	}
	defer prod.Close() //nolint:errcheck

	enrichedPublisher := events.NewEnrichedPublisher(prod, cfg.Kafka.EnrichedTopic)

	enricherSvc := enricherservice.NewService(
		enricherstore.NewPostgres(pool.DB()),
		pol,
		enrichedPublisher,
		log,
		enricherservice.WithMetrics(enrichermetrics.New()),
	)

	var rawConsumer *consumer.Consumer
	if cfg.ConsumeRaw {
		rawConsumer, err = consumer.New(
			cfg.Kafka.ConsumerConfig(cfg.Kafka.RawTopic),
			enricherservice.NewKafkaHandler(enricherSvc, log),
			log,
		)
		if err != nil {
			log.Error("kafka consumer init failed", "error", err)
			os.Exit(1)
		}
		rawConsumer.Start()
		log.Info("consuming raw decision topic", "topic", cfg.Kafka.RawTopic, "group", cfg.Kafka.ConsumerGroup)
	}

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
	router.Group(func(r chi.Router) {
		r.Use(middleware.PushAuthToken(cfg.PushAuthToken))
		enricherhandler.New(enricherSvc, log).Register(r)
	})

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

	log.Info("shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if rawConsumer != nil {
		if err := rawConsumer.Stop(ctx); err != nil {
			log.Error("consumer shutdown failed", "error", err)
		}
	}
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("enricher stopped")
}
