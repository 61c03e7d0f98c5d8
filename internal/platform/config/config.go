package config

import (
	"os"
	"strconv"
	"time"

	"privacy-consent/internal/platform/kafka"
)

// Server captures configuration for the decision write API.
type Server struct {
	Addr           string
	DatabaseURL    string
	MigrateOnStart bool
	Kafka          Kafka
}

// Enricher captures configuration for the enrichment worker.
type Enricher struct {
	Addr          string
	DatabaseURL   string
	PushAuthToken string
	PolicyJSON    string
	ConsumeRaw    bool
	Kafka         Kafka
}

// Kafka groups message channel settings shared by both binaries.
type Kafka struct {
	Brokers         string
	RawTopic        string
	EnrichedTopic   string
	ConsumerGroup   string
	Acks            string
	Retries         int
	DeliveryTimeout time.Duration
}

// ProducerConfig projects the shared settings onto the producer's view.
func (k Kafka) ProducerConfig() kafka.ProducerConfig {
	return kafka.ProducerConfig{
		Brokers:         k.Brokers,
		Acks:            k.Acks,
		Retries:         k.Retries,
		DeliveryTimeout: k.DeliveryTimeout,
	}
}

// ConsumerConfig projects the shared settings onto the consumer's view,
// subscribed to the given topics.
func (k Kafka) ConsumerConfig(topics ...string) kafka.ConsumerConfig {
	cfg := kafka.DefaultConsumerConfig()
	cfg.Brokers = k.Brokers
	cfg.GroupID = k.ConsumerGroup
	cfg.Topics = topics
	return cfg
}

// ServerFromEnv builds a Server config from environment variables so main stays lean.
func ServerFromEnv() Server {
	return Server{
		Addr:           envOr("PRIVACY_CONSENT_ADDR", ":8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MigrateOnStart: os.Getenv("MIGRATE_ON_START") == "true",
		Kafka:          kafkaFromEnv(),
	}
}

// EnricherFromEnv builds an Enricher config from environment variables.
func EnricherFromEnv() Enricher {
	return Enricher{
		Addr:          envOr("ENRICHER_ADDR", ":8081"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		PushAuthToken: os.Getenv("PUSH_AUTH_TOKEN"),
		PolicyJSON:    os.Getenv("ENRICHMENT_POLICY"),
		ConsumeRaw:    os.Getenv("CONSUME_RAW_TOPIC") == "true",
		Kafka:         kafkaFromEnv(),
	}
}

func kafkaFromEnv() Kafka {
	defaults := kafka.DefaultProducerConfig()
	cfg := Kafka{
		Brokers:         os.Getenv("KAFKA_BROKERS"),
		RawTopic:        envOr("KAFKA_RAW_TOPIC", "privacy.consent.decisions.raw"),
		EnrichedTopic:   envOr("KAFKA_ENRICHED_TOPIC", "privacy.consent.decisions.enriched"),
		ConsumerGroup:   envOr("KAFKA_CONSUMER_GROUP", "consent-enricher"),
		Acks:            envOr("KAFKA_ACKS", defaults.Acks),
		Retries:         defaults.Retries,
		DeliveryTimeout: defaults.DeliveryTimeout,
	}
	if v := os.Getenv("KAFKA_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Retries = n
		}
	}
	if v := os.Getenv("KAFKA_DELIVERY_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.DeliveryTimeout = d
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
