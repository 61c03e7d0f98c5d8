package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"privacy-consent/internal/platform/kafka"
)

func TestKafkaFromEnvDefaults(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker-1:9092,broker-2:9092")

	cfg := EnricherFromEnv().Kafka

	defaults := kafka.DefaultProducerConfig()
	assert.Equal(t, "broker-1:9092,broker-2:9092", cfg.Brokers)
	assert.Equal(t, defaults.Acks, cfg.Acks)
	assert.Equal(t, defaults.Retries, cfg.Retries)
	assert.Equal(t, defaults.DeliveryTimeout, cfg.DeliveryTimeout)
	assert.Equal(t, "privacy.consent.decisions.raw", cfg.RawTopic)
	assert.Equal(t, "privacy.consent.decisions.enriched", cfg.EnrichedTopic)
	assert.Equal(t, "consent-enricher", cfg.ConsumerGroup)
}

func TestKafkaFromEnvOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker:9092")
	t.Setenv("KAFKA_ACKS", "1")
	t.Setenv("KAFKA_RETRIES", "7")
	t.Setenv("KAFKA_DELIVERY_TIMEOUT", "5s")

	cfg := ServerFromEnv().Kafka

	assert.Equal(t, "1", cfg.Acks)
	assert.Equal(t, 7, cfg.Retries)
	assert.Equal(t, 5*time.Second, cfg.DeliveryTimeout)
}

func TestProducerConfigProjection(t *testing.T) {
	k := Kafka{
		Brokers:         "broker:9092",
		Acks:            "all",
		Retries:         4,
		DeliveryTimeout: 10 * time.Second,
	}

	pc := k.ProducerConfig()
	assert.Equal(t, kafka.ProducerConfig{
		Brokers:         "broker:9092",
		Acks:            "all",
		Retries:         4,
		DeliveryTimeout: 10 * time.Second,
	}, pc)
}

func TestConsumerConfigProjection(t *testing.T) {
	k := Kafka{
		Brokers:       "broker:9092",
		ConsumerGroup: "consent-enricher",
	}

	cc := k.ConsumerConfig("decisions.raw")
	assert.Equal(t, "broker:9092", cc.Brokers)
	assert.Equal(t, "consent-enricher", cc.GroupID)
	assert.Equal(t, []string{"decisions.raw"}, cc.Topics)
	assert.Equal(t, kafka.DefaultConsumerConfig().AutoOffsetReset, cc.AutoOffsetReset)
}
