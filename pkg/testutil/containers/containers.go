//go:build integration

// Package containers provides testcontainers-based fixtures for integration
// tests. Containers are started once and reused across suites in a package.
package containers

import (
	"context"
	"sync"
	"testing"

	"golang.org/x/sync/errgroup"
)

// Manager provides thread-safe access to shared containers.
type Manager struct {
	mu       sync.Mutex
	postgres *PostgresContainer
	kafka    *KafkaContainer
}

var (
	globalManager *Manager
	initOnce      sync.Once
)

// GetManager returns the singleton container manager for the test process.
func GetManager() *Manager {
	initOnce.Do(func() {
		globalManager = &Manager{}
	})
	return globalManager
}

// GetPostgres returns a Postgres container, starting it if necessary.
func (m *Manager) GetPostgres(t *testing.T) *PostgresContainer {
	t.Helper()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.postgres == nil {
		pc, err := startPostgres(context.Background())
		if err != nil {
			t.Fatalf("start postgres container: %v", err)
		}
		m.postgres = pc
	}
	return m.postgres
}

// GetKafka returns a Kafka container, starting it if necessary.
func (m *Manager) GetKafka(t *testing.T) *KafkaContainer {
	t.Helper()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.kafka == nil {
		kc, err := startKafka(context.Background())
		if err != nil {
			t.Fatalf("start kafka container: %v", err)
		}
		m.kafka = kc
	}
	return m.kafka
}

// GetBoth starts Postgres and Kafka in parallel, which roughly halves cold
// startup for end-to-end suites that need both.
func (m *Manager) GetBoth(t *testing.T) (*PostgresContainer, *KafkaContainer) {
	t.Helper()

	m.mu.Lock()
	defer m.mu.Unlock()

	g, ctx := errgroup.WithContext(context.Background())
	if m.postgres == nil {
		g.Go(func() error {
			pc, err := startPostgres(ctx)
			if err != nil {
				return err
			}
			m.postgres = pc
			return nil
		})
	}
	if m.kafka == nil {
		g.Go(func() error {
			kc, err := startKafka(ctx)
			if err != nil {
				return err
			}
			m.kafka = kc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("start containers: %v", err)
	}

	return m.postgres, m.kafka
}
