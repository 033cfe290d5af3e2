// Package testutil spins up throwaway backing stores for integration tests.
package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ticket-ops/catalog-sync-go/internal/config"
)

const (
	testDatabase = "warehouse_test"
	testUser     = "test"
	testPassword = "test"
)

// TestDatabase represents a migrated throwaway warehouse instance.
type TestDatabase struct {
	Pool      *pgxpool.Pool
	Container *postgres.PostgresContainer
	ConnStr   string
}

// SetupTestDatabase creates a PostgreSQL container, runs the warehouse
// migrations, and returns a connection pool. Callers are expected to sit one
// package below internal/ so the relative migrations path resolves.
func SetupTestDatabase(t *testing.T) *TestDatabase {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase(testDatabase),
		postgres.WithUsername(testUser),
		postgres.WithPassword(testPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	migrationsPath, err := filepath.Abs("../../migrations")
	require.NoError(t, err)

	m, err := migrate.New(
		fmt.Sprintf("file://%s", migrationsPath),
		connStr,
	)
	require.NoError(t, err)

	err = m.Up()
	require.NoError(t, err)
	m.Close()

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	err = pool.Ping(ctx)
	require.NoError(t, err)

	return &TestDatabase{
		Pool:      pool,
		Container: pgContainer,
		ConnStr:   connStr,
	}
}

// Cleanup closes the pool and terminates the container.
func (td *TestDatabase) Cleanup(t *testing.T) {
	ctx := context.Background()

	if td.Pool != nil {
		td.Pool.Close()
	}

	if td.Container != nil {
		err := td.Container.Terminate(ctx)
		require.NoError(t, err)
	}
}

// TruncateTables truncates every engine table for test isolation.
func (td *TestDatabase) TruncateTables(t *testing.T) {
	ctx := context.Background()

	_, err := td.Pool.Exec(ctx, `
		TRUNCATE TABLE blacklist, blacklist_compat, blacklist_change_log,
			ticketmaster_events, ticketmaster_listings,
			universal_event_mapping, viagogo_event_mapping, vivid_event_mapping,
			autopricing_config, autopricing_config_history, audit_log
		RESTART IDENTITY CASCADE;
	`)
	require.NoError(t, err)
}

// SetupTestRabbitMQ starts a broker container and returns queue config
// pointing at it.
func SetupTestRabbitMQ(t *testing.T) (*config.QueueConfig, func()) {
	ctx := context.Background()

	rabbitmqContainer, err := rabbitmq.Run(ctx,
		"rabbitmq:3.13-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Server startup complete").
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	host, err := rabbitmqContainer.Host(ctx)
	require.NoError(t, err)

	port, err := rabbitmqContainer.MappedPort(ctx, "5672/tcp")
	require.NoError(t, err)

	cfg := &config.QueueConfig{
		Host:       host,
		Port:       port.Int(),
		User:       "guest",
		Password:   "guest",
		Exchange:   "test.exchange",
		Queue:      "test.queue",
		RoutingKey: "test.key",
	}

	cleanup := func() {
		if err := rabbitmqContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}

	return cfg, cleanup
}
