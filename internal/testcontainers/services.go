// Package testcontainers starts the infrastructure the integration tests run against
package testcontainers

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	PostgresUser     = "reconcile"
	PostgresPassword = "reconcile"
	PostgresDatabase = "reconcile"
)

// ServiceManager owns the containers started for a test run
type ServiceManager struct {
	ctx context.Context

	postgres testcontainers.Container
	redis    testcontainers.Container

	PostgresHost string
	PostgresPort int
	RedisHost    string
	RedisPort    int
	RedisAddr    string
}

// NewServiceManager creates a new service manager
func NewServiceManager(ctx context.Context) *ServiceManager {
	return &ServiceManager{
		ctx: ctx,
	}
}

// StartPostgres starts a PostgreSQL container
func (sm *ServiceManager) StartPostgres() error {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     PostgresUser,
			"POSTGRES_PASSWORD": PostgresPassword,
			"POSTGRES_DB":       PostgresDatabase,
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(sm.ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return fmt.Errorf("failed to start PostgreSQL: %w", err)
	}
	sm.postgres = container

	host, err := container.Host(sm.ctx)
	if err != nil {
		return err
	}
	port, err := container.MappedPort(sm.ctx, "5432")
	if err != nil {
		return err
	}

	sm.PostgresHost = host
	sm.PostgresPort = port.Int()
	return nil
}

// StartRedis starts a Redis container
func (sm *ServiceManager) StartRedis() error {
	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor: wait.ForLog("Ready to accept connections").
			WithStartupTimeout(30 * time.Second),
	}

	container, err := testcontainers.GenericContainer(sm.ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return fmt.Errorf("failed to start Redis: %w", err)
	}
	sm.redis = container

	host, err := container.Host(sm.ctx)
	if err != nil {
		return err
	}
	port, err := container.MappedPort(sm.ctx, "6379")
	if err != nil {
		return err
	}

	sm.RedisHost = host
	sm.RedisPort = port.Int()
	sm.RedisAddr = fmt.Sprintf("%s:%d", host, sm.RedisPort)
	return nil
}

// Cleanup stops and removes every started container
func (sm *ServiceManager) Cleanup() {
	for _, container := range []testcontainers.Container{sm.redis, sm.postgres} {
		if container == nil {
			continue
		}
		if err := container.Terminate(sm.ctx); err != nil {
			fmt.Printf("Warning: failed to terminate container: %v\n", err)
		}
	}
}
