//go:build database

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startContainer starts image and returns the host and mapped port of port.
func startContainer(t *testing.T, req testcontainers.ContainerRequest, port string) (string, string) {
	t.Helper()
	ctx := context.Background()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(ctx) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	mapped, err := c.MappedPort(ctx, nat.Port(port))
	require.NoError(t, err)
	return host, mapped.Port()
}

// TestCodemetricsWithMySQL tests the log cache with a MySQL backend.
func TestCodemetricsWithMySQL(t *testing.T) {
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "codemetrics",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}, "3306")

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/codemetrics?parseTime=true", host, port)
	runCacheScenario(t, "mysql", connStr)
}

// TestCodemetricsWithPostgres tests the log cache with a PostgreSQL backend.
func TestCodemetricsWithPostgres(t *testing.T) {
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}, "5432")

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres", host, port)
	runCacheScenario(t, "postgresql", connStr)
}

// runCacheScenario migrates the cache, fills it with one log and checks status and clear.
func runCacheScenario(t *testing.T, backend, connStr string) {
	t.Setenv("CODEMETRICS_CACHE_BACKEND", backend)
	t.Setenv("CODEMETRICS_CACHE_DB_CONNECT", connStr)
	repo := newGitRepo(t)

	out, err := runCommand(t, repo, "cache", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Cache cleared successfully.")

	out, err = runCommand(t, repo, "cache", "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "from version 0 to 2")

	out, err = runCommand(t, repo, "cache", "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "already at version 2")

	cold, err := runCommand(t, repo, "log", "--output", "csv")
	require.NoError(t, err)
	warm, err := runCommand(t, repo, "log", "--output", "csv")
	require.NoError(t, err)
	assert.Equal(t, cold, warm, "cached log must match the collected one")

	out, err = runCommand(t, repo, "cache", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Entries: 1")
	assert.Contains(t, out, "Schema Version: 2")

	// Excludes are applied after the cache, so this reuses the entry above
	out, err = runCommand(t, repo, "log", "--output", "csv", "--exclude", "util/")
	require.NoError(t, err)
	assert.NotContains(t, out, "util/")
	out, err = runCommand(t, repo, "cache", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Entries: 1")

	_, err = runCommand(t, repo, "cache", "migrate", "--target-version", "0")
	require.NoError(t, err)
	_, err = runCommand(t, repo, "cache", "clear")
	require.NoError(t, err)
}
