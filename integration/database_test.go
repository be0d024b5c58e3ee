//go:build database

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// exerciseBackend runs every store command against backend and connStr.
func exerciseBackend(t *testing.T, backend, connStr string) {
	t.Helper()
	repo, _, _ := scratchRepo(t)
	env := []string{
		"TAGCHURN_CACHE_BACKEND=" + backend,
		"TAGCHURN_CACHE_DB_CONNECT=" + connStr,
		"TAGCHURN_RUNS_BACKEND=" + backend,
		"TAGCHURN_RUNS_DB_CONNECT=" + connStr,
	}

	_, err := runTagchurn(t, repo, env, "cache", "clear")
	require.NoError(t, err)
	_, err = runTagchurn(t, repo, env, "runs", "clear")
	require.NoError(t, err)

	// The churn run itself needs ctags, so the stores are checked even without it
	_, _ = runTagchurn(t, repo, env, "churn")

	_, err = runTagchurn(t, repo, env, "cache", "status")
	require.NoError(t, err)
	_, err = runTagchurn(t, repo, env, "runs", "status")
	require.NoError(t, err)
	_, err = runTagchurn(t, repo, env, "runs", "migrate", "--target-version", "0")
	require.NoError(t, err)
	_, err = runTagchurn(t, repo, env, "runs", "migrate")
	require.NoError(t, err)
}

// TestTagchurnWithMySQL tests the tagchurn CLI with a MySQL backend.
func TestTagchurnWithMySQL(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "tagchurn",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	exerciseBackend(t, "mysql", fmt.Sprintf("root:secret123@tcp(%s:%s)/tagchurn", host, port.Port()))
}

// TestTagchurnWithPostgres tests the tagchurn CLI with a PostgreSQL backend.
func TestTagchurnWithPostgres(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	exerciseBackend(t, "postgresql", fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres sslmode=disable", host, port.Port()))
}
