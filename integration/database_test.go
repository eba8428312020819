//go:build database

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/huangsam/loadcompare/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// assertBackendComparison runs the end-to-end comparison against the given backend.
func assertBackendComparison(t *testing.T, env []string) {
	t.Helper()

	var report schema.ComparisonReport
	runJSON(t, env, &report, "compare", "--param", "parameter_1=100", "--all-metrics")
	require.Len(t, report.Comparisons, 2)
	assert.Equal(t, 200.0, report.Comparisons[0].Difference)
	assert.Equal(t, 20.0, report.Comparisons[0].ImprovementRate)
	assert.Equal(t, 10.0, report.Comparisons[1].ImprovementRate)

	var rows []map[string]any
	runJSON(t, env, &rows, "rows", "--scenario", "grpc", "--metric", "error_rate")
	assert.Len(t, rows, 2)

	_, err := runCommand(t, env, "validate")
	require.NoError(t, err)
}

// TestCompareWithMySQL runs the CLI with a MySQL query table.
func TestCompareWithMySQL(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "loadcompare",
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

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/loadcompare", host, port.Port())
	assertBackendComparison(t, []string{
		"LOADCOMPARE_BACKEND=mysql",
		"LOADCOMPARE_DB_CONNECT=" + connStr,
	})
}

// TestCompareWithPostgres runs the CLI with a PostgreSQL query table.
func TestCompareWithPostgres(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
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

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres sslmode=disable", host, port.Port())
	assertBackendComparison(t, []string{
		"LOADCOMPARE_BACKEND=postgresql",
		"LOADCOMPARE_DB_CONNECT=" + connStr,
	})
}
