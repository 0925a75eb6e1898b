package clickhouse

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a ClickHouse container and returns a connection.
// Returns a cleanup function that must be called when done.
func setupTestDB(t *testing.T) (*Conn, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "clickhouse/clickhouse-server:24.1-alpine",
		ExposedPorts: []string{"9000/tcp", "8123/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForLog("Application: Ready for connections").
				WithStartupTimeout(60 * time.Second),
			wait.ForListeningPort("9000/tcp"),
		),
		Env: map[string]string{
			"CLICKHOUSE_DB":       "test",
			"CLICKHOUSE_USER":     "default",
			"CLICKHOUSE_PASSWORD": "",
		},
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "9000")
	require.NoError(t, err)

	dsn := fmt.Sprintf("clickhouse://%s:%s/test", host, port.Port())

	conn, err := NewConn(ctx, dsn)
	require.NoError(t, err)

	runMigrations(t, conn)

	cleanup := func() {
		conn.Close()
		_ = container.Terminate(ctx)
	}

	return conn, cleanup
}

// runMigrations applies the schema the migrations package embeds. The SQL
// is read from disk because importing the migrations package here would
// form an import cycle; if the file cannot be found, an inline copy of
// the schema is used.
func runMigrations(t *testing.T, conn *Conn) {
	t.Helper()
	ctx := context.Background()

	paths := []string{
		"../migrations/clickhouse/001_fee_timeseries.sql",
		"internal/storage/migrations/clickhouse/001_fee_timeseries.sql",
	}
	for _, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		require.NoError(t, conn.Exec(ctx, string(content)), "failed to apply migration %s", p)
		return
	}

	runInlineMigrations(t, conn)
}

// runInlineMigrations applies the schema directly without reading files.
func runInlineMigrations(t *testing.T, conn *Conn) {
	t.Helper()
	ctx := context.Background()

	err := conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS fee_timeseries (
			bucket_ms        UInt64,
			transfer_volume  Float64,
			fees_burned      Float64,
			fees_retained    Float64,
			swap_rounds      UInt32,
			swap_failures    UInt32
		) ENGINE = MergeTree()
		ORDER BY bucket_ms
		SETTINGS index_granularity = 8192
	`)
	require.NoError(t, err)
}
