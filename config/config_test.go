package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timesheet-analytics/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "src/data/uploads", cfg.UploadsDir)
	assert.Equal(t, "src/data/data.json", cfg.DataFile)
	assert.Equal(t, config.StoreJSON, cfg.Store)
	assert.Equal(t, "timesheet.months", cfg.KafkaTopic)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Empty(t, cfg.Brokers())
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Origins())
	assert.Zero(t, cfg.IngestInterval())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("TIMESHEET_STORE", "sqlite")
	t.Setenv("TIMESHEET_SQLITE_PATH", ":memory:")
	t.Setenv("TIMESHEET_KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("TIMESHEET_INGEST_INTERVAL_MINUTES", "15")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.StoreSQLite, cfg.Store)
	assert.Equal(t, ":memory:", cfg.SQLitePath)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Brokers())
	assert.Equal(t, 15*time.Minute, cfg.IngestInterval())
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("TIMESHEET_ADDR=:9999\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("TIMESHEET_ADDR") })

	cfg, err := config.Load(path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Addr)
}

func TestLoad_RejectsUnknownStore(t *testing.T) {
	t.Setenv("TIMESHEET_STORE", "mongo")
	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoad_PostgresNeedsURL(t *testing.T) {
	t.Setenv("TIMESHEET_STORE", "postgres")
	t.Setenv("TIMESHEET_POSTGRES_URL", "")
	_, err := config.Load()
	assert.Error(t, err)

	t.Setenv("TIMESHEET_POSTGRES_URL", "postgres://localhost/timesheet")
	_, err = config.Load()
	assert.NoError(t, err)
}
