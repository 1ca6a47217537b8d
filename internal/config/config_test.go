package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  host: "127.0.0.1"
  cache_size: 50

database:
  host: "db.internal"
  port: 5433
  name: "inkwatch_test"
  user: "tester"
  password: "secret"
  ssl_mode: "require"

trmnl:
  base_url: "https://usetrmnl.com/api"
  api_key: "user-abc123"

trend:
  charge_jump_threshold: 3.5
  staleness_days: 14

logging:
  level: "debug"
  format: "text"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 50, cfg.Server.CacheSize)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "inkwatch_test", cfg.Database.Name)
	assert.Equal(t, "user-abc123", cfg.TRMNL.APIKey)
	assert.Equal(t, 3.5, cfg.Trend.ChargeJumpThreshold)
	assert.Equal(t, 14*24*time.Hour, cfg.Trend.StalenessWindow())
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  password: "secret"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5.0, cfg.Server.RateLimit)
	assert.Equal(t, 10, cfg.Server.RateLimitBurst)
	assert.Equal(t, 2.0, cfg.Trend.ChargeJumpThreshold)
	assert.Equal(t, 21, cfg.Trend.StalenessDays)
	assert.Equal(t, 365, cfg.Retention.MaxAgeDays)
	assert.Equal(t, 120, cfg.Retention.MaxSamples)
	assert.Equal(t, "0 9 * * 1", cfg.Schedule.RecordCron)
}

func TestLoadWithEnvOverride(t *testing.T) {
	t.Setenv("INKWATCH_DATABASE_HOST", "envhost")
	t.Setenv("INKWATCH_TRMNL_API_KEY", "env-key")

	path := writeConfig(t, `
database:
  host: "filehost"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "envhost", cfg.Database.Host)
	assert.Equal(t, "env-key", cfg.TRMNL.APIKey)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestConnectionString(t *testing.T) {
	d := DatabaseConfig{
		Host: "localhost", Port: 5432, Name: "inkwatch",
		User: "u", Password: "p", SSLMode: "disable",
	}
	assert.Equal(t,
		"host=localhost port=5432 user=u password=p dbname=inkwatch sslmode=disable",
		d.ConnectionString(),
	)
}
