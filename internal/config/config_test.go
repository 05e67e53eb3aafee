package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "app:\n  name: test\n"))
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.App.Name)
	assert.Equal(t, DriverDuckDB, cfg.Database.Driver)
	assert.Equal(t, 4, cfg.Forecast.Window)
	assert.Equal(t, 1.2, cfg.Forecast.AnomalyThreshold)
	assert.Equal(t, 10, cfg.Forecast.MinPointsForSeasonal)
	assert.Equal(t, "multiplicative", cfg.Forecast.Seasonal.Mode)
	assert.Equal(t, "off", cfg.Forecast.Seasonal.DailySeasonality)
	assert.Equal(t, 7*24*time.Hour, cfg.Forecast.Seasonal.Cadence)
	assert.Equal(t, 5000, cfg.Insights.SuperstoreLimit)
	assert.Equal(t, 30*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, []string{"telegram"}, cfg.Alerting.Channels)
}

func TestLoadFileOverrides(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: postgres
  dsn: postgres://retail@localhost/retail
forecast:
  window: 8
  anomaly_threshold: 1.5
  seasonal:
    mode: additive
    cadence: 24h
server:
  addr: ":9000"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 8, cfg.Forecast.Window)
	assert.Equal(t, "additive", cfg.Forecast.Seasonal.Mode)
	assert.Equal(t, 24*time.Hour, cfg.Forecast.Seasonal.Cadence)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 1.5, cfg.Forecast.AnomalyThreshold)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("RETAILOPT_FORECAST_HORIZON", "26")
	cfg, err := Load(writeConfig(t, "app:\n  name: env\n"))
	require.NoError(t, err)
	assert.Equal(t, 26, cfg.Forecast.Horizon)
	assert.Equal(t, 26, cfg.ResolveHorizon(0))
	assert.Equal(t, 3, cfg.ResolveHorizon(3))
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"postgres without dsn": "database:\n  driver: postgres\n",
		"unknown driver":       "database:\n  driver: sqlite\n",
		"zero window":          "forecast:\n  window: 0\n",
		"bad interval":         "forecast:\n  seasonal:\n    interval_width: 2\n",
		"bad mode":             "forecast:\n  seasonal:\n    mode: log\n",
		"bad toggle":           "forecast:\n  seasonal:\n    yearly_seasonality: sometimes\n",
		"telegram no token":    "alerting:\n  telegram:\n    enabled: true\n    chat_id: \"1\"\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}
