package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"retail-demand-optimizer/internal/logging"
)

const (
	DriverPostgres = "postgres"
	DriverDuckDB   = "duckdb"
)

// Config materialises application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logging  logging.Config `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Forecast ForecastConfig `mapstructure:"forecast"`
	Insights InsightsConfig `mapstructure:"insights"`
	Ingest   IngestConfig   `mapstructure:"ingest"`
	Server   ServerConfig   `mapstructure:"server"`
	Alerting AlertingConfig `mapstructure:"alerting"`
	Export   ExportConfig   `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig selects the backend. Postgres uses DSN, DuckDB uses Path
// (empty path means an in-memory database).
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// ForecastConfig holds the tunable forecasting constants.
type ForecastConfig struct {
	Horizon              int            `mapstructure:"horizon"`
	Window               int            `mapstructure:"window"`
	AnomalyThreshold     float64        `mapstructure:"anomaly_threshold"`
	MinPointsForSeasonal int            `mapstructure:"min_points_for_seasonal"`
	Seasonal             SeasonalConfig `mapstructure:"seasonal"`
}

// SeasonalConfig carries the seasonal model knobs as plain values. Toggles
// accept auto, on or off; mode accepts multiplicative or additive.
type SeasonalConfig struct {
	Mode               string        `mapstructure:"mode"`
	WeeklySeasonality  string        `mapstructure:"weekly_seasonality"`
	YearlySeasonality  string        `mapstructure:"yearly_seasonality"`
	DailySeasonality   string        `mapstructure:"daily_seasonality"`
	WeeklyFourierOrder int           `mapstructure:"weekly_fourier_order"`
	YearlyFourierOrder int           `mapstructure:"yearly_fourier_order"`
	DailyFourierOrder  int           `mapstructure:"daily_fourier_order"`
	IntervalWidth      float64       `mapstructure:"interval_width"`
	Cadence            time.Duration `mapstructure:"cadence"`
}

func (s SeasonalConfig) validate() error {
	switch s.Mode {
	case "multiplicative", "additive":
	default:
		return fmt.Errorf("forecast.seasonal.mode must be multiplicative or additive, got %q", s.Mode)
	}
	toggles := map[string]string{
		"weekly_seasonality": s.WeeklySeasonality,
		"yearly_seasonality": s.YearlySeasonality,
		"daily_seasonality":  s.DailySeasonality,
	}
	for key, value := range toggles {
		switch value {
		case "auto", "on", "off":
		default:
			return fmt.Errorf("forecast.seasonal.%s must be auto, on or off, got %q", key, value)
		}
	}
	if s.WeeklyFourierOrder < 0 || s.YearlyFourierOrder < 0 || s.DailyFourierOrder < 0 {
		return fmt.Errorf("forecast.seasonal fourier orders must not be negative")
	}
	if s.IntervalWidth <= 0 || s.IntervalWidth >= 1 {
		return fmt.Errorf("forecast.seasonal.interval_width must be in (0, 1)")
	}
	if s.Cadence <= 0 {
		return fmt.Errorf("forecast.seasonal.cadence must be positive")
	}
	return nil
}

// InsightsConfig bounds the dashboard summaries.
type InsightsConfig struct {
	SuperstoreLimit int `mapstructure:"superstore_limit"`
	EDALimit        int `mapstructure:"eda_limit"`
	MinRows         int `mapstructure:"min_rows"`
	TopK            int `mapstructure:"top_k"`
	PreviewRows     int `mapstructure:"preview_rows"`
}

// IngestConfig describes the CSV sources.
type IngestConfig struct {
	SuperstoreEncoding string `mapstructure:"superstore_encoding"`
	SuperstoreDate     string `mapstructure:"superstore_date_layout"`
	WalmartDate        string `mapstructure:"walmart_date_layout"`
	InitSchema         bool   `mapstructure:"init_schema"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxHorizon      int           `mapstructure:"max_horizon"`
}

// AlertingConfig routes anomaly digests.
type AlertingConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Channels []string       `mapstructure:"channels"`
	MaxItems int            `mapstructure:"max_items"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig holds Telegram bot settings.
type TelegramConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	BotToken string        `mapstructure:"bot_token"`
	ChatID   string        `mapstructure:"chat_id"`
	APIBase  string        `mapstructure:"api_base"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	Dir         string `mapstructure:"dir"`
	ChartWidth  int    `mapstructure:"chart_width"`
	ChartHeight int    `mapstructure:"chart_height"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RETAILOPT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "retailopt")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("database.driver", DriverDuckDB)
	v.SetDefault("database.path", "retail.duckdb")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("forecast.horizon", 12)
	v.SetDefault("forecast.window", 4)
	v.SetDefault("forecast.anomaly_threshold", 1.2)
	v.SetDefault("forecast.min_points_for_seasonal", 10)
	v.SetDefault("forecast.seasonal.mode", "multiplicative")
	v.SetDefault("forecast.seasonal.weekly_seasonality", "on")
	v.SetDefault("forecast.seasonal.yearly_seasonality", "auto")
	v.SetDefault("forecast.seasonal.daily_seasonality", "off")
	v.SetDefault("forecast.seasonal.weekly_fourier_order", 3)
	v.SetDefault("forecast.seasonal.yearly_fourier_order", 10)
	v.SetDefault("forecast.seasonal.daily_fourier_order", 4)
	v.SetDefault("forecast.seasonal.interval_width", 0.8)
	v.SetDefault("forecast.seasonal.cadence", "168h")

	v.SetDefault("insights.superstore_limit", 5000)
	v.SetDefault("insights.eda_limit", 50000)
	v.SetDefault("insights.min_rows", 10)
	v.SetDefault("insights.top_k", 5)
	v.SetDefault("insights.preview_rows", 10)

	v.SetDefault("ingest.superstore_encoding", "latin1")
	v.SetDefault("ingest.superstore_date_layout", "1/2/2006")
	v.SetDefault("ingest.walmart_date_layout", "2006-01-02")
	v.SetDefault("ingest.init_schema", true)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.max_horizon", 104)

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.channels", []string{"telegram"})
	v.SetDefault("alerting.max_items", 10)
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")
	v.SetDefault("alerting.telegram.timeout", "10s")

	v.SetDefault("export.dir", "exports")
	v.SetDefault("export.chart_width", 1280)
	v.SetDefault("export.chart_height", 720)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for the postgres driver")
		}
	case DriverDuckDB:
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverPostgres, DriverDuckDB, c.Database.Driver)
	}
	if c.Forecast.Horizon <= 0 {
		return fmt.Errorf("forecast.horizon must be greater than zero")
	}
	if c.Forecast.Window <= 0 {
		return fmt.Errorf("forecast.window must be greater than zero")
	}
	if c.Forecast.AnomalyThreshold <= 0 {
		return fmt.Errorf("forecast.anomaly_threshold must be greater than zero")
	}
	if c.Forecast.MinPointsForSeasonal < 2 {
		return fmt.Errorf("forecast.min_points_for_seasonal must be at least 2")
	}
	if err := c.Forecast.Seasonal.validate(); err != nil {
		return err
	}
	if c.Insights.SuperstoreLimit <= 0 {
		return fmt.Errorf("insights.superstore_limit must be greater than zero")
	}
	if c.Insights.EDALimit <= 0 {
		return fmt.Errorf("insights.eda_limit must be greater than zero")
	}
	if c.Insights.TopK <= 0 {
		return fmt.Errorf("insights.top_k must be greater than zero")
	}
	if c.Server.MaxHorizon < c.Forecast.Horizon {
		return fmt.Errorf("server.max_horizon must be at least forecast.horizon")
	}
	if c.Export.ChartWidth <= 0 || c.Export.ChartHeight <= 0 {
		return fmt.Errorf("export chart dimensions must be positive")
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token is required")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id is required")
		}
	}
	return nil
}

// ResolveHorizon returns either the CLI override or config default.
func (c *Config) ResolveHorizon(override int) int {
	if override > 0 {
		return override
	}
	return c.Forecast.Horizon
}
