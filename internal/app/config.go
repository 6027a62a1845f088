package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/chalkboardhq/chalkboard/internal/directory"
)

// Config represents the runtime configuration for the Chalkboard backend.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Directory   DirectoryConfig   `mapstructure:"directory"`
	Identity    IdentityConfig    `mapstructure:"identity"`
	Gate        GateConfig        `mapstructure:"gate"`
	Monitoring  MonitoringConfig  `mapstructure:"monitoring"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port          int               `mapstructure:"port"`
	LogLevel      string            `mapstructure:"log_level"`
	SecureCookies bool              `mapstructure:"secure_cookies"`
	RateLimit     RateLimitSettings `mapstructure:"rate_limit"`
}

// RateLimitSettings controls the per-IP request limiter.
type RateLimitSettings struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxRequests int           `mapstructure:"max_requests"`
	Window      time.Duration `mapstructure:"window"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver   string       `mapstructure:"driver"`
	Path     string       `mapstructure:"path"`
	DSN      string       `mapstructure:"dsn"`
	Postgres DBAuthConfig `mapstructure:"postgres"`
	MySQL    DBAuthConfig `mapstructure:"mysql"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// DirectoryConfig configures the upstream school directory cache.
type DirectoryConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	Dataset      string `mapstructure:"dataset"`
	DataOrigin   string `mapstructure:"data_origin"`
	DatasetYear  int    `mapstructure:"dataset_year"`
	CacheTTLDays int    `mapstructure:"cache_ttl_days"`
}

// Service converts the section into the directory service configuration.
func (c DirectoryConfig) Service() directory.Config {
	return directory.Config{
		BaseURL:      c.BaseURL,
		Dataset:      c.Dataset,
		DataOrigin:   c.DataOrigin,
		DatasetYear:  c.DatasetYear,
		CacheTTLDays: c.CacheTTLDays,
	}
}

// IdentityConfig configures the hosted identity provider integration.
type IdentityConfig struct {
	IssuerURL     string `mapstructure:"issuer_url"`
	SessionSecret string `mapstructure:"session_secret"`
	WebhookSecret string `mapstructure:"webhook_secret"`
}

// GateConfig configures the optional site-wide password gate.
type GateConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Password      string        `mapstructure:"password"`
	SigningSecret string        `mapstructure:"signing_secret"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
}

// MonitoringConfig enables health checks and metrics.
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

// PrometheusConfig toggles metrics endpoints.
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// MaintenanceConfig drives the background cleanup schedule.
type MaintenanceConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	Schedule           string        `mapstructure:"schedule"`
	WebhookEventMaxAge time.Duration `mapstructure:"webhook_event_max_age"`
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("CHALKBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects configurations that cannot produce a working server.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server port %d", c.Server.Port)
	}
	if c.Directory.DatasetYear < 1986 {
		return fmt.Errorf("config: invalid directory dataset year %d", c.Directory.DatasetYear)
	}
	if c.Directory.CacheTTLDays <= 0 {
		return fmt.Errorf("config: directory cache TTL must be positive, got %d days", c.Directory.CacheTTLDays)
	}
	if c.Gate.Enabled && strings.TrimSpace(c.Gate.Password) == "" {
		return errors.New("config: gate is enabled but no password is set")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.secure_cookies", true)
	v.SetDefault("server.rate_limit.enabled", true)
	v.SetDefault("server.rate_limit.max_requests", 100)
	v.SetDefault("server.rate_limit.window", "1m")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/chalkboard.sqlite")

	v.SetDefault("directory.base_url", "https://educationdata.urban.org/api/v1")
	v.SetDefault("directory.dataset", "ccd")
	v.SetDefault("directory.data_origin", "urban_educationdata_ccd_api")
	v.SetDefault("directory.dataset_year", 2023)
	v.SetDefault("directory.cache_ttl_days", 30)

	v.SetDefault("gate.enabled", false)
	v.SetDefault("gate.token_ttl", "168h") // 7 days

	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.prometheus.endpoint", "/metrics")

	v.SetDefault("maintenance.enabled", true)
	v.SetDefault("maintenance.schedule", "@daily")
	v.SetDefault("maintenance.webhook_event_max_age", "2160h") // 90 days
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
