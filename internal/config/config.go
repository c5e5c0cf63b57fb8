package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	customerrors "github.com/axellelanca/redirector/internal/errors"
)

// Config is the whole application configuration.
// Keys map from YAML through mapstructure and can be overridden by
// environment variables, e.g. SERVER_PORT or DATABASE_DSN.
type Config struct {
	Server struct {
		Port            int    `mapstructure:"port"`
		BaseURL         string `mapstructure:"base_url"`
		ReadTimeoutSec  int    `mapstructure:"read_timeout_seconds"`
		WriteTimeoutSec int    `mapstructure:"write_timeout_seconds"`
		ShutdownSec     int    `mapstructure:"shutdown_timeout_seconds"`
	} `mapstructure:"server"`

	Database struct {
		// Driver is sqlite, postgres or libsql.
		Driver     string `mapstructure:"driver"`
		Name       string `mapstructure:"name"`
		DSN        string `mapstructure:"dsn"`
		LogQueries bool   `mapstructure:"log_queries"`
	} `mapstructure:"database"`

	Auth struct {
		// JWTSecret verifies the HS256 tokens of the identity provider.
		JWTSecret  string `mapstructure:"jwt_secret"`
		CookieName string `mapstructure:"cookie_name"`
	} `mapstructure:"auth"`

	Cache struct {
		Enabled    bool   `mapstructure:"enabled"`
		Address    string `mapstructure:"address"`
		Password   string `mapstructure:"password"`
		DB         int    `mapstructure:"db"`
		TTLSeconds int    `mapstructure:"ttl_seconds"`
	} `mapstructure:"cache"`

	Monitor struct {
		Enabled         bool `mapstructure:"enabled"`
		IntervalMinutes int  `mapstructure:"interval_minutes"`
		Workers         int  `mapstructure:"workers"`
	} `mapstructure:"monitor"`

	Logging struct {
		Level       string `mapstructure:"level"`
		Development bool   `mapstructure:"development"`
	} `mapstructure:"logging"`
}

// DefaultConfigPath is the directory searched for config.yaml.
const DefaultConfigPath = "./configs"

// LoadConfig reads .env, then configs/config.yaml, then the environment.
// A missing file is not an error; defaults fill every key.
func LoadConfig() (*Config, error) {
	return Load(DefaultConfigPath)
}

// Load is LoadConfig with an explicit config directory.
func Load(configDir string) (*Config, error) {
	// .env only seeds variables that are not already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, customerrors.ErrConfigLoad{Path: ".env", Reason: err.Error()}
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AddConfigPath(configDir)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, customerrors.ErrConfigLoad{Path: configDir, Reason: err.Error()}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.read_timeout_seconds", 10)
	v.SetDefault("server.write_timeout_seconds", 10)
	v.SetDefault("server.shutdown_timeout_seconds", 5)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.name", "redirector.db")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.log_queries", false)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.cookie_name", "session")

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.address", "localhost:6379")
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.ttl_seconds", 600)

	v.SetDefault("monitor.enabled", false)
	v.SetDefault("monitor.interval_minutes", 5)
	v.SetDefault("monitor.workers", 4)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)
}

// Validate checks the values that would otherwise fail at first use.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	switch c.Database.Driver {
	case "sqlite":
	case "postgres", "libsql":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for the %s driver", c.Database.Driver)
		}
	default:
		return fmt.Errorf("database.driver must be sqlite, postgres or libsql, got %q", c.Database.Driver)
	}
	if c.Cache.Enabled && c.Cache.Address == "" {
		return errors.New("cache.address is required when the cache is enabled")
	}
	if c.Monitor.Enabled && c.Monitor.IntervalMinutes <= 0 {
		return errors.New("monitor.interval_minutes must be positive")
	}
	return nil
}

// ReadTimeout returns the HTTP read timeout.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.Server.ReadTimeoutSec) * time.Second
}

// WriteTimeout returns the HTTP write timeout.
func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.Server.WriteTimeoutSec) * time.Second
}

// ShutdownTimeout bounds graceful shutdown.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownSec) * time.Second
}

// CacheTTL returns the destination cache TTL.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// MonitorInterval returns the time between destination checks.
func (c *Config) MonitorInterval() time.Duration {
	return time.Duration(c.Monitor.IntervalMinutes) * time.Minute
}
