package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DatabaseConfig selects the storage backend and how to reach it.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	// URL, when set, is used as-is for postgres instead of the discrete fields.
	URL      string `mapstructure:"url"`
	Path     string `mapstructure:"path"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// ChartConfig sets where rendered charts are written.
type ChartConfig struct {
	Dir string `mapstructure:"dir"`
}

// Config is the full application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"db"`
	Log      LogConfig      `mapstructure:"log"`
	Chart    ChartConfig    `mapstructure:"chart"`
}

// envBindings maps config keys to the environment variables that override them.
var envBindings = map[string]string{
	"db.driver":       "DB_DRIVER",
	"db.url":          "DATABASE_URL",
	"db.path":         "DB_PATH",
	"db.user":         "DB_USER",
	"db.password":     "DB_PASS",
	"db.host":         "DB_HOST",
	"db.port":         "DB_PORT",
	"db.name":         "DB_NAME",
	"db.sslmode":      "DB_SSLMODE",
	"log.level":       "LOG_LEVEL",
	"log.development": "LOG_DEVELOPMENT",
	"chart.dir":       "CHART_DIR",
}

// Load reads configuration from an optional YAML file, a .env file in the
// working directory and the environment, in increasing priority.
// If path is empty, fintrack.yaml in the working directory is used when it exists.
func Load(path string) (*Config, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("db.driver", DriverSQLite)
	v.SetDefault("db.path", "fintrack.db")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.development", false)
	v.SetDefault("chart.dir", ".")

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("fintrack")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	return &c, nil
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var problems []string

	switch c.Database.Driver {
	case DriverSQLite:
		if strings.TrimSpace(c.Database.Path) == "" {
			problems = append(problems, "DB_PATH cannot be empty when using the sqlite driver")
		}
	case DriverPostgres:
		if strings.TrimSpace(c.Database.URL) != "" {
			break
		}
		required := []struct {
			env   string
			value string
		}{
			{"DB_USER", c.Database.User},
			{"DB_PASS", c.Database.Password},
			{"DB_NAME", c.Database.Name},
		}
		var missing []string
		for _, r := range required {
			if strings.TrimSpace(r.value) == "" {
				missing = append(missing, r.env)
			}
		}
		if len(missing) > 0 {
			problems = append(problems, fmt.Sprintf("missing required env vars: %s", strings.Join(missing, ", ")))
		}
		if c.Database.Port < 1 || c.Database.Port > 65535 {
			problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", c.Database.Port))
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid database driver '%s': must be one of [%s %s]",
			c.Database.Driver, DriverSQLite, DriverPostgres))
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("invalid log level '%s'", c.Log.Level))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// PostgresURL returns the lib/pq connection URL for the database settings.
func (d DatabaseConfig) PostgresURL() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": []string{d.SSLMode}}.Encode(),
	}
	return u.String()
}
