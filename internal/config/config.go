package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all tracker configuration loaded from environment variables.
type Config struct {
	Server    ServerConfig
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Scheduler SchedulerConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"15s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"rfid-asset-tracker"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Version     string `envconfig:"APP_VERSION" default:"1.0.0"`
	// Timezone used for movement history rows and event timestamps.
	Timezone string `envconfig:"TRACKER_TIMEZONE" default:"Asia/Jakarta"`
}

// DatabaseConfig holds the tracking database settings.
type DatabaseConfig struct {
	Type     string `envconfig:"TRACKER_DB_TYPE" default:"mysql"` // mysql, postgres, or sqlite
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"3306"`
	Name     string `envconfig:"DB_NAME" default:"asset_tracking"`
	User     string `envconfig:"DB_USER" default:"root"`
	Password string `envconfig:"DB_PASS" default:""`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	// SQLite settings
	Path string `envconfig:"TRACKER_DB_PATH" default:"./data/tracker.db"`
}

// RedisConfig holds the optional Redis relay settings.
type RedisConfig struct {
	Enabled  bool   `envconfig:"REDIS_RELAY_ENABLED" default:"true"`
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
	Channel  string `envconfig:"REDIS_RELAY_CHANNEL" default:"tracker:asset-updates"`
}

// SchedulerConfig holds the drain scheduler settings. The drain period
// itself lives in the database; these only control the fallback and the
// config-watch cadence.
type SchedulerConfig struct {
	WatchInterval time.Duration `envconfig:"SCHEDULER_WATCH_INTERVAL" default:"30s"`
	DrainTimeout  time.Duration `envconfig:"SCHEDULER_DRAIN_TIMEOUT" default:"2m"`
}

// MySQLDSN returns the MySQL data source name.
func (d *DatabaseConfig) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// PostgresDSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Address returns the Redis address in host:port format.
func (r *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Location resolves the configured timezone, falling back to UTC.
func (a *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
