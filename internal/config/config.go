// Package config implements the settings resolver. Configuration is merged
// from three ordered sources: built-in defaults, the TOML config file, and
// environment variables, with later sources taking precedence. The resolved
// Config is immutable after Load and passed by reference to all consumers.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// DefaultPath is the config file consulted when no path is given.
const DefaultPath = "config.toml"

// Error reports a missing or invalid configuration value. It aborts startup.
type Error struct {
	Key    string
	Reason string
	cause  error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("config: %s: %s: %v", e.Key, e.Reason, e.cause)
	}
	return fmt.Sprintf("config: %s: %s", e.Key, e.Reason)
}

func (e *Error) Unwrap() error { return e.cause }

// Config is the resolved runtime configuration.
type Config struct {
	App     AppConfig     `toml:"app"`
	Logging LoggingConfig `toml:"logging"`
	Auth    AuthConfig    `toml:"auth"`
	DB      DBConfig      `toml:"db"`
}

// AppConfig configures the HTTP server process.
type AppConfig struct {
	Host     string `toml:"host" env:"SERVER_HOST"`
	Port     int    `toml:"port" env:"SERVER_PORT"`
	LogLevel string `toml:"log_level" env:"SERVER_LOG_LEVEL"`
	Reload   bool   `toml:"reload" env:"SERVER_RELOAD"`
}

// AuthConfig configures JWT issuance and validation.
type AuthConfig struct {
	JWTSecret     string `toml:"jwt_secret" env:"JWT_SECRET"`
	JWTAlgorithm  string `toml:"jwt_algorithm" env:"JWT_ALGORITHM"`
	SessionTTLMin int    `toml:"session_ttl_min" env:"JWT_SESSION_TTL_MIN"`
	ExpireMinutes int    `toml:"expire_minutes" env:"JWT_EXPIRE_MINUTES"`
}

// DBConfig groups the backing store settings.
type DBConfig struct {
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
}

// PostgresConfig configures the relational store connection.
type PostgresConfig struct {
	Host            string `toml:"host" env:"POSTGRES_HOST"`
	Port            int    `toml:"port" env:"POSTGRES_PORT"`
	Name            string `toml:"name" env:"POSTGRES_DB"`
	User            string `toml:"user" env:"PGUSER"`
	Password        string `toml:"password" env:"PGPASSWORD"`
	SSLMode         string `toml:"ssl_mode" env:"POSTGRES_SSLMODE"`
	MaxOpenConns    int    `toml:"max_open_conns" env:"POSTGRES_MAX_OPEN_CONNS"`
	MaxIdleConns    int    `toml:"max_idle_conns" env:"POSTGRES_MAX_IDLE_CONNS"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime_sec" env:"POSTGRES_CONN_MAX_LIFETIME_SEC"`
}

// RedisConfig configures the cache / rate-limit store connection.
type RedisConfig struct {
	Host string `toml:"host" env:"REDIS_HOST"`
	Port int    `toml:"port" env:"REDIS_PORT"`
	DB   int    `toml:"db" env:"REDIS_DB"`
}

// LoggingConfig configures the log sinks. Rotation, retention and
// compression describe the external rotation policy for file sinks.
type LoggingConfig struct {
	Level   string        `toml:"level" env:"LOG_LEVEL"`
	Console ConsoleConfig `toml:"console"`
	File    FileConfig    `toml:"file"`
	JSON    FileConfig    `toml:"json_file"`
}

// ConsoleConfig configures console log output.
type ConsoleConfig struct {
	Enabled  bool `toml:"enabled"`
	Colorize bool `toml:"colorize"`
}

// FileConfig configures a file log sink.
type FileConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	Rotation    string `toml:"rotation"`
	Retention   string `toml:"retention"`
	Compression string `toml:"compression"`
}

// Default returns the built-in configuration, the lowest-precedence source.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Host:     "app",
			Port:     8000,
			LogLevel: "info",
		},
		Logging: LoggingConfig{
			Level: "info",
			Console: ConsoleConfig{
				Enabled:  true,
				Colorize: true,
			},
			File: FileConfig{
				Path:        "logs/app.log",
				Rotation:    "10 MB",
				Retention:   "1 week",
				Compression: "zip",
			},
			JSON: FileConfig{
				Path:        "logs/app.json",
				Rotation:    "10 MB",
				Retention:   "1 week",
				Compression: "zip",
			},
		},
		Auth: AuthConfig{
			JWTAlgorithm:  "HS256",
			SessionTTLMin: 60,
		},
		DB: DBConfig{
			Postgres: PostgresConfig{
				Host:    "db",
				Port:    5432,
				Name:    "postgres",
				User:    "postgres",
				SSLMode: "disable",
			},
			Redis: RedisConfig{
				Host: "redis",
				Port: 6379,
			},
		},
	}
}

// Load resolves the configuration from config.toml and the environment.
// A .env file in the working directory is loaded into the environment first.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadFromPath(DefaultPath)
}

// LoadFromPath resolves the configuration using the given config file.
// A missing file is not an error; every key then comes from the environment
// or the defaults. A malformed file is fatal.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, &Error{Key: path, Reason: "failed to parse config file", cause: err}
		}
	case os.IsNotExist(err):
		// fall through to env + defaults
	default:
		return nil, &Error{Key: path, Reason: "failed to read config file", cause: err}
	}

	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, &Error{Key: "environment", Reason: "failed to decode environment variables", cause: err}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces required keys and value ranges.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return &Error{Key: "JWT_SECRET", Reason: "required key is missing"}
	}
	if c.DB.Postgres.Password == "" {
		return &Error{Key: "PGPASSWORD", Reason: "required key is missing"}
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return &Error{Key: "SERVER_PORT", Reason: fmt.Sprintf("port %d out of range", c.App.Port)}
	}
	if c.DB.Postgres.Port <= 0 || c.DB.Postgres.Port > 65535 {
		return &Error{Key: "POSTGRES_PORT", Reason: fmt.Sprintf("port %d out of range", c.DB.Postgres.Port)}
	}
	if c.DB.Redis.Port <= 0 || c.DB.Redis.Port > 65535 {
		return &Error{Key: "REDIS_PORT", Reason: fmt.Sprintf("port %d out of range", c.DB.Redis.Port)}
	}
	if c.Auth.SessionTTLMin <= 0 {
		return &Error{Key: "JWT_SESSION_TTL_MIN", Reason: "must be greater than zero"}
	}
	if !validLogLevel(c.App.LogLevel) {
		return &Error{Key: "SERVER_LOG_LEVEL", Reason: fmt.Sprintf("invalid log level %q", c.App.LogLevel)}
	}
	if c.Auth.JWTAlgorithm != "HS256" && c.Auth.JWTAlgorithm != "HS384" && c.Auth.JWTAlgorithm != "HS512" {
		return &Error{Key: "JWT_ALGORITHM", Reason: fmt.Sprintf("unsupported algorithm %q", c.Auth.JWTAlgorithm)}
	}
	return nil
}

func validLogLevel(level string) bool {
	switch strings.ToLower(level) {
	case "debug", "info", "warning", "error", "critical":
		return true
	}
	return false
}

// PostgresDSN builds the connection string for lib/pq.
func (c *Config) PostgresDSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DB.Postgres.User, c.DB.Postgres.Password),
		Host:   fmt.Sprintf("%s:%d", c.DB.Postgres.Host, c.DB.Postgres.Port),
		Path:   "/" + c.DB.Postgres.Name,
	}
	q := url.Values{}
	q.Set("sslmode", c.DB.Postgres.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// RedisAddr returns the host:port for the redis client.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.DB.Redis.Host, c.DB.Redis.Port)
}

// ListenAddr returns the bind address for the HTTP server.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.App.Host, c.App.Port)
}
