// Package config resolves runtime settings from flags, DIET_* environment
// variables and an optional YAML file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "DIET"

type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
	RateLimit       float64
	BodyLimit       string
	AllowOrigins    []string
}

type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	Multiplier     float64
	MaxBackoff     time.Duration
}

type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Persona string
	Retry   RetryConfig
}

type DBConfig struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	BusyTimeoutMs   int
	WAL             bool
	AutoMigrate     bool
	EncryptionKey   string
}

type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	CookieName string
	BcryptCost int
}

// ClientConfig is used by the chat and watch commands to reach a running server.
type ClientConfig struct {
	Server   string
	MemberID string
	Password string
}

type LoggingConfig struct {
	Level string
	Debug bool
}

// Config is resolved once at startup and passed by value.
type Config struct {
	Server  ServerConfig
	Gemini  GeminiConfig
	DB      DBConfig
	Auth    AuthConfig
	Logging LoggingConfig
	Client  ClientConfig
}

const defaultPersona = "You are a friendly, evidence-based nutrition counsellor. " +
	"Give short, practical diet advice and never give medical diagnoses."

func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.rate_limit", 20)
	v.SetDefault("server.body_limit", "1M")
	v.SetDefault("server.allow_origins", []string{"*"})

	v.SetDefault("gemini.api.key", "")
	v.SetDefault("gemini.api.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("gemini.api.model", "gemini-2.0-flash")
	v.SetDefault("gemini.api.persona", defaultPersona)
	v.SetDefault("gemini.retry.max_retries", 3)
	v.SetDefault("gemini.retry.initial_backoff", "2s")
	v.SetDefault("gemini.retry.multiplier", 2.0)
	v.SetDefault("gemini.retry.max_backoff", "0s")

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "diet_coach.sqlite")
	v.SetDefault("db.max_open_conns", 1)
	v.SetDefault("db.max_idle_conns", 1)
	v.SetDefault("db.conn_max_lifetime", "0s")
	v.SetDefault("db.busy_timeout_ms", 5000)
	v.SetDefault("db.wal", true)
	v.SetDefault("db.auto_migrate", true)
	v.SetDefault("db.encryption_key", "")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("auth.cookie_name", "diet_session")
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.debug", false)

	v.SetDefault("client.server", "http://localhost:8080")
	v.SetDefault("client.member_id", "")
	v.SetDefault("client.password", "")
}

// New returns a viper instance with defaults and environment binding in place.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	return v
}

// ReadFile merges a YAML/JSON/TOML config file into v. An empty path is a no-op.
func ReadFile(v *viper.Viper, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Addr:            v.GetString("server.addr"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
			RateLimit:       v.GetFloat64("server.rate_limit"),
			BodyLimit:       v.GetString("server.body_limit"),
			AllowOrigins:    v.GetStringSlice("server.allow_origins"),
		},
		Gemini: GeminiConfig{
			APIKey:  strings.TrimSpace(v.GetString("gemini.api.key")),
			BaseURL: strings.TrimSpace(v.GetString("gemini.api.base_url")),
			Model:   strings.TrimSpace(v.GetString("gemini.api.model")),
			Persona: v.GetString("gemini.api.persona"),
			Retry: RetryConfig{
				MaxRetries:     v.GetInt("gemini.retry.max_retries"),
				InitialBackoff: v.GetDuration("gemini.retry.initial_backoff"),
				Multiplier:     v.GetFloat64("gemini.retry.multiplier"),
				MaxBackoff:     v.GetDuration("gemini.retry.max_backoff"),
			},
		},
		DB: DBConfig{
			Driver:          v.GetString("db.driver"),
			DSN:             v.GetString("db.dsn"),
			MaxOpenConns:    v.GetInt("db.max_open_conns"),
			MaxIdleConns:    v.GetInt("db.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("db.conn_max_lifetime"),
			BusyTimeoutMs:   v.GetInt("db.busy_timeout_ms"),
			WAL:             v.GetBool("db.wal"),
			AutoMigrate:     v.GetBool("db.auto_migrate"),
			EncryptionKey:   v.GetString("db.encryption_key"),
		},
		Auth: AuthConfig{
			JWTSecret:  v.GetString("auth.jwt_secret"),
			TokenTTL:   v.GetDuration("auth.token_ttl"),
			CookieName: v.GetString("auth.cookie_name"),
			BcryptCost: v.GetInt("auth.bcrypt_cost"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("logging.level"),
			Debug: v.GetBool("logging.debug"),
		},
		Client: ClientConfig{
			Server:   strings.TrimRight(strings.TrimSpace(v.GetString("client.server")), "/"),
			MemberID: strings.TrimSpace(v.GetString("client.member_id")),
			Password: v.GetString("client.password"),
		},
	}

	if cfg.Gemini.Retry.MaxRetries < 0 {
		return Config{}, fmt.Errorf("gemini.retry.max_retries must not be negative")
	}
	if cfg.Gemini.Retry.Multiplier < 1 {
		return Config{}, fmt.Errorf("gemini.retry.multiplier must be at least 1")
	}
	if cfg.Auth.TokenTTL <= 0 {
		return Config{}, fmt.Errorf("auth.token_ttl must be positive")
	}
	return cfg, nil
}

// RequireServe checks the settings only the HTTP server needs.
func (c Config) RequireServe() error {
	var missing []string
	if c.Gemini.APIKey == "" {
		missing = append(missing, "gemini.api.key")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "auth.jwt_secret")
	}
	if c.DB.EncryptionKey == "" {
		missing = append(missing, "db.encryption_key")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}
