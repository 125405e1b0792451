// Package config loads service configuration: defaults, then an optional
// YAML file, then environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Env         string `yaml:"env"`
	BaseURL     string `yaml:"base_url"`
	HTTPAddr    string `yaml:"http_addr"`
	ControlAddr string `yaml:"control_addr"`

	// Storage selects the persistence backend: postgres or memory.
	Storage string `yaml:"storage"`

	Ingest IngestConfig `yaml:"ingest"`
	DB     DBConfig     `yaml:"db"`
	Auth   AuthConfig   `yaml:"auth"`
	Disqus DisqusConfig `yaml:"disqus"`
}

type IngestConfig struct {
	Interval time.Duration `yaml:"interval"`
	Workers  int           `yaml:"workers"`
}

type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	SessionTTL  time.Duration             `yaml:"session_ttl"`
	StateSecret string                    `yaml:"state_secret"`
	Providers   map[string]ProviderConfig `yaml:"providers"`
}

type ProviderConfig struct {
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	AuthURL      string   `yaml:"auth_url"`
	TokenURL     string   `yaml:"token_url"`
	UserInfoURL  string   `yaml:"user_info_url"`
	Scopes       []string `yaml:"scopes"`
}

type DisqusConfig struct {
	SecretKey  string `yaml:"secret_key"`
	Uniquifier string `yaml:"uniquifier"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Env:         "development",
		BaseURL:     "http://localhost:8080",
		HTTPAddr:    ":8080",
		ControlAddr: "127.0.0.1:8088",
		Storage:     "postgres",
		Ingest: IngestConfig{
			Interval: 3 * time.Minute,
			Workers:  3,
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Password: "changeme",
			Name:     "phillyrising",
			SSLMode:  "disable",
		},
		Auth: AuthConfig{
			SessionTTL: 30 * 24 * time.Hour,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// it exists), and environment overrides, in that order.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	applyEnv(&cfg)
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Storage {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unknown storage backend: %s", c.Storage)
	}
	if c.Ingest.Workers <= 0 {
		return fmt.Errorf("ingest.workers must be > 0")
	}
	if c.Ingest.Interval <= 0 {
		return fmt.Errorf("ingest.interval must be > 0")
	}
	return nil
}

// DSN builds the postgres connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name, c.DB.SSLMode)
}

func applyEnv(cfg *Config) {
	cfg.Env = getenv("APP_ENV", cfg.Env)
	cfg.BaseURL = getenv("BASE_URL", cfg.BaseURL)
	cfg.HTTPAddr = getenv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.ControlAddr = getenv("CONTROL_ADDR", cfg.ControlAddr)
	cfg.Storage = getenv("STORAGE", cfg.Storage)

	cfg.Ingest.Interval = parseDurationEnv("INGEST_INTERVAL", cfg.Ingest.Interval)
	cfg.Ingest.Workers = parseIntEnv("INGEST_WORKERS", cfg.Ingest.Workers)

	cfg.DB.Host = getenv("POSTGRES_HOST", cfg.DB.Host)
	cfg.DB.Port = parseIntEnv("POSTGRES_PORT", cfg.DB.Port)
	cfg.DB.User = getenv("POSTGRES_USER", cfg.DB.User)
	cfg.DB.Password = getenv("POSTGRES_PASSWORD", cfg.DB.Password)
	cfg.DB.Name = getenv("POSTGRES_DBNAME", cfg.DB.Name)
	cfg.DB.SSLMode = getenv("POSTGRES_SSLMODE", cfg.DB.SSLMode)

	cfg.Auth.SessionTTL = parseDurationEnv("SESSION_TTL", cfg.Auth.SessionTTL)
	cfg.Auth.StateSecret = getenv("AUTH_STATE_SECRET", cfg.Auth.StateSecret)

	cfg.Disqus.SecretKey = getenv("DISQUS_SECRET_KEY", cfg.Disqus.SecretKey)
	cfg.Disqus.Uniquifier = getenv("DISQUS_UNIQUIFIER", cfg.Disqus.Uniquifier)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseIntEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
