// Package config loads CLI and front-end configuration.
//
// Sources, highest priority first:
//  1. an explicit path (--config);
//  2. TRACKPRO_CONFIG;
//  3. ./trackpro.yaml;
//  4. environment only.
//
// Environment variables always override file values.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// LocalFile is read from the working directory when no path is given.
const LocalFile = "trackpro.yaml"

type Config struct {
	Env     string        `yaml:"env" env:"TRACKPRO_ENV" env-default:"local"`
	API     APIConfig     `yaml:"api"`
	Session SessionConfig `yaml:"session"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
	Audit   AuditConfig   `yaml:"audit"`
}

// APIConfig locates the TrackPro REST API.
type APIConfig struct {
	Endpoint      string        `yaml:"endpoint"       env:"TRACKPRO_ENDPOINT"       env-default:"http://localhost:8080/v1"`
	RefreshPath   string        `yaml:"refresh_path"   env:"TRACKPRO_REFRESH_PATH"   env-default:"/token/refresh"`
	Timeout       time.Duration `yaml:"timeout"        env:"TRACKPRO_TIMEOUT"        env-default:"10s"`
	SharedRefresh bool          `yaml:"shared_refresh" env:"TRACKPRO_SHARED_REFRESH" env-default:"false"`
}

// SessionConfig selects where the session survives between runs. A set
// RedisAddr wins over File.
type SessionConfig struct {
	File          string        `yaml:"file"           env:"TRACKPRO_SESSION_FILE"`
	Name          string        `yaml:"name"           env:"TRACKPRO_SESSION_NAME"    env-default:"default"`
	RedisAddr     string        `yaml:"redis_addr"     env:"TRACKPRO_REDIS_ADDR"`
	RedisPassword string        `yaml:"redis_password" env:"TRACKPRO_REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redis_db"       env:"TRACKPRO_REDIS_DB"        env-default:"0"`
	TTL           time.Duration `yaml:"ttl"            env:"TRACKPRO_SESSION_TTL"     env-default:"0s"`
}

// UseRedis reports whether sessions are kept in Redis.
func (s SessionConfig) UseRedis() bool { return s.RedisAddr != "" }

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"  env:"TRACKPRO_LOG_LEVEL"  env-default:"warn"`
	Format string `yaml:"format" env:"TRACKPRO_LOG_FORMAT" env-default:"text"`
}

// SlogLevel maps Level to a slog level. Unknown values mean info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MetricsConfig enables Prometheus collection. An empty Addr disables the
// metrics listener; collectors are still registered when Enabled is set.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"TRACKPRO_METRICS_ENABLED" env-default:"false"`
	Addr    string `yaml:"addr"    env:"TRACKPRO_METRICS_ADDR"`
}

// AuditConfig routes session audit events to a JSON-lines file, the
// application log, or both.
type AuditConfig struct {
	File string `yaml:"file" env:"TRACKPRO_AUDIT_FILE"`
	Log  bool   `yaml:"log"  env:"TRACKPRO_AUDIT_LOG" env-default:"false"`
}

// Enabled reports whether any audit sink is configured.
func (a AuditConfig) Enabled() bool { return a.File != "" || a.Log }

// MustLoad panics when Load fails.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the configuration from the first available source.
func Load(path string) (*Config, error) {
	var cfg Config

	switch {
	case path != "":
	case os.Getenv("TRACKPRO_CONFIG") != "":
		path = os.Getenv("TRACKPRO_CONFIG")
	default:
		if _, err := os.Stat(LocalFile); err == nil {
			path = LocalFile
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read env: %w", err)
	}

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) finish() error {
	u, err := url.Parse(c.API.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api.endpoint %q", c.API.Endpoint)
	}
	if c.Session.File == "" {
		c.Session.File = DefaultSessionFile()
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log.format %q: want text or json", c.Log.Format)
	}
	return nil
}

// DefaultSessionFile returns the per-user session file location.
func DefaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "trackpro", "session.json")
}

// Logger builds the slog logger described by l, writing to w.
func (l LogConfig) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: l.SlogLevel()}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
