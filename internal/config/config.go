// Package config loads server settings from defaults, an optional YAML
// file, the environment and command line flags, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix - префикс переменных окружения
const EnvPrefix = "AUTHKEEPER_"

// InsecureSecret - секрет-заглушка, с которым сервер не стартует
const InsecureSecret = "your-secret-key-change-in-production"

// ErrMissingSecret is returned when no usable JWT signing secret is configured.
var ErrMissingSecret = errors.New("jwt.secret must be set to a non-default value")

// Config - настройки сервера
type Config struct {
	HTTP    HTTPConfig    `koanf:"http"`
	DB      DBConfig      `koanf:"db"`
	Log     LogConfig     `koanf:"log"`
	Reset   ResetConfig   `koanf:"reset"`
	JWT     JWTConfig     `koanf:"jwt"`
	Cleanup CleanupConfig `koanf:"cleanup"`
}

// HTTPConfig - настройки HTTP сервера
type HTTPConfig struct {
	Addr        string   `koanf:"addr"`
	CORSOrigins []string `koanf:"cors_origins"`
}

// DBConfig - выбор хранилища
type DBConfig struct {
	Driver string `koanf:"driver"` // sqlite | postgres | memory
	DSN    string `koanf:"dsn"`
}

// JWTConfig - настройки session credential
type JWTConfig struct {
	Secret string        `koanf:"secret"`
	TTL    time.Duration `koanf:"ttl"`
}

// ResetConfig - настройки сброса пароля
type ResetConfig struct {
	URL string        `koanf:"url"`
	TTL time.Duration `koanf:"ttl"`
}

// CleanupConfig - период сборщика токенов, 0 отключает его
type CleanupConfig struct {
	Interval time.Duration `koanf:"interval"`
}

// LogConfig - настройки логирования
type LogConfig struct {
	Level  string `koanf:"level"`  // debug | info | warn | error
	Format string `koanf:"format"` // text | json
}

// RegisterFlags объявляет флаги со значениями по умолчанию
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to YAML config file")
	fs.String("http.addr", ":3000", "HTTP listen address")
	fs.StringSlice("http.cors_origins", []string{"*"}, "allowed CORS origins")
	fs.String("db.driver", "sqlite", "storage driver: sqlite, postgres or memory")
	fs.String("db.dsn", "data/users.db", "database file (sqlite) or connection string (postgres)")
	fs.String("jwt.secret", "", "session signing secret (required)")
	fs.Duration("jwt.ttl", 24*time.Hour, "session credential lifetime")
	fs.String("reset.url", "http://localhost:4200/reset-password", "password reset page; the token is appended as ?token=")
	fs.Duration("reset.ttl", time.Hour, "password reset token lifetime")
	fs.Duration("cleanup.interval", 15*time.Minute, "expired token sweep period, 0 disables")
	fs.String("log.level", "info", "log level: debug, info, warn, error")
	fs.String("log.format", "text", "log format: text or json")
}

// Load собирает конфигурацию. fs должен быть уже распарсен.
func Load(fs *pflag.FlagSet) (*Config, error) {
	// .env необязателен
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	k := koanf.New(".")

	if path, _ := fs.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// Переменные, которые понимал прежний сервер
	if err := k.Load(env.ProviderWithValue("", ".", legacyEnv), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	// Явно заданные флаги перекрывают все, значения по умолчанию - только пустые ключи
	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &cfg, nil
}

// envKey: AUTHKEEPER_HTTP_CORS_ORIGINS -> http.cors_origins.
// Пустые переменные пропускаются, чтобы не затирать значения по умолчанию.
func envKey(key, value string) (string, any) {
	if value == "" {
		return "", nil
	}
	key = strings.Replace(strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), "_", ".", 1)
	if key == "http.cors_origins" {
		return key, splitList(value)
	}
	return key, value
}

// splitList разбирает список через запятую
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}

func legacyEnv(key, value string) (string, any) {
	if value == "" {
		return "", nil
	}
	switch key {
	case "PORT":
		return "http.addr", ":" + value
	case "JWT_SECRET":
		return "jwt.secret", value
	case "DB_PATH":
		return "db.dsn", value
	default:
		return "", nil
	}
}

// Validate проверяет обязательные настройки
func (c *Config) Validate() error {
	if c.JWT.Secret == "" || c.JWT.Secret == InsecureSecret {
		return ErrMissingSecret
	}

	if err := c.ValidateDB(); err != nil {
		return err
	}

	if c.JWT.TTL <= 0 {
		return errors.New("jwt.ttl must be positive")
	}
	if c.Reset.TTL <= 0 {
		return errors.New("reset.ttl must be positive")
	}
	if c.Cleanup.Interval < 0 {
		return errors.New("cleanup.interval must not be negative")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}

	return nil
}

// ValidateDB проверяет только настройки хранилища. Достаточно для migrate.
func (c *Config) ValidateDB() error {
	switch c.DB.Driver {
	case "sqlite", "postgres":
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn is required for driver %q", c.DB.Driver)
		}
	case "memory":
	default:
		return fmt.Errorf("unknown db.driver %q", c.DB.Driver)
	}
	return nil
}

// NewLogger создает logger по настройкам
func NewLogger(cfg LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	switch cfg.Format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log.format %q", cfg.Format)
	}
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log.level %q: %w", s, err)
	}
	return level, nil
}

